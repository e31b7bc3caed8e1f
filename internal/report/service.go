package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ficr/insight/internal/metrics"
	"github.com/ficr/insight/internal/queries"
	"github.com/ficr/insight/internal/sparql"
	"github.com/ficr/insight/pkg/logger"
	"github.com/ficr/insight/pkg/utils"
)

// QueryRunner is the gateway surface the service needs; satisfied by
// *sparql.Client.
type QueryRunner interface {
	Query(ctx context.Context, query string) (*sparql.ResultSet, error)
}

// Cache is the report cache surface; satisfied by the Redis client. A nil
// Cache disables caching.
type Cache interface {
	GetReport(ctx context.Context, key string, out interface{}) (bool, error)
	SetReport(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type Service struct {
	runner  QueryRunner
	catalog *queries.Catalog
	cache   Cache
	opts    Options
	ttl     time.Duration
}

func NewService(runner QueryRunner, catalog *queries.Catalog, cache Cache, opts Options, ttl time.Duration) *Service {
	return &Service{
		runner:  runner,
		catalog: catalog,
		cache:   cache,
		opts:    opts,
		ttl:     ttl,
	}
}

// BuildReport fetches the three report presets in parallel and aggregates
// them. The join is all-or-nothing: if any fetch fails the whole build fails
// and no partial metrics are derived.
func (s *Service) BuildReport(ctx context.Context) (*Report, error) {
	keys := []string{queries.KeyGlobalCompliance, queries.KeyElementDetail, queries.KeyRiskConfidence}

	texts := make([]string, len(keys))
	for i, key := range keys {
		def, ok := s.catalog.ByKey(key)
		if !ok {
			return nil, fmt.Errorf("preset %q missing from catalog", key)
		}
		texts[i] = def.Query
	}

	cacheKey := utils.HashText(fmt.Sprintf("%v|door=%v", texts, s.opts.IncludeDoorObstructionInOverall))
	if s.cache != nil {
		var cached Report
		hit, err := s.cache.GetReport(ctx, cacheKey, &cached)
		if err != nil {
			logger.Warn("Report cache read failed", zap.Error(err))
		}
		if hit {
			metrics.CacheHits.WithLabelValues("report").Inc()
			return &cached, nil
		}
		metrics.CacheMisses.WithLabelValues("report").Inc()
	}

	results := make([]*sparql.ResultSet, len(texts))
	errs := make([]error, len(texts))

	var wg sync.WaitGroup
	for i := range texts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.runner.Query(ctx, texts[i])
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			metrics.ReportBuilds.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("report preset %q failed: %w", keys[i], err)
		}
	}

	rep, err := Aggregate(results[0], results[1], results[2], s.opts)
	if err != nil {
		metrics.ReportBuilds.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ReportBuilds.WithLabelValues("ok").Inc()

	logger.Info("Report built",
		zap.Int("deficits", len(rep.Deficits)),
		zap.Int("risk_units", len(rep.RiskUnits)),
		zap.Float64("overall_rate", rep.Metrics.OverallRatePercent),
	)

	if s.cache != nil {
		if err := s.cache.SetReport(ctx, cacheKey, rep, s.ttl); err != nil {
			logger.Warn("Report cache write failed", zap.Error(err))
		}
	}

	return rep, nil
}
