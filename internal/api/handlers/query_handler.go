package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ficr/insight/internal/metrics"
	"github.com/ficr/insight/internal/queries"
	"github.com/ficr/insight/internal/sparql"
	"github.com/ficr/insight/internal/storage/models"
	"github.com/ficr/insight/internal/storage/sqlite"
	"github.com/ficr/insight/pkg/logger"
	"github.com/ficr/insight/pkg/utils"
)

// QueryCache is the result-set cache surface; satisfied by the Redis client.
// A nil cache disables caching.
type QueryCache interface {
	GetQuery(ctx context.Context, queryHash string, response interface{}) (bool, error)
	SetQuery(ctx context.Context, queryHash string, response interface{}, ttl time.Duration) error
}

// QueryHandler serves the Query Lab: raw SPARQL execution, the preset
// catalog, and execution history.
type QueryHandler struct {
	runner   *sparql.Client
	catalog  *queries.Catalog
	store    *sqlite.Client
	cache    QueryCache
	cacheTTL time.Duration
}

func NewQueryHandler(runner *sparql.Client, catalog *queries.Catalog, store *sqlite.Client, cache QueryCache, cacheTTL time.Duration) *QueryHandler {
	return &QueryHandler{
		runner:   runner,
		catalog:  catalog,
		store:    store,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// HandleQuery executes one SPARQL query against the repository. The query
// arrives either pre-validated via middleware, as a preset key, or as a JSON
// body.
func (h *QueryHandler) HandleQuery(c *fiber.Ctx) error {
	queryText, source := h.resolveQuery(c)
	if queryText == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query is required",
		})
	}

	// Preset queries are stable text, so their results cache well; ad-hoc
	// Query Lab text goes straight through.
	var queryHash string
	if h.cache != nil && source == "preset" {
		queryHash = utils.HashText(queryText)
		var cached sparql.ResultSet
		hit, err := h.cache.GetQuery(c.Context(), queryHash, &cached)
		if err != nil {
			logger.Warn("Query cache read failed", zap.Error(err))
		}
		if hit {
			metrics.CacheHits.WithLabelValues("query").Inc()
			return c.JSON(fiber.Map{
				"variables":  cached.Variables,
				"rows":       cached.Rows,
				"row_count":  len(cached.Rows),
				"latency_ms": 0,
				"cached":     true,
			})
		}
		metrics.CacheMisses.WithLabelValues("query").Inc()
	}

	start := time.Now()
	rs, err := h.runner.Query(c.Context(), queryText)
	latency := time.Since(start)

	metrics.SparqlQueryDuration.WithLabelValues(source).Observe(latency.Seconds())

	if err != nil {
		metrics.SparqlQueryTotal.WithLabelValues("error").Inc()
		h.record(queryText, source, "error", 0, latency, err)
		return queryError(c, err)
	}

	metrics.SparqlQueryTotal.WithLabelValues("ok").Inc()
	metrics.SparqlRowsReturned.Observe(float64(len(rs.Rows)))
	h.record(queryText, source, "ok", len(rs.Rows), latency, nil)

	if queryHash != "" {
		if err := h.cache.SetQuery(c.Context(), queryHash, rs, h.cacheTTL); err != nil {
			logger.Warn("Query cache write failed", zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{
		"variables":  rs.Variables,
		"rows":       rs.Rows,
		"row_count":  len(rs.Rows),
		"latency_ms": latency.Milliseconds(),
	})
}

// resolveQuery finds the query text and labels where it came from for
// history and metrics.
func (h *QueryHandler) resolveQuery(c *fiber.Ctx) (string, string) {
	if q, ok := c.Locals("sparql_query").(string); ok && q != "" {
		return q, "raw"
	}

	var req struct {
		Query  string `json:"query"`
		Preset string `json:"preset"`
	}
	if err := c.BodyParser(&req); err != nil {
		return "", ""
	}

	if req.Preset != "" {
		def, ok := h.catalog.ByKey(req.Preset)
		if !ok {
			return "", ""
		}
		return def.Query, "preset"
	}

	return req.Query, "raw"
}

func (h *QueryHandler) record(queryText, source, status string, rows int, latency time.Duration, qerr error) {
	if h.store == nil {
		return
	}

	rec := &models.QueryRecord{
		ID:        uuid.New().String(),
		QueryText: queryText,
		Source:    source,
		Status:    status,
		RowCount:  rows,
		LatencyMS: int(latency.Milliseconds()),
		CreatedAt: time.Now(),
	}
	if qerr != nil {
		rec.ErrorText = qerr.Error()
	}

	if err := h.store.InsertQueryRecord(rec); err != nil {
		logger.Warn("Failed to record query", zap.Error(err))
	}
}

// GetPresets returns the full preset catalog grouped by module.
func (h *QueryHandler) GetPresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"groups": h.catalog.Groups,
	})
}

// GetQueryHistory returns recent executions, newest first.
func (h *QueryHandler) GetQueryHistory(c *fiber.Ctx) error {
	if h.store == nil {
		return c.JSON(fiber.Map{"history": []interface{}{}})
	}

	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	records, err := h.store.GetQueryHistory(limit)
	if err != nil {
		logger.Error("Failed to load query history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load query history",
		})
	}

	history := make([]fiber.Map, 0, len(records))
	for _, r := range records {
		history = append(history, fiber.Map{
			"id":         r.ID,
			"query":      r.QueryText,
			"source":     r.Source,
			"status":     r.Status,
			"row_count":  r.RowCount,
			"latency_ms": r.LatencyMS,
			"error":      r.ErrorText,
			"created_at": r.CreatedAt.Unix(),
		})
	}

	return c.JSON(fiber.Map{"history": history})
}

// queryError maps the gateway error taxonomy onto HTTP statuses without
// leaking raw endpoint internals to the browser.
func queryError(c *fiber.Ctx, err error) error {
	var endpointErr *sparql.EndpointError
	if errors.As(err, &endpointErr) {
		logger.Error("Endpoint rejected query",
			zap.Int("status", endpointErr.StatusCode),
			zap.String("body", endpointErr.Body),
		)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":           "The SPARQL endpoint rejected the query",
			"endpoint_status": endpointErr.StatusCode,
		})
	}

	var malformedErr *sparql.MalformedResponseError
	if errors.As(err, &malformedErr) {
		logger.Error("Endpoint returned malformed results", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "The SPARQL endpoint returned an unreadable response",
		})
	}

	logger.Error("SPARQL endpoint unreachable", zap.Error(err))
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
		"error": "The SPARQL endpoint is unreachable",
	})
}
