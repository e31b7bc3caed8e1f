package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ficr/insight/internal/queries"
	"github.com/ficr/insight/internal/sparql"
)

type fakeRunner struct {
	fail map[string]bool // substring of the query text to fail on
}

func (f *fakeRunner) Query(ctx context.Context, query string) (*sparql.ResultSet, error) {
	for sub := range f.fail {
		if strings.Contains(query, sub) {
			return nil, errors.New("endpoint down")
		}
	}
	return &sparql.ResultSet{Rows: []sparql.Row{}}, nil
}

type memCache struct {
	stored map[string]*Report
}

func (m *memCache) GetReport(ctx context.Context, key string, out interface{}) (bool, error) {
	rep, ok := m.stored[key]
	if !ok {
		return false, nil
	}
	*out.(*Report) = *rep
	return true, nil
}

func (m *memCache) SetReport(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.stored == nil {
		m.stored = make(map[string]*Report)
	}
	m.stored[key] = value.(*Report)
	return nil
}

func mustCatalog(t *testing.T) *queries.Catalog {
	t.Helper()
	c, err := queries.Load()
	require.NoError(t, err)
	return c
}

func TestBuildReport(t *testing.T) {
	svc := NewService(&fakeRunner{}, mustCatalog(t), nil, Options{IncludeDoorObstructionInOverall: true}, 0)

	rep, err := svc.BuildReport(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, rep.Deficits)
	assert.NotNil(t, rep.RiskUnits)
	assert.False(t, rep.GeneratedAt.IsZero())
}

func TestBuildReportAllOrNothing(t *testing.T) {
	// One of the three presets failing must fail the whole build; no partial
	// or zeroed metrics may be published.
	runner := &fakeRunner{fail: map[string]bool{"BoundaryAssumption": true}}
	svc := NewService(runner, mustCatalog(t), nil, Options{}, 0)

	rep, err := svc.BuildReport(context.Background())
	require.Error(t, err)
	assert.Nil(t, rep)
	assert.Contains(t, err.Error(), queries.KeyRiskConfidence)
}

func TestBuildReportUsesCache(t *testing.T) {
	cache := &memCache{}
	svc := NewService(&fakeRunner{}, mustCatalog(t), cache, Options{}, time.Minute)

	first, err := svc.BuildReport(context.Background())
	require.NoError(t, err)
	require.Len(t, cache.stored, 1)

	// Second build with a failing endpoint still succeeds from cache.
	svc2 := NewService(&fakeRunner{fail: map[string]bool{"SELECT": true}}, mustCatalog(t), cache, Options{}, time.Minute)
	second, err := svc2.BuildReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.GeneratedAt.Unix(), second.GeneratedAt.Unix())
}
