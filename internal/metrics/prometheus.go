package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SparqlQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ficr_sparql_query_duration_seconds",
			Help:    "SPARQL query round-trip duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"kind"},
	)

	SparqlQueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ficr_sparql_query_total",
			Help: "Total SPARQL queries executed",
		},
		[]string{"status"},
	)

	SparqlRowsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ficr_sparql_rows_returned",
			Help:    "Rows per SPARQL result set",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		},
	)

	ReportBuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ficr_report_builds_total",
			Help: "Audit report aggregations attempted",
		},
		[]string{"status"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ficr_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ficr_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ficr_pipeline_runs_total",
			Help: "Chat pipeline runs by terminal stage",
		},
		[]string{"stage", "status"},
	)

	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ficr_pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	LLMReportChars = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ficr_llm_report_chars_total",
			Help: "Characters streamed in LLM-generated reports",
		},
	)
)

func Init() {
	prometheus.MustRegister(SparqlQueryDuration)
	prometheus.MustRegister(SparqlQueryTotal)
	prometheus.MustRegister(SparqlRowsReturned)
	prometheus.MustRegister(ReportBuilds)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(PipelineRuns)
	prometheus.MustRegister(PipelineStageDuration)
	prometheus.MustRegister(LLMReportChars)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
