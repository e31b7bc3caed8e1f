package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ficr/insight/internal/metrics"
	"github.com/ficr/insight/internal/queries"
	"github.com/ficr/insight/internal/sparql"
	"github.com/ficr/insight/pkg/logger"
)

// QueryRunner is the slice of the SPARQL gateway the pipeline needs.
type QueryRunner interface {
	Query(ctx context.Context, query string) (*sparql.ResultSet, error)
}

// EmitFunc delivers one named event to the client. An error from it means
// the client is gone and the run should stop.
type EmitFunc func(name string, data interface{}) error

type RunRequest struct {
	Survey   json.RawMessage `json:"survey"`
	Provider string          `json:"provider"`
	Model    string          `json:"model"`
}

// RunSummary describes how far a pipeline run got, for history recording.
type RunSummary struct {
	Stage     string
	Succeeded bool
	CharCount int
}

type Service struct {
	converter *ConverterClient
	runner    QueryRunner
	catalog   *queries.Catalog
	llm       *LLMClient
}

func NewService(converter *ConverterClient, runner QueryRunner, catalog *queries.Catalog, llm *LLMClient) *Service {
	return &Service{
		converter: converter,
		runner:    runner,
		catalog:   catalog,
		llm:       llm,
	}
}

// Run executes the validate → RDF → SPARQL → report stages, emitting one
// event per stage transition and one per report chunk. Stage failures end
// the run with an error event; they are not fatal to the process.
func (s *Service) Run(ctx context.Context, req RunRequest, emit EmitFunc) RunSummary {
	// Stage 1: survey validation.
	start := time.Now()
	if errs := ValidateSurvey(req.Survey); len(errs) > 0 {
		capped := errs
		if len(capped) > maxReportedErrors {
			capped = capped[:maxReportedErrors]
		}
		emit(EventValidation, ValidationPayload{Status: "fail", Errors: capped})
		emit(EventError, ErrorPayload{
			Stage:   "validation",
			Message: fmt.Sprintf("Survey JSON has %d validation error(s)", len(errs)),
		})
		return s.finish("validation", false, 0)
	}
	metrics.PipelineStageDuration.WithLabelValues("validation").Observe(time.Since(start).Seconds())
	if err := emit(EventValidation, ValidationPayload{Status: "pass", Message: "Survey JSON is valid (ficr-survey-v1)"}); err != nil {
		return s.finish("validation", false, 0)
	}

	// Stage 2: survey → RDF, delegated to the converter service.
	start = time.Now()
	converted, err := s.converter.Convert(ctx, req.Survey)
	if err != nil {
		emit(EventError, ErrorPayload{Stage: "rdf", Message: err.Error()})
		return s.finish("rdf", false, 0)
	}
	metrics.PipelineStageDuration.WithLabelValues("rdf").Observe(time.Since(start).Seconds())
	if err := emit(EventRDF, RDFPayload{Status: "complete", TripleCount: converted.TripleCount}); err != nil {
		return s.finish("rdf", false, 0)
	}

	// Stage 3: run the preset suite against the repository. Individual
	// probe failures are counted, not fatal; the report stage works with
	// whatever probes succeeded.
	start = time.Now()
	results := make(map[string]interface{})
	queryCount, probesFailed := 0, 0
	for _, group := range s.catalog.Groups {
		for _, def := range group.Queries {
			queryCount++
			rs, err := s.runner.Query(ctx, def.Query)
			if err != nil {
				probesFailed++
				logger.Warn("Pipeline probe failed",
					zap.String("query", def.Key),
					zap.Error(err),
				)
				continue
			}
			results[def.Key] = map[string]interface{}{
				"label":     def.Label,
				"variables": rs.Variables,
				"rows":      rs.Rows,
			}
		}
	}
	metrics.PipelineStageDuration.WithLabelValues("sparql").Observe(time.Since(start).Seconds())
	if err := emit(EventSPARQL, SPARQLPayload{
		Status:       "complete",
		QueryCount:   queryCount,
		ProbesFailed: probesFailed,
		Results:      results,
	}); err != nil {
		return s.finish("sparql", false, 0)
	}

	// Stage 4: stream the LLM-written report.
	if err := emit(EventReportStart, ReportStartPayload{Provider: req.Provider, Model: req.Model}); err != nil {
		return s.finish("report", false, 0)
	}

	userMessage, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		emit(EventError, ErrorPayload{Stage: "report", Message: err.Error()})
		return s.finish("report", false, 0)
	}

	start = time.Now()
	var full []byte
	err = s.llm.StreamReport(ctx, req.Provider, req.Model, string(userMessage), func(text string) error {
		full = append(full, text...)
		metrics.LLMReportChars.Add(float64(len(text)))
		return emit(EventReportChunk, ReportChunkPayload{Text: text})
	})
	if err != nil {
		emit(EventError, ErrorPayload{Stage: "report", Message: err.Error()})
		return s.finish("report", false, len(full))
	}
	metrics.PipelineStageDuration.WithLabelValues("report").Observe(time.Since(start).Seconds())

	if err := emit(EventReportDone, ReportDonePayload{FullReport: string(full), CharCount: len(full)}); err != nil {
		return s.finish("report", false, len(full))
	}

	emit(EventDone, DonePayload{Message: "Pipeline complete"})
	return s.finish("done", true, len(full))
}

func (s *Service) finish(stage string, ok bool, chars int) RunSummary {
	status := "error"
	if ok {
		status = "ok"
	}
	metrics.PipelineRuns.WithLabelValues(stage, status).Inc()
	return RunSummary{Stage: stage, Succeeded: ok, CharCount: chars}
}
