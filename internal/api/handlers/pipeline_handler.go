package handlers

import (
	"bufio"
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/ficr/insight/internal/pipeline"
	"github.com/ficr/insight/internal/storage/models"
	"github.com/ficr/insight/internal/storage/sqlite"
	"github.com/ficr/insight/pkg/logger"
)

// ReportInvalidator drops cached reports once a pipeline run has loaded a
// new survey into the repository; satisfied by the Redis client.
type ReportInvalidator interface {
	InvalidateReports(ctx context.Context) error
}

// PipelineHandler runs the survey-to-report chat pipeline over SSE and
// serves its supporting lookups.
type PipelineHandler struct {
	service     *pipeline.Service
	store       *sqlite.Client
	invalidator ReportInvalidator
	runTimeout  time.Duration
}

func NewPipelineHandler(service *pipeline.Service, store *sqlite.Client, invalidator ReportInvalidator, runTimeout time.Duration) *PipelineHandler {
	return &PipelineHandler{
		service:     service,
		store:       store,
		invalidator: invalidator,
		runTimeout:  runTimeout,
	}
}

// RunPipeline streams the pipeline stages as server-sent events. The
// response is a single long-lived chunked body; each stage transition and
// each report chunk is one framed event.
func (h *PipelineHandler) RunPipeline(c *fiber.Ctx) error {
	var req pipeline.RunRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.Survey) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Survey document is required",
		})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithTimeout(context.Background(), h.runTimeout)
		defer cancel()

		emit := func(name string, data interface{}) error {
			if err := pipeline.WriteEvent(w, name, data); err != nil {
				return err
			}
			return w.Flush()
		}

		summary := h.service.Run(ctx, req, emit)
		h.recordRun(req, summary)

		// A run that got past the rdf stage has changed the repository, so
		// cached reports are stale.
		if h.invalidator != nil && summary.Stage != "validation" && summary.Stage != "rdf" {
			invCtx, invCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer invCancel()
			if err := h.invalidator.InvalidateReports(invCtx); err != nil {
				logger.Warn("Failed to invalidate report cache", zap.Error(err))
			}
		}
	}))

	return nil
}

func (h *PipelineHandler) recordRun(req pipeline.RunRequest, summary pipeline.RunSummary) {
	if h.store == nil {
		return
	}

	run := &models.PipelineRun{
		ID:        uuid.New().String(),
		Provider:  req.Provider,
		Model:     req.Model,
		Stage:     summary.Stage,
		Succeeded: summary.Succeeded,
		CharCount: summary.CharCount,
		CreatedAt: time.Now(),
	}

	if err := h.store.InsertPipelineRun(run); err != nil {
		logger.Warn("Failed to record pipeline run", zap.Error(err))
	}
}

// GetProviders lists the chat backends with a configured API key.
func (h *PipelineHandler) GetProviders(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"providers": pipeline.AvailableProviders(),
	})
}

// GetSampleSurveys lists the bundled sample survey documents.
func (h *PipelineHandler) GetSampleSurveys(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"samples": pipeline.ListSamples(),
	})
}

// GetSampleSurvey returns one sample survey document verbatim.
func (h *PipelineHandler) GetSampleSurvey(c *fiber.Ctx) error {
	raw, err := pipeline.SampleBySlug(c.Params("slug"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Sample not found",
		})
	}

	c.Set("Content-Type", "application/json")
	return c.Send(raw)
}
