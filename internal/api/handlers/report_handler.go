package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ficr/insight/internal/report"
	"github.com/ficr/insight/pkg/logger"
)

// ReportHandler serves the aggregated compliance report, in its interactive
// and printable forms.
type ReportHandler struct {
	service *report.Service
}

func NewReportHandler(service *report.Service) *ReportHandler {
	return &ReportHandler{service: service}
}

// GetReport returns the full report with the deficit list shaped by the
// requested filter and sort direction.
func (h *ReportHandler) GetReport(c *fiber.Ctx) error {
	filter, ok := parseFilter(c.Query("filter", string(report.FilterAll)))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "filter must be one of: all, high, horizontal, vertical",
		})
	}

	dir := report.SortDir(c.Query("sort", string(report.SortDesc)))
	if dir != report.SortAsc && dir != report.SortDesc {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "sort must be asc or desc",
		})
	}

	rep, err := h.service.BuildReport(c.Context())
	if err != nil {
		logger.Error("Report build failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Report data could not be fetched from the repository",
		})
	}

	return c.JSON(fiber.Map{
		"generated_at": rep.GeneratedAt.Unix(),
		"metrics":      rep.Metrics,
		"deficits":     report.View(rep.Deficits, filter, dir),
		"risk_units":   rep.RiskUnits,
	})
}

// GetPrintReport returns the printable rendition: the complete deficit list
// sorted by exposure descending, regardless of any interactive filter.
func (h *ReportHandler) GetPrintReport(c *fiber.Ctx) error {
	rep, err := h.service.BuildReport(c.Context())
	if err != nil {
		logger.Error("Report build failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Report data could not be fetched from the repository",
		})
	}

	return c.JSON(fiber.Map{
		"generated_at": rep.GeneratedAt.Unix(),
		"metrics":      rep.Metrics,
		"deficits":     report.PrintView(rep.Deficits),
		"risk_units":   rep.RiskUnits,
	})
}

func parseFilter(raw string) (report.FilterMode, bool) {
	switch report.FilterMode(raw) {
	case report.FilterAll, report.FilterHigh, report.FilterHorizontal, report.FilterVertical:
		return report.FilterMode(raw), true
	}
	return "", false
}
