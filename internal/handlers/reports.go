package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves the statistics and export endpoints.
type ReportHandler struct {
	aggregator *report.Aggregator
}

// NewReportHandler creates a report handler.
func NewReportHandler(agg *report.Aggregator) *ReportHandler {
	return &ReportHandler{aggregator: agg}
}

// Summary handles GET /api/reports/summary?start=&end=.
func (h *ReportHandler) Summary(c echo.Context) error {
	summary, err := h.aggregator.SummaryByDateRange(c.Request().Context(), c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// CarReport handles GET /api/reports/cars/:year/:month.
func (h *ReportHandler) CarReport(c echo.Context) error {
	return h.monthly(c, "car-report", h.aggregator.MonthlyCarReport)
}

// DriverReport handles GET /api/reports/drivers/:year/:month.
func (h *ReportHandler) DriverReport(c echo.Context) error {
	return h.monthly(c, "driver-report", h.aggregator.MonthlyDriverReport)
}

// MissionExport handles GET /api/reports/missions/:year/:month.
func (h *ReportHandler) MissionExport(c echo.Context) error {
	return h.monthly(c, "mission-export", h.aggregator.MonthlyMissionExport)
}

func (h *ReportHandler) monthly(c echo.Context, kind string, build func(context.Context, int, int) ([]byte, error)) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 2000 || year > 2100 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid year"})
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid month"})
	}
	data, err := build(c.Request().Context(), year, month)
	if err != nil {
		return httpError(c, err)
	}
	name := fmt.Sprintf("%s-%04d-%02d.xlsx", kind, year, month)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, xlsxContentType, data)
}
