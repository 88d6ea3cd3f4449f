package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nvarela/coldtrack/internal/export"
	"github.com/nvarela/coldtrack/internal/report"
	"github.com/nvarela/coldtrack/internal/repository"
)

// ReportHandler serves the aggregated reports and the per-form xlsx
// download.  Aggregation happens in memory over the window loaded by
// the repository; the heavy report GETs are fronted by the Redis
// response cache in the router.
type ReportHandler struct {
	Forms   *repository.FormRepo
	Records *repository.RecordRepo
	Alerts  *repository.AlertRepo
	Log     *zap.Logger
}

func NewReportHandler(f *repository.FormRepo, r *repository.RecordRepo, a *repository.AlertRepo, log *zap.Logger) *ReportHandler {
	return &ReportHandler{Forms: f, Records: r, Alerts: a, Log: log}
}

// Daily returns the summary for one calendar day, defaulting to today
// (UTC).
func (h *ReportHandler) Daily(c echo.Context) error {
	date := time.Now().UTC()
	if v := c.QueryParam("date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
		}
		date = t
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Second)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	forms, err := h.Forms.ListWindow(ctx, start, end, h.Records, h.Alerts)
	if err != nil {
		h.Log.Error("daily report: load window failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, report.BuildDaily(start, forms))
}

// Statistics returns the dashboard numbers for a date range, defaulting
// to the trailing 30 days.
func (h *ReportHandler) Statistics(c echo.Context) error {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)

	if v := c.QueryParam("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
		}
		start = t
	}
	if v := c.QueryParam("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
		}
		end = t.Add(24*time.Hour - time.Second)
	}
	if end.Before(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must not precede start_date"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	forms, err := h.Forms.ListWindow(ctx, start, end, h.Records, h.Alerts)
	if err != nil {
		h.Log.Error("statistics report: load window failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, report.BuildStatistics(start, end, forms))
}

// ExportForm streams one form as an xlsx workbook.
func (h *ReportHandler) ExportForm(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	f, err := h.Forms.GetDetail(ctx, id, h.Records, h.Alerts)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "form not found"})
		}
		h.Log.Error("export form: load failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	data, err := export.FormWorkbook(&f)
	if err != nil {
		h.Log.Error("export form: render failed", zap.Error(err), zap.Uint64("form_id", id))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+export.Filename(&f)+`"`)
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
