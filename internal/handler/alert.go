package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nvarela/coldtrack/internal/repository"
)

// AlertHandler serves alert listing and acknowledgement.
type AlertHandler struct {
	Forms  *repository.FormRepo
	Alerts *repository.AlertRepo
	Log    *zap.Logger
}

func NewAlertHandler(f *repository.FormRepo, a *repository.AlertRepo, log *zap.Logger) *AlertHandler {
	return &AlertHandler{Forms: f, Alerts: a, Log: log}
}

// ListByForm returns a form's alerts, most severe first.
func (h *AlertHandler) ListByForm(c echo.Context) error {
	formID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Forms.GetByID(ctx, formID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "form not found"})
		}
		h.Log.Error("list alerts: form lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	alerts, err := h.Alerts.ListByForm(ctx, formID)
	if err != nil {
		h.Log.Error("list alerts failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": alerts, "total": len(alerts)})
}

// Acknowledge marks an alert as handled by the current user.
// Acknowledgement is one-way; acknowledging twice is a conflict.
func (h *AlertHandler) Acknowledge(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	userID, ok := c.Get("user_id").(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Alerts.Acknowledge(ctx, id, userID); err != nil {
		if err == repository.ErrNotFound {
			// Either the alert does not exist or it is already acknowledged.
			if _, lookupErr := h.Alerts.GetByID(ctx, id); lookupErr == nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "alert already acknowledged"})
			}
			return c.JSON(http.StatusNotFound, echo.Map{"error": "alert not found"})
		}
		h.Log.Error("acknowledge alert failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	a, err := h.Alerts.GetByID(ctx, id)
	if err != nil {
		h.Log.Error("acknowledge alert: reload failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, a)
}
