package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nvarela/coldtrack/internal/model"
	"github.com/nvarela/coldtrack/internal/queue"
	"github.com/nvarela/coldtrack/internal/repository"
	"github.com/nvarela/coldtrack/internal/service"
)

// RecordHandler serves the per-car temperature record endpoints nested
// under a form.  Creating or editing a record runs the range check
// against the product catalogue; an out-of-range reading flags the
// record, raises an alert and publishes an event for downstream
// consumers.
type RecordHandler struct {
	Forms     *repository.FormRepo
	Records   *repository.RecordRepo
	Products  *repository.ProductRepo
	Alerts    *repository.AlertRepo
	Publisher *service.AlertPublisher
	Log       *zap.Logger
}

func NewRecordHandler(f *repository.FormRepo, r *repository.RecordRepo, p *repository.ProductRepo,
	a *repository.AlertRepo, pub *service.AlertPublisher, log *zap.Logger) *RecordHandler {
	return &RecordHandler{Forms: f, Records: r, Products: p, Alerts: a, Publisher: pub, Log: log}
}

type recordReq struct {
	CarNumber            *int     `json:"car_number"`
	ProductCode          string   `json:"product_code"`
	ProductTemperature   *float64 `json:"product_temperature"`
	DefrostStartTime     *string  `json:"defrost_start_time"`
	ConsumptionStartTime *string  `json:"consumption_start_time"`
	ConsumptionEndTime   *string  `json:"consumption_end_time"`
	Observations         *string  `json:"observations"`
	RecordOrder          *int     `json:"record_order"`
}

func (r *recordReq) validate() string {
	r.ProductCode = strings.ToUpper(strings.TrimSpace(r.ProductCode))
	switch {
	case r.CarNumber == nil || *r.CarNumber < 1:
		return "car number must be positive"
	case r.ProductCode == "":
		return "product code is required"
	case r.ProductTemperature == nil:
		return "product temperature is required"
	case *r.ProductTemperature < -100 || *r.ProductTemperature > 100:
		return "product temperature must be between -100 and 100"
	}
	for _, clock := range []*string{r.DefrostStartTime, r.ConsumptionStartTime, r.ConsumptionEndTime} {
		if clock != nil && !model.ValidClock(*clock) {
			return "time markers must use the HH:MM format"
		}
	}
	return ""
}

// Create appends a record to an editable form.
func (h *RecordHandler) Create(c echo.Context) error {
	formID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form id"})
	}
	var req recordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	form, he := h.editableForm(c, ctx, formID)
	if he != nil {
		return renderHTTPError(c, he)
	}

	product, err := h.Products.GetByCode(ctx, req.ProductCode)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown product code"})
		}
		h.Log.Error("create record: product lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	order := 0
	if req.RecordOrder != nil {
		order = *req.RecordOrder
	} else {
		order = *req.CarNumber
	}

	rec := model.Record{
		FormID:               formID,
		CarNumber:            *req.CarNumber,
		ProductCode:          product.ProductCode,
		ProductID:            &product.ID,
		ProductName:          product.ProductName,
		ProductTemperature:   *req.ProductTemperature,
		DefrostStartTime:     req.DefrostStartTime,
		ConsumptionStartTime: req.ConsumptionStartTime,
		ConsumptionEndTime:   req.ConsumptionEndTime,
		Observations:         req.Observations,
		RecordOrder:          order,
		HasAlert:             !product.IsTemperatureInRange(*req.ProductTemperature),
	}
	if err := h.Records.Create(ctx, &rec); err != nil {
		h.Log.Error("create record failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}

	if rec.HasAlert {
		h.raiseAlert(c, ctx, &form, &rec, &product)
	}
	return c.JSON(http.StatusCreated, rec)
}

// Update rewrites a record and re-runs the range check.  A reading that
// moved out of range raises a fresh alert; moving back into range
// clears the flag but leaves previously raised alerts untouched as part
// of the audit trail.
func (h *RecordHandler) Update(c echo.Context) error {
	formID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form id"})
	}
	recordID, err := strconv.ParseUint(c.Param("recordId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid record id"})
	}
	var req recordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	form, he := h.editableForm(c, ctx, formID)
	if he != nil {
		return renderHTTPError(c, he)
	}

	rec, err := h.Records.GetByID(ctx, formID, recordID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "record not found"})
		}
		h.Log.Error("update record: lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	product, err := h.Products.GetByCode(ctx, req.ProductCode)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown product code"})
		}
		h.Log.Error("update record: product lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	wasInRange := !rec.HasAlert

	rec.CarNumber = *req.CarNumber
	rec.ProductCode = product.ProductCode
	rec.ProductID = &product.ID
	rec.ProductName = product.ProductName
	rec.ProductTemperature = *req.ProductTemperature
	rec.DefrostStartTime = req.DefrostStartTime
	rec.ConsumptionStartTime = req.ConsumptionStartTime
	rec.ConsumptionEndTime = req.ConsumptionEndTime
	rec.Observations = req.Observations
	if req.RecordOrder != nil {
		rec.RecordOrder = *req.RecordOrder
	}
	rec.HasAlert = !product.IsTemperatureInRange(rec.ProductTemperature)

	if err := h.Records.Update(ctx, &rec); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "record not found"})
		}
		h.Log.Error("update record failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	if rec.HasAlert && wasInRange {
		h.raiseAlert(c, ctx, &form, &rec, &product)
	}
	return c.JSON(http.StatusOK, rec)
}

// Delete soft-deletes a record from an editable form.
func (h *RecordHandler) Delete(c echo.Context) error {
	formID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form id"})
	}
	recordID, err := strconv.ParseUint(c.Param("recordId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid record id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, he := h.editableForm(c, ctx, formID); he != nil {
		return renderHTTPError(c, he)
	}

	if err := h.Records.SoftDelete(ctx, formID, recordID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "record not found"})
		}
		h.Log.Error("delete record failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "record deleted"})
}

// editableForm loads a form and enforces the ownership and lifecycle
// guards shared by every record mutation.  A non-nil HTTPError means
// the request must be rejected.
func (h *RecordHandler) editableForm(c echo.Context, ctx context.Context, formID uint64) (model.Form, *echo.HTTPError) {
	form, err := h.Forms.GetByID(ctx, formID)
	if err != nil {
		if err == repository.ErrNotFound {
			return model.Form{}, echo.NewHTTPError(http.StatusNotFound, "form not found")
		}
		h.Log.Error("record: form lookup failed", zap.Error(err))
		return model.Form{}, echo.NewHTTPError(http.StatusInternalServerError, "query failed")
	}
	if he := ownershipError(c, form.CreatedByUserID); he != nil {
		return model.Form{}, he
	}
	if !form.CanBeEdited() {
		return model.Form{}, echo.NewHTTPError(http.StatusBadRequest, "form in status "+form.Status+" cannot be edited")
	}
	return form, nil
}

// raiseAlert persists an alert for an out-of-range reading and
// publishes the event.  Failures are logged but never fail the request:
// the record row is already committed.
func (h *RecordHandler) raiseAlert(c echo.Context, ctx context.Context, form *model.Form, rec *model.Record, product *model.Product) {
	severity := product.AlertSeverity(rec.ProductTemperature)
	alert := model.Alert{
		FormID:   form.ID,
		RecordID: &rec.ID,
		Severity: severity,
		Message: fmt.Sprintf("%s reading %.1f°C is outside the allowed range [%.1f, %.1f]",
			product.ProductCode, rec.ProductTemperature, product.MinTemperature, product.MaxTemperature),
		Temperature:            rec.ProductTemperature,
		ExpectedMinTemperature: product.MinTemperature,
		ExpectedMaxTemperature: product.MaxTemperature,
	}
	if err := h.Alerts.Create(ctx, &alert); err != nil {
		h.Log.Error("raise alert failed", zap.Error(err), zap.Uint64("record_id", rec.ID))
		return
	}

	userID, _ := c.Get("user_id").(uint64)
	event := queue.TemperatureAlertRaisedEvent{
		EventID:                uuid.NewString(),
		AlertID:                alert.ID,
		FormID:                 form.ID,
		FormNumber:             form.FormNumber,
		RecordID:               rec.ID,
		ProductCode:            product.ProductCode,
		ProductName:            product.ProductName,
		Severity:               severity.String(),
		Message:                alert.Message,
		Temperature:            rec.ProductTemperature,
		ExpectedMinTemperature: product.MinTemperature,
		ExpectedMaxTemperature: product.MaxTemperature,
		RaisedByUserID:         userID,
		RaisedAt:               time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.Publisher.Publish(ctx, event); err != nil {
		h.Log.Warn("alert event publish failed", zap.Error(err), zap.Uint64("alert_id", alert.ID))
	}
}
