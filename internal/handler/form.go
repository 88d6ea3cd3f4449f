package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nvarela/coldtrack/internal/model"
	"github.com/nvarela/coldtrack/internal/repository"
)

const maxPageSize = 100

// FormHandler serves the temperature-control form endpoints.
type FormHandler struct {
	Forms   *repository.FormRepo
	Records *repository.RecordRepo
	Alerts  *repository.AlertRepo
	Log     *zap.Logger
}

func NewFormHandler(f *repository.FormRepo, r *repository.RecordRepo, a *repository.AlertRepo, log *zap.Logger) *FormHandler {
	return &FormHandler{Forms: f, Records: r, Alerts: a, Log: log}
}

type createFormReq struct {
	Destination    string  `json:"destination"`
	DefrostDate    string  `json:"defrost_date"`    // YYYY-MM-DD
	ProductionDate string  `json:"production_date"` // YYYY-MM-DD
	Observations   *string `json:"observations"`
	Signature      *string `json:"signature"`
}

type updateFormReq struct {
	Destination    string  `json:"destination"`
	DefrostDate    string  `json:"defrost_date"`
	ProductionDate string  `json:"production_date"`
	Status         string  `json:"status"`
	Observations   *string `json:"observations"`
	Signature      *string `json:"signature"`
}

type reviewFormReq struct {
	Status    string  `json:"status"` // REVIEWED | REJECTED
	Notes     *string `json:"notes"`
	Signature *string `json:"signature"`
}

// List returns a filtered page of forms.
func (h *FormHandler) List(c echo.Context) error {
	flt := repository.FormFilter{
		Status:      strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))),
		Destination: c.QueryParam("destination"),
		Page:        1,
		PageSize:    20,
	}
	if flt.Status != "" && !model.ValidStatus(flt.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
	}
	if v := c.QueryParam("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			flt.Page = n
		}
	}
	if v := c.QueryParam("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			flt.PageSize = n
		}
	}
	if flt.PageSize > maxPageSize {
		flt.PageSize = maxPageSize
	}
	if v := c.QueryParam("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
		}
		flt.StartDate = &t
	}
	if v := c.QueryParam("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
		}
		eod := t.Add(24*time.Hour - time.Second)
		flt.EndDate = &eod
	}
	if v := c.QueryParam("created_by"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid created_by"})
		}
		flt.CreatedBy = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, total, err := h.Forms.List(ctx, flt)
	if err != nil {
		h.Log.Error("list forms failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     items,
		"total":     total,
		"page":      flt.Page,
		"page_size": flt.PageSize,
	})
}

// Get returns one form with its records and alerts.
func (h *FormHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f, err := h.Forms.GetDetail(ctx, id, h.Records, h.Alerts)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "form not found"})
		}
		h.Log.Error("get form failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, f)
}

// Create opens a new DRAFT form.  The form number is assigned by the
// repository from the per-day sequence.
func (h *FormHandler) Create(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createFormReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Destination = strings.TrimSpace(req.Destination)
	if req.Destination == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "destination is required"})
	}
	defrost, err := time.Parse("2006-01-02", req.DefrostDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid defrost_date"})
	}
	production, err := time.Parse("2006-01-02", req.ProductionDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid production_date"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f := model.Form{
		Destination:        req.Destination,
		DefrostDate:        defrost,
		ProductionDate:     production,
		CreatedByUserID:    userID,
		Observations:       req.Observations,
		CreatedBySignature: req.Signature,
	}
	if err := h.Forms.Create(ctx, &f); err != nil {
		h.Log.Error("create form failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, f)
}

// Update rewrites an editable form.  Only the creator or an
// administrator may touch it, and only while the lifecycle allows
// edits.  The status may move DRAFT→COMPLETED here, or to ARCHIVED by
// an administrator.
func (h *FormHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateFormReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f, err := h.Forms.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "form not found"})
		}
		h.Log.Error("update form: lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if he := ownershipError(c, f.CreatedByUserID); he != nil {
		return renderHTTPError(c, he)
	}
	if !f.CanBeEdited() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "form in status " + f.Status + " cannot be edited"})
	}

	if v := strings.TrimSpace(req.Destination); v != "" {
		f.Destination = v
	}
	if req.DefrostDate != "" {
		t, err := time.Parse("2006-01-02", req.DefrostDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid defrost_date"})
		}
		f.DefrostDate = t
	}
	if req.ProductionDate != "" {
		t, err := time.Parse("2006-01-02", req.ProductionDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid production_date"})
		}
		f.ProductionDate = t
	}
	if req.Observations != nil {
		f.Observations = req.Observations
	}
	if req.Signature != nil {
		f.CreatedBySignature = req.Signature
	}
	if req.Status != "" {
		status := strings.ToUpper(strings.TrimSpace(req.Status))
		if !validUpdateStatus(f.Status, status, currentRole(c)) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status transition"})
		}
		f.Status = status
	}

	if err := h.Forms.Update(ctx, &f); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "form not found"})
		}
		h.Log.Error("update form failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, f)
}

// Review records a supervisor decision on a completed form.
func (h *FormHandler) Review(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	reviewerID, ok := c.Get("user_id").(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req reviewFormReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status != model.StatusReviewed && status != model.StatusRejected {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "review status must be REVIEWED or REJECTED"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f, err := h.Forms.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "form not found"})
		}
		h.Log.Error("review form: lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !f.CanBeReviewed() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "form in status " + f.Status + " cannot be reviewed"})
	}

	if err := h.Forms.Review(ctx, id, status, reviewerID, req.Notes, req.Signature); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "form not found"})
		}
		h.Log.Error("review form failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "review failed"})
	}

	f, err = h.Forms.GetByID(ctx, id)
	if err != nil {
		h.Log.Error("review form: reload failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, f)
}

// Delete removes a form.  Forms that hold records cannot be deleted;
// empty forms are removed outright with their (zero) children.
func (h *FormHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Forms.GetByID(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "form not found"})
		}
		h.Log.Error("delete form: lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.Forms.HardDelete(ctx, id); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "form not found"})
		case repository.ErrHasRecords:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "form has temperature records and cannot be deleted"})
		}
		h.Log.Error("delete form failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "form deleted"})
}

// validUpdateStatus constrains the status field of an update.  Editable
// forms may stay put or be handed in for review; administrators may
// additionally archive.
func validUpdateStatus(current, next, role string) bool {
	if !model.ValidStatus(next) {
		return false
	}
	switch next {
	case current, model.StatusCompleted:
		return true
	case model.StatusArchived:
		return role == model.RoleAdministrator
	}
	return false
}

func currentRole(c echo.Context) string {
	role, _ := c.Get("role").(string)
	return role
}

// ownershipError rejects callers who neither created the resource nor
// hold the administrator role.  Returns nil when the caller may
// proceed.
func ownershipError(c echo.Context, ownerID uint64) *echo.HTTPError {
	userID, ok := c.Get("user_id").(uint64)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if userID != ownerID && currentRole(c) != model.RoleAdministrator {
		return echo.NewHTTPError(http.StatusForbidden, "only the creator may modify this form")
	}
	return nil
}

// renderHTTPError writes an *echo.HTTPError in the handlers' uniform
// {"error": ...} shape.
func renderHTTPError(c echo.Context, he *echo.HTTPError) error {
	return c.JSON(he.Code, echo.Map{"error": he.Message})
}
