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

// ProductHandler serves the product catalogue endpoints.
type ProductHandler struct {
	Products *repository.ProductRepo
	Log      *zap.Logger
}

func NewProductHandler(p *repository.ProductRepo, log *zap.Logger) *ProductHandler {
	return &ProductHandler{Products: p, Log: log}
}

type productReq struct {
	ProductCode           string   `json:"product_code"`
	ProductName           string   `json:"product_name"`
	MinTemperature        *float64 `json:"min_temperature"`
	MaxTemperature        *float64 `json:"max_temperature"`
	MaxDefrostTimeMinutes *int     `json:"max_defrost_time_minutes"`
	Description           *string  `json:"description"`
	Category              *string  `json:"category"`
	IsActive              *bool    `json:"is_active"`
}

// validate applies the catalogue rules shared by create and update.
// Returns an empty string when the payload is acceptable.
func (r *productReq) validate() string {
	r.ProductCode = strings.ToUpper(strings.TrimSpace(r.ProductCode))
	r.ProductName = strings.TrimSpace(r.ProductName)

	switch {
	case r.ProductCode == "":
		return "product code is required"
	case len(r.ProductCode) > 20:
		return "product code must not exceed 20 characters"
	case r.ProductName == "":
		return "product name is required"
	case len(r.ProductName) > 200:
		return "product name must not exceed 200 characters"
	case r.MinTemperature == nil || r.MaxTemperature == nil:
		return "min and max temperature are required"
	case *r.MinTemperature < -100 || *r.MinTemperature > 100:
		return "min temperature must be between -100 and 100"
	case *r.MaxTemperature < -100 || *r.MaxTemperature > 100:
		return "max temperature must be between -100 and 100"
	case *r.MinTemperature >= *r.MaxTemperature:
		return "min temperature must be lower than max temperature"
	case r.MaxDefrostTimeMinutes == nil:
		return "max defrost time is required"
	case *r.MaxDefrostTimeMinutes < 1 || *r.MaxDefrostTimeMinutes > 1440:
		return "max defrost time must be between 1 and 1440 minutes"
	}
	return ""
}

func (r *productReq) toModel() model.Product {
	p := model.Product{
		ProductCode:           r.ProductCode,
		ProductName:           r.ProductName,
		MinTemperature:        *r.MinTemperature,
		MaxTemperature:        *r.MaxTemperature,
		MaxDefrostTimeMinutes: *r.MaxDefrostTimeMinutes,
		Description:           r.Description,
		Category:              r.Category,
		IsActive:              true,
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	return p
}

// List returns the catalogue, optionally filtered by ?active=true|false.
func (h *ProductHandler) List(c echo.Context) error {
	var active *bool
	if q := c.QueryParam("active"); q != "" {
		v, err := strconv.ParseBool(q)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid active filter"})
		}
		active = &v
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Products.List(ctx, active)
	if err != nil {
		h.Log.Error("list products failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": len(items)})
}

// Get returns one product by id.
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		h.Log.Error("get product failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// GetByCode looks a product up by its code, the identifier operators
// actually type in.
func (h *ProductHandler) GetByCode(c echo.Context) error {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid code"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.GetByCode(ctx, code)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		h.Log.Error("get product by code failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// Create adds a catalogue entry.
func (h *ProductHandler) Create(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p := req.toModel()
	if err := h.Products.Create(ctx, &p); err != nil {
		if err == repository.ErrCodeExists {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "product code already exists"})
		}
		h.Log.Error("create product failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, p)
}

// Update rewrites a catalogue entry.
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p := req.toModel()
	p.ID = id
	if err := h.Products.Update(ctx, &p); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		case repository.ErrCodeExists:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "product code already exists"})
		}
		h.Log.Error("update product failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, p)
}

// Delete removes a product.  Products already referenced by records are
// deactivated instead of deleted so historical forms keep resolving.
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Products.GetByID(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		h.Log.Error("delete product: lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	referenced, err := h.Products.HasRecords(ctx, id)
	if err != nil {
		h.Log.Error("delete product: reference check failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if referenced {
		if err := h.Products.Deactivate(ctx, id); err != nil {
			h.Log.Error("deactivate product failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "product has temperature records and was deactivated instead of deleted"})
	}

	if err := h.Products.SoftDelete(ctx, id); err != nil {
		h.Log.Error("delete product failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "product deleted"})
}
