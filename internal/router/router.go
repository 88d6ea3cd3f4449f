// Package router wires the HTTP routes to their handlers and guards.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/nvarela/coldtrack/internal/auth"
	"github.com/nvarela/coldtrack/internal/config"
	"github.com/nvarela/coldtrack/internal/handler"
	"github.com/nvarela/coldtrack/internal/middleware"
)

// Handlers groups every handler the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Products *handler.ProductHandler
	Forms    *handler.FormHandler
	Records  *handler.RecordHandler
	Alerts   *handler.AlertHandler
	Reports  *handler.ReportHandler
}

// Register mounts the whole API surface.
//
// The /v1/auth group is public but rate-limited so credential stuffing
// hits the token bucket before it hits bcrypt.  Everything else under
// /v1 requires a valid access token, and each route is additionally
// gated by the permission matrix operation it maps to.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	pub := e.Group("/v1/auth")
	pub.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	pub.POST("/login", h.Auth.Login)
	pub.POST("/refresh", h.Auth.Refresh)

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(cfg.JWTSecret))

	v1.GET("/me", h.Auth.Me)
	v1.POST("/auth/logout", h.Auth.Logout)
	v1.POST("/logout", h.Auth.Logout)

	v1.POST("/users", h.Users.Create, middleware.RequirePermission(auth.OpUserCreate))

	v1.GET("/products", h.Products.List, middleware.RequirePermission(auth.OpProductRead))
	v1.GET("/products/:id", h.Products.Get, middleware.RequirePermission(auth.OpProductRead))
	v1.GET("/products/code/:code", h.Products.GetByCode, middleware.RequirePermission(auth.OpProductRead))
	v1.POST("/products", h.Products.Create, middleware.RequirePermission(auth.OpProductWrite))
	v1.PUT("/products/:id", h.Products.Update, middleware.RequirePermission(auth.OpProductWrite))
	v1.DELETE("/products/:id", h.Products.Delete, middleware.RequirePermission(auth.OpProductWrite))

	v1.GET("/forms", h.Forms.List, middleware.RequirePermission(auth.OpFormRead))
	v1.GET("/forms/:id", h.Forms.Get, middleware.RequirePermission(auth.OpFormRead))
	v1.POST("/forms", h.Forms.Create, middleware.RequirePermission(auth.OpFormCreate))
	v1.PUT("/forms/:id", h.Forms.Update, middleware.RequirePermission(auth.OpFormEdit))
	v1.POST("/forms/:id/review", h.Forms.Review, middleware.RequirePermission(auth.OpFormReview))
	v1.DELETE("/forms/:id", h.Forms.Delete, middleware.RequirePermission(auth.OpFormDelete))

	v1.POST("/forms/:id/records", h.Records.Create, middleware.RequirePermission(auth.OpFormEdit))
	v1.PUT("/forms/:id/records/:recordId", h.Records.Update, middleware.RequirePermission(auth.OpFormEdit))
	v1.DELETE("/forms/:id/records/:recordId", h.Records.Delete, middleware.RequirePermission(auth.OpFormEdit))

	v1.GET("/forms/:id/alerts", h.Alerts.ListByForm, middleware.RequirePermission(auth.OpAlertRead))
	v1.POST("/alerts/:id/acknowledge", h.Alerts.Acknowledge, middleware.RequirePermission(auth.OpAlertAck))

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	v1.GET("/reports/daily", h.Reports.Daily, middleware.RequirePermission(auth.OpReportRead), cache)
	v1.GET("/reports/statistics", h.Reports.Statistics, middleware.RequirePermission(auth.OpReportRead), cache)
	v1.GET("/reports/export/:id/xlsx", h.Reports.ExportForm, middleware.RequirePermission(auth.OpReportRead))
}
