package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/nvarela/coldtrack/internal/config"
	"github.com/nvarela/coldtrack/internal/database"
	"github.com/nvarela/coldtrack/internal/handler"
	"github.com/nvarela/coldtrack/internal/queue"
	"github.com/nvarela/coldtrack/internal/repository"
	"github.com/nvarela/coldtrack/internal/router"
	"github.com/nvarela/coldtrack/internal/service"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		logger.Fatal("run migrations", zap.Error(err))
	}
	cancel()

	// Redis is optional: without it, rate limiting and the report cache
	// degrade to no-ops.
	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, rate limiting and report cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	products := repository.NewProductRepo(db)
	forms := repository.NewFormRepo(db)
	records := repository.NewRecordRepo(db)
	alerts := repository.NewAlertRepo(db)

	publisher := service.NewAlertPublisher(cfg.AMQPURL, logger)

	h := router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users, tokens, logger),
		Users:    handler.NewUserHandler(cfg, users, logger),
		Products: handler.NewProductHandler(products, logger),
		Forms:    handler.NewFormHandler(forms, records, alerts, logger),
		Records:  handler.NewRecordHandler(forms, records, products, alerts, publisher, logger),
		Alerts:   handler.NewAlertHandler(forms, alerts, logger),
		Reports:  handler.NewReportHandler(forms, records, alerts, logger),
	}

	go func() {
		if err := queue.StartAlertConsumer(cfg.AMQPURL, logger); err != nil {
			logger.Error("alert consumer stopped", zap.Error(err))
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	router.Register(e, h, cfg, rdb)

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" || env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
