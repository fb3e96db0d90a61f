package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fieldops/tracker/internal/api/handler"
	"github.com/fieldops/tracker/internal/api/middleware"
	"github.com/fieldops/tracker/internal/core/ports"
	"github.com/fieldops/tracker/internal/relay"
)

// RouterConfig carries the wired dependencies the HTTP layer needs.
// Services are built in main so the background jobs can share them.
type RouterConfig struct {
	Logger   zerolog.Logger
	DB       *mongo.Database
	Redis    *redis.Client
	Auth     ports.AuthService
	Missions ports.MissionService
	Steps    ports.MissionStepService
	Reports  ports.MissionReportService
	Hub      *relay.Hub
	Notifier ports.Notifier
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("fieldops"))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(cfg.Auth)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(cfg.DB, cfg.Redis, cfg.Missions)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Realtime relay ---
	wsHandler := handler.NewWSHandler(cfg.Auth, cfg.Hub, cfg.Notifier, cfg.Logger)
	e.GET("/ws", wsHandler.Handle)

	// --- Protected resource routes ---
	authRequired := middleware.Auth(cfg.Auth)
	api := e.Group("/api", authRequired)

	missionHandler := handler.NewMissionHandler(cfg.Missions)
	missions := api.Group("/missions")
	missions.GET("", missionHandler.List)
	missions.POST("", missionHandler.Create)
	missions.DELETE("", missionHandler.DeleteAll)
	missions.PUT("/:id", missionHandler.Update)
	missions.PATCH("/:id", missionHandler.Patch)
	missions.DELETE("/:id", missionHandler.Delete)

	stepHandler := handler.NewMissionStepHandler(cfg.Steps)
	steps := api.Group("/mission-steps")
	steps.GET("", stepHandler.List)
	steps.POST("", stepHandler.Create)
	steps.DELETE("", stepHandler.DeleteAll)
	steps.PUT("/:id", stepHandler.Update)
	steps.PATCH("/:id", stepHandler.Patch)
	steps.DELETE("/:id", stepHandler.Delete)

	reportHandler := handler.NewMissionReportHandler(cfg.Reports)
	reports := api.Group("/mission-reports")
	reports.GET("", reportHandler.List)
	reports.POST("", reportHandler.Create)
	reports.DELETE("", reportHandler.DeleteAll)
	reports.PUT("/:id", reportHandler.Update)
	reports.PATCH("/:id", reportHandler.Patch)
	reports.DELETE("/:id", reportHandler.Delete)

	return e
}
