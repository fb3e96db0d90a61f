package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldops/tracker/internal/api"
	"github.com/fieldops/tracker/internal/core/service"
	"github.com/fieldops/tracker/internal/infrastructure/config"
	mongodb "github.com/fieldops/tracker/internal/infrastructure/db/mongo"
	redisdb "github.com/fieldops/tracker/internal/infrastructure/db/redis"
	"github.com/fieldops/tracker/internal/jobs"
	"github.com/fieldops/tracker/internal/pkg/fieldcrypt"
	"github.com/fieldops/tracker/internal/relay"
	"github.com/fieldops/tracker/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	codec, err := fieldcrypt.New(cfg.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid ENCRYPTION_KEY")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	// --- Repositories ---
	missionRepo := mongodb.NewMissionRepository(db)
	stepRepo := mongodb.NewMissionStepRepository(db)
	reportRepo := mongodb.NewMissionReportRepository(db, codec)
	authRepo := mongodb.NewAuthRepository(db)

	for _, idx := range []interface {
		EnsureIndexes(context.Context) error
	}{missionRepo, stepRepo, reportRepo, authRepo} {
		if err := idx.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("index creation failed")
		}
	}

	// --- Realtime relay ---
	bus := redisdb.NewRelayBus(rdb, log)
	hub := relay.NewHub(log)
	go hub.Run(ctx, bus.Subscribe(ctx))

	// --- Services ---
	missionService := service.NewMissionService(missionRepo, bus, log)
	stepService := service.NewMissionStepService(stepRepo, missionRepo, log)
	reportService := service.NewMissionReportService(reportRepo, stepRepo, log)
	authService := service.NewAuthService(authRepo, cfg.JWTSecret, cfg.TokenTTL)

	// --- Background jobs ---
	cleanup := jobs.NewCleanupJob(missionService, cfg.Jobs.CleanupInterval, cfg.Jobs.CleanupRetentionDays, log)
	overdue := jobs.NewOverdueJob(missionService, cfg.Jobs.OverdueCheckInterval, log)
	go cleanup.Run(ctx)
	go overdue.Run(ctx)

	// --- HTTP ---
	e := api.NewRouter(api.RouterConfig{
		Logger:   log,
		DB:       db,
		Redis:    rdb,
		Auth:     authService,
		Missions: missionService,
		Steps:    stepService,
		Reports:  reportService,
		Hub:      hub,
		Notifier: bus,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("api listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
