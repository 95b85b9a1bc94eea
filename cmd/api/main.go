package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"farmap/api/internal/background"
	"farmap/api/internal/config"
	"farmap/api/internal/database"
	"farmap/api/internal/farcaster"
	"farmap/api/internal/handlers"
	"farmap/api/internal/jobs"
	"farmap/api/internal/log"
	"farmap/api/internal/preview"
	"farmap/api/internal/repository"
	"farmap/api/internal/server"
	"farmap/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	db, err := database.Open(ctx, cfg.SQLite)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open sqlite")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	hub := farcaster.NewHubClient(cfg.Farcaster, logger)
	verifier := farcaster.NewHTTPVerifier(cfg.Farcaster)
	mapFetcher := preview.NewMapboxFetcher(cfg.Preview)
	runner := background.NewDetached(logger, 30*time.Second)

	handlerSet := handlers.NewHandlerSet(logger, db, objectStore, verifier, hub, mapFetcher, runner, cfg)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(
		repository.NewSessionRepository(db),
		repository.NewNonceRepository(db),
		logger,
	)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, db)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *sql.DB) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	scheduler.Stop()

	if err := db.Close(); err != nil {
		logger.Error().Err(err).Msg("database close error")
	}

	logger.Info().Msg("server exited cleanly")
}
