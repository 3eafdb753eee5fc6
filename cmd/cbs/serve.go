package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"college-budgeting-backend/internal/account"
	"college-budgeting-backend/internal/api"
	"college-budgeting-backend/internal/cache"
	"college-budgeting-backend/internal/category"
	"college-budgeting-backend/internal/ingest"
	"college-budgeting-backend/internal/metrics"
	"college-budgeting-backend/internal/retrain"
	"college-budgeting-backend/internal/savings"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background retrainer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	artifacts := category.NewFileArtifactStore(cfg.Model.Path)
	registry := category.NewRegistry(loadModel(artifacts))

	// Initialize Redis
	var redisCache *cache.Cache
	if !cfg.Redis.Disabled {
		redisCache, err = cache.Connect(ctx, cfg.Redis.URL, logger)
		if err != nil {
			logger.Warn("failed to initialize redis, continuing without cache", zap.Error(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
		}
	}

	trainer := retrain.NewTrainer(store, artifacts, registry, logger, cfg.Model.MinSamples)
	scheduler, err := retrain.NewScheduler(trainer, logger, retrain.SchedulerOptions{
		MinInterval: cfg.Model.RetrainInterval,
		Timeout:     cfg.Model.RetrainTimeout,
		Schedule:    cfg.Model.RetrainSchedule(),
	})
	if err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := api.NewServer(api.Dependencies{
		Records:        store,
		Ingest:         ingest.NewOrchestrator(store, category.NewPredictor(registry, logger), scheduler, logger),
		Accounts:       account.NewService(store, logger),
		Savings:        savings.NewService(store, logger),
		Cache:          redisCache,
		Registry:       registry,
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	return server.Run(ctx, fmt.Sprintf(":%d", cfg.Server.Port), cfg.Server.ShutdownTimeout)
}

// loadModel returns the persisted model, or nil when none can be used. The
// service then predicts the fallback category until the first retrain.
func loadModel(artifacts *category.FileArtifactStore) *category.Model {
	m, err := artifacts.Load()
	switch {
	case errors.Is(err, category.ErrNoArtifact):
		logger.Info("no saved category model yet", zap.String("path", artifacts.Path))
		return nil
	case err != nil:
		logger.Warn("failed to load category model", zap.String("path", artifacts.Path), zap.Error(err))
		return nil
	}

	metrics.ObserveModel(m.Samples, len(m.Classes))
	logger.Info("category model loaded",
		zap.String("path", artifacts.Path),
		zap.Int("samples", m.Samples),
		zap.Strings("classes", m.Classes))
	return m
}
