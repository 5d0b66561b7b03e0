package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vidfeed/feed-sync-go/internal/app"
	"github.com/vidfeed/feed-sync-go/internal/config"
	"github.com/vidfeed/feed-sync-go/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	logger.Log.Info("syncer starting",
		zap.Duration("interval", cfg.Sync.Interval),
		zap.Duration("run_timeout", cfg.Sync.RunTimeout))

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Sync.Interval)
	defer ticker.Stop()

	runPass := func() {
		runCtx, cancel := context.WithTimeout(ctx, cfg.Sync.RunTimeout)
		defer cancel()

		batch, err := application.Orchestrator.RunSyncForAllUsers(runCtx)
		if err != nil {
			logger.Log.Error("sync pass failed", zap.Error(err))
			return
		}
		logger.Log.Info("sync pass complete",
			zap.Int("total_users", batch.TotalUsers),
			zap.Int("successful", batch.Successful),
			zap.Int("failed", batch.Failed),
			zap.Int("total_videos_synced", batch.TotalVideosSynced))
	}

	// First pass on startup, then on every tick.
	runPass()

	for {
		select {
		case <-ticker.C:
			runPass()
		case sig := <-shutdown:
			logger.Log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return
		}
	}
}
