package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/vidfeed/feed-sync-go/internal/app"
	"github.com/vidfeed/feed-sync-go/internal/config"
	"github.com/vidfeed/feed-sync-go/internal/queue"
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

	if cfg.Redis.URL == "" {
		logger.Log.Fatal("redis URL is required for the worker")
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	srv, err := queue.NewServer(cfg.Redis.URL)
	if err != nil {
		logger.Log.Fatal("failed to create queue server", zap.Error(err))
	}

	mux := queue.NewMux(queue.NewSyncTaskHandler(application.Orchestrator))

	logger.Log.Info("worker starting", zap.String("redis", cfg.Redis.URL))

	// Run blocks until SIGINT/SIGTERM and drains in-flight tasks.
	if err := srv.Run(mux); err != nil {
		logger.Log.Fatal("worker stopped with error", zap.Error(err))
	}

	logger.Log.Info("worker stopped gracefully")
}
