package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vidfeed/feed-sync-go/internal/app"
	"github.com/vidfeed/feed-sync-go/internal/config"
	"github.com/vidfeed/feed-sync-go/internal/handler"
	"github.com/vidfeed/feed-sync-go/internal/middleware"
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

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	var queueClient *queue.Client
	if cfg.Redis.URL != "" {
		queueClient, err = queue.NewClient(cfg.Redis.URL)
		if err != nil {
			logger.Log.Warn("failed to initialize queue client, sync requests will run inline",
				zap.Error(err))
		} else {
			defer queueClient.Close()
		}
	}

	syncHandler := handler.NewSyncHandler(application.Orchestrator, queueClient)
	quotaHandler := handler.NewQuotaHandler(application.Ledger)

	// Assign only a live publisher so the interface stays nil when no
	// broker is configured.
	var broker handler.HealthChecker
	if application.Publisher != nil {
		broker = application.Publisher
	}
	healthHandler := handler.NewHealthHandler(application.Pool, broker)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", healthHandler.Liveness)
	router.GET("/readyz", healthHandler.Readiness)

	api := router.Group("/api/v1", middleware.APIKeyAuth(cfg.Server.APIKeys))
	api.POST("/sync", syncHandler.TriggerFullSync)
	api.POST("/sync/users/:id", syncHandler.TriggerUserSync)
	api.GET("/quota", quotaHandler.GetUsage)
	api.GET("/quota/operations", quotaHandler.GetRecentOperations)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Log.Info("server starting", zap.Int("port", cfg.Server.Port))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Log.Fatal("server error", zap.Error(err))
	case sig := <-shutdown:
		logger.Log.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Log.Error("graceful shutdown failed", zap.Error(err))
			_ = server.Close()
			os.Exit(1)
		}

		logger.Log.Info("server stopped gracefully")
	}
}
