package queue

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	syncer "github.com/vidfeed/feed-sync-go/internal/sync"
	"github.com/vidfeed/feed-sync-go/pkg/logger"
)

// SyncRunner runs sync passes. Implemented by sync.Orchestrator.
type SyncRunner interface {
	RunSyncForUser(ctx context.Context, userID uuid.UUID) (*syncer.Result, error)
	RunSyncForAllUsers(ctx context.Context) (*syncer.BatchResult, error)
}

// SyncTaskHandler processes sync tasks from the queue
type SyncTaskHandler struct {
	runner SyncRunner
}

// NewSyncTaskHandler creates a handler backed by the given runner
func NewSyncTaskHandler(runner SyncRunner) *SyncTaskHandler {
	return &SyncTaskHandler{runner: runner}
}

// HandleSyncUser processes a single-user sync task
func (h *SyncTaskHandler) HandleSyncUser(ctx context.Context, task *asynq.Task) error {
	payload, err := UnmarshalSyncUserPayload(task.Payload())
	if err != nil {
		return fmt.Errorf("invalid task payload: %w", err)
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return fmt.Errorf("invalid user ID %q: %w", payload.UserID, err)
	}

	result, err := h.runner.RunSyncForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("sync user %s: %w", userID, err)
	}

	logger.Log.Info("processed user sync task",
		zap.String("user_id", payload.UserID),
		zap.String("status", string(result.Status)),
		zap.Int("videos_synced", result.VideosSynced))

	return nil
}

// HandleSyncAll processes a full sync task
func (h *SyncTaskHandler) HandleSyncAll(ctx context.Context, task *asynq.Task) error {
	if _, err := UnmarshalSyncAllPayload(task.Payload()); err != nil {
		return fmt.Errorf("invalid task payload: %w", err)
	}

	batch, err := h.runner.RunSyncForAllUsers(ctx)
	if err != nil {
		return fmt.Errorf("full sync: %w", err)
	}

	logger.Log.Info("processed full sync task",
		zap.Int("total_users", batch.TotalUsers),
		zap.Int("successful", batch.Successful),
		zap.Int("failed", batch.Failed))

	return nil
}

// NewServer creates an asynq server consuming the sync queue. Concurrency
// is held at one so quota accounting stays sequential per process.
func NewServer(redisURL string) (*asynq.Server, error) {
	redisOpt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 1,
		Queues: map[string]int{
			syncQueue: 1,
		},
	})

	return srv, nil
}

// NewMux registers the sync task handlers
func NewMux(handler *SyncTaskHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSyncUser, handler.HandleSyncUser)
	mux.HandleFunc(TypeSyncAll, handler.HandleSyncAll)
	return mux
}
