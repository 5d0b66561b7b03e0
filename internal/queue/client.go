package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/vidfeed/feed-sync-go/pkg/logger"
)

const syncQueue = "sync"

// Client wraps asynq client for enqueueing sync tasks
type Client struct {
	asynqClient *asynq.Client
}

// NewClient creates a new queue client
func NewClient(redisURL string) (*Client, error) {
	redisOpt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &Client{
		asynqClient: asynq.NewClient(redisOpt),
	}, nil
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.asynqClient.Close()
}

// EnqueueUserSync enqueues a sync task for one user
func (c *Client) EnqueueUserSync(ctx context.Context, userID string) (string, error) {
	payload, err := NewSyncUserTask(userID, time.Now().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("failed to create task payload: %w", err)
	}

	payloadBytes, err := payload.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeSyncUser, payloadBytes)

	info, err := c.asynqClient.EnqueueContext(ctx, task,
		asynq.MaxRetry(3),
		asynq.Timeout(15*time.Minute),
		asynq.Queue(syncQueue),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	logger.Log.Info("enqueued user sync",
		zap.String("user_id", userID),
		zap.String("task_id", info.ID))

	return info.ID, nil
}

// EnqueueFullSync enqueues a sync task covering every user
func (c *Client) EnqueueFullSync(ctx context.Context) (string, error) {
	payload := &SyncAllPayload{Requested: time.Now().Format(time.RFC3339)}

	payloadBytes, err := payload.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeSyncAll, payloadBytes)

	info, err := c.asynqClient.EnqueueContext(ctx, task,
		asynq.MaxRetry(1),
		asynq.Timeout(60*time.Minute),
		asynq.Queue(syncQueue),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	logger.Log.Info("enqueued full sync", zap.String("task_id", info.ID))

	return info.ID, nil
}
