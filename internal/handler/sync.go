// Package handler exposes the sync service over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidfeed/feed-sync-go/internal/db"
	"github.com/vidfeed/feed-sync-go/internal/queue"
	syncer "github.com/vidfeed/feed-sync-go/internal/sync"
	"github.com/vidfeed/feed-sync-go/pkg/logger"
)

// SyncRunner runs sync passes inline.
type SyncRunner interface {
	RunSyncForUser(ctx context.Context, userID uuid.UUID) (*syncer.Result, error)
	RunSyncForAllUsers(ctx context.Context) (*syncer.BatchResult, error)
}

// SyncHandler triggers sync runs, either inline or through the task queue.
type SyncHandler struct {
	runner SyncRunner
	// queue may be nil when no Redis is configured; async requests then
	// fall back to inline runs.
	queue *queue.Client
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(runner SyncRunner, q *queue.Client) *SyncHandler {
	return &SyncHandler{runner: runner, queue: q}
}

// TriggerUserSync handles POST /api/v1/sync/users/:id.
// With ?async=1 the run is enqueued and 202 returned; otherwise the run
// executes inline and its result is returned.
func (h *SyncHandler) TriggerUserSync(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	if c.Query("async") == "1" && h.queue != nil {
		taskID, err := h.queue.EnqueueUserSync(c.Request.Context(), userID.String())
		if err != nil {
			logger.Log.Error("failed to enqueue user sync", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to enqueue sync"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"task_id": taskID})
		return
	}

	result, err := h.runner.RunSyncForUser(c.Request.Context(), userID)
	if err != nil {
		if db.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		logger.Log.Error("user sync failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// TriggerFullSync handles POST /api/v1/sync.
// The pass over all users is always enqueued; without a queue it runs
// inline.
func (h *SyncHandler) TriggerFullSync(c *gin.Context) {
	if h.queue != nil {
		taskID, err := h.queue.EnqueueFullSync(c.Request.Context())
		if err != nil {
			logger.Log.Error("failed to enqueue full sync", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to enqueue sync"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"task_id": taskID})
		return
	}

	batch, err := h.runner.RunSyncForAllUsers(c.Request.Context())
	if err != nil {
		logger.Log.Error("full sync failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
		return
	}

	c.JSON(http.StatusOK, batch)
}
