package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vidfeed/feed-sync-go/internal/quota"
)

// QuotaHandler reports quota ledger state.
type QuotaHandler struct {
	ledger quota.Ledger
}

// NewQuotaHandler creates a QuotaHandler.
func NewQuotaHandler(ledger quota.Ledger) *QuotaHandler {
	return &QuotaHandler{ledger: ledger}
}

// GetUsage handles GET /api/v1/quota.
func (h *QuotaHandler) GetUsage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"usage":             h.ledger.CurrentUsage(),
		"recommended_delay": h.ledger.RecommendedDelay().String(),
	})
}

// GetRecentOperations handles GET /api/v1/quota/operations.
func (h *QuotaHandler) GetRecentOperations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"operations": h.ledger.RecentOperations(),
	})
}
