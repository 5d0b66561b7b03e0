package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthChecker reports broker connectivity.
type HealthChecker interface {
	IsHealthy() bool
}

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
	pool *pgxpool.Pool
	// publisher may be nil when no broker is configured.
	publisher HealthChecker
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(pool *pgxpool.Pool, publisher HealthChecker) *HealthHandler {
	return &HealthHandler{pool: pool, publisher: publisher}
}

// Liveness handles GET /healthz.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz, checking the database and, when
// configured, the message broker.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := gin.H{}
	healthy := true

	if err := h.pool.Ping(c.Request.Context()); err != nil {
		checks["database"] = err.Error()
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	if h.publisher != nil {
		if h.publisher.IsHealthy() {
			checks["rabbitmq"] = "ok"
		} else {
			checks["rabbitmq"] = "unhealthy"
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"checks": checks})
}
