package delivery

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Pinger reports whether the backing store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
	log   *logrus.Logger
}

// NewHealthHandler accepts a nil store for storage that is always ready.
func NewHealthHandler(store Pinger, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{store: store, log: logger}
}

func (h *HealthHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}

func (h *HealthHandler) Ready(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.PingContext(ctx); err != nil {
		h.log.Warnf("Readiness check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db-unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
