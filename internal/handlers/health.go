package handlers

import (
	"net/http"
	"time"

	appmetrics "deskflow/internal/metrics"
	"deskflow/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	hub     *services.Hub
	started time.Time
}

func NewHealthHandler(db *gorm.DB, hub *services.Hub) *HealthHandler {
	return &HealthHandler{db: db, hub: hub, started: time.Now()}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.started).String(),
	})
}

// Ready reports whether the database connection is usable.
func (h *HealthHandler) Ready(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *HealthHandler) Stats(c *gin.Context) {
	runs, matched, byOutcome := appmetrics.AutomationSnapshot()
	dropped, byScope := appmetrics.RateLimitSnapshot()
	c.JSON(http.StatusOK, gin.H{
		"automation": gin.H{
			"runs":       runs,
			"matched":    matched,
			"by_outcome": byOutcome,
		},
		"rate_limit": gin.H{
			"dropped":  dropped,
			"by_scope": byScope,
		},
		"websocket_clients": h.hub.ClientCount(),
	})
}

func RegisterHealthRoutes(r *gin.Engine, handler *HealthHandler) {
	r.GET("/health", handler.Health)
	r.GET("/ready", handler.Ready)
}
