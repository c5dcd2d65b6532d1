package handlers

import (
	"deskflow/internal/middleware"
	"deskflow/internal/services"

	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes exposes the notification stream.
func RegisterWebSocketRoutes(r *gin.RouterGroup, hub *services.Hub) {
	r.GET("/ws", func(c *gin.Context) {
		hub.HandleWebSocket(c, middleware.UserID(c))
	})
}
