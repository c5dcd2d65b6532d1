package handlers

import (
	"net/http"

	"deskflow/internal/services"

	"github.com/gin-gonic/gin"
)

type AIHandler struct {
	service *services.AIService
}

func NewAIHandler(service *services.AIService) *AIHandler {
	return &AIHandler{service: service}
}

type DraftRequest struct {
	Problem string `json:"problem" binding:"required"`
}

// DraftTicket asks the model for a suggested title and description
// from a free-form problem statement.
func (h *AIHandler) DraftTicket(c *gin.Context) {
	var req DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}
	draft, err := h.service.DraftTicket(c.Request.Context(), req.Problem)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Draft generation failed", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, draft)
}

func RegisterAIRoutes(r *gin.RouterGroup, handler *AIHandler) {
	r.POST("/ai/draft", handler.DraftTicket)
}
