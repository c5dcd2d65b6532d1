package handlers

import (
	"errors"
	"net/http"

	"deskflow/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type FAQHandler struct {
	service *services.FAQService
}

func NewFAQHandler(service *services.FAQService) *FAQHandler {
	return &FAQHandler{service: service}
}

func (h *FAQHandler) ListFAQs(c *gin.Context) {
	var req services.FAQListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}
	faqs, total, err := h.service.List(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list FAQs", Message: err.Error()})
		return
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	c.JSON(http.StatusOK, PaginatedResponse{Data: faqs, Total: total, Page: page, PageSize: pageSize})
}

func (h *FAQHandler) GetFAQ(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid id", Message: err.Error()})
		return
	}
	faq, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "FAQ not found", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, faq)
}

func (h *FAQHandler) CreateFAQ(c *gin.Context) {
	var req services.FAQCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}
	faq, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to create FAQ", Message: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, faq)
}

func (h *FAQHandler) UpdateFAQ(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid id", Message: err.Error()})
		return
	}
	var req services.FAQUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}
	faq, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, gorm.ErrRecordNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, ErrorResponse{Error: "Failed to update FAQ", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, faq)
}

func (h *FAQHandler) DeleteFAQ(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid id", Message: err.Error()})
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, gorm.ErrRecordNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, ErrorResponse{Error: "Failed to delete FAQ", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

// RegisterFAQRoutes registers FAQ routes. Writes require the admin role,
// wired by the caller.
func RegisterFAQRoutes(r *gin.RouterGroup, admin *gin.RouterGroup, handler *FAQHandler) {
	r.GET("/faqs", handler.ListFAQs)
	r.GET("/faqs/:id", handler.GetFAQ)
	admin.POST("/faqs", handler.CreateFAQ)
	admin.PUT("/faqs/:id", handler.UpdateFAQ)
	admin.DELETE("/faqs/:id", handler.DeleteFAQ)
}
