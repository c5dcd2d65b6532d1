package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"deskflow/internal/automation"
	"deskflow/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// defaultAckMessage is posted on every new ticket unless an automation
// rule already replied to it.
const defaultAckMessage = "Your ticket has been received. A member of our team will get back to you as soon as possible."

// TicketService manages ticket workflows. Ticket creation runs the
// automation engine synchronously before the default acknowledgement.
type TicketService struct {
	db            *gorm.DB
	logger        *logrus.Logger
	automation    *automation.Service
	notifications *NotificationService
	systemUserID  uint
}

func NewTicketService(db *gorm.DB, logger *logrus.Logger, systemUserID uint) *TicketService {
	if logger == nil {
		logger = logrus.New()
	}
	return &TicketService{db: db, logger: logger, systemUserID: systemUserID}
}

// SetAutomationService injects the automation engine.
func (s *TicketService) SetAutomationService(engine *automation.Service) {
	s.automation = engine
}

// SetNotificationService injects the notification service.
func (s *TicketService) SetNotificationService(notifications *NotificationService) {
	s.notifications = notifications
}

// TicketCreateRequest creates a ticket, optionally with a first message.
type TicketCreateRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	CustomerID  uint   `json:"customer_id" binding:"required"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Source      string `json:"source"`
	Message     string `json:"message"`
}

// TicketUpdateRequest updates a ticket; nil fields keep their value.
type TicketUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	AgentID     *uint   `json:"agent_id"`
	Category    *string `json:"category"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

// TicketListRequest filters and pages the ticket listing.
type TicketListRequest struct {
	Page       int      `form:"page,default=1"`
	PageSize   int      `form:"page_size,default=20"`
	Status     []string `form:"status"`
	Priority   []string `form:"priority"`
	Category   []string `form:"category"`
	AgentID    *uint    `form:"agent_id"`
	CustomerID *uint    `form:"customer_id"`
	Search     string   `form:"search"`
}

// TicketMessageRequest adds a message to a ticket.
type TicketMessageRequest struct {
	Content    string `json:"content" binding:"required"`
	IsInternal bool   `json:"is_internal"`
}

// CreateTicket persists a new ticket, runs the automation engine against
// it, and posts the default acknowledgement message only when no automated
// action was committed.
func (s *TicketService) CreateTicket(ctx context.Context, req *TicketCreateRequest) (*models.Ticket, error) {
	var customer models.User
	if err := s.db.WithContext(ctx).First(&customer, req.CustomerID).Error; err != nil {
		return nil, fmt.Errorf("customer not found: %w", err)
	}

	if req.Category == "" {
		req.Category = "general"
	}
	if req.Priority == "" {
		req.Priority = "normal"
	}
	if req.Source == "" {
		req.Source = "web"
	}

	ticket := &models.Ticket{
		Reference:   uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		CustomerID:  req.CustomerID,
		Category:    req.Category,
		Priority:    req.Priority,
		Status:      "open",
		Source:      req.Source,
	}
	if err := s.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	s.recordStatusChange(ctx, ticket.ID, req.CustomerID, "", "open", "ticket created")

	if msg := strings.TrimSpace(req.Message); msg != "" {
		first := &models.TicketMessage{
			TicketID:   ticket.ID,
			UserID:     req.CustomerID,
			Content:    msg,
			AuthorKind: models.AuthorCustomer,
			CreatedAt:  time.Now(),
		}
		if err := s.db.WithContext(ctx).Create(first).Error; err != nil {
			return nil, fmt.Errorf("failed to create first message: %w", err)
		}
	}

	handled := false
	if s.automation != nil {
		var err error
		handled, err = s.automation.OnTicketCreated(ctx, automation.TicketInput{
			ID:          ticket.ID,
			Title:       ticket.Title,
			Description: ticket.Description,
			Message:     strings.TrimSpace(req.Message),
		})
		if err != nil {
			// the ticket itself is already committed; a failed automation
			// write degrades to the default acknowledgement path
			s.logger.Errorf("automation failed for ticket %d: %v", ticket.ID, err)
			handled = false
		}
	}

	if !handled {
		ack := &models.TicketMessage{
			TicketID:   ticket.ID,
			UserID:     s.systemUserID,
			Content:    defaultAckMessage,
			AuthorKind: models.AuthorSystem,
			CreatedAt:  time.Now(),
		}
		if err := s.db.WithContext(ctx).Create(ack).Error; err != nil {
			return nil, fmt.Errorf("failed to create acknowledgement: %w", err)
		}
	}

	if s.notifications != nil {
		s.notifications.NotifyTicketCreated(ctx, ticket, handled)
	}

	s.logger.Infof("Created ticket %d (%s) for customer %d, automated=%t",
		ticket.ID, ticket.Reference, req.CustomerID, handled)

	return s.GetTicketByID(ctx, ticket.ID)
}

// GetTicketByID loads a ticket with its conversation and history.
func (s *TicketService) GetTicketByID(ctx context.Context, ticketID uint) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Agent").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Preload("User")
		}).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&ticket, ticketID).Error
	if err != nil {
		return nil, fmt.Errorf("ticket not found: %w", err)
	}
	return &ticket, nil
}

// ListTickets returns a filtered page of tickets with the total count.
func (s *TicketService) ListTickets(ctx context.Context, req *TicketListRequest) ([]models.Ticket, int64, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	q := s.db.WithContext(ctx).Model(&models.Ticket{})
	if len(req.Status) > 0 {
		q = q.Where("status IN ?", req.Status)
	}
	if len(req.Priority) > 0 {
		q = q.Where("priority IN ?", req.Priority)
	}
	if len(req.Category) > 0 {
		q = q.Where("category IN ?", req.Category)
	}
	if req.AgentID != nil {
		q = q.Where("agent_id = ?", *req.AgentID)
	}
	if req.CustomerID != nil {
		q = q.Where("customer_id = ?", *req.CustomerID)
	}
	if search := strings.TrimSpace(req.Search); search != "" {
		like := "%" + search + "%"
		q = q.Where("title LIKE ? OR description LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tickets []models.Ticket
	if err := q.Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Preload("Customer").
		Preload("Agent").
		Find(&tickets).Error; err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

// UpdateTicket applies a partial update and records status transitions.
func (s *TicketService) UpdateTicket(ctx context.Context, ticketID uint, req *TicketUpdateRequest, userID uint) (*models.Ticket, error) {
	oldTicket, err := s.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.AgentID != nil {
		updates["agent_id"] = *req.AgentID
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}

	if req.Status != nil && *req.Status != oldTicket.Status {
		updates["status"] = *req.Status
		switch *req.Status {
		case "resolved":
			now := time.Now()
			updates["resolved_at"] = &now
		case "closed":
			now := time.Now()
			updates["closed_at"] = &now
		}
		s.recordStatusChange(ctx, ticketID, userID, oldTicket.Status, *req.Status, "status update")
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Ticket{}).
			Where("id = ?", ticketID).
			Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update ticket: %w", err)
		}
	}

	return s.GetTicketByID(ctx, ticketID)
}

// AddMessage appends a message to a ticket conversation.
func (s *TicketService) AddMessage(ctx context.Context, ticketID uint, userID uint, req *TicketMessageRequest, authorKind string) (*models.TicketMessage, error) {
	var ticket models.Ticket
	if err := s.db.WithContext(ctx).First(&ticket, ticketID).Error; err != nil {
		return nil, fmt.Errorf("ticket not found: %w", err)
	}

	message := &models.TicketMessage{
		TicketID:   ticketID,
		UserID:     userID,
		Content:    req.Content,
		AuthorKind: authorKind,
		IsInternal: req.IsInternal,
		CreatedAt:  time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return message, nil
}

// DeleteTicket soft-deletes a ticket.
func (s *TicketService) DeleteTicket(ctx context.Context, ticketID uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Ticket{}, ticketID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *TicketService) recordStatusChange(ctx context.Context, ticketID, userID uint, from, to, reason string) {
	change := &models.TicketStatusChange{
		TicketID:   ticketID,
		UserID:     userID,
		FromStatus: from,
		ToStatus:   to,
		Reason:     reason,
		CreatedAt:  time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(change).Error; err != nil {
		s.logger.Warnf("record status change failed: %v", err)
	}
}
