package services

import (
	"context"
	"fmt"
	"time"

	"deskflow/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// NotificationService persists per-user notifications and mirrors them to
// connected websocket clients.
type NotificationService struct {
	db     *gorm.DB
	hub    *Hub
	logger *logrus.Logger
}

func NewNotificationService(db *gorm.DB, hub *Hub, logger *logrus.Logger) *NotificationService {
	if logger == nil {
		logger = logrus.New()
	}
	return &NotificationService{db: db, hub: hub, logger: logger}
}

// NotifyTicketCreated records the customer-facing notification for a new
// ticket and pushes the event to agent dashboards. automated reports
// whether an automation rule already acted on the ticket.
func (s *NotificationService) NotifyTicketCreated(ctx context.Context, ticket *models.Ticket, automated bool) {
	kind := "ticket_created"
	body := fmt.Sprintf("Ticket %q has been received.", ticket.Title)
	if automated {
		kind = "automation_reply"
		body = fmt.Sprintf("Ticket %q has been received and answered automatically.", ticket.Title)
	}

	s.create(ctx, &models.Notification{
		UserID:   ticket.CustomerID,
		TicketID: &ticket.ID,
		Type:     kind,
		Title:    "Ticket received",
		Body:     body,
	})

	if ticket.AgentID != nil {
		s.create(ctx, &models.Notification{
			UserID:   *ticket.AgentID,
			TicketID: &ticket.ID,
			Type:     "ticket_assigned",
			Title:    "Ticket assigned to you",
			Body:     fmt.Sprintf("Ticket %q was assigned to you.", ticket.Title),
		})
	}

	if s.hub != nil {
		s.hub.Broadcast(Event{
			Type: kind,
			Data: map[string]interface{}{
				"ticket_id": ticket.ID,
				"title":     ticket.Title,
				"automated": automated,
			},
		})
	}
}

// ListForUser returns a user's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	var notifications []models.Notification
	if err := q.Order("created_at DESC").Limit(100).Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead flags a notification as read; the user scope prevents marking
// someone else's.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// create is best effort; a failed notification write is logged, never
// propagated.
func (s *NotificationService) create(ctx context.Context, n *models.Notification) {
	n.CreatedAt = time.Now()
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		s.logger.Warnf("notification write failed: %v", err)
	}
}
