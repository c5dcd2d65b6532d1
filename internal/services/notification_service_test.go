package services

import (
	"context"
	"errors"
	"testing"

	"deskflow/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newNotificationTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Notification{}, &models.Ticket{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func TestNotifyTicketCreated(t *testing.T) {
	db := newNotificationTestDB(t)
	svc := NewNotificationService(db, nil, logrus.New())

	ticket := &models.Ticket{Title: "vpn down", CustomerID: 5}
	ticket.ID = 1
	svc.NotifyTicketCreated(context.Background(), ticket, false)

	notifications, err := svc.ListForUser(context.Background(), 5, false)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifications))
	}
	if notifications[0].Type != "ticket_created" {
		t.Errorf("expected ticket_created, got %q", notifications[0].Type)
	}
}

func TestNotifyTicketCreated_Automated(t *testing.T) {
	db := newNotificationTestDB(t)
	svc := NewNotificationService(db, nil, logrus.New())

	agentID := uint(9)
	ticket := &models.Ticket{Title: "vpn down", CustomerID: 5, AgentID: &agentID}
	ticket.ID = 2
	svc.NotifyTicketCreated(context.Background(), ticket, true)

	customerNotes, _ := svc.ListForUser(context.Background(), 5, false)
	if len(customerNotes) != 1 || customerNotes[0].Type != "automation_reply" {
		t.Errorf("expected an automation_reply notification, got %+v", customerNotes)
	}

	agentNotes, _ := svc.ListForUser(context.Background(), agentID, false)
	if len(agentNotes) != 1 || agentNotes[0].Type != "ticket_assigned" {
		t.Errorf("expected a ticket_assigned notification, got %+v", agentNotes)
	}
}

func TestMarkRead(t *testing.T) {
	db := newNotificationTestDB(t)
	svc := NewNotificationService(db, nil, logrus.New())

	ticket := &models.Ticket{Title: "x", CustomerID: 5}
	ticket.ID = 3
	svc.NotifyTicketCreated(context.Background(), ticket, false)

	notifications, _ := svc.ListForUser(context.Background(), 5, true)
	if len(notifications) != 1 {
		t.Fatalf("expected 1 unread notification, got %d", len(notifications))
	}

	// another user cannot mark it
	if err := svc.MarkRead(context.Background(), notifications[0].ID, 99); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for foreign user, got %v", err)
	}

	if err := svc.MarkRead(context.Background(), notifications[0].ID, 5); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}

	unread, _ := svc.ListForUser(context.Background(), 5, true)
	if len(unread) != 0 {
		t.Errorf("expected no unread notifications, got %d", len(unread))
	}
}
