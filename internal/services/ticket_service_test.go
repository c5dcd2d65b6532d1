package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"deskflow/internal/automation"
	"deskflow/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTicketTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Ticket{},
		&models.TicketMessage{},
		&models.TicketStatusChange{},
		&models.FAQ{},
		&models.Notification{},
		&models.AutomationRule{},
		&models.AutomationRun{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Name:     username,
		Role:     role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// fixedGenerator always replies with the same text.
type fixedGenerator struct {
	reply string
	err   error
}

func (g *fixedGenerator) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	return g.reply, g.err
}

func newTicketService(t *testing.T, db *gorm.DB) *TicketService {
	return NewTicketService(db, logrus.New(), 99)
}

func TestCreateTicket_DefaultAcknowledgement(t *testing.T) {
	db := newTicketTestDB(t)
	svc := newTicketService(t, db)
	customer := createTestUser(t, db, "alice", "customer")

	ticket, err := svc.CreateTicket(context.Background(), &TicketCreateRequest{
		Title:      "Screen flickers",
		CustomerID: customer.ID,
	})
	if err != nil {
		t.Fatalf("CreateTicket failed: %v", err)
	}

	if ticket.Reference == "" {
		t.Error("expected a reference to be assigned")
	}
	if ticket.Status != "open" {
		t.Errorf("expected open status, got %q", ticket.Status)
	}
	if ticket.Category != "general" || ticket.Priority != "normal" || ticket.Source != "web" {
		t.Errorf("expected defaults applied, got %s/%s/%s", ticket.Category, ticket.Priority, ticket.Source)
	}

	if len(ticket.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(ticket.Messages))
	}
	ack := ticket.Messages[0]
	if ack.AuthorKind != models.AuthorSystem || ack.UserID != 99 {
		t.Errorf("expected system acknowledgement, got %+v", ack)
	}
	if ack.Content != defaultAckMessage {
		t.Errorf("unexpected acknowledgement content: %q", ack.Content)
	}

	if len(ticket.StatusHistory) != 1 || ticket.StatusHistory[0].ToStatus != "open" {
		t.Errorf("expected a creation status record, got %+v", ticket.StatusHistory)
	}
}

func TestCreateTicket_FirstMessageRecorded(t *testing.T) {
	db := newTicketTestDB(t)
	svc := newTicketService(t, db)
	customer := createTestUser(t, db, "bob", "customer")

	ticket, err := svc.CreateTicket(context.Background(), &TicketCreateRequest{
		Title:      "Printer broken",
		CustomerID: customer.ID,
		Message:    "  It shows error E-52  ",
	})
	if err != nil {
		t.Fatalf("CreateTicket failed: %v", err)
	}

	if len(ticket.Messages) != 2 {
		t.Fatalf("expected first message plus acknowledgement, got %d", len(ticket.Messages))
	}
	first := ticket.Messages[0]
	if first.AuthorKind != models.AuthorCustomer || first.UserID != customer.ID {
		t.Errorf("expected customer first message, got %+v", first)
	}
	if first.Content != "It shows error E-52" {
		t.Errorf("expected trimmed content, got %q", first.Content)
	}
}

func TestCreateTicket_AutomationSuppressesAcknowledgement(t *testing.T) {
	db := newTicketTestDB(t)
	svc := newTicketService(t, db)
	customer := createTestUser(t, db, "carol", "customer")

	engine := automation.NewService(db, &fixedGenerator{reply: "Try turning it off and on again."}, logrus.New(), automation.Settings{SystemUserID: 99})
	svc.SetAutomationService(engine)

	db.Create(&models.AutomationRule{
		Name: "printer", TriggerKeyword: "printer", TriggerLocation: models.TriggerLocationTitle,
		ActionType: models.ActionIAReply, Enabled: true,
	})

	ticket, err := svc.CreateTicket(context.Background(), &TicketCreateRequest{
		Title:      "printer jammed",
		CustomerID: customer.ID,
	})
	if err != nil {
		t.Fatalf("CreateTicket failed: %v", err)
	}

	if len(ticket.Messages) != 1 {
		t.Fatalf("expected only the automated reply, got %d messages", len(ticket.Messages))
	}
	reply := ticket.Messages[0]
	if reply.AuthorKind != models.AuthorAI {
		t.Errorf("expected ai reply, got %q", reply.AuthorKind)
	}
	if reply.Content != "Try turning it off and on again." {
		t.Errorf("unexpected reply content: %q", reply.Content)
	}
	for _, m := range ticket.Messages {
		if m.AuthorKind == models.AuthorSystem {
			t.Error("default acknowledgement must be suppressed when a rule fires")
		}
	}
}

func TestCreateTicket_AutomationErrorFallsBackToAcknowledgement(t *testing.T) {
	db := newTicketTestDB(t)
	svc := newTicketService(t, db)
	customer := createTestUser(t, db, "dave", "customer")

	engine := automation.NewService(db, &fixedGenerator{}, logrus.New(), automation.Settings{SystemUserID: 99})
	svc.SetAutomationService(engine)

	// invalid row inserted directly so dispatch fails
	db.Create(&models.AutomationRule{
		Name: "broken", TriggerKeyword: "printer", TriggerLocation: models.TriggerLocationTitle,
		ActionType: models.ActionStatusChange, StatusToSet: "", Enabled: true,
	})

	ticket, err := svc.CreateTicket(context.Background(), &TicketCreateRequest{
		Title:      "printer jammed",
		CustomerID: customer.ID,
	})
	if err != nil {
		t.Fatalf("a failed automation must not fail ticket creation: %v", err)
	}

	if len(ticket.Messages) != 1 || ticket.Messages[0].AuthorKind != models.AuthorSystem {
		t.Errorf("expected the default acknowledgement, got %+v", ticket.Messages)
	}
}

func TestCreateTicket_CustomerMissing(t *testing.T) {
	db := newTicketTestDB(t)
	svc := newTicketService(t, db)

	_, err := svc.CreateTicket(context.Background(), &TicketCreateRequest{
		Title:      "orphan",
		CustomerID: 12345,
	})
	if err == nil {
		t.Fatal("expected error for unknown customer")
	}
}

func TestUpdateTicket_StatusTransition(t *testing.T) {
	db := newTicketTestDB(t)
	svc := newTicketService(t, db)
	customer := createTestUser(t, db, "erin", "customer")
	agent := createTestUser(t, db, "frank", "agent")

	ticket, err := svc.CreateTicket(context.Background(), &TicketCreateRequest{
		Title:      "vpn down",
		CustomerID: customer.ID,
	})
	if err != nil {
		t.Fatalf("CreateTicket failed: %v", err)
	}

	status := "resolved"
	updated, err := svc.UpdateTicket(context.Background(), ticket.ID, &TicketUpdateRequest{
		Status:  &status,
		AgentID: &agent.ID,
	}, agent.ID)
	if err != nil {
		t.Fatalf("UpdateTicket failed: %v", err)
	}

	if updated.Status != "resolved" {
		t.Errorf("expected resolved, got %q", updated.Status)
	}
	if updated.ResolvedAt == nil {
		t.Error("expected resolved_at to be set")
	}
	if updated.AgentID == nil || *updated.AgentID != agent.ID {
		t.Errorf("expected agent %d, got %v", agent.ID, updated.AgentID)
	}

	// creation + transition
	if len(updated.StatusHistory) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(updated.StatusHistory))
	}
	last := updated.StatusHistory[1]
	if last.FromStatus != "open" || last.ToStatus != "resolved" || last.UserID != agent.ID {
		t.Errorf("unexpected transition record: %+v", last)
	}
}

func TestUpdateTicket_SameStatusNoHistory(t *testing.T) {
	db := newTicketTestDB(t)
	svc := newTicketService(t, db)
	customer := createTestUser(t, db, "gina", "customer")

	ticket, _ := svc.CreateTicket(context.Background(), &TicketCreateRequest{
		Title:      "vpn down",
		CustomerID: customer.ID,
	})

	status := "open"
	updated, err := svc.UpdateTicket(context.Background(), ticket.ID, &TicketUpdateRequest{Status: &status}, customer.ID)
	if err != nil {
		t.Fatalf("UpdateTicket failed: %v", err)
	}
	if len(updated.StatusHistory) != 1 {
		t.Errorf("a no-op status update must not add history, got %d records", len(updated.StatusHistory))
	}
}

func TestUpdateTicket_NotFound(t *testing.T) {
	db := newTicketTestDB(t)
	svc := newTicketService(t, db)

	title := "x"
	_, err := svc.UpdateTicket(context.Background(), 9999, &TicketUpdateRequest{Title: &title}, 1)
	if err == nil {
		t.Fatal("expected error for missing ticket")
	}
}

func TestAddMessage(t *testing.T) {
	db := newTicketTestDB(t)
	svc := newTicketService(t, db)
	customer := createTestUser(t, db, "hana", "customer")
	agent := createTestUser(t, db, "ivan", "agent")

	ticket, _ := svc.CreateTicket(context.Background(), &TicketCreateRequest{
		Title:      "vpn down",
		CustomerID: customer.ID,
	})

	message, err := svc.AddMessage(context.Background(), ticket.ID, agent.ID, &TicketMessageRequest{
		Content:    "Checking the gateway now.",
		IsInternal: true,
	}, models.AuthorAgent)
	if err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}
	if message.ID == 0 || !message.IsInternal || message.AuthorKind != models.AuthorAgent {
		t.Errorf("unexpected message: %+v", message)
	}

	if _, err := svc.AddMessage(context.Background(), 9999, agent.ID, &TicketMessageRequest{Content: "x"}, models.AuthorAgent); err == nil {
		t.Fatal("expected error for missing ticket")
	}
}

func TestListTickets_Filters(t *testing.T) {
	db := newTicketTestDB(t)
	svc := newTicketService(t, db)
	alice := createTestUser(t, db, "alice2", "customer")
	bob := createTestUser(t, db, "bob2", "customer")

	mustCreate := func(req *TicketCreateRequest) *models.Ticket {
		ticket, err := svc.CreateTicket(context.Background(), req)
		if err != nil {
			t.Fatalf("CreateTicket failed: %v", err)
		}
		return ticket
	}
	mustCreate(&TicketCreateRequest{Title: "vpn down", CustomerID: alice.ID, Priority: "high"})
	mustCreate(&TicketCreateRequest{Title: "invoice question", CustomerID: alice.ID, Category: "billing"})
	mustCreate(&TicketCreateRequest{Title: "printer jammed", CustomerID: bob.ID})

	tickets, total, err := svc.ListTickets(context.Background(), &TicketListRequest{CustomerID: &alice.ID})
	if err != nil {
		t.Fatalf("ListTickets failed: %v", err)
	}
	if total != 2 || len(tickets) != 2 {
		t.Errorf("expected 2 tickets for alice, got %d (total %d)", len(tickets), total)
	}

	tickets, total, _ = svc.ListTickets(context.Background(), &TicketListRequest{Category: []string{"billing"}})
	if total != 1 || tickets[0].Title != "invoice question" {
		t.Errorf("expected the billing ticket, got %+v", tickets)
	}

	_, total, _ = svc.ListTickets(context.Background(), &TicketListRequest{Search: "printer"})
	if total != 1 {
		t.Errorf("expected 1 search hit, got %d", total)
	}

	_, total, _ = svc.ListTickets(context.Background(), &TicketListRequest{Status: []string{"closed"}})
	if total != 0 {
		t.Errorf("expected no closed tickets, got %d", total)
	}
}

func TestDeleteTicket(t *testing.T) {
	db := newTicketTestDB(t)
	svc := newTicketService(t, db)
	customer := createTestUser(t, db, "judy", "customer")

	ticket, _ := svc.CreateTicket(context.Background(), &TicketCreateRequest{
		Title:      "to delete",
		CustomerID: customer.ID,
	})

	if err := svc.DeleteTicket(context.Background(), ticket.ID); err != nil {
		t.Fatalf("DeleteTicket failed: %v", err)
	}
	if err := svc.DeleteTicket(context.Background(), ticket.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}
