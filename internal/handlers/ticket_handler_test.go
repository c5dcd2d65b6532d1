package handlers

import (
	"net/http"
	"testing"

	"deskflow/internal/models"
	"deskflow/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// asUser fakes the auth middleware for tests.
func asUser(userID uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	}
}

func newTicketTestRouter(t *testing.T, userID uint, role string) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Ticket{}, &models.TicketMessage{}, &models.TicketStatusChange{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	svc := services.NewTicketService(db, logger, 99)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(asUser(userID, role))
	RegisterTicketRoutes(api, NewTicketHandler(svc))
	return r, db
}

func seedUser(t *testing.T, db *gorm.DB, id uint, username, role string) {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", Role: role}
	user.ID = id
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestTicketHandler_CreateAndGet(t *testing.T) {
	r, db := newTicketTestRouter(t, 5, "customer")
	seedUser(t, db, 5, "alice", "customer")

	w := doJSON(t, r, http.MethodPost, "/api/v1/tickets", map[string]interface{}{
		"title":       "vpn down",
		"customer_id": 5,
		"message":     "cannot connect since this morning",
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/v1/tickets/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/tickets/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTicketHandler_CustomerCannotCreateForOthers(t *testing.T) {
	r, db := newTicketTestRouter(t, 5, "customer")
	seedUser(t, db, 5, "alice", "customer")
	seedUser(t, db, 6, "bob", "customer")

	w := doJSON(t, r, http.MethodPost, "/api/v1/tickets", map[string]interface{}{
		"title":       "sneaky",
		"customer_id": 6,
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var ticket models.Ticket
	assert.NoError(t, db.First(&ticket, 1).Error)
	assert.Equal(t, uint(5), ticket.CustomerID)
}

func TestTicketHandler_CustomerListsOwnTicketsOnly(t *testing.T) {
	r, db := newTicketTestRouter(t, 5, "customer")
	seedUser(t, db, 5, "alice", "customer")
	seedUser(t, db, 6, "bob", "customer")

	db.Create(&models.Ticket{Reference: "r1", Title: "mine", CustomerID: 5, Status: "open"})
	db.Create(&models.Ticket{Reference: "r2", Title: "theirs", CustomerID: 6, Status: "open"})

	w := doJSON(t, r, http.MethodGet, "/api/v1/tickets", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mine")
	assert.NotContains(t, w.Body.String(), "theirs")
}

func TestTicketHandler_CustomerMessageNeverInternal(t *testing.T) {
	r, db := newTicketTestRouter(t, 5, "customer")
	seedUser(t, db, 5, "alice", "customer")
	db.Create(&models.Ticket{Reference: "r1", Title: "t", CustomerID: 5, Status: "open"})

	w := doJSON(t, r, http.MethodPost, "/api/v1/tickets/1/messages", map[string]interface{}{
		"content":     "hello",
		"is_internal": true,
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var message models.TicketMessage
	assert.NoError(t, db.First(&message).Error)
	assert.False(t, message.IsInternal)
	assert.Equal(t, models.AuthorCustomer, message.AuthorKind)
}

func TestTicketHandler_AgentUpdateAndDelete(t *testing.T) {
	r, db := newTicketTestRouter(t, 7, "agent")
	seedUser(t, db, 7, "frank", "agent")
	db.Create(&models.Ticket{Reference: "r1", Title: "t", CustomerID: 5, Status: "open"})

	w := doJSON(t, r, http.MethodPut, "/api/v1/tickets/1", map[string]interface{}{
		"status": "resolved",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var ticket models.Ticket
	assert.NoError(t, db.First(&ticket, 1).Error)
	assert.Equal(t, "resolved", ticket.Status)

	w = doJSON(t, r, http.MethodDelete, "/api/v1/tickets/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/v1/tickets/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
