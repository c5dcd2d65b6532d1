package models

import (
	"time"

	"gorm.io/gorm"
)

// User is any account known to the helpdesk.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"unique;not null" json:"username"`
	Email     string         `gorm:"unique;not null" json:"email"`
	Name      string         `json:"name"`
	Role      string         `gorm:"default:'customer'" json:"role"`  // customer, agent, admin, system
	Status    string         `gorm:"default:'active'" json:"status"` // active, inactive
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Tickets []Ticket `gorm:"foreignKey:CustomerID" json:"tickets,omitempty"`
}

// Ticket is a support request opened by a customer.
type Ticket struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Reference   string         `gorm:"uniqueIndex;size:36" json:"reference"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	CustomerID  uint           `gorm:"index" json:"customer_id"`
	AgentID     *uint          `gorm:"index" json:"agent_id"`
	Category    string         `json:"category"` // technical, billing, general
	Priority    string         `gorm:"default:'normal'" json:"priority"` // low, normal, high, urgent
	Status      string         `gorm:"default:'open'" json:"status"`     // open, pending, resolved, closed
	Source      string         `json:"source"` // web, email, chat
	ResolvedAt  *time.Time     `json:"resolved_at"`
	ClosedAt    *time.Time     `json:"closed_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Customer      User                 `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Agent         *User                `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
	Messages      []TicketMessage      `gorm:"foreignKey:TicketID" json:"messages,omitempty"`
	StatusHistory []TicketStatusChange `gorm:"foreignKey:TicketID" json:"status_history,omitempty"`
}

// Ticket message author kinds.
const (
	AuthorCustomer = "customer"
	AuthorAgent    = "agent"
	AuthorSystem   = "system"
	AuthorAI       = "ai"
)

// TicketMessage is a single entry in a ticket conversation. Internal
// messages are visible to agents only.
type TicketMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TicketID   uint      `gorm:"index" json:"ticket_id"`
	UserID     uint      `gorm:"index" json:"user_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	AuthorKind string    `gorm:"default:'customer'" json:"author_kind"` // customer, agent, system, ai
	IsInternal bool      `gorm:"default:false" json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`

	Ticket Ticket `gorm:"foreignKey:TicketID" json:"ticket,omitempty"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TicketStatusChange records a status transition for audit.
type TicketStatusChange struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TicketID   uint      `gorm:"index" json:"ticket_id"`
	UserID     uint      `gorm:"index" json:"user_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`

	Ticket Ticket `gorm:"foreignKey:TicketID" json:"ticket,omitempty"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// FAQ is an admin-authored question/answer pair. Enabled entries can be
// linked to automation rules to ground AI replies.
type FAQ struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Question  string    `gorm:"not null" json:"question"`
	Answer    string    `gorm:"type:text;not null" json:"answer"`
	Category  string    `json:"category"`
	Enabled   bool      `gorm:"default:true" json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Notification is a persisted per-user notification.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	TicketID  *uint     `gorm:"index" json:"ticket_id"`
	Type      string    `json:"type"` // ticket_created, ticket_updated, automation_reply
	Title     string    `json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	Read      bool      `gorm:"default:false;index" json:"read"`
	CreatedAt time.Time `json:"created_at"`

	User   User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Ticket *Ticket `gorm:"foreignKey:TicketID" json:"ticket,omitempty"`
}
