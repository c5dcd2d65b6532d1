package models

import "time"

// Automation rule trigger locations.
const (
	TriggerLocationTitle       = "title"
	TriggerLocationDescription = "description"
	TriggerLocationMessage     = "message"
)

// Automation rule action types.
const (
	ActionIAReply      = "ia_reply"
	ActionStatusChange = "status_change"
	ActionAssignAgent  = "assign_agent"
)

// AutomationRule fires when a newly created ticket matches its trigger
// keyword. Exactly one action variant is live at a time; the unused
// variants' columns are kept empty.
type AutomationRule struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`

	// TriggerKeyword may hold several comma-separated alternatives; the
	// rule matches when any one of them matches.
	TriggerKeyword  string `gorm:"not null" json:"trigger_keyword"`
	TriggerLocation string `gorm:"not null;default:'title'" json:"trigger_location"` // title, description, message

	// Reason is a free-form annotation for admins, never evaluated.
	Reason string `gorm:"type:text" json:"reason"`

	ActionType  string `gorm:"not null" json:"action_type"` // ia_reply, status_change, assign_agent
	AIPrompt    string `gorm:"type:text" json:"ai_prompt"`  // ia_reply: optional admin instruction
	FAQID       *uint  `gorm:"index" json:"faq_id"`         // ia_reply: optional linked FAQ
	StatusToSet string `json:"status_to_set"`               // status_change
	AgentID     *uint  `gorm:"index" json:"agent_id"`       // assign_agent

	Enabled   bool      `gorm:"default:true" json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Automation run outcomes.
const (
	RunOutcomeAIReply       = "ai_reply"
	RunOutcomeFallbackReply = "fallback_reply"
	RunOutcomeStatusChange  = "status_change"
	RunOutcomeAssignAgent   = "assign_agent"
	RunOutcomeFailed        = "failed"
)

// AutomationRun records the outcome of a rule firing, for audit.
type AutomationRun struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RuleID    uint      `gorm:"index" json:"rule_id"`
	TicketID  uint      `gorm:"index" json:"ticket_id"`
	Outcome   string    `gorm:"index" json:"outcome"` // ai_reply, fallback_reply, status_change, assign_agent, failed
	Detail    string    `gorm:"type:text" json:"detail"`
	CreatedAt time.Time `json:"created_at"`

	Rule AutomationRule `gorm:"foreignKey:RuleID" json:"rule,omitempty"`
}
