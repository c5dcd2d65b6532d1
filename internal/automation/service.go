package automation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"deskflow/internal/metrics"
	"deskflow/internal/models"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

// DefaultFallbackMessage is posted when the generation call fails or
// returns nothing.
const DefaultFallbackMessage = "Thank you for reaching out. An agent will take over your ticket shortly."

// Generator produces a reply for a prompt. May fail or return an empty
// string; the dispatcher degrades to the canned fallback in both cases.
type Generator interface {
	GenerateResponse(ctx context.Context, prompt string) (string, error)
}

// Settings are the deployment-level knobs of the engine.
type Settings struct {
	// SimilarityThreshold for fuzzy keyword matching; 0 means the default.
	SimilarityThreshold float64
	// SystemUserID is the account automated messages are attributed to.
	SystemUserID uint
	// FallbackMessage overrides the canned reply; empty means the default.
	FallbackMessage string
}

// TicketInput is the read-only projection of a newly created ticket the
// engine evaluates rules against. Message carries the first message when
// the ticket was created with one, otherwise it is empty.
type TicketInput struct {
	ID          uint
	Title       string
	Description string
	Message     string
}

// Service evaluates automation rules against created tickets and manages
// the rule store.
type Service struct {
	db       *gorm.DB
	gen      Generator
	logger   *logrus.Logger
	settings Settings
}

func NewService(db *gorm.DB, gen Generator, logger *logrus.Logger, settings Settings) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	if settings.SimilarityThreshold <= 0 {
		settings.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if settings.FallbackMessage == "" {
		settings.FallbackMessage = DefaultFallbackMessage
	}
	return &Service{db: db, gen: gen, logger: logger, settings: settings}
}

// OnTicketCreated evaluates the rule set against a freshly created ticket
// and executes the action of the first matching rule. It returns true only
// when an automated action was committed, so the caller can suppress its
// default ticket-received message. At most one rule fires per call.
func (s *Service) OnTicketCreated(ctx context.Context, in TicketInput) (bool, error) {
	tracer := otel.Tracer("deskflow/automation")
	ctx, span := tracer.Start(ctx, "Automation.OnTicketCreated")
	span.SetAttributes(attribute.Int("ticket.id", int(in.ID)))
	defer span.End()

	metrics.IncAutomationRun()

	var rules []models.AutomationRule
	if err := s.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("id ASC").
		Find(&rules).Error; err != nil {
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("load automation rules: %w", err)
	}

	rule := selectRule(rules, in, s.settings.SimilarityThreshold)
	if rule == nil {
		return false, nil
	}
	span.SetAttributes(attribute.Int("rule.id", int(rule.ID)))
	s.logger.Infof("automation: rule %q matched ticket %d on %s", rule.Name, in.ID, rule.TriggerLocation)

	outcome, err := s.dispatch(ctx, rule, in)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.recordRun(ctx, rule.ID, in.ID, models.RunOutcomeFailed, err.Error())
		return false, err
	}
	metrics.IncAutomationOutcome(outcome)
	s.recordRun(ctx, rule.ID, in.ID, outcome, "")
	return true, nil
}

// selectRule returns the first enabled rule whose trigger matches the
// ticket, in slice order. It has no side effects.
func selectRule(rules []models.AutomationRule, in TicketInput, threshold float64) *models.AutomationRule {
	for i := range rules {
		rule := &rules[i]
		if !rule.Enabled {
			continue
		}
		text, ok := triggerText(rule.TriggerLocation, in)
		if !ok {
			continue
		}
		if MatchKeyword(text, rule.TriggerKeyword, threshold) {
			return rule
		}
	}
	return nil
}

// triggerText resolves the ticket field a trigger location points at. A
// message trigger cannot match a ticket created without a first message.
func triggerText(location string, in TicketInput) (string, bool) {
	switch location {
	case models.TriggerLocationTitle:
		return in.Title, true
	case models.TriggerLocationDescription:
		return in.Description, true
	case models.TriggerLocationMessage:
		if in.Message == "" {
			return "", false
		}
		return in.Message, true
	}
	return "", false
}

// dispatch executes exactly one action variant. Generation failures are
// absorbed into the fallback reply; record writes that fail propagate.
func (s *Service) dispatch(ctx context.Context, rule *models.AutomationRule, in TicketInput) (string, error) {
	switch rule.ActionType {
	case models.ActionIAReply:
		return s.dispatchAIReply(ctx, rule, in)
	case models.ActionStatusChange:
		return s.dispatchStatusChange(ctx, rule, in)
	case models.ActionAssignAgent:
		return s.dispatchAssignAgent(ctx, rule, in)
	default:
		return "", fmt.Errorf("unsupported action type: %s", rule.ActionType)
	}
}

func (s *Service) dispatchAIReply(ctx context.Context, rule *models.AutomationRule, in TicketInput) (string, error) {
	var faq *models.FAQ
	if rule.FAQID != nil {
		var entry models.FAQ
		if err := s.db.WithContext(ctx).First(&entry, *rule.FAQID).Error; err != nil {
			s.logger.Warnf("automation: rule %d linked FAQ %d not found: %v", rule.ID, *rule.FAQID, err)
		} else if !entry.Enabled {
			s.logger.Warnf("automation: rule %d linked FAQ %d is disabled, skipping", rule.ID, *rule.FAQID)
		} else {
			faq = &entry
		}
	}

	prompt := BuildPrompt(in, rule.AIPrompt, faq)

	outcome := models.RunOutcomeAIReply
	content, err := s.gen.GenerateResponse(ctx, prompt)
	if err != nil || strings.TrimSpace(content) == "" {
		if err != nil {
			s.logger.Warnf("automation: generation failed for ticket %d: %v", in.ID, err)
		}
		content = s.settings.FallbackMessage
		outcome = models.RunOutcomeFallbackReply
	}

	message := &models.TicketMessage{
		TicketID:   in.ID,
		UserID:     s.settings.SystemUserID,
		Content:    content,
		AuthorKind: models.AuthorAI,
		IsInternal: false,
		CreatedAt:  time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(message).Error; err != nil {
		return "", fmt.Errorf("post automated reply: %w", err)
	}
	return outcome, nil
}

func (s *Service) dispatchStatusChange(ctx context.Context, rule *models.AutomationRule, in TicketInput) (string, error) {
	if rule.StatusToSet == "" {
		return "", fmt.Errorf("rule %d: status_to_set required", rule.ID)
	}

	updates := map[string]interface{}{"status": rule.StatusToSet}
	switch rule.StatusToSet {
	case "resolved":
		now := time.Now()
		updates["resolved_at"] = &now
	case "closed":
		now := time.Now()
		updates["closed_at"] = &now
	}
	if err := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("id = ?", in.ID).
		Updates(updates).Error; err != nil {
		return "", fmt.Errorf("set ticket status: %w", err)
	}

	change := &models.TicketStatusChange{
		TicketID:   in.ID,
		UserID:     s.settings.SystemUserID,
		FromStatus: "open",
		ToStatus:   rule.StatusToSet,
		Reason:     fmt.Sprintf("automation rule: %s", rule.Name),
		CreatedAt:  time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(change).Error; err != nil {
		return "", fmt.Errorf("record status change: %w", err)
	}
	return models.RunOutcomeStatusChange, nil
}

func (s *Service) dispatchAssignAgent(ctx context.Context, rule *models.AutomationRule, in TicketInput) (string, error) {
	if rule.AgentID == nil || *rule.AgentID == 0 {
		return "", fmt.Errorf("rule %d: agent_id required", rule.ID)
	}
	if err := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("id = ?", in.ID).
		Update("agent_id", *rule.AgentID).Error; err != nil {
		return "", fmt.Errorf("assign agent: %w", err)
	}
	return models.RunOutcomeAssignAgent, nil
}

// recordRun is best effort; a failed audit write never fails the run.
func (s *Service) recordRun(ctx context.Context, ruleID, ticketID uint, outcome, detail string) {
	run := &models.AutomationRun{
		RuleID:    ruleID,
		TicketID:  ticketID,
		Outcome:   outcome,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		s.logger.Warnf("automation: record run failed: %v", err)
	}
}
