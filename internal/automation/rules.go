package automation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"deskflow/internal/models"

	"gorm.io/gorm"
)

// RuleCreateRequest creates an automation rule.
type RuleCreateRequest struct {
	Name            string `json:"name" binding:"required"`
	TriggerKeyword  string `json:"trigger_keyword" binding:"required"`
	TriggerLocation string `json:"trigger_location" binding:"required"`
	Reason          string `json:"reason"`
	ActionType      string `json:"action_type" binding:"required"`
	AIPrompt        string `json:"ai_prompt"`
	FAQID           *uint  `json:"faq_id"`
	StatusToSet     string `json:"status_to_set"`
	AgentID         *uint  `json:"agent_id"`
	Enabled         *bool  `json:"enabled"`
}

// RuleUpdateRequest updates an automation rule. Nil fields keep their
// current value; changing the action type discards the previous variant's
// fields.
type RuleUpdateRequest struct {
	Name            *string `json:"name"`
	TriggerKeyword  *string `json:"trigger_keyword"`
	TriggerLocation *string `json:"trigger_location"`
	Reason          *string `json:"reason"`
	ActionType      *string `json:"action_type"`
	AIPrompt        *string `json:"ai_prompt"`
	FAQID           *uint   `json:"faq_id"`
	StatusToSet     *string `json:"status_to_set"`
	AgentID         *uint   `json:"agent_id"`
	Enabled         *bool   `json:"enabled"`
}

// ListRules returns all rules in evaluation order (creation order), which
// is the order first-match-wins runs in.
func (s *Service) ListRules(ctx context.Context) ([]models.AutomationRule, error) {
	var rules []models.AutomationRule
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *Service) GetRule(ctx context.Context, id uint) (*models.AutomationRule, error) {
	var rule models.AutomationRule
	if err := s.db.WithContext(ctx).First(&rule, id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (s *Service) CreateRule(ctx context.Context, req *RuleCreateRequest) (*models.AutomationRule, error) {
	if req == nil {
		return nil, fmt.Errorf("request required")
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	now := time.Now()
	rule := &models.AutomationRule{
		Name:            strings.TrimSpace(req.Name),
		TriggerKeyword:  strings.TrimSpace(req.TriggerKeyword),
		TriggerLocation: req.TriggerLocation,
		Reason:          req.Reason,
		ActionType:      req.ActionType,
		AIPrompt:        req.AIPrompt,
		FAQID:           req.FAQID,
		StatusToSet:     req.StatusToSet,
		AgentID:         req.AgentID,
		Enabled:         enabled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := validateRule(rule); err != nil {
		return nil, err
	}
	clearInactiveVariants(rule)

	if err := s.db.WithContext(ctx).Create(rule).Error; err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *Service) UpdateRule(ctx context.Context, id uint, req *RuleUpdateRequest) (*models.AutomationRule, error) {
	if req == nil {
		return nil, fmt.Errorf("request required")
	}
	var rule models.AutomationRule
	if err := s.db.WithContext(ctx).First(&rule, id).Error; err != nil {
		return nil, err
	}

	if req.Name != nil {
		rule.Name = strings.TrimSpace(*req.Name)
	}
	if req.TriggerKeyword != nil {
		rule.TriggerKeyword = strings.TrimSpace(*req.TriggerKeyword)
	}
	if req.TriggerLocation != nil {
		rule.TriggerLocation = *req.TriggerLocation
	}
	if req.Reason != nil {
		rule.Reason = *req.Reason
	}
	if req.ActionType != nil && *req.ActionType != rule.ActionType {
		// switching variants discards the previous variant's fields
		rule.ActionType = *req.ActionType
		rule.AIPrompt = ""
		rule.FAQID = nil
		rule.StatusToSet = ""
		rule.AgentID = nil
	}
	if req.AIPrompt != nil {
		rule.AIPrompt = *req.AIPrompt
	}
	if req.FAQID != nil {
		rule.FAQID = req.FAQID
	}
	if req.StatusToSet != nil {
		rule.StatusToSet = *req.StatusToSet
	}
	if req.AgentID != nil {
		rule.AgentID = req.AgentID
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}

	if err := validateRule(&rule); err != nil {
		return nil, err
	}
	clearInactiveVariants(&rule)

	rule.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (s *Service) DeleteRule(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.AutomationRule{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TestRules dry-runs the selector against a sample ticket without
// dispatching anything, so admins can see which rule would fire.
func (s *Service) TestRules(ctx context.Context, in TicketInput) (*models.AutomationRule, error) {
	var rules []models.AutomationRule
	if err := s.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("id ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return selectRule(rules, in, s.settings.SimilarityThreshold), nil
}

// validateRule enforces the data-integrity preconditions the dispatcher
// relies on, at save time.
func validateRule(rule *models.AutomationRule) error {
	if rule.Name == "" {
		return fmt.Errorf("name required")
	}
	if !hasKeywordSegment(rule.TriggerKeyword) {
		return fmt.Errorf("trigger keyword required")
	}
	switch rule.TriggerLocation {
	case models.TriggerLocationTitle, models.TriggerLocationDescription, models.TriggerLocationMessage:
	default:
		return fmt.Errorf("unsupported trigger location: %s", rule.TriggerLocation)
	}
	switch rule.ActionType {
	case models.ActionIAReply:
	case models.ActionStatusChange:
		if strings.TrimSpace(rule.StatusToSet) == "" {
			return fmt.Errorf("status_to_set required for status_change action")
		}
	case models.ActionAssignAgent:
		if rule.AgentID == nil || *rule.AgentID == 0 {
			return fmt.Errorf("agent_id required for assign_agent action")
		}
	default:
		return fmt.Errorf("unsupported action type: %s", rule.ActionType)
	}
	return nil
}

// hasKeywordSegment reports whether the keyword holds at least one
// non-empty comma-separated segment.
func hasKeywordSegment(keyword string) bool {
	for _, segment := range strings.Split(keyword, ",") {
		if strings.TrimSpace(segment) != "" {
			return true
		}
	}
	return false
}

// clearInactiveVariants empties the fields belonging to the action
// variants the rule is not using.
func clearInactiveVariants(rule *models.AutomationRule) {
	if rule.ActionType != models.ActionIAReply {
		rule.AIPrompt = ""
		rule.FAQID = nil
	}
	if rule.ActionType != models.ActionStatusChange {
		rule.StatusToSet = ""
	}
	if rule.ActionType != models.ActionAssignAgent {
		rule.AgentID = nil
	}
}
