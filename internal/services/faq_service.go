package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"deskflow/internal/models"

	"gorm.io/gorm"
)

// FAQService manages the admin-authored FAQ entries automation rules can
// link to.
type FAQService struct {
	db *gorm.DB
}

func NewFAQService(db *gorm.DB) *FAQService {
	return &FAQService{db: db}
}

type FAQCreateRequest struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer" binding:"required"`
	Category string `json:"category"`
	Enabled  *bool  `json:"enabled"`
}

type FAQUpdateRequest struct {
	Question *string `json:"question"`
	Answer   *string `json:"answer"`
	Category *string `json:"category"`
	Enabled  *bool   `json:"enabled"`
}

type FAQListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Category string `form:"category"`
	Search   string `form:"search"`
}

func (s *FAQService) Create(ctx context.Context, req *FAQCreateRequest) (*models.FAQ, error) {
	if req == nil {
		return nil, errors.New("request required")
	}
	question := strings.TrimSpace(req.Question)
	answer := strings.TrimSpace(req.Answer)
	if question == "" {
		return nil, errors.New("question required")
	}
	if answer == "" {
		return nil, errors.New("answer required")
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	now := time.Now()
	faq := &models.FAQ{
		Question:  question,
		Answer:    answer,
		Category:  strings.TrimSpace(req.Category),
		Enabled:   enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(faq).Error; err != nil {
		return nil, err
	}
	return faq, nil
}

func (s *FAQService) Get(ctx context.Context, id uint) (*models.FAQ, error) {
	var faq models.FAQ
	if err := s.db.WithContext(ctx).First(&faq, id).Error; err != nil {
		return nil, err
	}
	return &faq, nil
}

// GetAll returns every enabled FAQ entry, for rule authoring and the
// automation engine's linked-FAQ lookups.
func (s *FAQService) GetAll(ctx context.Context) ([]models.FAQ, error) {
	var faqs []models.FAQ
	if err := s.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("id ASC").
		Find(&faqs).Error; err != nil {
		return nil, err
	}
	return faqs, nil
}

func (s *FAQService) List(ctx context.Context, req *FAQListRequest) ([]models.FAQ, int64, error) {
	page := 1
	pageSize := 20
	if req != nil {
		if req.Page > 0 {
			page = req.Page
		}
		if req.PageSize > 0 {
			pageSize = req.PageSize
		}
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	q := s.db.WithContext(ctx).Model(&models.FAQ{})
	if req != nil {
		if c := strings.TrimSpace(req.Category); c != "" {
			q = q.Where("category = ?", c)
		}
		if sTerm := strings.TrimSpace(req.Search); sTerm != "" {
			like := "%" + sTerm + "%"
			q = q.Where("question LIKE ? OR answer LIKE ?", like, like)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var faqs []models.FAQ
	if err := q.Order("created_at DESC").Limit(pageSize).Offset(offset).Find(&faqs).Error; err != nil {
		return nil, 0, err
	}
	return faqs, total, nil
}

func (s *FAQService) Update(ctx context.Context, id uint, req *FAQUpdateRequest) (*models.FAQ, error) {
	if req == nil {
		return nil, errors.New("request required")
	}
	var faq models.FAQ
	if err := s.db.WithContext(ctx).First(&faq, id).Error; err != nil {
		return nil, err
	}

	if req.Question != nil {
		faq.Question = strings.TrimSpace(*req.Question)
	}
	if req.Answer != nil {
		faq.Answer = strings.TrimSpace(*req.Answer)
	}
	if req.Category != nil {
		faq.Category = strings.TrimSpace(*req.Category)
	}
	if req.Enabled != nil {
		faq.Enabled = *req.Enabled
	}
	if faq.Question == "" {
		return nil, errors.New("question required")
	}
	if faq.Answer == "" {
		return nil, errors.New("answer required")
	}

	faq.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(&faq).Error; err != nil {
		return nil, err
	}
	return &faq, nil
}

func (s *FAQService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.FAQ{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
