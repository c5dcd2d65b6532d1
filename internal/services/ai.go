package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"deskflow/internal/config"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// AIService is the text-generation collaborator. It implements
// automation.Generator.
type AIService struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *logrus.Logger
}

func NewAIService(cfg config.OpenAIConfig, logger *logrus.Logger) *AIService {
	if logger == nil {
		logger = logrus.New()
	}
	s := &AIService{
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}
	if cfg.APIKey == "" {
		// without a key the service stays in degraded mode and every
		// generation call errors; callers fall back to canned replies
		logger.Warn("openai api key not configured, generation disabled")
		return s
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	s.client = openai.NewClientWithConfig(clientCfg)
	return s
}

// GenerateResponse runs one chat completion for the given prompt. It may
// fail or return an empty string; callers own the fallback behavior.
func (s *AIService) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	tracer := otel.Tracer("deskflow/ai")
	ctx, span := tracer.Start(ctx, "AIService.GenerateResponse")
	span.SetAttributes(attribute.String("model", s.model))
	defer span.End()

	if s.client == nil {
		return "", fmt.Errorf("generation unavailable: openai api key not configured")
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		span.SetStatus(codes.Error, "no response choices")
		return "", fmt.Errorf("no response from model")
	}
	return resp.Choices[0].Message.Content, nil
}

// TicketDraft is a generated suggestion for a new ticket.
type TicketDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

const draftPrompt = `A customer described a problem to the helpdesk in their own words:

%s

Write a support ticket for it. Reply with the ticket title on the first line and the ticket description on the following lines. Keep the title under 80 characters and the description factual.`

// DraftTicket turns a rough problem statement into a suggested ticket
// title and description.
func (s *AIService) DraftTicket(ctx context.Context, problem string) (*TicketDraft, error) {
	problem = strings.TrimSpace(problem)
	if problem == "" {
		return nil, fmt.Errorf("problem statement required")
	}

	text, err := s.GenerateResponse(ctx, fmt.Sprintf(draftPrompt, problem))
	if err != nil {
		return nil, err
	}

	draft := parseDraft(text)
	if draft.Title == "" {
		return nil, fmt.Errorf("empty draft from model")
	}
	return draft, nil
}

// parseDraft splits a generated draft: first non-empty line is the title,
// the rest is the description. A leading "Title:" label is tolerated.
func parseDraft(text string) *TicketDraft {
	draft := &TicketDraft{}
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if draft.Title == "" {
			line = strings.TrimSpace(strings.TrimPrefix(line, "Title:"))
			draft.Title = strings.Trim(line, "# ")
			continue
		}
		draft.Description = strings.TrimSpace(strings.Join(lines[i:], "\n"))
		break
	}
	draft.Description = strings.TrimSpace(strings.TrimPrefix(draft.Description, "Description:"))
	return draft
}
