// Package anthropic provides an LLM service adapter using the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/custodia-labs/airportai/internal/adapters/driven/llm"
	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.anthropic.com"
	DefaultLLMModel   = "claude-3-5-sonnet-latest"
	DefaultLLMTimeout = 120 * time.Second
	DefaultMaxTokens  = 1024
)

// LLMConfig holds configuration for the Anthropic LLM service.
type LLMConfig struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the LLM model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using Anthropic.
type LLMService struct {
	client anthropic.Client
	model  string
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(0),
	)
	return &LLMService{client: client, model: cfg.Model}, nil
}

// Complete runs one Messages API call.
// Anthropic has no JSON response mode, so JSON requests get an explicit
// instruction appended to the system prompt.
func (s *LLMService) Complete(ctx context.Context, in driven.CompletionRequest) (driven.CompletionResponse, error) {
	model := in.Model
	if model == "" {
		model = s.model
	}
	maxTokens := int64(in.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	system := in.System
	var msgs []anthropic.MessageParam
	for _, m := range in.Messages {
		switch m.Role {
		case driven.RoleSystem:
			system = strings.TrimSpace(system + "\n\n" + m.Content)
		case driven.RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  msgs,
		MaxTokens: maxTokens,
	}
	if system = llm.SystemPrompt(system, in.JSON); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if in.Temperature > 0 {
		params.Temperature = anthropic.Float(in.Temperature)
	}

	msg, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return driven.CompletionResponse{}, mapError(err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return driven.CompletionResponse{}, fmt.Errorf("anthropic: no text content returned: %w", domain.ErrMalformedResponse)
	}

	return driven.CompletionResponse{
		Text:  text.String(),
		Model: string(msg.Model),
		Usage: domain.TokenUsage{
			PromptTokens:     msg.Usage.InputTokens,
			CompletionTokens: msg.Usage.OutputTokens,
			TotalTokens:      msg.Usage.InputTokens + msg.Usage.OutputTokens,
		},
	}, nil
}

// mapError folds SDK API errors into the domain taxonomy.
func mapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return llm.StatusError("anthropic", apiErr.StatusCode, apiErr.Error())
	}
	return fmt.Errorf("anthropic: %w", err)
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by listing models.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", mapError(err))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
