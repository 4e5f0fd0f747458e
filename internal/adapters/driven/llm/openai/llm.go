// Package openai provides an LLM service adapter for OpenAI and compatible APIs.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/custodia-labs/airportai/internal/adapters/driven/llm"
	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides LLM operations using the OpenAI chat completions API.
type LLMService struct {
	client openai.Client
	model  string
}

// NewLLMService creates a new OpenAI LLM service.
// SDK retries are disabled: the capability adapter owns the retry policy.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
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

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(0),
	)
	return &LLMService{client: client, model: cfg.Model}, nil
}

// Complete runs one chat completion.
func (s *LLMService) Complete(ctx context.Context, in driven.CompletionRequest) (driven.CompletionResponse, error) {
	model := in.Model
	if model == "" {
		model = s.model
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: buildMessages(in),
	}
	if in.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(in.MaxTokens))
	}
	if in.Temperature > 0 {
		params.Temperature = openai.Float(in.Temperature)
	}
	if in.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return driven.CompletionResponse{}, mapError(err)
	}
	if len(resp.Choices) == 0 {
		return driven.CompletionResponse{}, fmt.Errorf("openai: no response choices returned: %w", domain.ErrMalformedResponse)
	}

	return driven.CompletionResponse{
		Text:  resp.Choices[0].Message.Content,
		Model: resp.Model,
		Usage: domain.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// buildMessages converts the request to OpenAI message params.
func buildMessages(in driven.CompletionRequest) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(in.Messages)+1)
	if in.System != "" {
		msgs = append(msgs, openai.SystemMessage(in.System))
	}
	for _, m := range in.Messages {
		switch m.Role {
		case driven.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case driven.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return msgs
}

// mapError folds SDK API errors into the domain taxonomy.
func mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return llm.StatusError("openai", apiErr.StatusCode, apiErr.Message)
	}
	return fmt.Errorf("openai: %w", err)
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by listing models.
// This is a lightweight check that validates the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.List(ctx); err != nil {
		return fmt.Errorf("openai: ping failed: %w", mapError(err))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
