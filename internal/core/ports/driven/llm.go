package driven

import (
	"context"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

// LLMService is a raw completion provider.
// Only the capability adapter talks to it; every other component depends on
// LLMCapabilities.
//
// Implementations include:
//   - OpenAI (and compatible APIs)
//   - Anthropic
//   - Gemini
//   - Ollama (local models)
//   - Replay (recorded responses, for tests and offline demos)
type LLMService interface {
	// Complete runs one completion and reports token usage.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// ModelName returns the default model of the provider.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionRequest is a single provider call.
type CompletionRequest struct {
	// Model overrides the provider default when set.
	Model string

	// System is the system prompt.
	System string

	// Messages is the conversation, the last one being the prompt.
	Messages []ChatMessage

	// JSON asks the provider for a JSON object response where supported.
	JSON bool

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// CompletionResponse is the provider output.
type CompletionResponse struct {
	Text  string
	Model string
	Usage domain.TokenUsage
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
