package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an LLM service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API (or any compatible endpoint).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderReplay serves recorded responses from a fixture file.
	AIProviderReplay AIProvider = "replay"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini, AIProviderReplay:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderReplay
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	case AIProviderReplay:
		return "Replay (recorded responses)"
	default:
		return unknownDescription
	}
}

// LLMSettings holds LLM provider and capability adapter configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// DefaultModel is used for every call first.
	DefaultModel string

	// FallbackModel is tried once after retries on DefaultModel are exhausted.
	FallbackModel string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// ReplayFile is the fixture file for the replay provider.
	ReplayFile string

	// Timeout bounds ordinary LLM calls.
	Timeout time.Duration

	// IntentTimeout bounds intent extraction calls.
	IntentTimeout time.Duration

	// DeepReasoningTimeout bounds multi-step reasoning calls.
	DeepReasoningTimeout time.Duration

	// MaxRetries is the number of attempts on the default model.
	MaxRetries int

	// UseFallbackAfterRetries enables the single fallback-model attempt.
	UseFallbackAfterRetries bool

	// RequestsPerSecond throttles outbound calls (0 = unlimited).
	RequestsPerSecond float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	if l.Provider == AIProviderReplay && l.ReplayFile == "" {
		return false
	}
	return true
}

// PipelineSettings holds extraction and orchestration thresholds.
type PipelineSettings struct {
	// IntentConfidenceThreshold accepts a pattern match without asking the LLM.
	IntentConfidenceThreshold float64

	// EntityConfidenceThreshold drops LLM entities below it.
	EntityConfidenceThreshold float64

	// EntityCacheTTL bounds the vocabulary cache lifetime.
	EntityCacheTTL time.Duration

	// MaxKnowledgeItemsPerPrompt caps items embedded in answer prompts.
	MaxKnowledgeItemsPerPrompt int

	// RequestDeadline bounds one processUtterance call.
	RequestDeadline time.Duration

	// MaxHistoryTurns bounds the conversation history passed to the LLM.
	MaxHistoryTurns int

	// MaxReasoningSteps bounds deep reasoning.
	MaxReasoningSteps int

	// ContextualLimit is the top-K passages fetched from the index.
	ContextualLimit int

	// ContextualThreshold drops passages scoring below it.
	ContextualThreshold float64
}

// IndexSettings configures the inverted index.
type IndexSettings struct {
	MaxIndexSize   int
	MinTermLength  int
	EnableSynonyms bool
	EnableStemming bool
}

// VerificationSettings configures the fact verifier.
type VerificationSettings struct {
	// MinFactConfidence triggers correction substitution below it.
	MinFactConfidence float64

	// Strict treats PARTIALLY_SUPPORTED as a failure.
	Strict bool

	// Enabled turns verification on (default true).
	Enabled bool
}

// DataSettings locates the airport data store.
type DataSettings struct {
	// DataDir holds the SQLite database.
	DataDir string

	// SeedFile is an optional YAML seed loaded into the in-memory store.
	SeedFile string
}

// LogSettings configures logging.
type LogSettings struct {
	Verbose bool
	JSON    bool
}

// AppSettings holds all application settings.
type AppSettings struct {
	LLM          LLMSettings
	Pipeline     PipelineSettings
	Index        IndexSettings
	Verification VerificationSettings
	Data         DataSettings
	Log          LogSettings
}

// DefaultAppSettings returns settings with the documented defaults.
// The LLM is left unconfigured; the pipeline still answers pattern-matched
// utterances and degrades to templated answers.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			Timeout:                 10 * time.Second,
			IntentTimeout:           10 * time.Second,
			DeepReasoningTimeout:    30 * time.Second,
			MaxRetries:              2,
			UseFallbackAfterRetries: true,
		},
		Pipeline: PipelineSettings{
			IntentConfidenceThreshold:  0.7,
			EntityConfidenceThreshold:  0.6,
			EntityCacheTTL:             900 * time.Second,
			MaxKnowledgeItemsPerPrompt: 5,
			RequestDeadline:            60 * time.Second,
			MaxHistoryTurns:            6,
			MaxReasoningSteps:          5,
			ContextualLimit:            5,
			ContextualThreshold:        0.1,
		},
		Index: IndexSettings{
			MaxIndexSize:   10_000,
			MinTermLength:  2,
			EnableSynonyms: true,
			EnableStemming: true,
		},
		Verification: VerificationSettings{
			MinFactConfidence: 0.7,
			Strict:            false,
			Enabled:           true,
		},
	}
}

// Validate checks ranges of every setting.
func (s AppSettings) Validate() error {
	unit := map[string]float64{
		"pipeline.intent_confidence_threshold": s.Pipeline.IntentConfidenceThreshold,
		"pipeline.entity_confidence_threshold": s.Pipeline.EntityConfidenceThreshold,
		"verification.min_fact_confidence":     s.Verification.MinFactConfidence,
		"pipeline.contextual_threshold":        s.Pipeline.ContextualThreshold,
	}
	for key, v := range unit {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be within [0,1], got %v", ErrInvalidInput, key, v)
		}
	}
	positive := map[string]int{
		"index.max_size":                          s.Index.MaxIndexSize,
		"index.min_term_length":                   s.Index.MinTermLength,
		"pipeline.max_knowledge_items_per_prompt": s.Pipeline.MaxKnowledgeItemsPerPrompt,
	}
	for key, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidInput, key, v)
		}
	}
	if s.LLM.MaxRetries < 1 {
		return fmt.Errorf("%w: llm.max_retries must be at least 1, got %d", ErrInvalidInput, s.LLM.MaxRetries)
	}
	durations := map[string]time.Duration{
		"llm.timeout_ms":                s.LLM.Timeout,
		"llm.intent_timeout_ms":         s.LLM.IntentTimeout,
		"llm.deep_reasoning_timeout_ms": s.LLM.DeepReasoningTimeout,
		"pipeline.entity_cache_ttl_ms":  s.Pipeline.EntityCacheTTL,
	}
	for key, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidInput, key, d)
		}
	}
	if s.LLM.Provider != "" && !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unknown llm provider %q", ErrInvalidInput, s.LLM.Provider)
	}
	return nil
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
		AIProviderReplay,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-2.0-flash",
		AIProviderReplay:    "replay",
	}
}

// DefaultFallbackModels returns the fallback model for each provider.
func DefaultFallbackModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.1",
		AIProviderOpenAI:    "gpt-4o",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
		AIProviderGemini:    "gemini-1.5-flash",
		AIProviderReplay:    "replay",
	}
}
