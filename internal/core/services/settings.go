package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
	"github.com/custodia-labs/airportai/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider          = "llm.provider"
	keyLLMModel             = "llm.default_model"
	keyLLMFallbackModel     = "llm.fallback_model"
	keyLLMBaseURL           = "llm.base_url"
	keyLLMAPIKey            = "llm.api_key"
	keyLLMReplayFile        = "llm.replay_file"
	keyLLMTimeout           = "llm.timeout_ms"
	keyLLMIntentTimeout     = "llm.intent_timeout_ms"
	keyLLMDeepTimeout       = "llm.deep_reasoning_timeout_ms"
	keyLLMMaxRetries        = "llm.max_retries"
	keyLLMUseFallback       = "llm.use_fallback_after_retries"
	keyLLMRequestsPerSecond = "llm.requests_per_second"

	keyIntentThreshold   = "pipeline.intent_confidence_threshold"
	keyEntityThreshold   = "pipeline.entity_confidence_threshold"
	keyEntityCacheTTL    = "pipeline.entity_cache_ttl_ms"
	keyMaxItemsPerPrompt = "pipeline.max_knowledge_items_per_prompt"
	keyRequestDeadline   = "pipeline.request_deadline_ms"
	keyMaxHistoryTurns   = "pipeline.max_history_turns"
	keyMaxReasoningSteps = "pipeline.max_reasoning_steps"
	keyContextualLimit   = "pipeline.contextual_limit"
	keyContextualThresh  = "pipeline.contextual_threshold"

	keyIndexMaxSize        = "index.max_size"
	keyIndexMinTermLength  = "index.min_term_length"
	keyIndexEnableSynonyms = "index.enable_synonyms"
	keyIndexEnableStemming = "index.enable_stemming"

	keyVerifyMinConfidence = "verification.min_fact_confidence"
	keyVerifyStrict        = "verification.strict"
	keyVerifyEnabled       = "verification.enabled"

	keyDataDir  = "data.dir"
	keySeedFile = "data.seed_file"

	keyLogVerbose = "log.verbose"
	keyLogJSON    = "log.json"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	provider := s.getProvider(keyLLMProvider, d.LLM.Provider)
	settings := &domain.AppSettings{
		LLM: domain.LLMSettings{
			Provider:                provider,
			DefaultModel:            s.getString(keyLLMModel, domain.DefaultLLMModels()[provider]),
			FallbackModel:           s.getString(keyLLMFallbackModel, domain.DefaultFallbackModels()[provider]),
			BaseURL:                 s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:                  s.configStore.GetString(keyLLMAPIKey),
			ReplayFile:              s.configStore.GetString(keyLLMReplayFile),
			Timeout:                 s.getMillis(keyLLMTimeout, d.LLM.Timeout),
			IntentTimeout:           s.getMillis(keyLLMIntentTimeout, d.LLM.IntentTimeout),
			DeepReasoningTimeout:    s.getMillis(keyLLMDeepTimeout, d.LLM.DeepReasoningTimeout),
			MaxRetries:              s.getInt(keyLLMMaxRetries, d.LLM.MaxRetries),
			UseFallbackAfterRetries: s.getBool(keyLLMUseFallback, d.LLM.UseFallbackAfterRetries),
			RequestsPerSecond:       s.getFloat(keyLLMRequestsPerSecond, d.LLM.RequestsPerSecond),
		},
		Pipeline: domain.PipelineSettings{
			IntentConfidenceThreshold:  s.getFloat(keyIntentThreshold, d.Pipeline.IntentConfidenceThreshold),
			EntityConfidenceThreshold:  s.getFloat(keyEntityThreshold, d.Pipeline.EntityConfidenceThreshold),
			EntityCacheTTL:             s.getMillis(keyEntityCacheTTL, d.Pipeline.EntityCacheTTL),
			MaxKnowledgeItemsPerPrompt: s.getInt(keyMaxItemsPerPrompt, d.Pipeline.MaxKnowledgeItemsPerPrompt),
			RequestDeadline:            s.getMillis(keyRequestDeadline, d.Pipeline.RequestDeadline),
			MaxHistoryTurns:            s.getInt(keyMaxHistoryTurns, d.Pipeline.MaxHistoryTurns),
			MaxReasoningSteps:          s.getInt(keyMaxReasoningSteps, d.Pipeline.MaxReasoningSteps),
			ContextualLimit:            s.getInt(keyContextualLimit, d.Pipeline.ContextualLimit),
			ContextualThreshold:        s.getFloat(keyContextualThresh, d.Pipeline.ContextualThreshold),
		},
		Index: domain.IndexSettings{
			MaxIndexSize:   s.getInt(keyIndexMaxSize, d.Index.MaxIndexSize),
			MinTermLength:  s.getInt(keyIndexMinTermLength, d.Index.MinTermLength),
			EnableSynonyms: s.getBool(keyIndexEnableSynonyms, d.Index.EnableSynonyms),
			EnableStemming: s.getBool(keyIndexEnableStemming, d.Index.EnableStemming),
		},
		Verification: domain.VerificationSettings{
			MinFactConfidence: s.getFloat(keyVerifyMinConfidence, d.Verification.MinFactConfidence),
			Strict:            s.getBool(keyVerifyStrict, d.Verification.Strict),
			Enabled:           s.getBool(keyVerifyEnabled, d.Verification.Enabled),
		},
		Data: domain.DataSettings{
			DataDir:  s.getString(keyDataDir, d.Data.DataDir),
			SeedFile: s.getString(keySeedFile, d.Data.SeedFile),
		},
		Log: domain.LogSettings{
			Verbose: s.getBool(keyLogVerbose, d.Log.Verbose),
			JSON:    s.getBool(keyLogJSON, d.Log.JSON),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.DefaultModel},
		{keyLLMFallbackModel, settings.LLM.FallbackModel},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMReplayFile, settings.LLM.ReplayFile},
		{keyLLMTimeout, settings.LLM.Timeout.Milliseconds()},
		{keyLLMIntentTimeout, settings.LLM.IntentTimeout.Milliseconds()},
		{keyLLMDeepTimeout, settings.LLM.DeepReasoningTimeout.Milliseconds()},
		{keyLLMMaxRetries, settings.LLM.MaxRetries},
		{keyLLMUseFallback, settings.LLM.UseFallbackAfterRetries},
		{keyLLMRequestsPerSecond, settings.LLM.RequestsPerSecond},

		{keyIntentThreshold, settings.Pipeline.IntentConfidenceThreshold},
		{keyEntityThreshold, settings.Pipeline.EntityConfidenceThreshold},
		{keyEntityCacheTTL, settings.Pipeline.EntityCacheTTL.Milliseconds()},
		{keyMaxItemsPerPrompt, settings.Pipeline.MaxKnowledgeItemsPerPrompt},
		{keyRequestDeadline, settings.Pipeline.RequestDeadline.Milliseconds()},
		{keyMaxHistoryTurns, settings.Pipeline.MaxHistoryTurns},
		{keyMaxReasoningSteps, settings.Pipeline.MaxReasoningSteps},
		{keyContextualLimit, settings.Pipeline.ContextualLimit},
		{keyContextualThresh, settings.Pipeline.ContextualThreshold},

		{keyIndexMaxSize, settings.Index.MaxIndexSize},
		{keyIndexMinTermLength, settings.Index.MinTermLength},
		{keyIndexEnableSynonyms, settings.Index.EnableSynonyms},
		{keyIndexEnableStemming, settings.Index.EnableStemming},

		{keyVerifyMinConfidence, settings.Verification.MinFactConfidence},
		{keyVerifyStrict, settings.Verification.Strict},
		{keyVerifyEnabled, settings.Verification.Enabled},

		{keyDataDir, settings.Data.DataDir},
		{keySeedFile, settings.Data.SeedFile},

		{keyLogVerbose, settings.Log.Verbose},
		{keyLogJSON, settings.Log.JSON},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	return nil
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.LLM.DefaultModel = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.DefaultModel = defaultModel
	}
	if fallback, ok := domain.DefaultFallbackModels()[provider]; ok {
		settings.LLM.FallbackModel = fallback
	}

	// Set base URL based on provider type
	if provider == domain.AIProviderOllama {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else if !provider.IsLocal() {
		// Cloud providers don't need a custom base URL
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that current settings are within range.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

// getFloat accepts TOML floats and integers ("threshold = 1").
func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	raw, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal
	}
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return defaultVal
	}
}

// getMillis reads a duration stored as integer milliseconds.
func (s *SettingsService) getMillis(key string, defaultVal time.Duration) time.Duration {
	ms := s.configStore.GetInt(key)
	if ms <= 0 {
		return defaultVal
	}
	return time.Duration(ms) * time.Millisecond
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
