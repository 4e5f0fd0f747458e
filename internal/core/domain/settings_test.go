package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultAppSettings_Valid(t *testing.T) {
	s := DefaultAppSettings()
	assert.NoError(t, s.Validate())
	assert.Equal(t, 0.7, s.Pipeline.IntentConfidenceThreshold)
	assert.Equal(t, 10_000, s.Index.MaxIndexSize)
	assert.False(t, s.LLM.IsConfigured())
}

func TestAppSettings_ValidateRanges(t *testing.T) {
	s := DefaultAppSettings()
	s.Pipeline.IntentConfidenceThreshold = 1.5
	assert.ErrorIs(t, s.Validate(), ErrInvalidInput)

	s = DefaultAppSettings()
	s.Index.MaxIndexSize = 0
	assert.ErrorIs(t, s.Validate(), ErrInvalidInput)

	s = DefaultAppSettings()
	s.LLM.Provider = "cohere"
	assert.ErrorIs(t, s.Validate(), ErrInvalidInput)
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOpenAI, APIKey: "sk"}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderReplay}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderReplay, ReplayFile: "r.json"}.IsConfigured())
}

func TestAIProvider(t *testing.T) {
	for _, p := range AllLLMProviders() {
		assert.True(t, p.IsValid())
		assert.NotEmpty(t, DefaultLLMModels()[p])
	}
	assert.True(t, AIProviderOllama.IsLocal())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
}
