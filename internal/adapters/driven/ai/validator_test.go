package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

func TestNewConfigValidator(t *testing.T) {
	validator := NewConfigValidator()

	require.NotNil(t, validator)
}

func TestConfigValidator_ImplementsInterface(t *testing.T) {
	var _ driven.AIConfigValidator = (*ConfigValidator)(nil)
}

func TestConfigValidator_ValidateLLM_NilConfig(t *testing.T) {
	validator := NewConfigValidator()

	err := validator.ValidateLLM(nil)

	assert.NoError(t, err)
}

func TestConfigValidator_ValidateLLM_UnconfiguredProvider(t *testing.T) {
	validator := NewConfigValidator()
	config := &domain.LLMSettings{
		Provider:     "",
		DefaultModel: "test-model",
	}

	err := validator.ValidateLLM(config)

	assert.NoError(t, err)
}

func TestConfigValidator_ValidateLLM_MissingReplayFile(t *testing.T) {
	validator := NewConfigValidator()
	config := &domain.LLMSettings{
		Provider:   domain.AIProviderReplay,
		ReplayFile: "/nonexistent/fixture.json",
	}

	err := validator.ValidateLLM(config)

	assert.ErrorContains(t, err, "read replay fixture")
}
