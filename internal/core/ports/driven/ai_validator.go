package driven

import "github.com/custodia-labs/airportai/internal/core/domain"

// AIConfigValidator validates LLM provider configurations.
// Implementations verify a configuration by creating the provider and pinging it.
type AIConfigValidator interface {
	// ValidateLLM validates an LLM configuration by pinging the provider.
	// Returns nil if configuration is valid or not configured.
	ValidateLLM(config *domain.LLMSettings) error
}
