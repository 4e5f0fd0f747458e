// Package llm holds helpers shared by the LLM provider adapters.
// Each provider lives in its own subpackage.
package llm

import (
	"fmt"
	"net/http"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

// StatusError maps a provider HTTP status onto the domain error taxonomy.
// 429 becomes ErrRateLimited, 5xx and 408 become ErrProviderStatus (both
// transient); any other status is returned as a permanent error.
func StatusError(provider string, status int, detail string) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w (status %d): %s", provider, domain.ErrRateLimited, status, detail)
	case status >= 500, status == http.StatusRequestTimeout:
		return fmt.Errorf("%s: %w %d: %s", provider, domain.ErrProviderStatus, status, detail)
	default:
		return fmt.Errorf("%s: API returned status %d: %s", provider, status, detail)
	}
}

// JSONInstruction is appended to the system prompt for providers without a
// native JSON response mode.
const JSONInstruction = "Respond with a single JSON object and nothing else."

// SystemPrompt returns the system prompt, adding the JSON instruction when asked.
func SystemPrompt(system string, jsonMode bool) string {
	if !jsonMode {
		return system
	}
	if system == "" {
		return JSONInstruction
	}
	return system + "\n\n" + JSONInstruction
}
