package llm

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

func TestStatusError(t *testing.T) {
	assert.ErrorIs(t, StatusError("x", http.StatusTooManyRequests, ""), domain.ErrRateLimited)
	assert.ErrorIs(t, StatusError("x", http.StatusServiceUnavailable, ""), domain.ErrProviderStatus)
	assert.ErrorIs(t, StatusError("x", http.StatusRequestTimeout, ""), domain.ErrProviderStatus)

	err := StatusError("x", http.StatusUnauthorized, "bad key")
	assert.False(t, domain.IsTransient(err))
	assert.EqualError(t, err, "x: API returned status 401: bad key")
}

func TestSystemPrompt(t *testing.T) {
	assert.Equal(t, "sys", SystemPrompt("sys", false))
	assert.Equal(t, JSONInstruction, SystemPrompt("", true))
	assert.Equal(t, "sys\n\n"+JSONInstruction, SystemPrompt("sys", true))
}
