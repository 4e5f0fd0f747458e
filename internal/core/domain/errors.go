package domain

import (
	"context"
	"errors"
)

// Domain errors represent pipeline failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates an empty or otherwise unusable utterance.
	// It is one of the two errors surfaced across the public API.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvariantViolation indicates an internal consistency failure.
	// It is fatal and surfaced to the caller.
	ErrInvariantViolation = errors.New("internal invariant violation")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Intent extraction falls back to the pattern matcher only.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrMalformedResponse indicates the LLM returned text that could not be
	// decoded as the requested JSON structure. It is retryable.
	ErrMalformedResponse = errors.New("malformed LLM response")

	// ErrSchemaValidation indicates structured output failed schema validation.
	ErrSchemaValidation = errors.New("schema validation failed")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderStatus indicates a provider returned a non-success status.
	ErrProviderStatus = errors.New("provider error status")

	// ErrRetriesExhausted indicates every attempt, including the fallback model, failed.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrDeadlineExceeded indicates the request deadline elapsed mid-pipeline.
	ErrDeadlineExceeded = errors.New("deadline exceeded")

	// ErrPortUnavailable indicates a domain data port is not configured.
	ErrPortUnavailable = errors.New("data port unavailable")

	// ErrIndexUnavailable indicates the knowledge index is not configured.
	ErrIndexUnavailable = errors.New("knowledge index unavailable")

	// ErrNoReplay indicates the replay provider has no canned response for a request.
	ErrNoReplay = errors.New("no recorded response")
)

// IsTransient reports whether err is worth retrying against the LLM.
// Timeouts, malformed JSON, rate limiting and provider status errors are transient;
// cancellation by the caller is not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrMalformedResponse) ||
		errors.Is(err, ErrSchemaValidation) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrProviderStatus)
}
