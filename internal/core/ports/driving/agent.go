package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

// AgentService is the in-process API of the reasoning pipeline.
type AgentService interface {
	// ProcessUtterance runs the full pipeline for one user turn.
	// Only domain.ErrInvalidInput and domain.ErrInvariantViolation are returned
	// as errors; every other failure is reported through PipelineResult.Meta.
	ProcessUtterance(ctx context.Context, utterance string, opts domain.ProcessOptions) (*domain.PipelineResult, error)

	// ExtractParameters extracts structured parameters from free text,
	// validating them against schema when one is given.
	ExtractParameters(ctx context.Context, prompt string, schema []byte) (domain.ParameterExtraction, error)

	// ResolveTimeExpression resolves a time expression into a period.
	ResolveTimeExpression(ctx context.Context, expr string, opts TimeOptions) (domain.TimePeriod, error)

	// RefreshVocabulary forces a reload of the vocabulary cache.
	RefreshVocabulary(ctx context.Context) error

	// GetMetrics returns aggregate pipeline metrics.
	GetMetrics() domain.AgentMetrics

	// ResetMetrics clears aggregate pipeline metrics.
	ResetMetrics()
}

// TimeOptions controls ResolveTimeExpression.
type TimeOptions struct {
	// Reference is the instant relative expressions resolve against.
	// Zero means now.
	Reference time.Time

	// Location is the time zone of the result. Nil means the configured zone.
	Location *time.Location

	// AllowAsync lets the resolver consult the LLM when no rule matches.
	AllowAsync bool
}
