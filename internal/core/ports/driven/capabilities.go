package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

// LLMCapabilities is the structured capability set the pipeline consumes.
// Implementations own retries, fallback models, JSON decoding and token
// accounting; callers never see raw provider text.
type LLMCapabilities interface {
	// ExtractIntent classifies the utterance and extracts entities.
	// The seed entities in cc are offered to the model as pre-detected values.
	ExtractIntent(ctx context.Context, n domain.NormalizedUtterance, cc domain.ConversationContext) (IntentExtraction, error)

	// ExtractParameters extracts free-form parameters, optionally validated against a JSON schema.
	ExtractParameters(ctx context.Context, prompt string, schema []byte) (domain.ParameterExtraction, error)

	// ParseTimeExpression resolves an expression the deterministic rules could not.
	ParseTimeExpression(ctx context.Context, expr string, ref time.Time, loc *time.Location) (domain.TimePeriod, error)

	// ExtractEntityRelationships links entities mentioned in text.
	ExtractEntityRelationships(ctx context.Context, text string, entities domain.Entities) (domain.EntityRelationships, error)

	// Reason runs multi-step reasoning over the knowledge items.
	Reason(ctx context.Context, query string, knowledge []domain.KnowledgeItem, opts domain.ReasonOptions) (domain.ReasoningTrace, error)

	// ExtractClaims splits a draft response into factual claims.
	ExtractClaims(ctx context.Context, response string) ([]domain.Claim, error)

	// VerifyClaims judges each claim against numbered knowledge items.
	VerifyClaims(ctx context.Context, claims []domain.Claim, knowledge []domain.KnowledgeItem) ([]domain.ClaimVerdict, error)

	// CorrectResponse rewrites a response given contradicted claims.
	CorrectResponse(ctx context.Context, response string, corrections []domain.Correction, knowledge []domain.KnowledgeItem) (string, error)

	// GenerateAnswer writes the user-facing answer from knowledge.
	GenerateAnswer(ctx context.Context, prompt string, knowledge []domain.KnowledgeItem, opts domain.AnswerOptions) (domain.GeneratedAnswer, error)

	// Usage returns accumulated token usage.
	Usage() domain.LLMUsage
}

// IntentExtraction is the LLM view of an utterance.
type IntentExtraction struct {
	Intent     domain.Intent
	Confidence float64
	Entities   domain.Entities
	// EntityConfidence holds per-entity confidence when the model reports it.
	EntityConfidence map[domain.EntityType]float64
}
