package driving

import (
	"context"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

// KnowledgeService exposes the contextual knowledge index and vocabulary.
type KnowledgeService interface {
	// Rebuild re-indexes vocabulary, maintenance and settings documents.
	Rebuild(ctx context.Context) error

	// AddDocument indexes a custom passage.
	AddDocument(doc domain.DocumentInput) (string, error)

	// RemoveDocument removes a passage.
	RemoveDocument(id string) error

	// Search queries the index.
	Search(query string, opts domain.SearchOptions) []domain.SearchResult

	// Related returns entities related to the given entity id.
	Related(entity string, opts domain.RelatedOptions) []domain.RelatedEntity

	// Stats returns index metrics.
	Stats() domain.IndexStats

	// Vocabulary returns the current vocabulary snapshot.
	Vocabulary(ctx context.Context) (*domain.VocabularySnapshot, error)
}
