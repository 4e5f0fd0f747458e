package driven

import (
	"github.com/custodia-labs/airportai/internal/core/domain"
)

// KnowledgeIndex is the in-memory inverted index of contextual passages.
// All operations are CPU-only; writes are linearisable and each Search sees a
// consistent snapshot.
type KnowledgeIndex interface {
	// AddDocument indexes a document and returns its id.
	// Re-adding an existing id replaces its postings.
	AddDocument(doc domain.DocumentInput) (string, error)

	// UpdateDocument replaces the document with the given id.
	UpdateDocument(id string, doc domain.DocumentInput) error

	// RemoveDocument deletes a document from every posting list and metadata set.
	RemoveDocument(id string) error

	// GetDocument returns an indexed document.
	GetDocument(id string) (domain.IndexedDocument, bool)

	// Search returns documents ranked by score, highest first.
	Search(query string, opts domain.SearchOptions) []domain.SearchResult

	// AddTermSynonyms registers bidirectional synonyms.
	AddTermSynonyms(term string, synonyms []string)

	// TermSynonyms returns the synonyms of a term.
	TermSynonyms(term string) []string

	// AddEntityRelationships registers outgoing edges of an entity.
	AddEntityRelationships(entity string, relations []domain.Relationship)

	// RelatedEntities traverses relationships breadth-first.
	RelatedEntities(entity string, opts domain.RelatedOptions) []domain.RelatedEntity

	// Stats returns index metrics.
	Stats() domain.IndexStats

	// Reset drops every document, synonym and relationship.
	Reset()
}
