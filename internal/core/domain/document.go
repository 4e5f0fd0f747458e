package domain

import "time"

// IndexedDocument is a knowledge passage held by the inverted index.
type IndexedDocument struct {
	// ID is the unique identifier for the document.
	ID string `json:"id"`

	// Fields holds the named text fields (e.g. "title", "content").
	Fields map[string]string `json:"fields"`

	// Terms is the tokenised, stemmed term sequence across indexed fields.
	Terms []string `json:"terms,omitempty"`

	// IndexedAt drives least-recently-indexed eviction.
	IndexedAt time.Time `json:"indexedAt"`

	// Metadata contains filterable key-value pairs (source, kind, terminal).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Content returns the "content" field, or the first non-empty field.
func (d IndexedDocument) Content() string {
	if c := d.Fields[FieldContent]; c != "" {
		return c
	}
	for _, v := range d.Fields {
		if v != "" {
			return v
		}
	}
	return ""
}

// Well-known document fields and metadata keys.
const (
	FieldTitle   = "title"
	FieldContent = "content"

	MetaSource   = "source"
	MetaKind     = "kind"
	MetaTerminal = "terminal"
	// MetaRef is the id of the record a document describes.
	MetaRef      = "ref"
)

// DocumentInput is the caller-supplied shape for AddDocument.
type DocumentInput struct {
	// ID is optional; a fresh identifier is generated when empty.
	ID string `json:"id,omitempty"`

	Fields   map[string]string `json:"fields"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PostingEntry is one document's contribution to a term's posting list.
// Weight = TermFrequency * log(N / (df + 1)).
type PostingEntry struct {
	DocumentID    string  `json:"documentId"`
	TermFrequency float64 `json:"termFrequency"`
	Weight        float64 `json:"weight"`
}

// Relationship is a typed directed edge between two entities.
type Relationship struct {
	Target string `json:"target"`
	Type   string `json:"type"`
}

// RelatedEntity is a traversal result.
type RelatedEntity struct {
	Entity string `json:"entity"`
	Type   string `json:"type"`
	Depth  int    `json:"depth"`
}

// RelatedOptions configures GetRelatedEntities.
type RelatedOptions struct {
	Types             []string
	Limit             int
	IncludeTransitive bool
	MaxDepth          int
}
