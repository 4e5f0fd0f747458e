package domain

// SearchOptions configures a knowledge index search.
type SearchOptions struct {
	// Limit is the maximum number of results (default 10).
	Limit int

	// Threshold drops hits scoring below it.
	Threshold float64

	// Metadata filters hits with AND semantics over key:value pairs.
	Metadata map[string]string

	// FuzzyMatch expands query terms with synonyms and edit-distance-1 neighbours.
	FuzzyMatch bool

	// BoostFields multiplies the contribution of terms found in the named fields.
	BoostFields map[string]float64

	// BoostTerms multiplies the contribution of specific query terms
	// (resolved entities are boosted this way).
	BoostTerms map[string]float64
}

// SearchResult represents a single search hit.
type SearchResult struct {
	// Document is the matched document.
	Document IndexedDocument `json:"document"`

	// Score is the relevance score.
	Score float64 `json:"score"`

	// MatchedTerms lists the index terms that contributed to Score.
	MatchedTerms []string `json:"matchedTerms,omitempty"`
}

// IndexStats reports index size and search activity.
type IndexStats struct {
	TotalDocuments      int     `json:"totalDocuments"`
	UniqueTerms         int     `json:"uniqueTerms"`
	AvgTermsPerDocument float64 `json:"avgTermsPerDocument"`
	SearchCount         int64   `json:"searchCount"`
	AverageSearchTimeMs float64 `json:"averageSearchTimeMs"`
	Evictions           int64   `json:"evictions"`
}
