// Package domain defines the core business entities for the AirportAI agent.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Utterance / ParsedQuery: a user turn and its structured interpretation
//   - Entities: typed, canonical entity values keyed by EntityType
//   - TimePeriod: a resolved time expression
//   - VocabularyEntry: airport reference data used for normalisation
//   - IndexedDocument / PostingEntry: knowledge index records
//   - KnowledgeBundle: facts and contextual passages for one request
//   - Claim / ClaimVerdict / VerificationReport: fact verification
//   - PipelineResult: the answer and its metadata
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
