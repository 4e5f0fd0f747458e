package domain

import "time"

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one prior utterance or assistant reply.
type ConversationTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Utterance is the free-text input for a single turn.
type Utterance struct {
	Text      string             `json:"text"`
	SessionID string             `json:"sessionId,omitempty"`
	History   []ConversationTurn `json:"history,omitempty"`
}

// BoundedHistory returns at most n of the most recent turns.
func (u Utterance) BoundedHistory(n int) []ConversationTurn {
	if n <= 0 || len(u.History) <= n {
		return u.History
	}
	return u.History[len(u.History)-n:]
}

// NormalizedUtterance is the normaliser output.
// Original is preserved verbatim; Text is whitespace-collapsed;
// Lower is the lower-cased copy used for matching.
type NormalizedUtterance struct {
	Original  string    `json:"original"`
	Text      string    `json:"text"`
	Lower     string    `json:"lower"`
	RequestID string    `json:"requestId"`
	Received  time.Time `json:"received"`
}

// PatternMatch is the pattern matcher output.
type PatternMatch struct {
	Intent         Intent  `json:"intent"`
	Confidence     float64 `json:"confidence"`
	PatternMatched bool    `json:"patternMatched"`
	Pattern        string  `json:"pattern,omitempty"`
}

// ParsedQuery is the structured interpretation of an utterance.
// It is not modified after extraction completes.
type ParsedQuery struct {
	Intent              Intent   `json:"intent"`
	Confidence          float64  `json:"confidence"`
	Entities            Entities `json:"entities"`
	OriginalUtterance   string   `json:"originalUtterance"`
	NormalizedUtterance string   `json:"normalizedUtterance"`
	RequestID           string   `json:"requestId"`
	ProcessingTimeMs    int64    `json:"processingTimeMs"`
	PatternMatched      bool     `json:"patternMatched"`
}

// UnknownQuery builds the sentinel returned when intent cannot be determined.
func UnknownQuery(n NormalizedUtterance, entities Entities) ParsedQuery {
	if entities == nil {
		entities = Entities{}
	}
	return ParsedQuery{
		Intent:              IntentUnknown,
		Confidence:          0,
		Entities:            entities,
		OriginalUtterance:   n.Original,
		NormalizedUtterance: n.Text,
		RequestID:           n.RequestID,
	}
}

// ConversationContext carries per-request context into extraction and answering.
type ConversationContext struct {
	SessionID string
	UserRole  string
	History   []ConversationTurn
	// Seed holds pre-detected entities passed to the LLM.
	Seed Entities
	// Reference is the instant relative expressions resolve against.
	Reference time.Time
}

// ProcessOptions configures a single processUtterance call.
type ProcessOptions struct {
	SessionID           string
	UserRole            string
	ConversationHistory []ConversationTurn
	// Deadline bounds the whole request; zero uses the configured default.
	Deadline time.Duration
}
