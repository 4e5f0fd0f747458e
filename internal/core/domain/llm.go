package domain

// TokenUsage accumulates prompt and completion token counts.
type TokenUsage struct {
	PromptTokens     int64 `json:"promptTokens"`
	CompletionTokens int64 `json:"completionTokens"`
	TotalTokens      int64 `json:"totalTokens"`
}

// Add returns the element-wise sum.
func (u TokenUsage) Add(o TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens:     u.PromptTokens + o.PromptTokens,
		CompletionTokens: u.CompletionTokens + o.CompletionTokens,
		TotalTokens:      u.TotalTokens + o.TotalTokens,
	}
}

// Sub returns u - o, used to compute per-request deltas.
func (u TokenUsage) Sub(o TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens:     u.PromptTokens - o.PromptTokens,
		CompletionTokens: u.CompletionTokens - o.CompletionTokens,
		TotalTokens:      u.TotalTokens - o.TotalTokens,
	}
}

// LLMUsage is the capability adapter's usage report.
type LLMUsage struct {
	Total    TokenUsage            `json:"total"`
	ByModel  map[string]TokenUsage `json:"byModel"`
	Calls    int64                 `json:"calls"`
	Failures int64                 `json:"failures"`
	Retries  int64                 `json:"retries"`
	Fallback int64                 `json:"fallbackCalls"`
}

// ParameterExtraction is the result of extractParameters.
type ParameterExtraction struct {
	Parameters map[string]any `json:"parameters"`
	Confidence float64        `json:"confidence"`
	Reasoning  []string       `json:"reasoning"`
}

// EntityRelationships is the result of extractEntityRelationships.
type EntityRelationships struct {
	Relationships []EntityRelation `json:"relationships"`
	Confidence    float64          `json:"confidence"`
}

// EntityRelation links two entity values mentioned in a text.
type EntityRelation struct {
	Source   string `json:"source"`
	Relation string `json:"relation"`
	Target   string `json:"target"`
}

// ReasonOptions configures multi-step reasoning.
type ReasonOptions struct {
	MaxSteps            int
	RequireExplanations bool
	// Domain tags the system prompt (capacity, maintenance, scheduling, ...).
	Domain string
}

// AnswerOptions configures answer generation.
type AnswerOptions struct {
	Intent   Intent
	Entities Entities
	History  []ConversationTurn
	// Trace is embedded when the deep path produced one.
	Trace *ReasoningTrace
	// MaxItems caps the knowledge items embedded in the prompt.
	MaxItems int
	// IncludeSpeech asks for a short spoken variant.
	IncludeSpeech bool
}

// GeneratedAnswer is the result of generateAnswer.
type GeneratedAnswer struct {
	Text             string            `json:"text"`
	Speech           string            `json:"speech,omitempty"`
	SuggestedActions []SuggestedAction `json:"suggestedActions"`
}

// Correction is a contradicted claim and its suggested fix, used to request a rewrite.
type Correction struct {
	Claim               string `json:"claim"`
	SuggestedCorrection string `json:"suggestedCorrection"`
	Explanation         string `json:"explanation,omitempty"`
}
