package domain

// Action names the downstream capability the response maps to.
type Action struct {
	Capability       string `json:"capability"`
	RequiresApproval bool   `json:"requiresApproval"`
	AllowVoice       bool   `json:"allowVoice"`
	AllowAutonomous  bool   `json:"allowAutonomous"`
}

// SuggestedAction is a follow-up the user can take.
type SuggestedAction struct {
	Label      string         `json:"label"`
	Capability string         `json:"capability,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Visualization describes a chart the caller may render.
type Visualization struct {
	Type  string         `json:"type"`
	Title string         `json:"title,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// Response is the user-facing answer.
type Response struct {
	Text             string            `json:"text"`
	Speech           string            `json:"speech,omitempty"`
	SuggestedActions []SuggestedAction `json:"suggestedActions"`
	Visualizations   []Visualization   `json:"visualizations,omitempty"`
}

// ReasoningStep is one step of a deep-path trace.
type ReasoningStep struct {
	Number      int     `json:"number"`
	Description string  `json:"description"`
	Conclusion  string  `json:"conclusion"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// ReasoningTrace is returned when the deep path was taken.
type ReasoningTrace struct {
	Domain      string          `json:"domain"`
	Steps       []ReasoningStep `json:"steps"`
	FinalAnswer string          `json:"finalAnswer"`
	Confidence  float64         `json:"confidence"`
	Limitations []string        `json:"limitations,omitempty"`
}

// Path names the orchestrator branch taken.
type Path string

// Execution paths.
const (
	PathFast     Path = "fast"
	PathDeep     Path = "deep"
	PathTemplate Path = "template"
)

// ResultMeta carries degradation and verification flags.
type ResultMeta struct {
	Error      string `json:"error,omitempty"`
	Degraded   bool   `json:"degraded"`
	Verified   bool   `json:"verified"`
	IsFallback bool   `json:"isFallback"`
	Path       Path   `json:"path"`
	// Stage is the last state the pipeline reached.
	Stage string `json:"stage"`
}

// ResultMetrics records per-request timings and token usage.
type ResultMetrics struct {
	TotalMs      int64      `json:"totalMs"`
	ParseMs      int64      `json:"parseMs"`
	RetrieveMs   int64      `json:"retrieveMs"`
	ReasonMs     int64      `json:"reasonMs"`
	VerifyMs     int64      `json:"verifyMs"`
	LLMCalls     int        `json:"llmCalls"`
	TokenUsage   TokenUsage `json:"tokenUsage"`
	FactCount    int        `json:"factCount"`
	PassageCount int        `json:"passageCount"`
}

// PipelineResult is the output of processUtterance.
type PipelineResult struct {
	Response        Response           `json:"response"`
	ParsedQuery     ParsedQuery        `json:"parsedQuery"`
	KnowledgeBundle KnowledgeBundle    `json:"knowledgeBundle"`
	ReasoningTrace  *ReasoningTrace    `json:"reasoningTrace,omitempty"`
	Verification    VerificationReport `json:"verification"`
	Action          Action             `json:"action"`
	Meta            ResultMeta         `json:"meta"`
	Metrics         ResultMetrics      `json:"metrics"`
}

// IntentCount is one entry of the top-intents metric.
type IntentCount struct {
	Intent Intent `json:"intent"`
	Count  int64  `json:"count"`
}

// AgentMetrics is the process-wide pipeline metrics snapshot.
type AgentMetrics struct {
	TotalProcessed       int64         `json:"totalProcessed"`
	SuccessCount         int64         `json:"successCount"`
	FailureCount         int64         `json:"failureCount"`
	DegradedCount        int64         `json:"degradedCount"`
	VerificationFailures int64         `json:"verificationFailures"`
	FastPathCount        int64         `json:"fastPathCount"`
	DeepPathCount        int64         `json:"deepPathCount"`
	AvgLatencyMs         float64       `json:"avgLatencyMs"`
	TopIntents           []IntentCount `json:"topIntents"`
	LLMTokens            TokenUsage    `json:"llmTokens"`
}
