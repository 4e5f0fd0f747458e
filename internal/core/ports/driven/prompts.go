package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations return the embedded default
	// or an error when no default exists.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used by the capability adapter.
// Templates are Go text/template sources rendered with the call's inputs.
const (
	PromptIntentExtraction    = "intent_extraction"
	PromptParameterExtraction = "parameter_extraction"
	PromptTimeExpression      = "time_expression"
	PromptEntityRelationships = "entity_relationships"
	PromptReasoning           = "reasoning"
	PromptClaimExtraction     = "claim_extraction"
	PromptClaimVerification   = "claim_verification"
	PromptResponseCorrection  = "response_correction"
	PromptAnswerGeneration    = "answer_generation"
	PromptSystem              = "system"
)

// AllPromptNames lists every prompt the application loads.
func AllPromptNames() []string {
	return []string{
		PromptSystem,
		PromptIntentExtraction,
		PromptParameterExtraction,
		PromptTimeExpression,
		PromptEntityRelationships,
		PromptReasoning,
		PromptClaimExtraction,
		PromptClaimVerification,
		PromptResponseCorrection,
		PromptAnswerGeneration,
	}
}

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service uses its embedded defaults.
	SetPromptStore(store PromptStore)
}
