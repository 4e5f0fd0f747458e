package domain

import "strings"

// ClaimType categorises a factual claim.
type ClaimType string

// Claim types.
const (
	ClaimProperty    ClaimType = "property"
	ClaimNumerical   ClaimType = "numerical"
	ClaimRelational  ClaimType = "relational"
	ClaimCategorical ClaimType = "categorical"
)

// ParseClaimType normalises an LLM label, defaulting to property.
func ParseClaimType(s string) ClaimType {
	switch ClaimType(strings.ToLower(strings.TrimSpace(s))) {
	case ClaimNumerical:
		return ClaimNumerical
	case ClaimRelational:
		return ClaimRelational
	case ClaimCategorical:
		return ClaimCategorical
	default:
		return ClaimProperty
	}
}

// Claim is a factual statement extracted from a draft response.
type Claim struct {
	Text       string    `json:"text"`
	LineNumber int       `json:"lineNumber"`
	ClaimType  ClaimType `json:"claimType"`
	// Specificity ranges 1 (vague) to 5 (precise); it weights the overall confidence.
	Specificity int `json:"specificity"`
}

// ClampSpecificity forces Specificity into [1,5].
func (c *Claim) ClampSpecificity() {
	switch {
	case c.Specificity < 1:
		c.Specificity = 1
	case c.Specificity > 5:
		c.Specificity = 5
	}
}

// VerdictStatus classifies a claim against the knowledge bundle.
type VerdictStatus string

// Verdict statuses.
const (
	VerdictSupported          VerdictStatus = "SUPPORTED"
	VerdictPartiallySupported VerdictStatus = "PARTIALLY_SUPPORTED"
	VerdictUnsupported        VerdictStatus = "UNSUPPORTED"
	VerdictContradicted       VerdictStatus = "CONTRADICTED"
)

// ParseVerdictStatus normalises an LLM label ("partially supported" etc).
func ParseVerdictStatus(s string) VerdictStatus {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch VerdictStatus(norm) {
	case VerdictSupported, VerdictPartiallySupported, VerdictContradicted:
		return VerdictStatus(norm)
	default:
		return VerdictUnsupported
	}
}

// ClaimVerdict is the verifier's judgement on one claim.
type ClaimVerdict struct {
	Claim                      Claim         `json:"claim"`
	Status                     VerdictStatus `json:"status"`
	Confidence                 float64       `json:"confidence"`
	SupportingKnowledgeIndices []int         `json:"supportingKnowledgeIndices"`
	Explanation                string        `json:"explanation"`
	SuggestedCorrection        string        `json:"suggestedCorrection,omitempty"`
}

// VerificationReport aggregates the verdicts for one response.
type VerificationReport struct {
	Verified          bool           `json:"verified"`
	Confidence        float64        `json:"confidence"`
	Claims            []ClaimVerdict `json:"claims"`
	CorrectedResponse string         `json:"correctedResponse,omitempty"`
	Strict            bool           `json:"strict"`
	// Error records a verification failure that left the response unchecked.
	Error string `json:"error,omitempty"`
}

// HasStatus reports whether any verdict has the given status.
func (r VerificationReport) HasStatus(status VerdictStatus) bool {
	for _, v := range r.Claims {
		if v.Status == status {
			return true
		}
	}
	return false
}
