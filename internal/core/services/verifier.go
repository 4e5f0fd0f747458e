package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
	"github.com/custodia-labs/airportai/internal/logger"
)

// VerifierConfig configures fact verification.
type VerifierConfig struct {
	// Strict treats PARTIALLY_SUPPORTED as a failure that needs correction.
	Strict bool
	// CallTimeout bounds each LLM call separately. Zero leaves only the
	// caller's deadline in force.
	CallTimeout time.Duration
}

// Verifier checks a draft response claim by claim against the knowledge bundle.
type Verifier struct {
	cfg VerifierConfig
	llm driven.LLMCapabilities
	log driven.Logger
}

// NewVerifier creates a verifier.
func NewVerifier(cfg VerifierConfig, llm driven.LLMCapabilities, log driven.Logger) *Verifier {
	if log == nil {
		log = logger.Nop{}
	}
	return &Verifier{cfg: cfg, llm: llm, log: log}
}

// Verify extracts claims, judges them and requests a correction when needed.
// An LLM failure yields an unverified report with Error set rather than an error.
func (v *Verifier) Verify(ctx context.Context, response string, bundle domain.KnowledgeBundle) domain.VerificationReport {
	logger.Section("Fact Verification")
	report := domain.VerificationReport{Strict: v.cfg.Strict, Claims: []domain.ClaimVerdict{}}
	if v.llm == nil {
		report.Error = domain.ErrLLMUnavailable.Error()
		return report
	}
	if strings.TrimSpace(response) == "" {
		report.Verified = true
		report.Confidence = 1
		return report
	}

	cctx, cancel := v.callContext(ctx)
	claims, err := v.llm.ExtractClaims(cctx, response)
	cancel()
	if err != nil {
		v.log.Debug("claim extraction failed, verifying whole response", "error", err)
		claims = []domain.Claim{{Text: response, LineNumber: 1, ClaimType: domain.ClaimProperty, Specificity: 3}}
	}
	if len(claims) == 0 {
		report.Verified = true
		report.Confidence = 1
		return report
	}
	for i := range claims {
		claims[i].ClampSpecificity()
	}

	items := bundle.Items(0)
	cctx, cancel = v.callContext(ctx)
	verdicts, err := v.llm.VerifyClaims(cctx, claims, items)
	cancel()
	if err != nil {
		report.Error = fmt.Sprintf("verify claims: %v", err)
		v.log.Warn("claim verification failed", "error", err)
		return report
	}
	verdicts = alignVerdicts(claims, verdicts)
	report.Claims = verdicts
	report.Verified, report.Confidence = Aggregate(verdicts, v.cfg.Strict)

	corrections := v.corrections(verdicts)
	if len(corrections) == 0 {
		return report
	}
	cctx, cancel = v.callContext(ctx)
	corrected, err := v.llm.CorrectResponse(cctx, response, corrections, items)
	cancel()
	if err != nil {
		report.Error = fmt.Sprintf("correct response: %v", err)
		v.log.Warn("response correction failed", "error", err)
		return report
	}
	report.CorrectedResponse = corrected
	return report
}

func (v *Verifier) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if v.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, v.cfg.CallTimeout)
}

// alignVerdicts pairs each claim with a verdict; missing verdicts count as unsupported.
func alignVerdicts(claims []domain.Claim, verdicts []domain.ClaimVerdict) []domain.ClaimVerdict {
	out := make([]domain.ClaimVerdict, len(claims))
	for i, c := range claims {
		if i < len(verdicts) {
			out[i] = verdicts[i]
		} else {
			out[i] = domain.ClaimVerdict{Status: domain.VerdictUnsupported, Explanation: "no verdict returned"}
		}
		out[i].Claim = c
		if out[i].Confidence < 0 {
			out[i].Confidence = 0
		} else if out[i].Confidence > 1 {
			out[i].Confidence = 1
		}
	}
	return out
}

// Aggregate computes the overall verdict and the specificity-weighted mean confidence.
// Verified requires every claim SUPPORTED or, unless strict, PARTIALLY_SUPPORTED.
func Aggregate(verdicts []domain.ClaimVerdict, strict bool) (bool, float64) {
	if len(verdicts) == 0 {
		return true, 1
	}
	verified := true
	var weighted, weights float64
	for _, vd := range verdicts {
		switch vd.Status {
		case domain.VerdictSupported:
		case domain.VerdictPartiallySupported:
			if strict {
				verified = false
			}
		default:
			verified = false
		}
		w := float64(vd.Claim.Specificity)
		if w <= 0 {
			w = 1
		}
		weighted += w * vd.Confidence
		weights += w
	}
	return verified, weighted / weights
}

func (v *Verifier) corrections(verdicts []domain.ClaimVerdict) []domain.Correction {
	var out []domain.Correction
	for _, vd := range verdicts {
		needs := vd.Status == domain.VerdictContradicted ||
			(v.cfg.Strict && vd.Status == domain.VerdictPartiallySupported)
		if !needs {
			continue
		}
		out = append(out, domain.Correction{
			Claim:               vd.Claim.Text,
			SuggestedCorrection: vd.SuggestedCorrection,
			Explanation:         vd.Explanation,
		})
	}
	return out
}
