package capabilities

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

type intentResponse struct {
	Intent           string                     `json:"intent"`
	Confidence       float64                    `json:"confidence"`
	Entities         map[string]json.RawMessage `json:"entities"`
	EntityConfidence map[string]float64         `json:"entityConfidence"`
}

// ExtractIntent classifies the utterance and extracts entities.
func (a *Adapter) ExtractIntent(ctx context.Context, n domain.NormalizedUtterance, cc domain.ConversationContext) (driven.IntentExtraction, error) {
	intents := make([]string, 0, len(domain.AllIntents()))
	for _, i := range domain.AllIntents() {
		intents = append(intents, string(i))
	}
	types := make([]string, 0, len(domain.AllEntityTypes()))
	for _, t := range domain.AllEntityTypes() {
		types = append(types, string(t))
	}
	ref := cc.Reference
	if ref.IsZero() {
		ref = n.Received
	}
	data := struct {
		Utterance   string
		Intents     []string
		EntityTypes []string
		Seed        string
		History     []domain.ConversationTurn
		Reference   string
	}{
		Utterance:   n.Text,
		Intents:     intents,
		EntityTypes: types,
		History:     cc.History,
		Reference:   ref.Format(time.RFC3339),
	}
	if len(cc.Seed) > 0 {
		data.Seed = compact(cc.Seed)
	}

	var resp intentResponse
	err := a.invoke(ctx, call{
		name:    "extract intent",
		prompt:  driven.PromptIntentExtraction,
		data:    data,
		timeout: a.cfg.IntentTimeout,
		check: func() error {
			if strings.TrimSpace(resp.Intent) == "" {
				return fmt.Errorf("%w: missing intent", domain.ErrMalformedResponse)
			}
			return nil
		},
	}, &resp)
	if err != nil {
		return driven.IntentExtraction{}, err
	}

	out := driven.IntentExtraction{
		Intent:           domain.ParseIntent(strings.ToLower(strings.TrimSpace(resp.Intent))),
		Confidence:       clamp01(resp.Confidence),
		Entities:         make(domain.Entities, len(resp.Entities)),
		EntityConfidence: make(map[domain.EntityType]float64, len(resp.EntityConfidence)),
	}
	for key, raw := range resp.Entities {
		t := domain.EntityType(strings.ToLower(strings.TrimSpace(key)))
		if !t.IsValid() {
			continue
		}
		var v domain.EntityValue
		if err := json.Unmarshal(raw, &v); err != nil || len(v.Values()) == 0 {
			continue
		}
		out.Entities[t] = v
	}
	for key, c := range resp.EntityConfidence {
		t := domain.EntityType(strings.ToLower(strings.TrimSpace(key)))
		if t.IsValid() {
			out.EntityConfidence[t] = clamp01(c)
		}
	}
	return out, nil
}

// ExtractParameters extracts free-form parameters. When schema is set the
// parameters must validate against it; an uncompilable schema is an
// ErrInvalidInput and no LLM call is made.
func (a *Adapter) ExtractParameters(ctx context.Context, prompt string, schema []byte) (domain.ParameterExtraction, error) {
	var validate func(map[string]any) error
	if len(schema) > 0 {
		v, err := compileSchema(schema)
		if err != nil {
			return domain.ParameterExtraction{}, err
		}
		validate = v
	}

	data := struct {
		Prompt string
		Schema string
	}{Prompt: prompt, Schema: string(schema)}

	var resp domain.ParameterExtraction
	err := a.invoke(ctx, call{
		name:    "extract parameters",
		prompt:  driven.PromptParameterExtraction,
		data:    data,
		timeout: a.cfg.Timeout,
		check: func() error {
			if resp.Parameters == nil {
				return fmt.Errorf("%w: missing parameters", domain.ErrMalformedResponse)
			}
			if validate != nil {
				return validate(resp.Parameters)
			}
			return nil
		},
	}, &resp)
	if err != nil {
		return domain.ParameterExtraction{}, err
	}
	resp.Confidence = clamp01(resp.Confidence)
	if resp.Reasoning == nil {
		resp.Reasoning = []string{}
	}
	return resp, nil
}

type periodResponse struct {
	Type           string `json:"type"`
	Start          string `json:"start"`
	End            string `json:"end"`
	DurationAmount int    `json:"durationAmount"`
	DurationUnit   string `json:"durationUnit"`
}

// ParseTimeExpression resolves an expression the deterministic rules could not.
// A response of type unknown is returned as the unknown sentinel, not an error.
func (a *Adapter) ParseTimeExpression(ctx context.Context, expr string, ref time.Time, loc *time.Location) (domain.TimePeriod, error) {
	if loc == nil {
		loc = time.UTC
	}
	data := struct {
		Expression string
		Reference  string
		Timezone   string
	}{expr, ref.In(loc).Format(time.RFC3339), loc.String()}

	var (
		resp   periodResponse
		period domain.TimePeriod
	)
	err := a.invoke(ctx, call{
		name:    "parse time expression",
		prompt:  driven.PromptTimeExpression,
		data:    data,
		timeout: a.cfg.Timeout,
		check: func() error {
			p, err := toPeriod(resp, expr, loc)
			if err != nil {
				return err
			}
			period = p
			return nil
		},
	}, &resp)
	if err != nil {
		return domain.UnknownPeriod(expr), err
	}
	return period, nil
}

func toPeriod(resp periodResponse, expr string, loc *time.Location) (domain.TimePeriod, error) {
	t := domain.PeriodType(strings.ToLower(strings.TrimSpace(resp.Type)))
	if t == "" || t == domain.PeriodUnknown {
		return domain.UnknownPeriod(expr), nil
	}
	start, err := time.Parse(time.RFC3339, resp.Start)
	if err != nil {
		return domain.TimePeriod{}, fmt.Errorf("%w: start: %v", domain.ErrMalformedResponse, err)
	}
	end, err := time.Parse(time.RFC3339, resp.End)
	if err != nil {
		return domain.TimePeriod{}, fmt.Errorf("%w: end: %v", domain.ErrMalformedResponse, err)
	}
	p := domain.TimePeriod{
		Type:           t,
		Start:          start.In(loc),
		End:            end.In(loc),
		Expression:     expr,
		DurationAmount: resp.DurationAmount,
		DurationUnit:   resp.DurationUnit,
	}
	if err := p.Validate(); err != nil {
		return domain.TimePeriod{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return p, nil
}

// ExtractEntityRelationships links entities mentioned in text.
func (a *Adapter) ExtractEntityRelationships(ctx context.Context, text string, entities domain.Entities) (domain.EntityRelationships, error) {
	data := struct {
		Text     string
		Entities string
	}{text, entities.Describe()}

	var resp domain.EntityRelationships
	if err := a.invoke(ctx, call{
		name:    "extract entity relationships",
		prompt:  driven.PromptEntityRelationships,
		data:    data,
		timeout: a.cfg.Timeout,
	}, &resp); err != nil {
		return domain.EntityRelationships{}, err
	}

	rels := make([]domain.EntityRelation, 0, len(resp.Relationships))
	for _, r := range resp.Relationships {
		if r.Source == "" || r.Target == "" {
			continue
		}
		rels = append(rels, r)
	}
	return domain.EntityRelationships{Relationships: rels, Confidence: clamp01(resp.Confidence)}, nil
}

// Reason runs multi-step reasoning over the knowledge items.
func (a *Adapter) Reason(ctx context.Context, query string, knowledge []domain.KnowledgeItem, opts domain.ReasonOptions) (domain.ReasoningTrace, error) {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 5
	}
	data := struct {
		Query               string
		Knowledge           []domain.KnowledgeItem
		MaxSteps            int
		RequireExplanations bool
		Domain              string
	}{query, knowledge, opts.MaxSteps, opts.RequireExplanations, opts.Domain}

	var trace domain.ReasoningTrace
	err := a.invoke(ctx, call{
		name:      "reason",
		prompt:    driven.PromptReasoning,
		data:      data,
		timeout:   a.cfg.DeepReasoningTimeout,
		maxTokens: 2048,
		domain:    opts.Domain,
		check: func() error {
			if strings.TrimSpace(trace.FinalAnswer) == "" {
				return fmt.Errorf("%w: missing final answer", domain.ErrMalformedResponse)
			}
			return nil
		},
	}, &trace)
	if err != nil {
		return domain.ReasoningTrace{}, err
	}

	if len(trace.Steps) > opts.MaxSteps {
		trace.Steps = trace.Steps[:opts.MaxSteps]
	}
	for i := range trace.Steps {
		trace.Steps[i].Number = i + 1
		trace.Steps[i].Confidence = clamp01(trace.Steps[i].Confidence)
	}
	if trace.Steps == nil {
		trace.Steps = []domain.ReasoningStep{}
	}
	trace.Domain = opts.Domain
	trace.Confidence = clamp01(trace.Confidence)
	return trace, nil
}

// ExtractClaims splits a draft response into factual claims.
func (a *Adapter) ExtractClaims(ctx context.Context, response string) ([]domain.Claim, error) {
	var resp struct {
		Claims []struct {
			Text        string `json:"text"`
			LineNumber  int    `json:"lineNumber"`
			ClaimType   string `json:"claimType"`
			Specificity int    `json:"specificity"`
		} `json:"claims"`
	}
	if err := a.invoke(ctx, call{
		name:    "extract claims",
		prompt:  driven.PromptClaimExtraction,
		data:    struct{ Response string }{response},
		timeout: a.cfg.Timeout,
	}, &resp); err != nil {
		return nil, err
	}

	claims := make([]domain.Claim, 0, len(resp.Claims))
	for i, c := range resp.Claims {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}
		claim := domain.Claim{
			Text:        text,
			LineNumber:  c.LineNumber,
			ClaimType:   domain.ParseClaimType(c.ClaimType),
			Specificity: c.Specificity,
		}
		if claim.LineNumber <= 0 {
			claim.LineNumber = i + 1
		}
		claim.ClampSpecificity()
		claims = append(claims, claim)
	}
	return claims, nil
}

type verdictResponse struct {
	ClaimIndex                 *int    `json:"claimIndex"`
	Status                     string  `json:"status"`
	Confidence                 float64 `json:"confidence"`
	SupportingKnowledgeIndices []int   `json:"supportingKnowledgeIndices"`
	Explanation                string  `json:"explanation"`
	SuggestedCorrection        string  `json:"suggestedCorrection"`
}

// VerifyClaims judges each claim against numbered knowledge items.
// The result has one verdict per claim, in claim order; claims the model
// skipped are UNSUPPORTED.
func (a *Adapter) VerifyClaims(ctx context.Context, claims []domain.Claim, knowledge []domain.KnowledgeItem) ([]domain.ClaimVerdict, error) {
	if len(claims) == 0 {
		return []domain.ClaimVerdict{}, nil
	}
	data := struct {
		Claims    []domain.Claim
		Knowledge []domain.KnowledgeItem
	}{claims, knowledge}

	var resp struct {
		Verdicts []verdictResponse `json:"verdicts"`
	}
	if err := a.invoke(ctx, call{
		name:      "verify claims",
		prompt:    driven.PromptClaimVerification,
		data:      data,
		timeout:   a.cfg.Timeout,
		maxTokens: 2048,
	}, &resp); err != nil {
		return nil, err
	}

	valid := make(map[int]bool, len(knowledge))
	for _, k := range knowledge {
		valid[k.Index] = true
	}

	out := make([]domain.ClaimVerdict, len(claims))
	seen := make([]bool, len(claims))
	for pos, v := range resp.Verdicts {
		idx := pos
		if v.ClaimIndex != nil {
			idx = *v.ClaimIndex
		}
		if idx < 0 || idx >= len(claims) || seen[idx] {
			continue
		}
		seen[idx] = true
		supporting := make([]int, 0, len(v.SupportingKnowledgeIndices))
		for _, k := range v.SupportingKnowledgeIndices {
			if valid[k] {
				supporting = append(supporting, k)
			}
		}
		out[idx] = domain.ClaimVerdict{
			Claim:                      claims[idx],
			Status:                     domain.ParseVerdictStatus(v.Status),
			Confidence:                 clamp01(v.Confidence),
			SupportingKnowledgeIndices: supporting,
			Explanation:                v.Explanation,
			SuggestedCorrection:        v.SuggestedCorrection,
		}
	}
	for i := range out {
		if !seen[i] {
			out[i] = domain.ClaimVerdict{
				Claim:                      claims[i],
				Status:                     domain.VerdictUnsupported,
				SupportingKnowledgeIndices: []int{},
				Explanation:                "no verdict returned",
			}
		}
	}
	return out, nil
}

// CorrectResponse rewrites a response given contradicted claims.
func (a *Adapter) CorrectResponse(ctx context.Context, response string, corrections []domain.Correction, knowledge []domain.KnowledgeItem) (string, error) {
	if len(corrections) == 0 {
		return response, nil
	}
	data := struct {
		Response    string
		Corrections []domain.Correction
		Knowledge   []domain.KnowledgeItem
	}{response, corrections, knowledge}

	var resp struct {
		CorrectedResponse string `json:"correctedResponse"`
	}
	err := a.invoke(ctx, call{
		name:    "correct response",
		prompt:  driven.PromptResponseCorrection,
		data:    data,
		timeout: a.cfg.Timeout,
		check: func() error {
			if strings.TrimSpace(resp.CorrectedResponse) == "" {
				return fmt.Errorf("%w: empty corrected response", domain.ErrMalformedResponse)
			}
			return nil
		},
	}, &resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.CorrectedResponse), nil
}

// GenerateAnswer writes the user-facing answer from knowledge.
func (a *Adapter) GenerateAnswer(ctx context.Context, prompt string, knowledge []domain.KnowledgeItem, opts domain.AnswerOptions) (domain.GeneratedAnswer, error) {
	if opts.MaxItems > 0 && len(knowledge) > opts.MaxItems {
		knowledge = knowledge[:opts.MaxItems]
	}
	data := struct {
		Utterance     string
		Intent        domain.Intent
		Entities      string
		History       []domain.ConversationTurn
		Knowledge     []domain.KnowledgeItem
		Trace         *domain.ReasoningTrace
		IncludeSpeech bool
	}{prompt, opts.Intent, opts.Entities.Describe(), opts.History, knowledge, opts.Trace, opts.IncludeSpeech}

	var answer domain.GeneratedAnswer
	err := a.invoke(ctx, call{
		name:    "generate answer",
		prompt:  driven.PromptAnswerGeneration,
		data:    data,
		timeout: a.cfg.Timeout,
		domain:  opts.Intent.ReasoningDomain(),
		check: func() error {
			if strings.TrimSpace(answer.Text) == "" {
				return fmt.Errorf("%w: empty answer", domain.ErrMalformedResponse)
			}
			return nil
		},
	}, &answer)
	if err != nil {
		return domain.GeneratedAnswer{}, err
	}

	answer.Text = strings.TrimSpace(answer.Text)
	if !opts.IncludeSpeech {
		answer.Speech = ""
	}
	actions := make([]domain.SuggestedAction, 0, len(answer.SuggestedActions))
	for _, act := range answer.SuggestedActions {
		if strings.TrimSpace(act.Label) != "" {
			actions = append(actions, act)
		}
	}
	answer.SuggestedActions = actions
	return answer, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
