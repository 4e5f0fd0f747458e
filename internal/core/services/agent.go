package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
	"github.com/custodia-labs/airportai/internal/core/ports/driving"
	"github.com/custodia-labs/airportai/internal/logger"
)

// Ensure AgentService implements the interface.
var _ driving.AgentService = (*AgentService)(nil)

// Pipeline stages recorded in ResultMeta.Stage.
const (
	StageParse    = "PARSE"
	StageRetrieve = "RETRIEVE"
	StageDecide   = "DECIDE"
	StageFast     = "FAST"
	StageDeep     = "DEEP"
	StageVerify   = "VERIFY"
	StageFinalize = "FINALIZE"
)

// explicitDeepRe detects users asking for explanation or analysis.
var explicitDeepRe = regexp.MustCompile(`\b(why|how (come|does|do|would|will|can|could|should)|analy[sz]e|analysis|compare|comparison|impact)\b`)

// AgentConfig configures the orchestrator.
type AgentConfig struct {
	// RequestDeadline bounds one ProcessUtterance call.
	RequestDeadline time.Duration

	// LLMTimeout bounds answer generation and verification calls.
	LLMTimeout time.Duration

	// DeepReasoningTimeout bounds the reasoning call.
	DeepReasoningTimeout time.Duration

	// MaxKnowledgeItemsPerPrompt caps knowledge in answer prompts.
	MaxKnowledgeItemsPerPrompt int

	// MaxHistoryTurns bounds conversation history.
	MaxHistoryTurns int

	// MaxReasoningSteps bounds deep reasoning.
	MaxReasoningSteps int

	// MinFactConfidence triggers correction substitution below it.
	MinFactConfidence float64

	// VerificationEnabled turns the VERIFY stage on.
	VerificationEnabled bool
}

// AgentConfigFromSettings maps application settings onto the orchestrator config.
func AgentConfigFromSettings(s domain.AppSettings) AgentConfig {
	return AgentConfig{
		RequestDeadline:            s.Pipeline.RequestDeadline,
		LLMTimeout:                 s.LLM.Timeout,
		DeepReasoningTimeout:       s.LLM.DeepReasoningTimeout,
		MaxKnowledgeItemsPerPrompt: s.Pipeline.MaxKnowledgeItemsPerPrompt,
		MaxHistoryTurns:            s.Pipeline.MaxHistoryTurns,
		MaxReasoningSteps:          s.Pipeline.MaxReasoningSteps,
		MinFactConfidence:          s.Verification.MinFactConfidence,
		VerificationEnabled:        s.Verification.Enabled,
	}
}

// AgentDeps are the collaborators of the orchestrator.
// LLM, Vocabulary, Clock and Logger may be nil.
type AgentDeps struct {
	Normalizer *Normalizer
	Extractor  *Extractor
	Retriever  *Retriever
	Verifier   *Verifier
	Actions    driving.ActionMapper
	Times      *TimeResolver
	Vocabulary *VocabularyCache
	Metrics    *Metrics
	LLM        driven.LLMCapabilities
	Clock      driven.Clock
	Logger     driven.Logger
}

// AgentService runs the reasoning pipeline:
// PARSE, RETRIEVE, DECIDE, FAST or DEEP, VERIFY, FINALIZE.
type AgentService struct {
	cfg AgentConfig
	AgentDeps
}

// NewAgentService creates the orchestrator, filling defaults for missing collaborators.
func NewAgentService(cfg AgentConfig, deps AgentDeps) *AgentService {
	defaults := AgentConfigFromSettings(domain.DefaultAppSettings())
	if cfg.RequestDeadline <= 0 {
		cfg.RequestDeadline = defaults.RequestDeadline
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = defaults.LLMTimeout
	}
	if cfg.DeepReasoningTimeout <= 0 {
		cfg.DeepReasoningTimeout = defaults.DeepReasoningTimeout
	}
	if cfg.MaxKnowledgeItemsPerPrompt <= 0 {
		cfg.MaxKnowledgeItemsPerPrompt = defaults.MaxKnowledgeItemsPerPrompt
	}
	if cfg.MaxHistoryTurns <= 0 {
		cfg.MaxHistoryTurns = defaults.MaxHistoryTurns
	}
	if cfg.MaxReasoningSteps <= 0 {
		cfg.MaxReasoningSteps = defaults.MaxReasoningSteps
	}
	if cfg.MinFactConfidence <= 0 {
		cfg.MinFactConfidence = defaults.MinFactConfidence
	}

	if deps.Clock == nil {
		deps.Clock = driven.ClockFunc(time.Now)
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop{}
	}
	if deps.Normalizer == nil {
		deps.Normalizer = NewNormalizer(deps.Clock)
	}
	if deps.Times == nil {
		deps.Times = NewTimeResolver(TimeResolverConfig{LLMTimeout: cfg.LLMTimeout}, deps.LLM, deps.Clock)
	}
	if deps.Extractor == nil {
		deps.Extractor = NewExtractor(ExtractorConfig{}, nil, deps.Times, deps.Vocabulary, deps.LLM, deps.Clock, deps.Logger)
	}
	if deps.Retriever == nil {
		deps.Retriever = NewRetriever(RetrieverConfig{}, nil, nil, deps.Logger)
	}
	if deps.Verifier == nil {
		deps.Verifier = NewVerifier(VerifierConfig{CallTimeout: cfg.LLMTimeout}, deps.LLM, deps.Logger)
	}
	if deps.Actions == nil {
		deps.Actions = NewActionMapper()
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}
	return &AgentService{cfg: cfg, AgentDeps: deps}
}

// request is the per-request state owned by the orchestrator.
type request struct {
	start  time.Time
	usage  domain.LLMUsage
	result *domain.PipelineResult
}

func (r *request) enter(stage string) {
	r.result.Meta.Stage = stage
}

// ProcessUtterance runs the full pipeline for one user turn.
// Only ErrInvalidInput and ErrInvariantViolation are returned; other failures
// yield a degraded result.
func (s *AgentService) ProcessUtterance(ctx context.Context, utterance string, opts domain.ProcessOptions) (*domain.PipelineResult, error) {
	if strings.TrimSpace(utterance) == "" {
		return nil, fmt.Errorf("%w: utterance is empty", domain.ErrInvalidInput)
	}

	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = s.cfg.RequestDeadline
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	req := &request{
		start: s.Clock.Now(),
		usage: s.llmUsage(),
		result: &domain.PipelineResult{
			Response:        domain.Response{SuggestedActions: []domain.SuggestedAction{}},
			KnowledgeBundle: domain.KnowledgeBundle{Facts: []domain.Fact{}, Contextual: []domain.Passage{}},
			Verification:    domain.VerificationReport{Claims: []domain.ClaimVerdict{}},
		},
	}

	if err := s.run(ctx, req, utterance, opts); err != nil {
		s.Metrics.Record(nil, s.Clock.Now().Sub(req.start))
		return nil, err
	}
	s.finalize(req)
	s.Metrics.Record(req.result, s.Clock.Now().Sub(req.start))
	return req.result, nil
}

func (s *AgentService) run(ctx context.Context, req *request, utterance string, opts domain.ProcessOptions) error {
	res := req.result

	// PARSE
	req.enter(StageParse)
	logger.Section("Parse")
	stageStart := s.Clock.Now()
	n := s.Normalizer.Normalize(utterance)
	history := opts.ConversationHistory
	if len(history) > s.cfg.MaxHistoryTurns {
		history = history[len(history)-s.cfg.MaxHistoryTurns:]
	}
	cc := domain.ConversationContext{
		SessionID: opts.SessionID,
		UserRole:  opts.UserRole,
		History:   history,
		Reference: n.Received,
	}
	q := s.Extractor.Extract(ctx, n, cc)
	res.Metrics.ParseMs = s.Clock.Now().Sub(stageStart).Milliseconds()
	if err := validateQuery(q); err != nil {
		return err
	}
	if ctx.Err() != nil {
		// Nothing retrieved yet: the best partial result is the unknown intent.
		q = domain.UnknownQuery(n, q.Entities)
		res.ParsedQuery = q
		res.Action = s.Actions.Map(q.Intent)
		s.degrade(req, domain.ErrDeadlineExceeded)
		res.Response = FallbackResponse(q.Intent, res.KnowledgeBundle)
		return nil
	}
	res.ParsedQuery = q
	res.Action = s.Actions.Map(q.Intent)
	s.Logger.Info("query parsed", "requestId", n.RequestID, "intent", q.Intent, "confidence", q.Confidence,
		"patternMatched", q.PatternMatched, "entities", q.Entities.Describe())

	if q.Intent == domain.IntentHelpRequest || q.Intent == domain.IntentGreeting {
		res.Meta.Path = domain.PathTemplate
		res.Meta.Verified = true
		res.Verification.Verified = true
		res.Verification.Confidence = 1
		res.Response = FallbackResponse(q.Intent, res.KnowledgeBundle)
		res.Response.SuggestedActions = helpSuggestions()
		return nil
	}

	// RETRIEVE
	req.enter(StageRetrieve)
	stageStart = s.Clock.Now()
	bundle := s.Retriever.Retrieve(ctx, q)
	res.KnowledgeBundle = bundle
	res.Metrics.RetrieveMs = s.Clock.Now().Sub(stageStart).Milliseconds()
	res.Metrics.FactCount = len(bundle.Facts)
	res.Metrics.PassageCount = len(bundle.Contextual)
	if ctx.Err() != nil {
		s.fallback(req, domain.ErrDeadlineExceeded)
		return nil
	}

	// DECIDE
	req.enter(StageDecide)
	if s.LLM == nil {
		s.fallback(req, domain.ErrLLMUnavailable)
		return nil
	}
	deep := s.decideDeep(q, n, bundle)
	logger.Debug("Path decision: deep=%v facts=%d", deep, len(bundle.Facts))

	stageStart = s.Clock.Now()
	var (
		answer domain.GeneratedAnswer
		err    error
	)
	if deep {
		req.enter(StageDeep)
		answer, err = s.deepPath(ctx, req, n, q, bundle, history)
	} else {
		req.enter(StageFast)
		answer, err = s.fastPath(ctx, n, q, bundle, history, nil)
		res.Meta.Path = domain.PathFast
	}
	res.Metrics.ReasonMs = s.Clock.Now().Sub(stageStart).Milliseconds()
	if err != nil {
		s.Logger.Warn("answer generation failed", "requestId", n.RequestID, "error", err)
		s.fallback(req, stageError(ctx, err))
		return nil
	}
	res.Response = domain.Response{
		Text:             answer.Text,
		Speech:           answer.Speech,
		SuggestedActions: answer.SuggestedActions,
		Visualizations:   visualizationsFor(q, bundle),
	}
	if res.Response.SuggestedActions == nil {
		res.Response.SuggestedActions = []domain.SuggestedAction{}
	}

	// VERIFY
	if !s.cfg.VerificationEnabled {
		res.Meta.Verified = true
		res.Verification.Verified = true
		res.Verification.Confidence = 1
		return nil
	}
	req.enter(StageVerify)
	stageStart = s.Clock.Now()
	report := s.Verifier.Verify(ctx, answer.Text, bundle)
	res.Metrics.VerifyMs = s.Clock.Now().Sub(stageStart).Milliseconds()
	res.Verification = report
	res.Meta.Verified = report.Verified

	if report.CorrectedResponse != "" &&
		report.Confidence < s.cfg.MinFactConfidence &&
		report.HasStatus(domain.VerdictContradicted) {
		s.Logger.Info("substituting corrected response", "requestId", n.RequestID, "confidence", report.Confidence)
		res.Response.Text = report.CorrectedResponse
		res.Response.Speech = ""
	}
	if report.Error != "" && ctx.Err() != nil {
		res.Meta.Degraded = true
		res.Meta.Error = domain.ErrDeadlineExceeded.Error()
	}
	return nil
}

// decideDeep picks the deep path for analysis intents, thin factual evidence,
// or explicit requests for explanation.
func (s *AgentService) decideDeep(q domain.ParsedQuery, n domain.NormalizedUtterance, bundle domain.KnowledgeBundle) bool {
	if q.Intent.PrefersDeepReasoning() {
		return true
	}
	if len(bundle.Facts) < 2 && q.Intent.IsFactual() {
		return true
	}
	return explicitDeepRe.MatchString(n.Lower)
}

func (s *AgentService) fastPath(
	ctx context.Context,
	n domain.NormalizedUtterance,
	q domain.ParsedQuery,
	bundle domain.KnowledgeBundle,
	history []domain.ConversationTurn,
	trace *domain.ReasoningTrace,
) (domain.GeneratedAnswer, error) {
	items := bundle.Items(s.cfg.MaxKnowledgeItemsPerPrompt)
	actx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout)
	defer cancel()
	return s.LLM.GenerateAnswer(actx, n.Text, items, domain.AnswerOptions{
		Intent:        q.Intent,
		Entities:      q.Entities,
		History:       history,
		Trace:         trace,
		MaxItems:      s.cfg.MaxKnowledgeItemsPerPrompt,
		IncludeSpeech: true,
	})
}

// deepPath reasons over the full bundle, then writes the answer from the trace.
// When reasoning fails it falls back to the fast path without a trace.
func (s *AgentService) deepPath(
	ctx context.Context,
	req *request,
	n domain.NormalizedUtterance,
	q domain.ParsedQuery,
	bundle domain.KnowledgeBundle,
	history []domain.ConversationTurn,
) (domain.GeneratedAnswer, error) {
	rctx, cancel := context.WithTimeout(ctx, s.cfg.DeepReasoningTimeout)
	trace, err := s.LLM.Reason(rctx, n.Text, bundle.Items(0), domain.ReasonOptions{
		MaxSteps:            s.cfg.MaxReasoningSteps,
		RequireExplanations: true,
		Domain:              q.Intent.ReasoningDomain(),
	})
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return domain.GeneratedAnswer{}, err
		}
		s.Logger.Warn("deep reasoning failed, using fast path", "requestId", n.RequestID, "error", err)
		req.result.Meta.Path = domain.PathFast
		return s.fastPath(ctx, n, q, bundle, history, nil)
	}
	if trace.Domain == "" {
		trace.Domain = q.Intent.ReasoningDomain()
	}
	req.result.Meta.Path = domain.PathDeep
	req.result.ReasoningTrace = &trace
	return s.fastPath(ctx, n, q, bundle, history, &trace)
}

// fallback replaces the response with the intent's templated answer.
func (s *AgentService) fallback(req *request, cause error) {
	res := req.result
	s.degrade(req, cause)
	res.Response = FallbackResponse(res.ParsedQuery.Intent, res.KnowledgeBundle)
	res.Meta.Path = domain.PathTemplate
	res.ReasoningTrace = nil
}

func (s *AgentService) degrade(req *request, cause error) {
	res := req.result
	res.Meta.Degraded = true
	res.Meta.IsFallback = true
	res.Meta.Verified = false
	res.Meta.Error = cause.Error()
}

// stageError maps an LLM failure to the error recorded in the result meta.
func stageError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrDeadlineExceeded
	}
	return err
}

func (s *AgentService) finalize(req *request) {
	res := req.result
	if res.Meta.Path != domain.PathDeep {
		res.ReasoningTrace = nil
	}
	res.Meta.Stage = StageFinalize
	res.Metrics.TotalMs = s.Clock.Now().Sub(req.start).Milliseconds()
	after := s.llmUsage()
	res.Metrics.LLMCalls = int(after.Calls - req.usage.Calls)
	res.Metrics.TokenUsage = after.Total.Sub(req.usage.Total)
}

func (s *AgentService) llmUsage() domain.LLMUsage {
	if s.LLM == nil {
		return domain.LLMUsage{}
	}
	return s.LLM.Usage()
}

// validateQuery enforces invariants on the parsed query.
func validateQuery(q domain.ParsedQuery) error {
	if !q.Intent.IsValid() {
		return fmt.Errorf("%w: intent %q", domain.ErrInvariantViolation, q.Intent)
	}
	for _, v := range q.Entities {
		if v.Period != nil {
			if err := v.Period.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func helpSuggestions() []domain.SuggestedAction {
	return []domain.SuggestedAction{
		{Label: "Check stand availability", Capability: "stand.status"},
		{Label: "Show today's capacity", Capability: "capacity.query"},
		{Label: "List upcoming maintenance", Capability: "maintenance.query"},
	}
}

func visualizationsFor(q domain.ParsedQuery, bundle domain.KnowledgeBundle) []domain.Visualization {
	if q.Intent != domain.IntentVisualization {
		return nil
	}
	kind := q.Entities.Text(domain.EntityVisualizationType)
	if kind == "" {
		kind = "chart"
	}
	return []domain.Visualization{{
		Type:  kind,
		Title: q.NormalizedUtterance,
		Data:  map[string]any{"facts": bundle.Facts},
	}}
}

// ExtractParameters extracts structured parameters from free text.
// Only an empty prompt or an unusable schema is reported as an error.
func (s *AgentService) ExtractParameters(ctx context.Context, prompt string, schema []byte) (domain.ParameterExtraction, error) {
	if strings.TrimSpace(prompt) == "" {
		return domain.ParameterExtraction{}, fmt.Errorf("%w: prompt is empty", domain.ErrInvalidInput)
	}
	empty := domain.ParameterExtraction{Parameters: map[string]any{}, Reasoning: []string{}}
	if s.LLM == nil {
		empty.Reasoning = append(empty.Reasoning, domain.ErrLLMUnavailable.Error())
		return empty, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout)
	defer cancel()
	out, err := s.LLM.ExtractParameters(ctx, prompt, schema)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return domain.ParameterExtraction{}, err
		}
		s.Logger.Warn("parameter extraction failed", "error", err)
		empty.Reasoning = append(empty.Reasoning, err.Error())
		return empty, nil
	}
	return out, nil
}

// ResolveTimeExpression resolves an expression against opts.Reference (default now).
func (s *AgentService) ResolveTimeExpression(ctx context.Context, expr string, opts driving.TimeOptions) (domain.TimePeriod, error) {
	if strings.TrimSpace(expr) == "" {
		return domain.TimePeriod{}, fmt.Errorf("%w: expression is empty", domain.ErrInvalidInput)
	}
	resolver := s.Times
	if opts.Location != nil && opts.Location != resolver.Location() {
		resolver = NewTimeResolver(TimeResolverConfig{Location: opts.Location, LLMTimeout: s.cfg.LLMTimeout}, s.LLM, s.Clock)
	}
	ref := opts.Reference
	if ref.IsZero() {
		ref = s.Clock.Now()
	}

	var p domain.TimePeriod
	if opts.AllowAsync {
		p = resolver.ResolveAsync(ctx, expr, ref)
	} else {
		p = resolver.Resolve(expr, ref)
	}
	if err := p.Validate(); err != nil {
		return domain.TimePeriod{}, err
	}
	return p, nil
}

// RefreshVocabulary forces a reload of the vocabulary cache.
func (s *AgentService) RefreshVocabulary(ctx context.Context) error {
	if s.Vocabulary == nil {
		return domain.ErrPortUnavailable
	}
	return s.Vocabulary.Refresh(ctx)
}

// GetMetrics returns aggregate pipeline metrics with adapter token totals.
func (s *AgentService) GetMetrics() domain.AgentMetrics {
	m := s.Metrics.Snapshot()
	if s.LLM != nil {
		m.LLMTokens = s.LLM.Usage().Total
	}
	return m
}

// ResetMetrics clears aggregate pipeline metrics.
func (s *AgentService) ResetMetrics() {
	s.Metrics.Reset()
}
