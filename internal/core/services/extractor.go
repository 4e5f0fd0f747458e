package services

import (
	"context"
	"strings"
	"time"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
	"github.com/custodia-labs/airportai/internal/logger"
)

// ExtractorConfig holds extraction thresholds.
type ExtractorConfig struct {
	// IntentConfidenceThreshold accepts a pattern match without the LLM.
	IntentConfidenceThreshold float64

	// EntityConfidenceThreshold drops or refuses LLM entities below it.
	EntityConfidenceThreshold float64

	// IntentTimeout bounds the LLM intent call.
	IntentTimeout time.Duration
}

// Extractor turns a normalised utterance into a ParsedQuery.
type Extractor struct {
	cfg      ExtractorConfig
	patterns *PatternMatcher
	detector *EntityDetector
	times    *TimeResolver
	vocab    *VocabularyCache
	llm      driven.LLMCapabilities
	clock    driven.Clock
	log      driven.Logger
}

// NewExtractor creates an extractor. llm and vocab may be nil.
func NewExtractor(
	cfg ExtractorConfig,
	patterns *PatternMatcher,
	times *TimeResolver,
	vocab *VocabularyCache,
	llm driven.LLMCapabilities,
	clock driven.Clock,
	log driven.Logger,
) *Extractor {
	defaults := domain.DefaultAppSettings()
	if cfg.IntentConfidenceThreshold <= 0 {
		cfg.IntentConfidenceThreshold = defaults.Pipeline.IntentConfidenceThreshold
	}
	if cfg.EntityConfidenceThreshold <= 0 {
		cfg.EntityConfidenceThreshold = defaults.Pipeline.EntityConfidenceThreshold
	}
	if cfg.IntentTimeout <= 0 {
		cfg.IntentTimeout = defaults.LLM.IntentTimeout
	}
	if patterns == nil {
		patterns = NewPatternMatcher(nil)
	}
	if clock == nil {
		clock = driven.ClockFunc(time.Now)
	}
	if times == nil {
		times = NewTimeResolver(TimeResolverConfig{}, llm, clock)
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Extractor{
		cfg:      cfg,
		patterns: patterns,
		detector: NewEntityDetector(times),
		times:    times,
		vocab:    vocab,
		llm:      llm,
		clock:    clock,
		log:      log,
	}
}

// Extract classifies the utterance and extracts canonical entities.
// It never fails: when the LLM is needed but unavailable, the result is the
// unknown intent with the pre-detected entities.
func (e *Extractor) Extract(ctx context.Context, n domain.NormalizedUtterance, cc domain.ConversationContext) domain.ParsedQuery {
	start := e.clock.Now()
	ref := cc.Reference
	if ref.IsZero() {
		ref = n.Received
	}
	if ref.IsZero() {
		ref = start
	}

	seed := e.detector.Detect(n, ref)
	for t, v := range cc.Seed {
		if !seed.Has(t) {
			seed[t] = v
		}
	}

	pm := e.patterns.Match(n)
	logger.Debug("Pattern match: intent=%s confidence=%.2f matched=%v", pm.Intent, pm.Confidence, pm.PatternMatched)

	var (
		intent     domain.Intent
		confidence float64
		entities   domain.Entities
	)

	switch {
	case pm.PatternMatched && pm.Confidence >= e.cfg.IntentConfidenceThreshold:
		intent, confidence, entities = pm.Intent, pm.Confidence, seed
	case e.llm == nil:
		e.log.Debug("no LLM configured, intent unknown", "requestId", n.RequestID)
		return e.finish(domain.UnknownQuery(n, e.canonicalise(ctx, seed, ref)), start)
	default:
		llmCtx, cancel := context.WithTimeout(ctx, e.cfg.IntentTimeout)
		cc.Seed = seed
		ext, err := e.llm.ExtractIntent(llmCtx, n, cc)
		cancel()
		if err != nil {
			e.log.Warn("LLM intent extraction failed", "requestId", n.RequestID, "error", err)
			return e.finish(domain.UnknownQuery(n, e.canonicalise(ctx, seed, ref)), start)
		}
		intent = ext.Intent
		if !intent.IsValid() {
			intent = domain.IntentUnknown
		}
		confidence = ext.Confidence
		entities = e.merge(seed, ext)
	}

	entities = e.canonicalise(ctx, entities, ref)
	e.enrich(intent, n, entities, ref)

	return e.finish(domain.ParsedQuery{
		Intent:              intent,
		Confidence:          confidence,
		Entities:            entities,
		OriginalUtterance:   n.Original,
		NormalizedUtterance: n.Text,
		RequestID:           n.RequestID,
		PatternMatched:      pm.PatternMatched && intent == pm.Intent,
	}, start)
}

func (e *Extractor) finish(q domain.ParsedQuery, start time.Time) domain.ParsedQuery {
	q.ProcessingTimeMs = e.clock.Now().Sub(start).Milliseconds()
	return q
}

// merge combines pre-detected and LLM entities.
// LLM values below the entity threshold are ignored. A differing LLM value
// replaces a scalar seed; lists are unioned without duplicates.
func (e *Extractor) merge(seed domain.Entities, ext driven.IntentExtraction) domain.Entities {
	out := seed.Clone()
	for t, v := range ext.Entities {
		if !t.IsValid() || len(v.Values()) == 0 {
			continue
		}
		conf := ext.Confidence
		if c, ok := ext.EntityConfidence[t]; ok {
			conf = c
		}
		if conf < e.cfg.EntityConfidenceThreshold {
			continue
		}
		existing, ok := out[t]
		if !ok {
			out[t] = v
			continue
		}
		if existing.Kind == domain.ValueList || v.Kind == domain.ValueList {
			out[t] = unionValues(existing, v)
			continue
		}
		if !existing.Equal(v) {
			out[t] = v
		}
	}
	return out
}

func unionValues(a, b domain.EntityValue) domain.EntityValue {
	seen := make(map[string]bool)
	var items []string
	for _, v := range append(a.Values(), b.Values()...) {
		key := strings.ToUpper(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, v)
	}
	return domain.ListValue(items...)
}

// canonicalise resolves names against the vocabulary, normalises every value,
// and attaches vocabulary decoration.
func (e *Extractor) canonicalise(ctx context.Context, entities domain.Entities, ref time.Time) domain.Entities {
	snap := e.snapshot(ctx)
	out := make(domain.Entities, len(entities))
	for t, v := range entities {
		v = resolveName(snap, t, v)
		nv, ok := e.detector.Normalize(t, v, ref)
		if !ok {
			e.log.Debug("dropping entity that cannot be normalised", "type", t, "value", v.First())
			continue
		}
		if t == domain.EntityTimePeriod && nv.Period != nil && !nv.Period.IsKnown() && e.llm != nil {
			p := e.times.ResolveAsync(ctx, nv.Period.Expression, ref)
			nv = domain.PeriodValue(p)
		}
		out[t] = nv
	}
	decorate(snap, out)
	return out
}

func (e *Extractor) snapshot(ctx context.Context) *domain.VocabularySnapshot {
	if e.vocab == nil {
		return nil
	}
	snap, err := e.vocab.Get(ctx)
	if err != nil {
		e.log.Warn("vocabulary unavailable, skipping decoration", "error", err)
		return nil
	}
	return snap
}

// vocabularyKinds maps decorated entity types onto vocabulary tables.
var vocabularyKinds = map[domain.EntityType]domain.VocabularyKind{
	domain.EntityTerminal:     domain.VocabTerminal,
	domain.EntityStand:        domain.VocabStand,
	domain.EntityPier:         domain.VocabPier,
	domain.EntityAircraftType: domain.VocabAircraftType,
	domain.EntityAirline:      domain.VocabAirline,
}

// resolveName replaces display names and alternate codes with the primary code
// so that named terminals and airline names normalise correctly.
func resolveName(snap *domain.VocabularySnapshot, t domain.EntityType, v domain.EntityValue) domain.EntityValue {
	kind, ok := vocabularyKinds[t]
	if !ok || snap == nil || v.Kind != domain.ValueText {
		return v
	}
	if entry, ok := snap.Lookup(kind, v.Text); ok && entry.PrimaryCode != "" {
		return domain.TextValue(entry.PrimaryCode)
	}
	return v
}

// decorate attaches vocabulary references and infers the terminal of a stand.
func decorate(snap *domain.VocabularySnapshot, entities domain.Entities) {
	if snap == nil {
		return
	}
	for t, kind := range vocabularyKinds {
		v, ok := entities[t]
		if !ok || v.Kind != domain.ValueText {
			continue
		}
		if entry, ok := snap.Lookup(kind, v.Text); ok {
			v.Ref = entry.Ref()
			entities[t] = v
		}
	}
	if entities.Has(domain.EntityTerminal) {
		return
	}
	stand, ok := entities[domain.EntityStand]
	if !ok || stand.Ref == nil {
		return
	}
	if code := stand.Ref.Attributes["terminal"]; code != "" {
		tv := domain.TextValue(code)
		if entry, ok := snap.Lookup(domain.VocabTerminal, code); ok {
			tv.Ref = entry.Ref()
		}
		entities[domain.EntityTerminal] = tv
	}
}

// enrich fills defaults the intent implies.
func (e *Extractor) enrich(intent domain.Intent, n domain.NormalizedUtterance, entities domain.Entities, ref time.Time) {
	if intent.RequiresTimeframe() && !entities.Has(domain.EntityTimePeriod) {
		entities[domain.EntityTimePeriod] = domain.PeriodValue(e.times.Resolve("today", ref))
	}
	if intent == domain.IntentStandStatusQuery && !entities.Has(domain.EntityMaintenanceStatus) {
		if status, ok := StandStatusHint(n.Text); ok {
			entities[domain.EntityMaintenanceStatus] = domain.TextValue(status)
		}
	}
	if intent == domain.IntentCapacityQuery && !entities.Has(domain.EntityCapacityMetric) {
		entities[domain.EntityCapacityMetric] = domain.TextValue("capacity")
	}
	if entities.Has(domain.EntityFlightNumber) && !entities.Has(domain.EntityAirline) {
		entities[domain.EntityAirline] = domain.TextValue(entities.Text(domain.EntityFlightNumber)[:2])
	}
}
