package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

// refTime is the fixed instant tests resolve against: Monday 2024-06-10 08:30 UTC.
var refTime = time.Date(2024, 6, 10, 8, 30, 0, 0, time.UTC)

func fixedClock(t time.Time) driven.Clock {
	return driven.ClockFunc(func() time.Time { return t })
}

// Mock AirportData for testing.
type mockAirportData struct {
	terminals   []domain.Terminal
	piers       []domain.Pier
	stands      []domain.Stand
	aircraft    []domain.AircraftType
	airlines    []domain.Airline
	utilization []domain.StandUtilization
	maintenance []domain.MaintenanceRequest
	flights     []domain.Flight
	settings    domain.OperationalSettings

	// errs fails the named method ("ListStands", "GetFlights", ...).
	errs map[string]error
	// block makes the named method wait for ctx cancellation.
	block map[string]bool

	calls sync.Map
	lists atomic.Int64
}

func newMockAirportData() *mockAirportData {
	return &mockAirportData{
		terminals: []domain.Terminal{
			{ID: "term-1", Code: "T1", Name: "North Terminal", Operating: true},
			{ID: "term-2", Code: "T2", Name: "South Terminal", AltCodes: []string{"S"}, Operating: true},
		},
		piers: []domain.Pier{
			{ID: "pier-a", Code: "A", Name: "Pier A", TerminalID: "term-1"},
			{ID: "pier-b", Code: "B", Name: "Pier B", TerminalID: "term-2"},
		},
		stands: []domain.Stand{
			{ID: "stand-a1", Code: "A1", Name: "Stand A1", TerminalID: "term-1", PierID: "pier-a",
				Status: domain.StandAvailable, SizeCategory: "C", Contact: true, Active: true},
			{ID: "stand-a2", Code: "A2", Name: "Stand A2", TerminalID: "term-1", PierID: "pier-a",
				Status: domain.StandMaintenance, SizeCategory: "E", Contact: true, Active: true},
			{ID: "stand-12a", Code: "12A", Name: "Stand 12A", TerminalID: "term-2", PierID: "pier-b",
				Status: domain.StandOccupied, SizeCategory: "C", Active: true},
		},
		aircraft: []domain.AircraftType{
			{ID: "ac-b737", Code: "B737", ICAOCode: "B738", Name: "Boeing 737", Manufacturer: "Boeing",
				SizeCategory: "C", BodyType: "narrow_body"},
		},
		airlines: []domain.Airline{
			{ID: "al-ba", IATACode: "BA", ICAOCode: "BAW", Name: "British Airways", Active: true},
		},
		maintenance: []domain.MaintenanceRequest{
			{ID: "mr-1", StandID: "stand-a2", Title: "Resurfacing", Status: domain.MaintenanceInProgress,
				Start: refTime.Add(-time.Hour), End: refTime.Add(5 * time.Hour)},
		},
		utilization: []domain.StandUtilization{
			{StandID: "stand-a1", PeriodStart: refTime, PeriodEnd: refTime.Add(time.Hour), OccupiedMinutes: 30, Rate: 0.5},
		},
		settings: domain.OperationalSettings{
			DefaultTurnaroundMinutes: 45, BufferMinutes: 10,
			OperatingStart: "05:00", OperatingEnd: "23:00", TimeZone: "UTC",
		},
	}
}

func (m *mockAirportData) enter(ctx context.Context, method string) error {
	n, _ := m.calls.LoadOrStore(method, new(atomic.Int64))
	n.(*atomic.Int64).Add(1)
	if m.block[method] {
		<-ctx.Done()
		return ctx.Err()
	}
	return m.errs[method]
}

func (m *mockAirportData) callCount(method string) int64 {
	n, ok := m.calls.Load(method)
	if !ok {
		return 0
	}
	return n.(*atomic.Int64).Load()
}

func (m *mockAirportData) ListTerminals(ctx context.Context) ([]domain.Terminal, error) {
	if err := m.enter(ctx, "ListTerminals"); err != nil {
		return nil, err
	}
	return m.terminals, nil
}

func (m *mockAirportData) ListPiers(ctx context.Context) ([]domain.Pier, error) {
	if err := m.enter(ctx, "ListPiers"); err != nil {
		return nil, err
	}
	return m.piers, nil
}

func (m *mockAirportData) ListStands(ctx context.Context) ([]domain.Stand, error) {
	if err := m.enter(ctx, "ListStands"); err != nil {
		return nil, err
	}
	return m.stands, nil
}

func (m *mockAirportData) ListAircraftTypes(ctx context.Context) ([]domain.AircraftType, error) {
	if err := m.enter(ctx, "ListAircraftTypes"); err != nil {
		return nil, err
	}
	return m.aircraft, nil
}

func (m *mockAirportData) ListAirlines(ctx context.Context) ([]domain.Airline, error) {
	if err := m.enter(ctx, "ListAirlines"); err != nil {
		return nil, err
	}
	return m.airlines, nil
}

func (m *mockAirportData) GetStandUtilization(ctx context.Context, _ []string, _ *domain.TimePeriod) ([]domain.StandUtilization, error) {
	if err := m.enter(ctx, "GetStandUtilization"); err != nil {
		return nil, err
	}
	return m.utilization, nil
}

func (m *mockAirportData) GetUpcomingMaintenance(ctx context.Context, f domain.MaintenanceFilter) ([]domain.MaintenanceRequest, error) {
	if err := m.enter(ctx, "GetUpcomingMaintenance"); err != nil {
		return nil, err
	}
	var out []domain.MaintenanceRequest
	for _, r := range m.maintenance {
		if len(f.StandIDs) > 0 && !containsFold(f.StandIDs, r.StandID) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockAirportData) GetFlights(ctx context.Context, _ domain.FlightFilter) ([]domain.Flight, error) {
	if err := m.enter(ctx, "GetFlights"); err != nil {
		return nil, err
	}
	return m.flights, nil
}

func (m *mockAirportData) GetOperationalSettings(ctx context.Context) (domain.OperationalSettings, error) {
	if err := m.enter(ctx, "GetOperationalSettings"); err != nil {
		return domain.OperationalSettings{}, err
	}
	return m.settings, nil
}

// Mock LLMCapabilities for testing. Nil hooks fail with ErrLLMUnavailable.
type mockLLM struct {
	extractIntent  func(domain.NormalizedUtterance, domain.ConversationContext) (driven.IntentExtraction, error)
	extractParams  func(string, []byte) (domain.ParameterExtraction, error)
	parseTime      func(string, time.Time) (domain.TimePeriod, error)
	reason         func(context.Context, string, []domain.KnowledgeItem, domain.ReasonOptions) (domain.ReasoningTrace, error)
	extractClaims  func(string) ([]domain.Claim, error)
	verifyClaims   func([]domain.Claim, []domain.KnowledgeItem) ([]domain.ClaimVerdict, error)
	correct        func(string, []domain.Correction) (string, error)
	generateAnswer func(context.Context, string, []domain.KnowledgeItem, domain.AnswerOptions) (domain.GeneratedAnswer, error)

	calls  atomic.Int64
	mu     sync.Mutex
	called []string
	tokens int64
}

func (m *mockLLM) record(name string) {
	m.calls.Add(1)
	m.mu.Lock()
	m.called = append(m.called, name)
	m.tokens += 10
	m.mu.Unlock()
}

func (m *mockLLM) methods() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.called...)
}

func (m *mockLLM) ExtractIntent(_ context.Context, n domain.NormalizedUtterance, cc domain.ConversationContext) (driven.IntentExtraction, error) {
	m.record("ExtractIntent")
	if m.extractIntent == nil {
		return driven.IntentExtraction{}, domain.ErrLLMUnavailable
	}
	return m.extractIntent(n, cc)
}

func (m *mockLLM) ExtractParameters(_ context.Context, prompt string, schema []byte) (domain.ParameterExtraction, error) {
	m.record("ExtractParameters")
	if m.extractParams == nil {
		return domain.ParameterExtraction{}, domain.ErrLLMUnavailable
	}
	return m.extractParams(prompt, schema)
}

func (m *mockLLM) ParseTimeExpression(_ context.Context, expr string, ref time.Time, _ *time.Location) (domain.TimePeriod, error) {
	m.record("ParseTimeExpression")
	if m.parseTime == nil {
		return domain.TimePeriod{}, domain.ErrLLMUnavailable
	}
	return m.parseTime(expr, ref)
}

func (m *mockLLM) ExtractEntityRelationships(_ context.Context, _ string, _ domain.Entities) (domain.EntityRelationships, error) {
	m.record("ExtractEntityRelationships")
	return domain.EntityRelationships{}, domain.ErrLLMUnavailable
}

func (m *mockLLM) Reason(ctx context.Context, query string, items []domain.KnowledgeItem, opts domain.ReasonOptions) (domain.ReasoningTrace, error) {
	m.record("Reason")
	if m.reason == nil {
		return domain.ReasoningTrace{}, domain.ErrLLMUnavailable
	}
	return m.reason(ctx, query, items, opts)
}

func (m *mockLLM) ExtractClaims(_ context.Context, response string) ([]domain.Claim, error) {
	m.record("ExtractClaims")
	if m.extractClaims == nil {
		return nil, domain.ErrLLMUnavailable
	}
	return m.extractClaims(response)
}

func (m *mockLLM) VerifyClaims(_ context.Context, claims []domain.Claim, items []domain.KnowledgeItem) ([]domain.ClaimVerdict, error) {
	m.record("VerifyClaims")
	if m.verifyClaims == nil {
		return nil, domain.ErrLLMUnavailable
	}
	return m.verifyClaims(claims, items)
}

func (m *mockLLM) CorrectResponse(_ context.Context, response string, corrections []domain.Correction, _ []domain.KnowledgeItem) (string, error) {
	m.record("CorrectResponse")
	if m.correct == nil {
		return "", domain.ErrLLMUnavailable
	}
	return m.correct(response, corrections)
}

func (m *mockLLM) GenerateAnswer(ctx context.Context, prompt string, items []domain.KnowledgeItem, opts domain.AnswerOptions) (domain.GeneratedAnswer, error) {
	m.record("GenerateAnswer")
	if m.generateAnswer == nil {
		return domain.GeneratedAnswer{}, domain.ErrLLMUnavailable
	}
	return m.generateAnswer(ctx, prompt, items, opts)
}

func (m *mockLLM) Usage() domain.LLMUsage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.LLMUsage{
		Total: domain.TokenUsage{TotalTokens: m.tokens},
		Calls: m.calls.Load(),
	}
}

// supportingLLM answers and verifies every claim as supported.
func supportingLLM(answer string) *mockLLM {
	return &mockLLM{
		generateAnswer: func(context.Context, string, []domain.KnowledgeItem, domain.AnswerOptions) (domain.GeneratedAnswer, error) {
			return domain.GeneratedAnswer{Text: answer, Speech: answer}, nil
		},
		reason: func(_ context.Context, _ string, _ []domain.KnowledgeItem, opts domain.ReasonOptions) (domain.ReasoningTrace, error) {
			return domain.ReasoningTrace{
				Steps:       []domain.ReasoningStep{{Number: 1, Description: "check facts", Conclusion: "ok"}},
				FinalAnswer: answer,
				Confidence:  0.8,
			}, nil
		},
		extractClaims: func(response string) ([]domain.Claim, error) {
			return []domain.Claim{{Text: response, Specificity: 4}}, nil
		},
		verifyClaims: func(claims []domain.Claim, _ []domain.KnowledgeItem) ([]domain.ClaimVerdict, error) {
			out := make([]domain.ClaimVerdict, len(claims))
			for i := range claims {
				out[i] = domain.ClaimVerdict{Status: domain.VerdictSupported, Confidence: 0.9, SupportingKnowledgeIndices: []int{0}}
			}
			return out, nil
		},
	}
}

// Mock KnowledgeIndex for testing: substring matching over contents.
type mockIndex struct {
	mu       sync.Mutex
	docs     map[string]domain.DocumentInput
	synonyms map[string][]string
	rels     map[string][]domain.Relationship
	addErr   error
}

func newMockIndex() *mockIndex {
	return &mockIndex{
		docs:     make(map[string]domain.DocumentInput),
		synonyms: make(map[string][]string),
		rels:     make(map[string][]domain.Relationship),
	}
}

func (m *mockIndex) AddDocument(doc domain.DocumentInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return "", m.addErr
	}
	if doc.ID == "" {
		doc.ID = "doc-" + time.Now().Format("150405.000000000")
	}
	m.docs[doc.ID] = doc
	return doc.ID, nil
}

func (m *mockIndex) UpdateDocument(id string, doc domain.DocumentInput) error {
	doc.ID = id
	_, err := m.AddDocument(doc)
	return err
}

func (m *mockIndex) RemoveDocument(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *mockIndex) GetDocument(id string) (domain.IndexedDocument, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return domain.IndexedDocument{}, false
	}
	return domain.IndexedDocument{ID: id, Fields: d.Fields, Metadata: d.Metadata}, true
}

func (m *mockIndex) Search(query string, opts domain.SearchOptions) []domain.SearchResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SearchResult
	for id, d := range m.docs {
		content := strings.ToLower(d.Fields[domain.FieldContent])
		score := 0.0
		for _, w := range strings.Fields(strings.ToLower(query)) {
			if len(w) > 1 && strings.Contains(content, w) {
				score += 0.5
			}
		}
		if score <= opts.Threshold {
			continue
		}
		out = append(out, domain.SearchResult{
			Document: domain.IndexedDocument{ID: id, Fields: d.Fields, Metadata: d.Metadata},
			Score:    score,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func (m *mockIndex) AddTermSynonyms(term string, synonyms []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synonyms[term] = append(m.synonyms[term], synonyms...)
}

func (m *mockIndex) TermSynonyms(term string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.synonyms[term]
}

func (m *mockIndex) AddEntityRelationships(entity string, relations []domain.Relationship) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rels[entity] = relations
}

func (m *mockIndex) RelatedEntities(entity string, opts domain.RelatedOptions) []domain.RelatedEntity {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.RelatedEntity
	for _, r := range m.rels[entity] {
		out = append(out, domain.RelatedEntity{Entity: r.Target, Type: r.Type, Depth: 1})
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out
}

func (m *mockIndex) Stats() domain.IndexStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.IndexStats{TotalDocuments: len(m.docs)}
}

func (m *mockIndex) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = make(map[string]domain.DocumentInput)
}

var errBoom = errors.New("boom")
