package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
	"github.com/custodia-labs/airportai/internal/logger"
)

// Data port names used as fact source tags.
const (
	PortStands      = "stands"
	PortTerminals   = "terminals"
	PortPiers       = "piers"
	PortMaintenance = "maintenance"
	PortCapacity    = "capacity_settings"
	PortFlights     = "flights"
	PortUtilization = "utilization"
	PortConfig      = "configuration"
	PortAircraft    = "aircraft_types"
	PortAirlines    = "airlines"
	PortRelated     = "relationships"
	SourceIndex     = "index"
)

// portConfidence ranks facts: reference data before derived figures.
var portConfidence = map[string]float64{
	PortStands:      1.0,
	PortTerminals:   1.0,
	PortPiers:       1.0,
	PortAircraft:    1.0,
	PortAirlines:    1.0,
	PortMaintenance: 0.95,
	PortCapacity:    0.9,
	PortConfig:      0.9,
	PortFlights:     0.9,
	PortUtilization: 0.85,
	PortRelated:     0.8,
}

// intentPorts is the fixed mapping from intent to the data ports it needs.
var intentPorts = map[domain.Intent][]string{
	domain.IntentCapacityQuery:       {PortStands, PortUtilization, PortCapacity},
	domain.IntentUtilizationQuery:    {PortStands, PortUtilization},
	domain.IntentMaintenanceQuery:    {PortStands, PortMaintenance},
	domain.IntentMaintenanceCreate:   {PortStands, PortMaintenance},
	domain.IntentMaintenanceUpdate:   {PortStands, PortMaintenance},
	domain.IntentStandStatusQuery:    {PortStands, PortMaintenance},
	domain.IntentInfrastructureQuery: {PortTerminals, PortPiers, PortStands},
	domain.IntentFlightQuery:         {PortFlights, PortAirlines},
	domain.IntentAirlineQuery:        {PortAirlines, PortFlights},
	domain.IntentScenarioCreate:      {PortStands, PortCapacity},
	domain.IntentScenarioQuery:       {PortStands, PortCapacity},
	domain.IntentScenarioCompare:     {PortStands, PortCapacity, PortMaintenance, PortUtilization},
	domain.IntentWhatIfAnalysis:      {PortStands, PortCapacity, PortMaintenance, PortUtilization},
	domain.IntentForecastQuery:       {PortUtilization, PortFlights, PortCapacity},
	domain.IntentOptimizationQuery:   {PortStands, PortUtilization, PortCapacity},
	domain.IntentVisualization:       {PortStands, PortUtilization},
	domain.IntentReportRequest:       {PortStands, PortMaintenance, PortUtilization},
	domain.IntentSettingsQuery:       {PortConfig},
}

// PortsFor returns the data ports consulted for an intent.
func PortsFor(intent domain.Intent) []string {
	return intentPorts[intent]
}

// RetrieverConfig configures knowledge retrieval.
type RetrieverConfig struct {
	// ContextualLimit is the top-K passages fetched from the index.
	ContextualLimit int

	// ContextualThreshold drops passages scoring below it.
	ContextualThreshold float64

	// MaxFactsPerPort caps the records one port contributes.
	MaxFactsPerPort int

	// EntityBoost multiplies the score of query terms that are resolved entities.
	EntityBoost float64
}

// Retriever gathers facts from data ports and passages from the index.
type Retriever struct {
	cfg   RetrieverConfig
	data  driven.AirportData
	index driven.KnowledgeIndex
	log   driven.Logger
}

// NewRetriever creates a retriever. data and index may be nil.
func NewRetriever(cfg RetrieverConfig, data driven.AirportData, index driven.KnowledgeIndex, log driven.Logger) *Retriever {
	defaults := domain.DefaultAppSettings().Pipeline
	if cfg.ContextualLimit <= 0 {
		cfg.ContextualLimit = defaults.ContextualLimit
	}
	if cfg.ContextualThreshold <= 0 {
		cfg.ContextualThreshold = defaults.ContextualThreshold
	}
	if cfg.MaxFactsPerPort <= 0 {
		cfg.MaxFactsPerPort = 25
	}
	if cfg.EntityBoost <= 0 {
		cfg.EntityBoost = 2.0
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Retriever{cfg: cfg, data: data, index: index, log: log}
}

// Retrieve builds the knowledge bundle for a parsed query.
// Port failures are isolated: each adds a warning and the bundle stays partial.
func (r *Retriever) Retrieve(ctx context.Context, q domain.ParsedQuery) domain.KnowledgeBundle {
	logger.Section("Knowledge Retrieval")

	var (
		mu       sync.Mutex
		facts    []domain.Fact
		warnings []string
	)
	record := func(port string, got []domain.Fact, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", port, err))
			r.log.Warn("data port failed", "requestId", q.RequestID, "port", port, "error", err)
			return
		}
		if len(got) > r.cfg.MaxFactsPerPort {
			got = got[:r.cfg.MaxFactsPerPort]
		}
		facts = append(facts, got...)
	}

	var g errgroup.Group
	ports := PortsFor(q.Intent)
	if r.data == nil && len(ports) > 0 {
		warnings = append(warnings, domain.ErrPortUnavailable.Error())
		ports = nil
	}
	for _, port := range ports {
		g.Go(func() error {
			got, err := r.fetch(ctx, port, q)
			record(port, got, err)
			return nil
		})
	}

	var passages []domain.Passage
	g.Go(func() error {
		passages = r.contextual(q)
		return nil
	})
	_ = g.Wait()

	if r.index != nil && len(ports) > 0 {
		facts = append(facts, r.related(q)...)
	}

	bundle := assemble(facts, passages)
	bundle.Warnings = warnings
	logger.Debug("Retrieved %d facts, %d passages, %d warnings", len(bundle.Facts), len(bundle.Contextual), len(warnings))
	return bundle
}

// assemble orders facts by port confidence, passages by similarity,
// and drops duplicates by source and id.
func assemble(facts []domain.Fact, passages []domain.Passage) domain.KnowledgeBundle {
	sort.SliceStable(facts, func(i, j int) bool { return facts[i].Confidence > facts[j].Confidence })
	seen := make(map[string]bool, len(facts)+len(passages))

	b := domain.KnowledgeBundle{Facts: []domain.Fact{}, Contextual: []domain.Passage{}}
	for _, f := range facts {
		if seen[f.Key()] {
			continue
		}
		seen[f.Key()] = true
		b.Facts = append(b.Facts, f)
	}

	sort.SliceStable(passages, func(i, j int) bool { return passages[i].Similarity > passages[j].Similarity })
	for _, p := range passages {
		if seen[p.Key()] {
			continue
		}
		seen[p.Key()] = true
		b.Contextual = append(b.Contextual, p)
	}
	return b
}

func (r *Retriever) contextual(q domain.ParsedQuery) []domain.Passage {
	if r.index == nil || strings.TrimSpace(q.NormalizedUtterance) == "" {
		return nil
	}
	boost := make(map[string]float64)
	query := q.NormalizedUtterance
	for _, t := range q.Entities.Types() {
		if t == domain.EntityTimePeriod || t == domain.EntityDate {
			continue
		}
		for _, v := range q.Entities[t].Values() {
			lv := strings.ToLower(v)
			boost[lv] = r.cfg.EntityBoost
			if !strings.Contains(strings.ToLower(query), lv) {
				query += " " + v
			}
		}
	}

	results := r.index.Search(query, domain.SearchOptions{
		Limit:      r.cfg.ContextualLimit,
		Threshold:  r.cfg.ContextualThreshold,
		FuzzyMatch: true,
		BoostTerms: boost,
		BoostFields: map[string]float64{
			domain.FieldTitle: 1.5,
		},
	})

	passages := make([]domain.Passage, 0, len(results))
	for _, res := range results {
		source := res.Document.Metadata[domain.MetaSource]
		if source == "" {
			source = SourceIndex
		}
		id := res.Document.Metadata[domain.MetaRef]
		if id == "" {
			id = res.Document.ID
		}
		passages = append(passages, domain.Passage{
			ID:         id,
			Content:    res.Document.Content(),
			SourceTag:  source,
			Similarity: res.Score,
		})
	}
	return passages
}

func (r *Retriever) related(q domain.ParsedQuery) []domain.Fact {
	var facts []domain.Fact
	for _, t := range []domain.EntityType{domain.EntityStand, domain.EntityPier, domain.EntityTerminal} {
		v, ok := q.Entities[t]
		if !ok || v.Ref == nil {
			continue
		}
		for _, rel := range r.index.RelatedEntities(v.Ref.ID, domain.RelatedOptions{Limit: 10, IncludeTransitive: true, MaxDepth: 2}) {
			facts = append(facts, domain.Fact{
				Type:      domain.FactRelatedEntity,
				ID:        v.Ref.ID + "->" + rel.Entity,
				SourceTag: PortRelated,
				Payload: map[string]any{
					"entity":   v.Ref.ID,
					"related":  rel.Entity,
					"relation": rel.Type,
					"depth":    rel.Depth,
				},
				Confidence: portConfidence[PortRelated],
			})
		}
	}
	return facts
}

func (r *Retriever) fetch(ctx context.Context, port string, q domain.ParsedQuery) ([]domain.Fact, error) {
	period := periodOf(q.Entities)
	switch port {
	case PortStands:
		stands, err := r.data.ListStands(ctx)
		if err != nil {
			return nil, err
		}
		return standFacts(filterStands(stands, q.Entities)), nil
	case PortTerminals:
		terminals, err := r.data.ListTerminals(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Fact, 0, len(terminals))
		for _, t := range terminals {
			if code := q.Entities.Text(domain.EntityTerminal); code != "" && !strings.EqualFold(code, t.Code) {
				continue
			}
			out = append(out, fact(domain.FactTerminal, t.ID, PortTerminals, map[string]any{
				"id": t.ID, "code": t.Code, "name": t.Name, "operating": t.Operating,
			}))
		}
		return out, nil
	case PortPiers:
		piers, err := r.data.ListPiers(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Fact, 0, len(piers))
		for _, p := range piers {
			if code := q.Entities.Text(domain.EntityPier); code != "" && !strings.EqualFold(code, p.Code) {
				continue
			}
			out = append(out, fact(domain.FactPier, p.ID, PortPiers, map[string]any{
				"id": p.ID, "code": p.Code, "name": p.Name, "terminalId": p.TerminalID,
			}))
		}
		return out, nil
	case PortMaintenance:
		reqs, err := r.data.GetUpcomingMaintenance(ctx, domain.MaintenanceFilter{
			StandIDs: refIDs(q.Entities, domain.EntityStand),
			Statuses: maintenanceStatuses(q.Entities),
			Period:   period,
			Limit:    r.cfg.MaxFactsPerPort,
		})
		if err != nil {
			return nil, err
		}
		out := make([]domain.Fact, 0, len(reqs))
		for _, m := range reqs {
			out = append(out, fact(domain.FactMaintenance, m.ID, PortMaintenance, map[string]any{
				"id": m.ID, "standId": m.StandID, "title": m.Title, "status": string(m.Status),
				"start": m.Start, "end": m.End,
			}))
		}
		return out, nil
	case PortCapacity, PortConfig:
		s, err := r.data.GetOperationalSettings(ctx)
		if err != nil {
			return nil, err
		}
		factType := domain.FactCapacitySettings
		if port == PortConfig {
			factType = domain.FactConfiguration
		}
		return []domain.Fact{fact(factType, "operational", port, map[string]any{
			"defaultTurnaroundMinutes": s.DefaultTurnaroundMinutes,
			"bufferMinutes":            s.BufferMinutes,
			"operatingStart":           s.OperatingStart,
			"operatingEnd":             s.OperatingEnd,
			"timeZone":                 s.TimeZone,
		})}, nil
	case PortFlights:
		filter := domain.FlightFilter{
			Numbers:      q.Entities[domain.EntityFlightNumber].Values(),
			AirlineCodes: q.Entities[domain.EntityAirline].Values(),
			TerminalIDs:  refIDs(q.Entities, domain.EntityTerminal),
			StandIDs:     refIDs(q.Entities, domain.EntityStand),
			Direction:    domain.FlightDirection(q.Entities.Text(domain.EntityFlightDirection)),
			Period:       period,
			Limit:        r.cfg.MaxFactsPerPort,
		}
		flights, err := r.data.GetFlights(ctx, filter)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Fact, 0, len(flights))
		for _, f := range flights {
			out = append(out, fact(domain.FactFlight, f.ID, PortFlights, map[string]any{
				"id": f.ID, "number": f.Number, "airline": f.AirlineCode, "aircraftType": f.AircraftType,
				"direction": string(f.Direction), "flightType": f.FlightType, "standId": f.StandID,
				"scheduled": f.Scheduled,
			}))
		}
		return out, nil
	case PortUtilization:
		util, err := r.data.GetStandUtilization(ctx, refIDs(q.Entities, domain.EntityStand), period)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Fact, 0, len(util))
		for _, u := range util {
			id := u.StandID + "@" + u.PeriodStart.Format("2006-01-02T15:04")
			out = append(out, fact(domain.FactUtilization, id, PortUtilization, map[string]any{
				"standId": u.StandID, "periodStart": u.PeriodStart, "periodEnd": u.PeriodEnd,
				"occupiedMinutes": u.OccupiedMinutes, "rate": u.Rate,
			}))
		}
		return out, nil
	case PortAirlines:
		airlines, err := r.data.ListAirlines(ctx)
		if err != nil {
			return nil, err
		}
		want := q.Entities[domain.EntityAirline].Values()
		out := make([]domain.Fact, 0, len(airlines))
		for _, a := range airlines {
			if len(want) > 0 && !containsFold(want, a.IATACode) && !containsFold(want, a.ICAOCode) {
				continue
			}
			out = append(out, fact(domain.FactAirline, a.ID, PortAirlines, map[string]any{
				"id": a.ID, "iataCode": a.IATACode, "icaoCode": a.ICAOCode, "name": a.Name, "active": a.Active,
			}))
		}
		return out, nil
	case PortAircraft:
		types, err := r.data.ListAircraftTypes(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Fact, 0, len(types))
		for _, a := range types {
			out = append(out, fact(domain.FactAircraftType, a.ID, PortAircraft, map[string]any{
				"id": a.ID, "code": a.Code, "name": a.Name, "sizeCategory": a.SizeCategory, "bodyType": a.BodyType,
			}))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrPortUnavailable, port)
	}
}

func fact(factType, id, port string, payload map[string]any) domain.Fact {
	return domain.Fact{
		Type:       factType,
		ID:         id,
		Payload:    payload,
		SourceTag:  port,
		Confidence: portConfidence[port],
	}
}

func standFacts(stands []domain.Stand) []domain.Fact {
	out := make([]domain.Fact, 0, len(stands))
	for _, s := range stands {
		out = append(out, fact(domain.FactStand, s.ID, PortStands, map[string]any{
			"id": s.ID, "code": s.Code, "terminalId": s.TerminalID, "pierId": s.PierID,
			"status": string(s.Status), "sizeCategory": s.SizeCategory,
			"contact": s.Contact, "active": s.Active,
		}))
	}
	return out
}

// filterStands narrows stands by the stand, terminal, pier, category and status entities.
func filterStands(stands []domain.Stand, e domain.Entities) []domain.Stand {
	codes := e[domain.EntityStand].Values()
	terminalIDs := refIDs(e, domain.EntityTerminal)
	pierIDs := refIDs(e, domain.EntityPier)
	category := e.Text(domain.EntityAircraftCategory)
	status := e.Text(domain.EntityMaintenanceStatus)

	out := make([]domain.Stand, 0, len(stands))
	for _, s := range stands {
		if len(codes) > 0 && !containsFold(codes, s.Code) && !containsFold(codes, s.ID) {
			continue
		}
		if len(codes) == 0 {
			if len(terminalIDs) > 0 && !containsFold(terminalIDs, s.TerminalID) {
				continue
			}
			if len(pierIDs) > 0 && !containsFold(pierIDs, s.PierID) {
				continue
			}
			if category != "" && s.SizeCategory != "" && s.SizeCategory < category {
				continue
			}
			if isStandStatus(status) && string(s.Status) != status {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

func isStandStatus(s string) bool {
	switch domain.StandStatus(s) {
	case domain.StandAvailable, domain.StandOccupied, domain.StandMaintenance, domain.StandClosed:
		return true
	default:
		return false
	}
}

// refIDs returns vocabulary ids for an entity, falling back to its raw values.
func refIDs(e domain.Entities, t domain.EntityType) []string {
	v, ok := e[t]
	if !ok {
		return nil
	}
	if v.Ref != nil {
		return []string{v.Ref.ID}
	}
	return v.Values()
}

func maintenanceStatuses(e domain.Entities) []domain.MaintenanceStatus {
	var out []domain.MaintenanceStatus
	for _, v := range e[domain.EntityMaintenanceStatus].Values() {
		switch s := domain.MaintenanceStatus(v); s {
		case domain.MaintenanceRequested, domain.MaintenanceApproved, domain.MaintenanceInProgress,
			domain.MaintenanceCompleted, domain.MaintenanceCancelled:
			out = append(out, s)
		}
	}
	return out
}

func periodOf(e domain.Entities) *domain.TimePeriod {
	v, ok := e[domain.EntityTimePeriod]
	if !ok || v.Period == nil || !v.Period.IsKnown() {
		return nil
	}
	p := *v.Period
	return &p
}

func containsFold(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
