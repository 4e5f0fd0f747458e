package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
	"github.com/custodia-labs/airportai/internal/core/ports/driving"
	"github.com/custodia-labs/airportai/internal/logger"
)

// Ensure KnowledgeIndexer implements the interface.
var _ driving.KnowledgeService = (*KnowledgeIndexer)(nil)

// Document sources written by the indexer.
const (
	SourceVocabulary  = "vocabulary"
	SourceMaintenance = "maintenance"
	SourceSettings    = "settings"
)

// Relationship types registered with the index.
const (
	RelLocatedIn = "located_in"
	RelOnPier    = "on_pier"
	RelHasStand  = "has_stand"
	RelHasPier   = "has_pier"
)

// categorySynonyms links size vocabulary users say with the ICAO codes
// and body types stored on stands and aircraft.
var categorySynonyms = map[string][]string{
	"small":       {"b", "regional"},
	"medium":      {"c", "narrowbody", "narrow"},
	"large":       {"e", "widebody", "wide"},
	"jumbo":       {"f", "superjumbo"},
	"stand":       {"gate", "bay", "position"},
	"pier":        {"concourse"},
	"maintenance": {"repair", "closure", "works"},
	"terminal":    {"building"},
}

// KnowledgeIndexer keeps the knowledge index in step with the airport data.
// It registers itself on vocabulary refresh and owns the generated documents;
// custom documents added through AddDocument are left alone on rebuild.
type KnowledgeIndexer struct {
	data  driven.AirportData
	index driven.KnowledgeIndex
	vocab *VocabularyCache
	log   driven.Logger

	mu        sync.Mutex
	generated map[string]struct{}
}

// NewKnowledgeIndexer creates an indexer and hooks it into vocabulary refreshes.
func NewKnowledgeIndexer(data driven.AirportData, index driven.KnowledgeIndex, vocab *VocabularyCache, log driven.Logger) *KnowledgeIndexer {
	if log == nil {
		log = logger.Nop{}
	}
	k := &KnowledgeIndexer{
		data:      data,
		index:     index,
		vocab:     vocab,
		log:       log,
		generated: make(map[string]struct{}),
	}
	if vocab != nil {
		vocab.OnRefresh(func(ctx context.Context, snap *domain.VocabularySnapshot) {
			if err := k.Index(ctx, snap); err != nil {
				k.log.Warn("knowledge index rebuild failed", "error", err)
			}
		})
	}
	return k
}

// Rebuild refreshes the vocabulary, which re-indexes through the refresh hook.
func (k *KnowledgeIndexer) Rebuild(ctx context.Context) error {
	if k.index == nil {
		return domain.ErrIndexUnavailable
	}
	if k.vocab == nil {
		return domain.ErrPortUnavailable
	}
	if err := k.vocab.Refresh(ctx); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	return nil
}

// Index replaces the generated documents with ones built from snap,
// maintenance records and operational settings. Data-port failures for
// maintenance or settings skip those documents.
func (k *KnowledgeIndexer) Index(ctx context.Context, snap *domain.VocabularySnapshot) error {
	if k.index == nil {
		return domain.ErrIndexUnavailable
	}
	logger.Section("Knowledge Index")

	docs := VocabularyDocuments(snap)
	if k.data != nil {
		maint, err := k.data.GetUpcomingMaintenance(ctx, domain.MaintenanceFilter{})
		if err != nil {
			k.log.Warn("skipping maintenance documents", "error", err)
		} else {
			docs = append(docs, MaintenanceDocuments(maint, snap)...)
		}
		settings, err := k.data.GetOperationalSettings(ctx)
		if err != nil {
			k.log.Warn("skipping settings documents", "error", err)
		} else {
			docs = append(docs, SettingsDocument(settings))
		}
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	next := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		id, err := k.index.AddDocument(d)
		if err != nil {
			return fmt.Errorf("index document %s: %w", d.ID, err)
		}
		next[id] = struct{}{}
	}
	for id := range k.generated {
		if _, keep := next[id]; keep {
			continue
		}
		if err := k.index.RemoveDocument(id); err != nil {
			logger.Debug("Stale document %s already gone: %v", id, err)
		}
	}
	k.generated = next

	for term, syns := range categorySynonyms {
		k.index.AddTermSynonyms(term, syns)
	}
	for entity, rels := range Relationships(snap) {
		k.index.AddEntityRelationships(entity, rels)
	}

	logger.Debug("Indexed %d generated documents", len(next))
	k.log.Info("knowledge index rebuilt", "documents", len(next))
	return nil
}

// AddDocument indexes a custom passage.
func (k *KnowledgeIndexer) AddDocument(doc domain.DocumentInput) (string, error) {
	if k.index == nil {
		return "", domain.ErrIndexUnavailable
	}
	if len(doc.Fields) == 0 {
		return "", fmt.Errorf("%w: document has no fields", domain.ErrInvalidInput)
	}
	return k.index.AddDocument(doc)
}

// RemoveDocument removes a passage.
func (k *KnowledgeIndexer) RemoveDocument(id string) error {
	if k.index == nil {
		return domain.ErrIndexUnavailable
	}
	k.mu.Lock()
	delete(k.generated, id)
	k.mu.Unlock()
	return k.index.RemoveDocument(id)
}

// Search queries the index.
func (k *KnowledgeIndexer) Search(query string, opts domain.SearchOptions) []domain.SearchResult {
	if k.index == nil {
		return nil
	}
	return k.index.Search(query, opts)
}

// Related returns entities related to the given entity id.
func (k *KnowledgeIndexer) Related(entity string, opts domain.RelatedOptions) []domain.RelatedEntity {
	if k.index == nil {
		return nil
	}
	return k.index.RelatedEntities(entity, opts)
}

// Stats returns index metrics.
func (k *KnowledgeIndexer) Stats() domain.IndexStats {
	if k.index == nil {
		return domain.IndexStats{}
	}
	return k.index.Stats()
}

// Vocabulary returns the current vocabulary snapshot, loading it when needed.
func (k *KnowledgeIndexer) Vocabulary(ctx context.Context) (*domain.VocabularySnapshot, error) {
	if k.vocab == nil {
		return nil, domain.ErrPortUnavailable
	}
	return k.vocab.Get(ctx)
}

// VocabularyDocuments renders each vocabulary entry as a passage.
func VocabularyDocuments(snap *domain.VocabularySnapshot) []domain.DocumentInput {
	kinds := []domain.VocabularyKind{
		domain.VocabTerminal, domain.VocabPier, domain.VocabStand,
		domain.VocabAircraftType, domain.VocabAirline,
	}
	var docs []domain.DocumentInput
	for _, kind := range kinds {
		for _, e := range snap.Entries(kind) {
			title := e.DisplayName
			if title == "" {
				title = e.PrimaryCode
			}
			meta := map[string]string{
				domain.MetaSource: SourceVocabulary,
				domain.MetaKind:   string(kind),
				domain.MetaRef:    e.ID,
			}
			if t := e.Attributes["terminal"]; t != "" {
				meta[domain.MetaTerminal] = t
			} else if kind == domain.VocabTerminal {
				meta[domain.MetaTerminal] = e.PrimaryCode
			}
			docs = append(docs, domain.DocumentInput{
				ID: "vocab:" + string(kind) + ":" + e.ID,
				Fields: map[string]string{
					domain.FieldTitle:   title,
					domain.FieldContent: describeEntry(e),
				},
				Metadata: meta,
			})
		}
	}
	return docs
}

func describeEntry(e domain.VocabularyEntry) string {
	a := e.Attributes
	var sb strings.Builder
	switch e.Kind {
	case domain.VocabTerminal:
		fmt.Fprintf(&sb, "Terminal %s (%s).", e.PrimaryCode, e.DisplayName)
		if a["operating"] == "false" {
			sb.WriteString(" Not operating.")
		} else {
			sb.WriteString(" Operating.")
		}
	case domain.VocabPier:
		fmt.Fprintf(&sb, "Pier %s (%s)", e.PrimaryCode, e.DisplayName)
		if a["terminal"] != "" {
			fmt.Fprintf(&sb, " at terminal %s", a["terminal"])
		}
		sb.WriteString(".")
	case domain.VocabStand:
		fmt.Fprintf(&sb, "Stand %s", e.PrimaryCode)
		if a["terminal"] != "" {
			fmt.Fprintf(&sb, " at terminal %s", a["terminal"])
		}
		if a["pier"] != "" {
			fmt.Fprintf(&sb, " on pier %s", a["pier"])
		}
		sb.WriteString(".")
		if a["status"] != "" {
			fmt.Fprintf(&sb, " Status %s.", a["status"])
		}
		if a["active"] == "false" {
			sb.WriteString(" Inactive.")
		} else {
			sb.WriteString(" Active.")
		}
		if a["size_category"] != "" {
			fmt.Fprintf(&sb, " Accepts aircraft up to category %s.", a["size_category"])
		}
		if a["contact"] == "true" {
			sb.WriteString(" Contact stand.")
		} else {
			sb.WriteString(" Remote stand.")
		}
	case domain.VocabAircraftType:
		fmt.Fprintf(&sb, "Aircraft %s (%s)", e.PrimaryCode, e.DisplayName)
		if a["manufacturer"] != "" {
			fmt.Fprintf(&sb, " by %s", a["manufacturer"])
		}
		sb.WriteString(".")
		if a["size_category"] != "" {
			fmt.Fprintf(&sb, " Category %s.", a["size_category"])
		}
		if a["body_type"] != "" {
			fmt.Fprintf(&sb, " %s.", strings.ReplaceAll(a["body_type"], "_", " "))
		}
	case domain.VocabAirline:
		fmt.Fprintf(&sb, "Airline %s (%s).", e.DisplayName, e.PrimaryCode)
	}
	if len(e.AlternateCodes) > 0 {
		fmt.Fprintf(&sb, " Also known as %s.", strings.Join(e.AlternateCodes, ", "))
	}
	return sb.String()
}

// MaintenanceDocuments renders maintenance requests as passages.
// The stand code and terminal come from snap when available.
func MaintenanceDocuments(reqs []domain.MaintenanceRequest, snap *domain.VocabularySnapshot) []domain.DocumentInput {
	docs := make([]domain.DocumentInput, 0, len(reqs))
	for _, r := range reqs {
		standCode := r.StandID
		meta := map[string]string{
			domain.MetaSource: SourceMaintenance,
			domain.MetaKind:   "maintenance",
			domain.MetaRef:    r.ID,
		}
		if e, ok := snap.LookupByID(domain.VocabStand, r.StandID); ok {
			standCode = e.PrimaryCode
			if t := e.Attributes["terminal"]; t != "" {
				meta[domain.MetaTerminal] = t
			}
		}
		content := fmt.Sprintf("Maintenance on stand %s: %s. Status %s from %s to %s.",
			standCode, r.Title, strings.ReplaceAll(string(r.Status), "_", " "),
			r.Start.Format("2006-01-02 15:04"), r.End.Format("2006-01-02 15:04"))
		if r.Description != "" {
			content += " " + r.Description
		}
		docs = append(docs, domain.DocumentInput{
			ID: "maintenance:" + r.ID,
			Fields: map[string]string{
				domain.FieldTitle:   r.Title,
				domain.FieldContent: content,
			},
			Metadata: meta,
		})
	}
	return docs
}

// SettingsDocument renders the operational settings as one passage.
func SettingsDocument(s domain.OperationalSettings) domain.DocumentInput {
	content := fmt.Sprintf(
		"Operational settings: default turnaround %d minutes, buffer %d minutes between aircraft, operating hours %s to %s (%s).",
		s.DefaultTurnaroundMinutes, s.BufferMinutes, s.OperatingStart, s.OperatingEnd, s.TimeZone)
	return domain.DocumentInput{
		ID: "settings:operational",
		Fields: map[string]string{
			domain.FieldTitle:   "Operational settings",
			domain.FieldContent: content,
		},
		Metadata: map[string]string{
			domain.MetaSource: SourceSettings,
			domain.MetaKind:   "settings",
			domain.MetaRef:    "operational",
		},
	}
}

// Relationships derives stand, pier and terminal edges keyed by entity id.
// Edges are registered in both directions.
func Relationships(snap *domain.VocabularySnapshot) map[string][]domain.Relationship {
	out := make(map[string][]domain.Relationship)
	add := func(from, to, rel string) {
		if from == "" || to == "" {
			return
		}
		out[from] = append(out[from], domain.Relationship{Target: to, Type: rel})
	}
	for _, s := range snap.Entries(domain.VocabStand) {
		add(s.ID, s.Attributes["terminal_id"], RelLocatedIn)
		add(s.Attributes["terminal_id"], s.ID, RelHasStand)
		if code := s.Attributes["pier"]; code != "" {
			if p, ok := snap.Lookup(domain.VocabPier, code); ok {
				add(s.ID, p.ID, RelOnPier)
				add(p.ID, s.ID, RelHasStand)
			}
		}
	}
	for _, p := range snap.Entries(domain.VocabPier) {
		add(p.ID, p.Attributes["terminal_id"], RelLocatedIn)
		add(p.Attributes["terminal_id"], p.ID, RelHasPier)
	}
	for id := range out {
		rels := out[id]
		sort.Slice(rels, func(i, j int) bool {
			if rels[i].Type != rels[j].Type {
				return rels[i].Type < rels[j].Type
			}
			return rels[i].Target < rels[j].Target
		})
	}
	return out
}
