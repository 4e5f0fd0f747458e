package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Fact types produced by the data ports.
const (
	FactStand             = "stand"
	FactTerminal          = "terminal"
	FactPier              = "pier"
	FactMaintenance       = "maintenance"
	FactCapacitySettings  = "capacity_settings"
	FactFlight            = "flight"
	FactUtilization       = "utilization"
	FactConfiguration     = "configuration"
	FactAircraftType      = "aircraft_type"
	FactAirline           = "airline"
	FactRelatedEntity     = "related_entity"
	FactOperationalWindow = "operational_window"
)

// Fact is a structured record returned by a data port.
type Fact struct {
	Type string `json:"type"`
	// ID identifies the underlying record; used for de-duplication.
	ID         string         `json:"id"`
	Payload    map[string]any `json:"payload"`
	SourceTag  string         `json:"sourceTag"`
	Confidence float64        `json:"confidence"`
}

// Key returns the de-duplication key.
func (f Fact) Key() string {
	return f.SourceTag + ":" + f.ID
}

// Passage is a contextual snippet from the knowledge index.
type Passage struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	SourceTag  string  `json:"sourceTag"`
	Similarity float64 `json:"similarity"`
}

// Key returns the de-duplication key.
func (p Passage) Key() string {
	return p.SourceTag + ":" + p.ID
}

// KnowledgeBundle holds everything retrieved for one request.
// Facts precede contextual passages in consumption order;
// contextual passages are sorted by similarity descending.
type KnowledgeBundle struct {
	Facts      []Fact    `json:"facts"`
	Contextual []Passage `json:"contextual"`
	// Warnings records isolated port failures.
	Warnings []string `json:"warnings,omitempty"`
}

// IsEmpty reports whether nothing was retrieved.
func (b KnowledgeBundle) IsEmpty() bool {
	return len(b.Facts) == 0 && len(b.Contextual) == 0
}

// Len returns the total number of knowledge items.
func (b KnowledgeBundle) Len() int {
	return len(b.Facts) + len(b.Contextual)
}

// KnowledgeItem is a numbered, rendered item used in prompts and verdicts.
type KnowledgeItem struct {
	Index     int    `json:"index"`
	Kind      string `json:"kind"` // "fact" or "context"
	SourceTag string `json:"sourceTag"`
	Text      string `json:"text"`
}

// Items renders facts then passages as numbered items, capped at limit (0 = all).
func (b KnowledgeBundle) Items(limit int) []KnowledgeItem {
	items := make([]KnowledgeItem, 0, b.Len())
	for _, f := range b.Facts {
		if limit > 0 && len(items) >= limit {
			return items
		}
		items = append(items, KnowledgeItem{
			Index:     len(items),
			Kind:      "fact",
			SourceTag: f.SourceTag,
			Text:      f.Render(),
		})
	}
	for _, p := range b.Contextual {
		if limit > 0 && len(items) >= limit {
			return items
		}
		items = append(items, KnowledgeItem{
			Index:     len(items),
			Kind:      "context",
			SourceTag: p.SourceTag,
			Text:      p.Content,
		})
	}
	return items
}

// Render formats a fact as compact JSON prefixed by its type.
func (f Fact) Render() string {
	data, err := json.Marshal(f.Payload)
	if err != nil {
		return fmt.Sprintf("%s %s", f.Type, f.ID)
	}
	return fmt.Sprintf("%s %s", f.Type, string(data))
}

// RenderItems formats knowledge items as "[i] (source) text" lines.
func RenderItems(items []KnowledgeItem) string {
	if len(items) == 0 {
		return "(no knowledge available)"
	}
	var sb strings.Builder
	for _, it := range items {
		fmt.Fprintf(&sb, "[%d] (%s) %s\n", it.Index, it.SourceTag, it.Text)
	}
	return strings.TrimRight(sb.String(), "\n")
}
