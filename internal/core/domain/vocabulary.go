package domain

import (
	"strings"
	"time"
)

// VocabularyKind identifies the reference table a vocabulary entry came from.
type VocabularyKind string

// Vocabulary kinds.
const (
	VocabTerminal     VocabularyKind = "terminal"
	VocabStand        VocabularyKind = "stand"
	VocabPier         VocabularyKind = "pier"
	VocabAircraftType VocabularyKind = "aircraftType"
	VocabAirline      VocabularyKind = "airline"
)

// EntityType maps the vocabulary kind onto the entity it decorates.
func (k VocabularyKind) EntityType() EntityType {
	switch k {
	case VocabTerminal:
		return EntityTerminal
	case VocabStand:
		return EntityStand
	case VocabPier:
		return EntityPier
	case VocabAircraftType:
		return EntityAircraftType
	case VocabAirline:
		return EntityAirline
	default:
		return ""
	}
}

// VocabularyEntry is one item of airport reference data.
// (Kind, PrimaryCode) is unique within a snapshot.
type VocabularyEntry struct {
	Kind           VocabularyKind    `json:"kind"`
	ID             string            `json:"id"`
	PrimaryCode    string            `json:"primaryCode"`
	AlternateCodes []string          `json:"alternateCodes,omitempty"`
	DisplayName    string            `json:"displayName"`
	Attributes     map[string]string `json:"attributes,omitempty"`
}

// Matches reports whether code equals the primary or any alternate code,
// or the display name, case-insensitively.
func (e VocabularyEntry) Matches(code string) bool {
	if code == "" {
		return false
	}
	if strings.EqualFold(e.PrimaryCode, code) || strings.EqualFold(e.DisplayName, code) {
		return true
	}
	for _, alt := range e.AlternateCodes {
		if strings.EqualFold(alt, code) {
			return true
		}
	}
	return false
}

// Ref builds the decoration attached to a matched entity.
func (e VocabularyEntry) Ref() *EntityRef {
	attrs := make(map[string]string, len(e.Attributes))
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	return &EntityRef{ID: e.ID, Attributes: attrs}
}

// VocabularySnapshot is an immutable view of the reference data.
// Readers hold a snapshot for the duration of one request.
type VocabularySnapshot struct {
	LoadedAt time.Time
	entries  map[VocabularyKind][]VocabularyEntry
	byCode   map[VocabularyKind]map[string]int
}

// NewVocabularySnapshot indexes entries by kind and upper-cased primary code.
// Later duplicates of (kind, primaryCode) are dropped.
func NewVocabularySnapshot(loadedAt time.Time, entries []VocabularyEntry) *VocabularySnapshot {
	s := &VocabularySnapshot{
		LoadedAt: loadedAt,
		entries:  make(map[VocabularyKind][]VocabularyEntry),
		byCode:   make(map[VocabularyKind]map[string]int),
	}
	for _, e := range entries {
		codes := s.byCode[e.Kind]
		if codes == nil {
			codes = make(map[string]int)
			s.byCode[e.Kind] = codes
		}
		key := strings.ToUpper(e.PrimaryCode)
		if _, dup := codes[key]; dup {
			continue
		}
		codes[key] = len(s.entries[e.Kind])
		s.entries[e.Kind] = append(s.entries[e.Kind], e)
	}
	return s
}

// Entries returns all entries of a kind.
func (s *VocabularySnapshot) Entries(kind VocabularyKind) []VocabularyEntry {
	if s == nil {
		return nil
	}
	return s.entries[kind]
}

// Len returns the total entry count.
func (s *VocabularySnapshot) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, list := range s.entries {
		n += len(list)
	}
	return n
}

// Lookup finds an entry by primary code, alternate code or display name.
func (s *VocabularySnapshot) Lookup(kind VocabularyKind, code string) (VocabularyEntry, bool) {
	if s == nil || code == "" {
		return VocabularyEntry{}, false
	}
	if idx, ok := s.byCode[kind][strings.ToUpper(code)]; ok {
		return s.entries[kind][idx], true
	}
	for _, e := range s.entries[kind] {
		if e.Matches(code) {
			return e, true
		}
	}
	return VocabularyEntry{}, false
}

// LookupByID finds an entry by its identifier.
func (s *VocabularySnapshot) LookupByID(kind VocabularyKind, id string) (VocabularyEntry, bool) {
	if s == nil {
		return VocabularyEntry{}, false
	}
	for _, e := range s.entries[kind] {
		if e.ID == id {
			return e, true
		}
	}
	return VocabularyEntry{}, false
}
