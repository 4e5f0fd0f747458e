// Package inverted provides an in-memory inverted index implementing
// driven.KnowledgeIndex.
//
// Documents are tokenised into stemmed terms; each term keeps a posting list
// of per-document term frequencies. Search scores documents by TF-IDF with
// field and term boosts, optional synonym and edit-distance-1 expansion, and
// AND-ed metadata filters. Writers take an exclusive lock and readers a shared
// one, so every Search sees one consistent version of the postings.
package inverted

import (
	"container/list"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.KnowledgeIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultMaxIndexSize  = 10_000
	DefaultMinTermLength = 2
	DefaultLimit         = 10
)

// Config configures the index.
type Config struct {
	// MaxIndexSize caps the document count; the least recently indexed
	// document is evicted beyond it (default: 10000).
	MaxIndexSize int

	// MinTermLength drops shorter tokens (default: 2).
	MinTermLength int

	// EnableSynonyms expands query terms with registered synonyms.
	EnableSynonyms bool

	// EnableStemming applies the suffix stemmer to documents and queries.
	EnableStemming bool

	// Fields restricts tokenisation to the named fields (default: all).
	Fields []string
}

// ConfigFromSettings maps index settings onto Config.
func ConfigFromSettings(s domain.IndexSettings) Config {
	return Config{
		MaxIndexSize:   s.MaxIndexSize,
		MinTermLength:  s.MinTermLength,
		EnableSynonyms: s.EnableSynonyms,
		EnableStemming: s.EnableStemming,
	}
}

// posting is one document's entry in a term's posting list.
type posting struct {
	tf     float64        // occurrences / document length
	fields map[string]int // occurrences per field
}

// document is an indexed document plus its bookkeeping.
type document struct {
	doc   domain.IndexedDocument
	terms map[string]*posting
	meta  []string // metadata set keys ("key:value")
	lru   *list.Element
}

// Index is the in-memory inverted index.
type Index struct {
	cfg Config
	tok tokenizer
	now func() time.Time

	mu       sync.RWMutex
	docs     map[string]*document
	postings map[string]map[string]*posting
	metadata map[string]map[string]struct{}
	order    *list.List // document ids, least recently indexed first
	termSum  int

	synonyms map[string]map[string]struct{} // surface form -> surface forms
	synTerms map[string]map[string]struct{} // index term -> index terms
	edges    map[string][]domain.Relationship

	searches  atomic.Int64
	searchNs  atomic.Int64
	evictions atomic.Int64
}

// New creates an empty index.
func New(cfg Config) *Index {
	if cfg.MaxIndexSize <= 0 {
		cfg.MaxIndexSize = DefaultMaxIndexSize
	}
	if cfg.MinTermLength <= 0 {
		cfg.MinTermLength = DefaultMinTermLength
	}
	idx := &Index{
		cfg: cfg,
		tok: tokenizer{minLen: cfg.MinTermLength, stem: cfg.EnableStemming},
		now: time.Now,
	}
	idx.reset()
	return idx
}

func (x *Index) reset() {
	x.docs = make(map[string]*document)
	x.postings = make(map[string]map[string]*posting)
	x.metadata = make(map[string]map[string]struct{})
	x.order = list.New()
	x.termSum = 0
	x.synonyms = make(map[string]map[string]struct{})
	x.synTerms = make(map[string]map[string]struct{})
	x.edges = make(map[string][]domain.Relationship)
}

// Reset drops every document, synonym and relationship.
func (x *Index) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.reset()
}

// AddDocument indexes doc and returns its id. An existing id is replaced.
func (x *Index) AddDocument(in domain.DocumentInput) (string, error) {
	if len(in.Fields) == 0 {
		return "", fmt.Errorf("%w: document has no fields", domain.ErrInvalidInput)
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.NewString()
	}
	d := x.build(id, in)

	x.mu.Lock()
	defer x.mu.Unlock()

	if _, exists := x.docs[id]; exists {
		x.remove(id)
	}
	x.insert(d)
	for len(x.docs) > x.cfg.MaxIndexSize {
		oldest := x.order.Front()
		x.remove(oldest.Value.(string))
		x.evictions.Add(1)
	}
	return id, nil
}

// UpdateDocument replaces an existing document.
func (x *Index) UpdateDocument(id string, in domain.DocumentInput) error {
	if len(in.Fields) == 0 {
		return fmt.Errorf("%w: document has no fields", domain.ErrInvalidInput)
	}
	d := x.build(id, in)

	x.mu.Lock()
	defer x.mu.Unlock()
	if _, exists := x.docs[id]; !exists {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	x.remove(id)
	x.insert(d)
	return nil
}

// RemoveDocument deletes a document from every posting list and metadata set.
func (x *Index) RemoveDocument(id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, exists := x.docs[id]; !exists {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	x.remove(id)
	return nil
}

// GetDocument returns a copy of an indexed document.
func (x *Index) GetDocument(id string) (domain.IndexedDocument, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	d, ok := x.docs[id]
	if !ok {
		return domain.IndexedDocument{}, false
	}
	return copyDoc(d.doc), true
}

// build tokenises a document outside the lock.
func (x *Index) build(id string, in domain.DocumentInput) *document {
	d := &document{
		doc: domain.IndexedDocument{
			ID:        id,
			Fields:    make(map[string]string, len(in.Fields)),
			IndexedAt: x.now(),
			Metadata:  make(map[string]string, len(in.Metadata)),
		},
		terms: make(map[string]*posting),
	}
	for k, v := range in.Fields {
		d.doc.Fields[k] = v
	}
	for k, v := range in.Metadata {
		d.doc.Metadata[k] = v
		d.meta = append(d.meta, metaKey(k, v))
	}

	for _, field := range x.fieldsOf(in.Fields) {
		for _, term := range x.tok.tokens(in.Fields[field]) {
			d.doc.Terms = append(d.doc.Terms, term)
			p, ok := d.terms[term]
			if !ok {
				p = &posting{fields: make(map[string]int)}
				d.terms[term] = p
			}
			p.fields[field]++
		}
	}
	if n := float64(len(d.doc.Terms)); n > 0 {
		for _, p := range d.terms {
			total := 0
			for _, c := range p.fields {
				total += c
			}
			p.tf = float64(total) / n
		}
	}
	return d
}

// fieldsOf returns the configured fields present in the document, sorted.
func (x *Index) fieldsOf(fields map[string]string) []string {
	var names []string
	if len(x.cfg.Fields) == 0 {
		for k := range fields {
			names = append(names, k)
		}
	} else {
		for _, k := range x.cfg.Fields {
			if _, ok := fields[k]; ok {
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)
	return names
}

// insert adds d to every structure (caller holds the write lock).
func (x *Index) insert(d *document) {
	id := d.doc.ID
	x.docs[id] = d
	d.lru = x.order.PushBack(id)
	x.termSum += len(d.doc.Terms)
	for term, p := range d.terms {
		plist, ok := x.postings[term]
		if !ok {
			plist = make(map[string]*posting)
			x.postings[term] = plist
		}
		plist[id] = p
	}
	for _, key := range d.meta {
		set, ok := x.metadata[key]
		if !ok {
			set = make(map[string]struct{})
			x.metadata[key] = set
		}
		set[id] = struct{}{}
	}
}

// remove deletes id from every structure, dropping empty posting lists and
// metadata sets (caller holds the write lock).
func (x *Index) remove(id string) {
	d, ok := x.docs[id]
	if !ok {
		return
	}
	for term := range d.terms {
		if plist, ok := x.postings[term]; ok {
			delete(plist, id)
			if len(plist) == 0 {
				delete(x.postings, term)
			}
		}
	}
	for _, key := range d.meta {
		if set, ok := x.metadata[key]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(x.metadata, key)
			}
		}
	}
	x.termSum -= len(d.doc.Terms)
	x.order.Remove(d.lru)
	delete(x.docs, id)
}

// Stats returns index metrics.
func (x *Index) Stats() domain.IndexStats {
	x.mu.RLock()
	docs, terms, sum := len(x.docs), len(x.postings), x.termSum
	x.mu.RUnlock()

	s := domain.IndexStats{
		TotalDocuments: docs,
		UniqueTerms:    terms,
		SearchCount:    x.searches.Load(),
		Evictions:      x.evictions.Load(),
	}
	if docs > 0 {
		s.AvgTermsPerDocument = float64(sum) / float64(docs)
	}
	if s.SearchCount > 0 {
		s.AverageSearchTimeMs = float64(x.searchNs.Load()) / float64(s.SearchCount) / float64(time.Millisecond)
	}
	return s
}

func metaKey(k, v string) string {
	return strings.ToLower(strings.TrimSpace(k)) + ":" + strings.ToLower(strings.TrimSpace(v))
}

func copyDoc(d domain.IndexedDocument) domain.IndexedDocument {
	out := d
	out.Fields = make(map[string]string, len(d.Fields))
	for k, v := range d.Fields {
		out.Fields[k] = v
	}
	out.Metadata = make(map[string]string, len(d.Metadata))
	for k, v := range d.Metadata {
		out.Metadata[k] = v
	}
	out.Terms = append([]string(nil), d.Terms...)
	return out
}
