package inverted

import (
	"sort"
	"strings"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

// AddTermSynonyms registers bidirectional synonyms. The graph keeps the
// lower-cased surface forms; query expansion works on their stemmed terms.
func (x *Index) AddTermSynonyms(term string, synonyms []string) {
	t := surface(term)
	if t == "" {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, s := range synonyms {
		syn := surface(s)
		if syn == "" || syn == t {
			continue
		}
		link(x.synonyms, t, syn)
		link(x.synonyms, syn, t)
		if a, b := x.tok.term(t), x.tok.term(syn); a != b {
			link(x.synTerms, a, b)
			link(x.synTerms, b, a)
		}
	}
}

func surface(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func link(graph map[string]map[string]struct{}, a, b string) {
	set, ok := graph[a]
	if !ok {
		set = make(map[string]struct{})
		graph[a] = set
	}
	set[b] = struct{}{}
}

// TermSynonyms returns the registered synonyms of term in sorted order.
func (x *Index) TermSynonyms(term string) []string {
	t := surface(term)
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]string, 0, len(x.synonyms[t]))
	for s := range x.synonyms[t] {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// AddEntityRelationships registers outgoing edges of entity. Duplicate edges
// are ignored.
func (x *Index) AddEntityRelationships(entity string, relations []domain.Relationship) {
	entity = strings.TrimSpace(entity)
	if entity == "" {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	existing := x.edges[entity]
	for _, r := range relations {
		if r.Target == "" || r.Target == entity {
			continue
		}
		dup := false
		for _, e := range existing {
			if e == r {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, r)
		}
	}
	x.edges[entity] = existing
}

// RelatedEntities traverses relationships breadth-first from entity. Without
// IncludeTransitive only direct neighbours are returned; otherwise the walk
// stops at MaxDepth (default 3). A visited set guards against cycles.
func (x *Index) RelatedEntities(entity string, opts domain.RelatedOptions) []domain.RelatedEntity {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	maxDepth := 1
	if opts.IncludeTransitive {
		maxDepth = opts.MaxDepth
		if maxDepth <= 0 {
			maxDepth = 3
		}
	}
	var types map[string]bool
	if len(opts.Types) > 0 {
		types = make(map[string]bool, len(opts.Types))
		for _, t := range opts.Types {
			types[t] = true
		}
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	type node struct {
		entity string
		depth  int
	}
	visited := map[string]bool{entity: true}
	queue := []node{{entity, 0}}
	var out []domain.RelatedEntity
	for len(queue) > 0 && len(out) < limit {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		for _, e := range x.edges[cur.entity] {
			if types != nil && !types[e.Type] {
				continue
			}
			if visited[e.Target] {
				continue
			}
			visited[e.Target] = true
			out = append(out, domain.RelatedEntity{Entity: e.Target, Type: e.Type, Depth: cur.depth + 1})
			if len(out) == limit {
				break
			}
			queue = append(queue, node{e.Target, cur.depth + 1})
		}
	}
	return out
}
