package inverted

import (
	"math"
	"sort"
	"time"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

// Match factors applied to expanded query terms.
const (
	exactFactor   = 1.0
	synonymFactor = 0.8
	fuzzyFactor   = 0.5
)

// candidate is an index term a query term expands to.
type candidate struct {
	term   string
	factor float64
	boost  float64
}

// Search returns documents ranked by score, highest first; ties are broken
// by document id.
func (x *Index) Search(query string, opts domain.SearchOptions) []domain.SearchResult {
	start := time.Now()
	defer func() {
		x.searches.Add(1)
		x.searchNs.Add(int64(time.Since(start)))
	}()

	qterms := x.tok.tokens(query)
	if len(qterms) == 0 {
		return nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	termBoost := make(map[string]float64, len(opts.BoostTerms))
	for raw, b := range opts.BoostTerms {
		for _, t := range x.tok.tokens(raw) {
			termBoost[t] = b
		}
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	allowed, filtered := x.filter(opts.Metadata)
	if filtered && len(allowed) == 0 {
		return nil
	}

	n := float64(len(x.docs))
	scores := make(map[string]float64)
	matched := make(map[string]map[string]struct{})
	for _, c := range x.expand(qterms, termBoost, opts.FuzzyMatch) {
		plist := x.postings[c.term]
		idf := math.Log(1 + n/float64(len(plist)+1))
		for id, p := range plist {
			if filtered {
				if _, ok := allowed[id]; !ok {
					continue
				}
			}
			scores[id] += p.tf * idf * fieldBoost(p, opts.BoostFields) * c.factor * c.boost
			if matched[id] == nil {
				matched[id] = make(map[string]struct{})
			}
			matched[id][c.term] = struct{}{}
		}
	}

	results := make([]domain.SearchResult, 0, len(scores))
	for id, score := range scores {
		if score <= 0 || score < opts.Threshold {
			continue
		}
		terms := make([]string, 0, len(matched[id]))
		for t := range matched[id] {
			terms = append(terms, t)
		}
		sort.Strings(terms)
		results = append(results, domain.SearchResult{
			Document:     copyDoc(x.docs[id].doc),
			Score:        score,
			MatchedTerms: terms,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.ID < results[j].Document.ID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// filter intersects the metadata sets for every key:value pair
// (caller holds the read lock).
func (x *Index) filter(meta map[string]string) (map[string]struct{}, bool) {
	if len(meta) == 0 {
		return nil, false
	}
	var allowed map[string]struct{}
	for k, v := range meta {
		set := x.metadata[metaKey(k, v)]
		if len(set) == 0 {
			return nil, true
		}
		if allowed == nil {
			allowed = make(map[string]struct{}, len(set))
			for id := range set {
				allowed[id] = struct{}{}
			}
			continue
		}
		for id := range allowed {
			if _, ok := set[id]; !ok {
				delete(allowed, id)
			}
		}
	}
	return allowed, true
}

// expand turns query terms into index terms: the exact term, its synonyms
// when enabled, and with fuzzy matching every index term one substitution,
// insertion or deletion away. Each index term keeps its best factor.
func (x *Index) expand(qterms []string, termBoost map[string]float64, fuzzy bool) []candidate {
	best := make(map[string]candidate)
	add := func(term string, factor, boost float64) {
		if _, ok := x.postings[term]; !ok {
			return
		}
		if cur, ok := best[term]; ok && cur.factor*cur.boost >= factor*boost {
			return
		}
		best[term] = candidate{term: term, factor: factor, boost: boost}
	}

	for _, q := range qterms {
		boost := 1.0
		if b, ok := termBoost[q]; ok && b > 0 {
			boost = b
		}
		add(q, exactFactor, boost)
		if x.cfg.EnableSynonyms || fuzzy {
			for syn := range x.synTerms[q] {
				add(syn, synonymFactor, boost)
			}
		}
		if fuzzy {
			for term := range x.postings {
				if hammingOne(q, term) || insertionOne(q, term) || insertionOne(term, q) {
					add(term, fuzzyFactor, boost)
				}
			}
		}
	}

	out := make([]candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].term < out[j].term })
	return out
}

// fieldBoost averages the boosts of the fields a posting occurs in,
// weighted by occurrences. Unlisted fields count 1.
func fieldBoost(p *posting, boosts map[string]float64) float64 {
	if len(boosts) == 0 {
		return 1
	}
	total, weighted := 0, 0.0
	for field, count := range p.fields {
		b, ok := boosts[field]
		if !ok || b <= 0 {
			b = 1
		}
		total += count
		weighted += b * float64(count)
	}
	if total == 0 {
		return 1
	}
	return weighted / float64(total)
}
