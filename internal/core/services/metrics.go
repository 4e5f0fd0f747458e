package services

import (
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

// topIntentLimit caps the intents reported by Snapshot.
const topIntentLimit = 5

// Metrics aggregates pipeline outcomes across requests.
type Metrics struct {
	mu           sync.Mutex
	m            domain.AgentMetrics
	totalLatency time.Duration
	intents      map[domain.Intent]int64
	tokens       domain.TokenUsage
}

// NewMetrics creates an empty aggregator.
func NewMetrics() *Metrics {
	return &Metrics{intents: make(map[domain.Intent]int64)}
}

// Record adds one finished request. A nil result counts as a failure.
func (m *Metrics) Record(result *domain.PipelineResult, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.m.TotalProcessed++
	m.totalLatency += latency
	if result == nil {
		m.m.FailureCount++
		return
	}

	m.intents[result.ParsedQuery.Intent]++
	m.tokens = m.tokens.Add(result.Metrics.TokenUsage)

	if result.Meta.Error != "" && result.Meta.Degraded {
		m.m.FailureCount++
	} else {
		m.m.SuccessCount++
	}
	if result.Meta.Degraded {
		m.m.DegradedCount++
	}
	if result.Verification.HasStatus(domain.VerdictContradicted) || result.Verification.Error != "" {
		m.m.VerificationFailures++
	}
	switch result.Meta.Path {
	case domain.PathFast:
		m.m.FastPathCount++
	case domain.PathDeep:
		m.m.DeepPathCount++
	}
}

// Snapshot returns the current metrics.
func (m *Metrics) Snapshot() domain.AgentMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.m
	if out.TotalProcessed > 0 {
		out.AvgLatencyMs = float64(m.totalLatency.Milliseconds()) / float64(out.TotalProcessed)
	}
	out.LLMTokens = m.tokens

	counts := make([]domain.IntentCount, 0, len(m.intents))
	for intent, n := range m.intents {
		counts = append(counts, domain.IntentCount{Intent: intent, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Intent < counts[j].Intent
	})
	if len(counts) > topIntentLimit {
		counts = counts[:topIntentLimit]
	}
	out.TopIntents = counts
	return out
}

// Reset clears every counter.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m = domain.AgentMetrics{}
	m.totalLatency = 0
	m.intents = make(map[domain.Intent]int64)
	m.tokens = domain.TokenUsage{}
}
