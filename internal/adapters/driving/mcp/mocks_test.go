package mcp

import (
	"context"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driving"
)

// mockAgentService is a mock implementation of driving.AgentService.
type mockAgentService struct {
	result  *domain.PipelineResult
	params  domain.ParameterExtraction
	period  domain.TimePeriod
	metrics domain.AgentMetrics
	err     error

	lastUtterance string
	lastOpts      domain.ProcessOptions
	lastSchema    []byte
	lastTimeOpts  driving.TimeOptions
}

func (m *mockAgentService) ProcessUtterance(
	_ context.Context,
	utterance string,
	opts domain.ProcessOptions,
) (*domain.PipelineResult, error) {
	m.lastUtterance = utterance
	m.lastOpts = opts
	return m.result, m.err
}

func (m *mockAgentService) ExtractParameters(
	_ context.Context,
	_ string,
	schema []byte,
) (domain.ParameterExtraction, error) {
	m.lastSchema = schema
	return m.params, m.err
}

func (m *mockAgentService) ResolveTimeExpression(
	_ context.Context,
	_ string,
	opts driving.TimeOptions,
) (domain.TimePeriod, error) {
	m.lastTimeOpts = opts
	return m.period, m.err
}

func (m *mockAgentService) RefreshVocabulary(_ context.Context) error { return m.err }

func (m *mockAgentService) GetMetrics() domain.AgentMetrics { return m.metrics }

func (m *mockAgentService) ResetMetrics() { m.metrics = domain.AgentMetrics{} }

// mockKnowledgeService is a mock implementation of driving.KnowledgeService.
type mockKnowledgeService struct {
	results []domain.SearchResult
	related []domain.RelatedEntity
	vocab   *domain.VocabularySnapshot
	err     error

	lastQuery   string
	lastSearch  domain.SearchOptions
	lastEntity  string
	lastRelated domain.RelatedOptions
}

func (m *mockKnowledgeService) Rebuild(_ context.Context) error { return m.err }

func (m *mockKnowledgeService) AddDocument(doc domain.DocumentInput) (string, error) {
	return doc.ID, m.err
}

func (m *mockKnowledgeService) RemoveDocument(_ string) error { return m.err }

func (m *mockKnowledgeService) Search(query string, opts domain.SearchOptions) []domain.SearchResult {
	m.lastQuery = query
	m.lastSearch = opts
	return m.results
}

func (m *mockKnowledgeService) Related(entity string, opts domain.RelatedOptions) []domain.RelatedEntity {
	m.lastEntity = entity
	m.lastRelated = opts
	return m.related
}

func (m *mockKnowledgeService) Stats() domain.IndexStats { return domain.IndexStats{} }

func (m *mockKnowledgeService) Vocabulary(_ context.Context) (*domain.VocabularySnapshot, error) {
	return m.vocab, m.err
}
