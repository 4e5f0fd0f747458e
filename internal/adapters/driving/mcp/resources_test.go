package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestExtractEntityID(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"airportai://entities/stand-a1/related", "stand-a1"},
		{"airportai://entities/pier-a/related", "pier-a"},
		{"airportai://entities//related", ""},
		{"airportai://entities/stand-a1", ""},
		{"other://entities/stand-a1/related", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, extractEntityID(tt.uri))
		})
	}
}

func TestServer_handleMetricsResource(t *testing.T) {
	agent := &mockAgentService{metrics: domain.AgentMetrics{TotalProcessed: 7, FastPathCount: 5, DeepPathCount: 2}}
	server := newTestServer(t, agent, nil)

	res, err := server.handleMetricsResource(context.Background(), readRequest("airportai://metrics"))
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)

	var got domain.AgentMetrics
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &got))
	assert.Equal(t, int64(7), got.TotalProcessed)
	assert.Equal(t, int64(2), got.DeepPathCount)
}

func TestServer_handleVocabularyResource(t *testing.T) {
	ctx := context.Background()

	t.Run("groups entries by kind", func(t *testing.T) {
		snap := domain.NewVocabularySnapshot(time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC), []domain.VocabularyEntry{
			{Kind: domain.VocabStand, ID: "stand-a1", PrimaryCode: "A1", DisplayName: "Stand A1"},
			{Kind: domain.VocabTerminal, ID: "t1", PrimaryCode: "T1", AlternateCodes: []string{"TERM1"}, DisplayName: "Terminal 1"},
		})
		server := newTestServer(t, &mockAgentService{}, &mockKnowledgeService{vocab: snap})

		res, err := server.handleVocabularyResource(ctx, readRequest("airportai://vocabulary"))
		require.NoError(t, err)

		var got vocabularyInfo
		require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &got))
		assert.Equal(t, "2024-03-04T08:00:00Z", got.LoadedAt)
		assert.Equal(t, []vocabularyItem{{ID: "t1", Code: "T1", Name: "Terminal 1", Alias: []string{"TERM1"}}},
			got.Entries[domain.VocabTerminal])
		assert.Len(t, got.Entries[domain.VocabStand], 1)
		assert.NotContains(t, got.Entries, domain.VocabAirline)
	})

	t.Run("propagates load error", func(t *testing.T) {
		server := newTestServer(t, &mockAgentService{}, &mockKnowledgeService{err: domain.ErrPortUnavailable})
		_, err := server.handleVocabularyResource(ctx, readRequest("airportai://vocabulary"))
		assert.ErrorIs(t, err, domain.ErrPortUnavailable)
	})

	t.Run("knowledge not wired", func(t *testing.T) {
		server := newTestServer(t, &mockAgentService{}, nil)
		_, err := server.handleVocabularyResource(ctx, readRequest("airportai://vocabulary"))
		assert.Error(t, err)
	})
}

func TestServer_handleRelatedResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns related entities", func(t *testing.T) {
		knowledge := &mockKnowledgeService{related: []domain.RelatedEntity{
			{Entity: "pier-a", Type: "pier", Depth: 1},
			{Entity: "t1", Type: "terminal", Depth: 2},
		}}
		server := newTestServer(t, &mockAgentService{}, knowledge)

		res, err := server.handleRelatedResource(ctx, readRequest("airportai://entities/stand-a1/related"))
		require.NoError(t, err)

		var got []domain.RelatedEntity
		require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &got))
		assert.Equal(t, knowledge.related, got)
		assert.Equal(t, "stand-a1", knowledge.lastEntity)
		assert.True(t, knowledge.lastRelated.IncludeTransitive)
		assert.Equal(t, 2, knowledge.lastRelated.MaxDepth)
	})

	t.Run("no relations is an empty array", func(t *testing.T) {
		server := newTestServer(t, &mockAgentService{}, &mockKnowledgeService{})
		res, err := server.handleRelatedResource(ctx, readRequest("airportai://entities/x/related"))
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, res.Contents[0].Text)
	})

	t.Run("malformed uri", func(t *testing.T) {
		server := newTestServer(t, &mockAgentService{}, &mockKnowledgeService{})
		_, err := server.handleRelatedResource(ctx, readRequest("airportai://entities/x"))
		assert.Error(t, err)
	})
}
