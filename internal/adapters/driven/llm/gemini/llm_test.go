package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

const generateBody = `{
  "candidates": [{"content": {"role": "model", "parts": [{"text": "{\"intent\":\"maintenance_query\"}"}]}, "finishReason": "STOP"}],
  "usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 5, "totalTokenCount": 17},
  "modelVersion": "gemini-2.0-flash-001"
}`

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(context.Background(), LLMConfig{})
	require.Error(t, err)
}

func TestLLMService_Complete(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent"), r.URL.Path)
		assert.Equal(t, "g-test", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(generateBody))
	}))
	defer server.Close()

	s, err := NewLLMService(context.Background(), LLMConfig{APIKey: "g-test", BaseURL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, DefaultLLMModel, s.ModelName())

	resp, err := s.Complete(context.Background(), driven.CompletionRequest{
		System: "classify",
		Messages: []driven.ChatMessage{
			{Role: driven.RoleUser, Content: "any maintenance on stand 12?"},
			{Role: driven.RoleAssistant, Content: "checking"},
			{Role: driven.RoleUser, Content: "tomorrow"},
		},
		JSON: true,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"intent":"maintenance_query"}`, resp.Text)
	assert.Equal(t, "gemini-2.0-flash-001", resp.Model)
	assert.Equal(t, domain.TokenUsage{PromptTokens: 12, CompletionTokens: 5, TotalTokens: 17}, resp.Usage)

	contents, ok := body["contents"].([]any)
	require.True(t, ok)
	assert.Len(t, contents, 3)
	assert.Contains(t, body, "systemInstruction")
	gen, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "application/json", gen["responseMimeType"])
}

func TestLLMService_CompleteEmptyIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	s, err := NewLLMService(context.Background(), LLMConfig{APIKey: "g-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = s.Complete(context.Background(), driven.CompletionRequest{
		Messages: []driven.ChatMessage{{Role: driven.RoleUser, Content: "x"}},
	})
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestLLMService_CompleteRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"code": 429, "message": "quota exceeded", "status": "RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	s, err := NewLLMService(context.Background(), LLMConfig{APIKey: "g-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = s.Complete(context.Background(), driven.CompletionRequest{
		Messages: []driven.ChatMessage{{Role: driven.RoleUser, Content: "x"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.True(t, domain.IsTransient(err))
}
