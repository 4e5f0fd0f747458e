package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/airportai/internal/adapters/driven/llm"
	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

const messageBody = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-3-5-haiku-20241022",
  "content": [{"type": "text", "text": "{\"claims\":[]}"}],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 30, "output_tokens": 4}
}`

func TestLLMService_Complete(t *testing.T) {
	var body struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    []struct {
			Text string `json:"text"`
		} `json:"system"`
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(messageBody))
	}))
	defer server.Close()

	s, err := NewLLMService(LLMConfig{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := s.Complete(context.Background(), driven.CompletionRequest{
		System: "Extract claims.",
		Messages: []driven.ChatMessage{
			{Role: driven.RoleUser, Content: "Stand A1 is active."},
			{Role: driven.RoleAssistant, Content: "ok"},
			{Role: driven.RoleUser, Content: "again"},
		},
		JSON: true,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"claims":[]}`, resp.Text)
	assert.Equal(t, "claude-3-5-haiku-20241022", resp.Model)
	assert.Equal(t, domain.TokenUsage{PromptTokens: 30, CompletionTokens: 4, TotalTokens: 34}, resp.Usage)
	assert.Equal(t, DefaultLLMModel, body.Model)
	assert.Equal(t, DefaultMaxTokens, body.MaxTokens)
	require.Len(t, body.System, 1)
	assert.Contains(t, body.System[0].Text, llm.JSONInstruction)
	require.Len(t, body.Messages, 3)
	assert.Equal(t, "assistant", body.Messages[1].Role)
}

func TestLLMService_CompleteOverloaded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(529)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	}))
	defer server.Close()

	s, err := NewLLMService(LLMConfig{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = s.Complete(context.Background(), driven.CompletionRequest{
		Messages: []driven.ChatMessage{{Role: driven.RoleUser, Content: "x"}},
	})

	require.ErrorIs(t, err, domain.ErrProviderStatus)
}

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	assert.Error(t, err)
}
