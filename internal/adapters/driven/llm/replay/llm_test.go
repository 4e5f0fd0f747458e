package replay

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

func request(prompt string) driven.CompletionRequest {
	return driven.CompletionRequest{
		System:   "You are an airport operations assistant.",
		Messages: []driven.ChatMessage{{Role: driven.RoleUser, Content: prompt}},
		JSON:     true,
	}
}

func TestFingerprint_IgnoresModelAndSampling(t *testing.T) {
	a := request("is stand 12A available?")
	b := a
	b.Model = "gpt-4o"
	b.Temperature = 0.7
	b.MaxTokens = 42

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
	assert.Len(t, fa, 64)

	c := a
	c.JSON = false
	fc, err := Fingerprint(c)
	require.NoError(t, err)
	assert.NotEqual(t, fa, fc)
}

func TestLLMService_Complete(t *testing.T) {
	s := New()
	require.NoError(t, s.Add(request("help me"), `{"intent":"help_request"}`))
	s.AddContains("Stand 12A", `{"intent":"stand_status_query"}`)
	ctx := context.Background()

	resp, err := s.Complete(ctx, request("help me"))
	require.NoError(t, err)
	assert.Equal(t, `{"intent":"help_request"}`, resp.Text)
	assert.Equal(t, ModelName, resp.Model)

	resp, err = s.Complete(ctx, request("is stand 12a free?"))
	require.NoError(t, err)
	assert.Equal(t, `{"intent":"stand_status_query"}`, resp.Text)

	_, err = s.Complete(ctx, request("what about tomorrow?"))
	require.ErrorIs(t, err, domain.ErrNoReplay)
	assert.Equal(t, 3, s.Calls())
}

func TestLLMService_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Complete(ctx, request("help me"))

	assert.ErrorIs(t, err, context.Canceled)
}

type stubLLM struct{ driven.LLMService }

func (stubLLM) Complete(_ context.Context, req driven.CompletionRequest) (driven.CompletionResponse, error) {
	if req.Messages[0].Content == "fail" {
		return driven.CompletionResponse{}, errors.New("boom")
	}
	return driven.CompletionResponse{Text: "echo " + req.Messages[0].Content, Usage: domain.TokenUsage{TotalTokens: 7}}, nil
}

func TestRecorder_SaveThenLoad(t *testing.T) {
	rec := NewRecorder(stubLLM{})
	ctx := context.Background()

	_, err := rec.Complete(ctx, request("capacity of T2"))
	require.NoError(t, err)
	_, err = rec.Complete(ctx, request("fail"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, rec.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	resp, err := loaded.Complete(ctx, request("capacity of T2"))
	require.NoError(t, err)
	assert.Equal(t, "echo capacity of T2", resp.Text)
	assert.Equal(t, int64(7), resp.Usage.TotalTokens)

	_, err = loaded.Complete(ctx, request("fail"))
	assert.ErrorIs(t, err, domain.ErrNoReplay)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err = Load(path)
	assert.ErrorContains(t, err, "decode replay fixture")
}
