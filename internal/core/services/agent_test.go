package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
	"github.com/custodia-labs/airportai/internal/core/ports/driving"
)

type agentFixture struct {
	agent *AgentService
	data  *mockAirportData
	llm   *mockLLM
}

// newTestAgent wires the pipeline over the mocks. A nil llm leaves the LLM unconfigured.
func newTestAgent(data *mockAirportData, llm *mockLLM, mutate ...func(*AgentConfig)) agentFixture {
	cfg := AgentConfigFromSettings(domain.DefaultAppSettings())
	for _, fn := range mutate {
		fn(&cfg)
	}
	clock := fixedClock(refTime)

	var caps driven.LLMCapabilities
	if llm != nil {
		caps = llm
	}
	var vocab *VocabularyCache
	var port driven.AirportData
	if data != nil {
		port = data
		vocab = NewVocabularyCache(data, time.Hour, clock, nil)
	}
	times := NewTimeResolver(TimeResolverConfig{Location: time.UTC, LLMTimeout: cfg.LLMTimeout}, caps, clock)

	agent := NewAgentService(cfg, AgentDeps{
		Normalizer: NewNormalizer(clock),
		Extractor:  NewExtractor(ExtractorConfig{}, nil, times, vocab, caps, clock, nil),
		Retriever:  NewRetriever(RetrieverConfig{}, port, nil, nil),
		Verifier:   NewVerifier(VerifierConfig{CallTimeout: cfg.LLMTimeout}, caps, nil),
		Times:      times,
		Vocabulary: vocab,
		LLM:        caps,
		Clock:      clock,
	})
	return agentFixture{agent: agent, data: data, llm: llm}
}

func TestAgentService_HelpUsesTemplate(t *testing.T) {
	f := newTestAgent(newMockAirportData(), &mockLLM{})

	res, err := f.agent.ProcessUtterance(context.Background(), "help me", domain.ProcessOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.IntentHelpRequest, res.ParsedQuery.Intent)
	assert.Equal(t, "help.get", res.Action.Capability)
	assert.Equal(t, domain.PathTemplate, res.Meta.Path)
	assert.True(t, res.Meta.Verified)
	assert.False(t, res.Meta.Degraded)
	assert.Equal(t, StageFinalize, res.Meta.Stage)
	assert.Contains(t, res.Response.Text, "is stand 12A available?")
	assert.Len(t, res.Response.SuggestedActions, 3)
	assert.Zero(t, f.llm.calls.Load())
	assert.Zero(t, res.Metrics.LLMCalls)
	assert.Zero(t, f.data.callCount("GetOperationalSettings"))
}

func TestAgentService_Greeting(t *testing.T) {
	f := newTestAgent(nil, nil)

	res, err := f.agent.ProcessUtterance(context.Background(), "Hello!", domain.ProcessOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.IntentGreeting, res.ParsedQuery.Intent)
	assert.Equal(t, greetingText, res.Response.Text)
	assert.Equal(t, domain.PathTemplate, res.Meta.Path)
}

func TestAgentService_FastPath(t *testing.T) {
	const answer = "Terminal 2 has one stand, 12A, which is occupied."
	llm := supportingLLM(answer)
	var gotOpts domain.AnswerOptions
	var gotItems int
	generate := llm.generateAnswer
	llm.generateAnswer = func(ctx context.Context, prompt string, items []domain.KnowledgeItem, opts domain.AnswerOptions) (domain.GeneratedAnswer, error) {
		gotOpts, gotItems = opts, len(items)
		return generate(ctx, prompt, items, opts)
	}
	f := newTestAgent(newMockAirportData(), llm)

	res, err := f.agent.ProcessUtterance(context.Background(), "show capacity for Terminal 2 tomorrow", domain.ProcessOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.IntentCapacityQuery, res.ParsedQuery.Intent)
	assert.Equal(t, "capacity.query", res.Action.Capability)
	assert.Equal(t, domain.PathFast, res.Meta.Path)
	assert.Nil(t, res.ReasoningTrace)
	assert.Nil(t, gotOpts.Trace)
	assert.True(t, gotOpts.IncludeSpeech)
	assert.Equal(t, 3, gotItems)

	assert.Equal(t, answer, res.Response.Text)
	assert.Equal(t, answer, res.Response.Speech)
	assert.True(t, res.Meta.Verified)
	assert.False(t, res.Meta.Degraded)
	assert.Empty(t, res.Meta.Error)

	assert.Equal(t, 3, res.Metrics.FactCount)
	assert.Equal(t, []string{"GenerateAnswer", "ExtractClaims", "VerifyClaims"}, f.llm.methods())
	assert.Equal(t, 3, res.Metrics.LLMCalls)
	assert.Equal(t, int64(30), res.Metrics.TokenUsage.TotalTokens)
}

func TestAgentService_WhatIfTakesDeepPath(t *testing.T) {
	llm := supportingLLM("Closing A1 leaves one code C stand on pier A.")
	var gotDomain string
	var gotTrace *domain.ReasoningTrace
	reason, generate := llm.reason, llm.generateAnswer
	llm.reason = func(ctx context.Context, q string, items []domain.KnowledgeItem, opts domain.ReasonOptions) (domain.ReasoningTrace, error) {
		gotDomain = opts.Domain
		assert.Equal(t, 5, opts.MaxSteps)
		assert.True(t, opts.RequireExplanations)
		return reason(ctx, q, items, opts)
	}
	llm.generateAnswer = func(ctx context.Context, prompt string, items []domain.KnowledgeItem, opts domain.AnswerOptions) (domain.GeneratedAnswer, error) {
		gotTrace = opts.Trace
		return generate(ctx, prompt, items, opts)
	}
	f := newTestAgent(newMockAirportData(), llm)

	res, err := f.agent.ProcessUtterance(context.Background(), "what if we close stand A1 tomorrow", domain.ProcessOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.IntentWhatIfAnalysis, res.ParsedQuery.Intent)
	assert.Equal(t, "scenario.what_if", res.Action.Capability)
	assert.Equal(t, domain.PathDeep, res.Meta.Path)
	assert.Equal(t, "scenario", gotDomain)
	require.NotNil(t, res.ReasoningTrace)
	assert.Len(t, res.ReasoningTrace.Steps, 1)
	assert.Equal(t, "scenario", res.ReasoningTrace.Domain)
	assert.Same(t, res.ReasoningTrace, gotTrace)
	assert.True(t, res.Meta.Verified)
}

func TestAgentService_ThinEvidenceTakesDeepPath(t *testing.T) {
	f := newTestAgent(newMockAirportData(), supportingLLM("Stand 12A is occupied."))

	res, err := f.agent.ProcessUtterance(context.Background(), "is stand 12A available?", domain.ProcessOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.IntentStandStatusQuery, res.ParsedQuery.Intent)
	assert.Equal(t, 1, res.Metrics.FactCount)
	assert.Equal(t, domain.PathDeep, res.Meta.Path)
	assert.Equal(t, "available", res.ParsedQuery.Entities.Text(domain.EntityMaintenanceStatus))
}

func TestAgentService_ExplicitAnalysisTakesDeepPath(t *testing.T) {
	f := newTestAgent(newMockAirportData(), supportingLLM("Utilisation is low because A2 is closed."))

	res, err := f.agent.ProcessUtterance(context.Background(), "why is utilisation so low today", domain.ProcessOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.IntentUtilizationQuery, res.ParsedQuery.Intent)
	assert.Equal(t, domain.PathDeep, res.Meta.Path)
}

func TestAgentService_ReasoningFailureFallsBackToFastPath(t *testing.T) {
	llm := supportingLLM("Closing A1 is manageable.")
	llm.reason = nil
	f := newTestAgent(newMockAirportData(), llm)

	res, err := f.agent.ProcessUtterance(context.Background(), "what if we close stand A1 tomorrow", domain.ProcessOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.PathFast, res.Meta.Path)
	assert.Nil(t, res.ReasoningTrace)
	assert.False(t, res.Meta.Degraded)
	assert.Equal(t, "Closing A1 is manageable.", res.Response.Text)
	assert.Contains(t, f.llm.methods(), "Reason")
}

func TestAgentService_AnswerFailureDegrades(t *testing.T) {
	llm := &mockLLM{generateAnswer: func(context.Context, string, []domain.KnowledgeItem, domain.AnswerOptions) (domain.GeneratedAnswer, error) {
		return domain.GeneratedAnswer{}, errBoom
	}}
	f := newTestAgent(newMockAirportData(), llm)

	res, err := f.agent.ProcessUtterance(context.Background(), "show capacity for Terminal 2 tomorrow", domain.ProcessOptions{})

	require.NoError(t, err)
	assert.True(t, res.Meta.Degraded)
	assert.True(t, res.Meta.IsFallback)
	assert.False(t, res.Meta.Verified)
	assert.Equal(t, "boom", res.Meta.Error)
	assert.Equal(t, domain.PathTemplate, res.Meta.Path)
	assert.True(t, strings.HasPrefix(res.Response.Text, fallbackTexts[domain.IntentCapacityQuery]))
	assert.Contains(t, res.Response.Text, "(3 records)")
	assert.NotContains(t, f.llm.methods(), "ExtractClaims")
}

func TestAgentService_NoLLMDegrades(t *testing.T) {
	f := newTestAgent(newMockAirportData(), nil)

	res, err := f.agent.ProcessUtterance(context.Background(), "show capacity for Terminal 2 tomorrow", domain.ProcessOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.IntentCapacityQuery, res.ParsedQuery.Intent)
	assert.True(t, res.Meta.Degraded)
	assert.Equal(t, domain.ErrLLMUnavailable.Error(), res.Meta.Error)
	assert.Equal(t, 3, res.Metrics.FactCount)
}

func TestAgentService_UnknownIntentWithFailingLLM(t *testing.T) {
	f := newTestAgent(newMockAirportData(), &mockLLM{})

	res, err := f.agent.ProcessUtterance(context.Background(), "tell me a story", domain.ProcessOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.IntentUnknown, res.ParsedQuery.Intent)
	assert.True(t, res.Meta.Degraded)
	assert.Equal(t, fallbackTexts[domain.IntentUnknown], res.Response.Text)
	assert.Empty(t, res.Action.Capability)
}

func TestAgentService_EmptyInput(t *testing.T) {
	f := newTestAgent(nil, nil)

	for _, in := range []string{"", "   \t"} {
		res, err := f.agent.ProcessUtterance(context.Background(), in, domain.ProcessOptions{})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Nil(t, res)
	}
	assert.Zero(t, f.agent.GetMetrics().TotalProcessed)
}

func TestAgentService_DeadlineDuringRetrieval(t *testing.T) {
	data := newMockAirportData()
	data.block = map[string]bool{"GetStandUtilization": true}
	f := newTestAgent(data, supportingLLM("never used"))

	res, err := f.agent.ProcessUtterance(context.Background(), "show capacity for Terminal 2 tomorrow",
		domain.ProcessOptions{Deadline: 30 * time.Millisecond})

	require.NoError(t, err)
	assert.True(t, res.Meta.Degraded)
	assert.Equal(t, domain.ErrDeadlineExceeded.Error(), res.Meta.Error)
	assert.Equal(t, domain.PathTemplate, res.Meta.Path)
	assert.NotEmpty(t, res.KnowledgeBundle.Warnings)
	assert.NotContains(t, f.llm.methods(), "GenerateAnswer")
}

func TestAgentService_SubstitutesCorrection(t *testing.T) {
	newLLM := func(confidence float64) *mockLLM {
		llm := supportingLLM("Terminal 2 has no stands.")
		llm.verifyClaims = func(claims []domain.Claim, _ []domain.KnowledgeItem) ([]domain.ClaimVerdict, error) {
			return []domain.ClaimVerdict{{Status: domain.VerdictContradicted, Confidence: confidence,
				SuggestedCorrection: "Terminal 2 has one stand, 12A."}}, nil
		}
		llm.correct = func(_ string, c []domain.Correction) (string, error) {
			return c[0].SuggestedCorrection, nil
		}
		return llm
	}

	t.Run("low confidence substitutes", func(t *testing.T) {
		f := newTestAgent(newMockAirportData(), newLLM(0.2))
		res, err := f.agent.ProcessUtterance(context.Background(), "show capacity for Terminal 2 tomorrow", domain.ProcessOptions{})
		require.NoError(t, err)
		assert.Equal(t, "Terminal 2 has one stand, 12A.", res.Response.Text)
		assert.Empty(t, res.Response.Speech)
		assert.False(t, res.Meta.Verified)
		assert.Equal(t, "Terminal 2 has one stand, 12A.", res.Verification.CorrectedResponse)
	})

	t.Run("confident verdict keeps draft", func(t *testing.T) {
		f := newTestAgent(newMockAirportData(), newLLM(0.95))
		res, err := f.agent.ProcessUtterance(context.Background(), "show capacity for Terminal 2 tomorrow", domain.ProcessOptions{})
		require.NoError(t, err)
		assert.Equal(t, "Terminal 2 has no stands.", res.Response.Text)
		assert.False(t, res.Meta.Verified)
		assert.NotEmpty(t, res.Verification.CorrectedResponse)
	})
}

func TestAgentService_VerificationDisabled(t *testing.T) {
	f := newTestAgent(newMockAirportData(), supportingLLM("ok"), func(c *AgentConfig) {
		c.VerificationEnabled = false
	})

	res, err := f.agent.ProcessUtterance(context.Background(), "show capacity for Terminal 2 tomorrow", domain.ProcessOptions{})

	require.NoError(t, err)
	assert.True(t, res.Meta.Verified)
	assert.Equal(t, []string{"GenerateAnswer"}, f.llm.methods())
}

func TestAgentService_Visualization(t *testing.T) {
	f := newTestAgent(newMockAirportData(), supportingLLM("Here is the chart."))

	res, err := f.agent.ProcessUtterance(context.Background(), "plot utilisation as a bar chart", domain.ProcessOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.IntentVisualization, res.ParsedQuery.Intent)
	require.Len(t, res.Response.Visualizations, 1)
	assert.Equal(t, "bar_chart", res.Response.Visualizations[0].Type)
}

func TestAgentService_BoundsHistory(t *testing.T) {
	llm := supportingLLM("ok")
	var got []domain.ConversationTurn
	generate := llm.generateAnswer
	llm.generateAnswer = func(ctx context.Context, prompt string, items []domain.KnowledgeItem, opts domain.AnswerOptions) (domain.GeneratedAnswer, error) {
		got = opts.History
		return generate(ctx, prompt, items, opts)
	}
	f := newTestAgent(newMockAirportData(), llm, func(c *AgentConfig) { c.MaxHistoryTurns = 3 })

	history := make([]domain.ConversationTurn, 10)
	for i := range history {
		history[i] = domain.ConversationTurn{Role: "user", Text: fmt.Sprintf("turn %d", i)}
	}
	_, err := f.agent.ProcessUtterance(context.Background(), "show capacity for Terminal 2 tomorrow",
		domain.ProcessOptions{ConversationHistory: history})

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "turn 9", got[2].Text)
}

func TestAgentService_ConcurrentRequests(t *testing.T) {
	f := newTestAgent(newMockAirportData(), supportingLLM("ok"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.agent.ProcessUtterance(context.Background(), "show capacity for Terminal 2 tomorrow", domain.ProcessOptions{})
			assert.NoError(t, err)
			assert.Equal(t, domain.PathFast, res.Meta.Path)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(8), f.agent.GetMetrics().TotalProcessed)
}

func TestAgentService_Metrics(t *testing.T) {
	f := newTestAgent(newMockAirportData(), supportingLLM("ok"))
	ctx := context.Background()

	_, _ = f.agent.ProcessUtterance(ctx, "help", domain.ProcessOptions{})
	_, _ = f.agent.ProcessUtterance(ctx, "show capacity for Terminal 2 tomorrow", domain.ProcessOptions{})

	m := f.agent.GetMetrics()
	assert.Equal(t, int64(2), m.TotalProcessed)
	assert.Equal(t, int64(2), m.SuccessCount)
	assert.Equal(t, int64(1), m.FastPathCount)
	assert.Len(t, m.TopIntents, 2)
	assert.Equal(t, int64(30), m.LLMTokens.TotalTokens)

	f.agent.ResetMetrics()
	assert.Zero(t, f.agent.GetMetrics().TotalProcessed)
}

func TestAgentService_ResolveTimeExpression(t *testing.T) {
	f := newTestAgent(nil, nil)
	ctx := context.Background()

	t.Run("time range", func(t *testing.T) {
		p, err := f.agent.ResolveTimeExpression(ctx, "between 9am and 5pm", driving.TimeOptions{Reference: refTime})
		require.NoError(t, err)
		assert.Equal(t, domain.PeriodTimeRange, p.Type)
		assert.True(t, day(2024, 6, 10).Add(9*time.Hour).Equal(p.Start))
		assert.True(t, day(2024, 6, 10).Add(18*time.Hour-time.Millisecond).Equal(p.End))
	})

	t.Run("zero reference uses clock", func(t *testing.T) {
		p, err := f.agent.ResolveTimeExpression(ctx, "tomorrow", driving.TimeOptions{})
		require.NoError(t, err)
		assert.True(t, day(2024, 6, 11).Equal(p.Start))
	})

	t.Run("location", func(t *testing.T) {
		zone := time.FixedZone("UTC+2", 2*60*60)
		p, err := f.agent.ResolveTimeExpression(ctx, "today", driving.TimeOptions{Reference: refTime, Location: zone})
		require.NoError(t, err)
		assert.True(t, time.Date(2024, 6, 10, 0, 0, 0, 0, zone).Equal(p.Start))
		assert.Equal(t, zone, p.Start.Location())
	})

	t.Run("unknown is not an error", func(t *testing.T) {
		p, err := f.agent.ResolveTimeExpression(ctx, "after the festival", driving.TimeOptions{Reference: refTime})
		require.NoError(t, err)
		assert.Equal(t, domain.PeriodUnknown, p.Type)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := f.agent.ResolveTimeExpression(ctx, " ", driving.TimeOptions{})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestAgentService_ExtractParameters(t *testing.T) {
	ctx := context.Background()
	schema := []byte(`{"type":"object","properties":{"standId":{"type":"string"}}}`)

	t.Run("empty prompt", func(t *testing.T) {
		_, err := newTestAgent(nil, nil).agent.ExtractParameters(ctx, "", schema)
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("no LLM", func(t *testing.T) {
		out, err := newTestAgent(nil, nil).agent.ExtractParameters(ctx, "close stand A1", schema)
		require.NoError(t, err)
		assert.Empty(t, out.Parameters)
		assert.Equal(t, []string{domain.ErrLLMUnavailable.Error()}, out.Reasoning)
	})

	t.Run("success", func(t *testing.T) {
		llm := &mockLLM{extractParams: func(prompt string, s []byte) (domain.ParameterExtraction, error) {
			assert.Equal(t, schema, s)
			return domain.ParameterExtraction{Parameters: map[string]any{"standId": "A1"}, Confidence: 0.9}, nil
		}}
		out, err := newTestAgent(nil, llm).agent.ExtractParameters(ctx, "close stand A1", schema)
		require.NoError(t, err)
		assert.Equal(t, "A1", out.Parameters["standId"])
	})

	t.Run("invalid schema surfaces", func(t *testing.T) {
		llm := &mockLLM{extractParams: func(string, []byte) (domain.ParameterExtraction, error) {
			return domain.ParameterExtraction{}, fmt.Errorf("%w: schema does not compile", domain.ErrInvalidInput)
		}}
		_, err := newTestAgent(nil, llm).agent.ExtractParameters(ctx, "close stand A1", []byte(`{`))
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("LLM failure degrades", func(t *testing.T) {
		out, err := newTestAgent(nil, &mockLLM{}).agent.ExtractParameters(ctx, "close stand A1", schema)
		require.NoError(t, err)
		assert.Empty(t, out.Parameters)
		assert.NotEmpty(t, out.Reasoning)
	})
}

func TestAgentService_RefreshVocabulary(t *testing.T) {
	err := newTestAgent(nil, nil).agent.RefreshVocabulary(context.Background())
	require.ErrorIs(t, err, domain.ErrPortUnavailable)

	f := newTestAgent(newMockAirportData(), nil)
	require.NoError(t, f.agent.RefreshVocabulary(context.Background()))
	assert.Equal(t, int64(1), f.data.callCount("ListStands"))
}
