package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

var timeFixture = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

func TestTimeCmd_Resolves(t *testing.T) {
	start := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	agent := &mockAgentService{period: domain.TimePeriod{
		Type:       domain.PeriodDay,
		Start:      start,
		End:        start.Add(24*time.Hour - time.Millisecond),
		Expression: "tomorrow",
	}}
	setServices(t, agent, nil, nil)

	out, err := executeCommand(t, "", "time", "--ref", "2024-03-04T10:00:00Z", "--tz", "UTC", "--llm", "tomorrow")
	require.NoError(t, err)

	assert.Equal(t, "tomorrow", agent.timeExpr)
	assert.True(t, agent.timeOpts.AllowAsync)
	assert.Equal(t, time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC), agent.timeOpts.Reference)
	assert.Equal(t, time.UTC, agent.timeOpts.Location)
	assert.Contains(t, out, "day: ")
}

func TestTimeCmd_Unknown(t *testing.T) {
	setServices(t, &mockAgentService{period: domain.UnknownPeriod("someday")}, nil, nil)

	out, err := executeCommand(t, "", "time", "someday")
	require.NoError(t, err)
	assert.Contains(t, out, `Could not resolve "someday"`)
}

func TestTimeCmd_InvalidFlags(t *testing.T) {
	setServices(t, &mockAgentService{}, nil, nil)

	_, err := executeCommand(t, "", "time", "--ref", "monday", "today")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = executeCommand(t, "", "time", "--tz", "Nowhere/Land", "today")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParamsCmd_ReadsSchema(t *testing.T) {
	schemaPath := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`{"type":"object"}`), 0o600))

	agent := &mockAgentService{params: domain.ParameterExtraction{Parameters: map[string]any{"stand": "A1"}, Confidence: 0.7}}
	setServices(t, agent, nil, nil)

	out, err := executeCommand(t, "", "params", "--schema", schemaPath, "close", "A1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object"}`, string(agent.schema))
	assert.JSONEq(t, `{"parameters":{"stand":"A1"},"confidence":0.7,"reasoning":null}`, out)
}

func TestParamsCmd_MissingSchemaFile(t *testing.T) {
	setServices(t, &mockAgentService{}, nil, nil)

	_, err := executeCommand(t, "", "params", "--schema", filepath.Join(t.TempDir(), "missing.json"), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read schema")
}

func TestMetricsCmd(t *testing.T) {
	agent := &mockAgentService{metrics: domain.AgentMetrics{
		TotalProcessed: 4,
		SuccessCount:   3,
		FailureCount:   1,
		FastPathCount:  3,
		DeepPathCount:  1,
		AvgLatencyMs:   12.5,
		TopIntents:     []domain.IntentCount{{Intent: domain.IntentStandStatusQuery, Count: 2}},
	}}
	setServices(t, agent, nil, nil)

	out, err := executeCommand(t, "", "metrics")
	require.NoError(t, err)
	assert.Contains(t, out, "Processed:     4 (3 ok, 1 failed, 0 degraded)")
	assert.Contains(t, out, "Paths:         3 fast, 1 deep")
	assert.Contains(t, out, "stand_status_query")
	assert.False(t, agent.reset)

	out, err = executeCommand(t, "", "metrics", "--reset")
	require.NoError(t, err)
	assert.True(t, agent.reset)
	assert.Contains(t, out, "Metrics reset.")
}

func TestDataImportCmd(t *testing.T) {
	agent := &mockAgentService{}
	setServices(t, agent, nil, nil)

	var imported string
	importSeed = func(_ context.Context, path string) error {
		imported = path
		return nil
	}

	out, err := executeCommand(t, "", "data", "import", "seed.yaml")
	require.NoError(t, err)
	assert.Equal(t, "seed.yaml", imported)
	assert.Equal(t, 1, agent.refreshed)
	assert.Contains(t, out, "Imported seed.yaml")
}

func TestDataImportCmd_Failure(t *testing.T) {
	setServices(t, nil, nil, nil)
	importSeed = func(context.Context, string) error { return domain.ErrInvalidInput }

	_, err := executeCommand(t, "", "data", "import", "bad.yaml")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDataImportCmd_NotConfigured(t *testing.T) {
	setServices(t, nil, nil, nil)
	importSeed = nil

	_, err := executeCommand(t, "", "data", "import", "seed.yaml")
	assert.ErrorIs(t, err, errNotConfigured)
}

func TestMCPServeCmd_RequiresAgent(t *testing.T) {
	setServices(t, nil, nil, nil)

	_, err := executeCommand(t, "", "mcp", "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent service is required")
}

func TestExecute_BootstrapsAndCloses(t *testing.T) {
	setServices(t, nil, nil, nil)
	prevGlobals := globals
	t.Cleanup(func() { globals = prevGlobals; bootstrap = nil })

	agent := &mockAgentService{result: sampleResult()}
	var gotFlags GlobalFlags
	closed := false
	boot := func(_ context.Context, flags GlobalFlags) (*Services, error) {
		gotFlags = flags
		return &Services{Agent: agent, Close: func() error { closed = true; return nil }}, nil
	}

	rootCmd.SetArgs([]string{"--provider", "replay", "--seed", "seed.yaml", "ask", "hi"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); resetFlags(rootCmd) })
	rootCmd.SetOut(new(nopWriter))
	rootCmd.SetErr(new(nopWriter))

	require.NoError(t, Execute(context.Background(), "1.0.0", boot))
	assert.Equal(t, "replay", gotFlags.Provider)
	assert.Equal(t, "seed.yaml", gotFlags.SeedFile)
	assert.Equal(t, []string{"hi"}, agent.utterances)
	assert.True(t, closed)
}

func TestExecute_BootstrapError(t *testing.T) {
	setServices(t, nil, nil, nil)
	t.Cleanup(func() { bootstrap = nil })

	rootCmd.SetArgs([]string{"metrics"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	rootCmd.SetOut(new(nopWriter))
	rootCmd.SetErr(new(nopWriter))

	err := Execute(context.Background(), "", func(context.Context, GlobalFlags) (*Services, error) {
		return nil, errors.New("no config")
	})
	assert.EqualError(t, err, "no config")
}

func TestExecute_VersionSkipsBootstrap(t *testing.T) {
	t.Cleanup(func() { bootstrap = nil })
	prev := version
	t.Cleanup(func() { version = prev })

	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	rootCmd.SetOut(new(nopWriter))

	called := false
	err := Execute(context.Background(), "2.0.0", func(context.Context, GlobalFlags) (*Services, error) {
		called = true
		return &Services{}, nil
	})
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, "2.0.0", version)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
