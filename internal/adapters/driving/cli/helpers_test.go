package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

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

	utterances []string
	opts       []domain.ProcessOptions
	schema     []byte
	timeExpr   string
	timeOpts   driving.TimeOptions
	refreshed  int
	reset      bool
}

func (m *mockAgentService) ProcessUtterance(
	_ context.Context,
	utterance string,
	opts domain.ProcessOptions,
) (*domain.PipelineResult, error) {
	m.utterances = append(m.utterances, utterance)
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockAgentService) ExtractParameters(_ context.Context, _ string, schema []byte) (domain.ParameterExtraction, error) {
	m.schema = schema
	return m.params, m.err
}

func (m *mockAgentService) ResolveTimeExpression(
	_ context.Context,
	expr string,
	opts driving.TimeOptions,
) (domain.TimePeriod, error) {
	m.timeExpr = expr
	m.timeOpts = opts
	return m.period, m.err
}

func (m *mockAgentService) RefreshVocabulary(_ context.Context) error {
	m.refreshed++
	return m.err
}

func (m *mockAgentService) GetMetrics() domain.AgentMetrics { return m.metrics }

func (m *mockAgentService) ResetMetrics() { m.reset = true }

// mockKnowledgeService is a mock implementation of driving.KnowledgeService.
type mockKnowledgeService struct {
	results []domain.SearchResult
	related []domain.RelatedEntity
	stats   domain.IndexStats
	vocab   *domain.VocabularySnapshot
	err     error

	searchQuery string
	searchOpts  domain.SearchOptions
	added       []domain.DocumentInput
	removed     []string
	relatedOpts domain.RelatedOptions
	rebuilt     bool
}

func (m *mockKnowledgeService) Rebuild(_ context.Context) error {
	m.rebuilt = true
	return m.err
}

func (m *mockKnowledgeService) AddDocument(doc domain.DocumentInput) (string, error) {
	m.added = append(m.added, doc)
	if doc.ID == "" {
		return "generated-id", m.err
	}
	return doc.ID, m.err
}

func (m *mockKnowledgeService) RemoveDocument(id string) error {
	m.removed = append(m.removed, id)
	return m.err
}

func (m *mockKnowledgeService) Search(query string, opts domain.SearchOptions) []domain.SearchResult {
	m.searchQuery = query
	m.searchOpts = opts
	return m.results
}

func (m *mockKnowledgeService) Related(_ string, opts domain.RelatedOptions) []domain.RelatedEntity {
	m.relatedOpts = opts
	return m.related
}

func (m *mockKnowledgeService) Stats() domain.IndexStats { return m.stats }

func (m *mockKnowledgeService) Vocabulary(_ context.Context) (*domain.VocabularySnapshot, error) {
	return m.vocab, m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	llmErr      error

	provider domain.AIProvider
	model    string
	apiKey   string
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.provider, m.model, m.apiKey = provider, model, apiKey
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateLLMConfig() error { return m.llmErr }

// setServices installs services for one test and restores the previous ones.
func setServices(t *testing.T, agent driving.AgentService, knowledge driving.KnowledgeService, settings driving.SettingsService) {
	t.Helper()
	prevAgent, prevKnowledge, prevSettings, prevImport := agentService, knowledgeService, settingsService, importSeed
	agentService, knowledgeService, settingsService = agent, knowledge, settings
	t.Cleanup(func() {
		agentService, knowledgeService, settingsService, importSeed = prevAgent, prevKnowledge, prevSettings, prevImport
	})
}

// executeCommand runs the root command with args and returns its output.
// Flags are reset afterwards so values do not leak between tests.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
