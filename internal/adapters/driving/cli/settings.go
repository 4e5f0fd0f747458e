package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the LLM provider, pipeline thresholds, index and
verification options.

Settings live in config.toml under the airportai home directory
($AIRPORTAI_HOME or ~/.airportai). Edit the file directly for thresholds;
use the llm subcommand to configure a provider interactively.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used for intent fallback, reasoning and verification.`,
	RunE:  runSettingsLLM,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configured LLM provider is reachable",
	RunE:  runSettingsValidate,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	llm := settings.LLM
	cmd.Println("[LLM]")
	if llm.Provider.IsValid() {
		cmd.Printf("  Provider: %s\n", llm.Provider.Description())
	} else {
		cmd.Println("  Provider: (not set)")
	}
	cmd.Printf("  Default model: %s\n", llm.DefaultModel)
	if llm.FallbackModel != "" {
		cmd.Printf("  Fallback model: %s\n", llm.FallbackModel)
	}
	if llm.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", llm.BaseURL)
	}
	if llm.Provider == domain.AIProviderReplay {
		cmd.Printf("  Replay file: %s\n", llm.ReplayFile)
	}
	if llm.Provider.RequiresAPIKey() {
		if llm.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(llm.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Printf("  Timeouts: %s call, %s intent, %s reasoning\n", llm.Timeout, llm.IntentTimeout, llm.DeepReasoningTimeout)
	cmd.Printf("  Retries: %d (fallback after retries: %t)\n", llm.MaxRetries, llm.UseFallbackAfterRetries)
	status := "configured"
	if !llm.IsConfigured() {
		status = "not configured (pipeline runs degraded)"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	p := settings.Pipeline
	cmd.Println("[Pipeline]")
	cmd.Printf("  Intent confidence threshold: %.2f\n", p.IntentConfidenceThreshold)
	cmd.Printf("  Entity confidence threshold: %.2f\n", p.EntityConfidenceThreshold)
	cmd.Printf("  Vocabulary cache TTL: %s\n", p.EntityCacheTTL)
	cmd.Printf("  Request deadline: %s\n", p.RequestDeadline)
	cmd.Printf("  Max knowledge items per prompt: %d\n", p.MaxKnowledgeItemsPerPrompt)
	cmd.Printf("  Max history turns: %d\n", p.MaxHistoryTurns)
	cmd.Printf("  Max reasoning steps: %d\n", p.MaxReasoningSteps)
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Max size: %d\n", settings.Index.MaxIndexSize)
	cmd.Printf("  Synonyms: %t  Stemming: %t\n", settings.Index.EnableSynonyms, settings.Index.EnableStemming)
	cmd.Println()

	cmd.Println("[Verification]")
	cmd.Printf("  Enabled: %t  Strict: %t\n", settings.Verification.Enabled, settings.Verification.Strict)
	cmd.Printf("  Min fact confidence: %.2f\n", settings.Verification.MinFactConfidence)
	cmd.Println()

	cmd.Println("[Data]")
	cmd.Printf("  Data dir: %s\n", valueOr(settings.Data.DataDir, "(default)"))
	cmd.Printf("  Seed file: %s\n", valueOr(settings.Data.SeedFile, "(none)"))
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'airportai settings llm' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return configureLLMProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Validate(); err != nil {
		return err
	}
	cmd.Print("Validating LLM provider... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")
	return nil
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	defaultModel := domain.DefaultLLMModels()[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal, else a plain line.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
