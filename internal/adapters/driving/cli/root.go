// Package cli provides the airportai command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/airportai/internal/core/ports/driving"
)

// Services set by Bootstrap, or directly by tests.
var (
	agentService     driving.AgentService
	knowledgeService driving.KnowledgeService
	settingsService  driving.SettingsService
	importSeed       func(ctx context.Context, path string) error
	version          = "dev"
)

// GlobalFlags are the persistent flags shared by every command.
type GlobalFlags struct {
	Verbose    bool
	LogJSON    bool
	Provider   string
	Model      string
	ReplayFile string
	RecordFile string
	SeedFile   string
	DataDir    string
	ConfigDir  string
}

// Services are the driving ports the commands call.
type Services struct {
	Agent     driving.AgentService
	Knowledge driving.KnowledgeService
	Settings  driving.SettingsService

	// ImportSeed loads a YAML seed into the persistent data store.
	ImportSeed func(ctx context.Context, path string) error

	// Close releases adapters; it may be nil.
	Close func() error
}

// Bootstrap builds the services from the parsed global flags.
type Bootstrap func(ctx context.Context, flags GlobalFlags) (*Services, error)

var (
	globals       GlobalFlags
	bootstrap     Bootstrap
	closeServices func() error
)

// errNotConfigured is returned by commands whose service was not wired.
var errNotConfigured = errors.New("service not configured")

var rootCmd = &cobra.Command{
	Use:   "airportai",
	Short: "Airport planning assistant",
	Long: `airportai answers airport stand, maintenance and flight planning questions.

Questions are classified, answered from the airport data store and the
knowledge index, reasoned about by a language model when needed, and
checked against the retrieved facts before they are returned.`,
	SilenceUsage:      true,
	PersistentPreRunE: runBootstrap,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.BoolVarP(&globals.Verbose, "verbose", "v", false, "print pipeline debug logs to stderr")
	f.BoolVar(&globals.LogJSON, "log-json", false, "emit structured JSON logs")
	f.StringVar(&globals.Provider, "provider", "", "override the LLM provider for this run")
	f.StringVar(&globals.Model, "model", "", "override the default LLM model for this run")
	f.StringVar(&globals.ReplayFile, "replay", "", "answer LLM calls from a recorded fixture file")
	f.StringVar(&globals.RecordFile, "record", "", "record LLM exchanges to a fixture file")
	f.StringVar(&globals.SeedFile, "seed", "", "serve airport data from a YAML seed instead of the database")
	f.StringVar(&globals.DataDir, "data-dir", "", "directory holding the airport database")
	f.StringVar(&globals.ConfigDir, "config-dir", "", "directory holding config.toml and prompts")
}

// Execute runs the root command. bootstrap may be nil when the package
// services are already set.
func Execute(ctx context.Context, v string, b Bootstrap) error {
	if v != "" {
		version = v
	}
	bootstrap = b
	defer func() {
		if closeServices != nil {
			if err := closeServices(); err != nil {
				fmt.Fprintf(rootCmd.ErrOrStderr(), "warning: %v\n", err)
			}
			closeServices = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	if bootstrap == nil || skipBootstrap(cmd) {
		return nil
	}
	svc, err := bootstrap(cmd.Context(), globals)
	if err != nil {
		return err
	}
	agentService = svc.Agent
	knowledgeService = svc.Knowledge
	settingsService = svc.Settings
	importSeed = svc.ImportSeed
	closeServices = svc.Close
	return nil
}

func skipBootstrap(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	return cmd.Parent() != nil && cmd.Parent().Name() == "completion"
}
