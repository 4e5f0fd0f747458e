package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Manage the airport data store",
}

var dataImportCmd = &cobra.Command{
	Use:   "import [seed.yaml]",
	Short: "Replace the airport database with a YAML seed",
	Long: `Loads terminals, piers, stands, aircraft types, airlines, utilisation,
maintenance, flights and operational settings from a YAML seed file into the
SQLite database, replacing what was there. The import is atomic: a seed
that fails validation leaves the database unchanged.

After importing, the vocabulary and knowledge index are rebuilt.`,
	Args: cobra.ExactArgs(1),
	RunE: runDataImport,
}

func init() {
	dataCmd.AddCommand(dataImportCmd)
	rootCmd.AddCommand(dataCmd)
}

func runDataImport(cmd *cobra.Command, args []string) error {
	if importSeed == nil {
		return fmt.Errorf("data import %w", errNotConfigured)
	}
	if err := importSeed(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	cmd.Printf("Imported %s\n", args[0])

	if agentService != nil {
		if err := agentService.RefreshVocabulary(cmd.Context()); err != nil {
			cmd.Printf("Warning: vocabulary refresh failed: %v\n", err)
		}
	}
	return nil
}
