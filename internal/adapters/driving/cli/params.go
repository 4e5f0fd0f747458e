package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var paramsSchemaFile string

var paramsCmd = &cobra.Command{
	Use:   "params [text]",
	Short: "Extract structured parameters from text",
	Long: `Asks the language model to extract parameters from free text. With
--schema, the result is validated against a JSON Schema file.`,
	Example: `  airportai params --schema maintenance.json "close stand A1 from 9 to 5 tomorrow"`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runParams,
}

func init() {
	paramsCmd.Flags().StringVar(&paramsSchemaFile, "schema", "", "JSON Schema file the parameters must satisfy")
	rootCmd.AddCommand(paramsCmd)
}

func runParams(cmd *cobra.Command, args []string) error {
	if agentService == nil {
		return fmt.Errorf("agent %w", errNotConfigured)
	}

	var schema []byte
	if paramsSchemaFile != "" {
		data, err := os.ReadFile(paramsSchemaFile)
		if err != nil {
			return fmt.Errorf("failed to read schema: %w", err)
		}
		schema = data
	}

	res, err := agentService.ExtractParameters(cmd.Context(), strings.Join(args, " "), schema)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	return printJSON(cmd, res)
}
