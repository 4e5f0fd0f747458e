package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// wantJSON reports whether output should be JSON: when asked for, or when
// stdout is a file or pipe rather than a terminal.
func wantJSON(cmd *cobra.Command, asked bool) bool {
	if asked {
		return true
	}
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && !term.IsTerminal(int(f.Fd()))
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
