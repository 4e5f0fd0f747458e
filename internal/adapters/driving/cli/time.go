package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driving"
)

var (
	timeRef  string
	timeZone string
	timeLLM  bool
	timeJSON bool
)

var timeCmd = &cobra.Command{
	Use:   "time [expression]",
	Short: "Resolve a time expression",
	Long: `Resolves a natural language time expression such as "tomorrow",
"next week" or "between 9am and 5pm" into a concrete period.`,
	Example: `  airportai time "next Tuesday"
  airportai time --ref 2024-03-04T10:00:00Z --tz Europe/London "this weekend"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTime,
}

func init() {
	timeCmd.Flags().StringVar(&timeRef, "ref", "", "RFC 3339 reference instant (default now)")
	timeCmd.Flags().StringVar(&timeZone, "tz", "", "IANA time zone of the result")
	timeCmd.Flags().BoolVar(&timeLLM, "llm", false, "consult the language model when no rule matches")
	timeCmd.Flags().BoolVar(&timeJSON, "json", false, "output the period as JSON")
	rootCmd.AddCommand(timeCmd)
}

func runTime(cmd *cobra.Command, args []string) error {
	if agentService == nil {
		return fmt.Errorf("agent %w", errNotConfigured)
	}

	opts := driving.TimeOptions{AllowAsync: timeLLM}
	if timeRef != "" {
		ref, err := time.Parse(time.RFC3339, timeRef)
		if err != nil {
			return fmt.Errorf("%w: --ref must be RFC 3339: %v", domain.ErrInvalidInput, err)
		}
		opts.Reference = ref
	}
	if timeZone != "" {
		loc, err := time.LoadLocation(timeZone)
		if err != nil {
			return fmt.Errorf("%w: --tz %q: %v", domain.ErrInvalidInput, timeZone, err)
		}
		opts.Location = loc
	}

	period, err := agentService.ResolveTimeExpression(cmd.Context(), strings.Join(args, " "), opts)
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}
	if wantJSON(cmd, timeJSON) {
		return printJSON(cmd, period)
	}

	if !period.IsKnown() {
		cmd.Printf("Could not resolve %q\n", period.Expression)
		return nil
	}
	cmd.Printf("%s: %s\n", period.Type, period)
	return nil
}
