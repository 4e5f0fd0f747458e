package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	metricsReset bool
	metricsJSON  bool
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show pipeline metrics",
	Long:  `Shows request volumes, latency, path counts and the most common intents for this process.`,
	RunE:  runMetrics,
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsReset, "reset", false, "reset counters after printing")
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "output metrics as JSON")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	if agentService == nil {
		return fmt.Errorf("agent %w", errNotConfigured)
	}

	m := agentService.GetMetrics()
	if wantJSON(cmd, metricsJSON) {
		if err := printJSON(cmd, m); err != nil {
			return err
		}
	} else {
		cmd.Printf("Processed:     %d (%d ok, %d failed, %d degraded)\n",
			m.TotalProcessed, m.SuccessCount, m.FailureCount, m.DegradedCount)
		cmd.Printf("Paths:         %d fast, %d deep\n", m.FastPathCount, m.DeepPathCount)
		cmd.Printf("Verification:  %d failures\n", m.VerificationFailures)
		cmd.Printf("Avg latency:   %.1fms\n", m.AvgLatencyMs)
		if len(m.TopIntents) > 0 {
			cmd.Println("Top intents:")
			for _, ic := range m.TopIntents {
				cmd.Printf("  %-28s %d\n", ic.Intent, ic.Count)
			}
		}
	}

	if metricsReset {
		agentService.ResetMetrics()
		cmd.Println("Metrics reset.")
	}
	return nil
}
