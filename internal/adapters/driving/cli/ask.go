package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

var (
	askSession     string
	askRole        string
	askDeadline    time.Duration
	askJSON        bool
	askInteractive bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a planning question",
	Long: `Runs one utterance through the reasoning pipeline and prints the answer.

Use -i to start an interactive session; earlier turns are passed to the
pipeline as conversation history. Type "exit" or an empty line to stop.`,
	Example: `  airportai ask "what is the utilisation of stand A1 tomorrow?"
  airportai ask --json "why is pier B congested on Friday?"
  airportai ask -i --role planner`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askSession, "session", "", "conversation identifier")
	askCmd.Flags().StringVar(&askRole, "role", "", "role of the asking user, e.g. planner")
	askCmd.Flags().DurationVar(&askDeadline, "deadline", 0, "overall time budget (default from settings)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the full pipeline result as JSON")
	askCmd.Flags().BoolVarP(&askInteractive, "interactive", "i", false, "start an interactive session")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if agentService == nil {
		return fmt.Errorf("agent %w", errNotConfigured)
	}
	if askInteractive {
		return runAskInteractive(cmd)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: a question is required (or use -i)", domain.ErrInvalidInput)
	}

	result, err := agentService.ProcessUtterance(cmd.Context(), strings.Join(args, " "), askOptions(nil))
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	if wantJSON(cmd, askJSON) {
		return printJSON(cmd, result)
	}
	printResult(cmd, result)
	return nil
}

func askOptions(history []domain.ConversationTurn) domain.ProcessOptions {
	return domain.ProcessOptions{
		SessionID:           askSession,
		UserRole:            askRole,
		ConversationHistory: history,
		Deadline:            askDeadline,
	}
}

func runAskInteractive(cmd *cobra.Command) error {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	var history []domain.ConversationTurn

	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "exit" || line == "quit" {
			return nil
		}

		result, err := agentService.ProcessUtterance(cmd.Context(), line, askOptions(history))
		if err != nil {
			cmd.Printf("error: %v\n", err)
			continue
		}
		if askJSON {
			if err := printJSON(cmd, result); err != nil {
				return err
			}
		} else {
			printResult(cmd, result)
		}
		history = append(history,
			domain.ConversationTurn{Role: "user", Text: line},
			domain.ConversationTurn{Role: "assistant", Text: result.Response.Text},
		)
	}
}

func printResult(cmd *cobra.Command, r *domain.PipelineResult) {
	cmd.Println(r.Response.Text)
	cmd.Println()

	verified := "no"
	if r.Meta.Verified {
		verified = "yes"
	}
	cmd.Printf("Intent: %s (%.2f)  Path: %s  Verified: %s  %dms\n",
		r.ParsedQuery.Intent, r.ParsedQuery.Confidence, r.Meta.Path, verified, r.Metrics.TotalMs)
	if len(r.ParsedQuery.Entities) > 0 {
		cmd.Printf("Entities: %s\n", r.ParsedQuery.Entities.Describe())
	}
	if r.Meta.Degraded {
		cmd.Printf("Degraded: %s\n", r.Meta.Error)
	}
	for _, w := range r.KnowledgeBundle.Warnings {
		cmd.Printf("Warning: %s\n", w)
	}

	if r.ReasoningTrace != nil && len(r.ReasoningTrace.Steps) > 0 {
		cmd.Println("Reasoning:")
		for _, s := range r.ReasoningTrace.Steps {
			cmd.Printf("  %d. %s: %s\n", s.Number, s.Description, s.Conclusion)
		}
	}
	if len(r.Response.SuggestedActions) > 0 {
		cmd.Println("Suggested:")
		for _, a := range r.Response.SuggestedActions {
			cmd.Printf("  - %s\n", a.Label)
		}
	}
}
