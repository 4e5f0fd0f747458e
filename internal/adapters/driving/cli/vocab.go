package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

var (
	vocabKind vocabKindFlag
	vocabJSON bool
)

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Inspect the entity vocabulary",
	Long: `The vocabulary holds the terminals, piers, stands, aircraft types and
airlines the pipeline recognises in questions. It is cached and reloaded
from the airport data store when stale.`,
}

var vocabShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List vocabulary entries",
	RunE:  runVocabShow,
}

var vocabRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reload the vocabulary and rebuild the knowledge index",
	RunE:  runVocabRefresh,
}

func init() {
	vocabShowCmd.Flags().Var(&vocabKind, "kind", "only show one kind (terminal, pier, stand, aircraftType, airline)")
	vocabShowCmd.Flags().BoolVar(&vocabJSON, "json", false, "output entries as JSON")
	vocabCmd.AddCommand(vocabShowCmd)
	vocabCmd.AddCommand(vocabRefreshCmd)
	rootCmd.AddCommand(vocabCmd)
}

var allVocabKinds = []domain.VocabularyKind{
	domain.VocabTerminal, domain.VocabPier, domain.VocabStand,
	domain.VocabAircraftType, domain.VocabAirline,
}

// vocabKindFlag is a --kind value checked against the known kinds when parsed.
// The empty value selects every kind.
type vocabKindFlag struct {
	kind domain.VocabularyKind
}

var _ pflag.Value = (*vocabKindFlag)(nil)

func (f *vocabKindFlag) String() string { return string(f.kind) }

func (f *vocabKindFlag) Type() string { return "kind" }

func (f *vocabKindFlag) Set(s string) error {
	if s == "" {
		f.kind = ""
		return nil
	}
	for _, k := range allVocabKinds {
		if strings.EqualFold(string(k), s) {
			f.kind = k
			return nil
		}
	}
	return fmt.Errorf("unknown vocabulary kind %q", s)
}

func (f *vocabKindFlag) kinds() []domain.VocabularyKind {
	if f.kind == "" {
		return allVocabKinds
	}
	return []domain.VocabularyKind{f.kind}
}

func runVocabShow(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return fmt.Errorf("knowledge %w", errNotConfigured)
	}

	snap, err := knowledgeService.Vocabulary(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load vocabulary: %w", err)
	}

	var entries []domain.VocabularyEntry
	for _, k := range vocabKind.kinds() {
		entries = append(entries, snap.Entries(k)...)
	}
	if wantJSON(cmd, vocabJSON) {
		if entries == nil {
			entries = []domain.VocabularyEntry{}
		}
		return printJSON(cmd, entries)
	}

	if len(entries) == 0 {
		cmd.Println("No vocabulary entries.")
		return nil
	}
	for _, e := range entries {
		line := fmt.Sprintf("%-13s %-10s %s", e.Kind, e.PrimaryCode, e.DisplayName)
		if len(e.AlternateCodes) > 0 {
			line += fmt.Sprintf(" (aka %s)", strings.Join(e.AlternateCodes, ", "))
		}
		cmd.Println(line)
	}
	cmd.Printf("\n%d entries, loaded %s\n", len(entries), snap.LoadedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runVocabRefresh(cmd *cobra.Command, _ []string) error {
	if agentService == nil {
		return fmt.Errorf("agent %w", errNotConfigured)
	}
	if err := agentService.RefreshVocabulary(cmd.Context()); err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}
	cmd.Println("Vocabulary refreshed.")
	return nil
}
