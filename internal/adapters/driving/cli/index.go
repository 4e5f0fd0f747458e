package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

var (
	indexLimit     int
	indexThreshold float64
	indexFuzzy     bool
	indexMeta      []string
	indexJSON      bool

	indexDocID      string
	indexDocTitle   string
	indexDocContent string
	indexDocMeta    []string

	relatedDepth int
	relatedTypes []string
	relatedLimit int
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the knowledge index",
	Long: `The knowledge index holds one document per terminal, pier, stand,
aircraft type, airline and maintenance record, plus any documents added by
hand. It supplies contextual passages to the pipeline.`,
}

var indexSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the knowledge index",
	Long: `Ranks documents by TF-IDF over stemmed terms. --fuzzy also matches
synonyms and terms one edit away.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndexSearch,
}

var indexAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a document to the index",
	Example: `  airportai index add --title "De-icing" --content "Remote stands 301-310 are used for de-icing" \
    --meta terminal=t2`,
	RunE: runIndexAdd,
}

var indexRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a document from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexRemove,
}

var indexRelatedCmd = &cobra.Command{
	Use:   "related [entity]",
	Short: "List entities related to an entity",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexRelated,
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runIndexStats,
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index from the airport data store",
	RunE:  runIndexRebuild,
}

func init() {
	indexSearchCmd.Flags().IntVarP(&indexLimit, "limit", "n", 10, "maximum number of results")
	indexSearchCmd.Flags().Float64Var(&indexThreshold, "threshold", 0, "drop results scoring below this")
	indexSearchCmd.Flags().BoolVar(&indexFuzzy, "fuzzy", false, "match synonyms and near misses")
	indexSearchCmd.Flags().StringArrayVar(&indexMeta, "meta", nil, "metadata filter key=value (repeatable)")
	indexSearchCmd.Flags().BoolVar(&indexJSON, "json", false, "output results as JSON")

	indexAddCmd.Flags().StringVar(&indexDocID, "id", "", "document id (generated when empty)")
	indexAddCmd.Flags().StringVar(&indexDocTitle, "title", "", "document title")
	indexAddCmd.Flags().StringVar(&indexDocContent, "content", "", "document content")
	indexAddCmd.Flags().StringArrayVar(&indexDocMeta, "meta", nil, "metadata key=value (repeatable)")

	indexRelatedCmd.Flags().IntVar(&relatedDepth, "depth", 1, "follow relations this many hops")
	indexRelatedCmd.Flags().StringArrayVar(&relatedTypes, "type", nil, "only return entities of this type (repeatable)")
	indexRelatedCmd.Flags().IntVarP(&relatedLimit, "limit", "n", 0, "maximum number of entities (0 = all)")

	indexCmd.AddCommand(indexSearchCmd, indexAddCmd, indexRemoveCmd, indexRelatedCmd, indexStatsCmd, indexRebuildCmd)
	rootCmd.AddCommand(indexCmd)
}

func parseMeta(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("%w: metadata %q must be key=value", domain.ErrInvalidInput, p)
		}
		meta[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return meta, nil
}

func runIndexSearch(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return fmt.Errorf("knowledge %w", errNotConfigured)
	}
	meta, err := parseMeta(indexMeta)
	if err != nil {
		return err
	}

	results := knowledgeService.Search(strings.Join(args, " "), domain.SearchOptions{
		Limit:      indexLimit,
		Threshold:  indexThreshold,
		Metadata:   meta,
		FuzzyMatch: indexFuzzy,
	})

	if wantJSON(cmd, indexJSON) {
		if results == nil {
			results = []domain.SearchResult{}
		}
		return printJSON(cmd, results)
	}
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		doc := results[i].Document
		title := doc.Fields[domain.FieldTitle]
		if title == "" {
			title = doc.ID
		}
		cmd.Printf("[%d] %s (%.2f)\n", i+1, title, results[i].Score)
		if content := doc.Fields[domain.FieldContent]; content != "" {
			cmd.Printf("    %s\n", truncate(content, 120))
		}
		cmd.Printf("    id: %s  matched: %s\n", doc.ID, strings.Join(results[i].MatchedTerms, ", "))
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func runIndexAdd(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return fmt.Errorf("knowledge %w", errNotConfigured)
	}
	meta, err := parseMeta(indexDocMeta)
	if err != nil {
		return err
	}

	fields := map[string]string{}
	if indexDocTitle != "" {
		fields[domain.FieldTitle] = indexDocTitle
	}
	if indexDocContent != "" {
		fields[domain.FieldContent] = indexDocContent
	}

	id, err := knowledgeService.AddDocument(domain.DocumentInput{ID: indexDocID, Fields: fields, Metadata: meta})
	if err != nil {
		return fmt.Errorf("add failed: %w", err)
	}
	cmd.Printf("Added document %s\n", id)
	return nil
}

func runIndexRemove(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return fmt.Errorf("knowledge %w", errNotConfigured)
	}
	if err := knowledgeService.RemoveDocument(args[0]); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}
	cmd.Printf("Removed document %s\n", args[0])
	return nil
}

func runIndexRelated(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return fmt.Errorf("knowledge %w", errNotConfigured)
	}
	related := knowledgeService.Related(args[0], domain.RelatedOptions{
		Types:             relatedTypes,
		Limit:             relatedLimit,
		IncludeTransitive: relatedDepth > 1,
		MaxDepth:          relatedDepth,
	})
	if len(related) == 0 {
		cmd.Printf("No entities related to %s.\n", args[0])
		return nil
	}
	for _, r := range related {
		cmd.Printf("%-20s %-14s depth %d\n", r.Entity, r.Type, r.Depth)
	}
	return nil
}

func runIndexStats(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return fmt.Errorf("knowledge %w", errNotConfigured)
	}
	s := knowledgeService.Stats()
	cmd.Printf("Documents:        %d\n", s.TotalDocuments)
	cmd.Printf("Unique terms:     %d\n", s.UniqueTerms)
	cmd.Printf("Avg terms/doc:    %.1f\n", s.AvgTermsPerDocument)
	cmd.Printf("Searches:         %d (avg %.2fms)\n", s.SearchCount, s.AverageSearchTimeMs)
	cmd.Printf("Evictions:        %d\n", s.Evictions)
	return nil
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return fmt.Errorf("knowledge %w", errNotConfigured)
	}
	if err := knowledgeService.Rebuild(cmd.Context()); err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}
	cmd.Printf("Index rebuilt: %d documents\n", knowledgeService.Stats().TotalDocuments)
	return nil
}
