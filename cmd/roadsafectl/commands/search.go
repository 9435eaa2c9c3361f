package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var searchTopN int

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <description>",
		Short: "Find IRC clauses for a road problem",
		Long: `Rank IRC road-safety clauses by TF-IDF similarity to a problem description.

Runs against the local corpus unless --url points at a server. Explanations
are only available from a server with an explanation provider configured.

Examples:
  roadsafectl search "faded zebra crossing"
  roadsafectl search --top-n 3 "speed breaker without markings"
  roadsafectl search --format json "damaged signs"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVarP(&searchTopN, "top-n", "n", 5, "Maximum matches to return (1-20)")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := validateTopN(searchTopN); err != nil {
		return err
	}
	description := strings.Join(args, " ")

	b, err := openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()

	rec, err := b.Recommend(cmd.Context(), description, searchTopN)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	out := cmd.OutOrStdout()
	if useJSON() {
		return writeJSON(out, rec)
	}

	if rec.Count == 0 {
		if !quiet {
			fmt.Fprintf(out, "No matching clauses for: %s\n", rec.Query)
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "#\tSCORE\tRELEVANCE\tCLAUSE\tPROBLEM\tDATA\n")
	fmt.Fprintf(w, "-\t-----\t---------\t------\t-------\t----\n")
	for i, m := range rec.Matches {
		fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\t%s\t%s\n",
			i+1, m.Score, relevance(m.Score), m.Clause, truncate(m.Problem, 40), truncate(m.Data, 60))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}

	if rec.RAGEnabled && rec.Explanation != "" {
		fmt.Fprintf(out, "\nExplanation:\n%s\n", rec.Explanation)
	}
	return nil
}
