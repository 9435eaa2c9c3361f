package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show search index status",
		Long: `Show the search index status: document count, feature count and vocabulary size.

In local mode the index is built from the configured corpus first.`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	b, err := openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()

	st, err := b.CacheStatus(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading status: %w", err)
	}

	out := cmd.OutOrStdout()
	if useJSON() {
		return writeJSON(out, st)
	}
	fmt.Fprintf(out, "initialized:     %t\n", st.Initialized)
	fmt.Fprintf(out, "documents:       %d\n", st.DocumentCount)
	fmt.Fprintf(out, "features:        %d\n", st.FeatureCount)
	fmt.Fprintf(out, "vocabulary size: %d\n", st.VocabularySize)
	return nil
}

// NewResetCmd creates the reset command.
func NewResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop the server search index",
		Long: `Drop the search index of a running server so the next query reloads the corpus.

Requires --url.`,
		Args: cobra.NoArgs,
		RunE: runReset,
	}
}

func runReset(cmd *cobra.Command, _ []string) error {
	if serverURL == "" {
		return fmt.Errorf("reset requires --url")
	}
	b, err := openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.ResetCache(cmd.Context()); err != nil {
		return fmt.Errorf("resetting: %w", err)
	}
	if !quiet {
		fmt.Fprintln(cmd.OutOrStdout(), "Search index reset; it is rebuilt on the next query.")
	}
	return nil
}
