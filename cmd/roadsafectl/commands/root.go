// Package commands implements the roadsafectl command tree.
package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Global flags.
var (
	verbose      bool
	quiet        bool
	outputFormat string
	serverURL    string
	envName      string
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roadsafectl",
		Short: "Query and operate the roadsafe recommendation API",
		Long: `roadsafectl ranks IRC road-safety clauses for a road problem description.

Commands run against a local corpus by default. Pass --url to talk to a
running roadsafe server instead.

Examples:
  roadsafectl search "faded zebra crossing near school"
  roadsafectl --url http://127.0.0.1:5000 search --top-n 3 "missing guardrail"
  roadsafectl launch --server-bin ./bin/roadsafe`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// A missing .env file is fine.
			_ = godotenv.Load()
			switch outputFormat {
			case "auto", "table", "json":
				return nil
			default:
				return fmt.Errorf("--format must be auto, table or json, got %q", outputFormat)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress informational output")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table, json")
	cmd.PersistentFlags().StringVar(&serverURL, "url", "", "roadsafe server URL (empty = local corpus)")
	cmd.PersistentFlags().StringVar(&envName, "env", "", "Config environment for local mode (default: $ENV or local)")

	cmd.AddCommand(
		NewSearchCmd(),
		NewStatusCmd(),
		NewResetCmd(),
		NewMCPCmd(),
		NewLaunchCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
