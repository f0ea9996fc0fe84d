package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for benchdoc.
// Run without a subcommand it generates the README to stdout.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchdoc",
		Short: "Generate a benchmark README from raw results",
		Long: `benchdoc builds the README of an embedded benchmark program.

It runs the table formatter (./generate_table.awk by default) once per target
board, feeding it <target>.txt on stdin, and substitutes the captured tables
into the README template. The document is written only when every target
succeeded.

Configuration is loaded from .benchdoc/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  # The classic make rule: benchdoc > README.md
  benchdoc > README.md

  # Write atomically, leaving an up-to-date README untouched
  benchdoc -o README.md

  # Fail if the committed README no longer matches the results
  benchdoc check README.md`,
		Args:    cobra.NoArgs,
		Version: Version,
		RunE:    runGenerate,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// main prints the error once and picks the exit code
		SilenceErrors: true,
	}

	addCommonFlags(cmd)
	addOutputFlag(cmd)

	cmd.AddCommand(NewGenerateCommand())
	cmd.AddCommand(NewCheckCommand())
	cmd.AddCommand(NewTargetsCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}

// addCommonFlags registers the flags shared by every command
func addCommonFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Path to config file (default: <dir>/.benchdoc/config.yaml)")
	cmd.PersistentFlags().String("dir", "", "Directory holding the <target>.txt files (default: current directory)")
	cmd.PersistentFlags().String("formatter", "", "Table formatter executable (default: ./generate_table.awk)")
	cmd.PersistentFlags().String("timeout", "", "Per-target formatter timeout (e.g., 30s, 2m)")
	cmd.PersistentFlags().Int("parallel", 0, "Number of formatter invocations to run at once")
	cmd.PersistentFlags().Bool("verbose", false, "Log each formatter invocation to stderr")
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Write the README to this file (relative to --dir) instead of stdout")
}
