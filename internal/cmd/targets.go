package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/benchdoc/internal/formatter"
)

// NewTargetsCommand creates the targets command
func NewTargetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the targets and their input files",
		Long: `Targets lists every configured target in document order with its input
file. It fails when any input file is missing, without running the formatter.`,
		Args: cobra.NoArgs,
		RunE: runTargets,
	}
}

// runTargets implements the targets command logic
func runTargets(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	nameWidth, titleWidth := len("NAME"), len("TITLE")
	for _, t := range s.manifest.Targets {
		nameWidth = max(nameWidth, len(t.Name))
		titleWidth = max(titleWidth, len(t.Title))
	}

	fmt.Fprintf(w, "%-*s  %-*s  %s\n", nameWidth, "NAME", titleWidth, "TITLE", "INPUT")
	missing := 0
	for _, t := range s.manifest.Targets {
		fmt.Fprintf(w, "%-*s  %-*s  %s  ", nameWidth, t.Name, titleWidth, t.Title, t.Input())

		info, err := os.Stat(s.cfg.Resolve(t.Input()))
		switch {
		case err != nil:
			missing++
			red.Fprintf(w, "missing\n")
		case info.IsDir():
			missing++
			red.Fprintf(w, "not a file\n")
		default:
			green.Fprintf(w, "%s\n", humanize.Bytes(uint64(info.Size())))
		}
	}

	if missing > 0 {
		return fmt.Errorf("%d of %d input file(s) unavailable in %s: %w",
			missing, len(s.manifest.Targets), s.cfg.Dir, formatter.ErrMissingInput)
	}
	return nil
}
