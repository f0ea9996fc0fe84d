package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/benchdoc/internal/markdown"
	"github.com/harrison/benchdoc/internal/models"
)

// ErrDrift is returned by check when the README differs from a regeneration
var ErrDrift = errors.New("README is out of date")

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [README.md]",
		Short: "Verify that a README matches the current results",
		Long: `Check regenerates the README in memory and compares it with an existing
file, section by section. It lists the target tables and prose sections that
differ and exits with status 1 on any difference.

The file defaults to the configured output, or README.md in --dir.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCheck,
	}
}

// runCheck implements the check command logic
func runCheck(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	path := s.cfg.Resolve("README.md")
	if s.cfg.Output != "" {
		path = s.cfg.Resolve(s.cfg.Output)
	}
	if len(args) == 1 {
		path = args[0]
	}

	existing, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	gen, err := s.generator()
	if err != nil {
		return err
	}
	result, err := gen.Generate(cmd.Context())
	if err != nil {
		return err
	}

	diffs := markdown.NewParser().CompareBytes(result.Document, existing)
	w := cmd.OutOrStdout()
	if len(diffs) == 0 {
		color.New(color.FgGreen).Fprintf(w, "%s is up to date\n", path)
		return nil
	}

	printDrift(w, path, diffs, s.manifest)
	return fmt.Errorf("%s: %d section(s) differ: %w", path, len(diffs), ErrDrift)
}

// printDrift lists the differing sections, naming the target behind each
// target section
func printDrift(w io.Writer, path string, diffs []markdown.Difference, m *models.Manifest) {
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)
	bold := color.New(color.Bold)

	targets := make(map[string]string, len(m.Targets))
	for _, t := range m.Targets {
		targets[t.Title] = t.Name
	}

	bold.Fprintf(w, "%s differs from the regenerated README:\n", path)
	for _, d := range diffs {
		line := d.String()
		if name, ok := targets[d.Section.Heading]; ok && d.Section.Level > 0 {
			line = fmt.Sprintf("%s [%s]", line, name)
		}
		if d.Table || d.Kind == markdown.Missing {
			red.Fprintf(w, "  %s\n", line)
		} else {
			yellow.Fprintf(w, "  %s\n", line)
		}
	}
}
