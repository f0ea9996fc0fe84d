package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/benchdoc/internal/history"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded generation runs",
		Long: `History lists recent successful generations, newest first, when
history.enabled is set in the config. Each run is compared with the one before
it: a changed digest means the README content changed, and the targets whose
tables changed are listed.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().Int("limit", 10, "Number of runs to show (0 = all)")
	return cmd
}

// runHistory implements the history command logic
func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	w := cmd.OutOrStdout()
	dbPath := cfg.Resolve(cfg.History.DBPath)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(w, "No runs recorded in %s", dbPath)
		if !cfg.History.Enabled {
			fmt.Fprintf(w, " (history.enabled is false)")
		}
		fmt.Fprintln(w)
		return nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	runs, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	printRuns(w, runs)
	return nil
}

// printRuns formats and prints recorded runs
func printRuns(w io.Writer, runs []*history.Run) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}

	cyan.Fprintf(w, "=== %d run(s) ===\n", len(runs))
	for _, run := range runs {
		fmt.Fprintf(w, "\n%s  %s (%s)\n",
			shortID(run.ID),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			humanize.Time(run.StartedAt))
		fmt.Fprintf(w, "  sha256 %s  %s  %d table(s) in %s\n",
			shortID(run.Digest),
			humanize.Bytes(uint64(run.Size)),
			len(run.Targets),
			run.Duration.Round(time.Millisecond))

		switch {
		case run.Previous == "":
			fmt.Fprintln(w, "  first recorded run")
		case run.Changed():
			yellow.Fprintf(w, "  changed")
			if len(run.ChangedTargets) > 0 {
				yellow.Fprintf(w, ": %s", strings.Join(run.ChangedTargets, ", "))
			}
			fmt.Fprintln(w)
		default:
			green.Fprintln(w, "  unchanged")
		}
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
