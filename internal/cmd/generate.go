package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/harrison/benchdoc/internal/filelock"
	"github.com/harrison/benchdoc/internal/history"
	"github.com/harrison/benchdoc/internal/logger"
	"github.com/harrison/benchdoc/internal/models"
	"github.com/harrison/benchdoc/internal/report"
)

// NewGenerateCommand creates the generate command
func NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the README (the default command)",
		Long: `Generate runs the formatter for every target in declared order and
renders the README. Nothing is written unless every target succeeded.

Without --output the document goes to stdout in a single write. With --output
it is written atomically under a lock on <output>.lock, and an existing file
with identical content is left untouched.

On a formatter failure benchdoc exits with the formatter's exit code.`,
		Args: cobra.NoArgs,
		RunE: runGenerate,
	}

	addOutputFlag(cmd)
	return cmd
}

// runGenerate implements the generate command logic
func runGenerate(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	cfg := s.cfg

	var extra []report.Logger
	if cfg.LogDir != "" {
		fileLogger, err := logger.NewFileLoggerWithLevel(cfg.Resolve(cfg.LogDir), "debug")
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer fileLogger.Close()
		extra = append(extra, fileLogger)
	}

	gen, err := s.generator(extra...)
	if err != nil {
		return err
	}

	result, err := gen.Generate(cmd.Context())
	if err != nil {
		return err
	}

	if err := writeDocument(cmd, s, result.Document); err != nil {
		return err
	}

	if cfg.History.Enabled {
		recordHistory(cmd, s, result)
	}
	return nil
}

// writeDocument sends the document to stdout or the configured output file
func writeDocument(cmd *cobra.Command, s *session, doc []byte) error {
	if s.cfg.Output == "" {
		if _, err := cmd.OutOrStdout().Write(doc); err != nil {
			return fmt.Errorf("failed to write document: %w", err)
		}
		return nil
	}

	path := s.cfg.Resolve(s.cfg.Output)
	written, err := filelock.WriteIfChanged(path, doc, s.cfg.LockTimeout)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if written {
		s.console.LogInfo(fmt.Sprintf("Wrote %s (%s)", path, humanize.Bytes(uint64(len(doc)))))
	} else {
		s.console.LogInfo(fmt.Sprintf("%s is up to date", path))
	}
	return nil
}

// recordHistory stores the run. The README is already written, so a history
// failure is reported but does not fail the command.
func recordHistory(cmd *cobra.Command, s *session, result *models.GenerationResult) {
	dbPath := s.cfg.Resolve(s.cfg.History.DBPath)
	store, err := history.NewStore(dbPath)
	if err != nil {
		s.console.LogWarn(fmt.Sprintf("history disabled for this run: %v", err))
		return
	}
	defer store.Close()

	ctx := cmd.Context()
	if err := store.Record(ctx, result); err != nil {
		s.console.LogWarn(fmt.Sprintf("failed to record run %s: %v", result.RunID, err))
		return
	}
	if removed, err := store.Prune(ctx, s.cfg.History.Keep); err != nil {
		s.console.LogWarn(fmt.Sprintf("failed to prune history: %v", err))
	} else if removed > 0 {
		s.console.LogDebug(fmt.Sprintf("pruned %d old run(s) from %s", removed, dbPath))
	}
}
