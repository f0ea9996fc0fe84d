package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/benchdoc/internal/config"
	"github.com/harrison/benchdoc/internal/formatter"
	"github.com/harrison/benchdoc/internal/logger"
	"github.com/harrison/benchdoc/internal/manifest"
	"github.com/harrison/benchdoc/internal/models"
	"github.com/harrison/benchdoc/internal/report"
)

// session is the resolved configuration shared by the commands
type session struct {
	cfg      *config.Config
	manifest *models.Manifest
	template *report.Template
	console  *logger.ConsoleLogger
}

// loadConfig loads the config file and merges the command line flags into it
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")
	dirFlag, _ := flags.GetString("dir")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		dir := dirFlag
		if dir == "" {
			dir = "."
		}
		cfg, err = config.LoadConfigFromDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// Build flag pointers for merge (only flags given on the command line)
	var dirPtr *string
	if flags.Changed("dir") {
		dirPtr = &dirFlag
	}

	var outputPtr *string
	if flags.Lookup("output") != nil && flags.Changed("output") {
		output, _ := flags.GetString("output")
		outputPtr = &output
	}

	var formatterPtr *string
	if flags.Changed("formatter") {
		formatterPath, _ := flags.GetString("formatter")
		formatterPtr = &formatterPath
	}

	var timeoutPtr *time.Duration
	if flags.Changed("timeout") {
		timeoutStr, _ := flags.GetString("timeout")
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout format %q: %w", timeoutStr, err)
		}
		timeoutPtr = &timeout
	}

	var parallelPtr *int
	if flags.Changed("parallel") {
		parallel, _ := flags.GetInt("parallel")
		parallelPtr = &parallel
	}

	var logLevelPtr *string
	if verbose, _ := flags.GetBool("verbose"); verbose {
		level := "debug"
		logLevelPtr = &level
	}

	cfg.MergeWithFlags(dirPtr, outputPtr, formatterPtr, timeoutPtr, parallelPtr, logLevelPtr)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newSession loads config, manifest and template for a command
func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:      cfg,
		manifest: manifest.Default(),
		template: report.DefaultTemplate(),
		console:  logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel),
	}

	if cfg.Manifest != "" {
		s.manifest, err = manifest.Load(cfg.Resolve(cfg.Manifest))
		if err != nil {
			return nil, err
		}
	}
	if cfg.Template != "" {
		s.template, err = report.LoadTemplate(cfg.Resolve(cfg.Template))
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

// newFormatter returns the configured table formatter
func (s *session) newFormatter() *formatter.Command {
	f := formatter.NewCommand(s.cfg.Formatter.Path, s.cfg.Formatter.Args...)
	f.Dir = s.cfg.Dir
	f.Timeout = s.cfg.Timeout
	return f
}

// generator builds a report generator logging to the console and extra loggers
func (s *session) generator(extra ...report.Logger) (*report.Generator, error) {
	loggers := append([]report.Logger{s.console}, extra...)
	return report.NewGenerator(s.manifest, s.newFormatter(),
		report.WithTemplate(s.template),
		report.WithLogger(&multiLogger{loggers: loggers}),
		report.WithParallelism(s.cfg.Parallel),
	)
}

// multiLogger implements report.Logger by delegating to multiple loggers
type multiLogger struct {
	loggers []report.Logger
}

// LogTargetStart forwards to all loggers
func (ml *multiLogger) LogTargetStart(target models.Target, index, total int) {
	for _, l := range ml.loggers {
		l.LogTargetStart(target, index, total)
	}
}

// LogTargetComplete forwards to all loggers
func (ml *multiLogger) LogTargetComplete(table models.FormattedTable, index, total int) {
	for _, l := range ml.loggers {
		l.LogTargetComplete(table, index, total)
	}
}

// LogTargetFailed forwards to all loggers
func (ml *multiLogger) LogTargetFailed(target models.Target, err error) {
	for _, l := range ml.loggers {
		l.LogTargetFailed(target, err)
	}
}

// LogSummary forwards to all loggers
func (ml *multiLogger) LogSummary(result *models.GenerationResult) {
	for _, l := range ml.loggers {
		l.LogSummary(result)
	}
}
