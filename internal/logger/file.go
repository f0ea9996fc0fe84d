package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/harrison/benchdoc/internal/models"
)

// FileLogger records a generation run under a log directory.
// It creates a timestamped per-run log file, keeps a copy of every captured
// table in tables/<target>.txt, and maintains a latest.log symlink pointing to
// the most recent run. It is thread-safe and implements report.Logger.
type FileLogger struct {
	logDir    string
	runLog    *os.File
	runFile   string
	tablesDir string
	logLevel  string
	mu        sync.Mutex
}

// NewFileLogger creates a FileLogger writing to logDir with the "info" level.
func NewFileLogger(logDir string) (*FileLogger, error) {
	return NewFileLoggerWithLevel(logDir, "info")
}

// NewFileLoggerWithLevel creates a FileLogger with a custom log level.
func NewFileLoggerWithLevel(logDir string, logLevel string) (*FileLogger, error) {
	tablesDir := filepath.Join(logDir, "tables")
	if err := os.MkdirAll(tablesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Generate timestamped filename: run-YYYYMMDD-HHMMSS.log
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", time.Now().Format("20060102-150405")))
	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	fl := &FileLogger{
		logDir:    logDir,
		runLog:    file,
		runFile:   runFile,
		tablesDir: tablesDir,
		logLevel:  normalizeLogLevel(logLevel),
	}

	fl.writeRunLog("=== benchdoc run log ===\n")
	fl.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return fl, nil
}

// RunFile returns the path of the current run log
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

func (fl *FileLogger) logf(level, format string, args ...interface{}) {
	if !allows(fl.logLevel, level) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), strings.ToUpper(level), msg))
}

// LogTargetStart logs the formatter launch at DEBUG level.
func (fl *FileLogger) LogTargetStart(target models.Target, index, total int) {
	fl.logf("debug", "formatting %s (%d/%d) from %s", target.Name, index+1, total, target.Input())
}

// LogTargetComplete logs the captured table at INFO level and keeps a copy of
// it in tables/<target>.txt.
func (fl *FileLogger) LogTargetComplete(table models.FormattedTable, index, total int) {
	fl.logf("info", "%s: %s in %s", table.Target.Name, humanize.Bytes(uint64(len(table.Text))), formatDuration(table.Duration))

	path := filepath.Join(fl.tablesDir, table.Target.Name+".txt")
	if err := os.WriteFile(path, []byte(table.Text), 0644); err != nil {
		fl.logf("warn", "failed to keep table copy for %s: %v", table.Target.Name, err)
	}
}

// LogTargetFailed logs a formatter failure at ERROR level.
func (fl *FileLogger) LogTargetFailed(target models.Target, err error) {
	fl.logf("error", "%s failed: %v", target.Name, err)
}

// LogSummary logs the run summary at INFO level.
func (fl *FileLogger) LogSummary(result *models.GenerationResult) {
	if result == nil || !allows(fl.logLevel, "info") {
		return
	}

	ts := timestamp()
	fl.writeRunLog(fmt.Sprintf(
		"\n[%s] === RUN SUMMARY ===\n"+
			"[%s] Run ID:     %s\n"+
			"[%s] Tables:     %d\n"+
			"[%s] Document:   %s\n"+
			"[%s] SHA-256:    %s\n"+
			"[%s] Total time: %s\n",
		ts,
		ts, result.RunID,
		ts, len(result.Tables),
		ts, humanize.Bytes(uint64(len(result.Document))),
		ts, result.Digest,
		ts, formatDuration(result.Duration),
	))
}

// Close flushes and closes the run log
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}
	return nil
}

func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		_, _ = fl.runLog.WriteString(message)
	}
}
