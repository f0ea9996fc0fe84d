// Package logger provides logging implementations for benchdoc runs.
//
// Loggers report per-target formatter progress and the run summary. They never
// write to the report destination: the console logger is meant for stderr so
// that stdout carries only the generated document.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/benchdoc/internal/models"
)

// ConsoleLogger logs run progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// It supports log level filtering to control message verbosity.
// Color output is enabled when the writer is a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	completed   int
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive); anything
// else falls back to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a TTY. Only *os.File writers qualify.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// paint returns a color that is applied regardless of whether stdout is a TTY.
// fatih/color decides by stdout, but this logger writes to stderr while stdout
// is usually redirected into README.md.
func paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return allows(cl.logLevel, messageLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	cl.write(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), cl.colorLevel(level), message))
}

func (cl *ConsoleLogger) colorLevel(level string) string {
	if !cl.colorOutput {
		return level
	}
	switch level {
	case "TRACE":
		return paint(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return paint(color.FgCyan).Sprint(level)
	case "INFO":
		return paint(color.FgBlue).Sprint(level)
	case "WARN":
		return paint(color.FgYellow).Sprint(level)
	case "ERROR":
		return paint(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// write must be called with the mutex held
func (cl *ConsoleLogger) write(s string) {
	_, _ = io.WriteString(cl.writer, s)
}

// LogTargetStart logs the formatter launch for a target at DEBUG level.
// Format: "[HH:MM:SS] [DEBUG] Formatting nano.txt for Arduino Nano (1/7)"
func (cl *ConsoleLogger) LogTargetStart(target models.Target, index, total int) {
	cl.LogDebug(fmt.Sprintf("Formatting %s for %s (%d/%d)", target.Input(), target.Title, index+1, total))
}

// LogTargetComplete logs a captured table with a progress bar at INFO level.
// Format: "[HH:MM:SS] [=====     ] 3/7 (42%) Arduino Nano: 1.2 kB in 15ms"
// Completion is counted, not indexed, so the bar stays monotonic when targets
// finish out of order.
func (cl *ConsoleLogger) LogTargetComplete(table models.FormattedTable, index, total int) {
	if cl.writer == nil {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	cl.completed++
	if !cl.shouldLog("info") {
		return
	}

	pb := NewProgressBar(total, 10, cl.colorOutput)
	pb.Update(cl.completed)

	title := table.Target.Title
	if cl.colorOutput {
		title = paint(color.Bold).Sprint(title)
	}

	cl.write(fmt.Sprintf("[%s] %s %s: %s in %s\n",
		timestamp(),
		pb.Render(),
		title,
		humanize.Bytes(uint64(len(table.Text))),
		formatDuration(table.Duration),
	))
}

// LogTargetFailed logs a formatter failure at ERROR level.
func (cl *ConsoleLogger) LogTargetFailed(target models.Target, err error) {
	cl.LogError(fmt.Sprintf("%s failed: %v", target.Title, err))
}

// LogSummary logs the run summary at INFO level.
// Format: "[HH:MM:SS] Generated 7 tables, 14 kB, sha256 1a2b3c4d5e6f in 80ms"
func (cl *ConsoleLogger) LogSummary(result *models.GenerationResult) {
	if cl.writer == nil || result == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	tables := fmt.Sprintf("Generated %d tables", len(result.Tables))
	if cl.colorOutput {
		tables = paint(color.FgGreen).Sprint(tables)
	}

	cl.write(fmt.Sprintf("[%s] %s, %s, sha256 %s in %s\n",
		timestamp(),
		tables,
		humanize.Bytes(uint64(len(result.Document))),
		shortDigest(result.Digest),
		formatDuration(result.Duration),
	))
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

// NoOpLogger discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTargetStart(models.Target, int, int)            {}
func (n *NoOpLogger) LogTargetComplete(models.FormattedTable, int, int) {}
func (n *NoOpLogger) LogTargetFailed(models.Target, error)              {}
func (n *NoOpLogger) LogSummary(*models.GenerationResult)               {}
