package logger

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harrison/benchdoc/internal/models"
)

var nano = models.Target{Name: "nano", Title: "Arduino Nano"}

// TestNewConsoleLogger verifies the constructor creates a ConsoleLogger with the provided writer.
func TestNewConsoleLogger(t *testing.T) {
	t.Run("with valid writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, "info")

		if logger.writer != buf {
			t.Error("writer not set correctly")
		}
		if logger.logLevel != "info" {
			t.Errorf("expected log level %q, got %q", "info", logger.logLevel)
		}
		if logger.colorOutput {
			t.Error("a bytes.Buffer is never a terminal")
		}
	})

	t.Run("with nil writer", func(t *testing.T) {
		logger := NewConsoleLogger(nil, "info")
		// None of these may panic
		logger.LogInfo("dropped")
		logger.LogTargetComplete(models.FormattedTable{Target: nano}, 0, 1)
		logger.LogSummary(&models.GenerationResult{})
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		logger := NewConsoleLogger(&bytes.Buffer{}, "LOUD")
		if logger.logLevel != "info" {
			t.Errorf("expected log level %q, got %q", "info", logger.logLevel)
		}
	})
}

// TestLogLevelFiltering verifies that messages are filtered based on log level
func TestLogLevelFiltering(t *testing.T) {
	tests := []struct {
		name         string
		logLevel     string
		log          func(*ConsoleLogger)
		shouldAppear bool
	}{
		{name: "trace sees trace", logLevel: "trace", log: func(l *ConsoleLogger) { l.LogTrace("msg") }, shouldAppear: true},
		{name: "debug blocks trace", logLevel: "debug", log: func(l *ConsoleLogger) { l.LogTrace("msg") }, shouldAppear: false},
		{name: "debug sees debug", logLevel: "debug", log: func(l *ConsoleLogger) { l.LogDebug("msg") }, shouldAppear: true},
		{name: "info blocks debug", logLevel: "info", log: func(l *ConsoleLogger) { l.LogDebug("msg") }, shouldAppear: false},
		{name: "info sees info", logLevel: "info", log: func(l *ConsoleLogger) { l.LogInfo("msg") }, shouldAppear: true},
		{name: "warn blocks info", logLevel: "warn", log: func(l *ConsoleLogger) { l.LogInfo("msg") }, shouldAppear: false},
		{name: "warn sees warn", logLevel: "warn", log: func(l *ConsoleLogger) { l.LogWarn("msg") }, shouldAppear: true},
		{name: "error blocks warn", logLevel: "error", log: func(l *ConsoleLogger) { l.LogWarn("msg") }, shouldAppear: false},
		{name: "error sees error", logLevel: "error", log: func(l *ConsoleLogger) { l.LogError("msg") }, shouldAppear: true},
		{name: "info hides target start", logLevel: "info", log: func(l *ConsoleLogger) { l.LogTargetStart(nano, 0, 1) }, shouldAppear: false},
		{name: "debug shows target start", logLevel: "debug", log: func(l *ConsoleLogger) { l.LogTargetStart(nano, 0, 1) }, shouldAppear: true},
		{name: "error hides summary", logLevel: "error", log: func(l *ConsoleLogger) { l.LogSummary(&models.GenerationResult{}) }, shouldAppear: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.log(NewConsoleLogger(buf, tt.logLevel))

			if got := buf.Len() > 0; got != tt.shouldAppear {
				t.Errorf("output present = %v, want %v (output %q)", got, tt.shouldAppear, buf.String())
			}
		})
	}
}

func TestLogWithLevelFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	logger.LogWarn("input file is older than the README")

	output := buf.String()
	if !strings.HasPrefix(output, "[") || !strings.Contains(output, "] [WARN] input file is older than the README\n") {
		t.Errorf("unexpected format: %q", output)
	}
	if strings.Contains(output, "\x1b[") {
		t.Errorf("non-terminal output must not contain ANSI codes: %q", output)
	}
}

func TestLogTargetStart(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "debug")

	logger.LogTargetStart(models.Target{Name: "esp32", Title: "ESP32"}, 6, 7)

	want := "[DEBUG] Formatting esp32.txt for ESP32 (7/7)"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("expected %q in %q", want, buf.String())
	}
}

func TestLogTargetComplete(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	table := models.FormattedTable{Target: nano, Text: strings.Repeat("x", 1500), Duration: 15 * time.Millisecond}
	logger.LogTargetComplete(table, 0, 2)
	logger.LogTargetComplete(models.FormattedTable{Target: models.Target{Name: "esp32", Title: "ESP32"}}, 1, 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "[=====     ] 1/2 (50%) Arduino Nano: 1.5 kB in 15ms") {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "[==========] 2/2 (100%) ESP32: 0 B in 0s") {
		t.Errorf("unexpected second line: %q", lines[1])
	}
}

func TestLogTargetCompleteCountsOutOfOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	// Parallel runs finish in arbitrary order; the bar counts completions
	logger.LogTargetComplete(models.FormattedTable{Target: nano}, 2, 3)
	logger.LogTargetComplete(models.FormattedTable{Target: nano}, 0, 3)

	if !strings.Contains(buf.String(), "2/3 (66%)") {
		t.Errorf("expected second completion to show 2/3, got %q", buf.String())
	}
}

func TestLogTargetFailed(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	logger.LogTargetFailed(nano, errors.New("exit status 2"))

	if !strings.Contains(buf.String(), "[ERROR] Arduino Nano failed: exit status 2") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestLogSummary(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	logger.LogSummary(&models.GenerationResult{
		Tables:   make([]models.FormattedTable, 7),
		Document: make([]byte, 14000),
		Digest:   "0123456789abcdef0123456789abcdef",
		Duration: 80 * time.Millisecond,
	})

	want := "Generated 7 tables, 14 kB, sha256 0123456789ab in 80ms"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("expected %q in %q", want, buf.String())
	}
}

func TestConsoleLoggerConcurrentWrites(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.LogTargetComplete(models.FormattedTable{Target: nano}, 0, 20)
		}()
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "\n"); got != 20 {
		t.Errorf("expected 20 lines, got %d", got)
	}
	if !strings.Contains(buf.String(), "20/20 (100%)") {
		t.Errorf("expected final completion count, got %q", buf.String())
	}
}

func TestIsValidLevel(t *testing.T) {
	for _, level := range []string{"trace", "DEBUG", " info ", "warn", "error"} {
		if !IsValidLevel(level) {
			t.Errorf("IsValidLevel(%q) = false, want true", level)
		}
	}
	for _, level := range []string{"", "verbose", "fatal"} {
		if IsValidLevel(level) {
			t.Errorf("IsValidLevel(%q) = true, want false", level)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{15*time.Millisecond + 300*time.Microsecond, "15ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90*time.Second + 400*time.Millisecond, "1m30s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProgressBarRender(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		current int
		want    string
	}{
		{name: "empty", total: 4, current: 0, want: "[          ] 0/4 (0%)"},
		{name: "half", total: 4, current: 2, want: "[=====     ] 2/4 (50%)"},
		{name: "complete", total: 4, current: 4, want: "[==========] 4/4 (100%)"},
		{name: "overflow clamps", total: 4, current: 9, want: "[==========] 9/4 (100%)"},
		{name: "zero total", total: 0, current: 0, want: "[          ] 0/0 (0%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := NewProgressBar(tt.total, 10, false)
			pb.Update(tt.current)
			if got := pb.Render(); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProgressBarColor(t *testing.T) {
	pb := NewProgressBar(2, 10, true)
	pb.Update(1)
	if !strings.Contains(pb.Render(), "\x1b[36m") {
		t.Errorf("expected cyan for in-progress bar, got %q", pb.Render())
	}
	pb.Update(2)
	if !strings.Contains(pb.Render(), "\x1b[32m") {
		t.Errorf("expected green for complete bar, got %q", pb.Render())
	}
	if NewProgressBar(1, 0, false).width != 10 {
		t.Error("width below 1 should default to 10")
	}
}
