package logger

import (
	"bytes"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

// TestNewConsoleLogger verifies the constructor normalizes the level.
func TestNewConsoleLogger(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"  WARN ", "warn"},
		{"", "info"},
		{"verbose", "info"},
	}
	for _, tt := range tests {
		logger := NewConsoleLogger(&bytes.Buffer{}, tt.in)
		if logger.Level() != tt.want {
			t.Errorf("NewConsoleLogger(%q).Level() = %q, want %q", tt.in, logger.Level(), tt.want)
		}
	}
}

func TestConsoleLoggerNilWriter(t *testing.T) {
	logger := NewConsoleLogger(nil, "trace")
	// Must not panic
	logger.LogInfo("discarded")
	logger.LogProgress("Parsing", 1, 2)
}

// TestConsoleLoggerFormat verifies "[HH:MM:SS] [LEVEL] message" output.
func TestConsoleLoggerFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	logger.LogWarn("session abc: unmatched_request")

	pattern := regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[WARN\] session abc: unmatched_request\n$`)
	if !pattern.MatchString(buf.String()) {
		t.Errorf("unexpected output %q", buf.String())
	}
}

// TestLevelFiltering verifies messages below the configured level are dropped.
func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level      string
		wantLevels []string
		dropLevels []string
	}{
		{"trace", []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}, nil},
		{"info", []string{"INFO", "WARN", "ERROR"}, []string{"TRACE", "DEBUG"}},
		{"warn", []string{"WARN", "ERROR"}, []string{"TRACE", "DEBUG", "INFO"}},
		{"error", []string{"ERROR"}, []string{"TRACE", "DEBUG", "INFO", "WARN"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, tt.level)

			logger.LogTrace("m")
			logger.LogDebug("m")
			logger.LogInfo("m")
			logger.LogWarn("m")
			logger.LogError("m")

			out := buf.String()
			for _, lvl := range tt.wantLevels {
				if !strings.Contains(out, "["+lvl+"]") {
					t.Errorf("expected %s message at level %s", lvl, tt.level)
				}
			}
			for _, lvl := range tt.dropLevels {
				if strings.Contains(out, "["+lvl+"]") {
					t.Errorf("unexpected %s message at level %s", lvl, tt.level)
				}
			}
		})
	}
}

func TestLogProgress(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	logger.LogProgress("Parsing", 5, 10)

	if !strings.Contains(buf.String(), "Parsing: [=====     ] 5/10 (50%)") {
		t.Errorf("unexpected progress output %q", buf.String())
	}

	buf.Reset()
	quiet := NewConsoleLogger(buf, "warn")
	quiet.LogProgress("Parsing", 1, 10)
	if buf.Len() != 0 {
		t.Errorf("progress should be suppressed at warn level, got %q", buf.String())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{5 * time.Second, "5s"},
		{2 * time.Minute, "2m"},
		{90 * time.Second, "1m30s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestConcurrentLogging verifies lines are never interleaved.
func TestConcurrentLogging(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.LogInfo("parsed session")
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 20 {
		t.Fatalf("got %d lines, want 20", len(lines))
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, "[INFO] parsed session") {
			t.Errorf("corrupted line %q", line)
		}
	}
}

func TestNoOpAndTee(t *testing.T) {
	var _ Logger = Nop
	var _ Logger = &ConsoleLogger{}
	var _ Logger = &FileLogger{}

	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	tee := Tee{NewConsoleLogger(a, "info"), NewConsoleLogger(b, "info"), Nop}
	tee.LogWarn("both")

	if !strings.Contains(a.String(), "both") || !strings.Contains(b.String(), "both") {
		t.Error("Tee should forward to every logger")
	}
}
