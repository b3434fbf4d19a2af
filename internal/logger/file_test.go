package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileLoggerCreatesRunLogAndSymlink(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")

	fl, err := NewFileLogger(logDir, "info")
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	defer fl.Close()

	if !strings.HasPrefix(filepath.Base(fl.Path()), "run-") {
		t.Errorf("unexpected run log name %q", fl.Path())
	}

	target, err := os.Readlink(filepath.Join(logDir, "latest.log"))
	if err != nil {
		t.Fatalf("latest.log symlink missing: %v", err)
	}
	if target != filepath.Base(fl.Path()) {
		t.Errorf("latest.log -> %q, want %q", target, filepath.Base(fl.Path()))
	}
}

func TestFileLoggerLevels(t *testing.T) {
	fl, err := NewFileLogger(t.TempDir(), "warn")
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}

	fl.LogDebug("hidden debug")
	fl.LogInfo("hidden info")
	fl.LogWarn("visible warn")
	fl.LogError("visible error")
	if err := fl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(fl.Path())
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "=== suzerain run log ===") {
		t.Error("missing run log header")
	}
	if strings.Contains(content, "hidden") {
		t.Errorf("messages below warn leaked into run log:\n%s", content)
	}
	if !strings.Contains(content, "[WARN] visible warn") || !strings.Contains(content, "[ERROR] visible error") {
		t.Errorf("expected warn and error lines:\n%s", content)
	}
}

func TestFileLoggerCloseIsIdempotent(t *testing.T) {
	fl, err := NewFileLogger(t.TempDir(), "info")
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := fl.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	// Writes after close are dropped silently
	fl.LogWarn("after close")
}
