package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileLogger appends levelled lines to a timestamped run log and keeps a
// latest.log symlink pointing at it. Used by watch mode, which outlives the
// terminal it was started from.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates logDir if needed and opens run-YYYYMMDD-HHMMSS.log in it.
func NewFileLogger(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

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
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}
	fl.write(fmt.Sprintf("=== suzerain run log ===\nStarted at: %s\n\n", time.Now().Format(time.RFC3339)))
	return fl, nil
}

// Path returns the run log file path.
func (fl *FileLogger) Path() string {
	return fl.runFile
}

func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if logLevelToInt(strings.ToLower(level)) < logLevelToInt(fl.logLevel) {
		return
	}
	fl.write(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// Close flushes and closes the run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog == nil {
		return nil
	}
	if err := fl.runLog.Sync(); err != nil {
		return fmt.Errorf("failed to sync run log: %w", err)
	}
	if err := fl.runLog.Close(); err != nil {
		return fmt.Errorf("failed to close run log: %w", err)
	}
	fl.runLog = nil
	return nil
}

func (fl *FileLogger) write(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		fl.runLog.Sync()
	}
}

// Tee fans every message out to several loggers.
type Tee []Logger

func (t Tee) LogDebug(message string) {
	for _, l := range t {
		l.LogDebug(message)
	}
}

func (t Tee) LogInfo(message string) {
	for _, l := range t {
		l.LogInfo(message)
	}
}

func (t Tee) LogWarn(message string) {
	for _, l := range t {
		l.LogWarn(message)
	}
}
