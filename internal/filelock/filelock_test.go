package filelock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLockUnlock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")
	lock := NewFileLock(lockPath)

	if lock.Path() != lockPath {
		t.Errorf("Path() = %s, want %s", lock.Path(), lockPath)
	}
	if err := lock.Lock(); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Failed to release lock: %v", err)
	}
}

func TestTryLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	holder := NewFileLock(lockPath)
	if err := holder.Lock(); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	other := NewFileLock(lockPath)
	acquired, err := other.TryLock()
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	if acquired {
		t.Fatal("TryLock() should fail while another holder has the lock")
	}

	holder.Unlock()

	acquired, err = other.TryLock()
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	if !acquired {
		t.Error("TryLock() should succeed after release")
	}
	other.Unlock()
}

func TestLockContextTimeout(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	holder := NewFileLock(lockPath)
	if err := holder.Lock(); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	defer holder.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	err := NewFileLock(lockPath).LockContext(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("LockContext() error = %v, want deadline exceeded", err)
	}
}

func TestAtomicWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.json")

	if err := AtomicWrite(path, []byte(`{"a":1}`), 0600); err != nil {
		t.Fatalf("AtomicWrite() error = %v", err)
	}
	if err := AtomicWrite(path, []byte(`{"a":2}`), 0600); err != nil {
		t.Fatalf("AtomicWrite() overwrite error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"a":2}` {
		t.Errorf("content = %s, want overwritten value", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("perm = %v, want 0600", info.Mode().Perm())
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestConcurrentLockAndWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := LockAndWrite(path, []byte("complete-payload"), 0644); err != nil {
				t.Errorf("LockAndWrite() error = %v", err)
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "complete-payload" {
		t.Errorf("content = %q, want a complete write", data)
	}
}
