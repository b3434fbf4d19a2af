package filelock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// KeyedLocker serialises work per key. Within a process each key has a
// channel-based mutex; across processes each key maps to a flock file in dir.
// Different keys never block each other.
type KeyedLocker struct {
	dir string

	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	sem  chan struct{}
	refs int
}

// NewKeyedLocker creates a locker whose lock files live in dir.
func NewKeyedLocker(dir string) (*KeyedLocker, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	return &KeyedLocker{dir: dir, slots: make(map[string]*slot)}, nil
}

// Acquire blocks until key is held by the caller or ctx is done. The
// returned release function must be called exactly once.
func (k *KeyedLocker) Acquire(ctx context.Context, key string) (func(), error) {
	s := k.ref(key)

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		k.unref(key)
		return nil, fmt.Errorf("lock %q: %w", key, ctx.Err())
	}

	fl := NewFileLock(k.lockPath(key))
	if err := fl.LockContext(ctx); err != nil {
		<-s.sem
		k.unref(key)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			fl.Unlock()
			<-s.sem
			k.unref(key)
		})
	}, nil
}

// WithLock runs fn while holding key.
func (k *KeyedLocker) WithLock(ctx context.Context, key string, fn func() error) error {
	release, err := k.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func (k *KeyedLocker) ref(key string) *slot {
	k.mu.Lock()
	defer k.mu.Unlock()

	s, ok := k.slots[key]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	return s
}

func (k *KeyedLocker) unref(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	s := k.slots[key]
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}

// lockPath hashes the key so arbitrary user ids map to safe file names.
func (k *KeyedLocker) lockPath(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(k.dir, hex.EncodeToString(sum[:8])+".lock")
}
