package behavioral

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/TheApexWu/suzerain/internal/config"
)

// DefaultDebounceDelay coalesces the burst of writes Claude Code makes
// while a session is active.
const DefaultDebounceDelay = 2 * time.Second

// SessionChange reports that a session file was created or appended to
type SessionChange struct {
	Path      string
	SessionID string
	Removed   bool
	At        time.Time
}

// FileWatcher watches the projects directory tree for session file changes.
// Writes to the same file are debounced into a single change.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	changes chan SessionChange
	errors  chan error
	done    chan struct{}
	rootDir string

	mu            sync.Mutex
	debounceDelay time.Duration
	timers        map[string]*time.Timer
	closed        bool
}

// NewFileWatcher starts watching rootDir and every project directory below it.
// A missing rootDir is not an error; nothing is watched until it is created.
func NewFileWatcher(rootDir string, debounce time.Duration) (*FileWatcher, error) {
	expanded, err := config.ExpandPath(rootDir)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounceDelay
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher:       watcher,
		changes:       make(chan SessionChange, 100),
		errors:        make(chan error, 10),
		done:          make(chan struct{}),
		rootDir:       filepath.Clean(expanded),
		debounceDelay: debounce,
		timers:        make(map[string]*time.Timer),
	}

	if err := fw.addTree(fw.rootDir); err != nil {
		watcher.Close()
		return nil, err
	}

	go fw.loop()
	return fw, nil
}

// addTree adds dir and its subdirectories to the watcher
func (fw *FileWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) || os.IsPermission(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.watcher.Add(path); err != nil && !os.IsPermission(err) {
			return err
		}
		return nil
	})
}

func (fw *FileWatcher) loop() {
	for {
		select {
		case <-fw.done:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handle(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.reportError(err)
		}
	}
}

func (fw *FileWatcher) handle(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := fw.addTree(path); err != nil {
				fw.reportError(err)
			}
			return
		}
	}

	if !isSessionFile(filepath.Base(path)) {
		return
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		fw.cancel(path)
		fw.send(path, true)
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		fw.debounce(path)
	}
}

func (fw *FileWatcher) debounce(path string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.closed {
		return
	}
	if timer, ok := fw.timers[path]; ok {
		timer.Stop()
	}
	fw.timers[path] = time.AfterFunc(fw.debounceDelay, func() {
		fw.mu.Lock()
		delete(fw.timers, path)
		fw.mu.Unlock()
		fw.send(path, false)
	})
}

func (fw *FileWatcher) cancel(path string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if timer, ok := fw.timers[path]; ok {
		timer.Stop()
		delete(fw.timers, path)
	}
}

func (fw *FileWatcher) send(path string, removed bool) {
	name := filepath.Base(path)
	change := SessionChange{
		Path:      path,
		SessionID: name[:len(name)-len(filepath.Ext(name))],
		Removed:   removed,
		At:        time.Now(),
	}
	select {
	case fw.changes <- change:
	case <-fw.done:
	default:
		// consumer is behind; the next write to the file re-triggers
	}
}

func (fw *FileWatcher) reportError(err error) {
	select {
	case fw.errors <- err:
	default:
	}
}

// Changes returns the channel of debounced session changes
func (fw *FileWatcher) Changes() <-chan SessionChange {
	return fw.changes
}

// Errors returns the channel of watcher errors
func (fw *FileWatcher) Errors() <-chan error {
	return fw.errors
}

// RootDir returns the directory being watched
func (fw *FileWatcher) RootDir() string {
	return fw.rootDir
}

// Close stops the watcher and cancels pending debounced changes
func (fw *FileWatcher) Close() error {
	fw.mu.Lock()
	if fw.closed {
		fw.mu.Unlock()
		return nil
	}
	fw.closed = true
	for _, timer := range fw.timers {
		timer.Stop()
	}
	fw.timers = nil
	fw.mu.Unlock()

	close(fw.done)
	return fw.watcher.Close()
}
