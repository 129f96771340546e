package server

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"jobmatch/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// CertWatcher watches certificate files and calls onChange after a quiet period.
// Parent directories are watched too, so atomic rename-style replacements are seen.
type CertWatcher struct {
	mu sync.Mutex

	files       []string
	lastModTime map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	onChange func()
	logger   *errors.Logger
	running  bool
}

// NewCertWatcher creates a watcher over the non-empty paths in files
func NewCertWatcher(files []string, debounceDelay time.Duration, onChange func(), logger *errors.Logger) *CertWatcher {
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}
	if logger == nil {
		logger = errors.NopLogger()
	}
	watched := slices.DeleteFunc(slices.Clone(files), func(f string) bool { return f == "" })

	return &CertWatcher{
		files:         watched,
		lastModTime:   make(map[string]time.Time),
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		onChange:      onChange,
		logger:        logger,
	}
}

// Start begins watching
func (cw *CertWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.running {
		return fmt.Errorf("certificate watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	cw.fsWatcher = watcher

	dirs := make(map[string]bool)
	for _, file := range cw.files {
		if stat, err := os.Stat(file); err == nil {
			cw.lastModTime[file] = stat.ModTime()
		}
		dirs[filepath.Dir(file)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	cw.running = true
	go cw.watchLoop()

	cw.logger.Info("Certificate file watcher started",
		"files", cw.files,
		"debounce_delay", cw.debounceDelay)
	return nil
}

// Stop stops the watcher
func (cw *CertWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running {
		return nil
	}
	close(cw.stopChan)
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.running = false

	if err := cw.fsWatcher.Close(); err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}
	cw.logger.Info("Certificate file watcher stopped")
	return nil
}

func (cw *CertWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.fsWatcher.Events:
			if !ok {
				return
			}
			if cw.isRelevant(event) {
				cw.scheduleReload()
			}

		case err, ok := <-cw.fsWatcher.Errors:
			if !ok {
				return
			}
			cw.logger.LogError(err, "File watcher error")

		case <-cw.reloadChan:
			if cw.anyChanged() {
				cw.logger.Info("Certificate files changed, triggering reload")
				cw.onChange()
			}

		case <-cw.stopChan:
			return
		}
	}
}

// isRelevant matches write, create and rename events on watched file names
func (cw *CertWatcher) isRelevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	return slices.ContainsFunc(cw.files, func(file string) bool {
		return filepath.Clean(event.Name) == filepath.Clean(file) ||
			filepath.Base(event.Name) == filepath.Base(file)
	})
}

// anyChanged compares modification times; a vanished file counts as a change
func (cw *CertWatcher) anyChanged() bool {
	changed := false
	for _, file := range cw.files {
		stat, err := os.Stat(file)
		if err != nil {
			if _, known := cw.lastModTime[file]; known {
				delete(cw.lastModTime, file)
				changed = true
			}
			continue
		}
		if last, known := cw.lastModTime[file]; !known || !stat.ModTime().Equal(last) {
			cw.lastModTime[file] = stat.ModTime()
			changed = true
		}
	}
	return changed
}

// scheduleReload restarts the debounce timer
func (cw *CertWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.debounceTimer = time.AfterFunc(cw.debounceDelay, func() {
		select {
		case cw.reloadChan <- struct{}{}:
		default:
		}
	})
}

// IsRunning returns whether the watcher is currently running
func (cw *CertWatcher) IsRunning() bool {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.running
}
