package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events editors emit on save
const DefaultDebounce = 500 * time.Millisecond

// FileWatcher calls back once per burst of changes to a watched file
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	logger    *zap.Logger
	mu        sync.Mutex
	callbacks map[string]func(string)
	debounce  time.Duration
	timers    map[string]*time.Timer
}

// NewFileWatcher creates a new file watcher. A nil logger discards output.
func NewFileWatcher(debounce time.Duration, logger *zap.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FileWatcher{
		watcher:   watcher,
		logger:    logger,
		callbacks: make(map[string]func(string)),
		debounce:  debounce,
		timers:    make(map[string]*time.Timer),
	}, nil
}

// Watch registers callback for each of files
func (fw *FileWatcher) Watch(files []string, callback func(string)) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for _, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", file, err)
		}

		if err := fw.watcher.Add(absPath); err != nil {
			return fmt.Errorf("failed to watch %s: %w", absPath, err)
		}

		fw.callbacks[absPath] = callback
		fw.logger.Debug("Watching file", zap.String("path", absPath))
	}

	return nil
}

// Unwatch stops watching files
func (fw *FileWatcher) Unwatch(files []string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for _, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			continue
		}
		_ = fw.watcher.Remove(absPath)
		delete(fw.callbacks, absPath)
		if timer, ok := fw.timers[absPath]; ok {
			timer.Stop()
			delete(fw.timers, absPath)
		}
	}
}

// Run dispatches events until ctx is done or the watcher is closed
func (fw *FileWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("Watcher error", zap.Error(err))
		}
	}
}

// Start runs the event loop in a goroutine
func (fw *FileWatcher) Start(ctx context.Context) {
	go fw.Run(ctx)
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		fw.handleFileChange(event.Name)
	case event.Has(fsnotify.Rename), event.Has(fsnotify.Remove):
		// editors that save by replacing the file drop the inotify watch
		fw.rewatch(event.Name)
	}
}

// rewatch re-adds a replaced file once it exists again
func (fw *FileWatcher) rewatch(filePath string) {
	fw.mu.Lock()
	_, watched := fw.callbacks[filePath]
	fw.mu.Unlock()
	if !watched {
		return
	}

	time.AfterFunc(fw.debounce, func() {
		if !fw.readd(filePath) {
			return
		}
		fw.handleFileChange(filePath)
	})
}

// readd adds filePath back to fsnotify unless it was unwatched meanwhile
func (fw *FileWatcher) readd(filePath string) bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, watched := fw.callbacks[filePath]; !watched {
		return false
	}
	if err := fw.watcher.Add(filePath); err != nil {
		fw.logger.Debug("File did not come back", zap.String("path", filePath), zap.Error(err))
		return false
	}
	return true
}

// WatchList returns the paths fsnotify currently watches
func (fw *FileWatcher) WatchList() []string {
	return fw.watcher.WatchList()
}

// handleFileChange restarts the debounce timer of filePath
func (fw *FileWatcher) handleFileChange(filePath string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	callback, exists := fw.callbacks[filePath]
	if !exists {
		return
	}

	if timer, exists := fw.timers[filePath]; exists {
		timer.Stop()
	}

	fw.timers[filePath] = time.AfterFunc(fw.debounce, func() {
		fw.logger.Debug("File changed", zap.String("path", filePath))
		callback(filePath)
	})
}

// Close stops the watcher
func (fw *FileWatcher) Close() error {
	fw.mu.Lock()
	for _, timer := range fw.timers {
		timer.Stop()
	}
	fw.mu.Unlock()
	return fw.watcher.Close()
}

// RemoveAll removes all watched files
func (fw *FileWatcher) RemoveAll() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for file := range fw.callbacks {
		if err := fw.watcher.Remove(file); err != nil {
			return err
		}
	}
	for _, timer := range fw.timers {
		timer.Stop()
	}

	fw.callbacks = make(map[string]func(string))
	fw.timers = make(map[string]*time.Timer)
	return nil
}
