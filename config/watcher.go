package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/perchdev/perch/pkg/paths"
)

// Watcher notifies a callback when the bridge-dirs file changes, so a
// running server reacts to `perch bridge-dirs add` without waiting for the
// next poll tick.
type Watcher struct {
	watcher    *fsnotify.Watcher
	debounce   time.Duration
	lastChange time.Time
	mu         sync.Mutex
	logger     *logrus.Entry
	onChange   func()
}

// NewWatcher creates a Watcher over the perch config directory. The onChange
// callback fires after a debounced write to the bridge-dirs file.
func NewWatcher(logger *logrus.Entry, onChange func()) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(paths.ConfigDir()); err != nil {
		watcher.Close()
		return nil, err
	}

	return &Watcher{
		watcher:  watcher,
		debounce: 100 * time.Millisecond,
		logger:   logger,
		onChange: onChange,
	}, nil
}

// Start begins watching for config changes. It blocks until the context is
// cancelled.
func (w *Watcher) Start(ctx context.Context) {
	target := filepath.Base(paths.BridgeDirsPath())
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			w.handleChange(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("Watcher error: %v", err)
		case <-ctx.Done():
			w.watcher.Close()
			return
		}
	}
}

func (w *Watcher) handleChange(file string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Debounce rapid writes
	if time.Since(w.lastChange) < w.debounce {
		return
	}
	w.lastChange = time.Now()

	w.logger.WithField("file", filepath.Base(file)).Info("Bridge directory list changed")
	if w.onChange != nil {
		w.onChange()
	}
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
