package worksheet

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchConfig holds configuration for the worksheet watcher
type WatchConfig struct {
	FilePath string // Path to the worksheet file
	Debounce time.Duration
}

// Watcher notifies a callback when the worksheet file changes on disk.
// Useful for long-lived invocations where an operator edits the sheet
// between runs; one-shot commands leave it disabled.
type Watcher struct {
	config    WatchConfig
	watcher   *fsnotify.Watcher
	stopWatch chan struct{}
	closeOnce sync.Once
}

// NewWatcher starts watching the worksheet file and invokes onChange after
// every write, debounced so editors that write in bursts trigger it once.
func NewWatcher(config WatchConfig, onChange func()) (*Watcher, error) {
	if config.Debounce <= 0 {
		config.Debounce = 100 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := fsw.Add(config.FilePath); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch worksheet: %w", err)
	}

	w := &Watcher{
		config:    config,
		watcher:   fsw,
		stopWatch: make(chan struct{}),
	}

	go w.watchFileChanges(onChange)

	return w, nil
}

// watchFileChanges handles file system events for the worksheet file
func (w *Watcher) watchFileChanges(onChange func()) {
	defer w.watcher.Close()

	var timer *time.Timer
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(w.config.Debounce, onChange)
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

		case <-w.stopWatch:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// Close stops watching the worksheet file
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.stopWatch)
	})
	return nil
}
