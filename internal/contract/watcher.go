package contract

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DriftFunc is invoked when the contract file on disk no longer matches the
// fingerprint of the loaded document.
type DriftFunc func(liveFingerprint string)

// Watcher watches the contract file and reports content drift. It never
// hot-reloads: the loaded document stays authoritative for the process
// lifetime, and drift is surfaced for operators to act on.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	loaded   *Document
	onDrift  DriftFunc
	logger   *zap.Logger
	debounce time.Duration
	lastSeen time.Time
	running  bool
	doneCh   chan struct{}
}

// NewWatcher creates a drift watcher for the contract at path.
func NewWatcher(path string, loaded *Document, logger *zap.Logger, onDrift DriftFunc) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fsWatcher,
		path:     path,
		loaded:   loaded,
		onDrift:  onDrift,
		logger:   logger,
		debounce: 500 * time.Millisecond,
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the watcher stops when ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.path); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}

	go w.loop(ctx)
	return nil
}

// Close stops the watcher and waits for the event loop to exit. Safe to call
// even when Start failed and the loop never launched.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	w.mu.Lock()
	started := w.running
	w.mu.Unlock()
	if started {
		<-w.doneCh
	}
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.mu.Lock()
			now := time.Now()
			debounced := now.Sub(w.lastSeen) < w.debounce
			if !debounced {
				w.lastSeen = now
			}
			w.mu.Unlock()
			if debounced {
				continue
			}
			w.checkDrift()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("contract watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) checkDrift() {
	live, err := Load(w.path)
	if err != nil {
		w.logger.Error("contract file changed and no longer validates",
			zap.String("path", w.path),
			zap.Error(err))
		if w.onDrift != nil {
			w.onDrift("")
		}
		return
	}
	if live.Fingerprint() == w.loaded.Fingerprint() {
		return
	}
	w.logger.Error("contract content drift detected",
		zap.String("path", w.path),
		zap.String("loaded_fingerprint", w.loaded.Fingerprint()),
		zap.String("live_fingerprint", live.Fingerprint()))
	if w.onDrift != nil {
		w.onDrift(live.Fingerprint())
	}
}
