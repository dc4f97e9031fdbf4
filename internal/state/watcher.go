package state

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Paintersrp/metamatter/internal/constants"
	"github.com/Paintersrp/metamatter/internal/events"
	"github.com/Paintersrp/metamatter/internal/logger"
	"github.com/Paintersrp/metamatter/internal/pathutil"
)

// VaultWatcher turns filesystem notifications for a vault into note events.
// Bursts of notifications for the same note collapse into one event that is
// published once the note has been quiet for the debounce interval.
type VaultWatcher struct {
	watcher  *fsnotify.Watcher
	vault    string
	debounce time.Duration
	ignored  func(rel string) bool

	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	pending map[string]*time.Timer
	onClose func()
}

func NewVaultWatcher(vault string, debounce time.Duration, ignored func(string) bool) (*VaultWatcher, error) {
	normalizedVault := pathutil.NormalizePath(vault)
	if normalizedVault == "" {
		return nil, errors.New("vault directory cannot be empty")
	}
	if ignored == nil {
		ignored = func(string) bool { return false }
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watcher := &VaultWatcher{
		watcher:  w,
		vault:    normalizedVault,
		debounce: debounce,
		ignored:  ignored,
		done:     make(chan struct{}),
		pending:  make(map[string]*time.Timer),
	}

	if _, err := watcher.addRecursive(normalizedVault); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	return watcher, nil
}

// Run publishes a LayoutReady event and then forwards note events to bus
// until ctx is cancelled or the watcher is closed.
func (w *VaultWatcher) Run(ctx context.Context, bus *events.Bus) error {
	if err := bus.Publish(ctx, events.Event{Kind: events.LayoutReady}); err != nil {
		return err
	}

	log := logger.G(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					notes, err := w.addRecursive(event.Name)
					if err != nil {
						log.WithError(err).WithField("dir", event.Name).Warn("failed to watch directory")
					}
					for _, rel := range notes {
						w.schedule(ctx, bus, rel)
					}
					continue
				}
			}

			if !w.isRelevant(event) {
				continue
			}

			rel := w.relativePath(event.Name)
			if rel == "" || w.ignored(rel) {
				continue
			}

			w.schedule(ctx, bus, rel)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				log.WithError(err).Warn("vault watcher error")
			}
		}
	}
}

// schedule (re)starts the debounce timer for rel. When it fires the note is
// classified as changed or removed by whether it still exists.
func (w *VaultWatcher) schedule(ctx context.Context, bus *events.Bus, rel string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[rel]; ok {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.pending[rel] == timer {
			delete(w.pending, rel)
		}
		w.mu.Unlock()

		kind := events.NoteChanged
		if _, err := os.Stat(filepath.Join(w.vault, filepath.FromSlash(rel))); errors.Is(err, fs.ErrNotExist) {
			kind = events.NoteRemoved
		}

		if err := bus.Publish(ctx, events.Event{Kind: kind, Path: rel}); err != nil &&
			!errors.Is(err, events.ErrClosed) && !errors.Is(err, context.Canceled) {
			logger.G(ctx).WithError(err).WithField("path", rel).Warn("dropped note event")
		}
	})
	w.pending[rel] = timer
}

func (w *VaultWatcher) Close() error {
	if w == nil {
		return nil
	}

	var closeErr error
	w.once.Do(func() {
		close(w.done)

		w.mu.Lock()
		for rel, timer := range w.pending {
			timer.Stop()
			delete(w.pending, rel)
		}
		w.mu.Unlock()

		closeErr = w.watcher.Close()
		if w.onClose != nil {
			w.onClose()
		}
	})

	return closeErr
}

// OnClose registers a callback that is invoked exactly once when the watcher
// shuts down.
func (w *VaultWatcher) OnClose(fn func()) {
	if w == nil {
		return
	}
	w.onClose = fn
}

// addRecursive watches root and every folder below it that is not ignored,
// returning the notes found along the way.
func (w *VaultWatcher) addRecursive(root string) ([]string, error) {
	var notes []string
	normalized := pathutil.NormalizePath(root)
	err := filepath.WalkDir(normalized, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return filepath.SkipDir
			}
			return err
		}

		rel := w.relativePath(path)
		if rel != "" && w.ignored(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.IsDir() {
			if rel != "" && isNote(rel) {
				notes = append(notes, rel)
			}
			return nil
		}

		return w.watcher.Add(path)
	})
	return notes, err
}

func (w *VaultWatcher) isRelevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	return isNote(event.Name)
}

func isNote(name string) bool {
	return strings.EqualFold(filepath.Ext(name), constants.NoteExt)
}

func (w *VaultWatcher) relativePath(path string) string {
	rel, err := pathutil.VaultRelative(w.vault, pathutil.NormalizePath(path))
	if err != nil {
		return ""
	}

	if rel == "." || rel == "" || strings.HasPrefix(rel, "..") {
		return ""
	}

	return rel
}
