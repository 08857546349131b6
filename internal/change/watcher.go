// internal/change/watcher.go
package change

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"revflow/internal/model"
	shared "revflow/shared/types"
	"revflow/shared/utils"
)

// Watcher observes a working tree and feeds local modifications into the
// manager's writer lane as events at the working-copy revision. Events
// are debounced so that editor write bursts collapse into one batch.
type Watcher struct {
	root     string
	repo     string
	manager  *Manager
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]shared.EventKind
	timer   *time.Timer

	ignoreDirs map[string]bool
}

// NewWatcher creates a watcher rooted at root and starts observing.
func NewWatcher(manager *Manager, root, repo string, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{
		root:     root,
		repo:     repo,
		manager:  manager,
		watcher:  fsw,
		logger:   logger,
		debounce: 250 * time.Millisecond,
		pending:  make(map[string]shared.EventKind),
		ignoreDirs: map[string]bool{
			".git":         true,
			".svn":         true,
			".revflow":     true,
			"node_modules": true,
			"vendor":       true,
			"dist":         true,
			"build":        true,
		},
	}

	if err := w.addDirectories(); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching working tree: %w", err)
	}

	go w.watchLoop()
	return w, nil
}

func (w *Watcher) addDirectories() error {
	return filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return err
		}
		if w.shouldIgnore(rel) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("adding %s to watcher: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		w.logger.Error("getting relative path", zap.String("path", event.Name), zap.Error(err))
		return
	}
	if w.shouldIgnore(rel) {
		return
	}

	var kind shared.EventKind
	switch {
	case event.Op&fsnotify.Create != 0:
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Error("adding new directory to watcher", zap.Error(err))
			}
			return
		}
		kind = shared.EventAdd
	case event.Op&fsnotify.Write != 0:
		kind = shared.EventChange
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		kind = shared.EventDelete
	default:
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if existing, ok := w.pending[rel]; ok {
		kind = coalesce(existing, kind)
	}
	w.pending[rel] = kind

	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.flush)
	} else {
		w.timer.Reset(w.debounce)
	}
}

// coalesce folds a new filesystem event into the kind already pending
// for the same path within the current debounce window.
func coalesce(existing, next shared.EventKind) shared.EventKind {
	switch {
	case next == shared.EventChange && (existing == shared.EventAdd || existing == shared.EventReplace):
		// a create followed by writes stays an addition or replacement
		return existing
	case next == shared.EventAdd && existing == shared.EventDelete:
		// delete then recreate is an in-place replacement, so the graph
		// keeps the deletion in the file's history
		return shared.EventReplace
	}
	return next
}

// flush submits the collected modifications as one batch.
func (w *Watcher) flush() {
	w.mu.Lock()
	pending := w.pending
	w.pending = make(map[string]shared.EventKind)
	w.timer = nil
	w.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	paths := utils.MapKeys(pending)
	sort.Strings(paths)

	events := make([]shared.Event, 0, len(paths))
	for _, path := range paths {
		ev := shared.Event{
			Kind:     pending[path],
			Path:     filepath.ToSlash(path),
			Revision: model.LocalRevision(),
			Repo:     w.repo,
		}
		if ev.Kind == shared.EventChange {
			// the graph resolves the real ancestor itself when the path
			// is already known
			ev.Ancestors = []model.Revision{model.UnknownRevision()}
		}
		events = append(events, ev)
	}

	if err := w.manager.ApplyChangeSet("local modifications", events); err != nil {
		w.logger.Warn("applying local modifications", zap.Int("events", len(events)), zap.Error(err))
	}
}

func (w *Watcher) shouldIgnore(path string) bool {
	if path == "" || path == "." {
		return false
	}
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if w.ignoreDirs[part] || strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// Close stops watching. Pending modifications are flushed first.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
	w.flush()
	return w.watcher.Close()
}
