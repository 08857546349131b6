// internal/change/manager.go

// Package change orchestrates updates to the file history graph. All
// mutation goes through one writer lane; readers always see the last
// fully built graph.
package change

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"revflow/internal/history"
	"revflow/internal/storage"
	shared "revflow/shared/types"
)

// ChangeSet is the persisted record of one applied event batch.
type ChangeSet struct {
	ID          string         `json:"id"`
	Description string         `json:"description,omitempty"`
	Events      []shared.Event `json:"events"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (c ChangeSet) GetID() string { return c.ID }

// Manager owns the history graph. Updates are all-or-nothing: each batch
// is replayed together with the full event journal onto a fresh graph,
// and the published graph pointer is only swapped when the whole replay
// succeeds. A failed batch leaves readers on the previous graph.
type Manager struct {
	mu        sync.Mutex
	journal   [][]shared.Event
	published atomic.Pointer[history.Graph]

	strategy history.AncestorStrategy
	sets     *storage.Store[ChangeSet]
	logger   *zap.Logger

	listenerMu sync.RWMutex
	listeners  []shared.Listener
}

// NewManager creates a manager with an empty published graph. sets may
// be nil to disable change-set persistence.
func NewManager(logger *zap.Logger, strategy history.AncestorStrategy, sets *storage.Store[ChangeSet]) *Manager {
	m := &Manager{
		strategy: strategy,
		sets:     sets,
		logger:   logger,
	}
	m.published.Store(history.New(strategy))
	return m
}

// Graph returns the last fully built graph. The returned graph must be
// treated as read-only.
func (m *Manager) Graph() *history.Graph {
	return m.published.Load()
}

// AddListener registers a listener for applied batches.
func (m *Manager) AddListener(l shared.Listener) {
	m.listenerMu.Lock()
	defer m.listenerMu.Unlock()
	m.listeners = append(m.listeners, l)
}

// ApplyEvents applies one atomic batch of events. Events within the
// batch and across calls must be ordered by revision; an out-of-order or
// contradictory batch is rejected as a whole.
func (m *Manager) ApplyEvents(events []shared.Event) error {
	return m.ApplyChangeSet("", events)
}

// ApplyChangeSet applies one atomic batch and records it under the given
// description.
func (m *Manager) ApplyChangeSet(description string, events []shared.Event) error {
	if len(events) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	graph, err := m.rebuild(events)
	if err != nil {
		m.logger.Warn("rejecting event batch",
			zap.Int("events", len(events)),
			zap.Error(err))
		return err
	}

	m.journal = append(m.journal, events)
	m.published.Store(graph)

	if m.sets != nil {
		cs := ChangeSet{
			ID:          uuid.New().String(),
			Description: description,
			Events:      events,
			CreatedAt:   time.Now(),
		}
		if err := m.sets.Create(cs); err != nil {
			m.logger.Error("persisting change set", zap.String("id", cs.ID), zap.Error(err))
		}
	}

	m.notify(events)
	return nil
}

// Replay feeds all batches of a change source through the manager.
func (m *Manager) Replay(ctx context.Context, source shared.ChangeSource) error {
	batches, err := source.Events(ctx)
	if err != nil {
		return fmt.Errorf("reading change source: %w", err)
	}
	for i, batch := range batches {
		if err := m.ApplyEvents(batch); err != nil {
			return fmt.Errorf("applying batch %d: %w", i, err)
		}
	}
	return nil
}

// rebuild replays the journal plus the candidate batch onto a fresh
// graph. Graph contract violations surface as panics and are converted
// to errors here.
func (m *Manager) rebuild(candidate []shared.Event) (g *history.Graph, err error) {
	defer func() {
		if r := recover(); r != nil {
			g = nil
			err = fmt.Errorf("event replay failed: %v", r)
		}
	}()

	g = history.New(m.strategy)
	for _, batch := range m.journal {
		for _, ev := range batch {
			if applyErr := applyEvent(g, ev); applyErr != nil {
				return nil, applyErr
			}
		}
	}
	for _, ev := range candidate {
		if applyErr := applyEvent(g, ev); applyErr != nil {
			return nil, applyErr
		}
	}
	return g, nil
}

func applyEvent(g *history.Graph, ev shared.Event) error {
	switch ev.Kind {
	case shared.EventAdd:
		g.AddAddition(ev.File())
	case shared.EventChange:
		g.AddChange(ev.File(), ev.Ancestors)
	case shared.EventDelete:
		g.AddDeletion(ev.File())
	case shared.EventCopy:
		g.AddCopy(ev.From(), ev.File())
	case shared.EventReplace:
		if ev.FromPath != "" {
			g.AddReplacementFrom(ev.File(), ev.From())
		} else {
			g.AddReplacement(ev.File())
		}
	default:
		return fmt.Errorf("unknown event kind %q for %s", ev.Kind, ev.Path)
	}
	return nil
}

func (m *Manager) notify(events []shared.Event) {
	m.listenerMu.RLock()
	listeners := append([]shared.Listener(nil), m.listeners...)
	m.listenerMu.RUnlock()

	for _, l := range listeners {
		l.HistoryUpdated(events)
	}
}

// ChangeSets lists the persisted change sets.
func (m *Manager) ChangeSets() ([]ChangeSet, error) {
	if m.sets == nil {
		return nil, nil
	}
	return m.sets.List()
}
