// Package shared holds the event model and the collaborator contracts
// exchanged between the history graph, change sources and repositories.
package shared

import (
	"context"

	"revflow/internal/model"
)

// EventKind is the type of file operation an event carries.
type EventKind string

const (
	EventAdd     EventKind = "add"
	EventChange  EventKind = "change"
	EventDelete  EventKind = "delete"
	EventCopy    EventKind = "copy"
	EventReplace EventKind = "replace"
)

// Event is one file operation within a changeset. Ancestors lists the
// prior revisions a change or replacement builds on; FromPath and FromRev
// are set for copies and for replacements that copy their content from
// another file.
type Event struct {
	Kind      EventKind        `json:"kind"`
	Path      string           `json:"path"`
	Revision  model.Revision   `json:"revision"`
	Repo      string           `json:"repo"`
	Ancestors []model.Revision `json:"ancestors,omitempty"`
	FromPath  string           `json:"from_path,omitempty"`
	FromRev   model.Revision   `json:"from_rev,omitempty"`
}

// File returns the identity of the file the event targets.
func (e Event) File() model.RevisionedFile {
	return model.NewRevisionedFile(e.Path, e.Revision, e.Repo)
}

// From returns the copy source identity for copy and replace events.
func (e Event) From() model.RevisionedFile {
	return model.NewRevisionedFile(e.FromPath, e.FromRev, e.Repo)
}

// Repository gives access to one version-controlled repository: its
// identity and the contents of files at given revisions.
type Repository interface {
	ID() string
	FileContents(ctx context.Context, file model.RevisionedFile) ([]byte, error)
}

// ChangeSource produces the events of a repository in changeset order.
type ChangeSource interface {
	// Events streams all known events. The slice per call is one atomic
	// changeset; events inside it are applied together or not at all.
	Events(ctx context.Context) ([][]Event, error)
}

// Listener is notified after a batch of events has been applied.
type Listener interface {
	HistoryUpdated(events []Event)
}
