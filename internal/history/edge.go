// internal/history/edge.go
package history

import (
	"context"
	"fmt"
	"sync"

	"revflow/internal/diff"
	"revflow/internal/model"
)

// EdgeType classifies the relation between an ancestor and a descendant
// revision.
type EdgeType int

const (
	// EdgeNormal connects consecutive revisions of the same flow.
	EdgeNormal EdgeType = iota
	// EdgeCopy connects a copy source to the copy target.
	EdgeCopy
	// EdgeCopyDeleted marks a copy flow that was terminated by deleting
	// the copy target.
	EdgeCopyDeleted
)

func (t EdgeType) String() string {
	switch t {
	case EdgeNormal:
		return "normal"
	case EdgeCopy:
		return "copy"
	case EdgeCopyDeleted:
		return "copy-deleted"
	default:
		return fmt.Sprintf("edgetype(%d)", int(t))
	}
}

// ContentSource provides file contents for diff computation on demand.
type ContentSource interface {
	FileContents(ctx context.Context, file model.RevisionedFile) ([]byte, error)
}

// Edge is an ancestor/descendant relation between two nodes. The textual
// diff along the edge is not part of the topology; it is computed lazily
// on first request and cached.
type Edge struct {
	typ        EdgeType
	ancestor   *Node
	descendant *Node

	diffMu   sync.Mutex
	pairs    []model.FragmentPair
	computed bool
}

func (e *Edge) Type() EdgeType    { return e.typ }
func (e *Edge) Ancestor() *Node   { return e.ancestor }
func (e *Edge) Descendant() *Node { return e.descendant }

// Diff computes the changed regions between the edge's ancestor and
// descendant contents. The result is cached on success; fetch or diff
// failures are returned without touching the cache or the graph.
func (e *Edge) Diff(ctx context.Context, engine *diff.Engine, contents ContentSource) ([]model.FragmentPair, error) {
	e.diffMu.Lock()
	defer e.diffMu.Unlock()
	if e.computed {
		return e.pairs, nil
	}

	oldContent, err := contents.FileContents(ctx, e.ancestor.file)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", e.ancestor.file, err)
	}
	newContent, err := contents.FileContents(ctx, e.descendant.file)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", e.descendant.file, err)
	}

	e.pairs = engine.Diff(e.ancestor.file, oldContent, e.descendant.file, newContent)
	e.computed = true
	return e.pairs, nil
}

func (e *Edge) String() string {
	return fmt.Sprintf("%s -[%s]-> %s", e.ancestor.file, e.typ, e.descendant.file)
}
