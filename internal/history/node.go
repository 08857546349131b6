// internal/history/node.go
package history

import (
	"fmt"
	"strings"

	"revflow/internal/model"
)

// NodeType classifies a node's life-cycle state. Transitions only ever
// strengthen: UNCONFIRMED -> NORMAL -> DELETED -> REPLACED.
type NodeType int

const (
	// NodeUnconfirmed marks a node whose existence was inferred (a copy
	// source or a synthesized ancestor) but not yet seen as an explicit
	// operation.
	NodeUnconfirmed NodeType = iota
	// NodeNormal marks a confirmed, existing file revision.
	NodeNormal
	// NodeDeleted marks the revision in which the file was deleted.
	NodeDeleted
	// NodeReplaced marks a deletion that was followed by a re-addition of
	// the same path in the same revision.
	NodeReplaced
)

func (t NodeType) String() string {
	switch t {
	case NodeUnconfirmed:
		return "unconfirmed"
	case NodeNormal:
		return "normal"
	case NodeDeleted:
		return "deleted"
	case NodeReplaced:
		return "replaced"
	default:
		return fmt.Sprintf("nodetype(%d)", int(t))
	}
}

// Node is one file (or directory) revision in the history graph. Nodes are
// connected by ancestor/descendant edges along the content flow and by
// parent/child links along the directory containment. Nodes are never
// removed once created.
type Node struct {
	file model.RevisionedFile
	typ  NodeType

	ancestors   []*Edge
	descendants []*Edge

	parent   *Node
	children []*Node
}

func (n *Node) File() model.RevisionedFile { return n.file }
func (n *Node) Type() NodeType             { return n.typ }

// Ancestors returns the incoming edges. The returned slice must not be
// modified.
func (n *Node) Ancestors() []*Edge { return n.ancestors }

// Descendants returns the outgoing edges. The returned slice must not be
// modified.
func (n *Node) Descendants() []*Edge { return n.descendants }

func (n *Node) Parent() *Node     { return n.parent }
func (n *Node) Children() []*Node { return n.children }

// IsRoot reports whether the node has no ancestors at all.
func (n *Node) IsRoot() bool { return len(n.ancestors) == 0 }

// IsConfirmed reports whether the node's existence has been confirmed by
// an explicit operation.
func (n *Node) IsConfirmed() bool { return n.typ != NodeUnconfirmed }

// PathRelativeToParent returns the node's path with the parent's path
// prefix removed, including the leading separator.
func (n *Node) PathRelativeToParent() string {
	if n.parent == nil {
		return n.file.Path
	}
	return strings.TrimPrefix(n.file.Path, n.parent.file.Path)
}

func (n *Node) makeConfirmed() {
	if n.typ == NodeUnconfirmed {
		n.typ = NodeNormal
	}
}

func (n *Node) makeDeleted() {
	if n.typ == NodeDeleted || n.typ == NodeReplaced {
		panic(fmt.Sprintf("history: %s deleted twice", n.file))
	}
	n.typ = NodeDeleted
}

func (n *Node) makeReplaced() {
	if n.typ != NodeDeleted {
		panic(fmt.Sprintf("history: %s re-added but not deleted (type %s)", n.file, n.typ))
	}
	n.typ = NodeReplaced
}

// addDescendant links n to descendant with a new edge of the given type.
// Parallel edges between the same pair of nodes are allowed; a deleted
// copy flow and a later explicit re-copy legitimately coexist.
func (n *Node) addDescendant(descendant *Node, typ EdgeType) *Edge {
	e := &Edge{typ: typ, ancestor: n, descendant: descendant}
	n.descendants = append(n.descendants, e)
	descendant.ancestors = append(descendant.ancestors, e)
	return e
}

func (n *Node) removeDescendantEdge(e *Edge) {
	n.descendants = removeEdge(n.descendants, e)
	e.descendant.ancestors = removeEdge(e.descendant.ancestors, e)
}

func removeEdge(edges []*Edge, e *Edge) []*Edge {
	for i, candidate := range edges {
		if candidate == e {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return edges
}

// addChild records containment. A child with the same path is only linked
// once.
func (n *Node) addChild(child *Node) {
	for _, existing := range n.children {
		if existing.file == child.file {
			return
		}
	}
	n.children = append(n.children, child)
	child.parent = n
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.file, n.typ)
}
