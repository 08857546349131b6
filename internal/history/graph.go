// internal/history/graph.go

// Package history maintains a graph of file revisions. It tracks renames,
// copies and deletions so that the history of a file forms a tree of
// flows, including flows that are only known indirectly through copies of
// parent directories.
package history

import (
	"fmt"
	"strings"

	"revflow/internal/model"
)

type indexKey struct {
	path string
	repo string
}

// Graph is the mutable file history graph. It is not synchronized; all
// mutation must come from a single writer. Operations for one repository
// must be applied in revision order.
type Graph struct {
	index    map[indexKey][]*Node
	nodes    []*Node
	ancestry AncestorStrategy
}

// New creates an empty graph. A nil strategy falls back to
// LatestRevisionStrategy.
func New(strategy AncestorStrategy) *Graph {
	if strategy == nil {
		strategy = LatestRevisionStrategy{}
	}
	return &Graph{
		index:    make(map[indexKey][]*Node),
		ancestry: strategy,
	}
}

// Contains reports whether any revision of the given path is known.
func (g *Graph) Contains(path, repo string) bool {
	return len(g.index[indexKey{path, repo}]) > 0
}

// NodeFor returns the node for the exact file identity, or nil.
func (g *Graph) NodeFor(file model.RevisionedFile) *Node {
	for _, node := range g.index[indexKey{file.Path, file.Repo}] {
		if node.file.Revision == file.Revision {
			return node
		}
	}
	return nil
}

// NodesFor returns all known revisions of a path in insertion order.
func (g *Graph) NodesFor(path, repo string) []*Node {
	nodes := g.index[indexKey{path, repo}]
	return append([]*Node(nil), nodes...)
}

// Nodes returns every node in creation order.
func (g *Graph) Nodes() []*Node {
	return append([]*Node(nil), g.nodes...)
}

func (g *Graph) NodeCount() int { return len(g.nodes) }

// AddAddition records that the file was newly added in the given
// revision. An added file starts a fresh flow; a previously deleted node
// for the same identity becomes REPLACED.
func (g *Graph) AddAddition(file model.RevisionedFile) {
	g.getOrCreateIsolatedNode(file)
}

// AddChange records a content change of the file. ancestors names the
// revisions the change was based on; it must not be empty. If the file is
// not yet part of any flow, ancestor nodes are created to record where
// the change came from.
func (g *Graph) AddChange(file model.RevisionedFile, ancestors []model.Revision) {
	if len(ancestors) == 0 {
		panic(fmt.Sprintf("history: change of %s without ancestor revisions", file))
	}

	// no artificial ancestor here: a change names its ancestors itself
	node := g.getOrCreateNode(file, false, false, true)
	if node.typ == NodeDeleted {
		panic(fmt.Sprintf("history: change recorded for deleted %s", file))
	}

	if node.IsRoot() {
		for _, rev := range ancestors {
			prev := model.NewRevisionedFile(file.Path, rev, file.Repo)
			ancestor := g.getOrCreateUnconfirmedNode(prev)
			ancestor.addDescendant(node, EdgeNormal)
		}
	}
	// else: the node was copied in the same revision and the passed
	// ancestors carry no extra information
}

// AddDeletion records that the file was deleted in the given revision.
// Children known from earlier revisions are materialized and deleted
// along with it.
func (g *Graph) AddDeletion(file model.RevisionedFile) {
	node := g.getOrCreateConfirmedNode(file)
	node.makeDeleted()
	g.terminateCopyFlows(node)

	g.createMissingChildren(node)
	for _, child := range node.children {
		if child.file.Revision != file.Revision {
			panic(fmt.Sprintf("history: child %s outlives deletion of %s", child.file, file))
		}
		g.AddDeletion(child.file)
	}
}

// AddReplacement records a deletion immediately followed by a re-addition
// of the same path in the same revision.
func (g *Graph) AddReplacement(file model.RevisionedFile) {
	g.AddDeletion(file)
	g.AddAddition(file)
}

// AddReplacementFrom records a deletion immediately followed by a copy
// onto the same path in the same revision.
func (g *Graph) AddReplacementFrom(file model.RevisionedFile, from model.RevisionedFile) {
	g.AddDeletion(file)
	g.AddCopy(from, file)
}

// AddCopy records that fileTo was created as a copy of fileFrom. Children
// of the copy source are copied along, except those already deleted at
// the source revision.
func (g *Graph) AddCopy(fileFrom, fileTo model.RevisionedFile) {
	if fileFrom.Repo != fileTo.Repo {
		panic(fmt.Sprintf("history: copy across repositories: %s -> %s", fileFrom, fileTo))
	}

	fromNode := g.getOrCreateUnconfirmedNode(fileFrom)
	toNode := g.getOrCreateIsolatedNode(fileTo)

	g.createMissingChildren(fromNode)

	// Two parallel edges between the same pair of nodes are possible
	// here: a COPY_DELETED edge from an earlier deletion of the copy
	// target's parent plus the COPY edge of an explicit re-copy. Both
	// flows are kept.
	fromNode.addDescendant(toNode, EdgeCopy)
	g.copyChildNodes(fromNode, toNode)
}

func (g *Graph) copyChildNodes(fromParent, toParent *Node) {
	fromPath := fromParent.file.Path
	toPath := toParent.file.Path

	for _, child := range fromParent.children {
		if child.typ == NodeDeleted {
			continue
		}
		childPath := child.file.Path
		g.AddCopy(
			model.NewRevisionedFile(childPath, fromParent.file.Revision, fromParent.file.Repo),
			model.NewRevisionedFile(toPath+strings.TrimPrefix(childPath, fromPath), toParent.file.Revision, toParent.file.Repo),
		)
	}
}

// terminateCopyFlows marks copy flows running through the deleted node as
// terminated: for every copy source feeding an immediate ancestor, a
// COPY_DELETED edge from that source to the deleted node records that the
// copied file ceased to exist.
func (g *Graph) terminateCopyFlows(deleted *Node) {
	for _, ancestorEdge := range deleted.ancestors {
		if ancestorEdge.typ != EdgeNormal {
			continue
		}
		for _, sourceEdge := range ancestorEdge.ancestor.ancestors {
			if sourceEdge.typ == EdgeCopy {
				sourceEdge.ancestor.addDescendant(deleted, EdgeCopyDeleted)
			}
		}
	}
}

// addParentNodes links the node to its containing directory, creating the
// directory chain on demand.
func (g *Graph) addParentNodes(node *Node) {
	path := node.file.Path
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return
	}
	parentFile := model.NewRevisionedFile(path[:idx], node.file.Revision, node.file.Repo)
	parent := g.getOrCreateNode(parentFile, false, true, node.IsConfirmed())
	parent.addChild(node)
}

// createMissingChildren materializes children of target that are only
// known from its ancestors. The ancestor walk follows NORMAL edges only
// and keeps a visited set; branching and merging make the ancestry a
// graph, not a tree.
func (g *Graph) createMissingChildren(target *Node) {
	paths := make(map[string]bool)
	for _, child := range target.children {
		paths[child.file.Path] = true
	}

	visited := make(map[*Node]bool)
	work := []*Node{target}
	for len(work) > 0 {
		node := work[0]
		work = work[1:]
		if visited[node] {
			continue
		}
		visited[node] = true

		g.createMissingTargetChildren(paths, node, target)

		for _, e := range node.ancestors {
			if e.typ == EdgeNormal {
				work = append(work, e.ancestor)
			}
		}
	}
}

// createMissingTargetChildren creates a child of target for every child
// of ancestor whose path has not been covered yet. Deleted ancestor
// children still claim their path so that older revisions cannot
// resurrect them.
func (g *Graph) createMissingTargetChildren(paths map[string]bool, ancestor, target *Node) {
	for _, ancestorChild := range ancestor.children {
		childPath := ancestorChild.file.Path
		if paths[childPath] {
			continue
		}
		paths[childPath] = true
		if ancestorChild.typ == NodeDeleted {
			continue
		}
		targetChildPath := target.file.Path + ancestorChild.PathRelativeToParent()
		targetChild := g.getOrCreateIsolatedNode(
			model.NewRevisionedFile(targetChildPath, target.file.Revision, target.file.Repo))
		g.addNodeWithAncestor(targetChild, ancestorChild, EdgeNormal)
	}
}

// getOrCreateConfirmedNode returns the node for file, creating it as a
// NORMAL node with an ancestor (real or artificial) if missing.
func (g *Graph) getOrCreateConfirmedNode(file model.RevisionedFile) *Node {
	return g.getOrCreateNode(file, false, true, true)
}

// getOrCreateUnconfirmedNode returns the node for file, creating it as an
// UNCONFIRMED node with an ancestor (real or artificial) if missing.
func (g *Graph) getOrCreateUnconfirmedNode(file model.RevisionedFile) *Node {
	return g.getOrCreateNode(file, false, true, false)
}

// getOrCreateIsolatedNode returns the node for file, creating it without
// any ancestor if missing. Used where the caller wires the ancestry
// itself.
func (g *Graph) getOrCreateIsolatedNode(file model.RevisionedFile) *Node {
	return g.getOrCreateNode(file, true, false, true)
}

// getOrCreateAlphaNode returns the artificial root node for a file whose
// origin lies before the known history. An alpha node may already exist
// when it is needed again.
func (g *Graph) getOrCreateAlphaNode(file model.RevisionedFile) *Node {
	return g.getOrCreateNode(file, false, false, false)
}

// getOrCreateNode is the single node factory.
//
// isNew marks the file as added in this very revision: no ancestor is
// looked up, and an existing node must be a deleted one being replaced.
// artificialAncestor requests an alpha root when no real ancestor exists.
// confirmed decides the initial node type and whether the node is
// injected into an existing flow.
func (g *Graph) getOrCreateNode(file model.RevisionedFile, isNew, artificialAncestor, confirmed bool) *Node {
	if node := g.NodeFor(file); node != nil {
		if isNew {
			node.makeReplaced()
		}
		return node
	}

	typ := NodeUnconfirmed
	if confirmed {
		typ = NodeNormal
	}
	node := &Node{file: file, typ: typ}
	key := indexKey{file.Path, file.Repo}
	g.index[key] = append(g.index[key], node)
	g.nodes = append(g.nodes, node)

	g.addParentNodes(node)

	var ancestor *Node
	if !isNew {
		ancestor = g.ancestry.FindAncestorFor(g.index[key], file)
	}
	if ancestor == nil && artificialAncestor {
		alphaFile := model.NewRevisionedFile(file.Path, model.UnknownRevision(), file.Repo)
		if alphaFile != file {
			ancestor = g.getOrCreateAlphaNode(alphaFile)
		}
	}

	if ancestor != nil {
		g.addNodeWithAncestor(node, ancestor, EdgeNormal)
	}
	return node
}

// addNodeWithAncestor wires a node under an already determined ancestor.
// A confirmed ancestor confirms the node; a confirmed node is injected
// into the ancestor's existing flow before the edge is added.
func (g *Graph) addNodeWithAncestor(node, ancestor *Node, typ EdgeType) {
	if ancestor.IsConfirmed() && !node.IsConfirmed() {
		node.makeConfirmed()
	}
	if node.IsConfirmed() {
		g.injectInteriorNode(ancestor, node)
	}
	ancestor.addDescendant(node, typ)
}

// injectInteriorNode reroutes the ancestor's existing NORMAL descendant
// edges through the interior node. This happens when a node for an old
// revision is created late, after later revisions were already linked,
// e.g. due to copying an old file revision. Copy edges are left alone;
// they represent rename/move flows that do not pass through the interior
// node.
func (g *Graph) injectInteriorNode(ancestor, interior *Node) {
	if ancestor.file.Path != interior.file.Path {
		return
	}
	for _, e := range append([]*Edge(nil), ancestor.descendants...) {
		if e.typ != EdgeNormal {
			continue
		}
		descendant := e.descendant
		ancestor.removeDescendantEdge(e)
		interior.addDescendant(descendant, EdgeNormal)
	}
}

func (g *Graph) String() string {
	var b strings.Builder
	for _, node := range g.nodes {
		fmt.Fprintf(&b, "%s\n", node)
	}
	return b.String()
}
