// internal/history/ancestor.go
package history

import "revflow/internal/model"

// AncestorStrategy decides which existing node a newly created node should
// descend from. Candidates are all known nodes with the same path and
// repository; the strategy may return nil to leave the node a root.
type AncestorStrategy interface {
	FindAncestorFor(candidates []*Node, file model.RevisionedFile) *Node
}

// LatestRevisionStrategy picks the nearest earlier revision of the same
// path that has not been deleted. This matches repositories with totally
// ordered revisions.
type LatestRevisionStrategy struct{}

func (LatestRevisionStrategy) FindAncestorFor(candidates []*Node, file model.RevisionedFile) *Node {
	var best *Node
	for _, node := range candidates {
		if node.file.Revision.Compare(file.Revision) >= 0 {
			continue
		}
		if node.typ == NodeDeleted {
			continue
		}
		if best == nil || node.file.Revision.Compare(best.file.Revision) > 0 {
			best = node
		}
	}
	return best
}
