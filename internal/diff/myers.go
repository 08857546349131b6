// internal/diff/myers.go
package diff

// segment is one piece of an edit path between two line sequences: either a
// snake (a run of lines common to both sides) or a diff (a run of inserted
// and/or deleted lines). Segments are half-open index ranges into the old
// and new line slices and always cover both files without gaps.
type segment struct {
	snake    bool
	oldStart int
	oldEnd   int
	newStart int
	newEnd   int
}

func (s segment) oldLen() int { return s.oldEnd - s.oldStart }
func (s segment) newLen() int { return s.newEnd - s.newStart }

type opKind int

const (
	opEqual opKind = iota
	opInsert
	opDelete
)

type editOp struct {
	kind   opKind
	oldIdx int
	newIdx int
}

// shortestEditPath computes a minimal edit path between the two line
// sequences using the greedy O(ND) shortest-edit-script search. Common
// prefix and suffix are stripped first; the result is a file-ordered,
// alternating sequence of snake and diff segments.
func shortestEditPath(oldLines, newLines []string) []segment {
	n, m := len(oldLines), len(newLines)
	if n == 0 && m == 0 {
		return nil
	}

	prefix := 0
	for prefix < n && prefix < m && oldLines[prefix] == newLines[prefix] {
		prefix++
	}
	suffix := 0
	limit := min(n, m) - prefix
	for suffix < limit && oldLines[n-1-suffix] == newLines[m-1-suffix] {
		suffix++
	}

	core := searchCore(oldLines[prefix:n-suffix], newLines[prefix:m-suffix])

	var segs []segment
	if prefix > 0 {
		segs = append(segs, segment{snake: true, oldEnd: prefix, newEnd: prefix})
	}
	for _, s := range core {
		s.oldStart += prefix
		s.oldEnd += prefix
		s.newStart += prefix
		s.newEnd += prefix
		segs = appendSegment(segs, s)
	}
	if suffix > 0 {
		segs = appendSegment(segs, segment{
			snake:    true,
			oldStart: n - suffix,
			oldEnd:   n,
			newStart: m - suffix,
			newEnd:   m,
		})
	}
	return segs
}

// appendSegment adds a segment, coalescing it with the previous one when
// both are of the same kind, so the path stays strictly alternating.
func appendSegment(segs []segment, s segment) []segment {
	if len(segs) > 0 {
		last := &segs[len(segs)-1]
		if last.snake == s.snake && last.oldEnd == s.oldStart && last.newEnd == s.newStart {
			last.oldEnd = s.oldEnd
			last.newEnd = s.newEnd
			return segs
		}
	}
	return append(segs, s)
}

// searchCore runs the diagonal search over the stripped line sequences and
// backtracks the recorded furthest-reaching frontiers into segments.
func searchCore(oldLines, newLines []string) []segment {
	n, m := len(oldLines), len(newLines)
	if n == 0 && m == 0 {
		return nil
	}

	maxD := n + m
	offset := maxD
	v := make([]int, 2*maxD+2)
	var trace [][]int

	dFinal := -1
search:
	for d := 0; d <= maxD; d++ {
		trace = append(trace, append([]int(nil), v...))
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k
			for x < n && y < m && oldLines[x] == newLines[y] {
				x++
				y++
			}
			v[offset+k] = x
			if x >= n && y >= m {
				dFinal = d
				break search
			}
		}
	}

	// Walk back from (n, m), collecting edit operations in reverse order.
	var ops []editOp
	x, y := n, m
	for d := dFinal; d > 0; d-- {
		vprev := trace[d]
		k := x - y
		var prevK int
		if k == -d || (k != d && vprev[offset+k-1] < vprev[offset+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := vprev[offset+prevK]
		prevY := prevX - prevK
		for x > prevX && y > prevY {
			ops = append(ops, editOp{opEqual, x - 1, y - 1})
			x--
			y--
		}
		if prevK == k+1 {
			ops = append(ops, editOp{opInsert, prevX, prevY})
		} else {
			ops = append(ops, editOp{opDelete, prevX, prevY})
		}
		x, y = prevX, prevY
	}
	for x > 0 && y > 0 {
		ops = append(ops, editOp{opEqual, x - 1, y - 1})
		x--
		y--
	}

	var segs []segment
	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		s := segment{
			snake:    op.kind == opEqual,
			oldStart: op.oldIdx,
			oldEnd:   op.oldIdx,
			newStart: op.newIdx,
			newEnd:   op.newIdx,
		}
		switch op.kind {
		case opEqual:
			s.oldEnd++
			s.newEnd++
		case opInsert:
			s.newEnd++
		case opDelete:
			s.oldEnd++
		}
		segs = appendSegment(segs, s)
	}
	return segs
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
