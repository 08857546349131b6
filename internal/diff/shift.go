// internal/diff/shift.go
package diff

import "strings"

// StartPreference decides whether a changed region starting at candidate
// would look better to a human reader than one starting at current. It is
// consulted when a diff segment can be shifted over a repeated line
// pattern without changing the edit cost.
type StartPreference func(candidate, current string) bool

// SourceStartPreference is the default preference for source files: a line
// opening a block comment makes a good diff start, while closing braces
// and closing tags make bad ones.
func SourceStartPreference(candidate, current string) bool {
	c := strings.TrimSpace(candidate)
	b := strings.TrimSpace(current)
	return (strings.HasPrefix(c, "/*") && !strings.HasPrefix(b, "/*")) ||
		(!strings.HasPrefix(c, "}") && strings.HasPrefix(b, "}")) ||
		(!strings.HasPrefix(c, "</") && strings.HasPrefix(b, "</"))
}

// improvePath post-processes the edit path. The search has a bias to start
// diffs too far downwards, so pure insertions are first moved upwards where
// a repeated line pattern allows it; the trailing diff can then end up too
// far up and is checked for a better downward position.
func (e *Engine) improvePath(segs []segment, oldLines, newLines []string) []segment {
	segs = e.shiftInsertionsUpwards(segs, newLines)
	segs = e.shiftTrailingDiffDownwards(segs, oldLines, newLines)
	return segs
}

func (e *Engine) shiftInsertionsUpwards(segs []segment, newLines []string) []segment {
	for i := len(segs) - 1; i >= 0; i-- {
		s := segs[i]
		if s.snake || s.oldLen() != 0 || s.newLen() == 0 {
			continue
		}

		best := 0
		for move := 1; canShiftUp(segs, i, move, newLines); move++ {
			if e.betterStart(newLines[s.newStart-move], newLines[s.newStart-best]) ||
				joinsPrecedingDiff(segs, i, move) {
				best = move
			}
		}
		if best == 0 {
			continue
		}

		segs = shiftUp(segs, i, best)
		if i > 0 && segs[i-1].snake && segs[i-1].newLen() == 0 {
			if i >= 2 {
				segs = joinAcrossEmptySnake(segs, i)
				// retry the merged diff on the next iteration
				i--
			} else {
				segs = append(segs[:i-1], segs[i:]...)
			}
		}
	}
	return segs
}

// canShiftUp reports whether the pure-insertion diff at index i may be
// moved up by move lines: the line entering the region must equal the line
// leaving it (a rotation of a repeated pattern) and the move must stay
// within the preceding snake.
func canShiftUp(segs []segment, i, move int, newLines []string) bool {
	s := segs[i]
	if s.newStart < move {
		return false
	}
	if i > 0 && move > segs[i-1].newLen() {
		return false
	}
	return newLines[s.newEnd-move] == newLines[s.newStart-move]
}

// joinsPrecedingDiff reports whether shifting by move empties the snake
// before the diff, which would merge two changed regions into one.
func joinsPrecedingDiff(segs []segment, i, move int) bool {
	return i > 0 && move == segs[i-1].newLen()
}

func shiftUp(segs []segment, i, move int) []segment {
	segs[i].oldStart -= move
	segs[i].oldEnd -= move
	segs[i].newStart -= move
	segs[i].newEnd -= move
	if i > 0 {
		segs[i-1].oldEnd -= move
		segs[i-1].newEnd -= move
	}
	if i < len(segs)-1 {
		segs[i+1].oldStart -= move
		segs[i+1].newStart -= move
	} else {
		segs = append(segs, segment{
			snake:    true,
			oldStart: segs[i].oldEnd,
			oldEnd:   segs[i].oldEnd + move,
			newStart: segs[i].newEnd,
			newEnd:   segs[i].newEnd + move,
		})
	}
	return segs
}

// joinAcrossEmptySnake removes the emptied snake at i-1 and merges the
// diffs at i-2 and i into one.
func joinAcrossEmptySnake(segs []segment, i int) []segment {
	merged := segs[i]
	merged.oldStart = segs[i-2].oldStart
	merged.newStart = segs[i-2].newStart
	out := append([]segment(nil), segs[:i-2]...)
	out = append(out, merged)
	out = append(out, segs[i+1:]...)
	return out
}

func (e *Engine) shiftTrailingDiffDownwards(segs []segment, oldLines, newLines []string) []segment {
	n := len(segs)
	if n < 2 {
		return segs
	}
	last := segs[n-1]
	if !last.snake || last.oldLen() == 0 {
		return segs
	}
	d := segs[n-2]
	if d.snake || (d.oldLen() == 0 && d.newLen() == 0) {
		return segs
	}

	best := 0
	for move := 1; move <= last.oldLen() && canShiftDown(d, move, oldLines, newLines); move++ {
		var better bool
		if d.newLen() > 0 {
			better = e.betterStart(newLines[d.newStart+move], newLines[d.newStart+best])
		} else {
			better = e.betterStart(oldLines[d.oldStart+move], oldLines[d.oldStart+best])
		}
		if better {
			best = move
		}
	}
	if best == 0 {
		return segs
	}

	segs[n-2].oldStart += best
	segs[n-2].oldEnd += best
	segs[n-2].newStart += best
	segs[n-2].newEnd += best
	segs[n-1].oldStart += best
	segs[n-1].newStart += best
	if n >= 3 {
		segs[n-3].oldEnd += best
		segs[n-3].newEnd += best
	} else {
		segs = append([]segment{{snake: true, oldEnd: best, newEnd: best}}, segs...)
	}
	if last := &segs[len(segs)-1]; last.oldLen() == 0 {
		segs = segs[:len(segs)-1]
	}
	return segs
}

// canShiftDown mirrors canShiftUp for the trailing diff: both sides must
// rotate over a repeated pattern. A side the diff does not touch rotates
// trivially.
func canShiftDown(d segment, move int, oldLines, newLines []string) bool {
	oldIdx := d.oldEnd + move - 1
	newIdx := d.newEnd + move - 1
	if d.oldLen() > 0 && oldLines[oldIdx] != oldLines[oldIdx-d.oldLen()] {
		return false
	}
	if d.newLen() > 0 && newLines[newIdx] != newLines[newIdx-d.newLen()] {
		return false
	}
	return true
}
