// internal/diff/diff_test.go
package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revflow/internal/model"
)

func fileAt(rev uint64) model.RevisionedFile {
	return model.NewRevisionedFile("src/main.go", model.NewRevision(rev), "repo")
}

func lines(ls ...string) []byte {
	if len(ls) == 0 {
		return nil
	}
	return []byte(strings.Join(ls, "\n") + "\n")
}

// applyPairs replays the new-side fragments onto the old content. The
// result must reproduce the new content exactly.
func applyPairs(t *testing.T, oldContent []byte, pairs []model.FragmentPair) string {
	t.Helper()
	oldLines := splitLines(oldContent)
	var b strings.Builder
	idx := 0
	for _, p := range pairs {
		start := p.Old.From.Line - 1
		end := p.Old.To.Line - 1
		require.LessOrEqual(t, idx, start, "pairs must be ordered and non-overlapping")
		for ; idx < start; idx++ {
			b.WriteString(oldLines[idx])
			b.WriteByte('\n')
		}
		b.WriteString(p.New.Content)
		idx = end
	}
	for ; idx < len(oldLines); idx++ {
		b.WriteString(oldLines[idx])
		b.WriteByte('\n')
	}
	return b.String()
}

func changedLineCount(pairs []model.FragmentPair) int {
	total := 0
	for _, p := range pairs {
		total += p.Old.LineCount() + p.New.LineCount()
	}
	return total
}

func TestDiffSingleChangedLine(t *testing.T) {
	e := NewEngine(nil)
	old := lines("a", "b", "c")
	new := lines("a", "x", "c")

	pairs := e.Diff(fileAt(1), old, fileAt(2), new)
	require.Len(t, pairs, 1)

	p := pairs[0]
	assert.Equal(t, model.NewPosition(2, 1), p.Old.From)
	assert.Equal(t, model.NewPosition(3, 0), p.Old.To)
	assert.Equal(t, "b\n", p.Old.Content)
	assert.Equal(t, model.NewPosition(2, 1), p.New.From)
	assert.Equal(t, model.NewPosition(3, 0), p.New.To)
	assert.Equal(t, "x\n", p.New.Content)
	assert.False(t, p.IsInsertion())
	assert.False(t, p.IsDeletion())
}

func TestDiffIdenticalContents(t *testing.T) {
	e := NewEngine(nil)
	content := lines("a", "b", "c")

	assert.Empty(t, e.Diff(fileAt(1), content, fileAt(2), content))
}

func TestDiffLineEndingsNormalized(t *testing.T) {
	e := NewEngine(nil)

	pairs := e.Diff(fileAt(1), []byte("a\r\nb\r\n"), fileAt(2), []byte("a\nb\n"))
	assert.Empty(t, pairs)
}

func TestDiffEmptySides(t *testing.T) {
	e := NewEngine(nil)

	t.Run("empty old is one insertion", func(t *testing.T) {
		pairs := e.Diff(fileAt(1), nil, fileAt(2), lines("a", "b"))
		require.Len(t, pairs, 1)
		assert.True(t, pairs[0].IsInsertion())
		assert.Equal(t, "a\nb\n", pairs[0].New.Content)
		assert.True(t, pairs[0].Old.IsEmpty())
	})

	t.Run("empty new is one deletion", func(t *testing.T) {
		pairs := e.Diff(fileAt(1), lines("a", "b"), fileAt(2), nil)
		require.Len(t, pairs, 1)
		assert.True(t, pairs[0].IsDeletion())
		assert.Equal(t, "a\nb\n", pairs[0].Old.Content)
	})

	t.Run("both empty", func(t *testing.T) {
		assert.Empty(t, e.Diff(fileAt(1), nil, fileAt(2), nil))
	})
}

func TestDiffIsMinimal(t *testing.T) {
	e := NewEngine(nil)
	old := lines("a", "b", "c", "a", "b", "b", "a")
	new := lines("c", "b", "a", "b", "a", "c")

	pairs := e.Diff(fileAt(1), old, fileAt(2), new)
	// The shortest edit script for this pair is known to touch 5 lines.
	assert.Equal(t, 5, changedLineCount(pairs))
	assert.Equal(t, string(new), applyPairs(t, old, pairs))
}

func TestDiffRoundTrip(t *testing.T) {
	e := NewEngine(nil)
	cases := []struct {
		name     string
		old, new []byte
	}{
		{"replace middle", lines("a", "b", "c"), lines("a", "x", "c")},
		{"insert block", lines("a", "b"), lines("a", "x", "y", "b")},
		{"delete block", lines("a", "x", "y", "b"), lines("a", "b")},
		{"disjoint changes", lines("a", "b", "c", "d", "e"), lines("a", "x", "c", "y", "e")},
		{"repeated lines", lines("x", "a", "b", "a", "b"), lines("x", "a", "b", "a", "b", "a", "b")},
		{"full rewrite", lines("a", "b"), lines("x", "y", "z")},
		{"no trailing newline", []byte("a\nb"), []byte("a\nc")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pairs := e.Diff(fileAt(1), tc.old, fileAt(2), tc.new)
			want := strings.Join(splitLines(tc.new), "\n")
			if want != "" {
				want += "\n"
			}
			assert.Equal(t, want, applyPairs(t, tc.old, pairs))
		})
	}
}

func TestDiffIdempotent(t *testing.T) {
	e := NewEngine(nil)
	old := lines("x", "a", "/* h */", "b")
	new := lines("x", "a", "/* h */", "b", "a", "/* h */", "b")

	first := e.Diff(fileAt(1), old, fileAt(2), new)
	second := e.Diff(fileAt(1), old, fileAt(2), new)
	assert.Equal(t, first, second)
}

func TestDiffShiftsInsertionToCommentStart(t *testing.T) {
	e := NewEngine(nil)
	old := lines("x", "a", "/* h */", "b")
	new := lines("x", "a", "/* h */", "b", "a", "/* h */", "b")

	pairs := e.Diff(fileAt(1), old, fileAt(2), new)
	require.Len(t, pairs, 1)

	p := pairs[0]
	require.True(t, p.IsInsertion())
	// The raw path appends after line 4; the repeated pattern allows the
	// insertion to start at the block comment on line 3 instead.
	assert.Equal(t, model.NewPosition(3, 1), p.New.From)
	assert.Equal(t, model.NewPosition(6, 0), p.New.To)
	assert.Equal(t, "/* h */\nb\na\n", p.New.Content)
	assert.Equal(t, string(new), applyPairs(t, old, pairs))
}

func TestShiftInsertionJoinsPrecedingDiff(t *testing.T) {
	e := NewEngine(nil)
	newLines := []string{"z", "M", "M", "c"}

	// The insertion of the second M can rotate over the snake between the
	// two diffs; emptying that snake merges the regions into one.
	segs := []segment{
		{oldStart: 0, oldEnd: 1, newStart: 0, newEnd: 1},
		{snake: true, oldStart: 1, oldEnd: 2, newStart: 1, newEnd: 2},
		{oldStart: 2, oldEnd: 2, newStart: 2, newEnd: 3},
		{snake: true, oldStart: 2, oldEnd: 3, newStart: 3, newEnd: 4},
	}

	got := e.shiftInsertionsUpwards(segs, newLines)
	require.Len(t, got, 2)
	assert.Equal(t, segment{oldStart: 0, oldEnd: 1, newStart: 0, newEnd: 2}, got[0])
	assert.Equal(t, segment{snake: true, oldStart: 1, oldEnd: 3, newStart: 2, newEnd: 4}, got[1])
}

func TestShiftTrailingDiffDownwards(t *testing.T) {
	e := NewEngine(nil)
	oldLines := []string{"a", "b", "/* h */", "c", "b", "/* h */", "c"}
	newLines := []string{"a", "b", "/* h */", "c"}

	// A deletion placed before the repeated block can rotate downwards to
	// start at the comment line.
	segs := []segment{
		{snake: true, oldStart: 0, oldEnd: 1, newStart: 0, newEnd: 1},
		{oldStart: 1, oldEnd: 4, newStart: 1, newEnd: 1},
		{snake: true, oldStart: 4, oldEnd: 7, newStart: 1, newEnd: 4},
	}

	got := e.shiftTrailingDiffDownwards(segs, oldLines, newLines)
	require.Len(t, got, 3)
	assert.Equal(t, segment{snake: true, oldStart: 0, oldEnd: 2, newStart: 0, newEnd: 2}, got[0])
	assert.Equal(t, segment{oldStart: 2, oldEnd: 5, newStart: 2, newEnd: 2}, got[1])
	assert.Equal(t, segment{snake: true, oldStart: 5, oldEnd: 7, newStart: 2, newEnd: 4}, got[2])
}

func TestShortestEditPathCoversBothFiles(t *testing.T) {
	oldLines := []string{"a", "b", "c", "d"}
	newLines := []string{"a", "x", "c", "d", "e"}

	segs := shortestEditPath(oldLines, newLines)
	require.NotEmpty(t, segs)

	oldPos, newPos := 0, 0
	for _, s := range segs {
		assert.Equal(t, oldPos, s.oldStart)
		assert.Equal(t, newPos, s.newStart)
		if s.snake {
			assert.Equal(t, s.oldLen(), s.newLen())
		} else {
			assert.Positive(t, s.oldLen()+s.newLen())
		}
		oldPos, newPos = s.oldEnd, s.newEnd
	}
	assert.Equal(t, len(oldLines), oldPos)
	assert.Equal(t, len(newLines), newPos)
}
