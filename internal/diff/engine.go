// internal/diff/engine.go

// Package diff computes line-level differences between two revisions of a
// file. It implements the greedy shortest-edit-script search and
// post-processes the raw path so that changed regions land where a human
// reviewer would expect them.
package diff

import (
	"strings"

	"revflow/internal/model"
)

// Engine computes fragment-level diffs. It is stateless apart from the
// start preference and safe for concurrent use.
type Engine struct {
	betterStart StartPreference
}

// NewEngine creates a diff engine. A nil preference falls back to
// SourceStartPreference.
func NewEngine(pref StartPreference) *Engine {
	if pref == nil {
		pref = SourceStartPreference
	}
	return &Engine{betterStart: pref}
}

// Diff returns the changed regions between the two file contents as pairs
// of old-side and new-side fragments, ordered by position. Identical
// contents yield no pairs.
func (e *Engine) Diff(fileOld model.RevisionedFile, oldContent []byte, fileNew model.RevisionedFile, newContent []byte) []model.FragmentPair {
	oldLines := splitLines(oldContent)
	newLines := splitLines(newContent)

	segs := shortestEditPath(oldLines, newLines)
	segs = e.improvePath(segs, oldLines, newLines)

	var pairs []model.FragmentPair
	for _, s := range segs {
		if s.snake {
			continue
		}
		pairs = append(pairs, model.FragmentPair{
			Old: fragmentFor(fileOld, oldLines, s.oldStart, s.oldEnd),
			New: fragmentFor(fileNew, newLines, s.newStart, s.newEnd),
		})
	}
	return pairs
}

// fragmentFor builds the fragment for the half-open line range [start, end).
// Lines are 1-based in positions; a range spanning whole lines ends at
// column 0 of the line after it, and an empty range collapses to a single
// insertion point.
func fragmentFor(file model.RevisionedFile, lines []string, start, end int) model.Fragment {
	return model.NewFragment(
		file,
		model.NewPosition(start+1, 1),
		model.NewPosition(end+1, 0),
		joinRange(lines, start, end),
	)
}

func joinRange(lines []string, start, end int) string {
	if start >= end {
		return ""
	}
	var b strings.Builder
	for _, line := range lines[start:end] {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// splitLines splits content into lines without terminators. Both LF and
// CRLF endings are accepted; a missing terminator on the last line still
// yields that line.
func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	lines := strings.Split(string(content), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
