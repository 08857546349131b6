// internal/model/position.go
package model

import "fmt"

// PositionInText is a position in a text file, denoted by 1-based line and
// column numbers. Column 0 means "end of the previous line", which lets a
// fragment spanning whole lines end at (line, 0) of the line after it.
type PositionInText struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func NewPosition(line, column int) PositionInText {
	return PositionInText{Line: line, Column: column}
}

// LessThan orders positions within one file.
func (p PositionInText) LessThan(other PositionInText) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Column < other.Column
}

func (p PositionInText) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Fragment is a contiguous half-open line range within one revision of one
// file, together with the literal content of the spanned lines. An empty
// fragment (From at the line after To's content end) marks a pure
// insertion or deletion point.
type Fragment struct {
	File    RevisionedFile `json:"file"`
	From    PositionInText `json:"from"`
	To      PositionInText `json:"to"`
	Content string         `json:"content"`
}

func NewFragment(file RevisionedFile, from, to PositionInText, content string) Fragment {
	return Fragment{File: file, From: from, To: to, Content: content}
}

// IsEmpty reports whether the fragment spans no lines at all.
func (f Fragment) IsEmpty() bool {
	return !f.From.LessThan(f.To)
}

// LineCount returns the number of whole lines the fragment spans.
func (f Fragment) LineCount() int {
	n := f.To.Line - f.From.Line
	if n < 0 {
		return 0
	}
	return n
}

func (f Fragment) String() string {
	return fmt.Sprintf("%s[%s..%s)", f.File, f.From, f.To)
}

// FragmentPair couples the old-side and new-side fragments of one changed
// region between two revisions of a file.
type FragmentPair struct {
	Old Fragment `json:"old"`
	New Fragment `json:"new"`
}

// IsInsertion reports whether the pair only adds lines.
func (p FragmentPair) IsInsertion() bool {
	return p.Old.IsEmpty() && !p.New.IsEmpty()
}

// IsDeletion reports whether the pair only removes lines.
func (p FragmentPair) IsDeletion() bool {
	return !p.Old.IsEmpty() && p.New.IsEmpty()
}
