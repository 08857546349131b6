// internal/model/lookup.go
package model

// PositionLookupTable converts (line, column) positions into character
// offsets from file start and caches the per-line offsets needed for it.
type PositionLookupTable struct {
	charCountAtEndOfLine []int
}

// NewPositionLookupTable builds a lookup table for the given file content.
func NewPositionLookupTable(content []byte) *PositionLookupTable {
	t := &PositionLookupTable{charCountAtEndOfLine: []int{0}}
	for i, ch := range content {
		if ch == '\n' {
			t.charCountAtEndOfLine = append(t.charCountAtEndOfLine, i+1)
		}
	}
	return t
}

// CharsSinceFileStart returns the character offset of the given position.
// Positions on lines beyond the last newline resolve relative to the last
// known line start.
func (t *PositionLookupTable) CharsSinceFileStart(pos PositionInText) int {
	line := pos.Line - 1
	if line < 0 {
		line = 0
	}
	if line >= len(t.charCountAtEndOfLine) {
		line = len(t.charCountAtEndOfLine) - 1
	}
	return t.charCountAtEndOfLine[line] + pos.Column
}
