package packrat

import "sort"

// lineIndex converts byte offsets into 1-based line/column pairs in
// O(log n), per spec.md §9 ("Position tracking"): carry positions as byte
// offsets internally, and use a precomputed newline-offset table only
// when constructing error values and AstNode positions (terminal and
// composite nodes alike).
type lineIndex struct {
	// newlines[i] is the byte offset of the i-th '\n' in the source.
	newlines []int
}

func newLineIndex(src string) *lineIndex {
	idx := &lineIndex{}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			idx.newlines = append(idx.newlines, i)
		}
	}
	return idx
}

// LineColumn returns the 1-based line and column of byte offset pos.
func (idx *lineIndex) LineColumn(pos int) (line, column int) {
	line = sort.SearchInts(idx.newlines, pos) + 1
	lineStart := 0
	if line > 1 {
		lineStart = idx.newlines[line-2] + 1
	}
	return line, pos - lineStart + 1
}
