// Package buffer implements the text buffer the grammar engine scans:
// input bytes plus a current position (byte offset, 1-based line,
// 1-based column), advanced one byte at a time with tab-stop and
// newline accounting, and restorable by snapshot for back-tracking.
package buffer

// DefaultTabWidth is the tab stop used when a Buffer's TabWidth is
// left at its zero value.
const DefaultTabWidth = 4

// Position identifies a point in the input: a byte offset plus the
// 1-based line/column it corresponds to.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Buffer owns the input bytes and tracks the current scan position.
type Buffer struct {
	input    []byte
	pos      Position
	TabWidth int
}

// Load creates a Buffer positioned at the start of input.
func Load(input []byte) *Buffer {
	return &Buffer{
		input:    input,
		pos:      Position{Offset: 0, Line: 1, Column: 1},
		TabWidth: DefaultTabWidth,
	}
}

// Len returns the number of bytes in the input.
func (b *Buffer) Len() int { return len(b.input) }

// Bytes returns the underlying input slice. Callers must not mutate it.
func (b *Buffer) Bytes() []byte { return b.input }

// AtEnd reports whether the cursor has consumed the whole input.
func (b *Buffer) AtEnd() bool { return b.pos.Offset >= len(b.input) }

// Peek returns the byte under the cursor and true, or (0, false) at
// end of input.
func (b *Buffer) Peek() (byte, bool) {
	if b.AtEnd() {
		return 0, false
	}
	return b.input[b.pos.Offset], true
}

// Position returns the buffer's current position.
func (b *Buffer) Position() Position { return b.pos }

// tabWidth returns the effective tab width, defaulting when unset.
func (b *Buffer) tabWidth() int {
	if b.TabWidth <= 0 {
		return DefaultTabWidth
	}
	return b.TabWidth
}

// Advance consumes the byte under the cursor and updates line/column
// per the tab-stop and newline rules: a tab moves the column to one
// past the next multiple of TabWidth (columns being 1-based, width 4
// sends columns 1-4 to 5), a newline resets column to 1 and
// increments line, any other byte just moves the column one over.
// Advancing past end-of-input is a no-op.
func (b *Buffer) Advance() {
	c, ok := b.Peek()
	if !ok {
		return
	}
	b.pos.Offset++
	switch c {
	case '\n':
		b.pos.Line++
		b.pos.Column = 1
	case '\t':
		width := b.tabWidth()
		// Move to the next multiple of width, 1-based columns.
		b.pos.Column = ((b.pos.Column-1)/width+1)*width + 1
	default:
		b.pos.Column++
	}
}

// Seek restores the buffer to a previously observed position
// atomically: offset, line and column are set together from p, never
// partially.
func (b *Buffer) Seek(p Position) {
	b.pos = p
}

// Slice returns the input bytes in [start, end).
func (b *Buffer) Slice(start, end int) []byte {
	return b.input[start:end]
}
