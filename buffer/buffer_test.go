package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_AdvancePlain(t *testing.T) {
	b := Load([]byte("ab"))
	require.False(t, b.AtEnd())
	b.Advance()
	assert.Equal(t, Position{Offset: 1, Line: 1, Column: 2}, b.Position())
	b.Advance()
	assert.Equal(t, Position{Offset: 2, Line: 1, Column: 3}, b.Position())
	assert.True(t, b.AtEnd())
}

func TestBuffer_Newline(t *testing.T) {
	b := Load([]byte("a\nb"))
	b.Advance() // a
	b.Advance() // \n
	assert.Equal(t, Position{Offset: 2, Line: 2, Column: 1}, b.Position())
}

func TestBuffer_TabStops(t *testing.T) {
	b := Load([]byte("a\tb"))
	b.Advance() // a -> col 2
	require.Equal(t, 2, b.Position().Column)
	b.Advance() // tab -> next multiple of 4 + 1 => col 5
	assert.Equal(t, 5, b.Position().Column)
}

func TestBuffer_AdvancePastEndIsNoop(t *testing.T) {
	b := Load([]byte("a"))
	b.Advance()
	before := b.Position()
	b.Advance()
	assert.Equal(t, before, b.Position())
}

func TestBuffer_SeekRestoresAtomically(t *testing.T) {
	b := Load([]byte("abc\nd"))
	b.Advance()
	b.Advance()
	snapshot := b.Position()
	b.Advance()
	b.Advance()
	b.Advance()
	b.Seek(snapshot)
	assert.Equal(t, snapshot, b.Position())
}
