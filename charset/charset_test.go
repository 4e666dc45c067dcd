package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_ContainsAndAdd(t *testing.T) {
	s := New()
	require.False(t, s.Contains('a'))
	s.Add('a')
	require.True(t, s.Contains('a'))
	require.False(t, s.Contains('b'))
}

func TestSet_Remove(t *testing.T) {
	s := New()
	s.Add('x')
	s.Remove('x')
	assert.False(t, s.Contains('x'))
}

func TestSet_AddRange(t *testing.T) {
	for _, tt := range []struct {
		name     string
		a, b     byte
		in, notIn []byte
	}{
		{"digits", '0', '9', []byte{'0', '5', '9'}, []byte{'/', ':'}},
		{"single", 'z', 'z', []byte{'z'}, []byte{'y', 'a'}},
		{"full-byte", 0, 255, []byte{0, 128, 255}, nil},
	} {
		t.Run(tt.name, func(t *testing.T) {
			s := NewFromRange(tt.a, tt.b)
			for _, c := range tt.in {
				assert.True(t, s.Contains(c), "expected %q in range", c)
			}
			for _, c := range tt.notIn {
				assert.False(t, s.Contains(c), "expected %q outside range", c)
			}
		})
	}
}

func TestSet_Union(t *testing.T) {
	a := NewFromRange('a', 'z')
	b := NewFromRange('0', '9')
	u := a.Union(b)
	assert.True(t, u.Contains('m'))
	assert.True(t, u.Contains('5'))
	assert.False(t, u.Contains('!'))
}

func TestSet_String(t *testing.T) {
	s := NewFromRange('a', 'z')
	assert.Equal(t, "a-z", s.String())

	s2 := NewFromBytes('a', 'b', 'd')
	assert.Equal(t, "abd", s2.String())
}
