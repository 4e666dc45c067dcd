package parser

import "github.com/tcpoc/tcpoc/ast"
import "github.com/tcpoc/tcpoc/buffer"

// memoState is the three-way outcome recorded for a (position,
// non-terminal) pair: nothing has been tried yet, a previous attempt
// failed, or a previous attempt succeeded with a known result and
// resume position.
type memoState int

const (
	memoUnknown memoState = iota
	memoFailed
	memoSucceeded
)

type memoEntry struct {
	state  memoState
	result ast.Node
	next   buffer.Position
}

type memoKey struct {
	offset int
	nt     string
}

// memoTable is the packrat cache: per (input offset, non-terminal
// identity), the outcome of the last attempt. Entries live for the
// lifetime of one parse and are never retracted once they reach
// memoSucceeded — only unknown -> failed -> (possibly) succeeded
// transitions occur.
type memoTable struct {
	m map[memoKey]*memoEntry
}

func newMemoTable() *memoTable {
	return &memoTable{m: make(map[memoKey]*memoEntry)}
}

func (t *memoTable) get(k memoKey) (*memoEntry, bool) {
	e, ok := t.m[k]
	if !ok {
		return nil, false
	}
	return e, true
}

func (t *memoTable) set(k memoKey, e *memoEntry) {
	t.m[k] = e
}
