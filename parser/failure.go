package parser

import (
	"fmt"
	"strings"

	"github.com/tcpoc/tcpoc/buffer"
	"github.com/tcpoc/tcpoc/grammar"
)

// maxExpectedEntries bounds how many distinct (stack, expected) pairs
// the deepest-reach report keeps; beyond that the report stops being
// readable anyway.
const maxExpectedEntries = 200

// traceFrame is one entry of the non-terminal trace stack: the
// non-terminal's name and the position it was entered at.
type traceFrame struct {
	Name string
	Pos  buffer.Position
}

// ExpectedEntry is one (trace-stack, expected-element) pair observed
// at the deepest position any parse attempt reached.
type ExpectedEntry struct {
	Stack    []traceFrame
	Expected string
}

// Failure is the fatal, top-level parse report: the highest offset
// any attempt reached, plus every distinct expectation observed there.
type Failure struct {
	Pos     buffer.Position
	Entries []ExpectedEntry
}

func (f *Failure) Error() string { return f.String() }

func (f *Failure) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "parse failed at line %d, column %d (offset %d)\n", f.Pos.Line, f.Pos.Column, f.Pos.Offset)
	for _, e := range f.Entries {
		fmt.Fprintf(&sb, "  expected %s", e.Expected)
		if len(e.Stack) > 0 {
			sb.WriteString(" while parsing ")
			for i, fr := range e.Stack {
				if i > 0 {
					sb.WriteString(" > ")
				}
				fmt.Fprintf(&sb, "%s@%d", fr.Name, fr.Pos.Offset)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// failureTracker records the deepest reach of an overall parse and
// the distinct expectations observed there, bounded and deduplicated.
type failureTracker struct {
	deepest buffer.Position
	entries []ExpectedEntry
	seen    map[string]struct{}
}

func newFailureTracker() *failureTracker {
	return &failureTracker{seen: map[string]struct{}{}}
}

func (t *failureTracker) record(pos buffer.Position, stack []traceFrame, expected string) {
	switch {
	case pos.Offset > t.deepest.Offset:
		t.deepest = pos
		t.entries = nil
		t.seen = map[string]struct{}{}
	case pos.Offset < t.deepest.Offset:
		return
	}
	if len(t.entries) >= maxExpectedEntries {
		return
	}
	key := stackKey(stack) + "\x00" + expected
	if _, dup := t.seen[key]; dup {
		return
	}
	t.seen[key] = struct{}{}
	cp := make([]traceFrame, len(stack))
	copy(cp, stack)
	t.entries = append(t.entries, ExpectedEntry{Stack: cp, Expected: expected})
}

func (t *failureTracker) toFailure() *Failure {
	return &Failure{Pos: t.deepest, Entries: t.entries}
}

func stackKey(stack []traceFrame) string {
	var sb strings.Builder
	for _, fr := range stack {
		fmt.Fprintf(&sb, "%s@%d;", fr.Name, fr.Pos.Offset)
	}
	return sb.String()
}

// expectedLabel renders the element the way the grammar printer would
// describe it, so deepest-reach reports read like "expected `;`"
// or "expected [0-9]" rather than an opaque element index. Terminal
// elements without an Expect message (keywords included) all read
// "terminal".
func expectedLabel(el *grammar.Element) string {
	if el.Expect != "" {
		return el.Expect
	}
	switch el.Kind {
	case grammar.ElemChar:
		return fmt.Sprintf("`%c`", el.Char)
	case grammar.ElemCharSet:
		return fmt.Sprintf("[%s]", el.CharSet.String())
	case grammar.ElemNonTerminal:
		return el.NonTerminal
	case grammar.ElemGroup:
		return "group"
	case grammar.ElemEndOfInput:
		return "<EOF>"
	case grammar.ElemTerminal:
		return "terminal"
	}
	return "?"
}
