package cgrammar

import (
	"github.com/tcpoc/tcpoc/grammar"
	"github.com/tcpoc/tcpoc/intern"
)

// Keywords lists every reserved word the grammar declares, in
// declaration order. cmd/tcpoc's "did you mean" suggester
// fuzzy-matches a failed identifier against this list.
var Keywords []string

// keyword appends a reserved-word element: word must match literally
// and must not be immediately followed by another identifier
// character, so `taskx` doesn't spuriously match the `task` keyword.
// It also interns word and flags it as a keyword in syms at the point
// of declaration, so identifier rules can reject reserved spellings
// by symbol flag instead of re-deriving a keyword list.
func keyword(b *grammar.Builder, syms *intern.Table, word string) *grammar.Builder {
	syms.Intern(word)
	syms.SetKeyword()
	Keywords = append(Keywords, word)
	return b.Terminal(keywordTerminal(word)).Ref("Spacing").Optional()
}

func keywordTerminal(word string) grammar.TerminalFunc {
	w := []byte(word)
	return func(input []byte, pos int) (int, bool) {
		if pos+len(w) > len(input) {
			return pos, false
		}
		for i, c := range w {
			if input[pos+i] != c {
				return pos, false
			}
		}
		next := pos + len(w)
		if next < len(input) && identContinue.Contains(input[next]) {
			return pos, false
		}
		return next, true
	}
}
