// Package cgrammar declares the concrete grammar over the data-driven
// runtime in package grammar: a C-like language extended with the
// task/queue-for/poll/timer/every cooperative-multitasking forms.
// There is no separate whitespace-injection pass the way some PEG
// toolchains do it — tok/sym/keyword (see combinators.go and
// keywords.go) fold an optional trailing Spacing reference onto every
// literal token directly in the rule that introduces it, so no later
// pass needs to re-walk the grammar inserting whitespace elements.
//
// Deliberate simplifications and drops relative to full C are called
// out rule by rule and recorded in DESIGN.md.
package cgrammar

import (
	"github.com/tcpoc/tcpoc/grammar"
	"github.com/tcpoc/tcpoc/intern"
)

// Build constructs the complete grammar and its keyword-aware symbol
// table. Parse against "Root".
func Build() (*grammar.Grammar, *intern.Table) {
	Keywords = nil

	syms := &intern.Table{}
	b := grammar.NewBuilder()

	buildLexical(b, syms)
	buildExpr(b)
	buildDecl(b, syms)
	buildStmt(b, syms)
	buildProgram(b, syms)

	return b.Grammar(), syms
}
