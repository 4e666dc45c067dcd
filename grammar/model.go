// Package grammar is the declarative, data-driven model the parser
// engine interprets: non-terminals map to rule lists, rules are
// element chains with modifiers and callbacks, and elements are a
// closed variant over the terminal/non-terminal/grouping kinds a rule
// can reference. The grammar is built once (via Builder) and is
// read-only thereafter.
package grammar

import (
	"github.com/tcpoc/tcpoc/ast"
	"github.com/tcpoc/tcpoc/charset"
)

// Value is the generic parse result type threaded through every
// callback. It is ast.Node: every parse result folds into the same
// tagged-node hierarchy the AST uses (see SPEC_FULL.md §12, "Reference
// counting vs. GC").
type Value = ast.Node

// AddCharFunc combines a matched literal character into the result
// accumulated so far.
type AddCharFunc func(prev Value, c byte, rg ast.Range) (Value, error)

// AddFunc combines a sub-result into the result accumulated so far.
type AddFunc func(prev, child Value) (Value, error)

// BeginSeqFunc seeds a sequence's accumulator from the result that
// preceded the sequence element.
type BeginSeqFunc func(prev Value) (Value, error)

// AddSeqFunc combines the sequence accumulator and the pre-sequence
// result into the input for the remainder of the rule. Datum is the
// user value registered alongside the callback.
type AddSeqFunc func(acc, prev Value, datum any) (Value, error)

// CondFunc evaluates a semantic predicate against a non-terminal's
// result; Arg is the value registered alongside the callback.
type CondFunc func(result Value, arg any) (bool, error)

// SetPosFunc attaches a source range to an already-produced result.
type SetPosFunc func(result Value, rg ast.Range) Value

// EndFunc produces a rule's final result from the value threaded
// through its element chain. Datum is the user value registered
// alongside the rule.
type EndFunc func(result Value, datum any) (Value, error)

// RecursiveStartFunc decides, for a left-recursive rule, whether to
// fold the already-parsed left value into the seed passed to the
// rest of the rule. Returning ok=false rejects this left-recursive
// alternative for the current iteration.
type RecursiveStartFunc func(seed, left Value) (Value, bool)

// TerminalFunc is a user-supplied scanner: given the byte offset to
// start at, it returns the offset to resume at. Returning the same
// offset signals failure.
type TerminalFunc func(input []byte, pos int) (next int, ok bool)

// ElementKind is the closed set of grammar element variants.
type ElementKind int

const (
	ElemNonTerminal ElementKind = iota
	ElemGroup
	ElemChar
	ElemCharSet
	ElemEndOfInput
	ElemTerminal
)

// RuleList is an ordered list of alternative rules, used both as a
// non-terminal's normal/left-recursive rule lists and as the inline
// rule list owned by a grouping element.
type RuleList struct {
	Rules []*Rule
}

// Element is the atomic unit of a grammar rule.
type Element struct {
	Kind ElementKind

	// Variant payloads; only the field matching Kind is meaningful.
	NonTerminal string
	Group       *RuleList
	Char        byte
	CharSet     *charset.Set
	Terminal    TerminalFunc

	// Modifiers.
	Optional     bool
	Sequence     bool
	BackTracking bool
	Avoid        bool
	Chain        *Element // only meaningful when Sequence is set
	Expect       string

	// Callback slots.
	AddCharFn  AddCharFunc
	AddFn      AddFunc
	AddSkipFn  AddFunc
	BeginSeqFn BeginSeqFunc
	AddSeqFn   AddSeqFunc
	AddSeqArg  any
	CondFn     CondFunc
	CondArg    any
	SetPosFn   SetPosFunc
}

// Rule is an ordered element chain plus the callback that reduces the
// chain's threaded result into the rule's final value.
type Rule struct {
	Elements []*Element
	EndFn    EndFunc
	EndArg   any

	// RecursiveStartFn is only consulted when this rule belongs to a
	// non-terminal's left-recursive rule list.
	RecursiveStartFn RecursiveStartFunc
}

// NonTerminal is a named rule set: an ordinary rule list plus a
// separate left-recursive rule list (stored without the leading
// self-reference, per the grammar's left-recursion handling).
type NonTerminal struct {
	Name          string
	Normal        []*Rule
	LeftRecursive []*Rule
}

// Grammar is the full rule/element network: a map from non-terminal
// name to its rule lists, built once by a Builder and read-only
// thereafter.
type Grammar struct {
	nonterminals map[string]*NonTerminal
	order        []string
}

// New returns an empty grammar.
func New() *Grammar {
	return &Grammar{nonterminals: map[string]*NonTerminal{}}
}

// NonTerminal returns the named non-terminal, creating it (and
// recording its declaration order) on first reference.
func (g *Grammar) NonTerminal(name string) *NonTerminal {
	nt, ok := g.nonterminals[name]
	if !ok {
		nt = &NonTerminal{Name: name}
		g.nonterminals[name] = nt
		g.order = append(g.order, name)
	}
	return nt
}

// Lookup returns the named non-terminal without creating it.
func (g *Grammar) Lookup(name string) (*NonTerminal, bool) {
	nt, ok := g.nonterminals[name]
	return nt, ok
}

// Names returns every non-terminal name in declaration order.
func (g *Grammar) Names() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}
