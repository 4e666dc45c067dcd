package grammar

import "github.com/tcpoc/tcpoc/charset"

// Builder offers the declarative construction API described in the
// grammar data model: for a non-terminal, append normal and/or
// left-recursive rules; within a rule, append elements; modifiers and
// callback setters attach to the most recently appended element;
// Group opens an inline sub-rule list and CloseGroup restores the
// enclosing one. Builder is only meant to build a grammar once, at
// process start; it panics on programmer misuse (e.g. a modifier call
// before any element exists) since that is never a user-input error.
type Builder struct {
	g   *Grammar
	nt  *NonTerminal
	cur *cursor
}

type cursor struct {
	rules  *[]*Rule
	rule   *Rule
	parent *cursor
}

// NewBuilder returns a builder over a fresh, empty grammar.
func NewBuilder() *Builder {
	return &Builder{g: New()}
}

// Grammar returns the grammar under construction.
func (b *Builder) Grammar() *Grammar { return b.g }

// NonTerminal selects (creating if needed) the non-terminal that
// subsequent Rule/LeftRecursiveRule calls append to.
func (b *Builder) NonTerminal(name string) *Builder {
	b.nt = b.g.NonTerminal(name)
	b.cur = &cursor{rules: &b.nt.Normal}
	return b
}

// Rule starts a new rule in whatever rule list the builder's cursor
// currently targets: the selected non-terminal's normal rules, or (if
// called right after Group) the enclosing element's inline rule list.
func (b *Builder) Rule() *Builder {
	r := &Rule{}
	*b.cur.rules = append(*b.cur.rules, r)
	b.cur.rule = r
	return b
}

// LeftRecursiveRule starts a new rule in the current non-terminal's
// left-recursive rule list. Only meaningful at the top level of a
// non-terminal, never inside a grouping.
func (b *Builder) LeftRecursiveRule() *Builder {
	r := &Rule{}
	b.nt.LeftRecursive = append(b.nt.LeftRecursive, r)
	b.cur = &cursor{rules: &b.nt.LeftRecursive}
	b.cur.rule = r
	return b
}

// End sets the current rule's end callback and datum.
func (b *Builder) End(fn EndFunc, datum any) *Builder {
	b.cur.rule.EndFn = fn
	b.cur.rule.EndArg = datum
	return b
}

// RecursiveStart sets the current (left-recursive) rule's
// recursive-start callback.
func (b *Builder) RecursiveStart(fn RecursiveStartFunc) *Builder {
	b.cur.rule.RecursiveStartFn = fn
	return b
}

func (b *Builder) append(e *Element) *Builder {
	r := b.cur.rule
	r.Elements = append(r.Elements, e)
	return b
}

func (b *Builder) last() *Element {
	es := b.cur.rule.Elements
	return es[len(es)-1]
}

// ---- elements ----

// Ref appends a non-terminal reference element.
func (b *Builder) Ref(name string) *Builder {
	return b.append(&Element{Kind: ElemNonTerminal, NonTerminal: name})
}

// Char appends a literal character element.
func (b *Builder) Char(c byte) *Builder {
	return b.append(&Element{Kind: ElemChar, Char: c})
}

// CharSet appends a character-set element.
func (b *Builder) CharSet(cs *charset.Set) *Builder {
	return b.append(&Element{Kind: ElemCharSet, CharSet: cs})
}

// EndOfInput appends an element that succeeds iff the buffer is
// exhausted.
func (b *Builder) EndOfInput() *Builder {
	return b.append(&Element{Kind: ElemEndOfInput})
}

// Terminal appends a user terminal-function element.
func (b *Builder) Terminal(fn TerminalFunc) *Builder {
	return b.append(&Element{Kind: ElemTerminal, Terminal: fn})
}

// Group opens an inline, anonymous rule list as the next element.
// Follow with Rule() one or more times to declare its alternatives,
// then CloseGroup to resume the enclosing rule list.
func (b *Builder) Group() *Builder {
	grp := &RuleList{}
	b.append(&Element{Kind: ElemGroup, Group: grp})
	b.cur = &cursor{rules: &grp.Rules, parent: b.cur}
	return b
}

// CloseGroup restores the rule list that was current before the
// matching Group call.
func (b *Builder) CloseGroup() *Builder {
	b.cur = b.cur.parent
	return b
}

// ---- modifiers, attaching to the most recently appended element ----

func (b *Builder) Optional() *Builder { b.last().Optional = true; return b }

func (b *Builder) Seq() *Builder { b.last().Sequence = true; return b }

func (b *Builder) BackTracking() *Builder { b.last().BackTracking = true; return b }

func (b *Builder) AvoidMod() *Builder { b.last().Avoid = true; return b }
func (b *Builder) Expect(msg string) *Builder {
	b.last().Expect = msg
	return b
}

// ChainChar attaches a literal-character chain element to the most
// recently appended sequence element (e.g. a comma in a
// comma-separated list). Panics if the last element isn't Sequence.
func (b *Builder) ChainChar(c byte) *Builder {
	e := b.last()
	if !e.Sequence {
		panic("grammar: ChainChar on a non-sequence element")
	}
	e.Chain = &Element{Kind: ElemChar, Char: c}
	return b
}

// ChainCharSet is ChainChar for a character-set chain element.
func (b *Builder) ChainCharSet(cs *charset.Set) *Builder {
	e := b.last()
	if !e.Sequence {
		panic("grammar: ChainCharSet on a non-sequence element")
	}
	e.Chain = &Element{Kind: ElemCharSet, CharSet: cs}
	return b
}

// ChainRef is ChainChar for a non-terminal-reference chain element.
func (b *Builder) ChainRef(name string) *Builder {
	e := b.last()
	if !e.Sequence {
		panic("grammar: ChainRef on a non-sequence element")
	}
	e.Chain = &Element{Kind: ElemNonTerminal, NonTerminal: name}
	return b
}

// ---- callback setters, attaching to the most recently appended element ----

func (b *Builder) AddChar(fn AddCharFunc) *Builder { b.last().AddCharFn = fn; return b }

func (b *Builder) Add(fn AddFunc) *Builder { b.last().AddFn = fn; return b }

func (b *Builder) AddSkip(fn AddFunc) *Builder { b.last().AddSkipFn = fn; return b }

func (b *Builder) BeginSeq(fn BeginSeqFunc) *Builder { b.last().BeginSeqFn = fn; return b }

func (b *Builder) AddSeq(fn AddSeqFunc, datum any) *Builder {
	e := b.last()
	e.AddSeqFn = fn
	e.AddSeqArg = datum
	return b
}
func (b *Builder) Cond(fn CondFunc, arg any) *Builder {
	e := b.last()
	e.CondFn = fn
	e.CondArg = arg
	return b
}
func (b *Builder) SetPos(fn SetPosFunc) *Builder { b.last().SetPosFn = fn; return b }
