// Package ast defines the heterogeneous, position-carrying AST node
// hierarchy produced by the parser: identifiers, character literals,
// string literals, integer literals, and generic trees. Node payloads
// are shared by ordinary Go references (garbage collected) rather
// than manually reference counted — see the "Reference counting vs.
// GC" decision in SPEC_FULL.md §12.
package ast

import (
	"fmt"
	"strings"

	"github.com/tcpoc/tcpoc/intern"
)

// Range is the half-open [Start, End) byte-offset span a node was
// parsed from.
type Range struct{ Start, End int }

func (r Range) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

// Str returns the slice of input the range covers.
func (r Range) Str(input []byte) string { return string(input[r.Start:r.End]) }

// Node is implemented by every AST node kind.
type Node interface {
	// Range returns the source span the node was parsed from.
	Range() Range

	// Accept dispatches to the matching Visitor method.
	Accept(Visitor) error

	// PrettyString renders the node's hierarchical structure.
	PrettyString() string

	// HighlightPrettyString is PrettyString with ASCII color codes
	// for terminal display.
	HighlightPrettyString() string
}

// Visitor lets callers walk the node hierarchy without type
// switches; Accept on each concrete node type dispatches to the
// matching method, acting as a checked downcast.
type Visitor interface {
	VisitIdent(*Ident) error
	VisitChar(*Char) error
	VisitString(*String) error
	VisitInt(*Int) error
	VisitTree(*Tree) error
}

// ---- Identifier ----

// Ident is an identifier reference: an interned name plus the
// keyword flag carried by its symbol.
type Ident struct {
	rg  Range
	Sym *intern.Symbol
}

func NewIdent(sym *intern.Symbol, rg Range) *Ident { return trackNode(&Ident{rg: rg, Sym: sym}) }

func (n Ident) Range() Range                  { return n.rg }
func (n Ident) Name() string                  { return n.Sym.Name }
func (n Ident) IsKeyword() bool               { return n.Sym.Keyword }
func (n *Ident) Accept(v Visitor) error        { return v.VisitIdent(n) }
func (n Ident) PrettyString() string          { return ppNode(&n, formatNodePlain) }
func (n Ident) HighlightPrettyString() string { return ppNode(&n, formatNodeThemed) }

// ---- Character literal ----

type Char struct {
	rg    Range
	Value byte
}

func NewChar(v byte, rg Range) *Char { return trackNode(&Char{rg: rg, Value: v}) }

func (n Char) Range() Range                  { return n.rg }
func (n *Char) Accept(v Visitor) error        { return v.VisitChar(n) }
func (n Char) PrettyString() string          { return ppNode(&n, formatNodePlain) }
func (n Char) HighlightPrettyString() string { return ppNode(&n, formatNodeThemed) }

// ---- String literal ----

// String holds the string's decoded bytes, assembled one matched
// character at a time by the grammar's add-character callbacks and
// frozen here by the rule's end callback.
type String struct {
	rg    Range
	Value []byte
}

func NewString(v []byte, rg Range) *String { return trackNode(&String{rg: rg, Value: v}) }

func (n String) Range() Range                  { return n.rg }
func (n *String) Accept(v Visitor) error        { return v.VisitString(n) }
func (n String) PrettyString() string          { return ppNode(&n, formatNodePlain) }
func (n String) HighlightPrettyString() string { return ppNode(&n, formatNodeThemed) }

// ---- Integer literal ----

type IntBase int

const (
	Decimal IntBase = iota
	Octal
	Hexadecimal
)

type Int struct {
	rg    Range
	Value int64
	Base  IntBase
}

func NewInt(v int64, base IntBase, rg Range) *Int { return trackNode(&Int{rg: rg, Value: v, Base: base}) }

func (n Int) Range() Range                  { return n.rg }
func (n *Int) Accept(v Visitor) error        { return v.VisitInt(n) }
func (n Int) PrettyString() string          { return ppNode(&n, formatNodePlain) }
func (n Int) HighlightPrettyString() string { return ppNode(&n, formatNodeThemed) }

// ---- Generic tree ----

// TreeParam names a tree's kind and gives the format template the
// unparser uses to render it (see package unparse). ListKind is the
// distinguished kind name for variable-length sequence containers,
// which unparse instead by joining children with Format (no
// positional %-directives).
const ListKind = "list"

type TreeParam struct {
	Kind   string
	Format string
}

// Tree is the generic node kind: a kind/format pair plus an ordered,
// owned array of children. A tree owns its children; a child may be
// any Node, including another Tree.
type Tree struct {
	rg       Range
	Param    *TreeParam
	Children []Node
}

func NewTree(param *TreeParam, children []Node, rg Range) *Tree {
	return trackNode(&Tree{rg: rg, Param: param, Children: children})
}

// IsList reports whether this tree is a variable-length list
// container rather than a fixed-shape node.
func (n Tree) IsList() bool { return n.Param.Kind == ListKind }

func (n Tree) Range() Range                  { return n.rg }
func (n *Tree) Accept(v Visitor) error        { return v.VisitTree(n) }
func (n Tree) PrettyString() string          { return ppNode(&n, formatNodePlain) }
func (n Tree) HighlightPrettyString() string { return ppNode(&n, formatNodeThemed) }

// MakeTreeWithChildren materializes a fixed-size child array in
// original order from a reverse-ordered slice of previously parsed
// children (as accumulated by a rule reduction callback via
// successive prepends).
func MakeTreeWithChildren(param *TreeParam, reversed []Node, rg Range) *Tree {
	children := make([]Node, len(reversed))
	for i, c := range reversed {
		children[len(reversed)-1-i] = c
	}
	return NewTree(param, children, rg)
}

// MakeTreeFromList is MakeTreeWithChildren with one extra flattening
// rule: if the result has exactly one child and that child is itself
// a list tree, the new tree adopts that child's children directly
// instead of nesting a one-element list inside it.
func MakeTreeFromList(param *TreeParam, reversed []Node, rg Range) *Tree {
	t := MakeTreeWithChildren(param, reversed, rg)
	if len(t.Children) == 1 {
		if inner, ok := t.Children[0].(*Tree); ok && inner.IsList() {
			t.Children = inner.Children
		}
	}
	return t
}

// PassTree unwraps a one-element child holder, returning its single
// child unchanged.
func PassTree(t *Tree) Node {
	if len(t.Children) == 1 {
		return t.Children[0]
	}
	return t
}

// ---- pretty printing ----

type formatToken int

const (
	tokNone formatToken = iota
	tokRange
	tokLiteral
	tokError
)

var theme = map[formatToken]string{
	tokNone:    "\033[0m",
	tokRange:   "\033[1;31;5;228m",
	tokLiteral: "\033[1;38;5;245m",
	tokError:   "\033[1;38;5;127m",
}

func formatNodePlain(s string, _ formatToken) string { return s }
func formatNodeThemed(s string, t formatToken) string {
	return theme[t] + s + theme[tokNone]
}

type printer struct {
	pad    []string
	out    strings.Builder
	format func(string, formatToken) string
}

func (p *printer) indent(s string) { p.pad = append(p.pad, s) }

func (p *printer) unindent() { p.pad = p.pad[:len(p.pad)-1] }

func (p *printer) write(s string) { p.out.WriteString(s) }

func (p *printer) writel(s string) { p.write(s); p.out.WriteByte('\n') }

func (p *printer) pwrite(s string) {
	for _, s := range p.pad {
		p.write(s)
	}
	p.write(s)
}

func (p *printer) VisitIdent(n *Ident) error {
	p.writel(p.format(fmt.Sprintf("Ident[%s] (%s)", n.Name(), n.rg), tokLiteral))
	return nil
}

func (p *printer) VisitChar(n *Char) error {
	p.writel(p.format(fmt.Sprintf("Char[%q] (%s)", rune(n.Value), n.rg), tokLiteral))
	return nil
}

func (p *printer) VisitString(n *String) error {
	p.writel(p.format(fmt.Sprintf("String[%q] (%s)", string(n.Value), n.rg), tokLiteral))
	return nil
}

func (p *printer) VisitInt(n *Int) error {
	p.writel(p.format(fmt.Sprintf("Int[%d] (%s)", n.Value, n.rg), tokLiteral))
	return nil
}

func (p *printer) VisitTree(n *Tree) error {
	p.write(p.format(n.Param.Kind, tokLiteral))
	p.writel(p.format(fmt.Sprintf(" (%s)", n.rg), tokRange))
	for i, c := range n.Children {
		last := i == len(n.Children)-1
		if last {
			p.pwrite("└── ")
			p.indent("    ")
		} else {
			p.pwrite("├── ")
			p.indent("│   ")
		}
		if c == nil {
			// A hole: an optional slot (e.g. a missing else branch)
			// kept so the format template's positions stay stable.
			p.writel(p.format("(nil)", tokLiteral))
		} else if err := c.Accept(p); err != nil {
			return err
		}
		p.unindent()
	}
	return nil
}

func ppNode(n Node, format func(string, formatToken) string) string {
	p := &printer{format: format}
	_ = n.Accept(p)
	return strings.TrimRight(p.out.String(), "\n")
}
