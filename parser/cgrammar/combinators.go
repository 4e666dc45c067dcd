package cgrammar

import (
	"github.com/tcpoc/tcpoc/ast"
	"github.com/tcpoc/tcpoc/grammar"
)

// rawKind labels the scratch trees rule reductions accumulate children
// into before an End callback relabels them with their real kind (or,
// for literals, decodes them into Ident/Int/Char/String altogether).
const rawKind = "_raw"

// appendRawChar is the add-character callback lexical rules use to
// build up a literal's raw byte sequence one matched character at a
// time, the scratch buffer an End callback later freezes into an
// identifier or integer node.
func appendRawChar(prev ast.Node, c byte, rg ast.Range) (ast.Node, error) {
	if prev == nil {
		return ast.NewTree(&ast.TreeParam{Kind: rawKind}, []ast.Node{ast.NewChar(c, rg)}, rg), nil
	}
	t := prev.(*ast.Tree)
	t.Children = append(t.Children, ast.NewChar(c, rg))
	return t, nil
}

func rawBytes(n ast.Node) []byte {
	t := n.(*ast.Tree)
	out := make([]byte, len(t.Children))
	for i, c := range t.Children {
		out[i] = c.(*ast.Char).Value
	}
	return out
}

// seedFromPrev is a BeginSeqFunc that continues accumulating onto
// whatever was already threaded in, rather than starting fresh —
// used when a sequence element extends a value an earlier element in
// the same rule already began building.
func seedFromPrev(prev ast.Node) (ast.Node, error) { return prev, nil }

// appendChild folds a child result onto a rawKind accumulator tree in
// encounter order, the shape most rule reductions here want: a
// fixed-kind tree is relabeled from the same accumulator once the
// rule is complete. A nil child (an optional element's skip path) is
// appended as a hole, so slot positions in the final format template
// stay stable whether or not the optional part matched; the unparser
// renders a hole as nothing.
func appendChild(acc, child ast.Node) (ast.Node, error) {
	if acc == nil {
		rg := ast.Range{}
		if child != nil {
			rg = child.Range()
		}
		return ast.NewTree(&ast.TreeParam{Kind: rawKind}, []ast.Node{child}, rg), nil
	}
	t := acc.(*ast.Tree)
	t.Children = append(t.Children, child)
	return t, nil
}

// prependChild builds the reverse-ordered list ast.MakeTreeWithChildren
// and ast.MakeTreeFromList expect as input (most recently parsed
// child first); Block, FuncBody and Root accumulate their items this
// way and hand them to ast.MakeTreeWithChildren.
func prependChild(acc, child ast.Node) (ast.Node, error) {
	if acc == nil {
		return ast.NewTree(&ast.TreeParam{Kind: rawKind}, []ast.Node{child}, child.Range()), nil
	}
	t := acc.(*ast.Tree)
	t.Children = append([]ast.Node{child}, t.Children...)
	return t, nil
}

// passChild ignores whatever was threaded in and continues with the
// freshly parsed child — used inside groupings whose whole purpose is
// to produce a single value (e.g. a parenthesized sub-expression).
func passChild(_, child ast.Node) (ast.Node, error) { return child, nil }

// keepPrev leaves the threaded value alone; it is the AddSkip callback
// for optional elements that would otherwise corrupt their
// accumulator by folding in a nil child on the skip path.
func keepPrev(prev, _ ast.Node) (ast.Node, error) { return prev, nil }

// relabel returns an EndFunc that renames a rule's rawKind accumulator
// tree to kind, or synthesizes an empty tree of that kind if the rule
// matched nothing accumulable (e.g. an empty compound block).
func relabel(kind string) grammar.EndFunc {
	return func(prev ast.Node, _ any) (ast.Node, error) {
		if prev == nil {
			return ast.NewTree(&ast.TreeParam{Kind: kind}, nil, ast.Range{}), nil
		}
		t := prev.(*ast.Tree)
		t.Param = &ast.TreeParam{Kind: kind}
		return t, nil
	}
}

// binOp returns the Add callback a left-recursive operator rule uses
// to fold its already-parsed left operand and freshly parsed right
// operand into a binary-operator tree rendered with format.
func binOp(kind, format string) grammar.AddFunc {
	return func(left, right ast.Node) (ast.Node, error) {
		return mkTree(kind, format, left, right), nil
	}
}

// spanOf returns the smallest range covering every non-nil node
// given, used to stamp a source position on a tree assembled from
// several already-positioned children rather than one matched token.
func spanOf(nodes ...ast.Node) ast.Range {
	var rg ast.Range
	first := true
	for _, n := range nodes {
		if n == nil {
			continue
		}
		r := n.Range()
		if first {
			rg = r
			first = false
			continue
		}
		if r.Start < rg.Start {
			rg.Start = r.Start
		}
		if r.End > rg.End {
			rg.End = r.End
		}
	}
	return rg
}

// mkTree builds a generic tree node whose range spans every non-nil
// child. A nil child (an optional grammar part that didn't match,
// e.g. a missing else-branch) is dropped from the array entirely
// rather than stored as a hole — format templates that still expect
// that slot surface the mismatch as an (ERR…) marker rather than
// panicking on a nil child.
func mkTree(kind, format string, children ...ast.Node) *ast.Tree {
	kept := make([]ast.Node, 0, len(children))
	for _, c := range children {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return ast.NewTree(&ast.TreeParam{Kind: kind, Format: format}, kept, spanOf(children...))
}

// mkLeaf builds a childless tree node standing for a bare keyword
// (e.g. the "int" in a type specifier) — its format string, having no
// %-directives, is its entire rendering.
func mkLeaf(kind string) *ast.Tree {
	return ast.NewTree(&ast.TreeParam{Kind: kind, Format: kind}, nil, ast.Range{})
}

// reversedChildren returns a rawKind accumulator's children (already
// in reverse-of-encounter order, as built by prependChild), or nil if
// the accumulator never matched anything.
func reversedChildren(prev ast.Node) []ast.Node {
	if prev == nil {
		return nil
	}
	return prev.(*ast.Tree).Children
}

// relabelList returns an EndFunc that turns a rule's rawKind
// accumulator into a "list" tree joined by the given separator
// format when unparsed, or an empty list if the rule matched nothing
// accumulable.
func relabelList(format string) grammar.EndFunc {
	return func(prev ast.Node, _ any) (ast.Node, error) {
		if prev == nil {
			return mkTree(ast.ListKind, format), nil
		}
		t := prev.(*ast.Tree)
		t.Param = &ast.TreeParam{Kind: ast.ListKind, Format: format}
		return t, nil
	}
}

// wrapSingle returns an EndFunc that wraps the rule's single threaded
// value as the lone child of a new tree of kind with the given
// one-slot format template.
func wrapSingle(kind, format string) grammar.EndFunc {
	return func(prev ast.Node, _ any) (ast.Node, error) {
		return mkTree(kind, format, prev), nil
	}
}

// identitySeed is the RecursiveStartFunc every left-recursive binary
// operator rule here uses: fold the already-parsed left value through
// unchanged as the seed for the rest of the rule.
func identitySeed(_, left ast.Node) (ast.Node, bool) { return left, true }

// tok appends a literal-character token followed by optional
// trailing Spacing — the inline stand-in for a separate
// whitespace-injection pass (see cgrammar.go package comment).
func tok(b *grammar.Builder, c byte) *grammar.Builder {
	return b.Char(c).Ref("Spacing").Optional()
}

// sym appends a multi-byte literal operator/keyword-like token
// followed by optional trailing Spacing.
func sym(b *grammar.Builder, s string) *grammar.Builder {
	return b.Terminal(symTerminal(s)).Ref("Spacing").Optional()
}

func symTerminal(s string) grammar.TerminalFunc {
	word := []byte(s)
	return func(input []byte, pos int) (int, bool) {
		if pos+len(word) > len(input) {
			return pos, false
		}
		for i, c := range word {
			if input[pos+i] != c {
				return pos, false
			}
		}
		return pos + len(word), true
	}
}
