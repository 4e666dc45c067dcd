package cgrammar

import (
	"github.com/tcpoc/tcpoc/ast"
	"github.com/tcpoc/tcpoc/grammar"
	"github.com/tcpoc/tcpoc/intern"
)

// buildStmt declares Statement, the local-declaration/statement
// alternation inside a block, and Block itself, including the
// task-extension forms: queue for, poll/at most, timer, every.
// switch/do/for/goto/case/label are dropped — the task lowering never
// exercises them and none of the task extensions interact with them;
// see DESIGN.md.
func buildStmt(b *grammar.Builder, syms *intern.Table) {
	buildBlock(b)
	buildExprStmt(b)
	buildIfStmt(b, syms)
	buildWhileStmt(b, syms)
	buildReturnStmt(b, syms)
	buildQueueForStmt(b, syms)
	buildPollStmt(b, syms)
	buildTimerStmt(b, syms)
	buildEveryStmt(b, syms)

	b.NonTerminal("LocalDecl").Rule()
	b.Ref("TypeQual").Add(passChild)
	b.Ref("Decl").Add(finishDeclaration)

	b.NonTerminal("BlockItem").
		Rule().Ref("Statement").Add(passChild)
	b.NonTerminal("BlockItem").
		Rule().Ref("LocalDecl").Add(passChild)
}

func finishDeclaration(typequal, decl ast.Node) (ast.Node, error) {
	return mkTree("declaration", "%*%*", typequal, decl), nil
}

// buildBlock declares Block: a brace-delimited, possibly empty run of
// BlockItems folded into a single "statements"-list child, so the
// indent-bracketed "{\n%>%*%<\n}" format only ever has one thing to
// emit regardless of how many statements it holds.
func buildBlock(b *grammar.Builder) {
	b.NonTerminal("Block").Rule()
	tok(b, '{')
	b.Ref("BlockItem").Seq().Optional().
		BeginSeq(beginNilAcc).Add(prependChild).AddSkip(keepPrev)
	tok(b, '}')
	b.End(finishBlock, nil)
}

func finishBlock(prev ast.Node, _ any) (ast.Node, error) {
	items := reversedChildren(prev)
	list := ast.MakeTreeWithChildren(&ast.TreeParam{Kind: ast.ListKind, Format: "\n"}, items, spanOf(items...))
	return mkTree("block", "{\n%>%*%<\n}", list), nil
}

// buildExprStmt declares the block-statement and expression-statement
// alternatives. The expression is optional (a bare ";" is a statement)
// and the comma-expression list it produces is flattened directly into
// the semi tree's children, so a single-expression statement's tree is
// semi(expr), not semi(list(expr)).
func buildExprStmt(b *grammar.Builder) {
	b.NonTerminal("Statement").Rule()
	b.Ref("Block").Add(passChild)

	b.NonTerminal("Statement").Rule()
	b.Ref("Expr").Optional().Add(appendChild)
	tok(b, ';')
	b.End(finishSemi, nil)
}

func finishSemi(prev ast.Node, _ any) (ast.Node, error) {
	children := flattenSingleList(accChildren(prev))
	return ast.NewTree(&ast.TreeParam{Kind: "semi", Format: "%*;"}, children, spanOf(children...)), nil
}

// accChildren returns an accumulator tree's children, or nil for a
// rule that accumulated nothing.
func accChildren(prev ast.Node) []ast.Node {
	if prev == nil {
		return nil
	}
	return prev.(*ast.Tree).Children
}

// flattenSingleList adopts the children of a sole list-tree child,
// ast.MakeTreeFromList's flattening rule applied to an in-order
// accumulator.
func flattenSingleList(children []ast.Node) []ast.Node {
	if len(children) == 1 {
		if inner, ok := children[0].(*ast.Tree); ok && inner.IsList() {
			return inner.Children
		}
	}
	return children
}

// buildIfStmt's "if" tree always has three children against the
// three-slot format "if (%*)\n%>%*%<%*": when no else branch matched,
// the third slot holds a nil hole, which the unparser renders as
// nothing. The else branch itself is wrapped in
// its own "else" tree so the keyword and its indentation come from the
// branch's format, not the if's.
func buildIfStmt(b *grammar.Builder, syms *intern.Table) {
	b.NonTerminal("Statement").Rule()
	keyword(b, syms, "if")
	tok(b, '(')
	b.Ref("Expr").Add(appendChild)
	tok(b, ')')
	b.Ref("Statement").Add(appendChild)
	b.Group()
	b.Rule()
	keyword(b, syms, "else")
	b.Ref("Statement").Add(passChild)
	b.End(wrapSingle("else", "\nelse\n%>%*%<"), nil)
	b.CloseGroup().Optional().Add(appendChild)
	b.End(finishIf, nil)
}

func finishIf(prev ast.Node, _ any) (ast.Node, error) {
	t := prev.(*ast.Tree)
	return ast.NewTree(&ast.TreeParam{Kind: "if", Format: "if (%*)\n%>%*%<%*"}, t.Children, spanOf(t.Children...)), nil
}

func buildWhileStmt(b *grammar.Builder, syms *intern.Table) {
	b.NonTerminal("Statement").Rule()
	keyword(b, syms, "while")
	tok(b, '(')
	b.Ref("Expr").Add(appendChild)
	tok(b, ')')
	b.Ref("Statement").Add(appendChild)
	b.End(finishWhile, nil)
}

func finishWhile(prev ast.Node, _ any) (ast.Node, error) {
	t := prev.(*ast.Tree)
	return mkTree("while", "while (%*)%*", t.Children[0], t.Children[1]), nil
}

func buildReturnStmt(b *grammar.Builder, syms *intern.Table) {
	b.NonTerminal("Statement").Rule()
	keyword(b, syms, "return")
	b.Ref("Expr").Optional().Add(appendChild)
	tok(b, ';')
	b.End(finishReturn, nil)
}

func finishReturn(prev ast.Node, _ any) (ast.Node, error) {
	children := accChildren(prev)
	return ast.NewTree(&ast.TreeParam{Kind: "ret", Format: "return%*;"}, children, spanOf(children...)), nil
}

// buildQueueForStmt declares "queue for <ident> <stmt>": the statement
// body runs once per item dequeued from the named queue before the
// task suspends again.
func buildQueueForStmt(b *grammar.Builder, syms *intern.Table) {
	b.NonTerminal("Statement").Rule()
	keyword(b, syms, "queue")
	keyword(b, syms, "for")
	b.Ref("Ident").Add(appendChild)
	b.Ref("Statement").Add(appendChild)
	b.End(finishQueueFor, nil)
}

func finishQueueFor(prev ast.Node, _ any) (ast.Node, error) {
	t := prev.(*ast.Tree)
	return mkTree("queuefor", "queue for %*\n%>%*%<", t.Children[0], t.Children[1]), nil
}

// buildPollStmt declares "poll <stmt> [at most (<expr>) <stmt>]": the
// body runs once per scheduler tick the task is polled, and the
// optional "at most" clause bounds how many ticks the poll may wait
// before running its own body instead.
func buildPollStmt(b *grammar.Builder, syms *intern.Table) {
	b.NonTerminal("Statement").Rule()
	keyword(b, syms, "poll")
	b.Ref("Statement").Add(appendChild)
	b.Group()
	b.Rule()
	keyword(b, syms, "at")
	keyword(b, syms, "most")
	tok(b, '(')
	b.Ref("Expr").Add(appendChild)
	tok(b, ')')
	b.Ref("Statement").Add(appendChild)
	b.End(finishAtMost, nil)
	b.CloseGroup().Optional().Add(appendChild)
	b.End(finishPoll, nil)
}

func finishAtMost(prev ast.Node, _ any) (ast.Node, error) {
	t := prev.(*ast.Tree)
	return mkTree("atmost", "\nat most (%*)\n%>%*%<\n", t.Children[0], t.Children[1]), nil
}

// finishPoll keeps the optional at-most slot as a nil hole when the
// clause is absent, the same hole convention finishIf uses for a
// missing else branch.
func finishPoll(prev ast.Node, _ any) (ast.Node, error) {
	t := prev.(*ast.Tree)
	return ast.NewTree(&ast.TreeParam{Kind: "poll", Format: "poll\n%>%*%<%*"}, t.Children, spanOf(t.Children...)), nil
}

// buildTimerStmt declares "timer <ident>;": a named countdown timer
// the enclosing task can later poll or wait on.
func buildTimerStmt(b *grammar.Builder, syms *intern.Table) {
	b.NonTerminal("Statement").Rule()
	keyword(b, syms, "timer")
	b.Ref("Ident").Add(passChild)
	tok(b, ';')
	b.End(wrapSingle("timer", "timer %*;"), nil)
}

// buildEveryStmt declares "every (<expr>) start <ident>;": it (re)arms
// the named timer to fire every <expr> ticks rather than once.
func buildEveryStmt(b *grammar.Builder, syms *intern.Table) {
	b.NonTerminal("Statement").Rule()
	keyword(b, syms, "every")
	tok(b, '(')
	b.Ref("Expr").Add(appendChild)
	tok(b, ')')
	keyword(b, syms, "start")
	b.Ref("Ident").Add(appendChild)
	tok(b, ';')
	b.End(finishEvery, nil)
}

func finishEvery(prev ast.Node, _ any) (ast.Node, error) {
	t := prev.(*ast.Tree)
	return mkTree("every", "every (%*) start %*;", t.Children[0], t.Children[1]), nil
}
