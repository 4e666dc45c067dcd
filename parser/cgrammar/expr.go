package cgrammar

import (
	"github.com/tcpoc/tcpoc/ast"
	"github.com/tcpoc/tcpoc/grammar"
)

// buildExpr declares the expression grammar: primary/postfix/unary
// operators, the precedence ladder of left-recursive binary operator
// non-terminals, the ternary conditional, and assignment.
func buildExpr(b *grammar.Builder) {
	b.NonTerminal("Comma").
		Rule().Char(',').Ref("Spacing").Optional()

	buildPrimaryExpr(b)
	buildPostfixExpr(b)
	buildUnaryExpr(b)
	buildBinaryLadder(b)
	buildConditionalExpr(b)
	buildAssignmentExpr(b)

	// Expr is the comma-expression list: one or more assignment
	// expressions chained by commas, always folded into a "list" tree
	// even when only one matched — "a*b" parses to list(times(a,b)).
	b.NonTerminal("Expr").
		Rule().
		Ref("AssignmentExpr").Seq().ChainRef("Comma").
		BeginSeq(beginNilAcc).Add(appendChild).AddSeq(exprAsList, nil)

	b.NonTerminal("ConstantExpr").
		Rule().Ref("ConditionalExpr").Add(passChild)
}

// exprAsList relabels the comma-expression accumulator as a "list"
// tree with a ", " separator, ignoring the (always empty) pre-sequence
// value.
func exprAsList(acc, _ ast.Node, _ any) (ast.Node, error) {
	t := acc.(*ast.Tree)
	t.Param = &ast.TreeParam{Kind: ast.ListKind, Format: ", "}
	return t, nil
}

func buildPrimaryExpr(b *grammar.Builder) {
	b.NonTerminal("PrimaryExpr").
		Rule().Ref("Ident").Cond(notKeyword, nil).Add(passChild)
	b.NonTerminal("PrimaryExpr").
		Rule().Ref("Int").Add(passChild)
	b.NonTerminal("PrimaryExpr").
		Rule().Ref("Char").Add(passChild)
	b.NonTerminal("PrimaryExpr").
		Rule().Ref("String").Add(passChild)

	b.NonTerminal("PrimaryExpr").Rule()
	tok(b, '(')
	b.Ref("Expr").Add(wrapBrackets)
	tok(b, ')')
}

func wrapBrackets(_, child ast.Node) (ast.Node, error) {
	return mkTree("brackets", "(%*)", child), nil
}

// buildPostfixExpr is the left-recursive family of call, array-index,
// field-access and post-increment/decrement operators, all binding
// tighter than every prefix unary operator.
func buildPostfixExpr(b *grammar.Builder) {
	b.NonTerminal("PostfixExpr").
		Rule().Ref("PrimaryExpr").Add(passChild)

	b.NonTerminal("PostfixExpr").LeftRecursiveRule().RecursiveStart(identitySeed)
	tok(b, '[')
	b.Ref("Expr").Add(arrayIndex)
	tok(b, ']')

	b.NonTerminal("PostfixExpr").LeftRecursiveRule().RecursiveStart(identitySeed)
	tok(b, '(')
	b.Ref("AssignmentExpr").Seq().Optional().ChainRef("Comma").
		BeginSeq(beginNilAcc).Add(appendChild).AddSeq(finishCallArgs, nil).AddSkip(finishCallArgsEmpty)
	tok(b, ')')
	b.End(finishCall, nil)

	b.NonTerminal("PostfixExpr").LeftRecursiveRule().RecursiveStart(identitySeed)
	tok(b, '.')
	b.Ref("Ident").Add(fieldAccess)

	b.NonTerminal("PostfixExpr").LeftRecursiveRule().RecursiveStart(identitySeed)
	b.Char('-')
	tok(b, '>')
	b.Ref("Ident").Add(fieldDeref)

	b.NonTerminal("PostfixExpr").LeftRecursiveRule().RecursiveStart(identitySeed)
	b.Char('+')
	tok(b, '+').Add(postInc)

	b.NonTerminal("PostfixExpr").LeftRecursiveRule().RecursiveStart(identitySeed)
	b.Char('-')
	tok(b, '-').Add(postDec)
}

func arrayIndex(arrayNode, idxNode ast.Node) (ast.Node, error) {
	return mkTree("arrayexp", "%*[%*]", arrayNode, idxNode), nil
}

// beginNilAcc always starts the call-argument accumulator fresh,
// independent of whatever the callee expression threaded in.
func beginNilAcc(_ ast.Node) (ast.Node, error) { return nil, nil }

// finishCallArgs and finishCallArgsEmpty both produce a "_callacc"
// scratch tree pairing the callee (prev, the postfix-expr seed) with
// the argument list, so the rule-level End callback can reshape it
// uniformly regardless of whether any argument matched.
func finishCallArgs(acc, prev ast.Node, _ any) (ast.Node, error) {
	return mkTree("_callacc", "", prev, wrapArgList(acc)), nil
}

func finishCallArgsEmpty(prev, _ ast.Node) (ast.Node, error) {
	return mkTree("_callacc", "", prev, wrapArgList(nil)), nil
}

func wrapArgList(acc ast.Node) *ast.Tree {
	if acc == nil {
		return mkTree(ast.ListKind, ", ")
	}
	t := acc.(*ast.Tree)
	t.Param = &ast.TreeParam{Kind: ast.ListKind, Format: ", "}
	return t
}

func finishCall(prev ast.Node, _ any) (ast.Node, error) {
	t := prev.(*ast.Tree)
	return mkTree("call", "%*(%*)", t.Children[0], t.Children[1]), nil
}

func fieldAccess(obj, name ast.Node) (ast.Node, error) {
	return mkTree("field", "%*.%*", obj, name), nil
}

func fieldDeref(obj, name ast.Node) (ast.Node, error) {
	return mkTree("fieldderef", "%*->%*", obj, name), nil
}

func postInc(n, _ ast.Node) (ast.Node, error) { return mkTree("post_inc", "%*++", n), nil }
func postDec(n, _ ast.Node) (ast.Node, error) { return mkTree("post_dec", "%*--", n), nil }

// buildUnaryExpr declares the prefix operators; sizeof is intentionally
// omitted — it would need an abstract-declarator grammar the task
// transformer never consumes.
func buildUnaryExpr(b *grammar.Builder) {
	b.NonTerminal("UnaryExpr").Rule()
	b.Char('+')
	tok(b, '+')
	b.Ref("UnaryExpr").Add(wrap1("pre_inc", "++%*"))

	b.NonTerminal("UnaryExpr").Rule()
	b.Char('-')
	tok(b, '-')
	b.Ref("UnaryExpr").Add(wrap1("pre_dec", "--%*"))

	prefixOps := []struct {
		c      byte
		kind   string
		format string
	}{
		{'&', "address_of", "&%*"},
		{'*', "deref", "*%*"},
		{'+', "plus", "+%*"},
		{'-', "min", "-%*"},
		{'~', "invert", "~%*"},
		{'!', "not", "!%*"},
	}
	for _, op := range prefixOps {
		b.NonTerminal("UnaryExpr").Rule()
		tok(b, op.c)
		b.Ref("CastExpr").Add(wrap1(op.kind, op.format))
	}

	b.NonTerminal("UnaryExpr").
		Rule().Ref("PostfixExpr").Add(passChild)

	// CastExpr has no parenthesized-type-name form here (see the
	// package comment above); it is a pure alias for UnaryExpr.
	b.NonTerminal("CastExpr").
		Rule().Ref("UnaryExpr").Add(passChild)
}

func wrap1(kind, format string) grammar.AddFunc {
	return func(_, child ast.Node) (ast.Node, error) {
		return mkTree(kind, format, child), nil
	}
}

type binLevelOp struct {
	match  func(*grammar.Builder)
	kind   string
	format string
}

// buildBinaryLadder declares the left-recursive precedence chain from
// multiplicative up through logical-or, each level built on the one
// below.
func buildBinaryLadder(b *grammar.Builder) {
	binChar := func(c byte) func(*grammar.Builder) {
		return func(b *grammar.Builder) { tok(b, c) }
	}
	binSym := func(s string) func(*grammar.Builder) {
		return func(b *grammar.Builder) { sym(b, s) }
	}

	levels := []struct {
		name string
		base string
		ops  []binLevelOp
	}{
		{"MulExpr", "CastExpr", []binLevelOp{
			{binChar('*'), "times", "%* * %*"},
			{binChar('/'), "div", "%* / %*"},
			{binChar('%'), "mod", "%* %% %*"},
		}},
		{"AddExpr", "MulExpr", []binLevelOp{
			{binChar('+'), "add", "%* + %*"},
			{binChar('-'), "sub", "%* - %*"},
		}},
		{"ShiftExpr", "AddExpr", []binLevelOp{
			{binSym("<<"), "ls", "%* << %*"},
			{binSym(">>"), "rs", "%* >> %*"},
		}},
		{"RelExpr", "ShiftExpr", []binLevelOp{
			{binSym("<="), "le", "%* <= %*"},
			{binSym(">="), "ge", "%* >= %*"},
			{binSym("=="), "eq", "%* == %*"},
			{binSym("!="), "ne", "%* != %*"},
			{binChar('<'), "lt", "%* < %*"},
			{binChar('>'), "gt", "%* > %*"},
		}},
		{"BitXorExpr", "RelExpr", []binLevelOp{
			{binChar('^'), "bexor", "%* ^ %*"},
		}},
		{"BitAndExpr", "BitXorExpr", []binLevelOp{
			{binChar('&'), "land", "%* & %*"},
		}},
		{"BitOrExpr", "BitAndExpr", []binLevelOp{
			{binChar('|'), "lor", "%* | %*"},
		}},
		{"LogAndExpr", "BitOrExpr", []binLevelOp{
			{binSym("&&"), "and", "%* && %*"},
		}},
		{"LogOrExpr", "LogAndExpr", []binLevelOp{
			{binSym("||"), "or", "%* || %*"},
		}},
	}

	for _, lvl := range levels {
		b.NonTerminal(lvl.name).
			Rule().Ref(lvl.base).Add(passChild)
		for _, op := range lvl.ops {
			b.NonTerminal(lvl.name).LeftRecursiveRule().RecursiveStart(identitySeed)
			op.match(b)
			b.Ref(lvl.base).Add(binOp(op.kind, op.format))
		}
	}
}

func buildConditionalExpr(b *grammar.Builder) {
	b.NonTerminal("ConditionalExpr").Rule()
	b.Ref("LogOrExpr").Add(passChild)
	tok(b, '?')
	b.Ref("LogOrExpr").Add(pairFirst)
	tok(b, ':')
	b.Ref("ConditionalExpr").Add(finishTernary)

	b.NonTerminal("ConditionalExpr").
		Rule().Ref("LogOrExpr").Add(passChild)
}

func pairFirst(cond, then ast.Node) (ast.Node, error) {
	return mkTree("_pair", "", cond, then), nil
}

func finishTernary(pair, elseExpr ast.Node) (ast.Node, error) {
	t := pair.(*ast.Tree)
	return mkTree("if_expr", "%* ? %* : %*", t.Children[0], t.Children[1], elseExpr), nil
}

func buildAssignmentExpr(b *grammar.Builder) {
	ops := []struct {
		match  func(*grammar.Builder)
		kind   string
		symbol string
	}{
		{func(b *grammar.Builder) { tok(b, '=') }, "ass", "="},
		{func(b *grammar.Builder) { sym(b, "*=") }, "times_ass", "*="},
		{func(b *grammar.Builder) { sym(b, "/=") }, "div_ass", "/="},
		{func(b *grammar.Builder) { sym(b, "%=") }, "mod_ass", "%%="},
		{func(b *grammar.Builder) { sym(b, "+=") }, "add_ass", "+="},
		{func(b *grammar.Builder) { sym(b, "-=") }, "sub_ass", "-="},
		{func(b *grammar.Builder) { sym(b, "<<=") }, "sl_ass", "<<="},
		{func(b *grammar.Builder) { sym(b, ">>=") }, "sr_ass", ">>="},
		{func(b *grammar.Builder) { sym(b, "&=") }, "and_ass", "&="},
		{func(b *grammar.Builder) { sym(b, "|=") }, "or_ass", "|="},
		{func(b *grammar.Builder) { sym(b, "^=") }, "exor_ass", "^="},
	}
	for _, op := range ops {
		b.NonTerminal("AssignmentExpr").Rule()
		b.Ref("UnaryExpr").Add(passChild)
		op.match(b)
		b.Ref("AssignmentExpr").Add(finishAssignment(op.kind, op.symbol))
	}

	b.NonTerminal("AssignmentExpr").
		Rule().Ref("ConditionalExpr").Add(passChild)
}

// finishAssignment closes over the operator kind and its surface
// symbol so the final Add callback (which only sees the left-hand
// side and the freshly parsed right-hand side) can still render the
// literal operator text rather than its internal kind name.
func finishAssignment(opKind, symbol string) grammar.AddFunc {
	format := "%* " + symbol + " %*"
	return func(lhs, rhs ast.Node) (ast.Node, error) {
		return mkTree(opKind, format, lhs, rhs), nil
	}
}
