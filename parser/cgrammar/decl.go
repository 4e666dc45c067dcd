package cgrammar

import (
	"github.com/tcpoc/tcpoc/ast"
	"github.com/tcpoc/tcpoc/grammar"
	"github.com/tcpoc/tcpoc/intern"
)

// buildDecl declares the simplified C declarator and declaration
// grammar: type qualifiers, pointer declarators, parameter lists, and
// local/global variable declarations. It deliberately drops struct,
// union, enum, function-pointer, array and sizeof-type-name forms —
// the task transformer never consumes them. See DESIGN.md for the
// full list of dropped forms.
func buildDecl(b *grammar.Builder, syms *intern.Table) {
	buildTypeQual(b, syms)
	buildDeclarator(b)
	buildDeclInit(b)
	buildParam(b)
}

var typeQualKeywords = []string{
	"typedef", "extern", "static", "auto", "register", "inline", "task",
	"void", "char", "short", "int", "long", "signed", "unsigned",
	"float", "double", "const", "volatile",
}

// buildTypeQual declares TypeQualItem (one reserved type/storage-class
// word) and TypeQual (one or more, folded into a list so multi-word
// specifiers like "unsigned int" or "task void" read naturally).
// There is no bare-IDENT fallback for typedef'd type names here:
// allowing one would make TypeQual's greedy sequence swallow
// the declarator's own identifier on input like "MyType x;", since
// both a type name and a variable name are bare Idents; dropping
// typedef name support avoids that ambiguity. See DESIGN.md.
func buildTypeQual(b *grammar.Builder, syms *intern.Table) {
	for _, word := range typeQualKeywords {
		b.NonTerminal("TypeQualItem").Rule()
		keyword(b, syms, word)
		b.End(wrapKeywordLeaf(word), nil)
	}

	b.NonTerminal("TypeQual").
		Rule().
		Ref("TypeQualItem").Seq().BeginSeq(seedFromPrev).Add(appendChild).
		End(relabelList(""), nil)
}

func wrapKeywordLeaf(word string) grammar.EndFunc {
	return func(_ ast.Node, _ any) (ast.Node, error) { return mkLeaf(word), nil }
}

// buildDeclarator declares Declarator: zero or more leading pointer
// stars wrapping a bare identifier. Arrays, function pointers and
// grouping parens are out of scope (see package comment).
func buildDeclarator(b *grammar.Builder) {
	b.NonTerminal("Declarator").Rule()
	tok(b, '*')
	b.Ref("Declarator").Add(wrap1("pointdecl", "*%*"))

	b.NonTerminal("Declarator").
		Rule().Ref("Ident").Add(passChild)
}

// buildDeclInit declares Initializer, DeclInit and Decl. DeclInit's
// shape is decl_init(declarator, init?) with the initializer stored
// as a bare expression, not behind a wrapper tree — a wrapper would
// hide a call initializer's own "call" kind from the task
// transformer's suspension-point detection. See DESIGN.md.
func buildDeclInit(b *grammar.Builder) {
	b.NonTerminal("Initializer").
		Rule().Ref("AssignmentExpr").Add(passChild)

	b.NonTerminal("DeclInit").Rule()
	b.Ref("Declarator").Add(passChild)
	b.Group()
	b.Rule()
	tok(b, '=')
	b.Ref("Initializer").Add(passChild)
	b.CloseGroup().Optional().Add(finishDeclInit).AddSkip(finishDeclInitNoInit)

	b.NonTerminal("Decl").Rule()
	b.Ref("DeclInit").Add(passChild)
	tok(b, ';')
	b.End(wrapSingle("decl", "%*;\n"), nil)
}

func finishDeclInit(declarator, init ast.Node) (ast.Node, error) {
	return mkTree("decl_init", "%* = %*", declarator, init), nil
}

func finishDeclInitNoInit(declarator, _ ast.Node) (ast.Node, error) {
	return mkTree("decl_init", "%*", declarator, nil), nil
}

// buildParam declares a single function parameter (type qualifier
// plus declarator) and ParamList, the comma-chained, non-empty
// sequence of them.
func buildParam(b *grammar.Builder) {
	b.NonTerminal("Param").Rule()
	b.Ref("TypeQual").Add(passChild)
	b.Ref("Declarator").Add(pairFirst)
	b.End(finishParam, nil)

	b.NonTerminal("ParamList").
		Rule().
		Ref("Param").Seq().ChainRef("Comma").BeginSeq(seedFromPrev).Add(appendChild).
		End(relabelList(", "), nil)
}

func finishParam(pair ast.Node, _ any) (ast.Node, error) {
	t := pair.(*ast.Tree)
	return mkTree("param", "%* %*", t.Children[0], t.Children[1]), nil
}

// emptyParamList is the ParamList value a niladic function's
// Declaration reduction folds in when no parameter matched at all.
func emptyParamList() *ast.Tree { return mkTree(ast.ListKind, ", ") }
