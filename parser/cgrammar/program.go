package cgrammar

import (
	"github.com/tcpoc/tcpoc/ast"
	"github.com/tcpoc/tcpoc/grammar"
	"github.com/tcpoc/tcpoc/intern"
)

// buildProgram declares Declaration (function or global-variable form)
// and Root, the file-level non-terminal Parse starts from. The K&R
// old-style parameter-list form is dropped, only the ANSI-prototype
// "new_style" shape survives — see DESIGN.md.
func buildProgram(b *grammar.Builder, syms *intern.Table) {
	buildFuncBody(b)

	b.NonTerminal("Declaration").Rule()
	b.Ref("TypeQual").Add(passChild)
	b.Group()

	b.Rule()
	b.Ref("Ident").Add(appendChild)
	tok(b, '(')
	b.Ref("ParamList").Optional().Add(appendChild).AddSkip(appendEmptyParams)
	tok(b, ')')
	b.Ref("FuncBody").Add(appendChild)
	b.End(finishFuncForm, nil)

	b.Rule()
	b.Ref("Decl").Add(passChild)

	b.CloseGroup().Add(finishDeclarationTop)

	b.NonTerminal("Root").Rule()
	b.Ref("Spacing").Optional()
	b.Ref("Declaration").Seq().Optional().
		BeginSeq(beginNilAcc).Add(prependChild).AddSkip(keepPrev)
	b.End(finishRoot, nil)
}

func appendEmptyParams(prev, _ ast.Node) (ast.Node, error) {
	return appendChild(prev, emptyParamList())
}

// finishFuncForm reshapes the [name, params, body] tuple a function
// Declaration alternative builds into the "new_style" tree.
func finishFuncForm(prev ast.Node, _ any) (ast.Node, error) {
	t := prev.(*ast.Tree)
	return mkTree("new_style", "%*(%*)\n%*", t.Children[0], t.Children[1], t.Children[2]), nil
}

// finishDeclarationTop wraps whichever Declaration alternative matched
// (function or global-variable form): format "%*%*", typequals then
// the rest, relying on unparse's alphanumeric-adjacency rule to insert
// the missing space between them.
func finishDeclarationTop(typequals, form ast.Node) (ast.Node, error) {
	return mkTree("declaration", "%*%*", typequals, form), nil
}

// buildFuncBody declares FuncBody: a semicolon forward-declaration or
// a brace-delimited body, reusing the same BlockItem accumulation
// Block uses but with distinct "forward"/"body" formats (the body
// format carries two trailing blank lines, separating adjacent
// top-level function definitions when unparsed).
func buildFuncBody(b *grammar.Builder) {
	b.NonTerminal("FuncBody").Rule()
	tok(b, ';')
	b.End(forwardDecl, nil)

	b.NonTerminal("FuncBody").Rule()
	tok(b, '{')
	b.Ref("BlockItem").Seq().Optional().
		BeginSeq(beginNilAcc).Add(prependChild).AddSkip(keepPrev)
	tok(b, '}')
	b.End(finishFuncBodyBlock, nil)
}

func forwardDecl(_ ast.Node, _ any) (ast.Node, error) {
	return mkTree("forward", ";\n"), nil
}

func finishFuncBodyBlock(prev ast.Node, _ any) (ast.Node, error) {
	items := reversedChildren(prev)
	list := ast.MakeTreeWithChildren(&ast.TreeParam{Kind: ast.ListKind, Format: "\n"}, items, spanOf(items...))
	return mkTree("body", "{\n%>%*%<\n}\n\n", list), nil
}

func finishRoot(prev ast.Node, _ any) (ast.Node, error) {
	items := reversedChildren(prev)
	return ast.MakeTreeWithChildren(&ast.TreeParam{Kind: ast.ListKind, Format: ""}, items, spanOf(items...)), nil
}
