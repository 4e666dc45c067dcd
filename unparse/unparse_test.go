package unparse

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tcpoc/tcpoc/ast"
	"github.com/tcpoc/tcpoc/intern"
)

func tree(kind, format string, children ...ast.Node) *ast.Tree {
	return ast.NewTree(&ast.TreeParam{Kind: kind, Format: format}, children, ast.Range{})
}

func ident(syms *intern.Table, name string) *ast.Ident {
	return ast.NewIdent(syms.Intern(name), ast.Range{})
}

func TestTree_SimpleBinaryOp(t *testing.T) {
	var syms intern.Table
	n := tree("add", "%* + %*", ident(&syms, "x"), ident(&syms, "y"))
	assert.Equal(t, "x + y", Tree(n))
}

func TestTree_IndentedBlock(t *testing.T) {
	var syms intern.Table
	stmt := tree("semi", "%*;", ident(&syms, "x"))
	list := ast.MakeTreeWithChildren(&ast.TreeParam{Kind: ast.ListKind, Format: "\n"}, []ast.Node{stmt}, ast.Range{})
	block := tree("block", "{\n%>%*%<\n}", list)

	assert.Equal(t, "{\n    x;\n}", Tree(block))
}

func TestTree_IndentWidthConfigurable(t *testing.T) {
	var syms intern.Table
	stmt := tree("semi", "%*;", ident(&syms, "x"))
	list := ast.MakeTreeWithChildren(&ast.TreeParam{Kind: ast.ListKind, Format: "\n"}, []ast.Node{stmt}, ast.Range{})
	block := tree("block", "{\n%>%*%<\n}", list)

	assert.Equal(t, "{\n  x;\n}", TreeIndent(block, 2))
}

func TestTree_ListSeparator(t *testing.T) {
	var syms intern.Table
	list := tree(ast.ListKind, ", ", ident(&syms, "a"), ident(&syms, "b"), ident(&syms, "c"))
	assert.Equal(t, "a, b, c", Tree(list))
}

func TestTree_AlphanumericAdjacencyInsertsSpace(t *testing.T) {
	var syms intern.Table
	// "unsigned" then "int" as two bare leaves joined with no
	// separator: the template has no literal space between the two
	// %* slots, so adjacency must supply one.
	n := tree("pair", "%*%*", ident(&syms, "unsigned"), ident(&syms, "int"))
	assert.Equal(t, "unsigned int", Tree(n))
}

func TestTree_NoSpaceBeforePunctuation(t *testing.T) {
	var syms intern.Table
	n := tree("call", "%*()", ident(&syms, "f"))
	assert.Equal(t, "f()", Tree(n))
}

func TestTree_MissingChildSurfacesErr1(t *testing.T) {
	n := tree("if", "if (%*)\n%>%*%<%*")
	assert.Contains(t, Tree(n), "(ERR1:if if (%*)\n%>%*%<%*)")
}

func TestTree_ExtraChildSurfacesErr2(t *testing.T) {
	var syms intern.Table
	n := tree("semi", "%*;", ident(&syms, "x"), ident(&syms, "y"))
	assert.Contains(t, Tree(n), "(ERR2:semi %*;)")
}

func TestTree_NilHoleRendersAsNothing(t *testing.T) {
	var syms intern.Table
	// An "if" with no else branch carries a nil hole in the third
	// slot; the hole consumes its %* and emits nothing, so no ERR
	// marker appears.
	cond := ident(&syms, "ok")
	then := tree("semi", "%*;", ident(&syms, "x"))
	n := tree("if", "if (%*)\n%>%*%<%*", cond, then, nil)
	out := Tree(n)
	assert.Contains(t, out, "if (ok)")
	assert.NotContains(t, out, "ERR")
}

func TestTree_CharAndStringEscaping(t *testing.T) {
	c := ast.NewChar('\'', ast.Range{})
	assert.Equal(t, `'\''`, Tree(c))

	s := ast.NewString([]byte("a\nb\"c"), ast.Range{})
	assert.Equal(t, `"a\nb\"c"`, Tree(s))
}

func TestTree_IntAlwaysDecimal(t *testing.T) {
	n := ast.NewInt(255, ast.Hexadecimal, ast.Range{})
	assert.Equal(t, "255", Tree(n))
}

func TestTree_NilNodeIsNoop(t *testing.T) {
	assert.Equal(t, "", Tree(nil))
}
