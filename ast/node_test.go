package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcpoc/tcpoc/intern"
)

func TestIdent_Basics(t *testing.T) {
	var tbl intern.Table
	sym := tbl.Intern("task")
	tbl.SetKeyword()

	id := NewIdent(sym, Range{Start: 0, End: 4})
	assert.Equal(t, "task", id.Name())
	assert.True(t, id.IsKeyword())
	assert.Equal(t, Range{0, 4}, id.Range())
}

func TestMakeTreeWithChildren_ReversesOrder(t *testing.T) {
	param := &TreeParam{Kind: "pair", Format: "%* %*"}
	a := NewChar('a', Range{0, 1})
	b := NewChar('b', Range{1, 2})

	// accumulated by prepend: reversed == [b, a]
	tree := MakeTreeWithChildren(param, []Node{b, a}, Range{0, 2})
	require.Len(t, tree.Children, 2)
	assert.Same(t, Node(a), tree.Children[0])
	assert.Same(t, Node(b), tree.Children[1])
}

func TestMakeTreeFromList_FlattensSingleListChild(t *testing.T) {
	listParam := &TreeParam{Kind: ListKind, Format: ", "}
	a := NewChar('a', Range{0, 1})
	b := NewChar('b', Range{1, 2})
	inner := MakeTreeWithChildren(listParam, []Node{b, a}, Range{0, 2})

	outerParam := &TreeParam{Kind: "group", Format: "(%*)"}
	outer := MakeTreeFromList(outerParam, []Node{inner}, Range{0, 2})

	require.Len(t, outer.Children, 2)
	assert.Same(t, Node(a), outer.Children[0])
	assert.Same(t, Node(b), outer.Children[1])
}

func TestMakeTreeFromList_NoFlattenWhenNotAList(t *testing.T) {
	innerParam := &TreeParam{Kind: "single", Format: "%*"}
	a := NewChar('a', Range{0, 1})
	inner := MakeTreeWithChildren(innerParam, []Node{a}, Range{0, 1})

	outerParam := &TreeParam{Kind: "group", Format: "(%*)"}
	outer := MakeTreeFromList(outerParam, []Node{inner}, Range{0, 1})

	require.Len(t, outer.Children, 1)
	assert.Same(t, Node(inner), outer.Children[0])
}

func TestPassTree_UnwrapsSingleChild(t *testing.T) {
	a := NewChar('a', Range{0, 1})
	holder := MakeTreeWithChildren(&TreeParam{Kind: "holder"}, []Node{a}, Range{0, 1})
	assert.Same(t, Node(a), PassTree(holder))
}

func TestTree_PrettyString(t *testing.T) {
	a := NewChar('a', Range{0, 1})
	b := NewChar('b', Range{1, 2})
	tree := NewTree(&TreeParam{Kind: "pair"}, []Node{a, b}, Range{0, 2})
	out := tree.PrettyString()
	assert.Contains(t, out, "pair")
	assert.Contains(t, out, "Char")
}
