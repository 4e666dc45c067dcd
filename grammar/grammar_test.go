package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcpoc/tcpoc/charset"
)

func TestBuilder_SimpleRule(t *testing.T) {
	b := NewBuilder()
	b.NonTerminal("digit").
		Rule().CharSet(charset.NewFromRange('0', '9'))

	g := b.Grammar()
	nt, ok := g.Lookup("digit")
	require.True(t, ok)
	require.Len(t, nt.Normal, 1)
	require.Len(t, nt.Normal[0].Elements, 1)
	assert.Equal(t, ElemCharSet, nt.Normal[0].Elements[0].Kind)
}

func TestBuilder_ModifiersAttachToLastElement(t *testing.T) {
	b := NewBuilder()
	b.NonTerminal("ident").
		Rule().
		CharSet(charset.NewFromRange('a', 'z')).
		CharSet(charset.NewFromRange('a', 'z')).Seq().Optional()

	nt, _ := b.Grammar().Lookup("ident")
	els := nt.Normal[0].Elements
	require.Len(t, els, 2)
	assert.False(t, els[0].Sequence)
	assert.True(t, els[1].Sequence)
	assert.True(t, els[1].Optional)
}

func TestBuilder_GroupOpensAndClosesRuleList(t *testing.T) {
	b := NewBuilder()
	b.NonTerminal("sign").
		Rule().
		Group().
		Rule().Char('+').
		Rule().Char('-').
		CloseGroup()

	nt, _ := b.Grammar().Lookup("sign")
	els := nt.Normal[0].Elements
	require.Len(t, els, 1)
	require.Equal(t, ElemGroup, els[0].Kind)
	require.Len(t, els[0].Group.Rules, 2)
	assert.Equal(t, byte('+'), els[0].Group.Rules[0].Elements[0].Char)
	assert.Equal(t, byte('-'), els[0].Group.Rules[1].Elements[0].Char)
}

func TestBuilder_ChainOnlyOnSequence(t *testing.T) {
	b := NewBuilder()
	b.NonTerminal("list").
		Rule().
		Ref("item").Seq().ChainChar(',')

	nt, _ := b.Grammar().Lookup("list")
	e := nt.Normal[0].Elements[0]
	require.NotNil(t, e.Chain)
	assert.Equal(t, byte(','), e.Chain.Char)
}

func TestBuilder_ChainPanicsWithoutSequence(t *testing.T) {
	b := NewBuilder()
	b.NonTerminal("list").Rule().Ref("item")
	assert.Panics(t, func() { b.ChainChar(',') })
}

func TestBuilder_LeftRecursiveRuleSeparateList(t *testing.T) {
	b := NewBuilder()
	b.NonTerminal("expr").
		Rule().Ref("number")
	b.LeftRecursiveRule().
		Char('+').Add(nil).
		Ref("number")

	nt, _ := b.Grammar().Lookup("expr")
	require.Len(t, nt.Normal, 1)
	require.Len(t, nt.LeftRecursive, 1)
}

func TestGrammar_NamesPreservesDeclarationOrder(t *testing.T) {
	b := NewBuilder()
	b.NonTerminal("b").Rule().Char('b')
	b.NonTerminal("a").Rule().Char('a')
	assert.Equal(t, []string{"b", "a"}, b.Grammar().Names())
}
