package cgrammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcpoc/tcpoc/ast"
	"github.com/tcpoc/tcpoc/parser"
	"github.com/tcpoc/tcpoc/task"
	"github.com/tcpoc/tcpoc/unparse"
)

const sampleProgram = `
int helper() {
    return 1;
}

task int producer() {
    return helper();
}

task void consumer() {
    int y = producer();
    y = y + 1;
}
`

func parseNT(t *testing.T, nt, input string) ast.Node {
	t.Helper()
	g, _ := Build()
	p := parser.New(g, []byte(input))
	result, err := p.Parse(nt)
	require.NoError(t, err, "parsing %q against %s", input, nt)
	return result
}

func TestParse_DecimalInt(t *testing.T) {
	n := parseNT(t, "Int", "123")
	i, ok := n.(*ast.Int)
	require.True(t, ok)
	assert.EqualValues(t, 123, i.Value)
	assert.Equal(t, ast.Decimal, i.Base)
}

func TestParse_HexInt(t *testing.T) {
	n := parseNT(t, "Int", "0xAbc")
	i, ok := n.(*ast.Int)
	require.True(t, ok)
	assert.EqualValues(t, 2748, i.Value)
	assert.Equal(t, ast.Hexadecimal, i.Base)
}

func TestParse_OctalInt(t *testing.T) {
	n := parseNT(t, "Int", "017")
	i, ok := n.(*ast.Int)
	require.True(t, ok)
	assert.EqualValues(t, 15, i.Value)
	assert.Equal(t, ast.Octal, i.Base)
}

func TestParse_StringConcatenatesAcrossComments(t *testing.T) {
	n := parseNT(t, "String", `"abc" /* */ "def"`)
	s, ok := n.(*ast.String)
	require.True(t, ok)
	assert.Equal(t, []byte("abcdef"), s.Value)
}

func TestParse_CharEscape(t *testing.T) {
	n := parseNT(t, "Char", `'\n'`)
	c, ok := n.(*ast.Char)
	require.True(t, ok)
	assert.EqualValues(t, '\n', c.Value)
}

// TestParse_ExprIsCommaList pins the comma-expression shape: Expr
// always produces a list tree, even for a single expression, so "a*b"
// parses to list(times(a, b)).
func TestParse_ExprIsCommaList(t *testing.T) {
	n := parseNT(t, "Expr", "a*b")
	lst, ok := n.(*ast.Tree)
	require.True(t, ok)
	require.True(t, lst.IsList())
	require.Len(t, lst.Children, 1)

	times, ok := lst.Children[0].(*ast.Tree)
	require.True(t, ok)
	assert.Equal(t, "times", times.Param.Kind)
	require.Len(t, times.Children, 2)

	left, ok := times.Children[0].(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, "a", left.Name())
	right, ok := times.Children[1].(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, "b", right.Name())
}

func TestParse_CommaExprCollectsAll(t *testing.T) {
	n := parseNT(t, "Expr", "a, b, c")
	lst, ok := n.(*ast.Tree)
	require.True(t, ok)
	require.True(t, lst.IsList())
	assert.Len(t, lst.Children, 3)
}

func TestBuild_ParsesSampleProgramToRoot(t *testing.T) {
	g, _ := Build()
	p := parser.New(g, []byte(sampleProgram))
	result, err := p.Parse("Root")
	require.NoError(t, err)

	root, ok := result.(*ast.Tree)
	require.True(t, ok)
	assert.Equal(t, ast.ListKind, root.Param.Kind)
	require.Len(t, root.Children, 3)

	for _, child := range root.Children {
		d, ok := child.(*ast.Tree)
		require.True(t, ok)
		assert.Equal(t, "declaration", d.Param.Kind)
	}
}

// taskStatementProgram exercises every statement form the grammar
// declares, comments included, for the roundtrip test below.
const taskStatementProgram = `
// producer yields one value per call.
task int producer() {
    return 1;
}

task void consumer(int limit) {
    int y = producer();
    timer t1;
    every (10) start t1;
    queue for inbox {
        y = y + 1;
    }
    poll {
        if (y > limit) {
            producer();
        } else {
            y = 0;
        }
    } at most (100) {
        y = 0;
    }
}
`

// TestBuild_UnparseReparseRoundtrip exercises the roundtrip invariant:
// unparsing a successful parse and parsing that text again yields a
// tree that unparses to the identical text — the shape-stable
// fixed point the unparse invariant asks for. Both parses intern
// through the same table; the final assertion checks that re-interning
// a spelling from the program returns the same pointer.
func TestBuild_UnparseReparseRoundtrip(t *testing.T) {
	g, syms := Build()

	for _, program := range []string{sampleProgram, taskStatementProgram} {
		p1 := parser.New(g, []byte(program))
		first, err := p1.Parse("Root")
		require.NoError(t, err)

		text := unparse.Tree(first)

		p2 := parser.New(g, []byte(text))
		second, err := p2.Parse("Root")
		require.NoError(t, err, "reparsing unparsed text:\n%s", text)

		assert.Equal(t, text, unparse.Tree(second))
		assert.NotContains(t, text, "ERR")
	}

	// Interning the same spelling twice hands back the same pointer.
	assert.Same(t, syms.Intern("producer"), syms.Intern("producer"))
}

// TestBuild_FeedsTaskLowering confirms a program parsed through this
// grammar is a valid input to the task-lowering transformer: a
// task-call-initialized local declaration inside consumer suspends it
// into a continuation step invoked via os_call_task.
func TestBuild_FeedsTaskLowering(t *testing.T) {
	g, syms := Build()
	p := parser.New(g, []byte(sampleProgram))
	result, err := p.Parse("Root")
	require.NoError(t, err)
	root := result.(*ast.Tree)

	lowerer := task.NewLowerer(syms)
	reg, rewritten, err := lowerer.Lower(root)
	require.NoError(t, err)

	producer, ok := reg.Find("producer")
	require.True(t, ok)
	consumer, ok := reg.Find("consumer")
	require.True(t, ok)
	require.Len(t, consumer.Steps(), 1)

	got := unparse.Tree(rewritten)
	assert.Contains(t, got, "os_call_task(0, 1, consumer_step1)")
	assert.Equal(t, 0, producer.Index)
	assert.Equal(t, 1, consumer.Index)
}
