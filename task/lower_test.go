package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcpoc/tcpoc/ast"
	"github.com/tcpoc/tcpoc/intern"
	"github.com/tcpoc/tcpoc/unparse"
)

func id(syms *intern.Table, name string) *ast.Ident {
	return ast.NewIdent(syms.Intern(name), ast.Range{})
}

func tr(kind, format string, children ...ast.Node) *ast.Tree {
	return ast.NewTree(&ast.TreeParam{Kind: kind, Format: format}, children, ast.Range{})
}

func leaf(kind string) *ast.Tree { return tr(kind, kind) }

func list(format string, items ...ast.Node) *ast.Tree {
	return ast.NewTree(&ast.TreeParam{Kind: ast.ListKind, Format: format}, items, ast.Range{})
}

func emptyParams() *ast.Tree { return list(", ") }

func declInit(declarator ast.Node, init ast.Node) *ast.Tree {
	if init == nil {
		return tr("decl_init", "%*", declarator)
	}
	return tr("decl_init", "%* = %*", declarator, init)
}

func declStmt(typequal ast.Node, di *ast.Tree) *ast.Tree {
	decl := tr("decl", "%*;\n", di)
	return tr("declaration", "%*%*", typequal, decl)
}

func semi(expr ast.Node) *ast.Tree { return tr("semi", "%*;", expr) }

func ass(lhs, rhs ast.Node) *ast.Tree { return tr("ass", "%* = %*", lhs, rhs) }

func call(callee ast.Node, args ...ast.Node) *ast.Tree {
	return tr("call", "%*(%*)", callee, list(", ", args...))
}

func taskFunc(syms *intern.Table, typeWords []string, name string, items ...ast.Node) *ast.Tree {
	typequal := make([]ast.Node, len(typeWords))
	for i, w := range typeWords {
		typequal[i] = leaf(w)
	}
	body := tr("body", "{\n%>%*%<\n}\n\n", list("\n", items...))
	form := tr("new_style", "%*(%*)\n%*", id(syms, name), emptyParams(), body)
	return tr("declaration", "%*%*", list("", typequal...), form)
}

// TestLower_SimpleTaskNoSplit exercises a task whose body never
// suspends: every local should still be hoisted to a global, but no
// step should be created.
func TestLower_SimpleTaskNoSplit(t *testing.T) {
	var syms intern.Table
	producer := taskFunc(&syms, []string{"task", "int"}, "producer",
		declStmt(list("", leaf("int")), declInit(id(&syms, "x"), nil)),
		semi(ass(id(&syms, "x"), ast.NewInt(5, ast.Decimal, ast.Range{}))),
	)
	root := list("", producer)

	l := NewLowerer(&syms)
	reg, out, err := l.Lower(root)
	require.NoError(t, err)

	tasks := reg.Tasks()
	require.Len(t, tasks, 1)
	pt := tasks[0]
	assert.Equal(t, "producer", pt.Name)
	assert.Equal(t, 0, pt.Index)
	assert.Equal(t, "producer_result", pt.ResultVar)
	assert.False(t, pt.VoidReturn)
	assert.Empty(t, pt.Steps())
	require.Len(t, pt.Globals(), 1)
	assert.Equal(t, "producer_var1_x", pt.Globals()[0].Name)

	got := unparse.Tree(out)
	assert.Contains(t, got, "producer_var1_x = 5;")
	assert.Contains(t, got, "int producer_var1_x;")
	assert.Contains(t, got, "int producer_result;")
}

// TestLower_TaskCallSplitsIntoStep exercises the central case: a local
// declaration initialized by a call to another task suspends the
// caller, producing one continuation step and an os_call_task
// rewrite.
func TestLower_TaskCallSplitsIntoStep(t *testing.T) {
	var syms intern.Table
	producer := taskFunc(&syms, []string{"task", "int"}, "producer",
		semi(ass(id(&syms, "ignored"), ast.NewInt(1, ast.Decimal, ast.Range{}))),
	)
	consumer := taskFunc(&syms, []string{"task", "void"}, "consumer",
		declStmt(list("", leaf("int")), declInit(id(&syms, "y"), call(id(&syms, "producer")))),
		semi(ass(id(&syms, "y"), id(&syms, "y"))),
	)
	root := list("", producer, consumer)

	l := NewLowerer(&syms)
	reg, out, err := l.Lower(root)
	require.NoError(t, err)

	producerTask, ok := reg.Find("producer")
	require.True(t, ok)
	consumerTask, ok := reg.Find("consumer")
	require.True(t, ok)
	assert.Equal(t, 0, producerTask.Index)
	assert.Equal(t, 1, consumerTask.Index)
	assert.True(t, consumerTask.VoidReturn)
	assert.Empty(t, consumerTask.ResultVar)

	require.Len(t, consumerTask.Steps(), 1)
	step := consumerTask.Steps()[0]
	assert.Equal(t, "consumer_step1", step.Name)

	got := unparse.Tree(out)
	assert.Contains(t, got, "os_call_task(0, 1, consumer_step1)")
	assert.NotContains(t, got, "y = producer()")

	stepOut := unparse.Tree(step.Statement)
	assert.Contains(t, stepOut, "consumer_var1_y = consumer_var1_y;")
}

// taskForward builds a forward declaration ("task void f();") so a
// test can register a task without giving it a body.
func taskForward(syms *intern.Table, typeWords []string, name string) *ast.Tree {
	typequal := make([]ast.Node, len(typeWords))
	for i, w := range typeWords {
		typequal[i] = leaf(w)
	}
	form := tr("new_style", "%*(%*)\n%*", id(syms, name), emptyParams(), tr("forward", ";\n"))
	return tr("declaration", "%*%*", list("", typequal...), form)
}

// TestLower_TaskCallStatementSplits exercises a task call used as a
// bare expression statement: the statement itself suspends the caller,
// producing a continuation step, with the statements after it moved
// into that step's body.
func TestLower_TaskCallStatementSplits(t *testing.T) {
	var syms intern.Table
	root := list("",
		taskForward(&syms, []string{"task", "void"}, "f"),
		taskFunc(&syms, []string{"task", "void"}, "t",
			declStmt(list("", leaf("int")), declInit(id(&syms, "x"), ast.NewInt(1, ast.Decimal, ast.Range{}))),
			semi(call(id(&syms, "f"))),
		),
	)

	l := NewLowerer(&syms)
	reg, out, err := l.Lower(root)
	require.NoError(t, err)

	tt, ok := reg.Find("t")
	require.True(t, ok)
	require.Len(t, tt.Steps(), 1)
	assert.Equal(t, "t_step1", tt.Steps()[0].Name)
	require.Len(t, tt.Globals(), 1)
	assert.Equal(t, "t_var1_x", tt.Globals()[0].Name)

	// The call statement itself stays in place; only the (here empty)
	// remainder of the block becomes the step's body.
	got := unparse.Tree(out)
	assert.Contains(t, got, "f();")
	assert.Contains(t, got, "int t_var1_x")
}

// TestLower_AssignedTaskCallStatementSplits is the "x = f();"
// expression-statement variant of the same suspension.
func TestLower_AssignedTaskCallStatementSplits(t *testing.T) {
	var syms intern.Table
	root := list("",
		taskForward(&syms, []string{"task", "int"}, "f"),
		taskFunc(&syms, []string{"task", "void"}, "t",
			semi(ass(id(&syms, "x"), call(id(&syms, "f")))),
			semi(id(&syms, "after")),
		),
	)

	l := NewLowerer(&syms)
	reg, _, err := l.Lower(root)
	require.NoError(t, err)

	tt, ok := reg.Find("t")
	require.True(t, ok)
	require.Len(t, tt.Steps(), 1)
	stepOut := unparse.Tree(tt.Steps()[0].Statement)
	assert.Contains(t, stepOut, "after;")
}

// TestLower_ParamsHoistLikeLocals checks that a task's parameters get
// the same global storage its locals do: a task's stack frame does not
// survive a suspension, so a parameter referenced after the task
// resumes needs a hoisted global too.
func TestLower_ParamsHoistLikeLocals(t *testing.T) {
	var syms intern.Table
	params := list(", ", tr("param", "%* %*", list("", leaf("int")), id(&syms, "limit")))
	body := tr("body", "{\n%>%*%<\n}\n\n", list("\n",
		semi(call(id(&syms, "use"), id(&syms, "limit")))))
	form := tr("new_style", "%*(%*)\n%*", id(&syms, "t"), params, body)
	root := list("", tr("declaration", "%*%*", list("", leaf("task"), leaf("void")), form))

	l := NewLowerer(&syms)
	reg, out, err := l.Lower(root)
	require.NoError(t, err)

	tt, ok := reg.Find("t")
	require.True(t, ok)
	require.Len(t, tt.Globals(), 1)
	assert.Equal(t, "t_var1_limit", tt.Globals()[0].Name)

	got := unparse.Tree(out)
	assert.Contains(t, got, "use(t_var1_limit);")
	assert.Contains(t, got, "int t_var1_limit;")
}

// TestLower_ForwardThenDefinitionRegistersOnce pins the registry
// behavior for a task that is forward-declared before its definition:
// one task, one index.
func TestLower_ForwardThenDefinitionRegistersOnce(t *testing.T) {
	var syms intern.Table
	root := list("",
		taskForward(&syms, []string{"task", "void"}, "t"),
		taskFunc(&syms, []string{"task", "void"}, "t",
			semi(ass(id(&syms, "x"), ast.NewInt(1, ast.Decimal, ast.Range{}))),
		),
	)

	l := NewLowerer(&syms)
	reg, _, err := l.Lower(root)
	require.NoError(t, err)
	require.Len(t, reg.Tasks(), 1)
	assert.Equal(t, 0, reg.Tasks()[0].Index)
}

// TestLower_AtMostReservesExtraStep checks the poll/at-most pair: the
// poll reserves one step and the at-most clause an additional one,
// rooted at the clause with the clause's body as its statement.
func TestLower_AtMostReservesExtraStep(t *testing.T) {
	var syms intern.Table
	atmost := tr("atmost", "\nat most (%*)\n%>%*%<\n",
		ast.NewInt(10, ast.Decimal, ast.Range{}),
		semi(id(&syms, "late")))
	worker := taskFunc(&syms, []string{"task", "void"}, "worker",
		tr("poll", "poll\n%>%*%<%*", semi(id(&syms, "tick")), atmost),
		semi(id(&syms, "after")),
	)
	root := list("", worker)

	l := NewLowerer(&syms)
	reg, _, err := l.Lower(root)
	require.NoError(t, err)

	wt, ok := reg.Find("worker")
	require.True(t, ok)
	require.Len(t, wt.Steps(), 2)
	assert.Equal(t, "worker_step1", wt.Steps()[0].Name)
	assert.Equal(t, "worker_step2", wt.Steps()[1].Name)

	assert.Contains(t, unparse.Tree(wt.Steps()[0].Statement), "after;")
	assert.Contains(t, unparse.Tree(wt.Steps()[1].Statement), "late;")
}

// TestLower_StepNumberingFollowsDiscoveryOrder pins the numbering
// rule: a suspension point reserves its step before its body is
// descended into, so a split nested inside a poll body gets a higher
// number than the poll's own step.
func TestLower_StepNumberingFollowsDiscoveryOrder(t *testing.T) {
	var syms intern.Table
	inner := declStmt(list("", leaf("int")),
		declInit(id(&syms, "y"), call(id(&syms, "producer"))))
	pollBody := tr("block", "{\n%>%*%<\n}", list("\n", inner))
	root := list("",
		taskForward(&syms, []string{"task", "int"}, "producer"),
		taskFunc(&syms, []string{"task", "void"}, "worker",
			tr("poll", "poll\n%>%*%<%*", pollBody),
			semi(id(&syms, "after")),
		),
	)

	l := NewLowerer(&syms)
	reg, out, err := l.Lower(root)
	require.NoError(t, err)

	wt, ok := reg.Find("worker")
	require.True(t, ok)
	require.Len(t, wt.Steps(), 2)
	assert.Equal(t, "worker_step1", wt.Steps()[0].Name)
	assert.Equal(t, "worker_step2", wt.Steps()[1].Name)

	// The nested declaration's os_call_task names the nested step, not
	// the poll's.
	got := unparse.Tree(out)
	assert.Contains(t, got, "os_call_task(0, 1, worker_step2)")
	assert.Contains(t, unparse.Tree(wt.Steps()[0].Statement), "after;")
}

// TestLower_PollSplitsList exercises a poll statement as a suspension
// point: the statements after it in the same block move into a
// continuation step rather than running inline.
func TestLower_PollSplitsList(t *testing.T) {
	var syms intern.Table
	worker := taskFunc(&syms, []string{"task", "void"}, "worker",
		tr("poll", "poll\n%>%*%<%*", semi(id(&syms, "tick"))),
		semi(id(&syms, "after")),
	)
	root := list("", worker)

	l := NewLowerer(&syms)
	reg, out, err := l.Lower(root)
	require.NoError(t, err)

	wt, ok := reg.Find("worker")
	require.True(t, ok)
	require.Len(t, wt.Steps(), 1)
	assert.Equal(t, "worker_step1", wt.Steps()[0].Name)

	got := unparse.Tree(out)
	assert.Contains(t, got, "poll")
	assert.NotContains(t, got, "after;")

	stepOut := unparse.Tree(wt.Steps()[0].Statement)
	assert.Contains(t, stepOut, "after;")
}
