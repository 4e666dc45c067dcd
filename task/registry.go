// Package task implements the two-pass task-lowering transformer: it
// discovers every task-qualified function in a parsed program, splits
// each task's body into continuation steps at its suspension points,
// hoists task-local variables into top-level globals, and rewrites
// task-call declarations into calls against the companion cooperative
// kernel. The kernel itself lives elsewhere — this package only
// produces the rewritten AST and the task/step bookkeeping a caller
// unparses.
package task

import (
	"fmt"

	"github.com/tcpoc/tcpoc/ast"
)

// Registry tracks every task discovered across a program's top-level
// declarations: its assigned index, its hoisted result variable, and
// the continuation steps its body was split into.
type Registry struct {
	tasks  []*Task
	byName map[string]*Task
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry { return &Registry{byName: map[string]*Task{}} }

// Find looks up a task by its source name.
func (r *Registry) Find(name string) (*Task, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Register adds a newly discovered task, assigning it the next index:
// discovery order, starting at zero — the same numbering the kernel's
// task table uses.
func (r *Registry) Register(name, resultVar string, voidReturn bool) *Task {
	t := &Task{Name: name, Index: len(r.tasks), ResultVar: resultVar, VoidReturn: voidReturn}
	r.tasks = append(r.tasks, t)
	r.byName[name] = t
	return t
}

// Tasks returns every registered task in discovery order.
func (r *Registry) Tasks() []*Task { return r.tasks }

// Task is one task-qualified function: its identity in the registry
// plus the continuation steps pass 1 split its body into.
type Task struct {
	Name           string
	Index          int
	ResultVar      string
	ResultTypeQual ast.Node
	VoidReturn     bool

	nrLocalVars int
	steps       []*Step
	globals     []*HoistedGlobal
}

// Step is one continuation step a task body was split at: a
// zero-argument function name plus the statement it is rooted at. The
// path from that statement back to the task body root is implicit in
// how pass 1 reaches the split point, recursing down exactly that
// path.
type Step struct {
	Name      string
	Statement ast.Node
}

// HoistedGlobal is one task-local variable promoted to a top-level
// declaration. Its initializer, if any, is duplicated rather than
// moved: the global's own top-level declaration gives it a value once
// at program start, and the task body still reassigns it every time
// the original declaration statement runs, since the task may be
// invoked more than once over its lifetime.
type HoistedGlobal struct {
	Name     string
	TypeQual ast.Node
	Init     ast.Node
}

// reserveStep assigns the next continuation step its
// "<task>_step<N>" name before its body is known — pass 1
// reserves a step as soon as it finds the split point, then fills in
// Statement once the continuation itself has been lowered, so nested
// splits discovered while building that continuation are numbered
// after it.
func (t *Task) reserveStep() *Step {
	s := &Step{Name: fmt.Sprintf("%s_step%d", t.Name, len(t.steps)+1)}
	t.steps = append(t.steps, s)
	return s
}

// Steps returns every continuation step in the order pass 1 reserved
// them.
func (t *Task) Steps() []*Step { return t.steps }

// addGlobal records a task-local variable as hoisted to a top-level
// declaration.
func (t *Task) addGlobal(name string, typequal, init ast.Node) {
	t.globals = append(t.globals, &HoistedGlobal{Name: name, TypeQual: typequal, Init: init})
}

// Globals returns every local variable this task hoisted to a
// top-level declaration, in hoist order.
func (t *Task) Globals() []*HoistedGlobal { return t.globals }

// nextLocalVar mints the next hoisted global name for a local declared
// inside this task's body: "<task>_var<N>_<orig>".
func (t *Task) nextLocalVar(orig string) string {
	t.nrLocalVars++
	return fmt.Sprintf("%s_var%d_%s", t.Name, t.nrLocalVars, orig)
}
