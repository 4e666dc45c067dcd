package task

import (
	"fmt"

	"github.com/tcpoc/tcpoc/ast"
	"github.com/tcpoc/tcpoc/intern"
)

// Lowerer runs the two-pass task transformer over a parsed Root tree.
// Pass 1 renames and hoists task locals and splits bodies at
// suspension points; pass 2 rewrites the split declarations into
// kernel calls. Every rename builds a brand-new *ast.Ident through
// syms: Ident.Sym is a shared interned symbol, and mutating it in
// place would rename every other occurrence of that spelling in the
// file.
type Lowerer struct {
	syms *intern.Table
	reg  *Registry

	// splitStep maps a pass-1-rewritten, task-call-initialized
	// declaration node to the continuation step its suspension
	// produced, so pass 2 can resolve which step name an os_call_task
	// rewrite should reference without re-deriving it from traversal
	// order (poll/queue-for splits reserve steps too, so a shared
	// sequential counter would go out of sync with the declarations
	// that actually reference one).
	splitStep map[ast.Node]*Step
}

// NewLowerer returns a Lowerer that interns any new identifier it
// synthesizes (hoisted globals, step names) through syms.
func NewLowerer(syms *intern.Table) *Lowerer {
	return &Lowerer{syms: syms, reg: NewRegistry(), splitStep: map[ast.Node]*Step{}}
}

// Lower runs both passes over root (the list tree Root produces) and
// returns the populated registry alongside the rewritten declaration
// list: every task's body rewritten in place, plus one top-level
// declaration appended per hoisted local variable and per non-void
// task's result variable.
func (l *Lowerer) Lower(root *ast.Tree) (*Registry, *ast.Tree, error) {
	l.discoverTasks(root)

	out := make([]ast.Node, 0, len(root.Children))
	for _, decl := range root.Children {
		rewritten, err := l.lowerTopDecl(decl)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, rewritten)
	}

	for _, t := range l.reg.Tasks() {
		for _, g := range t.Globals() {
			declarator := ast.NewIdent(l.syms.Intern(g.Name), ast.Range{})
			out = append(out, mkGlobalDecl(g.TypeQual, declarator, g.Init))
		}
		if !t.VoidReturn {
			declarator := ast.NewIdent(l.syms.Intern(t.ResultVar), ast.Range{})
			out = append(out, mkGlobalDecl(t.ResultTypeQual, declarator, nil))
		}
	}

	rootOut := ast.NewTree(&ast.TreeParam{Kind: ast.ListKind, Format: root.Param.Format}, out, root.Range())
	return l.reg, rootOut, nil
}

// discoverTasks registers every task-qualified top-level function
// before any body is lowered, so a task's body can reference another
// task defined later in the file.
func (l *Lowerer) discoverTasks(root *ast.Tree) {
	for _, decl := range root.Children {
		name, typequal, _, ok := taskForm(decl)
		if !ok {
			continue
		}
		// A forward declaration followed by the definition names the
		// same task; the first sighting assigned its index.
		if _, seen := l.reg.Find(name); seen {
			continue
		}
		voidReturn := hasKind(typequal, "void")
		resultVar := ""
		var resultTypeQual ast.Node
		if !voidReturn {
			resultVar = name + "_result"
			resultTypeQual = filterKind(typequal, "task")
		}
		t := l.reg.Register(name, resultVar, voidReturn)
		t.ResultTypeQual = resultTypeQual
	}
}

// taskForm reports whether decl is a top-level task-qualified function
// declaration, returning its name, type qualifier list and new_style
// form node.
func taskForm(decl ast.Node) (name string, typequal *ast.Tree, form *ast.Tree, ok bool) {
	d, ok := decl.(*ast.Tree)
	if !ok || d.Param == nil || d.Param.Kind != "declaration" {
		return "", nil, nil, false
	}
	typequal, ok = d.Children[0].(*ast.Tree)
	if !ok || !hasKind(typequal, "task") {
		return "", nil, nil, false
	}
	form, ok = d.Children[1].(*ast.Tree)
	if !ok || form.Param == nil || form.Param.Kind != "new_style" {
		return "", nil, nil, false
	}
	name = identName(form.Children[0])
	return name, typequal, form, true
}

func hasKind(list *ast.Tree, kind string) bool {
	for _, c := range list.Children {
		if t, ok := c.(*ast.Tree); ok && t.Param != nil && t.Param.Kind == kind {
			return true
		}
	}
	return false
}

// filterKind returns a copy of list with every child of the given kind
// removed — used to strip the "task" qualifier off a function's type
// so the remainder can stand alone as its hoisted result variable's
// type.
func filterKind(list *ast.Tree, kind string) *ast.Tree {
	kept := make([]ast.Node, 0, len(list.Children))
	for _, c := range list.Children {
		if t, ok := c.(*ast.Tree); ok && t.Param != nil && t.Param.Kind == kind {
			continue
		}
		kept = append(kept, c)
	}
	return ast.NewTree(list.Param, kept, list.Range())
}

func identName(n ast.Node) string {
	if id, ok := n.(*ast.Ident); ok {
		return id.Name()
	}
	return ""
}

// declaratorName returns the bare identifier a declarator ultimately
// names, or "" for a pointer declarator — pass 1 only renames and
// hoists bare-identifier declarators; a pointer-qualified task local
// is left unrenamed. See DESIGN.md.
func declaratorName(n ast.Node) string {
	switch v := n.(type) {
	case *ast.Ident:
		return v.Name()
	case *ast.Tree:
		if v.Param != nil && v.Param.Kind == "pointdecl" && len(v.Children) == 1 {
			return declaratorName(v.Children[0])
		}
	}
	return ""
}

// lowerTopDecl lowers decl if it is a task's defined (not merely
// forward-declared) body; every other top-level declaration passes
// through unchanged.
func (l *Lowerer) lowerTopDecl(decl ast.Node) (ast.Node, error) {
	name, typequal, form, ok := taskForm(decl)
	if !ok {
		return decl, nil
	}
	body, ok := form.Children[2].(*ast.Tree)
	if !ok || body.Param == nil || body.Param.Kind != "body" {
		return decl, nil
	}
	t, ok := l.reg.Find(name)
	if !ok {
		return nil, fmt.Errorf("task %q not registered", name)
	}

	list, ok := body.Children[0].(*ast.Tree)
	if !ok {
		return nil, fmt.Errorf("task %q: malformed body", name)
	}

	vc := l.paramContext(t, form.Children[1])

	items, err := l.pass1List(t, vc, list.Children)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", name, err)
	}
	items, err = l.pass2List(t, items)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", name, err)
	}
	for _, step := range t.Steps() {
		rewritten, err := l.pass2Statement(t, step.Statement)
		if err != nil {
			return nil, fmt.Errorf("task %q: step %q: %w", name, step.Name, err)
		}
		step.Statement = rewritten
	}

	newList := ast.NewTree(list.Param, items, list.Range())
	newBody := ast.NewTree(body.Param, []ast.Node{newList}, body.Range())
	newForm := ast.NewTree(form.Param, []ast.Node{form.Children[0], form.Children[1], newBody}, form.Range())
	d := decl.(*ast.Tree)
	return ast.NewTree(d.Param, []ast.Node{typequal, newForm}, d.Range()), nil
}

// paramContext hoists every task parameter as if it were a declared
// local: a task's parameters live across suspensions the same way its
// locals do, so they need the same global storage.
func (l *Lowerer) paramContext(t *Task, params ast.Node) *varContext {
	var vc *varContext
	list, ok := params.(*ast.Tree)
	if !ok {
		return vc
	}
	for _, p := range list.Children {
		param, ok := p.(*ast.Tree)
		if !ok || param.Param == nil || param.Param.Kind != "param" {
			continue
		}
		name := declaratorName(param.Children[1])
		if name == "" {
			continue
		}
		global := t.nextLocalVar(name)
		t.addGlobal(global, param.Children[0], nil)
		vc = vc.push(name, global)
	}
	return vc
}

// pass1Expr renames every Ident in n that vc binds, rebuilding the
// spine of trees down to each rename rather than mutating shared
// nodes. Nodes with no renamed descendant are returned unchanged.
func (l *Lowerer) pass1Expr(vc *varContext, n ast.Node) ast.Node {
	switch v := n.(type) {
	case nil:
		return nil
	case *ast.Ident:
		if global, ok := vc.lookup(v.Name()); ok {
			return ast.NewIdent(l.syms.Intern(global), v.Range())
		}
		return v
	case *ast.Tree:
		if v.Param == nil {
			return v
		}
		children := make([]ast.Node, len(v.Children))
		changed := false
		for i, c := range v.Children {
			nc := l.pass1Expr(vc, c)
			children[i] = nc
			if nc != c {
				changed = true
			}
		}
		if !changed {
			return v
		}
		return ast.NewTree(v.Param, children, v.Range())
	default:
		return n
	}
}

// callTarget reports whether expr is a direct call to a registered
// task, and which one.
func (l *Lowerer) callTarget(expr ast.Node) (*Task, bool) {
	t, ok := expr.(*ast.Tree)
	if !ok || t.Param == nil || t.Param.Kind != "call" {
		return nil, false
	}
	callee, ok := t.Children[0].(*ast.Ident)
	if !ok {
		return nil, false
	}
	return l.reg.Find(callee.Name())
}

// pass1List rewrites a block's items, renaming identifiers through vc
// and splitting the list at the first suspension point it finds: a
// task-call-initialized declaration, a task-call expression statement,
// a queue-for statement or a poll statement. The items after a split
// become the suspension's continuation step's own body (itself
// recursively split), not a continuation of the current list.
func (l *Lowerer) pass1List(t *Task, vc *varContext, items []ast.Node) ([]ast.Node, error) {
	out := make([]ast.Node, 0, len(items))
	for i, item := range items {
		rewritten, nextVC, split, err := l.pass1Statement(t, vc, item)
		if err != nil {
			return nil, err
		}
		out = append(out, rewritten)
		vc = nextVC
		if split != nil {
			contStmts, err := l.pass1List(t, vc, items[i+1:])
			if err != nil {
				return nil, err
			}
			split.Statement = blockOf(contStmts)
			return out, nil
		}
	}
	return out, nil
}

func blockOf(items []ast.Node) *ast.Tree {
	list := ast.NewTree(&ast.TreeParam{Kind: ast.ListKind, Format: "\n"}, items, ast.Range{})
	return ast.NewTree(&ast.TreeParam{Kind: "block", Format: "{\n%>%*%<\n}"}, []ast.Node{list}, ast.Range{})
}

// pass1Statement rewrites one statement, returning the rewritten node,
// the variable context in effect after it (widened by any declaration
// or timer it introduced), and — when the statement is itself a
// suspension point — the continuation step reserved for it, which the
// enclosing pass1List fills with the remainder of its item list. A
// step is reserved at the suspension point itself, before any
// recursion into the statement's own body, so step numbers follow the
// order suspension points are encountered walking down the task body.
func (l *Lowerer) pass1Statement(t *Task, vc *varContext, stmt ast.Node) (ast.Node, *varContext, *Step, error) {
	tr, ok := stmt.(*ast.Tree)
	if !ok || tr.Param == nil {
		return stmt, vc, nil, nil
	}
	switch tr.Param.Kind {
	case "declaration":
		return l.pass1Declaration(t, vc, tr)

	case "block":
		list, ok := tr.Children[0].(*ast.Tree)
		if !ok {
			return stmt, vc, nil, nil
		}
		items, err := l.pass1List(t, vc, list.Children)
		if err != nil {
			return nil, vc, nil, err
		}
		newList := ast.NewTree(list.Param, items, list.Range())
		return ast.NewTree(tr.Param, []ast.Node{newList}, tr.Range()), vc, nil, nil

	case "if":
		children := make([]ast.Node, len(tr.Children))
		children[0] = l.pass1Expr(vc, tr.Children[0])
		for i := 1; i < len(tr.Children); i++ {
			nc, _, _, err := l.pass1Statement(t, vc, tr.Children[i])
			if err != nil {
				return nil, vc, nil, err
			}
			children[i] = nc
		}
		return ast.NewTree(tr.Param, children, tr.Range()), vc, nil, nil

	case "else":
		body, _, _, err := l.pass1Statement(t, vc, tr.Children[0])
		if err != nil {
			return nil, vc, nil, err
		}
		return ast.NewTree(tr.Param, []ast.Node{body}, tr.Range()), vc, nil, nil

	case "while":
		cond := l.pass1Expr(vc, tr.Children[0])
		body, _, _, err := l.pass1Statement(t, vc, tr.Children[1])
		if err != nil {
			return nil, vc, nil, err
		}
		return ast.NewTree(tr.Param, []ast.Node{cond, body}, tr.Range()), vc, nil, nil

	case "queuefor":
		step := t.reserveStep()
		queueIdent := l.pass1Expr(vc, tr.Children[0])
		body, _, _, err := l.pass1Statement(t, vc, tr.Children[1])
		if err != nil {
			return nil, vc, nil, err
		}
		return ast.NewTree(tr.Param, []ast.Node{queueIdent, body}, tr.Range()), vc, step, nil

	case "poll":
		step := t.reserveStep()
		children := make([]ast.Node, len(tr.Children))
		body, _, _, err := l.pass1Statement(t, vc, tr.Children[0])
		if err != nil {
			return nil, vc, nil, err
		}
		children[0] = body
		if len(tr.Children) > 1 {
			am, err := l.pass1AtMost(t, vc, tr.Children[1])
			if err != nil {
				return nil, vc, nil, err
			}
			children[1] = am
		}
		return ast.NewTree(tr.Param, children, tr.Range()), vc, step, nil

	case "semi":
		children := make([]ast.Node, len(tr.Children))
		for i, c := range tr.Children {
			children[i] = l.pass1Expr(vc, c)
		}
		var step *Step
		if len(children) == 1 && l.isSuspendingExpr(children[0]) {
			step = t.reserveStep()
		}
		return ast.NewTree(tr.Param, children, tr.Range()), vc, step, nil

	case "ret":
		if len(tr.Children) == 0 {
			return tr, vc, nil, nil
		}
		return ast.NewTree(tr.Param, []ast.Node{l.pass1Expr(vc, tr.Children[0])}, tr.Range()), vc, nil, nil

	case "timer":
		// Renamed like a local declaration, but no hoisted global is
		// recorded for it: the timer statement itself stays in place
		// under the new name. No suspension point of its own; a timer
		// schedules, it doesn't block.
		name := identName(tr.Children[0])
		global := t.nextLocalVar(name)
		newVC := vc.push(name, global)
		newIdent := ast.NewIdent(l.syms.Intern(global), tr.Children[0].Range())
		return ast.NewTree(tr.Param, []ast.Node{newIdent}, tr.Range()), newVC, nil, nil

	case "every":
		// Never a suspension point; its expression is renamed through
		// the current context like any other.
		expr := l.pass1Expr(vc, tr.Children[0])
		ident := l.pass1Expr(vc, tr.Children[1])
		return ast.NewTree(tr.Param, []ast.Node{expr, ident}, tr.Range()), vc, nil, nil

	default:
		return stmt, vc, nil, nil
	}
}

// pass1AtMost handles a poll statement's optional at-most clause: the
// clause is a suspension point of its own, reserving an additional
// step (rooted at the clause, with the clause's body as the step's
// statement) after the poll's, per the original's pass-1 ordering. A
// nil hole (no clause matched) passes through unchanged.
func (l *Lowerer) pass1AtMost(t *Task, vc *varContext, n ast.Node) (ast.Node, error) {
	tr, ok := n.(*ast.Tree)
	if !ok || tr.Param == nil || tr.Param.Kind != "atmost" {
		return n, nil
	}
	step := t.reserveStep()
	cond := l.pass1Expr(vc, tr.Children[0])
	body, _, _, err := l.pass1Statement(t, vc, tr.Children[1])
	if err != nil {
		return nil, err
	}
	step.Statement = blockOf([]ast.Node{body})
	return ast.NewTree(tr.Param, []ast.Node{cond, body}, tr.Range()), nil
}

// isSuspendingExpr reports whether a statement-level expression
// suspends the task: a direct task call, or an assignment whose
// right-hand side is one.
func (l *Lowerer) isSuspendingExpr(expr ast.Node) bool {
	if _, ok := l.callTarget(expr); ok {
		return true
	}
	if a, ok := expr.(*ast.Tree); ok && a.Param != nil && a.Param.Kind == "ass" && len(a.Children) == 2 {
		if _, ok := l.callTarget(a.Children[1]); ok {
			return true
		}
	}
	return false
}

// pass1Declaration renames and, for a bare-identifier declarator,
// hoists the declared variable to a top-level global. A
// task-call-initialized declaration is itself the suspension point:
// its declarator becomes the hoisted storage a later continuation
// step reads the callee's result from, with no duplicated initializer
// (the call runs once, asynchronously, not at program start).
func (l *Lowerer) pass1Declaration(t *Task, vc *varContext, tr *ast.Tree) (ast.Node, *varContext, *Step, error) {
	declTree, ok := tr.Children[1].(*ast.Tree)
	if !ok {
		return tr, vc, nil, nil
	}
	declInit, ok := declTree.Children[0].(*ast.Tree)
	if !ok {
		return tr, vc, nil, nil
	}
	declarator := declInit.Children[0]
	var init ast.Node
	if len(declInit.Children) > 1 {
		init = declInit.Children[1]
	}

	name := declaratorName(declarator)
	if name == "" {
		// Pointer declarator: rename/hoist limitation (see
		// declaratorName and DESIGN.md). Still rewrite a task-call
		// initializer's identifier references and still treat it as a
		// split point so execution order is preserved.
		var step *Step
		var newInit ast.Node
		if init != nil {
			newInit = l.pass1Expr(vc, init)
			if _, ok := l.callTarget(init); ok {
				step = t.reserveStep()
			}
		}
		newDeclInit := rebuildDeclInit(declInit, declarator, newInit)
		newDecl := ast.NewTree(declTree.Param, []ast.Node{newDeclInit}, declTree.Range())
		newTop := ast.NewTree(tr.Param, []ast.Node{tr.Children[0], newDecl}, tr.Range())
		if step != nil {
			l.splitStep[newTop] = step
		}
		return newTop, vc, step, nil
	}

	global := t.nextLocalVar(name)
	newVC := vc.push(name, global)
	newDeclarator := ast.NewIdent(l.syms.Intern(global), declarator.Range())

	var newInit ast.Node
	var step *Step
	if init != nil {
		newInit = l.pass1Expr(vc, init)
		if _, ok := l.callTarget(init); ok {
			step = t.reserveStep()
		}
	}

	if step != nil {
		t.addGlobal(global, tr.Children[0], nil)
	} else {
		t.addGlobal(global, tr.Children[0], newInit)
	}

	newDeclInit := rebuildDeclInit(declInit, newDeclarator, newInit)
	newDecl := ast.NewTree(declTree.Param, []ast.Node{newDeclInit}, declTree.Range())
	newTop := ast.NewTree(tr.Param, []ast.Node{tr.Children[0], newDecl}, tr.Range())
	if step != nil {
		l.splitStep[newTop] = step
	}
	return newTop, newVC, step, nil
}

// rebuildDeclInit reconstructs a decl_init node around a (possibly
// renamed) declarator and initializer, choosing the one-slot or
// two-slot format to match — matching parser/cgrammar's own
// finishDeclInit/finishDeclInitNoInit split, since reusing orig's
// format verbatim would produce a slot-count mismatch whenever pass 1
// adds or removes an initializer.
func rebuildDeclInit(orig *ast.Tree, declarator, init ast.Node) *ast.Tree {
	kind := "decl_init"
	if orig != nil && orig.Param != nil {
		kind = orig.Param.Kind
	}
	rg := ast.Range{}
	if orig != nil {
		rg = orig.Range()
	}
	if init == nil {
		return ast.NewTree(&ast.TreeParam{Kind: kind, Format: "%*"}, []ast.Node{declarator}, rg)
	}
	return ast.NewTree(&ast.TreeParam{Kind: kind, Format: "%* = %*"}, []ast.Node{declarator, init}, rg)
}

// pass2List rewrites a list of pass-1-renamed block items: a
// declaration with a task-call initializer becomes an os_call_task
// expression statement invoking the continuation step pass 1 split
// off at that point; a declaration with an ordinary initializer
// becomes a plain assignment, since its storage already moved to a
// hoisted global; a declaration with no initializer is dropped
// entirely. Everything else recurses so nested declarations still get
// rewritten — pass 2 matches pass 1's split points exactly and invents
// no further control-flow rewrites.
func (l *Lowerer) pass2List(t *Task, items []ast.Node) ([]ast.Node, error) {
	out := make([]ast.Node, 0, len(items))
	for _, item := range items {
		rewritten, err := l.pass2Statement(t, item)
		if err != nil {
			return nil, err
		}
		if rewritten != nil {
			out = append(out, rewritten)
		}
	}
	return out, nil
}

func (l *Lowerer) pass2Statement(t *Task, stmt ast.Node) (ast.Node, error) {
	tr, ok := stmt.(*ast.Tree)
	if !ok || tr.Param == nil {
		return stmt, nil
	}
	switch tr.Param.Kind {
	case "declaration":
		return l.pass2Declaration(t, tr)

	case "block":
		list, ok := tr.Children[0].(*ast.Tree)
		if !ok {
			return stmt, nil
		}
		items, err := l.pass2List(t, list.Children)
		if err != nil {
			return nil, err
		}
		newList := ast.NewTree(list.Param, items, list.Range())
		return ast.NewTree(tr.Param, []ast.Node{newList}, tr.Range()), nil

	case "if":
		children := append([]ast.Node(nil), tr.Children...)
		for i := 1; i < len(children); i++ {
			rw, err := l.pass2Statement(t, children[i])
			if err != nil {
				return nil, err
			}
			children[i] = rw
		}
		return ast.NewTree(tr.Param, children, tr.Range()), nil

	case "else":
		body, err := l.pass2Statement(t, tr.Children[0])
		if err != nil {
			return nil, err
		}
		return ast.NewTree(tr.Param, []ast.Node{body}, tr.Range()), nil

	case "while":
		body, err := l.pass2Statement(t, tr.Children[1])
		if err != nil {
			return nil, err
		}
		return ast.NewTree(tr.Param, []ast.Node{tr.Children[0], body}, tr.Range()), nil

	case "queuefor":
		body, err := l.pass2Statement(t, tr.Children[1])
		if err != nil {
			return nil, err
		}
		return ast.NewTree(tr.Param, []ast.Node{tr.Children[0], body}, tr.Range()), nil

	case "poll":
		children := append([]ast.Node(nil), tr.Children...)
		for i, c := range children {
			rw, err := l.pass2Statement(t, c)
			if err != nil {
				return nil, err
			}
			children[i] = rw
		}
		return ast.NewTree(tr.Param, children, tr.Range()), nil

	case "atmost":
		body, err := l.pass2Statement(t, tr.Children[1])
		if err != nil {
			return nil, err
		}
		return ast.NewTree(tr.Param, []ast.Node{tr.Children[0], body}, tr.Range()), nil

	default:
		return stmt, nil
	}
}

// pass2Declaration is the one place pass 2 actually rewrites a
// statement rather than just recursing through it.
func (l *Lowerer) pass2Declaration(t *Task, tr *ast.Tree) (ast.Node, error) {
	declTree, ok := tr.Children[1].(*ast.Tree)
	if !ok {
		return tr, nil
	}
	declInit, ok := declTree.Children[0].(*ast.Tree)
	if !ok {
		return tr, nil
	}
	declarator := declInit.Children[0]
	var init ast.Node
	if len(declInit.Children) > 1 {
		init = declInit.Children[1]
	}
	if init == nil {
		return nil, nil
	}

	if callee, ok := l.callTarget(init); ok {
		step, ok := l.splitStep[tr]
		if !ok {
			return nil, fmt.Errorf("no continuation step recorded for task-call declaration")
		}
		osCall := l.mkOSCallTask(callee, t, step)
		return ast.NewTree(&ast.TreeParam{Kind: "semi", Format: "%*;"}, []ast.Node{osCall}, tr.Range()), nil
	}

	assign := ast.NewTree(&ast.TreeParam{Kind: "ass", Format: "%* = %*"}, []ast.Node{declarator, init}, tr.Range())
	return ast.NewTree(&ast.TreeParam{Kind: "semi", Format: "%*;"}, []ast.Node{assign}, tr.Range()), nil
}

// mkOSCallTask builds the os_call_task(calleeIndex, callerIndex,
// stepName) expression: exactly those three arguments, not the
// callee's original call arguments — the kernel this references is
// not part of this repository and defines no argument-passing
// convention for a task invocation.
func (l *Lowerer) mkOSCallTask(callee, caller *Task, step *Step) *ast.Tree {
	calleeIdx := ast.NewInt(int64(callee.Index), ast.Decimal, ast.Range{})
	callerIdx := ast.NewInt(int64(caller.Index), ast.Decimal, ast.Range{})
	stepIdent := ast.NewIdent(l.syms.Intern(step.Name), ast.Range{})
	argList := ast.NewTree(&ast.TreeParam{Kind: ast.ListKind, Format: ", "}, []ast.Node{calleeIdx, callerIdx, stepIdent}, ast.Range{})
	callee2 := ast.NewIdent(l.syms.Intern("os_call_task"), ast.Range{})
	return ast.NewTree(&ast.TreeParam{Kind: "call", Format: "%*(%*)"}, []ast.Node{callee2, argList}, ast.Range{})
}

// mkGlobalDecl builds a top-level "declaration" tree in the same shape
// parser/cgrammar's Decl/DeclInit rules produce, so it unparses
// indistinguishably from a hand-written global declaration.
func mkGlobalDecl(typequal, declarator, init ast.Node) *ast.Tree {
	declInit := rebuildDeclInit(nil, declarator, init)
	decl := ast.NewTree(&ast.TreeParam{Kind: "decl", Format: "%*;\n"}, []ast.Node{declInit}, ast.Range{})
	return ast.NewTree(&ast.TreeParam{Kind: "declaration", Format: "%*%*"}, []ast.Node{typequal, decl}, ast.Range{})
}

// StepFunctions returns, for every task in the registry, a zero-
// argument function definition per continuation step — the
// "<task>_step<N>" functions the kernel resumes a task through —
// built from the step's own pass-2-rewritten body. A caller appends
// these to the program's top-level declarations after the tasks
// themselves.
func (l *Lowerer) StepFunctions(voidTypeQual ast.Node) []ast.Node {
	var out []ast.Node
	for _, t := range l.reg.Tasks() {
		for _, step := range t.Steps() {
			nameIdent := ast.NewIdent(l.syms.Intern(step.Name), ast.Range{})
			fn := ast.NewTree(&ast.TreeParam{Kind: "new_style", Format: "%*(%*)\n%*"}, []ast.Node{
				nameIdent,
				ast.NewTree(&ast.TreeParam{Kind: ast.ListKind, Format: ", "}, nil, ast.Range{}),
				wrapStepBody(step),
			}, ast.Range{})
			out = append(out, ast.NewTree(&ast.TreeParam{Kind: "declaration", Format: "%*%*"}, []ast.Node{voidTypeQual, fn}, ast.Range{}))
		}
	}
	return out
}

func wrapStepBody(step *Step) ast.Node {
	block, ok := step.Statement.(*ast.Tree)
	if !ok {
		return blockAsBody(nil)
	}
	list, ok := block.Children[0].(*ast.Tree)
	if !ok {
		return blockAsBody(nil)
	}
	return blockAsBody(list.Children)
}

func blockAsBody(items []ast.Node) *ast.Tree {
	list := ast.NewTree(&ast.TreeParam{Kind: ast.ListKind, Format: "\n"}, items, ast.Range{})
	return ast.NewTree(&ast.TreeParam{Kind: "body", Format: "{\n%>%*%<\n}\n\n"}, []ast.Node{list}, ast.Range{})
}
