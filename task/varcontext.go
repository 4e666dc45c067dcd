package task

// varContext is a linked-list scope frame mapping a task-local
// variable's original name to the global name it was hoisted to,
// walked from innermost scope outward. A nil *varContext is the
// empty, top-of-task scope.
type varContext struct {
	name   string
	global string
	parent *varContext
}

// lookup walks the chain outward, returning the hoisted global name
// for name, or ("", false) if name was never bound in this task (a
// global, or some other identifier pass 1 leaves alone).
func (c *varContext) lookup(name string) (string, bool) {
	for v := c; v != nil; v = v.parent {
		if v.name == name {
			return v.global, true
		}
	}
	return "", false
}

// push extends the chain with one new binding.
func (c *varContext) push(name, global string) *varContext {
	return &varContext{name: name, global: global, parent: c}
}
