package ast

import "fmt"

// CheckMode enables result-lifetime accounting: while on, every node
// built through a New* constructor is tracked, and ReleaseChecked
// records when its owner drops it. It is a debugging aid, off by
// default, and costs nothing on the hot path beyond one branch per
// constructor. Single-threaded, like the parse it instruments.
var CheckMode bool

var checkLive map[Node]bool
var checkViolations []string

func trackNode[T Node](n T) T {
	if CheckMode {
		checkLive[n] = false
	}
	return n
}

// ReleaseChecked records that the caller dropped its ownership of n.
// Releasing a node twice, or releasing one that was never created
// under the current CheckScope, is a violation the scope reports.
func ReleaseChecked(n Node) {
	if !CheckMode || n == nil {
		return
	}
	released, ok := checkLive[n]
	switch {
	case !ok:
		checkViolations = append(checkViolations, fmt.Sprintf("release of a result not created in this scope: %T", n))
	case released:
		checkViolations = append(checkViolations, fmt.Sprintf("double release: %T", n))
	default:
		checkLive[n] = true
	}
}

// CheckScope runs fn with CheckMode on and returns an error describing
// every lifetime violation ReleaseChecked observed during fn, or nil
// if none occurred.
func CheckScope(fn func()) error {
	CheckMode = true
	checkLive = map[Node]bool{}
	checkViolations = nil
	defer func() {
		CheckMode = false
		checkLive = nil
		checkViolations = nil
	}()

	fn()

	if len(checkViolations) > 0 {
		return fmt.Errorf("result accounting: %d violation(s), first: %s", len(checkViolations), checkViolations[0])
	}
	return nil
}
