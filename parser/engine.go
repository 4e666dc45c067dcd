// Package parser implements the back-tracking, data-driven
// recursive-descent engine that interprets a *grammar.Grammar over a
// *buffer.Buffer, producing ast.Node results: memoization, the
// left-recursion fixed-point loop, and deepest-failure tracking for
// error reporting.
package parser

import (
	"fmt"

	"github.com/tcpoc/tcpoc/ast"
	"github.com/tcpoc/tcpoc/buffer"
	"github.com/tcpoc/tcpoc/grammar"
)

// Parser holds the state of a single parse session: the grammar being
// interpreted, the input buffer, the memoization cache, the
// non-terminal trace stack, and the deepest-failure tracker.
type Parser struct {
	g       *grammar.Grammar
	buf     *buffer.Buffer
	memo    *memoTable
	trace   []traceFrame
	tracker *failureTracker

	// Memoize toggles the packrat cache. Disabling it must not change
	// any parse outcome on a grammar without indirect left recursion
	// (see TestParser_MemoizationDoesNotChangeOutcome); it only
	// changes asymptotic cost.
	Memoize bool
}

// New returns a parser over input, ready to parse g starting at any
// of g's non-terminals.
func New(g *grammar.Grammar, input []byte) *Parser {
	return &Parser{
		g:       g,
		buf:     buffer.Load(input),
		memo:    newMemoTable(),
		tracker: newFailureTracker(),
		Memoize: true,
	}
}

// SetTabWidth configures the input buffer's tab-stop width.
func (p *Parser) SetTabWidth(w int) { p.buf.TabWidth = w }

// Parse runs non-terminal start against the whole input. It fails,
// even if start matches, when the match doesn't consume every byte —
// the transformer only ever runs over a fully-consumed parse.
func (p *Parser) Parse(start string) (ast.Node, error) {
	node, ok := p.parseNT(start)
	if ok && p.buf.AtEnd() {
		return node, nil
	}
	if ok {
		// matched but didn't reach EOF: record that as an expectation too
		p.tracker.record(p.buf.Position(), p.trace, "<EOF>")
	}
	return nil, p.tracker.toFailure()
}

// parseNT implements the core non-terminal algorithm: consult the
// cache, try normal rules in order, then iterate left-recursive rules
// to a fixed point.
func (p *Parser) parseNT(name string) (ast.Node, bool) {
	startPos := p.buf.Position()
	key := memoKey{offset: startPos.Offset, nt: name}

	if p.Memoize {
		if e, ok := p.memo.get(key); ok {
			switch e.state {
			case memoSucceeded:
				p.buf.Seek(e.next)
				return e.result, true
			case memoFailed:
				return nil, false
			}
		}
		// Pessimistic seed: mark this (pos, nt) failed before
		// descending, so an indirect left-recursive re-entry at the
		// same position fails instead of looping forever. The outer
		// (first) invocation overwrites this with the real outcome.
		p.memo.set(key, &memoEntry{state: memoFailed})
	}

	nt, ok := p.g.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("parser: grammar has no non-terminal %q", name))
	}

	p.trace = append(p.trace, traceFrame{Name: name, Pos: startPos})

	var result ast.Node
	succeeded := false
	for _, rule := range nt.Normal {
		if r, ok := p.parseRuleFrom(rule, 0, nil); ok {
			result = r
			succeeded = true
			break
		}
		p.buf.Seek(startPos)
	}

	if succeeded {
		for {
			extended := false
			for _, rule := range nt.LeftRecursive {
				snap := p.buf.Position()
				seed := result
				if rule.RecursiveStartFn != nil {
					s, ok := rule.RecursiveStartFn(nil, result)
					if !ok {
						p.buf.Seek(snap)
						continue
					}
					seed = s
				}
				if r, ok := p.parseRuleFrom(rule, 0, seed); ok {
					result = r
					extended = true
					break
				}
				p.buf.Seek(snap)
			}
			if !extended {
				break
			}
		}
	}

	p.trace = p.trace[:len(p.trace)-1]

	if succeeded {
		if p.Memoize {
			p.memo.set(key, &memoEntry{state: memoSucceeded, result: result, next: p.buf.Position()})
		}
		return result, true
	}

	p.buf.Seek(startPos)
	return nil, false
}

// parseGroup tries each inner rule of a grouping element in order,
// the same way parseNT tries a non-terminal's normal rules, but
// ungrouped (no memoization, no left recursion — groupings are
// anonymous and never self-referential).
func (p *Parser) parseGroup(rules []*grammar.Rule) (ast.Node, bool) {
	for _, r := range rules {
		start := p.buf.Position()
		if res, ok := p.parseRuleFrom(r, 0, nil); ok {
			return res, true
		}
		p.buf.Seek(start)
	}
	return nil, false
}

// parseRuleFrom parses rule.Elements[i:], threading prev through the
// chain. When the chain is exhausted, it invokes the rule's end
// callback (if any) or returns prev unchanged.
func (p *Parser) parseRuleFrom(rule *grammar.Rule, i int, prev ast.Node) (ast.Node, bool) {
	if i >= len(rule.Elements) {
		if rule.EndFn == nil {
			return prev, true
		}
		r, err := rule.EndFn(prev, rule.EndArg)
		if err != nil {
			return nil, false
		}
		return r, true
	}

	el := rule.Elements[i]
	snapshot := p.buf.Position()

	attemptMatch := func() (ast.Node, bool) {
		if el.Sequence {
			return p.parseSequence(el, rule, i, prev)
		}
		return p.parseSingle(el, rule, i, prev)
	}
	attemptSkip := func() (ast.Node, bool) {
		skipped, ok := p.applySkip(el, prev)
		if !ok {
			return nil, false
		}
		return p.parseRuleFrom(rule, i+1, skipped)
	}

	if !el.Optional {
		return attemptMatch()
	}
	if el.Avoid {
		if r, ok := attemptSkip(); ok {
			return r, true
		}
		p.buf.Seek(snapshot)
		return attemptMatch()
	}
	if r, ok := attemptMatch(); ok {
		return r, true
	}
	p.buf.Seek(snapshot)
	return attemptSkip()
}

// applySkip composes the result of skipping an optional element:
// add_skip_function if present, else add_function called with an
// empty element result, else prev propagated unchanged.
func (p *Parser) applySkip(el *grammar.Element, prev ast.Node) (ast.Node, bool) {
	if el.AddSkipFn != nil {
		r, err := el.AddSkipFn(prev, nil)
		if err != nil {
			return nil, false
		}
		return r, true
	}
	if el.AddFn != nil {
		r, err := el.AddFn(prev, nil)
		if err != nil {
			return nil, false
		}
		return r, true
	}
	return prev, true
}

func (p *Parser) parseSingle(el *grammar.Element, rule *grammar.Rule, i int, prev ast.Node) (ast.Node, bool) {
	combined, ok := p.matchAndFold(el, prev)
	if !ok {
		return nil, false
	}
	return p.parseRuleFrom(rule, i+1, combined)
}

// matchAndFold performs one physical match of el and folds it into
// threadVal via AddCharFn (character/character-set elements) or AddFn
// (every other kind), or propagates threadVal unchanged if no
// callback is registered. It then attaches source position via
// SetPosFn, if present.
func (p *Parser) matchAndFold(el *grammar.Element, threadVal ast.Node) (ast.Node, bool) {
	start := p.buf.Position()

	switch el.Kind {
	case grammar.ElemChar, grammar.ElemCharSet:
		c, ok := p.buf.Peek()
		matched := ok
		if matched {
			if el.Kind == grammar.ElemChar {
				matched = c == el.Char
			} else {
				matched = el.CharSet.Contains(c)
			}
		}
		if !matched {
			p.fail(el, start)
			return nil, false
		}
		p.buf.Advance()
		folded := threadVal
		if el.AddCharFn != nil {
			r, err := el.AddCharFn(threadVal, c, ast.Range{Start: start.Offset, End: p.buf.Position().Offset})
			if err != nil {
				p.buf.Seek(start)
				return nil, false
			}
			folded = r
		}
		return p.applySetPos(el, folded, start), true

	case grammar.ElemNonTerminal:
		child, ok := p.parseNT(el.NonTerminal)
		if !ok {
			p.fail(el, start)
			return nil, false
		}
		if el.CondFn != nil {
			pass, err := el.CondFn(child, el.CondArg)
			if err != nil || !pass {
				p.buf.Seek(start)
				p.fail(el, start)
				return nil, false
			}
		}
		return p.foldGeneric(el, threadVal, child, start)

	case grammar.ElemGroup:
		child, ok := p.parseGroup(el.Group.Rules)
		if !ok {
			p.fail(el, start)
			return nil, false
		}
		return p.foldGeneric(el, threadVal, child, start)

	case grammar.ElemEndOfInput:
		if !p.buf.AtEnd() {
			p.fail(el, start)
			return nil, false
		}
		return p.foldGeneric(el, threadVal, nil, start)

	case grammar.ElemTerminal:
		next, ok := el.Terminal(p.buf.Bytes(), start.Offset)
		if !ok || next == start.Offset {
			p.fail(el, start)
			return nil, false
		}
		for p.buf.Position().Offset < next {
			p.buf.Advance()
		}
		return p.foldGeneric(el, threadVal, nil, start)
	}

	panic("parser: unknown element kind")
}

func (p *Parser) foldGeneric(el *grammar.Element, threadVal, child ast.Node, start buffer.Position) (ast.Node, bool) {
	folded := threadVal
	if el.AddFn != nil {
		r, err := el.AddFn(threadVal, child)
		if err != nil {
			p.buf.Seek(start)
			return nil, false
		}
		folded = r
	}
	return p.applySetPos(el, folded, start), true
}

func (p *Parser) applySetPos(el *grammar.Element, v ast.Node, start buffer.Position) ast.Node {
	if el.SetPosFn == nil {
		return v
	}
	return el.SetPosFn(v, ast.Range{Start: start.Offset, End: p.buf.Position().Offset})
}

func (p *Parser) fail(el *grammar.Element, pos buffer.Position) {
	p.tracker.record(pos, p.trace, expectedLabel(el))
}
