package parser

import "github.com/tcpoc/tcpoc/ast"
import "github.com/tcpoc/tcpoc/grammar"

// parseSequence implements a sequence element: seed an accumulator
// via begin_seq_function, match the mandatory first occurrence, then
// either back-track through every possible split between "stop here"
// and "extend by one more" (BackTracking mode) or iterate greedily,
// stopping at the first failed extension (default mode). Either way,
// add_seq_function finally combines the accumulator with prev into
// the value threaded through the rest of the rule.
func (p *Parser) parseSequence(el *grammar.Element, rule *grammar.Rule, i int, prev ast.Node) (ast.Node, bool) {
	acc := prev
	if el.BeginSeqFn != nil {
		r, err := el.BeginSeqFn(prev)
		if err != nil {
			return nil, false
		}
		acc = r
	} else {
		acc = nil
	}

	first, ok := p.matchAndFold(el, acc)
	if !ok {
		return nil, false
	}
	acc = first

	if el.BackTracking {
		return p.parseSeqBacktracking(el, rule, i, prev, acc)
	}
	return p.parseSeqGreedy(el, rule, i, prev, acc)
}

// finishSeq folds the accumulator into prev via add_seq_function (or
// propagates acc unchanged) and continues parsing the rest of the
// rule from that value.
func (p *Parser) finishSeq(el *grammar.Element, rule *grammar.Rule, i int, prev, acc ast.Node) (ast.Node, bool) {
	combined := acc
	if el.AddSeqFn != nil {
		r, err := el.AddSeqFn(acc, prev, el.AddSeqArg)
		if err != nil {
			return nil, false
		}
		combined = r
	}
	return p.parseRuleFrom(rule, i+1, combined)
}

// parseSeqBacktracking exhaustively tries every split between
// stopping now and extending by one more item (with its chain
// element, if any), preferring the order avoid selects: remainder
// first when avoid is set, extension first otherwise.
func (p *Parser) parseSeqBacktracking(el *grammar.Element, rule *grammar.Rule, i int, prev, acc ast.Node) (ast.Node, bool) {
	tryRemainder := func() (ast.Node, bool) {
		snap := p.buf.Position()
		if r, ok := p.finishSeq(el, rule, i, prev, acc); ok {
			return r, true
		}
		p.buf.Seek(snap)
		return nil, false
	}
	tryExtend := func() (ast.Node, bool) {
		snap := p.buf.Position()
		next := acc
		if el.Chain != nil {
			chained, ok := p.matchAndFold(el.Chain, acc)
			if !ok {
				p.buf.Seek(snap)
				return nil, false
			}
			next = chained
		}
		item, ok := p.matchAndFold(el, next)
		if !ok {
			p.buf.Seek(snap)
			return nil, false
		}
		if r, ok := p.parseSeqBacktracking(el, rule, i, prev, item); ok {
			return r, true
		}
		p.buf.Seek(snap)
		return nil, false
	}

	if el.Avoid {
		if r, ok := tryRemainder(); ok {
			return r, true
		}
		return tryExtend()
	}
	if r, ok := tryExtend(); ok {
		return r, true
	}
	return tryRemainder()
}

// parseSeqGreedy extends the sequence as long as it can, unless avoid
// is set, in which case the rest of the rule is tried with the
// current accumulator before each extension (preferring fewer items).
func (p *Parser) parseSeqGreedy(el *grammar.Element, rule *grammar.Rule, i int, prev, acc ast.Node) (ast.Node, bool) {
	for {
		if el.Avoid {
			snap := p.buf.Position()
			if r, ok := p.finishSeq(el, rule, i, prev, acc); ok {
				return r, true
			}
			p.buf.Seek(snap)
		}

		snap := p.buf.Position()
		next := acc
		if el.Chain != nil {
			chained, ok := p.matchAndFold(el.Chain, acc)
			if !ok {
				p.buf.Seek(snap)
				break
			}
			next = chained
		}
		item, ok := p.matchAndFold(el, next)
		if !ok {
			p.buf.Seek(snap)
			break
		}
		acc = item
	}
	return p.finishSeq(el, rule, i, prev, acc)
}
