// Package unparse renders an ast.Node back to source text: a
// pre-order walk that interprets each tree's format template
// character by character, with the walk state held on a Printer value
// rather than package-level globals so concurrent unparses don't
// interfere.
//
// Directives: %* emits the next child and advances a cursor; %% emits
// a literal percent; %< and %> decrement/increment the indent level;
// a newline in the template is deferred until the next non-newline
// character, at which point it is flushed together with indent
// spaces. Adjacent alphanumeric runs across a %* boundary get a
// single space inserted so tokens stay disjoint. A template that asks
// for more children than a tree has, or leaves children unconsumed,
// is surfaced inline as an (ERR…) marker rather than aborting the
// walk: a broken template is a grammar bug worth seeing in the
// output, not a reason to stop rendering the rest of the program.
package unparse

import (
	"strconv"
	"strings"

	"github.com/tcpoc/tcpoc/ast"
)

// DefaultIndentWidth is the number of spaces one indent level renders
// as when a Printer isn't given an explicit width.
const DefaultIndentWidth = 4

// Printer holds the running state a template walk threads through
// recursive calls: indent depth, whether a deferred newline is
// pending, and whether the next token needs a separating space.
type Printer struct {
	out         strings.Builder
	indentWidth int
	indent      int
	startLine   bool
	needSp      bool
}

// New returns a Printer using DefaultIndentWidth.
func New() *Printer { return &Printer{indentWidth: DefaultIndentWidth} }

// NewIndent returns a Printer using the given number of spaces per
// indent level (the -tab-width flag's destination).
func NewIndent(width int) *Printer {
	if width <= 0 {
		width = DefaultIndentWidth
	}
	return &Printer{indentWidth: width}
}

// Tree unparses n with the default indent width.
func Tree(n ast.Node) string {
	p := New()
	p.Write(n)
	return p.String()
}

// TreeIndent unparses n with the given indent width.
func TreeIndent(n ast.Node, width int) string {
	p := NewIndent(width)
	p.Write(n)
	return p.String()
}

// String returns everything written so far.
func (p *Printer) String() string { return p.out.String() }

// Write walks n, appending its rendering to the Printer's buffer. Nil
// is silently ignored, matching a grammar slot that never matched
// anything (e.g. an if statement's absent else branch).
func (p *Printer) Write(n ast.Node) {
	if n == nil {
		return
	}
	t, ok := n.(*ast.Tree)
	if !ok {
		p.writeLeaf(n)
		return
	}
	if t.Param == nil {
		p.out.WriteString("[tree_param NULL]")
		return
	}
	if t.IsList() {
		p.writeList(t)
		return
	}
	p.writeFormatted(t)
}

// writeList renders a list-kind tree: each child in order, separated
// by the tree's format string verbatim (no directive interpretation,
// no indent bookkeeping) whenever it is non-empty.
func (p *Printer) writeList(t *ast.Tree) {
	sep := t.Param.Format
	for i, c := range t.Children {
		if i > 0 && sep != "" {
			p.out.WriteString(sep)
			p.needSp = false
		}
		p.Write(c)
	}
}

// writeFormatted renders an ordinary tree by interpreting its format
// template one byte at a time.
func (p *Printer) writeFormatted(t *ast.Tree) {
	format := t.Param.Format
	child := 0
	isAlnum := false

	for k := 0; k < len(format); k++ {
		c := format[k]
		if c == '%' {
			if k+1 >= len(format) {
				p.out.WriteString("[ERR3:]")
				break
			}
			switch format[k+1] {
			case '*':
				if isAlnum {
					p.needSp = true
					isAlnum = false
				}
				if child < len(t.Children) {
					p.Write(t.Children[child])
					child++
				} else {
					p.out.WriteString("(ERR1:" + t.Param.Kind + " " + format + ")")
				}
			case '%':
				p.out.WriteByte('%')
			case '<':
				p.indent--
			case '>':
				p.indent++
			default:
				p.out.WriteString("[ERR3:" + string(format[k+1]) + "]")
			}
			k++
			continue
		}
		if c == '\n' {
			if p.startLine {
				p.out.WriteByte('\n')
			}
			p.startLine = true
			p.needSp = false
			isAlnum = false
			continue
		}
		p.flushNewline()
		isAlnum = isAlnumByte(c)
		if p.needSp && isAlnum {
			p.out.WriteByte(' ')
		}
		p.out.WriteByte(c)
		p.needSp = false
	}

	if isAlnum {
		p.needSp = true
	}
	if child < len(t.Children) {
		p.out.WriteString("(ERR2:" + t.Param.Kind + " " + format + ")")
	}
}

// flushNewline emits a pending deferred newline plus indent spaces.
// A no-op when no newline is pending, so it is safe to call before
// every literal character.
func (p *Printer) flushNewline() {
	if !p.startLine {
		return
	}
	p.out.WriteByte('\n')
	if depth := p.indent; depth > 0 {
		p.out.WriteString(strings.Repeat(" ", depth*p.indentWidth))
	}
	p.startLine = false
	p.needSp = false
}

// writeLeaf renders an Ident, Char, String or Int node's literal
// text, inserting a separating space first if the preceding token
// demanded one.
func (p *Printer) writeLeaf(n ast.Node) {
	p.flushNewline()
	if p.needSp {
		p.out.WriteByte(' ')
	}
	switch v := n.(type) {
	case *ast.Ident:
		p.out.WriteString(v.Name())
	case *ast.Char:
		p.out.WriteByte('\'')
		writeEscaped(&p.out, v.Value, '\'')
		p.out.WriteByte('\'')
	case *ast.String:
		p.out.WriteByte('"')
		for _, b := range v.Value {
			writeEscaped(&p.out, b, '"')
		}
		p.out.WriteByte('"')
	case *ast.Int:
		// Printed in decimal regardless of the literal's original
		// base: unparse+reparse only has to preserve tree shape, and
		// rendering in the base it was read in isn't needed for
		// that.
		p.out.WriteString(strconv.FormatInt(v.Value, 10))
	default:
		p.out.WriteString("(ERR:unknown-leaf)")
	}
	p.needSp = true
}

// writeEscaped renders one literal byte the way a char or string
// literal token would have spelled it, escaping the delimiter, NUL,
// newline, carriage return and backslash.
func writeEscaped(out *strings.Builder, b byte, delim byte) {
	switch {
	case b == 0:
		out.WriteString(`\0`)
	case b == delim:
		out.WriteByte('\\')
		out.WriteByte(delim)
	case b == '\n':
		out.WriteString(`\n`)
	case b == '\r':
		out.WriteString(`\r`)
	case b == '\\':
		out.WriteString(`\\`)
	default:
		out.WriteByte(b)
	}
}

func isAlnumByte(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') || c == '_'
}
