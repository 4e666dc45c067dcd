package cgrammar

import (
	"github.com/tcpoc/tcpoc/ast"
	"github.com/tcpoc/tcpoc/grammar"
	"github.com/tcpoc/tcpoc/intern"
)

// buildLexical declares Spacing (whitespace plus line/block comments)
// and the four literal token rules: Ident, Int, Char, String.
func buildLexical(b *grammar.Builder, syms *intern.Table) {
	buildSpacing(b)
	buildIdent(b, syms)
	buildInt(b)
	buildCharLit(b)
	buildStringLit(b)
}

func buildSpacing(b *grammar.Builder) {
	b.NonTerminal("LineComment").
		Rule().
		Terminal(symTerminal("//")).
		CharSet(notNewline).Seq().Optional().
		End(relabel("_comment"), nil)

	// The any-char body is Avoid: the engine tries the closing "*/"
	// before consuming one more character, so the comment ends at the
	// first terminator instead of the last.
	b.NonTerminal("BlockComment").
		Rule().
		Terminal(symTerminal("/*")).
		CharSet(anyByteSet).Seq().Optional().AvoidMod().
		Terminal(symTerminal("*/")).
		End(relabel("_comment"), nil)

	b.NonTerminal("Spacing").
		Rule().
		Group().
		Rule().CharSet(wsChars).
		Rule().Ref("LineComment").
		Rule().Ref("BlockComment").
		CloseGroup().Seq().Optional()
}

func buildIdent(b *grammar.Builder, syms *intern.Table) {
	b.NonTerminal("Ident").
		Rule().
		CharSet(identStart).AddChar(appendRawChar).
		CharSet(identContinue).Seq().Optional().BeginSeq(seedFromPrev).AddChar(appendRawChar).
		Ref("Spacing").Optional().
		End(finishIdent, syms)
}

func finishIdent(prev ast.Node, datum any) (ast.Node, error) {
	name := string(rawBytes(prev))
	syms := datum.(*intern.Table)
	sym := syms.Intern(name)
	return ast.NewIdent(sym, prev.Range()), nil
}

// notKeyword rejects an Ident result whose spelling was registered as
// a keyword elsewhere in the grammar, so a bare keyword never parses
// as a plain identifier reference even where PEG rule ordering alone
// wouldn't rule it out.
func notKeyword(n ast.Node, _ any) (bool, error) {
	id := n.(*ast.Ident)
	return !id.IsKeyword(), nil
}

func buildInt(b *grammar.Builder) {
	b.NonTerminal("Int").
		Rule().
		Char('0').
		CharSet(hexPrefixSet).
		CharSet(hexDigits).Seq().AddChar(appendRawChar).
		Ref("Spacing").Optional().
		End(finishHexInt, nil)

	b.NonTerminal("Int").
		Rule().
		CharSet(decimalDigits).Seq().AddChar(appendRawChar).
		Ref("Spacing").Optional().
		End(finishDecimalOrOctalInt, nil)
}

func finishHexInt(prev ast.Node, _ any) (ast.Node, error) {
	raw := rawBytes(prev)
	var v int64
	for _, c := range raw {
		v = v*16 + int64(hexDigitValue(c))
	}
	return ast.NewInt(v, ast.Hexadecimal, prev.Range()), nil
}

func hexDigitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}

func finishDecimalOrOctalInt(prev ast.Node, _ any) (ast.Node, error) {
	raw := rawBytes(prev)
	base := ast.Decimal
	start := 0
	if len(raw) > 1 && raw[0] == '0' {
		base = ast.Octal
	}
	var v int64
	radix := int64(10)
	if base == ast.Octal {
		radix = 8
	}
	for _, c := range raw[start:] {
		v = v*radix + int64(c-'0')
	}
	return ast.NewInt(v, base, prev.Range()), nil
}

func decodeEscape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return c // '\\', '\'', '"' escape to themselves
	}
}

func buildCharLit(b *grammar.Builder) {
	b.NonTerminal("Char").
		Rule().
		Char('\'').
		Group().
		Rule().Char('\\').CharSet(escapeLetters).AddChar(escapedByteNode).
		Rule().CharSet(notQuoteOrBackslash('\'')).AddChar(plainByteNode).
		CloseGroup().Add(passChild).
		Char('\'').Ref("Spacing").Optional()
}

func escapedByteNode(_ ast.Node, c byte, rg ast.Range) (ast.Node, error) {
	return ast.NewChar(decodeEscape(c), rg), nil
}

func plainByteNode(_ ast.Node, c byte, rg ast.Range) (ast.Node, error) {
	return ast.NewChar(c, rg), nil
}

func buildStringLit(b *grammar.Builder) {
	b.NonTerminal("StringSegment").
		Rule().
		Char('"').
		Group().
		Rule().Char('\\').CharSet(escapeLetters).AddChar(escapedByteNode).
		Rule().CharSet(notQuoteOrBackslash('"')).AddChar(plainByteNode).
		CloseGroup().Seq().Optional().Add(appendChild).AddSkip(keepPrev).
		Char('"').
		End(relabel(rawKind), nil)

	// Adjacent segments concatenate across intervening Spacing,
	// comments included: `"abc" /* */ "def"` is one literal "abcdef".
	b.NonTerminal("String").
		Rule().
		Ref("StringSegment").Seq().ChainRef("Spacing").Add(appendSegments).
		Ref("Spacing").Optional().
		End(finishString, nil)
}

func appendSegments(acc, child ast.Node) (ast.Node, error) {
	if acc == nil {
		return child, nil
	}
	accTree := acc.(*ast.Tree)
	childTree := child.(*ast.Tree)
	accTree.Children = append(accTree.Children, childTree.Children...)
	return accTree, nil
}

func finishString(prev ast.Node, _ any) (ast.Node, error) {
	t := prev.(*ast.Tree)
	bs := make([]byte, len(t.Children))
	for i, c := range t.Children {
		bs[i] = c.(*ast.Char).Value
	}
	return ast.NewString(bs, t.Range()), nil
}
