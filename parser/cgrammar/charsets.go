package cgrammar

import "github.com/tcpoc/tcpoc/charset"

var (
	identStart    = newCharset(func(s *charset.Set) { s.AddRange('a', 'z'); s.AddRange('A', 'Z'); s.Add('_') })
	identContinue = newCharset(func(s *charset.Set) {
		s.AddRange('a', 'z')
		s.AddRange('A', 'Z')
		s.AddRange('0', '9')
		s.Add('_')
	})
	decimalDigits = newCharset(func(s *charset.Set) { s.AddRange('0', '9') })
	hexDigits = newCharset(func(s *charset.Set) {
		s.AddRange('0', '9')
		s.AddRange('a', 'f')
		s.AddRange('A', 'F')
	})
	wsChars       = charset.NewFromBytes(' ', '\t', '\n', '\r')
	notNewline    = newCharset(func(s *charset.Set) { s.AddRange(0, 255); s.Remove('\n') })
	escapeLetters = charset.NewFromBytes('n', 't', 'r', '0', '\\', '\'', '"')
	anyByteSet    = newCharset(func(s *charset.Set) { s.AddRange(0, 255) })
	hexPrefixSet  = charset.NewFromBytes('x', 'X')
)

func newCharset(fill func(*charset.Set)) *charset.Set {
	s := charset.New()
	fill(s)
	return s
}

// notQuoteOrBackslash returns the charset of every byte except quote
// and the escape-introducing backslash, used for the "ordinary
// character" alternative inside char/string literal bodies.
func notQuoteOrBackslash(quote byte) *charset.Set {
	s := newCharset(func(s *charset.Set) { s.AddRange(0, 255) })
	s.Remove(quote)
	s.Remove('\\')
	return s
}
