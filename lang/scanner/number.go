package scanner

import "github.com/mna/nenuphar-lite/lang/token"

// number scans a decimal literal: digits, then an optional '.', then more
// digits. A trailing dot with nothing after it (e.g. "1.") is accepted as a
// complete number literal.
func (s *Scanner) number() token.Token {
	for isDigit(s.peek()) {
		s.cur++
	}

	if s.peek() == '.' {
		s.cur++ // consume the '.'
		for isDigit(s.peek()) {
			s.cur++
		}
	}

	return s.make(token.NUMBER)
}
