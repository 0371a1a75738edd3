package scanner

import "github.com/mna/nenuphar-lite/lang/token"

// string scans a double-quoted string literal. No escape sequences are
// defined: every byte up to the closing quote is part of the string's
// value, including literal newlines (which still advance the line counter
// so error positions downstream stay correct).
func (s *Scanner) string() token.Token {
	for !s.atEnd() && s.peek() != '"' {
		if s.peek() == '\n' {
			s.line++
		}
		s.cur++
	}

	if s.atEnd() {
		return s.errorToken("unterminated string")
	}

	s.cur++ // consume the closing quote
	return s.make(token.STRING)
}
