// Package scanner implements a lazy, single-token-at-a-time tokenizer for
// the language. It has no dependency on the compiler: the compiler drives
// the scanner one token at a time as it parses, in the classic single-pass
// style (no intermediate token list is ever materialized).
package scanner

import "github.com/mna/nenuphar-lite/lang/token"

// Scanner produces one token at a time from a source byte slice. The zero
// value is not usable; call Init first.
type Scanner struct {
	src  []byte
	line int

	start int // start offset of the token currently being scanned
	cur   int // offset of the next unread byte
}

// Init prepares s to scan src from the beginning. src must outlive every
// Token returned by s, since Token.Start/Length are offsets into it.
func (s *Scanner) Init(src []byte) {
	s.src = src
	s.line = 1
	s.start = 0
	s.cur = 0
}

func (s *Scanner) atEnd() bool { return s.cur >= len(s.src) }

func (s *Scanner) advance() byte {
	b := s.src[s.cur]
	s.cur++
	return b
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.cur]
}

func (s *Scanner) peekNext() byte {
	if s.cur+1 >= len(s.src) {
		return 0
	}
	return s.src[s.cur+1]
}

// match consumes the current byte and returns true if it equals want,
// otherwise leaves the scanner position untouched and returns false.
func (s *Scanner) match(want byte) bool {
	if s.atEnd() || s.src[s.cur] != want {
		return false
	}
	s.cur++
	return true
}

func (s *Scanner) skipWhitespace() {
	for !s.atEnd() {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.cur++
		case '\n':
			s.line++
			s.cur++
		case '/':
			if s.peekNext() == '/' {
				for !s.atEnd() && s.peek() != '\n' {
					s.cur++
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

// Scan returns the next token in the source. Once it returns an EOF token,
// every subsequent call also returns EOF, since skipWhitespace and the
// switch below are no-ops once s.cur has reached len(s.src).
func (s *Scanner) Scan() token.Token {
	s.skipWhitespace()
	s.start = s.cur

	if s.atEnd() {
		return s.make(token.EOF)
	}

	c := s.advance()
	if isAlpha(c) {
		return s.identifier()
	}
	if isDigit(c) {
		return s.number()
	}

	switch c {
	case '(':
		return s.make(token.LPAREN)
	case ')':
		return s.make(token.RPAREN)
	case '{':
		return s.make(token.LBRACE)
	case '}':
		return s.make(token.RBRACE)
	case ';':
		return s.make(token.SEMICOLON)
	case ',':
		return s.make(token.COMMA)
	case '.':
		return s.make(token.DOT)
	case '-':
		return s.make(token.MINUS)
	case '+':
		return s.make(token.PLUS)
	case '/':
		return s.make(token.SLASH)
	case '*':
		return s.make(token.STAR)
	case '!':
		if s.match('=') {
			return s.make(token.BANG_EQ)
		}
		return s.make(token.BANG)
	case '=':
		if s.match('=') {
			return s.make(token.EQ_EQ)
		}
		return s.make(token.EQ)
	case '<':
		if s.match('=') {
			return s.make(token.LT_EQ)
		}
		return s.make(token.LT)
	case '>':
		if s.match('=') {
			return s.make(token.GT_EQ)
		}
		return s.make(token.GT)
	case '"':
		return s.string()
	}

	return s.errorToken("unexpected character")
}

func (s *Scanner) make(kind token.Kind) token.Token {
	return token.Token{
		Kind:   kind,
		Start:  s.start,
		Length: s.cur - s.start,
		Line:   s.line,
	}
}

func (s *Scanner) errorToken(msg string) token.Token {
	return token.Token{
		Kind:    token.ILLEGAL,
		Line:    s.line,
		Message: msg,
	}
}

func (s *Scanner) identifier() token.Token {
	for !s.atEnd() && (isAlpha(s.peek()) || isDigit(s.peek())) {
		s.cur++
	}
	lit := string(s.src[s.start:s.cur])
	return s.make(token.LookupIdent(lit))
}

func isAlpha(c byte) bool {
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
