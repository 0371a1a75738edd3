package scanner_test

import (
	"testing"

	"github.com/mna/nenuphar-lite/lang/scanner"
	"github.com/mna/nenuphar-lite/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	var s scanner.Scanner
	s.Init([]byte(src))
	var toks []token.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}
	return ks
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scanAll(t, "(){};,.+-*!!====<<=>>=/")
	require.Equal(t, []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.SEMICOLON,
		token.COMMA, token.DOT, token.PLUS, token.MINUS, token.STAR,
		token.BANG, token.BANG_EQ, token.EQ_EQ, token.EQ, token.LT, token.LT_EQ,
		token.GT, token.GT_EQ, token.SLASH, token.EOF,
	}, kinds(toks))
}

func TestScanEOFIsSticky(t *testing.T) {
	var s scanner.Scanner
	s.Init([]byte(""))
	require.Equal(t, token.EOF, s.Scan().Kind)
	require.Equal(t, token.EOF, s.Scan().Kind)
	require.Equal(t, token.EOF, s.Scan().Kind)
}

func TestScanNumbers(t *testing.T) {
	src := []byte("123 1.5 1.")
	var s scanner.Scanner
	s.Init(src)

	tok := s.Scan()
	require.Equal(t, token.NUMBER, tok.Kind)
	require.Equal(t, "123", tok.Lexeme(src))

	tok = s.Scan()
	require.Equal(t, token.NUMBER, tok.Kind)
	require.Equal(t, "1.5", tok.Lexeme(src))

	tok = s.Scan()
	require.Equal(t, token.NUMBER, tok.Kind)
	require.Equal(t, "1.", tok.Lexeme(src))
}

func TestScanString(t *testing.T) {
	src := []byte(`"hello world"`)
	var s scanner.Scanner
	s.Init(src)
	tok := s.Scan()
	require.Equal(t, token.STRING, tok.Kind)
	require.Equal(t, `"hello world"`, tok.Lexeme(src))
}

func TestScanUnterminatedString(t *testing.T) {
	var s scanner.Scanner
	s.Init([]byte(`"hello`))
	tok := s.Scan()
	require.Equal(t, token.ILLEGAL, tok.Kind)
	require.Equal(t, "unterminated string", tok.Message)
}

func TestScanIdentifiersAndKeywords(t *testing.T) {
	toks := scanAll(t, "var x = foo and bar")
	require.Equal(t, []token.Kind{
		token.VAR, token.IDENT, token.EQ, token.IDENT, token.AND, token.IDENT, token.EOF,
	}, kinds(toks))
}

func TestScanLineTracking(t *testing.T) {
	toks := scanAll(t, "var x\n= 1;\n\nprint x;")
	require.Equal(t, 1, toks[0].Line) // var
	require.Equal(t, 1, toks[1].Line) // x
	require.Equal(t, 2, toks[2].Line) // =
	require.Equal(t, 4, toks[len(toks)-2].Line) // semicolon before EOF
}

func TestSkipComments(t *testing.T) {
	toks := scanAll(t, "// a comment\nvar x = 1; // trailing\n")
	require.Equal(t, []token.Kind{
		token.VAR, token.IDENT, token.EQ, token.NUMBER, token.SEMICOLON, token.EOF,
	}, kinds(toks))
}

func TestUnexpectedCharacter(t *testing.T) {
	var s scanner.Scanner
	s.Init([]byte("@"))
	tok := s.Scan()
	require.Equal(t, token.ILLEGAL, tok.Kind)
	require.Equal(t, "unexpected character", tok.Message)
}
