package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/nenuphar-lite/lang/scanner"
	"github.com/mna/nenuphar-lite/lang/token"
)

// Tokenize runs the scanner over each file and prints one line per token:
// its line number, kind, and lexeme (when the kind carries one).
func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(stdio, args...)
}

func TokenizeFiles(stdio mainer.Stdio, files ...string) error {
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return printError(stdio, err)
		}

		var s scanner.Scanner
		s.Init(src)
		for {
			tok := s.Scan()
			fmt.Fprintf(stdio.Stdout, "%4d %-16s", tok.Line, tok.Kind)
			switch tok.Kind {
			case token.IDENT, token.STRING, token.NUMBER:
				fmt.Fprintf(stdio.Stdout, " %s", tok.Lexeme(src))
			case token.ILLEGAL:
				fmt.Fprintf(stdio.Stdout, " %s", tok.Message)
			}
			fmt.Fprintln(stdio.Stdout)
			if tok.Kind == token.EOF {
				break
			}
		}
	}
	return nil
}
