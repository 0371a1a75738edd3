package maincmd

import (
	"bufio"
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/mna/nenuphar-lite/lang/machine"
)

// Repl reads one line at a time from stdin and interprets it as a
// complete program, printing runtime errors without stopping the loop. A
// line is compiled and run exactly as a file would be: there is no
// bare-expression auto-printing. One VM (and so one heap, one string
// intern table, and one globals table) persists across lines, so a var
// declared on one line remains visible on the next.
func (c *Cmd) Repl(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return Repl(stdio)
}

func Repl(stdio mainer.Stdio) error {
	vm := machine.New()
	vm.Stdout = stdio.Stdout

	scanner := bufio.NewScanner(stdio.Stdin)
	fmt.Fprint(stdio.Stdout, "> ")
	for scanner.Scan() {
		line := scanner.Text()
		if _, err := vm.Interpret([]byte(line)); err != nil {
			printError(stdio, err)
		}
		fmt.Fprint(stdio.Stdout, "> ")
	}
	return scanner.Err()
}
