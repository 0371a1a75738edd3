package maincmd

import (
	"context"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/nenuphar-lite/lang/machine"
)

// exitCodeError pairs an error with a sysexits.h-style process exit code:
// 65 (EX_DATAERR) for a compile error, 70 (EX_SOFTWARE) for a runtime error.
type exitCodeError struct {
	error
	code int
}

func (e *exitCodeError) ExitCode() int { return e.code }

const (
	exCompileError = 65
	exRuntimeError = 70
)

// Run compiles and interprets each file in turn, stopping at the first one
// that fails to compile or run.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return RunFiles(stdio, args...)
}

func RunFiles(stdio mainer.Stdio, files ...string) error {
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			printError(stdio, err)
			return &exitCodeError{error: err, code: exRuntimeError}
		}

		vm := machine.New()
		vm.Stdout = stdio.Stdout
		res, err := vm.Interpret(src)
		if err != nil {
			printError(stdio, err)
			switch res {
			case machine.ResultCompileError:
				return &exitCodeError{error: err, code: exCompileError}
			default:
				return &exitCodeError{error: err, code: exRuntimeError}
			}
		}
	}
	return nil
}
