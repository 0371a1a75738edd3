package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/nenuphar-lite/lang/compiler"
	"github.com/mna/nenuphar-lite/lang/value"
)

// Disasm compiles each file without running it and prints its
// disassembled bytecode, recursing into every function constant's own
// chunk so nested and closed-over functions are shown too.
func (c *Cmd) Disasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return DisasmFiles(stdio, args...)
}

func DisasmFiles(stdio mainer.Stdio, files ...string) error {
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return printError(stdio, err)
		}

		heap := value.NewHeap()
		fn, err := compiler.Compile(heap, src)
		if err != nil {
			return printError(stdio, err)
		}
		disassembleRecursive(stdio, fn)
	}
	return nil
}

func disassembleRecursive(stdio mainer.Stdio, fn *value.ObjFunction) {
	name := "<script>"
	if fn.Name != nil {
		name = fn.Name.String()
	}
	fmt.Fprint(stdio.Stdout, compiler.Disassemble(fn.Chunk, name))
	for _, c := range fn.Chunk.Constants {
		if nested, ok := c.AsObj().(*value.ObjFunction); ok {
			disassembleRecursive(stdio, nested)
		}
	}
}
