package value

import "fmt"

// Chunk is a flat bytecode container owned by exactly one Function: a
// dynamic byte array of instructions, a parallel array of source line
// numbers (one entry per byte of Code), and the function's constants pool.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []Value
}

// Write appends one instruction byte tagged with the given source line.
func (c *Chunk) Write(b byte, line int) int {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

// AddConstant appends v to the constants pool and returns its index. Equal
// constants are not deduplicated; the caller (the compiler) enforces the
// 256-entry limit. Chunk itself does no bookkeeping beyond appending.
func (c *Chunk) AddConstant(v Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// ObjFunction is a compiled function: arity, upvalue count, an optional
// name, and the Chunk holding its bytecode. A Function is immutable once
// the compiler finishes building it; it is a compile-time artifact stored
// as a constant in the chunk of whatever function encloses its
// declaration (or returned as the top-level "script" function).
type ObjFunction struct {
	Header
	Arity        byte
	UpvalueCount byte
	Name         *ObjString // nil for the top-level script
	Chunk        *Chunk
}

func (fn *ObjFunction) String() string {
	if fn.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", fn.Name.Chars)
}
