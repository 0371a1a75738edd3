package value

// ObjClosure wraps a Function with the array of Upvalues it captured at the
// point it was created by the CLOSURE opcode. Closure.Upvalues has exactly
// Function.UpvalueCount entries, each corresponding 1-to-1 with the
// compiler's upvalueRef record at the same index.
type ObjClosure struct {
	Header
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) String() string { return c.Function.String() }
