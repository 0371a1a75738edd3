// Package machine implements the stack-based bytecode interpreter: a
// single growable value stack shared by every call frame, a fixed-depth
// call-frame stack, the open-upvalue list, and the globals table. It
// drives the compiler to produce a top-level Function, then executes its
// chunk (and every chunk reachable through CLOSURE/CALL) directly.
package machine

import (
	"fmt"
	"io"
	"os"

	"github.com/mna/nenuphar-lite/lang/compiler"
	"github.com/mna/nenuphar-lite/lang/table"
	"github.com/mna/nenuphar-lite/lang/value"
)

const (
	stackMax  = 16384
	framesMax = 64
)

// callFrame is one active call: the closure being executed, the
// instruction pointer into its chunk, and the base index into the shared
// value stack where this call's locals (slot 0 is the callee itself)
// begin.
type callFrame struct {
	closure *value.ObjClosure
	ip      int
	slots   int
}

// Result classifies how Interpret finished.
type Result int

const (
	Ok Result = iota
	ResultCompileError
	ResultRuntimeError
)

func (r Result) String() string {
	switch r {
	case Ok:
		return "ok"
	case ResultCompileError:
		return "compile error"
	case ResultRuntimeError:
		return "runtime error"
	default:
		return "unknown result"
	}
}

// VM is a bytecode interpreter: construct one with New, then call
// Interpret any number of times. Every call compiles and runs its source
// against the same heap, so interned strings and the globals table (keyed
// on *value.ObjString pointer identity) persist across calls — a global
// defined by one Interpret call is still visible to the next.
type VM struct {
	// Stdout receives PRINT output; if nil, os.Stdout is used.
	Stdout io.Writer

	heap           *value.Heap
	stack          []value.Value
	frames         []callFrame
	openUV         *value.ObjUpvalue
	globals        *table.Table[*value.ObjString, value.Value]
	nativesDefined bool
}

// New returns a VM ready to interpret one or more programs in sequence.
func New() *VM {
	return &VM{
		heap:    value.NewHeap(),
		globals: table.New[*value.ObjString, value.Value](0),
	}
}

func (vm *VM) stdout() io.Writer {
	if vm.Stdout != nil {
		return vm.Stdout
	}
	return os.Stdout
}

// Interpret compiles and runs source against the VM's heap. The VM
// registers itself as the heap's GC root provider for the duration of the
// run, so a collection triggered by any allocation sees the live value
// stack, call frames, open upvalues and globals table. The value stack and
// call-frame stack are reset at the start of every call; the heap (and so
// the string intern table and the globals table keyed on it) is not.
func (vm *VM) Interpret(source []byte) (Result, error) {
	vm.stack = make([]value.Value, 0, stackMax)
	vm.frames = make([]callFrame, 0, framesMax)
	vm.openUV = nil

	fn, err := compiler.Compile(vm.heap, source)
	if err != nil {
		return ResultCompileError, err
	}

	vm.heap.SetRoots(vm)
	defer vm.heap.SetRoots(nil)

	if !vm.nativesDefined {
		vm.defineNatives()
		vm.nativesDefined = true
	}

	closure := vm.heap.NewClosure(fn)
	vm.push(value.FromObj(closure))
	vm.frames = append(vm.frames, callFrame{closure: closure, ip: 0, slots: 0})

	if err := vm.run(); err != nil {
		vm.resetStack()
		return ResultRuntimeError, err
	}
	return Ok, nil
}

func (vm *VM) push(v value.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() value.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(distance int) value.Value { return vm.stack[len(vm.stack)-1-distance] }

func (vm *VM) resetStack() {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.openUV = nil
}

func (vm *VM) frame() *callFrame { return &vm.frames[len(vm.frames)-1] }

// MarkRoots implements value.RootProvider.
func (vm *VM) MarkRoots(h *value.Heap) {
	for _, v := range vm.stack {
		h.MarkValue(v)
	}
	for i := range vm.frames {
		h.MarkObject(vm.frames[i].closure)
	}
	for uv := vm.openUV; uv != nil; uv = uv.Next {
		h.MarkObject(uv)
	}
	vm.globals.Iterate(func(key *value.ObjString, v value.Value) bool {
		h.MarkObject(key)
		h.MarkValue(v)
		return true
	})
}

// RuntimeError is a runtime fault: a human-readable message plus a stack
// trace, one line per active call frame at the point of the error, built
// from each frame's ip-1 mapped through its chunk's line table.
type RuntimeError struct {
	Message string
	Trace   []string
}

func (e *RuntimeError) Error() string {
	s := e.Message
	for _, line := range e.Trace {
		s += "\n" + line
	}
	return s
}

func (vm *VM) runtimeError(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)

	trace := make([]string, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := &vm.frames[i]
		fn := f.closure.Function
		line := 0
		if f.ip-1 >= 0 && f.ip-1 < len(fn.Chunk.Lines) {
			line = fn.Chunk.Lines[f.ip-1]
		}
		name := "script"
		if fn.Name != nil {
			name = fn.Name.String() + "()"
		}
		trace = append(trace, fmt.Sprintf("[line %d] in %s", line, name))
	}
	return &RuntimeError{Message: msg, Trace: trace}
}
