package value

import "fmt"

// NativeFn is the signature every native (host-implemented) function must
// have. It receives the heap so it can allocate (e.g. a native that builds
// a string) and the already-evaluated argument values.
type NativeFn func(h *Heap, args []Value) (Value, error)

// ObjNative wraps a host function so it can be stored in globals and
// called through the same CALL opcode path as an interpreted Closure.
// Unlike Function/Closure, a native has no Chunk and no upvalues: it is a
// leaf the collector never needs to traverse into.
type ObjNative struct {
	Header
	Name string
	Fn   NativeFn
}

func (n *ObjNative) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }

// NewNative allocates a native function binding.
func (h *Heap) NewNative(name string, fn NativeFn) *ObjNative {
	n := &ObjNative{Name: name, Fn: fn}
	n.Kind = ObjNativeKind
	h.Pin(FromObj(n))
	h.track(n)
	h.Unpin()
	return n
}
