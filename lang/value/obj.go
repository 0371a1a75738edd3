package value

// ObjKind discriminates the kinds of heap object.
type ObjKind uint8

const (
	ObjStringKind ObjKind = iota
	ObjFunctionKind
	ObjClosureKind
	ObjUpvalueKind
	ObjNativeKind
)

func (k ObjKind) String() string {
	switch k {
	case ObjStringKind:
		return "string"
	case ObjFunctionKind:
		return "function"
	case ObjClosureKind:
		return "closure"
	case ObjUpvalueKind:
		return "upvalue"
	case ObjNativeKind:
		return "native function"
	default:
		return "unknown"
	}
}

// Obj is implemented by every heap-allocated value kind: String, Function,
// Closure, Upvalue and Native. Every allocation begins with a Header carrying the
// GC mark bit and the intrusive "next" link the Heap's all-objects list
// uses for sweeping.
type Obj interface {
	// String renders the object the way PRINT would.
	String() string
	// header returns the object's GC header. Unexported: only this package
	// allocates objects, so only this package needs to touch it directly.
	header() *Header
}

// Header is embedded as the first field of every concrete Obj
// implementation.
type Header struct {
	Kind   ObjKind
	Marked bool
	Next   Obj
}

func (h *Header) header() *Header { return h }
