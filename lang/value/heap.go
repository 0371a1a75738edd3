package value

import "github.com/mna/nenuphar-lite/lang/table"

// gcHeapGrowFactor is the multiplier applied to the live-bytes count
// measured after a collection to compute the threshold for the next one.
// It is a tuning policy, not load-bearing for correctness, only for how
// eagerly the collector runs.
const gcHeapGrowFactor = 2

// RootProvider is implemented by whoever owns a set of GC roots at a given
// point in time: the VM while it is running, and the compiler while it is
// compiling (its in-progress Functions must stay alive across any
// allocation that happens mid-compile). A Heap has at most one active
// RootProvider, set with SetRoots; compile and interpret phases install
// their own before doing any allocating work.
type RootProvider interface {
	MarkRoots(h *Heap)
}

// Heap owns every object ever allocated through it: the intrusive
// all-objects list used for sweeping, the string intern table, and the
// tri-colour mark-sweep collector's bookkeeping. A Heap has no notion of
// "the compiler" or "the VM" beyond the RootProvider interface, so it has
// no import-graph dependency on either package.
type Heap struct {
	objects Obj // head of the intrusive all-objects list
	strings *table.Table[string, *ObjString]

	gray []Obj // grey worklist, drained during the mark phase

	// protected holds values that must survive collection even though they
	// are not yet reachable from any root: the brief window between
	// allocating an object and storing it somewhere a RootProvider will
	// find it. See Pin/Unpin.
	protected []Value

	bytesAllocated int
	nextGC         int
	stressGC       bool // collect before every growth, for testing

	roots RootProvider
}

// NewHeap returns an empty heap ready to allocate objects. The initial
// collection threshold is small so tests exercise the collector quickly;
// SetStressGC(true) makes every single allocation collect first.
func NewHeap() *Heap {
	return &Heap{
		strings: table.New[string, *ObjString](0),
		nextGC:  1 << 10,
	}
}

// SetRoots installs the active root provider. Compile and interpret each
// call this before doing any work, and should restore the previous value
// (or nil) when they are done, since roots are only valid while their
// owner is actually executing.
func (h *Heap) SetRoots(r RootProvider) { h.roots = r }

// SetStressGC enables or disables the "collect before every growth" test
// policy.
func (h *Heap) SetStressGC(stress bool) { h.stressGC = stress }

// BytesAllocated reports the heap's current estimate of live bytes,
// exposed for tests that assert the collector is reclaiming memory.
func (h *Heap) BytesAllocated() int { return h.bytesAllocated }

// ObjectCount walks the all-objects list and counts it, for tests. O(n);
// not meant for use on a hot path.
func (h *Heap) ObjectCount() int {
	n := 0
	for o := h.objects; o != nil; o = o.header().Next {
		n++
	}
	return n
}

// Pin protects v from collection until the matching Unpin, even though v
// may not yet be reachable from any root. Callers use this around a
// sequence of allocations where an earlier result (e.g. a freshly interned
// name string) is held only in a local variable before being stored into
// the object under construction.
func (h *Heap) Pin(v Value) { h.protected = append(h.protected, v) }

// Unpin releases the most recently Pinned value. Pin/Unpin must be
// balanced and nested like a stack.
func (h *Heap) Unpin() { h.protected = h.protected[:len(h.protected)-1] }

// --- allocation ---

// sizeOf is a rough accounting unit used only to decide when to collect;
// it does not need to be exact, just monotonic in the object's true size.
func sizeOf(o Obj) int {
	switch o := o.(type) {
	case *ObjString:
		return 32 + len(o.Chars)
	case *ObjFunction:
		return 48
	case *ObjClosure:
		return 24 + 8*len(o.Upvalues)
	case *ObjUpvalue:
		return 32
	default:
		return 16
	}
}

// track links o into the all-objects list and runs the collector if this
// allocation crosses the next-GC threshold (or stressGC is set).
func (h *Heap) track(o Obj) {
	hdr := o.header()
	hdr.Next = h.objects
	h.objects = o
	h.bytesAllocated += sizeOf(o)

	if h.stressGC || h.bytesAllocated > h.nextGC {
		h.Collect()
	}
}

// InternString returns the canonical *ObjString for the given bytes,
// allocating and interning a new one only if no equal string exists yet.
// Two calls with equal content always return the same pointer.
func (h *Heap) InternString(chars []byte) *ObjString {
	key := string(chars) // one copy, also used as the map key
	if s, ok := h.strings.Get(key); ok {
		return s
	}

	s := &ObjString{Chars: []byte(key), Hash: fnv1a32(chars)}
	s.Kind = ObjStringKind
	h.Pin(FromObj(s))
	h.track(s)
	h.strings.Set(key, s)
	h.Unpin()
	return s
}

// NewFunction allocates a function with a fresh, empty Chunk. It is pinned
// for the duration of the call so a collection triggered by this very
// allocation cannot free it before the caller has a chance to link it into
// a root (a compiler frame, or an enclosing chunk's constants pool).
func (h *Heap) NewFunction(name *ObjString) *ObjFunction {
	fn := &ObjFunction{Name: name, Chunk: &Chunk{}}
	fn.Kind = ObjFunctionKind
	h.Pin(FromObj(fn))
	h.track(fn)
	h.Unpin()
	return fn
}

// NewClosure allocates a closure over fn with an empty (nil-filled)
// upvalue array of the right length; the caller fills each slot in turn as
// it processes the CLOSURE opcode's operand list.
func (h *Heap) NewClosure(fn *ObjFunction) *ObjClosure {
	c := &ObjClosure{Function: fn, Upvalues: make([]*ObjUpvalue, fn.UpvalueCount)}
	c.Kind = ObjClosureKind
	h.Pin(FromObj(c))
	h.track(c)
	h.Unpin()
	return c
}

// NewUpvalue allocates an open upvalue pointing at loc.
func (h *Heap) NewUpvalue(loc *Value) *ObjUpvalue {
	u := &ObjUpvalue{Location: loc}
	u.Kind = ObjUpvalueKind
	h.Pin(FromObj(u))
	h.track(u)
	h.Unpin()
	return u
}

// --- collection ---

// MarkValue marks v's heap object, if it has one, and pushes it onto the
// grey worklist for the mark phase to process. It is a no-op for
// already-marked objects, which both terminates cycles and avoids
// re-processing shared subgraphs.
func (h *Heap) MarkValue(v Value) {
	if v.kind == KindObj {
		h.MarkObject(v.obj)
	}
}

// MarkObject is MarkValue for a bare Obj reference (used for fields that
// are not wrapped in a Value, such as Closure.Function).
func (h *Heap) MarkObject(o Obj) {
	if o == nil {
		return
	}
	hdr := o.header()
	if hdr.Marked {
		return
	}
	hdr.Marked = true
	h.gray = append(h.gray, o)
}

// Collect runs one full mark-sweep cycle: mark every root and drain the
// grey worklist, delete intern-table entries whose key string did not
// survive marking (they are weak references), then sweep the all-objects
// list, freeing anything left unmarked and clearing the mark bit on
// everything else.
func (h *Heap) Collect() {
	if h.roots != nil {
		h.roots.MarkRoots(h)
	}
	for _, v := range h.protected {
		h.MarkValue(v)
	}

	for len(h.gray) > 0 {
		o := h.gray[len(h.gray)-1]
		h.gray = h.gray[:len(h.gray)-1]
		h.blacken(o)
	}

	h.removeUnmarkedStrings()
	h.sweep()

	h.nextGC = h.bytesAllocated * gcHeapGrowFactor
	if h.nextGC == 0 {
		h.nextGC = 1 << 10
	}
}

// blacken marks every object directly reachable from o.
func (h *Heap) blacken(o Obj) {
	switch o := o.(type) {
	case *ObjString:
		// no outgoing references
	case *ObjFunction:
		if o.Name != nil {
			h.MarkObject(o.Name)
		}
		for _, c := range o.Chunk.Constants {
			h.MarkValue(c)
		}
	case *ObjClosure:
		h.MarkObject(o.Function)
		for _, uv := range o.Upvalues {
			h.MarkObject(uv)
		}
	case *ObjUpvalue:
		// Closed is Nil while the upvalue is open, so marking it is
		// harmless; once closed it is the only reference to the value.
		h.MarkValue(o.Closed)
	case *ObjNative:
		// no outgoing references
	}
}

// removeUnmarkedStrings implements the intern table's weak-reference
// contract: an interned string is not a GC root, so any entry whose string
// object did not get marked this cycle must be evicted before the sweep,
// otherwise the table would keep pointing at a freed object.
func (h *Heap) removeUnmarkedStrings() {
	var dead []string
	h.strings.Iterate(func(key string, s *ObjString) bool {
		if !s.Marked {
			dead = append(dead, key)
		}
		return true
	})
	for _, key := range dead {
		h.strings.Delete(key)
	}
}

// sweep walks the all-objects list, freeing unmarked objects and clearing
// the mark bit of everything that survives, so the next cycle starts with
// a clean slate.
func (h *Heap) sweep() {
	var prev Obj
	obj := h.objects
	for obj != nil {
		hdr := obj.header()
		if hdr.Marked {
			hdr.Marked = false
			prev = obj
			obj = hdr.Next
			continue
		}

		unreached := obj
		obj = hdr.Next
		if prev != nil {
			prev.header().Next = obj
		} else {
			h.objects = obj
		}
		h.bytesAllocated -= sizeOf(unreached)
	}
}
