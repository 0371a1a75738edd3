package value

import "strconv"

// fnv1a32 computes the 32-bit FNV-1a hash of b, used to precompute each
// interned string's hash once at creation time rather than on every lookup.
func fnv1a32(b []byte) uint32 {
	const (
		offsetBasis uint32 = 2166136261
		prime       uint32 = 16777619
	)
	h := offsetBasis
	for _, c := range b {
		h ^= uint32(c)
		h *= prime
	}
	return h
}

// ObjString is an interned, immutable byte string. Two ObjString values
// with equal content are always the same heap reference: callers never
// construct one directly, they go through Heap.InternString.
type ObjString struct {
	Header
	Chars []byte
	Hash  uint32
}

func (s *ObjString) String() string { return string(s.Chars) }

// GoString renders the string quoted (fmt's %#v verb), so the raw bytes
// can be told apart from surrounding text. String, not GoString, is what
// PRINT and the disassembler use.
func (s *ObjString) GoString() string { return strconv.Quote(string(s.Chars)) }
