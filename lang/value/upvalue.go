package value

// ObjUpvalue is either open (Location points into a live value-stack slot)
// or closed (Location points at Closed, which owns the moved-in value).
// Next is the intrusive link used by the VM's open-upvalue list, which it
// keeps sorted by stack address descending.
type ObjUpvalue struct {
	Header
	Location *Value
	Closed   Value
	Next     *ObjUpvalue
}

func (u *ObjUpvalue) String() string { return "upvalue" }

// IsOpen reports whether u still points into the value stack rather than
// its own Closed field.
func (u *ObjUpvalue) IsOpen() bool { return u.Location != &u.Closed }

// Close moves the current value out of the stack slot u points to and into
// u's own storage, then retargets Location at it. After Close, u no longer
// depends on the stack frame that created it.
func (u *ObjUpvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}
