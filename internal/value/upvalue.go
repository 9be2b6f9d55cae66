package value

// Upvalue is a captured reference to an enclosing function's local
// (spec.md §3/glossary). While open it aliases a live stack slot —
// identified by Location, an index into the owning Fiber's stack rather
// than a raw pointer, so a stack growth/relocation (spec.md §5) never
// needs to "re-base" it the way a raw-pointer design would. Once closed,
// Location is -1 and Closed holds the value directly; "a closed upvalue's
// pointer aliases its own `closed` slot" (spec.md §3 invariant) falls out
// for free since Closed IS the storage.
type Upvalue struct {
	Header
	Owner    *Fiber
	Location int // index into Owner's stack; -1 when closed
	Closed   Value

	// Next links the fiber's open-upvalue chain, sorted by descending
	// stack location (spec.md §3 invariant).
	Next *Upvalue
}

func NewOpenUpvalue(owner *Fiber, slot int) *Upvalue {
	return &Upvalue{Owner: owner, Location: slot}
}

func (u *Upvalue) IsClosed() bool { return u.Location < 0 }

// Get reads the upvalue's current value, whether open or closed.
func (u *Upvalue) Get() Value {
	if u.IsClosed() {
		return u.Closed
	}
	return u.Owner.Stack[u.Location]
}

// Set writes through to the live stack slot, or to Closed once closed.
func (u *Upvalue) Set(v Value) {
	if u.IsClosed() {
		u.Closed = v
		return
	}
	u.Owner.Stack[u.Location] = v
}

// Close copies the current slot value into Closed and severs the link to
// the stack, per RETURN's "closes every upvalue >= rbp+1" (spec.md §4.4).
func (u *Upvalue) Close() {
	if u.IsClosed() {
		return
	}
	u.Closed = u.Owner.Stack[u.Location]
	u.Location = -1
	u.Owner = nil
}

func (u *Upvalue) Inspect() string   { return "<upvalue>" }
func (u *Upvalue) GCHeader() *Header { return &u.Header }

func (u *Upvalue) Trace(visit func(Object)) {
	v := u.Get()
	if v.Kind == KindObj && v.Obj != nil {
		visit(v.Obj)
	}
	if u.Next != nil {
		visit(u.Next)
	}
}
