package value

// Header is the common prefix every heap object carries, letting
// internal/gc walk a single intrusive linked list regardless of concrete
// kind (spec.md §3 "Every heap object carries a discriminator, a `marked`
// flag, and a `next` pointer chaining it into the VM's global object
// list"). It's embedded by value so objects can hand the collector their
// header without a type switch (see Object.GCHeader).
type Header struct {
	Marked bool
	Next   Object
}

// Object is implemented by every heap-allocated kind (spec.md §3 table:
// String, List, Map, Range, Module, Function, Closure, MethodBind,
// Upvalue, Fiber, Class, Instance). Grounded on the teacher's
// evaluator.Object interface (funvibe-funxy internal/vm/value.go), widened
// with GCHeader so the tracing collector in internal/gc can link and mark
// any kind uniformly.
type Object interface {
	// Inspect renders a human-readable representation (REPL / print).
	Inspect() string
	// GCHeader returns the object's embedded GC bookkeeping header.
	GCHeader() *Header
	// Trace invokes visit on every Value/Object this object directly
	// references, so the collector can blacken it during the mark phase.
	Trace(visit func(Object))
}
