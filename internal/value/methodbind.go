package value

// MethodBind pairs a method Closure with a bound receiver (spec.md §3
// glossary: "Method-bind"). Self is Undefined when unbound — e.g. the
// value returned for a class's method attribute access before an instance
// binds it.
type MethodBind struct {
	Header
	Closure *Closure
	Self    Value
}

func NewMethodBind(closure *Closure, self Value) *MethodBind {
	return &MethodBind{Closure: closure, Self: self}
}

func (m *MethodBind) Inspect() string { return "<bound method " + m.Closure.Name() + ">" }
func (m *MethodBind) GCHeader() *Header { return &m.Header }

func (m *MethodBind) Trace(visit func(Object)) {
	visit(m.Closure)
	if m.Self.Kind == KindObj && m.Self.Obj != nil {
		visit(m.Self.Obj)
	}
}

func (m *MethodBind) IsBound() bool { return !m.Self.IsUndefined() }
