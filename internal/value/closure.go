package value

// Closure pairs a Function with its captured Upvalues (spec.md §3).
// Renamed from the teacher's ObjClosure (funvibe-funxy internal/vm/objects.go)
// to fit this package's object-per-kind naming.
type Closure struct {
	Header
	Function *Function
	Upvalues []*Upvalue
}

func NewClosure(fn *Function) *Closure {
	return &Closure{Function: fn, Upvalues: make([]*Upvalue, fn.UpvalueCount)}
}

func (c *Closure) Inspect() string { return "<fn " + c.Function.Name + ">" }
func (c *Closure) GCHeader() *Header { return &c.Header }

func (c *Closure) Trace(visit func(Object)) {
	visit(c.Function)
	for _, uv := range c.Upvalues {
		if uv != nil {
			visit(uv)
		}
	}
}

func (c *Closure) Name() string  { return c.Function.Name }
func (c *Closure) Arity() int    { return c.Function.Arity }
