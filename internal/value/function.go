package value

// NativeVM is the minimal surface a native (Go-implemented) function needs
// from the interpreter: allocation helpers and the ability to call back
// into script code. Defined here (rather than imported from internal/vm)
// to avoid a value<->vm import cycle — internal/vm.Interpreter implements
// it.
type NativeVM interface {
	NewString(s string) *String
	NewList(items []Value) *List
	NewMap() *Map
	Call(callee Value, args []Value) (Value, error)
	RuntimeError(format string, args ...interface{}) error
}

// NativeFn is a Go-implemented builtin function body.
type NativeFn func(vm NativeVM, args []Value) (Value, error)

// Function is a compiled or native function object (spec.md §3). Owner is
// the module it was compiled in (nil for a dynamically-synthesized
// function). A negative Arity marks a variadic function that takes at
// least -Arity-1 arguments.
type Function struct {
	Header
	Owner        *Module
	Name         string
	Arity        int
	IsMethod     bool
	UpvalueCount int
	Docs         string

	IsNative bool
	Native   NativeFn

	Chunk     *Chunk
	StackSize int // high-water mark the compiler computed (spec.md §3 invariant)
}

func NewNativeFunction(name string, arity int, fn NativeFn) *Function {
	return &Function{Name: name, Arity: arity, IsNative: true, Native: fn}
}

func NewScriptFunction(name string, arity int) *Function {
	return &Function{Name: name, Arity: arity, Chunk: NewChunk()}
}

func (f *Function) Inspect() string { return "<fn " + f.Name + ">" }
func (f *Function) GCHeader() *Header { return &f.Header }

func (f *Function) Trace(visit func(Object)) {
	if f.Owner != nil {
		visit(f.Owner)
	}
	if f.Chunk != nil {
		for _, c := range f.Chunk.Constants {
			if c.Kind == KindObj && c.Obj != nil {
				visit(c.Obj)
			}
		}
	}
}

// IsVariadic reports whether f accepts any number of arguments.
func (f *Function) IsVariadic() bool { return f.Arity < 0 }
