package value

// Class is a runtime class object (spec.md §3). ClassOf distinguishes an
// ordinary user class from a native class backed by Go-side hooks (spec.md
// §6 "host types register a Class whose New/Delete hooks are native").
type ClassKind uint8

const (
	ClassKindScript ClassKind = iota
	ClassKindNative
)

type Class struct {
	Header
	Name       string
	Owner      *Module
	Super      *Class
	ClassOf    ClassKind
	Methods    map[string]*Closure
	Statics    map[string]Value
	Docs       string

	// NativeNew/NativeDelete back host-registered types (spec.md §6); nil
	// for ordinary script classes.
	NativeNew    func(vm NativeVM, args []Value) (interface{}, error)
	NativeDelete func(payload interface{})
}

func NewClass(name string, owner *Module) *Class {
	return &Class{
		Name:    name,
		Owner:   owner,
		Methods: make(map[string]*Closure),
		Statics: make(map[string]Value),
	}
}

func (c *Class) Inspect() string   { return "<class " + c.Name + ">" }
func (c *Class) GCHeader() *Header { return &c.Header }

func (c *Class) Trace(visit func(Object)) {
	if c.Super != nil {
		visit(c.Super)
	}
	if c.Owner != nil {
		visit(c.Owner)
	}
	for _, m := range c.Methods {
		visit(m)
	}
	for _, s := range c.Statics {
		if s.Kind == KindObj && s.Obj != nil {
			visit(s.Obj)
		}
	}
}

// FindMethod resolves name along the superclass chain, returning the class
// that owns it so callers can detect where SUPER_CALL should resume from.
func (c *Class) FindMethod(name string) (*Closure, *Class) {
	for cls := c; cls != nil; cls = cls.Super {
		if m, ok := cls.Methods[name]; ok {
			return m, cls
		}
	}
	return nil, nil
}

// IsSubclassOf reports whether c is other or descends from it, backing the
// IS operator's class-hierarchy check (spec.md §4.4 OP_IS).
func (c *Class) IsSubclassOf(other *Class) bool {
	for cls := c; cls != nil; cls = cls.Super {
		if cls == other {
			return true
		}
	}
	return false
}
