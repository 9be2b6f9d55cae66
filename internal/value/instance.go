package value

// Instance is an object created from a Class (spec.md §3). NativePayload
// holds the opaque Go-side state for instances of a native class; nil for
// ordinary script instances.
type Instance struct {
	Header
	Class      *Class
	Attributes map[string]Value

	NativePayload interface{}
}

func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Attributes: make(map[string]Value)}
}

func (i *Instance) Inspect() string   { return "<" + i.Class.Name + " instance>" }
func (i *Instance) GCHeader() *Header { return &i.Header }

func (i *Instance) Trace(visit func(Object)) {
	visit(i.Class)
	for _, v := range i.Attributes {
		if v.Kind == KindObj && v.Obj != nil {
			visit(v.Obj)
		}
	}
}

func (i *Instance) GetAttr(name string) (Value, bool) {
	v, ok := i.Attributes[name]
	return v, ok
}

func (i *Instance) SetAttr(name string, v Value) {
	i.Attributes[name] = v
}
