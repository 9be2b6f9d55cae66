package value

// List is a growable sequence of Values (spec.md §3).
type List struct {
	Header
	Items []Value
}

func NewList(items []Value) *List {
	return &List{Items: items}
}

func (l *List) Inspect() string {
	out := "["
	for i, v := range l.Items {
		if i > 0 {
			out += ", "
		}
		out += reprFor(v)
	}
	return out + "]"
}

func (l *List) GCHeader() *Header { return &l.Header }

func (l *List) Trace(visit func(Object)) {
	for _, v := range l.Items {
		if v.Kind == KindObj && v.Obj != nil {
			visit(v.Obj)
		}
	}
}

func (l *List) Length() int { return len(l.Items) }

func (l *List) Append(v Value) { l.Items = append(l.Items, v) }

// reprFor is like Inspect but quotes strings, matching how nested
// containers usually render their elements.
func reprFor(v Value) string {
	if v.Kind == KindObj {
		if s, ok := v.Obj.(*String); ok {
			return "\"" + s.Value + "\""
		}
	}
	return Inspect(v)
}
