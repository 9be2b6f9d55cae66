package value

// Module is a loaded source file's runtime representation (spec.md §3).
// Constants here is a dedicated pool used to store global-variable name
// strings (Globals[i]'s name is Constants[GlobalNames[i]]) — distinct from
// a Function's own Chunk.Constants, which holds that function's bytecode
// literals. Keeping a separate per-module name pool is what lets GET_GLOBAL/
// STORE_GLOBAL debug tooling and the REPL recover a global's name from its
// slot index alone.
type Module struct {
	Header
	Name        string
	Path        string // resolved filesystem path, empty for synthetic modules
	Constants   []Value
	Globals     []Value
	GlobalNames []int // Globals[i] is named by Constants[GlobalNames[i]]
	Body        *Closure
	Initialized bool

	// NativeHandle is an opaque host-supplied payload for modules backed
	// by a dynamic library (spec.md §6 "dynamic libraries ... loaded
	// through the host"); nil for ordinary script modules.
	NativeHandle interface{}
}

func NewModule(name string) *Module {
	return &Module{Name: name}
}

func (m *Module) Inspect() string   { return "<module " + m.Name + ">" }
func (m *Module) GCHeader() *Header { return &m.Header }

func (m *Module) Trace(visit func(Object)) {
	for _, c := range m.Constants {
		if c.Kind == KindObj && c.Obj != nil {
			visit(c.Obj)
		}
	}
	for _, g := range m.Globals {
		if g.Kind == KindObj && g.Obj != nil {
			visit(g.Obj)
		}
	}
	if m.Body != nil {
		visit(m.Body)
	}
}

// GlobalIndex returns the slot index of name, or -1 if not yet defined.
func (m *Module) GlobalIndex(name string) int {
	for i, ci := range m.GlobalNames {
		if ci < len(m.Constants) {
			if s, ok := m.Constants[ci].Obj.(*String); ok && s.Value == name {
				return i
			}
		}
	}
	return -1
}

// DefineGlobal appends a new global slot named name (registering the name
// in the constant pool if it isn't already interned there) and returns its
// slot index.
func (m *Module) DefineGlobal(name string, v Value) int {
	nameIdx := -1
	for i, c := range m.Constants {
		if s, ok := c.Obj.(*String); ok && s.Value == name {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		nameIdx = len(m.Constants)
		m.Constants = append(m.Constants, Obj(NewString(name)))
	}
	m.Globals = append(m.Globals, v)
	m.GlobalNames = append(m.GlobalNames, nameIdx)
	return len(m.Globals) - 1
}

func (m *Module) GlobalNameAt(slot int) string {
	if slot < 0 || slot >= len(m.GlobalNames) {
		return ""
	}
	ci := m.GlobalNames[slot]
	if ci < 0 || ci >= len(m.Constants) {
		return ""
	}
	if s, ok := m.Constants[ci].Obj.(*String); ok {
		return s.Value
	}
	return ""
}
