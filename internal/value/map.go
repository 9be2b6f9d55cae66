package value

// Map is an open-addressed hash table: key == Undefined means the slot is
// empty; key == tombstoneValue means deleted (spec.md §3). Linear probing
// keeps the implementation simple; load factor triggers a doubling rehash
// per spec.md §3's "leaves freedom to the implementer" note.
type Map struct {
	Header
	slots []mapSlot
	count int // live entries
	used  int // live + tombstones, drives rehash trigger
}

type mapSlot struct {
	Key Value
	Val Value
}

// tombstone is a unique heap object used as a Map key to mark a deleted
// slot; it is never exposed to user code.
type tombstoneObj struct{ Header }

func (t *tombstoneObj) Inspect() string    { return "<tombstone>" }
func (t *tombstoneObj) GCHeader() *Header  { return &t.Header }
func (t *tombstoneObj) Trace(func(Object)) {}

var tombstone = &tombstoneObj{}
var tombstoneValue = Value{Kind: KindObj, Obj: tombstone}

const initialMapCap = 8

// emptySlots returns n slots whose keys are Undefined, the empty marker.
func emptySlots(n int) []mapSlot {
	slots := make([]mapSlot, n)
	for i := range slots {
		slots[i].Key = Undefined()
	}
	return slots
}

func NewMap() *Map {
	return &Map{slots: emptySlots(initialMapCap)}
}

func (m *Map) Inspect() string {
	out := "{"
	first := true
	for _, s := range m.slots {
		if s.Key.IsUndefined() || isTombstone(s.Key) {
			continue
		}
		if !first {
			out += ", "
		}
		first = false
		out += reprFor(s.Key) + ": " + reprFor(s.Val)
	}
	return out + "}"
}

func (m *Map) GCHeader() *Header { return &m.Header }

func (m *Map) Trace(visit func(Object)) {
	for _, s := range m.slots {
		if s.Key.IsUndefined() || isTombstone(s.Key) {
			continue
		}
		if s.Key.Kind == KindObj && s.Key.Obj != nil {
			visit(s.Key.Obj)
		}
		if s.Val.Kind == KindObj && s.Val.Obj != nil {
			visit(s.Val.Obj)
		}
	}
}

func isTombstone(v Value) bool {
	return v.Kind == KindObj && v.Obj == tombstone
}

func (m *Map) Len() int { return m.count }

func (m *Map) findSlot(key Value) int {
	cap := len(m.slots)
	idx := int(Hash(key) % uint64(cap))
	firstTombstone := -1
	for i := 0; i < cap; i++ {
		slot := &m.slots[idx]
		if slot.Key.IsUndefined() {
			if firstTombstone >= 0 {
				return firstTombstone
			}
			return idx
		}
		if isTombstone(slot.Key) {
			if firstTombstone < 0 {
				firstTombstone = idx
			}
		} else if Equals(slot.Key, key) {
			return idx
		}
		idx = (idx + 1) % cap
	}
	if firstTombstone >= 0 {
		return firstTombstone
	}
	return -1
}

func (m *Map) Get(key Value) (Value, bool) {
	idx := m.findSlot(key)
	if idx < 0 {
		return Value{}, false
	}
	slot := &m.slots[idx]
	if slot.Key.IsUndefined() || isTombstone(slot.Key) {
		return Value{}, false
	}
	return slot.Val, true
}

func (m *Map) Set(key, val Value) {
	if float64(m.used+1) > float64(len(m.slots))*0.75 {
		m.grow()
	}
	idx := m.findSlot(key)
	slot := &m.slots[idx]
	wasEmpty := slot.Key.IsUndefined() || isTombstone(slot.Key)
	slot.Key = key
	slot.Val = val
	if wasEmpty {
		m.count++
		m.used++
	}
}

func (m *Map) Delete(key Value) bool {
	idx := m.findSlot(key)
	if idx < 0 {
		return false
	}
	slot := &m.slots[idx]
	if slot.Key.IsUndefined() || isTombstone(slot.Key) {
		return false
	}
	slot.Key = tombstoneValue
	slot.Val = Value{}
	m.count--
	return true
}

func (m *Map) grow() {
	old := m.slots
	m.slots = emptySlots(len(old) * 2)
	m.count, m.used = 0, 0
	for _, s := range old {
		if s.Key.IsUndefined() || isTombstone(s.Key) {
			continue
		}
		m.Set(s.Key, s.Val)
	}
}

// Keys returns live keys in slot order, used by OP_ITER (spec.md §4.4).
func (m *Map) Keys() []Value {
	out := make([]Value, 0, m.count)
	for _, s := range m.slots {
		if s.Key.IsUndefined() || isTombstone(s.Key) {
			continue
		}
		out = append(out, s.Key)
	}
	return out
}

// SlotCapacity and KeyAtSlot support OP_ITER's direct slot-table scan
// (spec.md §4.4 "scans the entry table from slot `counter`").
func (m *Map) SlotCapacity() int { return len(m.slots) }

func (m *Map) KeyAtSlot(i int) (Value, bool) {
	s := m.slots[i]
	if s.Key.IsUndefined() || isTombstone(s.Key) {
		return Value{}, false
	}
	return s.Key, true
}
