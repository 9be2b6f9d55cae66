package vm

import "pocket/internal/value"

// The for-loop protocol keeps two extra values on the stack beneath the
// loop body's locals: the iterable (index 1 from top) and a running index
// (index 0 from top, an Int starting at -1). ITER_TEST runs once before the
// loop head and validates the iterable's type without touching the stack;
// ITER advances the index and, if an element remains, pushes it (spec.md
// §4.4). Map iteration
// walks its slot table directly (internal/value/map.go's KeyAtSlot),
// skipping tombstoned and empty slots, matching the direct slot-scan the
// teacher's ObjMap iteration uses (funvibe-funxy internal/vm/objects.go).
func (vm *Interpreter) execIterTest(f *value.Fiber) error {
	container := f.Peek(1)
	switch valueObj(container).(type) {
	case *value.List, *value.String, *value.Range, *value.Map:
		return nil
	default:
		return vm.RuntimeError("'%s' is not iterable", value.ClassNameOf(container))
	}
}

// execIter advances the running index and, if another element exists,
// pushes it and reports cont=true; otherwise leaves the stack untouched
// (aside from the advanced index) and reports cont=false so the caller
// jumps out of the loop.
func (vm *Interpreter) execIter(f *value.Fiber) (bool, error) {
	idx := f.Pop()
	container := f.Peek(0)
	next := int(idx.AsInt()) + 1

	has, err := vm.hasNext(container, next-1)
	if err != nil {
		return false, err
	}
	if !has {
		f.Push(value.Int(int32(next)))
		return false, nil
	}

	item, err := vm.nextItem(container, next)
	if err != nil {
		return false, err
	}
	f.Push(value.Int(int32(next)))
	f.Push(item)
	return true, nil
}

func (vm *Interpreter) hasNext(container value.Value, consumed int) (bool, error) {
	next := consumed + 1
	switch obj := valueObj(container).(type) {
	case *value.List:
		return next < obj.Length(), nil
	case *value.String:
		return next < obj.Length(), nil
	case *value.Range:
		return next < len(obj.AsList()), nil
	case *value.Map:
		return nextMapSlot(obj, next) >= 0, nil
	default:
		return false, vm.RuntimeError("'%s' is not iterable", value.ClassNameOf(container))
	}
}

func (vm *Interpreter) nextItem(container value.Value, index int) (value.Value, error) {
	switch obj := valueObj(container).(type) {
	case *value.List:
		return obj.Items[index], nil
	case *value.String:
		return value.Obj(vm.GC.NewString(string([]rune(obj.Value)[index]))), nil
	case *value.Range:
		return obj.AsList()[index], nil
	case *value.Map:
		slot := nextMapSlot(obj, index)
		k, _ := obj.KeyAtSlot(slot)
		return k, nil
	default:
		return value.Undefined(), vm.RuntimeError("'%s' is not iterable", value.ClassNameOf(container))
	}
}

// nextMapSlot returns the slot-table index of the nth live (non-empty,
// non-tombstone) key, or -1 if there is no such key.
func nextMapSlot(m *value.Map, n int) int {
	seen := 0
	for i := 0; i < m.SlotCapacity(); i++ {
		if _, ok := m.KeyAtSlot(i); ok {
			if seen == n {
				return i
			}
			seen++
		}
	}
	return -1
}
