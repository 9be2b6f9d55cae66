package vm

import "pocket/internal/value"

// ensureStack grows f.Stack so at least need more slots are free above SP,
// mirroring the teacher's growStack (funvibe-funxy internal/vm/vm_calls.go).
// Upvalue.Location is an index rather than a pointer (internal/value/upvalue.go)
// precisely so this reslice never needs a re-basing pass.
func ensureStack(f *value.Fiber, need int) error {
	if f.Stack == nil {
		f.Stack = make([]value.Value, InitialStackSize)
	}
	for f.SP+need > len(f.Stack) {
		newSize := len(f.Stack) + StackGrowthIncrement
		if newSize > MaxStackSize {
			return errStackOverflow
		}
		grown := make([]value.Value, newSize)
		copy(grown, f.Stack)
		f.Stack = grown
	}
	return nil
}

func pushFrame(f *value.Fiber, fr value.CallFrame) error {
	if len(f.Frames) >= MaxFrameCount {
		return errFrameOverflow
	}
	f.Frames = append(f.Frames, fr)
	return nil
}

func popFrame(f *value.Fiber) value.CallFrame {
	fr := f.Frames[len(f.Frames)-1]
	f.Frames = f.Frames[:len(f.Frames)-1]
	return fr
}

// closeUpvaluesFrom closes every open upvalue whose Location is >= floor,
// per RETURN/END's "closes every upvalue >= rbp+1" (spec.md §4.4).
func closeUpvaluesFrom(f *value.Fiber, floor int) {
	for f.OpenUpvalues != nil && f.OpenUpvalues.Location >= floor {
		uv := f.OpenUpvalues
		f.OpenUpvalues = uv.Next
		uv.Close()
	}
}

// captureUpvalue returns the open upvalue for slot, reusing an existing one
// if the fiber already has it open (spec.md §4.3 "one live Upvalue object
// per captured slot, shared across closures").
func captureUpvalue(f *value.Fiber, slot int) *value.Upvalue {
	var prev *value.Upvalue
	cur := f.OpenUpvalues
	for cur != nil && cur.Location > slot {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.Location == slot {
		return cur
	}
	uv := value.NewOpenUpvalue(f, slot)
	uv.Next = cur
	if prev == nil {
		f.OpenUpvalues = uv
	} else {
		prev.Next = uv
	}
	return uv
}
