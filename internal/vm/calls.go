package vm

import (
	"pocket/internal/value"
)

// execPushClosure reads a PUSH_CLOSURE operand (fn_idx16, then
// upvalue_count pairs of (is_immediate, index)) and leaves a fresh Closure
// on the stack, capturing each upvalue per spec.md §4.3/§4.4.
func (vm *Interpreter) execPushClosure(f *value.Fiber, fr *value.CallFrame) error {
	fnIdx := readU16(fr)
	fn, ok := constantAt(fr, fnIdx).Obj.(*value.Function)
	if !ok {
		return vm.RuntimeError("PUSH_CLOSURE operand is not a function")
	}
	cl := vm.GC.NewClosure(fn)
	for i := 0; i < fn.UpvalueCount; i++ {
		isImmediate := readU8(fr) != 0
		index := int(readU8(fr))
		if isImmediate {
			cl.Upvalues[i] = captureUpvalue(f, fr.Base+index)
		} else {
			cl.Upvalues[i] = fr.Closure.Upvalues[index]
		}
	}
	f.Push(value.Obj(cl))
	return nil
}

// execCall pops argc arguments and a callee off the stack and invokes it,
// pushing either a new CallFrame (script closures) or the native result.
// asTail reuses the current frame's stack slots instead of pushing a new
// frame, per spec.md §4.4's tail-call elimination.
func (vm *Interpreter) execCall(f *value.Fiber, argc int, asTail bool) error {
	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = f.Pop()
	}
	callee := f.Pop()
	return vm.invoke(f, callee, value.Undefined(), args, asTail)
}

func (vm *Interpreter) invoke(f *value.Fiber, callee value.Value, self value.Value, args []value.Value, asTail bool) error {
	switch obj := valueObj(callee).(type) {
	case *value.Closure:
		return vm.invokeClosure(f, obj, self, args, asTail)
	case *value.Function:
		if obj.IsNative {
			result, err := obj.Native(vm, args)
			if err != nil {
				return err
			}
			f.Push(result)
			return nil
		}
		return vm.invokeClosure(f, vm.GC.NewClosure(obj), self, args, asTail)
	case *value.MethodBind:
		return vm.invoke(f, value.Obj(obj.Closure), obj.Self, args, asTail)
	case *value.Class:
		inst, err := vm.instantiate(obj, args)
		if err != nil {
			return err
		}
		f.Push(inst)
		return nil
	default:
		return vm.RuntimeError("value is not callable")
	}
}

func valueObj(v value.Value) value.Object {
	if v.Kind == value.KindObj {
		return v.Obj
	}
	return nil
}

func (vm *Interpreter) invokeClosure(f *value.Fiber, cl *value.Closure, self value.Value, args []value.Value, asTail bool) error {
	fn := cl.Function
	if fn.IsVariadic() {
		if len(args) < -fn.Arity-1 {
			return vm.RuntimeError("expected at least %d arguments, got %d", -fn.Arity-1, len(args))
		}
	} else if len(args) != fn.Arity {
		return vm.RuntimeError("expected %d arguments, got %d", fn.Arity, len(args))
	}

	if asTail && len(f.Frames) > 0 {
		cur := f.CurrentFrame()
		closeUpvaluesFrom(f, cur.Base)
		base := cur.Base
		f.SP = base
		if err := ensureStack(f, 1+len(args)); err != nil {
			return err
		}
		f.Push(self)
		for _, a := range args {
			f.Push(a)
		}
		f.Frames[len(f.Frames)-1] = value.CallFrame{Closure: cl, Base: base, IsTailCall: true}
		return nil
	}

	if err := ensureStack(f, 1+len(args)); err != nil {
		return err
	}
	base := f.SP
	f.Push(self)
	for _, a := range args {
		f.Push(a)
	}
	return pushFrame(f, value.CallFrame{Closure: cl, Base: base})
}

// execMethodCall resolves name on the receiver and invokes it bound to
// that receiver (spec.md §4.4 METHOD_CALL). Script instances/classes
// resolve through the normal method table; any other value (list, string,
// map, range, fiber, ...) falls back to the same builtin-attribute lookup
// GET_ATTRIB uses, so `recv.method(args)` and `recv.method` followed by a
// separate CALL behave identically.
func (vm *Interpreter) execMethodCall(f *value.Fiber, name string, argc int) error {
	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = f.Pop()
	}
	recv := f.Pop()

	if class := classOf(recv); class != nil {
		if method, _ := class.FindMethod(name); method != nil {
			return vm.invokeClosure(f, method, recv, args, false)
		}
	}

	attr, err := vm.getAttrib(recv, name)
	if err != nil {
		return err
	}
	return vm.invoke(f, attr, value.Undefined(), args, false)
}

// execSuperCall resolves name starting one class above the current
// method's owner, per spec.md §4.4 SUPER_CALL.
func (vm *Interpreter) execSuperCall(f *value.Fiber, name string, argc int) error {
	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = f.Pop()
	}
	fr := f.CurrentFrame()
	recv := f.Stack[fr.Base]
	owner := fr.Closure.Function.Owner
	var start *value.Class
	if inst, ok := recv.Obj.(*value.Instance); ok {
		for cls := inst.Class; cls != nil; cls = cls.Super {
			if cls.Owner == owner {
				start = cls.Super
				break
			}
		}
	}
	if start == nil {
		return vm.RuntimeError("no superclass method '%s'", name)
	}
	method, _ := start.FindMethod(name)
	if method == nil {
		return vm.RuntimeError("undefined superclass method '%s'", name)
	}
	return vm.invokeClosure(f, method, recv, args, false)
}

func classOf(v value.Value) *value.Class {
	switch obj := valueObj(v).(type) {
	case *value.Instance:
		return obj.Class
	}
	return nil
}

// execReturn pops the current frame, closes its upvalues, and leaves the
// return value on the stack for the caller (spec.md §4.4 RETURN).
func (vm *Interpreter) execReturn(f *value.Fiber) error {
	fr := popFrame(f)
	result := f.Pop()
	closeUpvaluesFrom(f, fr.Base)
	f.SP = fr.Base
	f.Push(result)
	return nil
}

// callValue lets native code (via value.NativeVM) call back into script
// code, e.g. list.map's function argument. It reenters exec with the
// current frame depth as the floor, so it returns as soon as the callee
// (and only the callee) has run to completion, regardless of whether this
// call itself happened inside an outer exec loop's native-call opcode.
func (vm *Interpreter) callValue(callee value.Value, args []value.Value) (value.Value, error) {
	f := vm.current
	if f == nil {
		return vm.callOnHostFiber(callee, args)
	}
	floor := len(f.Frames)
	if err := vm.invoke(f, callee, value.Undefined(), args, false); err != nil {
		return value.Undefined(), err
	}
	if len(f.Frames) == floor {
		return f.Pop(), nil
	}
	return vm.exec(f, floor)
}

// callOnHostFiber drives a call with no script fiber currently running,
// e.g. internal/api.Slots.CallSlot invoked before the host has ever run a
// module. It reuses one persistent fiber across such calls rather than
// spinning up a fresh one each time, since a host may issue many.
func (vm *Interpreter) callOnHostFiber(callee value.Value, args []value.Value) (value.Value, error) {
	if vm.hostFiber == nil {
		hf := vm.GC.NewFiber(nil)
		if err := ensureStack(hf, InitialStackSize); err != nil {
			return value.Undefined(), err
		}
		hf.State = value.FiberRunning
		vm.hostFiber = hf
	}
	prev := vm.current
	vm.current = vm.hostFiber
	defer func() { vm.current = prev }()
	return vm.callValue(callee, args)
}
