package vm

import "pocket/internal/value"

// execCreateClass builds a Class from the compiler-emitted class literal at
// cls_idx16: a constant holding the class name, followed on the stack by
// an optional superclass (spec.md §4.4 CREATE_CLASS). Methods are not
// taken here; the compiler attaches each one afterwards with BIND_METHOD.
func (vm *Interpreter) execCreateClass(f *value.Fiber, fr *value.CallFrame, idx uint16) error {
	template, ok := constantAt(fr, idx).Obj.(*value.Class)
	if !ok {
		return vm.RuntimeError("CREATE_CLASS operand is not a class template")
	}
	cls := vm.GC.NewClass(template.Name, fr.Closure.Function.Owner)
	cls.Docs = template.Docs

	super := f.Pop()
	if !super.IsNull() {
		sc, ok := super.Obj.(*value.Class)
		if !ok {
			return vm.RuntimeError("superclass expression is not a class")
		}
		cls.Super = sc
	}
	for name, m := range template.Methods {
		bound := vm.GC.NewClosure(m.Function)
		copy(bound.Upvalues, m.Upvalues)
		cls.Methods[name] = bound
	}
	for name, v := range template.Statics {
		cls.Statics[name] = v
	}
	f.Push(value.Obj(cls))
	return nil
}

// execBindMethod pops a closure and a class off the stack, installing the
// closure as a method on the class (used by the compiler to attach methods
// compiled after the class's own CREATE_CLASS literal).
func (vm *Interpreter) execBindMethod(f *value.Fiber) error {
	closure := f.Pop()
	cls := f.Peek(0)
	cl, ok := closure.Obj.(*value.Closure)
	if !ok {
		return vm.RuntimeError("BIND_METHOD expects a closure")
	}
	c, ok := cls.Obj.(*value.Class)
	if !ok {
		return vm.RuntimeError("BIND_METHOD expects a class receiver")
	}
	c.Methods[cl.Name()] = cl
	return nil
}

// instantiate creates a new Instance of cls and runs its constructor
// ("new"), if any, per spec.md §3/§6. Native classes delegate entirely to
// NativeNew.
func (vm *Interpreter) instantiate(cls *value.Class, args []value.Value) (value.Value, error) {
	if cls.ClassOf == value.ClassKindNative && cls.NativeNew != nil {
		payload, err := cls.NativeNew(vm, args)
		if err != nil {
			return value.Undefined(), err
		}
		inst := vm.GC.NewInstance(cls)
		inst.NativePayload = payload
		return value.Obj(inst), nil
	}

	inst := vm.GC.NewInstance(cls)
	ctor, _ := cls.FindMethod("new")
	if ctor == nil {
		if len(args) != 0 {
			return value.Undefined(), vm.RuntimeError("expected 0 arguments, got %d", len(args))
		}
		return value.Obj(inst), nil
	}
	if _, err := vm.callValue(value.Obj(value.NewMethodBind(ctor, value.Obj(inst))), args); err != nil {
		return value.Undefined(), err
	}
	return value.Obj(inst), nil
}
