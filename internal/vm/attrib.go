package vm

import (
	"pocket/internal/config"
	"pocket/internal/value"
)

// execGetAttrib resolves obj.name (spec.md §4.4 GET_ATTRIB): instance
// attributes first, then class methods (bound to the receiver), then the
// handful of builtin pseudo-attributes every value exposes (length, _class).
// *Keep leaves the receiver under the result, matching the teacher's
// "duplicate receiver" convention for chained calls like obj.method()().
func (vm *Interpreter) execGetAttrib(f *value.Fiber, name string, keep bool) error {
	recv := f.Pop()

	result, err := vm.getAttrib(recv, name)
	if err != nil {
		return err
	}
	if keep {
		f.Push(recv)
	}
	f.Push(result)
	return nil
}

func (vm *Interpreter) getAttrib(recv value.Value, name string) (value.Value, error) {
	if inst, ok := valueObj(recv).(*value.Instance); ok {
		if v, ok := inst.GetAttr(name); ok {
			return v, nil
		}
		if m, cls := inst.Class.FindMethod(name); m != nil {
			_ = cls
			return value.Obj(value.NewMethodBind(m, recv)), nil
		}
	}
	if cls, ok := valueObj(recv).(*value.Class); ok {
		if v, ok := cls.Statics[name]; ok {
			return v, nil
		}
		if m, _ := cls.FindMethod(name); m != nil {
			return value.Obj(value.NewMethodBind(m, value.Undefined())), nil
		}
	}

	switch name {
	case config.LengthAttrName:
		switch obj := valueObj(recv).(type) {
		case *value.String:
			return value.Int(int32(obj.Length())), nil
		case *value.List:
			return value.Int(int32(obj.Length())), nil
		case *value.Map:
			return value.Int(int32(obj.Len())), nil
		}
	case config.ClassAttrName:
		return value.Obj(vm.GC.NewString(value.ClassNameOf(recv))), nil
	case config.DocsAttrName:
		switch obj := valueObj(recv).(type) {
		case *value.Closure:
			return value.Obj(vm.GC.NewString(obj.Function.Docs)), nil
		case *value.MethodBind:
			return value.Obj(vm.GC.NewString(obj.Closure.Function.Docs)), nil
		case *value.Class:
			return value.Obj(vm.GC.NewString(obj.Docs)), nil
		}
	}

	switch obj := valueObj(recv).(type) {
	case *value.List:
		if name == "append" {
			return value.Obj(value.NewNativeFunction("append", -1, func(nvm value.NativeVM, args []value.Value) (value.Value, error) {
				for _, a := range args {
					obj.Append(a)
				}
				return recv, nil
			})), nil
		}
	case *value.Range:
		switch name {
		case "first":
			return numValueFromFloat(obj.From), nil
		case "last":
			return numValueFromFloat(obj.To), nil
		case "as_list":
			return value.Obj(vm.GC.NewList(obj.AsList())), nil
		}
	case *value.Module:
		if slot := obj.GlobalIndex(name); slot >= 0 {
			return obj.Globals[slot], nil
		}
	case *value.Closure:
		switch name {
		case "name":
			return value.Obj(vm.GC.NewString(obj.Name())), nil
		case "arity":
			return value.Int(int32(obj.Arity())), nil
		}
	case *value.MethodBind:
		switch name {
		case "name":
			return value.Obj(vm.GC.NewString(obj.Closure.Name())), nil
		case "arity":
			return value.Int(int32(obj.Closure.Arity())), nil
		case "instance":
			return obj.Self, nil
		}
	case *value.Fiber:
		switch name {
		case "is_done":
			return value.Bool(obj.IsDone()), nil
		case "function":
			return value.Obj(obj.Root), nil
		case "run":
			return value.Obj(value.NewNativeFunction("run", -1, func(nvm value.NativeVM, args []value.Value) (value.Value, error) {
				if obj.State != value.FiberNew {
					return value.Undefined(), vm.RuntimeError("cannot run a fiber that isn't new")
				}
				return vm.runFiber(obj, args)
			})), nil
		case "resume":
			return value.Obj(value.NewNativeFunction("resume", -1, func(nvm value.NativeVM, args []value.Value) (value.Value, error) {
				var arg value.Value
				if len(args) > 0 {
					arg = args[0]
				} else {
					arg = value.Null()
				}
				if obj.State == value.FiberNew {
					return vm.runFiber(obj, []value.Value{arg})
				}
				return vm.Resume(obj, arg)
			})), nil
		}
	case *value.Class:
		switch name {
		case "name":
			return value.Obj(vm.GC.NewString(obj.Name)), nil
		case "parent":
			if obj.Super == nil {
				return value.Null(), nil
			}
			return value.Obj(obj.Super), nil
		}
	}

	return value.Undefined(), vm.RuntimeError("'%s' has no attribute '%s'", value.ClassNameOf(recv), name)
}

// numValueFromFloat mirrors value.Range's own int-if-whole normalization
// (value/range.go numValueFromRange) for `.first`/`.last`, which expose
// Range's From/To as Ints when they happen to be whole numbers.
func numValueFromFloat(f float64) value.Value {
	if f == float64(int32(f)) {
		return value.Int(int32(f))
	}
	return value.Float(f)
}

// execSetAttrib assigns obj.name = val: settable on instances (spec.md
// §4.1) and, for Module receivers, as a by-name write to one of its
// globals (spec.md §4.1 "Module: global lookup by name (read/write)").
func (vm *Interpreter) execSetAttrib(f *value.Fiber, name string) error {
	val := f.Pop()
	recv := f.Pop()
	switch obj := valueObj(recv).(type) {
	case *value.Instance:
		obj.SetAttr(name, val)
	case *value.Module:
		slot := obj.GlobalIndex(name)
		if slot < 0 {
			return vm.RuntimeError("module '%s' has no global '%s'", obj.Name, name)
		}
		obj.Globals[slot] = val
	default:
		return vm.RuntimeError("cannot set attribute '%s' on a %s", name, value.ClassNameOf(recv))
	}
	f.Push(val)
	return nil
}

// execGetSubscript implements obj[key] for List, Map and String (spec.md
// §4.1); negative list/string indices count from the end.
func (vm *Interpreter) execGetSubscript(f *value.Fiber, keep bool) error {
	key := f.Pop()
	recv := f.Pop()
	result, err := vm.getSubscript(recv, key)
	if err != nil {
		return err
	}
	if keep {
		f.Push(recv)
	}
	f.Push(result)
	return nil
}

func (vm *Interpreter) getSubscript(recv, key value.Value) (value.Value, error) {
	switch obj := valueObj(recv).(type) {
	case *value.List:
		i, err := vm.normalizeIndex(key, obj.Length())
		if err != nil {
			return value.Undefined(), err
		}
		return obj.Items[i], nil
	case *value.String:
		i, err := vm.normalizeIndex(key, obj.Length())
		if err != nil {
			return value.Undefined(), err
		}
		return value.Obj(vm.GC.NewString(string([]rune(obj.Value)[i]))), nil
	case *value.Map:
		v, ok := obj.Get(key)
		if !ok {
			return value.Undefined(), vm.RuntimeError("key not found")
		}
		return v, nil
	default:
		return value.Undefined(), vm.RuntimeError("'%s' is not subscriptable", value.ClassNameOf(recv))
	}
}

func (vm *Interpreter) normalizeIndex(key value.Value, length int) (int, error) {
	if !key.IsInt() {
		return 0, vm.RuntimeError("index must be an int")
	}
	i := int(key.AsInt())
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, vm.RuntimeError("index %d out of range (length %d)", i, length)
	}
	return i, nil
}

// execSetSubscript implements obj[key] = val for List and Map.
func (vm *Interpreter) execSetSubscript(f *value.Fiber) error {
	val := f.Pop()
	key := f.Pop()
	recv := f.Pop()
	switch obj := valueObj(recv).(type) {
	case *value.List:
		i, err := vm.normalizeIndex(key, obj.Length())
		if err != nil {
			return err
		}
		obj.Items[i] = val
	case *value.Map:
		obj.Set(key, val)
	default:
		return vm.RuntimeError("'%s' does not support item assignment", value.ClassNameOf(recv))
	}
	f.Push(val)
	return nil
}
