package vm

import (
	"fmt"
	"strings"

	"pocket/internal/config"
	"pocket/internal/value"
)

// registerBuiltins installs the handful of always-available native
// functions every script sees without an import, mirroring the teacher's
// builtin-registration pattern (funvibe-funxy internal/vm/vm_builtins.go)
// but limited to what spec.md's core actually names.
func registerBuiltins(vm *Interpreter) {
	add := func(name string, arity int, fn value.NativeFn) {
		vm.Builtins[name] = value.NewNativeFunction(name, arity, fn)
	}

	add(config.PrintFuncName, -1, func(nvm value.NativeVM, args []value.Value) (value.Value, error) {
		parts := make([]interface{}, len(args))
		for i, a := range args {
			parts[i] = value.Inspect(a)
		}
		fmt.Fprintln(vm.Out, parts...)
		return value.Void(), nil
	})

	add("type", 1, func(nvm value.NativeVM, args []value.Value) (value.Value, error) {
		return value.Obj(vm.GC.NewString(value.ClassNameOf(args[0]))), nil
	})

	add("length", 1, func(nvm value.NativeVM, args []value.Value) (value.Value, error) {
		return vm.getAttrib(args[0], config.LengthAttrName)
	})

	add("yield", -1, func(nvm value.NativeVM, args []value.Value) (value.Value, error) {
		var v value.Value
		if len(args) > 0 {
			v = args[0]
		} else {
			v = value.Null()
		}
		return vm.Yield(v)
	})

	add("list_join", 1, func(nvm value.NativeVM, args []value.Value) (value.Value, error) {
		lst, ok := args[0].Obj.(*value.List)
		if !ok {
			return value.Undefined(), vm.RuntimeError("list_join() requires a list")
		}
		var out strings.Builder
		for _, v := range lst.Items {
			if s, ok := v.Obj.(*value.String); v.Kind == value.KindObj && ok {
				out.WriteString(s.Value)
			} else {
				out.WriteString(value.Inspect(v))
			}
		}
		return value.Obj(vm.GC.NewString(out.String())), nil
	})

	fiberCtor := func(nvm value.NativeVM, args []value.Value) (value.Value, error) {
		cl, ok := args[0].Obj.(*value.Closure)
		if !ok {
			return value.Undefined(), vm.RuntimeError("fiber() requires a function")
		}
		return value.Obj(vm.GC.NewFiber(cl)), nil
	}
	add("fiber", 1, fiberCtor)
	add(config.FiberCtorName, 1, fiberCtor)

	add("resume", -1, func(nvm value.NativeVM, args []value.Value) (value.Value, error) {
		f, ok := args[0].Obj.(*value.Fiber)
		if !ok {
			return value.Undefined(), vm.RuntimeError("resume() requires a fiber")
		}
		var arg value.Value
		if len(args) > 1 {
			arg = args[1]
		} else {
			arg = value.Null()
		}
		if f.State == value.FiberNew {
			return vm.runFiber(f, []value.Value{arg})
		}
		return vm.Resume(f, arg)
	})
}
