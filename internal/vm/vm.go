// Package vm executes compiled pocket bytecode: fiber/call-frame dispatch,
// closures and classes, and the builtins a running script can see.
package vm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"pocket/internal/bytecode"
	"pocket/internal/module"
	"pocket/internal/value"
)

var (
	errStackOverflow = errors.New("stack overflow")
	errFrameOverflow = errors.New("call stack overflow")
)

// Initial and growth sizes for a fiber's value/frame stacks, ported from
// the teacher's internal/vm/vm.go (funvibe-funxy) geometric-growth scheme.
const (
	InitialStackSize     = 2048
	InitialFrameCount    = 256
	StackGrowthIncrement = 1024
	FrameGrowthIncrement = 128
	MaxFrameCount        = 4096
	MaxStackSize         = 1024 * 1024
)

// Interpreter is the virtual machine: one current fiber plus the module
// registry and builtin table shared across every fiber it runs.
type Interpreter struct {
	current *value.Fiber
	root    *value.Fiber

	Modules  *module.Registry
	Builtins map[string]*value.Function

	GC *gcAdapter

	Out io.Writer

	Context context.Context

	DebugMode bool // disables tail-call opcode emission's runtime shortcut when true

	// tempRefs is the bounded small array spec.md §4.2 requires: "a
	// temp-reference stack ... protects objects across allocation points
	// in native code that briefly have no other root." The embedding API
	// (internal/api) pins host-held handles here.
	tempRefs []value.Object

	// hostFiber backs calls made through Call (and so internal/api's
	// CallSlot/ImportInto) when no script fiber is currently running —
	// spec.md §6's embedding surface lets a host call a function before
	// ever running a script, which the ordinary run/yield/resume state
	// machine has no fiber for. Lazily created, reused across calls.
	hostFiber *value.Fiber
}

const maxTempRefs = 4096

// PinTempRef roots obj against collection until UnpinTempRef undoes it,
// returning the handle index to pass back. Native code and the embedding
// API must pin any freshly allocated object before another allocation can
// run, per spec.md §5's allocator discipline.
func (vm *Interpreter) PinTempRef(obj value.Object) (int, error) {
	if len(vm.tempRefs) >= maxTempRefs {
		return -1, errors.New("temp-reference stack exhausted")
	}
	vm.tempRefs = append(vm.tempRefs, obj)
	return len(vm.tempRefs) - 1, nil
}

// UnpinTempRef releases the pin at handle (and everything pinned after
// it, matching the stack discipline the name implies).
func (vm *Interpreter) UnpinTempRef(handle int) {
	if handle < 0 || handle >= len(vm.tempRefs) {
		return
	}
	vm.tempRefs = vm.tempRefs[:handle]
}

// TempRefs exposes the pinned set for gcAdapter's root walk.
func (vm *Interpreter) TempRefs() []value.Object { return vm.tempRefs }

func New(modules *module.Registry) *Interpreter {
	vm := &Interpreter{
		Modules:  modules,
		Builtins: make(map[string]*value.Function),
		Out:      os.Stdout,
		Context:  context.Background(),
	}
	vm.GC = newGCAdapter(vm)
	registerBuiltins(vm)
	return vm
}

// RuntimeError is an uncaught script error, carrying the fiber-local
// description of where it happened (spec.md §7).
type RuntimeError struct {
	Message string
	Module  string
	Line    int
}

func (e *RuntimeError) Error() string {
	if e.Module != "" {
		return fmt.Sprintf("%s:%d: %s", e.Module, e.Line, e.Message)
	}
	return e.Message
}

func (vm *Interpreter) RuntimeError(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	re := &RuntimeError{Message: msg}
	if f := vm.current; f != nil {
		if fr := f.CurrentFrame(); fr != nil {
			re.Line = fr.Closure.Function.Chunk.LineAt(fr.IP)
			if fr.Closure.Function.Owner != nil {
				re.Module = fr.Closure.Function.Owner.Name
			}
		}
	}
	return re
}

// Run starts a fresh root fiber over closure and drives it to completion,
// per spec.md §4.5 (equivalent to "run()" on a NEW fiber).
func (vm *Interpreter) Run(closure *value.Closure, args []value.Value) (value.Value, error) {
	fiber := vm.GC.NewFiber(closure)
	vm.root = fiber
	return vm.runFiber(fiber, args)
}

// NewString/NewList/NewMap satisfy value.NativeVM for builtins, routing
// through vm.GC so allocations native code makes are tracked the same as
// ones the bytecode loop makes directly.
func (vm *Interpreter) NewString(s string) *value.String { return vm.GC.NewString(s) }
func (vm *Interpreter) NewList(items []value.Value) *value.List {
	return vm.GC.NewList(append([]value.Value(nil), items...))
}
func (vm *Interpreter) NewMap() *value.Map { return vm.GC.NewMap() }

// Call invokes callee with args from native code (value.NativeVM), used by
// builtins like list.map that take a function argument.
func (vm *Interpreter) Call(callee value.Value, args []value.Value) (value.Value, error) {
	return vm.callValue(callee, args)
}
