package vm

import (
	"errors"

	"pocket/internal/value"
)

var (
	errFiberNotNew     = errors.New("cannot run a fiber that isn't new")
	errFiberNotYielded = errors.New("cannot resume a fiber that isn't yielded or new")
	errFiberDone       = errors.New("fiber has already finished")
)

// yieldSignal unwinds the Go call stack out of exec() back up to runFiber
// when the running fiber yields (spec.md §4.5). It carries no payload: the
// yielded values are already stashed on the fiber by Interpreter.Yield
// (the yield builtin's body) before the panic/recover unwind, matching the teacher's
// early-return-via-sentinel-error pattern (funvibe-funxy internal/vm/vm.go
// errEarlyReturn) generalized to fiber suspension instead of just return.
type yieldSignal struct{}

// runFiber transitions fiber from NEW to RUNNING, executes it until it
// yields, finishes, or errors, and returns its produced value.
func (vm *Interpreter) runFiber(f *value.Fiber, args []value.Value) (value.Value, error) {
	if f.State != value.FiberNew {
		return value.Undefined(), errFiberNotNew
	}
	if err := ensureStack(f, InitialStackSize); err != nil {
		return value.Undefined(), err
	}
	f.Push(f.Self)
	for _, a := range args {
		f.Push(a)
	}
	if err := pushFrame(f, value.CallFrame{Closure: f.Root, Base: 0}); err != nil {
		return value.Undefined(), err
	}
	f.State = value.FiberRunning
	return vm.drive(f)
}

// Resume continues a YIELDED fiber, delivering resumeArg as OpYield's
// result on the yielded side (spec.md §4.5).
func (vm *Interpreter) Resume(f *value.Fiber, resumeArg value.Value) (value.Value, error) {
	if f.State != value.FiberYielded {
		return value.Undefined(), errFiberNotYielded
	}
	f.Push(resumeArg)
	f.State = value.FiberRunning
	return vm.drive(f)
}

// Yield suspends the currently-running fiber, handing control back to its
// caller with val as resume()'s apparent return value on the yielding side.
func (vm *Interpreter) Yield(val value.Value) (value.Value, error) {
	f := vm.current
	if f == nil || f.State != value.FiberRunning {
		return value.Undefined(), errors.New("yield called outside a running fiber")
	}
	f.Push(val)
	f.State = value.FiberYielded
	panic(yieldSignal{})
}

// drive swaps fiber in as current, runs the dispatch loop, and restores the
// previous current fiber on return/yield/error — the "fiber switch" of
// spec.md §4.5, reusing the same stack-by-index design that makes a fiber
// switch cheap (no pointer re-basing needed on either side).
func (vm *Interpreter) drive(f *value.Fiber) (result value.Value, err error) {
	prev := vm.current
	vm.current = f
	defer func() { vm.current = prev }()

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(yieldSignal); ok {
				result = f.Peek(0)
				f.Pop()
				return
			}
			panic(r)
		}
	}()

	v, execErr := vm.exec(f, 0)
	if execErr != nil {
		f.State = value.FiberDone
		f.Error = execErr.Error()
		return value.Undefined(), execErr
	}
	f.State = value.FiberDone
	return v, nil
}

// CurrentFiber exposes the running fiber to builtins (e.g. fiber.current).
func (vm *Interpreter) CurrentFiber() *value.Fiber { return vm.current }
