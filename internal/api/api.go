// Package api is the shape of pocket's embedding surface (spec.md §6,
// "out of this spec's core concern ... specified here only by its
// interface to the VM"): a slot-based API letting a host reserve value
// slots held by a Slots handle on a VM instance, read/write primitive and object values,
// call functions and methods, import modules, and release handles.
//
// Grounded on the teacher's pkg/embed.VM (funvibe-funxy) — Bind/Set/Get/
// Call/Eval over a *vm.VM — generalized from its reflect-based Go-value
// marshalling (out of this core's scope; spec.md says the embedding API's
// job is letting a host manipulate VM state, not auto-converting Go types)
// down to the slot-handle shape spec.md §6 actually asks for: every value
// a host holds is an index into a per-Slots array, objects pinned against
// the GC via the VM's temp-reference stack (spec.md §4.2) for exactly as
// long as the host holds the handle.
package api

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pocket/internal/module"
	"pocket/internal/value"
	"pocket/internal/vm"
)

// Slots is one host-reserved block of value slots on a VM instance. A host
// typically keeps one Slots per logical call into the VM; Release must be
// called when done so pinned objects stop rooting garbage. ID identifies
// this reservation across log lines when a host juggles several concurrent
// calls into the same Interpreter.
type Slots struct {
	vm     *vm.Interpreter
	values []value.Value
	pins   []int // per-slot temp-ref handle, -1 when the slot holds no object
	ID     string
}

// New creates a VM instance with a fresh module registry rooted at
// baseDir, mirroring the teacher's embed.New() (funvibe-funxy
// pkg/embed/vm.go) but exposing pocket's own compile hook instead of a
// fixed pipeline: the caller passes the CompileFunc, so internal/api does
// not import internal/compiler.
func New(baseDir string, compile module.CompileFunc) *vm.Interpreter {
	reg := module.NewRegistry(baseDir, compile)
	return vm.New(reg)
}

// Reserve allocates n value slots on interp, returning a Slots handle.
// Every slot starts out null (spec.md §6 "reserve N value slots").
func Reserve(interp *vm.Interpreter, n int) *Slots {
	s := &Slots{vm: interp, values: make([]value.Value, n), pins: make([]int, n), ID: uuid.NewString()}
	for i := range s.pins {
		s.pins[i] = -1
	}
	return s
}

// Release unpins every object slot still held. After Release, s must not
// be used again.
func (s *Slots) Release() {
	for i := range s.values {
		s.unpin(i)
	}
	s.values = nil
	s.pins = nil
}

func (s *Slots) unpin(i int) {
	if s.pins[i] >= 0 {
		s.vm.UnpinTempRef(s.pins[i])
		s.pins[i] = -1
	}
}

func (s *Slots) checkIndex(i int) error {
	if i < 0 || i >= len(s.values) {
		return fmt.Errorf("slot index %d out of range [0,%d)", i, len(s.values))
	}
	return nil
}

// Set stores v in slot i, pinning it against GC if it's a heap object.
func (s *Slots) Set(i int, v value.Value) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.unpin(i)
	s.values[i] = v
	if v.Kind == value.KindObj && v.Obj != nil {
		handle, err := s.vm.PinTempRef(v.Obj)
		if err != nil {
			return err
		}
		s.pins[i] = handle
	}
	return nil
}

// Get reads slot i.
func (s *Slots) Get(i int) (value.Value, error) {
	if err := s.checkIndex(i); err != nil {
		return value.Undefined(), err
	}
	return s.values[i], nil
}

// SetNull/SetBool/SetInt/SetFloat/SetString are typed convenience setters
// over Set, matching the primitive-value half of spec.md §6's slot API.
func (s *Slots) SetNull(i int) error    { return s.Set(i, value.Null()) }
func (s *Slots) SetBool(i int, b bool) error {
	return s.Set(i, value.Bool(b))
}
func (s *Slots) SetInt(i int, n int32) error { return s.Set(i, value.Int(n)) }
func (s *Slots) SetFloat(i int, f float64) error {
	return s.Set(i, value.Float(f))
}
func (s *Slots) SetString(i int, str string) error {
	return s.Set(i, value.Obj(s.vm.GC.NewString(str)))
}

// GetString reads slot i as a string, erroring if it isn't one.
func (s *Slots) GetString(i int) (string, error) {
	v, err := s.Get(i)
	if err != nil {
		return "", err
	}
	str, ok := v.Obj.(*value.String)
	if v.Kind != value.KindObj || !ok {
		return "", errors.New("slot does not hold a string")
	}
	return str.Value, nil
}

// CallSlot invokes the closure/function/method-bind in calleeSlot with the
// values currently in argSlots, storing the result in resultSlot.
func (s *Slots) CallSlot(calleeSlot int, argSlots []int, resultSlot int) error {
	callee, err := s.Get(calleeSlot)
	if err != nil {
		return err
	}
	args := make([]value.Value, len(argSlots))
	for i, slot := range argSlots {
		v, err := s.Get(slot)
		if err != nil {
			return err
		}
		args[i] = v
	}
	result, err := s.vm.Call(callee, args)
	if err != nil {
		return err
	}
	return s.Set(resultSlot, result)
}

// ImportInto loads module name (relative to fromDir) into slot i, driving
// the same module.Registry/IMPORT-opcode path a running script's `import`
// statement uses (spec.md §6 import path mapping).
func (s *Slots) ImportInto(i int, name, fromDir string) error {
	mod, err := s.vm.Modules.Load(name, fromDir, func(body *value.Closure) error {
		_, err := s.vm.Call(value.Obj(body), nil)
		return err
	})
	if err != nil {
		return err
	}
	return s.Set(i, value.Obj(mod))
}

// Len reports how many slots s reserved.
func (s *Slots) Len() int { return len(s.values) }
