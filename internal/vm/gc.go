package vm

import (
	"pocket/internal/gc"
	"pocket/internal/value"
)

// gcAdapter wraps internal/gc.Collector with the root set a running
// Interpreter actually has: the fiber chain currently executing (a fiber's
// Trace already walks its stack, frames and open upvalues) plus every
// builtin and cached module, which outlive any single fiber.
type gcAdapter struct {
	vm  *Interpreter
	col *gc.Collector
}

func newGCAdapter(vm *Interpreter) *gcAdapter {
	return &gcAdapter{vm: vm, col: gc.New()}
}

// Track registers a newly allocated heap object and collects immediately
// if the byte-accounted threshold has been crossed.
func (a *gcAdapter) Track(obj value.Object, size int64) {
	a.col.Track(obj, size)
	if a.col.ShouldCollect() {
		a.collect()
	}
}

// Rough per-kind byte estimates used to account allocations toward the
// collector's threshold (spec.md §4.2 "byte-accounted allocator"). These
// are deliberately approximate — the collector only needs a monotonic
// proxy for memory pressure, not an exact byte count.
const (
	stringBaseSize   = 32
	listBaseSize     = 48
	listItemSize     = 16
	mapBaseSize      = 64
	rangeSize        = 32
	fiberBaseSize    = 256
	closureBaseSize  = 64
	classBaseSize    = 96
	instanceBaseSize = 48
)

// NewString, NewList, ... allocate a value object via the matching
// value.New* constructor and register it with the collector in the same
// call, so every heap allocation a running script can trigger is tracked
// (spec.md §4.2 / §8's GC-safety expectations). internal/vm's opcode
// handlers and builtins call these instead of value.New* directly.
func (a *gcAdapter) NewString(s string) *value.String {
	v := value.NewString(s)
	a.Track(v, int64(len(s))+stringBaseSize)
	return v
}

func (a *gcAdapter) NewList(items []value.Value) *value.List {
	v := value.NewList(items)
	a.Track(v, int64(len(items))*listItemSize+listBaseSize)
	return v
}

func (a *gcAdapter) NewMap() *value.Map {
	v := value.NewMap()
	a.Track(v, mapBaseSize)
	return v
}

func (a *gcAdapter) NewRange(lo, hi float64) *value.Range {
	v := value.NewRange(lo, hi)
	a.Track(v, rangeSize)
	return v
}

func (a *gcAdapter) NewFiber(root *value.Closure) *value.Fiber {
	v := value.NewFiber(root)
	a.Track(v, fiberBaseSize)
	return v
}

func (a *gcAdapter) NewClosure(fn *value.Function) *value.Closure {
	v := value.NewClosure(fn)
	a.Track(v, closureBaseSize)
	return v
}

func (a *gcAdapter) NewInstance(cls *value.Class) *value.Instance {
	v := value.NewInstance(cls)
	a.Track(v, instanceBaseSize)
	return v
}

func (a *gcAdapter) NewClass(name string, owner *value.Module) *value.Class {
	v := value.NewClass(name, owner)
	a.Track(v, classBaseSize)
	return v
}

func (a *gcAdapter) collect() {
	var roots []value.Object
	if a.vm.current != nil {
		roots = append(roots, a.vm.current)
	}
	if a.vm.root != nil && a.vm.root != a.vm.current {
		roots = append(roots, a.vm.root)
	}
	if a.vm.hostFiber != nil && a.vm.hostFiber != a.vm.current {
		roots = append(roots, a.vm.hostFiber)
	}
	for _, fn := range a.vm.Builtins {
		roots = append(roots, fn)
	}
	if a.vm.Modules != nil {
		for _, m := range a.vm.Modules.CachedModules() {
			roots = append(roots, m)
		}
	}
	roots = append(roots, a.vm.tempRefs...)
	a.col.Collect(roots)
}

func (a *gcAdapter) BytesAllocated() int64 { return a.col.BytesAllocated() }
func (a *gcAdapter) Cycles() int           { return a.col.Cycles() }
