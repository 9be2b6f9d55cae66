package vm

import (
	"path/filepath"

	"pocket/internal/value"
)

// execImport loads (or fetches from cache) the module named by name and
// pushes it, per spec.md §6. The module's body runs as a nested call on
// the current fiber so its top-level statements see the same fiber/call
// machinery as any other script code.
func (vm *Interpreter) execImport(f *value.Fiber, name string) error {
	fr := f.CurrentFrame()
	fromDir := ""
	if fr.Closure.Function.Owner != nil && fr.Closure.Function.Owner.Path != "" {
		fromDir = filepath.Dir(fr.Closure.Function.Owner.Path)
	}

	mod, err := vm.Modules.Load(name, fromDir, func(body *value.Closure) error {
		_, err := vm.callValue(value.Obj(body), nil)
		return err
	})
	if err != nil {
		return vm.RuntimeError("import '%s' failed: %v", name, err)
	}
	f.Push(value.Obj(mod))
	return nil
}
