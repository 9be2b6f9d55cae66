package api

import (
	"testing"

	"pocket/internal/module"
	"pocket/internal/value"
	"pocket/internal/vm"
)

// stubCompile lets these tests exercise api.Slots without depending on
// internal/compiler, the same way internal/module's own tests avoid that
// dependency.
func stubCompile(src []byte, name, path string) (*value.Closure, error) {
	fn := value.NewScriptFunction(name, 0)
	return value.NewClosure(fn), nil
}

func newTestInterp(t *testing.T) *vm.Interpreter {
	t.Helper()
	return New(t.TempDir(), stubCompile)
}

func TestReserveGivesNullSlots(t *testing.T) {
	interp := newTestInterp(t)
	s := Reserve(interp, 3)
	defer s.Release()

	if s.Len() != 3 {
		t.Fatalf("expected Len() == 3, got %d", s.Len())
	}
	for i := 0; i < 3; i++ {
		v, err := s.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if !v.IsNull() {
			t.Errorf("expected slot %d to start null, got %s", i, value.Inspect(v))
		}
	}
}

func TestReserveAssignsDistinctIDs(t *testing.T) {
	interp := newTestInterp(t)
	a := Reserve(interp, 1)
	b := Reserve(interp, 1)
	defer a.Release()
	defer b.Release()

	if a.ID == "" {
		t.Fatal("expected a non-empty reservation ID")
	}
	if a.ID == b.ID {
		t.Error("expected two reservations to get distinct IDs")
	}
}

func TestSetGetPrimitives(t *testing.T) {
	interp := newTestInterp(t)
	s := Reserve(interp, 4)
	defer s.Release()

	if err := s.SetInt(0, 42); err != nil {
		t.Fatal(err)
	}
	if err := s.SetFloat(1, 3.5); err != nil {
		t.Fatal(err)
	}
	if err := s.SetBool(2, true); err != nil {
		t.Fatal(err)
	}
	if err := s.SetString(3, "hello"); err != nil {
		t.Fatal(err)
	}

	v0, _ := s.Get(0)
	if !v0.IsInt() || v0.AsInt() != 42 {
		t.Errorf("slot 0: got %s", value.Inspect(v0))
	}
	v1, _ := s.Get(1)
	if !v1.IsFloat() || v1.AsFloat() != 3.5 {
		t.Errorf("slot 1: got %s", value.Inspect(v1))
	}
	v2, _ := s.Get(2)
	if !v2.IsBool() || !v2.AsBool() {
		t.Errorf("slot 2: got %s", value.Inspect(v2))
	}
	str, err := s.GetString(3)
	if err != nil || str != "hello" {
		t.Errorf("slot 3: got %q, err=%v", str, err)
	}
}

func TestGetStringOnNonStringSlotIsError(t *testing.T) {
	interp := newTestInterp(t)
	s := Reserve(interp, 1)
	defer s.Release()

	if err := s.SetInt(0, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetString(0); err == nil {
		t.Fatal("expected GetString on an Int slot to error")
	}
}

func TestSetOutOfRangeIndexIsError(t *testing.T) {
	interp := newTestInterp(t)
	s := Reserve(interp, 2)
	defer s.Release()

	if err := s.SetInt(5, 1); err == nil {
		t.Fatal("expected an out-of-range Set to error")
	}
	if _, err := s.Get(-1); err == nil {
		t.Fatal("expected an out-of-range Get to error")
	}
}

func TestSetOverwritingAnObjectSlotUnpinsThePrevious(t *testing.T) {
	interp := newTestInterp(t)
	s := Reserve(interp, 1)
	defer s.Release()

	if err := s.SetString(0, "first"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetString(0, "second"); err != nil {
		t.Fatal(err)
	}
	str, err := s.GetString(0)
	if err != nil || str != "second" {
		t.Errorf("expected the second Set to win, got %q, err=%v", str, err)
	}
}

func TestReleaseClearsSlots(t *testing.T) {
	interp := newTestInterp(t)
	s := Reserve(interp, 2)
	if err := s.SetInt(0, 1); err != nil {
		t.Fatal(err)
	}
	s.Release()
	if s.Len() != 0 {
		t.Errorf("expected Len() == 0 after Release, got %d", s.Len())
	}
}

func TestCallSlotInvokesNativeFunction(t *testing.T) {
	interp := newTestInterp(t)
	double := value.NewNativeFunction("double", 1, func(nvm value.NativeVM, args []value.Value) (value.Value, error) {
		return value.Int(args[0].AsInt() * 2), nil
	})

	s := Reserve(interp, 3)
	defer s.Release()

	if err := s.Set(0, value.Obj(double)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetInt(1, 21); err != nil {
		t.Fatal(err)
	}
	if err := s.CallSlot(0, []int{1}, 2); err != nil {
		t.Fatalf("CallSlot: %v", err)
	}
	result, _ := s.Get(2)
	if !result.IsInt() || result.AsInt() != 42 {
		t.Errorf("expected 42, got %s", value.Inspect(result))
	}
}

func TestImportIntoLoadsCoreModule(t *testing.T) {
	interp := newTestInterp(t)
	s := Reserve(interp, 1)
	defer s.Release()

	if err := s.ImportInto(0, module.CoreModuleName, ""); err != nil {
		t.Fatalf("ImportInto: %v", err)
	}
	v, _ := s.Get(0)
	mod, ok := v.Obj.(*value.Module)
	if !ok {
		t.Fatalf("expected slot to hold a *value.Module, got %s", value.Inspect(v))
	}
	if mod.Name != module.CoreModuleName {
		t.Errorf("wrong module name: %q", mod.Name)
	}
}
