package module

import (
	"os"
	"path/filepath"
	"testing"

	"pocket/internal/value"
)

// stubCompile satisfies CompileFunc without depending on internal/compiler,
// the way module.Registry itself takes its compiler as a CompileFunc.
func stubCompile(src []byte, name, path string) (*value.Closure, error) {
	fn := value.NewScriptFunction(name, 0)
	return value.NewClosure(fn), nil
}

func writeModuleFile(t *testing.T, dir, relPath, contents string) {
	t.Helper()
	full := filepath.Join(dir, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestResolveDottedImportName(t *testing.T) {
	dir := t.TempDir()
	writeModuleFile(t, dir, "a/b/c.pk", "")

	reg := NewRegistry(dir, stubCompile)
	path, err := reg.Resolve("a.b.c", "")
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if want := filepath.Join(dir, "a", "b", "c.pk"); path != want {
		t.Errorf("wrong resolved path: got=%q want=%q", path, want)
	}
}

func TestResolveMissingModuleIsError(t *testing.T) {
	reg := NewRegistry(t.TempDir(), stubCompile)
	if _, err := reg.Resolve("nope", ""); err == nil {
		t.Fatal("expected an error resolving a nonexistent module")
	}
}

func TestResolveParentWalk(t *testing.T) {
	dir := t.TempDir()
	writeModuleFile(t, dir, "sibling.pk", "")
	sub := filepath.Join(dir, "pkg")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	reg := NewRegistry(dir, stubCompile)
	path, err := reg.Resolve("^sibling", sub)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if want := filepath.Join(dir, "sibling.pk"); path != want {
		t.Errorf("wrong resolved path: got=%q want=%q", path, want)
	}
}

func TestLoadRunsBodyOnceAndCaches(t *testing.T) {
	dir := t.TempDir()
	writeModuleFile(t, dir, "once.pk", "x = 1")

	reg := NewRegistry(dir, stubCompile)
	runs := 0
	runBody := func(*value.Closure) error {
		runs++
		return nil
	}

	m1, err := reg.Load("once", "", runBody)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	m2, err := reg.Load("once", "", runBody)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if m1 != m2 {
		t.Error("expected re-importing the same module to return the identical cached instance")
	}
	if runs != 1 {
		t.Errorf("expected the module body to run exactly once, ran %d times", runs)
	}
}

// TestLoadCyclicReentrantImportReturnsSamePartialModule exercises spec.md's
// "initialized is set true immediately before its body runs, preventing
// cyclic re-entry" invariant: importing a module that is itself still in
// the middle of importing the first one again must not re-run its body or
// deadlock, it must get back the same (still-filling-in) Module instance.
func TestLoadCyclicReentrantImportReturnsSamePartialModule(t *testing.T) {
	dir := t.TempDir()
	writeModuleFile(t, dir, "cycle.pk", "")

	reg := NewRegistry(dir, stubCompile)
	var outer, reentrant *value.Module
	runs := 0
	runBody := func(body *value.Closure) error {
		runs++
		reentrant, _ = reg.Load("cycle", "", func(*value.Closure) error {
			t.Fatal("the cyclic reentrant import must not re-run the module body")
			return nil
		})
		return nil
	}
	var err error
	outer, err = reg.Load("cycle", "", runBody)
	if err != nil {
		t.Fatalf("unexpected outer load error: %v", err)
	}
	if runs != 1 {
		t.Fatalf("expected the body to run exactly once, ran %d times", runs)
	}
	if outer != reentrant {
		t.Error("expected the reentrant cyclic import to return the same Module instance")
	}
	if !reentrant.Initialized {
		t.Error("expected Initialized to already be true during the cyclic reentrant import")
	}
}

func TestLoadFailedBodyDoesNotCache(t *testing.T) {
	dir := t.TempDir()
	writeModuleFile(t, dir, "bad.pk", "")

	reg := NewRegistry(dir, stubCompile)
	attempts := 0
	runBody := func(*value.Closure) error {
		attempts++
		if attempts == 1 {
			return os.ErrInvalid
		}
		return nil
	}

	if _, err := reg.Load("bad", "", runBody); err == nil {
		t.Fatal("expected the first load to fail")
	}
	if _, err := reg.Load("bad", "", runBody); err != nil {
		t.Fatalf("expected a retry after a failed body to succeed, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected the body to be attempted twice after the first failure, got %d", attempts)
	}
}

func TestLoadCoreModuleRequiresNoFile(t *testing.T) {
	reg := NewRegistry(t.TempDir(), stubCompile)
	mod, err := reg.Load(CoreModuleName, "", func(*value.Closure) error {
		t.Fatal("the core module's body should never run")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error loading the core module: %v", err)
	}
	if mod.Name != CoreModuleName {
		t.Errorf("wrong module name: got=%q", mod.Name)
	}
	idx := mod.GlobalIndex("max_int")
	if idx < 0 {
		t.Fatal("expected core.max_int to be defined")
	}
	v := mod.Globals[idx]
	if !v.IsInt() || v.AsInt() != 2147483647 {
		t.Errorf("wrong core.max_int value: %s", value.Inspect(v))
	}
}

func TestLoadCoreModuleIsCachedAcrossCalls(t *testing.T) {
	reg := NewRegistry(t.TempDir(), stubCompile)
	m1, _ := reg.Load(CoreModuleName, "", func(*value.Closure) error { return nil })
	m2, _ := reg.Load(CoreModuleName, "", func(*value.Closure) error { return nil })
	if m1 != m2 {
		t.Error("expected the core module to be cached like any other module")
	}
}

func TestCachedModulesIncludesEveryLoadedModule(t *testing.T) {
	dir := t.TempDir()
	writeModuleFile(t, dir, "one.pk", "")
	writeModuleFile(t, dir, "two.pk", "")
	reg := NewRegistry(dir, stubCompile)
	noop := func(*value.Closure) error { return nil }

	if _, err := reg.Load("one", "", noop); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Load("two", "", noop); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Load(CoreModuleName, "", noop); err != nil {
		t.Fatal(err)
	}

	cached := reg.CachedModules()
	if len(cached) != 3 {
		t.Errorf("expected 3 cached modules, got %d", len(cached))
	}
}
