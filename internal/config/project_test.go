package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeProjectFile(t *testing.T, dir, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ProjectConfigFile), []byte(contents), 0o644); err != nil {
		t.Fatalf("writing %s: %v", ProjectConfigFile, err)
	}
}

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadProjectConfig(dir)
	if err != nil {
		t.Fatalf("unexpected error loading absent %s: %v", ProjectConfigFile, err)
	}
	if cfg.MaxStackSize != DefaultMaxStackValues {
		t.Errorf("expected default MaxStackSize %d, got %d", DefaultMaxStackValues, cfg.MaxStackSize)
	}
	if cfg.Debug {
		t.Error("expected Debug to default to false")
	}
	if len(cfg.SearchPaths) != 0 {
		t.Errorf("expected no search paths by default, got %v", cfg.SearchPaths)
	}
}

func TestLoadProjectConfigParsesYAML(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "search_paths:\n  - lib\n  - vendor\ndebug: true\nmax_stack_size: 4096\n")

	cfg, err := LoadProjectConfig(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Debug {
		t.Error("expected debug: true to parse as Debug == true")
	}
	if cfg.MaxStackSize != 4096 {
		t.Errorf("wrong MaxStackSize: got=%d want=4096", cfg.MaxStackSize)
	}
	want := []string{"lib", "vendor"}
	if len(cfg.SearchPaths) != len(want) {
		t.Fatalf("wrong SearchPaths length: got=%v", cfg.SearchPaths)
	}
	for i := range want {
		if cfg.SearchPaths[i] != want[i] {
			t.Errorf("SearchPaths[%d] = %q, want %q", i, cfg.SearchPaths[i], want[i])
		}
	}
}

func TestLoadProjectConfigMalformedYAMLIsError(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "debug: [this is not a bool\n")

	if _, err := LoadProjectConfig(dir); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

func TestLoadProjectConfigZeroOrNegativeStackSizeFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "max_stack_size: 0\n")

	cfg, err := LoadProjectConfig(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxStackSize != DefaultMaxStackValues {
		t.Errorf("expected a non-positive max_stack_size to fall back to the default, got %d", cfg.MaxStackSize)
	}
}

func TestResolvedBaseDirPrefersSearchPath(t *testing.T) {
	cfg := &ProjectConfig{SearchPaths: []string{"lib", "vendor"}}
	if got := cfg.ResolvedBaseDir("/some/script.pk"); got != "lib" {
		t.Errorf("expected the first search path, got %q", got)
	}
}

func TestResolvedBaseDirFallsBackToScriptDir(t *testing.T) {
	cfg := &ProjectConfig{}
	if got := cfg.ResolvedBaseDir("/some/dir/script.pk"); got != "/some/dir" {
		t.Errorf("expected the script's own directory, got %q", got)
	}
}

func TestStripBOM(t *testing.T) {
	withBOM := append([]byte{0xef, 0xbb, 0xbf}, []byte("x = 1")...)
	if got := string(StripBOM(withBOM)); got != "x = 1" {
		t.Errorf("expected the BOM to be stripped, got %q", got)
	}
	noBOM := []byte("x = 1")
	if got := string(StripBOM(noBOM)); got != "x = 1" {
		t.Errorf("expected text without a BOM to pass through unchanged, got %q", got)
	}
}

func TestHasSourceExtAndTrimSourceExt(t *testing.T) {
	if !HasSourceExt("main.pk") || !HasSourceExt("lib.pocket") {
		t.Error("expected both .pk and .pocket to be recognized source extensions")
	}
	if HasSourceExt("main.go") {
		t.Error("expected .go to not be a recognized source extension")
	}
	if got := TrimSourceExt("main.pk"); got != "main" {
		t.Errorf("TrimSourceExt(main.pk) = %q, want %q", got, "main")
	}
	if got := TrimSourceExt("README"); got != "README" {
		t.Errorf("TrimSourceExt should pass through names with no recognized extension, got %q", got)
	}
}

func TestIsBuiltinFuncName(t *testing.T) {
	if !IsBuiltinFuncName(PrintFuncName) {
		t.Error("expected 'print' to be a recognized builtin name")
	}
	if !IsBuiltinFuncName(FiberCtorName) {
		t.Error("expected 'Fiber' to be a recognized builtin name")
	}
	if IsBuiltinFuncName("not_a_builtin") {
		t.Error("expected an arbitrary name to not be a recognized builtin")
	}
}
