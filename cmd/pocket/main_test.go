package main

import (
	"os"
	"path/filepath"
	"testing"

	"pocket/internal/config"
)

func writeScript(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "script.pk")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	return path
}

func TestRunFileExecutesScript(t *testing.T) {
	path := writeScript(t, `print(1 + 2)`)
	cfg := &config.ProjectConfig{MaxStackSize: config.DefaultMaxStackValues}
	if code := runFile(path, cfg, false); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
}

func TestRunFileMissingFileIsExitCodeOne(t *testing.T) {
	cfg := &config.ProjectConfig{MaxStackSize: config.DefaultMaxStackValues}
	if code := runFile(filepath.Join(t.TempDir(), "missing.pk"), cfg, false); code != 1 {
		t.Fatalf("expected exit code 1 for a missing file, got %d", code)
	}
}

func TestRunFileCompileErrorIsExitCodeOne(t *testing.T) {
	path := writeScript(t, `def broken(`)
	cfg := &config.ProjectConfig{MaxStackSize: config.DefaultMaxStackValues}
	if code := runFile(path, cfg, false); code != 1 {
		t.Fatalf("expected exit code 1 for a compile error, got %d", code)
	}
}

func TestRunFileRuntimeErrorIsExitCodeOne(t *testing.T) {
	path := writeScript(t, `x = 1 / 0`)
	cfg := &config.ProjectConfig{MaxStackSize: config.DefaultMaxStackValues}
	if code := runFile(path, cfg, false); code != 1 {
		t.Fatalf("expected exit code 1 for a runtime error, got %d", code)
	}
}

func TestRunFileStripsBOMBeforeCompiling(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.pk")
	contents := append([]byte("\xef\xbb\xbf"), []byte(`print("ok")`)...)
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	cfg := &config.ProjectConfig{MaxStackSize: config.DefaultMaxStackValues}
	if code := runFile(path, cfg, false); code != 0 {
		t.Fatalf("expected the BOM to be stripped and the script to run cleanly, got exit code %d", code)
	}
}
