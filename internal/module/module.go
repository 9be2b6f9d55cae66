// Package module resolves pocket import names to source files and caches
// the resulting runtime value.Module objects, mirroring the teacher's
// internal/modules loader (funvibe-funxy) but reduced to pure path
// resolution plus caching — compilation itself is supplied by the caller
// (internal/vm) via CompileFunc, so this package does not import
// internal/compiler.
package module

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"pocket/internal/config"
	"pocket/internal/value"
)

// CoreModuleName is the one builtin module every script can `import` even
// without a file on disk (SPEC_FULL.md §6), so the IMPORT opcode and the
// "a module runs at most once" invariant are exercisable without a
// standard library (time/algorithm/regex/terminal stay out of scope per
// spec.md §1).
const CoreModuleName = "core"

// newCoreModule builds the synthetic "core" module's globals once; Load
// caches the result exactly like any file-backed module.
func newCoreModule() *value.Module {
	mod := value.NewModule(CoreModuleName)
	mod.DefineGlobal("version", value.Obj(value.NewString(config.Version)))
	mod.DefineGlobal("max_int", value.Int(2147483647))
	mod.DefineGlobal("min_int", value.Int(-2147483648))
	mod.Initialized = true
	return mod
}

// CompileFunc compiles source text into a module body closure, tying the
// name to the compiler's diagnostics.
type CompileFunc func(src []byte, name, path string) (*value.Closure, error)

// Registry resolves import names to files under BaseDir, compiles them on
// first import, and caches the resulting Module for subsequent imports
// (spec.md §6 "re-importing an already-loaded module returns the cached
// instance without recompiling or re-running its body").
type Registry struct {
	BaseDir string
	Compile CompileFunc

	cache map[string]*value.Module
}

func NewRegistry(baseDir string, compile CompileFunc) *Registry {
	return &Registry{
		BaseDir: baseDir,
		Compile: compile,
		cache:   make(map[string]*value.Module),
	}
}

// Resolve turns a dotted import name into a candidate filesystem path,
// relative to fromDir (the importing module's directory). "a.b.c" becomes
// "a/b/c.pk"; a leading "." is a same-directory relative import and a
// leading "^" walks up one directory per repetition, per spec.md §6.
func (r *Registry) Resolve(name, fromDir string) (string, error) {
	rel := name
	base := r.BaseDir
	if fromDir != "" {
		base = fromDir
	}

	for strings.HasPrefix(rel, "^") {
		rel = strings.TrimPrefix(rel, "^")
		base = filepath.Dir(base)
	}
	rel = strings.TrimPrefix(rel, ".")

	parts := strings.Split(rel, ".")
	for i, p := range parts {
		if p == "" {
			return "", errors.New("invalid import name: " + name)
		}
		parts[i] = p
	}
	candidate := filepath.Join(append([]string{base}, parts...)...)

	for _, ext := range config.SourceFileExtensions {
		if fileExists(candidate + ext) {
			return candidate + ext, nil
		}
	}
	if fileExists(candidate) {
		return candidate, nil
	}
	return "", os.ErrNotExist
}

// CachedModules returns every module currently loaded, for use as GC roots
// — a cached module can be reached again by a future import even when no
// running fiber references it anymore.
func (r *Registry) CachedModules() []*value.Module {
	mods := make([]*value.Module, 0, len(r.cache))
	for _, m := range r.cache {
		mods = append(mods, m)
	}
	return mods
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load resolves, compiles (on first use) and returns the Module for name,
// running its body closure exactly once (spec.md §6). runBody is called by
// internal/vm with the module's own Run so the module's top-level code
// executes under the importing fiber's interpreter.
//
// The module is registered in the cache and flagged Initialized before
// runBody is invoked, per spec.md's invariant that "a module's `initialized`
// flag is set true immediately before its body runs, preventing cyclic
// re-entry": an import reached again while the body is still executing (a
// cyclic import) finds the cache already populated and gets back the
// same, still-filling-in Module instead of re-running or re-entering it.
func (r *Registry) Load(name, fromDir string, runBody func(*value.Closure) error) (*value.Module, error) {
	if name == CoreModuleName {
		if m, ok := r.cache[CoreModuleName]; ok {
			return m, nil
		}
		m := newCoreModule()
		r.cache[CoreModuleName] = m
		return m, nil
	}

	path, err := r.Resolve(name, fromDir)
	if err != nil {
		return nil, err
	}
	if m, ok := r.cache[path]; ok {
		return m, nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	body, err := r.Compile(src, name, path)
	if err != nil {
		return nil, err
	}

	mod := value.NewModule(name)
	mod.Path = path
	mod.Body = body
	body.Function.Owner = mod

	r.cache[path] = mod
	mod.Initialized = true
	if err := runBody(body); err != nil {
		delete(r.cache, path)
		mod.Initialized = false
		return nil, err
	}
	return mod, nil
}
