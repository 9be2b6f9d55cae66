// Package config holds build metadata and project-wide constants shared by
// the compiler, VM and CLI.
package config

// Version is the current pocket language version.
// Set at build time via -ldflags "-X pocket/internal/config.Version=...".
var Version = "0.1.0"

// SourceFileExt is the canonical source extension; import resolution tries
// every entry of SourceFileExtensions instead.
const SourceFileExt = ".pk"

// SourceFileExtensions are all recognized source file extensions, tried in
// order when resolving an import path to a file (see module.Resolve).
var SourceFileExtensions = []string{".pk", ".pocket"}

// TrimSourceExt removes a recognized source extension from a filename.
// Returns the original string if no extension matches.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt reports whether path ends with a recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// IsTestMode marks a test-mode run. The CLI has no subcommand that sets it;
// it stays false unless a caller assigns it.
var IsTestMode = false

// Names of the always-available constructs the compiler wires directly to
// opcodes or to the single built-in "core" module (SPEC_FULL.md §6).
const (
	PrintFuncName  = "print"
	LengthAttrName = "length"
	ClassAttrName  = "_class"
	DocsAttrName   = "_docs"
)

// BuiltinFuncNames lists every name the PUSH_BUILTIN_FN opcode can resolve,
// shared by the compiler (to decide an unresolved identifier is a builtin
// rather than a compile error) and the VM (which actually registers one
// *value.Function per name in internal/vm/builtins.go). A name appearing
// here but not registered in vm.Builtins would resolve at compile time and
// fail at call time, so the two lists must be kept identical; FiberCtorName
// aliases "fiber" so spec.md's "Fiber(...)" construction spelling compiles
// without its own opcode.
var BuiltinFuncNames = []string{
	PrintFuncName,
	"type",
	LengthAttrName,
	"yield",
	"list_join",
	"fiber",
	FiberCtorName,
	"resume",
}

// FiberCtorName is the capitalized constructor spelling spec.md's examples
// use for starting a fiber, e.g. `Fiber(fn() ... end)`.
const FiberCtorName = "Fiber"

// IsBuiltinFuncName reports whether name resolves via PUSH_BUILTIN_FN.
func IsBuiltinFuncName(name string) bool {
	for _, n := range BuiltinFuncNames {
		if n == name {
			return true
		}
	}
	return false
}

// Compiler limits spec.md §4.3 requires be enforced with semantic errors.
const (
	MaxLocals       = 256
	MaxGlobals      = 256
	MaxUpvalues     = 256
	MaxConstants    = 65536
	MaxJumpRange    = 65536
	MaxForwardNames = 256
	MaxBreakPatches = 256
	MaxInterpDepth  = 8
)

// DefaultMaxStackValues is the default ceiling on a fiber's value stack,
// expressed in Values (spec.md §5: "≈800 KiB of values by default").
const DefaultMaxStackValues = 800 * 1024 / 24
