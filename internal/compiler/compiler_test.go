package compiler

import (
	"testing"

	"pocket/internal/value"
)

func TestCompileModuleBasicArithmetic(t *testing.T) {
	closure, err := CompileModule([]byte("x = 1 + 2 * 3"), "test", "")
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	if closure.Function.Name != "<module>" {
		t.Errorf("wrong function name: got=%q", closure.Function.Name)
	}
}

func TestCompileModuleSyntaxErrorStopsStatement(t *testing.T) {
	_, err := CompileModule([]byte("x = "), "test", "")
	if err == nil {
		t.Fatal("expected a syntax error for a dangling assignment")
	}
	var diags *Diagnostics
	if !as(err, &diags) {
		t.Fatalf("expected a *Diagnostics error, got %T", err)
	}
	if len(diags.Errors) == 0 {
		t.Fatal("expected at least one diagnostic")
	}
}

func TestCompileModuleUndefinedNameIsError(t *testing.T) {
	_, err := CompileModule([]byte("print(totally_unknown_name)"), "test", "")
	if err == nil {
		t.Fatal("expected a compile error referencing an undefined name")
	}
}

func TestCompileModuleBuiltinNamesResolve(t *testing.T) {
	for _, src := range []string{
		"print(1)",
		"type(1)",
		"length([1])",
		"fiber(fn() end)",
		"Fiber(fn() end)",
	} {
		if _, err := CompileModule([]byte(src), "test", ""); err != nil {
			t.Errorf("expected %q to compile as a builtin call, got error: %v", src, err)
		}
	}
}

func TestCompileREPLStatementPersistsGlobals(t *testing.T) {
	mod := value.NewModule("<repl>")

	closure, err := CompileREPLStatement(mod, []byte("x = 5\n"))
	if err != nil {
		t.Fatalf("unexpected error compiling first statement: %v", err)
	}
	if closure == nil {
		t.Fatal("expected a non-nil closure")
	}
	if mod.GlobalIndex("x") < 0 {
		t.Fatal("expected 'x' to be defined as a module global after the first statement")
	}

	_, err = CompileREPLStatement(mod, []byte("x + 1"))
	if err != nil {
		t.Fatalf("unexpected error compiling second statement: %v", err)
	}
	if mod.GlobalIndex("x") < 0 {
		t.Fatal("'x' should still be defined after compiling a second, unrelated statement")
	}
}

func TestCompileREPLStatementRollsBackOnFailure(t *testing.T) {
	mod := value.NewModule("<repl>")

	if _, err := CompileREPLStatement(mod, []byte("y = 1\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	constCount := len(mod.Constants)
	globalCount := len(mod.Globals)

	if _, err := CompileREPLStatement(mod, []byte("z = \n")); err == nil {
		t.Fatal("expected a compile error for a dangling assignment")
	}

	if len(mod.Constants) != constCount || len(mod.Globals) != globalCount {
		t.Errorf("expected rollback after a failed parse: constants %d->%d, globals %d->%d",
			constCount, len(mod.Constants), globalCount, len(mod.Globals))
	}
}

func TestCompileREPLStatementDetectsAtEOF(t *testing.T) {
	mod := value.NewModule("<repl>")
	_, err := CompileREPLStatement(mod, []byte("if true then"))
	if err == nil {
		t.Fatal("expected an error for an unterminated if statement")
	}
	var diags *Diagnostics
	if !as(err, &diags) {
		t.Fatalf("expected a *Diagnostics error, got %T", err)
	}
	if !diags.AtEOF {
		t.Error("expected AtEOF to be set for input that ran out of tokens mid-construct")
	}
}

// as is a tiny errors.As wrapper kept local to this file so the test above
// reads top-to-bottom without an extra import alias.
func as(err error, target **Diagnostics) bool {
	d, ok := err.(*Diagnostics)
	if ok {
		*target = d
	}
	return ok
}
