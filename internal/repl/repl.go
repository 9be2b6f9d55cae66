// Package repl implements pocket's read-eval-print loop (spec.md §6):
// prompt `>>> `, continuation prompt `... `, a persistent module whose
// constants/globals survive across inputs, and pretty-printed non-null
// results. Grounded on the teacher's persistent-module-cache pattern in
// cmd/funxy/main.go (funvibe-funxy), generalized from its per-import
// module cache to a single always-reused REPL module.
package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"pocket/internal/compiler"
	"pocket/internal/config"
	"pocket/internal/module"
	"pocket/internal/value"
	"pocket/internal/vm"
)

const (
	promptPrimary      = ">>> "
	promptContinuation = "... "
)

// Run drives the REPL over in/out until EOF or an unrecoverable error,
// returning a process exit code. Prompts are suppressed when out isn't a
// terminal (spec.md §6 describes prompts as part of interactive use; piped
// input/output has no user to show them to), detected via
// github.com/mattn/go-isatty the same way the teacher's terminal builtins
// do (funvibe-funxy internal/evaluator/builtins_term.go).
func Run(in io.Reader, out io.Writer, cfg *config.ProjectConfig) int {
	interactive := isTerminalWriter(out)

	mod := value.NewModule("<repl>")
	reg := module.NewRegistry(".", compiler.CompileModule)
	interp := vm.New(reg)
	interp.DebugMode = cfg.Debug
	interp.Out = out

	scanner := bufio.NewScanner(in)
	var buffered string
	prompt := promptPrimary

	for {
		if interactive {
			fmt.Fprint(out, prompt)
		}
		if !scanner.Scan() {
			if interactive {
				fmt.Fprintln(out)
			}
			return 0
		}
		line := scanner.Text()
		if buffered == "" {
			buffered = line
		} else {
			buffered += "\n" + line
		}

		closure, err := compiler.CompileREPLStatement(mod, []byte(buffered))
		if err != nil {
			var diags *compiler.Diagnostics
			if errors.As(err, &diags) && diags.AtEOF {
				prompt = promptContinuation
				continue
			}
			fmt.Fprintln(out, err)
			buffered = ""
			prompt = promptPrimary
			continue
		}

		buffered = ""
		prompt = promptPrimary
		closure.Function.Owner = mod
		if _, err := interp.Run(closure, nil); err != nil {
			fmt.Fprintln(out, err)
		}
	}
}

func isTerminalWriter(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
