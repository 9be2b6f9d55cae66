// Command pocket is the CLI front end for the pocket scripting language:
// run a script file, or launch the REPL when no file is given (spec.md §6).
package main

import (
	"fmt"
	"log"
	"os"

	"pocket/internal/compiler"
	"pocket/internal/config"
	"pocket/internal/module"
	"pocket/internal/repl"
	"pocket/internal/vm"
)

func main() {
	debug := false
	var scriptPath string
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--debug":
			debug = true
		case "--version", "-version":
			fmt.Println(config.Version)
			return
		default:
			if scriptPath == "" {
				scriptPath = arg
			}
		}
	}

	cfg, err := config.LoadProjectConfig(".")
	if err != nil {
		log.Fatalf("pocket: loading pocket.yaml: %v", err)
	}
	if cfg.Debug {
		debug = true
	}

	if scriptPath == "" {
		os.Exit(repl.Run(os.Stdin, os.Stdout, cfg))
	}
	os.Exit(runFile(scriptPath, cfg, debug))
}

// runFile compiles and executes a single source file, mirroring
// cmd/funxy/main.go's top-level "read file, compile, run, map errors to
// exit codes" shape (funvibe-funxy) trimmed to spec.md §6's run-a-script mode.
func runFile(path string, cfg *config.ProjectConfig, debug bool) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pocket: %v\n", err)
		return 1
	}
	src = config.StripBOM(src)

	closure, err := compiler.CompileModule(src, config.TrimSourceExt(path), path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	searchDir := cfg.ResolvedBaseDir(path)
	reg := module.NewRegistry(searchDir, compiler.CompileModule)
	interp := vm.New(reg)
	interp.DebugMode = debug

	if _, err := interp.Run(closure, nil); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}
