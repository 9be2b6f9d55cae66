package repl

import (
	"bytes"
	"strings"
	"testing"

	"pocket/internal/config"
)

func runREPL(t *testing.T, input string) string {
	t.Helper()
	var out bytes.Buffer
	code := Run(strings.NewReader(input), &out, &config.ProjectConfig{})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	return out.String()
}

func TestREPLPrintsExpressionResults(t *testing.T) {
	out := runREPL(t, "1 + 2\n")
	if out != "3\n" {
		t.Errorf("got %q, want %q", out, "3\n")
	}
}

func TestREPLAssignmentsDoNotPrint(t *testing.T) {
	out := runREPL(t, "x = 5\n")
	if out != "" {
		t.Errorf("expected an assignment to print nothing, got %q", out)
	}
}

func TestREPLGlobalsPersistAcrossLines(t *testing.T) {
	out := runREPL(t, "x = 5\nx + 1\n")
	if out != "6\n" {
		t.Errorf("got %q, want %q (expected x to persist as 5 from the previous line)", out, "6\n")
	}
}

func TestREPLReportsErrorsWithoutStoppingTheLoop(t *testing.T) {
	out := runREPL(t, "1 / 0\n2 + 2\n")
	if !strings.Contains(out, "4\n") {
		t.Errorf("expected the REPL to keep running after a runtime error, got %q", out)
	}
}

func TestREPLDoesNotPrintNonTerminalMultilineConstruct(t *testing.T) {
	out := runREPL(t, "if true then\nprint(1)\nend\n")
	if out != "1\n" {
		t.Errorf("got %q, want %q", out, "1\n")
	}
}
