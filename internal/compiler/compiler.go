// Package compiler implements pocket's single-pass compiler: a
// Pratt-precedence recursive-descent parser that emits bytecode directly,
// with no intermediate AST (spec.md §4.3). Local/upvalue resolution and the
// Compiler struct shape are ported from the teacher's
// internal/vm/compiler_scope.go (funvibe-funxy), whose own compiler sits
// downstream of a separate AST/analyzer pipeline; here the same resolution
// algorithm drives code generation directly off the token stream.
package compiler

import (
	"errors"
	"fmt"

	"pocket/internal/bytecode"
	"pocket/internal/config"
	"pocket/internal/lexer"
	"pocket/internal/token"
	"pocket/internal/value"
)

// Local is a declared name and the stack slot it occupies within the
// function currently being compiled.
type Local struct {
	Name       string
	Depth      int
	Slot       int
	IsCaptured bool
}

// Upvalue records how a function captures an enclosing local: Index is
// either a slot in the immediately enclosing function (IsLocal true) or an
// index into that function's own Upvalues (IsLocal false) — the same
// encoding PUSH_CLOSURE's operand pairs expect (spec.md §4.4).
type Upvalue struct {
	Index   int
	IsLocal bool
}

// loopContext tracks the patch lists a break/continue inside the current
// loop need, so the loop statements in statements.go can back-patch them
// once the loop's bounds are known.
type loopContext struct {
	enclosing  *loopContext
	continueTo int // LOOP target: top of the loop condition / iteration head
	breakJumps []int

	// baseSlots is the slotCount after a for loop's hidden iteration state
	// (@seq/@idx) and before the loop variable or body locals; break and
	// continue unwind the stack down to this depth before jumping so the
	// loop head always finds a consistent stack shape (spec.md §4.3
	// emission highlights: "patch both the exit and any accumulated
	// break sites").
	baseSlots int
}

// Compiler compiles one function body (the module top level counts as a
// function). enclosing links to the Compiler for the lexically surrounding
// function, letting resolveUpvalue walk outward exactly like the teacher's.
type Compiler struct {
	enclosing *Compiler
	module    *value.Module

	fn    *value.Function
	chunk *value.Chunk

	locals     []Local
	scopeDepth int
	slotCount  int
	maxSlots   int

	upvalues []Upvalue

	// subUpvalues carries the upvalue list of the most recently compiled
	// nested function body from compileFunctionBody to emitClosure, since
	// PUSH_CLOSURE's operand encoding is driven by the nested compiler's
	// resolution results, not this one's.
	subUpvalues []Upvalue

	loop *loopContext

	// isModule is true only for the outermost compiler driving a module's
	// top-level code; it decides whether a first assignment to an
	// unresolved bare name declares a module global or a function-local
	// (spec.md is silent on an explicit declaration keyword — this mirrors
	// the teacher's own implicit-declare-on-first-assignment behavior for
	// locals, generalized to globals at module scope).
	isModule bool

	currentClass *classContext

	// interpDepth counts nested ${...} string-interpolation expressions
	// currently being compiled, enforcing config.MaxInterpDepth.
	interpDepth int

	lx   *lexer.Lexer
	cur  token.Token
	prev token.Token

	diags       []error
	panicMode   bool
	sawEOFError bool

	// replMode is set only by CompileREPLStatement: a trailing bare
	// expression statement emits OP_REPL_PRINT instead of OP_POP so the
	// REPL can print non-null results (spec.md §4.4/§6).
	replMode bool
}

// classContext tracks whether the body currently being compiled is inside a
// class, and whether that class has a superclass (for SUPER_CALL/self
// validation).
type classContext struct {
	enclosing *classContext
	hasSuper  bool
}

// CompileModule compiles src as a fresh module body closure named name,
// per spec.md §4.3/§6. It is the function wired into module.CompileFunc.
func CompileModule(src []byte, name, path string) (*value.Closure, error) {
	mod := value.NewModule(name)
	mod.Path = path
	return compileBody(src, mod, nil)
}

// CompileREPLStatement compiles one REPL input into a fresh body closure
// that runs against mod's existing constants/globals, persisting them
// across calls (spec.md §6 "REPL persistence is achieved by reusing a
// module across compile calls with its constants/globals intact"). Also
// emits OP_REPL_PRINT for a trailing bare expression so the REPL can print
// its value, per spec.md §4.4's REPL_PRINT opcode.
//
// On a failed parse, mod's constants/globals are rolled back to the
// counts snapshotted at entry (spec.md §4.3 "a failed parse rolls back
// module constants and globals to the counts snapshotted at parse entry
// so a REPL can recover").
func CompileREPLStatement(mod *value.Module, src []byte) (*value.Closure, error) {
	constSnapshot := len(mod.Constants)
	globalSnapshot := len(mod.Globals)
	globalNameSnapshot := len(mod.GlobalNames)

	fn := value.NewScriptFunction("<repl>", 0)
	fn.Owner = mod

	c := &Compiler{
		module:   mod,
		fn:       fn,
		chunk:    fn.Chunk,
		lx:       lexer.New(string(src)),
		isModule: true,
		replMode: true,
	}
	c.addLocal("self", 0)

	c.advance()
	for !c.check(token.EOF) {
		c.skipNewlines()
		if c.check(token.EOF) {
			break
		}
		c.replStatement()
	}
	c.emitByte(byte(bytecode.OpPushNull))
	c.emitByte(byte(bytecode.OpReturn))

	fn.StackSize = c.maxSlots
	fn.UpvalueCount = len(c.upvalues)

	if len(c.diags) > 0 {
		mod.Constants = mod.Constants[:constSnapshot]
		mod.Globals = mod.Globals[:globalSnapshot]
		mod.GlobalNames = mod.GlobalNames[:globalNameSnapshot]
		return nil, &Diagnostics{Errors: c.diags, AtEOF: c.sawEOFError}
	}
	return value.NewClosure(fn), nil
}

// compileBody drives one Compiler from source to a finished module-level
// or nested function closure.
func compileBody(src []byte, mod *value.Module, enclosing *Compiler) (*value.Closure, error) {
	fn := value.NewScriptFunction("<module>", 0)
	fn.Owner = mod

	c := &Compiler{
		enclosing: enclosing,
		module:    mod,
		fn:        fn,
		chunk:     fn.Chunk,
		lx:        lexer.New(string(src)),
		isModule:  true,
	}
	c.addLocal("self", 0)

	c.advance()
	for !c.check(token.EOF) {
		c.skipNewlines()
		if c.check(token.EOF) {
			break
		}
		c.statement()
	}
	c.emitByte(byte(bytecode.OpPushNull))
	c.emitByte(byte(bytecode.OpReturn))

	fn.StackSize = c.maxSlots
	fn.UpvalueCount = len(c.upvalues)

	if len(c.diags) > 0 {
		return nil, &Diagnostics{Errors: c.diags, AtEOF: c.sawEOFError}
	}
	return value.NewClosure(fn), nil
}

// Diagnostics is the compiler's accumulated error sink (spec.md §7:
// "compile-time errors are accumulated ... reported to a host-supplied
// error sink"), implementing error via errors.Join so a host that only
// wants a single message can still print it directly. AtEOF marks a parse
// that failed because it ran out of tokens mid-construct — the REPL uses
// this to decide whether to print "unexpected EOF" and request another
// line instead of reporting a hard failure (spec.md §6).
type Diagnostics struct {
	Errors []error
	AtEOF  bool
}

func (d *Diagnostics) Error() string { return errors.Join(d.Errors...).Error() }
func (d *Diagnostics) Unwrap() []error { return d.Errors }

// --- token stream plumbing ---

func (c *Compiler) advance() {
	c.prev = c.cur
	for {
		tok, err := c.lx.Next()
		if err != nil {
			c.errorAt(tok, err.Error())
			continue
		}
		c.cur = tok
		if tok.Kind != token.ERROR {
			break
		}
		c.errorAt(tok, "lexer error: "+tok.Lexeme)
	}
}

func (c *Compiler) check(k token.Kind) bool { return c.cur.Kind == k }

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) expect(k token.Kind, msg string) token.Token {
	if c.cur.Kind == k {
		t := c.cur
		c.advance()
		return t
	}
	c.errorAt(c.cur, msg)
	return c.cur
}

// skipNewlines consumes statement-separator NEWLINE/SEMICOLON tokens; the
// grammar treats either as ending a statement (spec.md §9 glossary).
func (c *Compiler) skipNewlines() {
	for c.check(token.NEWLINE) || c.check(token.SEMICOLON) {
		c.advance()
	}
}

func (c *Compiler) errorAt(t token.Token, msg string) {
	if t.Kind == token.EOF {
		c.sawEOFError = true
	}
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.diags = append(c.diags, fmt.Errorf("%s:%d:%d: %s", c.module.Name, t.Line, t.Column, msg))
}

func (c *Compiler) synchronize() {
	c.panicMode = false
	for !c.check(token.EOF) {
		if c.prev.Kind == token.NEWLINE || c.prev.Kind == token.SEMICOLON {
			return
		}
		switch c.cur.Kind {
		case token.CLASS, token.DEF, token.FOR, token.IF, token.WHILE, token.RETURN, token.IMPORT:
			return
		}
		c.advance()
	}
}

// --- bytecode emission ---

func (c *Compiler) currentLine() int { return c.prev.Line }

func (c *Compiler) emitByte(b byte) { c.chunk.Write(b, c.currentLine()) }

func (c *Compiler) emitOp(op bytecode.Op) { c.emitByte(byte(op)) }

func (c *Compiler) emitU16(v uint16) { c.chunk.WriteU16(v, c.currentLine()) }

func (c *Compiler) emitConstant(v value.Value) {
	idx := c.chunk.AddConstant(v)
	if idx >= config.MaxConstants {
		c.errorAt(c.prev, "too many constants in one function")
	}
	c.emitOp(bytecode.OpPushConstant)
	c.emitU16(uint16(idx))
}

// emitJump writes op followed by a placeholder 16-bit offset and returns
// the offset of that placeholder, for patchJump to fill in later.
func (c *Compiler) emitJump(op bytecode.Op) int {
	c.emitOp(op)
	c.emitU16(0xffff)
	return c.chunk.Len() - 2
}

func (c *Compiler) patchJump(at int) {
	offset := c.chunk.Len() - at - 2
	if offset > 0xffff {
		c.errorAt(c.prev, "jump target out of range")
	}
	c.chunk.PatchU16(at, uint16(offset))
}

func (c *Compiler) emitLoop(target int) {
	c.emitOp(bytecode.OpLoop)
	offset := c.chunk.Len() - target + 2
	if offset > 0xffff {
		c.errorAt(c.prev, "loop body too large")
	}
	c.emitU16(uint16(offset))
}

func (c *Compiler) growSlot() int {
	c.slotCount++
	if c.slotCount > c.maxSlots {
		c.maxSlots = c.slotCount
	}
	return c.slotCount - 1
}
