package compiler

import (
	"strings"

	"pocket/internal/bytecode"
	"pocket/internal/token"
	"pocket/internal/value"
)

// statement parses and compiles one statement, per spec.md §4.3's grammar:
// class/def/import/from at any scope, if/while/for/break/continue/return
// inside blocks, and any bare expression-or-assignment statement.
func (c *Compiler) statement() {
	switch c.cur.Kind {
	case token.IF:
		c.ifStatement()
	case token.WHILE:
		c.whileStatement()
	case token.FOR:
		c.forStatement()
	case token.BREAK:
		c.breakStatement()
	case token.CONTINUE:
		c.continueStatement()
	case token.RETURN:
		c.returnStatement()
	case token.DEF:
		c.defDeclaration()
	case token.CLASS:
		c.classDeclaration()
	case token.IMPORT:
		c.importStatement()
	case token.FROM:
		c.fromImportStatement()
	case token.NATIVE:
		c.nativeDeclaration()
	default:
		c.expressionStatement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

// replStatement behaves like statement() but, for a bare expression that
// ends the REPL's input (only EOF/NEWLINE remains), prints the result via
// OP_REPL_PRINT instead of discarding it with OP_POP (spec.md §6:
// "non-null expression results are pretty-printed").
func (c *Compiler) replStatement() {
	isKeywordStmt := false
	switch c.cur.Kind {
	case token.IF, token.WHILE, token.FOR, token.BREAK, token.CONTINUE,
		token.RETURN, token.DEF, token.CLASS, token.IMPORT, token.FROM, token.NATIVE:
		isKeywordStmt = true
	}
	if isKeywordStmt {
		c.statement()
		return
	}

	c.expression()
	c.skipNewlines() // consuming the separators here is safe: the outer
	// loop in CompileREPLStatement would skip them next iteration anyway
	isLast := c.check(token.EOF)
	if isLast {
		c.emitOp(bytecode.OpReplPrint)
	} else {
		c.emitOp(bytecode.OpPop)
	}
	if c.panicMode {
		c.synchronize()
	}
}

// statementsUntil compiles statements until the current token matches one
// of terminators (or EOF), skipping the NEWLINE/SEMICOLON separators
// between them.
func (c *Compiler) statementsUntil(terminators ...token.Kind) {
	for {
		c.skipNewlines()
		if c.check(token.EOF) {
			return
		}
		for _, t := range terminators {
			if c.check(t) {
				return
			}
		}
		c.statement()
	}
}

// consumeBlockOpener accepts the `then` or `do` keyword that opens an
// if/while/for block body (spec.md §4.3 "delimited by do or then").
func (c *Compiler) consumeBlockOpener() {
	if c.match(token.THEN) || c.match(token.DO) {
		return
	}
	c.errorAt(c.cur, "expected 'then' or 'do' to open a block")
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.emitOp(bytecode.OpPop)
}

// ifStatement compiles `if cond then/do ... (elif cond then/do ...)* (else
// ...)? end`. Each branch's own scope is short-lived; the exit jumps from
// every taken branch converge right before the final `end`.
func (c *Compiler) ifStatement() {
	c.advance() // 'if'
	c.expression()
	c.consumeBlockOpener()

	var endJumps []int

	branchJump := c.emitJump(bytecode.OpJumpIfNot)
	c.emitOp(bytecode.OpPop)
	c.beginScope()
	c.statementsUntil(token.ELIF, token.ELSE, token.END)
	c.endScope()
	endJumps = append(endJumps, c.emitJump(bytecode.OpJump))
	c.patchJump(branchJump)
	c.emitOp(bytecode.OpPop)

	for c.check(token.ELIF) {
		c.advance()
		c.expression()
		c.consumeBlockOpener()
		nextJump := c.emitJump(bytecode.OpJumpIfNot)
		c.emitOp(bytecode.OpPop)
		c.beginScope()
		c.statementsUntil(token.ELIF, token.ELSE, token.END)
		c.endScope()
		endJumps = append(endJumps, c.emitJump(bytecode.OpJump))
		c.patchJump(nextJump)
		c.emitOp(bytecode.OpPop)
	}

	if c.match(token.ELSE) {
		c.beginScope()
		c.statementsUntil(token.END)
		c.endScope()
	}

	for _, j := range endJumps {
		c.patchJump(j)
	}
	c.expect(token.END, "expected 'end' to close 'if'")
}

// whileStatement compiles `while cond do/then ... end`.
func (c *Compiler) whileStatement() {
	c.advance() // 'while'
	baseSlots := c.slotCount
	loopStart := c.chunk.Len()
	c.expression()
	c.consumeBlockOpener()

	exitJump := c.emitJump(bytecode.OpJumpIfNot)
	c.emitOp(bytecode.OpPop)

	c.loop = &loopContext{enclosing: c.loop, baseSlots: baseSlots, continueTo: loopStart}
	c.beginScope()
	c.statementsUntil(token.END)
	c.endScope()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop)
	for _, j := range c.loop.breakJumps {
		c.patchJump(j)
	}
	c.loop = c.loop.enclosing

	c.expect(token.END, "expected 'end' to close 'while'")
}

// forStatement compiles `for name in expr do/then ... end` against the
// OP_ITER_TEST/OP_ITER protocol (spec.md §4.3/§4.4): the sequence and a
// hidden iteration index live in fixed hidden locals for the duration of
// the loop, with the per-iteration element landing directly in the loop
// variable's own slot.
func (c *Compiler) forStatement() {
	c.advance() // 'for'
	name := c.expect(token.IDENT, "expected loop variable after 'for'").Lexeme
	c.expect(token.IN, "expected 'in' after loop variable")

	c.beginScope()
	c.expression()
	c.declareLocal("@seq")
	c.emitConstant(value.IntFromInt64(-1))
	c.declareLocal("@idx")
	baseSlots := c.slotCount

	c.emitOp(bytecode.OpIterTest)

	loopStart := c.chunk.Len()
	c.loop = &loopContext{enclosing: c.loop, baseSlots: baseSlots, continueTo: loopStart}
	exitJump := c.emitJump(bytecode.OpIter)

	c.consumeBlockOpener()
	c.beginScope()
	c.declareLocal(name)
	c.statementsUntil(token.END)
	c.endScope()

	c.emitLoop(loopStart)
	c.patchJump(exitJump)
	for _, j := range c.loop.breakJumps {
		c.patchJump(j)
	}
	c.loop = c.loop.enclosing

	c.expect(token.END, "expected 'end' to close 'for'")
	c.endScope() // @idx, @seq
}

func (c *Compiler) breakStatement() {
	t := c.cur
	c.advance()
	if c.loop == nil {
		c.errorAt(t, "'break' used outside a loop")
		return
	}
	c.emitPopTo(c.loop.baseSlots)
	j := c.emitJump(bytecode.OpJump)
	c.loop.breakJumps = append(c.loop.breakJumps, j)
}

func (c *Compiler) continueStatement() {
	t := c.cur
	c.advance()
	if c.loop == nil {
		c.errorAt(t, "'continue' used outside a loop")
		return
	}
	c.emitPopTo(c.loop.baseSlots)
	c.emitLoop(c.loop.continueTo)
}

// returnStatement compiles `return [expr]`, rewriting a trailing plain
// call into a tail call per spec.md §4.3 emission highlights.
func (c *Compiler) returnStatement() {
	c.advance() // 'return'
	if c.atBlockBoundary() {
		c.emitOp(bytecode.OpPushNull)
		c.emitOp(bytecode.OpReturn)
		return
	}
	start := c.chunk.Len()
	c.expression()
	c.tryConvertTailCall(start)
	c.emitOp(bytecode.OpReturn)
}

func (c *Compiler) atBlockBoundary() bool {
	switch c.cur.Kind {
	case token.NEWLINE, token.SEMICOLON, token.EOF, token.END, token.ELIF, token.ELSE:
		return true
	}
	return false
}

// tryConvertTailCall rewrites a trailing OP_CALL into OP_TAIL_CALL when
// the expression just compiled for `return` ended in a plain call; the VM
// decides at runtime whether debug mode disables the actual frame reuse
// (spec.md §4.4 CALL/TAIL_CALL, §4.3 "OP_TAIL_CALL is emitted in place of
// OP_CALL when the last expression of a return is a call").
func (c *Compiler) tryConvertTailCall(start int) {
	n := c.chunk.Len()
	if n-start < 2 {
		return
	}
	if bytecode.Op(c.chunk.Code[n-2]) == bytecode.OpCall {
		c.chunk.Code[n-2] = byte(bytecode.OpTailCall)
	}
}

// defDeclaration compiles `def name(params) ... end`, sugar for `name =
// fn(params) ... end` except that name is declared before the body is
// compiled so direct recursion resolves (spec.md §4.3 scoping rules).
func (c *Compiler) defDeclaration() {
	c.advance() // 'def'
	name := c.expect(token.IDENT, "expected function name after 'def'").Lexeme
	v := c.declareNewVariable(name)
	fn := c.compileFunctionBody(name, false)
	c.emitClosure(fn)
	c.emitStoreVar(v)
	c.emitOp(bytecode.OpPop)
}

// classDeclaration compiles `class Name [is Super] (def method(...) ...
// end | native def method(...) end)* end` (spec.md §4.3/§4.4): the
// superclass expression is pushed, CREATE_CLASS builds the class object,
// and each method is compiled and attached with BIND_METHOD.
func (c *Compiler) classDeclaration() {
	c.advance() // 'class'
	name := c.expect(token.IDENT, "expected class name").Lexeme

	hasSuper := c.match(token.IS)
	if hasSuper {
		c.expression()
	} else {
		c.emitOp(bytecode.OpPushNull)
	}

	template := value.NewClass(name, nil)
	idx := c.chunk.AddConstant(value.Obj(template))
	c.emitOp(bytecode.OpCreateClass)
	c.emitU16(uint16(idx))

	c.currentClass = &classContext{enclosing: c.currentClass, hasSuper: hasSuper}

	c.skipNewlines()
	for !c.check(token.END) && !c.check(token.EOF) {
		switch {
		case c.check(token.DEF):
			c.advance()
			mname := c.expect(token.IDENT, "expected method name").Lexeme
			fn := c.compileFunctionBody(mname, true)
			c.emitClosure(fn)
			c.emitOp(bytecode.OpBindMethod)
		case c.check(token.NATIVE):
			c.classNativeMethod()
		default:
			c.errorAt(c.cur, "expected a method definition in class body")
			c.advance()
		}
		c.skipNewlines()
	}
	c.expect(token.END, "expected 'end' to close class body")

	c.currentClass = c.currentClass.enclosing

	v := c.declareNewVariable(name)
	c.emitStoreVar(v)
	c.emitOp(bytecode.OpPop)
}

// classNativeMethod compiles `native def name(params)` as a method stub
// with no script body: the host is expected to overwrite its Function via
// the embedding API before the method is ever called.
func (c *Compiler) classNativeMethod() {
	c.advance() // 'native'
	c.expect(token.DEF, "expected 'def' after 'native'")
	mname := c.expect(token.IDENT, "expected native method name").Lexeme
	arity := c.parseNativeParams()
	stub := nativeStub(mname, arity+1)
	cl := value.NewClosure(stub)
	idx := c.chunk.AddConstant(value.Obj(cl))
	c.emitOp(bytecode.OpPushConstant)
	c.emitU16(uint16(idx))
	c.emitOp(bytecode.OpBindMethod)
}

// nativeDeclaration compiles a top-level `native def name(params)`
// forward declaration: a callable placeholder the embedding host resolves
// by replacing its Function.Native hook (spec.md §6 "host functions...
// the slot API is the only legal way to mutate VM state from native
// code").
func (c *Compiler) nativeDeclaration() {
	c.advance() // 'native'
	c.expect(token.DEF, "expected 'def' after 'native'")
	name := c.expect(token.IDENT, "expected native function name").Lexeme
	arity := c.parseNativeParams()

	stub := nativeStub(name, arity)
	idx := c.chunk.AddConstant(value.Obj(stub))
	c.emitOp(bytecode.OpPushConstant)
	c.emitU16(uint16(idx))

	v := c.declareNewVariable(name)
	c.emitStoreVar(v)
	c.emitOp(bytecode.OpPop)
}

// parseNativeParams parses a native declaration's parameter list, which
// exists only to fix the function's arity (native bodies are supplied by
// the host, so parameter names are never referenced).
func (c *Compiler) parseNativeParams() int {
	c.expect(token.LPAREN, "expected '(' after native function name")
	arity := 0
	variadic := false
	for !c.check(token.RPAREN) {
		c.expect(token.IDENT, "expected parameter name")
		if c.match(token.STAR) {
			variadic = true
		}
		arity++
		if !c.match(token.COMMA) {
			break
		}
	}
	c.expect(token.RPAREN, "expected ')' after native parameters")
	if variadic {
		arity = -arity - 1
	}
	return arity
}

func nativeStub(name string, arity int) *value.Function {
	return value.NewNativeFunction(name, arity, func(vm value.NativeVM, args []value.Value) (value.Value, error) {
		return value.Undefined(), vm.RuntimeError("native function '%s' has no registered implementation", name)
	})
}

// parseImportPath reads a dotted (optionally `^`-parent-walking or
// `.`-relative) module path, e.g. `^a.b`, `.sibling`, `a.b.c` (spec.md §6
// import path mapping).
func (c *Compiler) parseImportPath() string {
	var path strings.Builder
	for c.check(token.CARET) {
		path.WriteByte('^')
		c.advance()
	}
	if c.check(token.DOT) {
		path.WriteByte('.')
		c.advance()
	}
	path.WriteString(c.expect(token.IDENT, "expected module name").Lexeme)
	for c.match(token.DOT) {
		path.WriteByte('.')
		path.WriteString(c.expect(token.IDENT, "expected module name").Lexeme)
	}
	return path.String()
}

func lastImportSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return strings.TrimLeft(path, "^.")
}

// importStatement compiles `import path [as alias] (, path [as alias])*`.
func (c *Compiler) importStatement() {
	c.advance() // 'import'
	for {
		path := c.parseImportPath()
		c.emitOp(bytecode.OpImport)
		c.emitU16(uint16(c.internName(path)))

		alias := lastImportSegment(path)
		if c.match(token.AS) {
			alias = c.expect(token.IDENT, "expected alias after 'as'").Lexeme
		}
		v := c.declareNewVariable(alias)
		c.emitStoreVar(v)
		c.emitOp(bytecode.OpPop)

		if !c.match(token.COMMA) {
			break
		}
	}
}

// fromImportStatement compiles `from path import name [as alias] (, name
// [as alias])*`, desugaring each imported name to GET_ATTRIB_KEEP on the
// freshly imported module (spec.md §4.3 emission highlights).
func (c *Compiler) fromImportStatement() {
	c.advance() // 'from'
	path := c.parseImportPath()
	c.expect(token.IMPORT, "expected 'import' after module path")

	c.emitOp(bytecode.OpImport)
	c.emitU16(uint16(c.internName(path)))

	for {
		name := c.expect(token.IDENT, "expected imported name").Lexeme
		alias := name
		if c.match(token.AS) {
			alias = c.expect(token.IDENT, "expected alias after 'as'").Lexeme
		}
		c.emitOp(bytecode.OpGetAttribKeep)
		c.emitU16(uint16(c.internName(name)))
		v := c.declareNewVariable(alias)
		c.emitStoreVar(v)
		c.emitOp(bytecode.OpPop)

		if !c.match(token.COMMA) {
			break
		}
	}
	c.emitOp(bytecode.OpPop) // drop the module value itself
}
