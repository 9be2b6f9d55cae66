package compiler

import (
	"pocket/internal/bytecode"
	"pocket/internal/token"
	"pocket/internal/value"
)

// functionLiteral parses `fn(params) ... end` as an expression, emitting a
// PUSH_CLOSURE referencing a freshly compiled Function constant in the
// enclosing chunk (spec.md §4.3/§4.4).
func (c *Compiler) functionLiteral() (refKind, variable) {
	c.advance() // 'fn'
	fn := c.compileFunctionBody("<anonymous>", false)
	c.emitClosure(fn)
	return refValue, variable{}
}

// compileFunctionBody parses `(params) ... end` (the part after the
// introducing keyword) into a nested Compiler sharing this one's module,
// returning the resulting Function for the caller to turn into a closure.
// isMethod reserves local slot 0 for `self` instead of treating it as an
// ordinary parameter.
func (c *Compiler) compileFunctionBody(name string, isMethod bool) *value.Function {
	variadic := false
	c.expect(token.LPAREN, "expected '(' after function name")
	var params []string
	for !c.check(token.RPAREN) {
		p := c.expect(token.IDENT, "expected parameter name").Lexeme
		if c.match(token.STAR) {
			variadic = true
		}
		params = append(params, p)
		if !c.match(token.COMMA) {
			break
		}
	}
	c.expect(token.RPAREN, "expected ')' after parameters")

	arity := len(params)
	if variadic {
		arity = -arity - 1
	}

	sub := &Compiler{
		enclosing:    c,
		module:       c.module,
		fn:           value.NewScriptFunction(name, arity),
		lx:           c.lx,
		cur:          c.cur,
		prev:         c.prev,
		currentClass: c.currentClass,
	}
	sub.chunk = sub.fn.Chunk
	sub.fn.Owner = c.module
	sub.fn.IsMethod = isMethod
	sub.addLocal("self", 0)
	for _, p := range params {
		sub.declareLocal(p)
	}

	sub.skipNewlines()
	for !sub.check(token.END) && !sub.check(token.EOF) {
		sub.statement()
		sub.skipNewlines()
	}
	sub.expect(token.END, "expected 'end' to close function body")

	sub.emitOp(bytecode.OpPushNull)
	sub.emitOp(bytecode.OpReturn)

	sub.fn.StackSize = sub.maxSlots
	sub.fn.UpvalueCount = len(sub.upvalues)

	// Pull the sub-compiler's token stream position and diagnostics back
	// into this one, since they share a single lexer.
	c.cur, c.prev = sub.cur, sub.prev
	c.diags = append(c.diags, sub.diags...)
	c.subUpvalues = sub.upvalues

	return sub.fn
}

// emitClosure emits PUSH_CLOSURE for fn, registering it as a constant in
// this chunk and following with one (is_immediate, index) pair per
// upvalue the nested compiler recorded (spec.md §4.4 PUSH_CLOSURE operand).
func (c *Compiler) emitClosure(fn *value.Function) {
	idx := c.chunk.AddConstant(value.Obj(fn))
	c.emitOp(bytecode.OpPushClosure)
	c.emitU16(uint16(idx))
	for _, uv := range c.subUpvalues {
		if uv.IsLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(byte(uv.Index))
	}
	c.subUpvalues = nil
}
