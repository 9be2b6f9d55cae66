package compiler

import (
	"pocket/internal/bytecode"
	"pocket/internal/token"
	"pocket/internal/value"
)

// precedence levels, lowest to highest, following spec.md §4.3's Pratt
// table (assignment is not in this table: `=`/compound-assign is handled
// by postfix() right after an assignable target, wherever that target
// appears, including inside a nested expression).
type precedence int

const (
	precNone precedence = iota
	precOr
	precAnd
	precNot
	precEquality
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precRange
	precAdditive
	precMultiplicative
	precUnary
	precExponent
	precPostfix
	precPrimary
)

// expression parses one expression at or above minPrec and leaves its
// value on the stack.
func (c *Compiler) expression() { c.parsePrecedence(precOr) }

func (c *Compiler) parsePrecedence(min precedence) {
	c.unaryOrPrimary()
	for {
		prec, ok := infixPrecedence(c.cur.Kind)
		if !ok || prec < min {
			return
		}
		c.infix(prec)
	}
}

func infixPrecedence(k token.Kind) (precedence, bool) {
	switch k {
	case token.OR:
		return precOr, true
	case token.AND:
		return precAnd, true
	case token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE, token.IS, token.IN:
		return precEquality, true
	case token.PIPE:
		return precBitOr, true
	case token.CARET:
		return precBitXor, true
	case token.AMP:
		return precBitAnd, true
	case token.LSHIFT, token.RSHIFT:
		return precShift, true
	case token.DOTDOT:
		return precRange, true
	case token.PLUS, token.MINUS:
		return precAdditive, true
	case token.STAR, token.SLASH, token.PERCENT:
		return precMultiplicative, true
	case token.STARSTAR:
		return precExponent, true
	default:
		return precNone, false
	}
}

func (c *Compiler) infix(prec precedence) {
	op := c.cur.Kind
	line := c.cur.Line
	c.advance()

	switch op {
	case token.OR:
		jmp := c.emitJump(bytecode.OpOr)
		c.parsePrecedence(precAnd)
		c.patchJump(jmp)
		return
	case token.AND:
		jmp := c.emitJump(bytecode.OpAnd)
		c.parsePrecedence(precNot)
		c.patchJump(jmp)
		return
	}

	// Right-associative exponent recurses into itself; everything else is
	// left-associative and recurses into the next-higher precedence.
	next := prec + 1
	if op == token.STARSTAR {
		next = prec
	}
	c.parsePrecedence(next)
	_ = line

	switch op {
	case token.EQ:
		c.emitOp(bytecode.OpEqEq)
	case token.NE:
		c.emitOp(bytecode.OpNotEq)
	case token.LT:
		c.emitOp(bytecode.OpLt)
	case token.LE:
		c.emitOp(bytecode.OpLtEq)
	case token.GT:
		c.emitOp(bytecode.OpGt)
	case token.GE:
		c.emitOp(bytecode.OpGtEq)
	case token.IS:
		c.emitOp(bytecode.OpIs)
	case token.IN:
		c.emitOp(bytecode.OpIn)
	case token.PIPE:
		c.emitOp(bytecode.OpBitOr)
		c.emitByte(0)
	case token.CARET:
		c.emitOp(bytecode.OpBitXor)
		c.emitByte(0)
	case token.AMP:
		c.emitOp(bytecode.OpBitAnd)
		c.emitByte(0)
	case token.LSHIFT:
		c.emitOp(bytecode.OpBitLShift)
		c.emitByte(0)
	case token.RSHIFT:
		c.emitOp(bytecode.OpBitRShift)
		c.emitByte(0)
	case token.DOTDOT:
		c.emitOp(bytecode.OpRange)
	case token.PLUS:
		c.emitOp(bytecode.OpAdd)
		c.emitByte(0)
	case token.MINUS:
		c.emitOp(bytecode.OpSubtract)
		c.emitByte(0)
	case token.STAR:
		c.emitOp(bytecode.OpMultiply)
		c.emitByte(0)
	case token.SLASH:
		c.emitOp(bytecode.OpDivide)
		c.emitByte(0)
	case token.PERCENT:
		c.emitOp(bytecode.OpMod)
		c.emitByte(0)
	case token.STARSTAR:
		c.emitOp(bytecode.OpExponent)
		c.emitByte(0)
	}
}

func (c *Compiler) unaryOrPrimary() {
	switch c.cur.Kind {
	case token.NOT:
		c.advance()
		c.parsePrecedence(precNot)
		c.emitOp(bytecode.OpNot)
	case token.MINUS:
		c.advance()
		c.parsePrecedence(precUnary)
		c.emitOp(bytecode.OpNegative)
	case token.PLUS:
		c.advance()
		c.parsePrecedence(precUnary)
		c.emitOp(bytecode.OpPositive)
	case token.TILDE:
		c.advance()
		c.parsePrecedence(precUnary)
		c.emitOp(bytecode.OpBitNot)
	default:
		c.postfix()
	}
}

// postfix parses a primary expression followed by any chain of call,
// attribute, and subscript operators, and handles assignment when the
// chain ends on an assignable target followed by `=` or a compound-assign
// operator (spec.md §4.4 GET_ATTRIB/SET_ATTRIB/GET_SUBSCRIPT/SET_SUBSCRIPT).
func (c *Compiler) postfix() {
	kind, v := c.primary()

	// A bare name is either the start of an assignment (handled here,
	// without ever loading the old value for a plain `=`) or a value to
	// load before any following ./[/( operators act on it.
	if kind == refName {
		resolved := c.resolveVariable(v.name)
		if assignOp, ok := c.tryAssignOp(); ok {
			target := resolved
			if target.kind == varUnresolved {
				if assignOp != bytecode.OpEnd {
					c.errorAt(c.prev, "compound assignment to undefined name '"+v.name+"'")
				}
				target = c.declareNewVariable(v.name)
			}
			if assignOp != bytecode.OpEnd {
				c.emitLoadVar(target)
			}
			c.finishCompoundOrPlain(assignOp, func() { c.emitStoreVar(target) })
			return
		}
		if resolved.kind == varUnresolved {
			c.errorAt(c.prev, "undefined name '"+v.name+"'")
			resolved = variable{kind: varGlobal, index: 0}
		}
		c.emitLoadVar(resolved)
		kind = refValue
	}

	for {
		switch c.cur.Kind {
		case token.DOT:
			c.advance()
			name := c.expect(token.IDENT, "expected attribute name after '.'").Lexeme
			if assignOp, ok := c.tryAssignOp(); ok {
				c.emitOp(bytecode.OpGetAttribKeep)
				c.emitU16(uint16(c.internName(name)))
				c.finishCompoundOrPlain(assignOp, func() {
					c.emitOp(bytecode.OpSetAttrib)
					c.emitU16(uint16(c.internName(name)))
				})
				return
			}
			if c.check(token.LPAREN) {
				c.advance()
				argc := c.argumentList(token.RPAREN)
				c.emitOp(bytecode.OpMethodCall)
				c.emitByte(byte(argc))
				c.emitU16(uint16(c.internName(name)))
				kind = refValue
				continue
			}
			c.emitOp(bytecode.OpGetAttrib)
			c.emitU16(uint16(c.internName(name)))
			kind = refAttrib

		case token.LBRACKET:
			c.advance()
			c.expression()
			c.expect(token.RBRACKET, "expected ']' after subscript")
			if assignOp, ok := c.tryAssignOp(); ok {
				c.emitOp(bytecode.OpGetSubscriptKeep)
				c.finishCompoundOrPlain(assignOp, func() {
					c.emitOp(bytecode.OpSetSubscript)
				})
				return
			}
			c.emitOp(bytecode.OpGetSubscript)
			kind = refSubscript

		case token.LPAREN:
			c.advance()
			argc := c.argumentList(token.RPAREN)
			c.emitOp(bytecode.OpCall)
			c.emitByte(byte(argc))
			kind = refValue

		default:
			return
		}
	}
}

type refKind int

const (
	refValue refKind = iota
	refName
	refAttrib
	refSubscript
)

type varKind int

const (
	varLocal varKind = iota
	varUpvalue
	varGlobal
	varBuiltin
	varUnresolved
)

type variable struct {
	kind  varKind
	index int
	name  string
}

// tryAssignOp consumes `=` or a compound-assign operator if present,
// reporting which arithmetic opcode (if any) the compound form implies.
func (c *Compiler) tryAssignOp() (bytecode.Op, bool) {
	switch c.cur.Kind {
	case token.ASSIGN:
		c.advance()
		return bytecode.OpEnd, true // OpEnd is the "plain assign" sentinel here
	case token.PLUS_ASSIGN:
		c.advance()
		return bytecode.OpAdd, true
	case token.MINUS_ASSIGN:
		c.advance()
		return bytecode.OpSubtract, true
	case token.STAR_ASSIGN:
		c.advance()
		return bytecode.OpMultiply, true
	case token.SLASH_ASSIGN:
		c.advance()
		return bytecode.OpDivide, true
	case token.PERCENT_ASSIGN:
		c.advance()
		return bytecode.OpMod, true
	case token.AMP_ASSIGN:
		c.advance()
		return bytecode.OpBitAnd, true
	case token.PIPE_ASSIGN:
		c.advance()
		return bytecode.OpBitOr, true
	case token.CARET_ASSIGN:
		c.advance()
		return bytecode.OpBitXor, true
	case token.LSHIFT_ASSIGN:
		c.advance()
		return bytecode.OpBitLShift, true
	case token.RSHIFT_ASSIGN:
		c.advance()
		return bytecode.OpBitRShift, true
	}
	return bytecode.OpEnd, false
}

// finishCompoundOrPlain parses the RHS, combines it with the value left by
// a preceding GET_*_KEEP (for compound ops), and calls emitSet to store it.
func (c *Compiler) finishCompoundOrPlain(op bytecode.Op, emitSet func()) {
	c.expression()
	if op != bytecode.OpEnd {
		c.emitOp(op)
		c.emitByte(1) // in-place flag: spec.md §4.4 arithmetic opcodes
	}
	emitSet()
}

// emitLoadVar and emitStoreVar translate a resolved variable reference into
// the corresponding opcode pair (spec.md §4.4's PUSH_LOCAL_N/PUSH_GLOBAL/
// PUSH_UPVALUE and their STORE_* counterparts).
func (c *Compiler) emitLoadVar(v variable) {
	switch v.kind {
	case varLocal:
		c.emitLoadLocal(v.index)
	case varUpvalue:
		c.emitOp(bytecode.OpPushUpvalue)
		c.emitByte(byte(v.index))
	case varGlobal:
		c.emitOp(bytecode.OpPushGlobal)
		c.emitByte(byte(v.index))
	case varBuiltin:
		c.emitOp(bytecode.OpPushBuiltinFn)
		c.emitU16(uint16(c.internName(v.name)))
	}
}

func (c *Compiler) emitStoreVar(v variable) {
	switch v.kind {
	case varLocal:
		c.emitStoreLocal(v.index)
	case varUpvalue:
		c.emitOp(bytecode.OpStoreUpvalue)
		c.emitByte(byte(v.index))
	case varGlobal:
		c.emitOp(bytecode.OpStoreGlobal)
		c.emitByte(byte(v.index))
	case varBuiltin:
		c.errorAt(c.prev, "cannot assign to a builtin")
	}
}

func (c *Compiler) emitLoadLocal(slot int) {
	if slot <= 8 {
		c.emitOp(bytecode.OpPushLocal0 + bytecode.Op(slot))
		return
	}
	c.emitOp(bytecode.OpPushLocalN)
	c.emitByte(byte(slot))
}

func (c *Compiler) emitStoreLocal(slot int) {
	if slot <= 8 {
		c.emitOp(bytecode.OpStoreLocal0 + bytecode.Op(slot))
		return
	}
	c.emitOp(bytecode.OpStoreLocalN)
	c.emitByte(byte(slot))
}

func (c *Compiler) internName(name string) int {
	return c.chunk.AddConstant(value.Obj(value.NewString(name)))
}
