package compiler

import (
	"math"
	"strconv"
	"strings"

	"pocket/internal/bytecode"
	"pocket/internal/config"
	"pocket/internal/lexer"
	"pocket/internal/token"
	"pocket/internal/value"
)

// primary parses a single atomic expression (literal, identifier, grouping,
// container literal, or function literal) and reports whether it resolved
// to an assignable name so postfix can handle a trailing `=`.
func (c *Compiler) primary() (refKind, variable) {
	t := c.cur
	switch t.Kind {
	case token.INT:
		c.advance()
		n, err := strconv.ParseInt(t.Lexeme, 0, 64)
		if err != nil || n < math.MinInt32 || n > math.MaxInt32 {
			c.errorAt(t, "integer literal out of range: "+t.Lexeme)
			n = 0
		}
		c.emitConstant(value.IntFromInt64(n))
		return refValue, variable{}

	case token.FLOAT:
		c.advance()
		f, _ := strconv.ParseFloat(t.Lexeme, 64)
		c.emitConstant(value.Float(f))
		return refValue, variable{}

	case token.STRING:
		c.advance()
		c.emitConstant(value.Obj(value.NewString(t.Lexeme)))
		return refValue, variable{}

	case token.STRING_INTERP:
		c.advance()
		c.compileInterpolatedString(t)
		return refValue, variable{}

	case token.TRUE:
		c.advance()
		c.emitOp(bytecode.OpPushTrue)
		return refValue, variable{}

	case token.FALSE:
		c.advance()
		c.emitOp(bytecode.OpPushFalse)
		return refValue, variable{}

	case token.NULL:
		c.advance()
		c.emitOp(bytecode.OpPushNull)
		return refValue, variable{}

	case token.SELF:
		c.advance()
		c.emitOp(bytecode.OpPushSelf)
		return refValue, variable{}

	case token.SUPER:
		c.advance()
		if c.currentClass == nil {
			c.errorAt(t, "'super' used outside a method")
		} else if !c.currentClass.hasSuper {
			c.errorAt(t, "'super' used in a class with no superclass")
		}
		c.expect(token.DOT, "expected '.' after 'super'")
		name := c.expect(token.IDENT, "expected method name after 'super.'").Lexeme
		c.expect(token.LPAREN, "expected '(' for super call")
		argc := c.argumentList(token.RPAREN)
		c.emitOp(bytecode.OpSuperCall)
		c.emitByte(byte(argc))
		c.emitU16(uint16(c.internName(name)))
		return refValue, variable{}

	case token.LPAREN:
		c.advance()
		c.skipNewlines()
		c.expression()
		c.skipNewlines()
		c.expect(token.RPAREN, "expected ')' after expression")
		return refValue, variable{}

	case token.LBRACKET:
		return c.listLiteral()

	case token.LBRACE:
		return c.mapLiteral()

	case token.FN:
		return c.functionLiteral()

	case token.IDENT:
		c.advance()
		// Resolution is deferred to postfix(): whether `name` loads an
		// existing variable or declares a new one depends on whether a
		// bare `=`/compound-assign immediately follows, which postfix()
		// checks with zero extra lookahead since c.cur is already
		// positioned right after this identifier.
		return refName, variable{kind: varUnresolved, name: t.Lexeme}

	default:
		c.errorAt(t, "expected an expression")
		c.advance()
		return refValue, variable{}
	}
}

// resolveVariable looks up name as a local, then upvalue, then global,
// without declaring anything; it reports varUnresolved if none match.
func (c *Compiler) resolveVariable(name string) variable {
	if slot := c.resolveLocal(name); slot != -1 {
		return variable{kind: varLocal, index: slot}
	}
	if up := c.resolveUpvalue(name); up != -1 {
		return variable{kind: varUpvalue, index: up}
	}
	if slot := c.module.GlobalIndex(name); slot >= 0 {
		return variable{kind: varGlobal, index: slot}
	}
	if config.IsBuiltinFuncName(name) {
		return variable{kind: varBuiltin, name: name}
	}
	return variable{kind: varUnresolved, name: name}
}

// declareNewVariable introduces name as a fresh local (inside a function)
// or module global (at module top level), per isModule.
func (c *Compiler) declareNewVariable(name string) variable {
	if c.isModule && c.scopeDepth == 0 {
		return variable{kind: varGlobal, index: c.declareGlobal(name)}
	}
	return variable{kind: varLocal, index: c.declareLocal(name)}
}

// listLiteral parses `[e1, e2, ...]`.
func (c *Compiler) listLiteral() (refKind, variable) {
	c.advance()
	c.skipNewlines()
	n := 0
	for !c.check(token.RBRACKET) {
		c.expression()
		n++
		c.skipNewlines()
		if !c.match(token.COMMA) {
			break
		}
		c.skipNewlines()
	}
	c.expect(token.RBRACKET, "expected ']' after list elements")
	c.emitOp(bytecode.OpPushList)
	c.emitU16(uint16(n))
	return refValue, variable{}
}

// mapLiteral parses `{k1: v1, k2: v2, ...}`.
func (c *Compiler) mapLiteral() (refKind, variable) {
	c.advance()
	c.skipNewlines()
	c.emitOp(bytecode.OpPushMap)
	for !c.check(token.RBRACE) {
		c.expression()
		c.skipNewlines()
		c.expect(token.COLON, "expected ':' after map key")
		c.skipNewlines()
		c.expression()
		c.emitOp(bytecode.OpMapInsert)
		c.skipNewlines()
		if !c.match(token.COMMA) {
			break
		}
		c.skipNewlines()
	}
	c.expect(token.RBRACE, "expected '}' after map entries")
	return refValue, variable{}
}

// interpPart is one piece of a STRING_INTERP literal's body: either a run
// of literal text, or the source text of an embedded $name/${expr} form.
type interpPart struct {
	text   string
	isExpr bool
}

// splitInterpolatedString walks a STRING_INTERP token's (already
// escape-decoded) Lexeme looking for the same $name/${expr} triggers the
// lexer used to flag it, per spec.md §4.3.
func splitInterpolatedString(raw string) []interpPart {
	var parts []interpPart
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, interpPart{text: lit.String()})
			lit.Reset()
		}
	}

	i, n := 0, len(raw)
	for i < n {
		ch := raw[i]
		if ch == '$' && i+1 < n {
			if raw[i+1] == '{' {
				flush()
				depth := 1
				j := i + 2
				for j < n && depth > 0 {
					switch raw[j] {
					case '{':
						depth++
					case '}':
						depth--
					}
					if depth == 0 {
						break
					}
					j++
				}
				parts = append(parts, interpPart{text: raw[i+2 : j], isExpr: true})
				if j < n {
					j++ // consume the closing '}'
				}
				i = j
				continue
			}
			if isIdentStartByte(raw[i+1]) {
				flush()
				j := i + 1
				for j < n && isIdentByte(raw[j]) {
					j++
				}
				parts = append(parts, interpPart{text: raw[i+1 : j], isExpr: true})
				i = j
				continue
			}
		}
		lit.WriteByte(ch)
		i++
	}
	flush()
	return parts
}

func isIdentStartByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentByte(b byte) bool {
	return isIdentStartByte(b) || (b >= '0' && b <= '9')
}

// compileInterpolatedString desugars a STRING_INTERP literal into
// `list_join([part, value, part, ...])`, per spec.md §4.3: "string
// interpolation ... is sugar ... supported to a fixed maximum depth".
func (c *Compiler) compileInterpolatedString(t token.Token) {
	if c.interpDepth >= config.MaxInterpDepth {
		c.errorAt(t, "string interpolation nested too deeply")
	}
	c.interpDepth++
	defer func() { c.interpDepth-- }()

	parts := splitInterpolatedString(t.Lexeme)

	c.emitOp(bytecode.OpPushBuiltinFn)
	c.emitU16(uint16(c.internName("list_join")))

	n := 0
	for _, p := range parts {
		if p.isExpr {
			c.compileSubExpression(p.text)
		} else {
			c.emitConstant(value.Obj(value.NewString(p.text)))
		}
		n++
	}
	if n == 0 {
		c.emitConstant(value.Obj(value.NewString("")))
		n = 1
	}
	c.emitOp(bytecode.OpPushList)
	c.emitU16(uint16(n))
	c.emitOp(bytecode.OpCall)
	c.emitByte(1)
}

// compileSubExpression parses src as a single expression using this same
// Compiler (so it resolves locals/upvalues normally), temporarily
// swapping in a fresh lexer over src and restoring the outer token stream
// afterward.
func (c *Compiler) compileSubExpression(src string) {
	savedLx, savedCur, savedPrev := c.lx, c.cur, c.prev
	c.lx = lexer.New(src)
	c.advance()
	c.expression()
	if !c.check(token.EOF) {
		c.errorAt(c.cur, "unexpected trailing tokens in interpolated expression")
	}
	c.lx, c.cur, c.prev = savedLx, savedCur, savedPrev
}

// argumentList parses a comma-separated expression list up to (and
// consuming) terminator, returning how many expressions it pushed.
func (c *Compiler) argumentList(terminator token.Kind) int {
	c.skipNewlines()
	n := 0
	for !c.check(terminator) {
		c.expression()
		n++
		c.skipNewlines()
		if !c.match(token.COMMA) {
			break
		}
		c.skipNewlines()
	}
	c.expect(terminator, "expected closing delimiter in argument list")
	return n
}
