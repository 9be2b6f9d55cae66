package vm

import (
	"fmt"

	"pocket/internal/bytecode"
	"pocket/internal/value"
)

// exec is the fetch-decode-execute loop (spec.md §4.4). It runs until f's
// frame stack drains back down to floor frames (normal completion or a
// tail return out of a reentrant native call), an opcode panics with
// yieldSignal (handled by drive), or a runtime error is returned.
func (vm *Interpreter) exec(f *value.Fiber, floor int) (value.Value, error) {
	for {
		if len(f.Frames) <= floor {
			return f.Pop(), nil
		}
		fr := f.CurrentFrame()
		chunk := fr.Closure.Function.Chunk
		op := bytecode.Op(chunk.Code[fr.IP])
		fr.IP++

		switch op {
		case bytecode.OpPushConstant:
			idx := readU16(fr)
			f.Push(constantAt(fr, idx))

		case bytecode.OpPushNull:
			f.Push(value.Null())
		case bytecode.OpPush0:
			f.Push(value.Int(0))
		case bytecode.OpPushTrue:
			f.Push(value.Bool(true))
		case bytecode.OpPushFalse:
			f.Push(value.Bool(false))

		case bytecode.OpPushList:
			n := int(readU16(fr))
			items := make([]value.Value, n)
			for i := n - 1; i >= 0; i-- {
				items[i] = f.Pop()
			}
			f.Push(value.Obj(vm.GC.NewList(items)))

		case bytecode.OpPushMap:
			f.Push(value.Obj(vm.GC.NewMap()))

		case bytecode.OpPushSelf:
			f.Push(f.Stack[fr.Base])

		case bytecode.OpPushClosure:
			if err := vm.execPushClosure(f, fr); err != nil {
				return value.Undefined(), err
			}

		case bytecode.OpSwap:
			a, b := f.Pop(), f.Pop()
			f.Push(a)
			f.Push(b)
		case bytecode.OpDup:
			f.Push(f.Peek(0))
		case bytecode.OpPop:
			f.Pop()
		case bytecode.OpListAppend:
			v := f.Pop()
			lst := f.Peek(0).Obj.(*value.List)
			lst.Append(v)
		case bytecode.OpMapInsert:
			v := f.Pop()
			k := f.Pop()
			m := f.Peek(0).Obj.(*value.Map)
			m.Set(k, v)

		case bytecode.OpPushLocal0, bytecode.OpPushLocal1, bytecode.OpPushLocal2,
			bytecode.OpPushLocal3, bytecode.OpPushLocal4, bytecode.OpPushLocal5,
			bytecode.OpPushLocal6, bytecode.OpPushLocal7, bytecode.OpPushLocal8:
			slot := int(op - bytecode.OpPushLocal0)
			f.Push(f.Stack[fr.Base+slot])
		case bytecode.OpPushLocalN:
			slot := int(readU8(fr))
			f.Push(f.Stack[fr.Base+slot])

		case bytecode.OpStoreLocal0, bytecode.OpStoreLocal1, bytecode.OpStoreLocal2,
			bytecode.OpStoreLocal3, bytecode.OpStoreLocal4, bytecode.OpStoreLocal5,
			bytecode.OpStoreLocal6, bytecode.OpStoreLocal7, bytecode.OpStoreLocal8:
			slot := int(op - bytecode.OpStoreLocal0)
			f.Stack[fr.Base+slot] = f.Peek(0)
		case bytecode.OpStoreLocalN:
			slot := int(readU8(fr))
			f.Stack[fr.Base+slot] = f.Peek(0)

		case bytecode.OpPushGlobal:
			idx := int(readU8(fr))
			f.Push(fr.Closure.Function.Owner.Globals[idx])
		case bytecode.OpStoreGlobal:
			idx := int(readU8(fr))
			fr.Closure.Function.Owner.Globals[idx] = f.Peek(0)

		case bytecode.OpPushBuiltinFn:
			name := constantAt(fr, readU16(fr)).Obj.(*value.String).Value
			fn, ok := vm.Builtins[name]
			if !ok {
				return value.Undefined(), vm.RuntimeError("undefined builtin '%s'", name)
			}
			f.Push(value.Obj(fn))
		case bytecode.OpPushBuiltinTy:
			f.Push(value.Obj(vm.GC.NewString(constantAt(fr, readU16(fr)).Obj.(*value.String).Value)))

		case bytecode.OpPushUpvalue:
			idx := int(readU8(fr))
			f.Push(fr.Closure.Upvalues[idx].Get())
		case bytecode.OpStoreUpvalue:
			idx := int(readU8(fr))
			fr.Closure.Upvalues[idx].Set(f.Peek(0))
		case bytecode.OpCloseUpvalue:
			closeUpvaluesFrom(f, f.SP-1)
			f.Pop()

		case bytecode.OpJump:
			off := readU16(fr)
			fr.IP += int(off)
		case bytecode.OpLoop:
			off := readU16(fr)
			fr.IP -= int(off)
		case bytecode.OpJumpIf:
			off := readU16(fr)
			if f.Peek(0).IsTruthy() {
				fr.IP += int(off)
			}
		case bytecode.OpJumpIfNot:
			off := readU16(fr)
			if !f.Peek(0).IsTruthy() {
				fr.IP += int(off)
			}
		case bytecode.OpOr:
			off := readU16(fr)
			if f.Peek(0).IsTruthy() {
				fr.IP += int(off)
			} else {
				f.Pop()
			}
		case bytecode.OpAnd:
			off := readU16(fr)
			if !f.Peek(0).IsTruthy() {
				fr.IP += int(off)
			} else {
				f.Pop()
			}
		case bytecode.OpIterTest:
			if err := vm.execIterTest(f); err != nil {
				return value.Undefined(), err
			}
		case bytecode.OpIter:
			off := readU16(fr)
			cont, err := vm.execIter(f)
			if err != nil {
				return value.Undefined(), err
			}
			if !cont {
				fr.IP += int(off)
			}

		case bytecode.OpCall:
			argc := int(readU8(fr))
			if err := vm.execCall(f, argc, false); err != nil {
				return value.Undefined(), err
			}
		case bytecode.OpTailCall:
			argc := int(readU8(fr))
			if err := vm.execCall(f, argc, !vm.DebugMode); err != nil {
				return value.Undefined(), err
			}
		case bytecode.OpMethodCall:
			argc := int(readU8(fr))
			name := constantAt(fr, readU16(fr)).Obj.(*value.String).Value
			if err := vm.execMethodCall(f, name, argc); err != nil {
				return value.Undefined(), err
			}
		case bytecode.OpSuperCall:
			argc := int(readU8(fr))
			name := constantAt(fr, readU16(fr)).Obj.(*value.String).Value
			if err := vm.execSuperCall(f, name, argc); err != nil {
				return value.Undefined(), err
			}
		case bytecode.OpReturn:
			if err := vm.execReturn(f); err != nil {
				return value.Undefined(), err
			}
		case bytecode.OpEnd:
			return value.Undefined(), vm.RuntimeError("reached END sentinel")

		case bytecode.OpCreateClass:
			idx := readU16(fr)
			if err := vm.execCreateClass(f, fr, idx); err != nil {
				return value.Undefined(), err
			}
		case bytecode.OpBindMethod:
			if err := vm.execBindMethod(f); err != nil {
				return value.Undefined(), err
			}
		case bytecode.OpGetAttrib, bytecode.OpGetAttribKeep:
			name := constantAt(fr, readU16(fr)).Obj.(*value.String).Value
			if err := vm.execGetAttrib(f, name, op == bytecode.OpGetAttribKeep); err != nil {
				return value.Undefined(), err
			}
		case bytecode.OpSetAttrib:
			name := constantAt(fr, readU16(fr)).Obj.(*value.String).Value
			if err := vm.execSetAttrib(f, name); err != nil {
				return value.Undefined(), err
			}
		case bytecode.OpGetSubscript, bytecode.OpGetSubscriptKeep:
			if err := vm.execGetSubscript(f, op == bytecode.OpGetSubscriptKeep); err != nil {
				return value.Undefined(), err
			}
		case bytecode.OpSetSubscript:
			if err := vm.execSetSubscript(f); err != nil {
				return value.Undefined(), err
			}

		case bytecode.OpPositive, bytecode.OpNegative, bytecode.OpNot, bytecode.OpBitNot:
			if err := vm.execUnary(f, op); err != nil {
				return value.Undefined(), err
			}
		case bytecode.OpAdd, bytecode.OpSubtract, bytecode.OpMultiply, bytecode.OpDivide,
			bytecode.OpExponent, bytecode.OpMod, bytecode.OpBitAnd, bytecode.OpBitOr,
			bytecode.OpBitXor, bytecode.OpBitLShift, bytecode.OpBitRShift:
			inplace := readU8(fr) != 0
			if err := vm.execBinary(f, op, inplace); err != nil {
				return value.Undefined(), err
			}

		case bytecode.OpEqEq, bytecode.OpNotEq, bytecode.OpLt, bytecode.OpLtEq,
			bytecode.OpGt, bytecode.OpGtEq, bytecode.OpRange, bytecode.OpIn, bytecode.OpIs:
			if err := vm.execCompare(f, op); err != nil {
				return value.Undefined(), err
			}

		case bytecode.OpImport:
			name := constantAt(fr, readU16(fr)).Obj.(*value.String).Value
			if err := vm.execImport(f, name); err != nil {
				return value.Undefined(), err
			}

		case bytecode.OpReplPrint:
			v := f.Pop()
			if !v.IsVoid() && !v.IsNull() {
				fmt.Fprintln(vm.Out, value.Inspect(v))
			}

		default:
			return value.Undefined(), vm.RuntimeError("unknown opcode %d", byte(op))
		}
	}
}

func readU8(fr *value.CallFrame) byte {
	b := fr.Closure.Function.Chunk.Code[fr.IP]
	fr.IP++
	return b
}

func readU16(fr *value.CallFrame) uint16 {
	v := fr.Closure.Function.Chunk.ReadU16(fr.IP)
	fr.IP += 2
	return v
}

func constantAt(fr *value.CallFrame, idx uint16) value.Value {
	return fr.Closure.Function.Chunk.Constants[idx]
}
