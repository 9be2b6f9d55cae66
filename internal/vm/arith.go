package vm

import (
	"math"
	"strings"

	"pocket/internal/bytecode"
	"pocket/internal/value"
)

func (vm *Interpreter) execUnary(f *value.Fiber, op bytecode.Op) error {
	v := f.Pop()
	switch op {
	case bytecode.OpPositive:
		if !v.IsNum() {
			return vm.RuntimeError("unary + requires a number")
		}
		f.Push(v)
	case bytecode.OpNegative:
		switch {
		case v.IsInt():
			f.Push(value.Int(-v.AsInt()))
		case v.IsFloat():
			f.Push(value.Float(-v.AsFloat()))
		default:
			return vm.RuntimeError("unary - requires a number")
		}
	case bytecode.OpNot:
		f.Push(value.Bool(!v.IsTruthy()))
	case bytecode.OpBitNot:
		if !v.IsInt() {
			return vm.RuntimeError("~ requires an int")
		}
		f.Push(value.Int(^v.AsInt()))
	}
	return nil
}

// execBinary implements the arithmetic/bitwise opcodes. inplace is the
// trailing flag the compiler emits for compound-assignment forms like
// `x += 1` (spec.md §4.4): when the left operand is a mutable collection
// (a List), the existing object is mutated and pushed back instead of
// allocating a fresh one, so other references to it observe the mutation.
// Strings aren't a mutable collection, so string += always allocates.
func (vm *Interpreter) execBinary(f *value.Fiber, op bytecode.Op, inplace bool) error {
	b := f.Pop()
	a := f.Pop()

	if op == bytecode.OpAdd {
		if as, ok := a.Obj.(*value.String); ok && a.Kind == value.KindObj {
			bs, ok := b.Obj.(*value.String)
			if !ok {
				return vm.RuntimeError("cannot concatenate string with %s", value.ClassNameOf(b))
			}
			f.Push(value.Obj(vm.GC.NewString(as.Value + bs.Value)))
			return nil
		}
		if al, ok := a.Obj.(*value.List); ok && a.Kind == value.KindObj {
			bl, ok := b.Obj.(*value.List)
			if !ok {
				return vm.RuntimeError("cannot concatenate list with %s", value.ClassNameOf(b))
			}
			if inplace {
				al.Items = append(al.Items, bl.Items...)
				f.Push(a)
				return nil
			}
			items := append(append([]value.Value(nil), al.Items...), bl.Items...)
			f.Push(value.Obj(vm.GC.NewList(items)))
			return nil
		}
	}

	if !a.IsNum() || !b.IsNum() {
		return vm.RuntimeError("operator requires numbers, got %s and %s", value.ClassNameOf(a), value.ClassNameOf(b))
	}

	bitwise := op == bytecode.OpBitAnd || op == bytecode.OpBitOr || op == bytecode.OpBitXor ||
		op == bytecode.OpBitLShift || op == bytecode.OpBitRShift
	if bitwise {
		if !a.IsInt() || !b.IsInt() {
			return vm.RuntimeError("bitwise operator requires ints")
		}
		x, y := a.AsInt(), b.AsInt()
		if (op == bytecode.OpBitLShift || op == bytecode.OpBitRShift) && (y < 0 || y >= 64) {
			return vm.RuntimeError("shift count %d out of range", y)
		}
		switch op {
		case bytecode.OpBitAnd:
			f.Push(value.Int(x & y))
		case bytecode.OpBitOr:
			f.Push(value.Int(x | y))
		case bytecode.OpBitXor:
			f.Push(value.Int(x ^ y))
		case bytecode.OpBitLShift:
			f.Push(value.Int(x << uint(y)))
		case bytecode.OpBitRShift:
			f.Push(value.Int(x >> uint(y)))
		}
		return nil
	}

	if a.IsInt() && b.IsInt() && op != bytecode.OpDivide && op != bytecode.OpExponent {
		x, y := a.AsInt(), b.AsInt()
		switch op {
		case bytecode.OpAdd:
			f.Push(value.Int(x + y))
		case bytecode.OpSubtract:
			f.Push(value.Int(x - y))
		case bytecode.OpMultiply:
			f.Push(value.Int(x * y))
		case bytecode.OpMod:
			if y == 0 {
				return vm.RuntimeError("modulo by zero")
			}
			f.Push(value.Int(x % y))
		}
		return nil
	}

	x, y := a.Float64(), b.Float64()
	switch op {
	case bytecode.OpAdd:
		f.Push(value.Float(x + y))
	case bytecode.OpSubtract:
		f.Push(value.Float(x - y))
	case bytecode.OpMultiply:
		f.Push(value.Float(x * y))
	case bytecode.OpDivide:
		if y == 0 {
			return vm.RuntimeError("division by zero")
		}
		f.Push(value.Float(x / y))
	case bytecode.OpExponent:
		f.Push(value.Float(math.Pow(x, y)))
	case bytecode.OpMod:
		f.Push(value.Float(math.Mod(x, y)))
	}
	return nil
}

func (vm *Interpreter) execCompare(f *value.Fiber, op bytecode.Op) error {
	b := f.Pop()
	a := f.Pop()

	switch op {
	case bytecode.OpEqEq:
		f.Push(value.Bool(value.Equals(a, b)))
		return nil
	case bytecode.OpNotEq:
		f.Push(value.Bool(!value.Equals(a, b)))
		return nil
	case bytecode.OpIs:
		ac, aok := valueObj(a).(*value.Instance)
		bc, bok := valueObj(b).(*value.Class)
		f.Push(value.Bool(aok && bok && ac.Class.IsSubclassOf(bc)))
		return nil
	case bytecode.OpRange:
		if !a.IsNum() || !b.IsNum() {
			return vm.RuntimeError(".. requires numbers")
		}
		f.Push(value.Obj(vm.GC.NewRange(a.Float64(), b.Float64())))
		return nil
	case bytecode.OpIn:
		found, err := vm.contains(b, a)
		if err != nil {
			return err
		}
		f.Push(value.Bool(found))
		return nil
	}

	if !a.IsNum() || !b.IsNum() {
		return vm.RuntimeError("comparison requires numbers, got %s and %s", value.ClassNameOf(a), value.ClassNameOf(b))
	}
	x, y := a.Float64(), b.Float64()
	var result bool
	switch op {
	case bytecode.OpLt:
		result = x < y
	case bytecode.OpLtEq:
		result = x <= y
	case bytecode.OpGt:
		result = x > y
	case bytecode.OpGtEq:
		result = x >= y
	}
	f.Push(value.Bool(result))
	return nil
}

func (vm *Interpreter) contains(container, item value.Value) (bool, error) {
	switch c := valueObj(container).(type) {
	case *value.List:
		for _, it := range c.Items {
			if value.Equals(it, item) {
				return true, nil
			}
		}
		return false, nil
	case *value.Map:
		_, ok := c.Get(item)
		return ok, nil
	case *value.String:
		s, ok := valueObj(item).(*value.String)
		if !ok {
			return false, vm.RuntimeError("'in' on a string requires a string operand")
		}
		return strings.Contains(c.Value, s.Value), nil
	default:
		return false, vm.RuntimeError("'%s' does not support 'in'", value.ClassNameOf(container))
	}
}
