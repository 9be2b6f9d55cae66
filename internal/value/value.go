// Package value implements pocket's tagged Value union and heap object
// model (spec.md §3/§4.1). The design generalizes the teacher's small
// stack-allocated union (internal/vm/value.go in funvibe-funxy: a
// Type/Data/Obj struct avoiding heap allocation for primitives) by widening
// the kind set to Undefined and Void and by giving every heap object a
// common Header so the collector never needs a type switch to find it.
package value

import (
	"fmt"
	"math"
)

// Kind discriminates a Value's representation.
type Kind uint8

const (
	KindNull Kind = iota
	KindUndefined // sentinel: never observable at user level; marks empty map slots
	KindVoid      // sentinel: native-call "no result"
	KindBool
	KindInt   // 32-bit integer; int-with-int arithmetic is done in int32
	KindFloat // 64-bit float
	KindObj   // reference to a heap Object
)

// Value is a small tagged union: numbers and booleans are stored inline in
// Num (as raw bits), objects are held by reference in Obj.
type Value struct {
	Kind Kind
	Num  uint64
	Obj  Object
}

func Null() Value      { return Value{Kind: KindNull} }
func Undefined() Value { return Value{Kind: KindUndefined} }
func Void() Value      { return Value{Kind: KindVoid} }

func Bool(b bool) Value {
	var n uint64
	if b {
		n = 1
	}
	return Value{Kind: KindBool, Num: n}
}

func Int(i int32) Value { return Value{Kind: KindInt, Num: uint64(uint32(i))} }

func IntFromInt64(i int64) Value { return Value{Kind: KindInt, Num: uint64(uint32(i))} }

func Float(f float64) Value { return Value{Kind: KindFloat, Num: math.Float64bits(f)} }

func Obj(o Object) Value { return Value{Kind: KindObj, Obj: o} }

func (v Value) IsNull() bool      { return v.Kind == KindNull }
func (v Value) IsUndefined() bool { return v.Kind == KindUndefined }
func (v Value) IsVoid() bool      { return v.Kind == KindVoid }
func (v Value) IsBool() bool      { return v.Kind == KindBool }
func (v Value) IsInt() bool       { return v.Kind == KindInt }
func (v Value) IsFloat() bool     { return v.Kind == KindFloat }
func (v Value) IsNum() bool       { return v.Kind == KindInt || v.Kind == KindFloat }
func (v Value) IsObj() bool       { return v.Kind == KindObj }

func (v Value) AsBool() bool    { return v.Num == 1 }
func (v Value) AsInt() int32    { return int32(uint32(v.Num)) }
func (v Value) AsFloat() float64 {
	if v.Kind == KindInt {
		return float64(v.AsInt())
	}
	return math.Float64frombits(v.Num)
}

// Float64 returns the numeric value as float64 regardless of kind,
// used by arithmetic opcodes that operate uniformly over int/float per
// spec.md §4.4 "Numeric semantics".
func (v Value) Float64() float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.AsInt())
	case KindFloat:
		return math.Float64frombits(v.Num)
	}
	return 0
}

// IsTruthy implements the language's truthiness rule: null, false and
// undefined are falsy, everything else (including 0 and "") is truthy.
func (v Value) IsTruthy() bool {
	switch v.Kind {
	case KindNull, KindUndefined, KindVoid:
		return false
	case KindBool:
		return v.AsBool()
	default:
		return true
	}
}

// Equals implements spec.md §4.1's equality: structural on numbers,
// strings, and identity otherwise. Numerically equal int/float values
// compare equal (spec.md §3 invariant).
func Equals(a, b Value) bool {
	if a.Kind == KindObj && b.Kind == KindObj {
		return objectsEqual(a.Obj, b.Obj)
	}
	if a.IsNum() && b.IsNum() {
		return a.Float64() == b.Float64()
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull, KindVoid, KindUndefined:
		return true
	case KindBool:
		return a.AsBool() == b.AsBool()
	}
	return false
}

func objectsEqual(a, b Object) bool {
	if sa, ok := a.(*String); ok {
		if sb, ok := b.(*String); ok {
			return sa.Value == sb.Value
		}
		return false
	}
	if ra, ok := a.(*Range); ok {
		if rb, ok := b.(*Range); ok {
			return ra.From == rb.From && ra.To == rb.To
		}
		return false
	}
	return a == b
}

// Hashable reports whether v may be used as a map key (spec.md §4.1: null,
// bool, number, range, and string are hashable; everything else raises).
func Hashable(v Value) bool {
	switch v.Kind {
	case KindNull, KindUndefined, KindBool, KindInt, KindFloat:
		return true
	case KindObj:
		switch v.Obj.(type) {
		case *String, *Range:
			return true
		}
	}
	return false
}

// Hash returns a hash code for a hashable value. Callers must check
// Hashable first; Hash panics otherwise (programmer bug, not a user error).
func Hash(v Value) uint64 {
	switch v.Kind {
	case KindNull, KindUndefined:
		return 0
	case KindBool:
		if v.AsBool() {
			return 1
		}
		return 0
	case KindInt, KindFloat:
		return fnv1a64Bits(math.Float64bits(v.Float64()))
	case KindObj:
		switch o := v.Obj.(type) {
		case *String:
			return o.Hash
		case *Range:
			return fnv1a64Bits(math.Float64bits(o.From)) ^ fnv1a64Bits(math.Float64bits(o.To))
		}
	}
	panic("value: Hash of unhashable value")
}

func fnv1a64Bits(n uint64) uint64 {
	const prime = 1099511628211
	h := uint64(14695981039346656037)
	for i := 0; i < 8; i++ {
		h ^= n & 0xff
		h *= prime
		n >>= 8
	}
	return h
}

// Inspect renders v the way the REPL / `print` builtin does.
func Inspect(v Value) string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
	case KindVoid:
		return "void"
	case KindBool:
		return fmt.Sprintf("%t", v.AsBool())
	case KindInt:
		return fmt.Sprintf("%d", v.AsInt())
	case KindFloat:
		return formatFloat(v.Float64())
	case KindObj:
		if v.Obj == nil {
			return "null"
		}
		return v.Obj.Inspect()
	}
	return "?"
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%.1f", f)
	}
	return fmt.Sprintf("%g", f)
}

// ClassNameOf returns the pseudo-attribute `_class` name for v's runtime
// kind (spec.md §4.1: "Every value exposes a pseudo-attribute `_class`").
func ClassNameOf(v Value) string {
	switch v.Kind {
	case KindNull, KindUndefined, KindVoid:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindObj:
		switch o := v.Obj.(type) {
		case *String:
			return "String"
		case *List:
			return "List"
		case *Map:
			return "Map"
		case *Range:
			return "Range"
		case *Module:
			return "Module"
		case *Function, *Closure:
			return "Function"
		case *MethodBind:
			return "Function"
		case *Fiber:
			return "Fiber"
		case *Class:
			return o.Name + "Class"
		case *Instance:
			return o.Class.Name
		}
	}
	return "Object"
}
