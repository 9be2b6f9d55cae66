package value

import "testing"

// testBooleanValue/testIntegerValue mirror the teacher's testBooleanObject/
// testIntegerObject helpers (internal/vm/vm_test.go), generalized to this
// package's own Value union instead of the evaluator's Object interface.
func testBooleanValue(t *testing.T, v Value, want bool) {
	t.Helper()
	if !v.IsBool() {
		t.Fatalf("value is not a Bool, got %s", Inspect(v))
	}
	if v.AsBool() != want {
		t.Errorf("wrong bool value: got=%t want=%t", v.AsBool(), want)
	}
}

func TestIsTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", Null(), false},
		{"undefined", Undefined(), false},
		{"void", Void(), false},
		{"false", Bool(false), false},
		{"true", Bool(true), true},
		{"zero_int", Int(0), true},
		{"empty_string", Obj(NewString("")), true},
	}
	for _, tc := range cases {
		if got := tc.v.IsTruthy(); got != tc.want {
			t.Errorf("%s: IsTruthy() = %t, want %t", tc.name, got, tc.want)
		}
	}
}

func TestEqualsNumericCrossKind(t *testing.T) {
	if !Equals(Int(2), Float(2.0)) {
		t.Error("expected Int(2) == Float(2.0)")
	}
	if Equals(Int(2), Float(2.5)) {
		t.Error("expected Int(2) != Float(2.5)")
	}
}

func TestEqualsStringsAreStructural(t *testing.T) {
	a := Obj(NewString("hi"))
	b := Obj(NewString("hi"))
	if !Equals(a, b) {
		t.Error("expected two distinct *String objects with the same contents to compare equal")
	}
}

func TestEqualsRangesAreStructural(t *testing.T) {
	a := Obj(NewRange(1, 5))
	b := Obj(NewRange(1, 5))
	if !Equals(a, b) {
		t.Error("expected two distinct *Range objects with the same bounds to compare equal")
	}
	if Equals(a, Obj(NewRange(1, 6))) {
		t.Error("expected ranges with different bounds to compare unequal")
	}
}

func TestEqualsObjectsAreIdentityOtherwise(t *testing.T) {
	a := Obj(NewList(nil))
	b := Obj(NewList(nil))
	if Equals(a, b) {
		t.Error("expected two distinct empty *List objects to compare unequal (identity, not structural)")
	}
	if !Equals(a, a) {
		t.Error("expected a value to equal itself")
	}
}

func TestHashableKinds(t *testing.T) {
	hashable := []Value{Null(), Undefined(), Bool(true), Int(1), Float(1.5), Obj(NewString("x")), Obj(NewRange(1, 2))}
	for _, v := range hashable {
		if !Hashable(v) {
			t.Errorf("expected %s to be hashable", Inspect(v))
		}
	}
	unhashable := []Value{Obj(NewList(nil)), Obj(NewMap())}
	for _, v := range unhashable {
		if Hashable(v) {
			t.Errorf("expected %s to be unhashable", Inspect(v))
		}
	}
}

func TestHashEqualValuesHashEqual(t *testing.T) {
	if Hash(Int(2)) != Hash(Float(2.0)) {
		t.Error("expected numerically equal values to hash equal")
	}
	if Hash(Obj(NewString("abc"))) != Hash(Obj(NewString("abc"))) {
		t.Error("expected two equal strings to hash equal")
	}
}

func TestHashOfUnhashablePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Hash of a List to panic")
		}
	}()
	Hash(Obj(NewList(nil)))
}

func TestInspect(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Null(), "null"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Int(42), "42"},
		{Float(1.0), "1.0"},
		{Float(1.5), "1.5"},
		{Obj(NewString("hi")), "hi"},
		{Obj(NewRange(1, 5)), "1.0..5.0"},
	}
	for _, tc := range cases {
		if got := Inspect(tc.v); got != tc.want {
			t.Errorf("Inspect(%v) = %q, want %q", tc.v, got, tc.want)
		}
	}
}

func TestClassNameOf(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Null(), "Null"},
		{Bool(true), "Bool"},
		{Int(1), "Int"},
		{Float(1.5), "Float"},
		{Obj(NewString("x")), "String"},
		{Obj(NewList(nil)), "List"},
		{Obj(NewMap()), "Map"},
		{Obj(NewRange(1, 2)), "Range"},
	}
	for _, tc := range cases {
		if got := ClassNameOf(tc.v); got != tc.want {
			t.Errorf("ClassNameOf(%s) = %q, want %q", Inspect(tc.v), got, tc.want)
		}
	}
}

func TestIntFromInt64Truncates(t *testing.T) {
	v := IntFromInt64(1<<32 + 7)
	if v.AsInt() != 7 {
		t.Errorf("expected truncation to 32 bits, got %d", v.AsInt())
	}
}

func TestBoolAccessor(t *testing.T) {
	testBooleanValue(t, Bool(true), true)
	testBooleanValue(t, Bool(false), false)
}
