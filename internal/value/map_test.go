package value

import "testing"

func TestMapSetGetDelete(t *testing.T) {
	m := NewMap()
	k1 := Obj(NewString("a"))
	m.Set(k1, Int(1))

	v, ok := m.Get(k1)
	if !ok {
		t.Fatal("expected key 'a' to be present")
	}
	testIntValue(t, v, 1)

	if !m.Delete(k1) {
		t.Fatal("expected Delete('a') to report true")
	}
	if _, ok := m.Get(k1); ok {
		t.Fatal("expected 'a' to be gone after Delete")
	}
	if m.Delete(k1) {
		t.Fatal("expected a second Delete('a') to report false")
	}
}

func TestMapNullKey(t *testing.T) {
	m := NewMap()
	m.Set(Null(), Obj(NewString("nil key")))
	v, ok := m.Get(Null())
	if !ok {
		t.Fatal("expected null to be usable as a map key")
	}
	if s, ok := v.Obj.(*String); !ok || s.Value != "nil key" {
		t.Errorf("wrong value for null key: %s", Inspect(v))
	}
}

func TestMapGrowsPastInitialCapacity(t *testing.T) {
	m := NewMap()
	for i := int32(0); i < 100; i++ {
		m.Set(Int(i), Int(i*2))
	}
	if m.Len() != 100 {
		t.Fatalf("expected 100 live entries, got %d", m.Len())
	}
	for i := int32(0); i < 100; i++ {
		v, ok := m.Get(Int(i))
		if !ok {
			t.Fatalf("missing key %d after growth", i)
		}
		testIntValue(t, v, i*2)
	}
}

func TestMapOverwriteSameKey(t *testing.T) {
	m := NewMap()
	k := Obj(NewString("x"))
	m.Set(k, Int(1))
	m.Set(k, Int(2))
	if m.Len() != 1 {
		t.Fatalf("expected overwriting an existing key to keep Len at 1, got %d", m.Len())
	}
	v, _ := m.Get(k)
	testIntValue(t, v, 2)
}

func TestMapKeysReflectsLiveEntriesOnly(t *testing.T) {
	m := NewMap()
	m.Set(Int(1), Null())
	m.Set(Int(2), Null())
	m.Delete(Int(1))
	keys := m.Keys()
	if len(keys) != 1 {
		t.Fatalf("expected 1 live key after deleting one of two, got %d", len(keys))
	}
	if !Equals(keys[0], Int(2)) {
		t.Errorf("expected remaining key to be 2, got %s", Inspect(keys[0]))
	}
}

// testIntValue is shared with value_test.go in this package.
func testIntValue(t *testing.T, v Value, want int32) {
	t.Helper()
	if !v.IsInt() {
		t.Fatalf("value is not an Int, got %s", Inspect(v))
	}
	if got := v.AsInt(); got != want {
		t.Errorf("wrong int value: got=%d want=%d", got, want)
	}
}
