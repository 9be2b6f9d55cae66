package gc

import (
	"testing"

	"pocket/internal/value"
)

// isLinked reports whether obj is still reachable by walking c's intrusive
// object list, the only way to observe "still tracked" from outside the
// package (Collector keeps no public live-count of objects, only bytes).
func isLinked(c *Collector, obj value.Object) bool {
	for o := c.head; o != nil; o = o.GCHeader().Next {
		if o == obj {
			return true
		}
	}
	return false
}

func TestCollectSweepsUnreachableObjects(t *testing.T) {
	c := New()
	garbage := value.NewString("garbage")
	c.Track(garbage, 16)

	c.Collect(nil)

	if isLinked(c, garbage) {
		t.Fatal("expected an object with no roots to be swept")
	}
}

func TestCollectKeepsRootedObjects(t *testing.T) {
	c := New()
	kept := value.NewString("kept")
	c.Track(kept, 16)

	c.Collect([]value.Object{kept})

	if !isLinked(c, kept) {
		t.Fatal("expected a rooted object to survive collection")
	}
}

func TestCollectTracesThroughContainers(t *testing.T) {
	c := New()
	elem := value.NewString("inside a list")
	list := value.NewList([]value.Value{value.Obj(elem)})
	c.Track(elem, 16)
	c.Track(list, 32)

	c.Collect([]value.Object{list})

	if !isLinked(c, list) {
		t.Fatal("expected the rooted list to survive")
	}
	if !isLinked(c, elem) {
		t.Fatal("expected an object reachable only via Trace() through a root to survive")
	}
}

func TestCollectUnmarksSurvivorsForNextCycle(t *testing.T) {
	c := New()
	kept := value.NewString("kept")
	c.Track(kept, 16)

	c.Collect([]value.Object{kept})
	if kept.Header.Marked {
		t.Fatal("expected Marked to be cleared after sweep so the next cycle starts white")
	}

	// A second cycle with no roots should now sweep it.
	c.Collect(nil)
	if isLinked(c, kept) {
		t.Fatal("expected the previously-kept object to be collected once its root is dropped")
	}
}

func TestShouldCollectRespectsThreshold(t *testing.T) {
	c := New()
	if c.ShouldCollect() {
		t.Fatal("a fresh collector should not need to collect immediately")
	}
	c.Track(value.NewString("x"), defaultInitialThreshold)
	if !c.ShouldCollect() {
		t.Fatal("expected allocating past the threshold to require a collection")
	}
}

func TestCyclesIncrementsPerCollect(t *testing.T) {
	c := New()
	if c.Cycles() != 0 {
		t.Fatalf("expected 0 cycles on a fresh collector, got %d", c.Cycles())
	}
	c.Collect(nil)
	c.Collect(nil)
	if c.Cycles() != 2 {
		t.Errorf("expected 2 cycles, got %d", c.Cycles())
	}
}
