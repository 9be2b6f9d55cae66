package compiler

import (
	"pocket/internal/bytecode"
	"pocket/internal/config"
	"pocket/internal/value"
)

func (c *Compiler) beginScope() { c.scopeDepth++ }

// endScope pops every local declared at the scope being left, closing any
// that were captured by a nested closure (spec.md §4.4 CLOSE_UPVALUE).
func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].Depth > c.scopeDepth {
		last := c.locals[len(c.locals)-1]
		if last.IsCaptured {
			c.emitOp(bytecode.OpCloseUpvalue)
		} else {
			c.emitOp(bytecode.OpPop)
		}
		c.locals = c.locals[:len(c.locals)-1]
		c.slotCount--
	}
}

// emitPopTo unwinds every currently-declared local at or above target down
// to (but not including) target, without touching c.locals/c.slotCount —
// used by break/continue, which jump past the structured endScope cleanup
// that would otherwise run.
func (c *Compiler) emitPopTo(target int) {
	for i := len(c.locals) - 1; i >= 0 && c.locals[i].Slot >= target; i-- {
		if c.locals[i].IsCaptured {
			c.emitOp(bytecode.OpCloseUpvalue)
		} else {
			c.emitOp(bytecode.OpPop)
		}
	}
}

func (c *Compiler) addLocal(name string, slot int) int {
	if len(c.locals) >= config.MaxLocals {
		c.errorAt(c.prev, "too many local variables in one function")
	}
	c.locals = append(c.locals, Local{Name: name, Depth: c.scopeDepth, Slot: slot})
	// addLocal is also used to reserve the hardcoded self slot (0), which
	// bypasses growSlot; keep slotCount/maxSlots in sync either way so a
	// following declareLocal doesn't hand out an already-occupied slot.
	if slot+1 > c.slotCount {
		c.slotCount = slot + 1
	}
	if c.slotCount > c.maxSlots {
		c.maxSlots = c.slotCount
	}
	return slot
}

// declareLocal reserves the next stack slot for name in the current scope.
func (c *Compiler) declareLocal(name string) int {
	slot := c.growSlot()
	return c.addLocal(name, slot)
}

func (c *Compiler) resolveLocal(name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].Name == name {
			return c.locals[i].Slot
		}
	}
	return -1
}

func (c *Compiler) resolveLocalIndex(name string) (slot, idx int) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].Name == name {
			return c.locals[i].Slot, i
		}
	}
	return -1, -1
}

// resolveUpvalue mirrors the teacher's (funvibe-funxy internal/vm/compiler_scope.go)
// walk-outward-and-capture algorithm: find name as a local one level up,
// mark it captured, and register an upvalue entry; otherwise recurse so a
// chain of nested closures each capture the upvalue one level at a time.
func (c *Compiler) resolveUpvalue(name string) int {
	if c.enclosing == nil {
		return -1
	}
	if slot, idx := c.enclosing.resolveLocalIndex(name); slot != -1 {
		c.enclosing.locals[idx].IsCaptured = true
		return c.addUpvalue(slot, true)
	}
	if up := c.enclosing.resolveUpvalue(name); up != -1 {
		return c.addUpvalue(up, false)
	}
	return -1
}

func (c *Compiler) addUpvalue(index int, isLocal bool) int {
	for i, u := range c.upvalues {
		if u.Index == index && u.IsLocal == isLocal {
			return i
		}
	}
	if len(c.upvalues) >= config.MaxUpvalues {
		c.errorAt(c.prev, "too many captured variables in one function")
	}
	c.upvalues = append(c.upvalues, Upvalue{Index: index, IsLocal: isLocal})
	return len(c.upvalues) - 1
}

// declareGlobal registers name as a module-level global if it isn't one
// already, returning its slot (spec.md §3 Module.globals).
func (c *Compiler) declareGlobal(name string) int {
	if slot := c.module.GlobalIndex(name); slot >= 0 {
		return slot
	}
	return c.module.DefineGlobal(name, value.Null())
}
