package cpu

import "github.com/intuitionamiga/n64core/internal/trace"

// lwl32/lwr32 implement LWL/LWR, the big-endian unaligned-load halves
// (spec.md §4.1's "Unaligned loads/stores" paragraph); swl32/swr32 compute
// the merged word SWL/SWR write back to the same address. Grounded on
// cpu.rs's generic lwl/lwr/swl/swr, specialized to u32 and u64 since Go
// generics over MemInt would need the same associated-constant machinery
// the original leans on `S::SIZE`/`S::truncate_from` for.
func (c *Cpu) lwl32(addr uint32, reg uint32, t trace.Tracer) (uint32, bool) {
	mem, ok := c.read32(addr&^3, t)
	if !ok {
		return 0, false
	}
	shift := (addr & 3) * 8
	mask := (uint32(1) << shift) - 1
	return (reg & mask) | ((mem << shift) &^ mask), true
}

func (c *Cpu) lwr32(addr uint32, reg uint32, t trace.Tracer) (uint32, bool) {
	mem, ok := c.read32(addr&^3, t)
	if !ok {
		return 0, false
	}
	shift := (^addr & 3) * 8
	mask := ^uint32(0) >> shift
	return (reg &^ mask) | ((mem >> shift) & mask), true
}

func (c *Cpu) swl32(addr uint32, reg uint32, t trace.Tracer) (uint32, bool) {
	mem, ok := c.read32(addr, t)
	if !ok {
		return 0, false
	}
	shift := (addr & 3) * 8
	mask := ^uint32(0) >> shift
	return (mem &^ mask) | ((reg >> shift) & mask), true
}

func (c *Cpu) swr32(addr uint32, reg uint32, t trace.Tracer) (uint32, bool) {
	mem, ok := c.read32(addr, t)
	if !ok {
		return 0, false
	}
	shift := (^addr & 3) * 8
	mask := (uint32(1) << shift) - 1
	return (mem & mask) | ((reg << shift) &^ mask), true
}

func (c *Cpu) lwl64(addr uint32, reg uint64, t trace.Tracer) (uint64, bool) {
	mem, ok := c.read64(addr&^7, t)
	if !ok {
		return 0, false
	}
	shift := (addr & 7) * 8
	mask := (uint64(1) << shift) - 1
	return (reg & mask) | ((mem << shift) &^ mask), true
}

func (c *Cpu) lwr64(addr uint32, reg uint64, t trace.Tracer) (uint64, bool) {
	mem, ok := c.read64(addr&^7, t)
	if !ok {
		return 0, false
	}
	shift := (^addr & 7) * 8
	mask := ^uint64(0) >> shift
	return (reg &^ mask) | ((mem >> shift) & mask), true
}

func (c *Cpu) swl64(addr uint32, reg uint64, t trace.Tracer) (uint64, bool) {
	mem, ok := c.read64(addr, t)
	if !ok {
		return 0, false
	}
	shift := (addr & 7) * 8
	mask := ^uint64(0) >> shift
	return (mem &^ mask) | ((reg >> shift) & mask), true
}

func (c *Cpu) swr64(addr uint32, reg uint64, t trace.Tracer) (uint64, bool) {
	mem, ok := c.read64(addr, t)
	if !ok {
		return 0, false
	}
	shift := (^addr & 7) * 8
	mask := (uint64(1) << shift) - 1
	return (mem & mask) | ((reg << shift) &^ mask), true
}
