package cpu

import "github.com/intuitionamiga/n64core/internal/state"

// Context is the register and control-flow state a MIPS64 core carries
// between instructions (spec.md §3.2). It is kept as a plain struct rather
// than threaded implicitly through the Cpu receiver, mirroring the
// original's split between CpuContext (save-stated, serde-derived) and the
// Cpu wrapper that owns the bus/coprocessors (cpu.rs's CpuContext/Cpu pair).
type Context struct {
	Regs [32]uint64
	Hi   uint64
	Lo   uint64

	PC     uint64
	NextPC uint64

	Clock     int64
	TightExit bool
	DelaySlot bool

	FPU64 bool
	Halt  bool
}

// RegisterState wires the context into the save-state arena under name
// (e.g. "cpu" for the main CPU, "rsp.core" for the RSP's scalar processor).
func (c *Context) RegisterState(arena *state.Arena, name string) {
	arena.RegSlice(name+".regs", &c.Regs)
	arena.RegU64(name+".hi", &c.Hi)
	arena.RegU64(name+".lo", &c.Lo)
	arena.RegU64(name+".pc", &c.PC)
	arena.RegU64(name+".next_pc", &c.NextPC)
	arena.RegBool(name+".fpu64", &c.FPU64)
	arena.RegBool(name+".halt", &c.Halt)
}

// Branch records a conditional jump: if cond, the delay slot's next_pc
// becomes tgt; if the branch is "likely" and not taken, the delay slot is
// skipped outright (pc advances an extra word and clock ticks once more),
// per spec.md §4.1's delay-slot paragraph.
func (c *Context) Branch(cond bool, tgt uint64, likely bool) {
	if cond {
		c.NextPC = tgt
		c.DelaySlot = true
	} else if likely {
		c.PC += 4
		c.NextPC = c.PC + 4
		c.Clock++
		c.TightExit = true
	}
}

// SetPC performs a non-delayed-slot jump (reset, ERET, exception vectoring).
func (c *Context) SetPC(pc uint64) {
	c.PC = pc
	c.NextPC = pc + 4
	c.TightExit = true
}

// SetHalt toggles the halt line a device (e.g. the RSP's SP_STATUS halt
// bit) can assert to stop the tight loop without touching clock directly.
func (c *Context) SetHalt(v bool) {
	c.Halt = v
	c.TightExit = true
}

// reg/setReg implement spec.md §3.2's r0 invariant: writes to register 0
// are legal but discarded on read (masked here rather than on write, since
// real hardware lets r0 be written and simply never changes what reading
// it returns).
func (c *Context) reg(idx int) uint64 {
	if idx == 0 {
		return 0
	}
	return c.Regs[idx]
}

func (c *Context) setReg(idx int, v uint64) {
	c.Regs[idx] = v
}
