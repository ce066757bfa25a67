package cpu

// insn is a thin view over one fetched instruction word plus the PC it was
// fetched at, exposing the MIPS field extractions every opcode needs.
// Grounded on cpu.rs's Mipsop accessor struct; kept as free functions over
// a value type rather than a struct holding &mut Cpu since Go has no
// borrow checker forcing that split.
type insn struct {
	op uint32
	pc uint64
}

func (i insn) primary() uint32 { return i.op >> 26 }
func (i insn) special() uint32 { return i.op & 0x3F }
func (i insn) sa() uint32      { return (i.op >> 6) & 0x1F }
func (i insn) fd() int         { return int((i.op >> 6) & 0x1F) }
func (i insn) cc() int         { return int((i.op >> 8) & 0x7) }
func (i insn) bcCC() int       { return int((i.op >> 18) & 0x7) }
func (i insn) rs() int         { return int((i.op >> 21) & 0x1F) }
func (i insn) rt() int         { return int((i.op >> 16) & 0x1F) }
func (i insn) rd() int         { return int((i.op >> 11) & 0x1F) }
func (i insn) sximm32() int32  { return int32(int16(i.op & 0xFFFF)) }
func (i insn) sximm64() int64  { return int64(int16(i.op & 0xFFFF)) }
func (i insn) imm64() uint64   { return uint64(i.op & 0xFFFF) }

func (i insn) btgt() uint64 { return i.pc + uint64(i.sximm64())*4 }
func (i insn) jtgt() uint64 {
	return (i.pc & 0xFFFF_FFFF_F000_0000) + uint64(i.op&0x03FF_FFFF)*4
}

func (i insn) ea(ctx *Context) uint32 {
	return uint32(ctx.reg(i.rs())) + uint32(i.sximm32())
}
