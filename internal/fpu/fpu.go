// Package fpu implements COP1, the MIPS64 floating-point unit: 32 64-bit
// registers viewable as 16/32 single- or double-precision values depending
// on the FR status bit, IEEE single/double arithmetic, the eight
// condition-code bits packed into FCSR, and the bc1t/bc1f branch family
// (spec.md §4.3).
//
// Grounded on the original engine's emu/cpu/mips64/src/fpu.rs: the
// Fop<F>/FloatRawConvert generic-over-precision dispatch becomes a Go
// generic function parameterized over a Float constraint, and the
// condition-code packing in set_cc/get_cc is carried over bit-for-bit.
package fpu

import (
	"math"

	"github.com/intuitionamiga/n64core/internal/state"
)

// Float is the set of host types an FPU operation can be instantiated
// over: IEEE single and double precision.
type Float interface {
	~float32 | ~float64
}

// Fpu holds the 32-entry register file plus FCSR (the only CP1 control
// register this core models — FIR/FEXR/FENR are read-as-zero elsewhere in
// real hardware and no N64 title depends on them).
type Fpu struct {
	regs [32]uint64
	fccr uint64 // packed condition-code bits, mirrors FCSR bits 23/25..31
	fcsr uint64

	// fpu64 mirrors COP0 Status.FR: true selects 32 independently
	// addressable 64-bit registers, false selects the paired 16-register
	// 32-bit view used by pre-R4000-compatible code.
	fpu64 bool

	Logf func(format string, args ...any)
}

// New creates an Fpu with all registers and FCSR zeroed.
func New() *Fpu { return &Fpu{} }

// RegisterState wires the register file and FCSR into the save-state arena.
func (f *Fpu) RegisterState(arena *state.Arena, name string) {
	arena.RegSlice(name+".regs", &f.regs)
	arena.RegU64(name+".fcsr", &f.fcsr)
}

// SetFPU64 copies the COP0 Status.FR bit in before dispatching an
// instruction, per the original's `self.ctx.fpu64 = cpu.fpu64` at the top
// of Cop::op.
func (f *Fpu) SetFPU64(v bool) { f.fpu64 = v }

func (f *Fpu) getFGR(idx int) uint64 {
	if f.fpu64 {
		return f.regs[idx]
	}
	return (f.regs[idx] & 0xFFFF_FFFF) | (f.regs[idx+1] << 32)
}

func (f *Fpu) setFGR(idx int, val uint64) {
	if f.fpu64 {
		f.regs[idx] = val
		return
	}
	f.regs[idx] = val & 0xFFFF_FFFF
	f.regs[idx+1] = val >> 32
}

func getFPR[F Float](f *Fpu, idx int) F {
	var zero F
	bits := f.getFGR(idx)
	switch any(zero).(type) {
	case float32:
		return F(math.Float32frombits(uint32(bits)))
	default:
		return F(math.Float64frombits(bits))
	}
}

func setFPR[F Float](f *Fpu, idx int, v F) {
	switch x := any(v).(type) {
	case float32:
		f.setFGR(idx, uint64(math.Float32bits(x)))
	case float64:
		f.setFGR(idx, math.Float64bits(x))
	}
}

// Reg/SetReg implement MFC1/MTC1's raw 64-bit register access (the
// original's Cop::reg/set_reg pair).
func (f *Fpu) Reg(idx int) uint64        { return f.regs[idx] }
func (f *Fpu) SetReg(idx int, v uint64)  { f.regs[idx] = v }

// FCSR/SetFCSR implement CFC1/CTC1 on control register 31, the only CP1
// control register a ROM can meaningfully read or write.
func (f *Fpu) FCSR() uint64       { return f.fcsr }
func (f *Fpu) SetFCSR(v uint64)   { f.fcsr = v }

// setCC packs a condition-code bit into both FCCR (used internally by
// GetCC) and the corresponding FCSR bit real hardware exposes it as —
// bit 23 for cc 0, bits 25..31 for cc 1..7 (cp0.rs fpu.rs's set_cc).
func (f *Fpu) setCC(cc int, val bool) {
	f.fccr = f.fccr&^(1<<uint(cc)) | boolBit(val, uint(cc))
	cc2 := cc + 23
	if cc > 0 {
		cc2++
	}
	f.fcsr = f.fcsr&^(1<<uint(cc2)) | boolBit(val, uint(cc2))
}

// GetCC reads condition code cc (0..7), used by the interpreter's
// bc1t/bc1f branch evaluation.
func (f *Fpu) GetCC(cc int) bool { return f.fccr&(1<<uint(cc)) != 0 }

func boolBit(v bool, n uint) uint64 {
	if v {
		return 1 << n
	}
	return 0
}

// Op performs one COP1 arithmetic/compare/convert instruction on precision
// F (float32 for .s formats, float64 for .d). func is the low 6 bits of
// the opcode (the same field that selects ADD/SUB/.../C.cond.fmt in
// op.func() in the original).
func Op[F Float](f *Fpu, fn uint32, rd, rs, rt, cc int) {
	fs := getFPR[F](f, rs)
	switch fn {
	case 0x00:
		setFPR(f, rd, fs+getFPR[F](f, rt))
	case 0x01:
		setFPR(f, rd, fs-getFPR[F](f, rt))
	case 0x02:
		setFPR(f, rd, fs*getFPR[F](f, rt))
	case 0x03:
		setFPR(f, rd, fs/getFPR[F](f, rt))
	case 0x04:
		setFPR(f, rd, F(math.Sqrt(float64(fs))))
	case 0x05:
		setFPR(f, rd, F(math.Abs(float64(fs))))
	case 0x06:
		setFPR(f, rd, fs)
	case 0x07:
		setFPR(f, rd, -fs)
	case 0x08:
		f.setFGR(rd, roundConvert(fs, math.RoundToEven, 64))
	case 0x09:
		f.setFGR(rd, roundConvert(fs, math.Trunc, 64))
	case 0x0A:
		f.setFGR(rd, roundConvert(fs, math.Ceil, 64))
	case 0x0B:
		f.setFGR(rd, roundConvert(fs, math.Floor, 64))
	case 0x0C:
		f.setFGR(rd, roundConvert(fs, math.RoundToEven, 32))
	case 0x0D:
		f.setFGR(rd, roundConvert(fs, math.Trunc, 32))
	case 0x0E:
		f.setFGR(rd, roundConvert(fs, math.Ceil, 32))
	case 0x0F:
		f.setFGR(rd, roundConvert(fs, math.Floor, 32))
	case 0x20:
		f.setFGR(rd, uint64(math.Float32bits(float32(fs))))
	case 0x21:
		f.setFGR(rd, math.Float64bits(float64(fs)))
	case 0x24:
		f.setFGR(rd, uint64(uint32(int32(fs))))
	case 0x25:
		f.setFGR(rd, uint64(int64(fs)))
	default:
		if fn >= 0x30 && fn <= 0x3F {
			ft := getFPR[F](f, rt)
			nan := isNaN(fs) || isNaN(ft)
			less := !nan && fs < ft
			equal := !nan && fs == ft
			cond := (less && fn&4 != 0) || (equal && fn&2 != 0) || (nan && fn&1 != 0)
			f.setCC(cc, cond)
			return
		}
		if f.Logf != nil {
			f.Logf("fpu: unimplemented cop1 func %#x", fn)
		}
	}
}

func isNaN[F Float](v F) bool { return float64(v) != float64(v) }

// roundConvert applies round to fs, clamping to the target integer width's
// maximum value on overflow or NaN — mirrors the original's approx! macro,
// which falls back to i32::max_value()/i64::max_value() when the checked
// conversion doesn't fit.
func roundConvert[F Float](fs F, round func(float64) float64, bits int) uint64 {
	v := round(float64(fs))
	if bits == 32 {
		if v > math.MaxInt32 || v < math.MinInt32 || v != v {
			return uint64(uint32(int32(math.MaxInt32)))
		}
		return uint64(uint32(int32(v)))
	}
	if v > math.MaxInt64 || v < math.MinInt64 || v != v {
		return uint64(int64(math.MaxInt64))
	}
	return uint64(int64(v))
}
