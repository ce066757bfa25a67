package rsp

import (
	"github.com/intuitionamiga/n64core/internal/state"
)

// Rsp is the RSP's vector coprocessor: the 32-entry vector register file,
// the three-slice wide accumulator, the flag registers, and the
// reciprocal staging pair shared by the VRCP/VRSQ op families.
type Rsp struct {
	vregs [32]VReg

	accLo, accMd, accHi VReg

	vcoCarry, vcoNe   VReg
	vcc0, vccClip     VReg
	vce               VReg

	divInValid bool
	divIn      uint32
	divOut     uint32

	Logf func(format string, args ...any)
}

// New creates an Rsp with all registers and flags zeroed.
func New() *Rsp { return &Rsp{} }

// RegisterState wires the vector register file, accumulator and flag
// registers into the save-state arena.
func (r *Rsp) RegisterState(arena *state.Arena, name string) {
	arena.RegSlice(name+".vregs", &r.vregs)
	arena.RegSlice(name+".acc_lo", &r.accLo)
	arena.RegSlice(name+".acc_md", &r.accMd)
	arena.RegSlice(name+".acc_hi", &r.accHi)
	arena.RegSlice(name+".vco_carry", &r.vcoCarry)
	arena.RegSlice(name+".vco_ne", &r.vcoNe)
	arena.RegSlice(name+".vcc0", &r.vcc0)
	arena.RegSlice(name+".vcc_clip", &r.vccClip)
	arena.RegSlice(name+".vce", &r.vce)
	arena.RegBool(name+".div_in_valid", &r.divInValid)
	arena.RegU32(name+".div_in", &r.divIn)
	arena.RegU32(name+".div_out", &r.divOut)
}

// VReg exposes vector register idx (0..31), for the interpreter's LWC2
// sub-word path and for tests.
func (r *Rsp) VReg(idx int) *VReg { return &r.vregs[idx] }

// VRegs exposes the whole register file for LTV/STV, which address a run
// of 8 registers (wrapping within their aligned group of 8) rather than a
// single one.
func (r *Rsp) VRegs() *[32]VReg { return &r.vregs }

// VCO/VCC/VCE implement CFC2 on control register 0/1/2 (the three COP2
// flag registers exposed through the normal CP0-style control-transfer
// path, per cop2.rs's CFC2 dispatch on op.rs()).
func (r *Rsp) VCO() uint16 { return packFlags16(r.vcoCarry, r.vcoNe) }
func (r *Rsp) VCC() uint16 { return packFlags16(r.vcc0, r.vccClip) }
func (r *Rsp) VCE() uint8  { return packFlags8(r.vce) }

func (r *Rsp) SetVCO(v uint16) { r.vcoCarry, r.vcoNe = unpackFlags16(v) }
func (r *Rsp) SetVCC(v uint16) { r.vcc0, r.vccClip = unpackFlags16(v) }
func (r *Rsp) SetVCE(v uint8)  { r.vce = unpackFlags8(v) }

// AccumLane returns the signed 48-bit accumulator value for lane (0..7),
// used by tests asserting multiply-accumulate results (VSAR reads the
// accumulator slices directly).
func (r *Rsp) AccumLane(lane int) int64 { return r.accumGet(lane) }
