package rsp

// accumGet reads the per-lane 48-bit accumulator as a signed 64-bit value
// (sign-extended from bit 47) so integer ops can add/overwrite without
// juggling three 16-bit slices until the result is written back.
func (r *Rsp) accumGet(lane int) int64 {
	v := uint64(r.accHi[lane])<<32 | uint64(r.accMd[lane])<<16 | uint64(r.accLo[lane])
	if v&(1<<47) != 0 {
		v |= 0xFFFF << 48
	}
	return int64(v)
}

func (r *Rsp) accumSet(lane int, v int64) {
	u := uint64(v) & 0xFFFF_FFFF_FFFF
	r.accLo[lane] = uint16(u)
	r.accMd[lane] = uint16(u >> 16)
	r.accHi[lane] = uint16(u >> 32)
}

// clampSignedFromAcc returns the accumulator's middle slice (bits 16..31),
// saturated to the signed 16-bit range.
func clampSignedFromAcc(acc int64) uint16 {
	acc >>= 16
	if acc > 32767 {
		return 32767
	}
	if acc < -32768 {
		return 0x8000
	}
	return uint16(int16(acc))
}

// clampUnsignedFromAcc implements VMULU/VMACU's saturation: clamp negative
// accumulator values to zero rather than reinterpreting the bit pattern —
// spec.md §9 names both interpretations as seen on real hardware; this one
// was picked since it composes with the signed multiply-accumulate chains
// the rest of the vmul family already uses (see DESIGN.md). Like
// clampSignedFromAcc it returns the middle slice (bits 16..31), here
// saturated to [0, 0xFFFF].
func clampUnsignedFromAcc(acc int64) uint16 {
	acc >>= 16
	if acc < 0 {
		return 0
	}
	if acc > 0xFFFF {
		return 0xFFFF
	}
	return uint16(acc)
}

// vmul dispatches the 12 VMULF..VMADH multiply/multiply-accumulate
// opcodes, one lane at a time. Grounded on spec.md §4.4's opcode table;
// cop2.rs delegates the same 12 opcodes to a sibling vmul.rs module not
// present in the retrieval pack, so the per-lane arithmetic here is
// derived directly from the spec's formulas rather than ported source.
func (r *Rsp) vmul(fn uint32, vs, vte VReg) VReg {
	var vd VReg
	for i := 0; i < 8; i++ {
		vsi := int16(vs[i])
		vti := int16(vte[i])
		old := r.accumGet(i)
		switch fn {
		case 0x00: // VMULF
			r.accumSet(i, int64(vsi)*int64(vti)*2+0x8000)
			vd[i] = clampSignedFromAcc(r.accumGet(i))
		case 0x01: // VMULU
			r.accumSet(i, int64(vsi)*int64(vti)*2+0x8000)
			vd[i] = clampUnsignedFromAcc(r.accumGet(i))
		case 0x04: // VMUDL
			prod := uint32(vte[i]) * uint32(vs[i])
			r.accumSet(i, int64(prod>>16))
			vd[i] = uint16(r.accumGet(i))
		case 0x05: // VMUDM
			r.accumSet(i, int64(vsi)*int64(vte[i]))
			vd[i] = clampSignedFromAcc(r.accumGet(i))
		case 0x06: // VMUDN
			r.accumSet(i, int64(vs[i])*int64(vti))
			vd[i] = uint16(r.accumGet(i))
		case 0x07: // VMUDH
			r.accumSet(i, int64(vsi)*int64(vti)<<16)
			vd[i] = clampSignedFromAcc(r.accumGet(i))
		case 0x08: // VMACF
			r.accumSet(i, old+int64(vsi)*int64(vti)*2)
			vd[i] = clampSignedFromAcc(r.accumGet(i))
		case 0x09: // VMACU
			r.accumSet(i, old+int64(vsi)*int64(vti)*2)
			vd[i] = clampUnsignedFromAcc(r.accumGet(i))
		case 0x0C: // VMADL
			prod := uint32(vte[i]) * uint32(vs[i])
			r.accumSet(i, old+int64(prod>>16))
			vd[i] = uint16(r.accumGet(i))
		case 0x0D: // VMADM
			r.accumSet(i, old+int64(vsi)*int64(vte[i]))
			vd[i] = clampSignedFromAcc(r.accumGet(i))
		case 0x0E: // VMADN
			r.accumSet(i, old+int64(vs[i])*int64(vti))
			vd[i] = uint16(r.accumGet(i))
		case 0x0F: // VMADH
			r.accumSet(i, old+int64(vsi)*int64(vti)<<16)
			vd[i] = clampSignedFromAcc(r.accumGet(i))
		}
	}
	return vd
}

// Op executes one COP2 vector instruction. e/rs/vsIdx/vtIdx/vdIdx mirror
// the Vectorop accessor struct in cop2.rs: rs doubles as the destination
// lane for VRCP/VRSQ/VMOV, vdIdx is the destination register for the main
// lane-parallel ops.
func (r *Rsp) Op(fn uint32, e, rs, vsIdx, vtIdx, vdIdx int) {
	vs := r.vregs[vsIdx]
	vtRaw := r.vregs[vtIdx]
	vte := withE(vtRaw, e)

	if fn <= 0x0F {
		vd := r.vmul(fn, vs, vte)
		r.vregs[vdIdx] = vd
		return
	}

	switch fn {
	case 0x10: // VADD
		var vd VReg
		for i := 0; i < 8; i++ {
			carry := int32(0)
			if r.vcoCarry[i] != 0 {
				carry = 1
			}
			sum := int32(int16(vs[i])) + int32(int16(vte[i])) + carry
			vd[i] = saturateS16(sum)
			r.accLo[i] = uint16(sum)
		}
		r.vregs[vdIdx] = vd
		r.vcoCarry = VReg{}
		r.vcoNe = VReg{}
	case 0x11: // VSUB
		var vd VReg
		for i := 0; i < 8; i++ {
			carry := int32(0)
			if r.vcoCarry[i] != 0 {
				carry = 1
			}
			diff := int32(int16(vs[i])) - int32(int16(vte[i])) - carry
			vd[i] = saturateS16(diff)
			r.accLo[i] = uint16(diff)
		}
		r.vregs[vdIdx] = vd
		r.vcoCarry = VReg{}
		r.vcoNe = VReg{}
	case 0x13: // VABS
		var vd VReg
		for i := 0; i < 8; i++ {
			s := int16(vs[i])
			t := int16(vte[i])
			var res uint16
			switch {
			case s < 0:
				res = saturateS16(-int32(t))
			case s > 0:
				res = uint16(t)
			default:
				res = 0
			}
			vd[i] = res
			r.accLo[i] = res
		}
		r.vregs[vdIdx] = vd
	case 0x14: // VADDC
		var vd VReg
		for i := 0; i < 8; i++ {
			sum := int32(vs[i]) + int32(vte[i])
			vd[i] = uint16(sum)
			r.accLo[i] = uint16(sum)
			r.vcoCarry[i] = boolMask16(sum > 0xFFFF)
		}
		r.vregs[vdIdx] = vd
		r.vcoNe = VReg{}
	case 0x15: // VSUBC
		var vd VReg
		for i := 0; i < 8; i++ {
			diff := int32(vs[i]) - int32(vte[i])
			vd[i] = uint16(diff)
			r.accLo[i] = uint16(diff)
			r.vcoCarry[i] = boolMask16(diff < 0)
			r.vcoNe[i] = boolMask16(vs[i] != vte[i])
		}
		r.vregs[vdIdx] = vd
	case 0x17, 0x19: // VSUBB/VSUCB: undocumented, accumulator-only
		for i := 0; i < 8; i++ {
			r.accLo[i] = vs[i] + vte[i]
		}
		r.vregs[vdIdx] = VReg{}
	case 0x1D: // VSAR
		switch {
		case e <= 2:
			r.vregs[vdIdx] = VReg{}
		case e >= 8 && e <= 10:
			slice := 2 - (e - 8)
			var vd VReg
			for i := 0; i < 8; i++ {
				switch slice {
				case 0:
					vd[i] = r.accLo[i]
				case 1:
					vd[i] = r.accMd[i]
				case 2:
					vd[i] = r.accHi[i]
				}
			}
			r.vregs[vdIdx] = vd
		}
	case 0x20: // VLT
		var vd VReg
		for i := 0; i < 8; i++ {
			cc := int16(vte[i]) > int16(vs[i]) ||
				(r.vcoNe[i] != 0 && r.vcoCarry[i] != 0 && vs[i] == vte[i])
			vd[i] = selectLane(cc, vs[i], vte[i])
			r.vcc0[i] = boolMask16(cc)
		}
		r.finishCompare(vdIdx, vd)
	case 0x21: // VEQ
		var vd VReg
		for i := 0; i < 8; i++ {
			cc := r.vcoNe[i] == 0 && vs[i] == vte[i]
			vd[i] = selectLane(cc, vs[i], vte[i])
			r.vcc0[i] = boolMask16(cc)
		}
		r.finishCompare(vdIdx, vd)
	case 0x22: // VNE
		var vd VReg
		for i := 0; i < 8; i++ {
			cc := vs[i] != vte[i] || (r.vcoNe[i] != 0 && vs[i] == vte[i])
			vd[i] = selectLane(cc, vs[i], vte[i])
			r.vcc0[i] = boolMask16(cc)
		}
		r.finishCompare(vdIdx, vd)
	case 0x23: // VGE
		var vd VReg
		for i := 0; i < 8; i++ {
			cc := int16(vs[i]) > int16(vte[i]) ||
				(!(r.vcoCarry[i] != 0 && r.vcoNe[i] != 0) && vs[i] == vte[i])
			vd[i] = selectLane(cc, vs[i], vte[i])
			r.vcc0[i] = boolMask16(cc)
		}
		r.finishCompare(vdIdx, vd)
	case 0x24: // VCL — left unimplemented, matching cop2.rs's own empty body.
	case 0x25: // VCH
		r.vch(vdIdx, vs, vte)
	case 0x26: // VCR
		r.vcr(vdIdx, vs, vte)
	case 0x28, 0x29, 0x2A, 0x2B, 0x2C, 0x2D: // VAND/VNAND/VOR/VNOR/VXOR/VNXOR
		var vd VReg
		for i := 0; i < 8; i++ {
			var res uint16
			switch fn {
			case 0x28:
				res = vs[i] & vte[i]
			case 0x29:
				res = ^(vs[i] & vte[i])
			case 0x2A:
				res = vs[i] | vte[i]
			case 0x2B:
				res = ^(vs[i] | vte[i])
			case 0x2C:
				res = vs[i] ^ vte[i]
			case 0x2D:
				res = ^(vs[i] ^ vte[i])
			}
			vd[i] = res
			r.accLo[i] = res
		}
		r.vregs[vdIdx] = vd
	case 0x30: // VRCP
		x := int16(vtRaw[e&7])
		res := vrcp(int32(x))
		r.vregs[vdIdx][rs&7] = uint16(res)
		r.accLo = vtRaw
		r.divOut = res
	case 0x31: // VRCPL
		x := vtRaw[e&7]
		var res uint32
		if r.divInValid {
			res = vrcp(int32(uint32(x) | r.divIn))
		} else {
			res = vrcp(int32(int16(x)))
		}
		r.vregs[vdIdx][rs&7] = uint16(res)
		r.accLo = vtRaw
		r.divOut = res
		r.divInValid = false
	case 0x32: // VRCPH
		x := vtRaw[e&7]
		r.vregs[vdIdx][rs&7] = uint16(r.divOut >> 16)
		r.accLo = vtRaw
		r.divIn = uint32(x) << 16
		r.divInValid = true
	case 0x33: // VMOV
		se := movSourceLane(e, rs)
		res := vtRaw[se&7]
		r.vregs[vdIdx][rs&7] = res
		r.accLo = vtRaw
	case 0x34: // VRSQ
		x := int16(vtRaw[e&7])
		res := vrsq(int32(x))
		r.vregs[vdIdx][rs&7] = uint16(res)
		r.accLo = vtRaw
		r.divOut = res
	case 0x35: // VRSQL
		x := vtRaw[e&7]
		var res uint32
		if r.divInValid {
			res = vrsq(int32(uint32(x) | r.divIn))
		} else {
			res = vrsq(int32(int16(x)))
		}
		r.vregs[vdIdx][rs&7] = uint16(res)
		r.accLo = vtRaw
		r.divOut = res
		r.divInValid = false
	case 0x36: // VRSQH
		x := vtRaw[e&7]
		r.vregs[vdIdx][rs&7] = uint16(r.divOut >> 16)
		r.accLo = vtRaw
		r.divIn = uint32(x) << 16
		r.divInValid = true
	case 0x37, 0x3F: // VNOP/VNULL
	default:
		if r.Logf != nil {
			r.Logf("rsp: unimplemented cop2 vu func %#x", fn)
		}
	}
}

func (r *Rsp) finishCompare(vdIdx int, vd VReg) {
	r.vregs[vdIdx] = vd
	r.accLo = vd
	r.vccClip = VReg{}
	r.vcoCarry = VReg{}
	r.vcoNe = VReg{}
}

func selectLane(cc bool, vs, vt uint16) uint16 {
	if cc {
		return vs
	}
	return vt
}

func movSourceLane(e, rs int) int {
	switch {
	case e <= 1:
		return rs & 0b111
	case e <= 3:
		return (e & 1) | (rs & 0b110)
	case e <= 7:
		return (e & 0b11) | (rs & 0b100)
	default:
		return e & 0b111
	}
}

// vch implements VCH ("vector clip high"), per-lane. Formulas are carried
// over verbatim from cop2.rs's inline comments describing the boolean
// semantics its SSE2 code computes, not the SIMD trick itself.
func (r *Rsp) vch(vdIdx int, vs, vte VReg) {
	var vd VReg
	for i := 0; i < 8; i++ {
		s := int16(vs[i])
		t := int16(vte[i])
		sign := (s ^ t) < 0

		var ge, le, vce, ne bool
		if sign {
			ge = t < 0
			le = int32(s)+int32(t) <= 0
			vce = int32(s)+int32(t) == -1
			ne = int32(s)+int32(t) != 0
		} else {
			ge = s >= t
			le = t < 0
			ne = s != t
		}

		var res uint16
		if sign {
			if le {
				res = uint16(-t)
			} else {
				res = uint16(s)
			}
		} else {
			if ge {
				res = uint16(t)
			} else {
				res = uint16(s)
			}
		}
		vd[i] = res
		r.vcc0[i] = boolMask16(le)
		r.vccClip[i] = boolMask16(ge)
		r.vce[i] = boolMask16(vce)
		r.vcoCarry[i] = boolMask16(sign)
		r.vcoNe[i] = boolMask16(ne)
	}
	r.vregs[vdIdx] = vd
	r.accLo = vd
}

// vcr implements VCR ("vector clip reciprocal"). cop2.rs marks its `le`
// formula with a FIXME noting the missing +sign saturation its own author
// flagged as untested; that discrepancy is preserved here rather than
// silently "fixed", per spec.md §9's note that VCH/VCR disagree with some
// test ROMs by one bit.
func (r *Rsp) vcr(vdIdx int, vs, vte VReg) {
	var vd VReg
	for i := 0; i < 8; i++ {
		s := int16(vs[i])
		t := int16(vte[i])
		sign := (s ^ t) < 0

		var ge, le bool
		if sign {
			ge = t < 0
			le = int32(s)+int32(t) < 0
		} else {
			ge = s >= t
			le = t < 0
		}

		var res uint16
		if sign {
			if le {
				res = uint16(-t)
			} else {
				res = uint16(s)
			}
		} else {
			if ge {
				res = uint16(t)
			} else {
				res = uint16(s)
			}
		}
		vd[i] = res
		r.vcc0[i] = boolMask16(le)
		r.vccClip[i] = boolMask16(ge)
	}
	r.vregs[vdIdx] = vd
	r.accLo = vd
	r.vce = VReg{}
	r.vcoCarry = VReg{}
	r.vcoNe = VReg{}
}
