// Package cop0 implements the MIPS64 System Control Coprocessor: the
// Status/Cause/EPC register family, exception vectoring, the 32-entry
// dual-page TLB and the segment-to-physical-address mapping that selects
// between direct and TLB-mapped translation (spec.md §3.3, §4.2).
//
// Grounded on the original engine's src/mips64/cp0.rs, tlb.rs and
// segment.rs — the bitfield layouts, exception vector offsets and TLB probe
// algorithm are carried over field-for-field; only the register access
// pattern is reworked from Rust's bitfield!/bitflags! macros into plain Go
// methods on a uint32, in the style of the teacher's RegisterInfo accessors
// (debug_interface.go).
package cop0

// StatusReg is CP0 register 12: global interrupt enable, privilege level,
// 64-bit addressing gates, interrupt mask and the boot-exception-vector
// selector. Bit numbering matches the R4300i manual.
type StatusReg uint32

func (s StatusReg) IE() bool  { return s&(1<<0) != 0 }
func (s StatusReg) EXL() bool { return s&(1<<1) != 0 }
func (s StatusReg) ERL() bool { return s&(1<<2) != 0 }

// KSU is the privilege level: 0b10 user, 0b01 supervisor, 0b00 kernel.
func (s StatusReg) KSU() uint32 { return uint32(s>>3) & 0x3 }

func (s StatusReg) UX() bool { return s&(1<<5) != 0 }
func (s StatusReg) SX() bool { return s&(1<<6) != 0 }
func (s StatusReg) KX() bool { return s&(1<<7) != 0 }

// IM is the 8-bit interrupt mask field (Cause.IP bits are only live when
// the matching IM bit is set).
func (s StatusReg) IM() uint32 { return uint32(s>>8) & 0xFF }

func (s StatusReg) BEV() bool { return s&(1<<22) != 0 }
func (s StatusReg) FR() bool  { return s&(1<<26) != 0 }

func (s *StatusReg) SetIE(v bool)  { s.setBit(0, v) }
func (s *StatusReg) SetEXL(v bool) { s.setBit(1, v) }
func (s *StatusReg) SetERL(v bool) { s.setBit(2, v) }
func (s *StatusReg) SetBEV(v bool) { s.setBit(22, v) }
func (s *StatusReg) SetFR(v bool)  { s.setBit(26, v) }

func (s *StatusReg) setBit(n uint, v bool) {
	if v {
		*s |= 1 << n
	} else {
		*s &^= 1 << n
	}
}

// CauseReg is CP0 register 13: the code of the most recently delivered
// exception, the pending hardware/software interrupt lines, and whether
// delivery happened inside a branch delay slot.
type CauseReg uint32

func (c CauseReg) ExcCode() uint32 { return uint32(c>>2) & 0x1F }
func (c CauseReg) IP() uint32      { return uint32(c>>8) & 0xFF }
func (c CauseReg) BD() bool        { return c&(1<<31) != 0 }

func (c *CauseReg) SetExcCode(code uint32) {
	*c = CauseReg(uint32(*c)&^(0x1F<<2) | (code&0x1F)<<2)
}
func (c *CauseReg) SetIP(mask uint32) {
	*c = CauseReg(uint32(*c)&^(0xFF<<8) | (mask&0xFF)<<8)
}
func (c *CauseReg) SetBD(v bool) {
	if v {
		*c |= 1 << 31
	} else {
		*c &^= 1 << 31
	}
}
