package cop0

// Exception enumerates every condition the interpreter or a coprocessor
// can raise, matching the Cause.ExcCode encoding plus the special reset
// family that bypasses the Cause register entirely (spec.md §4.2).
type Exception int

const (
	ExcInt Exception = iota
	ExcMod
	ExcTLBLMiss
	ExcTLBSMiss
	ExcTLBLInvalid
	ExcTLBSInvalid
	ExcADEL
	ExcADES
	ExcIBE
	ExcDBE
	ExcSYS
	ExcBP
	ExcRI
	ExcCPU
	ExcOV
	ExcTR
	ExcFPE
	ExcWATCH

	// Special exceptions: not encoded in Cause.ExcCode, handled by a
	// dedicated vector and register side-effects instead.
	ExcReset
	ExcSoftReset
	ExcNMI
)

// code returns the Cause.ExcCode value for exceptions that use it; ok is
// false for the special reset family.
func (e Exception) code() (code uint32, ok bool) {
	switch e {
	case ExcInt:
		return 0, true
	case ExcMod:
		return 1, true
	case ExcTLBLMiss, ExcTLBLInvalid:
		return 2, true
	case ExcTLBSMiss, ExcTLBSInvalid:
		return 3, true
	case ExcADEL:
		return 4, true
	case ExcADES:
		return 5, true
	case ExcIBE:
		return 6, true
	case ExcDBE:
		return 7, true
	case ExcSYS:
		return 8, true
	case ExcBP:
		return 9, true
	case ExcRI:
		return 10, true
	case ExcCPU:
		return 11, true
	case ExcOV:
		return 12, true
	case ExcTR:
		return 13, true
	case ExcFPE:
		return 15, true
	case ExcWATCH:
		return 23, true
	default:
		return 0, false
	}
}

func (e Exception) Error() string {
	names := map[Exception]string{
		ExcInt: "interrupt", ExcMod: "tlb-mod", ExcTLBLMiss: "tlbl-miss",
		ExcTLBSMiss: "tlbs-miss", ExcTLBLInvalid: "tlbl-invalid", ExcTLBSInvalid: "tlbs-invalid",
		ExcADEL: "address-error-load", ExcADES: "address-error-store",
		ExcIBE: "bus-error-fetch", ExcDBE: "bus-error-data", ExcSYS: "syscall",
		ExcBP: "breakpoint", ExcRI: "reserved-instruction", ExcCPU: "coprocessor-unusable",
		ExcOV: "overflow", ExcTR: "trap", ExcFPE: "float", ExcWATCH: "watch",
		ExcReset: "reset", ExcSoftReset: "soft-reset", ExcNMI: "nmi",
	}
	if n, ok := names[e]; ok {
		return n
	}
	return "unknown-exception"
}

// Exception vector constants, carried over from cp0.rs's EXC_LOC_* table.
const (
	excLocCommon      = 0xBFC0_0000
	excLocBase0       = 0x8000_0000
	excLocBase1       = 0xBFC0_0000
	excLocOffTLBMiss  = 0x0000
	excLocOffXTLBMiss = 0x0080
	excLocOffOther    = 0x0180
)

// ExceptionContext is the slice of CPU state an exception delivery needs
// to read and update. The interpreter's CpuContext satisfies this
// implicitly by exposing the same fields; keeping Cp0 decoupled from the
// cpu package avoids an import cycle (cpu imports cop0, not vice versa).
type ExceptionContext struct {
	PC       uint64
	BranchPC uint64 // nonzero: exception occurred in a delay slot; holds the delay slot's address, so EPC = BranchPC-4 (the branch)
}

// Deliver vectors exc, updating Cause/EPC/Status as the hardware does and
// returning the PC execution resumes at. Mirrors Cp0::exception's switch.
// TLB refill misses use the Status-selected vector base; TLB-invalid and
// every other exception carrying a Cause.ExcCode (ADEL/ADES/IBE/DBE/SYS/
// BP/RI/TR/FPE/WATCH/MOD/INT/OV) share the default arm and resume at
// 0xBFC0_0180. Register side effects beyond Cause/EPC/Status (e.g.
// BadVAddr, which TranslateAddr sets itself) are not made here.
func (c *Cp0) Deliver(ctx ExceptionContext, exc Exception) uint64 {
	switch exc {
	case ExcTLBLMiss, ExcTLBSMiss:
		c.setupCause(ctx, exc)
		base := c.vectorBase()
		offset := uint32(excLocOffTLBMiss)
		if c.status.UX() || c.status.SX() || c.status.KX() {
			offset = excLocOffXTLBMiss
		}
		return uint64(base + offset)
	case ExcTLBLInvalid, ExcTLBSInvalid:
		c.setupCause(ctx, exc)
		return uint64(excLocCommon + excLocOffOther)
	case ExcReset:
		c.status.SetERL(true)
		c.status.SetBEV(true)
		return excLocCommon
	case ExcSoftReset:
		next := uint64(excLocCommon)
		if !c.status.ERL() {
			next = c.regErrorEPC
		}
		c.status.SetERL(true)
		c.status.SetBEV(true)
		return next
	case ExcNMI:
		c.status.SetERL(true)
		c.status.SetBEV(true)
		return c.regErrorEPC
	default:
		c.setupCause(ctx, exc)
		return uint64(excLocCommon + excLocOffOther)
	}
}

func (c *Cp0) setupCause(ctx ExceptionContext, exc Exception) {
	if code, ok := exc.code(); ok {
		c.cause.SetExcCode(code)
	}
	if ctx.BranchPC != 0 {
		c.regEPC = ctx.BranchPC - 4
		c.cause.SetBD(true)
	} else {
		c.regEPC = ctx.PC
		c.cause.SetBD(false)
	}
}

func (c *Cp0) vectorBase() uint32 {
	switch {
	case c.status.EXL():
		return excLocCommon
	case c.status.BEV():
		return excLocBase1
	default:
		return excLocBase0
	}
}

// PendingInterrupt reports whether any Cause.IP bit has a matching
// Status.IM bit set and global interrupts are enabled — spec.md §4.2's
// "interrupt polling (Status.IM vs Cause.IP)".
func (c *Cp0) PendingInterrupt() bool {
	return c.status.IE() && !c.status.EXL() && !c.status.ERL() && c.status.IM()&c.cause.IP() != 0
}

// SetIP sets or clears hardware interrupt line n (0..7) in Cause.IP,
// called by devices (MI, timer) that raise interrupts asynchronously.
func (c *Cp0) SetIP(n uint, asserted bool) {
	mask := c.cause.IP()
	if asserted {
		mask |= 1 << n
	} else {
		mask &^= 1 << n
	}
	c.cause.SetIP(mask)
}
