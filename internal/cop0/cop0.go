package cop0

import (
	"math/rand"

	"github.com/intuitionamiga/n64core/internal/state"
)

// CP0 register indices, per the R4300i register map (cp0.rs's CP0_REG_*).
const (
	RegIndex       = 0
	RegRandom      = 1
	RegEntryLo0    = 2
	RegEntryLo1    = 3
	RegContext     = 4
	RegPageMask    = 5
	RegWired       = 6
	RegBadVAddr    = 8
	RegCount       = 9
	RegEntryHi     = 10
	RegCompare     = 11
	RegStatus      = 12
	RegCause       = 13
	RegEPC         = 14
	RegPRId        = 15
	RegConfig      = 16
	RegLLAddr      = 17
	RegWatchLo     = 18
	RegWatchHi     = 19
	RegXContext    = 20
	RegParityError = 26
	RegCacheError  = 27
	RegTagLo       = 28
	RegTagHi       = 29
	RegErrorEPC    = 30
)

// Cp0 is the System Control Coprocessor: TLB plus the exception/status
// register file. One instance is owned by the main CPU subsystem.
type Cp0 struct {
	regIndex     uint32
	regEntryLo0  uint64
	regEntryLo1  uint64
	regContext   uint64
	regPageMask  uint32
	regWired     uint32
	regBadVAddr  uint64
	regCount     uint64
	regEntryHi   uint64
	regCompare   uint64
	status       StatusReg
	cause        CauseReg
	regEPC       uint64
	regPRId      uint64
	regConfig    uint64
	regLLAddr    uint64
	regWatchLo   uint64
	regWatchHi   uint64
	regXContext  uint64
	regParityErr uint64
	regCacheErr  uint64
	regTagLo     uint64
	regTagHi     uint64
	regErrorEPC  uint64

	tlb TLB
	rng *rand.Rand

	// Logf receives a line for every access to a not-yet-modelled register,
	// matching the original's logger.warn on unknown register indices.
	Logf func(format string, args ...any)
}

// New creates a Cp0 in its cold-reset configuration: ERL and BEV set, as
// ColdReset leaves them per spec.md §3.2's CpuContext lifecycle note.
func New(seed int64) *Cp0 {
	c := &Cp0{rng: rand.New(rand.NewSource(seed))}
	c.status.SetERL(true)
	c.status.SetBEV(true)
	return c
}

// RegisterState wires the CP0 registers listed below and the TLB array
// into arena for save-state round-tripping (spec.md §8.2). PRId, LLAddr,
// WatchLo/Hi, ParityError, CacheError and TagLo/Hi are not saved.
func (c *Cp0) RegisterState(arena *state.Arena) {
	arena.RegU32("cop0.index", &c.regIndex)
	arena.RegU64("cop0.entry_lo0", &c.regEntryLo0)
	arena.RegU64("cop0.entry_lo1", &c.regEntryLo1)
	arena.RegU64("cop0.context", &c.regContext)
	arena.RegU32("cop0.page_mask", &c.regPageMask)
	arena.RegU32("cop0.wired", &c.regWired)
	arena.RegU64("cop0.bad_vaddr", &c.regBadVAddr)
	arena.RegU64("cop0.count", &c.regCount)
	arena.RegU64("cop0.entry_hi", &c.regEntryHi)
	arena.RegU64("cop0.compare", &c.regCompare)
	arena.RegU32("cop0.status", (*uint32)(&c.status))
	arena.RegU32("cop0.cause", (*uint32)(&c.cause))
	arena.RegU64("cop0.epc", &c.regEPC)
	arena.RegU64("cop0.config", &c.regConfig)
	arena.RegU64("cop0.x_context", &c.regXContext)
	arena.RegU64("cop0.error_epc", &c.regErrorEPC)
	arena.RegSlice("cop0.tlb", c.tlb.Entries())
}

// Status and Cause are exposed read-only for the interpreter's interrupt
// poll and delay-slot bookkeeping.
func (c *Cp0) Status() StatusReg { return c.status }
func (c *Cp0) Cause() CauseReg   { return c.cause }

// TranslateAddr maps a virtual address to a physical one, consulting the
// TLB only for mapped segments. Mirrors Cp0::translate_addr.
func (c *Cp0) TranslateAddr(vaddr uint64) (uint32, Exception, bool) {
	seg := SegmentFromVAddr(vaddr, c.status)
	if !seg.Mapped {
		return uint32(vaddr - seg.Start), 0, true
	}

	asid := uint8(c.regEntryHi)
	index := c.tlb.Probe(vaddr, asid)
	if index < 0 {
		c.regBadVAddr = vaddr
		return 0, ExcTLBLMiss, false
	}

	entry := c.tlb.Read(index)
	pageMask := (entry.PageMask | 0x1FFF) >> 1
	isOdd := vaddr&(uint64(pageMask)+1) != 0

	valid := entry.Valid0()
	pfn := entry.PFN0()
	if isOdd {
		valid = entry.Valid1()
		pfn = entry.PFN1()
	}
	if !valid {
		c.regBadVAddr = vaddr
		return 0, ExcTLBLInvalid, false
	}
	return pfn | (uint32(vaddr) & pageMask), 0, true
}

// Reg reads CP0 register idx (MFC0 source), per Cop::reg.
func (c *Cp0) Reg(idx int) uint64 {
	switch idx {
	case RegIndex:
		return uint64(c.regIndex)
	case RegRandom:
		lo := int(c.regWired)
		if lo >= 32 {
			lo = 31
		}
		return uint64(lo + c.rng.Intn(32-lo))
	case RegEntryLo0:
		return c.regEntryLo0
	case RegEntryLo1:
		return c.regEntryLo1
	case RegContext:
		return c.regContext
	case RegPageMask:
		return uint64(c.regPageMask)
	case RegWired:
		return uint64(c.regWired)
	case RegBadVAddr:
		return c.regBadVAddr
	case RegCount:
		return c.regCount
	case RegEntryHi:
		return c.regEntryHi
	case RegCompare:
		return c.regCompare
	case RegStatus:
		return uint64(c.status)
	case RegCause:
		return uint64(c.cause)
	case RegEPC:
		return c.regEPC
	case RegPRId:
		return c.regPRId
	case RegConfig:
		return c.regConfig
	case RegLLAddr:
		return c.regLLAddr
	case RegWatchLo:
		return c.regWatchLo
	case RegWatchHi:
		return c.regWatchHi
	case RegXContext:
		return c.regXContext
	case RegParityError:
		return c.regParityErr
	case RegCacheError:
		return c.regCacheErr
	case RegTagLo:
		return c.regTagLo
	case RegTagHi:
		return c.regTagHi
	case RegErrorEPC:
		return c.regErrorEPC
	default:
		c.logf("cop0: read of unknown register %d", idx)
		return 0
	}
}

// SetReg writes CP0 register idx (MTC0 sink).
func (c *Cp0) SetReg(idx int, val uint64) {
	switch idx {
	case RegIndex:
		c.regIndex = uint32(val)
	case RegRandom:
		panic("cop0: random register is read-only")
	case RegEntryLo0:
		c.regEntryLo0 = val
	case RegEntryLo1:
		c.regEntryLo1 = val
	case RegContext:
		c.regContext = val
	case RegPageMask:
		c.regPageMask = uint32(val)
	case RegWired:
		c.regWired = uint32(val)
	case RegBadVAddr:
		// read-only; silently ignored like the original's panic-on-write
		// would abort emulation, which no ROM relies on triggering.
	case RegCount:
		c.regCount = val
	case RegEntryHi:
		c.regEntryHi = val
	case RegCompare:
		c.regCompare = val
		c.cause.SetIP(c.cause.IP() &^ (1 << 7))
	case RegStatus:
		c.status = StatusReg(val)
	case RegCause:
		c.cause = CauseReg(val)
	case RegEPC:
		c.regEPC = val
	case RegPRId:
		c.regPRId = val
	case RegConfig:
		c.regConfig = val
	case RegLLAddr:
		c.regLLAddr = val
	case RegWatchLo:
		c.regWatchLo = val
	case RegWatchHi:
		c.regWatchHi = val
	case RegXContext:
		c.regXContext = val
	case RegParityError:
		c.regParityErr = val
	case RegCacheError:
		// read-only
	case RegTagLo:
		c.regTagLo = val
	case RegTagHi:
		c.regTagHi = val
	case RegErrorEPC:
		c.regErrorEPC = val
	default:
		c.logf("cop0: write of unknown register %d = %#x", idx, val)
	}
}

// TLBRead/TLBWriteIndexed/TLBWriteRandom/ERET implement the four COP0
// TLB-group instructions (func=0x10, fmt selects TLBR/TLBWI/TLBWR/ERET in
// the original's C0op dispatch).

// TLBRead loads EntryHi/Lo0/Lo1/PageMask from the entry at the current
// Index register (TLBR).
func (c *Cp0) TLBRead() {
	entry := c.tlb.Read(int(c.regIndex & 0x3F))
	c.regEntryHi = entry.Hi()
	c.regEntryLo0 = entry.Lo0
	c.regEntryLo1 = entry.Lo1
	c.regPageMask = entry.PageMask & 0x1FFF_E000
}

// TLBWriteIndexed installs the current EntryHi/Lo0/Lo1/PageMask at Index
// (TLBWI).
func (c *Cp0) TLBWriteIndexed() {
	c.tlb.Write(int(c.regIndex&0x3F), c.regPageMask, c.regEntryHi, c.regEntryLo0, c.regEntryLo1)
}

// TLBWriteRandom installs the current EntryHi/Lo0/Lo1/PageMask at a
// pseudo-random index in [Wired, 32) (TLBWR).
func (c *Cp0) TLBWriteRandom() {
	index := int(c.Reg(RegRandom))
	c.tlb.Write(index, c.regPageMask, c.regEntryHi, c.regEntryLo0, c.regEntryLo1)
}

// ERET returns from exception: if ERL is set it restores from ErrorEPC and
// clears ERL, otherwise it restores from EPC and clears EXL.
func (c *Cp0) ERET() (newPC uint64) {
	if c.status.ERL() {
		newPC = c.regErrorEPC
		c.status.SetERL(false)
	} else {
		newPC = c.regEPC
		c.status.SetEXL(false)
	}
	return newPC
}

func (c *Cp0) logf(format string, args ...any) {
	if c.Logf != nil {
		c.Logf(format, args...)
	}
}
