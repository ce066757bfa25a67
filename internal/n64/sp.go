package n64

import (
	"github.com/intuitionamiga/n64core/internal/bus"
	"github.com/intuitionamiga/n64core/internal/cpu"
	"github.com/intuitionamiga/n64core/internal/width"
)

// spStatus names the SP_STATUS bits this port acts on — a subset of
// sp.rs's StatusFlags: HALT, BROKE, the two DMA flags and INTBREAK. The
// SIGn signal bits are not modelled: writeStatus ignores their set/clear
// bits and they always read as zero.
type spStatus uint32

const (
	spHalt      spStatus = 1 << 0
	spBroke     spStatus = 1 << 1
	spDMABusy   spStatus = 1 << 2
	spDMAFull   spStatus = 1 << 3
	spIntBreak  spStatus = 1 << 6
)

// Sp is the RSP's register block: DMEM/IMEM DMA to RDRAM, the status
// register that halts/resumes the RSP core, and the PC shadow register the
// main CPU pokes to start RSP microcode. Grounded on sp.rs's Sp struct.
type Sp struct {
	status      uint32
	dmaRspAddr  uint32
	dmaRdramAddr uint32
	dmaFull     bool
	dmaBusy     bool
	semaphore   uint32

	mi    *Mi
	bus   *bus.Bus
	rsp   *cpu.Cpu
	dmem  []byte
	imem  []byte
}

// NewSp creates an Sp wired to rsp's register context and dmem/imem
// backing, with DMA transfers run against the shared bus. The RSP core
// starts halted until the main CPU writes SP_STATUS to release it, matching
// real hardware and sp.rs's initial status value of 1.
func NewSp(mi *Mi, b *bus.Bus, rsp *cpu.Cpu, dmem, imem []byte) *Sp {
	rsp.Ctx().SetHalt(true)
	return &Sp{status: 1, mi: mi, bus: b, rsp: rsp, dmem: dmem, imem: imem}
}

// writeStatus applies the write-1-to-set/clear bit-pair encoding of
// SP_STATUS (sp.rs's write_status), propagating HALT transitions to the
// RSP core's halt line.
func (s *Sp) writeStatus(new uint32) {
	cur := spStatus(s.status)
	clearSet := func(clearBit, setBit uint, flag spStatus) {
		if new&(1<<clearBit) != 0 {
			cur &^= flag
		}
		if new&(1<<setBit) != 0 {
			cur |= flag
		}
	}
	wasHalted := cur&spHalt != 0
	if new&(1<<0) != 0 {
		cur &^= spHalt
	}
	if new&(1<<1) != 0 {
		cur |= spHalt
	}
	if new&(1<<2) != 0 {
		cur &^= spBroke
	}
	if new&(1<<3) != 0 {
		s.mi.SetIRQLine(IrqSP, false)
	}
	if new&(1<<4) != 0 {
		s.mi.SetIRQLine(IrqSP, true)
	}
	clearSet(5, 6, spIntBreak)

	s.status = uint32(cur)
	nowHalted := cur&spHalt != 0
	if wasHalted != nowHalted {
		if nowHalted && cur&spIntBreak != 0 {
			s.mi.SetIRQLine(IrqSP, true)
		}
		s.rsp.Ctx().SetHalt(nowHalted)
	}
}

// dmaXfer copies count rows of wide bytes from src to dst across the shared
// bus, advancing src by wide+skipSrc and dst by wide+skipDst after each row,
// mirroring Sp::dma_xfer's width/count/skip fields packed into the length
// register.
func (s *Sp) dmaXfer(src, dst uint32, wide, count, skipSrc, skipDst uint32) {
	for i := uint32(0); i < count; i++ {
		for b := uint32(0); b < wide; b++ {
			s.bus.Write8(dst+b, s.bus.Read8(src+b))
		}
		src += wide + skipSrc
		dst += wide + skipDst
	}
}

func unpackDMALen(val uint32) (wide, count, skip uint32) {
	wide = (val & 0xFFF) + 1
	count = ((val >> 12) & 0xFF) + 1
	skip = (val >> 20) & 0xFFF
	return
}

func (s *Sp) writeDMARdLen(val uint32) {
	wide, count, skip := unpackDMALen(val)
	src := s.dmaRdramAddr &^ 7
	dst := s.dmaRspAddr &^ 7
	s.dmaXfer(src, dst+AddrSPDMEM, wide, count, skip, 0)
}

func (s *Sp) writeDMAWrLen(val uint32) {
	wide, count, skip := unpackDMALen(val)
	s.dmaXfer(s.dmaRspAddr+AddrSPDMEM, s.dmaRdramAddr, wide, count, 0, skip)
}

// MapBus installs the SP DMEM/IMEM memory regions and control registers
// (spec.md §6.1), grounded on sp.rs's bank layout.
func (s *Sp) MapBus(b *bus.Bus) error {
	if err := b.MapMem(AddrSPDMEM, AddrSPDMEM+DmemSize-1, s.dmem); err != nil {
		return err
	}
	if err := b.MapMem(AddrSPIMEM, AddrSPIMEM+ImemSize-1, s.imem); err != nil {
		return err
	}
	if err := b.MapReg(AddrSPRegs+0x00, width.Size32,
		func(uint32) uint64 { return uint64(s.dmaRspAddr) },
		func(_ uint32, v uint64) { s.dmaRspAddr = uint32(v) & 0x1FF8 }); err != nil {
		return err
	}
	if err := b.MapReg(AddrSPRegs+0x04, width.Size32,
		func(uint32) uint64 { return uint64(s.dmaRdramAddr) },
		func(_ uint32, v uint64) { s.dmaRdramAddr = uint32(v) & 0xFFFFF8 }); err != nil {
		return err
	}
	if err := b.MapReg(AddrSPRegs+0x08, width.Size32,
		func(uint32) uint64 { return 0 },
		func(_ uint32, v uint64) { s.writeDMARdLen(uint32(v)) }); err != nil {
		return err
	}
	if err := b.MapReg(AddrSPRegs+0x0C, width.Size32,
		func(uint32) uint64 { return 0 },
		func(_ uint32, v uint64) { s.writeDMAWrLen(uint32(v)) }); err != nil {
		return err
	}
	if err := b.MapReg(AddrSPRegs+0x10, width.Size32,
		func(uint32) uint64 { return uint64(s.status) },
		func(_ uint32, v uint64) { s.writeStatus(uint32(v)) }); err != nil {
		return err
	}
	if err := b.MapReg(AddrSPRegs+0x14, width.Size32,
		func(uint32) uint64 { return boolU32(spStatus(s.status)&spDMAFull != 0) },
		func(uint32, uint64) {}); err != nil {
		return err
	}
	if err := b.MapReg(AddrSPRegs+0x18, width.Size32,
		func(uint32) uint64 { return boolU32(spStatus(s.status)&spDMABusy != 0) },
		func(uint32, uint64) {}); err != nil {
		return err
	}
	if err := b.MapReg(AddrSPRegs+0x1C, width.Size32,
		func(uint32) uint64 { return uint64(s.semaphore) },
		func(_ uint32, v uint64) { s.semaphore = uint32(v) & 0x1 }); err != nil {
		return err
	}
	return b.MapReg(AddrSPPCReg, width.Size32,
		func(uint32) uint64 { return s.rsp.Ctx().PC & 0xFFF },
		func(_ uint32, v uint64) { s.rsp.Ctx().SetPC(uint64(v) & 0xFFF) })
}

func boolU32(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}
