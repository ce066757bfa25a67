package n64

import (
	"github.com/intuitionamiga/n64core/internal/bus"
	"github.com/intuitionamiga/n64core/internal/width"
)

// Si is the Serial Interface: the DMA engine between RDRAM and PIF RAM
// that the boot ROM and controller-polling code use to talk to the PIF.
// Joybus command emulation (controller/EEPROM protocol) is outside this
// engine's scope — spec.md's component table has no input-device
// subsystem — so Si here performs the raw 64-byte DMA and interrupt
// bookkeeping si.rs does, leaving PIF RAM's contents for a future input
// layer to interpret.
type Si struct {
	dmaAddress uint32
	status     uint32

	mi  *Mi
	bus *bus.Bus
}

// NewSi creates an Si whose DMA moves bytes across bus and whose
// completion interrupt routes through mi.
func NewSi(mi *Mi, b *bus.Bus) *Si { return &Si{mi: mi, bus: b} }

// SetBusy sets or clears the IO-busy status bit (Si::set_busy).
func (s *Si) SetBusy(busy bool) {
	if busy {
		s.status |= 1 << 1
	} else {
		s.status &^= 1 << 1
	}
}

func (s *Si) raiseIRQ() {
	s.status |= 1 << 12
	s.mi.SetIRQLine(IrqSI, true)
}

func (s *Si) writeStatus(uint32) {
	s.status &^= 1 << 12
	s.mi.SetIRQLine(IrqSI, false)
}

// dmaXfer copies 16 words between src and dst across the shared bus,
// mirroring cb_write_start_dma_read/write's fixed 64-byte PIF RAM size.
func (s *Si) dmaXfer(src, dst uint32) {
	for i := 0; i < 16; i++ {
		s.bus.Write32(dst, s.bus.Read32(src))
		src += 4
		dst += 4
	}
}

func (s *Si) writeStartDMARead(new uint32) {
	s.dmaXfer(new, s.dmaAddress)
	s.raiseIRQ()
}

func (s *Si) writeStartDMAWrite(new uint32) {
	s.dmaXfer(s.dmaAddress, new)
	s.raiseIRQ()
}

// MapBus installs the SI register block (spec.md §6.1), grounded on
// si.rs's offset table.
func (s *Si) MapBus(b *bus.Bus) error {
	if err := b.MapReg(AddrSIRegs+0x00, width.Size32,
		func(uint32) uint64 { return uint64(s.dmaAddress) },
		func(_ uint32, v uint64) { s.dmaAddress = uint32(v) }); err != nil {
		return err
	}
	if err := b.MapReg(AddrSIRegs+0x04, width.Size32,
		func(uint32) uint64 { return 0 },
		func(_ uint32, v uint64) { s.writeStartDMARead(uint32(v)) }); err != nil {
		return err
	}
	if err := b.MapReg(AddrSIRegs+0x10, width.Size32,
		func(uint32) uint64 { return 0 },
		func(_ uint32, v uint64) { s.writeStartDMAWrite(uint32(v)) }); err != nil {
		return err
	}
	return b.MapReg(AddrSIRegs+0x18, width.Size32,
		func(uint32) uint64 { return uint64(s.status) },
		func(_ uint32, v uint64) { s.writeStatus(uint32(v)) })
}
