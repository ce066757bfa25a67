package n64

import (
	"github.com/intuitionamiga/n64core/internal/bus"
	"github.com/intuitionamiga/n64core/internal/width"
)

// Pi is the Parallel Interface: the DMA engine between RDRAM and the
// cartridge domain (ROM, flash carts) or PIF RAM. Joybus controller
// polling (pi.rs's joybus_cmd/joybus_exec, which emulates the PIF's own
// input protocol) is outside this engine's scope — spec.md's component
// table has no input subsystem — so this port keeps the DMA engine and
// domain-timing registers only.
type Pi struct {
	dmaRamAddr uint32
	dmaRomAddr uint32
	dmaRdLen   uint32
	dmaWrLen   uint32
	dmaStatus  uint32

	dom1Latency, dom1Pulse, dom1Page, dom1Release uint32
	dom2Latency, dom2Pulse, dom2Page, dom2Release uint32

	mi  *Mi
	bus *bus.Bus
}

// NewPi creates a Pi whose DMA transfers run across bus and whose
// completion interrupt routes through mi.
func NewPi(mi *Mi, b *bus.Bus) *Pi { return &Pi{mi: mi, bus: b} }

// xfer copies (len+1) bytes from src to dst, four at a time — the
// cartridge domain is read/written in 32-bit beats on real hardware
// (cb_write_dma_wr_len/rd_len in pi.rs).
func (p *Pi) xfer(src, dst, length uint32) (newSrc, newDst uint32) {
	var i uint32
	for i < length+1 {
		p.bus.Write32(dst, p.bus.Read32(src))
		src += 4
		dst += 4
		i += 4
	}
	return src, dst
}

func (p *Pi) writeDMAWrLen(length uint32) {
	raddr, waddr := p.xfer(p.dmaRomAddr, p.dmaRamAddr, length)
	p.dmaRomAddr = raddr
	p.dmaRamAddr = waddr
	p.mi.SetIRQLine(IrqPI, true)
}

func (p *Pi) writeDMARdLen(length uint32) {
	raddr, waddr := p.xfer(p.dmaRamAddr, p.dmaRomAddr, length)
	p.dmaRamAddr = raddr
	p.dmaRomAddr = waddr
	p.mi.SetIRQLine(IrqPI, true)
}

func (p *Pi) writeDMAStatus(uint32) {
	p.mi.SetIRQLine(IrqPI, false)
}

func (p *Pi) mapRW(b *bus.Bus, off uint32, rwmask uint32, ptr *uint32) error {
	return b.MapReg(AddrPIRegs+off, width.Size32,
		func(uint32) uint64 { return uint64(*ptr) },
		func(_ uint32, v uint64) { *ptr = uint32(v) & rwmask })
}

// MapBus installs the PI register block (spec.md §6.1), grounded on
// pi.rs's offset/rwmask table (minus the Mem-backed pifrom/ram fields,
// which the PIF ROM/RAM range in the memory map owns directly).
func (p *Pi) MapBus(b *bus.Bus) error {
	if err := p.mapRW(b, 0x00, 0x00FFFFFF, &p.dmaRamAddr); err != nil {
		return err
	}
	if err := p.mapRW(b, 0x04, 0xFFFFFFFF, &p.dmaRomAddr); err != nil {
		return err
	}
	if err := b.MapReg(AddrPIRegs+0x08, width.Size32,
		func(uint32) uint64 { return uint64(p.dmaRdLen) },
		func(_ uint32, v uint64) { p.dmaRdLen = uint32(v) & 0x00FFFFFF; p.writeDMARdLen(p.dmaRdLen) }); err != nil {
		return err
	}
	if err := b.MapReg(AddrPIRegs+0x0C, width.Size32,
		func(uint32) uint64 { return uint64(p.dmaWrLen) },
		func(_ uint32, v uint64) { p.dmaWrLen = uint32(v) & 0x00FFFFFF; p.writeDMAWrLen(p.dmaWrLen) }); err != nil {
		return err
	}
	if err := b.MapReg(AddrPIRegs+0x10, width.Size32,
		func(uint32) uint64 { return uint64(p.dmaStatus) },
		func(_ uint32, v uint64) { p.writeDMAStatus(uint32(v)) }); err != nil {
		return err
	}
	if err := p.mapRW(b, 0x14, 0, &p.dom1Latency); err != nil {
		return err
	}
	if err := p.mapRW(b, 0x18, 0, &p.dom1Pulse); err != nil {
		return err
	}
	if err := p.mapRW(b, 0x1C, 0xF, &p.dom1Page); err != nil {
		return err
	}
	if err := p.mapRW(b, 0x20, 0x3, &p.dom1Release); err != nil {
		return err
	}
	if err := p.mapRW(b, 0x24, 0xFF, &p.dom2Latency); err != nil {
		return err
	}
	if err := p.mapRW(b, 0x28, 0xFF, &p.dom2Pulse); err != nil {
		return err
	}
	if err := p.mapRW(b, 0x2C, 0xF, &p.dom2Page); err != nil {
		return err
	}
	return p.mapRW(b, 0x30, 0x3, &p.dom2Release)
}
