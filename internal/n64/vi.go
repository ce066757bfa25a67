package n64

import (
	"github.com/intuitionamiga/n64core/internal/bus"
	"github.com/intuitionamiga/n64core/internal/width"
)

// Vi is the Video Interface register block. Pixel output is outside this
// engine's scope (spec.md §1 names presentation as an external
// collaborator), so unlike vi.rs's end_frame this port carries the control
// registers and the vertical-interrupt line only — origin/width/scale
// registers are stored for a future presentation layer to read, not acted
// on here.
type Vi struct {
	status             uint32
	origin             uint32
	width              uint32
	verticalInterrupt  uint32
	currentLine        uint32
	timing             uint32
	verticalSync       uint32
	horizontalSync     uint32
	horizontalSyncLeap uint32
	horizontalVideo    uint32
	verticalVideo      uint32
	verticalBurst      uint32
	xScale             uint32
	yScale             uint32

	mi *Mi
}

// NewVi creates a Vi whose vertical-interrupt line is routed through mi.
func NewVi(mi *Mi) *Vi { return &Vi{mi: mi} }

// SetLine updates V_CURRENT and, when it matches V_INTR, raises the VI
// interrupt — called once per scanline by the scheduler's HSync hook at
// x==0, mirroring Vi::set_line.
func (v *Vi) SetLine(y int) {
	v.currentLine = uint32(y)
	if v.currentLine == v.verticalInterrupt {
		v.mi.SetIRQLine(IrqVI, true)
	}
}

func (v *Vi) mapRW(b *bus.Bus, off uint32, rwmask uint32, ptr *uint32) error {
	read := func(uint32) uint64 { return uint64(*ptr) }
	write := func(_ uint32, val uint64) { *ptr = uint32(val) & rwmask }
	return b.MapReg(AddrVIRegs+off, width.Size32, read, write)
}

// MapBus installs the VI register block (spec.md §6.1), grounded on vi.rs's
// offset/rwmask table.
func (v *Vi) MapBus(b *bus.Bus) error {
	if err := v.mapRW(b, 0x00, 0xFFFF, &v.status); err != nil {
		return err
	}
	if err := v.mapRW(b, 0x04, 0xFFFFFF, &v.origin); err != nil {
		return err
	}
	if err := v.mapRW(b, 0x08, 0xFFF, &v.width); err != nil {
		return err
	}
	if err := b.MapReg(AddrVIRegs+0x0C, width.Size32,
		func(uint32) uint64 { return uint64(v.verticalInterrupt) },
		func(_ uint32, val uint64) { v.verticalInterrupt = uint32(val) & 0x3FF }); err != nil {
		return err
	}
	// Writing CURRENT_LINE acknowledges the VI interrupt (cb_write_current_line).
	if err := b.MapReg(AddrVIRegs+0x10, width.Size32,
		func(uint32) uint64 { return uint64(v.currentLine) },
		func(uint32, uint64) { v.mi.SetIRQLine(IrqVI, false) }); err != nil {
		return err
	}
	if err := v.mapRW(b, 0x14, 0x3FFFFFFF, &v.timing); err != nil {
		return err
	}
	if err := v.mapRW(b, 0x18, 0xFFFFFFFF, &v.verticalSync); err != nil {
		return err
	}
	if err := v.mapRW(b, 0x1C, 0x1FFFFF, &v.horizontalSync); err != nil {
		return err
	}
	if err := v.mapRW(b, 0x20, 0xFFFFFFF, &v.horizontalSyncLeap); err != nil {
		return err
	}
	if err := v.mapRW(b, 0x24, 0x3FFFFFF, &v.horizontalVideo); err != nil {
		return err
	}
	if err := v.mapRW(b, 0x28, 0x3FFFFFF, &v.verticalVideo); err != nil {
		return err
	}
	if err := v.mapRW(b, 0x2C, 0x3FFFFFF, &v.verticalBurst); err != nil {
		return err
	}
	if err := v.mapRW(b, 0x30, 0xFFFFFFF, &v.xScale); err != nil {
		return err
	}
	return v.mapRW(b, 0x34, 0xFFFFFFF, &v.yScale)
}
