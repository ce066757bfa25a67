package n64

import (
	"github.com/intuitionamiga/n64core/internal/bus"
	"github.com/intuitionamiga/n64core/internal/width"
)

// Ri is the RDRAM Interface: the RDRAM controller's own register bank
// (refresh timing, current control, error flags). It has no effect on
// emulated memory accesses — real hardware only needs the bus-facing DRAM
// array this engine gives RDRAM directly via bus.MapMem — but software
// probes these registers during boot, so they must read back what was
// written (ri.rs's mode/config/select/refresh/latency fields).
type Ri struct {
	mode     uint32
	config   uint32
	selectR  uint32
	refresh  uint32
	latency  uint32
	errFlags uint32
}

// NewRi creates an Ri with all registers zeroed.
func NewRi() *Ri { return &Ri{} }

func (r *Ri) mapRW(b *bus.Bus, off uint32, rwmask uint32, ptr *uint32) error {
	return b.MapReg(AddrRIRegs+off, width.Size32,
		func(uint32) uint64 { return uint64(*ptr) },
		func(_ uint32, v uint64) { *ptr = uint32(v) & rwmask })
}

// MapBus installs the RI register block (spec.md §6.1), grounded on
// ri.rs's offset/rwmask table. current_load (offset 0x08) and error_write
// (0x1C) are write-only triggers in ri.rs; here a current_load write is
// ignored (there is no current-control model to update) and an error_write
// write clears the error flags. Both read back as zero.
func (r *Ri) MapBus(b *bus.Bus) error {
	if err := r.mapRW(b, 0x00, 0xF, &r.mode); err != nil {
		return err
	}
	if err := r.mapRW(b, 0x04, 0x3F, &r.config); err != nil {
		return err
	}
	if err := b.MapReg(AddrRIRegs+0x08, width.Size32, func(uint32) uint64 { return 0 }, func(uint32, uint64) {}); err != nil {
		return err
	}
	if err := r.mapRW(b, 0x0C, 0xF, &r.selectR); err != nil {
		return err
	}
	if err := r.mapRW(b, 0x10, 0x7FFFF, &r.refresh); err != nil {
		return err
	}
	if err := r.mapRW(b, 0x14, 0xF, &r.latency); err != nil {
		return err
	}
	if err := b.MapReg(AddrRIRegs+0x18, width.Size32, func(uint32) uint64 { return uint64(r.errFlags) }, func(uint32, uint64) {}); err != nil {
		return err
	}
	return b.MapReg(AddrRIRegs+0x1C, width.Size32, func(uint32) uint64 { return 0 }, func(uint32, uint64) { r.errFlags = 0 })
}
