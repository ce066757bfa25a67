package n64

import (
	"github.com/intuitionamiga/n64core/internal/bus"
	"github.com/intuitionamiga/n64core/internal/trace"
	"github.com/intuitionamiga/n64core/internal/width"
)

// dpStatus bits, grounded on dp.rs's StatusFlags bitflags.
const (
	dpStartValid uint32 = 1 << 10
	dpEndValid   uint32 = 1 << 9
)

// Dp is the RDP command-buffer consumer: spec.md §2/§4.6 describes it as
// "a memory-consumer driven by a command list pointer range written by the
// RSP or the CPU". Actual rasterization is outside this engine's scope (no
// RDP/gfx component in spec.md's leaf table), so Run here retires 8-byte
// commands from the bus at the scheduled rate without interpreting their
// opcode byte, matching dp.rs's own run loop structure minus DpGfx::op.
type Dp struct {
	cmdStart   uint32
	cmdEnd     uint32
	cmdCurrent uint32
	cmdStatus  uint32

	fetchedStart uint32
	fetchedEnd   uint32
	running      bool
	cycles       int64

	bus *bus.Bus
	mi  *Mi
}

// NewDp creates a Dp whose command words are fetched from bus.
func NewDp(b *bus.Bus, mi *Mi) *Dp { return &Dp{bus: b, mi: mi} }

func (d *Dp) writeCmdStart(val uint32) {
	d.cmdStart = val & 0x00FFFFFF
	d.cmdStatus |= dpStartValid
}

func (d *Dp) writeCmdEnd(val uint32) {
	d.cmdEnd = val & 0x00FFFFFF
	d.cmdStatus |= dpEndValid
	d.checkStart()
}

func (d *Dp) writeCmdStatus(uint32) {
	// Writes to DP_STATUS configure rendering modes this engine does not
	// model (dp.rs logs and discards them too).
}

func (d *Dp) checkStart() {
	if d.cmdStatus&dpEndValid == 0 {
		return
	}
	if d.cmdStatus&dpStartValid != 0 {
		d.cmdCurrent = d.cmdStart
		d.fetchedStart = d.cmdStart
		d.cmdStatus &^= dpStartValid
	}
	d.fetchedEnd = d.cmdEnd
	d.cmdStatus &^= dpEndValid
	d.running = true
}

// Name implements sched.Subsystem.
func (d *Dp) Name() string { return "DP" }

// Cycles implements sched.Subsystem.
func (d *Dp) Cycles() int64 { return d.cycles }

// Run retires one command word (8 bytes) per cycle until the command
// buffer is drained or until is reached, then checks for a newly queued
// buffer — mirroring Dp::run's outer loop.
func (d *Dp) Run(until int64, t trace.Tracer) error {
	for {
		if !d.running {
			d.cycles = until
			return nil
		}
		for d.cmdCurrent < d.fetchedEnd {
			if err := t.OnMemRead("DP", uint64(d.cmdCurrent), 8); err != nil {
				return err
			}
			_ = d.bus.Read64(d.cmdCurrent)
			d.cmdCurrent += 8
			d.cycles++
			if d.cycles >= until {
				return nil
			}
		}
		d.running = false
		d.checkStart()
		if !d.running {
			d.cycles = until
			return nil
		}
	}
}

// MapBus installs the DP command register block (spec.md §6.1), grounded
// on dp.rs's bank-0 register offsets.
func (d *Dp) MapBus(b *bus.Bus) error {
	if err := b.MapReg(AddrDPCommand+0x0, width.Size32,
		func(uint32) uint64 { return uint64(d.cmdStart) },
		func(_ uint32, v uint64) { d.writeCmdStart(uint32(v)) }); err != nil {
		return err
	}
	if err := b.MapReg(AddrDPCommand+0x4, width.Size32,
		func(uint32) uint64 { return uint64(d.cmdEnd) },
		func(_ uint32, v uint64) { d.writeCmdEnd(uint32(v)) }); err != nil {
		return err
	}
	if err := b.MapReg(AddrDPCommand+0x8, width.Size32,
		func(uint32) uint64 { return uint64(d.cmdCurrent) },
		func(uint32, uint64) {}); err != nil {
		return err
	}
	return b.MapReg(AddrDPCommand+0xC, width.Size32,
		func(uint32) uint64 { return uint64(d.cmdStatus) },
		func(_ uint32, v uint64) { d.writeCmdStatus(uint32(v)) })
}
