package n64

import (
	"github.com/intuitionamiga/n64core/internal/bus"
	"github.com/intuitionamiga/n64core/internal/trace"
	"github.com/intuitionamiga/n64core/internal/width"
)

// audioFifo is one of the AI's two double-buffered DMA descriptors
// (AudioFifo in ai.rs): a source RDRAM run plus how much of it remains.
type audioFifo struct {
	src  uint32
	len  uint32
	full bool
}

// Ai is the Audio Interface DMA engine. Actual sample output is outside
// this engine's scope (spec.md §1's presentation boundary), so unlike
// ai.rs's end_frame/sconv_into this port drains the FIFOs against the bus
// (consuming source bytes and advancing src/len) without producing audio.
type Ai struct {
	dramAddress     uint32
	length          uint32
	control         uint32
	status          uint32
	dacSamplePeriod uint32
	bitRate         uint32

	fifo    [2]audioFifo
	fifoCur int
	cycles  int64

	mi  *Mi
	bus *bus.Bus
}

// NewAi creates an Ai whose DMA reads come from bus and whose FIFO-full
// transitions raise interrupts through mi.
func NewAi(mi *Mi, b *bus.Bus) *Ai { return &Ai{mi: mi, bus: b} }

func (a *Ai) updateStatus() {
	if a.fifo[0].full && a.fifo[1].full {
		a.status |= 1 << 31
	} else {
		if a.status&(1<<31) != 0 {
			a.mi.SetIRQLine(IrqAI, true)
		}
		a.status &^= 1 << 31
	}
	if a.fifo[0].full || a.fifo[1].full {
		a.status |= 1 << 30
	} else {
		a.status &^= 1 << 30
	}
}

func (a *Ai) writeLength(val uint32) {
	a.length = val & 0x3FFF8
	if a.length == 0 {
		return
	}
	widx := a.fifoCur
	if a.fifo[widx].full {
		widx ^= 1
		if a.fifo[widx].full {
			return // FIFO overflow: drop, as ai.rs does after logging
		}
	}
	a.fifo[widx] = audioFifo{src: a.dramAddress, len: a.length, full: true}
	a.updateStatus()
}

// Name implements sched.Subsystem.
func (a *Ai) Name() string { return "AI" }

// Cycles implements sched.Subsystem.
func (a *Ai) Cycles() int64 { return a.cycles }

// Run drains the active FIFO one DAC sample period at a time until target
// cycles are reached, mirroring Ai::run's 16-bit stereo sample loop
// without the sound-buffer output step.
func (a *Ai) Run(until int64, t trace.Tracer) error {
	for a.cycles < until {
		fifo := &a.fifo[a.fifoCur]
		if fifo.full {
			if err := t.OnMemRead("AI", uint64(fifo.src), 4); err != nil {
				return err
			}
			_ = a.bus.Read32(fifo.src)
			fifo.src += 4
			if fifo.len <= 4 {
				fifo.len = 0
				fifo.full = false
				a.fifoCur ^= 1
			} else {
				fifo.len -= 4
			}
		}
		a.cycles += int64(a.dacSamplePeriod) + 1
	}
	cur := a.fifo[a.fifoCur]
	a.dramAddress = cur.src
	a.length = cur.len
	a.updateStatus()
	return nil
}

// MapBus installs the AI register block (spec.md §6.1), grounded on
// ai.rs's offset/rwmask table.
func (a *Ai) MapBus(b *bus.Bus) error {
	if err := b.MapReg(AddrAIRegs+0x00, width.Size32,
		func(uint32) uint64 { return uint64(a.dramAddress) },
		func(_ uint32, v uint64) { a.dramAddress = uint32(v) & 0xFFFFFF }); err != nil {
		return err
	}
	if err := b.MapReg(AddrAIRegs+0x04, width.Size32,
		func(uint32) uint64 { return uint64(a.length) },
		func(_ uint32, v uint64) { a.writeLength(uint32(v)) }); err != nil {
		return err
	}
	if err := b.MapReg(AddrAIRegs+0x08, width.Size32,
		func(uint32) uint64 { return uint64(a.control) },
		func(_ uint32, v uint64) { a.control = uint32(v) & 0x1 }); err != nil {
		return err
	}
	if err := b.MapReg(AddrAIRegs+0x0C, width.Size32,
		func(uint32) uint64 { return uint64(a.status) },
		func(uint32, uint64) { a.mi.SetIRQLine(IrqAI, false) }); err != nil {
		return err
	}
	if err := b.MapReg(AddrAIRegs+0x10, width.Size32,
		func(uint32) uint64 { return uint64(a.dacSamplePeriod) },
		func(_ uint32, v uint64) { a.dacSamplePeriod = uint32(v) & 0x3FFF }); err != nil {
		return err
	}
	return b.MapReg(AddrAIRegs+0x14, width.Size32,
		func(uint32) uint64 { return uint64(a.bitRate) },
		func(_ uint32, v uint64) { a.bitRate = uint32(v) & 0xF })
}
