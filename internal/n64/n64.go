package n64

import (
	"fmt"

	"github.com/intuitionamiga/n64core/internal/bus"
	"github.com/intuitionamiga/n64core/internal/cop0"
	"github.com/intuitionamiga/n64core/internal/cpu"
	"github.com/intuitionamiga/n64core/internal/fpu"
	"github.com/intuitionamiga/n64core/internal/rsp"
	"github.com/intuitionamiga/n64core/internal/sched"
	"github.com/intuitionamiga/n64core/internal/state"
	"github.com/intuitionamiga/n64core/internal/trace"
)

// pifBootSeed is the PIF RAM offset the boot ROM reads its CIC seed byte
// from (n64.rs's setup_cic writing PIF_RAM + 0x24).
const pifBootSeed = AddrPIFRam + 0x24

// cpuSubsystem adapts a *cpu.Cpu to sched.Subsystem: cpu.Cpu already
// implements Run with the exact signature sched.Subsystem wants, but has
// no Cycles method of its own (run.go tracks "until", not cumulative
// cycles), so this wrapper reports the core's own clock instead.
type cpuSubsystem struct {
	name string
	core *cpu.Cpu
}

func (c cpuSubsystem) Name() string { return c.name }
func (c cpuSubsystem) Cycles() int64 { return c.core.Ctx().Clock }
func (c cpuSubsystem) Run(until int64, t trace.Tracer) error { return c.core.Run(until, t) }

// N64 is the whole machine: one shared bus, the main CPU and RSP cores,
// every memory-mapped device, and the sync scheduler driving them all at
// their respective clock ratios. Grounded on n64.rs's N64 struct and
// R4300::map_bus wiring order.
type N64 struct {
	Bus *bus.Bus

	CPU    *cpu.Cpu
	CPUCop0 *cop0.Cp0
	CPUFpu  *fpu.Fpu

	RSP     *cpu.Cpu
	RSPCop2 *rsp.Rsp

	Mi  *Mi
	Vi  *Vi
	Ai  *Ai
	Ri  *Ri
	Si  *Si
	Pi  *Pi
	Sp  *Sp
	Dp  *Dp
	Cart *Cartridge

	rdram []byte
	dmem  []byte
	imem  []byte

	Sched *sched.Sync
	Arena *state.Arena
}

// New builds an N64 around cartridge rom, mapping every device onto one
// bus and registering the main CPU, RSP and RDP with the scheduler in
// n64.rs's fixed order (CPU runs at 1.5x MainClock — the R4300i's
// internal multiplier over the bus clock — RSP and RDP run at 1x).
func New(rom []byte) (*N64, error) {
	cart, err := NewCartridge(rom)
	if err != nil {
		return nil, err
	}

	b := bus.NewBus(true)
	n := &N64{
		Bus:   b,
		Cart:  cart,
		rdram: make([]byte, RDRAMSize),
		dmem:  make([]byte, DmemSize),
		imem:  make([]byte, ImemSize),
	}

	n.CPUCop0 = cop0.New(0)
	n.CPUFpu = fpu.New()
	n.CPU = cpu.New("cpu", cpu.MIPSIII, b, n.CPUCop0, n.CPUFpu, nil)

	n.RSPCop2 = rsp.New()
	n.RSP = cpu.New("rsp", cpu.RSPLite, b, nil, nil, n.RSPCop2)
	n.RSP.AddrMask = 0xFFF
	n.RSP.Dmem = n.dmem

	n.Mi = NewMi(n.CPUCop0)
	n.Vi = NewVi(n.Mi)
	n.Ai = NewAi(n.Mi, b)
	n.Ri = NewRi()
	n.Si = NewSi(n.Mi, b)
	n.Pi = NewPi(n.Mi, b)
	n.Sp = NewSp(n.Mi, b, n.RSP, n.dmem, n.imem)
	n.Dp = NewDp(b, n.Mi)

	if err := b.MapMem(AddrRDRAM, AddrRDRAM+RDRAMSize-1, n.rdram); err != nil {
		return nil, fmt.Errorf("n64: map rdram: %w", err)
	}
	if err := b.MapMem(AddrCartRom, AddrCartRom+uint32(len(cart.Rom))-1, cart.Rom); err != nil {
		return nil, fmt.Errorf("n64: map cartridge rom: %w", err)
	}

	devices := []interface{ MapBus(*bus.Bus) error }{n.Mi, n.Vi, n.Ai, n.Ri, n.Si, n.Pi, n.Sp, n.Dp}
	for _, d := range devices {
		if err := d.MapBus(b); err != nil {
			return nil, fmt.Errorf("n64: map device registers: %w", err)
		}
	}

	n.Sched = sched.New(sched.Config{
		MainClock:       VClock,
		DotClockDivider: DotClockDivider,
		HDots:           HDots,
		VDots:           VDots,
		HSyncXs:         HSyncXs,
		VSyncYs:         VSyncYs,
	})
	n.Sched.AddSubsystem(cpuSubsystem{"cpu", n.CPU}, MainClock+MainClock/2)
	n.Sched.AddSubsystem(cpuSubsystem{"rsp", n.RSP}, MainClock)
	n.Sched.AddSubsystem(n.Ai, MainClock)
	n.Sched.AddSubsystem(n.Dp, MainClock)

	n.Arena = state.New()
	n.CPU.RegisterState(n.Arena)
	n.RSP.RegisterState(n.Arena)
	n.CPUCop0.RegisterState(n.Arena)
	n.CPUFpu.RegisterState(n.Arena, "cpu.fpu")
	n.RSPCop2.RegisterState(n.Arena, "rsp.cop2")

	return n, nil
}

// Reset resets the main CPU to its boot vector and primes PIF RAM with the
// cartridge's CIC seed byte, mirroring n64.rs's setup_cic.
func (n *N64) Reset() error {
	model, err := n.Cart.DetectCicModel()
	if err != nil {
		return err
	}
	n.Bus.Write8(pifBootSeed, model.Seed())
	n.CPU.Reset(0xFFFF_FFFF_BFC0_0000)
	return nil
}

// RunFrame advances the whole machine by one video frame, routing the
// scheduler's HSync callback into Vi.SetLine at the start of each scanline
// (x==0), the wiring hw::OutputProducer::render_frame performs in the
// original.
func (n *N64) RunFrame(t trace.Tracer) error {
	onHSync := func(x, y int) {
		if x == 0 {
			n.Vi.SetLine(y)
		}
	}
	return n.Sched.RunFrame(onHSync, nil, t)
}
