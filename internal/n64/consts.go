// Package n64 wires the interpreter, coprocessors, bus and scheduler
// packages into a complete N64 system: the physical memory map (spec.md
// §6.1), the device register blocks that live on it, and the per-subsystem
// clock multipliers the scheduler drives them at.
//
// Grounded on _examples/original_source/src/n64.rs's R4300::map_bus /
// N64::new wiring order and oscillator constants, translated from its
// Device/map_device trait (which this repo's internal/bus lacks) into one
// bus.MapReg call per register.
package n64

// Physical address map (spec.md §6.1). Each constant is the base of the
// range named in the spec's table; device files below map their own
// registers relative to it.
const (
	AddrRDRAM      = 0x0000_0000
	AddrRDRAMEnd   = 0x03EF_FFFF
	AddrRIRegs     = 0x0470_0000
	AddrRDRAMRegs  = 0x03F0_0000
	AddrSPDMEM     = 0x0400_0000
	AddrSPIMEM     = 0x0400_1000
	AddrSPRegs     = 0x0404_0000
	AddrSPPCReg    = 0x0408_0000
	AddrDPCommand  = 0x0410_0000
	AddrMIRegs     = 0x0430_0000
	AddrVIRegs     = 0x0440_0000
	AddrAIRegs     = 0x0450_0000
	AddrPIRegs     = 0x0460_0000
	AddrSIRegs     = 0x0480_0000
	AddrCartRom    = 0x1000_0000
	AddrCartRomEnd = 0x1FBF_FFFF
	AddrPIFRom     = 0x1FC0_0000
	AddrPIFRam     = 0x1FC0_07C0
	AddrPIFRamEnd  = 0x1FC0_07FF

	RDRAMSize = 8 * 1024 * 1024
	DmemSize  = 4096
	ImemSize  = 4096
	PIFRamSize = 64
)

// Oscillator and derived clock rates in Hz, grounded on n64.rs's timing
// comment block (citing the community overclocking-achieved writeup) —
// X1/X2 are the board's two crystal oscillators, and every subsystem clock
// the scheduler drives is a fixed ratio of one of them.
const (
	X1 int64 = 14_705_000 // RDRAM/CPU oscillator
	X2 int64 = 14_318_000 // video oscillator

	RDRAMClock     = X1 * 17
	MainClock      = RDRAMClock / 4
	PIFClock       = MainClock / 4
	CartridgeClock = PIFClock / 8
	// VClock is the video dot clock driving the sync scheduler's master
	// rate; n64.rs computes it as X2*17/5 (~48.68MHz, NTSC).
	VClock = X2 * 17 / 5
)

// hsyncXs/vsyncYs/hdots/vdots mirror SyncEmu::config() in n64.rs: two
// horizontal syncs per scanline, 773 dots per line (773.5 truncated), 525
// lines per NTSC field, no vsync line armed (the original leaves vsyncs
// empty and derives vblank from the VI's own vertical_interrupt register
// instead).
const (
	HDots           = 773
	VDots           = 525
	DotClockDivider = 4
)

var HSyncXs = []int{0, HDots / 2}
var VSyncYs = []int{}
