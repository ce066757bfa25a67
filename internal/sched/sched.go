// Package sched implements the dot-clock frame scheduler that drives every
// CPU-like subsystem (main CPU, RSP, RDP) off one shared master clock
// (spec.md §4.6, §5). Named sched rather than sync to avoid colliding with
// the standard library sync package, the same way the teacher avoids
// stdlib collisions with its own SystemBus/MachineBus naming rather than
// reusing bus as an identifier.
//
// Grounded on emu::sync::Sync/Subsystem/SyncEmu and the N64-specific
// SyncEmu impl in n64.rs (main_clock=VCLK, dot_clock_divider=4, hdots=773,
// vdots=525, two HSyncs per line, subsystem multipliers keyed to
// MAIN_CLOCK).
package sched

import "github.com/intuitionamiga/n64core/internal/trace"

// Subsystem is one cooperatively-scheduled execution unit (CPU, RSP,
// RDP command processor). Grounded on cpu.rs's own
// `impl<C: Config> sync::Subsystem for Cpu<C>`.
type Subsystem interface {
	Name() string
	Run(until int64, t trace.Tracer) error
	Cycles() int64
}

// entry pairs a Subsystem with its clock multiplier (subsystem Hz) and the
// cycle count it has already been run up to, so target can be recomputed
// each dot via integer division instead of an accumulating fractional
// balance that would drift over a long session.
type entry struct {
	sub        Subsystem
	multiplier int64
	lastTarget int64
}

// Config mirrors sync::Config: the dot-clock geometry plus the x/y
// positions that emit HSync/VSync events.
type Config struct {
	MainClock       int64
	DotClockDivider int64
	HDots           int
	VDots           int
	HSyncXs         []int
	VSyncYs         []int
}

// Sync is the frame scheduler. Subsystems are added in the fixed order
// they must run within each dot (spec.md §4.6's "Ordering guarantees").
type Sync struct {
	cfg        Config
	subsystems []*entry
	cycles     int64
	frames     int64
	globalDot  int64

	hsyncSet map[int]bool
	vsyncSet map[int]bool
}

// New creates a Sync from cfg.
func New(cfg Config) *Sync {
	s := &Sync{cfg: cfg, hsyncSet: map[int]bool{}, vsyncSet: map[int]bool{}}
	for _, x := range cfg.HSyncXs {
		s.hsyncSet[x] = true
	}
	for _, y := range cfg.VSyncYs {
		s.vsyncSet[y] = true
	}
	return s
}

// AddSubsystem registers sub to run at multiplier Hz (its own clock rate),
// in declaration order (spec.md §4.6's fixed within-dot order).
func (s *Sync) AddSubsystem(sub Subsystem, multiplier int64) {
	s.subsystems = append(s.subsystems, &entry{sub: sub, multiplier: multiplier})
}

// Cycles returns the number of dots elapsed across all completed frames
// plus the current one.
func (s *Sync) Cycles() int64 { return s.cycles }

// Frames returns the number of frames fully completed by RunFrame.
func (s *Sync) Frames() int64 { return s.frames }

// HSyncFunc is called with (x, y) whenever the dot cursor crosses an
// armed horizontal-sync position.
type HSyncFunc func(x, y int)

// VSyncFunc is called with the line y whenever the dot cursor crosses an
// armed vertical-sync position.
type VSyncFunc func(y int)

// RunFrame advances exactly one frame (hdots*vdots master dots). For each
// dot, every subsystem's target cycle count (target = elapsed_dots *
// subsystem_hz / MainClock, recomputed fresh each dot rather than
// accumulated, so no rounding error builds up over a long session) is
// compared against what it has already run; if it has fallen behind, it is
// driven forward via Run(target) (spec.md §4.6). HSync/VSync callbacks fire
// at their configured dot positions, and t.OnLine is invoked once per
// scanline so a host GUI can poll for input without waiting for the full
// frame (trace.Tracer's documented contract). A subsystem or the tracer may
// return a non-nil error (typically a *trace.Event); RunFrame aborts the
// frame immediately and propagates it, mirroring the original's
// trace_frame debugger contract (spec.md §4.6/§7). globalDot is never
// reset between calls, so leftover fractional progress naturally carries
// over frame boundaries — no dot is lost or doubled (spec.md §5).
// Config.DotClockDivider is stored but not applied: each dot advances
// subsystems by one MainClock period, not DotClockDivider of them.
func (s *Sync) RunFrame(onHSync HSyncFunc, onVSync VSyncFunc, t trace.Tracer) error {
	for y := 0; y < s.cfg.VDots; y++ {
		for x := 0; x < s.cfg.HDots; x++ {
			s.globalDot++
			for _, e := range s.subsystems {
				target := s.globalDot * e.multiplier / s.cfg.MainClock
				if target > e.lastTarget {
					if err := e.sub.Run(target, t); err != nil {
						return err
					}
					e.lastTarget = target
				}
			}
			s.cycles++
			if s.hsyncSet[x] && onHSync != nil {
				onHSync(x, y)
			}
		}
		if err := t.OnLine(y); err != nil {
			return err
		}
		if s.vsyncSet[y] && onVSync != nil {
			onVSync(y)
		}
	}
	s.frames++
	return nil
}
