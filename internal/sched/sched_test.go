package sched

import (
	"errors"
	"testing"

	"github.com/intuitionamiga/n64core/internal/trace"
)

type fakeSub struct {
	name   string
	cycles int64
	runs   []int64
	fail   bool
}

func (f *fakeSub) Name() string { return f.name }

func (f *fakeSub) Run(until int64, t trace.Tracer) error {
	if f.fail {
		return errors.New("boom")
	}
	f.runs = append(f.runs, until)
	f.cycles = until
	return nil
}

func (f *fakeSub) Cycles() int64 { return f.cycles }

func testConfig() Config {
	return Config{
		MainClock:       4,
		DotClockDivider: 1,
		HDots:           8,
		VDots:           4,
		HSyncXs:         []int{0, 4},
		VSyncYs:         []int{2},
	}
}

func TestRunFrameDrivesSubsystemsToTarget(t *testing.T) {
	s := New(testConfig())
	cpu := &fakeSub{name: "cpu"}
	s.AddSubsystem(cpu, 4) // same rate as MainClock -> one tick per dot

	if err := s.RunFrame(nil, nil, trace.Null{}); err != nil {
		t.Fatalf("RunFrame: %v", err)
	}
	wantDots := int64(testConfig().HDots * testConfig().VDots)
	if cpu.cycles != wantDots {
		t.Errorf("subsystem cycles = %d, want %d", cpu.cycles, wantDots)
	}
	if s.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", s.Frames())
	}
}

func TestRunFrameNoDriftAcrossFrames(t *testing.T) {
	// Multiplier that does not evenly divide MainClock, so each dot's target
	// recomputation truncates — verify the truncation never compounds into a
	// growing or shrinking error across repeated frames.
	cfg := testConfig()
	cfg.MainClock = 3
	s := New(cfg)
	sub := &fakeSub{name: "rsp"}
	s.AddSubsystem(sub, 2)

	const frames = 5
	for i := 0; i < frames; i++ {
		if err := s.RunFrame(nil, nil, trace.Null{}); err != nil {
			t.Fatalf("RunFrame %d: %v", i, err)
		}
	}
	totalDots := int64(cfg.HDots*cfg.VDots) * frames
	want := totalDots * 2 / 3
	if sub.cycles != want {
		t.Errorf("after %d frames, subsystem cycles = %d, want %d (exact integer-division target)", frames, sub.cycles, want)
	}
}

func TestRunFrameSkipsSubsystemRunWhenNotYetDue(t *testing.T) {
	s := New(testConfig())
	slow := &fakeSub{name: "rdp"}
	s.AddSubsystem(slow, 1) // far slower than MainClock=4 -> skips most dots

	if err := s.RunFrame(nil, nil, trace.Null{}); err != nil {
		t.Fatalf("RunFrame: %v", err)
	}
	totalDots := testConfig().HDots * testConfig().VDots
	if len(slow.runs) >= totalDots {
		t.Errorf("slow subsystem ran every dot (%d times), want fewer than %d", len(slow.runs), totalDots)
	}
}

func TestRunFramePropagatesSubsystemError(t *testing.T) {
	s := New(testConfig())
	bad := &fakeSub{name: "cpu", fail: true}
	s.AddSubsystem(bad, 4)

	if err := s.RunFrame(nil, nil, trace.Null{}); err == nil {
		t.Fatal("expected RunFrame to propagate subsystem error")
	}
}

func TestRunFrameEmitsHSyncAndVSync(t *testing.T) {
	s := New(testConfig())
	s.AddSubsystem(&fakeSub{name: "cpu"}, 4)

	var hsyncs [][2]int
	var vsyncs []int
	err := s.RunFrame(
		func(x, y int) { hsyncs = append(hsyncs, [2]int{x, y}) },
		func(y int) { vsyncs = append(vsyncs, y) },
		trace.Null{},
	)
	if err != nil {
		t.Fatalf("RunFrame: %v", err)
	}
	wantHSyncs := len(testConfig().HSyncXs) * testConfig().VDots
	if len(hsyncs) != wantHSyncs {
		t.Errorf("hsync count = %d, want %d", len(hsyncs), wantHSyncs)
	}
	if len(vsyncs) != 1 || vsyncs[0] != 2 {
		t.Errorf("vsyncs = %v, want [2]", vsyncs)
	}
}

type onLineCountingTracer struct {
	trace.Null
	lines int
}

func (o *onLineCountingTracer) OnLine(line int) error {
	o.lines++
	return nil
}

func TestRunFrameCallsOnLinePerScanline(t *testing.T) {
	s := New(testConfig())
	s.AddSubsystem(&fakeSub{name: "cpu"}, 4)
	tr := &onLineCountingTracer{}
	if err := s.RunFrame(nil, nil, tr); err != nil {
		t.Fatalf("RunFrame: %v", err)
	}
	if tr.lines != testConfig().VDots {
		t.Errorf("OnLine called %d times, want %d", tr.lines, testConfig().VDots)
	}
}
