package n64

import (
	"testing"

	"github.com/intuitionamiga/n64core/internal/bus"
	"github.com/intuitionamiga/n64core/internal/cop0"
	"github.com/intuitionamiga/n64core/internal/trace"
)

func newTestDp(t *testing.T) (*Dp, *bus.Bus) {
	t.Helper()
	b := bus.NewBus(true)
	ram := make([]byte, 0x1000)
	if err := b.MapMem(0, 0xFFF, ram); err != nil {
		t.Fatalf("MapMem: %v", err)
	}
	mi := NewMi(cop0.New(0))
	return NewDp(b, mi), b
}

func TestDpRunIsIdleWithNoQueuedBuffer(t *testing.T) {
	d, _ := newTestDp(t)
	if err := d.Run(100, trace.Null{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if d.Cycles() != 100 {
		t.Errorf("Cycles() = %d, want 100 (idle subsystems still reach target)", d.Cycles())
	}
}

func TestDpConsumesCommandWordsUntilBufferDrained(t *testing.T) {
	d, _ := newTestDp(t)
	d.writeCmdStart(0x000)
	d.writeCmdEnd(0x020) // 4 command words (8 bytes each)
	if !d.running {
		t.Fatalf("setup: DP should be running once start/end are both valid")
	}
	if err := d.Run(1000, trace.Null{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if d.cmdCurrent != 0x020 {
		t.Errorf("cmdCurrent = %#x, want 0x20 after draining the buffer", d.cmdCurrent)
	}
	if d.running {
		t.Errorf("DP should go idle once the command buffer is drained")
	}
}

func TestDpRunStopsAtTargetMidBuffer(t *testing.T) {
	d, _ := newTestDp(t)
	d.writeCmdStart(0x000)
	d.writeCmdEnd(0x020)
	if err := d.Run(2, trace.Null{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if d.cmdCurrent != 0x010 {
		t.Errorf("cmdCurrent = %#x, want 0x10 after consuming 2 command words", d.cmdCurrent)
	}
	if !d.running {
		t.Errorf("DP should still be running with buffer remaining")
	}
}
