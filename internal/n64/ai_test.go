package n64

import (
	"testing"

	"github.com/intuitionamiga/n64core/internal/bus"
	"github.com/intuitionamiga/n64core/internal/cop0"
	"github.com/intuitionamiga/n64core/internal/trace"
)

func newTestAi(t *testing.T) (*Ai, *bus.Bus) {
	t.Helper()
	b := bus.NewBus(true)
	ram := make([]byte, 0x1000)
	if err := b.MapMem(0, 0xFFF, ram); err != nil {
		t.Fatalf("MapMem: %v", err)
	}
	mi := NewMi(cop0.New(0))
	return NewAi(mi, b), b
}

func TestAiWriteLengthStartsDMAIntoFreeSlot(t *testing.T) {
	a, _ := newTestAi(t)
	a.dramAddress = 0x100
	a.writeLength(16)
	if !a.fifo[0].full {
		t.Fatalf("writing length should fill the first free FIFO slot")
	}
	if a.fifo[0].src != 0x100 || a.fifo[0].len != 16 {
		t.Errorf("fifo[0] = %+v, want src=0x100 len=16", a.fifo[0])
	}
}

func TestAiOverflowDropsWhenBothFifosFull(t *testing.T) {
	a, _ := newTestAi(t)
	a.dramAddress = 0x100
	a.writeLength(8)
	a.dramAddress = 0x200
	a.writeLength(8)
	if !a.fifo[0].full || !a.fifo[1].full {
		t.Fatalf("both fifo slots should be full after two writes")
	}
	a.dramAddress = 0x300
	a.writeLength(8) // should be dropped, not overwrite either slot
	if a.fifo[0].src != 0x100 || a.fifo[1].src != 0x200 {
		t.Errorf("a third DMA request while both FIFOs are full must be dropped")
	}
}

func TestAiRunDrainsFifoAndClearsStatus(t *testing.T) {
	a, _ := newTestAi(t)
	a.dacSamplePeriod = 0
	a.dramAddress = 0
	a.writeLength(8)
	if !a.fifo[0].full {
		t.Fatalf("writing length should start a DMA in the first FIFO slot")
	}
	if err := a.Run(100, trace.Null{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.fifo[0].full {
		t.Errorf("an 8-byte DMA should be fully drained within the run")
	}
	if a.status&(1<<30) != 0 {
		t.Errorf("status bit 30 should be cleared once no FIFO is full")
	}
	if a.Cycles() != 100 {
		t.Errorf("Cycles() = %d, want 100", a.Cycles())
	}
}

func TestAiBothFifosFullRaisesInterruptOnClear(t *testing.T) {
	a, _ := newTestAi(t)
	a.writeLength(8)
	a.dramAddress = 0x200
	a.writeLength(8)
	if a.status&(1<<31) == 0 {
		t.Fatalf("status bit 31 should be set once both FIFOs are full")
	}
	a.mi.writeIrqMask(1 << 5) // set AI mask bit (bit pair 4/5 -> AI)
	if err := a.Run(100, trace.Null{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !ip2(a.mi.cop0) {
		t.Fatalf("draining a FIFO after both were full should raise the AI interrupt")
	}
}
