package n64

import (
	"testing"

	"github.com/intuitionamiga/n64core/internal/bus"
	"github.com/intuitionamiga/n64core/internal/cop0"
)

func newTestPi(t *testing.T) (*Pi, *bus.Bus) {
	t.Helper()
	b := bus.NewBus(true)
	ram := make([]byte, 0x2000)
	if err := b.MapMem(0, 0x1FFF, ram); err != nil {
		t.Fatalf("MapMem: %v", err)
	}
	mi := NewMi(cop0.New(0))
	return NewPi(mi, b), b
}

func TestPiXferCopiesLengthPlusOneBytes(t *testing.T) {
	p, b := newTestPi(t)
	b.Write32(0x100, 0xDEADBEEF)
	b.Write32(0x104, 0xCAFEF00D)
	newSrc, newDst := p.xfer(0x100, 0x200, 7) // length+1 = 8 bytes = two words
	if newSrc != 0x108 || newDst != 0x208 {
		t.Errorf("xfer returned src=%#x dst=%#x, want 0x108/0x208", newSrc, newDst)
	}
	if got := b.Read32(0x200); got != 0xDEADBEEF {
		t.Errorf("first word = %#x, want 0xDEADBEEF", got)
	}
	if got := b.Read32(0x204); got != 0xCAFEF00D {
		t.Errorf("second word = %#x, want 0xCAFEF00D", got)
	}
}

func TestPiWriteDMARdLenRaisesInterrupt(t *testing.T) {
	p, _ := newTestPi(t)
	p.mi.writeIrqMask(1 << 9) // set PI mask bit (bit pair 8/9 -> PI)
	p.dmaRamAddr = 0x100
	p.dmaRomAddr = 0x200
	p.writeDMARdLen(3)
	if !ip2(p.mi.cop0) {
		t.Fatalf("completing a PI DMA should raise the PI interrupt")
	}
}

func TestPiWriteDMAStatusAcknowledges(t *testing.T) {
	p, _ := newTestPi(t)
	p.mi.writeIrqMask(1 << 9)
	p.dmaRamAddr = 0x100
	p.dmaRomAddr = 0x200
	p.writeDMARdLen(3)

	p.writeDMAStatus(0)
	if ip2(p.mi.cop0) {
		t.Fatalf("writing DMA status should acknowledge the PI interrupt")
	}
}
