package n64

import (
	"testing"

	"github.com/intuitionamiga/n64core/internal/bus"
	"github.com/intuitionamiga/n64core/internal/cop0"
)

func TestViSetLineRaisesInterruptOnMatch(t *testing.T) {
	mi := NewMi(cop0.New(0))
	mi.writeIrqMask(1 << 7) // set VI mask bit (bit pair 6/7 -> VI)
	vi := NewVi(mi)
	vi.verticalInterrupt = 20

	vi.SetLine(10)
	if ip2(mi.cop0) {
		t.Fatalf("line 10 should not match vertical_interrupt=20")
	}
	vi.SetLine(20)
	if !ip2(mi.cop0) {
		t.Fatalf("line matching vertical_interrupt should raise the VI interrupt")
	}
}

func TestViCurrentLineWriteAcknowledgesInterrupt(t *testing.T) {
	mi := NewMi(cop0.New(0))
	mi.writeIrqMask(1 << 7)
	vi := NewVi(mi)
	b := bus.NewBus(true)
	if err := vi.MapBus(b); err != nil {
		t.Fatalf("MapBus: %v", err)
	}
	vi.verticalInterrupt = 5
	vi.SetLine(5)
	if !ip2(mi.cop0) {
		t.Fatalf("setup: VI interrupt should be asserted")
	}

	b.Write32(AddrVIRegs+0x10, 0) // any CURRENT_LINE write acknowledges
	if ip2(mi.cop0) {
		t.Fatalf("acknowledging the VI interrupt should clear IP2")
	}
}
