package n64

import (
	"testing"

	"github.com/intuitionamiga/n64core/internal/trace"
)

func newTestRom(t *testing.T) []byte {
	t.Helper()
	rom := make([]byte, 0x100000)
	rom[0] = 0x80 // z64 byte order marker
	return rom
}

func TestNewWiresAllDevicesOntoOneBus(t *testing.T) {
	n, err := New(newTestRom(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	n.Bus.Write32(0x100, 0xDEADBEEF)
	if got := n.Bus.Read32(0x100); got != 0xDEADBEEF {
		t.Errorf("RDRAM round trip = %#x, want 0xDEADBEEF", got)
	}
	if got := n.Bus.Read32(AddrCartRom + 4); got != 0 {
		t.Errorf("cartridge ROM should read back the zeroed header's second word, got %#x", got)
	}
}

func TestRunFrameAdvancesAllSubsystemsAndScanlines(t *testing.T) {
	n, err := New(newTestRom(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	n.CPU.Ctx().SetPC(0) // zeroed RDRAM decodes as a stream of NOPs
	n.RSP.Ctx().SetPC(0)

	if err := n.RunFrame(trace.Null{}); err != nil {
		t.Fatalf("RunFrame: %v", err)
	}
	if n.Sched.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", n.Sched.Frames())
	}
	if n.CPU.Ctx().Clock == 0 {
		t.Errorf("CPU should have advanced its clock over a full frame")
	}
}

func TestRunFrameDrivesViCurrentLineViaHSync(t *testing.T) {
	n, err := New(newTestRom(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	n.CPU.Ctx().SetPC(0)
	n.RSP.Ctx().SetPC(0)

	if err := n.RunFrame(trace.Null{}); err != nil {
		t.Fatalf("RunFrame: %v", err)
	}
	if n.Vi.currentLine != uint32(VDots-1) {
		t.Errorf("Vi.currentLine = %d, want %d after a full frame", n.Vi.currentLine, VDots-1)
	}
}
