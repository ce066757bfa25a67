package n64

import (
	"testing"

	"github.com/intuitionamiga/n64core/internal/bus"
	"github.com/intuitionamiga/n64core/internal/cop0"
	"github.com/intuitionamiga/n64core/internal/cpu"
)

func newTestSp(t *testing.T) (*Sp, *bus.Bus, *cpu.Cpu) {
	t.Helper()
	b := bus.NewBus(true)
	ram := make([]byte, 0x1000)
	if err := b.MapMem(0, 0xFFF, ram); err != nil {
		t.Fatalf("MapMem: %v", err)
	}
	mi := NewMi(cop0.New(0))
	dmem := make([]byte, DmemSize)
	imem := make([]byte, ImemSize)
	rsp := cpu.New("rsp", cpu.RSPLite, b, nil, nil, nil)
	sp := NewSp(mi, b, rsp, dmem, imem)
	if err := sp.MapBus(b); err != nil {
		t.Fatalf("MapBus: %v", err)
	}
	return sp, b, rsp
}

func TestSpWriteStatusHaltPropagatesToCore(t *testing.T) {
	sp, _, rsp := newTestSp(t)
	sp.writeStatus(1 << 1) // set HALT
	if !rsp.Ctx().Halt {
		t.Fatalf("setting SP_STATUS HALT should halt the RSP core")
	}
	sp.writeStatus(1 << 0) // clear HALT
	if rsp.Ctx().Halt {
		t.Fatalf("clearing SP_STATUS HALT should resume the RSP core")
	}
}

func TestSpWriteStatusHaltWithIntBreakRaisesIRQ(t *testing.T) {
	sp, _, _ := newTestSp(t)
	sp.mi.writeIrqMask(1 << 1) // set SP mask bit
	sp.writeStatus(1 << 0)     // release HALT: the core starts halted
	sp.writeStatus((1 << 6) | (1 << 1))
	if !ip2(sp.mi.cop0) {
		t.Fatalf("halting with INTBREAK set should raise the SP interrupt")
	}
}

func TestSpDmaReadTransfersRdramIntoDmem(t *testing.T) {
	sp, b, _ := newTestSp(t)
	b.Write32(0x100, 0x11223344)
	sp.dmaRdramAddr = 0x100
	sp.dmaRspAddr = 0
	sp.writeDMARdLen(3) // wide=4, count=1, skip=0
	if sp.dmem[0] != 0x11 || sp.dmem[1] != 0x22 || sp.dmem[2] != 0x33 || sp.dmem[3] != 0x44 {
		t.Errorf("dmem[0:4] = %v, want [0x11 0x22 0x33 0x44]", sp.dmem[0:4])
	}
}

func TestSpPCRegisterReadsAndWritesRspPC(t *testing.T) {
	sp, b, rsp := newTestSp(t)
	_ = sp
	b.Write32(AddrSPPCReg, 0x48)
	if rsp.Ctx().PC != 0x48 {
		t.Errorf("writing SP_PC_REG should set the RSP core's PC, got %#x", rsp.Ctx().PC)
	}
	if got := b.Read32(AddrSPPCReg); got != 0x48 {
		t.Errorf("reading SP_PC_REG = %#x, want 0x48", got)
	}
}
