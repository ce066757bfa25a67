package cpu

import (
	"testing"

	"github.com/intuitionamiga/n64core/internal/bus"
	"github.com/intuitionamiga/n64core/internal/cop0"
	"github.com/intuitionamiga/n64core/internal/fpu"
	"github.com/intuitionamiga/n64core/internal/rsp"
	"github.com/intuitionamiga/n64core/internal/trace"
)

func newTestBus(t *testing.T) *bus.Bus {
	t.Helper()
	b := bus.NewBus(true)
	b.Logf = nil
	ram := make([]byte, 0x10000)
	if err := b.MapMem(0, 0xFFFF, ram); err != nil {
		t.Fatalf("MapMem: %v", err)
	}
	return b
}

func beStore(b *bus.Bus, addr uint32, words []uint32) {
	for i, w := range words {
		b.Write32(addr+uint32(i*4), w)
	}
}

func TestDelaySlotBranchSemantics(t *testing.T) {
	b := newTestBus(t)
	// BEQ r0, r0, +2 ; ADDI r1, r0, 1 (delay slot) ; ADDI r2, r0, 2 (skipped to)
	beStore(b, 0, []uint32{
		0x1000_0002, // beq $0,$0,+2
		0x2001_0001, // addi $1,$0,1   <- executes (delay slot)
		0x2002_0002, // addi $2,$0,2   <- skipped
		0x2003_0003, // addi $3,$0,3   <- branch target
	})
	c := New("cpu", MIPSIII, b, nil, nil, nil)
	c.Ctx().SetPC(0)
	if err := c.Run(4, trace.Null{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.Ctx().Regs[1] != 1 {
		t.Errorf("delay slot ADDI should have executed: r1=%d, want 1", c.Ctx().Regs[1])
	}
	if c.Ctx().Regs[2] != 0 {
		t.Errorf("instruction after a taken branch's delay slot must be skipped: r2=%d, want 0", c.Ctx().Regs[2])
	}
	if c.Ctx().Regs[3] != 3 {
		t.Errorf("branch target ADDI should have executed: r3=%d, want 3", c.Ctx().Regs[3])
	}
}

func TestOverflowTrapDeliversException(t *testing.T) {
	b := newTestBus(t)
	// ADDI $1, $0, 0x7FFFFFFF-ish via LUI/ORI then ADD $1,$1,$1 to overflow.
	beStore(b, 0, []uint32{
		0x3C01_7FFF, // lui $1, 0x7FFF
		0x3421_FFFF, // ori $1, $1, 0xFFFF  -> $1 = 0x7FFFFFFF
		0x0021_0820, // add $1, $1, $1      -> overflow
	})
	c0 := cop0.New(0)
	c := New("cpu", MIPSIII, b, c0, nil, nil)
	c.Ctx().SetPC(0)
	if err := c.Run(3, trace.Null{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.Ctx().PC == 0x0C {
		t.Errorf("overflow on ADD must not fall through to the next instruction")
	}
}

func TestBusyWaitFastForwardsClock(t *testing.T) {
	b := newTestBus(t)
	// A single self-branch: BEQ $0,$0,-1 (branches to itself).
	beStore(b, 0, []uint32{
		0x1000_FFFF, // beq $0,$0,-1 -> target = pc
		0x0000_0000, // nop (delay slot)
	})
	c := New("cpu", MIPSIII, b, nil, nil, nil)
	c.Ctx().SetPC(0)
	if err := c.Run(1_000_000, trace.Null{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.Ctx().Clock < 1_000_000 {
		t.Errorf("busy-wait should fast-forward the clock to the run limit, got %d", c.Ctx().Clock)
	}
}

func TestUnalignedLoadRoundTrip(t *testing.T) {
	b := newTestBus(t)
	b.Write32(0x100, 0x1122_3344)
	c := New("cpu", MIPSIII, b, nil, nil, nil)
	v, ok := c.lwl32(0x101, 0, trace.Null{})
	if !ok {
		t.Fatal("lwl32 failed")
	}
	v, ok = c.lwr32(0x104, v, trace.Null{})
	if !ok {
		t.Fatal("lwr32 failed")
	}
	// lwl at +1 merges bytes [1:4) into the top 3 bytes; lwr at +4 then
	// pulls in the word's last byte (0x104, zero here) as the low byte,
	// reconstructing the unaligned word at 0x101.
	if v != 0x2233_4400 {
		t.Errorf("unaligned LWL/LWR round trip = %#x, want 0x22334400", v)
	}
}

func TestCop0MfcMtcRoundTrip(t *testing.T) {
	b := newTestBus(t)
	c0 := cop0.New(0)
	c := New("cpu", MIPSIII, b, c0, nil, nil)
	c.ctx.setReg(1, 0x1234)
	c.opCop0(insn{op: 0x4081_6800}) // mtc0 $1, $13 (Cause, rd=13)
	c.opCop0(insn{op: 0x4002_6800}) // mfc0 $2, $13
	if c.ctx.reg(2) == 0 {
		t.Error("MFC0 after MTC0 should read back a nonzero Cause value")
	}
}

func TestCop1MfcMtcRoundTrip(t *testing.T) {
	b := newTestBus(t)
	f := fpu.New()
	c := New("cpu", MIPSIII, b, nil, f, nil)
	c.ctx.setReg(1, 0xDEAD_BEEF)
	c.opCop1(insn{op: 0x4481_0800}, c.Ctx()) // mtc1 $1, $1
	c.opCop1(insn{op: 0x4402_0800}, c.Ctx()) // mfc1 $2, $1
	if uint32(c.ctx.reg(2)) != 0xDEAD_BEEF {
		t.Errorf("MFC1 after MTC1 = %#x, want 0xdeadbeef", uint32(c.ctx.reg(2)))
	}
}

func TestCop2MfcMtcRoundTrip(t *testing.T) {
	b := newTestBus(t)
	r := rsp.New()
	c := New("rsp", RSPLite, b, nil, nil, r)
	c.ctx.setReg(1, 0x4242)
	c.opCop2(insn{op: 0x4881_0880}, c.Ctx()) // mtc2 $1, v1, e=1
	c.opCop2(insn{op: 0x4802_0880}, c.Ctx()) // mfc2 $2, v1, e=1
	if uint16(c.ctx.reg(2)) != 0x4242 {
		t.Errorf("MFC2 after MTC2 = %#x, want 0x4242", uint16(c.ctx.reg(2)))
	}
}
