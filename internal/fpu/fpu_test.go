package fpu

import (
	"math"
	"testing"
)

func setF32(f *Fpu, idx int, v float32) { f.setFGR(idx, uint64(math.Float32bits(v))) }
func getF32(f *Fpu, idx int) float32    { return math.Float32frombits(uint32(f.getFGR(idx))) }

func TestAddSingle(t *testing.T) {
	f := New()
	f.SetFPU64(true)
	setF32(f, 1, 1.5)
	setF32(f, 2, 2.25)
	Op[float32](f, 0x00, 0, 1, 2, 0)
	if got := getF32(f, 0); got != 3.75 {
		t.Errorf("ADD.s = %v, want 3.75", got)
	}
}

func TestDivSingle(t *testing.T) {
	f := New()
	f.SetFPU64(true)
	setF32(f, 1, 10)
	setF32(f, 2, 4)
	Op[float32](f, 0x03, 0, 1, 2, 0)
	if got := getF32(f, 0); got != 2.5 {
		t.Errorf("DIV.s = %v, want 2.5", got)
	}
}

func TestCompareSetsConditionCode(t *testing.T) {
	f := New()
	f.SetFPU64(true)
	setF32(f, 1, 1.0)
	setF32(f, 2, 2.0)
	// C.LT.s: func 0x3C
	Op[float32](f, 0x3C, 0, 1, 2, 0)
	if !f.GetCC(0) {
		t.Fatal("expected cc0 set for 1.0 < 2.0")
	}
	Op[float32](f, 0x3C, 0, 2, 1, 1)
	if f.GetCC(1) {
		t.Fatal("expected cc1 clear for 2.0 < 1.0 being false")
	}
}

func TestTruncWToInt(t *testing.T) {
	f := New()
	f.SetFPU64(true)
	setF32(f, 1, 3.75)
	Op[float32](f, 0x0D, 0, 1, 0, 0)
	if got := int32(uint32(f.getFGR(0))); got != 3 {
		t.Errorf("TRUNC.W.s = %d, want 3", got)
	}
}

func TestFGRPaired32BitMode(t *testing.T) {
	f := New()
	f.SetFPU64(false)
	f.setFGR(0, 0xDEADBEEF)
	if f.regs[0] != 0xDEADBEEF || f.regs[1] != 0 {
		t.Fatalf("32-bit mode should split across regs[0]/regs[1]: %#x %#x", f.regs[0], f.regs[1])
	}
}

func TestMFC1CFC1RawAccess(t *testing.T) {
	f := New()
	f.SetReg(5, 0x1122334455667788)
	if got := f.Reg(5); got != 0x1122334455667788 {
		t.Errorf("Reg(5) = %#x", got)
	}
	f.SetFCSR(0x0F800000)
	if f.FCSR() != 0x0F800000 {
		t.Errorf("FCSR round trip failed")
	}
}
