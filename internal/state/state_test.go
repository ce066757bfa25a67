package state

import "testing"

func TestRoundTripScalarFields(t *testing.T) {
	var pc, hi uint64 = 0xBFC00000, 0
	var status uint32 = 0x34000000
	var delaySlot bool = true
	mem := []byte{1, 2, 3, 4}

	a := New()
	a.RegU64("cpu.pc", &pc)
	a.RegU64("cpu.hi", &hi)
	a.RegU32("cop0.status", &status)
	a.RegBool("cpu.delay_slot", &delaySlot)
	a.RegBytes("rdram", mem)

	snap, err := a.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	pc, hi, status, delaySlot = 0, 0, 0, false
	copy(mem, []byte{0, 0, 0, 0})

	if err := a.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if pc != 0xBFC00000 {
		t.Errorf("pc = %#x, want 0xBFC00000", pc)
	}
	if status != 0x34000000 {
		t.Errorf("status = %#x, want 0x34000000", status)
	}
	if !delaySlot {
		t.Errorf("delaySlot = false, want true")
	}
	if string(mem) != "\x01\x02\x03\x04" {
		t.Errorf("mem = %v, want [1 2 3 4]", mem)
	}
}

func TestRegisterTwiceUnderSameNamePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate field name")
		}
	}()
	var x, y uint64
	a := New()
	a.RegU64("dup", &x)
	a.RegU64("dup", &y)
}

func TestRestoreRejectsShapeMismatch(t *testing.T) {
	var x uint64
	a := New()
	a.RegU64("only", &x)
	snap, err := a.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	var p, q uint64
	b := New()
	b.RegU64("only", &p)
	b.RegU64("extra", &q)
	if err := b.Restore(snap); err == nil {
		t.Fatal("expected error restoring snapshot with a different field set")
	}
}
