package bus

import (
	"testing"

	"github.com/intuitionamiga/n64core/internal/width"
)

func TestMemRoundTrip(t *testing.T) {
	b := NewBus(true)
	mem := make([]byte, 0x10000)
	if err := b.MapMem(0, 0xFFFF, mem); err != nil {
		t.Fatal(err)
	}

	b.Write8(0x10, 0xAB)
	if got := b.Read8(0x10); got != 0xAB {
		t.Errorf("Read8 = %#x, want 0xAB", got)
	}
	b.Write16(0x20, 0x1234)
	if got := b.Read16(0x20); got != 0x1234 {
		t.Errorf("Read16 = %#x, want 0x1234", got)
	}
	b.Write32(0x40, 0xDEADBEEF)
	if got := b.Read32(0x40); got != 0xDEADBEEF {
		t.Errorf("Read32 = %#x, want 0xDEADBEEF", got)
	}
	b.Write64(0x80, 0x0123456789ABCDEF)
	if got := b.Read64(0x80); got != 0x0123456789ABCDEF {
		t.Errorf("Read64 = %#x, want 0x0123456789abcdef", got)
	}
}

// TestCombinerBigEndian is spec.md scenario S4: two u16 registers on a
// big-endian bus combine into a u32 read in address order, high register
// in the high bits.
func TestCombinerBigEndian(t *testing.T) {
	b := NewBus(true)
	var regA, regB uint32 = 0x1122, 0x3344

	mustMapReg16(t, b, 0x2000, &regA)
	mustMapReg16(t, b, 0x2002, &regB)

	if got := b.Read32(0x2000); got != 0x11223344 {
		t.Fatalf("Read32(0x2000) = %#x, want 0x11223344", got)
	}

	b.Write32(0x2000, 0xAABBCCDD)
	if regA != 0xAABB || regB != 0xCCDD {
		t.Fatalf("after Write32: regA=%#x regB=%#x, want AABB/CCDD", regA, regB)
	}
}

func TestCombinerLittleEndian(t *testing.T) {
	b := NewBus(false)
	var regA, regB uint32 = 0x1122, 0x3344

	mustMapReg16(t, b, 0x2000, &regA)
	mustMapReg16(t, b, 0x2002, &regB)

	// Little-endian: the higher address lands in the high bits.
	if got := b.Read32(0x2000); got != 0x33441122 {
		t.Fatalf("Read32(0x2000) = %#x, want 0x33441122", got)
	}
}

func TestUnmappedReadReturnsAllOnes(t *testing.T) {
	b := NewBus(true)
	b.Logf = nil
	if got := b.Read32(0x12345678); got != 0xFFFFFFFF {
		t.Fatalf("Read32 on unmapped = %#x, want all-ones", got)
	}
}

func TestSubwordExtraction(t *testing.T) {
	b := NewBus(true)
	var reg uint32 = 0x11223344
	mustMapReg32(t, b, 0x3000, &reg)

	if got := b.Read8(0x3000); got != 0x11 {
		t.Errorf("byte 0 (BE) = %#x, want 0x11", got)
	}
	if got := b.Read8(0x3003); got != 0x44 {
		t.Errorf("byte 3 (BE) = %#x, want 0x44", got)
	}
	if got := b.Read16(0x3002); got != 0x3344 {
		t.Errorf("halfword at +2 (BE) = %#x, want 0x3344", got)
	}
}

func TestMapMemRejectsNonPowerOfTwo(t *testing.T) {
	b := NewBus(true)
	if err := b.MapMem(0, 100, make([]byte, 101)); err == nil {
		t.Fatal("expected error for non power-of-two region size")
	}
}

func mustMapReg16(t *testing.T, b *Bus, addr uint32, reg *uint32) {
	t.Helper()
	err := b.MapReg(addr, width.Size16, func(uint32) uint64 {
		return uint64(*reg)
	}, func(_ uint32, v uint64) {
		*reg = uint32(v)
	})
	if err != nil {
		t.Fatal(err)
	}
}

func mustMapReg32(t *testing.T, b *Bus, addr uint32, reg *uint32) {
	t.Helper()
	err := b.MapReg(addr, width.Size32, func(uint32) uint64 {
		return uint64(*reg)
	}, func(_ uint32, v uint64) {
		*reg = uint32(v)
	})
	if err != nil {
		t.Fatal(err)
	}
}
