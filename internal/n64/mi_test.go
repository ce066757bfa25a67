package n64

import (
	"testing"

	"github.com/intuitionamiga/n64core/internal/cop0"
)

func ip2(c0 *cop0.Cp0) bool { return c0.Cause().IP()&(1<<mainCpuIntLine) != 0 }

func TestMiAggregatesIrqLinesIntoCpuIP2(t *testing.T) {
	c0 := cop0.New(0)
	mi := NewMi(c0)

	mi.writeIrqMask(1 << 1) // set SP mask bit (bit pair 0/1 -> SP)
	mi.SetIRQLine(IrqSP, true)
	if !ip2(c0) {
		t.Fatalf("IP2 should be asserted once an unmasked device line is raised")
	}

	mi.SetIRQLine(IrqSP, false)
	if ip2(c0) {
		t.Fatalf("IP2 should clear once the only asserted line is lowered")
	}
}

func TestMiMaskedLineDoesNotAssertIP2(t *testing.T) {
	c0 := cop0.New(0)
	mi := NewMi(c0)

	mi.SetIRQLine(IrqVI, true)
	if ip2(c0) {
		t.Fatalf("a device line with no mask bit set must not reach the CPU")
	}
}

func TestMiWriteRegModeClearsDPInterrupt(t *testing.T) {
	c0 := cop0.New(0)
	mi := NewMi(c0)
	mi.writeIrqMask(1 << 11) // set DP mask bit (bit pair 10/11 -> DP)
	mi.SetIRQLine(IrqDP, true)
	if !ip2(c0) {
		t.Fatalf("setup: DP line should assert IP2")
	}

	mi.writeRegMode(1 << 11) // clear-DP-interrupt side effect bit
	if ip2(c0) {
		t.Fatalf("writing reg_mode bit 11 should clear the DP interrupt line")
	}
}
