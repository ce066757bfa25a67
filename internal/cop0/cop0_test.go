package cop0

import "testing"

func TestTLBProbeMatchesGlobalAndASID(t *testing.T) {
	var tlb TLB
	tlb.Write(1, PageMask4KB,
		0b1110_0000_0000_0000_0000_0000_1111_0000_1001_1001,
		0b0000_0000_0000_0000_1000_0000_0000_0010,
		0b0000_0000_0000_0000_0100_0000_0000_0010,
	)
	tlb.Write(2, PageMask4KB,
		0b1111_0000_0000_0000_0000_0000_1111_0000_1001_1001,
		0b0000_0000_0000_0000_1000_0000_0000_0011,
		0b0000_0000_0000_0000_0100_0000_0000_0011,
	)

	entry := tlb.Read(1)
	if entry.Global {
		t.Fatal("entry 1 should not be global")
	}
	if !entry.Valid() {
		t.Fatal("entry 1 should be valid")
	}
	if entry.ASID != 0b1001_1001 {
		t.Errorf("ASID = %#x, want 0x99", entry.ASID)
	}

	if idx := tlb.Probe(0b0000_1110_0000_0000_0000_0000_0000_1111_0000_0000_0001, 0b1001_1001); idx != 1 {
		t.Errorf("Probe matching asid = %d, want 1", idx)
	}
	if idx := tlb.Probe(0b0000_1110_0000_0000_0000_0000_0000_1111_0000_0000_0001, 0b1001_1000); idx != -1 {
		t.Errorf("Probe non-matching asid = %d, want -1", idx)
	}
	if idx := tlb.Probe(0b0000_1111_0000_0000_0000_0000_0000_1111_0000_0000_0001, 0b1001_1000); idx != 2 {
		t.Errorf("Probe via global bit = %d, want 2", idx)
	}
}

func TestColdResetStatusBits(t *testing.T) {
	c := New(1)
	if !c.Status().ERL() {
		t.Error("ERL should be set on cold reset")
	}
	if !c.Status().BEV() {
		t.Error("BEV should be set on cold reset")
	}
}

func TestTranslateAddrUnmappedKSEG0(t *testing.T) {
	c := New(1)
	c.status.SetERL(false)
	paddr, _, ok := c.TranslateAddr(0xFFFF_FFFF_8000_1000)
	if !ok {
		t.Fatal("KSEG0 address should translate without a TLB lookup")
	}
	if paddr != 0x1000 {
		t.Errorf("paddr = %#x, want 0x1000", paddr)
	}
}

func TestExceptionDeliveryVectorsToBootROM(t *testing.T) {
	c := New(1)
	c.status.SetBEV(true)
	c.status.SetEXL(false)
	pc := c.Deliver(ExceptionContext{PC: 0x8000_0100}, ExcSYS)
	if pc != 0xBFC0_0180 {
		t.Errorf("vector = %#x, want 0xBFC00180", pc)
	}
	if c.regEPC != 0x8000_0100 {
		t.Errorf("EPC = %#x, want 0x80000100", c.regEPC)
	}
}

func TestExceptionDeliveryInDelaySlotUsesBranchPC(t *testing.T) {
	c := New(1)
	c.Deliver(ExceptionContext{PC: 0x8000_0104, BranchPC: 0x8000_0104}, ExcSYS)
	if c.regEPC != 0x8000_0100 {
		t.Errorf("EPC = %#x, want branch_pc-4", c.regEPC)
	}
	if !c.cause.BD() {
		t.Error("Cause.BD should be set when delivered in a delay slot")
	}
}

func TestERETRestoresFromEPCAndClearsEXL(t *testing.T) {
	c := New(1)
	c.status.SetERL(false)
	c.status.SetEXL(true)
	c.regEPC = 0x8000_2000
	pc := c.ERET()
	if pc != 0x8000_2000 {
		t.Errorf("ERET pc = %#x, want 0x80002000", pc)
	}
	if c.status.EXL() {
		t.Error("EXL should be cleared by ERET")
	}
}

func TestSegmentFromVAddrKernel64BitDispatch(t *testing.T) {
	var status StatusReg
	status.setBit(5, true) // UX

	cases := []struct {
		name   string
		vaddr  uint64
		want   *Segment
		mapped bool
	}{
		{"XKUSEG", 0x0000_0000_0000_0000, &segXKUSEG, true},
		{"XKSSEG", 0x4000_0000_0000_0000, &segXKSSEG, true},
		{"XKPHYS0", 0x8000_0000_0000_0000, &segXKPHYS0, false},
		{"XKPHYS1", 0x8800_0000_0000_0000, &segXKPHYS1, false},
		{"XKPHYS2", 0x9000_0000_0000_0000, &segXKPHYS2, false},
		{"XKPHYS7", 0xB800_0000_0000_0000, &segXKPHYS7, false},
		{"CKSEG0 (0b11 prefix)", 0xFFFF_FFFF_8000_1000, &segCKSEG0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := SegmentFromVAddr(c.vaddr, status)
			if got != c.want {
				t.Errorf("SegmentFromVAddr(%#x) = %p, want %p (%s)", c.vaddr, got, c.want, c.name)
			}
			if got.Mapped != c.mapped {
				t.Errorf("%s.Mapped = %v, want %v", c.name, got.Mapped, c.mapped)
			}
		})
	}
}

func TestTranslateAddrXKPHYSWindowsAreDirectNotTLBMapped(t *testing.T) {
	c := New(1)
	c.status.SetERL(false)
	c.status.setBit(5, true) // UX

	cases := []struct {
		name  string
		vaddr uint64
		start uint64
	}{
		{"XKPHYS0", 0x8000_0000_1234_5678, segXKPHYS0.Start},
		{"XKPHYS1", 0x8800_0000_1234_5678, segXKPHYS1.Start},
		{"XKPHYS2", 0x9000_0000_1234_5678, segXKPHYS2.Start},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			paddr, _, ok := c.TranslateAddr(tc.vaddr)
			if !ok {
				t.Fatalf("%s address should translate directly without a TLB lookup", tc.name)
			}
			if want := uint32(tc.vaddr - tc.start); paddr != want {
				t.Errorf("paddr = %#x, want %#x", paddr, want)
			}
		})
	}
}

func TestTranslateAddrXKSSEGIsTLBMapped(t *testing.T) {
	c := New(1)
	c.status.SetERL(false)
	c.status.setBit(5, true) // UX

	// No TLB entry covers this XKSSEG address, so translation must miss
	// through the TLB rather than resolve it as a direct physical window.
	_, exc, ok := c.TranslateAddr(0x4000_0000_0000_1000)
	if ok {
		t.Fatal("XKSSEG is TLB-mapped; an unmapped entry should miss, not translate directly")
	}
	if exc != ExcTLBLMiss {
		t.Errorf("exception = %v, want ExcTLBLMiss", exc)
	}
}

func TestPendingInterruptRequiresIEAndMatchingMask(t *testing.T) {
	c := New(1)
	c.status.SetIE(true)
	c.status.SetEXL(false)
	c.status.SetERL(false)
	c.status = c.status | (1 << 10) // IM bit 2
	c.SetIP(2, true)
	if !c.PendingInterrupt() {
		t.Fatal("expected a pending interrupt")
	}
	c.SetIP(2, false)
	if c.PendingInterrupt() {
		t.Fatal("expected no pending interrupt once IP is cleared")
	}
}
