package n64

import "testing"

func TestNewCartridgeAcceptsZ64ByteOrder(t *testing.T) {
	raw := make([]byte, 0x1000)
	raw[0] = 0x80
	c, err := NewCartridge(raw)
	if err != nil {
		t.Fatalf("NewCartridge: %v", err)
	}
	if len(c.Rom) != len(raw) {
		t.Errorf("already power-of-two input should not be padded: len=%d", len(c.Rom))
	}
}

func TestNewCartridgeByteswapsN64Order(t *testing.T) {
	raw := []byte{0x37, 0x80, 0x40, 0x12}
	c, err := NewCartridge(raw)
	if err != nil {
		t.Fatalf("NewCartridge: %v", err)
	}
	want := []byte{0x80, 0x37, 0x12, 0x40}
	for i, b := range want {
		if c.Rom[i] != b {
			t.Errorf("Rom[%d] = %#x, want %#x", i, c.Rom[i], b)
		}
	}
}

func TestNewCartridgeRejectsUnknownByteOrder(t *testing.T) {
	raw := []byte{0x12, 0x34, 0x56, 0x78}
	if _, err := NewCartridge(raw); err == nil {
		t.Fatal("expected an error for a header that matches neither z64 nor n64 byte order")
	}
}

func TestNewCartridgePadsToPowerOfTwoWithFF(t *testing.T) {
	raw := make([]byte, 0x1001) // just over a power of two
	raw[0] = 0x80
	c, err := NewCartridge(raw)
	if err != nil {
		t.Fatalf("NewCartridge: %v", err)
	}
	if len(c.Rom) != 0x2000 {
		t.Fatalf("len(Rom) = %#x, want %#x", len(c.Rom), 0x2000)
	}
	if c.Rom[0x1001] != 0xFF {
		t.Errorf("padding filler should be 0xFF")
	}
}

func TestDetectCicModelRejectsUnrecognizedHeader(t *testing.T) {
	raw := make([]byte, 0x1000)
	raw[0] = 0x80
	c, _ := NewCartridge(raw)
	if _, err := c.DetectCicModel(); err == nil {
		t.Fatal("an all-zero header should not match any known CIC checksum")
	}
}

func TestCicModelSeeds(t *testing.T) {
	cases := map[CicModel]byte{
		Cic6101: 0x3F,
		Cic6102: 0x3F,
		Cic6103: 0x78,
		Cic6105: 0x91,
		Cic6106: 0x85,
	}
	for model, want := range cases {
		if got := model.Seed(); got != want {
			t.Errorf("CicModel(%d).Seed() = %#x, want %#x", model, got, want)
		}
	}
}
