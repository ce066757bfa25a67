package cop0

// Segment describes one slice of the 64-bit virtual address space: its
// base, length, whether accesses to it are cached, and whether it goes
// through the TLB at all. Grounded on segment.rs's Segment table; the
// original's compile-time perfect-hash lookup (phf::OrderedMap) becomes a
// plain Go switch here since Go has no const-time perfect-hash construct
// in its standard toolchain and the table is tiny. TranslateAddr consults
// it on every translation.
type Segment struct {
	Start   uint64
	Length  uint64
	Cached  bool
	Mapped  bool
}

var (
	segKUSEG  = Segment{0x0000_0000_0000_0000, 0x0000_0000_8000_0000, true, true}
	segKSEG0  = Segment{0xFFFF_FFFF_8000_0000, 0x0000_0000_2000_0000, true, false}
	segKSEG1  = Segment{0xFFFF_FFFF_A000_0000, 0x0000_0000_2000_0000, true, false}
	segKSSEG  = Segment{0xFFFF_FFFF_C000_0000, 0x0000_0000_2000_0000, true, true}
	segKSEG3  = Segment{0xFFFF_FFFF_E000_0000, 0x0000_0000_2000_0000, true, true}

	segSUSEG = Segment{0x0000_0000_0000_0000, 0x0000_0000_8000_0000, true, true}
	segSSEG  = Segment{0xFFFF_FFFF_C000_0000, 0x0000_0000_2000_0000, true, true}

	segXKUSEG  = Segment{0x0000_0000_0000_0000, 0x0000_0100_0000_0000, true, true}
	segXKSSEG  = Segment{0x4000_0000_0000_0000, 0x0000_0100_0000_0000, true, true}
	segXKPHYS0 = Segment{0x8000_0000_0000_0000, 0x0000_0001_0000_0000, true, false}
	segXKPHYS1 = Segment{0x8800_0000_0000_0000, 0x0000_0001_0000_0000, true, false}
	segXKPHYS2 = Segment{0x9000_0000_0000_0000, 0x0000_0001_0000_0000, false, false}
	segXKPHYS3 = Segment{0x9800_0000_0000_0000, 0x0000_0001_0000_0000, true, false}
	segXKPHYS4 = Segment{0xA000_0000_0000_0000, 0x0000_0001_0000_0000, true, false}
	segXKPHYS5 = Segment{0xA800_0000_0000_0000, 0x0000_0001_0000_0000, true, false}
	segXKPHYS6 = Segment{0xB000_0000_0000_0000, 0x0000_0001_0000_0000, true, false}
	segXKPHYS7 = Segment{0xB800_0000_0000_0000, 0x0000_0001_0000_0000, true, false}
	segXKSEG   = Segment{0xC000_0000_0000_0000, 0x0000_0100_0000_0000, true, true}
	segCKSEG0  = Segment{0xFFFF_FFFF_8000_0000, 0x0000_0000_2000_0000, true, false}
	segCKSEG1  = Segment{0xFFFF_FFFF_A000_0000, 0x0000_0000_2000_0000, true, false}
	segCKSSEG  = Segment{0xFFFF_FFFF_C000_0000, 0x0000_0000_2000_0000, true, true}
	segCKSEG3  = Segment{0xFFFF_FFFF_E000_0000, 0x0000_0000_2000_0000, true, true}

	segXSUSEG = Segment{0x0000_0000_0000_0000, 0x0000_0100_0000_0000, true, true}
	segXSSEG  = Segment{0x4000_0000_0000_0000, 0x0000_0100_0000_0000, true, true}
	segCSSEG  = Segment{0xFFFF_FFFF_C000_0000, 0x0000_0000_1FFF_FFFF, true, true}
)

// SegmentFromVAddr classifies vaddr into its segment given the current
// privilege level and 64-bit-addressing gates in status, mirroring
// Segment::from_vaddr. Kernel-mode 64-bit addresses additionally dispatch
// on bits 63..62 (then on bits 61..59 inside the XKPHYS window and, within
// the 0b11 prefix, on which compatibility kseg the address falls into).
func SegmentFromVAddr(vaddr uint64, status StatusReg) *Segment {
	ksu := status.KSU()
	exl := status.EXL()
	erl := status.ERL()
	supervisorMode := ksu == 0b01 && !exl && !erl
	kernelMode := ksu == 0b00 || exl || erl
	use64 := status.UX() || status.SX() || status.KX()

	switch {
	case kernelMode:
		if use64 {
			// segment.rs keys its lookup on the compound pair (b1, b2)
			// where b1 = bits 63:62 ("top") and b2 = bits 61:59 — b2 only
			// distinguishes XKPHYS0..7 within the b1==0b10 window, so it
			// must never be consulted before b1 has selected that window.
			top := vaddr >> 62 & 0x3
			switch top {
			case 0b00:
				return &segXKUSEG
			case 0b01:
				return &segXKSSEG
			case 0b10:
				switch vaddr >> 59 & 0x7 {
				case 0:
					return &segXKPHYS0
				case 1:
					return &segXKPHYS1
				case 2:
					return &segXKPHYS2
				case 3:
					return &segXKPHYS3
				case 4:
					return &segXKPHYS4
				case 5:
					return &segXKPHYS5
				case 6:
					return &segXKPHYS6
				default:
					return &segXKPHYS7
				}
			default: // 0b11: compatibility ksegs, keyed by address range
				switch {
				case vaddr < segCKSEG0.Start:
					return &segXKSEG
				case vaddr < segCKSEG1.Start:
					return &segCKSEG0
				case vaddr < segCKSSEG.Start:
					return &segCKSEG1
				case vaddr < segCKSEG3.Start:
					return &segCKSSEG
				default:
					return &segCKSEG3
				}
			}
		}
		switch vaddr >> 29 & 0x7 {
		case 0b100:
			return &segKSEG0
		case 0b101:
			return &segKSEG1
		case 0b110:
			return &segKSSEG
		case 0b111:
			return &segKSEG3
		default:
			return &segKUSEG
		}
	case supervisorMode:
		if use64 {
			if vaddr>>62&0x3 == 0 {
				return &segXSUSEG
			}
			return &segXSSEG
		}
		if vaddr&(1<<32) != 0 {
			return &segSSEG
		}
		return &segSUSEG
	default:
		if use64 {
			return &segXKUSEG
		}
		return &segKUSEG
	}
}
