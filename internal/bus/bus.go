// Package bus implements the shared 32-bit physical address space: a
// radix-tree router from address to either a raw memory region or a
// callback-driven register, plus the automatic combination of sub-word and
// multi-word accesses across endianness (spec.md §3.5, §4.5).
package bus

import (
	"errors"
	"fmt"
	"os"

	"github.com/intuitionamiga/n64core/internal/width"
)

var errOverlap = errors.New("bus: insert_range over non-empty range")

// ReadFunc services a register read; it receives the full bus address.
type ReadFunc func(addr uint32) uint64

// WriteFunc services a register write.
type WriteFunc func(addr uint32, val uint64)

type memRegion struct {
	data []byte
	mask uint32
}

type readLeaf struct {
	mem *memRegion
	fn  ReadFunc
}

type writeLeaf struct {
	mem *memRegion
	fn  WriteFunc
}

// Bus is the multi-level radix-tree router described in spec.md §3.5. One
// Bus instance holds four parallel trees, one per access width, mirroring
// the teacher's SystemBus/MachineBus split between raw memory and
// callback-driven MMIO (memory_bus.go, machine_bus.go) generalised to all
// four N64 bus widths instead of a single fixed 32-bit width.
type Bus struct {
	bigEndian bool

	reads  [4]*radixTree[readLeaf]
	writes [4]*radixTree[writeLeaf]

	// Logf receives a line for every unmapped access and every combiner
	// that could not be synthesized yet; nil disables logging. Defaults to
	// a stderr writer, matching the teacher's debug-gated Fprintf calls
	// (see debug_commands.go, media_loader.go).
	Logf func(format string, args ...any)
}

// NewBus creates an empty bus. bigEndian selects the N64's native CPU byte
// order for combiner synthesis and raw memory region access.
func NewBus(bigEndian bool) *Bus {
	b := &Bus{bigEndian: bigEndian}
	for i := range b.reads {
		b.reads[i] = newRadixTree[readLeaf]()
		b.writes[i] = newRadixTree[writeLeaf]()
	}
	b.Logf = func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
	return b
}

func sizeOf(s width.Size) uint32 { return uint32(s.Bytes()) }

func allOnes(s width.Size) uint64 {
	switch s {
	case width.Size8:
		return 0xFF
	case width.Size16:
		return 0xFFFF
	case width.Size32:
		return 0xFFFFFFFF
	default:
		return 0xFFFFFFFFFFFFFFFF
	}
}

// MapMem installs a contiguous memory-backed region spanning [begin, end]
// (inclusive). Per spec.md §4.5, length must be a power of two and
// 16-bit-aligned; the teacher enforces a similar page-aligned memory layout
// in memory_bus.go's PAGE_MASK/PAGE_SIZE constants.
func (b *Bus) MapMem(begin, end uint32, backing []byte) error {
	size := end - begin + 1
	if size == 0 || size&(size-1) != 0 {
		return fmt.Errorf("bus: region size %#x is not a power of two", size)
	}
	if size%2 != 0 && size != 1 {
		return fmt.Errorf("bus: region size %#x is not 16-bit aligned", size)
	}
	region := &memRegion{data: backing, mask: size - 1}
	for _, s := range []width.Size{width.Size8, width.Size16, width.Size32, width.Size64} {
		if err := b.reads[s].insertRange(begin, end, readLeaf{mem: region}, false); err != nil {
			return err
		}
		if err := b.writes[s].insertRange(begin, end, writeLeaf{mem: region}, false); err != nil {
			return err
		}
	}
	return nil
}

// MapReg installs a callback-driven register of width sz at addr, then
// automatically synthesizes:
//   - sub-word views for every width narrower than sz (an 8-bit read into a
//     32-bit register extracts the right byte per byte order), and
//   - combiner leaves for every width wider than sz, so a 32-bit read across
//     two adjacent 16-bit registers assembles them in address order
//     (spec.md §3.5, §4.5; grounded on the original engine's
//     MappedReg::map_into cascade in emu/src/bus/bus.rs).
func (b *Bus) MapReg(addr uint32, sz width.Size, read ReadFunc, write WriteFunc) error {
	if err := b.reads[sz].insertRange(addr, addr+sizeOf(sz)-1, readLeaf{fn: read}, false); err != nil {
		return err
	}
	if err := b.writes[sz].insertRange(addr, addr+sizeOf(sz)-1, writeLeaf{fn: write}, false); err != nil {
		return err
	}

	for _, sub := range narrowerThan(sz) {
		if err := b.mapSubword(addr, sz, sub, read, write); err != nil {
			return err
		}
	}
	for _, wide := range widerThan(sz) {
		aligned := addr &^ (sizeOf(wide) - 1)
		b.mapCombine(aligned, wide)
	}
	return nil
}

func narrowerThan(sz width.Size) []width.Size {
	switch sz {
	case width.Size16:
		return []width.Size{width.Size8}
	case width.Size32:
		return []width.Size{width.Size8, width.Size16}
	case width.Size64:
		return []width.Size{width.Size8, width.Size16, width.Size32}
	default:
		return nil
	}
}

func widerThan(sz width.Size) []width.Size {
	switch sz {
	case width.Size8:
		return []width.Size{width.Size16, width.Size32, width.Size64}
	case width.Size16:
		return []width.Size{width.Size32, width.Size64}
	case width.Size32:
		return []width.Size{width.Size64}
	default:
		return nil
	}
}

// mapSubword installs a single Func leaf, spanning the whole sz-wide
// register's address range, into the narrower `sub` tree. The leaf closure
// recomputes the byte offset from the address actually probed (not the
// register's base) so one leaf serves every offset inside the register —
// mirroring Reg::hwio_r/hwio_w in the original engine, which derive `off`
// from the probed address at call time rather than pre-expanding one
// closure per offset.
func (b *Bus) mapSubword(addr uint32, sz, sub width.Size, read ReadFunc, write WriteFunc) error {
	full := sizeOf(sz)
	part := sizeOf(sub)
	mask := allOnes(sub)

	subRead := func(probed uint32) uint64 {
		off := probed & (full - 1)
		shift := b.subShift(full, part, off)
		return (read(addr) >> shift) & mask
	}
	subWrite := func(probed uint32, val uint64) {
		off := probed & (full - 1)
		shift := b.subShift(full, part, off)
		cur := read(addr)
		cleared := cur &^ (mask << shift)
		write(addr, cleared|((val&mask)<<shift))
	}
	if err := b.reads[sub].insertRange(addr, addr+full-1, readLeaf{fn: subRead}, false); err != nil {
		return err
	}
	if err := b.writes[sub].insertRange(addr, addr+full-1, writeLeaf{fn: subWrite}, false); err != nil {
		return err
	}
	return nil
}

// subShift returns the bit shift that isolates a `part`-byte slice at byte
// offset `off` (measured from the low address) out of a `full`-byte value,
// honouring byte order: little-endian puts the low address in the low
// bits, big-endian puts it in the high bits.
func (b *Bus) subShift(full, part, off uint32) uint32 {
	if b.bigEndian {
		return (full - part - off) * 8
	}
	return off * 8
}

// mapCombine synthesizes a wide leaf at addr from the two half-width leaves
// already mapped at addr and addr+half. It is a no-op (not an error) if
// those halves are not both mapped yet — callers build registers narrowest
// width first, so by the time a wider MapReg call requests a combiner the
// halves are normally present; if a caller maps registers out of order the
// combiner is simply deferred, same as the original engine logs and moves
// on rather than failing the whole map_device call.
func (b *Bus) mapCombine(addr uint32, sz width.Size) {
	half, ok := sz.Half()
	if !ok {
		return
	}
	halfBytes := sizeOf(half)

	beforeLeaf, ok1 := b.reads[half].lookup(addr)
	afterLeaf, ok2 := b.reads[half].lookup(addr + halfBytes)
	if !ok1 || !ok2 {
		if b.Logf != nil {
			b.Logf("bus: combiner for %s at %#x deferred (halves not yet mapped)", sz, addr)
		}
		return
	}
	bigEndian := b.bigEndian
	readFn := func(a uint32) uint64 {
		bv := b.readLeafValue(beforeLeaf, addr, half)
		av := b.readLeafValue(afterLeaf, addr+halfBytes, half)
		return combineHalves(sz, bigEndian, bv, av)
	}
	_ = b.reads[sz].insertRange(addr, addr+sizeOf(sz)-1, readLeaf{fn: readFn}, true)

	beforeW, ok3 := b.writes[half].lookup(addr)
	afterW, ok4 := b.writes[half].lookup(addr + halfBytes)
	if !ok3 || !ok4 {
		return
	}
	writeFn := func(a uint32, val uint64) {
		bv, av := splitHalves(sz, bigEndian, val)
		b.writeLeafValue(beforeW, addr, half, bv)
		b.writeLeafValue(afterW, addr+halfBytes, half, av)
	}
	_ = b.writes[sz].insertRange(addr, addr+sizeOf(sz)-1, writeLeaf{fn: writeFn}, true)
}

func combineHalves(sz width.Size, bigEndian bool, before, after uint64) uint64 {
	halfBits := uint(sz.Bytes()) * 4
	if bigEndian {
		return before<<halfBits | after
	}
	return before | after<<halfBits
}

func splitHalves(sz width.Size, bigEndian bool, val uint64) (before, after uint64) {
	halfBits := uint(sz.Bytes()) * 4
	halfMask := uint64(1)<<halfBits - 1
	if bigEndian {
		return val >> halfBits, val & halfMask
	}
	return val & halfMask, val >> halfBits
}

func (b *Bus) readLeafValue(l *readLeaf, addr uint32, sz width.Size) uint64 {
	if l.mem != nil {
		return readMem(l.mem, addr, sz, b.bigEndian)
	}
	return l.fn(addr)
}

func (b *Bus) writeLeafValue(l *writeLeaf, addr uint32, sz width.Size, val uint64) {
	if l.mem != nil {
		writeMem(l.mem, addr, sz, val, b.bigEndian)
		return
	}
	l.fn(addr, val)
}

func readMem(m *memRegion, addr uint32, sz width.Size, bigEndian bool) uint64 {
	off := addr & m.mask
	data := m.data[off:]
	order := orderFor(bigEndian)
	switch sz {
	case width.Size8:
		return uint64(data[0])
	case width.Size16:
		return uint64(order.Uint16(data))
	case width.Size32:
		return uint64(order.Uint32(data))
	default:
		return order.Uint64(data)
	}
}

func writeMem(m *memRegion, addr uint32, sz width.Size, val uint64, bigEndian bool) {
	off := addr & m.mask
	data := m.data[off:]
	order := orderFor(bigEndian)
	switch sz {
	case width.Size8:
		data[0] = byte(val)
	case width.Size16:
		order.PutUint16(data, uint16(val))
	case width.Size32:
		order.PutUint32(data, uint32(val))
	default:
		order.PutUint64(data, val)
	}
}

func orderFor(bigEndian bool) width.Order {
	if bigEndian {
		return width.BigEndian
	}
	return width.LittleEndian
}

func (b *Bus) read(addr uint32, sz width.Size) uint64 {
	leaf, ok := b.reads[sz].lookup(addr)
	if !ok {
		if b.Logf != nil {
			b.Logf("bus: unmapped read addr=%#x size=%s", addr, sz)
		}
		return allOnes(sz)
	}
	return b.readLeafValue(leaf, addr, sz)
}

func (b *Bus) write(addr uint32, sz width.Size, val uint64) {
	leaf, ok := b.writes[sz].lookup(addr)
	if !ok {
		if b.Logf != nil {
			b.Logf("bus: unmapped write addr=%#x size=%s val=%#x", addr, sz, val)
		}
		return
	}
	b.writeLeafValue(leaf, addr, sz, val)
}

// Read8/16/32/64 and Write8/16/32/64 are the concrete per-width accessors
// the interpreter and coprocessors call; spec.md keeps the family generic
// over W but Go's lack of associated types makes four concrete methods the
// idiomatic rendering, matching the teacher's own per-width Read32/Write32
// naming in memory_bus.go/machine_bus.go.
func (b *Bus) Read8(addr uint32) uint8   { return uint8(b.read(addr, width.Size8)) }
func (b *Bus) Read16(addr uint32) uint16 { return uint16(b.read(addr, width.Size16)) }
func (b *Bus) Read32(addr uint32) uint32 { return uint32(b.read(addr, width.Size32)) }
func (b *Bus) Read64(addr uint32) uint64 { return b.read(addr, width.Size64) }

func (b *Bus) Write8(addr uint32, v uint8)   { b.write(addr, width.Size8, uint64(v)) }
func (b *Bus) Write16(addr uint32, v uint16) { b.write(addr, width.Size16, uint64(v)) }
func (b *Bus) Write32(addr uint32, v uint32) { b.write(addr, width.Size32, uint64(v)) }
func (b *Bus) Write64(addr uint32, v uint64) { b.write(addr, width.Size64, v) }

// FetchSlice returns the raw backing slice from addr to the end of its
// memory region, for the CPU's tight instruction loop (spec.md §4.1) which
// needs a linear run of words it can decode without a bus dispatch per
// instruction. ok is false when addr is not backed by raw memory (e.g. it
// falls inside a register bank), in which case the caller must fall back
// to Read32 per instruction.
func (b *Bus) FetchSlice(addr uint32) (data []byte, ok bool) {
	leaf, found := b.reads[width.Size32].lookup(addr)
	if !found || leaf.mem == nil {
		return nil, false
	}
	off := addr & leaf.mem.mask
	return leaf.mem.data[off:], true
}
