package n64

import (
	"github.com/intuitionamiga/n64core/internal/bus"
	"github.com/intuitionamiga/n64core/internal/cop0"
	"github.com/intuitionamiga/n64core/internal/width"
)

// IrqMask names the six device lines the MI aggregates into one interrupt
// to the main CPU, grounded on mi.rs's IrqMask bitflags.
type IrqMask uint32

const (
	IrqSP IrqMask = 1 << iota
	IrqSI
	IrqAI
	IrqVI
	IrqPI
	IrqDP
)

// mainCpuIntLine is the Cause.IP bit the MI's aggregate line feeds — IP2,
// the lowest of the six hardware interrupt lines on real R4300i boards
// (IP0/IP1 are software interrupts).
const mainCpuIntLine = 2

// Mi is the MIPS Interface: the interrupt controller every other device
// routes its IRQ through, grounded on mi.rs's Mi struct and
// cb_write_reg_mode/cb_write_irq_mask callbacks.
type Mi struct {
	regMode    uint32
	regVersion uint32
	irqAck     uint32
	irqMask    uint32

	cop0 *cop0.Cp0
}

// NewMi creates an Mi wired to deliver its aggregate interrupt to c0.
func NewMi(c0 *cop0.Cp0) *Mi {
	return &Mi{regVersion: 0x0202_0102, cop0: c0}
}

// SetIRQLine asserts or clears the named device line(s), recomputes
// irq_ack and re-evaluates the CPU's IP2 line — mirrors
// Mi::set_irq_line/update_cpu_irq.
func (m *Mi) SetIRQLine(lines IrqMask, asserted bool) {
	if asserted {
		m.irqAck |= uint32(lines)
	} else {
		m.irqAck &^= uint32(lines)
	}
	m.updateCPUIrq()
}

func (m *Mi) updateCPUIrq() {
	m.cop0.SetIP(mainCpuIntLine, m.irqAck&m.irqMask != 0)
}

// writeRegMode applies the init-mode write-1-to-set/clear bit pairs
// (cb_write_reg_mode in mi.rs); bit 11 additionally clears the DP line.
func (m *Mi) writeRegMode(new uint32) {
	mode := m.regMode & 0x7F
	mode |= new & 0x7F
	if new&(1<<7) != 0 {
		mode &^= 1 << 7
	}
	if new&(1<<8) != 0 {
		mode |= 1 << 7
	}
	if new&(1<<9) != 0 {
		mode &^= 1 << 8
	}
	if new&(1<<10) != 0 {
		mode |= 1 << 8
	}
	if new&(1<<11) != 0 {
		m.SetIRQLine(IrqDP, false)
	}
	if new&(1<<12) != 0 {
		mode &^= 1 << 9
	}
	if new&(1<<13) != 0 {
		mode |= 1 << 9
	}
	m.regMode = mode
}

// writeIrqMask applies the write-1-to-set/clear bit-pair encoding used by
// IRQ_MASK: even input bits clear the corresponding mask bit, odd bits set
// it (cb_write_irq_mask in mi.rs).
func (m *Mi) writeIrqMask(new uint32) {
	mask := m.irqMask
	for i := uint(0); i < 12; i++ {
		if new&(1<<i) != 0 {
			bit := i / 2
			if i%2 != 0 {
				mask |= 1 << bit
			} else {
				mask &^= 1 << bit
			}
		}
	}
	m.irqMask = mask
	m.updateCPUIrq()
}

// MapBus installs the MI register block at AddrMIRegs (spec.md §6.1).
func (m *Mi) MapBus(b *bus.Bus) error {
	base := uint32(AddrMIRegs)
	regs := []struct {
		off   uint32
		read  bus.ReadFunc
		write bus.WriteFunc
	}{
		{0x00, func(uint32) uint64 { return uint64(m.regMode) }, func(_ uint32, v uint64) { m.writeRegMode(uint32(v)) }},
		{0x04, func(uint32) uint64 { return uint64(m.regVersion) }, func(uint32, uint64) {}},
		{0x08, func(uint32) uint64 { return uint64(m.irqAck) }, func(uint32, uint64) {}},
		{0x0C, func(uint32) uint64 { return uint64(m.irqMask) }, func(_ uint32, v uint64) { m.writeIrqMask(uint32(v)) }},
	}
	for _, r := range regs {
		if err := b.MapReg(base+r.off, width.Size32, r.read, r.write); err != nil {
			return err
		}
	}
	return nil
}
