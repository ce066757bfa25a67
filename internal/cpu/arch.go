package cpu

// Arch gates which opcodes a particular core can reach, the Go-idiomatic
// version of cpu.rs's `C::Arch::has_op(name)` compile-time dispatch (itself
// invoked at runtime via an `if h("name")` guard on every match arm). Since
// Go generics can't erase that check at compile time the way the original's
// monomorphized Config type parameter does, it is kept as a runtime map
// lookup — the same cost the original already pays per the `if_cop!` macro
// for its coprocessor-presence checks.
//
// Two instances matter for this core: MIPSIII is the main R4300i CPU (full
// 64-bit instruction set, TLB, all four coprocessor slots); RSPLite is the
// RSP's scalar control processor (32-bit GPRs only, no COP0/COP1, drives
// COP2 through the same dispatch loop) — spec.md §1's "cut-down MIPS with a
// 128-bit vector coprocessor".
type Arch int

const (
	MIPSIII Arch = iota
	RSPLite
)

// rspLiteExcluded lists every mnemonic RSPLite cannot reach: the full
// 64-bit GPR family (DADD.., DMULT.., DIV64 loads/stores) and COP1 load/
// store, neither of which the RSP's scalar core implements in hardware.
var rspLiteExcluded = map[string]bool{
	"dsllv": true, "dsrlv": true, "dsrav": true,
	"dmult": true, "dmultu": true, "ddiv": true, "ddivu": true,
	"dadd": true, "daddu": true, "dsub": true, "dsubu": true,
	"daddi": true, "daddiu": true,
	"dsll": true, "dsrl": true, "dsra": true,
	"dsll32": true, "dsrl32": true, "dsra32": true,
	"ldl": true, "ldr": true, "ld": true,
	"sdl": true, "sdr": true, "sd": true,
	"lwu": true,
	"lwc1": true, "ldc1": true, "swc1": true, "sdc1": true,
}

// HasOp reports whether the mnemonic is reachable on this architecture.
func (a Arch) HasOp(name string) bool {
	if a == MIPSIII {
		return true
	}
	return !rspLiteExcluded[name]
}
