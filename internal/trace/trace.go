// Package trace defines the debugger-facing event family that the
// interpreter, scheduler and coprocessors surface when a breakpoint,
// watchpoint or impossible state is hit (spec.md §7). It mirrors the
// teacher's DebuggableCPU/BreakpointEvent split (debug_interface.go) but
// renders control flow as Go errors so it composes naturally with Run's
// normal error return instead of a side-channel event struct.
package trace

import "fmt"

// Kind discriminates the members of the TraceEvent family.
type Kind int

const (
	// Breakpoint fires before executing the instruction at an armed address.
	Breakpoint Kind = iota
	// BreakpointOneShot is a "run to cursor" landing.
	BreakpointOneShot
	// WatchpointRead fires when an armed address is read and any value
	// predicate on it is satisfied.
	WatchpointRead
	// WatchpointWrite is the write-side equivalent of WatchpointRead.
	WatchpointWrite
	// GenericBreak is an explicit panic from an unimplemented opcode or an
	// impossible interpreter state.
	GenericBreak
	// Paused/Stepped are user-controlled, not failures; they still flow
	// through the same error channel so callers only need one switch.
	Paused
	Stepped
	// Poll names a periodic poll stop a Tracer may return to keep a host
	// GUI responsive; nothing in this module emits it (the scheduler's
	// per-scanline hook is Tracer.OnLine).
	Poll
)

func (k Kind) String() string {
	switch k {
	case Breakpoint:
		return "breakpoint"
	case BreakpointOneShot:
		return "breakpoint(one-shot)"
	case WatchpointRead:
		return "watchpoint(read)"
	case WatchpointWrite:
		return "watchpoint(write)"
	case GenericBreak:
		return "panic"
	case Paused:
		return "paused"
	case Stepped:
		return "stepped"
	case Poll:
		return "poll"
	default:
		return "unknown"
	}
}

// Event is the concrete error type surfaced by Run/Step/TraceFrame. It
// satisfies the error interface so it can be returned and wrapped like any
// other Go error, while still carrying the structured fields a debugger
// needs to render a stop reason.
type Event struct {
	Kind    Kind
	CPU     string // stable CPU identifier, e.g. "cpu", "rsp"
	PC      uint64
	Index   int    // breakpoint/watchpoint index, -1 if not applicable
	Addr    uint64 // watched memory address, 0 if not applicable
	Message string // GenericBreak detail
}

func (e *Event) Error() string {
	switch e.Kind {
	case Breakpoint, BreakpointOneShot:
		return fmt.Sprintf("%s: %s at pc=%#x", e.CPU, e.Kind, e.PC)
	case WatchpointRead, WatchpointWrite:
		return fmt.Sprintf("%s: %s on addr=%#x at pc=%#x", e.CPU, e.Kind, e.Addr, e.PC)
	case GenericBreak:
		return fmt.Sprintf("%s: panic at pc=%#x: %s", e.CPU, e.PC, e.Message)
	default:
		return fmt.Sprintf("%s: %s at pc=%#x", e.CPU, e.Kind, e.PC)
	}
}

// Tracer is the debugger hook threaded through Run/Step. Any method may
// return a non-nil *Event to abort execution at the current instruction
// boundary; the interpreter never interrupts an instruction mid-execution
// (spec.md §5).
type Tracer interface {
	// OnInsn is called before decoding the instruction at pc.
	OnInsn(cpu string, pc uint64) error
	// OnMemRead/OnMemWrite are called for every bus access the CPU makes
	// on behalf of a load/store instruction (not internal fetches).
	OnMemRead(cpu string, addr uint64, size int) error
	OnMemWrite(cpu string, addr uint64, size int, val uint64) error
	// OnLine is called once per scanline by the scheduler's GPU hook so a
	// host GUI can poll for user input without waiting for a full frame.
	OnLine(line int) error
	// Panic is called for unimplemented opcodes or impossible states; it
	// always returns a non-nil *Event (GenericBreak) — implementations
	// that have no debugger attached should still return the event so the
	// caller can decide whether to abort the process.
	Panic(cpu string, pc uint64, message string) error
}

// Null is a Tracer that never stops execution; used when no debugger is
// attached, matching the teacher's headless build tags (video_backend_headless.go).
type Null struct{}

func (Null) OnInsn(string, uint64) error                 { return nil }
func (Null) OnMemRead(string, uint64, int) error          { return nil }
func (Null) OnMemWrite(string, uint64, int, uint64) error { return nil }
func (Null) OnLine(int) error                             { return nil }
func (Null) Panic(cpu string, pc uint64, message string) error {
	return &Event{Kind: GenericBreak, CPU: cpu, PC: pc, Message: message}
}
