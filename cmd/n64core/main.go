// n64core is a headless smoke-test driver: it boots a cartridge image on
// the execution engine and either runs it to a cycle budget or drops into
// an interactive single-step/trace REPL, the terminal-side analogue of the
// teacher's terminal_host.go stdin handling.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/intuitionamiga/n64core/internal/n64"
	"github.com/intuitionamiga/n64core/internal/trace"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: n64core [-frames N] <rom-file>")
		os.Exit(1)
	}

	frameBudget := 0
	args := os.Args[1:]
	if len(args) >= 2 && args[0] == "-frames" {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "n64core: invalid -frames value %q: %v\n", args[1], err)
			os.Exit(1)
		}
		frameBudget = n
		args = args[2:]
	}
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: n64core [-frames N] <rom-file>")
		os.Exit(1)
	}

	rom, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "n64core: %v\n", err)
		os.Exit(1)
	}

	machine, err := n64.New(rom)
	if err != nil {
		fmt.Fprintf(os.Stderr, "n64core: %v\n", err)
		os.Exit(1)
	}
	if err := machine.Reset(); err != nil {
		fmt.Fprintf(os.Stderr, "n64core: %v\n", err)
		os.Exit(1)
	}

	if frameBudget > 0 {
		runHeadless(machine, frameBudget)
		return
	}
	runREPL(machine)
}

// runHeadless drives frameBudget frames with no debugger attached, the
// "boots a CPU to a cycle budget" smoke test SPEC_FULL.md's package layout
// names for cmd/n64core.
func runHeadless(m *n64.N64, frames int) {
	t := trace.Null{}
	for i := 0; i < frames; i++ {
		if err := m.RunFrame(t); err != nil {
			fmt.Fprintf(os.Stderr, "n64core: frame %d: %v\n", i, err)
			os.Exit(1)
		}
	}
	fmt.Printf("n64core: ran %d frames, %d cpu cycles\n", frames, m.CPU.Ctx().Clock)
}

// runREPL puts stdin in raw mode and drives a single-step/continue loop
// driven by one-character commands, grounded on terminal_host.go's
// raw-mode pattern (x/term for the mode switch, x/sys/unix directly for
// the SIGINT handler, rather than only transitively through x/term).
// Commands are read with blocking single-byte reads.
func runREPL(m *n64.N64) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// Not a real terminal (piped input, CI) — fall back to line mode.
		runLineREPL(m)
		return
	}
	defer term.Restore(fd, oldState)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGINT)
	go func() {
		<-sigCh
		term.Restore(fd, oldState)
		fmt.Fprintln(os.Stdout, "\nn64core: interrupted")
		os.Exit(130)
	}()

	d := &replTracer{out: os.Stdout, breakpoints: map[uint64]bool{}}
	stdin := bufio.NewReader(os.Stdin)
	fmt.Fprint(os.Stdout, "\r\nn64core interactive: [s]tep frame  [b]reakpoint  [c]ontinue  [q]uit\r\n")
	for {
		fmt.Fprint(os.Stdout, "\r\n> ")
		b, err := stdin.ReadByte()
		if err != nil {
			return
		}
		switch b {
		case 'q', 'Q', 3: // 3 = Ctrl-C under raw mode without SIGINT delivery
			return
		case 's', 'S':
			stepOnce(m, d)
		case 'b', 'B':
			fmt.Fprint(os.Stdout, "\r\naddr (hex): ")
			addr := readHexLine(stdin)
			d.breakpoints[addr] = true
			fmt.Fprintf(os.Stdout, "\r\nbreakpoint set at %#x\r\n", addr)
		case 'c', 'C':
			runToBreak(m, d)
		default:
		}
	}
}

// runLineREPL is the non-tty fallback: read whole lines instead of raw
// bytes, for scripted/piped invocations.
func runLineREPL(m *n64.N64) {
	d := &replTracer{out: os.Stdout, breakpoints: map[uint64]bool{}}
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "q":
			return
		case line == "s":
			stepOnce(m, d)
		case line == "c":
			runToBreak(m, d)
		case strings.HasPrefix(line, "b "):
			addr, err := strconv.ParseUint(strings.TrimSpace(line[2:]), 16, 64)
			if err == nil {
				d.breakpoints[addr] = true
			}
		}
	}
}

func readHexLine(r *bufio.Reader) uint64 {
	var line []byte
	for {
		b, err := r.ReadByte()
		if err != nil || b == '\r' || b == '\n' {
			break
		}
		line = append(line, b)
	}
	v, _ := strconv.ParseUint(strings.TrimSpace(string(line)), 16, 64)
	return v
}

func stepOnce(m *n64.N64, d *replTracer) {
	if err := m.RunFrame(d); err != nil {
		fmt.Fprintf(os.Stdout, "\r\nstop: %v\r\n", err)
		return
	}
	fmt.Fprintf(os.Stdout, "\r\nframe %d done, cpu pc=%#x\r\n", m.Sched.Frames(), m.CPU.Ctx().PC)
}

func runToBreak(m *n64.N64, d *replTracer) {
	for {
		if err := m.RunFrame(d); err != nil {
			fmt.Fprintf(os.Stdout, "\r\nstop: %v\r\n", err)
			return
		}
	}
}

// replTracer is the REPL's debugger hook: it arms address breakpoints on
// the main CPU's instruction stream and otherwise behaves like trace.Null,
// the same "typed event aborts Run" contract documented on trace.Tracer.
type replTracer struct {
	out         *os.File
	breakpoints map[uint64]bool
}

func (d *replTracer) OnInsn(cpu string, pc uint64) error {
	if cpu == "cpu" && d.breakpoints[pc] {
		return &trace.Event{Kind: trace.Breakpoint, CPU: cpu, PC: pc, Index: -1}
	}
	return nil
}
func (d *replTracer) OnMemRead(string, uint64, int) error          { return nil }
func (d *replTracer) OnMemWrite(string, uint64, int, uint64) error { return nil }
func (d *replTracer) OnLine(int) error                             { return nil }
func (d *replTracer) Panic(cpu string, pc uint64, message string) error {
	return &trace.Event{Kind: trace.GenericBreak, CPU: cpu, PC: pc, Message: message}
}
