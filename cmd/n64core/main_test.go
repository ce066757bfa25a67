package main

import (
	"testing"

	"github.com/intuitionamiga/n64core/internal/trace"
)

func TestReplTracerOnInsnFiresOnlyForCpuBreakpoints(t *testing.T) {
	d := &replTracer{breakpoints: map[uint64]bool{0x1000: true}}

	if err := d.OnInsn("rsp", 0x1000); err != nil {
		t.Fatalf("a breakpoint armed for the main CPU must not fire for the RSP core: %v", err)
	}
	err := d.OnInsn("cpu", 0x1000)
	if err == nil {
		t.Fatal("expected a breakpoint event at the armed address")
	}
	ev, ok := err.(*trace.Event)
	if !ok || ev.Kind != trace.Breakpoint {
		t.Fatalf("OnInsn error = %#v, want a *trace.Event{Kind: Breakpoint}", err)
	}
}

func TestReplTracerOnInsnIgnoresUnarmedAddresses(t *testing.T) {
	d := &replTracer{breakpoints: map[uint64]bool{}}
	if err := d.OnInsn("cpu", 0x2000); err != nil {
		t.Fatalf("no breakpoint is armed, OnInsn should return nil, got %v", err)
	}
}

func TestReplTracerPanicReturnsGenericBreak(t *testing.T) {
	d := &replTracer{breakpoints: map[uint64]bool{}}
	err := d.Panic("cpu", 0x4000, "unimplemented opcode")
	ev, ok := err.(*trace.Event)
	if !ok || ev.Kind != trace.GenericBreak {
		t.Fatalf("Panic() = %#v, want a *trace.Event{Kind: GenericBreak}", err)
	}
}
