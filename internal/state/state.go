// Package state implements the process-wide save-state arena (spec.md §3's
// `State` arena, §5 "no locks, no atomics", §8.2 round-trip property).
// Subsystems allocate named fields from a single Arena at construction time;
// Serialize/Restore walk the registered fields in a stable order so that
// `Serialize() |> Restore()` is the identity on every registered field,
// regardless of which subsystem owns it.
//
// Grounded on the teacher's RegisterInfo-by-name convention
// (debug_interface.go's GetRegisters()/SetRegister(name, value) pair):
// rather than reflecting over CPU structs, callers hand the arena a pointer
// and a string key up front, and the arena is the only thing that ever
// walks the whole field set.
package state

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"
	"sync"
)

// Field is a single named, independently (de)serializable save-state slot.
// Concrete field types (regU64, regU32, regBool, regBytes, regAny, below)
// wrap a pointer into subsystem state so the arena never copies data except
// at Serialize/Restore time.
type Field interface {
	// Encode appends this field's value to enc; Serialize writes the field
	// names once, ahead of all values.
	Encode(enc *gob.Encoder) error
	// Decode reads this field's value from dec and installs it in place.
	Decode(dec *gob.Decoder) error
}

// Arena is a process-wide (but not process-global — each emulator instance
// owns one) registry of save-state fields. The teacher's debug registers are
// read on demand; the arena instead holds stable pointers so a full
// Serialize/Restore cycle touches every subsystem without per-subsystem
// glue code.
//
// Per spec.md §5 ("no locks, no atomics... because State-owned field
// handles are not Send"), Arena is not safe for concurrent use — the
// scheduler that owns it runs everything on a single thread, so the mutex
// here exists only to catch accidental concurrent Register calls during
// setup, not to protect Serialize/Restore against a running interpreter.
type Arena struct {
	mu     sync.Mutex
	order  []string
	fields map[string]Field
}

// New creates an empty arena.
func New() *Arena {
	return &Arena{fields: make(map[string]Field)}
}

// Register installs a field under name. Registering the same name twice is
// a programmer error (subsystem construction bug) and panics immediately
// rather than silently shadowing the earlier field.
func (a *Arena) Register(name string, f Field) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.fields[name]; exists {
		panic(fmt.Sprintf("state: field %q registered twice", name))
	}
	a.fields[name] = f
	a.order = append(a.order, name)
}

// RegU64 registers a *uint64-backed field, the common case for CPU/COP0/RSP
// scalar registers.
func (a *Arena) RegU64(name string, ptr *uint64) {
	a.Register(name, &regU64{ptr})
}

// RegU32 registers a *uint32-backed field.
func (a *Arena) RegU32(name string, ptr *uint32) {
	a.Register(name, &regU32{ptr})
}

// RegBool registers a *bool-backed field (delay_slot, tight_exit, halt...).
func (a *Arena) RegBool(name string, ptr *bool) {
	a.Register(name, &regBool{ptr})
}

// RegBytes registers a raw byte slice field whose length is fixed at
// registration time (RDRAM backing, RSP DMEM/IMEM, vector register file).
func (a *Arena) RegBytes(name string, data []byte) {
	a.Register(name, &regBytes{data})
}

// RegSlice registers any gob-encodable value behind a pointer — used for
// structured fields like the TLB entry array that don't fit the scalar
// helpers above.
func (a *Arena) RegSlice(name string, ptr any) {
	a.Register(name, &regAny{ptr})
}

// Serialize walks every registered field in sorted-name order and gob-
// encodes it into a single buffer after the sorted name list, so Restore can
// detect a field present in the snapshot but no longer registered (or vice
// versa) instead of silently misaligning values.
func (a *Arena) Serialize() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	names := a.sortedNames()
	if err := enc.Encode(names); err != nil {
		return nil, fmt.Errorf("state: encode field index: %w", err)
	}
	for _, name := range names {
		if err := a.fields[name].Encode(enc); err != nil {
			return nil, fmt.Errorf("state: encode field %q: %w", name, err)
		}
	}
	return buf.Bytes(), nil
}

// Restore decodes a byte stream previously produced by Serialize, writing
// values back through every field's pointer. It is an error for the
// snapshot to name a field the arena doesn't currently have registered, or
// for the arena to have fields the snapshot omits — a shape mismatch means
// the caller is restoring a snapshot from an incompatible build.
func (a *Arena) Restore(data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	dec := gob.NewDecoder(bytes.NewReader(data))
	var names []string
	if err := dec.Decode(&names); err != nil {
		return fmt.Errorf("state: decode field index: %w", err)
	}
	want := a.sortedNames()
	if !equalStrings(names, want) {
		return fmt.Errorf("state: snapshot field set %v does not match registered fields %v", names, want)
	}
	for _, name := range names {
		if err := a.fields[name].Decode(dec); err != nil {
			return fmt.Errorf("state: decode field %q: %w", name, err)
		}
	}
	return nil
}

func (a *Arena) sortedNames() []string {
	names := make([]string, len(a.order))
	copy(names, a.order)
	sort.Strings(names)
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type regU64 struct{ ptr *uint64 }

func (r *regU64) Encode(enc *gob.Encoder) error { return enc.Encode(*r.ptr) }
func (r *regU64) Decode(dec *gob.Decoder) error { return dec.Decode(r.ptr) }

type regU32 struct{ ptr *uint32 }

func (r *regU32) Encode(enc *gob.Encoder) error { return enc.Encode(*r.ptr) }
func (r *regU32) Decode(dec *gob.Decoder) error { return dec.Decode(r.ptr) }

type regBool struct{ ptr *bool }

func (r *regBool) Encode(enc *gob.Encoder) error { return enc.Encode(*r.ptr) }
func (r *regBool) Decode(dec *gob.Decoder) error { return dec.Decode(r.ptr) }

type regBytes struct{ data []byte }

func (r *regBytes) Encode(enc *gob.Encoder) error { return enc.Encode(r.data) }
func (r *regBytes) Decode(dec *gob.Decoder) error {
	tmp := make([]byte, len(r.data))
	if err := dec.Decode(&tmp); err != nil {
		return err
	}
	if len(tmp) != len(r.data) {
		return fmt.Errorf("state: byte field length mismatch: got %d, want %d", len(tmp), len(r.data))
	}
	copy(r.data, tmp)
	return nil
}

type regAny struct{ ptr any }

func (r *regAny) Encode(enc *gob.Encoder) error { return enc.Encode(r.ptr) }
func (r *regAny) Decode(dec *gob.Decoder) error { return dec.Decode(r.ptr) }
