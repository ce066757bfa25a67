package cpu

import "math/bits"

// checkedAddI32/checkedSubI32/checkedAddI64/checkedSubI64 back ADD/SUB/
// DADD/DSUB's signed-overflow trap (spec.md §4.1). Go has no overflow-
// checked integer arithmetic in the standard library, so these are plain
// range checks — the idiomatic substitute for Rust's checked_add/checked_sub.
func checkedAddI32(a, b int32) (int32, bool) {
	r := int64(a) + int64(b)
	if r > int64(^uint32(0)>>1) || r < -int64(^uint32(0)>>1)-1 {
		return 0, false
	}
	return int32(r), true
}

func checkedSubI32(a, b int32) (int32, bool) {
	r := int64(a) - int64(b)
	if r > int64(^uint32(0)>>1) || r < -int64(^uint32(0)>>1)-1 {
		return 0, false
	}
	return int32(r), true
}

func checkedAddI64(a, b int64) (int64, bool) {
	r := a + b
	if (a >= 0) == (b >= 0) && (r >= 0) != (a >= 0) {
		return 0, false
	}
	return r, true
}

func checkedSubI64(a, b int64) (int64, bool) {
	if b == -1<<63 {
		return 0, false
	}
	return checkedAddI64(a, -b)
}

// mulS64 multiplies two signed 64-bit values into a 128-bit result split
// into hi/lo 64-bit halves (DMULT), adapting bits.Mul64's unsigned 64x64
// product via the standard two's-complement correction.
func mulS64(a, b int64) (hi, lo uint64) {
	hi, lo = bits.Mul64(uint64(a), uint64(b))
	if a < 0 {
		hi -= uint64(b)
	}
	if b < 0 {
		hi -= uint64(a)
	}
	return hi, lo
}
