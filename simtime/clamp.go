package simtime

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi], swapping the bounds if they are given
// reversed. Adapted from the teacher's x/mathx.Clamp, narrowed down to
// the one generic numeric helper this kernel needs (devices/uartline's
// line-length limit).
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
