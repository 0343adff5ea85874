// Package simtime holds the simulator's notion of time: a nanosecond
// float64 with a total order (so NaN cannot enter the ping heap), and the
// half-period arithmetic the board uses to advance its clock. Grounded on
// the teacher's x/timex.PeriodFromHz, generalized from an integer
// milliseconds-granularity period to the spec's fractional-nanosecond
// half period.
package simtime

// Time is a point in simulated time, measured in nanoseconds.
type Time float64

// Less implements a total order over Time. Values are never NaN by
// construction (HalfPeriod and board arithmetic only ever produce finite
// results), so ordinary < is already total, but Less exists as the named
// comparison the ping queue is specified against.
func Less(a, b Time) bool { return a < b }

// HalfPeriod returns the nanosecond duration of one half clock cycle for
// a board running at freqHz. freqHz <= 0 is coerced to 1Hz to avoid
// division by zero, mirroring x/timex.PeriodFromHz's zero-guard.
func HalfPeriod(freqHz float64) Time {
	if freqHz <= 0 {
		freqHz = 1
	}
	return Time(0.5e9 / freqHz)
}
