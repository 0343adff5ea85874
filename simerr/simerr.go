// Package simerr is the simulator's error taxonomy. It mirrors the
// teacher codebase's errcode package: a stable string Code that doubles
// as an error, plus an E wrapper that keeps an operation name, a message,
// and an optional cause. Fatal conditions are raised as panics through
// Fatalf and Wrap; board.AddWire and board.Simulate also return *E values
// as ordinary errors for construction-time misuse. Bus contention is not
// an error at all and never reaches this package.
package simerr

import "fmt"

// Code is a stable, diagnostic-facing error identifier.
type Code string

func (c Code) Error() string { return string(c) }

const (
	// Invariant marks a violated structural invariant: wiring a pin
	// twice, reading a non-existent pin name, and similar programmer
	// errors the simulator cannot recover from deterministically.
	Invariant Code = "invariant_violation"
	// Protocol marks a threaded-worker message-protocol violation
	// (Done without a matching Step, or vice versa).
	Protocol Code = "worker_protocol_violation"
	// ChannelClosed marks an unexpected channel closure, typically a
	// worker goroutine that panicked.
	ChannelClosed Code = "channel_closed"
	// IO marks a VCD file write failure.
	IO Code = "vcd_io_error"
	// Range marks an out-of-range pin id, wire id, or component id.
	Range Code = "out_of_range"
)

// E wraps a Code with context: the operation that failed, a human
// message, and an optional underlying cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := e.Op + ": " + string(e.C)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Invariant when err
// carries none.
func Of(err error) Code {
	if err == nil {
		return ""
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Invariant
}

// Fatalf panics with an *E built from the given code, operation, and
// formatted message. Every fatal kind in the error-handling design (§7)
// surfaces this way: simulation is meant to be deterministic and
// reproducible, so errors are never swallowed or retried.
func Fatalf(c Code, op, format string, args ...any) {
	panic(&E{C: c, Op: op, Msg: fmt.Sprintf(format, args...)})
}

// Wrap panics with an *E that chains an underlying cause, used when a
// fatal condition was detected via a lower-level error (e.g. an os.File
// write failure while emitting a VCD delta).
func Wrap(c Code, op string, err error) {
	if err == nil {
		return
	}
	panic(&E{C: c, Op: op, Err: err, Msg: err.Error()})
}
