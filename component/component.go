// Package component defines the contract every simulated device
// implements (spec.md §4.C): static pin metadata, the input-change and
// clock-edge hooks, the advance/ping protocol, output-change collection,
// and VCD introspection.
package component

import (
	"boardsim/pin"
	"boardsim/simtime"
	"boardsim/vcd"
)

// PinChange is one output pin transition a component reports back to the
// board after a tick.
type PinChange struct {
	Pin   pin.ID
	State pin.State
}

// Device is the contract every simulated component implements. Per the
// Open Question in spec.md §9, this kernel resolves the
// threaded-edge-message ambiguity by giving only cooperative components
// distinct ClockRisingEdge/ClockFallingEdge calls; threaded components
// instead receive a single Step(now) and infer the edge from alternation
// (see board/internal/worker).
type Device interface {
	// PinCount reports how many pins this component exposes.
	PinCount() int
	// PinName returns the VCD hierarchy label for pin id. Out-of-range
	// ids are a programmer error (spec.md §7, "Input out of range").
	PinName(id pin.ID) string

	// SetPin is called by the wire engine when input pin id's resolved
	// value changes.
	SetPin(id pin.ID, s pin.State)

	// ClockRisingEdge and ClockFallingEdge are the cooperative driver's
	// discrete-event hooks, called synchronously once per half-cycle.
	ClockRisingEdge()
	ClockFallingEdge()

	// Advance is called on a threaded component once this tick if it was
	// flagged input-dirty (by a wire change or by a fired ping). It may
	// request a future wakeup by returning ok=true. The board never calls
	// Advance on a cooperative component.
	Advance(now simtime.Time) (wakeAt simtime.Time, ok bool)

	// OutputChanges returns this tick's output-pin changes. The kernel
	// consumes the slice; a component must not mutate it after
	// returning and should return it empty (not nil necessarily, just
	// len==0) when nothing changed. Called once per tick, after the
	// relevant edge/advance hook.
	OutputChanges() []PinChange

	// InitVCD builds this component's VCD tree once, honouring cfg.
	InitVCD(cfg VcdConfig) vcd.Tree
	// FillVCD refreshes the previously built tree from current internal
	// state and reports whether any signal's value changed.
	FillVCD(t vcd.Tree) bool
}

// Logger is the minimal sink board.Board accepts for non-fatal
// diagnostics (e.g. a ping popping for a component that is already
// input-dirty from a wire change this half-cycle). *log.Logger satisfies
// it; a nil Logger is valid and silently discards every message.
type Logger interface {
	Printf(format string, args ...any)
}
