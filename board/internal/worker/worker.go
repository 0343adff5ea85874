// Package worker implements the threaded driver: one goroutine per
// "slow" component, talking to the board over a private input channel and
// a shared output channel. Grounded on the teacher's
// services/hal/worker.go measureWorker — a private reqQ paired with a
// shared sink channel passed in at construction time and an emit helper
// that never drops a message — generalized from HAL's trigger/collect
// polling to the simulator's synchronous step protocol.
//
// Per the Open Question in spec.md §9, a threaded worker receives only
// Step(now) — never separate rising/falling edge messages; the half-cycle
// edge is implicit in alternation between Step calls, exactly as the
// spec's own recommendation states.
package worker

import (
	"boardsim/component"
	"boardsim/pin"
	"boardsim/simtime"
	"boardsim/vcd"
)

// ComponentID names the board-global component a worker drives and tags
// every message it emits, so many workers can share one sink channel. It
// mirrors board.ComponentID without importing the board package.
type ComponentID uint32

// InKind distinguishes the two message shapes the board sends.
type InKind uint8

const (
	InPinChange InKind = iota
	InStep
)

// In is a board-to-worker message.
type In struct {
	Kind  InKind
	Pin   pin.ID
	State pin.State
	Now   simtime.Time
}

// OutKind distinguishes the three message shapes a worker sends back.
type OutKind uint8

const (
	OutPinChange OutKind = iota
	OutPingMeAt
	OutDone
)

// Out is a worker-to-board message, tagged with the emitting worker's
// Source so the board can demultiplex a shared sink channel.
type Out struct {
	Source     ComponentID
	Kind       OutKind
	Pin        pin.ID
	State      pin.State
	At         simtime.Time
	VCDChanged bool
}

// Worker drives one threaded component on its own goroutine, reading from
// a private input channel and writing every response to a sink channel
// shared by every worker on the board.
type Worker struct {
	source ComponentID
	in     chan In
	sink   chan<- Out
}

// Spawn starts dev's goroutine and returns a handle to it. handle is the
// shared VCD tree wrapper dev's FillVCD writes through; it must be the
// mutex-guarded variant (vcd.ThreadHandle) since the board's writer reads
// the same tree from another goroutine. sink is the board's single
// aggregation channel for every threaded worker's Out messages, mirroring
// measureWorker's shared sink chan<- Result.
func Spawn(source ComponentID, dev component.Device, handle *vcd.ThreadHandle, sink chan<- Out) *Worker {
	w := &Worker{
		source: source,
		in:     make(chan In, 8),
		sink:   sink,
	}
	go w.run(dev, handle)
	return w
}

func (w *Worker) run(dev component.Device, handle *vcd.ThreadHandle) {
	for msg := range w.in {
		switch msg.Kind {
		case InPinChange:
			dev.SetPin(msg.Pin, msg.State)
		case InStep:
			w.step(dev, handle, msg.Now)
		}
	}
}

func (w *Worker) step(dev component.Device, handle *vcd.ThreadHandle, now simtime.Time) {
	wakeAt, wantsPing := dev.Advance(now)

	var vcdChanged bool
	handle.With(func(t vcd.Tree) {
		vcdChanged = dev.FillVCD(t)
	})

	for _, c := range dev.OutputChanges() {
		w.emit(Out{Source: w.source, Kind: OutPinChange, Pin: c.Pin, State: c.State})
	}
	if wantsPing {
		w.emit(Out{Source: w.source, Kind: OutPingMeAt, At: wakeAt})
	}
	// Invariant T1/T2: exactly one Done per Step, sent after every
	// PinChange/PingMeAt produced by this Step.
	w.emit(Out{Source: w.source, Kind: OutDone, VCDChanged: vcdChanged})
}

// emit never drops a message: the sink is sized generously by the board,
// but a slow board (e.g. mid file-write panic recovery) must not cause a
// worker to silently lose a Done.
func (w *Worker) emit(o Out) { w.sink <- o }

// SendPinChange forwards one input pin change to the worker. Must be
// called before SendStep for the same half-cycle (spec.md's Board ->
// Worker ordering).
func (w *Worker) SendPinChange(id pin.ID, s pin.State) {
	w.in <- In{Kind: InPinChange, Pin: id, State: s}
}

// SendStep triggers this half-cycle's advance/fill on the worker.
func (w *Worker) SendStep(now simtime.Time) {
	w.in <- In{Kind: InStep, Now: now}
}

// Die stops the worker's goroutine. The board calls this for every
// threaded component when the board itself is torn down.
func (w *Worker) Die() { close(w.in) }
