// Package wire implements the pin/wire topology and the counter-based
// resolution engine: spec.md §4.D. It knows nothing about components
// beyond their integer id and pin count; the board package is the only
// caller.
package wire

import (
	"boardsim/pin"
	"boardsim/simerr"
)

// ComponentID identifies a component by board-insertion order.
type ComponentID uint32

// ID identifies a wire by board-insertion order.
type ID uint32

// PinRef names one component's pin.
type PinRef struct {
	Component ComponentID
	Pin       pin.ID
}

// PinChange is a single pin's new driven value, used both for the
// board's staging buffer and for threaded-worker message payloads.
type PinChange struct {
	Component ComponentID
	Pin       pin.ID
	State     pin.State
}

type pinRecord struct {
	owner   ComponentID
	local   pin.ID
	wire    ID
	hasWire bool
	driven  pin.State
}

type wireRecord struct {
	counter pin.Counter
	members []pin.Index
}

// Engine owns every pin and wire in the board and propagates changes
// between them. It also tracks, across a half-cycle, which components
// have had at least one input pin change — the input-dirty set the board
// drains once per half-cycle.
type Engine struct {
	pins  []pinRecord
	wires []wireRecord

	// componentPins maps a component to the contiguous range of pin
	// indices it owns, assigned at registration time.
	componentPins [][]pin.Index

	dirtySeen []bool            // bitset sized to component count
	dirtyList []ComponentID     // insertion-ordered, deduplicated
}

// New returns an empty engine.
func New() *Engine {
	return &Engine{}
}

// RegisterComponent reserves pinCount fresh pin indices for a newly
// added component and returns them. The board calls this once per
// AddComponent* call, in insertion order, so ComponentID values line up
// with board.ComponentID.
func (e *Engine) RegisterComponent(cid ComponentID, pinCount int) []pin.Index {
	idxs := make([]pin.Index, pinCount)
	for i := 0; i < pinCount; i++ {
		idx := pin.Index(len(e.pins))
		e.pins = append(e.pins, pinRecord{owner: cid, local: pin.ID(i), driven: pin.Z})
		idxs[i] = idx
	}
	for int(cid) >= len(e.componentPins) {
		e.componentPins = append(e.componentPins, nil)
	}
	e.componentPins[cid] = idxs
	for int(cid) >= len(e.dirtySeen) {
		e.dirtySeen = append(e.dirtySeen, false)
	}
	return idxs
}

// AddWire joins the given pins into one wire, seeding the drive counter
// from each pin's current driven value and delivering the initial
// resolved value to every attached component as an input change.
// It panics (invariant violation, W3) if any pin already belongs to a
// wire.
func (e *Engine) AddWire(pins []pin.Index, deliver func(cid ComponentID, local pin.ID, s pin.State)) ID {
	for _, p := range pins {
		if int(p) >= len(e.pins) {
			simerr.Fatalf(simerr.Range, "wire.AddWire", "pin index %d out of range", p)
		}
		if e.pins[p].hasWire {
			simerr.Fatalf(simerr.Invariant, "wire.AddWire", "pin index %d already belongs to a wire", p)
		}
	}

	wid := ID(len(e.wires))
	rec := wireRecord{members: append([]pin.Index{}, pins...)}
	for _, p := range pins {
		rec.counter.Add(e.pins[p].driven)
	}
	e.wires = append(e.wires, rec)

	for _, p := range pins {
		e.pins[p].wire = wid
		e.pins[p].hasWire = true
	}

	resolved := pin.Read(rec.counter.Read())
	for _, p := range pins {
		pr := e.pins[p]
		deliver(pr.owner, pr.local, resolved)
	}
	return wid
}

// SetPin updates a pin's driven value. If the pin belongs to a wire and
// the wire's resolved value changes as a result, every other attached
// component is notified via deliver and marked input-dirty.
func (e *Engine) SetPin(idx pin.Index, newState pin.State, deliver func(cid ComponentID, local pin.ID, s pin.State)) {
	if int(idx) >= len(e.pins) {
		simerr.Fatalf(simerr.Range, "wire.SetPin", "pin index %d out of range", idx)
	}
	pr := &e.pins[idx]
	if pr.driven == newState {
		return
	}
	old := pr.driven
	pr.driven = newState
	if !pr.hasWire {
		return
	}

	w := &e.wires[pr.wire]
	oldResolved := pin.Read(w.counter.Read())
	w.counter.Remove(old)
	w.counter.Add(newState)
	newResolved := pin.Read(w.counter.Read())
	if newResolved == oldResolved {
		return
	}

	for _, p := range w.members {
		if p == idx {
			continue
		}
		other := e.pins[p]
		e.markDirty(other.owner)
		deliver(other.owner, other.local, newResolved)
	}
}

func (e *Engine) markDirty(cid ComponentID) bool {
	for int(cid) >= len(e.dirtySeen) {
		e.dirtySeen = append(e.dirtySeen, false)
	}
	if e.dirtySeen[cid] {
		return false
	}
	e.dirtySeen[cid] = true
	e.dirtyList = append(e.dirtyList, cid)
	return true
}

// MarkDirty flags a component input-dirty directly (used by the board
// when a ping fires for it, so wire traffic and ping wakeups coalesce
// into the same per-tick dirty set) and reports whether it was not
// already dirty.
func (e *Engine) MarkDirty(cid ComponentID) bool { return e.markDirty(cid) }

// DrainDirty returns every component flagged input-dirty since the last
// call, in first-flagged order, and resets the set for the next
// half-cycle. The returned slice aliases an internal buffer valid only
// until a component is next marked dirty (by SetPin or MarkDirty).
func (e *Engine) DrainDirty() []ComponentID {
	out := e.dirtyList
	for _, cid := range out {
		e.dirtySeen[cid] = false
	}
	e.dirtyList = e.dirtyList[:0]
	return out
}

// PinState returns the current driven value of a pin (for diagnostics
// and tests).
func (e *Engine) PinState(idx pin.Index) pin.State { return e.pins[idx].driven }

// PinWired reports whether idx already belongs to a wire, letting callers
// validate an AddWire request and return an error instead of triggering
// the W3 panic.
func (e *Engine) PinWired(idx pin.Index) bool { return e.pins[idx].hasWire }

// PinCount returns the number of pins registered so far, for range checks.
func (e *Engine) PinCount() int { return len(e.pins) }

// WireResolved returns a wire's currently resolved (read-projected)
// value.
func (e *Engine) WireResolved(w ID) pin.State {
	return pin.Read(e.wires[w].counter.Read())
}

// WireSum returns the raw sum of a wire's drive counter, for invariant
// W1 checks in tests.
func (e *Engine) WireSum(w ID) uint32 { return e.wires[w].counter.Sum() }

// WireMemberCount returns the number of pins on a wire, for invariant W1
// checks in tests.
func (e *Engine) WireMemberCount(w ID) int { return len(e.wires[w].members) }
