package component

import (
	"boardsim/pin"
	"boardsim/simerr"
)

// PinSpec names one pin a Base-embedding component exposes, in
// declaration order (pin.ID == index into the table).
type PinSpec struct {
	Name string
}

// Base is an embeddable helper that gives a reference component a
// conventional PinCount/PinName implementation driven by a declarative
// table, plus a reusable OutputChanges staging slice. It mirrors the
// teacher's habit of factoring small composable helpers (core.EventEmitter,
// the gpio_dout role switch) out of each device builder so individual
// devices stay short; it implements no part of Device itself beyond
// these two mechanical pieces.
type Base struct {
	pins []PinSpec
	out  []PinChange
}

// NewBase returns a Base exposing the given pins, in order.
func NewBase(pins ...PinSpec) Base {
	return Base{pins: pins}
}

func (b *Base) PinCount() int { return len(b.pins) }

func (b *Base) PinName(id pin.ID) string {
	if int(id) >= len(b.pins) {
		simerr.Fatalf(simerr.Invariant, "component.PinName", "pin id %d out of range (have %d pins)", id, len(b.pins))
	}
	return b.pins[id].Name
}

// Drive appends an output change to this tick's staged list. Call it
// from ClockRisingEdge/ClockFallingEdge/SetPin/Advance as appropriate;
// the kernel reads the result back via OutputChanges and then the staged
// list is cleared for the next tick.
func (b *Base) Drive(id pin.ID, s pin.State) {
	b.out = append(b.out, PinChange{Pin: id, State: s})
}

// OutputChanges returns and clears this tick's staged output changes.
func (b *Base) OutputChanges() []PinChange {
	out := b.out
	b.out = b.out[:0]
	return out
}
