// Package pin implements the six-valued signal lattice every wire in the
// simulator resolves against: the pin states themselves, the read
// projection from weak to strong, and the per-wire drive counter that
// makes resolution an O(1) operation.
package pin

// State is the value a pin drives onto (or reads from) a wire.
type State uint8

const (
	// Z is high impedance: the pin contributes nothing to its wire.
	Z State = iota
	// Low and High are strong drives.
	Low
	High
	// WeakLow and WeakHigh model pull resistors: they lose to any strong
	// drive on the same wire.
	WeakLow
	WeakHigh
	// Error marks contention: two incompatible strong drives, or two
	// incompatible weak drives, on the same wire.
	Error
)

func (s State) String() string {
	switch s {
	case Z:
		return "Z"
	case Low:
		return "Low"
	case High:
		return "High"
	case WeakLow:
		return "WeakLow"
	case WeakHigh:
		return "WeakHigh"
	case Error:
		return "Error"
	default:
		return "Invalid"
	}
}

// Read projects a resolved wire state to what an input pin observes:
// weak drives collapse to their strong equivalent, Error and the strong
// states pass through unchanged. Read is idempotent: Read(Read(s)) == Read(s).
func Read(s State) State {
	switch s {
	case WeakLow:
		return Low
	case WeakHigh:
		return High
	default:
		return s
	}
}

// ID is a component-local pin number.
type ID uint16

// Index is a board-global pin number, assigned in insertion order.
type Index uint32
