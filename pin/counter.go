package pin

// Counter is the four-small-counters structure attached to each wire. It
// lets wire resolution run in O(1) regardless of the number of members:
// Add/Remove adjust the counts incrementally as a single pin's driven
// value changes, and Read recomputes the resolved state from the counts.
//
// Error counts as one Low and one High simultaneously; this is what makes
// contention fall out of the resolution rule below without a special case.
type Counter struct {
	Low, High, WeakLow, WeakHigh uint32
}

// Add records that a pin now drives s onto this wire's members.
func (c *Counter) Add(s State) {
	switch s {
	case Z:
	case Low:
		c.Low++
	case High:
		c.High++
	case WeakLow:
		c.WeakLow++
	case WeakHigh:
		c.WeakHigh++
	case Error:
		c.Low++
		c.High++
	}
}

// Remove undoes a prior Add(s). Callers must pair every Add with exactly
// one matching Remove to preserve invariant W1 (sum of counts == member
// count).
func (c *Counter) Remove(s State) {
	switch s {
	case Z:
	case Low:
		c.Low--
	case High:
		c.High--
	case WeakLow:
		c.WeakLow--
	case WeakHigh:
		c.WeakHigh--
	case Error:
		c.Low--
		c.High--
	}
}

// Sum returns the total number of drive contributions currently recorded,
// used to check invariant W1 against the wire's member count.
func (c Counter) Sum() uint32 {
	return c.Low + c.High + c.WeakLow + c.WeakHigh
}

// Read resolves the counter to a single PinState per the six-rule
// precedence table: strong drives always beat weak drives, two opposing
// strong (or weak) drives produce Error, and an all-zero counter is Z.
func (c Counter) Read() State {
	switch {
	case c.Low == 0 && c.High == 0:
		switch {
		case c.WeakLow == 0 && c.WeakHigh == 0:
			return Z
		case c.WeakLow > 0 && c.WeakHigh > 0:
			return Error
		case c.WeakLow > 0:
			return WeakLow
		default:
			return WeakHigh
		}
	case c.Low == 0:
		return High
	case c.High == 0:
		return Low
	default:
		return Error
	}
}
