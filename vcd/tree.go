package vcd

import (
	"boardsim/pin"
	"boardsim/simerr"
)

// Tree is the closed sum type spec.md §3 calls VcdTree: a Module (ordered
// named children), a Signal (width, short id, prev/cur snapshot), or a
// Disabled placeholder for subtrees the active VcdConfig turned off.
// Implemented as an unexported marker method over three concrete structs
// instead of an open interface, so nothing outside this package can add a
// fourth case.
type Tree interface {
	isTree()
	assignIDs(g *ShortIDGen)
}

// NamedChild pairs a Module's child with its declaration-order name.
type NamedChild struct {
	Name string
	Tree Tree
}

// Module is an ordered list of named children. Order is preserved from
// declaration, as spec.md requires, since it is simply a slice.
type Module struct {
	Children []NamedChild
}

func (*Module) isTree() {}

func (m *Module) assignIDs(g *ShortIDGen) {
	for _, c := range m.Children {
		c.Tree.assignIDs(g)
	}
}

// Signal is one scalar or vector waveform. Width is in bits; Cur/Prev
// hold one pin.State per bit, MSB first (index 0 is the most significant
// bit for emission purposes).
type Signal struct {
	Width int
	id    []byte
	Cur   []pin.State
	Prev  []pin.State
}

// NewSignal returns a fresh Signal of the given bit width, with every bit
// initialised to pin.Z (a freshly instantiated pin drives nothing).
func NewSignal(width int) *Signal {
	if width <= 0 {
		width = 1
	}
	return &Signal{
		Width: width,
		Cur:   make([]pin.State, width),
		Prev:  make([]pin.State, width),
	}
}

func (*Signal) isTree() {}

func (s *Signal) assignIDs(g *ShortIDGen) {
	s.id = g.Next()
}

// ID returns this signal's assigned short id. It is only valid after the
// writer's header pass has run.
func (s *Signal) ID() []byte { return s.id }

// Set updates Cur in place (the component calls this from FillVCD) and
// reports whether any bit of Cur changed — the per-signal dirty bit that
// ORs up through Module and component fill. Whether Cur still differs
// from the last emitted value (Prev) is checked separately by the writer.
func (s *Signal) Set(bits []pin.State) bool {
	if len(bits) != len(s.Cur) {
		simerr.Fatalf(simerr.Invariant, "vcd.Signal.Set", "width mismatch: got %d values, signal has width %d", len(bits), len(s.Cur))
	}
	changed := false
	for i := range bits {
		if s.Cur[i] != bits[i] {
			changed = true
		}
		s.Cur[i] = bits[i]
	}
	return changed
}

// SetScalar is a convenience for Width==1 signals.
func (s *Signal) SetScalar(v pin.State) bool {
	return s.Set([]pin.State{v})
}

// commit copies Cur into Prev, marking the current value as emitted.
func (s *Signal) commit() {
	copy(s.Prev, s.Cur)
}

func (s *Signal) dirty() bool {
	for i := range s.Cur {
		if s.Cur[i] != s.Prev[i] {
			return true
		}
	}
	return false
}

// Disabled is the placeholder a writer substitutes for any subtree a
// VcdConfig marks off: it never appears in the header or in any delta.
type Disabled struct{}

func (Disabled) isTree() {}
func (Disabled) assignIDs(*ShortIDGen) {}
