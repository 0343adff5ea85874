// Package board implements the top-level simulation loop: it owns the
// wire engine, the ping queue, the VCD writer, and the set of cooperative
// and threaded components, and drives them through the half-cycle state
// machine in spec.md §4.H. Grounded on the teacher's services/hal/hal.go
// service loop (a single struct owning every subsystem, reacting to one
// event source per select case) generalized from an indefinite
// context.Context-driven loop to a bounded Simulate(cycles) call.
package board

import (
	"boardsim/board/internal/wire"
	"boardsim/board/internal/worker"
	"boardsim/component"
	"boardsim/ping"
	"boardsim/pin"
	"boardsim/simerr"
	"boardsim/simtime"
	"boardsim/vcd"
)

// ComponentID identifies a component by board-insertion order. It is the
// same underlying type as wire.ComponentID and worker.ComponentID; board
// is the only package that converts between the three.
type ComponentID uint32

// WireID identifies a wire by board-insertion order.
type WireID = wire.ID

// PinRef names one component's pin, the unit AddWire joins together.
type PinRef struct {
	Component ComponentID
	Pin       pin.ID
}

type kind uint8

const (
	kindCooperative kind = iota
	kindThreaded
)

type componentEntry struct {
	name     string
	dev      component.Device
	kind     kind
	pinIdxs  []pin.Index
	handle   vcd.Handle
	w        *worker.Worker // only set for kindThreaded
}

// Board wires together the pin lattice, the wire-resolution engine, the
// ping queue, the cooperative and threaded drivers, and the VCD writer
// named in spec.md §2.
type Board struct {
	path       string
	halfPeriod simtime.Time
	now        simtime.Time
	clockHigh  bool

	components []componentEntry
	wires      *wire.Engine
	pings      *ping.Queue
	writer     *vcd.Writer
	logger     component.Logger

	sink    chan worker.Out  // shared by every threaded worker
	outBuf  []wire.PinChange // staging buffer for cooperative outputs
	pingDst []ping.ComponentID
	vcdHot  []ComponentID // components whose VCD tree actually changed this half-cycle
	vcdIdx  []int         // vcdHot converted to Writer.Step's []int form

	started bool
}

// New returns a board that will write its VCD trace to path once
// Simulate is first called, ticking at freqHz.
func New(path string, freqHz float64) (*Board, error) {
	return &Board{
		path:       path,
		halfPeriod: simtime.HalfPeriod(freqHz),
		wires:      wire.New(),
		pings:      &ping.Queue{},
		sink:       make(chan worker.Out, 64),
	}, nil
}

// SetLogger installs a non-fatal diagnostic sink. A nil logger (the
// default) silently discards every message.
func (b *Board) SetLogger(l component.Logger) { b.logger = l }

func (b *Board) logf(format string, args ...any) {
	if b.logger != nil {
		b.logger.Printf(format, args...)
	}
}

func (b *Board) addComponent(dev component.Device, name string, cfg component.VcdConfig, k kind) ComponentID {
	if b.started {
		simerr.Fatalf(simerr.Invariant, "board.addComponent", "cannot add component %q after Simulate has started", name)
	}
	cid := ComponentID(len(b.components))
	idxs := b.wires.RegisterComponent(wire.ComponentID(cid), dev.PinCount())

	tree := dev.InitVCD(cfg)
	var handle vcd.Handle
	entry := componentEntry{name: name, dev: dev, kind: k, pinIdxs: idxs}
	if k == kindThreaded {
		th := vcd.NewThreadHandle(tree)
		handle = th
		entry.w = worker.Spawn(worker.ComponentID(cid), dev, th, b.sink)
		// A threaded component with no input pins would otherwise never
		// run: nothing would ever mark it input-dirty. Seed one wakeup at
		// t=0 so every threaded component gets exactly one guaranteed
		// Advance call, after which it is responsible for requesting any
		// further wakeups itself.
		b.pings.Push(ping.ComponentID(cid), 0)
	} else {
		handle = vcd.NewInlineHandle(tree)
	}
	entry.handle = handle
	b.components = append(b.components, entry)
	return cid
}

// AddComponentClocked registers a cooperative component: the board calls
// its ClockRisingEdge/ClockFallingEdge hooks in-process, once per
// half-cycle, unconditionally.
func (b *Board) AddComponentClocked(dev component.Device, name string, cfg component.VcdConfig) ComponentID {
	return b.addComponent(dev, name, cfg, kindCooperative)
}

// AddComponentThreaded registers a threaded component: the board spawns
// one goroutine for it immediately and only sends it a Step when it is
// input-dirty.
func (b *Board) AddComponentThreaded(dev component.Device, name string, cfg component.VcdConfig) ComponentID {
	return b.addComponent(dev, name, cfg, kindThreaded)
}

// AddWire joins the named pins into one wire. It returns an error (rather
// than panicking) for a malformed reference — an out-of-range component
// or pin id, or a pin already on another wire — since these are caller
// input-validation failures at construction time, not in-simulation
// invariant breaks.
func (b *Board) AddWire(pins ...PinRef) (WireID, error) {
	if b.started {
		return 0, &simerr.E{C: simerr.Invariant, Op: "board.AddWire", Msg: "cannot wire after Simulate has started"}
	}
	idxs := make([]pin.Index, 0, len(pins))
	for _, ref := range pins {
		if int(ref.Component) >= len(b.components) {
			return 0, &simerr.E{C: simerr.Range, Op: "board.AddWire", Msg: "component id out of range"}
		}
		entry := b.components[ref.Component]
		if int(ref.Pin) >= len(entry.pinIdxs) {
			return 0, &simerr.E{C: simerr.Range, Op: "board.AddWire", Msg: "pin id out of range for component " + entry.name}
		}
		idx := entry.pinIdxs[ref.Pin]
		if b.wires.PinWired(idx) {
			return 0, &simerr.E{C: simerr.Invariant, Op: "board.AddWire", Msg: "pin already wired: " + entry.name}
		}
		idxs = append(idxs, idx)
	}
	wid := b.wires.AddWire(idxs, b.deliver)
	return wid, nil
}

// deliver is the wire engine's notification callback: for a cooperative
// component it calls SetPin in-process immediately; for a threaded
// component it forwards the change onto that worker's private input
// channel, where it is applied before the worker's next Step.
func (b *Board) deliver(cid wire.ComponentID, local pin.ID, s pin.State) {
	entry := &b.components[cid]
	if entry.kind == kindThreaded {
		entry.w.SendPinChange(local, s)
		return
	}
	entry.dev.SetPin(local, s)
}

func (b *Board) forest() vcd.Forest {
	f := make(vcd.Forest, len(b.components))
	for i, e := range b.components {
		f[i] = vcd.Entry{Name: e.name, Handle: e.handle}
	}
	return f
}

// Simulate runs 2*cycles half-cycles through IDLE -> PHASE_EDGE ->
// PHASE_APPLY -> PHASE_COLLECT -> IDLE (spec.md §4.H), then closes the
// VCD writer. It may be called only once per Board.
func (b *Board) Simulate(cycles int) error {
	if b.started {
		return &simerr.E{C: simerr.Invariant, Op: "board.Simulate", Msg: "Simulate called more than once"}
	}
	b.started = true

	b.writer = vcd.NewWriter(b.path, b.forest())
	defer func() {
		for _, e := range b.components {
			if e.kind == kindThreaded {
				e.w.Die()
			}
		}
	}()

	for h := 0; h < 2*cycles; h++ {
		b.halfCycle()
	}
	return b.writer.Close()
}

func (b *Board) halfCycle() {
	// PHASE 1: flip the logical clock.
	b.clockHigh = !b.clockHigh

	// PHASE 2: drain due pings, tagging their components input-dirty.
	b.pingDst = b.pings.DrainDue(float64(b.now), b.pingDst[:0])
	for _, cid := range b.pingDst {
		if !b.wires.MarkDirty(wire.ComponentID(cid)) {
			b.logf("board: component %d had a ping fire while already input-dirty", cid)
		}
	}

	// PHASE_EDGE: dispatch.
	dirty := b.wires.DrainDirty()
	pending := 0
	for _, cid := range dirty {
		entry := &b.components[cid]
		if entry.kind == kindThreaded {
			entry.w.SendStep(b.now)
			pending++
		}
	}
	b.vcdHot = b.vcdHot[:0]
	for cid := range b.components {
		entry := &b.components[cid]
		if entry.kind != kindCooperative {
			continue
		}
		if b.clockHigh {
			entry.dev.ClockRisingEdge()
		} else {
			entry.dev.ClockFallingEdge()
		}
		for _, c := range entry.dev.OutputChanges() {
			b.outBuf = append(b.outBuf, wire.PinChange{
				Component: wire.ComponentID(cid),
				Pin:       c.Pin,
				State:     c.State,
			})
		}
		var changed bool
		entry.handle.With(func(t vcd.Tree) {
			changed = entry.dev.FillVCD(t)
		})
		if changed {
			b.vcdHot = append(b.vcdHot, ComponentID(cid))
		}
	}

	// PHASE_APPLY: replay staged cooperative outputs through the wire
	// engine. Any further dirtying this causes is only observed at the
	// next half-cycle's PHASE_EDGE drain.
	for _, c := range b.outBuf {
		idx := b.components[c.Component].pinIdxs[c.Pin]
		b.wires.SetPin(idx, c.State, b.deliver)
	}
	b.outBuf = b.outBuf[:0]

	// PHASE_COLLECT: drain the shared sink until every dispatched
	// worker's Done has been observed (invariant T1/T2/T3).
	for pending > 0 {
		msg := <-b.sink
		switch msg.Kind {
		case worker.OutPinChange:
			cid := ComponentID(msg.Source)
			idx := b.components[cid].pinIdxs[msg.Pin]
			b.wires.SetPin(idx, msg.State, b.deliver)
		case worker.OutPingMeAt:
			b.pings.Push(ping.ComponentID(msg.Source), float64(msg.At))
		case worker.OutDone:
			pending--
			if msg.VCDChanged {
				b.vcdHot = append(b.vcdHot, ComponentID(msg.Source))
			}
		}
	}

	// Advance simulated time and ask the writer to emit this half-cycle's
	// timestamp block, containing only the components whose VCD tree
	// actually changed (the dirty-correctness property in spec.md §8).
	b.now += b.halfPeriod
	b.vcdIdx = b.vcdIdx[:0]
	for _, cid := range b.vcdHot {
		b.vcdIdx = append(b.vcdIdx, int(cid))
	}
	b.writer.Step(b.now, b.vcdIdx)
}

