package board

import (
	"os"
	"strings"
	"testing"

	"boardsim/component"
	"boardsim/pin"
	"boardsim/simtime"
	"boardsim/vcd"
)

// toggler is a cooperative component with one output pin that drives High
// on the rising edge and Low on the falling edge.
type toggler struct {
	component.Base
	last pin.State
	sig  *vcd.Signal
}

func newToggler() *toggler {
	return &toggler{Base: component.NewBase(component.PinSpec{Name: "out"})}
}

func (t *toggler) SetPin(pin.ID, pin.State)                      {}
func (t *toggler) ClockRisingEdge()                              { t.set(pin.High) }
func (t *toggler) ClockFallingEdge()                             { t.set(pin.Low) }
func (t *toggler) Advance(now simtime.Time) (simtime.Time, bool) { return 0, false }
func (t *toggler) InitVCD(component.VcdConfig) vcd.Tree          { t.sig = vcd.NewSignal(1); return t.sig }
func (t *toggler) FillVCD(vcd.Tree) bool                         { return t.sig.SetScalar(t.last) }

func (t *toggler) set(s pin.State) {
	t.last = s
	t.Drive(0, s)
}

// staticDriver is a cooperative component that drives the same fixed
// state on its single output pin on every edge, rising or falling —
// useful for pinning a wire to a constant value regardless of clock
// phase, as the contention and weak/strong scenarios need.
type staticDriver struct {
	component.Base
	state pin.State
	sig   *vcd.Signal
}

func newStaticDriver(s pin.State) *staticDriver {
	return &staticDriver{Base: component.NewBase(component.PinSpec{Name: "out"}), state: s}
}

func (d *staticDriver) SetPin(pin.ID, pin.State)                      {}
func (d *staticDriver) ClockRisingEdge()                              { d.Drive(0, d.state) }
func (d *staticDriver) ClockFallingEdge()                             { d.Drive(0, d.state) }
func (d *staticDriver) Advance(now simtime.Time) (simtime.Time, bool) { return 0, false }
func (d *staticDriver) InitVCD(component.VcdConfig) vcd.Tree          { d.sig = vcd.NewSignal(1); return d.sig }
func (d *staticDriver) FillVCD(vcd.Tree) bool                         { return d.sig.SetScalar(d.state) }

// recorder is a cooperative component with one input pin that mirrors
// whatever value it last observed into its VCD signal every half-cycle,
// and keeps a full history for tests that need to inspect timing.
type recorder struct {
	component.Base
	last    pin.State
	sig     *vcd.Signal
	history []pin.State
}

func newRecorder() *recorder {
	return &recorder{Base: component.NewBase(component.PinSpec{Name: "in"})}
}

func (r *recorder) SetPin(id pin.ID, s pin.State)                { r.last = s }
func (r *recorder) ClockRisingEdge()                              {}
func (r *recorder) ClockFallingEdge()                             {}
func (r *recorder) Advance(now simtime.Time) (simtime.Time, bool) { return 0, false }
func (r *recorder) InitVCD(component.VcdConfig) vcd.Tree          { r.sig = vcd.NewSignal(1); return r.sig }
func (r *recorder) FillVCD(vcd.Tree) bool {
	r.history = append(r.history, r.last)
	return r.sig.SetScalar(r.last)
}

// relay is a cooperative one-cycle register: on each rising edge it
// drives its output pin with whatever it most recently observed on its
// input pin, the way a real flip-flop's Q follows D one edge late.
type relay struct {
	component.Base
	observed pin.State
	qOut     pin.State
	qHistory []pin.State
	sig      *vcd.Signal
}

func newRelay() *relay {
	return &relay{Base: component.NewBase(component.PinSpec{Name: "in"}, component.PinSpec{Name: "out"})}
}

func (r *relay) SetPin(id pin.ID, s pin.State) {
	if id == 0 {
		r.observed = s
	}
}
func (r *relay) ClockRisingEdge() {
	r.qOut = r.observed
	r.qHistory = append(r.qHistory, r.qOut)
	r.Drive(1, r.qOut)
}
func (r *relay) ClockFallingEdge()                             {}
func (r *relay) Advance(now simtime.Time) (simtime.Time, bool) { return 0, false }
func (r *relay) InitVCD(component.VcdConfig) vcd.Tree {
	r.sig = vcd.NewSignal(1)
	return r.sig
}
func (r *relay) FillVCD(vcd.Tree) bool { return r.sig.SetScalar(r.qOut) }

// pingback is a threaded component with no pins that requests exactly one
// extra wakeup, at a caller-chosen time, the first time Advance runs (its
// guaranteed t=0 Advance, seeded by AddComponentThreaded).
type pingback struct {
	component.Base
	wakeAt     simtime.Time
	armed      bool
	advanceLog []simtime.Time
}

func newPingback(wakeAt simtime.Time) *pingback {
	return &pingback{Base: component.NewBase(), wakeAt: wakeAt, armed: true}
}

func (p *pingback) SetPin(pin.ID, pin.State) {}
func (p *pingback) ClockRisingEdge()         {}
func (p *pingback) ClockFallingEdge()        {}
func (p *pingback) Advance(now simtime.Time) (simtime.Time, bool) {
	p.advanceLog = append(p.advanceLog, now)
	if p.armed {
		p.armed = false
		return p.wakeAt, true
	}
	return 0, false
}
func (p *pingback) InitVCD(component.VcdConfig) vcd.Tree { return vcd.Disabled{} }
func (p *pingback) FillVCD(vcd.Tree) bool                { return false }

// threadedDriver is a threaded component with one output pin, driven High
// on its guaranteed first Advance call and never again.
type threadedDriver struct {
	component.Base
	driven bool
}

func newThreadedDriver() *threadedDriver {
	return &threadedDriver{Base: component.NewBase(component.PinSpec{Name: "out"})}
}

func (d *threadedDriver) SetPin(pin.ID, pin.State) {}
func (d *threadedDriver) ClockRisingEdge()         {}
func (d *threadedDriver) ClockFallingEdge()        {}
func (d *threadedDriver) Advance(now simtime.Time) (simtime.Time, bool) {
	if !d.driven {
		d.driven = true
		d.Drive(0, pin.High)
	}
	return 0, false
}
func (d *threadedDriver) InitVCD(component.VcdConfig) vcd.Tree { return vcd.Disabled{} }
func (d *threadedDriver) FillVCD(vcd.Tree) bool                { return false }

func tempVCDPath(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "*.vcd")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	f.Close()
	return f.Name()
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func TestSingleTogglingDriver(t *testing.T) {
	path := tempVCDPath(t)
	b, err := New(path, 2.5e8) // half-period = 0.5e9 / 2.5e8 = 2ns
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	drv := newToggler()
	led := newRecorder()
	d := b.AddComponentClocked(drv, "drv", component.Enable())
	l := b.AddComponentClocked(led, "led", component.Enable())
	if _, err := b.AddWire(PinRef{d, 0}, PinRef{l, 0}); err != nil {
		t.Fatalf("AddWire: %v", err)
	}
	if err := b.Simulate(2); err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	out := readFile(t, path)
	for i, want := range []string{"#2\n1!", "#4\n0!", "#6\n1!", "#8\n0!"} {
		if !strings.Contains(out, want) {
			t.Fatalf("half-cycle %d: expected %q in VCD, got:\n%s", i, want, out)
		}
	}
}

func TestBusContention(t *testing.T) {
	path := tempVCDPath(t)
	b, _ := New(path, 1e9)
	a := newStaticDriver(pin.High)
	bb := newStaticDriver(pin.Low)
	reader := newRecorder()
	ca := b.AddComponentClocked(a, "a", component.Enable())
	cb := b.AddComponentClocked(bb, "b", component.Enable())
	cr := b.AddComponentClocked(reader, "reader", component.Enable())

	if _, err := b.AddWire(PinRef{ca, 0}, PinRef{cb, 0}, PinRef{cr, 0}); err != nil {
		t.Fatalf("AddWire: %v", err)
	}
	if err := b.Simulate(1); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if reader.last != pin.Error {
		t.Fatalf("expected reader to observe Error after both strong drivers applied, got %v", reader.last)
	}
	out := readFile(t, path)
	if !strings.Contains(out, "x") {
		t.Fatalf("expected an 'x' delta character somewhere in the VCD, got:\n%s", out)
	}
}

func TestWeakVsStrong(t *testing.T) {
	b, _ := New(tempVCDPath(t), 1e9)
	weak := newStaticDriver(pin.WeakHigh)
	strong := newStaticDriver(pin.Low)
	reader := newRecorder()
	cw := b.AddComponentClocked(weak, "weak", component.Enable())
	cs := b.AddComponentClocked(strong, "strong", component.Enable())
	cr := b.AddComponentClocked(reader, "reader", component.Enable())

	if _, err := b.AddWire(PinRef{cw, 0}, PinRef{cs, 0}, PinRef{cr, 0}); err != nil {
		t.Fatalf("AddWire: %v", err)
	}
	if err := b.Simulate(1); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if reader.last != pin.Low {
		t.Fatalf("expected wire to resolve to Low (strong beats weak), got %v", reader.last)
	}
}

func TestPingWakeupWithNoInputChange(t *testing.T) {
	// half-period = 0.5e9 / 2e8 = 2.5ns, so half-cycles land at
	// 2.5, 5, 7.5, 10, ... ns: the 2nd half-cycle's now_ns (5) is the
	// first to reach wakeAt=5.
	b, _ := New(tempVCDPath(t), 2e8)
	p := newPingback(simtime.Time(5))
	b.AddComponentThreaded(p, "p", component.Disable())

	if err := b.Simulate(10); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(p.advanceLog) < 2 {
		t.Fatalf("expected at least 2 Advance calls (guaranteed t=0 call + ping wakeup), got %v", p.advanceLog)
	}
	if p.advanceLog[0] != 0 {
		t.Fatalf("expected the first Advance at now=0, got %v", p.advanceLog[0])
	}
	sawWakeup := false
	for _, at := range p.advanceLog[1:] {
		if at >= 5 {
			sawWakeup = true
		}
	}
	if !sawWakeup {
		t.Fatalf("expected a later Advance at or after the requested wakeAt=5, got %v", p.advanceLog)
	}
}

// TestThreadedCooperativeMixDelaysOneHalfCycle exercises scenario 5:
// T (threaded) drives P; C (cooperative) reads P and drives Q on its
// rising edge; L (cooperative) reads Q. The change T makes to P must not
// reach L's observable state (via C's own rising-edge read) within the
// same half-cycle C reacts to it — only starting the following one.
func TestThreadedCooperativeMixDelaysOneHalfCycle(t *testing.T) {
	b, _ := New(tempVCDPath(t), 1e9)
	tDrv := newThreadedDriver()
	c := newRelay()
	l := newRecorder()

	cidT := b.AddComponentThreaded(tDrv, "T", component.Disable())
	cidC := b.AddComponentClocked(c, "C", component.Enable())
	cidL := b.AddComponentClocked(l, "L", component.Enable())

	if _, err := b.AddWire(PinRef{cidT, 0}, PinRef{cidC, 0}); err != nil {
		t.Fatalf("AddWire P: %v", err)
	}
	if _, err := b.AddWire(PinRef{cidC, 1}, PinRef{cidL, 0}); err != nil {
		t.Fatalf("AddWire Q: %v", err)
	}

	if err := b.Simulate(4); err != nil { // 8 half-cycles: rising at 0,2,4,6
		t.Fatalf("Simulate: %v", err)
	}

	// T's Advance (guaranteed at the first half-cycle) drives P=High,
	// which C.SetPin observes during that same half-cycle's PHASE_COLLECT
	// — after C's own ClockRisingEdge already ran. So C's first qHistory
	// entry (half-cycle 0, rising) must still reflect the old (Z) input;
	// only C's *second* rising edge (half-cycle 2) drives Q=High.
	if len(c.qHistory) < 2 {
		t.Fatalf("expected at least 2 rising edges recorded on C, got %v", c.qHistory)
	}
	if c.qHistory[0] != pin.Z {
		t.Fatalf("expected C's first rising edge to still see the old input (Z), got %v", c.qHistory[0])
	}
	if c.qHistory[1] != pin.High {
		t.Fatalf("expected C's second rising edge to see the new input (High), got %v", c.qHistory[1])
	}

	// L's FillVCD runs every half-cycle; it must not observe Q's new
	// value during the same half-cycle C first drives it.
	qDriveHalfCycle := -1
	for i, v := range c.qHistory {
		if v == pin.High {
			qDriveHalfCycle = i * 2 // qHistory only logs rising edges, i.e. even half-cycle indices
			break
		}
	}
	if qDriveHalfCycle < 0 {
		t.Fatalf("C never drove Q high: %v", c.qHistory)
	}
	if qDriveHalfCycle >= len(l.history) {
		t.Fatalf("not enough recorded half-cycles on L: %v", l.history)
	}
	if l.history[qDriveHalfCycle] != pin.Z {
		t.Fatalf("expected L to still see Z during the half-cycle C first drove Q, got %v", l.history[qDriveHalfCycle])
	}
	sawHighLater := false
	for _, v := range l.history[qDriveHalfCycle+1:] {
		if v == pin.High {
			sawHighLater = true
		}
	}
	if !sawHighLater {
		t.Fatalf("expected L to observe High on some later half-cycle, got %v", l.history)
	}
}

func TestVCDDeltaWriteNoChangeNoTimestamp(t *testing.T) {
	path := tempVCDPath(t)
	b, _ := New(path, 1e9)
	r := newRecorder() // never driven, never changes
	b.AddComponentClocked(r, "r", component.Enable())

	if err := b.Simulate(2); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	out := readFile(t, path)
	if strings.Count(out, "$dumpvars") != 1 {
		t.Fatalf("expected exactly one $dumpvars block, got:\n%s", out)
	}
	if strings.Contains(out, "#") {
		t.Fatalf("expected zero timestamp lines for an unchanging board, got:\n%s", out)
	}
}
