// Package led implements a reference LED capture component: a single
// input pin whose resolved level is mirrored into a VCD signal and
// exposed for inspection, the cooperative counterpart of the teacher's
// gpio_dout device run in reverse (an electrical level captured instead
// of driven). Grounded on
// services/hal/devices/gpio_dout/device.go's logical/electrical
// ActiveLow translation and its role of tracking one boolean value.
package led

import (
	"boardsim/component"
	"boardsim/pin"
	"boardsim/simtime"
	"boardsim/vcd"
)

// Params configures one LED.
type Params struct {
	// ActiveLow inverts the electrical-to-logical mapping: when true, a
	// driven Low reads as logically on.
	ActiveLow bool
}

// LED is a cooperative component with a single input pin ("in"). Its
// logical state tracks the pin's resolved value immediately on SetPin,
// the way an LED has no clock of its own.
type LED struct {
	component.Base

	activeLow bool
	on        bool

	sig *vcd.Signal
}

// New returns an LED with its input initially reading Z (logically off).
func New(p Params) *LED {
	return &LED{
		Base:      component.NewBase(component.PinSpec{Name: "in"}),
		activeLow: p.ActiveLow,
	}
}

// On reports the LED's current logical state, for tests and for the
// demo CLI's own reporting.
func (l *LED) On() bool { return l.on }

func (l *LED) SetPin(id pin.ID, s pin.State) {
	level := pin.Read(s) == pin.High
	if l.activeLow {
		level = !level
	}
	l.on = level
}

func (l *LED) ClockRisingEdge()  {}
func (l *LED) ClockFallingEdge() {}

// Advance is never called: LED is cooperative and the board never
// dispatches timed wakeups to cooperative components.
func (l *LED) Advance(now simtime.Time) (simtime.Time, bool) { return 0, false }

func (l *LED) InitVCD(cfg component.VcdConfig) vcd.Tree {
	if !cfg.Enabled() {
		return vcd.Disabled{}
	}
	l.sig = vcd.NewSignal(1)
	return l.sig
}

func (l *LED) FillVCD(t vcd.Tree) bool {
	sig, ok := t.(*vcd.Signal)
	if !ok {
		return false
	}
	v := pin.Low
	if l.on {
		v = pin.High
	}
	return sig.SetScalar(v)
}
