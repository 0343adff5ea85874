// Package console implements a reference debug/poke component: a
// threaded device with no input pins that replays a small textual
// script of commands ("poke", "wait", "log") against a fixed set of
// named output pins, tokenized with github.com/google/shlex the way a
// shell would split them. It owns zero input pins on purpose, to
// exercise the board's guaranteed-first-Advance-at-t=0 seeding for
// threaded components that would otherwise never be dispatched.
package console

import (
	"strconv"
	"strings"

	"github.com/google/shlex"

	"boardsim/component"
	"boardsim/pin"
	"boardsim/simtime"
	"boardsim/vcd"
)

// Params configures a Console.
type Params struct {
	// Pins names the output pins this console can poke, in declaration
	// order; "poke" commands address them by name.
	Pins []string
	// Script is the ordered list of command lines executed starting at
	// simulated t=0. Supported commands:
	//   poke <pin> <high|low|z|weak-high|weak-low|error>
	//   wait <ns>
	//   log <message...>
	Script []string
	// Logger receives "log" output and malformed-command diagnostics.
	// A nil Logger silently discards them.
	Logger component.Logger
}

// Console is a threaded component driving zero or more named output
// pins from a scripted command sequence.
type Console struct {
	component.Base

	names  []string
	script []string
	pc     int
	logger component.Logger

	sig *vcd.Signal
}

// New returns a console ready to run p.Script starting at its first
// Advance call.
func New(p Params) *Console {
	specs := make([]component.PinSpec, len(p.Pins))
	for i, name := range p.Pins {
		specs[i] = component.PinSpec{Name: name}
	}
	return &Console{
		Base:   component.NewBase(specs...),
		names:  append([]string(nil), p.Pins...),
		script: append([]string(nil), p.Script...),
		logger: p.Logger,
	}
}

// SetPin is a no-op: a console has no input pins.
func (c *Console) SetPin(id pin.ID, s pin.State) {}

func (c *Console) ClockRisingEdge()  {}
func (c *Console) ClockFallingEdge() {}

// Advance executes script lines starting at c.pc until a "wait"
// requests a future wakeup or the script runs out.
func (c *Console) Advance(now simtime.Time) (simtime.Time, bool) {
	for c.pc < len(c.script) {
		line := c.script[c.pc]
		c.pc++

		fields, err := shlex.Split(line)
		if err != nil || len(fields) == 0 {
			c.logf("console: skipping malformed command %q: %v", line, err)
			continue
		}

		switch fields[0] {
		case "poke":
			c.execPoke(fields)
		case "wait":
			if at, ok := c.execWait(now, fields); ok {
				return at, true
			}
		case "log":
			c.logf("console: %s", strings.Join(fields[1:], " "))
		default:
			c.logf("console: unknown command %q", fields[0])
		}
	}
	return 0, false
}

func (c *Console) execPoke(fields []string) {
	if len(fields) != 3 {
		c.logf("console: poke wants 2 args, got %q", strings.Join(fields, " "))
		return
	}
	id, ok := c.pinByName(fields[1])
	if !ok {
		c.logf("console: unknown pin %q", fields[1])
		return
	}
	s, ok := parseState(fields[2])
	if !ok {
		c.logf("console: unknown pin state %q", fields[2])
		return
	}
	c.Drive(id, s)
}

func (c *Console) execWait(now simtime.Time, fields []string) (simtime.Time, bool) {
	if len(fields) != 2 {
		c.logf("console: wait wants 1 arg, got %q", strings.Join(fields, " "))
		return 0, false
	}
	ns, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || ns < 0 {
		c.logf("console: bad wait duration %q", fields[1])
		return 0, false
	}
	return now + simtime.Time(ns), true
}

func (c *Console) pinByName(name string) (pin.ID, bool) {
	for i, n := range c.names {
		if n == name {
			return pin.ID(i), true
		}
	}
	return 0, false
}

func (c *Console) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

func parseState(s string) (pin.State, bool) {
	switch s {
	case "z":
		return pin.Z, true
	case "low":
		return pin.Low, true
	case "high":
		return pin.High, true
	case "weak-low":
		return pin.WeakLow, true
	case "weak-high":
		return pin.WeakHigh, true
	case "error":
		return pin.Error, true
	default:
		return 0, false
	}
}

// InitVCD publishes an 8-bit program-counter signal, so a waveform
// viewer shows script progress alongside the pins it pokes.
func (c *Console) InitVCD(cfg component.VcdConfig) vcd.Tree {
	if !cfg.Enabled() {
		return vcd.Disabled{}
	}
	c.sig = vcd.NewSignal(8)
	return c.sig
}

func (c *Console) FillVCD(t vcd.Tree) bool {
	sig, ok := t.(*vcd.Signal)
	if !ok {
		return false
	}
	bits := make([]pin.State, 8)
	pc := c.pc
	for i := 0; i < 8; i++ {
		if pc&(1<<uint(7-i)) != 0 {
			bits[i] = pin.High
		} else {
			bits[i] = pin.Low
		}
	}
	return sig.Set(bits)
}
