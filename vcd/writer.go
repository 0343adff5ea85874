// Package vcd implements the hierarchical signal snapshot (Tree/Forest),
// short-id assignment, and the incremental Value-Change-Dump writer:
// an initial full dump at Header time, then one timestamp block per
// Step containing only the signals that actually changed.
package vcd

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"os"

	"boardsim/pin"
	"boardsim/simerr"
	"boardsim/simtime"
)

// Writer owns the VCD output file and the forest of per-component trees.
// Encoding happens synchronously on the caller's goroutine straight into
// a buffered file, the same shape the original amber project's own
// VcdWriter used (a plain BufWriter<File>, no decoupling): a simulator
// already drives its own pacing through Board.Simulate, so there is no
// independent producer to buffer against.
type Writer struct {
	forest Forest
	f      *os.File
	bw     *bufio.Writer
}

// NewWriter creates path (truncating any existing file) and writes the
// VCD header plus the initial full dump for forest. Any I/O failure is
// fatal per the simulator's error-handling design and surfaces as a
// panic carrying a *simerr.E.
func NewWriter(path string, forest Forest) *Writer {
	f, err := os.Create(path)
	if err != nil {
		simerr.Wrap(simerr.IO, "vcd.NewWriter", err)
	}

	w := &Writer{
		forest: forest,
		f:      f,
		bw:     bufio.NewWriter(f),
	}

	w.writeHeader()
	return w
}

// Close flushes any buffered bytes, syncs, and closes the underlying
// file, returning the first error encountered along the way.
func (w *Writer) Close() error {
	flushErr := w.bw.Flush()
	syncErr := w.f.Sync()
	closeErr := w.f.Close()
	if flushErr != nil {
		return flushErr
	}
	if syncErr != nil {
		return syncErr
	}
	return closeErr
}

func (w *Writer) emit(buf *bytes.Buffer) {
	if _, err := w.bw.Write(buf.Bytes()); err != nil {
		simerr.Wrap(simerr.IO, "vcd.Writer", err)
	}
}

func (w *Writer) writeHeader() {
	g := NewShortIDGen()
	for _, e := range w.forest {
		e.Handle.With(func(t Tree) {
			t.assignIDs(g)
		})
	}

	var buf bytes.Buffer
	buf.WriteString("$version boardsim $end\n")
	buf.WriteString("$timescale 1ns $end\n")
	buf.WriteString("$scope module TOP $end\n")
	for _, e := range w.forest {
		e.Handle.With(func(t Tree) {
			writeChild(&buf, e.Name, t)
		})
	}
	buf.WriteString("$upscope $end\n")
	buf.WriteString("$enddefinitions $end\n")
	buf.WriteString("$dumpvars\n")
	for _, e := range w.forest {
		e.Handle.With(func(t Tree) {
			fullDump(&buf, t)
		})
	}
	buf.WriteString("$end\n")
	w.emit(&buf)
}

// Step emits one timestamp block for the components named in dirty
// (board.ComponentID values, used here only as opaque indices into
// forest). No line is written at all if none of those components'
// signals actually changed, per the dirty-correctness property in
// spec.md §8.
func (w *Writer) Step(now simtime.Time, dirty []int) {
	var body bytes.Buffer
	for _, idx := range dirty {
		if idx < 0 || idx >= len(w.forest) {
			simerr.Fatalf(simerr.Range, "vcd.Writer.Step", "component index %d out of range", idx)
		}
		w.forest[idx].Handle.With(func(t Tree) {
			emitDeltas(&body, t)
		})
	}
	if body.Len() == 0 {
		return
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "#%d\n", int64(math.Round(float64(now))))
	buf.Write(body.Bytes())
	w.emit(&buf)
}

func writeChild(buf *bytes.Buffer, name string, t Tree) {
	switch n := t.(type) {
	case *Module:
		buf.WriteString("$scope module " + name + " $end\n")
		for _, c := range n.Children {
			writeChild(buf, c.Name, c.Tree)
		}
		buf.WriteString("$upscope $end\n")
	case *Signal:
		writeVar(buf, name, n)
	case Disabled:
		// Disabled subtrees are never materialised in the header.
	}
}

func writeVar(buf *bytes.Buffer, name string, s *Signal) {
	if s.Width <= 1 {
		fmt.Fprintf(buf, "$var wire 1 %s %s $end\n", s.id, name)
		return
	}
	fmt.Fprintf(buf, "$var wire %d %s %s[%d:0] $end\n", s.Width, s.id, name, s.Width-1)
}

func fullDump(buf *bytes.Buffer, t Tree) {
	switch n := t.(type) {
	case *Module:
		for _, c := range n.Children {
			fullDump(buf, c.Tree)
		}
	case *Signal:
		writeDeltaLine(buf, n)
		n.commit()
	case Disabled:
	}
}

func emitDeltas(buf *bytes.Buffer, t Tree) {
	switch n := t.(type) {
	case *Module:
		for _, c := range n.Children {
			emitDeltas(buf, c.Tree)
		}
	case *Signal:
		if n.dirty() {
			writeDeltaLine(buf, n)
			n.commit()
		}
	case Disabled:
	}
}

func writeDeltaLine(buf *bytes.Buffer, s *Signal) {
	if len(s.Cur) == 1 {
		buf.WriteByte(encodeChar(s.Cur[0]))
		buf.Write(s.id)
		buf.WriteByte('\n')
		return
	}
	buf.WriteByte('b')
	for _, v := range s.Cur {
		buf.WriteByte(encodeChar(v))
	}
	buf.WriteByte(' ')
	buf.Write(s.id)
	buf.WriteByte('\n')
}

func encodeChar(s pin.State) byte {
	switch s {
	case pin.Z:
		return 'z'
	case pin.Low, pin.WeakLow:
		return '0'
	case pin.High, pin.WeakHigh:
		return '1'
	default:
		return 'x'
	}
}
