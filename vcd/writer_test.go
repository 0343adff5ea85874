package vcd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"boardsim/pin"
	"boardsim/simtime"
)

func TestNoDirtyComponentsEmitsNoTimestampLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.vcd")

	sig := NewSignal(1)
	tree := &Module{Children: []NamedChild{{Name: "out", Tree: sig}}}
	forest := Forest{{Name: "led", Handle: NewInlineHandle(tree)}}

	w := NewWriter(path, forest)
	w.Step(simtime.Time(2), nil)
	w.Step(simtime.Time(4), nil)
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	if strings.Count(content, "$dumpvars") != 1 {
		t.Fatalf("expected exactly one $dumpvars block, got content:\n%s", content)
	}
	if strings.Contains(content, "#2") || strings.Contains(content, "#4") {
		t.Fatalf("expected no timestamp lines for an unchanged board, got:\n%s", content)
	}
}

func TestDirtySignalProducesDeltaLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.vcd")

	sig := NewSignal(1)
	tree := &Module{Children: []NamedChild{{Name: "out", Tree: sig}}}
	forest := Forest{{Name: "led", Handle: NewInlineHandle(tree)}}

	w := NewWriter(path, forest)
	sig.SetScalar(pin.High)
	w.Step(simtime.Time(2), []int{0})
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "#2\n") {
		t.Fatalf("expected a timestamp line for the changed signal, got:\n%s", content)
	}
	idx := strings.Index(content, "#2\n")
	rest := content[idx+len("#2\n"):]
	line := strings.SplitN(rest, "\n", 2)[0]
	if !strings.HasPrefix(line, "1") {
		t.Fatalf("expected delta line to start with '1' (High), got %q", line)
	}
}

func TestVectorSignalEncodesBinaryLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.vcd")

	sig := NewSignal(4)
	tree := &Module{Children: []NamedChild{{Name: "bus", Tree: sig}}}
	forest := Forest{{Name: "cpu", Handle: NewInlineHandle(tree)}}

	w := NewWriter(path, forest)
	sig.Set([]pin.State{pin.High, pin.Low, pin.Z, pin.Error})
	w.Step(simtime.Time(10), []int{0})
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, _ := os.ReadFile(path)
	content := string(data)
	if !strings.Contains(content, "b10zx ") {
		t.Fatalf("expected vector delta 'b10zx <id>', got:\n%s", content)
	}
	if !strings.Contains(content, "$var wire 4 ") || !strings.Contains(content, "bus[3:0]") {
		t.Fatalf("expected a 4-bit $var declaration with bit range, got:\n%s", content)
	}
}

func TestHeaderOmitsDisabledSubtrees(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.vcd")

	tree := &Module{Children: []NamedChild{
		{Name: "visible", Tree: NewSignal(1)},
		{Name: "hidden", Tree: Disabled{}},
	}}
	forest := Forest{{Name: "chip", Handle: NewInlineHandle(tree)}}

	w := NewWriter(path, forest)
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, _ := os.ReadFile(path)
	content := string(data)
	if strings.Contains(content, "hidden") {
		t.Fatalf("disabled subtree leaked into header:\n%s", content)
	}
	if !strings.Contains(content, "visible") {
		t.Fatalf("expected visible signal to appear:\n%s", content)
	}
}
