package vcd

import "sync"

// Handle is the shared-ownership wrapper around one component's Tree: a
// worker goroutine writes through it (inside FillVCD) and the Writer
// reads through it later at emit time. Two variants exist per spec.md's
// design notes, unified behind the same interface so the writer never
// needs to know which kind it holds: ThreadHandle mutex-guards a tree
// owned by a threaded component's goroutine, InlineHandle is a bare
// single-thread borrow for a cooperative component that only the board
// goroutine ever touches.
type Handle interface {
	// With runs fn with exclusive access to the held Tree.
	With(fn func(Tree))
}

// ThreadHandle guards Tree with a mutex. A worker locks it for the
// duration of its own FillVCD call, which never overlaps the writer's
// read because the board only emits a timestamp block after collecting
// that worker's Done message (see board package, PHASE_COLLECT).
type ThreadHandle struct {
	mu   sync.Mutex
	Tree Tree
}

func NewThreadHandle(t Tree) *ThreadHandle { return &ThreadHandle{Tree: t} }

func (h *ThreadHandle) With(fn func(Tree)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(h.Tree)
}

// InlineHandle is an unsynchronized single-thread borrow cell for
// cooperative components, which run on the board goroutine only.
type InlineHandle struct {
	Tree Tree
}

func NewInlineHandle(t Tree) *InlineHandle { return &InlineHandle{Tree: t} }

func (h *InlineHandle) With(fn func(Tree)) { fn(h.Tree) }

// Entry names one component's tree within the forest.
type Entry struct {
	Name   string
	Handle Handle
}

// Forest is the board-level ordered list of per-component trees, in
// component-insertion order.
type Forest []Entry
