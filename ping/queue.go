// Package ping implements the future-event queue: a min-heap of PingEvent
// keyed by simulated time, grounded on the teacher's
// services/hal/internal/core.Poller heap (pollHeap's Len/Less/Swap/Push/Pop
// shape), generalized from wall-clock polling intervals to simulated-time
// one-shot wakeups and from a sleep-driven Run loop to a synchronous
// DrainDue call the board makes once per half-cycle.
package ping

import "container/heap"

// ComponentID names the component a ping wakes up. It is declared here
// rather than imported from board to keep this package dependency-free;
// board.ComponentID is defined as the same underlying type.
type ComponentID uint32

// Event is a single requested wakeup.
type Event struct {
	Who ComponentID
	At  float64 // nanoseconds, see simtime.Time
}

type item struct {
	ev    Event
	index int
}

type itemHeap []*item

func (h itemHeap) Len() int            { return len(h) }
func (h itemHeap) Less(i, j int) bool  { return h[i].ev.At < h[j].ev.At }
func (h itemHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *itemHeap) Push(x any)         { it := x.(*item); it.index = len(*h); *h = append(*h, it) }
func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*h = old[:n-1]
	return it
}

// Queue is a min-priority heap of Events ordered by At. Ties in At may be
// broken arbitrarily, as the spec allows.
type Queue struct {
	h itemHeap
}

// Push schedules who to be woken at at.
func (q *Queue) Push(who ComponentID, at float64) {
	heap.Push(&q.h, &item{ev: Event{Who: who, At: at}})
}

// Len reports the number of pending events.
func (q *Queue) Len() int { return len(q.h) }

// PeekAt reports the due time of the earliest pending event and whether
// one exists.
func (q *Queue) PeekAt() (at float64, ok bool) {
	if len(q.h) == 0 {
		return 0, false
	}
	return q.h[0].ev.At, true
}

// DrainDue pops and returns every event whose At is <= now, in
// non-decreasing At order, appending into dst (which may be reused across
// calls by passing dst[:0]). Events whose component is popped more than
// once in the same call coalesce at the caller's discretion; DrainDue
// itself makes no attempt to deduplicate by Who, since the board folds
// these into the same input-dirty set as wire-triggered changes.
func (q *Queue) DrainDue(now float64, dst []ComponentID) []ComponentID {
	for len(q.h) > 0 && q.h[0].ev.At <= now {
		it := heap.Pop(&q.h).(*item)
		dst = append(dst, it.ev.Who)
	}
	return dst
}
