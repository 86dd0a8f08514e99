package sim

import "container/heap"

type eventEntry struct {
	event Event
	seqID int64
}

// EventHeap implements a priority queue with deterministic ordering
// Ordering: timestamp → type priority → insertion sequence
type EventHeap struct {
	entries []eventEntry
	nextSeq int64
}

// NewEventHeap creates a new event heap
func NewEventHeap() *EventHeap {
	h := &EventHeap{
		entries: make([]eventEntry, 0),
	}
	heap.Init(h)
	return h
}

// Len implements heap.Interface
func (h *EventHeap) Len() int {
	return len(h.entries)
}

// Less implements heap.Interface with deterministic ordering
func (h *EventHeap) Less(i, j int) bool {
	ei, ej := h.entries[i], h.entries[j]

	// Primary: timestamp (lower first)
	if ei.event.Timestamp() != ej.event.Timestamp() {
		return ei.event.Timestamp() < ej.event.Timestamp()
	}

	// Secondary: type priority (lower priority value = processed first)
	priI := EventTypePriority[ei.event.Type()]
	priJ := EventTypePriority[ej.event.Type()]
	if priI != priJ {
		return priI < priJ
	}

	// Tertiary: FIFO among equals
	return ei.seqID < ej.seqID
}

// Swap implements heap.Interface
func (h *EventHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
}

// Push implements heap.Interface
func (h *EventHeap) Push(x any) {
	h.entries = append(h.entries, x.(eventEntry))
}

// Pop implements heap.Interface
func (h *EventHeap) Pop() any {
	old := h.entries
	n := len(old)
	item := old[n-1]
	h.entries = old[0 : n-1]
	return item
}

// Schedule adds an event to the heap
func (h *EventHeap) Schedule(e Event) {
	heap.Push(h, eventEntry{event: e, seqID: h.nextSeq})
	h.nextSeq++
}

// PopNext removes and returns the next event
func (h *EventHeap) PopNext() Event {
	if h.Len() == 0 {
		return nil
	}
	return heap.Pop(h).(eventEntry).event
}

// Peek returns the next event without removing it
func (h *EventHeap) Peek() Event {
	if h.Len() == 0 {
		return nil
	}
	return h.entries[0].event
}
