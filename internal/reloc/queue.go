package reloc

import "bytes"

// queueDepth is the fixed number of slots the fixup queue holds (spec §3).
const queueDepth = 4

// Queue holds the four most recently used multi-byte fixup spans, newest
// first (spec §3, §9: owned by one emission/parse invocation, never
// shared between reader and writer or across objects).
type Queue struct {
	slots [queueDepth][]byte
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Reset empties every slot, matching the writer's re-initialization after
// each staging-buffer flush (spec §4.3.3).
func (q *Queue) Reset() {
	for i := range q.slots {
		q.slots[i] = nil
	}
}

// Insert prepends span as the newest entry, evicting the oldest slot.
func (q *Queue) Insert(span []byte) {
	copy(q.slots[1:], q.slots[:queueDepth-1])
	cp := make([]byte, len(span))
	copy(cp, span)
	q.slots[0] = cp
}

// Slot returns the byte span at slot k (0 = newest), or nil if that slot
// has never been populated.
func (q *Queue) Slot(k int) []byte {
	if k < 0 || k >= queueDepth {
		return nil
	}
	return q.slots[k]
}

// Rotate moves slot k to the front, shifting the slots between it and the
// front down by one (spec §3: "referencing slot k ... rotates slot k to
// slot 0").
func (q *Queue) Rotate(k int) {
	if k <= 0 || k >= queueDepth {
		return
	}
	moved := q.slots[k]
	copy(q.slots[1:k+1], q.slots[:k])
	q.slots[0] = moved
}

// Find returns the slot index holding a byte-identical span to b, or
// (-1, false) if none does. Used by the encoder's dedup step.
func (q *Queue) Find(b []byte) (int, bool) {
	for i, s := range q.slots {
		if s != nil && bytes.Equal(s, b) {
			return i, true
		}
	}
	return -1, false
}
