package proc

import (
	"math/rand/v2"
	"slices"
)

// TrackQueue holds the in-flight item and what comes after it.
// It is not safe for concurrent use; GuildSession serializes access.
type TrackQueue struct {
	current *QueueItem
	pending []QueueItem
	loop    LoopMode
}

// Add appends item and returns its 1-indexed position in pending.
func (q *TrackQueue) Add(item QueueItem) int {
	q.pending = append(q.pending, item)
	return len(q.pending)
}

// RemoveAt removes the item at the 1-indexed position.
func (q *TrackQueue) RemoveAt(position int) (QueueItem, error) {
	if position < 1 || position > len(q.pending) {
		return QueueItem{}, ErrOutOfRange
	}
	idx := position - 1
	removed := q.pending[idx]
	q.pending = slices.Delete(q.pending, idx, idx+1)
	return removed, nil
}

// Clear drops pending items and reports how many were removed.
func (q *TrackQueue) Clear() int {
	n := len(q.pending)
	q.pending = nil
	return n
}

// Shuffle permutes pending uniformly at random. Zero or one items is a no-op.
func (q *TrackQueue) Shuffle() {
	if len(q.pending) < 2 {
		return
	}
	rand.Shuffle(len(q.pending), func(i, j int) {
		q.pending[i], q.pending[j] = q.pending[j], q.pending[i]
	})
}

// SetLoop sets what happens to finished items.
func (q *TrackQueue) SetLoop(mode LoopMode) {
	q.loop = mode
}

func (q *TrackQueue) Loop() LoopMode {
	return q.loop
}

// Current returns the in-flight item, if any.
func (q *TrackQueue) Current() (QueueItem, bool) {
	if q.current == nil {
		return QueueItem{}, false
	}
	return *q.current, true
}

// Pending returns a copy of the items after current.
func (q *TrackQueue) Pending() []QueueItem {
	return slices.Clone(q.pending)
}

func (q *TrackQueue) Len() int {
	return len(q.pending)
}

// Advance finishes the current item and promotes the head of pending.
// In LoopQueue mode the finished item goes to the back first, so a
// single looping item replays itself.
func (q *TrackQueue) Advance() (QueueItem, bool) {
	if q.current != nil && q.loop == LoopQueue {
		q.pending = append(q.pending, *q.current)
	}
	if len(q.pending) == 0 {
		q.current = nil
		return QueueItem{}, false
	}
	next := q.pending[0]
	q.pending = slices.Delete(q.pending, 0, 1)
	q.current = &next
	return next, true
}

// Reset forgets the current item and everything pending.
func (q *TrackQueue) Reset() {
	q.current = nil
	q.pending = nil
}
