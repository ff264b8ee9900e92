package clock

import "time"

// Timer is a callback registered with a Queue, identified by ID.
type Timer struct {
	ID    uint64
	Delay time.Duration
}

// Queue is a Scheduler that does not keep time itself. Scheduled callbacks
// are collected until the owner drains them, arranges for the delay to
// elapse, and calls Fire with the timer's ID. Used to route timers through
// an event loop so callbacks run on the loop.
type Queue struct {
	nextID  uint64
	pending map[uint64]func()
	fresh   []Timer
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{pending: make(map[uint64]func())}
}

// AfterFunc registers fn and records a timer for the next Drain.
func (q *Queue) AfterFunc(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	q.nextID++
	q.pending[q.nextID] = fn
	q.fresh = append(q.fresh, Timer{ID: q.nextID, Delay: d})
}

// Drain returns the timers scheduled since the previous Drain.
func (q *Queue) Drain() []Timer {
	out := q.fresh
	q.fresh = nil
	return out
}

// Fire runs and forgets the callback for id. It reports false when id is
// unknown or was already fired.
func (q *Queue) Fire(id uint64) bool {
	fn, ok := q.pending[id]
	if !ok {
		return false
	}
	delete(q.pending, id)
	fn()
	return true
}

// Len returns the number of callbacks waiting to fire.
func (q *Queue) Len() int {
	return len(q.pending)
}
