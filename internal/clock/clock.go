// Package clock provides the schedulable callback abstraction used to
// simulate bot latency. Callbacks never run concurrently with the code that
// scheduled them: the Virtual clock runs them from Advance, and the Queue
// hands them to an event loop that fires them by id.
package clock

import (
	"math"
	"sort"
	"time"
)

// Scheduler runs fn once after delay d.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

// SchedulerFunc adapts a plain function to the Scheduler interface.
type SchedulerFunc func(d time.Duration, fn func())

// AfterFunc calls f(d, fn).
func (f SchedulerFunc) AfterFunc(d time.Duration, fn func()) { f(d, fn) }

type entry struct {
	due time.Duration
	seq uint64
	fn  func()
}

// Virtual is a manually advanced clock. Time starts at zero and only moves
// when Advance or RunAll is called.
type Virtual struct {
	now     time.Duration
	seq     uint64
	pending []entry
}

// NewVirtual returns a virtual clock at time zero.
func NewVirtual() *Virtual {
	return &Virtual{}
}

// Now returns the elapsed virtual time.
func (v *Virtual) Now() time.Duration {
	return v.now
}

// Pending returns the number of callbacks not yet fired.
func (v *Virtual) Pending() int {
	return len(v.pending)
}

// AfterFunc schedules fn at Now()+d. Negative delays are treated as zero.
func (v *Virtual) AfterFunc(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	v.seq++
	v.pending = append(v.pending, entry{due: v.now + d, seq: v.seq, fn: fn})
}

// Advance moves the clock forward by d, firing every callback that comes due
// on the way. A negative d is treated as zero. Callbacks fire in due order,
// ties in scheduling order, and see Now() equal to their own due time.
// Callbacks scheduled by a callback fire within the same Advance if they come
// due before the target.
func (v *Virtual) Advance(d time.Duration) int {
	if d < 0 {
		d = 0
	}
	target := v.now + d
	fired := v.fire(target, 0)
	v.now = target
	return fired
}

// RunAll advances until nothing is pending and returns the number of
// callbacks fired. limit bounds the number of callbacks to guard against
// self-rescheduling loops; limit <= 0 means no bound.
func (v *Virtual) RunAll(limit int) int {
	return v.fire(math.MaxInt64, limit)
}

// fire runs pending callbacks due at or before target, stopping after limit
// callbacks when limit > 0. Now() is left at the last due time fired.
func (v *Virtual) fire(target time.Duration, limit int) int {
	fired := 0
	for limit <= 0 || fired < limit {
		idx := v.next()
		if idx < 0 || v.pending[idx].due > target {
			break
		}
		e := v.pending[idx]
		v.pending = append(v.pending[:idx], v.pending[idx+1:]...)
		if e.due > v.now {
			v.now = e.due
		}
		e.fn()
		fired++
	}
	return fired
}

// next returns the index of the earliest pending entry, or -1.
func (v *Virtual) next() int {
	if len(v.pending) == 0 {
		return -1
	}
	sort.SliceStable(v.pending, func(i, j int) bool {
		if v.pending[i].due != v.pending[j].due {
			return v.pending[i].due < v.pending[j].due
		}
		return v.pending[i].seq < v.pending[j].seq
	})
	return 0
}
