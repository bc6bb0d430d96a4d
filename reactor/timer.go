// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor

import (
	"container/heap"
	"time"
)

// TimerFunc is invoked from the owning Loop's WaitAndProcess when a Timer
// expires.
type TimerFunc func(t *Timer)

// Timer is a oneshot or periodic deadline bound to a Loop, checked against
// a monotonic clock on every WaitAndProcess pass. Callbacks fire serially
// from the loop's own goroutine, after any fd callbacks due in the same
// pass.
type Timer struct {
	loop  *Loop
	cb    TimerFunc
	entry *timerEntry
}

// NewTimer creates a disarmed Timer bound to loop. Call Set or SetPeriodic
// to arm it.
func (l *Loop) NewTimer(cb TimerFunc) *Timer {
	return &Timer{loop: l, cb: cb}
}

// Set arms a oneshot timer firing after delay, replacing any prior
// schedule.
func (t *Timer) Set(delay time.Duration) {
	t.arm(delay, 0)
}

// SetPeriodic arms a timer that fires once after delay and then every
// period thereafter, replacing any prior schedule.
func (t *Timer) SetPeriodic(delay, period time.Duration) {
	t.arm(delay, period)
}

// Clear disarms the timer. A no-op if it is not currently armed.
func (t *Timer) Clear() {
	if t.entry != nil {
		removeEntry(&t.loop.timers, t.entry)
		t.entry = nil
	}
}

func (t *Timer) arm(delay, period time.Duration) {
	if t.entry != nil {
		removeEntry(&t.loop.timers, t.entry)
	}
	e := &timerEntry{
		deadline: t.loop.now().Add(delay),
		period:   period,
		timer:    t,
		index:    -1,
	}
	t.entry = e
	heap.Push(&t.loop.timers, e)
}
