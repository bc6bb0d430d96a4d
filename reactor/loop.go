// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor

import (
	"container/heap"
	"time"
)

// Callback is invoked from WaitAndProcess when fd becomes ready for one of
// the conditions in mask.
type Callback func(fd int, mask Mask, opaque any)

type fdEntry struct {
	mask   Mask
	cb     Callback
	opaque any
}

// rawEvent is what a backend reports back from wait: one ready fd and the
// conditions it is ready for.
type rawEvent struct {
	fd   int
	mask Mask
}

// backend is the platform-specific readiness multiplexer. Exactly one is
// compiled in: epoll on Linux, poll(2) elsewhere.
type backend interface {
	add(fd int, mask Mask) error
	update(fd int, mask Mask) error
	remove(fd int) error
	wait(timeoutMs int, out []rawEvent) ([]rawEvent, error)
	wakeupFD() int
	drainWakeup()
	signalWakeup()
	getFD() int
	close() error
}

// Loop is a single-threaded reactor: fd registration and readiness
// dispatch, plus timers, plus a thread- and signal-safe wakeup channel.
//
// Every method except Wakeup must be called from the goroutine that drives
// WaitAndProcess; Loop does no internal synchronization beyond what the
// wakeup channel itself requires.
type Loop struct {
	fds     map[int]*fdEntry
	timers  timerHeap
	backend backend
	closed  bool

	scratch []rawEvent
}

// NewLoop creates a Loop using the best available backend for the host
// platform.
func NewLoop() (*Loop, error) {
	b, err := newBackend()
	if err != nil {
		return nil, err
	}
	return &Loop{
		fds:     make(map[int]*fdEntry),
		backend: b,
		scratch: make([]rawEvent, 0, 64),
	}, nil
}

func (l *Loop) now() time.Time { return time.Now() }

// Add registers fd for the conditions in mask. Fails ErrAlreadyRegistered
// if fd is already in the loop.
func (l *Loop) Add(fd int, mask Mask, cb Callback, opaque any) error {
	if l.closed {
		return ErrClosed
	}
	if _, ok := l.fds[fd]; ok {
		return ErrAlreadyRegistered
	}
	if err := l.backend.add(fd, mask); err != nil {
		return err
	}
	l.fds[fd] = &fdEntry{mask: mask, cb: cb, opaque: opaque}
	return nil
}

// Update changes the watched conditions for fd. Fails ErrNotFound if fd is
// not registered.
func (l *Loop) Update(fd int, mask Mask) error {
	if l.closed {
		return ErrClosed
	}
	e, ok := l.fds[fd]
	if !ok {
		return ErrNotFound
	}
	if err := l.backend.update(fd, mask); err != nil {
		return err
	}
	e.mask = mask
	return nil
}

// Remove unregisters fd. Fails ErrNotFound if fd is not registered. Safe
// to call from within a callback dispatched for a different (or the same)
// fd during the current WaitAndProcess pass.
func (l *Loop) Remove(fd int) error {
	if _, ok := l.fds[fd]; !ok {
		return ErrNotFound
	}
	delete(l.fds, fd)
	return l.backend.remove(fd)
}

// GetFD returns the loop's own pollable descriptor (the epoll fd) so a
// host event loop can register it for read readiness and call ProcessFD
// when it fires. The portable backend has no such descriptor and reports
// ErrNotSupported.
func (l *Loop) GetFD() (int, error) {
	fd := l.backend.getFD()
	if fd < 0 {
		return -1, ErrNotSupported
	}
	return fd, nil
}

// Wakeup breaks a blocking WaitAndProcess from any goroutine, including a
// signal handler. Safe to call concurrently and any number of times
// between passes; excess wakeups coalesce into at most one drain.
func (l *Loop) Wakeup() {
	l.backend.signalWakeup()
}

// ProcessFD is WaitAndProcess(0): drain whatever is immediately ready
// without blocking.
func (l *Loop) ProcessFD() error {
	return l.WaitAndProcess(0)
}

// WaitAndProcess blocks until at least one fd event, a timer expiry, or a
// Wakeup call, then dispatches callbacks serially. Fd callbacks run before
// timer callbacks within one pass. Returns ErrTimedOut if the timeout
// elapsed without anything to dispatch.
//
// timeoutMs < 0 blocks indefinitely (bounded by the soonest timer
// deadline, if any); 0 polls without blocking.
func (l *Loop) WaitAndProcess(timeoutMs int) error {
	if l.closed {
		return ErrClosed
	}

	effective := timeoutMs
	if l.timers.Len() > 0 {
		// Round up so the wait never ends before the deadline it is bounded by.
		untilNext := int((time.Until(l.timers[0].deadline) + time.Millisecond - 1) / time.Millisecond)
		if untilNext < 0 {
			untilNext = 0
		}
		if timeoutMs < 0 || untilNext < timeoutMs {
			effective = untilNext
		}
	}

	events, err := l.backend.wait(effective, l.scratch[:0])
	if err != nil {
		return err
	}

	fired := false
	for _, ev := range events {
		if ev.fd == l.backend.wakeupFD() {
			l.backend.drainWakeup()
			fired = true
			continue
		}
		entry, ok := l.fds[ev.fd]
		if !ok {
			// Removed by an earlier callback in this same batch.
			continue
		}
		m := ev.mask & entry.mask
		if m == 0 {
			continue
		}
		fired = true
		entry.cb(ev.fd, m, entry.opaque)
	}

	if l.fireExpiredTimers() {
		fired = true
	}

	if !fired {
		return ErrTimedOut
	}
	return nil
}

func (l *Loop) fireExpiredTimers() bool {
	now := l.now()
	fired := false
	for l.timers.Len() > 0 && !l.timers[0].deadline.After(now) {
		e := heap.Pop(&l.timers).(*timerEntry)
		t := e.timer
		t.entry = nil
		fired = true
		if e.period > 0 {
			t.SetPeriodic(e.period, e.period)
		}
		t.cb(t)
	}
	return fired
}

// Close releases the loop's own resources (the wakeup channel and, on the
// epoll backend, the epoll fd itself). It does not close fds the caller
// registered with Add.
func (l *Loop) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	return l.backend.close()
}
