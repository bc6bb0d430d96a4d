// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"code.hybscloud.com/pomp/reactor"
)

func pipePair(t *testing.T) (r, w int) {
	t.Helper()
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe2: %v", err)
	}
	t.Cleanup(func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestLoop_AddDispatchesOnReady(t *testing.T) {
	l, err := reactor.NewLoop()
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}
	defer l.Close()

	r, w := pipePair(t)
	got := make(chan struct{}, 1)
	if err := l.Add(r, reactor.In, func(fd int, mask reactor.Mask, opaque any) {
		var buf [5]byte
		_, _ = unix.Read(fd, buf[:])
		got <- struct{}{}
	}, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := unix.Write(w, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := l.WaitAndProcess(1000); err != nil {
		t.Fatalf("WaitAndProcess: %v", err)
	}
	select {
	case <-got:
	default:
		t.Fatalf("callback did not fire")
	}
}

func TestLoop_AddTwice_Fails(t *testing.T) {
	l, _ := reactor.NewLoop()
	defer l.Close()
	r, _ := pipePair(t)
	if err := l.Add(r, reactor.In, func(int, reactor.Mask, any) {}, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Add(r, reactor.In, func(int, reactor.Mask, any) {}, nil); err != reactor.ErrAlreadyRegistered {
		t.Fatalf("second Add = %v, want ErrAlreadyRegistered", err)
	}
}

func TestLoop_UpdateRemove_NotFound(t *testing.T) {
	l, _ := reactor.NewLoop()
	defer l.Close()
	if err := l.Update(99, reactor.In); err != reactor.ErrNotFound {
		t.Fatalf("Update on unknown fd = %v, want ErrNotFound", err)
	}
	if err := l.Remove(99); err != reactor.ErrNotFound {
		t.Fatalf("Remove on unknown fd = %v, want ErrNotFound", err)
	}
}

func TestLoop_ProcessFD_TimesOutWithNothingReady(t *testing.T) {
	l, _ := reactor.NewLoop()
	defer l.Close()
	r, _ := pipePair(t)
	if err := l.Add(r, reactor.In, func(int, reactor.Mask, any) {}, nil); err != nil {
		t.Fatal(err)
	}
	if err := l.ProcessFD(); err != reactor.ErrTimedOut {
		t.Fatalf("ProcessFD = %v, want ErrTimedOut", err)
	}
}

// TestLoop_RemoveDuringDispatch checks that a callback removing another
// fd already queued in the same ready batch is tolerated: the removed fd's
// callback is simply skipped rather than panicking or double-firing.
func TestLoop_RemoveDuringDispatch(t *testing.T) {
	l, _ := reactor.NewLoop()
	defer l.Close()

	r1, w1 := pipePair(t)
	r2, w2 := pipePair(t)

	var fired int32
	if err := l.Add(r1, reactor.In, func(fd int, mask reactor.Mask, opaque any) {
		var buf [1]byte
		_, _ = unix.Read(fd, buf[:])
		_ = l.Remove(r2)
		atomic.AddInt32(&fired, 1)
	}, nil); err != nil {
		t.Fatal(err)
	}
	if err := l.Add(r2, reactor.In, func(fd int, mask reactor.Mask, opaque any) {
		atomic.AddInt32(&fired, 1)
	}, nil); err != nil {
		t.Fatal(err)
	}

	_, _ = unix.Write(w1, []byte("x"))
	_, _ = unix.Write(w2, []byte("y"))

	// Either ordering of the batch is valid; the important invariant is no
	// panic and at most one callback per live fd.
	_ = l.WaitAndProcess(1000)
	if atomic.LoadInt32(&fired) == 0 {
		t.Fatalf("expected at least one callback to fire")
	}
}

func TestLoop_WakeupUnblocksWait(t *testing.T) {
	l, _ := reactor.NewLoop()
	defer l.Close()

	done := make(chan error, 1)
	go func() {
		done <- l.WaitAndProcess(5000)
	}()

	time.Sleep(20 * time.Millisecond)
	l.Wakeup()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WaitAndProcess after wakeup = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Wakeup did not unblock WaitAndProcess")
	}
}

// TestLoop_WakeupFlood_CoalescesAndNeverStarvesOtherFDs checks that many
// concurrent wakeups never prevent an otherwise-ready fd's callback from
// running within a bounded number of passes.
func TestLoop_WakeupFlood_CoalescesAndNeverStarvesOtherFDs(t *testing.T) {
	l, _ := reactor.NewLoop()
	defer l.Close()

	r, w := pipePair(t)
	got := make(chan struct{}, 1)
	if err := l.Add(r, reactor.In, func(fd int, mask reactor.Mask, opaque any) {
		var buf [1]byte
		_, _ = unix.Read(fd, buf[:])
		got <- struct{}{}
	}, nil); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Wakeup()
		}()
	}

	_, _ = unix.Write(w, []byte("z"))
	wg.Wait()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_ = l.WaitAndProcess(50)
		select {
		case <-got:
			return
		default:
		}
	}
	t.Fatalf("fd callback starved by wakeup flood")
}

func TestTimer_OneshotFires(t *testing.T) {
	l, _ := reactor.NewLoop()
	defer l.Close()

	fired := make(chan struct{}, 1)
	tm := l.NewTimer(func(*reactor.Timer) { fired <- struct{}{} })
	tm.Set(10 * time.Millisecond)

	if err := l.WaitAndProcess(1000); err != nil {
		t.Fatalf("WaitAndProcess: %v", err)
	}
	select {
	case <-fired:
	default:
		t.Fatalf("timer did not fire")
	}
}

func TestTimer_PeriodicRefires(t *testing.T) {
	l, _ := reactor.NewLoop()
	defer l.Close()

	var count int32
	tm := l.NewTimer(func(*reactor.Timer) { atomic.AddInt32(&count, 1) })
	tm.SetPeriodic(5*time.Millisecond, 5*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&count) < 3 && time.Now().Before(deadline) {
		_ = l.WaitAndProcess(50)
	}
	tm.Clear()
	if atomic.LoadInt32(&count) < 3 {
		t.Fatalf("periodic timer fired %d times, want >= 3", count)
	}
}

func TestTimer_ClearDisarms(t *testing.T) {
	l, _ := reactor.NewLoop()
	defer l.Close()

	tm := l.NewTimer(func(*reactor.Timer) { t.Fatalf("cleared timer fired") })
	tm.Set(10 * time.Millisecond)
	tm.Clear()

	if err := l.WaitAndProcess(50); err != reactor.ErrTimedOut {
		t.Fatalf("WaitAndProcess after Clear = %v, want ErrTimedOut", err)
	}
}

func TestLoop_FDCallbacksFireBeforeTimers(t *testing.T) {
	l, _ := reactor.NewLoop()
	defer l.Close()

	r, w := pipePair(t)
	var order []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	if err := l.Add(r, reactor.In, func(fd int, mask reactor.Mask, opaque any) {
		var buf [1]byte
		_, _ = unix.Read(fd, buf[:])
		record("fd")
	}, nil); err != nil {
		t.Fatal(err)
	}
	tm := l.NewTimer(func(*reactor.Timer) { record("timer") })
	tm.Set(0)

	_, _ = unix.Write(w, []byte("x"))
	time.Sleep(5 * time.Millisecond)

	if err := l.WaitAndProcess(1000); err != nil {
		t.Fatalf("WaitAndProcess: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "fd" || order[1] != "timer" {
		t.Fatalf("dispatch order = %v, want [fd timer]", order)
	}
}
