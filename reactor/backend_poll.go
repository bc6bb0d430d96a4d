// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package reactor

import (
	"golang.org/x/sys/unix"
)

// pollBackend is the portable fallback reactor used on non-Linux unix
// targets, built on poll(2) and a self-pipe for wakeup since those
// platforms have no eventfd.
type pollBackend struct {
	fds     map[int]Mask
	wakeupR int
	wakeupW int
}

func newBackend() (backend, error) {
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, err
	}
	return &pollBackend{
		fds:     make(map[int]Mask),
		wakeupR: fds[0],
		wakeupW: fds[1],
	}, nil
}

func (b *pollBackend) add(fd int, mask Mask) error {
	b.fds[fd] = mask
	return nil
}

func (b *pollBackend) update(fd int, mask Mask) error {
	b.fds[fd] = mask
	return nil
}

func (b *pollBackend) remove(fd int) error {
	delete(b.fds, fd)
	return nil
}

func toPollEvents(m Mask) int16 {
	var e int16
	if m.has(In) {
		e |= unix.POLLIN
	}
	if m.has(Out) {
		e |= unix.POLLOUT
	}
	return e
}

func fromPollEvents(e int16) Mask {
	var m Mask
	if e&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
		m |= In
	}
	if e&(unix.POLLOUT|unix.POLLERR) != 0 {
		m |= Out
	}
	return m
}

func (b *pollBackend) wait(timeoutMs int, out []rawEvent) ([]rawEvent, error) {
	pfds := make([]unix.PollFd, 0, len(b.fds)+1)
	pfds = append(pfds, unix.PollFd{Fd: int32(b.wakeupR), Events: unix.POLLIN})
	for fd, mask := range b.fds {
		pfds = append(pfds, unix.PollFd{Fd: int32(fd), Events: toPollEvents(mask)})
	}

	_, err := unix.Poll(pfds, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return out, nil
		}
		return out, err
	}
	for _, p := range pfds {
		if p.Revents == 0 {
			continue
		}
		out = append(out, rawEvent{fd: int(p.Fd), mask: fromPollEvents(p.Revents)})
	}
	return out, nil
}

func (b *pollBackend) wakeupFD() int { return b.wakeupR }

func (b *pollBackend) drainWakeup() {
	var buf [64]byte
	for {
		_, err := unix.Read(b.wakeupR, buf[:])
		if err == nil {
			continue
		}
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return
		}
		if err == unix.EINTR {
			continue
		}
		return
	}
}

func (b *pollBackend) signalWakeup() {
	var one [1]byte
	for {
		_, err := unix.Write(b.wakeupW, one[:])
		if err == nil || err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return
		}
		if err == unix.EINTR {
			continue
		}
		return
	}
}

// getFD reports no externally composable descriptor; callers must drive
// WaitAndProcess directly on this backend.
func (b *pollBackend) getFD() int { return -1 }

func (b *pollBackend) close() error {
	_ = unix.Close(b.wakeupW)
	return unix.Close(b.wakeupR)
}
