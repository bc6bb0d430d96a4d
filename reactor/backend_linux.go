// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package reactor

import (
	"golang.org/x/sys/unix"

	"code.hybscloud.com/pomp/internal/bo"
)

// epollBackend is the Linux reactor, grounded on the epoll idiom used by
// the higher-throughput entries in this codebase's lineage (create once,
// edge-neutral level-triggered interest sets, one eventfd for wakeup).
type epollBackend struct {
	epfd int
	evfd int
}

func newBackend() (backend, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	evfd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}
	b := &epollBackend{epfd: epfd, evfd: evfd}
	if err := b.add(evfd, In); err != nil {
		_ = unix.Close(evfd)
		_ = unix.Close(epfd)
		return nil, err
	}
	return b, nil
}

func toEpollEvents(m Mask) uint32 {
	var e uint32
	if m.has(In) {
		e |= unix.EPOLLIN
	}
	if m.has(Out) {
		e |= unix.EPOLLOUT
	}
	return e
}

func fromEpollEvents(e uint32) Mask {
	var m Mask
	if e&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		m |= In
	}
	if e&(unix.EPOLLOUT|unix.EPOLLERR) != 0 {
		m |= Out
	}
	return m
}

func (b *epollBackend) add(fd int, mask Mask) error {
	ev := &unix.EpollEvent{Events: toEpollEvents(mask), Fd: int32(fd)}
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, fd, ev)
}

func (b *epollBackend) update(fd int, mask Mask) error {
	ev := &unix.EpollEvent{Events: toEpollEvents(mask), Fd: int32(fd)}
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, fd, ev)
}

func (b *epollBackend) remove(fd int) error {
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (b *epollBackend) wait(timeoutMs int, out []rawEvent) ([]rawEvent, error) {
	var raw [64]unix.EpollEvent
	n, err := unix.EpollWait(b.epfd, raw[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return out, nil
		}
		return out, err
	}
	for i := 0; i < n; i++ {
		out = append(out, rawEvent{fd: int(raw[i].Fd), mask: fromEpollEvents(raw[i].Events)})
	}
	return out, nil
}

func (b *epollBackend) wakeupFD() int { return b.evfd }

func (b *epollBackend) drainWakeup() {
	var buf [8]byte
	for {
		_, err := unix.Read(b.evfd, buf[:])
		if err == nil || err == unix.EAGAIN {
			return
		}
		if err == unix.EINTR {
			continue
		}
		return
	}
}

func (b *epollBackend) signalWakeup() {
	var buf [8]byte
	bo.Native().PutUint64(buf[:], 1)
	for {
		_, err := unix.Write(b.evfd, buf[:])
		if err == nil || err == unix.EAGAIN {
			return
		}
		if err == unix.EINTR {
			continue
		}
		return
	}
}

func (b *epollBackend) getFD() int { return b.epfd }

func (b *epollBackend) close() error {
	_ = unix.Close(b.evfd)
	return unix.Close(b.epfd)
}
