// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"sync/atomic"
	"syscall"
)

// Buffer is a growable byte region with an attached ordered list of borrowed
// file descriptors referenced from inside the bytes it carries.
//
// A Buffer is reference-counted: NewBuffer starts a Buffer at refcount 1,
// Retain adds an owner, and Release drops one. When the last reference is
// released, every fd appended via AppendFd is closed, in append order. This
// lets a single Buffer back several in-flight Messages during a broadcast
// fan-out (see transport.Connection's write queue) without either copying
// the payload or double-closing its fds.
//
// Buffer is not safe for concurrent use from more than one goroutine except
// for Retain/Release, which use atomic bookkeeping so a Buffer can be hung
// off a write queue entry on one loop thread while the owning Message is
// still held by the caller's goroutine during CopyMessage's fd-dup window.
type Buffer struct {
	data []byte
	fds  []int
	refs int32
}

// NewBuffer returns an empty Buffer with at least initialCap bytes of
// spare capacity.
func NewBuffer(initialCap int) *Buffer {
	if initialCap < 0 {
		initialCap = 0
	}
	return &Buffer{data: make([]byte, 0, initialCap), refs: 1}
}

// NewBufferCopy duplicates b's bytes and dups every fd it carries, producing
// an independently owned Buffer at refcount 1.
func NewBufferCopy(b *Buffer) (*Buffer, error) {
	cp := &Buffer{data: append([]byte(nil), b.data...), refs: 1}
	cp.fds = make([]int, 0, len(b.fds))
	for _, fd := range b.fds {
		dupfd, err := syscall.Dup(fd)
		if err != nil {
			cp.releaseFds()
			return nil, err
		}
		cp.fds = append(cp.fds, dupfd)
	}
	return cp, nil
}

// Len returns the number of bytes currently held.
func (b *Buffer) Len() int { return len(b.data) }

// Cap returns the current byte capacity.
func (b *Buffer) Cap() int { return cap(b.data) }

// Bytes returns the buffer's backing bytes. The slice is valid until the
// next mutating call or until the Buffer is released.
func (b *Buffer) Bytes() []byte { return b.data }

// Reserve grows capacity geometrically so that at least n further bytes can
// be appended without reallocation.
func (b *Buffer) Reserve(n int) {
	if n <= 0 || cap(b.data)-len(b.data) >= n {
		return
	}
	need := len(b.data) + n
	newCap := cap(b.data)
	if newCap == 0 {
		newCap = 64
	}
	for newCap < need {
		newCap *= 2
	}
	grown := make([]byte, len(b.data), newCap)
	copy(grown, b.data)
	b.data = grown
}

// Append appends bytes to the buffer, growing geometrically as needed.
func (b *Buffer) Append(p []byte) {
	b.Reserve(len(p))
	b.data = append(b.data, p...)
}

// Truncate resets the buffer's length to n, keeping its capacity.
func (b *Buffer) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n > len(b.data) {
		n = len(b.data)
	}
	b.data = b.data[:n]
}

// AppendFd dups fd and appends it to the ancillary fd list, returning its
// index for use as a TLV fd body.
func (b *Buffer) AppendFd(fd int) (index int, err error) {
	dupfd, err := syscall.Dup(fd)
	if err != nil {
		return 0, err
	}
	b.fds = append(b.fds, dupfd)
	return len(b.fds) - 1, nil
}

// AdoptFd appends an fd the Buffer now owns outright (already dup'd, or
// freshly accepted off the wire via SCM_RIGHTS ancillary data) without
// dup'ing it again, returning its index for use as a TLV fd body.
func (b *Buffer) AdoptFd(fd int) int {
	b.fds = append(b.fds, fd)
	return len(b.fds) - 1
}

// Fd returns the fd stored at index. The returned fd is borrowed: it
// remains owned by the Buffer and is closed on Release. Callers that need
// it to outlive the Buffer must dup it themselves.
func (b *Buffer) Fd(index int) (int, error) {
	if index < 0 || index >= len(b.fds) {
		return -1, ErrInvalidArgument
	}
	return b.fds[index], nil
}

// NumFds returns the number of fds attached to the buffer.
func (b *Buffer) NumFds() int { return len(b.fds) }

// Fds returns the live ancillary fd list in arrival order. The slice is
// owned by the Buffer; callers must not retain it past a Release.
func (b *Buffer) Fds() []int { return b.fds }

// Retain adds a reference to the buffer, returning the same Buffer for
// convenient chaining at queue-enqueue call sites.
func (b *Buffer) Retain() *Buffer {
	atomic.AddInt32(&b.refs, 1)
	return b
}

// Release drops a reference. When the last reference is dropped, every fd
// the Buffer owns is closed in append order and true is returned.
func (b *Buffer) Release() bool {
	if atomic.AddInt32(&b.refs, -1) > 0 {
		return false
	}
	b.releaseFds()
	return true
}

func (b *Buffer) releaseFds() {
	for _, fd := range b.fds {
		_ = syscall.Close(fd)
	}
	b.fds = nil
}
