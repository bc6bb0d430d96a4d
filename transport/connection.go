// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"encoding/binary"
	"errors"
	"io"
	"time"

	"golang.org/x/sys/unix"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/pomp/reactor"
	"code.hybscloud.com/pomp/wire"
)

// ErrWouldBlock is iox.ErrWouldBlock, the uniform non-blocking signal
// readChunk/writeChunk normalize unix.EAGAIN/EWOULDBLOCK into.
var ErrWouldBlock = iox.ErrWouldBlock

// State is a Connection's position in its client or server lifecycle.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Kind distinguishes the three connection roles a Context can create.
type Kind int

const (
	KindClient Kind = iota
	KindServer
	KindDatagram
)

// EventKind identifies which of the three user-visible events fired.
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventMsg
)

// EventFunc receives connection lifecycle and message-arrival
// notifications. m is non-nil only for EventMsg.
type EventFunc func(c *Connection, kind EventKind, m *wire.Message)

// DialFunc creates a new non-blocking socket and issues a connect() to the
// Connection's configured peer, returning the new fd. A connect() left in
// progress (EINPROGRESS) is not an error; completion is detected via
// writability.
type DialFunc func() (fd int, err error)

// DefaultReconnectDelay is the initial client reconnect backoff.
const DefaultReconnectDelay = 2 * time.Second

// maxReconnectDelay caps the exponential backoff growth.
const maxReconnectDelay = 60 * time.Second

type outItem struct {
	buf *wire.Buffer
	off int
}

// Connection is one peer's framing, write queue, and state machine: a
// client's single active socket, one of a server's accepted sockets, or a
// connection-less datagram endpoint.
type Connection struct {
	fd   int
	loop *reactor.Loop
	kind Kind

	local  Address
	peer   Address
	isUnix bool

	peerCred *Ucred

	state   State
	lastErr error

	recv       *wire.Buffer
	roff       int
	pendingFds []int

	outq          []outItem
	outMonitoring bool

	maxMsgLen int

	onEvent EventFunc
	opaque  any

	dial               DialFunc
	reconnect          *reactor.Timer
	reconnectDelay     time.Duration
	baseReconnectDelay time.Duration
}

// Opaque returns the user pointer supplied at construction.
func (c *Connection) Opaque() any { return c.opaque }

// State reports the connection's current lifecycle state.
func (c *Connection) State() State { return c.state }

// LastError returns the cause of the most recent EventDisconnected: a
// protocol violation, an oversize frame, a read/write error, or nil for a
// caller-initiated Stop/Disconnect.
func (c *Connection) LastError() error { return c.lastErr }

// Kind reports the connection's role.
func (c *Connection) Kind() Kind { return c.kind }

// LocalAddr returns the locally bound address, populated once known (after
// accept, or after a client connect completes).
func (c *Connection) LocalAddr() Address { return c.local }

// PeerAddr returns the remote peer's address. For a datagram connection
// this is the sender of the most recently delivered message.
func (c *Connection) PeerAddr() Address { return c.peer }

// PeerCred returns the identity of the process on the other end of a Unix
// domain socket. ErrNotSupported on non-Unix transports or platforms
// without SO_PEERCRED.
func (c *Connection) PeerCred() (*Ucred, error) {
	if c.peerCred == nil {
		return nil, ErrNotSupported
	}
	return c.peerCred, nil
}

// FD returns the underlying socket descriptor, or -1 if none is currently
// open (idle or mid-reconnect-wait).
func (c *Connection) FD() int { return c.fd }

// NewServerConn wraps an already-accepted, connected fd.
func NewServerConn(loop *reactor.Loop, fd int, local, peer Address, maxMsgLen int, onEvent EventFunc, opaque any) (*Connection, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, err
	}
	c := &Connection{
		fd:        fd,
		loop:      loop,
		kind:      KindServer,
		local:     local,
		peer:      peer,
		isUnix:    local.IsUnix() || peer.IsUnix(),
		recv:      wire.NewBuffer(4096),
		maxMsgLen: maxMsgLen,
		onEvent:   onEvent,
		opaque:    opaque,
		state:     StateConnected,
	}
	if err := loop.Add(fd, reactor.In, c.onReadable, nil); err != nil {
		return nil, err
	}
	if c.isUnix {
		if cred, err := getPeerCred(fd); err == nil {
			c.peerCred = cred
		}
	}
	c.onEvent(c, EventConnected, nil)
	return c, nil
}

// NewDatagramConn wraps a bound, connection-less datagram socket.
func NewDatagramConn(loop *reactor.Loop, fd int, local Address, maxMsgLen int, onEvent EventFunc, opaque any) (*Connection, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, err
	}
	c := &Connection{
		fd:        fd,
		loop:      loop,
		kind:      KindDatagram,
		local:     local,
		isUnix:    local.IsUnix(),
		maxMsgLen: maxMsgLen,
		onEvent:   onEvent,
		opaque:    opaque,
		state:     StateConnected,
	}
	if err := loop.Add(fd, reactor.In, c.onReadable, nil); err != nil {
		return nil, err
	}
	return c, nil
}

// NewClientConn creates an idle client Connection. Call Connect to start
// dialing peer via dial.
func NewClientConn(loop *reactor.Loop, peer Address, dial DialFunc, maxMsgLen int, onEvent EventFunc, opaque any) *Connection {
	c := &Connection{
		fd:                 -1,
		loop:               loop,
		kind:               KindClient,
		peer:               peer,
		isUnix:             peer.IsUnix(),
		maxMsgLen:          maxMsgLen,
		onEvent:            onEvent,
		opaque:             opaque,
		dial:               dial,
		state:              StateIdle,
		baseReconnectDelay: DefaultReconnectDelay,
		reconnectDelay:     DefaultReconnectDelay,
	}
	c.reconnect = loop.NewTimer(func(*reactor.Timer) { c.attemptConnect() })
	return c
}

// Connect starts (or restarts, from Idle/Closed) the client state machine.
func (c *Connection) Connect() {
	if c.state == StateConnecting || c.state == StateConnected {
		return
	}
	c.state = StateConnecting
	c.attemptConnect()
}

func (c *Connection) attemptConnect() {
	fd, err := c.dial()
	if err != nil {
		c.scheduleReconnect()
		return
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		c.scheduleReconnect()
		return
	}
	c.fd = fd
	c.recv = wire.NewBuffer(4096)
	c.roff = 0
	if err := c.loop.Add(fd, reactor.Out, c.onWritable, nil); err != nil {
		_ = unix.Close(fd)
		c.fd = -1
		c.scheduleReconnect()
		return
	}
	c.outMonitoring = true
}

func (c *Connection) scheduleReconnect() {
	c.reconnect.Set(c.reconnectDelay)
	c.reconnectDelay *= 2
	if c.reconnectDelay > maxReconnectDelay {
		c.reconnectDelay = maxReconnectDelay
	}
}

func (c *Connection) finishConnect() {
	errno, err := unix.GetsockoptInt(c.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil || errno != 0 {
		_ = c.loop.Remove(c.fd)
		_ = unix.Close(c.fd)
		c.fd = -1
		c.scheduleReconnect()
		return
	}
	c.state = StateConnected
	c.reconnectDelay = c.baseReconnectDelay
	c.fetchAddrs()
	wantOut := len(c.outq) > 0
	_ = c.loop.Update(c.fd, combinedMask(true, wantOut))
	c.outMonitoring = wantOut
	c.onEvent(c, EventConnected, nil)
	if wantOut {
		c.flushOut()
	}
}

func (c *Connection) fetchAddrs() {
	if sa, err := unix.Getsockname(c.fd); err == nil {
		if addr, aerr := FromSockaddr(sa); aerr == nil {
			c.local = addr
		}
	}
	if sa, err := unix.Getpeername(c.fd); err == nil {
		if addr, aerr := FromSockaddr(sa); aerr == nil {
			c.peer = addr
		}
	}
	if c.isUnix {
		if cred, err := getPeerCred(c.fd); err == nil {
			c.peerCred = cred
		}
	}
}

func combinedMask(in, out bool) reactor.Mask {
	var m reactor.Mask
	if in {
		m |= reactor.In
	}
	if out {
		m |= reactor.Out
	}
	return m
}

// Send enqueues m for delivery, retaining its backing Buffer so the
// caller's own Message remains independently usable. Fails ErrNotConnected
// on a client with no active transport, ErrClosed once closed, and
// ErrNotSupported when m carries fds over a non-Unix transport.
func (c *Connection) Send(m *wire.Message) error {
	if c.state == StateClosed || c.state == StateClosing {
		return ErrClosed
	}
	if c.kind == KindClient && c.state != StateConnected {
		return ErrNotConnected
	}
	if !c.isUnix && m.Buffer().NumFds() > 0 {
		return ErrNotSupported
	}
	buf := m.Buffer().Retain()
	c.outq = append(c.outq, outItem{buf: buf})
	c.updateOutMonitoring(true)
	if len(c.outq) == 1 {
		c.flushOut()
	}
	return nil
}

// SendTo is the datagram send path: sendto of the full frame, atomically,
// with no write queue.
func (c *Connection) SendTo(addr Address, m *wire.Message) error {
	if !c.isUnix && m.Buffer().NumFds() > 0 {
		return ErrNotSupported
	}
	sa, err := ToSockaddr(addr)
	if err != nil {
		return err
	}
	if err := unix.Sendto(c.fd, m.Buffer().Bytes(), 0, sa); err != nil {
		if err == unix.EMSGSIZE {
			return ErrMessageTooLarge
		}
		return err
	}
	return nil
}

func (c *Connection) updateOutMonitoring(wantOut bool) {
	if c.state != StateConnected {
		return
	}
	if wantOut == c.outMonitoring {
		return
	}
	c.outMonitoring = wantOut
	_ = c.loop.Update(c.fd, combinedMask(true, wantOut))
}

// Disconnect is the graceful, single-connection half of Stop: it closes
// just this Connection (a server dropping one client, or a client giving
// up on its peer) without affecting any other Connection a Context owns.
func (c *Connection) Disconnect() error {
	c.Stop()
	return nil
}

// Stop transitions the connection to Closing/Closed: queued outbound data
// is dropped, the fd is closed, and a DISCONNECTED event is synthesized if
// the connection had reached Connected.
func (c *Connection) Stop() {
	if c.state == StateClosed || c.state == StateClosing {
		return
	}
	prev := c.state
	c.state = StateClosing
	if c.reconnect != nil {
		c.reconnect.Clear()
	}
	c.closeFD()
	c.state = StateClosed
	c.lastErr = nil
	if prev == StateConnected {
		c.onEvent(c, EventDisconnected, nil)
	}
}

func (c *Connection) closeFD() {
	if c.fd >= 0 {
		_ = c.loop.Remove(c.fd)
		_ = unix.Close(c.fd)
		c.fd = -1
	}
	for _, item := range c.outq {
		item.buf.Release()
	}
	c.outq = nil
	c.outMonitoring = false
	for _, fd := range c.pendingFds {
		_ = unix.Close(fd)
	}
	c.pendingFds = nil
}

// handleDisconnect is the transport-error path: peer reset, broken pipe,
// protocol violation, or an over-size frame. Distinct from Stop, which is
// the caller-initiated path.
func (c *Connection) handleDisconnect(cause error) {
	if c.state == StateClosed {
		return
	}
	wasConnected := c.state == StateConnected
	c.closeFD()
	c.state = StateClosed
	c.lastErr = cause
	if wasConnected {
		c.onEvent(c, EventDisconnected, nil)
	}
	if c.kind == KindClient {
		c.state = StateConnecting
		c.scheduleReconnect()
	}
}

func (c *Connection) onWritable(fd int, mask reactor.Mask, opaque any) {
	if c.state == StateConnecting {
		c.finishConnect()
		return
	}
	c.flushOut()
}

func (c *Connection) flushOut() {
	for len(c.outq) > 0 {
		item := &c.outq[0]
		n, err := c.writeChunk(item)
		if err != nil {
			if errors.Is(err, ErrWouldBlock) {
				return
			}
			if errors.Is(err, unix.EINTR) {
				continue
			}
			c.handleDisconnect(err)
			return
		}
		item.off += n
		if item.off >= item.buf.Len() {
			item.buf.Release()
			c.outq = c.outq[1:]
			continue
		}
		return
	}
	c.updateOutMonitoring(false)
}

// writeChunk sends whatever of the current queue head remains unsent.
// Ancillary fds ride along only on the very first syscall for a given
// item, matching how SCM_RIGHTS attaches to the sendmsg call that
// introduced the bytes it rides with.
func (c *Connection) writeChunk(item *outItem) (int, error) {
	data := item.buf.Bytes()[item.off:]
	var n int
	var err error
	if item.off == 0 && item.buf.NumFds() > 0 {
		oob := unix.UnixRights(item.buf.Fds()...)
		n, err = unix.SendmsgN(c.fd, data, oob, nil, 0)
	} else {
		n, err = unix.Write(c.fd, data)
	}
	return n, normalizeBlocking(err)
}

// readChunk reads whatever is available into p, additionally harvesting
// any SCM_RIGHTS ancillary fds on Unix transports into pendingFds.
func (c *Connection) readChunk(p []byte) (int, error) {
	if !c.isUnix {
		n, err := unix.Read(c.fd, p)
		return n, normalizeBlocking(err)
	}
	oob := make([]byte, unix.CmsgSpace(64*4))
	n, oobn, _, _, err := unix.Recvmsg(c.fd, p, oob, 0)
	if err != nil {
		return n, normalizeBlocking(err)
	}
	if oobn > 0 {
		scms, perr := unix.ParseSocketControlMessage(oob[:oobn])
		if perr == nil {
			for _, scm := range scms {
				fds, ferr := unix.ParseUnixRights(&scm)
				if ferr == nil {
					c.pendingFds = append(c.pendingFds, fds...)
				}
			}
		}
	}
	return n, nil
}

// normalizeBlocking turns the raw EAGAIN/EWOULDBLOCK a socket syscall
// reports when no progress is currently possible into ErrWouldBlock, the
// one signal every caller above readChunk/writeChunk checks for.
func normalizeBlocking(err error) error {
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
		return ErrWouldBlock
	}
	return err
}

func (c *Connection) onReadable(fd int, mask reactor.Mask, opaque any) {
	if c.kind == KindDatagram {
		c.readDatagramOnce()
		return
	}
	var tmp [65536]byte
	for {
		n, err := c.readChunk(tmp[:])
		if n > 0 {
			c.recv.Append(tmp[:n])
		}
		if err != nil {
			if errors.Is(err, ErrWouldBlock) {
				break
			}
			if errors.Is(err, unix.EINTR) {
				continue
			}
			_ = c.parseFrames()
			c.handleDisconnect(err)
			return
		}
		if n == 0 {
			_ = c.parseFrames()
			c.handleDisconnect(io.EOF)
			return
		}
	}
	if perr := c.parseFrames(); perr != nil {
		c.handleDisconnect(perr)
	}
}

// parseFrames greedily slices complete frames off the front of recv,
// dispatching EVENT_MSG for each, and compacts the remainder so recv never
// grows past the longest in-flight partial frame.
func (c *Connection) parseFrames() error {
	for {
		avail := c.recv.Len() - c.roff
		if avail < wire.FrameHeaderLen {
			break
		}
		hdr := c.recv.Bytes()[c.roff : c.roff+wire.FrameHeaderLen]
		magic := binary.LittleEndian.Uint32(hdr[0:4])
		if magic != wire.FrameMagic {
			return ErrProtocol
		}
		size := binary.LittleEndian.Uint32(hdr[8:12])
		if size < wire.FrameHeaderLen {
			return ErrProtocol
		}
		if int(size) > c.maxMsgLen {
			return ErrMessageTooLarge
		}
		if avail < int(size) {
			break
		}
		msgID := binary.LittleEndian.Uint32(hdr[4:8])
		frameBytes := append([]byte(nil), c.recv.Bytes()[c.roff:c.roff+int(size)]...)
		buf := wire.NewBuffer(len(frameBytes))
		buf.Append(frameBytes)
		for _, fd := range c.pendingFds {
			buf.AdoptFd(fd)
		}
		c.pendingFds = c.pendingFds[:0]
		c.roff += int(size)

		m := wire.FromFrame(msgID, buf)
		c.onEvent(c, EventMsg, m)
		if c.state == StateClosed {
			return nil
		}
	}
	if c.roff > 0 {
		remaining := append([]byte(nil), c.recv.Bytes()[c.roff:]...)
		c.recv.Truncate(0)
		c.recv.Append(remaining)
		c.roff = 0
	}
	return nil
}

func (c *Connection) readDatagramOnce() {
	var buf [65536]byte
	n, from, err := unix.Recvfrom(c.fd, buf[:], 0)
	if err != nil {
		return
	}
	if n < wire.FrameHeaderLen {
		return
	}
	if binary.LittleEndian.Uint32(buf[0:4]) != wire.FrameMagic {
		return
	}
	msgID := binary.LittleEndian.Uint32(buf[4:8])
	frame := append([]byte(nil), buf[:n]...)
	wbuf := wire.NewBuffer(n)
	wbuf.Append(frame)
	if from != nil {
		if addr, aerr := FromSockaddr(from); aerr == nil {
			c.peer = addr
		}
	}
	m := wire.FromFrame(msgID, wbuf)
	c.onEvent(c, EventMsg, m)
}
