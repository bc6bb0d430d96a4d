// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp

import (
	"errors"
	"log/slog"

	"golang.org/x/sys/unix"

	"code.hybscloud.com/pomp/reactor"
	"code.hybscloud.com/pomp/transport"
	"code.hybscloud.com/pomp/wire"
)

// Kind selects the role a Context plays: accepting connections, dialing
// one, or exchanging connection-less datagrams.
type Kind int

const (
	KindServerStream Kind = iota
	KindClientStream
	KindDgram
)

// EventFunc receives every connection lifecycle and message-arrival
// notification a Context's connections produce. m is non-nil only when
// kind is transport.EventMsg.
type EventFunc func(ctx *Context, c *transport.Connection, kind transport.EventKind, m *wire.Message)

// Context owns one reactor loop, a listening or dialing role, and the set
// of live Connections that role has produced. It is the single entry
// point applications construct: NewContext for a server, client, or
// datagram peer of its own, NewContextWithLoop to share a loop already
// driving other Contexts.
type Context struct {
	kind     Kind
	loop     *reactor.Loop
	ownsLoop bool
	opts     Options
	cb       EventFunc
	opaque   any

	listenFD int
	addr     transport.Address

	conns []*transport.Connection

	closed bool
}

// NewContext constructs a Context with its own private reactor loop.
func NewContext(kind Kind, cb EventFunc, opaque any, opts ...Option) (*Context, error) {
	loop, err := reactor.NewLoop()
	if err != nil {
		return nil, err
	}
	ctx := newContext(kind, loop, true, cb, opaque, opts...)
	return ctx, nil
}

// NewContextWithLoop constructs a Context driven by an already-running
// reactor.Loop, letting several Contexts share one loop thread. The
// Context does not close loop on Destroy.
func NewContextWithLoop(kind Kind, loop *reactor.Loop, cb EventFunc, opaque any, opts ...Option) *Context {
	return newContext(kind, loop, false, cb, opaque, opts...)
}

func newContext(kind Kind, loop *reactor.Loop, ownsLoop bool, cb EventFunc, opaque any, opts ...Option) *Context {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Context{
		kind:     kind,
		loop:     loop,
		ownsLoop: ownsLoop,
		opts:     o,
		cb:       cb,
		opaque:   opaque,
		listenFD: -1,
	}
}

// Loop returns the reactor.Loop this Context drives its connections on.
func (ctx *Context) Loop() *reactor.Loop { return ctx.loop }

// Opaque returns the user pointer supplied at construction.
func (ctx *Context) Opaque() any { return ctx.opaque }

// Connections returns every currently live Connection, in accept/connect
// order. The slice is a snapshot; Stop/Destroy invalidate it.
func (ctx *Context) Connections() []*transport.Connection {
	out := make([]*transport.Connection, len(ctx.conns))
	copy(out, ctx.conns)
	return out
}

// Connection returns the first live Connection, the natural accessor for
// a KindClientStream Context's single connection. ErrNotConnected if none.
func (ctx *Context) Connection() (*transport.Connection, error) {
	if len(ctx.conns) == 0 {
		return nil, ErrNotConnected
	}
	return ctx.conns[0], nil
}

func familyDomain(fam transport.Family) int {
	switch fam {
	case transport.FamilyInet:
		return unix.AF_INET
	case transport.FamilyInet6:
		return unix.AF_INET6
	default:
		return unix.AF_UNIX
	}
}

// Listen starts a KindServerStream Context accepting connections at addr.
func (ctx *Context) Listen(addr transport.Address) error {
	if ctx.kind != KindServerStream {
		return ErrOperationNotSupported
	}
	if ctx.closed {
		return ErrClosed
	}
	if ctx.listenFD >= 0 {
		return ErrBusy
	}
	fd, err := unix.Socket(familyDomain(addr.Family), unix.SOCK_STREAM, 0)
	if err != nil {
		return err
	}
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	sa, err := transport.ToSockaddr(addr)
	if err != nil {
		_ = unix.Close(fd)
		return err
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return err
	}
	if err := unix.Listen(fd, 128); err != nil {
		_ = unix.Close(fd)
		return err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return err
	}
	if err := ctx.loop.Add(fd, reactor.In, ctx.onAcceptable, nil); err != nil {
		_ = unix.Close(fd)
		return err
	}
	ctx.listenFD = fd
	ctx.addr = addr
	return nil
}

func (ctx *Context) onAcceptable(fd int, mask reactor.Mask, opaque any) {
	for {
		nfd, sa, err := unix.Accept(ctx.listenFD)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
				return
			}
			if errors.Is(err, unix.EINTR) {
				continue
			}
			ctx.log("accept failed", "err", err)
			return
		}
		peerAddr, _ := transport.FromSockaddr(sa)
		c, err := transport.NewServerConn(ctx.loop, nfd, ctx.addr, peerAddr, ctx.opts.MaxMsgSize, ctx.connEvent, nil)
		if err != nil {
			_ = unix.Close(nfd)
			ctx.log("accepted connection setup failed", "err", err)
			continue
		}
		ctx.conns = append(ctx.conns, c)
	}
}

// Connect starts a KindClientStream Context dialing addr, with automatic
// reconnect on failure or disconnect.
func (ctx *Context) Connect(addr transport.Address) error {
	if ctx.kind != KindClientStream {
		return ErrOperationNotSupported
	}
	if ctx.closed {
		return ErrClosed
	}
	if len(ctx.conns) != 0 {
		return ErrBusy
	}
	c := transport.NewClientConn(ctx.loop, addr, ctx.dialFunc(addr), ctx.opts.MaxMsgSize, ctx.connEvent, nil)
	ctx.conns = append(ctx.conns, c)
	c.Connect()
	return nil
}

func (ctx *Context) dialFunc(addr transport.Address) transport.DialFunc {
	return func() (int, error) {
		fd, err := unix.Socket(familyDomain(addr.Family), unix.SOCK_STREAM, 0)
		if err != nil {
			return -1, err
		}
		if err := unix.SetNonblock(fd, true); err != nil {
			_ = unix.Close(fd)
			return -1, err
		}
		sa, err := transport.ToSockaddr(addr)
		if err != nil {
			_ = unix.Close(fd)
			return -1, err
		}
		if err := unix.Connect(fd, sa); err != nil && !errors.Is(err, unix.EINPROGRESS) {
			_ = unix.Close(fd)
			return -1, err
		}
		return fd, nil
	}
}

// Bind starts a KindDgram Context exchanging datagrams at addr.
func (ctx *Context) Bind(addr transport.Address) error {
	if ctx.kind != KindDgram {
		return ErrOperationNotSupported
	}
	if ctx.closed {
		return ErrClosed
	}
	if ctx.listenFD >= 0 {
		return ErrBusy
	}
	fd, err := unix.Socket(familyDomain(addr.Family), unix.SOCK_DGRAM, 0)
	if err != nil {
		return err
	}
	sa, err := transport.ToSockaddr(addr)
	if err != nil {
		_ = unix.Close(fd)
		return err
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return err
	}
	c, err := transport.NewDatagramConn(ctx.loop, fd, addr, ctx.opts.MaxMsgSize, ctx.connEvent, nil)
	if err != nil {
		_ = unix.Close(fd)
		return err
	}
	ctx.listenFD = fd
	ctx.addr = addr
	ctx.conns = append(ctx.conns, c)
	return nil
}

// SendMsg delivers m. On a client Context it sends on the single
// connection, ErrNotConnected if not yet connected. On a server Context
// it broadcasts to every live connection best-effort: a per-connection
// send failure is logged, not returned, so one stalled peer never blocks
// delivery to the rest.
func (ctx *Context) SendMsg(m *wire.Message) error {
	if ctx.kind == KindClientStream {
		c, err := ctx.Connection()
		if err != nil {
			return err
		}
		if c.State() != transport.StateConnected {
			return ErrNotConnected
		}
		return c.Send(m)
	}
	for _, c := range ctx.conns {
		if err := c.Send(m); err != nil {
			ctx.log("broadcast send failed", "err", err, "msgid", m.MsgID())
		}
	}
	return nil
}

// Wakeup unblocks a concurrent WaitAndProcess/ProcessFD from another
// goroutine. It is the only Context method safe to call off the loop's
// own goroutine.
func (ctx *Context) Wakeup() { ctx.loop.Wakeup() }

// GetFD returns the loop's pollable fd, for embedding this Context's
// reactor inside an application's own event loop. ErrOperationNotSupported
// on the portable poll backend.
func (ctx *Context) GetFD() (int, error) {
	fd, err := ctx.loop.GetFD()
	if errors.Is(err, reactor.ErrNotSupported) {
		return -1, ErrOperationNotSupported
	}
	return fd, err
}

// ProcessFD runs one non-blocking dispatch pass, for callers driving the
// loop fd themselves via GetFD.
func (ctx *Context) ProcessFD() error { return ctx.loop.ProcessFD() }

// WaitAndProcess blocks up to timeoutMs milliseconds for fd or timer
// activity and dispatches whatever fires. Negative blocks indefinitely.
func (ctx *Context) WaitAndProcess(timeoutMs int) error { return ctx.loop.WaitAndProcess(timeoutMs) }

// Stop closes the listening/dialing socket (if any) and every live
// Connection, but leaves the Context reusable for a fresh Listen/Connect/
// Bind call.
func (ctx *Context) Stop() error {
	if ctx.listenFD >= 0 {
		_ = ctx.loop.Remove(ctx.listenFD)
		_ = unix.Close(ctx.listenFD)
		ctx.listenFD = -1
	}
	for _, c := range ctx.conns {
		c.Stop()
	}
	ctx.conns = nil
	return nil
}

// Destroy releases the Context and, if it owns its reactor loop
// (constructed via NewContext rather than NewContextWithLoop), closes the
// loop too. ErrBusy if the listening/dialing socket or any Connection is
// still live; callers must Stop first. The Context is unusable afterward.
func (ctx *Context) Destroy() error {
	if ctx.closed {
		return nil
	}
	if ctx.listenFD >= 0 || len(ctx.conns) != 0 {
		return ErrBusy
	}
	ctx.closed = true
	if ctx.ownsLoop {
		return ctx.loop.Close()
	}
	return nil
}

func (ctx *Context) connEvent(c *transport.Connection, kind transport.EventKind, m *wire.Message) {
	if kind == transport.EventDisconnected {
		if err := c.LastError(); err != nil {
			ctx.log("connection disconnected", "err", err, "addr", c.PeerAddr())
		}
		if c.Kind() == transport.KindServer {
			ctx.removeConn(c)
		}
	}
	if ctx.cb != nil {
		ctx.cb(ctx, c, kind, m)
	}
}

func (ctx *Context) removeConn(c *transport.Connection) {
	for i, existing := range ctx.conns {
		if existing == c {
			ctx.conns = append(ctx.conns[:i], ctx.conns[i+1:]...)
			return
		}
	}
}

func (ctx *Context) log(msg string, args ...any) {
	if ctx.opts.Logger == nil {
		return
	}
	ctx.opts.Logger.Warn(msg, args...)
}
