// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"code.hybscloud.com/pomp"
	"code.hybscloud.com/pomp/reactor"
	"code.hybscloud.com/pomp/transport"
	"code.hybscloud.com/pomp/wire"
)

func tmpUnixAddr(t *testing.T) transport.Address {
	t.Helper()
	dir := t.TempDir()
	return transport.Address{Family: transport.FamilyUnix, Path: filepath.Join(dir, "pomp.sock")}
}

func pump(t *testing.T, loop *reactor.Loop, timeout time.Duration, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if done() {
			return
		}
		if err := loop.WaitAndProcess(20); err != nil && !errors.Is(err, reactor.ErrTimedOut) {
			t.Fatalf("WaitAndProcess: %v", err)
		}
	}
	t.Fatalf("timed out waiting for condition")
}

func TestContext_StreamEchoRoundTrip(t *testing.T) {
	addr := tmpUnixAddr(t)

	var serverGot *wire.Message
	srv, err := pomp.NewContext(pomp.KindServerStream, func(ctx *pomp.Context, c *transport.Connection, kind transport.EventKind, m *wire.Message) {
		if kind == transport.EventMsg {
			serverGot = m
			echo, _ := wire.CopyMessage(m)
			_ = c.Send(echo)
		}
	}, nil)
	if err != nil {
		t.Fatalf("NewContext server: %v", err)
	}
	defer func() { srv.Stop(); srv.Destroy() }()
	if err := srv.Listen(addr); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	var clientGot *wire.Message
	cli, err := pomp.NewContext(pomp.KindClientStream, func(ctx *pomp.Context, c *transport.Connection, kind transport.EventKind, m *wire.Message) {
		if kind == transport.EventMsg {
			clientGot = m
		}
	}, nil)
	if err != nil {
		t.Fatalf("NewContext client: %v", err)
	}
	defer func() { cli.Stop(); cli.Destroy() }()
	if err := cli.Connect(addr); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	for i := 0; i < 200 && clientGot == nil; i++ {
		_ = srv.WaitAndProcess(10)
		_ = cli.WaitAndProcess(10)
		if i == 20 {
			c, err := cli.Connection()
			if err == nil && c.State() == transport.StateConnected {
				m, werr := wire.WriteMsg(11, "%s", "ping")
				if werr != nil {
					t.Fatalf("WriteMsg: %v", werr)
				}
				if serr := cli.SendMsg(m); serr != nil {
					t.Fatalf("SendMsg: %v", serr)
				}
			}
		}
	}
	if serverGot == nil {
		t.Fatalf("server never received the message")
	}
	if clientGot == nil {
		t.Fatalf("client never received the echo")
	}
	if clientGot.MsgID() != 11 {
		t.Fatalf("echoed msgid = %d, want 11", clientGot.MsgID())
	}
}

func TestContext_DatagramRoundTrip(t *testing.T) {
	addrA := tmpUnixAddr(t)
	addrB := tmpUnixAddr(t)

	var got *wire.Message
	a, err := pomp.NewContext(pomp.KindDgram, func(ctx *pomp.Context, c *transport.Connection, kind transport.EventKind, m *wire.Message) {
		if kind == transport.EventMsg {
			got = m
		}
	}, nil)
	if err != nil {
		t.Fatalf("NewContext a: %v", err)
	}
	defer func() { a.Stop(); a.Destroy() }()
	if err := a.Bind(addrA); err != nil {
		t.Fatalf("Bind a: %v", err)
	}

	b, err := pomp.NewContext(pomp.KindDgram, func(ctx *pomp.Context, c *transport.Connection, kind transport.EventKind, m *wire.Message) {}, nil)
	if err != nil {
		t.Fatalf("NewContext b: %v", err)
	}
	defer func() { b.Stop(); b.Destroy() }()
	if err := b.Bind(addrB); err != nil {
		t.Fatalf("Bind b: %v", err)
	}

	conn, err := b.Connection()
	if err != nil {
		t.Fatalf("Connection: %v", err)
	}
	m, err := wire.WriteMsg(5, "%u", uint32(99))
	if err != nil {
		t.Fatalf("WriteMsg: %v", err)
	}
	if err := conn.SendTo(addrA, m); err != nil {
		t.Fatalf("SendTo: %v", err)
	}

	pump(t, a.Loop(), time.Second, func() bool { return got != nil })
	if got.MsgID() != 5 {
		t.Fatalf("msgid = %d, want 5", got.MsgID())
	}
}

func TestContext_Connect_RejectsSecondCall(t *testing.T) {
	addr := tmpUnixAddr(t)
	cli, err := pomp.NewContext(pomp.KindClientStream, func(*pomp.Context, *transport.Connection, transport.EventKind, *wire.Message) {}, nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	defer func() { cli.Stop(); cli.Destroy() }()
	if err := cli.Connect(addr); err != nil {
		t.Fatalf("first Connect: %v", err)
	}
	if err := cli.Connect(addr); !errors.Is(err, pomp.ErrBusy) {
		t.Fatalf("second Connect error = %v, want ErrBusy", err)
	}
}

func TestContext_Destroy_RejectsWhileRunning(t *testing.T) {
	addr := tmpUnixAddr(t)
	cli, err := pomp.NewContext(pomp.KindClientStream, func(*pomp.Context, *transport.Connection, transport.EventKind, *wire.Message) {}, nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	if err := cli.Connect(addr); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := cli.Destroy(); !errors.Is(err, pomp.ErrBusy) {
		t.Fatalf("Destroy error = %v, want ErrBusy", err)
	}
	if err := cli.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := cli.Destroy(); err != nil {
		t.Fatalf("Destroy after Stop: %v", err)
	}
}

func TestContext_SendMsg_NotConnected(t *testing.T) {
	cli, err := pomp.NewContext(pomp.KindClientStream, func(*pomp.Context, *transport.Connection, transport.EventKind, *wire.Message) {}, nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	defer cli.Destroy()
	m, err := wire.WriteMsg(1, "")
	if err != nil {
		t.Fatalf("WriteMsg: %v", err)
	}
	if err := cli.SendMsg(m); !errors.Is(err, pomp.ErrNotConnected) {
		t.Fatalf("SendMsg error = %v, want ErrNotConnected", err)
	}
}
