// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport_test

import (
	"testing"

	"code.hybscloud.com/pomp/transport"
)

func TestParseAddress_RoundTrip(t *testing.T) {
	cases := []string{
		"inet:0.0.0.0:0",
		"inet:127.0.0.1:8080",
		"inet6:::1:9",
		"inet6:fe80::1:1234",
		"unix:/tmp/pomp.sock",
		"unix:relative/path.sock",
		"unix:@abstract-name",
	}
	for _, s := range cases {
		addr, err := transport.ParseAddress(s)
		if err != nil {
			t.Fatalf("ParseAddress(%q): %v", s, err)
		}
		if got := addr.String(); got != s {
			t.Fatalf("ParseAddress(%q).String() = %q, want %q", s, got, s)
		}
	}
}

func TestParseAddress_IsUnix(t *testing.T) {
	u, err := transport.ParseAddress("unix:/tmp/x")
	if err != nil {
		t.Fatal(err)
	}
	if !u.IsUnix() {
		t.Fatalf("unix address IsUnix() = false")
	}
	i, err := transport.ParseAddress("inet:127.0.0.1:1")
	if err != nil {
		t.Fatal(err)
	}
	if i.IsUnix() {
		t.Fatalf("inet address IsUnix() = true")
	}
}

func TestParseAddress_Invalid(t *testing.T) {
	cases := []string{
		"",
		"tcp:127.0.0.1:80",
		"inet:not-an-ip:80",
		"inet:127.0.0.1",
		"inet:127.0.0.1:notaport",
		"inet:::1:80",
		"unix:",
	}
	for _, s := range cases {
		if _, err := transport.ParseAddress(s); err == nil {
			t.Fatalf("ParseAddress(%q) succeeded, want error", s)
		}
	}
}

func TestAddress_NetAddr(t *testing.T) {
	a, _ := transport.ParseAddress("inet:127.0.0.1:9000")
	if got, want := a.NetAddr(), "127.0.0.1:9000"; got != want {
		t.Fatalf("NetAddr() = %q, want %q", got, want)
	}
	if got, want := a.Network(), "tcp"; got != want {
		t.Fatalf("Network() = %q, want %q", got, want)
	}

	u, _ := transport.ParseAddress("unix:@foo")
	if got, want := u.NetAddr(), "@foo"; got != want {
		t.Fatalf("NetAddr() = %q, want %q", got, want)
	}
}
