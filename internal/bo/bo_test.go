package bo

import (
	"encoding/binary"
	"testing"
)

func TestNativeReturnsValidByteOrder(t *testing.T) {
	b := Native()
	if b != binary.BigEndian && b != binary.LittleEndian {
		t.Fatalf("unexpected byte order: %T", b)
	}
}

// TestNative_RoundTripsEventfdCounter exercises the actual use this
// package serves in the reactor's epoll backend: encoding and decoding
// an 8-byte eventfd counter value in host order.
func TestNative_RoundTripsEventfdCounter(t *testing.T) {
	var buf [8]byte
	var want uint64 = 1
	Native().PutUint64(buf[:], want)
	got := Native().Uint64(buf[:])
	if got != want {
		t.Fatalf("roundtrip = %d, want %d", got, want)
	}
}
