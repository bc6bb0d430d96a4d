// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire_test

import (
	"bytes"
	"os"
	"syscall"
	"testing"

	"code.hybscloud.com/pomp/wire"
)

// TestEchoFrame checks an encoded echo frame's exact payload bytes:
// msgid=42, fmt="%s %u", args=("hello", 7).
func TestEchoFrame(t *testing.T) {
	m, err := wire.WriteMsg(42, "%s %u", "hello", uint32(7))
	if err != nil {
		t.Fatalf("WriteMsg: %v", err)
	}
	payload := m.Buffer().Bytes()[wire.FrameHeaderLen:]
	want := []byte{
		0x09, 0x06, 0x00, 0x00, 0x00, 'h', 'e', 'l', 'l', 'o', 0x00,
		0x06, 0x07, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(payload, want) {
		t.Fatalf("payload = % x, want % x", payload, want)
	}

	hdr := m.Buffer().Bytes()[:wire.FrameHeaderLen]
	if magic := uint32(hdr[0]) | uint32(hdr[1])<<8 | uint32(hdr[2])<<16 | uint32(hdr[3])<<24; magic != wire.FrameMagic {
		t.Fatalf("magic = %#x, want %#x", magic, wire.FrameMagic)
	}
	if int(hdr[8])|int(hdr[9])<<8|int(hdr[10])<<16|int(hdr[11])<<24 != m.Len() {
		t.Fatalf("size field does not match actual length")
	}

	dec, err := m.Decoder()
	if err != nil {
		t.Fatalf("Decoder: %v", err)
	}
	var s string
	var u uint32
	if err := dec.ReadArgs("%s %u", &s, &u); err != nil {
		t.Fatalf("ReadArgs: %v", err)
	}
	if s != "hello" || u != 7 {
		t.Fatalf("decoded (%q, %d), want (hello, 7)", s, u)
	}
}

// TestRoundTrip_AllTypes checks that decode(encode(v)) == v for every
// supported typed value.
func TestRoundTrip_AllTypes(t *testing.T) {
	m := wire.NewMessage()
	if err := m.Init(1); err != nil {
		t.Fatal(err)
	}
	enc, _ := m.Encoder()
	buf := []byte{1, 2, 3, 4, 5}
	if err := enc.WriteArgs("%hhd%hhu%hd%hu%d%u%lld%llu%f%lf%s%p%u",
		int8(-5), uint8(5), int16(-1000), uint16(1000), int32(-1), uint32(1),
		int64(-1), uint64(1), float32(1.5), float64(2.5), "hi", buf); err != nil {
		t.Fatalf("WriteArgs: %v", err)
	}
	if err := m.Finish(); err != nil {
		t.Fatal(err)
	}

	dec, _ := m.Decoder()
	var i8 int8
	var u8 uint8
	var i16 int16
	var u16 uint16
	var i32 int32
	var u32 uint32
	var i64 int64
	var u64 uint64
	var f32 float32
	var f64 float64
	var s string
	var b []byte
	if err := dec.ReadArgs("%hhd%hhu%hd%hu%d%u%lld%llu%f%lf%s%p%u",
		&i8, &u8, &i16, &u16, &i32, &u32, &i64, &u64, &f32, &f64, &s, &b); err != nil {
		t.Fatalf("ReadArgs: %v", err)
	}
	if i8 != -5 || u8 != 5 || i16 != -1000 || u16 != 1000 || i32 != -1 || u32 != 1 ||
		i64 != -1 || u64 != 1 || f32 != 1.5 || f64 != 2.5 || s != "hi" || !bytes.Equal(b, buf) {
		t.Fatalf("round trip mismatch: %d %d %d %d %d %d %d %d %v %v %q %v",
			i8, u8, i16, u16, i32, u32, i64, u64, f32, f64, s, b)
	}
}

// TestCopyMessage_DupsFds checks that a copied message encodes
// identically and its fds are distinct duplicates of the same file.
func TestCopyMessage_DupsFds(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "pomp-fd-*")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString("hello"); err != nil {
		t.Fatal(err)
	}

	m := wire.NewMessage()
	_ = m.Init(7)
	enc, _ := m.Encoder()
	if err := enc.WriteFd(int(f.Fd())); err != nil {
		t.Fatalf("WriteFd: %v", err)
	}
	_ = m.Finish()

	cp, err := wire.CopyMessage(m)
	if err != nil {
		t.Fatalf("CopyMessage: %v", err)
	}
	defer cp.Release()
	defer m.Release()

	if !bytes.Equal(m.Buffer().Bytes(), cp.Buffer().Bytes()) {
		t.Fatalf("copy does not encode identically")
	}

	origDec, _ := m.Decoder()
	var origFd int
	if err := origDec.ReadArgs("%z", &origFd); err != nil {
		t.Fatal(err)
	}
	cpDec, _ := cp.Decoder()
	var cpFd int
	if err := cpDec.ReadArgs("%z", &cpFd); err != nil {
		t.Fatal(err)
	}
	if origFd == cpFd {
		t.Fatalf("copy should have a distinct duplicated fd, got same fd %d twice", origFd)
	}

	var stOrig, stCp syscall.Stat_t
	if err := syscall.Fstat(origFd, &stOrig); err != nil {
		t.Fatal(err)
	}
	if err := syscall.Fstat(cpFd, &stCp); err != nil {
		t.Fatal(err)
	}
	if stOrig.Dev != stCp.Dev || stOrig.Ino != stCp.Ino {
		t.Fatalf("expected both fds to refer to the same underlying file")
	}
}

// TestDecode_TagMismatch_DoesNotAdvanceCursor checks that a decode call
// whose requested type disagrees with the stored tag leaves the cursor
// untouched, so the caller can retry with the right reader.
func TestDecode_TagMismatch_DoesNotAdvanceCursor(t *testing.T) {
	m := wire.NewMessage()
	_ = m.Init(1)
	enc, _ := m.Encoder()
	_ = enc.WriteU32(42)
	_ = m.Finish()

	dec, _ := m.Decoder()
	before := dec.Offset()
	if _, err := dec.ReadStr(); err != wire.ErrInvalidArgument {
		t.Fatalf("ReadStr on u32 tag = %v, want ErrInvalidArgument", err)
	}
	if dec.Offset() != before {
		t.Fatalf("cursor advanced on failed decode: before=%d after=%d", before, dec.Offset())
	}
	v, err := dec.ReadU32()
	if err != nil || v != 42 {
		t.Fatalf("ReadU32 after failed ReadStr = (%d, %v), want (42, nil)", v, err)
	}
}

// TestWriteAfterFinish_Fails checks that encoding after Finish is rejected.
func TestWriteAfterFinish_Fails(t *testing.T) {
	m := wire.NewMessage()
	_ = m.Init(1)
	_ = m.Finish()
	if _, err := m.Encoder(); err != wire.ErrPermissionAfterFinish {
		t.Fatalf("Encoder() after Finish = %v, want ErrPermissionAfterFinish", err)
	}
}

func TestWriteArgv_ParsesAndFails(t *testing.T) {
	m := wire.NewMessage()
	_ = m.Init(1)
	enc, _ := m.Encoder()
	if err := enc.WriteArgv("%d %llu", "-7", "9"); err != nil {
		t.Fatalf("WriteArgv: %v", err)
	}
	_ = m.Finish()

	dec, _ := m.Decoder()
	var i int32
	var u uint64
	if err := dec.ReadArgs("%d %llu", &i, &u); err != nil || i != -7 || u != 9 {
		t.Fatalf("got (%d, %d, %v), want (-7, 9, nil)", i, u, err)
	}

	bad := wire.NewMessage()
	_ = bad.Init(1)
	enc2, _ := bad.Encoder()
	if err := enc2.WriteArgv("%d", "not-a-number"); err != wire.ErrInvalidArgument {
		t.Fatalf("WriteArgv bad int = %v, want ErrInvalidArgument", err)
	}
}

func TestDump_RendersArgs(t *testing.T) {
	m, err := wire.WriteMsg(5, "%s%d", "hi", int32(-3))
	if err != nil {
		t.Fatal(err)
	}
	got := m.Dump()
	want := `id=5 "hi", -3`
	if got != want {
		t.Fatalf("Dump() = %q, want %q", got, want)
	}
}

func TestInvalidFormat_Fails(t *testing.T) {
	m := wire.NewMessage()
	_ = m.Init(1)
	enc, _ := m.Encoder()
	if err := enc.WriteArgs("%q", 1); err != wire.ErrInvalidFormat {
		t.Fatalf("WriteArgs with bad specifier = %v, want ErrInvalidFormat", err)
	}
}
