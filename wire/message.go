// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"math"
)

// Message is a frame header plus its encoded TLV payload, backed by a
// Buffer. A Message is writable until Finish stamps the header and makes
// it read-only; attempts to encode further then fail with
// ErrPermissionAfterFinish.
type Message struct {
	buf      *Buffer
	msgID    uint32
	finished bool
}

// NewMessage returns an empty, writable Message. Init must be called
// before encoding arguments.
func NewMessage() *Message { return &Message{} }

// Init starts encoding a new message with the given id, writing a header
// placeholder that Finish later rewrites with the true size.
func (m *Message) Init(msgID uint32) error {
	m.buf = NewBuffer(FrameHeaderLen + 32)
	m.buf.Append(make([]byte, FrameHeaderLen))
	m.msgID = msgID
	m.finished = false
	return nil
}

// Encoder returns an Encoder appending arguments to this message. It is an
// error to use the returned Encoder after Finish.
func (m *Message) Encoder() (*Encoder, error) {
	if m.finished {
		return nil, ErrPermissionAfterFinish
	}
	if m.buf == nil {
		return nil, ErrInvalidArgument
	}
	return NewEncoder(m.buf), nil
}

// Decoder returns a Decoder over this message's payload, positioned after
// the frame header.
func (m *Message) Decoder() (*Decoder, error) {
	if m.buf == nil {
		return nil, ErrInvalidArgument
	}
	return NewDecoder(m.buf, FrameHeaderLen), nil
}

// Finish stamps the frame header (magic, msgid, size) and makes the
// message read-only.
func (m *Message) Finish() error {
	if m.buf == nil {
		return ErrInvalidArgument
	}
	if m.finished {
		return ErrPermissionAfterFinish
	}
	if m.buf.Len() < FrameHeaderLen {
		return ErrInvalidArgument
	}
	if uint64(m.buf.Len()) > math.MaxUint32 {
		return ErrTooLong
	}
	hdr := m.buf.Bytes()[:FrameHeaderLen]
	binary.LittleEndian.PutUint32(hdr[0:4], FrameMagic)
	binary.LittleEndian.PutUint32(hdr[4:8], m.msgID)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(m.buf.Len()))
	m.finished = true
	return nil
}

// Clear drops the current buffer, allowing the Message to be reused for a
// fresh Init/encode/Finish cycle.
func (m *Message) Clear() {
	if m.buf != nil {
		m.buf.Release()
	}
	m.buf = nil
	m.msgID = 0
	m.finished = false
}

// WriteMsg is the one-shot convenience: Init + format-string encode +
// Finish.
func WriteMsg(msgID uint32, format string, args ...any) (*Message, error) {
	m := NewMessage()
	if err := m.Init(msgID); err != nil {
		return nil, err
	}
	enc, err := m.Encoder()
	if err != nil {
		return nil, err
	}
	if err := enc.WriteArgs(format, args...); err != nil {
		return nil, err
	}
	if err := m.Finish(); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteMsgv is WriteMsg's argv-string variant, see Encoder.WriteArgv.
func WriteMsgv(msgID uint32, format string, argv ...string) (*Message, error) {
	m := NewMessage()
	if err := m.Init(msgID); err != nil {
		return nil, err
	}
	enc, err := m.Encoder()
	if err != nil {
		return nil, err
	}
	if err := enc.WriteArgv(format, argv...); err != nil {
		return nil, err
	}
	if err := m.Finish(); err != nil {
		return nil, err
	}
	return m, nil
}

// CopyMessage duplicates m's bytes and dups every fd it carries. The
// source message is untouched and independently owned by its caller.
func CopyMessage(m *Message) (*Message, error) {
	if m.buf == nil {
		return nil, ErrInvalidArgument
	}
	cp, err := NewBufferCopy(m.buf)
	if err != nil {
		return nil, err
	}
	return &Message{buf: cp, msgID: m.msgID, finished: m.finished}, nil
}

// MsgID returns the message's 32-bit identifier.
func (m *Message) MsgID() uint32 { return m.msgID }

// Finished reports whether Finish has been called.
func (m *Message) Finished() bool { return m.finished }

// Buffer returns the backing Buffer, e.g. for handing to a connection's
// write queue. The Buffer is owned by the Message; callers that enqueue it
// elsewhere should Retain it.
func (m *Message) Buffer() *Buffer { return m.buf }

// Len returns the total encoded size, header included.
func (m *Message) Len() int {
	if m.buf == nil {
		return 0
	}
	return m.buf.Len()
}

// Dump renders a human-readable "id=<msgid> <arg>, ..." summary of the
// message's arguments.
func (m *Message) Dump() string {
	if m.buf == nil {
		return ""
	}
	return Dump(m.msgID, m.buf, FrameHeaderLen)
}

// Release drops the Message's reference to its backing Buffer, closing any
// fds it still owns once the last reference is gone (e.g. once every
// broadcast recipient has also released its copy).
func (m *Message) Release() {
	if m.buf != nil {
		m.buf.Release()
		m.buf = nil
	}
}

// FromFrame wraps an already-framed (header included) and decoded byte
// slice plus its ancillary fds into a finished, read-only Message, for use
// by Connection after it has parsed a complete frame off the wire.
func FromFrame(msgID uint32, buf *Buffer) *Message {
	return &Message{buf: buf, msgID: msgID, finished: true}
}
