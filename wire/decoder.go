// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"io"
	"math"
)

// Decoder reads TLV-tagged arguments back out of a Buffer in the order they
// were written. A failed typed read (tag mismatch, truncated body) leaves
// the cursor unmoved so the caller can retry with the expected type or
// abort without having desynchronized the stream.
type Decoder struct {
	buf *Buffer
	off int
}

// NewDecoder returns a Decoder over buf's current bytes, starting at
// offset off (callers reading a Message's payload pass FrameHeaderLen).
func NewDecoder(buf *Buffer, off int) *Decoder { return &Decoder{buf: buf, off: off} }

// Offset returns the current read cursor.
func (d *Decoder) Offset() int { return d.off }

// More reports whether unread bytes remain.
func (d *Decoder) More() bool { return d.off < d.buf.Len() }

func (d *Decoder) peekTag() (Tag, error) {
	if d.off >= d.buf.Len() {
		return 0, io.EOF
	}
	return Tag(d.buf.Bytes()[d.off]), nil
}

func (d *Decoder) expect(want Tag) error {
	got, err := d.peekTag()
	if err != nil {
		return err
	}
	if got != want {
		return ErrInvalidArgument
	}
	return nil
}

func (d *Decoder) body(n int) ([]byte, error) {
	start := d.off + 1
	if start+n > d.buf.Len() {
		return nil, io.ErrUnexpectedEOF
	}
	return d.buf.Bytes()[start : start+n], nil
}

func (d *Decoder) ReadI8() (int8, error) {
	if err := d.expect(TagI8); err != nil {
		return 0, err
	}
	b, err := d.body(1)
	if err != nil {
		return 0, err
	}
	d.off += 1 + 1
	return int8(b[0]), nil
}

func (d *Decoder) ReadU8() (uint8, error) {
	if err := d.expect(TagU8); err != nil {
		return 0, err
	}
	b, err := d.body(1)
	if err != nil {
		return 0, err
	}
	d.off += 1 + 1
	return b[0], nil
}

func (d *Decoder) ReadI16() (int16, error) {
	if err := d.expect(TagI16); err != nil {
		return 0, err
	}
	b, err := d.body(2)
	if err != nil {
		return 0, err
	}
	d.off += 1 + 2
	return int16(binary.LittleEndian.Uint16(b)), nil
}

func (d *Decoder) ReadU16() (uint16, error) {
	if err := d.expect(TagU16); err != nil {
		return 0, err
	}
	b, err := d.body(2)
	if err != nil {
		return 0, err
	}
	d.off += 1 + 2
	return binary.LittleEndian.Uint16(b), nil
}

func (d *Decoder) ReadI32() (int32, error) {
	if err := d.expect(TagI32); err != nil {
		return 0, err
	}
	b, err := d.body(4)
	if err != nil {
		return 0, err
	}
	d.off += 1 + 4
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (d *Decoder) ReadU32() (uint32, error) {
	if err := d.expect(TagU32); err != nil {
		return 0, err
	}
	b, err := d.body(4)
	if err != nil {
		return 0, err
	}
	d.off += 1 + 4
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) ReadI64() (int64, error) {
	if err := d.expect(TagI64); err != nil {
		return 0, err
	}
	b, err := d.body(8)
	if err != nil {
		return 0, err
	}
	d.off += 1 + 8
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (d *Decoder) ReadU64() (uint64, error) {
	if err := d.expect(TagU64); err != nil {
		return 0, err
	}
	b, err := d.body(8)
	if err != nil {
		return 0, err
	}
	d.off += 1 + 8
	return binary.LittleEndian.Uint64(b), nil
}

func (d *Decoder) ReadF32() (float32, error) {
	if err := d.expect(TagF32); err != nil {
		return 0, err
	}
	b, err := d.body(4)
	if err != nil {
		return 0, err
	}
	d.off += 1 + 4
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

func (d *Decoder) ReadF64() (float64, error) {
	if err := d.expect(TagF64); err != nil {
		return 0, err
	}
	b, err := d.body(8)
	if err != nil {
		return 0, err
	}
	d.off += 1 + 8
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

func (d *Decoder) lenPrefixedBody() (tagLen int, dataStart int, err error) {
	lb, err := d.body(4)
	if err != nil {
		return 0, 0, err
	}
	n := int(binary.LittleEndian.Uint32(lb))
	dataStart = d.off + 1 + 4
	if dataStart+n > d.buf.Len() {
		return 0, 0, io.ErrUnexpectedEOF
	}
	return n, dataStart, nil
}

// ReadStr copies out a NUL-terminated string, returning it without the
// trailing NUL.
func (d *Decoder) ReadStr() (string, error) {
	if err := d.expect(TagStr); err != nil {
		return "", err
	}
	n, start, err := d.lenPrefixedBody()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", ErrInvalidArgument
	}
	raw := d.buf.Bytes()[start : start+n]
	d.off = start + n
	return string(raw[:n-1]), nil
}

// ReadCStr returns a string view into the Message's backing bytes, valid
// until the Message is released. It avoids copying.
func (d *Decoder) ReadCStr() (string, error) {
	if err := d.expect(TagStr); err != nil {
		return "", err
	}
	n, start, err := d.lenPrefixedBody()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", ErrInvalidArgument
	}
	d.off = start + n
	return unsafeString(d.buf.Bytes()[start : start+n-1]), nil
}

// ReadBuf copies out an opaque byte buffer.
func (d *Decoder) ReadBuf() ([]byte, error) {
	if err := d.expect(TagBuf); err != nil {
		return nil, err
	}
	n, start, err := d.lenPrefixedBody()
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, d.buf.Bytes()[start:start+n])
	d.off = start + n
	return out, nil
}

// ReadCBuf returns a view into the Message's backing bytes without copying.
func (d *Decoder) ReadCBuf() ([]byte, error) {
	if err := d.expect(TagBuf); err != nil {
		return nil, err
	}
	n, start, err := d.lenPrefixedBody()
	if err != nil {
		return nil, err
	}
	d.off = start + n
	return d.buf.Bytes()[start : start+n], nil
}

// ReadFd returns the fd stored at the decoded index. The fd is borrowed:
// it remains owned by the underlying Buffer and is closed when the Buffer
// is released. Callers that need it to outlive the message must dup it.
func (d *Decoder) ReadFd() (int, error) {
	if err := d.expect(TagFd); err != nil {
		return -1, err
	}
	b, err := d.body(4)
	if err != nil {
		return -1, err
	}
	index := int(binary.LittleEndian.Uint32(b))
	fd, err := d.buf.Fd(index)
	if err != nil {
		return -1, err
	}
	d.off += 1 + 4
	return fd, nil
}

// ReadArgs parses format and decodes values into dst, which must contain
// one pointer per specifier matching the specifier's natural Go type
// (*int8, *uint32, *string, *[]byte, *int for %z, ...).
func (d *Decoder) ReadArgs(format string, dst ...any) error {
	tags, err := ParseFormat(format)
	if err != nil {
		return err
	}
	if len(tags) != len(dst) {
		return ErrInvalidArgument
	}
	for i, tag := range tags {
		if err := d.readOne(tag, dst[i]); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) readOne(tag Tag, dst any) error {
	switch tag {
	case TagI8:
		p, ok := dst.(*int8)
		if !ok {
			return ErrInvalidArgument
		}
		v, err := d.ReadI8()
		if err == nil {
			*p = v
		}
		return err
	case TagU8:
		p, ok := dst.(*uint8)
		if !ok {
			return ErrInvalidArgument
		}
		v, err := d.ReadU8()
		if err == nil {
			*p = v
		}
		return err
	case TagI16:
		p, ok := dst.(*int16)
		if !ok {
			return ErrInvalidArgument
		}
		v, err := d.ReadI16()
		if err == nil {
			*p = v
		}
		return err
	case TagU16:
		p, ok := dst.(*uint16)
		if !ok {
			return ErrInvalidArgument
		}
		v, err := d.ReadU16()
		if err == nil {
			*p = v
		}
		return err
	case TagI32:
		p, ok := dst.(*int32)
		if !ok {
			return ErrInvalidArgument
		}
		v, err := d.ReadI32()
		if err == nil {
			*p = v
		}
		return err
	case TagU32:
		p, ok := dst.(*uint32)
		if !ok {
			return ErrInvalidArgument
		}
		v, err := d.ReadU32()
		if err == nil {
			*p = v
		}
		return err
	case TagI64:
		p, ok := dst.(*int64)
		if !ok {
			return ErrInvalidArgument
		}
		v, err := d.ReadI64()
		if err == nil {
			*p = v
		}
		return err
	case TagU64:
		p, ok := dst.(*uint64)
		if !ok {
			return ErrInvalidArgument
		}
		v, err := d.ReadU64()
		if err == nil {
			*p = v
		}
		return err
	case TagF32:
		p, ok := dst.(*float32)
		if !ok {
			return ErrInvalidArgument
		}
		v, err := d.ReadF32()
		if err == nil {
			*p = v
		}
		return err
	case TagF64:
		p, ok := dst.(*float64)
		if !ok {
			return ErrInvalidArgument
		}
		v, err := d.ReadF64()
		if err == nil {
			*p = v
		}
		return err
	case TagStr:
		p, ok := dst.(*string)
		if !ok {
			return ErrInvalidArgument
		}
		v, err := d.ReadStr()
		if err == nil {
			*p = v
		}
		return err
	case TagBuf:
		p, ok := dst.(*[]byte)
		if !ok {
			return ErrInvalidArgument
		}
		v, err := d.ReadBuf()
		if err == nil {
			*p = v
		}
		return err
	case TagFd:
		p, ok := dst.(*int)
		if !ok {
			return ErrInvalidArgument
		}
		v, err := d.ReadFd()
		if err == nil {
			*p = v
		}
		return err
	default:
		return ErrInvalidArgument
	}
}
