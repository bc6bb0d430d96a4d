// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"math"
)

// Encoder appends TLV-tagged arguments to a Buffer. It has no state of its
// own beyond the Buffer it writes into; the finished/writable bookkeeping
// lives on Message, which is the only type that constructs one.
type Encoder struct {
	buf *Buffer
}

// NewEncoder returns an Encoder that appends arguments to buf.
func NewEncoder(buf *Buffer) *Encoder { return &Encoder{buf: buf} }

func (e *Encoder) putTag(t Tag) { e.buf.Append([]byte{byte(t)}) }

func (e *Encoder) WriteI8(v int8) error {
	e.putTag(TagI8)
	e.buf.Append([]byte{byte(v)})
	return nil
}

func (e *Encoder) WriteU8(v uint8) error {
	e.putTag(TagU8)
	e.buf.Append([]byte{v})
	return nil
}

func (e *Encoder) WriteI16(v int16) error {
	e.putTag(TagI16)
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(v))
	e.buf.Append(b[:])
	return nil
}

func (e *Encoder) WriteU16(v uint16) error {
	e.putTag(TagU16)
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf.Append(b[:])
	return nil
}

func (e *Encoder) WriteI32(v int32) error {
	e.putTag(TagI32)
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	e.buf.Append(b[:])
	return nil
}

func (e *Encoder) WriteU32(v uint32) error {
	e.putTag(TagU32)
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Append(b[:])
	return nil
}

func (e *Encoder) WriteI64(v int64) error {
	e.putTag(TagI64)
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	e.buf.Append(b[:])
	return nil
}

func (e *Encoder) WriteU64(v uint64) error {
	e.putTag(TagU64)
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Append(b[:])
	return nil
}

func (e *Encoder) WriteF32(v float32) error {
	e.putTag(TagF32)
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	e.buf.Append(b[:])
	return nil
}

func (e *Encoder) WriteF64(v float64) error {
	e.putTag(TagF64)
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	e.buf.Append(b[:])
	return nil
}

// WriteStr writes a NUL-terminated, length-prefixed (length includes the
// NUL) UTF-8 string.
func (e *Encoder) WriteStr(v string) error {
	body := make([]byte, 0, len(v)+1)
	body = append(body, v...)
	body = append(body, 0)
	if len(body) > math.MaxUint32 {
		return ErrTooLong
	}
	e.putTag(TagStr)
	var lb [4]byte
	binary.LittleEndian.PutUint32(lb[:], uint32(len(body)))
	e.buf.Append(lb[:])
	e.buf.Append(body)
	return nil
}

// WriteBuf writes a length-prefixed opaque byte buffer.
func (e *Encoder) WriteBuf(v []byte) error {
	if len(v) > math.MaxUint32 {
		return ErrTooLong
	}
	e.putTag(TagBuf)
	var lb [4]byte
	binary.LittleEndian.PutUint32(lb[:], uint32(len(v)))
	e.buf.Append(lb[:])
	e.buf.Append(v)
	return nil
}

// WriteFd dups fd into the Buffer's ancillary fd list and writes its index
// as the TLV body. Buffer.Release closes the dup'd fd when the Buffer's
// last reference drops.
func (e *Encoder) WriteFd(fd int) error {
	index, err := e.buf.AppendFd(fd)
	if err != nil {
		return err
	}
	e.putTag(TagFd)
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(index))
	e.buf.Append(b[:])
	return nil
}

// WriteArgs parses format and encodes args in order, one TLV argument per
// recognized specifier. See ParseFormat for the specifier grammar.
func (e *Encoder) WriteArgs(format string, args ...any) error {
	tags, err := ParseFormat(format)
	if err != nil {
		return err
	}
	if len(tags) != len(args) {
		return ErrInvalidArgument
	}
	for i, tag := range tags {
		if err := e.writeOne(tag, args[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeOne(tag Tag, arg any) error {
	switch tag {
	case TagI8:
		v, ok := arg.(int8)
		if !ok {
			return ErrInvalidArgument
		}
		return e.WriteI8(v)
	case TagU8:
		v, ok := arg.(uint8)
		if !ok {
			return ErrInvalidArgument
		}
		return e.WriteU8(v)
	case TagI16:
		v, ok := arg.(int16)
		if !ok {
			return ErrInvalidArgument
		}
		return e.WriteI16(v)
	case TagU16:
		v, ok := arg.(uint16)
		if !ok {
			return ErrInvalidArgument
		}
		return e.WriteU16(v)
	case TagI32:
		switch v := arg.(type) {
		case int32:
			return e.WriteI32(v)
		case int:
			return e.WriteI32(int32(v))
		default:
			return ErrInvalidArgument
		}
	case TagU32:
		switch v := arg.(type) {
		case uint32:
			return e.WriteU32(v)
		case uint:
			return e.WriteU32(uint32(v))
		default:
			return ErrInvalidArgument
		}
	case TagI64:
		switch v := arg.(type) {
		case int64:
			return e.WriteI64(v)
		case int:
			return e.WriteI64(int64(v))
		default:
			return ErrInvalidArgument
		}
	case TagU64:
		switch v := arg.(type) {
		case uint64:
			return e.WriteU64(v)
		case uint:
			return e.WriteU64(uint64(v))
		default:
			return ErrInvalidArgument
		}
	case TagF32:
		v, ok := arg.(float32)
		if !ok {
			return ErrInvalidArgument
		}
		return e.WriteF32(v)
	case TagF64:
		v, ok := arg.(float64)
		if !ok {
			return ErrInvalidArgument
		}
		return e.WriteF64(v)
	case TagStr:
		v, ok := arg.(string)
		if !ok {
			return ErrInvalidArgument
		}
		return e.WriteStr(v)
	case TagBuf:
		v, ok := arg.([]byte)
		if !ok {
			return ErrInvalidArgument
		}
		return e.WriteBuf(v)
	case TagFd:
		switch v := arg.(type) {
		case int:
			return e.WriteFd(v)
		case uintptr:
			return e.WriteFd(int(v))
		default:
			return ErrInvalidArgument
		}
	default:
		return ErrInvalidArgument
	}
}
