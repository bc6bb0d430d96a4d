// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import "strconv"

// WriteArgv parses format identically to WriteArgs, but each argument is
// supplied as a string and converted per the specifier (the Go analogue of
// strtoll/strtoull/strtod). A conversion failure reports ErrInvalidArgument.
func (e *Encoder) WriteArgv(format string, argv ...string) error {
	tags, err := ParseFormat(format)
	if err != nil {
		return err
	}
	if len(tags) != len(argv) {
		return ErrInvalidArgument
	}
	for i, tag := range tags {
		if err := e.writeArgvOne(tag, argv[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeArgvOne(tag Tag, s string) error {
	switch tag {
	case TagI8:
		v, err := strconv.ParseInt(s, 0, 8)
		if err != nil {
			return ErrInvalidArgument
		}
		return e.WriteI8(int8(v))
	case TagU8:
		v, err := strconv.ParseUint(s, 0, 8)
		if err != nil {
			return ErrInvalidArgument
		}
		return e.WriteU8(uint8(v))
	case TagI16:
		v, err := strconv.ParseInt(s, 0, 16)
		if err != nil {
			return ErrInvalidArgument
		}
		return e.WriteI16(int16(v))
	case TagU16:
		v, err := strconv.ParseUint(s, 0, 16)
		if err != nil {
			return ErrInvalidArgument
		}
		return e.WriteU16(uint16(v))
	case TagI32:
		v, err := strconv.ParseInt(s, 0, 32)
		if err != nil {
			return ErrInvalidArgument
		}
		return e.WriteI32(int32(v))
	case TagU32:
		v, err := strconv.ParseUint(s, 0, 32)
		if err != nil {
			return ErrInvalidArgument
		}
		return e.WriteU32(uint32(v))
	case TagI64:
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return ErrInvalidArgument
		}
		return e.WriteI64(v)
	case TagU64:
		v, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return ErrInvalidArgument
		}
		return e.WriteU64(v)
	case TagF32:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return ErrInvalidArgument
		}
		return e.WriteF32(float32(v))
	case TagF64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return ErrInvalidArgument
		}
		return e.WriteF64(v)
	case TagStr:
		return e.WriteStr(s)
	case TagBuf:
		return e.WriteBuf([]byte(s))
	case TagFd:
		v, err := strconv.Atoi(s)
		if err != nil {
			return ErrInvalidArgument
		}
		return e.WriteFd(v)
	default:
		return ErrInvalidArgument
	}
}
