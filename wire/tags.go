// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

// Tag identifies the type of one TLV argument on the wire.
type Tag byte

const (
	TagI8  Tag = 0x01
	TagU8  Tag = 0x02
	TagI16 Tag = 0x03
	TagU16 Tag = 0x04
	TagI32 Tag = 0x05
	TagU32 Tag = 0x06
	TagI64 Tag = 0x07
	TagU64 Tag = 0x08
	TagStr Tag = 0x09
	TagBuf Tag = 0x0A
	TagF32 Tag = 0x0B
	TagF64 Tag = 0x0C
	TagFd  Tag = 0x0D
)

func (t Tag) String() string {
	switch t {
	case TagI8:
		return "i8"
	case TagU8:
		return "u8"
	case TagI16:
		return "i16"
	case TagU16:
		return "u16"
	case TagI32:
		return "i32"
	case TagU32:
		return "u32"
	case TagI64:
		return "i64"
	case TagU64:
		return "u64"
	case TagStr:
		return "str"
	case TagBuf:
		return "buf"
	case TagF32:
		return "f32"
	case TagF64:
		return "f64"
	case TagFd:
		return "fd"
	default:
		return "unknown"
	}
}

// Frame header constants.
const (
	FrameMagic       uint32 = 0x504F4D50
	FrameHeaderLen          = 12
	DefaultMaxMsgLen        = 1 << 24 // MAX_MSG
)
