// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// maxDumpLen caps the rendered string so a pathological message can't blow
// up a log line; Dump truncates with a trailing "..." when it does.
const maxDumpLen = 2048

// maxDumpBufBytes is how many leading payload bytes Dump renders for a buf
// argument before eliding the rest.
const maxDumpBufBytes = 32

// Dump renders a human-readable "id=<msgid> <arg>, <arg>, ..." string for
// the TLV arguments starting at off in buf. Tags are self-describing, so no
// format string is needed to walk them.
func Dump(msgID uint32, buf *Buffer, off int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "id=%d", msgID)

	d := NewDecoder(buf, off)
	first := true
	for d.More() {
		tag, err := d.peekTag()
		if err != nil {
			break
		}
		arg, err := dumpOne(d, tag)
		if err != nil {
			sb.WriteString(" <decode error>")
			break
		}
		if first {
			sb.WriteString(" ")
			first = false
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(arg)
		if sb.Len() > maxDumpLen {
			break
		}
	}

	out := sb.String()
	if len(out) > maxDumpLen {
		out = out[:maxDumpLen] + "..."
	}
	return out
}

func dumpOne(d *Decoder, tag Tag) (string, error) {
	switch tag {
	case TagI8:
		v, err := d.ReadI8()
		return strconv.FormatInt(int64(v), 10), err
	case TagU8:
		v, err := d.ReadU8()
		return strconv.FormatUint(uint64(v), 10), err
	case TagI16:
		v, err := d.ReadI16()
		return strconv.FormatInt(int64(v), 10), err
	case TagU16:
		v, err := d.ReadU16()
		return strconv.FormatUint(uint64(v), 10), err
	case TagI32:
		v, err := d.ReadI32()
		return strconv.FormatInt(int64(v), 10), err
	case TagU32:
		v, err := d.ReadU32()
		return strconv.FormatUint(uint64(v), 10), err
	case TagI64:
		v, err := d.ReadI64()
		return strconv.FormatInt(v, 10), err
	case TagU64:
		v, err := d.ReadU64()
		return strconv.FormatUint(v, 10), err
	case TagF32:
		v, err := d.ReadF32()
		return strconv.FormatFloat(float64(v), 'g', -1, 32), err
	case TagF64:
		v, err := d.ReadF64()
		return strconv.FormatFloat(v, 'g', -1, 64), err
	case TagStr:
		v, err := d.ReadStr()
		return strconv.Quote(v), err
	case TagBuf:
		v, err := d.ReadBuf()
		if err != nil {
			return "", err
		}
		shown := v
		more := ""
		if len(shown) > maxDumpBufBytes {
			shown = shown[:maxDumpBufBytes]
			more = "..."
		}
		return fmt.Sprintf("hex(%d):%x%s", len(v), shown, more), nil
	case TagFd:
		v, err := d.ReadFd()
		return fmt.Sprintf("fd=%d", v), err
	default:
		return "", ErrInvalidArgument
	}
}
