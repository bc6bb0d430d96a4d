// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import "strings"

// fdSpecifier is the dedicated printf-alike specifier pomp uses for file
// descriptor arguments. Older printf-alike wire formats left this
// ambiguous (a bare "%x" collides with the u32 specifier already used for
// hex-formatted unsigned integers); pomp resolves it with an unambiguous
// one-letter specifier that the C family never assigns to a conversion of
// its own.
const fdSpecifier = "z"

// token maps one printf-alike specifier body (the text following '%',
// excluding the '%' itself) to the TLV tag it produces.
type token struct {
	body string
	tag  Tag
}

// tokens is grouped by length modifier only for readability; none of the
// bodies is a prefix of another, so matching order does not change results.
var tokens = []token{
	{"hhd", TagI8}, {"hhi", TagI8},
	{"hhu", TagU8}, {"hhx", TagU8}, {"hho", TagU8},
	{"hd", TagI16}, {"hi", TagI16},
	{"hu", TagU16}, {"hx", TagU16}, {"ho", TagU16},
	{"lld", TagI64}, {"lli", TagI64},
	{"llu", TagU64}, {"llx", TagU64}, {"llo", TagU64},
	{"ld", TagI32}, {"li", TagI32},
	{"lu", TagU32}, {"lx", TagU32}, {"lo", TagU32},
	{"lf", TagF64}, {"lF", TagF64}, {"lg", TagF64}, {"lG", TagF64}, {"le", TagF64}, {"lE", TagF64},
	{"ms", TagStr},
	{"d", TagI32}, {"i", TagI32},
	{"u", TagU32}, {"x", TagU32}, {"o", TagU32},
	{"f", TagF32}, {"F", TagF32}, {"g", TagF32}, {"G", TagF32}, {"e", TagF32}, {"E", TagF32},
	{"s", TagStr},
	{fdSpecifier, TagFd},
}

// ParseFormat scans a pomp format string and returns the ordered sequence
// of TLV tags it describes. "%p" must be followed immediately by "%u" and
// together they produce one TagBuf entry (pointer+size, collapsed to a
// single []byte argument on the Go side). "%%" is a literal percent and
// produces no argument. Any other unrecognized specifier is ErrInvalidFormat.
func ParseFormat(format string) ([]Tag, error) {
	var tags []Tag
	i := 0
	for i < len(format) {
		if format[i] != '%' {
			i++
			continue
		}
		i++
		if i >= len(format) {
			return nil, ErrInvalidFormat
		}
		if format[i] == '%' {
			i++
			continue
		}
		if format[i] == 'p' {
			if !strings.HasPrefix(format[i:], "p%u") {
				return nil, ErrInvalidFormat
			}
			tags = append(tags, TagBuf)
			i += len("p%u")
			continue
		}
		matched := false
		for _, tk := range tokens {
			if strings.HasPrefix(format[i:], tk.body) {
				tags = append(tags, tk.tag)
				i += len(tk.body)
				matched = true
				break
			}
		}
		if !matched {
			return nil, ErrInvalidFormat
		}
	}
	return tags, nil
}
