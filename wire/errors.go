// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"errors"
)

var (
	// ErrInvalidArgument reports arguments whose count or Go types do not
	// match the format string, an argv value that fails to parse, or a
	// decode whose requested type disagrees with the stored tag.
	ErrInvalidArgument = errors.New("wire: invalid argument")

	// ErrInvalidFormat reports an unrecognized printf-style specifier.
	ErrInvalidFormat = errors.New("wire: invalid format")

	// ErrTooLong reports a string/buffer length, or total payload size, that
	// exceeds the encoding's length-prefix capacity.
	ErrTooLong = errors.New("wire: value too long")

	// ErrPermissionAfterFinish reports a write attempted on a Message that has
	// already been finished.
	ErrPermissionAfterFinish = errors.New("wire: message already finished")

	// ErrNotSupported names an operation unsupported on a Buffer. No function
	// in this package returns it; fd-over-non-Unix refusals come from
	// package transport as transport.ErrNotSupported.
	ErrNotSupported = errors.New("wire: operation not supported")
)
