// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor

import "errors"

var (
	// ErrAlreadyRegistered reports Add on an fd already present in the loop.
	ErrAlreadyRegistered = errors.New("reactor: fd already registered")

	// ErrNotFound reports Update or Remove on an fd absent from the loop.
	ErrNotFound = errors.New("reactor: fd not found")

	// ErrTimedOut reports that WaitAndProcess returned with no fd callback,
	// timer callback, or Wakeup to handle.
	ErrTimedOut = errors.New("reactor: wait timed out")

	// ErrClosed reports an operation on a Loop that has been closed.
	ErrClosed = errors.New("reactor: loop closed")

	// ErrNotSupported reports GetFD on a backend with no externally
	// composable descriptor (the portable poll backend).
	ErrNotSupported = errors.New("reactor: operation not supported")
)
