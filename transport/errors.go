// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import "errors"

var (
	// ErrNotConnected reports Send on a client Connection with no active
	// transport.
	ErrNotConnected = errors.New("transport: not connected")

	// ErrMessageTooLarge reports a frame header declaring a size above the
	// configured MaxMsgLen; the connection is disconnected, not repaired.
	ErrMessageTooLarge = errors.New("transport: message too large")

	// ErrProtocol reports a malformed frame (bad magic) on a stream
	// connection; the connection is disconnected.
	ErrProtocol = errors.New("transport: protocol error")

	// ErrNotSupported reports an attempt to send a message carrying fds
	// over a non-Unix transport.
	ErrNotSupported = errors.New("transport: operation not supported")

	// ErrClosed reports an operation on a Connection that has already
	// reached StateClosed.
	ErrClosed = errors.New("transport: connection closed")
)
