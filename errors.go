// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pomp

import (
	"errors"

	"code.hybscloud.com/pomp/reactor"
	"code.hybscloud.com/pomp/transport"
	"code.hybscloud.com/pomp/wire"
)

var (
	// ErrNotConnected reports SendMsg on a client Context with no active
	// connection, or Connection called when no Connection is live.
	ErrNotConnected = errors.New("pomp: not connected")

	// ErrBusy reports Listen/Connect/Bind called on a Context that already
	// owns a listener or client connection.
	ErrBusy = errors.New("pomp: already started")

	// ErrAlreadyRegistered is reactor.ErrAlreadyRegistered, surfaced at the
	// Context boundary for callers that only import the root package.
	ErrAlreadyRegistered = reactor.ErrAlreadyRegistered

	// ErrNotFound is reactor.ErrNotFound, surfaced at the Context boundary.
	ErrNotFound = reactor.ErrNotFound

	// ErrMessageTooLarge is transport.ErrMessageTooLarge, surfaced at the
	// Context boundary.
	ErrMessageTooLarge = transport.ErrMessageTooLarge

	// ErrProtocol is transport.ErrProtocol, surfaced at the Context
	// boundary.
	ErrProtocol = transport.ErrProtocol

	// ErrPermissionAfterFinish is wire.ErrPermissionAfterFinish, surfaced
	// at the Context boundary.
	ErrPermissionAfterFinish = wire.ErrPermissionAfterFinish

	// ErrOperationNotSupported reports an operation the Context's kind or
	// the platform cannot perform: Listen, Connect or Bind on a Context of
	// another Kind, or GetFD on the portable poll backend. Peer-credential
	// and fd-passing refusals come from the Connection as
	// transport.ErrNotSupported.
	ErrOperationNotSupported = errors.New("pomp: operation not supported")

	// ErrClosed reports an operation attempted after Destroy.
	ErrClosed = errors.New("pomp: context closed")
)
