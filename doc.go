// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pomp implements a printf-style message-passing protocol for
// local and networked IPC: a length-prefixed, typed TLV wire format
// (pomp/wire), a single-threaded reactor loop for driving many
// connections off one goroutine (pomp/reactor), and the connection state
// machines for stream, datagram, and Unix-domain transports
// (pomp/transport). Context ties the three together into the client,
// server, and datagram-peer roles applications actually construct.
package pomp
