// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package transport

// Ucred is the identity of the process on the other end of a Unix domain
// socket. Only the Linux SO_PEERCRED form is implemented; other unix
// targets use differently shaped mechanisms (e.g. LOCAL_PEERCRED) that are
// out of scope here.
type Ucred struct {
	PID int32
	UID uint32
	GID uint32
}

func getPeerCred(fd int) (*Ucred, error) {
	return nil, ErrNotSupported
}
