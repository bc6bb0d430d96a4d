// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package transport

import "golang.org/x/sys/unix"

// Ucred is the identity of the process on the other end of a Unix domain
// socket, as reported by the kernel at connect/accept time.
type Ucred struct {
	PID int32
	UID uint32
	GID uint32
}

func getPeerCred(fd int) (*Ucred, error) {
	u, err := unix.GetsockoptUcred(fd, unix.SOL_SOCKET, unix.SO_PEERCRED)
	if err != nil {
		return nil, err
	}
	return &Ucred{PID: u.Pid, UID: u.Uid, GID: u.Gid}, nil
}
