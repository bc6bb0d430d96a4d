//go:build !amd64 && !arm64 && !386 && !riscv64 && !ppc64le && !mips64le && !mipsle && !loong64 && !wasm && !arm && !s390x && !ppc64 && !mips && !mips64

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bo

import (
	"encoding/binary"
	"unsafe"
)

// probeHostOrder runs the classic two-byte unsafe.Pointer trick once at
// init time, for the handful of Go ports neither byteorder_le.go nor
// byteorder_be.go names outright.
func probeHostOrder() binary.ByteOrder {
	var x uint16 = 0x0102
	b := *(*[2]byte)(unsafe.Pointer(&x))
	if b[0] == 0x01 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

var hostOrder = probeHostOrder()

// Native returns the probed host byte order for an epoll backend running
// on a port this package doesn't special-case by name.
func Native() binary.ByteOrder { return hostOrder }
