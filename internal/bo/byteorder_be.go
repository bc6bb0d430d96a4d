//go:build s390x || ppc64 || mips || mips64

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bo

import "encoding/binary"

// Native returns binary.BigEndian on the big-endian Linux ports listed in
// the build tag above (s390x, ppc64, mips, mips64): pomp's epoll backend
// still runs on these, and the eventfd counter it reads/writes is laid
// out by the kernel in host order, not wire order.
func Native() binary.ByteOrder { return binary.BigEndian }
