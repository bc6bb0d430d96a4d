//go:build amd64 || arm64 || 386 || riscv64 || ppc64le || mips64le || mipsle || loong64 || wasm || arm

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bo

import "encoding/binary"

// Native returns binary.LittleEndian on the little-endian ports listed in
// the build tag above. pomp's epoll backend reads/writes its eventfd
// wakeup counter in this order on these architectures; the 8-byte value
// is a kernel ABI detail, unrelated to the always-little-endian wire
// format in package wire.
func Native() binary.ByteOrder { return binary.LittleEndian }
