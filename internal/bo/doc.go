// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package bo provides native byte order selection.
//
// Implementation is architecture-specific via build tags where commonly known,
// and falls back to a portable runtime detection elsewhere.
//
// pomp's wire format (see package wire) is always little-endian regardless of
// host architecture, so this package is not used there. The reactor package's
// epoll backend uses it to encode the 8-byte counter it writes to its wakeup
// eventfd, which the kernel ABI defines to be in native order.
package bo
