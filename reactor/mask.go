// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor

// Mask is a bitmask of readiness conditions a Loop watches a file
// descriptor for.
type Mask uint32

const (
	// In fires when the fd is ready for reading (or a listening socket has
	// a connection to accept).
	In Mask = 1 << iota
	// Out fires when the fd is ready for writing without blocking.
	Out
)

func (m Mask) has(bit Mask) bool { return m&bit != 0 }
