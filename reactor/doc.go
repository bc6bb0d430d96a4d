// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package reactor implements a single-threaded, cooperative event loop:
// file-descriptor readiness dispatch plus oneshot/periodic timers, safely
// wakeable from another goroutine or a signal handler.
//
// The loop prefers epoll on Linux and falls back to a portable poll(2)
// based backend elsewhere. Callers never see the split: Loop exposes one
// API regardless of which backend is compiled in.
package reactor
