// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package reactor

import (
	"container/heap"
	"time"
)

// timerEntry is one scheduled deadline in the loop's min-heap. A Timer
// owns at most one live entry at a time; re-arming removes the old entry
// (via the index bookkeeping below) and pushes a fresh one.
type timerEntry struct {
	deadline time.Time
	period   time.Duration // zero: oneshot
	timer    *Timer
	index    int // heap.Interface bookkeeping, -1 when not in the heap
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	return h[i].deadline.Before(h[j].deadline)
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// removeEntry drops e from the heap if it is still scheduled.
func removeEntry(h *timerHeap, e *timerEntry) {
	if e.index < 0 || e.index >= h.Len() {
		return
	}
	heap.Remove(h, e.index)
}
