// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtx

import "code.hybscloud.com/rtx/internal/kern"

// IsrQueue is the interrupt-safe view of a Queue, obtained from
// ForISR. It shares the kernel queue with the owning Queue and holds
// nothing itself, so the view may be copied freely.
//
// Every operation is non-blocking and non-allocating. Operations that
// can release a parked task report it through a HigherPriorityTaskWoken
// flag; the handler passes its collected flags to Yield on exit.
//
// Example:
//
//	isr := q.ForISR()
//
//	func onInterrupt(sample int32) {
//		woken, _ := isr.Send(sample)
//		rtx.Yield(woken)
//	}
type IsrQueue[T any] struct {
	ring *kern.Queue[T]
}

// Send enqueues at the back without waiting. It is an alias of
// SendToBack.
func (q IsrQueue[T]) Send(item T) (HigherPriorityTaskWoken, bool) {
	return q.ring.TrySendBack(item)
}

// SendToBack enqueues at the back without waiting. ok is false when
// the queue is full.
func (q IsrQueue[T]) SendToBack(item T) (HigherPriorityTaskWoken, bool) {
	return q.ring.TrySendBack(item)
}

// SendToFront enqueues at the front without waiting. ok is false when
// the queue is full.
func (q IsrQueue[T]) SendToFront(item T) (HigherPriorityTaskWoken, bool) {
	return q.ring.TrySendFront(item)
}

// Receive dequeues from the front without waiting. ok is false when
// the queue is empty; woken reports a sender freed by the vacated
// slot.
func (q IsrQueue[T]) Receive() (item T, woken HigherPriorityTaskWoken, ok bool) {
	return q.ring.TryReceive()
}

// Peek copies the front item without removing it or waiting. Peeking
// frees no slot, so woken is always false; it is returned for symmetry
// with Receive.
func (q IsrQueue[T]) Peek() (item T, woken HigherPriorityTaskWoken, ok bool) {
	item, ok = q.ring.TryPeek()
	return item, false, ok
}

// Overwrite writes the item even when the queue is full, replacing
// whatever is there. Capacity-1 queues only; any other capacity
// panics.
func (q IsrQueue[T]) Overwrite(item T) HigherPriorityTaskWoken {
	if q.ring.Cap() != 1 {
		panic("rtx: overwrite requires a capacity-1 queue")
	}
	_, _, woken := q.ring.Overwrite(item)
	return woken
}

// MessagesWaiting returns the number of items in the queue.
func (q IsrQueue[T]) MessagesWaiting() int {
	return q.ring.Len()
}

// IsEmpty reports whether no items are waiting.
func (q IsrQueue[T]) IsEmpty() bool {
	return q.ring.Len() == 0
}

// IsFull reports whether no space remains.
func (q IsrQueue[T]) IsFull() bool {
	return q.ring.Free() == 0
}
