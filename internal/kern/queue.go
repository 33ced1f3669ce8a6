// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kern

import (
	"sync"
	"time"
)

// Queue is a bounded ring of fixed-size slots with blocking and
// non-blocking transfer at both ends. It is the kernel IPC primitive
// the typed facade builds on: payloads move by shallow slot copy,
// blocked senders and receivers park on the ring's wait lists, and the
// non-blocking forms report whether they released a parked peer.
//
// Timeout convention, used by every blocking primitive in this
// package: negative waits forever, zero polls, positive bounds the
// wait. Callers quantize timeouts to ticks before they get here.
//
// A woken waiter re-checks the ring state before acting, so a wake
// that raced with a timeout is never lost: the state check wins and
// the expired deadline is ignored, matching the event-list behavior of
// the kernel this models.
type Queue[S any] struct {
	mu    sync.Mutex
	buf   []S
	head  int // next slot to receive from
	count int
	recvW waitList
	sendW waitList
}

// NewQueue creates a queue with exactly capacity slots. Capacity is
// not rounded: the facade exposes it through its space accounting and
// the single-slot overwrite contract depends on it.
func NewQueue[S any](capacity int) *Queue[S] {
	if capacity < 1 {
		panic("kern: queue capacity must be >= 1")
	}
	return &Queue[S]{buf: make([]S, capacity)}
}

// Cap returns the slot count.
func (q *Queue[S]) Cap() int {
	return len(q.buf)
}

// Len returns the number of occupied slots.
func (q *Queue[S]) Len() int {
	q.mu.Lock()
	n := q.count
	q.mu.Unlock()
	return n
}

// Free returns the number of vacant slots.
func (q *Queue[S]) Free() int {
	q.mu.Lock()
	n := len(q.buf) - q.count
	q.mu.Unlock()
	return n
}

// SendBack enqueues at the tail, waiting up to timeout for space.
func (q *Queue[S]) SendBack(item S, timeout time.Duration) bool {
	return q.send(item, false, timeout)
}

// SendFront enqueues at the head, ahead of everything already queued.
func (q *Queue[S]) SendFront(item S, timeout time.Duration) bool {
	return q.send(item, true, timeout)
}

func (q *Queue[S]) send(item S, front bool, timeout time.Duration) bool {
	d := makeDeadline(timeout)
	q.mu.Lock()
	for {
		if q.count < len(q.buf) {
			q.put(item, front)
			q.recvW.wakeOne()
			q.mu.Unlock()
			return true
		}
		if timeout == 0 || d.expired() {
			q.mu.Unlock()
			return false
		}
		w := q.sendW.park()
		q.mu.Unlock()
		ok := w.await(d)
		q.mu.Lock()
		if !ok && !w.notified {
			q.sendW.remove(w)
			q.mu.Unlock()
			return false
		}
		// Woken: space was free when the wake was sent. Re-check, it
		// may have been taken again.
	}
}

// Receive dequeues from the head, waiting up to timeout for an item.
func (q *Queue[S]) Receive(timeout time.Duration) (S, bool) {
	d := makeDeadline(timeout)
	q.mu.Lock()
	for {
		if q.count > 0 {
			item := q.take()
			q.sendW.wakeOne()
			q.mu.Unlock()
			return item, true
		}
		if timeout == 0 || d.expired() {
			q.mu.Unlock()
			var zero S
			return zero, false
		}
		w := q.recvW.park()
		q.mu.Unlock()
		ok := w.await(d)
		q.mu.Lock()
		if !ok && !w.notified {
			q.recvW.remove(w)
			q.mu.Unlock()
			var zero S
			return zero, false
		}
	}
}

// Peek copies the head item without removing it, waiting up to timeout
// for one to arrive. Because the item stays queued, a successful peek
// passes its wake on so a receiver parked behind the peeker is not
// starved.
func (q *Queue[S]) Peek(timeout time.Duration) (S, bool) {
	d := makeDeadline(timeout)
	q.mu.Lock()
	for {
		if q.count > 0 {
			item := q.buf[q.head]
			q.recvW.wakeOne()
			q.mu.Unlock()
			return item, true
		}
		if timeout == 0 || d.expired() {
			q.mu.Unlock()
			var zero S
			return zero, false
		}
		w := q.recvW.park()
		q.mu.Unlock()
		ok := w.await(d)
		q.mu.Lock()
		if !ok && !w.notified {
			q.recvW.remove(w)
			q.mu.Unlock()
			var zero S
			return zero, false
		}
	}
}

// Overwrite writes into a single-slot queue regardless of occupancy
// and never blocks. It returns the displaced item, if any, so the
// caller can release whatever the slot owned, and reports whether a
// parked receiver was woken.
func (q *Queue[S]) Overwrite(item S) (displaced S, had bool, woken bool) {
	q.mu.Lock()
	if len(q.buf) != 1 {
		q.mu.Unlock()
		panic("kern: overwrite needs a single-slot queue")
	}
	if q.count == 1 {
		displaced, had = q.buf[0], true
	}
	q.buf[0] = item
	if !had {
		q.count = 1
		woken = q.recvW.wakeOne()
	}
	q.mu.Unlock()
	return displaced, had, woken
}

// TrySendBack is the non-blocking tail enqueue. woken reports whether
// a parked receiver was released.
func (q *Queue[S]) TrySendBack(item S) (woken, ok bool) {
	return q.trySend(item, false)
}

// TrySendFront is the non-blocking head enqueue.
func (q *Queue[S]) TrySendFront(item S) (woken, ok bool) {
	return q.trySend(item, true)
}

func (q *Queue[S]) trySend(item S, front bool) (woken, ok bool) {
	q.mu.Lock()
	if q.count == len(q.buf) {
		q.mu.Unlock()
		return false, false
	}
	q.put(item, front)
	woken = q.recvW.wakeOne()
	q.mu.Unlock()
	return woken, true
}

// TryReceive is the non-blocking dequeue. woken reports whether a
// parked sender was released by the freed slot.
func (q *Queue[S]) TryReceive() (item S, woken, ok bool) {
	q.mu.Lock()
	if q.count == 0 {
		q.mu.Unlock()
		return item, false, false
	}
	item = q.take()
	woken = q.sendW.wakeOne()
	q.mu.Unlock()
	return item, woken, true
}

// TryPeek copies the head item without removing it. It changes no
// queue state and wakes nobody.
func (q *Queue[S]) TryPeek() (item S, ok bool) {
	q.mu.Lock()
	if q.count == 0 {
		q.mu.Unlock()
		return item, false
	}
	item = q.buf[q.head]
	q.mu.Unlock()
	return item, true
}

// Reset empties the queue. Each pending item is handed to drop before
// its slot is vacated; pass nil when the slots own nothing. One parked
// sender is released afterwards.
func (q *Queue[S]) Reset(drop func(S)) {
	q.mu.Lock()
	for q.count > 0 {
		item := q.take()
		if drop != nil {
			drop(item)
		}
	}
	q.sendW.wakeOne()
	q.mu.Unlock()
}

func (q *Queue[S]) put(item S, front bool) {
	if front {
		q.head = (q.head - 1 + len(q.buf)) % len(q.buf)
		q.buf[q.head] = item
	} else {
		q.buf[(q.head+q.count)%len(q.buf)] = item
	}
	q.count++
}

func (q *Queue[S]) take() S {
	item := q.buf[q.head]
	var zero S
	q.buf[q.head] = zero // release whatever the slot referenced
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return item
}
