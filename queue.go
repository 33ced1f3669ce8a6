// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtx

import (
	"reflect"
	"time"

	"code.hybscloud.com/rtx/internal/kern"
)

// Queue is a bounded, typed FIFO between tasks.
//
// The kernel ring moves fixed-size slots by copy, so the queue picks a
// transport per element type at creation: a pointer-free T travels
// inline in the ring slots, anything carrying pointers is boxed into a
// recycled heap cell and the ring carries the owning pointer. Send
// constructs the box, receive moves the value out and recycles it, a
// failed send recycles before returning, and Reset drains every
// pending box. The policy is invisible at the call sites; it only
// surfaces at ForISR, which refuses pointer-stored queues.
//
// A Queue starts uncreated: construct it, then Create it with its
// capacity. Operations on an uncreated queue panic. Queues are bound
// to their kernel storage and must not be copied once created.
//
// Example:
//
//	q := rtx.NewQueue[string]()
//	q.Create(5)
//
//	go func() { q.AwaitSend("hello") }()
//	s := q.AwaitReceive()
type Queue[T any] struct {
	noCopy noCopy

	inline *kern.Queue[T]
	boxed  *kern.Queue[*T]
	box    arena[T]
}

// NewQueue returns an uncreated queue. Call Create before use.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

// transportsInline reports whether T can travel in the ring slots
// directly: no pointers anywhere in its representation, so a slot
// copy carries the whole value.
func transportsInline[T any]() bool {
	return pointerFree(reflect.TypeFor[T]())
}

func pointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return pointerFree(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !pointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	}
	return false
}

func (q *Queue[T]) created() bool {
	return q.inline != nil || q.boxed != nil
}

func (q *Queue[T]) mustCreated() {
	if !q.created() {
		panic("rtx: queue not created")
	}
}

// Create allocates the queue's kernel storage with the given capacity.
// Capacity is exact and fixed for the queue's lifetime. The return
// value reports allocation success for parity with the static flavor;
// on this runtime allocation failure is not observable, so Create
// returns true or panics. Creating twice panics.
func (q *Queue[T]) Create(capacity int) bool {
	if q.created() {
		panic("rtx: queue already created")
	}
	if capacity < 1 {
		panic("rtx: queue capacity must be >= 1")
	}
	if transportsInline[T]() {
		q.inline = kern.NewQueue[T](capacity)
	} else {
		q.boxed = kern.NewQueue[*T](capacity)
	}
	return true
}

// Destroy drains the queue and returns it to the uncreated state.
// Pending boxed payloads are released.
func (q *Queue[T]) Destroy() {
	q.mustCreated()
	q.Reset()
	q.inline, q.boxed = nil, nil
}

// Send enqueues at the back. It is an alias of SendToBack.
func (q *Queue[T]) Send(item T, timeout time.Duration) bool {
	return q.SendToBack(item, timeout)
}

// SendToBack enqueues at the back, waiting up to timeout for space.
// On the pointer-stored path a failed send releases the box it
// constructed.
func (q *Queue[T]) SendToBack(item T, timeout time.Duration) bool {
	q.mustCreated()
	wait := waitReal(timeout)
	if q.boxed != nil {
		p := q.box.take(item)
		if !q.boxed.SendBack(p, wait) {
			q.box.drop(p)
			return false
		}
		return true
	}
	return q.inline.SendBack(item, wait)
}

// SendToFront enqueues at the front, so the item is received before
// everything already waiting.
func (q *Queue[T]) SendToFront(item T, timeout time.Duration) bool {
	q.mustCreated()
	wait := waitReal(timeout)
	if q.boxed != nil {
		p := q.box.take(item)
		if !q.boxed.SendFront(p, wait) {
			q.box.drop(p)
			return false
		}
		return true
	}
	return q.inline.SendFront(item, wait)
}

// AwaitSend enqueues at the back, waiting as long as it takes.
func (q *Queue[T]) AwaitSend(item T) {
	q.SendToBack(item, Forever)
}

// AwaitSendToBack enqueues at the back, waiting as long as it takes.
func (q *Queue[T]) AwaitSendToBack(item T) {
	q.SendToBack(item, Forever)
}

// AwaitSendToFront enqueues at the front, waiting as long as it takes.
func (q *Queue[T]) AwaitSendToFront(item T) {
	q.SendToFront(item, Forever)
}

// Receive dequeues from the front, waiting up to timeout for an item.
func (q *Queue[T]) Receive(timeout time.Duration) (T, bool) {
	q.mustCreated()
	wait := waitReal(timeout)
	if q.boxed != nil {
		p, ok := q.boxed.Receive(wait)
		if !ok {
			var zero T
			return zero, false
		}
		v := *p
		q.box.drop(p)
		return v, true
	}
	return q.inline.Receive(wait)
}

// AwaitReceive dequeues from the front, waiting as long as it takes.
func (q *Queue[T]) AwaitReceive() T {
	v, _ := q.Receive(Forever)
	return v
}

// Peek copies the front item without removing it, waiting up to
// timeout for one to appear.
func (q *Queue[T]) Peek(timeout time.Duration) (T, bool) {
	q.mustCreated()
	wait := waitReal(timeout)
	if q.boxed != nil {
		p, ok := q.boxed.Peek(wait)
		if !ok {
			var zero T
			return zero, false
		}
		return *p, true
	}
	return q.inline.Peek(wait)
}

// AwaitPeek copies the front item without removing it, waiting as long
// as it takes.
func (q *Queue[T]) AwaitPeek() T {
	v, _ := q.Peek(Forever)
	return v
}

// Overwrite writes the item even when the queue is full, replacing
// whatever is there. It never fails and never waits, which is only
// sound on a capacity-1 queue; any other capacity panics. A displaced
// boxed payload is released.
func (q *Queue[T]) Overwrite(item T) {
	q.mustCreated()
	if q.capacity() != 1 {
		panic("rtx: overwrite requires a capacity-1 queue")
	}
	if q.boxed != nil {
		displaced, had, _ := q.boxed.Overwrite(q.box.take(item))
		if had {
			q.box.drop(displaced)
		}
		return
	}
	q.inline.Overwrite(item)
}

// Reset empties the queue, releasing any pending boxed payloads.
func (q *Queue[T]) Reset() {
	q.mustCreated()
	if q.boxed != nil {
		q.boxed.Reset(func(p *T) { q.box.drop(p) })
		return
	}
	q.inline.Reset(nil)
}

// MessagesWaiting returns the number of items in the queue.
func (q *Queue[T]) MessagesWaiting() int {
	q.mustCreated()
	if q.boxed != nil {
		return q.boxed.Len()
	}
	return q.inline.Len()
}

// SpacesAvailable returns the number of free slots.
func (q *Queue[T]) SpacesAvailable() int {
	q.mustCreated()
	if q.boxed != nil {
		return q.boxed.Free()
	}
	return q.inline.Free()
}

// IsEmpty reports whether no items are waiting.
func (q *Queue[T]) IsEmpty() bool {
	return q.MessagesWaiting() == 0
}

// IsFull reports whether no space remains.
func (q *Queue[T]) IsFull() bool {
	return q.SpacesAvailable() == 0
}

func (q *Queue[T]) capacity() int {
	if q.boxed != nil {
		return q.boxed.Cap()
	}
	return q.inline.Cap()
}

// ForISR returns a non-owning interrupt-safe view over the same
// kernel queue. Pointer-stored queues have no interrupt-safe view:
// their sends allocate, which interrupt context must not do, so
// projecting one panics.
func (q *Queue[T]) ForISR() IsrQueue[T] {
	q.mustCreated()
	if q.boxed != nil {
		panic("rtx: pointer-stored payloads are not interrupt-safe")
	}
	return IsrQueue[T]{ring: q.inline}
}

// RawHandle returns the kernel queue backing this object, or nil
// before Create.
func (q *Queue[T]) RawHandle() any {
	switch {
	case q.inline != nil:
		return q.inline
	case q.boxed != nil:
		return q.boxed
	}
	return nil
}

// StaticQueue is the storage-preallocating flavor of Queue: the ring
// is laid out when the object is constructed, so Create binds it
// without allocating and cannot fail.
//
// Example:
//
//	q := rtx.NewStaticQueue[int32](8)
//	q.Create()
type StaticQueue[T any] struct {
	Queue[T]

	readyInline *kern.Queue[T]
	readyBoxed  *kern.Queue[*T]
}

// NewStaticQueue returns an uncreated static queue with its storage
// for capacity items already in place.
func NewStaticQueue[T any](capacity int) *StaticQueue[T] {
	if capacity < 1 {
		panic("rtx: queue capacity must be >= 1")
	}
	s := &StaticQueue[T]{}
	if transportsInline[T]() {
		s.readyInline = kern.NewQueue[T](capacity)
	} else {
		s.readyBoxed = kern.NewQueue[*T](capacity)
	}
	return s
}

// Create binds the preallocated storage. It cannot fail; creating
// twice panics.
func (s *StaticQueue[T]) Create() {
	if s.Queue.created() {
		panic("rtx: queue already created")
	}
	s.inline, s.boxed = s.readyInline, s.readyBoxed
}
