// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtx

import (
	"time"
	"unsafe"

	"code.hybscloud.com/rtx/internal/kern"
)

// NotificationKind selects the behavior of one notification slot when
// a task is declared with NewTask.
type NotificationKind uint8

const (
	// KindCounting accumulates gives into a counter, semaphore style.
	KindCounting NotificationKind = iota
	// KindBinary latches a single yes/no event, overwriting.
	KindBinary
	// KindState transports a small pointer-free value, overwriting.
	KindState
)

// slotIndex resolves an accessor's optional index argument against the
// task's declared slot kinds. The no-index form selects by kind and
// requires it to be unique among the task's slots.
func (t *Task) slotIndex(kind NotificationKind, index []int) int {
	switch len(index) {
	case 0:
		found := -1
		for i, k := range t.kinds {
			if k != kind {
				continue
			}
			if found >= 0 {
				panic("rtx: notification kind is ambiguous, select by index")
			}
			found = i
		}
		if found < 0 {
			panic("rtx: task has no notification slot of that kind")
		}
		return found
	case 1:
		i := index[0]
		if i < 0 || i >= len(t.kinds) {
			panic("rtx: notification index out of range")
		}
		if t.kinds[i] != kind {
			panic("rtx: notification kind mismatch at index")
		}
		return i
	default:
		panic("rtx: at most one notification index")
	}
}

// Counting returns the view onto the task's counting slot. With no
// argument the single KindCounting slot is selected; with an index the
// slot at that position must have been declared KindCounting.
func (t *Task) Counting(index ...int) CountingNotification {
	return CountingNotification{task: t, index: t.slotIndex(KindCounting, index)}
}

// Binary returns the view onto the task's binary slot, resolved the
// same way as Counting.
func (t *Task) Binary(index ...int) BinaryNotification {
	return BinaryNotification{task: t, index: t.slotIndex(KindBinary, index)}
}

// StateSlot returns the view onto one of the task's state slots. T must
// be pointer-free and at most 4 bytes so it fits the slot word; both
// are checked here, at resolution time. This is a package function
// because Go methods cannot introduce their own type parameters.
func StateSlot[T any](t *Task, index ...int) StateNotification[T] {
	var zero T
	if !transportsInline[T]() || unsafe.Sizeof(zero) > 4 {
		panic("rtx: state payload must be pointer-free and at most 4 bytes")
	}
	return StateNotification[T]{task: t, index: t.slotIndex(KindState, index)}
}

// encodeWord maps a small pointer-free value onto a slot word. The
// caller has already checked that T fits.
func encodeWord[T any](v T) uint32 {
	var w uint32
	*(*T)(unsafe.Pointer(&w)) = v
	return w
}

func decodeWord[T any](w uint32) T {
	return *(*T)(unsafe.Pointer(&w))
}

// CountingNotification counts gives, semaphore style. Give may be
// called from any goroutine; Take and Fetch only from the owning task.
// The view is valid once the task is constructed, but its methods
// require the task to be created.
type CountingNotification struct {
	task  *Task
	index int
}

func (n CountingNotification) slot() *kern.NotifySlot {
	return n.task.mustTCB().Slot(n.index)
}

// Give increments the counter and marks the slot pending.
func (n CountingNotification) Give() {
	n.slot().Give()
}

// Take waits up to timeout for a non-zero count, clears the counter,
// and returns the pre-clear value. A counter already above zero
// returns immediately.
func (n CountingNotification) Take(timeout time.Duration) (uint32, bool) {
	tcb := n.task.mustTCB()
	v, ok := tcb.NotifyTake(n.index, waitReal(timeout))
	if !ok {
		n.task.failedWait(tcb)
	}
	return v, ok
}

// Fetch waits up to timeout for the slot to pend and returns the
// counter without clearing anything.
func (n CountingNotification) Fetch(timeout time.Duration) (uint32, bool) {
	tcb := n.task.mustTCB()
	v, ok := tcb.NotifyFetch(n.index, waitReal(timeout))
	if !ok {
		n.task.failedWait(tcb)
	}
	return v, ok
}

// CurrentValue reads the counter without blocking or clearing.
func (n CountingNotification) CurrentValue() uint32 {
	return n.slot().Value()
}

// ConsumeValue reads the counter and clears it to zero, without
// blocking and without touching the pending bit.
func (n CountingNotification) ConsumeValue() uint32 {
	return n.slot().ClearValue(^uint32(0))
}

// Clear zeroes the counter.
func (n CountingNotification) Clear() {
	n.slot().ClearValue(^uint32(0))
}

// ClearState marks the slot not-pending and reports whether it was
// pending. The counter is left alone.
func (n CountingNotification) ClearState() bool {
	return n.slot().ClearPending()
}

// ForISR returns the interrupt-safe view of the slot. The task must be
// created; the view binds to the live slot directly.
func (n CountingNotification) ForISR() IsrCountingNotification {
	return IsrCountingNotification{slot: n.slot()}
}

// BinaryNotification latches a single event. Set may be called from
// any goroutine; Get only from the owning task.
type BinaryNotification struct {
	task  *Task
	index int
}

func (n BinaryNotification) slot() *kern.NotifySlot {
	return n.task.mustTCB().Slot(n.index)
}

// Set writes true into the slot and marks it pending, overwriting
// whatever was there.
func (n BinaryNotification) Set() {
	n.slot().SetValue(1)
}

// Get waits up to timeout for the slot to pend, consumes the event,
// and reports whether one arrived.
func (n BinaryNotification) Get(timeout time.Duration) bool {
	tcb := n.task.mustTCB()
	v, ok := tcb.NotifyWait(n.index, ^uint32(0), waitReal(timeout))
	if !ok {
		n.task.failedWait(tcb)
	}
	return ok && v != 0
}

// AwaitGet consumes the next event, waiting as long as it takes.
func (n BinaryNotification) AwaitGet() {
	n.Get(Forever)
}

// CurrentValue reads the latched flag without blocking or consuming.
func (n BinaryNotification) CurrentValue() bool {
	return n.slot().Value() != 0
}

// ClearState marks the slot not-pending and reports whether it was
// pending.
func (n BinaryNotification) ClearState() bool {
	return n.slot().ClearPending()
}

// ForISR returns the interrupt-safe view of the slot.
func (n BinaryNotification) ForISR() IsrBinaryNotification {
	return IsrBinaryNotification{slot: n.slot()}
}

// StateNotification transports the latest value of a small pointer-free
// type through the slot word, overwriting older values. Set may be
// called from any goroutine; Get only from the owning task.
type StateNotification[T any] struct {
	task  *Task
	index int
}

func (n StateNotification[T]) slot() *kern.NotifySlot {
	return n.task.mustTCB().Slot(n.index)
}

// Set encodes v into the slot word and marks it pending, overwriting
// whatever was there.
func (n StateNotification[T]) Set(v T) {
	n.slot().SetValue(encodeWord(v))
}

// Get waits up to timeout for the slot to pend, consumes it, and
// returns the decoded value.
func (n StateNotification[T]) Get(timeout time.Duration) (T, bool) {
	tcb := n.task.mustTCB()
	w, ok := tcb.NotifyWait(n.index, ^uint32(0), waitReal(timeout))
	if !ok {
		n.task.failedWait(tcb)
	}
	return decodeWord[T](w), ok
}

// AwaitGet consumes the next value, waiting as long as it takes.
func (n StateNotification[T]) AwaitGet() T {
	v, _ := n.Get(Forever)
	return v
}

// CurrentValue decodes the slot word without blocking or consuming.
// A slot that was never set decodes as the zero value, which is
// indistinguishable from a stored zero; check Pending to tell the two
// apart.
func (n StateNotification[T]) CurrentValue() T {
	return decodeWord[T](n.slot().Value())
}

// Pending reports whether a value has been set and not yet consumed.
func (n StateNotification[T]) Pending() bool {
	return n.slot().Pending()
}

// ClearState marks the slot not-pending and reports whether it was
// pending. The stored word is left alone.
func (n StateNotification[T]) ClearState() bool {
	return n.slot().ClearPending()
}

// ForISR returns the interrupt-safe view of the slot.
func (n StateNotification[T]) ForISR() IsrStateNotification[T] {
	return IsrStateNotification[T]{slot: n.slot()}
}
