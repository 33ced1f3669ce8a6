// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kern

import (
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// padShort fills the cache line after the slot's hot word so adjacent
// slots in a control block do not share one.
type padShort [64 - 8]byte

const (
	// slotPend sits above the 32-bit notified value so a pend and a
	// value update commit in one compare-and-swap.
	slotPend = 1 << 32

	// valueMask extracts the notified value.
	valueMask = 1<<32 - 1

	// notifySpinBudget bounds the spin phase a waiter runs before it
	// parks on the wake channel.
	notifySpinBudget = 16
)

// NotifySlot is one entry of a task's notification array: a 32-bit
// value and a pending bit packed into a single word, plus the owner's
// wake channel. Setters may run on any goroutine, including
// non-blocking interrupt-style callers; waiting is reserved for the
// owning task.
type NotifySlot struct {
	word    atomix.Uint64 // pending bit | 32-bit value
	waiting atomix.Bool
	wake    chan struct{}
	_       padShort
}

// Give increments the counter value and pends the slot. Reports
// whether the owner was waiting on it.
func (s *NotifySlot) Give() bool {
	for {
		old := s.word.LoadAcquire()
		nw := (old+1)&valueMask | slotPend
		if s.word.CompareAndSwapAcqRel(old, nw) {
			break
		}
	}
	return s.ping()
}

// SetValue overwrites the value and pends the slot. Reports whether
// the owner was waiting.
func (s *NotifySlot) SetValue(v uint32) bool {
	s.word.StoreRelease(slotPend | uint64(v))
	return s.ping()
}

// Value returns the current value without consuming anything.
func (s *NotifySlot) Value() uint32 {
	return uint32(s.word.LoadAcquire())
}

// Pending reports whether a notification is pending.
func (s *NotifySlot) Pending() bool {
	return s.word.LoadAcquire()&slotPend != 0
}

// ClearValue clears the masked value bits, leaves the pending bit
// alone, and returns the value as it was before.
func (s *NotifySlot) ClearValue(mask uint32) uint32 {
	for {
		old := s.word.LoadAcquire()
		nw := old &^ uint64(mask)
		if s.word.CompareAndSwapAcqRel(old, nw) {
			return uint32(old)
		}
	}
}

// ClearPending unpends the slot and reports whether it was pending.
func (s *NotifySlot) ClearPending() bool {
	for {
		old := s.word.LoadAcquire()
		if old&slotPend == 0 {
			return false
		}
		if s.word.CompareAndSwapAcqRel(old, old&^uint64(slotPend)) {
			return true
		}
	}
}

// consume unpends the slot and clears the masked value bits in one
// transition, returning the value before clearing. ok is false when
// nothing was pending.
func (s *NotifySlot) consume(mask uint32) (uint32, bool) {
	for {
		old := s.word.LoadAcquire()
		if old&slotPend == 0 {
			return 0, false
		}
		nw := (old &^ uint64(slotPend)) &^ uint64(mask)
		if s.word.CompareAndSwapAcqRel(old, nw) {
			return uint32(old), true
		}
	}
}

// takeCount zeroes a non-zero counter together with the pending bit
// and returns the prior count. ok is false when the counter is zero.
func (s *NotifySlot) takeCount() (uint32, bool) {
	for {
		old := s.word.LoadAcquire()
		if uint32(old) == 0 {
			return 0, false
		}
		if s.word.CompareAndSwapAcqRel(old, 0) {
			return uint32(old), true
		}
	}
}

func (s *NotifySlot) ping() bool {
	woken := s.waiting.LoadAcquire()
	s.signal()
	return woken
}

func (s *NotifySlot) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// NotifyTake waits until the slot counter is non-zero, clears it, and
// returns the prior count. A counter already above zero returns
// without blocking, whatever the pending bit says.
func (t *TCB) NotifyTake(index int, timeout time.Duration) (uint32, bool) {
	s := &t.slots[index]
	t.drainAbort()
	d := makeDeadline(timeout)
	sw := spin.Wait{}
	spins := notifySpinBudget
	for {
		if !t.gate() {
			return 0, false
		}
		if v, ok := s.takeCount(); ok {
			return v, true
		}
		if timeout == 0 || d.expired() {
			return 0, false
		}
		if spins > 0 {
			spins--
			sw.Once()
			continue
		}
		if !t.parkSlot(s, d, func() bool { return s.Value() != 0 }) {
			return 0, false
		}
	}
}

// NotifyFetch waits for a pending notification and returns the value
// without consuming anything: the pending bit and the value stay as
// the setter left them.
func (t *TCB) NotifyFetch(index int, timeout time.Duration) (uint32, bool) {
	s := &t.slots[index]
	t.drainAbort()
	d := makeDeadline(timeout)
	sw := spin.Wait{}
	spins := notifySpinBudget
	for {
		if !t.gate() {
			return 0, false
		}
		if s.Pending() {
			return s.Value(), true
		}
		if timeout == 0 || d.expired() {
			return 0, false
		}
		if spins > 0 {
			spins--
			sw.Once()
			continue
		}
		if !t.parkSlot(s, d, func() bool { return s.Pending() }) {
			return 0, false
		}
	}
}

// NotifyWait waits for a pending notification, consumes it, clears
// the masked value bits, and returns the value as it was on arrival.
func (t *TCB) NotifyWait(index int, clearMask uint32, timeout time.Duration) (uint32, bool) {
	s := &t.slots[index]
	t.drainAbort()
	d := makeDeadline(timeout)
	sw := spin.Wait{}
	spins := notifySpinBudget
	for {
		if !t.gate() {
			return 0, false
		}
		if v, ok := s.consume(clearMask); ok {
			return v, true
		}
		if timeout == 0 || d.expired() {
			return 0, false
		}
		if spins > 0 {
			spins--
			sw.Once()
			continue
		}
		if !t.parkSlot(s, d, func() bool { return s.Pending() }) {
			return 0, false
		}
	}
}

// parkSlot parks the owner on s until a setter pulses it, the deadline
// passes, or the task is aborted or killed. Abort and kill return
// false; a deadline pass returns true so the caller re-checks slot
// state before giving up, keeping a wake that raced with the timeout.
func (t *TCB) parkSlot(s *NotifySlot, d deadline, ready func() bool) bool {
	s.waiting.StoreRelease(true)
	defer s.waiting.StoreRelease(false)

	// A stale pulse from a setter that ran before this wait must not
	// wake us early; drain it, then re-check so the setter's update is
	// not missed either.
	select {
	case <-s.wake:
	default:
	}
	if ready() {
		return true
	}
	if !d.has {
		select {
		case <-s.wake:
			return true
		case <-t.abortCh:
			return false
		case <-t.kill:
			return false
		}
	}
	tm := time.NewTimer(time.Until(d.at))
	defer tm.Stop()
	select {
	case <-s.wake:
		return true
	case <-tm.C:
		return true
	case <-t.abortCh:
		return false
	case <-t.kill:
		return false
	}
}
