// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kern

import (
	"sync"
	"time"

	"code.hybscloud.com/atomix"
)

// TCB is a task control block. The facade owns the goroutine; the TCB
// holds everything the kernel side needs to block, wake, suspend, and
// tear the task down: lifecycle flags, the control channels, and the
// notification slot array.
//
// Suspension and teardown are cooperative. The Go runtime cannot stop
// a goroutine from outside, so Suspend takes effect at the task's next
// suspension point and Kill unwinds it from its next blocking call.
// Both are observed by Sleep and by the notification waits; state is
// reported as dead immediately, matching a kernel whose delete call
// frees the control block before the idle task reclaims the stack.
type TCB struct {
	name string
	prio atomix.Int32
	core int32

	dead atomix.Bool
	susp atomix.Bool

	kill     chan struct{}
	killOnce sync.Once
	abortCh  chan struct{}
	resumeCh chan struct{}

	slots []NotifySlot
}

// NewTCB builds a control block with slotCount notification slots.
func NewTCB(name string, priority int32, core int32, slotCount int) *TCB {
	if slotCount > NotifySlots {
		panic("kern: notification slot count exceeds the slot array")
	}
	t := &TCB{
		name:     name,
		core:     core,
		kill:     make(chan struct{}),
		abortCh:  make(chan struct{}, 1),
		resumeCh: make(chan struct{}, 1),
		slots:    make([]NotifySlot, slotCount),
	}
	t.prio.StoreRelaxed(priority)
	for i := range t.slots {
		t.slots[i].wake = make(chan struct{}, 1)
	}
	return t
}

// Name returns the task name.
func (t *TCB) Name() string {
	return t.name
}

// Priority returns the task priority.
func (t *TCB) Priority() int32 {
	return t.prio.LoadAcquire()
}

// SetPriority records a new task priority.
func (t *TCB) SetPriority(p int32) {
	t.prio.StoreRelease(p)
}

// Core returns the advisory core pin, or a negative value when the
// task is unpinned.
func (t *TCB) Core() int32 {
	return t.core
}

// Dead reports whether the task has exited or been killed.
func (t *TCB) Dead() bool {
	return t.dead.LoadAcquire()
}

// Suspended reports whether the task is flagged suspended.
func (t *TCB) Suspended() bool {
	return t.susp.LoadAcquire()
}

// Slot returns the notification slot at index.
func (t *TCB) Slot(index int) *NotifySlot {
	return &t.slots[index]
}

// SlotCount returns the number of bound notification slots.
func (t *TCB) SlotCount() int {
	return len(t.slots)
}

// Suspend flags the task; it parks at its next suspension point and
// stays parked until Resume.
func (t *TCB) Suspend() {
	t.susp.StoreRelease(true)
}

// Resume clears the suspension flag and releases a parked task.
func (t *TCB) Resume() {
	t.susp.StoreRelease(false)
	select {
	case t.resumeCh <- struct{}{}:
	default:
	}
}

// AbortDelay breaks the task out of its current timed wait. A pulse
// sent while the task is not blocked is dropped at the next wait's
// entry, so aborting a ready task is a no-op.
func (t *TCB) AbortDelay() {
	select {
	case t.abortCh <- struct{}{}:
	default:
	}
}

// Kill marks the task dead and releases it from any kernel wait so it
// can unwind.
func (t *TCB) Kill() {
	t.dead.StoreRelease(true)
	t.killOnce.Do(func() { close(t.kill) })
}

// Exit marks the task dead without a wake; the task calls it on its
// own way out.
func (t *TCB) Exit() {
	t.dead.StoreRelease(true)
}

// Sleep blocks the task for d, following the package timeout
// convention: negative sleeps until AbortDelay or Kill. It returns
// false when the sleep was cut short by either; the caller
// distinguishes the two through Dead.
func (t *TCB) Sleep(d time.Duration) bool {
	t.drainAbort()
	if !t.gate() {
		return false
	}
	if d < 0 {
		select {
		case <-t.abortCh:
			return false
		case <-t.kill:
			return false
		}
	}
	if d > 0 {
		tm := time.NewTimer(d)
		defer tm.Stop()
		select {
		case <-tm.C:
		case <-t.abortCh:
			return false
		case <-t.kill:
			return false
		}
	}
	return t.gate()
}

// gate parks while the task is suspended. It reports false once the
// task is dead.
func (t *TCB) gate() bool {
	for {
		if t.dead.LoadAcquire() {
			return false
		}
		if !t.susp.LoadAcquire() {
			return true
		}
		select {
		case <-t.resumeCh:
		case <-t.kill:
			return false
		}
	}
}

func (t *TCB) drainAbort() {
	select {
	case <-t.abortCh:
	default:
	}
}
