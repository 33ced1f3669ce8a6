// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtx

import (
	"time"

	"code.hybscloud.com/rtx/internal/kern"
)

// TimerMode selects what a timer does after it fires.
type TimerMode uint8

const (
	// Repeating re-arms with the same period after each fire.
	Repeating TimerMode = iota
	// SingleShot fires once and goes dormant; Start arms it again.
	SingleShot
	// SelfDestructive fires once and then destroys itself. It must
	// not be re-created until IsActive reports false, because the
	// timer service processes the deletion asynchronously.
	SelfDestructive
)

// Timer schedules a callback to fire after a period, carrying a
// context value of type C that is owned by the timer and handed to the
// callback by reference on every fire.
//
// Commands do not act on the timer directly: they transit the timer
// service's command ring and may be rejected when it is full, so every
// command has a bounded-wait form returning success and an Await form
// that waits as long as it takes. The callback runs on the timer
// service goroutine and must not block it for long.
//
// A created Timer is pinned: the service holds a reference into it, so
// the value must not be copied or moved afterwards.
type Timer[C any] struct {
	noCopy   noCopy
	mode     TimerMode
	callback func(*C)
	ctx      C
	tcb      *kern.TimerCB
}

// NewTimer returns an armed-later timer in the given mode. The context
// is captured by value here; the callback later receives a pointer to
// this one captured copy.
func NewTimer[C any](mode TimerMode, callback func(*C), ctx C) *Timer[C] {
	if callback == nil {
		panic("rtx: timer requires a callback")
	}
	if mode > SelfDestructive {
		panic("rtx: unknown timer mode")
	}
	return &Timer[C]{mode: mode, callback: callback, ctx: ctx}
}

// Create registers the timer with the timer service in the dormant
// state. An empty name gets a default. The period must round to at
// least one tick. Re-creating is allowed only once a destroyed timer
// has fully died.
func (t *Timer[C]) Create(name string, period time.Duration) bool {
	if t.tcb != nil && !t.tcb.Deleted() {
		panic("rtx: timer already created")
	}
	ticks := ToTicks(period)
	if ticks == 0 {
		panic("rtx: timer period must be at least one tick")
	}
	if name == "" {
		name = defaultTimerName
	}
	t.tcb = kern.NewTimer(name, uint64(ticks), t.mode == Repeating, t.mode == SelfDestructive, func() {
		t.callback(&t.ctx)
	})
	return true
}

const defaultTimerName = "timer"

func (t *Timer[C]) mustTCB() *kern.TimerCB {
	if t.tcb == nil {
		panic("rtx: timer not created")
	}
	return t.tcb
}

// Start arms the timer to fire one period from now, waiting up to
// timeout for space on the command ring.
func (t *Timer[C]) Start(timeout time.Duration) bool {
	return kern.TimerCommand(t.mustTCB(), kern.TimerStart, 0, waitReal(timeout))
}

// AwaitStart arms the timer, waiting as long as it takes to deliver
// the command.
func (t *Timer[C]) AwaitStart() {
	t.Start(Forever)
}

// Stop disarms the timer without destroying it.
func (t *Timer[C]) Stop(timeout time.Duration) bool {
	return kern.TimerCommand(t.mustTCB(), kern.TimerStop, 0, waitReal(timeout))
}

// AwaitStop disarms the timer, waiting as long as it takes to deliver
// the command.
func (t *Timer[C]) AwaitStop() {
	t.Stop(Forever)
}

// Reset restarts the period from now, arming the timer if it was
// dormant.
func (t *Timer[C]) Reset(timeout time.Duration) bool {
	return kern.TimerCommand(t.mustTCB(), kern.TimerReset, 0, waitReal(timeout))
}

// AwaitReset restarts the period, waiting as long as it takes to
// deliver the command.
func (t *Timer[C]) AwaitReset() {
	t.Reset(Forever)
}

// ChangePeriod installs a new period and arms the timer with it
// counting from now. The period must round to at least one tick.
func (t *Timer[C]) ChangePeriod(period, timeout time.Duration) bool {
	ticks := ToTicks(period)
	if ticks == 0 {
		panic("rtx: timer period must be at least one tick")
	}
	return kern.TimerCommand(t.mustTCB(), kern.TimerChangePeriod, uint64(ticks), waitReal(timeout))
}

// AwaitChangePeriod installs a new period, waiting as long as it takes
// to deliver the command.
func (t *Timer[C]) AwaitChangePeriod(period time.Duration) {
	t.ChangePeriod(period, Forever)
}

// Destroy unregisters the timer from the service. The timer keeps
// reporting IsActive until the service processes the command.
func (t *Timer[C]) Destroy(timeout time.Duration) bool {
	return kern.TimerCommand(t.mustTCB(), kern.TimerDelete, 0, waitReal(timeout))
}

// AwaitDestroy unregisters the timer, waiting as long as it takes to
// deliver the command.
func (t *Timer[C]) AwaitDestroy() {
	t.Destroy(Forever)
}

// IsActive reports whether the timer is armed, as maintained by the
// timer service. Commands in flight are not yet reflected.
func (t *Timer[C]) IsActive() bool {
	return t.mustTCB().Active()
}

// Name returns the name the timer was created with.
func (t *Timer[C]) Name() string {
	return t.mustTCB().Name()
}

// RawHandle returns the service control block backing this timer, or
// nil before Create.
func (t *Timer[C]) RawHandle() any {
	if t.tcb == nil {
		return nil
	}
	return t.tcb
}

// ForISR returns the interrupt-safe view of the timer. The timer must
// be created.
func (t *Timer[C]) ForISR() IsrTimer[C] {
	return IsrTimer[C]{tcb: t.mustTCB()}
}
