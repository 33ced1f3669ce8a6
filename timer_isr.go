// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtx

import (
	"time"

	"code.hybscloud.com/rtx/internal/kern"
)

// IsrTimer is the interrupt-safe view of a Timer, obtained from
// ForISR. Every command is a single non-blocking enqueue onto the
// timer service's command ring: ok is false when the ring is full, and
// the flag reports whether the service daemon was parked and has been
// woken to process the command.
type IsrTimer[C any] struct {
	tcb *kern.TimerCB
}

// Start arms the timer to fire one period from now.
func (t IsrTimer[C]) Start() (HigherPriorityTaskWoken, bool) {
	return kern.TryTimerCommand(t.tcb, kern.TimerStart, 0)
}

// Stop disarms the timer.
func (t IsrTimer[C]) Stop() (HigherPriorityTaskWoken, bool) {
	return kern.TryTimerCommand(t.tcb, kern.TimerStop, 0)
}

// Reset restarts the period from now, arming the timer if it was
// dormant.
func (t IsrTimer[C]) Reset() (HigherPriorityTaskWoken, bool) {
	return kern.TryTimerCommand(t.tcb, kern.TimerReset, 0)
}

// ChangePeriod installs a new period and arms the timer with it. The
// period must round to at least one tick; the command ring is never
// waited on here regardless of the period's length.
func (t IsrTimer[C]) ChangePeriod(period time.Duration) (HigherPriorityTaskWoken, bool) {
	ticks := ToTicks(period)
	if ticks == 0 {
		panic("rtx: timer period must be at least one tick")
	}
	return kern.TryTimerCommand(t.tcb, kern.TimerChangePeriod, uint64(ticks))
}
