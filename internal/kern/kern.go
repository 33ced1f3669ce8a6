// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kern

import "time"

// Build-time kernel configuration, the counterpart of a small RTOS
// port's config header.
const (
	// TickRate is the number of clock ticks per second. One tick is
	// one millisecond.
	TickRate = 1000

	// TickPeriod is the real-time length of one tick.
	TickPeriod = time.Second / TickRate

	// NotifySlots is the size of the per-task notification slot array.
	NotifySlots = 8

	// MinStackDepth is the smallest stack reservation, in bytes, a
	// task may request.
	MinStackDepth = 2048

	// TimerCmdDepth is the requested capacity of the timer service
	// command ring. The ring rounds it up to a power of 2.
	TimerCmdDepth = 10
)
