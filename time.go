// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtx

import (
	"math"
	"time"

	"code.hybscloud.com/rtx/internal/kern"
)

// TickRate is the kernel tick frequency in Hz. One tick is one
// millisecond.
const TickRate = kern.TickRate

// Timeout sentinels. Every blocking operation in this package takes a
// time.Duration timeout: Forever blocks until the operation completes,
// NoWait polls and returns immediately.
const (
	Forever = time.Duration(math.MaxInt64)
	NoWait  = time.Duration(0)
)

// Tick is a point on the kernel tick clock, counted from clock start.
// Tick arithmetic wraps, so differences stay correct across the wrap.
type Tick uint64

// Duration is a span of kernel ticks.
type Duration int64

// MaxDelay is the longest expressible Duration. ToTicks maps Forever
// to it, and the waiting forms treat it as an unbounded wait.
const MaxDelay = Duration(math.MaxInt64)

const halfTick = kern.TickPeriod / 2

// maxRealTicks is the largest tick span that converts to a
// time.Duration without overflow.
const maxRealTicks = Duration(math.MaxInt64 / int64(kern.TickPeriod))

// ToTicks converts a real duration to kernel ticks. Forever converts
// to MaxDelay, negative durations clamp to zero, and everything else
// rounds to the nearest whole tick, halves away from zero. A 1.4 ms
// timeout therefore waits 1 tick and a 0.4 ms timeout does not wait
// at all.
func ToTicks(d time.Duration) Duration {
	if d <= 0 {
		return 0
	}
	if d >= Forever-halfTick {
		return MaxDelay
	}
	if d%kern.TickPeriod == 0 {
		return Duration(d / kern.TickPeriod)
	}
	return Duration((d + halfTick) / kern.TickPeriod)
}

// Real converts a tick span back to a time.Duration, saturating at the
// representable extremes.
func (d Duration) Real() time.Duration {
	switch {
	case d >= maxRealTicks:
		return Forever
	case d <= -maxRealTicks:
		return -Forever
	}
	return time.Duration(d) * kern.TickPeriod
}

// Add advances a tick count by a span.
func (t Tick) Add(d Duration) Tick {
	return Tick(int64(t) + int64(d))
}

// Sub returns the span from u to t.
func (t Tick) Sub(u Tick) Duration {
	return Duration(t - u)
}

// Now reads the kernel tick counter.
func Now() Tick {
	return Tick(kern.TickCount())
}

// NowFromISR reads the kernel tick counter from interrupt context. The
// counter is safe to read anywhere in this runtime; the separate name
// keeps call sites honest about the context they run in.
func NowFromISR() Tick {
	return Tick(kern.TickCount())
}

// waitReal quantizes a public timeout to the kernel's convention:
// negative waits forever, zero polls, anything else is a whole number
// of ticks.
func waitReal(timeout time.Duration) time.Duration {
	t := ToTicks(timeout)
	if t == MaxDelay {
		return -1
	}
	return t.Real()
}
