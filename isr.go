// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtx

import "runtime"

// HigherPriorityTaskWoken reports whether an interrupt-context
// operation released a waiter that outranks the interrupted work.
// Interrupt handlers collect these flags and pass them to Yield on
// the way out.
//
// Interrupt context in this runtime means any goroutine that must not
// block: a signal handler, an I/O completion callback, a polling loop
// on a reserved thread. The ForISR projections in this package are the
// only operations such code should touch; none of them block, allocate,
// or panic on full and empty conditions.
type HigherPriorityTaskWoken = bool

// Yield requests a scheduling point. Called with no arguments it
// always yields; called with flags it yields only when at least one
// is set, the usual tail of an interrupt handler that may have
// readied a waiter.
func Yield(flags ...HigherPriorityTaskWoken) {
	if len(flags) == 0 {
		runtime.Gosched()
		return
	}
	for _, f := range flags {
		if f {
			runtime.Gosched()
			return
		}
	}
}
