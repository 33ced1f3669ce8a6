// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kern

import "time"

// deadline is an absolute bound computed once from a relative timeout.
// A negative timeout means wait forever; the zero deadline never
// expires.
type deadline struct {
	at  time.Time
	has bool
}

func makeDeadline(timeout time.Duration) deadline {
	if timeout < 0 {
		return deadline{}
	}
	return deadline{at: time.Now().Add(timeout), has: true}
}

func (d deadline) expired() bool {
	return d.has && !time.Now().Before(d.at)
}

// waiter is one goroutine parked on a wait list. The pulse channel has
// capacity 1 and receives at most one signal: wakeOne removes the
// waiter from its list before pulsing, so a signal is never sent twice.
// notified is written under the owning queue's lock.
type waiter struct {
	pulse    chan struct{}
	notified bool
}

// await blocks until the waiter is pulsed or the deadline passes.
// Reports whether the pulse arrived. On a false return the pulse may
// still have been sent concurrently; callers must re-check notified
// under the queue lock.
func (w *waiter) await(d deadline) bool {
	if !d.has {
		<-w.pulse
		return true
	}
	t := time.NewTimer(time.Until(d.at))
	defer t.Stop()
	select {
	case <-w.pulse:
		return true
	case <-t.C:
		return false
	}
}

// waitList is a FIFO of parked waiters. Wakes go to the oldest waiter
// first.
type waitList struct {
	ws []*waiter
}

func (l *waitList) park() *waiter {
	w := &waiter{pulse: make(chan struct{}, 1)}
	l.ws = append(l.ws, w)
	return w
}

// wakeOne pulses the oldest waiter and removes it from the list.
// Reports whether a waiter was present.
func (l *waitList) wakeOne() bool {
	if len(l.ws) == 0 {
		return false
	}
	w := l.ws[0]
	l.ws[0] = nil
	l.ws = l.ws[1:]
	w.notified = true
	w.pulse <- struct{}{}
	return true
}

// remove takes w off the list if it is still parked. A waiter that
// timed out unparks itself through here; one that was already woken is
// gone from the list and this is a no-op.
func (l *waitList) remove(w *waiter) {
	for i, x := range l.ws {
		if x == w {
			l.ws = append(l.ws[:i], l.ws[i+1:]...)
			return
		}
	}
}
