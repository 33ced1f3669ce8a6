// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kern

import "time"

// Mutex is a timed mutual-exclusion lock. It is a token semaphore: the
// token sits in a capacity-1 channel while the mutex is free, Take
// withdraws it, Give returns it. Unlike sync.Mutex it supports bounded
// acquisition, which the facade's scoped access contract needs.
type Mutex struct {
	sem chan struct{}
}

// NewMutex creates the mutex in the unlocked state.
func NewMutex() *Mutex {
	m := &Mutex{sem: make(chan struct{}, 1)}
	m.sem <- struct{}{}
	return m
}

// Take acquires the mutex, waiting up to timeout. Negative waits
// forever, zero polls.
func (m *Mutex) Take(timeout time.Duration) bool {
	if timeout < 0 {
		<-m.sem
		return true
	}
	if timeout == 0 {
		select {
		case <-m.sem:
			return true
		default:
			return false
		}
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-m.sem:
		return true
	case <-t.C:
		return false
	}
}

// Give releases the mutex. Releasing a mutex that is not held is a
// programmer error.
func (m *Mutex) Give() {
	select {
	case m.sem <- struct{}{}:
	default:
		panic("kern: mutex given while not held")
	}
}
