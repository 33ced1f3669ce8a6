// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtx

import (
	"time"

	"code.hybscloud.com/rtx/internal/kern"
)

// noCopy flags a struct as address-stable. Embedding it lets go vet's
// copylocks check catch accidental copies of pinned objects.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// MutexProtected wraps a value of type T behind a mutex. The value is
// never addressable from outside: the only way in is a callback that
// runs while the mutex is held, and the mutex is released on every
// exit path of the callback, panic unwinding included.
//
// The value exists from construction; the mutex exists from Create.
// Destroy returns the object to the uncreated state, value intact.
// The kernel mutex references its owner by address, so the object is
// pinned: use it through the pointer the constructor returns and do
// not copy it.
//
// Example:
//
//	hits := rtx.NewMutexProtected[int32](0)
//	hits.Create()
//
//	hits.AwaitAccess(func(n *int32) { *n++ })
type MutexProtected[T any] struct {
	noCopy noCopy

	value T
	mu    *kern.Mutex
}

// NewMutexProtected returns an uncreated MutexProtected holding
// initial. Call Create before accessing.
func NewMutexProtected[T any](initial T) *MutexProtected[T] {
	return &MutexProtected[T]{value: initial}
}

func (m *MutexProtected[T]) mustCreated() {
	if m.mu == nil {
		panic("rtx: mutex not created")
	}
}

// Create creates the underlying mutex. Creating twice panics.
func (m *MutexProtected[T]) Create() {
	if m.mu != nil {
		panic("rtx: mutex already created")
	}
	m.mu = kern.NewMutex()
}

// Destroy tears the mutex down and returns the object to the
// uncreated state. The protected value keeps its last contents.
func (m *MutexProtected[T]) Destroy() {
	m.mustCreated()
	m.mu = nil
}

// Access acquires the mutex, waiting up to timeout, and runs f with
// exclusive access to the protected value. On timeout f is not
// invoked and Access returns false.
func (m *MutexProtected[T]) Access(f func(*T), timeout time.Duration) bool {
	m.mustCreated()
	if !m.mu.Take(waitReal(timeout)) {
		return false
	}
	defer m.mu.Give()
	f(&m.value)
	return true
}

// AwaitAccess acquires the mutex, waiting as long as it takes, and
// runs f with exclusive access to the protected value.
func (m *MutexProtected[T]) AwaitAccess(f func(*T)) {
	m.Access(f, Forever)
}

// RawHandle returns the kernel mutex backing this object, or nil
// before Create.
func (m *MutexProtected[T]) RawHandle() any {
	if m.mu == nil {
		return nil
	}
	return m.mu
}

// AccessValue acquires m's mutex, waiting up to timeout, runs f, and
// returns f's result. Go methods cannot take their own type
// parameters, so the result-returning access forms are package
// functions.
func AccessValue[T, R any](m *MutexProtected[T], f func(*T) R, timeout time.Duration) (R, bool) {
	var out R
	ok := m.Access(func(v *T) { out = f(v) }, timeout)
	return out, ok
}

// AwaitAccessValue acquires m's mutex, waiting as long as it takes,
// runs f, and returns f's result.
func AwaitAccessValue[T, R any](m *MutexProtected[T], f func(*T) R) R {
	out, _ := AccessValue(m, f, Forever)
	return out
}
