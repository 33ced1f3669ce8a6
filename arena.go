// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtx

import (
	"sync"

	"code.hybscloud.com/atomix"
)

// arena is a typed recycling pool for the payload boxes of
// pointer-stored queues. take moves a value into a recycled or fresh
// box and hands ownership to the caller; drop zeroes the box so the
// garbage collector can reclaim what it referenced, then recycles it.
// live counts boxes currently out, which is what leak checks observe.
type arena[T any] struct {
	pool sync.Pool
	live atomix.Int64
}

func (a *arena[T]) take(v T) *T {
	p, _ := a.pool.Get().(*T)
	if p == nil {
		p = new(T)
	}
	*p = v
	a.live.Add(1)
	return p
}

func (a *arena[T]) drop(p *T) {
	var zero T
	*p = zero
	a.live.Add(-1)
	a.pool.Put(p)
}

func (a *arena[T]) outstanding() int64 {
	return a.live.Load()
}
