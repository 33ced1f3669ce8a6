// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtx

import "code.hybscloud.com/rtx/internal/kern"

// IsrCountingNotification is the interrupt-safe view of a counting
// slot, obtained from ForISR. It binds directly to the slot of the
// created task, so the view outlives nothing: drop it when the task
// dies.
type IsrCountingNotification struct {
	slot *kern.NotifySlot
}

// Give increments the counter and marks the slot pending. The flag
// reports whether the owning task was parked on the slot.
func (n IsrCountingNotification) Give() HigherPriorityTaskWoken {
	return n.slot.Give()
}

// IsrBinaryNotification is the interrupt-safe view of a binary slot,
// obtained from ForISR.
type IsrBinaryNotification struct {
	slot *kern.NotifySlot
}

// Set latches the event, overwriting. The flag reports whether the
// owning task was parked on the slot.
func (n IsrBinaryNotification) Set() HigherPriorityTaskWoken {
	return n.slot.SetValue(1)
}

// IsrStateNotification is the interrupt-safe view of a state slot,
// obtained from ForISR.
type IsrStateNotification[T any] struct {
	slot *kern.NotifySlot
}

// Set encodes v into the slot word, overwriting. The flag reports
// whether the owning task was parked on the slot.
func (n IsrStateNotification[T]) Set(v T) HigherPriorityTaskWoken {
	return n.slot.SetValue(encodeWord(v))
}
