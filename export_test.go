// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtx

// OutstandingBoxes reports how many heap boxes the queue currently
// owns. Pointer-stored payloads hold one box each between send and
// receive; a drained queue must report zero.
func (q *Queue[T]) OutstandingBoxes() int64 {
	return q.box.outstanding()
}
