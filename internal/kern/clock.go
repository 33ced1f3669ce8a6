// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kern

import "time"

// The clock epoch is fixed at package load, the closest analog of
// scheduler start. time.Since reads the monotonic clock, so the tick
// count never goes backwards.
var epoch = time.Now()

// TickCount returns the number of whole ticks elapsed since the epoch.
func TickCount() uint64 {
	return uint64(time.Since(epoch) / TickPeriod)
}
