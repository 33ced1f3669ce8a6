// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package kern is the in-process kernel substrate behind package rtx.
//
// It supplies the primitives the typed facade builds on: a bounded slot
// queue with blocking transfer at both ends, a timed mutex, task control
// blocks carrying notification slot words, a software timer service fed
// by an asynchronous command ring, and the tick clock. The layering
// follows the classic RTOS split: the facade owns types and lifecycle,
// kern owns blocking, waking, and time.
package kern
