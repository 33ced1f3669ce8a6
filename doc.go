// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rtx provides a typed task runtime in the style of a small
// preemptive RTOS: typed message queues, tasks with a setup/run
// lifecycle and per-task notification slots, mutex-protected values
// with scoped access, and software timers driven by a service daemon.
//
// Five user-visible constructs cover the surface:
//
//   - Queue[T]: bounded typed FIFO with blocking send/receive
//   - MutexProtected[T]: a value reachable only through a callback
//   - Task / StaticTask: a goroutine with RTOS task semantics
//   - Timer[C]: one-shot, repeating, or self-destroying callbacks
//   - Notification views: Counting, Binary, and StateSlot per task
//
// # Quick Start
//
// A task owns its behavior through a Runner; queues connect tasks:
//
//	events := rtx.NewQueue[int32]()
//	events.Create(16)
//
//	worker := rtx.NewTask(rtx.RunnerFunc(func(t *rtx.Task) {
//	    for {
//	        v := events.AwaitReceive()
//	        process(v)
//	    }
//	}))
//	worker.Create("worker", 4096, 5)
//
//	events.AwaitSend(42)
//
// # Lifecycle
//
// Every construct separates construction from creation. NewQueue,
// NewTask, NewMutexProtected, and NewTimer build inert values;
// Create allocates kernel state and brings them live. Operations on an
// uncreated handle panic: that is a programmer error, not a runtime
// condition. Resource-shaped failures (full command ring, timed-out
// wait) come back as ok booleans instead.
//
// Created objects are pinned. The kernel references them in place, so
// a created Queue, Task, MutexProtected, or Timer must not be copied;
// go vet's copylocks check flags violations.
//
// # Payload Policy
//
// Queue payloads transit by copy when the element type is pointer-free
// (integers, floats, bools, arrays and structs of them). Types that
// carry pointers, including strings and slices, transit through a
// heap box that the queue owns between send and receive, so values
// round-trip unchanged and nothing is shared. The boxed path is
// invisible except at ForISR, which refuses it: interrupt senders may
// not allocate.
//
// # Time
//
// Timeouts are time.Duration values rounded half-up to the kernel's
// tick. Two sentinels exist: NoWait polls without blocking, Forever
// waits indefinitely. Any operation given a timeout other than NoWait
// is a suspension point: the calling task may be parked there, and a
// parked task is where Suspend, AbortDelay, and Destroy take effect.
//
// # Interrupt Context
//
// Interrupt context here means any goroutine that must not block: a
// signal handler, an I/O completion callback, a tight polling loop.
// Such code uses the ForISR projections exclusively. Every projection
// call is non-blocking and returns a HigherPriorityTaskWoken flag;
// the handler collects its flags and yields once on exit:
//
//	isr := events.ForISR()
//
//	func onInterrupt(sample int32) {
//	    woken, _ := isr.Send(sample)
//	    rtx.Yield(woken)
//	}
//
// # Notifications
//
// A task declares its notification slots at construction and reaches
// them through typed views:
//
//	task := rtx.NewTask(runner, rtx.KindCounting, rtx.KindState)
//	task.Create("rx", 4096, 5)
//
//	task.Counting().Give()
//	level := rtx.StateSlot[int16](task)
//	level.Set(-40)
//
// Counting slots accumulate gives; Binary slots latch one event; State
// slots carry the latest value of a small pointer-free type. Setters
// work from any goroutine and from interrupt context via ForISR; the
// waiting side belongs to the owning task alone.
//
// # Timers
//
// Timer commands are asynchronous: they transit the timer service's
// command ring and may be rejected when it is full. Each command has a
// bounded-wait form returning success and an Await form. Callbacks run
// on the service goroutine, so they must stay short and must not wait
// unbounded on the command ring themselves:
//
//	blink := rtx.NewTimer(rtx.Repeating, func(led *Led) {
//	    led.Toggle()
//	}, Led{Pin: 13})
//	blink.Create("blink", 500*time.Millisecond)
//	blink.AwaitStart()
//
// # Scheduling Model
//
// Tasks are goroutines, so priorities and core pins are advisory
// bookkeeping rather than scheduling directives, and preemption is the
// Go scheduler's. Suspend, Resume, Destroy, and AbortDelay act at
// suspension points: a task that never blocks is out of their reach
// until it next waits.
//
// # Race Detection
//
// The kernel substrate synchronizes through atomic operations with
// explicit memory orderings. The race detector cannot observe
// happens-before edges established that way and may report false
// positives on the heaviest concurrent tests; those skip themselves
// under the detector, and the affected examples are excluded with
// //go:build !race.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomic primitives
// with explicit memory ordering, [code.hybscloud.com/lfq] for the
// lock-free command ring feeding the timer service,
// [code.hybscloud.com/iox] for backoff waiting, and
// [code.hybscloud.com/spin] for CPU pause instructions.
package rtx
