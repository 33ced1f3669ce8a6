// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtx

import (
	"time"

	"code.hybscloud.com/rtx/internal/kern"
)

// Runner is the behavior a Task executes. Run is called exactly once
// on the task's own goroutine; when it returns, the task destroys
// itself.
type Runner interface {
	Run(*Task)
}

// SetupRunner is a Runner with a setup hook. Setup runs once on the
// task goroutine before Run; runners without it skip straight to Run.
type SetupRunner interface {
	Runner
	Setup(*Task)
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(*Task)

// Run calls f.
func (f RunnerFunc) Run(t *Task) { f(t) }

// ControlFlow tells a periodic helper whether to keep going.
type ControlFlow uint8

const (
	// Continue keeps the periodic loop running.
	Continue ControlFlow = iota
	// Break leaves the periodic loop.
	Break
)

// taskKilled unwinds a killed task's goroutine from its next blocking
// call back to the entry function, which swallows it.
type taskKilled struct{}

const defaultTaskName = "task"

// Task is a long-running unit of execution: a named goroutine with a
// priority, an optional core preference, and a fixed list of
// notification slots bound at construction.
//
// Construction is inert; Create spawns the goroutine, which runs the
// runner's optional Setup, then Run, then destroys itself. Destroying
// a running task from outside marks it dead at once and unwinds its
// goroutine at the next blocking call. A Task must not be copied.
//
// Priorities and core pins carry through to the control block for
// inspection, but the Go scheduler does not honor them; see the
// package documentation.
//
// Example:
//
//	worker := rtx.NewTask(rtx.RunnerFunc(func(t *rtx.Task) {
//		for i := 0; i < 10; i++ {
//			t.Delay(10 * time.Millisecond)
//		}
//	}))
//	worker.Create("worker", 4096, 5)
type Task struct {
	noCopy noCopy

	runner Runner
	kinds  []NotificationKind
	tcb    *kern.TCB
	exited chan struct{}
}

// NewTask returns an inert task that will execute r. The variadic
// kinds bind the task's notification slot list in order; at most
// kern.NotifySlots entries.
func NewTask(r Runner, kinds ...NotificationKind) *Task {
	if r == nil {
		panic("rtx: task requires a runner")
	}
	if len(kinds) > kern.NotifySlots {
		panic("rtx: notification slots exceed the kernel limit")
	}
	return &Task{runner: r, kinds: kinds}
}

// Create spawns the task. An empty name gets a default. Stack depth
// below the kernel minimum panics; creating a live task twice panics.
// Creating over a destroyed incarnation waits for its goroutine to
// finish unwinding first. The return reports spawn success for parity
// with the static flavor and is always true on this runtime.
func (t *Task) Create(name string, stackDepth uint32, priority int32) bool {
	return t.spawn(name, stackDepth, priority, -1)
}

// CreatePinnedToCore spawns the task with a core preference. The pin
// is recorded on the control block; the Go scheduler treats it as
// advisory.
func (t *Task) CreatePinnedToCore(name string, stackDepth uint32, priority int32, core int) bool {
	return t.spawn(name, stackDepth, priority, core)
}

func (t *Task) spawn(name string, stackDepth uint32, priority int32, core int) bool {
	if t.tcb != nil && !t.tcb.Dead() {
		panic("rtx: task already created")
	}
	if stackDepth < kern.MinStackDepth {
		panic("rtx: stack depth below the kernel minimum")
	}
	if name == "" {
		name = defaultTaskName
	}
	if t.exited != nil {
		// A destroyed predecessor keeps running until its next
		// blocking call; the control block must not change under it.
		<-t.exited
	}
	t.tcb = kern.NewTCB(name, priority, int32(core), len(t.kinds))
	t.exited = make(chan struct{})
	go t.entry(t.tcb, t.exited)
	return true
}

// entry is the goroutine body: setup, run, self-destroy. A kill
// arriving mid-run unwinds to here via the taskKilled panic. The
// control block and the exit acknowledge arrive as arguments so a
// late-starting goroutine can never pick up a successor's.
func (t *Task) entry(tcb *kern.TCB, exited chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			if _, killed := r.(taskKilled); !killed {
				panic(r)
			}
		}
		tcb.Exit()
		close(exited)
	}()
	if s, ok := t.runner.(SetupRunner); ok {
		s.Setup(t)
	}
	t.runner.Run(t)
}

func (t *Task) mustTCB() *kern.TCB {
	if t.tcb == nil {
		panic("rtx: task not created")
	}
	return t.tcb
}

// failedWait turns a wait failure on a killed task into the unwind
// that retires its goroutine. The caller passes the control block it
// waited on, so a wait that died with one incarnation is never judged
// against a newer one. Timeouts and aborts on a live task pass through
// as plain failures.
func (t *Task) failedWait(tcb *kern.TCB) {
	if tcb.Dead() {
		panic(taskKilled{})
	}
}

// Destroy deletes the task. Its goroutine unwinds at the next
// blocking call; IsRunning reports false immediately.
func (t *Task) Destroy() {
	t.mustTCB().Kill()
}

// Suspend holds the task at its next suspension point until Resume.
func (t *Task) Suspend() {
	t.mustTCB().Suspend()
}

// Resume releases a suspended task.
func (t *Task) Resume() {
	t.mustTCB().Resume()
}

// AbortDelay forces the task out of its current timed wait with a
// failure indication. A task not waiting is unaffected.
func (t *Task) AbortDelay() {
	t.mustTCB().AbortDelay()
}

// Priority returns the task's priority.
func (t *Task) Priority() int32 {
	return t.mustTCB().Priority()
}

// SetPriority changes the task's priority.
func (t *Task) SetPriority(p int32) {
	t.mustTCB().SetPriority(p)
}

// Name returns the task's name.
func (t *Task) Name() string {
	return t.mustTCB().Name()
}

// IsRunning reports whether the task has been created and not yet
// destroyed itself or been destroyed.
func (t *Task) IsRunning() bool {
	return t.tcb != nil && !t.tcb.Dead()
}

// RawHandle returns the kernel control block backing this task, or
// nil before Create.
func (t *Task) RawHandle() any {
	if t.tcb == nil {
		return nil
	}
	return t.tcb
}

// Delay suspends the calling task for the given duration, quantized
// to ticks. AbortDelay cuts it short.
func (t *Task) Delay(d time.Duration) {
	tcb := t.mustTCB()
	if !tcb.Sleep(waitReal(d)) {
		t.failedWait(tcb)
	}
}

// DelayUntil suspends the calling task until prevWake plus increment
// on the tick clock and returns that target as the next prevWake. The
// cadence is anchored to the clock, not to when the task got around
// to calling it, so periodic work does not drift. An increment that
// rounds below one tick panics. When the target has already passed
// the task does not sleep, but the call remains a suspension point.
func (t *Task) DelayUntil(prevWake Tick, increment time.Duration) Tick {
	tcb := t.mustTCB()
	ticks := ToTicks(increment)
	if ticks == 0 {
		panic("rtx: delay increment must be at least one tick")
	}
	target := prevWake.Add(ticks)
	delta := target.Sub(Now())
	if delta < 0 {
		delta = 0
	}
	if !tcb.Sleep(delta.Real()) {
		t.failedWait(tcb)
	}
	return target
}

// Every runs f once per period, drift-free, until the task dies.
func (t *Task) Every(period time.Duration, f func()) {
	wake := Now()
	for {
		wake = t.DelayUntil(wake, period)
		f()
	}
}

// EveryUntil runs f once per period, drift-free, until f returns
// Break or the task dies.
func (t *Task) EveryUntil(period time.Duration, f func() ControlFlow) {
	wake := Now()
	for {
		wake = t.DelayUntil(wake, period)
		if f() == Break {
			return
		}
	}
}

// StaticTask is the storage-binding flavor of Task: the stack depth is
// fixed at construction, so Create needs only a name and priority and
// cannot fail.
//
// Example:
//
//	blinky := rtx.NewStaticTask(run, 4096, rtx.KindBinary)
//	blinky.Create("blinky", 5)
type StaticTask struct {
	Task

	stackDepth uint32
}

// NewStaticTask returns an inert static task executing r with the
// given stack depth. Stack depth below the kernel minimum panics.
func NewStaticTask(r Runner, stackDepth uint32, kinds ...NotificationKind) *StaticTask {
	if r == nil {
		panic("rtx: task requires a runner")
	}
	if len(kinds) > kern.NotifySlots {
		panic("rtx: notification slots exceed the kernel limit")
	}
	if stackDepth < kern.MinStackDepth {
		panic("rtx: stack depth below the kernel minimum")
	}
	s := &StaticTask{stackDepth: stackDepth}
	s.runner = r
	s.kinds = kinds
	return s
}

// Create spawns the task with the stack depth bound at construction.
func (s *StaticTask) Create(name string, priority int32) {
	s.spawn(name, s.stackDepth, priority, -1)
}

// CreatePinnedToCore spawns the task with a core preference and the
// stack depth bound at construction.
func (s *StaticTask) CreatePinnedToCore(name string, priority int32, core int) {
	s.spawn(name, s.stackDepth, priority, core)
}
