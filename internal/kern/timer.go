// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kern

import (
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// Timer states. Active means listed for expiry; Deleted is terminal
// and frees the control block for re-creation by the facade.
const (
	timerDormant int32 = iota
	timerActive
	timerDeleted
)

// Timer command opcodes carried through the service's command ring.
const (
	TimerStart uint8 = iota
	TimerStop
	TimerReset
	TimerChangePeriod
	TimerDelete
)

// TimerCB is a software timer control block. The service daemon owns
// expiry and the list link; everything else is fixed at creation
// except period, which only the daemon rewrites while applying a
// change-period command.
type TimerCB struct {
	name    string
	fn      func()
	period  uint64 // ticks
	reload  bool
	selfDel bool
	state   atomix.Int32

	expiry uint64
	next   *TimerCB
}

// Name returns the timer name.
func (tb *TimerCB) Name() string {
	return tb.name
}

// Active reports whether the timer is scheduled to expire.
func (tb *TimerCB) Active() bool {
	return tb.state.LoadAcquire() == timerActive
}

// Deleted reports whether the timer has been torn down.
func (tb *TimerCB) Deleted() bool {
	return tb.state.LoadAcquire() == timerDeleted
}

// NewTimer builds a dormant timer control block and makes sure the
// service daemon is running. period is in ticks; reload re-arms the
// timer on expiry, selfDestruct tears it down after its first fire.
func NewTimer(name string, period uint64, reload, selfDestruct bool, fn func()) *TimerCB {
	if period == 0 {
		panic("kern: timer period must be positive")
	}
	tb := &TimerCB{name: name, fn: fn, period: period, reload: reload, selfDel: selfDestruct}
	tb.state.StoreRelaxed(timerDormant)
	service()
	return tb
}

// timerCmd is one command in flight to the daemon. at is the tick the
// command was issued; start and reset arm the timer relative to it.
// arg carries the new period for TimerChangePeriod.
type timerCmd struct {
	tb  *TimerCB
	op  uint8
	arg uint64
	at  uint64
}

// timerService is the timer daemon: a single consumer goroutine fed by
// a multi-producer command ring, parked between expiries on its wake
// channel. Commands are asynchronous and may be rejected when the ring
// is full, exactly the contract the facade's bounded-wait command
// forms expose.
type timerService struct {
	cmds    lfq.Queue[timerCmd]
	wake    chan struct{}
	waiting atomix.Bool
	head    *TimerCB // daemon-owned expiry list, soonest first
}

var (
	timersOnce sync.Once
	timers     *timerService
)

func service() *timerService {
	timersOnce.Do(func() {
		timers = &timerService{
			cmds: lfq.NewMPSC[timerCmd](TimerCmdDepth),
			wake: make(chan struct{}, 1),
		}
		go timers.run()
	})
	return timers
}

// TimerCommand queues a command for the daemon, waiting up to timeout
// for ring space. Timer callbacks must not use unbounded waits here:
// the daemon cannot drain the ring while it is the one blocked on it.
func TimerCommand(tb *TimerCB, op uint8, arg uint64, timeout time.Duration) bool {
	s := service()
	cmd := timerCmd{tb: tb, op: op, arg: arg, at: TickCount()}
	if s.cmds.Enqueue(&cmd) == nil {
		s.kick()
		return true
	}
	if timeout == 0 {
		return false
	}
	d := makeDeadline(timeout)
	backoff := iox.Backoff{}
	for {
		backoff.Wait()
		if s.cmds.Enqueue(&cmd) == nil {
			s.kick()
			return true
		}
		if d.expired() {
			return false
		}
	}
}

// TryTimerCommand queues a command without waiting. woken reports
// whether the daemon was parked and had to be pulsed awake.
func TryTimerCommand(tb *TimerCB, op uint8, arg uint64) (woken, ok bool) {
	s := service()
	cmd := timerCmd{tb: tb, op: op, arg: arg, at: TickCount()}
	if s.cmds.Enqueue(&cmd) != nil {
		return false, false
	}
	return s.kick(), true
}

func (s *timerService) kick() bool {
	woken := s.waiting.LoadAcquire()
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return woken
}

func (s *timerService) run() {
	for {
		s.park(s.nextDelay())
		s.drainCommands()
		s.fireDue()
	}
}

// nextDelay returns how long the daemon may sleep: zero when an expiry
// is already due, negative when nothing is scheduled.
func (s *timerService) nextDelay() time.Duration {
	if s.head == nil {
		return -1
	}
	now := TickCount()
	if s.head.expiry <= now {
		return 0
	}
	return time.Duration(s.head.expiry-now) * TickPeriod
}

func (s *timerService) park(d time.Duration) {
	if d == 0 {
		return
	}
	s.waiting.StoreRelease(true)
	defer s.waiting.StoreRelease(false)
	if d < 0 {
		<-s.wake
		return
	}
	tm := time.NewTimer(d)
	defer tm.Stop()
	select {
	case <-s.wake:
	case <-tm.C:
	}
}

func (s *timerService) drainCommands() {
	for {
		cmd, err := s.cmds.Dequeue()
		if err != nil {
			return
		}
		s.apply(cmd)
	}
}

func (s *timerService) apply(c timerCmd) {
	tb := c.tb
	if tb.state.LoadAcquire() == timerDeleted {
		return
	}
	switch c.op {
	case TimerStart, TimerReset:
		s.unlist(tb)
		tb.expiry = c.at + tb.period
		s.insert(tb)
		tb.state.StoreRelease(timerActive)
	case TimerStop:
		s.unlist(tb)
		tb.state.StoreRelease(timerDormant)
	case TimerChangePeriod:
		tb.period = c.arg
		s.unlist(tb)
		tb.expiry = TickCount() + tb.period
		s.insert(tb)
		tb.state.StoreRelease(timerActive)
	case TimerDelete:
		s.unlist(tb)
		tb.state.StoreRelease(timerDeleted)
	}
}

// fireDue pops and fires every timer whose expiry has passed. A
// repeating timer re-arms from its scheduled expiry, not from the
// moment the callback happened to run, so its cadence does not drift.
// One-shot timers leave the list before their callback runs and so
// read as inactive inside it; a self-destructing timer reads as active
// until its callback has returned, then deletes.
func (s *timerService) fireDue() {
	for s.head != nil && s.head.expiry <= TickCount() {
		tb := s.head
		s.head = tb.next
		tb.next = nil
		if tb.reload {
			tb.expiry += tb.period
			s.insert(tb)
		} else if !tb.selfDel {
			tb.state.StoreRelease(timerDormant)
		}
		tb.fn()
		if tb.selfDel {
			tb.state.StoreRelease(timerDeleted)
		}
	}
}

func (s *timerService) insert(tb *TimerCB) {
	if s.head == nil || tb.expiry < s.head.expiry {
		tb.next = s.head
		s.head = tb
		return
	}
	p := s.head
	for p.next != nil && p.next.expiry <= tb.expiry {
		p = p.next
	}
	tb.next = p.next
	p.next = tb
}

func (s *timerService) unlist(tb *TimerCB) {
	if s.head == nil {
		return
	}
	if s.head == tb {
		s.head = tb.next
		tb.next = nil
		return
	}
	for p := s.head; p.next != nil; p = p.next {
		if p.next == tb {
			p.next = tb.next
			tb.next = nil
			return
		}
	}
}
