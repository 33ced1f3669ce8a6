// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtx_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/rtx"
)

// =============================================================================
// Test Helpers
// =============================================================================

// waitUntil retries f until it returns true or timeout expires.
// Reports failure with the given message if timeout is reached.
func waitUntil(t *testing.T, timeout time.Duration, f func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	backoff := iox.Backoff{}
	for !f() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout after %v: %s", timeout, msg)
		}
		backoff.Wait()
	}
}

// mustPanic runs f and fails the test unless it panics.
func mustPanic(t *testing.T, want string, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("no panic, want %q", want)
		}
		if s, ok := r.(string); !ok || s != want {
			t.Fatalf("panic = %v, want %q", r, want)
		}
	}()
	f()
}

// =============================================================================
// Construction
// =============================================================================

// TestQueueCreate tests basic creation and the empty-state accessors.
func TestQueueCreate(t *testing.T) {
	q := rtx.NewQueue[int32]()
	if !q.Create(4) {
		t.Fatal("Create failed")
	}
	if got := q.MessagesWaiting(); got != 0 {
		t.Fatalf("MessagesWaiting() = %d, want 0", got)
	}
	if got := q.SpacesAvailable(); got != 4 {
		t.Fatalf("SpacesAvailable() = %d, want 4", got)
	}
	if !q.IsEmpty() {
		t.Fatal("IsEmpty() = false on fresh queue")
	}
	if q.IsFull() {
		t.Fatal("IsFull() = true on fresh queue")
	}
}

// TestQueueCreateValidation tests the programmer-error panics around
// creation.
func TestQueueCreateValidation(t *testing.T) {
	t.Run("ZeroCapacity", func(t *testing.T) {
		mustPanic(t, "rtx: queue capacity must be >= 1", func() {
			rtx.NewQueue[int]().Create(0)
		})
	})
	t.Run("DoubleCreate", func(t *testing.T) {
		q := rtx.NewQueue[int]()
		q.Create(2)
		mustPanic(t, "rtx: queue already created", func() {
			q.Create(2)
		})
	})
	t.Run("UseBeforeCreate", func(t *testing.T) {
		mustPanic(t, "rtx: queue not created", func() {
			rtx.NewQueue[int]().Send(1, rtx.NoWait)
		})
	})
}

// TestQueueRecreateAfterDestroy tests that Destroy returns the queue
// to the uncreated state and a fresh Create works.
func TestQueueRecreateAfterDestroy(t *testing.T) {
	q := rtx.NewQueue[int32]()
	q.Create(2)
	q.AwaitSend(7)
	q.Destroy()

	if q.RawHandle() != nil {
		t.Fatal("RawHandle() non-nil after Destroy")
	}
	mustPanic(t, "rtx: queue not created", func() {
		q.Receive(rtx.NoWait)
	})

	if !q.Create(3) {
		t.Fatal("re-Create after Destroy failed")
	}
	if q.RawHandle() == nil {
		t.Fatal("RawHandle() nil after Create")
	}
	if got := q.SpacesAvailable(); got != 3 {
		t.Fatalf("SpacesAvailable() = %d, want 3", got)
	}
}

// =============================================================================
// FIFO and Capacity
// =============================================================================

// TestQueueFIFO tests that a receiver observes sends in order.
func TestQueueFIFO(t *testing.T) {
	q := rtx.NewQueue[int32]()
	q.Create(8)

	for i := range int32(8) {
		if !q.Send(i, rtx.NoWait) {
			t.Fatalf("Send(%d) failed", i)
		}
	}
	for i := range int32(8) {
		v, ok := q.Receive(rtx.NoWait)
		if !ok || v != i {
			t.Fatalf("Receive() = %d ok=%v, want %d", v, ok, i)
		}
	}
}

// TestQueueCounts tests that the message count tracks sends minus
// receives and never exceeds capacity.
func TestQueueCounts(t *testing.T) {
	q := rtx.NewQueue[int32]()
	q.Create(5)

	sent := 0
	for i := range int32(9) {
		if q.Send(i, rtx.NoWait) {
			sent++
		}
	}
	if sent != 5 {
		t.Fatalf("accepted %d sends on capacity 5, want 5", sent)
	}
	received := 0
	for {
		if _, ok := q.Receive(rtx.NoWait); !ok {
			break
		}
		received++
		if got := q.MessagesWaiting(); got != sent-received {
			t.Fatalf("MessagesWaiting() = %d, want %d", got, sent-received)
		}
	}
	if received != 5 {
		t.Fatalf("received %d, want 5", received)
	}
}

// TestQueueSendToFront tests that front sends jump the line.
func TestQueueSendToFront(t *testing.T) {
	q := rtx.NewQueue[int32]()
	q.Create(4)

	q.SendToBack(1, rtx.NoWait)
	q.SendToBack(2, rtx.NoWait)
	q.SendToFront(9, rtx.NoWait)

	want := []int32{9, 1, 2}
	for _, w := range want {
		v, ok := q.Receive(rtx.NoWait)
		if !ok || v != w {
			t.Fatalf("Receive() = %d ok=%v, want %d", v, ok, w)
		}
	}
}

// TestQueueAwaitSendForms tests the unbounded send forms and AwaitPeek.
func TestQueueAwaitSendForms(t *testing.T) {
	q := rtx.NewQueue[int32]()
	q.Create(4)

	q.AwaitSendToBack(1)
	q.AwaitSendToBack(2)
	q.AwaitSendToFront(9)

	if got := q.AwaitPeek(); got != 9 {
		t.Fatalf("AwaitPeek() = %d, want 9", got)
	}
	for _, w := range []int32{9, 1, 2} {
		if got := q.AwaitReceive(); got != w {
			t.Fatalf("AwaitReceive() = %d, want %d", got, w)
		}
	}
}

// TestQueueNoWait tests that NoWait polls instead of blocking.
func TestQueueNoWait(t *testing.T) {
	q := rtx.NewQueue[int32]()
	q.Create(1)

	if _, ok := q.Receive(rtx.NoWait); ok {
		t.Fatal("Receive succeeded on empty queue")
	}
	q.Send(1, rtx.NoWait)
	if q.Send(2, rtx.NoWait) {
		t.Fatal("Send succeeded on full queue")
	}
}

// TestQueuePeek tests that Peek observes without consuming.
func TestQueuePeek(t *testing.T) {
	q := rtx.NewQueue[int32]()
	q.Create(2)
	q.AwaitSend(42)

	for range 2 {
		v, ok := q.Peek(rtx.NoWait)
		if !ok || v != 42 {
			t.Fatalf("Peek() = %d ok=%v, want 42", v, ok)
		}
	}
	if got := q.MessagesWaiting(); got != 1 {
		t.Fatalf("MessagesWaiting() after Peek = %d, want 1", got)
	}
	if v := q.AwaitReceive(); v != 42 {
		t.Fatalf("Receive after Peek = %d, want 42", v)
	}
}

// =============================================================================
// Blocking and Timeouts
// =============================================================================

// TestQueueBlockingReceive tests that a receiver parks until an item
// arrives.
func TestQueueBlockingReceive(t *testing.T) {
	q := rtx.NewQueue[int32]()
	q.Create(1)

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.AwaitSend(11)
	}()

	v, ok := q.Receive(rtx.Forever)
	if !ok || v != 11 {
		t.Fatalf("blocking Receive() = %d ok=%v, want 11", v, ok)
	}
}

// TestQueueReceiveTimeout tests that a bounded wait gives up on time.
func TestQueueReceiveTimeout(t *testing.T) {
	q := rtx.NewQueue[int32]()
	q.Create(1)

	start := time.Now()
	if _, ok := q.Receive(50 * time.Millisecond); ok {
		t.Fatal("Receive succeeded on empty queue")
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("Receive returned after %v, want >= 30ms", elapsed)
	}
}

// TestQueueBlockingSend tests that a sender parks until space appears.
func TestQueueBlockingSend(t *testing.T) {
	q := rtx.NewQueue[int32]()
	q.Create(1)
	q.AwaitSend(1)

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.AwaitReceive()
	}()

	if !q.Send(2, time.Second) {
		t.Fatal("blocking Send failed after space appeared")
	}
}

// TestQueueSendTimeout tests that a full queue rejects a bounded send.
func TestQueueSendTimeout(t *testing.T) {
	q := rtx.NewQueue[int32]()
	q.Create(1)
	q.AwaitSend(1)

	start := time.Now()
	if q.Send(2, 50*time.Millisecond) {
		t.Fatal("Send succeeded on full queue")
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("Send returned after %v, want >= 30ms", elapsed)
	}
}

// =============================================================================
// Pointer-Stored Payloads
// =============================================================================

// TestQueueStringRoundTrip tests that heap-boxed payloads arrive
// unchanged and their boxes are reclaimed.
func TestQueueStringRoundTrip(t *testing.T) {
	q := rtx.NewQueue[string]()
	q.Create(4)

	words := []string{"alpha", "beta", "gamma"}
	for _, w := range words {
		if !q.Send(w, rtx.NoWait) {
			t.Fatalf("Send(%q) failed", w)
		}
	}
	if got := q.OutstandingBoxes(); got != 3 {
		t.Fatalf("OutstandingBoxes() = %d, want 3", got)
	}
	for _, w := range words {
		v, ok := q.Receive(rtx.NoWait)
		if !ok || v != w {
			t.Fatalf("Receive() = %q ok=%v, want %q", v, ok, w)
		}
	}
	if got := q.OutstandingBoxes(); got != 0 {
		t.Fatalf("OutstandingBoxes() after drain = %d, want 0", got)
	}
}

// TestQueueBoxedSendFailure tests that a rejected send frees its box.
func TestQueueBoxedSendFailure(t *testing.T) {
	q := rtx.NewQueue[string]()
	q.Create(1)
	q.AwaitSend("held")

	if q.Send("spill", rtx.NoWait) {
		t.Fatal("Send succeeded on full queue")
	}
	if got := q.OutstandingBoxes(); got != 1 {
		t.Fatalf("OutstandingBoxes() after failed send = %d, want 1", got)
	}
}

// TestQueueBoxedPeek tests that Peek copies the payload while the
// queue keeps the box.
func TestQueueBoxedPeek(t *testing.T) {
	q := rtx.NewQueue[string]()
	q.Create(1)
	q.AwaitSend("kept")

	v, ok := q.Peek(rtx.NoWait)
	if !ok || v != "kept" {
		t.Fatalf("Peek() = %q ok=%v, want %q", v, ok, "kept")
	}
	if got := q.OutstandingBoxes(); got != 1 {
		t.Fatalf("OutstandingBoxes() after Peek = %d, want 1", got)
	}
	q.AwaitReceive()
	if got := q.OutstandingBoxes(); got != 0 {
		t.Fatalf("OutstandingBoxes() after Receive = %d, want 0", got)
	}
}

// TestQueueBoxedLeakFree tests repeated send/receive cycles reclaim
// every box.
func TestQueueBoxedLeakFree(t *testing.T) {
	q := rtx.NewQueue[string]()
	q.Create(2)

	for i := range 100 {
		q.AwaitSend(fmt.Sprintf("item-%d", i))
		if v := q.AwaitReceive(); v != fmt.Sprintf("item-%d", i) {
			t.Fatalf("cycle %d: got %q", i, v)
		}
	}
	if got := q.OutstandingBoxes(); got != 0 {
		t.Fatalf("OutstandingBoxes() after 100 cycles = %d, want 0", got)
	}
}

// TestQueueBoxedReset tests that Reset frees the boxes of dropped
// items.
func TestQueueBoxedReset(t *testing.T) {
	q := rtx.NewQueue[string]()
	q.Create(4)
	q.AwaitSend("a")
	q.AwaitSend("b")

	q.Reset()

	if !q.IsEmpty() {
		t.Fatal("queue not empty after Reset")
	}
	if got := q.OutstandingBoxes(); got != 0 {
		t.Fatalf("OutstandingBoxes() after Reset = %d, want 0", got)
	}
}

// TestQueueBoxedDestroy tests that Destroy frees pending boxes.
func TestQueueBoxedDestroy(t *testing.T) {
	q := rtx.NewQueue[string]()
	q.Create(4)
	q.AwaitSend("a")
	q.AwaitSend("b")

	q.Destroy()

	if got := q.OutstandingBoxes(); got != 0 {
		t.Fatalf("OutstandingBoxes() after Destroy = %d, want 0", got)
	}
}

// =============================================================================
// Overwrite
// =============================================================================

// TestQueueOverwrite tests the capacity-1 mailbox law: the reader sees
// the last write.
func TestQueueOverwrite(t *testing.T) {
	q := rtx.NewQueue[int32]()
	q.Create(1)

	q.Overwrite(1)
	q.Overwrite(2)

	v, ok := q.Receive(rtx.NoWait)
	if !ok || v != 2 {
		t.Fatalf("Receive() = %d ok=%v, want 2", v, ok)
	}
}

// TestQueueOverwriteBoxed tests that displacing a boxed payload frees
// the displaced box.
func TestQueueOverwriteBoxed(t *testing.T) {
	q := rtx.NewQueue[string]()
	q.Create(1)

	q.Overwrite("old")
	q.Overwrite("new")
	if got := q.OutstandingBoxes(); got != 1 {
		t.Fatalf("OutstandingBoxes() after displacement = %d, want 1", got)
	}

	v, ok := q.Receive(rtx.NoWait)
	if !ok || v != "new" {
		t.Fatalf("Receive() = %q ok=%v, want %q", v, ok, "new")
	}
	if got := q.OutstandingBoxes(); got != 0 {
		t.Fatalf("OutstandingBoxes() after drain = %d, want 0", got)
	}
}

// TestQueueOverwriteCapacityPanics tests that Overwrite refuses
// queues deeper than one slot.
func TestQueueOverwriteCapacityPanics(t *testing.T) {
	q := rtx.NewQueue[int32]()
	q.Create(2)
	mustPanic(t, "rtx: overwrite requires a capacity-1 queue", func() {
		q.Overwrite(1)
	})
}

// =============================================================================
// Reset
// =============================================================================

// TestQueueReset tests that Reset restores the empty state.
func TestQueueReset(t *testing.T) {
	q := rtx.NewQueue[int32]()
	q.Create(3)
	for i := range int32(3) {
		q.Send(i, rtx.NoWait)
	}

	q.Reset()

	if !q.IsEmpty() {
		t.Fatal("queue not empty after Reset")
	}
	if got := q.SpacesAvailable(); got != 3 {
		t.Fatalf("SpacesAvailable() after Reset = %d, want 3", got)
	}
}

// =============================================================================
// Static Flavor
// =============================================================================

// TestStaticQueue tests the preallocated flavor end to end.
func TestStaticQueue(t *testing.T) {
	q := rtx.NewStaticQueue[int32](3)
	q.Create()

	for i := range int32(3) {
		if !q.Send(i*10, rtx.NoWait) {
			t.Fatalf("Send(%d) failed", i*10)
		}
	}
	if !q.IsFull() {
		t.Fatal("IsFull() = false after filling")
	}
	for i := range int32(3) {
		v, ok := q.Receive(rtx.NoWait)
		if !ok || v != i*10 {
			t.Fatalf("Receive() = %d ok=%v, want %d", v, ok, i*10)
		}
	}
}

// TestStaticQueueValidation tests the static flavor's panics.
func TestStaticQueueValidation(t *testing.T) {
	t.Run("ZeroCapacity", func(t *testing.T) {
		mustPanic(t, "rtx: queue capacity must be >= 1", func() {
			rtx.NewStaticQueue[int](0)
		})
	})
	t.Run("DoubleCreate", func(t *testing.T) {
		q := rtx.NewStaticQueue[int](2)
		q.Create()
		mustPanic(t, "rtx: queue already created", func() {
			q.Create()
		})
	})
}

// =============================================================================
// Concurrency
// =============================================================================

// TestQueueConcurrentProducers tests per-producer FIFO order under
// contention.
func TestQueueConcurrentProducers(t *testing.T) {
	const producers = 4
	const perProducer = 200

	q := rtx.NewQueue[int32]()
	q.Create(16)

	var wg sync.WaitGroup
	for id := range int32(producers) {
		wg.Add(1)
		go func(id int32) {
			defer wg.Done()
			for i := range int32(perProducer) {
				q.AwaitSend(id*100000 + i)
			}
		}(id)
	}

	lastSeen := make(map[int32]int32)
	for range producers * perProducer {
		v := q.AwaitReceive()
		id, seq := v/100000, v%100000
		if last, ok := lastSeen[id]; ok && seq <= last {
			t.Fatalf("producer %d: sequence %d after %d", id, seq, last)
		}
		lastSeen[id] = seq
	}
	wg.Wait()

	for id := range int32(producers) {
		if lastSeen[id] != perProducer-1 {
			t.Fatalf("producer %d: last sequence %d, want %d", id, lastSeen[id], perProducer-1)
		}
	}
}

// TestQueueConcurrentStrings tests the boxed path under concurrent
// producers and a draining consumer.
func TestQueueConcurrentStrings(t *testing.T) {
	if rtx.RaceEnabled {
		t.Skip("skip: payload boxes use cross-variable memory ordering")
	}
	const producers = 3
	const perProducer = 100

	q := rtx.NewQueue[string]()
	q.Create(8)

	var wg sync.WaitGroup
	for id := range producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range perProducer {
				q.AwaitSend(fmt.Sprintf("%d/%d", id, i))
			}
		}(id)
	}

	seen := make(map[string]bool)
	for range producers * perProducer {
		v := q.AwaitReceive()
		if seen[v] {
			t.Fatalf("duplicate payload %q", v)
		}
		seen[v] = true
	}
	wg.Wait()

	if got := q.OutstandingBoxes(); got != 0 {
		t.Fatalf("OutstandingBoxes() after drain = %d, want 0", got)
	}
}
