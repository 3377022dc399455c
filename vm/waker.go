package vm

import (
	"sync"
	"time"
)

// Waker is a shared flag with an optional deadline (spec §4.4). Any
// goroutine (a background I/O reactor, a timer) may call Wake; the
// scheduler polls Ready once per tick to decide whether to promote a
// sleeping process back to running.
type Waker struct {
	mu          sync.Mutex
	signaled    bool
	deadline    time.Time
	hasDeadline bool
}

// NewWaker returns an unsignaled waker with no deadline.
func NewWaker() *Waker { return &Waker{} }

// NewDeadlineWaker returns an unsignaled waker that becomes Ready once
// the given duration elapses, even if Wake is never called — the
// mechanism behind sleep-for-duration (spec §5's timeout note: "Sleep-
// for-duration acts as a timeout").
func NewDeadlineWaker(d time.Duration) *Waker {
	return &Waker{deadline: time.Now().Add(d), hasDeadline: true}
}

// Wake flips the signaled flag.
func (w *Waker) Wake() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.signaled = true
}

// Ready reports whether the waker has been signaled or its deadline has
// passed.
func (w *Waker) Ready() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.signaled {
		return true
	}
	return w.hasDeadline && !time.Now().Before(w.deadline)
}

// Deadline returns the waker's deadline and whether it has one, letting
// the scheduler block until the nearest deadline elapses instead of
// busy-polling at CPU speed for sleep-for-duration wakers (spec §4.4
// step 1, §5 "Sleep-for-duration acts as a timeout").
func (w *Waker) Deadline() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.deadline, w.hasDeadline
}
