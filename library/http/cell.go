package http

import (
	"sync"

	"github.com/stof-engine/stof/vm"
)

// Cell is the handoff point between a background request goroutine and
// the process that issued it: the goroutine fills it once, the
// scheduler's waker poll picks up completion, and the owning process
// reads it exactly once on its next tick.
type Cell struct {
	waker *vm.Waker

	mu     sync.Mutex
	result Result
	filled bool
}

// NewCell returns an empty cell paired with a fresh waker.
func NewCell() *Cell {
	return &Cell{waker: vm.NewWaker()}
}

// Waker returns the cell's waker, for SleepOnWaker.
func (c *Cell) Waker() *vm.Waker { return c.waker }

func (c *Cell) fill(res Result) {
	c.mu.Lock()
	c.result = res
	c.filled = true
	c.mu.Unlock()
	c.waker.Wake()
}

// Take returns the result and whether it was ready.
func (c *Cell) Take() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.filled
}
