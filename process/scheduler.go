package process

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/internal/obslog"
	"github.com/stof-engine/stof/value"
	"github.com/stof-engine/stof/vm"
)

// DoneHook inspects a process that just reached Done and may demote it
// to Errored (used for `#[errors]`-annotated tests: reaching done
// without the expected error is itself a test failure — spec §4.4
// "Callbacks").
type DoneHook func(p *Process) (State, error)

// ErrorHook inspects a process that just reached Errored and may
// promote it to Done (the symmetric case: a test declared to expect an
// error that got one should count as passing).
type ErrorHook func(p *Process) (State, error)

type schedConfig struct {
	logger     *slog.Logger
	newID      func() string
	tickBudget func(live int) int
}

// Option configures a Scheduler at construction time.
type Option func(*schedConfig)

// WithLogger installs a structured logger for tick/transition logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *schedConfig) { c.logger = logger }
}

// WithIDFunc overrides the pid generator, mainly for deterministic tests.
func WithIDFunc(fn func() string) Option {
	return func(c *schedConfig) { c.newID = fn }
}

// WithTickBudget overrides the fair-share instruction budget formula.
func WithTickBudget(fn func(live int) int) Option {
	return func(c *schedConfig) { c.tickBudget = fn }
}

// defaultTickBudget implements SPEC_FULL.md's supplemented exact
// formula from original_source/src/runtime/runtime.rs: unlimited (run
// to exhaustion) when at most one process is live, otherwise
// max(10, 500/live).
func defaultTickBudget(live int) int {
	if live <= 1 {
		return 1 << 30
	}
	b := 500 / live
	if b < 10 {
		b = 10
	}
	return b
}

// Scheduler is the single-threaded cooperative run loop (spec §4.4).
// One Scheduler owns exactly one *graphstore.Graph; all processes it
// runs share that graph and are advanced one tick at a time from the
// same goroutine that calls Tick/RunToCompletion — the scheduler never
// spawns a goroutine per process.
type Scheduler struct {
	mu     sync.Mutex
	config schedConfig

	graph     *graphstore.Graph
	libraries vm.LibraryResolver

	processes map[string]*Process
	order     []string

	doneHook DoneHook
	errHook  ErrorHook

	pendingSpawns []string
}

// New constructs a Scheduler over g, dispatching library calls through
// libs.
func New(g *graphstore.Graph, libs vm.LibraryResolver, opts ...Option) *Scheduler {
	cfg := schedConfig{
		newID:      func() string { return uuid.NewString() },
		tickBudget: defaultTickBudget,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Scheduler{
		config:    cfg,
		graph:     g,
		libraries: libs,
		processes: make(map[string]*Process),
	}
}

// SetDoneHook installs the done-completion callback (spec §4.4
// "Callbacks").
func (s *Scheduler) SetDoneHook(fn DoneHook) { s.doneHook = fn }

// SetErrorHook installs the error-completion callback.
func (s *Scheduler) SetErrorHook(fn ErrorHook) { s.errHook = fn }

// SpawnRoot starts a new top-level process running body and returns its
// pid. Used by the host to launch `#[main]`/`#[test]` functions and by
// library/vm code that needs a process not nested under a parent call.
func (s *Scheduler) SpawnRoot(body vm.Instructions, resultType, funcName string) string {
	return s.newProcess(body, resultType, vm.Scope{}, funcName)
}

// Spawn implements vm.ProcessHost: it is called synchronously from
// inside a running process's instruction execution (Call's async
// rewrite, or an explicit Spawn instruction).
func (s *Scheduler) Spawn(body vm.Instructions, resultType string, initScope vm.Scope) string {
	return s.newProcess(body, resultType, initScope, "")
}

func (s *Scheduler) newProcess(body vm.Instructions, resultType string, initScope vm.Scope, funcName string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.config.newID()
	env := vm.NewEnv(body)
	if len(initScope) > 0 {
		env.Scopes[0] = initScope
	}
	env.Host = s
	env.Libraries = s.libraries
	p := &Process{ID: id, Env: env, State: Running, ResultType: resultType, FuncName: funcName}
	s.processes[id] = p
	s.order = append(s.order, id)
	s.pendingSpawns = append(s.pendingSpawns, id)
	return id
}

// Get returns a snapshot of process pid's bookkeeping fields (Env is
// shared, not copied).
func (s *Scheduler) Get(pid string) (Process, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.processes[pid]
	if !ok {
		return Process{}, false
	}
	return *p, true
}

// Live reports the number of non-terminal (running, waiting, or
// sleeping) processes, the input to the fair-share budget formula.
func (s *Scheduler) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveLocked()
}

func (s *Scheduler) liveLocked() int {
	n := 0
	for _, id := range s.order {
		switch s.processes[id].State {
		case Running, Waiting, Sleeping:
			n++
		}
	}
	return n
}

// AllTerminal reports whether every known process has reached Done or
// Errored.
func (s *Scheduler) AllTerminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveLocked() == 0
}

// Tick advances every ready process by at most the fair-share
// instruction budget (spec §4.4, numbered steps 1-4). It returns
// whether any process made progress, so RunToCompletion can detect a
// deadlock (every remaining process permanently waiting/sleeping on
// something that will never resolve).
func (s *Scheduler) Tick(ctx context.Context) bool {
	op := obslog.Begin(ctx, s.config.logger, "stof.process.tick")
	s.mu.Lock()
	progressed := s.wakeSleepersLocked()
	budget := s.config.tickBudget(s.liveLocked())
	runners := s.readyRunnersLocked()
	s.mu.Unlock()

	for _, id := range runners {
		if s.runOneLocked(ctx, id, budget) {
			progressed = true
		}
	}

	s.mu.Lock()
	if s.resolveWaitersLocked() {
		progressed = true
	}
	s.pendingSpawns = nil
	s.mu.Unlock()

	op.End(nil)
	return progressed
}

// wakeSleepersLocked promotes sleeping processes whose waker is ready
// back to running (spec §4.4 step 1). Caller holds s.mu.
func (s *Scheduler) wakeSleepersLocked() bool {
	progressed := false
	for _, id := range s.order {
		p := s.processes[id]
		if p.State != Sleeping {
			continue
		}
		if p.Waker == nil || p.Waker.Ready() {
			p.State = Running
			p.Waker = nil
			progressed = true
		}
	}
	return progressed
}

func (s *Scheduler) readyRunnersLocked() []string {
	var out []string
	for _, id := range s.order {
		if s.processes[id].State == Running {
			out = append(out, id)
		}
	}
	return out
}

// runOneLocked executes up to budget instructions of process id's queue
// and applies the resulting effect/completion transition (spec §4.4
// step 2-3).
func (s *Scheduler) runOneLocked(ctx context.Context, id string, budget int) bool {
	s.mu.Lock()
	p, ok := s.processes[id]
	if !ok || p.State != Running {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	ran, err := vm.RunQueue(ctx, p.Env, s.graph, budget)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.transitionErroredLocked(p, err)
		return true
	}

	switch p.Env.Pending.Kind {
	case vm.EffectSleepDuration:
		p.State = Sleeping
		p.Waker = vm.NewDeadlineWaker(p.Env.Pending.SleepFor)
		p.Env.Pending = vm.PendingEffect{}
		return true
	case vm.EffectSleepWaker:
		p.State = Sleeping
		p.Waker = p.Env.Pending.Waker
		p.Env.Pending = vm.PendingEffect{}
		return true
	case vm.EffectWaitPID:
		p.State = Waiting
		p.WaitPID = p.Env.Pending.WaitPID
		p.Env.Pending = vm.PendingEffect{}
		return true
	}

	if len(p.Env.Queue) == 0 {
		s.transitionDoneLocked(p)
		return true
	}
	return ran > 0
}

func (s *Scheduler) transitionDoneLocked(p *Process) {
	result := value.Void
	if top, ok := p.Env.Peek(); ok {
		result = top
	}
	p.State = Done
	p.Result = result
	if s.doneHook != nil {
		if newState, hookErr := s.doneHook(p); newState == Errored {
			p.State = Errored
			p.Err = hookErr
		}
	}
}

func (s *Scheduler) transitionErroredLocked(p *Process, err error) {
	p.State = Errored
	p.Err = err
	if s.errHook != nil {
		if newState, hookResult := s.errHook(p); newState == Done {
			p.State = Done
			p.Err = nil
			_ = hookResult
		}
	}
}

// resolveWaitersLocked implements spec §4.4 step 4: a waiting process
// whose awaited pid has completed (or errored) is handed its result (or
// an injected await-error instruction) and returned to running. Caller
// holds s.mu.
func (s *Scheduler) resolveWaitersLocked() bool {
	progressed := false
	for _, id := range s.order {
		p := s.processes[id]
		if p.State != Waiting {
			continue
		}
		target, ok := s.processes[p.WaitPID]
		if !ok {
			p.Env.Queue = append([]vm.Instruction{vm.AwaitErrorInstr{Inner: errProcessVanished(p.WaitPID)}}, p.Env.Queue...)
			p.State = Running
			progressed = true
			continue
		}
		switch target.State {
		case Done:
			p.Env.Push(target.Result)
			p.State = Running
			progressed = true
		case Errored:
			p.Env.Queue = append([]vm.Instruction{vm.AwaitErrorInstr{Inner: target.Err}}, p.Env.Queue...)
			p.State = Running
			progressed = true
		}
	}
	return progressed
}

// wakerPollInterval bounds how long RunToCompletion blocks between
// re-ticks while waiting on a deadline-less waker (one signaled by an
// external goroutine, such as the HTTP reactor's background fetch,
// rather than a wall-clock sleep-for-duration).
const wakerPollInterval = 5 * time.Millisecond

// RunToCompletion ticks the scheduler until every process reaches Done
// or Errored, or until a tick makes no progress and no live process
// holds a waker that could ever become ready (a genuine deadlock).
//
// A tick that makes no *synchronous* progress does not by itself mean
// deadlock: a process parked via sleep-for-duration or sleep-on-waker
// (spec §4.4) is waiting on wall-clock time or an external goroutine
// (the HTTP reactor, spec §4.5) neither of which resolves at CPU speed.
// Ticking in a hot loop would abandon such processes in Sleeping state
// within microseconds, long before their deadline elapses or their
// waker is signaled. So when a tick makes no progress, this blocks
// until the nearest deadline among sleeping processes elapses (or, for
// deadline-less wakers, until the next bounded poll) before re-ticking,
// and only gives up once no live process is sleeping at all.
func (s *Scheduler) RunToCompletion(ctx context.Context) {
	for !s.AllTerminal() {
		if ctx.Err() != nil {
			return
		}
		if s.Tick(ctx) {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		if !s.waitForWaker(ctx) {
			return
		}
	}
}

// waitForWaker blocks until the earliest deadline among currently
// sleeping processes elapses, ctx is done, or (for wakers with no
// deadline) one poll interval passes, then returns true so the caller
// re-ticks. It returns false only when no process is sleeping at all,
// meaning there is nothing left that could ever make progress.
func (s *Scheduler) waitForWaker(ctx context.Context) bool {
	s.mu.Lock()
	var (
		haveSleeper  bool
		haveDeadline bool
		earliest     time.Time
	)
	for _, id := range s.order {
		p := s.processes[id]
		if p.State != Sleeping {
			continue
		}
		haveSleeper = true
		if p.Waker == nil {
			continue
		}
		if d, ok := p.Waker.Deadline(); ok {
			if !haveDeadline || d.Before(earliest) {
				earliest = d
				haveDeadline = true
			}
		}
	}
	s.mu.Unlock()

	if !haveSleeper {
		return false
	}

	wait := wakerPollInterval
	if haveDeadline {
		if until := time.Until(earliest); until < wait {
			wait = until
		}
	}
	if wait < 0 {
		wait = 0
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	return true
}
