package vm

import (
	"context"
	"time"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
)

// Spawn forks a child process running Body and pushes the parent a
// promise value naming the child's id (spec §4.4 "Spawn/await"). Spawn
// itself is synchronous — the parent never suspends to perform it.
type Spawn struct {
	Body       Instructions
	ResultType string
}

func (i Spawn) Exec(_ context.Context, env *Env, _ *graphstore.Graph) (Signal, error) {
	pid := env.Host.Spawn(i.Body, i.ResultType, Scope{})
	env.Push(value.Str(pid))
	return SigNone, nil
}

// Await transitions the calling process to waiting-on-other-process for
// the promise on top of the operand stack (spec §4.4 "Await"). The
// scheduler resumes the process by pushing the child's result (or, on
// failure, injecting an AwaitError instruction) once the child
// terminates.
type Await struct{}

func (i Await) Exec(_ context.Context, env *Env, _ *graphstore.Graph) (Signal, error) {
	promise, err := env.Pop()
	if err != nil {
		return SigNone, err
	}
	pid, ok := promise.Unbox().AsString()
	if !ok {
		return SigNone, stackError("await operand is not a promise")
	}
	env.Pending = PendingEffect{Kind: EffectWaitPID, WaitPID: pid}
	return SigNone, nil
}

// AwaitErrorInstr is injected by the scheduler into an awaiting process
// when the awaited process terminated with error (spec §4.3 "An await
// failure injects a first-class 'await error' instruction into the
// awaiting process so it may recover or propagate"). Since the language
// has no try/catch (spec §7), the only defined behavior is to propagate:
// this instruction returns the wrapped error, moving the process to
// errored.
type AwaitErrorInstr struct {
	Inner error
}

func (i AwaitErrorInstr) Exec(_ context.Context, _ *Env, _ *graphstore.Graph) (Signal, error) {
	return SigNone, stoferr.Wrap(i.Inner)
}

// SleepForDuration suspends the process for d, acting as a timeout even
// if no external waker ever fires (spec §5 "Cancellation & timeouts").
// Sleep-for(0) still yields exactly one scheduler tick (spec §8
// boundary behavior).
type SleepForDuration struct {
	Duration time.Duration
}

func (i SleepForDuration) Exec(_ context.Context, env *Env, _ *graphstore.Graph) (Signal, error) {
	env.Pending = PendingEffect{Kind: EffectSleepDuration, SleepFor: i.Duration}
	return SigNone, nil
}

// SleepOnWaker suspends the process until Waker is signaled or its
// deadline (if any) elapses.
type SleepOnWaker struct {
	Waker *Waker
}

func (i SleepOnWaker) Exec(_ context.Context, env *Env, _ *graphstore.Graph) (Signal, error) {
	env.Pending = PendingEffect{Kind: EffectSleepWaker, Waker: i.Waker}
	return SigNone, nil
}
