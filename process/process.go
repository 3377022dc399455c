// Package process implements the engine's cooperative scheduler (spec
// §4.4, §5): a single-threaded run loop owning the sole *graphstore.Graph
// handle, interleaving any number of vm.Env-backed processes at
// instruction boundaries.
//
// The state-machine shape — running/waiting/sleeping/done/errored, a
// waker primitive, a fair-share per-tick instruction budget — is grounded
// on original_source/src/runtime/runtime.rs, which this spec was
// distilled from; the Go concurrency idiom (one mutex-guarded struct
// owning all mutable state, no goroutine-per-process) is grounded on
// nmxmxh-inos_v1's single-struct concurrency style, since processes here
// are data advanced by one driving loop, not independent goroutines —
// exactly the Rust original's single-threaded Vec<Process> model.
package process

import (
	"github.com/stof-engine/stof/value"
	"github.com/stof-engine/stof/vm"
)

// State is one of a process's five possible lifecycle states (spec
// §4.4 "Process states").
type State int

const (
	Running State = iota
	Waiting
	Sleeping
	Done
	Errored
)

// String names the state for diagnostics and test reports.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Waiting:
		return "waiting"
	case Sleeping:
		return "sleeping"
	case Done:
		return "done"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// Process is one independent execution context: its own vm.Env (operand
// stack, scopes, self/call stacks, pending queue) plus the scheduler-
// facing bookkeeping needed to advance it.
type Process struct {
	ID         string
	Env        *vm.Env
	State      State
	WaitPID    string
	Waker      *vm.Waker
	Result     value.Value
	Err        error
	ResultType string
	// FuncName is the top-level function this process was spawned to
	// run, used for host.RunTests' per-test report lines.
	FuncName string
}
