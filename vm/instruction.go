package vm

import (
	"context"

	"github.com/stof-engine/stof/graphstore"
)

// Instruction is the closed polymorphic node kind spec §4.3 describes:
// "execute in environment and graph, optionally returning a
// sub-instruction list to splice in front of the remaining queue". The
// splice is expressed directly here — an instruction that needs one
// (Call, Spawn's synchronous promise aside, NewObject's initializer)
// mutates env.Queue itself rather than returning a value, since Go makes
// that at least as clear as a return-and-caller-splices convention.
type Instruction interface {
	Exec(ctx context.Context, env *Env, g *graphstore.Graph) (Signal, error)
}

// Instructions is a flat instruction stream; it is the concrete type
// backing graphstore.Instructions (an opaque `any` there, to avoid an
// import cycle) once a function body is constructed by this package.
type Instructions []Instruction

// Param mirrors graphstore.Param's shape but with a Default expressed as
// this package's concrete Instructions, used when building/inspecting
// library and declared functions from vm-level code.
type Param struct {
	Name    string
	Type    string
	Default Instructions
}

// LibraryFunction is a callable library-scope function: declared
// parameters, return type, async flag, and a builder that emits the
// instructions implementing the call given the call-site argument count.
type LibraryFunction interface {
	Name() string
	IsAsync() bool
	Params() []Param
	ReturnType() string
	Build(argCount int, env *Env) (Instructions, error)
}

// LibraryResolver looks up a library function by scope and name. The
// library package implements this against its scope registry; vm never
// imports library, breaking what would otherwise be an import cycle
// (library constructs vm.Instruction values to implement its builtins).
type LibraryResolver interface {
	Resolve(scope, name string) (LibraryFunction, bool)
}

// execBlock runs instrs in order, stopping early and propagating any
// non-None signal raised by a child (break/continue/return). It is the
// shared recursive dispatcher for control-flow instructions (If, While,
// Block) — see the package doc comment for why these are tree-recursive
// rather than queue-spliced.
func execBlock(ctx context.Context, env *Env, g *graphstore.Graph, instrs Instructions) (Signal, error) {
	for _, instr := range instrs {
		sig, err := instr.Exec(ctx, env, g)
		if err != nil {
			return SigNone, err
		}
		if sig != SigNone {
			return sig, nil
		}
		if env.Pending.Kind != EffectNone {
			// A suspend/done effect was raised mid-block; stop running
			// further sibling instructions this tick. The scheduler will
			// resume by re-entering the process's top-level Queue, so
			// anything after this point within the current block is
			// lost if it was not itself queued — callers that need
			// "resume here" semantics spread work across the Queue
			// rather than a single execBlock call (see Call/Spawn).
			return SigNone, nil
		}
	}
	return SigNone, nil
}

// RunQueue drains env.Queue up to max instructions (the scheduler's
// fair-share tick budget), executing each at the top level. It returns
// early if a pending effect (sleep/wait/done) was raised, or if the
// queue empties, or if an error occurs.
func RunQueue(ctx context.Context, env *Env, g *graphstore.Graph, max int) (ran int, err error) {
	for ran < max && len(env.Queue) > 0 {
		instr := env.Queue[0]
		env.Queue = env.Queue[1:]
		_, execErr := instr.Exec(ctx, env, g)
		ran++
		if execErr != nil {
			return ran, execErr
		}
		if env.Pending.Kind != EffectNone {
			return ran, nil
		}
	}
	return ran, nil
}
