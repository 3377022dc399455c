package library

import (
	"context"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/value"
	"github.com/stof-engine/stof/vm"
)

// Impl is the shape every library builtin implements. args holds the
// bound, unboxed parameter values in declared order — by convention the
// subject of a container/number/string operation (the list in
// List.push_back, the map in Map.get, ...) is always args[0], since
// vm.Call unifies the two call syntaxes the language allows
// ("List.push_back(a, 4)" and "a.push_back(4)") by prepending any
// receiver onto args before binding.
type Impl func(ctx context.Context, env *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error)

// Func is the standard vm.LibraryFunction implementation used by every
// scope in this package: a declared signature plus a single Go closure,
// dispatched through one Native instruction. This is where spec §4.5's
// "library calls unbox their arguments uniformly before dispatch" rule
// is centralized — every Impl receives already-unboxed value.Values
// regardless of how the call site boxed them.
//
// Grounded on the teacher's instance/eval/builtins.go builtinDef: a
// name plus arity bounds plus a Go func(args) (Value, error), here
// generalized with declared Params (for named-argument/default
// binding, done by vm.Call before Build ever runs) and an explicit
// async flag.
type Func struct {
	FnName    string
	Async     bool
	Mutates   bool
	ParamList []vm.Param
	Return    string
	Run       Impl
}

func (f Func) Name() string          { return f.FnName }
func (f Func) IsAsync() bool         { return f.Async }
func (f Func) Params() []vm.Param    { return f.ParamList }
func (f Func) ReturnType() string    { return f.Return }
func (f Func) MutatesSubject() bool  { return f.Mutates }

// Build ignores argCount (vm.Call already bound arguments into the
// scope Build's resulting instruction runs in) and returns a single
// Native instruction that reads the bound parameters back out of that
// scope, unboxes them, and dispatches to Run.
func (f Func) Build(_ int, _ *vm.Env) (vm.Instructions, error) {
	params := f.ParamList
	run := f.Run
	return vm.Instructions{vm.Native{Fn: func(ctx context.Context, env *vm.Env, g *graphstore.Graph) (value.Value, error) {
		args := make([]value.Value, len(params))
		for i, p := range params {
			if v, ok := env.Lookup(p.Name); ok {
				args[i] = v.Value.Unbox()
			} else {
				args[i] = value.Null
			}
		}
		return run(ctx, env, g, args)
	}}}, nil
}

// P is shorthand for declaring a required library parameter.
func P(name, typ string) vm.Param { return vm.Param{Name: name, Type: typ} }

// PDefault declares an optional library parameter with a constant
// default, expressed as a single Literal instruction.
func PDefault(name, typ string, def value.Value) vm.Param {
	return vm.Param{Name: name, Type: typ, Default: vm.Instructions{vm.Literal{Value: def}}}
}

// New builds a synchronous Func.
func New(name, ret string, params []vm.Param, run Impl) Func {
	return Func{FnName: name, ParamList: params, Return: ret, Run: run}
}

// NewAsync builds an async Func (callable nested without function
// coloring, per the async-call rewrite in vm.Call/vm.Spawn).
func NewAsync(name, ret string, params []vm.Param, run Impl) Func {
	return Func{FnName: name, Async: true, ParamList: params, Return: ret, Run: run}
}

// NewMutator builds a Func whose result is written back to the
// variable bound to its subject argument at the call site (the
// push_back/insert/remove/clear family).
func NewMutator(name, ret string, params []vm.Param, run Impl) Func {
	return Func{FnName: name, Mutates: true, ParamList: params, Return: ret, Run: run}
}
