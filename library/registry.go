// Package library implements the engine's library dispatch layer (spec
// §4.5): a scope-name -> function-name registry of host-provided
// functions callable from the VM. Argument binding (with defaults, and
// without casting to the declared parameter types) and the async-call
// spawn+suspend rewrite are done by vm.Call.
//
// Grounded on the teacher repo's instance/eval/builtins.go: a flat
// name-keyed dispatch table of small validated Go closures
// (builtinRegistry map[string]builtinDef, register(name, ...)),
// generalized here from one flat namespace into scope-qualified
// registries (Std, Number, String, List, Map, Set, Object, Http, fs) so
// the same function name can exist in more than one scope.
package library

import "github.com/stof-engine/stof/vm"

// Registry is a scope -> name -> vm.LibraryFunction dispatch table. It
// implements vm.LibraryResolver directly, so a *Registry can be handed
// to vm.Env.Libraries and to process.New without adapters.
type Registry struct {
	scopes map[string]map[string]vm.LibraryFunction
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{scopes: make(map[string]map[string]vm.LibraryFunction)}
}

// Register adds fn under the given scope name, keyed by fn.Name().
func (r *Registry) Register(scope string, fn vm.LibraryFunction) {
	bucket, ok := r.scopes[scope]
	if !ok {
		bucket = make(map[string]vm.LibraryFunction)
		r.scopes[scope] = bucket
	}
	bucket[fn.Name()] = fn
}

// Resolve looks up a function by scope and name, implementing
// vm.LibraryResolver.
func (r *Registry) Resolve(scope, name string) (vm.LibraryFunction, bool) {
	bucket, ok := r.scopes[scope]
	if !ok {
		return nil, false
	}
	fn, ok := bucket[name]
	return fn, ok
}

// Scopes returns the registered scope names, for host introspection.
func (r *Registry) Scopes() []string {
	out := make([]string, 0, len(r.scopes))
	for s := range r.scopes {
		out = append(out, s)
	}
	return out
}
