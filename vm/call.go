package vm

import (
	"context"
	"strings"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
)

// CallArg is one call-site argument: Name is empty for a positional
// argument, set for a named one; Value is the instruction sequence that
// produces the argument's value when executed.
type CallArg struct {
	Name  string
	Value Instructions
}

// Call resolves a function by either a left-chained receiver value, a
// self/super/path-relative name, or a two-segment library scope path,
// and invokes it (spec §4.3 "Call semantics", refined by SPEC_FULL.md's
// supplemented resolution-order detail).
type Call struct {
	// Receiver, if non-nil, is evaluated first; the resulting value
	// becomes the method-chain left operand for resolution step (a).
	Receiver Instructions
	// Path names the callee: ["self", "foo"], ["Type::method"],
	// ["a", "b", "foo"] (graph path), or exactly ["Scope", "name"] for a
	// standard-library call.
	Path []string
	Args []CallArg
	// ResultType is the declared return type the result is cast to.
	ResultType string
}

func (c Call) Exec(ctx context.Context, env *Env, g *graphstore.Graph) (Signal, error) {
	if len(c.Path) == 0 {
		return SigNone, stoferr.New(stoferr.FuncDNE, "vm", "call has no path")
	}

	args, err := c.evalArgs(ctx, env, g)
	if err != nil {
		return SigNone, err
	}

	// (a) left-chained stack value.
	if c.Receiver != nil {
		if _, err := execBlock(ctx, env, g, c.Receiver); err != nil {
			return SigNone, err
		}
		recv, err := env.Pop()
		if err != nil {
			return SigNone, err
		}
		return c.callOnReceiver(ctx, env, g, recv, args)
	}

	name := c.Path[len(c.Path)-1]

	// (b) self/super paths.
	if c.Path[0] == "self" || c.Path[0] == "super" {
		nodeID := env.Self()
		if c.Path[0] == "super" {
			nodeID = env.Super()
		}
		for _, seg := range c.Path[1 : len(c.Path)-1] {
			next, ok := g.FindChildByName(nodeID, seg)
			if !ok {
				return SigNone, stoferr.New(stoferr.Path, "vm", "no such child on self/super path").WithDetail("segment", seg)
			}
			nodeID = next
		}
		return c.invokeOnNode(ctx, env, g, nodeID, name, args)
	}

	// (c) symbol-table variable treated as an object.
	if v, ok := env.Lookup(c.Path[0]); ok {
		if obj, ok := v.Value.Unbox().AsObject(); ok {
			nodeID := string(obj)
			for _, seg := range c.Path[1 : len(c.Path)-1] {
				next, ok := g.FindChildByName(nodeID, seg)
				if !ok {
					return SigNone, stoferr.New(stoferr.Path, "vm", "no such child on variable path").WithDetail("segment", seg)
				}
				nodeID = next
			}
			return c.invokeOnNode(ctx, env, g, nodeID, name, args)
		}
	}

	// (d) path walk from root.
	v, err := g.Resolve("", strings.Join(c.Path, "/"))
	if err != nil {
		if len(c.Path) == 2 {
			if fn, ok := env.Libraries.Resolve(c.Path[0], c.Path[1]); ok {
				return c.invokeLibrary(ctx, env, g, fn, args)
			}
		}
		return SigNone, stoferr.New(stoferr.FuncDNE, "vm", "call resolved to no function").WithDetail("path", strings.Join(c.Path, "/"))
	}
	dataRef, ok := v.AsFuncPtr()
	if !ok {
		return SigNone, stoferr.New(stoferr.FuncDNE, "vm", "path did not resolve to a function").WithDetail("path", strings.Join(c.Path, "/"))
	}
	return c.invokeFunctionData(ctx, env, g, string(dataRef), "", args)
}

func (c Call) evalArgs(ctx context.Context, env *Env, g *graphstore.Graph) ([]value.Value, error) {
	vals := make([]value.Value, len(c.Args))
	for i, a := range c.Args {
		if _, err := execBlock(ctx, env, g, a.Value); err != nil {
			return nil, err
		}
		v, err := env.Pop()
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// callOnReceiver implements resolution step (a): a method on the
// receiver's object/prototype chain wins over its kind's standard
// library scope, matching "look for a method on that value's kind
// library or on its object/prototype chain" with object dispatch
// preferred since it is the more specific, user-overridable case.
func (c Call) callOnReceiver(ctx context.Context, env *Env, g *graphstore.Graph, recv value.Value, args []value.Value) (Signal, error) {
	name := c.Path[len(c.Path)-1]
	recv = recv.Unbox()
	if obj, ok := recv.AsObject(); ok {
		if nodeID, ok := resolveMethodNode(g, string(obj), name); ok {
			if dataID, ok := g.FindFunctionByName(nodeID, methodBaseName(name)); ok {
				return c.invokeFunctionData(ctx, env, g, dataID, string(obj), args)
			}
		}
	}
	scope := kindScope(recv.Kind())
	if fn, ok := env.Libraries.Resolve(scope, name); ok {
		return c.invokeLibraryWithReceiver(ctx, env, g, fn, recv, args)
	}
	return SigNone, stoferr.New(stoferr.FuncDNE, "vm", "no method found on receiver").
		WithDetail("kind", recv.TypeOf()).WithDetail("name", name)
}

// methodBaseName strips a "Type::method" scoping suffix down to the bare
// function name used for FindFunctionByName lookups.
func methodBaseName(name string) string {
	if idx := strings.LastIndex(name, "::"); idx >= 0 {
		return name[idx+2:]
	}
	return name
}

// resolveMethodNode walks nodeID's prototype chain (via the "prototype"
// attribute) looking for a node that can answer name. If name carries a
// "Type::method" suffix, the walk additionally requires a node's
// "typename" attribute to equal Type before it is accepted (spec
// SPEC_FULL.md supplemented feature 4).
func resolveMethodNode(g *graphstore.Graph, nodeID, name string) (string, bool) {
	wantType := ""
	base := name
	if idx := strings.LastIndex(name, "::"); idx >= 0 {
		wantType, base = name[:idx], name[idx+2:]
	}
	cur := nodeID
	for cur != "" {
		if wantType != "" {
			if tn, ok := g.Attr(cur, "typename"); ok {
				if s, ok := tn.AsString(); ok && s == wantType {
					if _, ok := g.FindFunctionByName(cur, base); ok {
						return cur, true
					}
				}
			}
		} else if _, ok := g.FindFunctionByName(cur, base); ok {
			return cur, true
		}
		proto, ok := g.Attr(cur, "prototype")
		if !ok {
			break
		}
		ref, ok := proto.AsObject()
		if !ok {
			break
		}
		cur = string(ref)
	}
	return "", false
}

// kindScope maps a Value kind onto the standard library scope name that
// implements its method surface (spec §4.5 Number/String/List/Map/Set).
func kindScope(k value.Kind) string {
	switch k {
	case value.KindNumber:
		return "Number"
	case value.KindString:
		return "String"
	case value.KindList:
		return "List"
	case value.KindMap:
		return "Map"
	case value.KindSet:
		return "Set"
	case value.KindObject:
		return "Object"
	default:
		return ""
	}
}

// CallNamedFunction dynamically dispatches a function attached to
// nodeID by name, reusing the same resolution and splice machinery as
// a compiled Call instruction. This backs the Object.run library
// function (spec §4.5), which needs to invoke a graph-resident function
// chosen at runtime by a string name rather than a compiled call site.
func CallNamedFunction(ctx context.Context, env *Env, g *graphstore.Graph, nodeID, name string, args []value.Value) (value.Value, error) {
	// bindArguments pairs callArgs[i] with values[i] positionally; a
	// dynamic call has no compiled CallArg instructions, so synthesize
	// one all-positional (empty Name) slot per argument.
	c := Call{Args: make([]CallArg, len(args))}
	if _, err := c.invokeOnNode(ctx, env, g, nodeID, name, args); err != nil {
		return value.Value{}, err
	}
	return env.Pop()
}

func (c Call) invokeOnNode(ctx context.Context, env *Env, g *graphstore.Graph, nodeID, name string, args []value.Value) (Signal, error) {
	dataID, ok := g.FindFunctionByName(nodeID, methodBaseName(name))
	if !ok {
		return SigNone, stoferr.New(stoferr.FuncDNE, "vm", "no such function on node").WithDetail("name", name)
	}
	return c.invokeFunctionData(ctx, env, g, dataID, nodeID, args)
}

func (c Call) invokeFunctionData(ctx context.Context, env *Env, g *graphstore.Graph, dataID, selfNodeID string, args []value.Value) (Signal, error) {
	fn, ok := g.Function(dataID)
	if !ok {
		return SigNone, stoferr.New(stoferr.FuncDNE, "vm", "data record is not a function")
	}
	body, _ := fn.Body.(Instructions)

	initScope, err := bindArguments(ctx, env, g, fn.Params, c.Args, args)
	if err != nil {
		return SigNone, err
	}

	if fn.IsAsync && env.InNestedCall() {
		pid := env.Host.Spawn(body, fn.ReturnType, initScope)
		env.Push(value.Str(pid))
		env.Pending = PendingEffect{Kind: EffectSleepDuration, SleepFor: 0}
		return SigNone, nil
	}

	env.PushScope()
	env.Scopes[len(env.Scopes)-1] = initScope
	if selfNodeID != "" {
		env.PushSelf(selfNodeID)
	}
	env.Calls = append(env.Calls, CallFrame{FuncName: fn.Name, Async: fn.IsAsync})

	sig, execErr := execBlock(ctx, env, g, body)

	env.Calls = env.Calls[:len(env.Calls)-1]
	if selfNodeID != "" {
		_ = env.PopSelf()
	}
	_ = env.PopScope()

	if execErr != nil {
		return SigNone, execErr
	}
	if sig == SigReturn || len(body) == 0 {
		result, popErr := env.Pop()
		if popErr != nil {
			result = value.Void
		}
		cast, err := castByTypeName(result, fn.ReturnType)
		if err != nil {
			return SigNone, err
		}
		env.Push(cast)
	} else {
		env.Push(value.Void)
	}
	return SigNone, nil
}

func (c Call) invokeLibrary(ctx context.Context, env *Env, g *graphstore.Graph, fn LibraryFunction, args []value.Value) (Signal, error) {
	return c.runLibrary(ctx, env, g, fn, nil, args)
}

func (c Call) invokeLibraryWithReceiver(ctx context.Context, env *Env, g *graphstore.Graph, fn LibraryFunction, recv value.Value, args []value.Value) (Signal, error) {
	return c.runLibrary(ctx, env, g, fn, &recv, args)
}

func (c Call) runLibrary(ctx context.Context, env *Env, g *graphstore.Graph, fn LibraryFunction, recv *value.Value, args []value.Value) (Signal, error) {
	// A receiver-style call (a.push_back(4)) and the equivalent two-segment
	// scope call (List.push_back(a, 4)) are unified here: the receiver, if
	// any, is prepended as the subject positional argument so every
	// library function declares the subject as its first parameter
	// regardless of which call syntax reached it.
	callArgs := c.Args
	values := args
	if recv != nil {
		callArgs = append([]CallArg{{}}, c.Args...)
		values = append([]value.Value{*recv}, args...)
	}

	initScope, err := bindArguments(ctx, env, g, toGraphstoreParams(fn.Params()), callArgs, values)
	if err != nil {
		return SigNone, err
	}

	body, err := fn.Build(len(values), env)
	if err != nil {
		return SigNone, err
	}

	if fn.IsAsync() && env.InNestedCall() {
		pid := env.Host.Spawn(body, fn.ReturnType(), initScope)
		env.Push(value.Str(pid))
		env.Pending = PendingEffect{Kind: EffectSleepDuration, SleepFor: 0}
		return SigNone, nil
	}

	env.PushScope()
	env.Scopes[len(env.Scopes)-1] = initScope
	_, execErr := execBlock(ctx, env, g, body)
	_ = env.PopScope()
	if execErr != nil {
		return SigNone, execErr
	}
	result, popErr := env.Pop()
	if popErr != nil {
		result = value.Void
	}
	cast, err := castByTypeName(result, fn.ReturnType())
	if err != nil {
		return SigNone, err
	}
	if m, ok := fn.(Mutator); ok && m.MutatesSubject() {
		c.writeBackSubject(env, recv != nil, cast)
	}
	env.Push(cast)
	return SigNone, nil
}

// Mutator is implemented by library functions whose result replaces
// their subject argument in place at the call site (spec §8 S2:
// "List.push_back(a, 4)" mutates the variable bound to a rather than
// requiring the caller to rebind "a = List.push_back(a, 4)").
type Mutator interface {
	MutatesSubject() bool
}

// writeBackSubject rebinds the variable the call's subject argument
// named — either the receiver of a dot-call (a.push_back(4)) or the
// first positional argument of a two-segment scope call
// (List.push_back(a, 4)) — to newSubject, if (and only if) that
// argument was written as a bare variable reference.
func (c Call) writeBackSubject(env *Env, hadReceiver bool, newSubject value.Value) {
	var subjectInstrs Instructions
	switch {
	case hadReceiver:
		subjectInstrs = c.Receiver
	case len(c.Args) > 0:
		subjectInstrs = c.Args[0].Value
	default:
		return
	}
	if len(subjectInstrs) != 1 {
		return
	}
	lookup, ok := subjectInstrs[0].(VarLookup)
	if !ok {
		return
	}
	variable, ok := env.Lookup(lookup.Name)
	if !ok || !variable.Mutable {
		return
	}
	variable.Value = newSubject
}

func toGraphstoreParams(params []Param) []graphstore.Param {
	out := make([]graphstore.Param, len(params))
	for i, p := range params {
		out[i] = graphstore.Param{Name: p.Name, Type: p.Type, Default: graphstore.Instructions(p.Default)}
	}
	return out
}

// bindArguments implements SPEC_FULL.md's supplemented named-argument
// algorithm: positional arguments fill declared parameters left to
// right; named arguments are reordered into their declared positions;
// any parameters still missing after that are backfilled by executing
// their default-value instructions in the callee's new scope; an extra
// positional argument or a named argument matching no parameter is an
// Argument error.
func bindArguments(ctx context.Context, env *Env, g *graphstore.Graph, params []graphstore.Param, callArgs []CallArg, values []value.Value) (Scope, error) {
	if len(params) == 0 && len(values) == 0 {
		return Scope{}, nil
	}
	bound := make([]*value.Value, len(params))
	named := make(map[string]int, len(params))
	for i, p := range params {
		named[p.Name] = i
	}

	positionalIdx := 0
	for i, a := range callArgs {
		v := values[i]
		if a.Name == "" {
			for positionalIdx < len(params) && bound[positionalIdx] != nil {
				positionalIdx++
			}
			if positionalIdx >= len(params) {
				return nil, stoferr.New(stoferr.Argument, "vm", "too many positional arguments")
			}
			bound[positionalIdx] = &v
			positionalIdx++
			continue
		}
		idx, ok := named[a.Name]
		if !ok {
			return nil, stoferr.New(stoferr.Argument, "vm", "unmatched named argument").WithDetail("name", a.Name)
		}
		bound[idx] = &v
	}

	scope := Scope{}
	for i, p := range params {
		if bound[i] != nil {
			scope[p.Name] = &Variable{Value: *bound[i], Type: p.Type, Mutable: true, declared: true}
			continue
		}
		if p.Default == nil {
			return nil, stoferr.New(stoferr.Argument, "vm", "missing required argument").WithDetail("name", p.Name)
		}
		defaultInstrs, _ := p.Default.(Instructions)
		subEnv := &Env{Scopes: []Scope{scope}, Host: env.Host, Libraries: env.Libraries}
		if _, err := execBlock(ctx, subEnv, g, defaultInstrs); err != nil {
			return nil, err
		}
		v, err := subEnv.Pop()
		if err != nil {
			return nil, err
		}
		scope[p.Name] = &Variable{Value: v, Type: p.Type, Mutable: true, declared: true}
	}
	return scope, nil
}
