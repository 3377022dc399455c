package vm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/library"
	"github.com/stof-engine/stof/process"
	"github.com/stof-engine/stof/value"
	"github.com/stof-engine/stof/vm"
)

// TestScenarioS2PersistentListAliasing matches spec §8 S2: declaring
// b = a and mutating a via List.push_back leaves b unaffected.
func TestScenarioS2PersistentListAliasing(t *testing.T) {
	ctx := context.Background()
	g := graphstore.New()
	reg := library.NewRegistry()
	reg.Register("List", library.NewMutator("push_back", "list",
		[]vm.Param{library.P("l", "list"), library.P("v", "")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, _ := args[0].AsList()
			return value.ListVal(l.Push(args[1])), nil
		}))

	sched := process.New(g, reg)
	body := vm.Instructions{
		vm.Literal{Value: value.ListVal(value.NewList(value.Int(1), value.Int(2), value.Int(3)))},
		vm.Declare{Name: "a", Mutable: true},
		vm.VarLookup{Name: "a"},
		vm.Declare{Name: "b", Mutable: true},
		vm.Call{Path: []string{"List", "push_back"}, Args: []vm.CallArg{
			{Value: vm.Instructions{vm.VarLookup{Name: "a"}}},
			{Value: vm.Instructions{vm.Literal{Value: value.Int(4)}}},
		}},
	}
	pid := sched.SpawnRoot(body, "", "s2")
	sched.RunToCompletion(ctx)
	p, ok := sched.Get(pid)
	require.True(t, ok)
	require.Equal(t, process.Done, p.State, "%v", p.Err)

	aVar, ok := p.Env.Lookup("a")
	require.True(t, ok)
	aList, _ := aVar.Value.AsList()
	assert.Equal(t, 4, aList.Len())

	bVar, ok := p.Env.Lookup("b")
	require.True(t, ok)
	bList, _ := bVar.Value.AsList()
	assert.Equal(t, 3, bList.Len())
}

// TestAsyncCallNestedRewritesToSpawn matches spec §4.3 "Async call
// rule": a nested async call is rewritten into spawn+suspend, while a
// top-level async call (tested in TestAsyncCallTopLevelRunsInline) runs
// inline.
func TestAsyncCallNestedRewritesToSpawn(t *testing.T) {
	ctx := context.Background()
	g := graphstore.New()
	root := g.NewRoot(ctx, "root")
	_, err := g.AddFunction(ctx, root, graphstore.Function{
		Name: "slow", ReturnType: "number", IsAsync: true,
		Body: vm.Instructions{vm.Literal{Value: value.Int(7)}, vm.Return{HasValue: true}},
	})
	require.NoError(t, err)
	_, err = g.AddFunction(ctx, root, graphstore.Function{
		Name: "caller", ReturnType: "number",
		Body: vm.Instructions{
			vm.Call{Path: []string{"self", "slow"}},
			vm.Await{},
			vm.Return{HasValue: true},
		},
	})
	require.NoError(t, err)

	sched := process.New(g, library.NewRegistry())
	body := vm.Instructions{
		vm.SelfPush{NodeID: root},
		vm.Call{Path: []string{"self", "caller"}},
	}
	pid := sched.SpawnRoot(body, "", "nested-async")
	sched.RunToCompletion(ctx)
	p, ok := sched.Get(pid)
	require.True(t, ok)
	require.Equal(t, process.Done, p.State, "%v", p.Err)
	n, ok := p.Result.AsNumber()
	require.True(t, ok)
	assert.EqualValues(t, 7, n.Int64())
}

// TestAsyncCallTopLevelRunsInline: an async call at top level (empty
// call stack) executes immediately, without a spawn+suspend tick.
func TestAsyncCallTopLevelRunsInline(t *testing.T) {
	ctx := context.Background()
	g := graphstore.New()
	root := g.NewRoot(ctx, "root")
	_, err := g.AddFunction(ctx, root, graphstore.Function{
		Name: "slow", ReturnType: "number", IsAsync: true,
		Body: vm.Instructions{vm.Literal{Value: value.Int(9)}, vm.Return{HasValue: true}},
	})
	require.NoError(t, err)

	sched := process.New(g, library.NewRegistry())
	body := vm.Instructions{
		vm.SelfPush{NodeID: root},
		vm.Call{Path: []string{"self", "slow"}},
	}
	pid := sched.SpawnRoot(body, "", "top-level-async")
	sched.RunToCompletion(ctx)
	p, ok := sched.Get(pid)
	require.True(t, ok)
	require.Equal(t, process.Done, p.State, "%v", p.Err)
	n, ok := p.Result.AsNumber()
	require.True(t, ok)
	assert.EqualValues(t, 9, n.Int64())
}
