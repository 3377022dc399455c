package stdlib_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/library"
	"github.com/stof-engine/stof/process"
	"github.com/stof-engine/stof/stdlib"
	"github.com/stof-engine/stof/value"
	"github.com/stof-engine/stof/vm"
)

// TestStdlibObjectRun exercises Object.run (spec §4.5) dynamically
// invoking a node-attached function by name, mirroring how a compiled
// Call instruction would resolve the same function statically.
func TestStdlibObjectRun(t *testing.T) {
	ctx := context.Background()
	reg := library.NewRegistry()
	stdlib.Register(reg)
	g := graphstore.New()

	root := g.NewRoot(ctx, "r")
	_, err := g.AddFunction(ctx, root, graphstore.Function{
		Name:       "double",
		ReturnType: "number",
		Params:     []graphstore.Param{{Name: "n", Type: "number"}},
		Body: vm.Instructions{
			vm.VarLookup{Name: "n"},
			vm.Literal{Value: value.Int(2)},
			vm.Binary{Op: vm.OpMul},
			vm.Return{HasValue: true},
		},
	})
	require.NoError(t, err)

	sched := process.New(g, reg)
	body := vm.Instructions{
		vm.Call{Path: []string{"Object", "run"}, Args: []vm.CallArg{
			{Value: vm.Instructions{vm.Literal{Value: value.Obj(value.ObjRef(root))}}},
			{Value: vm.Instructions{vm.Literal{Value: value.Str("double")}}},
			{Value: vm.Instructions{vm.Literal{Value: value.ListVal(value.NewList(value.Int(21)))}}},
		}},
		vm.Return{HasValue: true},
	}
	pid := sched.SpawnRoot(body, "", "t")
	sched.RunToCompletion(ctx)
	p, ok := sched.Get(pid)
	require.True(t, ok)
	require.Equal(t, process.Done, p.State, "%v", p.Err)

	n, ok := p.Result.AsNumber()
	require.True(t, ok)
	assert.Equal(t, int64(42), n.Int64())
}

// TestStdlibObjectSchemafy checks that two structurally identical nodes
// produce SchemaEqual maps while a differently shaped node does not
// (spec §4.2's "type-schema equality (structural compare for tests)").
func TestStdlibObjectSchemafy(t *testing.T) {
	ctx := context.Background()
	reg := library.NewRegistry()
	stdlib.Register(reg)
	g := graphstore.New()

	a := g.NewRoot(ctx, "a")
	_, err := g.AddField(ctx, a, graphstore.Field{Name: "x", Value: value.Int(1)})
	require.NoError(t, err)

	b, err := g.NewChild(ctx, a, "b")
	require.NoError(t, err)
	_, err = g.AddField(ctx, b, graphstore.Field{Name: "x", Value: value.Int(99)})
	require.NoError(t, err)

	c, err := g.NewChild(ctx, a, "c")
	require.NoError(t, err)
	_, err = g.AddField(ctx, c, graphstore.Field{Name: "y", Value: value.Str("z")})
	require.NoError(t, err)

	sched := process.New(g, reg)
	schemafyOf := func(id string) value.Value {
		body := vm.Instructions{
			vm.Call{Path: []string{"Object", "schemafy"}, Args: []vm.CallArg{
				{Value: vm.Instructions{vm.Literal{Value: value.Obj(value.ObjRef(id))}}},
			}},
			vm.Return{HasValue: true},
		}
		pid := sched.SpawnRoot(body, "", "t")
		sched.RunToCompletion(ctx)
		p, ok := sched.Get(pid)
		require.True(t, ok)
		require.Equal(t, process.Done, p.State, "%v", p.Err)
		return p.Result
	}

	schemaA := schemafyOf(a)
	schemaB := schemafyOf(b)
	schemaC := schemafyOf(c)

	assert.True(t, value.SchemaEqual(schemaA, schemaB))
	assert.False(t, value.SchemaEqual(schemaA, schemaC))
}
