package library_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/library"
	"github.com/stof-engine/stof/value"
	"github.com/stof-engine/stof/vm"
)

func TestRegistryResolveAndScopes(t *testing.T) {
	reg := library.NewRegistry()
	fn := library.New("abs", "number", []vm.Param{library.P("n", "number")},
		func(context.Context, *vm.Env, *graphstore.Graph, []value.Value) (value.Value, error) {
			return value.Int(1), nil
		})
	reg.Register("Number", fn)

	got, ok := reg.Resolve("Number", "abs")
	require.True(t, ok)
	assert.Equal(t, "abs", got.Name())
	assert.False(t, got.IsAsync())

	_, ok = reg.Resolve("Number", "missing")
	assert.False(t, ok)
	_, ok = reg.Resolve("NoSuchScope", "abs")
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{"Number"}, reg.Scopes())
}

// TestFuncBuildBindsAndUnboxesArguments exercises library.Func.Build's
// contract (spec §4.5): the emitted Native instruction looks up the bound
// scope variables, unboxes them, and hands plain values to Run.
func TestFuncBuildBindsAndUnboxesArguments(t *testing.T) {
	ctx := context.Background()
	g := graphstore.New()
	var seen []value.Value
	fn := library.New("echo", "number", []vm.Param{library.P("a", "number"), library.P("b", "number")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			seen = append([]value.Value(nil), args...)
			return args[0], nil
		})

	env := vm.NewEnv(nil)
	boxed := value.NewBox(value.Int(5))
	env.Declare("a", value.Boxed(boxed), "number", true)
	env.Declare("b", value.Int(6), "number", false)

	instrs, err := fn.Build(2, env)
	require.NoError(t, err)
	for _, instr := range instrs {
		_, err := instr.Exec(ctx, env, g)
		require.NoError(t, err)
	}

	require.Len(t, seen, 2)
	assert.Equal(t, int64(5), mustInt(seen[0]))
	assert.Equal(t, int64(6), mustInt(seen[1]))
}

func mustInt(v value.Value) int64 {
	n, _ := v.Unbox().AsNumber()
	return n.Int64()
}
