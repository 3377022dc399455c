package stdlib_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/library"
	"github.com/stof-engine/stof/process"
	"github.com/stof-engine/stof/stdlib"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
	"github.com/stof-engine/stof/vm"
)

func runToResult(t *testing.T, g *graphstore.Graph, reg *library.Registry, body vm.Instructions) value.Value {
	t.Helper()
	ctx := context.Background()
	sched := process.New(g, reg)
	pid := sched.SpawnRoot(body, "", "t")
	sched.RunToCompletion(ctx)
	p, ok := sched.Get(pid)
	require.True(t, ok)
	require.Equal(t, process.Done, p.State, "%v", p.Err)
	return p.Result
}

func TestStdlibListLenAndAt(t *testing.T) {
	reg := library.NewRegistry()
	stdlib.Register(reg)
	g := graphstore.New()

	body := vm.Instructions{
		vm.Call{Path: []string{"List", "len"}, Args: []vm.CallArg{
			{Value: vm.Instructions{vm.Literal{Value: value.ListVal(value.NewList(value.Int(1), value.Int(2), value.Int(3)))}}},
		}},
		vm.Return{HasValue: true},
	}
	result := runToResult(t, g, reg, body)
	n, ok := result.AsNumber()
	require.True(t, ok)
	assert.Equal(t, int64(3), n.Int64())

	body = vm.Instructions{
		vm.Call{Path: []string{"List", "at"}, Args: []vm.CallArg{
			{Value: vm.Instructions{vm.Literal{Value: value.ListVal(value.NewList(value.Str("a"), value.Str("b")))}}},
			{Value: vm.Instructions{vm.Literal{Value: value.Int(1)}}},
		}},
		vm.Return{HasValue: true},
	}
	result = runToResult(t, g, reg, body)
	s, ok := result.AsString()
	require.True(t, ok)
	assert.Equal(t, "b", s)
}

func TestStdlibListJoinAndContains(t *testing.T) {
	reg := library.NewRegistry()
	stdlib.Register(reg)
	g := graphstore.New()

	body := vm.Instructions{
		vm.Call{Path: []string{"List", "join"}, Args: []vm.CallArg{
			{Value: vm.Instructions{vm.Literal{Value: value.ListVal(value.NewList(value.Str("a"), value.Str("b"), value.Str("c")))}}},
			{Value: vm.Instructions{vm.Literal{Value: value.Str(",")}}},
		}},
		vm.Return{HasValue: true},
	}
	result := runToResult(t, g, reg, body)
	s, ok := result.AsString()
	require.True(t, ok)
	assert.Equal(t, "a,b,c", s)

	body = vm.Instructions{
		vm.Call{Path: []string{"List", "contains"}, Args: []vm.CallArg{
			{Value: vm.Instructions{vm.Literal{Value: value.ListVal(value.NewList(value.Int(1), value.Int(2)))}}},
			{Value: vm.Instructions{vm.Literal{Value: value.Int(2)}}},
		}},
		vm.Return{HasValue: true},
	}
	result = runToResult(t, g, reg, body)
	assert.True(t, result.Truthy())
}

// TestStdlibListWrongKindArgumentError matches spec §4.5's "a library call
// with the wrong argument kind is an Argument error" rule.
func TestStdlibListWrongKindArgumentError(t *testing.T) {
	ctx := context.Background()
	reg := library.NewRegistry()
	stdlib.Register(reg)
	g := graphstore.New()
	sched := process.New(g, reg)

	body := vm.Instructions{
		vm.Call{Path: []string{"List", "len"}, Args: []vm.CallArg{
			{Value: vm.Instructions{vm.Literal{Value: value.Int(1)}}},
		}},
		vm.Return{HasValue: true},
	}
	pid := sched.SpawnRoot(body, "", "bad-arg")
	sched.RunToCompletion(ctx)
	p, ok := sched.Get(pid)
	require.True(t, ok)
	assert.Equal(t, process.Errored, p.State)
	var se *stoferr.Error
	require.True(t, errors.As(p.Err, &se))
	assert.Equal(t, stoferr.Argument, se.Kind())
}
