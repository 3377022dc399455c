package fs_test

import (
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stof-engine/stof/graphstore"
	fslib "github.com/stof-engine/stof/library/fs"
	"github.com/stof-engine/stof/library"
	"github.com/stof-engine/stof/process"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
	"github.com/stof-engine/stof/vm"
)

func TestFsReadAndWrite(t *testing.T) {
	root := memfs.New()
	require.NoError(t, util.WriteFile(root, "greeting.txt", []byte("hello"), 0o644))

	reg := library.NewRegistry()
	fslib.Register(reg, root)
	g := graphstore.New()
	sched := process.New(g, reg)

	body := vm.Instructions{
		vm.Call{Path: []string{"fs", "read"}, Args: []vm.CallArg{
			{Value: vm.Instructions{vm.Literal{Value: value.Str("greeting.txt")}}},
		}},
		vm.Return{HasValue: true},
	}
	pid := sched.SpawnRoot(body, "", "read")
	sched.RunToCompletion(t.Context())
	p, ok := sched.Get(pid)
	require.True(t, ok)
	require.Equal(t, process.Done, p.State, "%v", p.Err)
	s, ok := p.Result.AsString()
	require.True(t, ok)
	assert.Equal(t, "hello", s)

	body = vm.Instructions{
		vm.Call{Path: []string{"fs", "write"}, Args: []vm.CallArg{
			{Value: vm.Instructions{vm.Literal{Value: value.Str("out.txt")}}},
			{Value: vm.Instructions{vm.Literal{Value: value.Str("world")}}},
		}},
		vm.Return{HasValue: true},
	}
	pid = sched.SpawnRoot(body, "", "write")
	sched.RunToCompletion(t.Context())
	p, ok = sched.Get(pid)
	require.True(t, ok)
	require.Equal(t, process.Done, p.State, "%v", p.Err)

	data, err := util.ReadFile(root, "out.txt")
	require.NoError(t, err)
	assert.Equal(t, "world", string(data))
}

func TestFsReadMissingFileIsCustomError(t *testing.T) {
	root := memfs.New()
	reg := library.NewRegistry()
	fslib.Register(reg, root)
	g := graphstore.New()
	sched := process.New(g, reg)

	body := vm.Instructions{
		vm.Call{Path: []string{"fs", "read"}, Args: []vm.CallArg{
			{Value: vm.Instructions{vm.Literal{Value: value.Str("missing.txt")}}},
		}},
		vm.Return{HasValue: true},
	}
	pid := sched.SpawnRoot(body, "", "read-missing")
	sched.RunToCompletion(t.Context())
	p, ok := sched.Get(pid)
	require.True(t, ok)
	assert.Equal(t, process.Errored, p.State)
	var se *stoferr.Error
	require.True(t, errors.As(p.Err, &se))
	assert.Equal(t, stoferr.Custom, se.Kind())
}
