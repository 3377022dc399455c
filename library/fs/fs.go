// Package fs implements the fs.read/fs.write library calls against a
// pluggable billy.Filesystem, the same capability boundary
// agentic-research-mache's nfsmount package builds the other direction
// (a billy.Filesystem backed by a graph). Here the graph is the caller;
// the filesystem is whatever billy.Filesystem the host wires in — an
// osfs-rooted directory in production, a memfs in tests.
package fs

import (
	"context"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/library"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
	"github.com/stof-engine/stof/vm"
)

const scopeFs = "fs"

func pathArg(args []value.Value, i int) (string, error) {
	s, ok := args[i].AsString()
	if !ok {
		return "", stoferr.New(stoferr.Argument, scopeFs, "expected a path argument")
	}
	return s, nil
}

// Register installs fs.read, fs.read_blob, fs.write, and fs.write_blob
// against root.
func Register(reg *library.Registry, root billy.Filesystem) {
	reg.Register(scopeFs, library.New("read", "string", []vm.Param{library.P("path", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			path, err := pathArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			data, err := util.ReadFile(root, path)
			if err != nil {
				return value.Value{}, stoferr.New(stoferr.Custom, scopeFs, "read failed").WithDetail("path", path)
			}
			return value.Str(string(data)), nil
		}))

	reg.Register(scopeFs, library.New("read_blob", "blob", []vm.Param{library.P("path", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			path, err := pathArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			data, err := util.ReadFile(root, path)
			if err != nil {
				return value.Value{}, stoferr.New(stoferr.Custom, scopeFs, "read failed").WithDetail("path", path)
			}
			return value.Blob(data), nil
		}))

	reg.Register(scopeFs, library.New("write", "void", []vm.Param{library.P("path", "string"), library.P("content", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			path, err := pathArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			content, _ := args[1].AsString()
			if err := util.WriteFile(root, path, []byte(content), 0o644); err != nil {
				return value.Value{}, stoferr.New(stoferr.Custom, scopeFs, "write failed").WithDetail("path", path)
			}
			return value.Void, nil
		}))

	reg.Register(scopeFs, library.New("write_blob", "void", []vm.Param{library.P("path", "string"), library.P("content", "blob")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			path, err := pathArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			content, _ := args[1].AsBlob()
			if err := util.WriteFile(root, path, content, 0o644); err != nil {
				return value.Value{}, stoferr.New(stoferr.Custom, scopeFs, "write failed").WithDetail("path", path)
			}
			return value.Void, nil
		}))
}
