package stdlib

import (
	"context"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/library"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
	"github.com/stof-engine/stof/vm"
)

const scopeMap = "Map"

func mapArg(args []value.Value, i int) (value.Map, error) {
	m, ok := args[i].AsMap()
	if !ok {
		return value.Map{}, stoferr.New(stoferr.Argument, scopeMap, "expected a map argument")
	}
	return m, nil
}

func registerMap(reg *library.Registry) {
	reg.Register(scopeMap, library.NewMutator("insert", "map", []vm.Param{
		library.P("m", "map"), library.P("key", ""), library.P("v", ""),
	}, func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
		m, err := mapArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		return value.MapVal(m.Set(args[1], args[2])), nil
	}))

	reg.Register(scopeMap, library.New("append", "map", []vm.Param{library.P("m", "map"), library.P("other", "map")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			m, err := mapArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			other, err := mapArg(args, 1)
			if err != nil {
				return value.Value{}, err
			}
			return value.MapVal(m.Merge(other)), nil
		}))

	reg.Register(scopeMap, library.NewMutator("clear", "map", []vm.Param{library.P("m", "map")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, _ []value.Value) (value.Value, error) {
			return value.MapVal(value.NewMap()), nil
		}))

	reg.Register(scopeMap, library.New("contains", "bool", []vm.Param{library.P("m", "map"), library.P("key", "")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			m, err := mapArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Bool(m.Has(args[1])), nil
		}))

	reg.Register(scopeMap, library.New("get", "", []vm.Param{library.P("m", "map"), library.P("key", "")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			m, err := mapArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return m.RequireGet(args[1])
		}))

	reg.Register(scopeMap, library.New("first", "tuple", []vm.Param{library.P("m", "map")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			m, err := mapArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			entries := m.Entries()
			if len(entries) == 0 {
				return value.Value{}, stoferr.New(stoferr.Path, scopeMap, "first of empty map")
			}
			return value.Tuple([]value.Value{entries[0].Key, entries[0].Value}), nil
		}))

	reg.Register(scopeMap, library.New("last", "tuple", []vm.Param{library.P("m", "map")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			m, err := mapArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			entries := m.Entries()
			if len(entries) == 0 {
				return value.Value{}, stoferr.New(stoferr.Path, scopeMap, "last of empty map")
			}
			last := entries[len(entries)-1]
			return value.Tuple([]value.Value{last.Key, last.Value}), nil
		}))

	reg.Register(scopeMap, library.New("empty", "bool", []vm.Param{library.P("m", "map")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			m, err := mapArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Bool(m.Len() == 0), nil
		}))

	reg.Register(scopeMap, library.New("any", "bool", []vm.Param{library.P("m", "map")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			m, err := mapArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Bool(m.Len() > 0), nil
		}))

	reg.Register(scopeMap, library.New("len", "number", []vm.Param{library.P("m", "map")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			m, err := mapArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Int(int64(m.Len())), nil
		}))

	reg.Register(scopeMap, library.New("keys", "list", []vm.Param{library.P("m", "map")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			m, err := mapArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.ListVal(value.NewList(m.Keys()...)), nil
		}))

	reg.Register(scopeMap, library.New("values", "list", []vm.Param{library.P("m", "map")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			m, err := mapArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			entries := m.Entries()
			out := make([]value.Value, len(entries))
			for i, e := range entries {
				out[i] = e.Value
			}
			return value.ListVal(value.NewList(out...)), nil
		}))

	reg.Register(scopeMap, library.New("at", "tuple", []vm.Param{library.P("m", "map"), library.P("index", "number")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			m, err := mapArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			entries := m.Entries()
			i := indexArg(args, 1)
			if i < 0 || i >= len(entries) {
				return value.Value{}, stoferr.New(stoferr.Path, scopeMap, "index out of range")
			}
			return value.Tuple([]value.Value{entries[i].Key, entries[i].Value}), nil
		}))

	reg.Register(scopeMap, library.NewMutator("pop_first", "map", []vm.Param{library.P("m", "map")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			m, err := mapArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			entries := m.Entries()
			if len(entries) == 0 {
				return value.Value{}, stoferr.New(stoferr.Path, scopeMap, "pop_first of empty map")
			}
			return value.MapVal(m.Delete(entries[0].Key)), nil
		}))

	reg.Register(scopeMap, library.NewMutator("pop_last", "map", []vm.Param{library.P("m", "map")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			m, err := mapArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			entries := m.Entries()
			if len(entries) == 0 {
				return value.Value{}, stoferr.New(stoferr.Path, scopeMap, "pop_last of empty map")
			}
			return value.MapVal(m.Delete(entries[len(entries)-1].Key)), nil
		}))

	reg.Register(scopeMap, library.NewMutator("remove", "map", []vm.Param{library.P("m", "map"), library.P("key", "")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			m, err := mapArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.MapVal(m.Delete(args[1])), nil
		}))
}
