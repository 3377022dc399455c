package stdlib

import (
	"context"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/library"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
	"github.com/stof-engine/stof/vm"
)

const scopeSet = "Set"

func setArg(args []value.Value, i int) (value.Set, error) {
	s, ok := args[i].AsSet()
	if !ok {
		return value.Set{}, stoferr.New(stoferr.Argument, scopeSet, "expected a set argument")
	}
	return s, nil
}

func registerSet(reg *library.Registry) {
	reg.Register(scopeSet, library.NewMutator("insert", "set", []vm.Param{library.P("s", "set"), library.P("v", "")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.SetVal(s.Add(args[1])), nil
		}))

	reg.Register(scopeSet, library.New("append", "set", []vm.Param{library.P("s", "set"), library.P("other", "set")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			other, err := setArg(args, 1)
			if err != nil {
				return value.Value{}, err
			}
			return value.SetVal(s.Union(other)), nil
		}))

	reg.Register(scopeSet, library.NewMutator("clear", "set", []vm.Param{library.P("s", "set")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, _ []value.Value) (value.Value, error) {
			return value.SetVal(value.NewSet()), nil
		}))

	reg.Register(scopeSet, library.New("contains", "bool", []vm.Param{library.P("s", "set"), library.P("v", "")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Bool(s.Has(args[1])), nil
		}))

	reg.Register(scopeSet, library.New("first", "", []vm.Param{library.P("s", "set")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			vals := s.Values()
			if len(vals) == 0 {
				return value.Value{}, stoferr.New(stoferr.Path, scopeSet, "first of empty set")
			}
			return vals[0], nil
		}))

	reg.Register(scopeSet, library.New("last", "", []vm.Param{library.P("s", "set")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			vals := s.Values()
			if len(vals) == 0 {
				return value.Value{}, stoferr.New(stoferr.Path, scopeSet, "last of empty set")
			}
			return vals[len(vals)-1], nil
		}))

	reg.Register(scopeSet, library.New("empty", "bool", []vm.Param{library.P("s", "set")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Bool(s.Len() == 0), nil
		}))

	reg.Register(scopeSet, library.New("any", "bool", []vm.Param{library.P("s", "set")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Bool(s.Len() > 0), nil
		}))

	reg.Register(scopeSet, library.New("len", "number", []vm.Param{library.P("s", "set")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Int(int64(s.Len())), nil
		}))

	reg.Register(scopeSet, library.New("at", "", []vm.Param{library.P("s", "set"), library.P("index", "number")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			vals := s.Values()
			i := indexArg(args, 1)
			if i < 0 || i >= len(vals) {
				return value.Value{}, stoferr.New(stoferr.Path, scopeSet, "index out of range")
			}
			return vals[i], nil
		}))

	reg.Register(scopeSet, library.NewMutator("pop_first", "set", []vm.Param{library.P("s", "set")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			vals := s.Values()
			if len(vals) == 0 {
				return value.Value{}, stoferr.New(stoferr.Path, scopeSet, "pop_first of empty set")
			}
			return value.SetVal(s.Remove(vals[0])), nil
		}))

	reg.Register(scopeSet, library.NewMutator("pop_last", "set", []vm.Param{library.P("s", "set")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			vals := s.Values()
			if len(vals) == 0 {
				return value.Value{}, stoferr.New(stoferr.Path, scopeSet, "pop_last of empty set")
			}
			return value.SetVal(s.Remove(vals[len(vals)-1])), nil
		}))

	reg.Register(scopeSet, library.NewMutator("remove", "set", []vm.Param{library.P("s", "set"), library.P("v", "")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.SetVal(s.Remove(args[1])), nil
		}))

	reg.Register(scopeSet, library.New("union", "set", []vm.Param{library.P("s", "set"), library.P("other", "set")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			other, err := setArg(args, 1)
			if err != nil {
				return value.Value{}, err
			}
			return value.SetVal(s.Union(other)), nil
		}))

	reg.Register(scopeSet, library.New("intersection", "set", []vm.Param{library.P("s", "set"), library.P("other", "set")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			other, err := setArg(args, 1)
			if err != nil {
				return value.Value{}, err
			}
			return value.SetVal(s.Intersect(other)), nil
		}))

	reg.Register(scopeSet, library.New("difference", "set", []vm.Param{library.P("s", "set"), library.P("other", "set")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			other, err := setArg(args, 1)
			if err != nil {
				return value.Value{}, err
			}
			return value.SetVal(s.Difference(other)), nil
		}))

	reg.Register(scopeSet, library.New("symmetric_difference", "set", []vm.Param{library.P("s", "set"), library.P("other", "set")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			other, err := setArg(args, 1)
			if err != nil {
				return value.Value{}, err
			}
			return value.SetVal(s.SymmetricDifference(other)), nil
		}))

	reg.Register(scopeSet, library.New("disjoint", "bool", []vm.Param{library.P("s", "set"), library.P("other", "set")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			other, err := setArg(args, 1)
			if err != nil {
				return value.Value{}, err
			}
			return value.Bool(s.Disjoint(other)), nil
		}))

	reg.Register(scopeSet, library.New("subset", "bool", []vm.Param{library.P("s", "set"), library.P("other", "set")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			other, err := setArg(args, 1)
			if err != nil {
				return value.Value{}, err
			}
			return value.Bool(s.Subset(other)), nil
		}))

	reg.Register(scopeSet, library.New("superset", "bool", []vm.Param{library.P("s", "set"), library.P("other", "set")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			other, err := setArg(args, 1)
			if err != nil {
				return value.Value{}, err
			}
			return value.Bool(s.Superset(other)), nil
		}))

	reg.Register(scopeSet, library.New("is_uniform", "bool", []vm.Param{library.P("s", "set")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Bool(isUniform(s.Values())), nil
		}))

	reg.Register(scopeSet, library.NewMutator("to_uniform", "set", []vm.Param{library.P("s", "set"), library.P("kind", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			kind, _ := args[1].AsString()
			out := value.NewSet()
			for _, v := range s.Values() {
				cast, err := castKind(v, kind)
				if err != nil {
					return value.Value{}, err
				}
				out = out.Add(cast)
			}
			return value.SetVal(out), nil
		}))

	reg.Register(scopeSet, library.New("split", "list", []vm.Param{library.P("s", "set")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := setArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.ListVal(value.NewList(s.Values()...)), nil
		}))
}
