package stdlib

import (
	"context"
	"sort"
	"strings"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/library"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
	"github.com/stof-engine/stof/vm"
)

const scopeList = "List"

func listArg(args []value.Value, i int) (value.List, error) {
	l, ok := args[i].AsList()
	if !ok {
		return value.List{}, stoferr.New(stoferr.Argument, scopeList, "expected a list argument")
	}
	return l, nil
}

func indexArg(args []value.Value, i int) int {
	n, _ := args[i].AsNumber()
	return int(n.Int64())
}

func registerList(reg *library.Registry) {
	reg.Register(scopeList, library.NewMutator("push_back", "list", []vm.Param{library.P("l", "list"), library.P("v", "")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.ListVal(l.Push(args[1])), nil
		}))

	reg.Register(scopeList, library.NewMutator("push_front", "list", []vm.Param{library.P("l", "list"), library.P("v", "")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.ListVal(l.PushFront(args[1])), nil
		}))

	reg.Register(scopeList, library.NewMutator("pop_back", "list", []vm.Param{library.P("l", "list")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			out, _, err := l.Pop()
			if err != nil {
				return value.Value{}, err
			}
			return value.ListVal(out), nil
		}))

	reg.Register(scopeList, library.NewMutator("pop_front", "list", []vm.Param{library.P("l", "list")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			out, _, err := l.PopFront()
			if err != nil {
				return value.Value{}, err
			}
			return value.ListVal(out), nil
		}))

	reg.Register(scopeList, library.NewMutator("append", "list", []vm.Param{library.P("l", "list"), library.P("other", "list")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			other, err := listArg(args, 1)
			if err != nil {
				return value.Value{}, err
			}
			return value.ListVal(l.Concat(other)), nil
		}))

	reg.Register(scopeList, library.NewMutator("clear", "list", []vm.Param{library.P("l", "list")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, _ []value.Value) (value.Value, error) {
			return value.ListVal(value.NewList()), nil
		}))

	reg.Register(scopeList, library.NewMutator("reverse", "list", []vm.Param{library.P("l", "list")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.ListVal(l.Reversed()), nil
		}))

	reg.Register(scopeList, library.New("reversed", "list", []vm.Param{library.P("l", "list")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.ListVal(l.Reversed()), nil
		}))

	reg.Register(scopeList, library.New("len", "number", []vm.Param{library.P("l", "list")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Int(int64(l.Len())), nil
		}))

	reg.Register(scopeList, library.New("at", "", []vm.Param{library.P("l", "list"), library.P("index", "number")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return l.Get(indexArg(args, 1))
		}))

	reg.Register(scopeList, library.New("empty", "bool", []vm.Param{library.P("l", "list")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Bool(l.Len() == 0), nil
		}))

	reg.Register(scopeList, library.New("any", "bool", []vm.Param{library.P("l", "list")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Bool(l.Len() > 0), nil
		}))

	reg.Register(scopeList, library.New("front", "", []vm.Param{library.P("l", "list")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return l.Get(0)
		}))

	reg.Register(scopeList, library.New("back", "", []vm.Param{library.P("l", "list")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return l.Get(l.Len() - 1)
		}))

	reg.Register(scopeList, library.New("join", "string", []vm.Param{library.P("l", "list"), library.PDefault("sep", "string", value.Str(""))},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			sep, _ := args[1].AsString()
			parts := make([]string, l.Len())
			for i, v := range l.Slice() {
				parts[i] = v.Display()
			}
			return value.Str(strings.Join(parts, sep)), nil
		}))

	reg.Register(scopeList, library.New("contains", "bool", []vm.Param{library.P("l", "list"), library.P("v", "")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			for _, v := range l.Slice() {
				if value.Equal(v, args[1]) {
					return value.Bool(true), nil
				}
			}
			return value.Bool(false), nil
		}))

	reg.Register(scopeList, library.New("index_of", "number", []vm.Param{library.P("l", "list"), library.P("v", "")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			for i, v := range l.Slice() {
				if value.Equal(v, args[1]) {
					return value.Int(int64(i)), nil
				}
			}
			return value.Int(-1), nil
		}))

	reg.Register(scopeList, library.NewMutator("insert", "list", []vm.Param{
		library.P("l", "list"), library.P("index", "number"), library.P("v", ""),
	}, func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
		l, err := listArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		out, err := l.Insert(indexArg(args, 1), args[2])
		if err != nil {
			return value.Value{}, err
		}
		return value.ListVal(out), nil
	}))

	reg.Register(scopeList, library.NewMutator("replace", "list", []vm.Param{
		library.P("l", "list"), library.P("index", "number"), library.P("v", ""),
	}, func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
		l, err := listArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		out, err := l.Set(indexArg(args, 1), args[2])
		if err != nil {
			return value.Value{}, err
		}
		return value.ListVal(out), nil
	}))

	reg.Register(scopeList, library.NewMutator("remove", "list", []vm.Param{library.P("l", "list"), library.P("index", "number")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			out, _, err := l.Remove(indexArg(args, 1))
			if err != nil {
				return value.Value{}, err
			}
			return value.ListVal(out), nil
		}))

	reg.Register(scopeList, library.NewMutator("sort", "list", []vm.Param{library.P("l", "list")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			elems := append([]value.Value(nil), l.Slice()...)
			sort.SliceStable(elems, func(i, j int) bool { return value.Less(elems[i], elems[j]) })
			return value.ListVal(value.NewList(elems...)), nil
		}))

	reg.Register(scopeList, library.New("is_uniform", "bool", []vm.Param{library.P("l", "list")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Bool(isUniform(l.Slice())), nil
		}))

	reg.Register(scopeList, library.NewMutator("to_uniform", "list", []vm.Param{library.P("l", "list"), library.P("kind", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			l, err := listArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			kind, _ := args[1].AsString()
			out := make([]value.Value, l.Len())
			for i, v := range l.Slice() {
				cast, err := castKind(v, kind)
				if err != nil {
					return value.Value{}, err
				}
				out[i] = cast
			}
			return value.ListVal(value.NewList(out...)), nil
		}))
}

func isUniform(elems []value.Value) bool {
	if len(elems) == 0 {
		return true
	}
	k := elems[0].Unbox().Kind()
	for _, v := range elems[1:] {
		if v.Unbox().Kind() != k {
			return false
		}
	}
	return true
}

func castKind(v value.Value, kind string) (value.Value, error) {
	k, ok := kindByName(kind)
	if !ok {
		return value.Value{}, stoferr.New(stoferr.Type, "to_uniform", "unrecognized kind name").WithDetail("kind", kind)
	}
	return value.Cast(v, k)
}

func kindByName(name string) (value.Kind, bool) {
	switch name {
	case "bool":
		return value.KindBool, true
	case "number":
		return value.KindNumber, true
	case "string":
		return value.KindString, true
	case "list":
		return value.KindList, true
	case "map":
		return value.KindMap, true
	case "set":
		return value.KindSet, true
	case "tuple":
		return value.KindTuple, true
	case "blob":
		return value.KindBlob, true
	default:
		return value.KindVoid, false
	}
}
