package stdlib

import (
	"context"
	"strings"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/library"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
	"github.com/stof-engine/stof/vm"
)

const scopeString = "String"

func registerString(reg *library.Registry) {
	reg.Register(scopeString, library.New("len", "number", []vm.Param{library.P("s", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := strArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Int(int64(len([]rune(s)))), nil
		}))

	reg.Register(scopeString, library.New("at", "string", []vm.Param{library.P("s", "string"), library.P("index", "number")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := strArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			idx, _ := args[1].AsNumber()
			r := []rune(s)
			i := int(idx.Int64())
			if i < 0 || i >= len(r) {
				return value.Value{}, stoferr.New(stoferr.Path, scopeString, "index out of range")
			}
			return value.Str(string(r[i])), nil
		}))

	reg.Register(scopeString, library.New("first", "string", []vm.Param{library.P("s", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := strArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			r := []rune(s)
			if len(r) == 0 {
				return value.Value{}, stoferr.New(stoferr.Path, scopeString, "first of empty string")
			}
			return value.Str(string(r[0])), nil
		}))

	reg.Register(scopeString, library.New("last", "string", []vm.Param{library.P("s", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := strArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			r := []rune(s)
			if len(r) == 0 {
				return value.Value{}, stoferr.New(stoferr.Path, scopeString, "last of empty string")
			}
			return value.Str(string(r[len(r)-1])), nil
		}))

	reg.Register(scopeString, library.New("contains", "bool", []vm.Param{library.P("s", "string"), library.P("sub", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, sub := mustTwoStrings(args)
			return value.Bool(strings.Contains(s, sub)), nil
		}))

	reg.Register(scopeString, library.New("index_of", "number", []vm.Param{library.P("s", "string"), library.P("sub", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, sub := mustTwoStrings(args)
			return value.Int(int64(strings.Index(s, sub))), nil
		}))

	reg.Register(scopeString, library.New("starts_with", "bool", []vm.Param{library.P("s", "string"), library.P("prefix", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, p := mustTwoStrings(args)
			return value.Bool(strings.HasPrefix(s, p)), nil
		}))

	reg.Register(scopeString, library.New("ends_with", "bool", []vm.Param{library.P("s", "string"), library.P("suffix", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, suf := mustTwoStrings(args)
			return value.Bool(strings.HasSuffix(s, suf)), nil
		}))

	reg.Register(scopeString, library.NewMutator("push", "string", []vm.Param{library.P("s", "string"), library.P("suffix", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, suf := mustTwoStrings(args)
			return value.Str(s + suf), nil
		}))

	reg.Register(scopeString, library.New("replace", "string", []vm.Param{
		library.P("s", "string"), library.P("old", "string"), library.P("new", "string"),
	}, func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
		s, _ := args[0].AsString()
		old, _ := args[1].AsString()
		n, _ := args[2].AsString()
		return value.Str(strings.ReplaceAll(s, old, n)), nil
	}))

	reg.Register(scopeString, library.New("split", "list", []vm.Param{library.P("s", "string"), library.P("sep", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, sep := mustTwoStrings(args)
			parts := strings.Split(s, sep)
			out := make([]value.Value, len(parts))
			for i, p := range parts {
				out[i] = value.Str(p)
			}
			return value.ListVal(value.NewList(out...)), nil
		}))

	reg.Register(scopeString, library.New("upper", "string", []vm.Param{library.P("s", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := strArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Str(strings.ToUpper(s)), nil
		}))

	reg.Register(scopeString, library.New("lower", "string", []vm.Param{library.P("s", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := strArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Str(strings.ToLower(s)), nil
		}))

	reg.Register(scopeString, library.New("trim", "string", []vm.Param{library.P("s", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := strArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Str(strings.TrimSpace(s)), nil
		}))

	reg.Register(scopeString, library.New("trim_start", "string", []vm.Param{library.P("s", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := strArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Str(strings.TrimLeft(s, " \t\n\r")), nil
		}))

	reg.Register(scopeString, library.New("trim_end", "string", []vm.Param{library.P("s", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, err := strArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Str(strings.TrimRight(s, " \t\n\r")), nil
		}))

	reg.Register(scopeString, library.New("substring", "string", []vm.Param{
		library.P("s", "string"), library.P("start", "number"), library.P("end", "number"),
	}, func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
		s, _ := args[0].AsString()
		startN, _ := args[1].AsNumber()
		endN, _ := args[2].AsNumber()
		r := []rune(s)
		start, end := int(startN.Int64()), int(endN.Int64())
		if start < 0 || end > len(r) || start > end {
			return value.Value{}, stoferr.New(stoferr.Path, scopeString, "substring range out of bounds")
		}
		return value.Str(string(r[start:end])), nil
	}))
}

func strArg(args []value.Value, i int) (string, error) {
	s, ok := args[i].AsString()
	if !ok {
		return "", stoferr.New(stoferr.Argument, scopeString, "expected a string argument")
	}
	return s, nil
}

func mustTwoStrings(args []value.Value) (string, string) {
	a, _ := args[0].AsString()
	b, _ := args[1].AsString()
	return a, b
}
