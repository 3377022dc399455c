package stdlib

import (
	"context"
	"fmt"
	"io"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/library"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
	"github.com/stof-engine/stof/vm"
)

const scopeStd = "Std"

func registerStd(reg *library.Registry, out io.Writer) {
	reg.Register(scopeStd, library.New("print", "void", []vm.Param{library.P("v", "")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			fmt.Fprintln(out, args[0].Display())
			return value.Void, nil
		}))

	reg.Register(scopeStd, library.New("assert", "void", []vm.Param{
		library.P("cond", "bool"),
		library.PDefault("msg", "string", value.Str("assertion failed")),
	}, func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
		if !args[0].Truthy() {
			msg, _ := args[1].AsString()
			return value.Value{}, stoferr.New(stoferr.Custom, scopeStd, msg)
		}
		return value.Void, nil
	}))

	reg.Register(scopeStd, library.New("typeof", "string", []vm.Param{library.P("v", "")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			return value.Str(args[0].TypeOf()), nil
		}))

	reg.Register(scopeStd, library.New("error", "void", []vm.Param{library.P("msg", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			msg, _ := args[0].AsString()
			return value.Value{}, stoferr.New(stoferr.Custom, scopeStd, msg)
		}))
}
