package stdlib

import (
	"context"
	"math"
	"strconv"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/library"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
	"github.com/stof-engine/stof/vm"
)

const scopeNumber = "Number"

func registerNumber(reg *library.Registry) {
	unary := func(name string, fn func(float64) float64) {
		reg.Register(scopeNumber, library.New(name, "number", []vm.Param{library.P("n", "number")},
			func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
				n, err := numberArg(args, 0)
				if err != nil {
					return value.Value{}, err
				}
				return value.Num(value.FloatNum(fn(n.Float64())).WithUnit(n.Unit())), nil
			}))
	}

	unary("sqrt", math.Sqrt)
	unary("cbrt", math.Cbrt)
	unary("log", math.Log)
	unary("log2", math.Log2)
	unary("log10", math.Log10)
	unary("exp", math.Exp)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("asin", math.Asin)
	unary("acos", math.Acos)
	unary("atan", math.Atan)
	unary("sinh", math.Sinh)
	unary("cosh", math.Cosh)
	unary("tanh", math.Tanh)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("round", math.Round)
	unary("fract", func(f float64) float64 { return f - math.Trunc(f) })
	unary("signum", func(f float64) float64 {
		switch {
		case f > 0:
			return 1
		case f < 0:
			return -1
		default:
			return 0
		}
	})

	reg.Register(scopeNumber, library.New("abs", "number", []vm.Param{library.P("n", "number")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			n, err := numberArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			if n.IsInt() {
				i := n.Int64()
				if i < 0 {
					i = -i
				}
				return value.Num(value.IntNum(i).WithUnit(n.Unit())), nil
			}
			return value.Num(value.FloatNum(math.Abs(n.Float64())).WithUnit(n.Unit())), nil
		}))

	reg.Register(scopeNumber, library.New("pow", "number", []vm.Param{library.P("n", "number"), library.P("exp", "number")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			n, err := numberArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			e, err := numberArg(args, 1)
			if err != nil {
				return value.Value{}, err
			}
			return value.Num(value.FloatNum(math.Pow(n.Float64(), e.Float64())).WithUnit(n.Unit())), nil
		}))

	reg.Register(scopeNumber, library.New("has_unit", "bool", []vm.Param{library.P("n", "number")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			n, err := numberArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Bool(n.Unit().HasUnit()), nil
		}))

	reg.Register(scopeNumber, library.New("unit", "string", []vm.Param{library.P("n", "number")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			n, err := numberArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Str(n.Unit().String()), nil
		}))

	reg.Register(scopeNumber, library.New("to", "number", []vm.Param{library.P("n", "number"), library.P("unit", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			n, err := numberArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			unitName, _ := args[1].AsString()
			target, ok := value.ParseUnit(unitName)
			if !ok {
				return value.Value{}, stoferr.New(stoferr.Type, scopeNumber, "unrecognized unit").WithDetail("unit", unitName)
			}
			converted, ok := value.Convert(n.Float64(), n.Unit(), target)
			if !ok {
				return value.Value{}, stoferr.New(stoferr.Type, scopeNumber, "incompatible unit conversion")
			}
			return value.Num(value.FloatNum(converted).WithUnit(target)), nil
		}))

	reg.Register(scopeNumber, library.New("to_hex", "string", []vm.Param{library.P("n", "number")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			n, err := numberArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Str(strconv.FormatInt(n.Int64(), 16)), nil
		}))

	reg.Register(scopeNumber, library.New("to_bin", "string", []vm.Param{library.P("n", "number")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			n, err := numberArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Str(strconv.FormatInt(n.Int64(), 2)), nil
		}))

	reg.Register(scopeNumber, library.New("to_oct", "string", []vm.Param{library.P("n", "number")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			n, err := numberArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Str(strconv.FormatInt(n.Int64(), 8)), nil
		}))

	reg.Register(scopeNumber, library.New("parse", "number", []vm.Param{library.P("s", "string")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			s, ok := args[0].AsString()
			if !ok {
				return value.Value{}, stoferr.New(stoferr.Argument, scopeNumber, "parse expects a string")
			}
			n, err := value.ParseNumber(s)
			if err != nil {
				return value.Value{}, err
			}
			return value.Num(n), nil
		}))
}

func numberArg(args []value.Value, i int) (value.Number, error) {
	n, ok := args[i].AsNumber()
	if !ok {
		return value.Number{}, stoferr.New(stoferr.Argument, scopeNumber, "expected a number argument").WithDetail("index", strconv.Itoa(i))
	}
	return n, nil
}
