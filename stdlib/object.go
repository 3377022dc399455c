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

const scopeObject = "Object"

func objArg(args []value.Value, i int) (string, error) {
	ref, ok := args[i].AsObject()
	if !ok {
		return "", stoferr.New(stoferr.Argument, scopeObject, "expected an object argument")
	}
	return string(ref), nil
}

// registerObject wires the Object scope directly onto graphstore.Graph,
// since every one of its operations reads or rewrites node structure
// rather than a value the caller already holds. Object.run dispatches
// through vm.CallNamedFunction, which reuses vm.Call's own resolution
// and splice machinery to invoke a graph-resident function chosen at
// runtime by name.
func registerObject(reg *library.Registry) {
	reg.Register(scopeObject, library.New("name", "string", []vm.Param{library.P("o", "object")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			n, ok := g.Node(id)
			if !ok {
				return value.Value{}, stoferr.New(stoferr.Path, scopeObject, "node not found").WithDetail("id", id)
			}
			return value.Str(n.Name), nil
		}))

	reg.Register(scopeObject, library.New("id", "string", []vm.Param{library.P("o", "object")},
		func(_ context.Context, _ *vm.Env, _ *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.Str(id), nil
		}))

	reg.Register(scopeObject, library.New("path", "string", []vm.Param{library.P("o", "object")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			var segs []string
			cur := id
			for cur != "" {
				n, ok := g.Node(cur)
				if !ok {
					break
				}
				segs = append([]string{n.Name}, segs...)
				cur = n.Parent
			}
			return value.Str("/" + strings.Join(segs, "/")), nil
		}))

	reg.Register(scopeObject, library.New("parent", "object", []vm.Param{library.P("o", "object")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			n, ok := g.Node(id)
			if !ok || n.Parent == "" {
				return value.Value{}, stoferr.New(stoferr.Path, scopeObject, "node has no parent").WithDetail("id", id)
			}
			return value.Obj(value.ObjRef(n.Parent)), nil
		}))

	reg.Register(scopeObject, library.New("children", "list", []vm.Param{library.P("o", "object")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			n, ok := g.Node(id)
			if !ok {
				return value.Value{}, stoferr.New(stoferr.Path, scopeObject, "node not found").WithDetail("id", id)
			}
			out := make([]value.Value, len(n.Children))
			for i, c := range n.Children {
				out[i] = value.Obj(value.ObjRef(c))
			}
			return value.ListVal(value.NewList(out...)), nil
		}))

	reg.Register(scopeObject, library.New("root", "object", []vm.Param{library.P("o", "object")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			cur := id
			for {
				n, ok := g.Node(cur)
				if !ok || n.Parent == "" {
					break
				}
				cur = n.Parent
			}
			return value.Obj(value.ObjRef(cur)), nil
		}))

	reg.Register(scopeObject, library.New("is_root", "bool", []vm.Param{library.P("o", "object")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			n, ok := g.Node(id)
			if !ok {
				return value.Value{}, stoferr.New(stoferr.Path, scopeObject, "node not found").WithDetail("id", id)
			}
			return value.Bool(n.Parent == ""), nil
		}))

	reg.Register(scopeObject, library.New("prototype", "object", []vm.Param{library.P("o", "object")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			v, ok := g.Attr(id, "prototype")
			if !ok {
				return value.Value{}, stoferr.New(stoferr.Path, scopeObject, "node has no prototype").WithDetail("id", id)
			}
			return v, nil
		}))

	reg.Register(scopeObject, library.New("set_prototype", "void", []vm.Param{library.P("o", "object"), library.P("proto", "object")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			proto, err := objArg(args, 1)
			if err != nil {
				return value.Value{}, err
			}
			g.SetAttr(id, "prototype", value.Obj(value.ObjRef(proto)))
			return value.Void, nil
		}))

	reg.Register(scopeObject, library.New("remove_prototype", "void", []vm.Param{library.P("o", "object")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			g.SetAttr(id, "prototype", value.Void)
			return value.Void, nil
		}))

	reg.Register(scopeObject, library.New("upcast", "object", []vm.Param{library.P("o", "object"), library.P("typename", "string")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			typename, _ := args[1].AsString()
			cur := id
			for cur != "" {
				if tn, ok := g.Attr(cur, "typename"); ok {
					if s, ok := tn.AsString(); ok && s == typename {
						return value.Obj(value.ObjRef(cur)), nil
					}
				}
				proto, ok := g.Attr(cur, "prototype")
				if !ok {
					break
				}
				ref, ok := proto.AsObject()
				if !ok {
					break
				}
				cur = string(ref)
			}
			return value.Value{}, stoferr.New(stoferr.Type, scopeObject, "no ancestor with matching typename").WithDetail("typename", typename)
		}))

	reg.Register(scopeObject, library.New("instance_of", "bool", []vm.Param{library.P("o", "object"), library.P("typename", "string")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			typename, _ := args[1].AsString()
			cur := id
			for cur != "" {
				if tn, ok := g.Attr(cur, "typename"); ok {
					if s, ok := tn.AsString(); ok && s == typename {
						return value.Bool(true), nil
					}
				}
				proto, ok := g.Attr(cur, "prototype")
				if !ok {
					break
				}
				ref, ok := proto.AsObject()
				if !ok {
					break
				}
				cur = string(ref)
			}
			return value.Bool(false), nil
		}))

	reg.Register(scopeObject, library.New("len", "number", []vm.Param{library.P("o", "object")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			n, ok := g.Node(id)
			if !ok {
				return value.Value{}, stoferr.New(stoferr.Path, scopeObject, "node not found").WithDetail("id", id)
			}
			return value.Int(int64(len(n.Children))), nil
		}))

	reg.Register(scopeObject, library.New("at", "object", []vm.Param{library.P("o", "object"), library.P("index", "number")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			n, ok := g.Node(id)
			if !ok {
				return value.Value{}, stoferr.New(stoferr.Path, scopeObject, "node not found").WithDetail("id", id)
			}
			i := indexArg(args, 1)
			if i < 0 || i >= len(n.Children) {
				return value.Value{}, stoferr.New(stoferr.Path, scopeObject, "index out of range")
			}
			return value.Obj(value.ObjRef(n.Children[i])), nil
		}))

	reg.Register(scopeObject, library.New("get", "", []vm.Param{library.P("o", "object"), library.P("field", "string")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			name, _ := args[1].AsString()
			dataID, ok := g.FindFieldByName(id, name)
			if !ok {
				return value.Value{}, stoferr.New(stoferr.Path, scopeObject, "no such field").WithDetail("name", name)
			}
			f, _ := g.Field(dataID)
			return f.Value, nil
		}))

	reg.Register(scopeObject, library.New("contains", "bool", []vm.Param{library.P("o", "object"), library.P("field", "string")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			name, _ := args[1].AsString()
			_, ok := g.FindFieldByName(id, name)
			return value.Bool(ok), nil
		}))

	reg.Register(scopeObject, library.New("insert", "void", []vm.Param{
		library.P("o", "object"), library.P("field", "string"), library.P("v", ""),
	}, func(ctx context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
		id, err := objArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		name, _ := args[1].AsString()
		if dataID, ok := g.FindFieldByName(id, name); ok {
			if err := g.SetFieldValue(ctx, dataID, args[2]); err != nil {
				return value.Value{}, err
			}
			return value.Void, nil
		}
		if _, err := g.AddField(ctx, id, graphstore.Field{Name: name, Value: args[2]}); err != nil {
			return value.Value{}, err
		}
		return value.Void, nil
	}))

	reg.Register(scopeObject, library.New("remove", "void", []vm.Param{library.P("o", "object"), library.P("field", "string")},
		func(ctx context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			name, _ := args[1].AsString()
			dataID, ok := g.FindFieldByName(id, name)
			if !ok {
				return value.Value{}, stoferr.New(stoferr.Path, scopeObject, "no such field").WithDetail("name", name)
			}
			if err := g.Detach(ctx, dataID, id); err != nil {
				return value.Value{}, err
			}
			return value.Void, nil
		}))

	reg.Register(scopeObject, library.New("move_field", "void", []vm.Param{
		library.P("o", "object"), library.P("field", "string"), library.P("dst", "object"),
	}, func(ctx context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
		id, err := objArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		name, _ := args[1].AsString()
		dst, err := objArg(args, 2)
		if err != nil {
			return value.Value{}, err
		}
		dataID, ok := g.FindFieldByName(id, name)
		if !ok {
			return value.Value{}, stoferr.New(stoferr.Path, scopeObject, "no such field").WithDetail("name", name)
		}
		if err := g.Attach(ctx, dataID, dst); err != nil {
			return value.Value{}, err
		}
		if err := g.Detach(ctx, dataID, id); err != nil {
			return value.Value{}, err
		}
		return value.Void, nil
	}))

	reg.Register(scopeObject, library.New("fields", "list", []vm.Param{library.P("o", "object")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			n, ok := g.Node(id)
			if !ok {
				return value.Value{}, stoferr.New(stoferr.Path, scopeObject, "node not found").WithDetail("id", id)
			}
			var out []value.Value
			for _, dataID := range n.Data {
				if f, ok := g.Field(dataID); ok {
					out = append(out, value.Str(f.Name))
				}
			}
			return value.ListVal(value.NewList(out...)), nil
		}))

	reg.Register(scopeObject, library.New("funcs", "list", []vm.Param{library.P("o", "object")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			n, ok := g.Node(id)
			if !ok {
				return value.Value{}, stoferr.New(stoferr.Path, scopeObject, "node not found").WithDetail("id", id)
			}
			var out []value.Value
			for _, dataID := range n.Data {
				if fn, ok := g.Function(dataID); ok {
					out = append(out, value.Str(fn.Name))
				}
			}
			return value.ListVal(value.NewList(out...)), nil
		}))

	reg.Register(scopeObject, library.New("empty", "bool", []vm.Param{library.P("o", "object")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			n, ok := g.Node(id)
			if !ok {
				return value.Value{}, stoferr.New(stoferr.Path, scopeObject, "node not found").WithDetail("id", id)
			}
			return value.Bool(len(n.Children) == 0), nil
		}))

	reg.Register(scopeObject, library.New("any", "bool", []vm.Param{library.P("o", "object")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			n, ok := g.Node(id)
			if !ok {
				return value.Value{}, stoferr.New(stoferr.Path, scopeObject, "node not found").WithDetail("id", id)
			}
			return value.Bool(len(n.Children) > 0), nil
		}))

	reg.Register(scopeObject, library.New("attributes", "map", []vm.Param{library.P("o", "object")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			n, ok := g.Node(id)
			if !ok {
				return value.Value{}, stoferr.New(stoferr.Path, scopeObject, "node not found").WithDetail("id", id)
			}
			out := value.NewMap()
			for k, v := range n.Attrs {
				out = out.Set(value.Str(k), v)
			}
			return value.MapVal(out), nil
		}))

	reg.Register(scopeObject, library.NewMutator("move", "void", []vm.Param{library.P("o", "object"), library.P("dst", "object")},
		func(ctx context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			dst, err := objArg(args, 1)
			if err != nil {
				return value.Value{}, err
			}
			if err := g.Move(ctx, id, dst); err != nil {
				return value.Value{}, err
			}
			return value.Void, nil
		}))

	reg.Register(scopeObject, library.New("dist", "number", []vm.Param{library.P("o", "object"), library.P("other", "object")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			a, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			b, err := objArg(args, 1)
			if err != nil {
				return value.Value{}, err
			}
			d, ok := graphDistance(g, a, b)
			if !ok {
				return value.Value{}, stoferr.New(stoferr.Path, scopeObject, "no ancestor path between nodes")
			}
			return value.Int(int64(d)), nil
		}))

	reg.Register(scopeObject, library.New("run", "", []vm.Param{
		library.P("o", "object"), library.P("name", "string"),
		library.PDefault("args", "list", value.ListVal(value.NewList())),
	}, func(ctx context.Context, env *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
		id, err := objArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		name, _ := args[1].AsString()
		argList, ok := args[2].AsList()
		if !ok {
			return value.Value{}, stoferr.New(stoferr.Argument, scopeObject, "args must be a list")
		}
		return vm.CallNamedFunction(ctx, env, g, id, name, argList.Slice())
	}))

	reg.Register(scopeObject, library.New("schemafy", "map", []vm.Param{library.P("o", "object")},
		func(_ context.Context, _ *vm.Env, g *graphstore.Graph, args []value.Value) (value.Value, error) {
			id, err := objArg(args, 0)
			if err != nil {
				return value.Value{}, err
			}
			n, ok := g.Node(id)
			if !ok {
				return value.Value{}, stoferr.New(stoferr.Path, scopeObject, "node not found").WithDetail("id", id)
			}
			out := value.NewMap()
			for _, dataID := range n.Data {
				if f, ok := g.Field(dataID); ok {
					out = out.Set(value.Str(f.Name), f.Value)
				}
			}
			return value.MapVal(out), nil
		}))
}

// graphDistance returns the number of Move/parent hops between a and b via
// their nearest common ancestor.
func graphDistance(g *graphstore.Graph, a, b string) (int, bool) {
	ancestors := map[string]int{}
	depth := 0
	for cur := a; cur != ""; {
		ancestors[cur] = depth
		n, ok := g.Node(cur)
		if !ok {
			break
		}
		cur = n.Parent
		depth++
	}
	depth = 0
	for cur := b; cur != ""; {
		if d, ok := ancestors[cur]; ok {
			return d + depth, true
		}
		n, ok := g.Node(cur)
		if !ok {
			break
		}
		cur = n.Parent
		depth++
	}
	return 0, false
}
