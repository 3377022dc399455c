package value

import "github.com/stof-engine/stof/stoferr"

// Cast converts v to the requested Kind following the engine's fixed
// coercion table (spec §4.2). Casts that have no defined conversion
// report a Type error rather than silently producing a zero value.
func Cast(v Value, to Kind) (Value, error) {
	v = v.Unbox()
	if v.kind == to {
		return v, nil
	}
	switch to {
	case KindBool:
		return Bool(v.Truthy()), nil
	case KindString:
		return Str(v.Display()), nil
	case KindNumber:
		return castToNumber(v)
	case KindList:
		return castToList(v), nil
	case KindSet:
		return castToSet(v), nil
	case KindTuple:
		if l, ok := v.AsList(); ok {
			return Tuple(append([]Value(nil), l.Slice()...)), nil
		}
	case KindBlob:
		if s, ok := v.AsString(); ok {
			return Blob([]byte(s)), nil
		}
	}
	return Value{}, stoferr.New(stoferr.Type, "cast", "no conversion defined").
		WithDetail("from", v.TypeOf()).WithDetail("to", to.String())
}

func castToNumber(v Value) (Value, error) {
	switch v.kind {
	case KindBool:
		if v.b {
			return Int(1), nil
		}
		return Int(0), nil
	case KindString:
		n, err := ParseNumber(v.str)
		if err != nil {
			return Value{}, err
		}
		return Num(n), nil
	default:
		return Value{}, stoferr.New(stoferr.Type, "cast", "no conversion to number").WithDetail("from", v.TypeOf())
	}
}

func castToList(v Value) Value {
	switch v.kind {
	case KindSet:
		return ListVal(NewList(v.set.Values()...))
	case KindTuple:
		return ListVal(NewList(v.tuple...))
	case KindMap:
		entries := v.mp.Entries()
		out := make([]Value, len(entries))
		for i, e := range entries {
			out[i] = Tuple([]Value{e.Key, e.Value})
		}
		return ListVal(NewList(out...))
	default:
		return ListVal(NewList(v))
	}
}

func castToSet(v Value) Value {
	switch v.kind {
	case KindList:
		return SetVal(NewSet(v.list.Slice()...))
	case KindTuple:
		return SetVal(NewSet(v.tuple...))
	default:
		return SetVal(NewSet(v))
	}
}
