// Package value implements the engine's tagged-union runtime value model
// (spec §3, §4.2): numbers with units, persistent containers, opaque data
// handles, and function pointers.
//
// Value is generalized from the teacher repo's immutable.Value (a
// pre-wrapped-any container used for schema instance data) into the full
// closed tagged union the engine needs. Containers clone in O(1) rather
// than by the teacher's deep-clone-on-Clone() approach: Map and Set are
// path-copied trees whose writes copy only the touched spine, while a
// List write copies the whole element slice.
package value

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies a Value's variant.
type Kind int

const (
	KindVoid Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindBlob
	KindList
	KindMap
	KindSet
	KindTuple
	KindObject
	KindFuncPtr
	KindDataHandle
	KindBox
)

// String returns the lowercase kind name used by Std.typeof.
func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBlob:
		return "blob"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindSet:
		return "set"
	case KindTuple:
		return "tuple"
	case KindObject:
		return "object"
	case KindFuncPtr:
		return "function"
	case KindDataHandle:
		return "data"
	case KindBox:
		return "box"
	default:
		return "unknown"
	}
}

// ObjRef names a node in the graph store by id. It is intentionally a bare
// string alias rather than a pointer: graph references are always weak
// (spec §3 "Ownership"), looked up through the graph on every dereference.
type ObjRef string

// DataRef names a data record in the graph store by id, used for both
// function-pointer and data-handle values.
type DataRef string

// Value is the tagged union. The zero Value is KindVoid.
//
// Only one of the typed fields is meaningful per Kind; callers use the
// As* accessors (which check Kind) rather than reading fields directly.
type Value struct {
	kind   Kind
	b      bool
	num    Number
	str    string
	blob   []byte
	list   List
	mp     Map
	set    Set
	tuple  []Value
	obj    ObjRef
	data   DataRef
	boxed  *Box
}

// Void is the canonical void value.
var Void = Value{kind: KindVoid}

// Null is the canonical null value.
var Null = Value{kind: KindNull}

// Bool constructs a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Str constructs a string value.
func Str(s string) Value { return Value{kind: KindString, str: s} }

// Blob constructs a byte-sequence value. The slice is retained, not
// copied; callers must not mutate it afterwards (persistent-value
// discipline, same as the container types below).
func Blob(b []byte) Value { return Value{kind: KindBlob, blob: b} }

// Int constructs a dimensionless integer number value.
func Int(i int64) Value { return Value{kind: KindNumber, num: Number{isInt: true, i: i}} }

// Float constructs a dimensionless float number value.
func Float(f float64) Value { return Value{kind: KindNumber, num: Number{f: f}} }

// Num constructs a value from an already-built Number (e.g. with units).
func Num(n Number) Value { return Value{kind: KindNumber, num: n} }

// ListVal wraps a List as a Value.
func ListVal(l List) Value { return Value{kind: KindList, list: l} }

// MapVal wraps a Map as a Value.
func MapVal(m Map) Value { return Value{kind: KindMap, mp: m} }

// SetVal wraps a Set as a Value.
func SetVal(s Set) Value { return Value{kind: KindSet, set: s} }

// Tuple constructs a fixed-arity tuple value. The slice is retained.
func Tuple(vals []Value) Value { return Value{kind: KindTuple, tuple: vals} }

// Obj constructs an object value naming a node by id.
func Obj(ref ObjRef) Value { return Value{kind: KindObject, obj: ref} }

// FuncPtr constructs a function-pointer value naming a data record by id.
func FuncPtr(ref DataRef) Value { return Value{kind: KindFuncPtr, data: ref} }

// DataHandle constructs an opaque data-handle value naming a data record.
func DataHandle(ref DataRef) Value { return Value{kind: KindDataHandle, data: ref} }

// Boxed wraps a Box (interior-mutable cell) as a Value.
func Boxed(b *Box) Value { return Value{kind: KindBox, boxed: b} }

// Kind returns the value's variant tag.
func (v Value) Kind() Kind { return v.kind }

// TypeOf returns the kind name, the result of the Std.typeof builtin.
func (v Value) TypeOf() string { return v.kind.String() }

// AsBool returns the boolean payload and whether the kind matched.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the Number payload and whether the kind matched.
func (v Value) AsNumber() (Number, bool) { return v.num, v.kind == KindNumber }

// AsString returns the string payload and whether the kind matched.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsBlob returns the blob payload and whether the kind matched.
func (v Value) AsBlob() ([]byte, bool) { return v.blob, v.kind == KindBlob }

// AsList returns the List payload and whether the kind matched.
func (v Value) AsList() (List, bool) { return v.list, v.kind == KindList }

// AsMap returns the Map payload and whether the kind matched.
func (v Value) AsMap() (Map, bool) { return v.mp, v.kind == KindMap }

// AsSet returns the Set payload and whether the kind matched.
func (v Value) AsSet() (Set, bool) { return v.set, v.kind == KindSet }

// AsTuple returns the tuple payload and whether the kind matched.
func (v Value) AsTuple() ([]Value, bool) { return v.tuple, v.kind == KindTuple }

// AsObject returns the object reference and whether the kind matched.
func (v Value) AsObject() (ObjRef, bool) { return v.obj, v.kind == KindObject }

// AsFuncPtr returns the function data reference and whether the kind matched.
func (v Value) AsFuncPtr() (DataRef, bool) { return v.data, v.kind == KindFuncPtr }

// AsDataHandle returns the data reference and whether the kind matched.
func (v Value) AsDataHandle() (DataRef, bool) { return v.data, v.kind == KindDataHandle }

// AsBox returns the Box payload and whether the kind matched.
func (v Value) AsBox() (*Box, bool) { return v.boxed, v.kind == KindBox }

// Unbox returns v with any Box layer removed, reading through the cell.
// Non-box values pass through unchanged. Per Open Question 1 (DESIGN.md),
// every library dispatch entry point unboxes uniformly with this call
// before validating arguments.
func (v Value) Unbox() Value {
	for v.kind == KindBox {
		v = v.boxed.Get()
	}
	return v
}

// Truthy implements the engine's truthiness rule: void, null, false, zero
// numbers, empty strings/blobs/containers are falsy; everything else
// (including non-empty tuples and live object/function/data references)
// is truthy.
func (v Value) Truthy() bool {
	v = v.Unbox()
	switch v.kind {
	case KindVoid, KindNull:
		return false
	case KindBool:
		return v.b
	case KindNumber:
		return !v.num.IsZero()
	case KindString:
		return v.str != ""
	case KindBlob:
		return len(v.blob) > 0
	case KindList:
		return v.list.Len() > 0
	case KindMap:
		return v.mp.Len() > 0
	case KindSet:
		return v.set.Len() > 0
	case KindTuple:
		return len(v.tuple) > 0
	default:
		return true
	}
}

// kindOrder fixes the cross-variant ordering used when comparing values of
// different kinds (spec §4.2 "ordering ... cross-variant by a fixed kind
// order").
func kindOrder(k Kind) int { return int(k) }

// Compare implements a total order: within a variant by natural order,
// across variants by Kind. Returns -1, 0, or 1.
func Compare(a, b Value) int {
	a, b = a.Unbox(), b.Unbox()
	if a.kind != b.kind {
		return cmpInt(kindOrder(a.kind), kindOrder(b.kind))
	}
	switch a.kind {
	case KindVoid, KindNull:
		return 0
	case KindBool:
		return cmpBool(a.b, b.b)
	case KindNumber:
		return CompareNumber(a.num, b.num)
	case KindString:
		return strings.Compare(a.str, b.str)
	case KindBlob:
		return compareBytes(a.blob, b.blob)
	case KindList:
		return compareSlices(a.list.Slice(), b.list.Slice())
	case KindTuple:
		return compareSlices(a.tuple, b.tuple)
	case KindSet:
		return compareSlices(a.set.Values(), b.set.Values())
	case KindMap:
		return compareMaps(a.mp, b.mp)
	case KindObject:
		return strings.Compare(string(a.obj), string(b.obj))
	case KindFuncPtr, KindDataHandle:
		return strings.Compare(string(a.data), string(b.data))
	default:
		return 0
	}
}

// Equal reports whether a and b compare equal.
func Equal(a, b Value) bool { return Compare(a, b) == 0 }

// Less reports whether a sorts before b.
func Less(a, b Value) bool { return Compare(a, b) < 0 }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return cmpInt(int(a[i]), int(b[i]))
		}
	}
	return cmpInt(len(a), len(b))
}

func compareSlices(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(a), len(b))
}

func compareMaps(a, b Map) int {
	ak, bk := a.Keys(), b.Keys()
	n := len(ak)
	if len(bk) < n {
		n = len(bk)
	}
	for i := 0; i < n; i++ {
		if c := Compare(ak[i], bk[i]); c != 0 {
			return c
		}
		av, _ := a.Get(ak[i])
		bv, _ := b.Get(bk[i])
		if c := Compare(av, bv); c != 0 {
			return c
		}
	}
	return cmpInt(len(ak), len(bk))
}

// Display renders a human-readable form, used by Std.print.
func (v Value) Display() string {
	v = v.Unbox()
	switch v.kind {
	case KindVoid:
		return "void"
	case KindNull:
		return "null"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return v.num.String()
	case KindString:
		return v.str
	case KindBlob:
		return fmt.Sprintf("blob(%d bytes)", len(v.blob))
	case KindList:
		parts := make([]string, 0, v.list.Len())
		for _, e := range v.list.Slice() {
			parts = append(parts, e.Display())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		parts := make([]string, 0, v.mp.Len())
		for _, k := range v.mp.Keys() {
			val, _ := v.mp.Get(k)
			parts = append(parts, k.Display()+": "+val.Display())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindSet:
		parts := make([]string, 0, v.set.Len())
		for _, e := range v.set.Values() {
			parts = append(parts, e.Display())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindTuple:
		parts := make([]string, 0, len(v.tuple))
		for _, e := range v.tuple {
			parts = append(parts, e.Display())
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindObject:
		return "obj(" + string(v.obj) + ")"
	case KindFuncPtr:
		return "fn(" + string(v.data) + ")"
	case KindDataHandle:
		return "data(" + string(v.data) + ")"
	default:
		return "?"
	}
}

// SchemaEqual reports structural type-schema equality: two values have
// equal schema if their Kind matches and, for containers, every element
// recursively matches (used by test assertions, spec §4.2).
func SchemaEqual(a, b Value) bool {
	a, b = a.Unbox(), b.Unbox()
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindList:
		as, bs := a.list.Slice(), b.list.Slice()
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !SchemaEqual(as[i], bs[i]) {
				return false
			}
		}
		return true
	case KindTuple:
		if len(a.tuple) != len(b.tuple) {
			return false
		}
		for i := range a.tuple {
			if !SchemaEqual(a.tuple[i], b.tuple[i]) {
				return false
			}
		}
		return true
	case KindSet:
		as, bs := a.set.Values(), b.set.Values()
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !SchemaEqual(as[i], bs[i]) {
				return false
			}
		}
		return true
	case KindMap:
		ak, bk := a.mp.Keys(), b.mp.Keys()
		if len(ak) != len(bk) {
			return false
		}
		sort.Slice(ak, func(i, j int) bool { return Less(ak[i], ak[j]) })
		sort.Slice(bk, func(i, j int) bool { return Less(bk[i], bk[j]) })
		for i := range ak {
			if !Equal(ak[i], bk[i]) {
				return false
			}
			av, _ := a.mp.Get(ak[i])
			bv, _ := b.mp.Get(bk[i])
			if !SchemaEqual(av, bv) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
