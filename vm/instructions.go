package vm

import (
	"context"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
)

// Literal pushes a constant value (spec §4.3 "Literal").
type Literal struct {
	Value value.Value
}

func (i Literal) Exec(_ context.Context, env *Env, _ *graphstore.Graph) (Signal, error) {
	env.Push(i.Value)
	return SigNone, nil
}

// VarLookup resolves name through scopes, then self/super, then a graph
// path, then a library scope — missing resolves to null rather than an
// error (spec §4.3 "Variable lookup").
type VarLookup struct {
	Name string
}

func (i VarLookup) Exec(_ context.Context, env *Env, g *graphstore.Graph) (Signal, error) {
	if v, ok := env.Lookup(i.Name); ok {
		env.Push(v.Value)
		return SigNone, nil
	}
	if self := env.Self(); self != "" {
		if dataID, ok := g.FindFieldByName(self, i.Name); ok {
			f, _ := g.Field(dataID)
			env.Push(f.Value)
			return SigNone, nil
		}
		if dataID, ok := g.FindFunctionByName(self, i.Name); ok {
			env.Push(value.FuncPtr(value.DataRef(dataID)))
			return SigNone, nil
		}
	}
	if v, err := g.Resolve("", i.Name); err == nil {
		env.Push(v)
		return SigNone, nil
	}
	env.Push(value.Null)
	return SigNone, nil
}

// Declare binds name in the current scope to the value on top of the
// operand stack, optionally casting it to Type first.
type Declare struct {
	Name    string
	Type    string
	Mutable bool
}

func (i Declare) Exec(_ context.Context, env *Env, _ *graphstore.Graph) (Signal, error) {
	v, err := env.Pop()
	if err != nil {
		return SigNone, err
	}
	if i.Type != "" {
		cast, err := castByTypeName(v, i.Type)
		if err != nil {
			return SigNone, err
		}
		v = cast
	}
	env.Declare(i.Name, v, i.Type, i.Mutable)
	return SigNone, nil
}

// Assign replaces the value bound to Name (a scope variable) or, when
// Path is set, a graph field at Path relative to the current self, with
// the value on top of the operand stack. Assigning to an immutable
// variable is an Argument error.
type Assign struct {
	Name string
	Path string
}

func (i Assign) Exec(_ context.Context, env *Env, g *graphstore.Graph) (Signal, error) {
	v, err := env.Pop()
	if err != nil {
		return SigNone, err
	}
	if i.Path != "" {
		dataID, ok := g.FindFieldByName(env.Self(), i.Path)
		if !ok {
			return SigNone, stoferr.New(stoferr.Path, "vm", "assign target field not found").WithDetail("path", i.Path)
		}
		return SigNone, g.SetFieldValue(context.Background(), dataID, v)
	}
	variable, ok := env.Lookup(i.Name)
	if !ok {
		return SigNone, stoferr.New(stoferr.Path, "vm", "assign to undeclared variable").WithDetail("name", i.Name)
	}
	if !variable.Mutable {
		return SigNone, stoferr.New(stoferr.Argument, "vm", "assignment to immutable variable").WithDetail("name", i.Name)
	}
	if variable.Type != "" {
		cast, err := castByTypeName(v, variable.Type)
		if err != nil {
			return SigNone, err
		}
		v = cast
	}
	variable.Value = v
	return SigNone, nil
}

// Cast coerces the top of the operand stack to the declared type.
type Cast struct {
	Type string
}

func (i Cast) Exec(_ context.Context, env *Env, _ *graphstore.Graph) (Signal, error) {
	v, err := env.Pop()
	if err != nil {
		return SigNone, err
	}
	cast, err := castByTypeName(v, i.Type)
	if err != nil {
		return SigNone, err
	}
	env.Push(cast)
	return SigNone, nil
}

// castByTypeName maps the source language's type-name strings onto
// value.Cast's Kind-based table, additionally performing a unit
// adjustment when the target type names a unit (e.g. "km") per spec
// §4.2 "unit adjustments are performed at cast time if the target type
// specifies units."
func castByTypeName(v value.Value, typeName string) (value.Value, error) {
	switch typeName {
	case "", "any":
		return v, nil
	case "void":
		return value.Void, nil
	case "null":
		return value.Null, nil
	case "bool", "boolean":
		return value.Cast(v, value.KindBool)
	case "str", "string":
		return value.Cast(v, value.KindString)
	case "int", "float", "number":
		return value.Cast(v, value.KindNumber)
	case "list":
		return value.Cast(v, value.KindList)
	case "map":
		return value.Cast(v, value.KindMap)
	case "set":
		return value.Cast(v, value.KindSet)
	case "tuple":
		return value.Cast(v, value.KindTuple)
	case "blob":
		return value.Cast(v, value.KindBlob)
	case "obj", "object":
		if _, ok := v.Unbox().AsObject(); ok {
			return v.Unbox(), nil
		}
		return value.Null, nil
	case "fn", "function":
		if _, ok := v.Unbox().AsFuncPtr(); ok {
			return v.Unbox(), nil
		}
		return value.Null, nil
	case "data":
		if _, ok := v.Unbox().AsDataHandle(); ok {
			return v.Unbox(), nil
		}
		return value.Null, nil
	}
	if u, ok := value.ParseUnit(typeName); ok {
		n, isNum := v.Unbox().AsNumber()
		if !isNum {
			return value.Value{}, stoferr.New(stoferr.Type, "cast", "cannot apply unit to non-number").WithDetail("to", typeName)
		}
		converted, convOK := value.Convert(n.Float64(), n.Unit(), u)
		if !convOK {
			return value.Value{}, stoferr.New(stoferr.Type, "cast", "incompatible unit conversion").WithDetail("to", typeName)
		}
		return value.Num(value.FloatNum(converted).WithUnit(u)), nil
	}
	return v, nil
}

// BinaryOp identifies an arithmetic, comparison, or logical binary
// instruction's operator.
type BinaryOp string

const (
	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
	OpRem BinaryOp = "%"

	OpEq  BinaryOp = "=="
	OpNeq BinaryOp = "!="
	OpLt  BinaryOp = "<"
	OpLte BinaryOp = "<="
	OpGt  BinaryOp = ">"
	OpGte BinaryOp = ">="

	OpAnd BinaryOp = "&&"
	OpOr  BinaryOp = "||"
)

// Binary pops two operands (b then a, so a is evaluated first) and
// pushes the result of applying Op.
type Binary struct {
	Op BinaryOp
}

func (i Binary) Exec(_ context.Context, env *Env, _ *graphstore.Graph) (Signal, error) {
	b, err := env.Pop()
	if err != nil {
		return SigNone, err
	}
	a, err := env.Pop()
	if err != nil {
		return SigNone, err
	}
	result, err := applyBinary(i.Op, a, b)
	if err != nil {
		return SigNone, err
	}
	env.Push(result)
	return SigNone, nil
}

func applyBinary(op BinaryOp, a, b value.Value) (value.Value, error) {
	switch op {
	case OpAnd:
		return value.Bool(a.Truthy() && b.Truthy()), nil
	case OpOr:
		return value.Bool(a.Truthy() || b.Truthy()), nil
	case OpEq:
		return value.Bool(value.Equal(a, b)), nil
	case OpNeq:
		return value.Bool(!value.Equal(a, b)), nil
	case OpLt:
		return value.Bool(value.Less(a, b)), nil
	case OpLte:
		return value.Bool(!value.Less(b, a)), nil
	case OpGt:
		return value.Bool(value.Less(b, a)), nil
	case OpGte:
		return value.Bool(!value.Less(a, b)), nil
	}

	au, bu := a.Unbox(), b.Unbox()
	if op == OpAdd && au.Kind() == value.KindString && bu.Kind() == value.KindString {
		as, _ := au.AsString()
		bs, _ := bu.AsString()
		return value.Str(as + bs), nil
	}
	if op == OpAdd && au.Kind() == value.KindList && bu.Kind() == value.KindList {
		al, _ := au.AsList()
		bl, _ := bu.AsList()
		return value.ListVal(al.Concat(bl)), nil
	}
	an, aok := au.AsNumber()
	bn, bok := bu.AsNumber()
	if !aok || !bok {
		return value.Value{}, stoferr.New(stoferr.Type, "vm", "operands are not numbers").
			WithDetail("op", string(op)).WithDetail("left", au.TypeOf()).WithDetail("right", bu.TypeOf())
	}
	var (
		n   value.Number
		err error
	)
	switch op {
	case OpAdd:
		n, err = value.Add(an, bn)
	case OpSub:
		n, err = value.Sub(an, bn)
	case OpMul:
		n, err = value.Mul(an, bn)
	case OpDiv:
		n, err = value.Div(an, bn)
	case OpRem:
		n, err = value.Mod(an, bn)
	default:
		return value.Value{}, stoferr.New(stoferr.Type, "vm", "unknown binary operator").WithDetail("op", string(op))
	}
	if err != nil {
		return value.Value{}, err
	}
	return value.Num(n), nil
}

// Unary negates (numeric) or logically inverts (boolean) the top of the
// operand stack.
type Unary struct {
	Op BinaryOp // OpSub for negation, "!" for logical not
}

func (i Unary) Exec(_ context.Context, env *Env, _ *graphstore.Graph) (Signal, error) {
	v, err := env.Pop()
	if err != nil {
		return SigNone, err
	}
	v = v.Unbox()
	switch i.Op {
	case OpSub:
		n, ok := v.AsNumber()
		if !ok {
			return SigNone, stoferr.New(stoferr.Type, "vm", "unary minus on non-number")
		}
		env.Push(value.Num(value.Neg(n)))
	case "!":
		env.Push(value.Bool(!v.Truthy()))
	default:
		return SigNone, stoferr.New(stoferr.Type, "vm", "unknown unary operator").WithDetail("op", string(i.Op))
	}
	return SigNone, nil
}

// Block delimits a symbol-table scope around a nested instruction
// sequence (spec §4.3 "Block / scope push/pop").
type Block struct {
	Body Instructions
}

func (i Block) Exec(ctx context.Context, env *Env, g *graphstore.Graph) (Signal, error) {
	env.PushScope()
	sig, err := execBlock(ctx, env, g, i.Body)
	if popErr := env.PopScope(); err == nil {
		err = popErr
	}
	return sig, err
}

// SelfPush adjusts the current self-context, used when entering a
// non-prototype function body or a NewObject initializer.
type SelfPush struct {
	NodeID string
}

func (i SelfPush) Exec(_ context.Context, env *Env, _ *graphstore.Graph) (Signal, error) {
	env.PushSelf(i.NodeID)
	return SigNone, nil
}

// SelfPop pops the current self-context.
type SelfPop struct{}

func (SelfPop) Exec(_ context.Context, env *Env, _ *graphstore.Graph) (Signal, error) {
	return SigNone, env.PopSelf()
}

// If evaluates Cond; on true it runs Then, otherwise it tries each Elif
// clause in order and falls back to Else.
type ElifClause struct {
	Cond Instructions
	Body Instructions
}

type If struct {
	Cond  Instructions
	Then  Instructions
	Elifs []ElifClause
	Else  Instructions
}

func (i If) Exec(ctx context.Context, env *Env, g *graphstore.Graph) (Signal, error) {
	ok, err := evalCond(ctx, env, g, i.Cond)
	if err != nil {
		return SigNone, err
	}
	if ok {
		return execBlock(ctx, env, g, i.Then)
	}
	for _, elif := range i.Elifs {
		ok, err := evalCond(ctx, env, g, elif.Cond)
		if err != nil {
			return SigNone, err
		}
		if ok {
			return execBlock(ctx, env, g, elif.Body)
		}
	}
	if i.Else != nil {
		return execBlock(ctx, env, g, i.Else)
	}
	return SigNone, nil
}

func evalCond(ctx context.Context, env *Env, g *graphstore.Graph, cond Instructions) (bool, error) {
	if _, err := execBlock(ctx, env, g, cond); err != nil {
		return false, err
	}
	v, err := env.Pop()
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

// While repeatedly evaluates Cond and runs Body while it is truthy.
// Break and Continue signals are handled here rather than propagated
// further up.
type While struct {
	Cond Instructions
	Body Instructions
}

func (i While) Exec(ctx context.Context, env *Env, g *graphstore.Graph) (Signal, error) {
	for {
		ok, err := evalCond(ctx, env, g, i.Cond)
		if err != nil {
			return SigNone, err
		}
		if !ok {
			return SigNone, nil
		}
		sig, err := execBlock(ctx, env, g, i.Body)
		if err != nil {
			return SigNone, err
		}
		switch sig {
		case SigBreak:
			return SigNone, nil
		case SigReturn:
			return SigReturn, nil
		}
	}
}

// Break signals the innermost enclosing While to stop.
type Break struct{}

func (Break) Exec(_ context.Context, _ *Env, _ *graphstore.Graph) (Signal, error) { return SigBreak, nil }

// Continue signals the innermost enclosing While to re-evaluate Cond.
// Since While's loop body runs as a single execBlock pass rather than a
// resumable queue (see package doc comment), Continue is implemented as
// "stop this iteration's body", identical in effect to falling off the
// end of Body.
type Continue struct{}

func (Continue) Exec(_ context.Context, _ *Env, _ *graphstore.Graph) (Signal, error) {
	return SigContinue, nil
}

// Return pops the top of the operand stack as the function result,
// stashes it on the env, and signals SigReturn up through execBlock.
type Return struct {
	HasValue bool
}

func (i Return) Exec(_ context.Context, env *Env, _ *graphstore.Graph) (Signal, error) {
	if i.HasValue {
		v, err := env.Pop()
		if err != nil {
			return SigNone, err
		}
		env.Push(v)
	} else {
		env.Push(value.Void)
	}
	return SigReturn, nil
}

// Drop removes a node from the graph (spec §4.3 "Drop/Move/Rename —
// graph edits expressed at the language level").
type Drop struct {
	NodeID string
}

func (i Drop) Exec(_ context.Context, _ *Env, g *graphstore.Graph) (Signal, error) {
	return SigNone, g.RemoveNode(context.Background(), i.NodeID)
}

// MoveNode relocates SrcID under DstID.
type MoveNode struct {
	SrcID string
	DstID string
}

func (i MoveNode) Exec(_ context.Context, _ *Env, g *graphstore.Graph) (Signal, error) {
	return SigNone, g.Move(context.Background(), i.SrcID, i.DstID)
}

// Rename changes a field's name attribute in place. The graph model
// does not track a first-class node name change without reparenting, so
// this targets a field payload (spec's "move_field"-adjacent rename);
// renaming a node is done by drop+recreate at the language level.
type Rename struct {
	NodeID  string
	OldName string
	NewName string
}

func (i Rename) Exec(_ context.Context, _ *Env, g *graphstore.Graph) (Signal, error) {
	dataID, ok := g.FindFieldByName(i.NodeID, i.OldName)
	if !ok {
		return SigNone, stoferr.New(stoferr.Path, "vm", "rename target field not found").WithDetail("name", i.OldName)
	}
	f, _ := g.Field(dataID)
	f.Name = i.NewName
	_, err := g.AddField(context.Background(), i.NodeID, f)
	if err != nil {
		return SigNone, err
	}
	return SigNone, g.Detach(context.Background(), dataID, i.NodeID)
}

// NewObject creates a fresh anonymous child of the current self,
// executes Init with that child as self, and pushes the new object
// reference (spec §4.3 "NewObject").
type NewObject struct {
	Name string
	Init Instructions
}

func (i NewObject) Exec(ctx context.Context, env *Env, g *graphstore.Graph) (Signal, error) {
	parent := env.Self()
	if parent == "" {
		if roots := g.Roots(); len(roots) > 0 {
			parent = roots[0]
		}
	}
	var childID string
	var err error
	if parent == "" {
		childID = g.NewRoot(ctx, i.Name)
	} else {
		childID, err = g.NewChild(ctx, parent, i.Name)
		if err != nil {
			return SigNone, err
		}
	}
	env.PushSelf(childID)
	env.PushScope()
	_, err = execBlock(ctx, env, g, i.Init)
	if popErr := env.PopScope(); err == nil {
		err = popErr
	}
	if popErr := env.PopSelf(); err == nil {
		err = popErr
	}
	if err != nil {
		return SigNone, err
	}
	env.Push(value.Obj(value.ObjRef(childID)))
	return SigNone, nil
}

// Native wraps a Go closure as a single instruction, used by the library
// package to implement builtin functions without vm importing library
// (avoiding the cycle LibraryResolver already exists to break).
type Native struct {
	Fn func(ctx context.Context, env *Env, g *graphstore.Graph) (value.Value, error)
}

func (i Native) Exec(ctx context.Context, env *Env, g *graphstore.Graph) (Signal, error) {
	v, err := i.Fn(ctx, env, g)
	if err != nil {
		return SigNone, err
	}
	env.Push(v)
	return SigNone, nil
}
