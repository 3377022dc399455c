package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stof-engine/stof/value"
)

func TestTruthy(t *testing.T) {
	assert.False(t, value.Void.Truthy())
	assert.False(t, value.Null.Truthy())
	assert.False(t, value.Bool(false).Truthy())
	assert.True(t, value.Bool(true).Truthy())
	assert.False(t, value.Int(0).Truthy())
	assert.True(t, value.Int(1).Truthy())
	assert.False(t, value.Str("").Truthy())
	assert.True(t, value.Str("x").Truthy())
	assert.False(t, value.ListVal(value.NewList()).Truthy())
	assert.True(t, value.ListVal(value.NewList(value.Int(1))).Truthy())
	assert.True(t, value.Tuple([]value.Value{value.Int(1)}).Truthy())
}

func TestCompareCrossKind(t *testing.T) {
	assert.True(t, value.Less(value.Void, value.Null))
	assert.True(t, value.Less(value.Bool(true), value.Int(0)))
	assert.True(t, value.Equal(value.Int(3), value.Float(3)))
}

func TestUnboxUniform(t *testing.T) {
	box := value.NewBox(value.Int(42))
	boxed := value.Boxed(box)
	assert.Equal(t, value.KindBox, boxed.Kind())
	unboxed := boxed.Unbox()
	assert.Equal(t, value.KindNumber, unboxed.Kind())
	n, ok := unboxed.AsNumber()
	require.True(t, ok)
	assert.EqualValues(t, 42, n.Int64())
}

func TestDisplay(t *testing.T) {
	l := value.ListVal(value.NewList(value.Int(1), value.Str("a")))
	assert.Equal(t, "[1, a]", l.Display())

	m := value.MapVal(value.NewMap().Set(value.Str("b"), value.Int(2)).Set(value.Str("a"), value.Int(1)))
	assert.Equal(t, "{a: 1, b: 2}", m.Display())
}

func TestSchemaEqual(t *testing.T) {
	a := value.ListVal(value.NewList(value.Int(1), value.Str("x")))
	b := value.ListVal(value.NewList(value.Int(2), value.Str("y")))
	c := value.ListVal(value.NewList(value.Int(1)))
	assert.True(t, value.SchemaEqual(a, b))
	assert.False(t, value.SchemaEqual(a, c))
}

func TestCastTable(t *testing.T) {
	n, err := value.Cast(value.Str("12"), value.KindNumber)
	require.NoError(t, err)
	num, _ := n.AsNumber()
	assert.EqualValues(t, 12, num.Int64())

	_, err = value.Cast(value.Obj("n1"), value.KindNumber)
	assert.Error(t, err)

	s, err := value.Cast(value.ListVal(value.NewList(value.Int(1), value.Int(2))), value.KindSet)
	require.NoError(t, err)
	set, ok := s.AsSet()
	require.True(t, ok)
	assert.Equal(t, 2, set.Len())
}
