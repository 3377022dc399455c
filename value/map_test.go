package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stof-engine/stof/value"
)

func TestMapOrderedByKey(t *testing.T) {
	m := value.NewMap().
		Set(value.Str("c"), value.Int(3)).
		Set(value.Str("a"), value.Int(1)).
		Set(value.Str("b"), value.Int(2))

	keys := m.Keys()
	require.Len(t, keys, 3)
	for i, want := range []string{"a", "b", "c"} {
		s, _ := keys[i].AsString()
		assert.Equal(t, want, s)
	}
}

func TestMapCloneDoesNotAlias(t *testing.T) {
	m1 := value.NewMap().Set(value.Str("x"), value.Int(1))
	m2 := m1.Set(value.Str("x"), value.Int(2))

	v1, _ := m1.Get(value.Str("x"))
	v2, _ := m2.Get(value.Str("x"))
	assert.EqualValues(t, 1, mustInt(v1))
	assert.EqualValues(t, 2, mustInt(v2))
	assert.Equal(t, 1, m1.Len())
}

func TestMapDelete(t *testing.T) {
	m := value.NewMap().Set(value.Str("a"), value.Int(1)).Set(value.Str("b"), value.Int(2))
	m2 := m.Delete(value.Str("a"))
	assert.Equal(t, 1, m2.Len())
	assert.False(t, m2.Has(value.Str("a")))
	assert.True(t, m.Has(value.Str("a")))
}

func TestMapMerge(t *testing.T) {
	base := value.NewMap().Set(value.Str("a"), value.Int(1)).Set(value.Str("b"), value.Int(2))
	patch := value.NewMap().Set(value.Str("b"), value.Int(20)).Set(value.Str("c"), value.Int(3))
	merged := base.Merge(patch)
	assert.Equal(t, 3, merged.Len())
	v, _ := merged.Get(value.Str("b"))
	assert.EqualValues(t, 20, mustInt(v))
}

func TestMapRequireGetMissing(t *testing.T) {
	m := value.NewMap()
	_, err := m.RequireGet(value.Str("missing"))
	assert.Error(t, err)
}
