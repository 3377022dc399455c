package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stof-engine/stof/value"
)

func TestSetDedupAndOrder(t *testing.T) {
	s := value.NewSet(value.Int(3), value.Int(1), value.Int(2), value.Int(1))
	assert.Equal(t, 3, s.Len())
	vals := s.Values()
	assert.EqualValues(t, 1, mustInt(vals[0]))
	assert.EqualValues(t, 2, mustInt(vals[1]))
	assert.EqualValues(t, 3, mustInt(vals[2]))
}

func TestSetOps(t *testing.T) {
	a := value.NewSet(value.Int(1), value.Int(2), value.Int(3))
	b := value.NewSet(value.Int(2), value.Int(3), value.Int(4))

	assert.Equal(t, 4, a.Union(b).Len())
	assert.Equal(t, 2, a.Intersect(b).Len())
	assert.Equal(t, 1, a.Difference(b).Len())
}

func TestSetCloneDoesNotAlias(t *testing.T) {
	a := value.NewSet(value.Int(1))
	b := a.Add(value.Int(2))
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 2, b.Len())
}
