package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stof-engine/stof/value"
)

func TestListCloneDoesNotAlias(t *testing.T) {
	l1 := value.NewList(value.Int(1), value.Int(2), value.Int(3))
	l2 := l1 // O(1) clone via struct copy

	l2, err := l2.Set(0, value.Int(99))
	require.NoError(t, err)

	v1, _ := l1.Get(0)
	v2, _ := l2.Get(0)
	assert.EqualValues(t, 1, mustInt(v1))
	assert.EqualValues(t, 99, mustInt(v2))
}

func TestListPushPop(t *testing.T) {
	l := value.NewList()
	for i := 0; i < 50; i++ {
		l = l.Push(value.Int(int64(i)))
	}
	assert.Equal(t, 50, l.Len())
	v, err := l.Get(49)
	require.NoError(t, err)
	assert.EqualValues(t, 49, mustInt(v))

	l, last, err := l.Pop()
	require.NoError(t, err)
	assert.EqualValues(t, 49, mustInt(last))
	assert.Equal(t, 49, l.Len())
}

func TestListFrontOps(t *testing.T) {
	l := value.NewList(value.Int(2), value.Int(3))
	l = l.PushFront(value.Int(1))
	got := l.Slice()
	require.Len(t, got, 3)
	assert.EqualValues(t, 1, mustInt(got[0]))

	l, first, err := l.PopFront()
	require.NoError(t, err)
	assert.EqualValues(t, 1, mustInt(first))
	assert.Equal(t, 2, l.Len())
}

func TestListInsertRemove(t *testing.T) {
	l := value.NewList(value.Int(1), value.Int(3))
	l, err := l.Insert(1, value.Int(2))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, toInts(l))

	l, removed, err := l.Remove(1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, mustInt(removed))
	assert.Equal(t, []int64{1, 3}, toInts(l))
}

func TestListOutOfRange(t *testing.T) {
	l := value.NewList(value.Int(1))
	_, err := l.Get(5)
	assert.Error(t, err)
	_, err = l.Get(-1)
	assert.Error(t, err)
}

func mustInt(v value.Value) int64 {
	n, _ := v.AsNumber()
	return n.Int64()
}

func toInts(l value.List) []int64 {
	out := make([]int64, l.Len())
	for i, v := range l.Slice() {
		out[i] = mustInt(v)
	}
	return out
}
