package stoferr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stof-engine/stof/stoferr"
)

func TestErrorMessageAndDetails(t *testing.T) {
	err := stoferr.New(stoferr.Argument, "List", "wrong argument kind").
		WithDetail("index", "0").
		WithDetail("expected", "list")

	assert.Equal(t, stoferr.Argument, err.Kind())
	assert.Equal(t, "List", err.Scope())
	assert.Equal(t, "ArgumentError(List): wrong argument kind", err.Error())
	assert.Equal(t, []stoferr.Detail{{Key: "index", Value: "0"}, {Key: "expected", Value: "list"}}, err.Details())
}

func TestWithDetailDoesNotMutateOriginal(t *testing.T) {
	base := stoferr.New(stoferr.Path, "graphstore", "node not found")
	derived := base.WithDetail("id", "n1")

	assert.Empty(t, base.Details())
	assert.Len(t, derived.Details(), 1)
}

func TestIsComparesKindOnly(t *testing.T) {
	a := stoferr.New(stoferr.Type, "Number", "cannot cast")
	b := stoferr.New(stoferr.Type, "String", "cannot cast")
	c := stoferr.New(stoferr.Argument, "Number", "missing argument")

	assert.True(t, a.Is(b))
	assert.False(t, a.Is(c))
	assert.False(t, a.Is(errors.New("plain error")))
}

func TestWrapPreservesInnerError(t *testing.T) {
	inner := errors.New("boom")
	wrapped := stoferr.Wrap(inner)

	assert.Equal(t, stoferr.Await, wrapped.Kind())
	assert.Same(t, inner, errors.Unwrap(wrapped))
	assert.ErrorIs(t, wrapped, inner)
}
