package graphstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/value"
)

// TestResolveNoStartMatchesRootField matches the original's
// SField::field/field_ref: a no-start lookup of a bare name must find a
// field attached directly to a root, not just a node with that name.
func TestResolveNoStartMatchesRootField(t *testing.T) {
	ctx := context.Background()
	g := graphstore.New()

	r := g.NewRoot(ctx, "r")
	_, err := g.AddField(ctx, r, graphstore.Field{Name: "version", Value: value.Str("1.2.3")})
	require.NoError(t, err)

	v, err := g.Resolve("", "version")
	require.NoError(t, err)
	s, ok := v.AsString()
	require.True(t, ok)
	assert.Equal(t, "1.2.3", s)
}

// TestResolveNoStartRootFieldContinuesThroughObject checks that a
// multi-segment path can continue past a root-attached field when that
// field's value is an object reference.
func TestResolveNoStartRootFieldContinuesThroughObject(t *testing.T) {
	ctx := context.Background()
	g := graphstore.New()

	r := g.NewRoot(ctx, "r")
	child, err := g.NewChild(ctx, r, "child")
	require.NoError(t, err)
	_, err = g.AddField(ctx, child, graphstore.Field{Name: "y", Value: value.Int(7)})
	require.NoError(t, err)
	_, err = g.AddField(ctx, r, graphstore.Field{Name: "alias", Value: value.Obj(value.ObjRef(child))})
	require.NoError(t, err)

	v, err := g.Resolve("", "alias/y")
	require.NoError(t, err)
	n, ok := v.AsNumber()
	require.True(t, ok)
	assert.EqualValues(t, 7, n.Int64())
}

// TestResolveNoStartNodeNameWinsOverRootField checks that a matching
// node name still takes precedence over a same-named root field, since
// rootScanLocked/fullScanLocked run before the field fallback.
func TestResolveNoStartNodeNameWinsOverRootField(t *testing.T) {
	ctx := context.Background()
	g := graphstore.New()

	r := g.NewRoot(ctx, "r")
	_, err := g.NewChild(ctx, r, "thing")
	require.NoError(t, err)
	_, err = g.AddField(ctx, r, graphstore.Field{Name: "thing", Value: value.Str("shadowed")})
	require.NoError(t, err)

	v, err := g.Resolve("", "thing")
	require.NoError(t, err)
	_, isObj := v.AsObject()
	assert.True(t, isObj)
}
