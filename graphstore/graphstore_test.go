package graphstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/value"
)

func TestScenarioS1GraphBasics(t *testing.T) {
	ctx := context.Background()
	g := graphstore.New()

	r := g.NewRoot(ctx, "r")
	a, err := g.NewChild(ctx, r, "a")
	require.NoError(t, err)
	b, err := g.NewChild(ctx, r, "b")
	require.NoError(t, err)

	_, err = g.AddField(ctx, a, graphstore.Field{Name: "x", Value: value.Int(1)})
	require.NoError(t, err)
	_, err = g.AddField(ctx, b, graphstore.Field{Name: "x", Value: value.Int(2)})
	require.NoError(t, err)

	v, err := g.Resolve(r, "a/x")
	require.NoError(t, err)
	n, _ := v.AsNumber()
	assert.EqualValues(t, 1, n.Int64())

	v, err = g.Resolve(r, "b/x")
	require.NoError(t, err)
	n, _ = v.AsNumber()
	assert.EqualValues(t, 2, n.Int64())

	v, err = g.Resolve("", "r/a/x")
	require.NoError(t, err)
	n, _ = v.AsNumber()
	assert.EqualValues(t, 1, n.Int64())

	require.NoError(t, g.RemoveNode(ctx, a))
	_, err = g.Resolve(r, "a/x")
	assert.Error(t, err)
	assert.False(t, g.Exists(a))
}

func TestParentChildReciprocity(t *testing.T) {
	ctx := context.Background()
	g := graphstore.New()
	r := g.NewRoot(ctx, "r")
	child, err := g.NewChild(ctx, r, "c")
	require.NoError(t, err)

	node, ok := g.Node(r)
	require.True(t, ok)
	assert.Contains(t, node.Children, child)

	childNode, ok := g.Node(child)
	require.True(t, ok)
	assert.Equal(t, r, childNode.Parent)
}

func TestAttachDetachReciprocity(t *testing.T) {
	ctx := context.Background()
	g := graphstore.New()
	r := g.NewRoot(ctx, "r")
	dataID, err := g.AddField(ctx, r, graphstore.Field{Name: "f", Value: value.Int(1)})
	require.NoError(t, err)

	node, _ := g.Node(r)
	assert.Contains(t, node.Data, dataID)
	rec, _ := g.Data(dataID)
	assert.Contains(t, rec.Nodes, r)

	require.NoError(t, g.Detach(ctx, dataID, r))
	_, ok := g.Data(dataID)
	assert.False(t, ok, "record with zero attachments is destroyed")
}

func TestRemoveCascadesAndDeadpool(t *testing.T) {
	ctx := context.Background()
	g := graphstore.New()
	r := g.NewRoot(ctx, "r")
	a, err := g.NewChild(ctx, r, "a")
	require.NoError(t, err)
	_, err = g.NewChild(ctx, a, "grandchild")
	require.NoError(t, err)
	_, err = g.AddField(ctx, a, graphstore.Field{Name: "x", Value: value.Int(1)})
	require.NoError(t, err)

	require.NoError(t, g.RemoveNode(ctx, a))
	pool := g.FlushDeadpool()
	assert.Len(t, pool.Nodes, 2) // a and grandchild
	assert.Len(t, pool.Data, 1)
}

func TestMoveRejectsCycle(t *testing.T) {
	ctx := context.Background()
	g := graphstore.New()
	r := g.NewRoot(ctx, "r")
	a, err := g.NewChild(ctx, r, "a")
	require.NoError(t, err)
	b, err := g.NewChild(ctx, a, "b")
	require.NoError(t, err)

	err = g.Move(ctx, a, b)
	assert.Error(t, err)
	err = g.Move(ctx, a, a)
	assert.Error(t, err)

	node, _ := g.Node(a)
	assert.Equal(t, r, node.Parent)
}

func TestMoveRelocatesSubtree(t *testing.T) {
	ctx := context.Background()
	g := graphstore.New()
	r := g.NewRoot(ctx, "r")
	a, err := g.NewChild(ctx, r, "a")
	require.NoError(t, err)
	b, err := g.NewChild(ctx, r, "b")
	require.NoError(t, err)

	require.NoError(t, g.Move(ctx, a, b))
	bNode, _ := g.Node(b)
	assert.Contains(t, bNode.Children, a)
	rNode, _ := g.Node(r)
	assert.NotContains(t, rNode.Children, a)
}

func TestMergeDefaultNumericAdd(t *testing.T) {
	ctx := context.Background()
	g1 := graphstore.New()
	r1 := g1.NewRoot(ctx, "doc")
	_, err := g1.AddField(ctx, r1, graphstore.Field{Name: "count", Value: value.Int(5)})
	require.NoError(t, err)

	g2 := graphstore.New()
	r2 := g2.NewRoot(ctx, "doc")
	_, err = g2.AddField(ctx, r2, graphstore.Field{Name: "count", Value: value.Int(3)})
	require.NoError(t, err)

	require.NoError(t, g1.Merge(ctx, r1, g2, r2))
	v, err := g1.Resolve(r1, "count")
	require.NoError(t, err)
	n, _ := v.AsNumber()
	assert.EqualValues(t, 8, n.Int64())
}

func TestMergeOverrideAttribute(t *testing.T) {
	ctx := context.Background()
	g1 := graphstore.New()
	r1 := g1.NewRoot(ctx, "doc")
	_, err := g1.AddField(ctx, r1, graphstore.Field{Name: "name", Value: value.Str("old")})
	require.NoError(t, err)

	g2 := graphstore.New()
	r2 := g2.NewRoot(ctx, "doc")
	_, err = g2.AddField(ctx, r2, graphstore.Field{
		Name: "name", Value: value.Str("new"),
		Attrs: map[string]value.Value{"merge": value.Str("override")},
	})
	require.NoError(t, err)

	require.NoError(t, g1.Merge(ctx, r1, g2, r2))
	v, err := g1.Resolve(r1, "name")
	require.NoError(t, err)
	s, _ := v.AsString()
	assert.Equal(t, "new", s)
}

func TestAbsorbNewRoot(t *testing.T) {
	ctx := context.Background()
	g1 := graphstore.New()
	g1.NewRoot(ctx, "existing")

	g2 := graphstore.New()
	other := g2.NewRoot(ctx, "incoming")
	_, err := g2.AddField(ctx, other, graphstore.Field{Name: "x", Value: value.Int(1)})
	require.NoError(t, err)

	require.NoError(t, g1.Absorb(ctx, g2))
	v, err := g1.Resolve("", "incoming/x")
	require.NoError(t, err)
	n, _ := v.AsNumber()
	assert.EqualValues(t, 1, n.Int64())
}
