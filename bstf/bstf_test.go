package bstf_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stof-engine/stof/bstf"
	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/value"
)

func buildSampleGraph(t *testing.T) *graphstore.Graph {
	t.Helper()
	ctx := context.Background()
	g := graphstore.New()

	root := g.NewRoot(ctx, "root")
	child, err := g.NewChild(ctx, root, "child")
	require.NoError(t, err)

	l := value.NewList(value.Int(1), value.Str("two"), value.Bool(true))
	m := value.NewMap().Set(value.Str("k"), value.Int(7))
	s := value.NewSet(value.Int(1), value.Int(2))
	tup := value.Tuple([]value.Value{value.Int(1), value.Str("a")})
	numWithUnit := value.Num(value.IntNum(5).WithUnit(value.Kilometers))

	_, err = g.AddField(ctx, child, graphstore.Field{Name: "list", Value: l})
	require.NoError(t, err)
	_, err = g.AddField(ctx, child, graphstore.Field{Name: "map", Value: m})
	require.NoError(t, err)
	_, err = g.AddField(ctx, child, graphstore.Field{Name: "set", Value: s})
	require.NoError(t, err)
	_, err = g.AddField(ctx, child, graphstore.Field{Name: "tuple", Value: tup})
	require.NoError(t, err)
	_, err = g.AddField(ctx, child, graphstore.Field{Name: "dist", Value: numWithUnit})
	require.NoError(t, err)
	_, err = g.AddField(ctx, child, graphstore.Field{Name: "ref", Value: value.Obj(value.ObjRef(root))})
	require.NoError(t, err)

	fnID, err := g.AddFunction(ctx, root, graphstore.Function{
		Name:       "greet",
		Params:     []graphstore.Param{{Name: "x", Type: "number"}},
		ReturnType: "string",
		IsAsync:    false,
	})
	require.NoError(t, err)
	_, err = g.AddField(ctx, child, graphstore.Field{Name: "fn", Value: value.FuncPtr(value.DataRef(fnID))})
	require.NoError(t, err)

	_, err = g.AddOpaque(ctx, child, graphstore.Opaque{Kind: "blob-thing", Bytes: []byte{1, 2, 3, 4}})
	require.NoError(t, err)

	return g
}

func TestExportImportRoundTripsStructureAndValues(t *testing.T) {
	g := buildSampleGraph(t)

	data, err := bstf.Export(g, nil)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	g2, err := bstf.Import(data, nil)
	require.NoError(t, err)

	snap1 := g.Snapshot()
	snap2 := g2.Snapshot()

	assert.Equal(t, snap1.Roots, snap2.Roots)
	assert.Equal(t, snap1.Order, snap2.Order)
	assert.Equal(t, len(snap1.Nodes), len(snap2.Nodes))
	assert.Equal(t, len(snap1.Data), len(snap2.Data))

	byID1 := make(map[string]graphstore.Node)
	for _, n := range snap1.Nodes {
		byID1[n.ID] = n
	}
	for _, n2 := range snap2.Nodes {
		n1, ok := byID1[n2.ID]
		require.True(t, ok)
		assert.Equal(t, n1.Name, n2.Name)
		assert.Equal(t, n1.Parent, n2.Parent)
		assert.ElementsMatch(t, n1.Children, n2.Children)
		assert.ElementsMatch(t, n1.Data, n2.Data)
	}
}

func TestExportImportPreservesFieldValues(t *testing.T) {
	g := buildSampleGraph(t)
	data, err := bstf.Export(g, nil)
	require.NoError(t, err)

	g2, err := bstf.Import(data, nil)
	require.NoError(t, err)

	root := g.Roots()[0]
	childID, ok := g2.FindChildByName(g2.Roots()[0], "child")
	require.True(t, ok)

	fieldID, ok := g2.FindFieldByName(childID, "dist")
	require.True(t, ok)
	field, ok := g2.Field(fieldID)
	require.True(t, ok)
	n, ok := field.Value.AsNumber()
	require.True(t, ok)
	assert.Equal(t, int64(5), n.Int64())
	assert.Equal(t, value.Kilometers, n.Unit())

	refFieldID, ok := g2.FindFieldByName(childID, "ref")
	require.True(t, ok)
	refField, ok := g2.Field(refFieldID)
	require.True(t, ok)
	ref, ok := refField.Value.AsObject()
	require.True(t, ok)
	assert.Equal(t, value.ObjRef(root), ref)
}

func TestExportRejectsBoxValues(t *testing.T) {
	ctx := context.Background()
	g := graphstore.New()
	root := g.NewRoot(ctx, "root")
	boxed := value.Boxed(value.NewBox(value.Int(1)))
	_, err := g.AddField(ctx, root, graphstore.Field{Name: "b", Value: boxed})
	require.NoError(t, err)

	_, err = bstf.Export(g, nil)
	assert.Error(t, err)
}

func TestImportRejectsBadMagic(t *testing.T) {
	_, err := bstf.Import([]byte{0x00, 0x01, 0x02}, nil)
	assert.Error(t, err)
}
