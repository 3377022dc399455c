package host_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/host"
	"github.com/stof-engine/stof/value"
	"github.com/stof-engine/stof/vm"
)

// TestScenarioS1GraphBasics matches spec §8 S1 via the host's graph
// handle directly (the source-language front end that would otherwise
// produce this graph is out of scope).
func TestScenarioS1GraphBasics(t *testing.T) {
	ctx := context.Background()
	doc := host.New(host.WithoutHTTP())

	r := doc.Graph.NewRoot(ctx, "r")
	a, err := doc.Graph.NewChild(ctx, r, "a")
	require.NoError(t, err)
	b, err := doc.Graph.NewChild(ctx, r, "b")
	require.NoError(t, err)
	_, err = doc.Graph.AddField(ctx, a, graphstore.Field{Name: "x", Value: value.Int(1)})
	require.NoError(t, err)
	_, err = doc.Graph.AddField(ctx, b, graphstore.Field{Name: "x", Value: value.Int(2)})
	require.NoError(t, err)

	v, err := doc.Graph.Resolve("", "r/a/x")
	require.NoError(t, err)
	n, _ := v.AsNumber()
	assert.Equal(t, int64(1), n.Int64())

	v, err = doc.Graph.Resolve("", "r/b/x")
	require.NoError(t, err)
	n, _ = v.AsNumber()
	assert.Equal(t, int64(2), n.Int64())

	v, err = doc.Graph.Resolve("", "x")
	require.NoError(t, err)
	n, _ = v.AsNumber()
	assert.Equal(t, int64(1), n.Int64())

	require.NoError(t, doc.Graph.RemoveNode(ctx, a))
	_, err = doc.Graph.Resolve("", "r/a/x")
	assert.Error(t, err)
}

// TestRunMainAndCallPath builds a tiny function-bearing graph by hand
// (standing in for the out-of-scope parser) and exercises RunMain and
// CallPath end to end.
func TestRunMainAndCallPath(t *testing.T) {
	ctx := context.Background()
	doc := host.New(host.WithoutHTTP())

	root := doc.Graph.NewRoot(ctx, "root")
	_, err := doc.Graph.AddFunction(ctx, root, graphstore.Function{
		Name:       "double",
		Params:     []graphstore.Param{{Name: "n", Type: "number"}},
		ReturnType: "number",
		Body: vm.Instructions{
			vm.VarLookup{Name: "n"},
			vm.VarLookup{Name: "n"},
			vm.Binary{Op: vm.OpAdd},
			vm.Return{HasValue: true},
		},
	})
	require.NoError(t, err)

	got, err := doc.CallPath(ctx, "root/double", value.Int(21))
	require.NoError(t, err)
	n, ok := got.AsNumber()
	require.True(t, ok)
	assert.Equal(t, int64(42), n.Int64())

	_, err = doc.Graph.AddFunction(ctx, root, graphstore.Function{
		Name:       "main",
		ReturnType: "void",
		Body:       vm.Instructions{},
		Attrs:      map[string]value.Value{"main": value.Bool(true)},
	})
	require.NoError(t, err)
	_, err = doc.RunMain(ctx)
	require.NoError(t, err)
}

// TestRunTestsErrorsAttribute exercises the `#[errors]`-annotated test
// callback contract (SPEC_FULL.md supplemented feature 2): a test that
// errors when expected to passes; a test that fails to error fails.
func TestRunTestsErrorsAttribute(t *testing.T) {
	ctx := context.Background()
	doc := host.New(host.WithoutHTTP())
	root := doc.Graph.NewRoot(ctx, "root")

	_, err := doc.Graph.AddFunction(ctx, root, graphstore.Function{
		Name: "divides_by_zero", ReturnType: "void",
		Attrs: map[string]value.Value{"test": value.Bool(true), "errors": value.Bool(true)},
		Body: vm.Instructions{vm.Native{Fn: func(context.Context, *vm.Env, *graphstore.Graph) (value.Value, error) {
			n, err := value.Div(value.IntNum(1), value.IntNum(0))
			return value.Num(n), err
		}}},
	})
	require.NoError(t, err)
	_, err = doc.Graph.AddFunction(ctx, root, graphstore.Function{
		Name: "never_errors", ReturnType: "void",
		Attrs: map[string]value.Value{"test": value.Bool(true), "errors": value.Bool(true)},
		Body:  vm.Instructions{},
	})
	require.NoError(t, err)

	report, err := doc.RunTests(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, len(report.Results))
	assert.Equal(t, 1, report.Passed())
	assert.Equal(t, 1, report.Failed())
}

// TestExportImportRoundTrip matches spec §8 "Round-trip:
// import(export(G)) = G for bstf".
func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	doc := host.New(host.WithoutHTTP())
	root := doc.Graph.NewRoot(ctx, "root")
	_, err := doc.Graph.AddField(ctx, root, graphstore.Field{Name: "x", Value: value.Int(7)})
	require.NoError(t, err)

	data, err := doc.Export("bstf")
	require.NoError(t, err)

	restored := host.New(host.WithoutHTTP())
	require.NoError(t, restored.ImportBstf(data, ""))

	v, err := restored.Graph.Resolve("", "root/x")
	require.NoError(t, err)
	n, _ := v.AsNumber()
	assert.Equal(t, int64(7), n.Int64())
}
