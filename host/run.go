package host

import (
	"context"
	"strings"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
	"github.com/stof-engine/stof/vm"
)

// mainFunc is one #[main]-attributed function record discovered in the
// graph, identified by the node it is attached to (its path) so
// RunMain's report can name it the way RunTests names test functions.
type mainFunc struct {
	dataID string
	fn     graphstore.Function
	path   string
}

// isMainAttr and isTestAttr/isErrorsAttr name the boolean attribute keys
// a loaded function is expected to carry when tagged `#[main]` /
// `#[test]` / `#[errors]` respectively. The source-language parser
// (out of scope, spec §1) is responsible for setting these on the
// Function's Attrs map when it compiles an attributed declaration; this
// package only reads them.
const (
	isMainAttr   = "main"
	isTestAttr   = "test"
	isErrorsAttr = "errors"
)

func attrTrue(attrs map[string]value.Value, key string) bool {
	v, ok := attrs[key]
	if !ok {
		return false
	}
	b, _ := v.AsBool()
	return b
}

// discoverFunctions returns every function data record in the graph
// whose Attrs[key] is true, alongside the path (node-name chain) of the
// node it is attached to, ordered by node registration order and, within
// a node, by attachment order.
func discoverFunctions(g *graphstore.Graph, key string) []mainFunc {
	snap := g.Snapshot()
	nodesByID := make(map[string]graphstore.Node, len(snap.Nodes))
	for _, n := range snap.Nodes {
		nodesByID[n.ID] = n
	}
	var out []mainFunc
	for _, d := range snap.Data {
		fn, ok := d.Payload.(graphstore.Function)
		if !ok || !attrTrue(fn.Attrs, key) {
			continue
		}
		var nodeID string
		if len(d.Nodes) > 0 {
			nodeID = d.Nodes[0]
		}
		out = append(out, mainFunc{dataID: d.ID, fn: fn, path: nodePath(nodesByID, nodeID) + "/" + fn.Name})
	}
	return out
}

func nodePath(nodesByID map[string]graphstore.Node, id string) string {
	var segs []string
	for id != "" {
		n, ok := nodesByID[id]
		if !ok {
			break
		}
		segs = append([]string{n.Name}, segs...)
		id = n.Parent
	}
	return strings.Join(segs, "/")
}

// RunMain runs every `#[main]`-attributed top-level function (spec §6
// "run top-level #[main] functions"), each as its own root process, to
// completion, and returns the last one's result (or the first error
// encountered). A document with no main functions returns value.Void.
func (d *Document) RunMain(ctx context.Context) (value.Value, error) {
	mains := discoverFunctions(d.Graph, isMainAttr)
	if len(mains) == 0 {
		return value.Void, nil
	}
	var last value.Value
	for _, m := range mains {
		body, _ := m.fn.Body.(vm.Instructions)
		pid := d.Scheduler.SpawnRoot(body, m.fn.ReturnType, m.fn.Name)
		d.Scheduler.RunToCompletion(ctx)
		p, _ := d.Scheduler.Get(pid)
		if p.Err != nil {
			return value.Void, p.Err
		}
		last = p.Result
	}
	return last, nil
}

// CallPath resolves path (a `/`-separated graph path to a function,
// e.g. "root/obj/method") and invokes it with args bound positionally,
// running the call to completion as its own root process (spec §6
// "call by path with positional args").
func (d *Document) CallPath(ctx context.Context, path string, args ...value.Value) (value.Value, error) {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) == 0 || segs[0] == "" {
		return value.Void, stoferr.New(stoferr.Path, "host", "empty call path")
	}
	// Literal-wrap each argument as its own single-instruction sequence
	// so Call.evalArgs can execute it uniformly with any other operand
	// expression.
	callArgs := make([]vm.CallArg, len(args))
	for i, a := range args {
		callArgs[i] = vm.CallArg{Value: vm.Instructions{vm.Literal{Value: a}}}
	}
	body := vm.Instructions{vm.Call{Path: segs, Args: callArgs}}

	pid := d.Scheduler.SpawnRoot(body, "", "call:"+path)
	d.Scheduler.RunToCompletion(ctx)
	p, ok := d.Scheduler.Get(pid)
	if !ok {
		return value.Void, stoferr.New(stoferr.FuncDNE, "host", "call process vanished").WithDetail("path", path)
	}
	if p.Err != nil {
		return value.Void, p.Err
	}
	return p.Result, nil
}
