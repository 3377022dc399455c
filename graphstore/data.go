package graphstore

import (
	"context"
	"log/slog"

	"github.com/stof-engine/stof/internal/obslog"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
)

// AddField creates a field data record with the given payload and
// attaches it to nodeID, returning the new record's id.
func (g *Graph) AddField(ctx context.Context, nodeID string, f Field) (string, error) {
	op := obslog.Begin(ctx, g.config.logger, "stof.graphstore.add_field", slog.String("name", f.Name))
	if f.Attrs == nil {
		f.Attrs = map[string]value.Value{}
	}
	id, err := g.addPayload(nodeID, f)
	op.End(err)
	return id, err
}

// AddFunction creates a function data record and attaches it to nodeID.
func (g *Graph) AddFunction(ctx context.Context, nodeID string, fn Function) (string, error) {
	op := obslog.Begin(ctx, g.config.logger, "stof.graphstore.add_function", slog.String("name", fn.Name))
	if fn.Attrs == nil {
		fn.Attrs = map[string]value.Value{}
	}
	id, err := g.addPayload(nodeID, fn)
	op.End(err)
	return id, err
}

// AddOpaque creates an opaque-payload data record and attaches it to
// nodeID.
func (g *Graph) AddOpaque(ctx context.Context, nodeID string, o Opaque) (string, error) {
	op := obslog.Begin(ctx, g.config.logger, "stof.graphstore.add_opaque", slog.String("kind", o.Kind))
	if o.Attrs == nil {
		o.Attrs = map[string]value.Value{}
	}
	id, err := g.addPayload(nodeID, o)
	op.End(err)
	return id, err
}

func (g *Graph) addPayload(nodeID string, payload Payload) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	node, ok := g.nodes[nodeID]
	if !ok {
		return "", stoferr.New(stoferr.Path, "graphstore", "node not found").WithDetail("id", nodeID)
	}
	id := g.nextID()
	g.data[id] = &DataRecord{ID: id, Payload: payload, Nodes: []string{nodeID}}
	node.Data = append(node.Data, id)
	g.markDirty(nodeID)
	return id, nil
}

// Attach attaches an existing data record to an additional node.
// Idempotent: attaching an already-attached pair is a no-op.
func (g *Graph) Attach(ctx context.Context, dataID, nodeID string) error {
	op := obslog.Begin(ctx, g.config.logger, "stof.graphstore.attach",
		slog.String("data", dataID), slog.String("node", nodeID))
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.data[dataID]
	if !ok {
		err := stoferr.New(stoferr.Path, "graphstore", "data record not found").WithDetail("id", dataID)
		op.End(err)
		return err
	}
	node, ok := g.nodes[nodeID]
	if !ok {
		err := stoferr.New(stoferr.Path, "graphstore", "node not found").WithDetail("id", nodeID)
		op.End(err)
		return err
	}
	if !containsString(rec.Nodes, nodeID) {
		rec.Nodes = append(rec.Nodes, nodeID)
		node.Data = append(node.Data, dataID)
		g.markDirty(nodeID)
	}
	op.End(nil)
	return nil
}

// Detach detaches a data record from nodeID. If nodeID is empty, the
// record is detached from every node it is attached to. When a record's
// attachment set reaches zero, it is destroyed (spec §3 invariant ii).
func (g *Graph) Detach(ctx context.Context, dataID, nodeID string) error {
	op := obslog.Begin(ctx, g.config.logger, "stof.graphstore.detach",
		slog.String("data", dataID), slog.String("node", nodeID))
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.data[dataID]; !ok {
		err := stoferr.New(stoferr.Path, "graphstore", "data record not found").WithDetail("id", dataID)
		op.End(err)
		return err
	}
	if nodeID == "" {
		rec := g.data[dataID]
		for _, n := range append([]string(nil), rec.Nodes...) {
			g.detachLocked(dataID, n)
		}
	} else {
		g.detachLocked(dataID, nodeID)
	}
	op.End(nil)
	return nil
}

func (g *Graph) detachLocked(dataID, nodeID string) {
	rec, ok := g.data[dataID]
	if !ok {
		return
	}
	rec.Nodes = removeString(rec.Nodes, nodeID)
	if node, ok := g.nodes[nodeID]; ok {
		node.Data = removeString(node.Data, dataID)
		g.markDirty(nodeID)
	}
	if len(rec.Nodes) == 0 {
		delete(g.data, dataID)
		g.deadData = append(g.deadData, dataID)
	}
}

// Field returns the Field payload of the given data record, if it holds
// one.
func (g *Graph) Field(dataID string) (Field, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.fieldLocked(dataID)
}

func (g *Graph) fieldLocked(dataID string) (Field, bool) {
	rec, ok := g.data[dataID]
	if !ok {
		return Field{}, false
	}
	f, ok := rec.Payload.(Field)
	return f, ok
}

// SetFieldValue replaces the value of an existing field record.
func (g *Graph) SetFieldValue(ctx context.Context, dataID string, v value.Value) error {
	op := obslog.Begin(ctx, g.config.logger, "stof.graphstore.set_field_value", slog.String("data", dataID))
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.data[dataID]
	if !ok {
		err := stoferr.New(stoferr.Path, "graphstore", "data record not found").WithDetail("id", dataID)
		op.End(err)
		return err
	}
	f, ok := rec.Payload.(Field)
	if !ok {
		err := stoferr.New(stoferr.Type, "graphstore", "data record is not a field")
		op.End(err)
		return err
	}
	f.Value = v
	rec.Payload = f
	for _, n := range rec.Nodes {
		g.markDirty(n)
	}
	op.End(nil)
	return nil
}

// Function returns the Function payload of the given data record, if it
// holds one.
func (g *Graph) Function(dataID string) (Function, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rec, ok := g.data[dataID]
	if !ok {
		return Function{}, false
	}
	fn, ok := rec.Payload.(Function)
	return fn, ok
}

// FindFieldByName returns the data id of the first field named name
// attached to nodeID, if any.
func (g *Graph) FindFieldByName(nodeID, name string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.findFieldByNameLocked(nodeID, name)
}

func (g *Graph) findFieldByNameLocked(nodeID, name string) (string, bool) {
	node, ok := g.nodes[nodeID]
	if !ok {
		return "", false
	}
	for _, dataID := range node.Data {
		if f, ok := g.data[dataID].Payload.(Field); ok && f.Name == name {
			return dataID, true
		}
	}
	return "", false
}

// FindFunctionByName returns the data id of the first function named
// name attached to nodeID, if any.
func (g *Graph) FindFunctionByName(nodeID, name string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.findFunctionByNameLocked(nodeID, name)
}

func (g *Graph) findFunctionByNameLocked(nodeID, name string) (string, bool) {
	node, ok := g.nodes[nodeID]
	if !ok {
		return "", false
	}
	for _, dataID := range node.Data {
		if fn, ok := g.data[dataID].Payload.(Function); ok && fn.Name == name {
			return dataID, true
		}
	}
	return "", false
}

// FindChildByName returns the id of the first child of nodeID with the
// given name.
func (g *Graph) FindChildByName(nodeID, name string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.findChildByNameLocked(nodeID, name)
}

func (g *Graph) findChildByNameLocked(nodeID, name string) (string, bool) {
	node, ok := g.nodes[nodeID]
	if !ok {
		return "", false
	}
	for _, c := range node.Children {
		if child, ok := g.nodes[c]; ok && child.Name == name {
			return c, true
		}
	}
	return "", false
}

// SetAttr sets an attribute on a node (used for node attributes like
// "typename" and "prototype"). Function markers such as
// `#[test]`/`#[errors]`/`#[silent]` are not node attributes; they live
// in the function's own Function.Attrs.
func (g *Graph) SetAttr(nodeID, key string, v value.Value) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	node, ok := g.nodes[nodeID]
	if !ok {
		return false
	}
	node.Attrs[key] = v
	return true
}

// Attr returns a node attribute.
func (g *Graph) Attr(nodeID, key string) (value.Value, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	node, ok := g.nodes[nodeID]
	if !ok {
		return value.Value{}, false
	}
	v, ok := node.Attrs[key]
	return v, ok
}
