package graphstore

import (
	"context"
	"log/slog"

	"github.com/stof-engine/stof/internal/obslog"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
)

// mergeAttrKey is the field attribute spec §4.1 reads to decide
// collision behavior: absent or "default" merges values, "none" keeps
// the current value, "override" replaces it, "error" fails the merge.
const mergeAttrKey = "merge"

// Absorb merges another graph wholly into g: for each of other's roots,
// a same-named root in g triggers a collision-aware Merge; otherwise the
// root's entire subtree is copied in as a new root. Absorb assumes (per
// spec §4.1 "Absorb") that ids are globally unique across the two
// graphs, so copied nodes and data keep their original ids.
func (g *Graph) Absorb(ctx context.Context, other *Graph) error {
	op := obslog.Begin(ctx, g.config.logger, "stof.graphstore.absorb")
	other.mu.RLock()
	otherRoots := append([]string(nil), other.roots...)
	other.mu.RUnlock()

	for _, otherRootID := range otherRoots {
		otherRoot, ok := other.Node(otherRootID)
		if !ok {
			continue
		}
		g.mu.RLock()
		dstID, collides := g.rootByNameLocked(otherRoot.Name)
		g.mu.RUnlock()
		if collides {
			if err := g.Merge(ctx, dstID, other, otherRootID); err != nil {
				op.End(err)
				return err
			}
			continue
		}
		g.copySubtree(other, otherRootID, "")
	}
	op.End(nil)
	return nil
}

func (g *Graph) rootByNameLocked(name string) (string, bool) {
	for _, id := range g.roots {
		if n, ok := g.nodes[id]; ok && n.Name == name {
			return id, true
		}
	}
	return "", false
}

// copySubtree deep-copies srcID and its descendants from src into g,
// parenting the copy under parentID (empty for a new root), preserving
// ids exactly.
func (g *Graph) copySubtree(src *Graph, srcID, parentID string) {
	src.mu.RLock()
	node, ok := src.nodes[srcID]
	if !ok {
		src.mu.RUnlock()
		return
	}
	nodeCopy := *node
	nodeCopy.Children = append([]string(nil), node.Children...)
	nodeCopy.Data = append([]string(nil), node.Data...)
	nodeCopy.Attrs = cloneAttrs(node.Attrs)
	dataCopies := make(map[string]*DataRecord, len(node.Data))
	for _, dataID := range node.Data {
		d := src.data[dataID]
		dc := *d
		dc.Nodes = []string{srcID}
		dataCopies[dataID] = &dc
	}
	children := append([]string(nil), node.Children...)
	src.mu.RUnlock()

	g.mu.Lock()
	nodeCopy.Parent = parentID
	g.nodes[srcID] = &nodeCopy
	g.nodeOrder = append(g.nodeOrder, srcID)
	if parentID == "" {
		g.roots = append(g.roots, srcID)
	} else if parent, ok := g.nodes[parentID]; ok && !containsString(parent.Children, srcID) {
		parent.Children = append(parent.Children, srcID)
	}
	for dataID, dc := range dataCopies {
		g.data[dataID] = dc
	}
	g.markDirty(srcID)
	g.mu.Unlock()

	for _, childID := range children {
		g.copySubtree(src, childID, srcID)
	}
}

func cloneAttrs(attrs map[string]value.Value) map[string]value.Value {
	out := make(map[string]value.Value, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

// Merge performs the collision-aware default merge of srcID (a node in
// the other graph) into dstID (a node in g): fields merge pairwise by
// attribute-driven rule, children reparent and recursively merge (or
// copy wholesale when no name collision), and non-field records clone
// onto dstID (spec §4.1 "Merge (collision-aware absorb)").
func (g *Graph) Merge(ctx context.Context, dstID string, other *Graph, srcID string) error {
	op := obslog.Begin(ctx, g.config.logger, "stof.graphstore.merge",
		slog.String("dst", dstID), slog.String("src", srcID))
	err := g.mergeInto(dstID, other, srcID)
	op.End(err)
	return err
}

func (g *Graph) mergeInto(dstID string, other *Graph, srcID string) error {
	srcNode, ok := other.Node(srcID)
	if !ok {
		return stoferr.New(stoferr.Path, "graphstore", "src node not found").WithDetail("id", srcID)
	}

	for _, dataID := range srcNode.Data {
		rec, ok := other.Data(dataID)
		if !ok {
			continue
		}
		switch payload := rec.Payload.(type) {
		case Field:
			if err := g.mergeField(dstID, payload); err != nil {
				return err
			}
		default:
			if _, err := g.cloneNonFieldPayload(dstID, payload); err != nil {
				return err
			}
		}
	}

	for _, childID := range srcNode.Children {
		childNode, ok := other.Node(childID)
		if !ok {
			continue
		}
		if dstChildID, ok := g.FindChildByName(dstID, childNode.Name); ok {
			if err := g.mergeInto(dstChildID, other, childID); err != nil {
				return err
			}
			continue
		}
		g.copySubtree(other, childID, dstID)
	}
	return nil
}

func (g *Graph) mergeField(dstID string, incoming Field) error {
	existingDataID, has := g.FindFieldByName(dstID, incoming.Name)
	if !has {
		_, err := g.AddField(context.Background(), dstID, incoming)
		return err
	}
	existing, _ := g.Field(existingDataID)

	mode := "default"
	if m, ok := incoming.Attrs[mergeAttrKey]; ok {
		if s, ok := m.AsString(); ok {
			mode = s
		}
	}

	switch mode {
	case "none":
		return nil
	case "override":
		return g.SetFieldValue(context.Background(), existingDataID, incoming.Value)
	case "error":
		return stoferr.New(stoferr.Merge, "graphstore", "merge collision on field").WithDetail("name", incoming.Name)
	default:
		merged, err := mergeValuesDefault(existing.Value, incoming.Value)
		if err != nil {
			return err
		}
		return g.SetFieldValue(context.Background(), existingDataID, merged)
	}
}

// mergeValuesDefault implements the "default" value-level merge rule:
// numeric addition, string concatenation, list append, map union with
// recursive merge of overlapping keys, set union; any other pairing
// (including object references, whose node-tree merge already happened
// through the children-reparenting path in mergeInto) falls back to
// keeping the incoming value.
func mergeValuesDefault(dst, incoming value.Value) (value.Value, error) {
	dst, incoming = dst.Unbox(), incoming.Unbox()
	if dst.Kind() != incoming.Kind() {
		return incoming, nil
	}
	switch dst.Kind() {
	case value.KindNumber:
		dn, _ := dst.AsNumber()
		in, _ := incoming.AsNumber()
		sum, err := value.Add(dn, in)
		if err != nil {
			return value.Value{}, err
		}
		return value.Num(sum), nil
	case value.KindString:
		ds, _ := dst.AsString()
		is, _ := incoming.AsString()
		return value.Str(ds + is), nil
	case value.KindList:
		dl, _ := dst.AsList()
		il, _ := incoming.AsList()
		return value.ListVal(dl.Concat(il)), nil
	case value.KindSet:
		dsSet, _ := dst.AsSet()
		isSet, _ := incoming.AsSet()
		return value.SetVal(dsSet.Union(isSet)), nil
	case value.KindMap:
		dm, _ := dst.AsMap()
		im, _ := incoming.AsMap()
		out := dm
		for _, e := range im.Entries() {
			if existing, ok := out.Get(e.Key); ok {
				merged, err := mergeValuesDefault(existing, e.Value)
				if err != nil {
					return value.Value{}, err
				}
				out = out.Set(e.Key, merged)
				continue
			}
			out = out.Set(e.Key, e.Value)
		}
		return value.MapVal(out), nil
	default:
		return incoming, nil
	}
}

func (g *Graph) cloneNonFieldPayload(dstID string, payload Payload) (string, error) {
	switch p := payload.(type) {
	case Function:
		return g.AddFunction(context.Background(), dstID, p)
	case Opaque:
		return g.AddOpaque(context.Background(), dstID, p)
	default:
		return "", stoferr.New(stoferr.Merge, "graphstore", "unknown payload kind")
	}
}
