package graphstore

import (
	"strings"

	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
)

// Resolve evaluates a `/`-separated path from startID (empty for no
// start) and returns the single first root-then-registration-order match
// (spec §4.1 "Path grammar", boundary behavior in §8). See ResolveAll
// for every match at a colliding segment.
func (g *Graph) Resolve(startID, path string) (value.Value, error) {
	results, err := g.resolveImpl(startID, path, false)
	if err != nil {
		return value.Value{}, err
	}
	return results[0], nil
}

// ResolveAll evaluates path from startID and returns every match
// produced at colliding segments along the way.
func (g *Graph) ResolveAll(startID, path string) ([]value.Value, error) {
	return g.resolveImpl(startID, path, true)
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func (g *Graph) resolveImpl(startID, path string, multi bool) ([]value.Value, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	segs := splitPath(path)
	if len(segs) == 0 {
		if startID == "" {
			return nil, stoferr.New(stoferr.Path, "graphstore", "empty path with no start")
		}
		return []value.Value{value.Obj(value.ObjRef(startID))}, nil
	}

	var cursors []string
	first := segs[0]
	if startID != "" {
		cursors = []string{startID}
	} else {
		cursors = g.rootScanLocked(first)
		if len(cursors) == 0 {
			cursors = g.fullScanLocked(first)
		}
		if len(cursors) == 0 {
			if results, ok := g.fieldScanLocked(g.roots, first, segs[1:], multi); ok {
				return results, nil
			}
			if results, ok := g.fieldScanLocked(g.nodeOrder, first, segs[1:], multi); ok {
				return results, nil
			}
			return nil, stoferr.New(stoferr.Path, "graphstore", "no match for segment").WithDetail("segment", first)
		}
		segs = segs[1:]
		if !multi {
			cursors = cursors[:1]
		}
	}

	var results []value.Value
	for _, cur := range cursors {
		v, err := g.walkLocked(cur, segs)
		if err != nil {
			if multi {
				continue
			}
			return nil, err
		}
		results = append(results, v)
		if !multi {
			break
		}
	}
	if len(results) == 0 {
		return nil, stoferr.New(stoferr.Path, "graphstore", "path resolved to nothing").WithDetail("path", path)
	}
	return results, nil
}

// rootScanLocked returns root node ids named name, in registration order.
func (g *Graph) rootScanLocked(name string) []string {
	var out []string
	for _, id := range g.roots {
		if n, ok := g.nodes[id]; ok && n.Name == name {
			out = append(out, id)
		}
	}
	return out
}

// fullScanLocked returns every live node named name, in registration
// order, used only when no root matches (spec §4.1 "from no start,
// lookup scans roots first, then all nodes").
func (g *Graph) fullScanLocked(name string) []string {
	var out []string
	for _, id := range g.nodeOrder {
		if n, ok := g.nodes[id]; ok && n.Name == name {
			out = append(out, id)
		}
	}
	return out
}

// fieldScanLocked falls back to matching a field attached to one of the
// nodes in ids when no node (root or otherwise) matches the first
// segment — the original's SField::field/field_ref resolves a bare
// field name against data records, not just node names, so a no-start
// lookup of a bare field name must also succeed. Resolve calls it with
// the roots first and then with every node, each in registration
// order; when rest is non-empty the match only counts if the field's
// value is an object reference the remaining segments can continue
// through.
func (g *Graph) fieldScanLocked(ids []string, name string, rest []string, multi bool) ([]value.Value, bool) {
	var results []value.Value
	for _, nodeID := range ids {
		dataID, ok := g.findFieldByNameLocked(nodeID, name)
		if !ok {
			continue
		}
		f, _ := g.fieldLocked(dataID)
		if len(rest) == 0 {
			results = append(results, f.Value)
		} else if ref, ok := f.Value.AsObject(); ok {
			v, err := g.walkLocked(string(ref), rest)
			if err != nil {
				continue
			}
			results = append(results, v)
		} else {
			continue
		}
		if !multi {
			break
		}
	}
	return results, len(results) > 0
}

// walkLocked resolves the remaining path segments starting from node
// cur. Matching a direct child always wins; failing that, a field whose
// value is an object (or, at the final segment, any field/function) is
// consulted.
func (g *Graph) walkLocked(cur string, segs []string) (value.Value, error) {
	for i, seg := range segs {
		last := i == len(segs)-1
		switch seg {
		case ".", "self":
			continue
		case "..", "super":
			node, ok := g.nodes[cur]
			if !ok || node.Parent == "" {
				return value.Value{}, stoferr.New(stoferr.Path, "graphstore", "no parent from root")
			}
			cur = node.Parent
			continue
		}

		if childID, ok := g.findChildByNameLocked(cur, seg); ok {
			cur = childID
			continue
		}
		if dataID, ok := g.findFieldByNameLocked(cur, seg); ok {
			f, _ := g.fieldLocked(dataID)
			if last {
				return f.Value, nil
			}
			if ref, ok := f.Value.AsObject(); ok {
				cur = string(ref)
				continue
			}
			return value.Value{}, stoferr.New(stoferr.Path, "graphstore", "field is not an object, cannot continue path").
				WithDetail("segment", seg)
		}
		if dataID, ok := g.findFunctionByNameLocked(cur, seg); ok && last {
			return value.FuncPtr(value.DataRef(dataID)), nil
		}
		return value.Value{}, stoferr.New(stoferr.Path, "graphstore", "segment not found").WithDetail("segment", seg)
	}
	return value.Obj(value.ObjRef(cur)), nil
}
