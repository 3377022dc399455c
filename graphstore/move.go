package graphstore

import (
	"context"
	"log/slog"

	"github.com/stof-engine/stof/internal/obslog"
	"github.com/stof-engine/stof/stoferr"
)

// Move relocates srcID and its subtree under dstID. Rejected without
// mutation if dstID is srcID itself or a descendant of srcID (spec §4.1
// "Move": cycle prevention).
func (g *Graph) Move(ctx context.Context, srcID, dstID string) error {
	op := obslog.Begin(ctx, g.config.logger, "stof.graphstore.move",
		slog.String("src", srcID), slog.String("dst", dstID))
	g.mu.Lock()
	defer g.mu.Unlock()

	src, ok := g.nodes[srcID]
	if !ok {
		err := stoferr.New(stoferr.Path, "graphstore", "src node not found").WithDetail("id", srcID)
		op.End(err)
		return err
	}
	dst, ok := g.nodes[dstID]
	if !ok {
		err := stoferr.New(stoferr.Path, "graphstore", "dst node not found").WithDetail("id", dstID)
		op.End(err)
		return err
	}
	if srcID == dstID || g.isDescendantLocked(dstID, srcID) {
		err := stoferr.New(stoferr.Argument, "graphstore", "move would create a cycle").
			WithDetail("src", srcID).WithDetail("dst", dstID)
		op.End(err)
		return err
	}

	if src.Parent != "" {
		if oldParent, ok := g.nodes[src.Parent]; ok {
			oldParent.Children = removeString(oldParent.Children, srcID)
			g.markDirty(src.Parent)
		}
	} else {
		g.roots = removeString(g.roots, srcID)
	}
	src.Parent = dstID
	dst.Children = append(dst.Children, srcID)
	g.markDirty(srcID)
	g.markDirty(dstID)
	op.End(nil)
	return nil
}

// isDescendantLocked reports whether candidateID is ancestorID or a
// descendant of ancestorID.
func (g *Graph) isDescendantLocked(candidateID, ancestorID string) bool {
	cur := candidateID
	for cur != "" {
		if cur == ancestorID {
			return true
		}
		n, ok := g.nodes[cur]
		if !ok {
			return false
		}
		cur = n.Parent
	}
	return false
}
