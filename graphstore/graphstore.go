// Package graphstore implements the engine's core data model (spec §3,
// §4.1): an arena of nodes and data records addressed by opaque ids,
// forming a forest of DAGs. The graph exclusively owns every node and
// data record; everything else — parent, children, attachments, object
// references — is an id, looked up through the graph on every
// dereference, so a removed target is simply absent rather than a
// dangling pointer (spec invariant 3).
//
// The shape is generalized from the teacher repo's graph.Graph: one
// mutex-guarded struct owning id-keyed maps, Begin/End operation logging
// around every mutating method, and typed errors built through a
// fluent WithDetail chain — adapted here from a static-schema instance
// store into a general mutable document graph.
package graphstore

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/stof-engine/stof/internal/obslog"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
)

// Node is one vertex of the forest. Parent/Children/Data are ids; callers
// look them up through the owning Graph.
type Node struct {
	ID       string
	Name     string
	Parent   string // empty for a root
	Children []string
	Data     []string
	Attrs    map[string]value.Value
}

// DataRecord is one attachable payload. Nodes is the set of node ids the
// record is currently attached to; per invariant (ii) in spec §3, once
// this becomes empty the record is destroyed.
type DataRecord struct {
	ID      string
	Payload Payload
	Nodes   []string
}

// Payload is the tagged variant a DataRecord carries: a Field, a
// Function, or an opaque format-specific blob.
type Payload interface {
	payloadKind() string
}

// Field is a named runtime value with merge-relevant attributes.
type Field struct {
	Name  string
	Value value.Value
	Attrs map[string]value.Value
}

func (Field) payloadKind() string { return "field" }

// Param is one declared function parameter.
type Param struct {
	Name    string
	Type    string
	Default Instructions // executed in the callee scope when omitted
}

// Instructions is an opaque instruction stream. graphstore never
// interprets it — it is produced and executed by the vm package, and
// stored here only so function payloads round-trip through the graph
// and through bstf. Kept as `any` rather than a vm type to avoid an
// import cycle (vm depends on graphstore, not the reverse).
type Instructions any

// Function is a callable instruction stream attached to a node.
type Function struct {
	Name       string
	Params     []Param
	ReturnType string
	Body       Instructions
	IsAsync    bool
	Attrs      map[string]value.Value
}

func (Function) payloadKind() string { return "function" }

// Opaque is a format-specific payload (image, PDF, etc.) the engine does
// not interpret itself.
type Opaque struct {
	Kind  string
	Bytes []byte
	Attrs map[string]value.Value
}

func (Opaque) payloadKind() string { return "opaque" }

type graphConfig struct {
	logger *slog.Logger
	newID  func() string
}

// Option configures a Graph at construction time.
type Option func(*graphConfig)

// WithLogger installs a structured logger for operation-boundary logging.
// A nil logger (the default) disables logging entirely.
func WithLogger(logger *slog.Logger) Option {
	return func(c *graphConfig) { c.logger = logger }
}

// WithIDFunc overrides the id generator, mainly for deterministic tests.
func WithIDFunc(fn func() string) Option {
	return func(c *graphConfig) { c.newID = fn }
}

// Graph is the arena: two id-keyed maps (nodes, data) plus bookkeeping
// for roots, creation order, and the one-tick deadpool. A single
// sync.RWMutex guards all mutable state, matching the teacher's single-
// struct concurrency idiom — callers never need their own locking.
type Graph struct {
	mu     sync.RWMutex
	config graphConfig

	nodes map[string]*Node
	data  map[string]*DataRecord

	roots     []string
	nodeOrder []string

	deadNodes []string
	deadData  []string
	dirty     map[string]bool
}

// New constructs an empty Graph.
func New(opts ...Option) *Graph {
	cfg := graphConfig{newID: func() string { return uuid.NewString() }}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Graph{
		config: cfg,
		nodes:  make(map[string]*Node),
		data:   make(map[string]*DataRecord),
		dirty:  make(map[string]bool),
	}
}

func (g *Graph) nextID() string { return g.config.newID() }

// NewRoot creates a new root node named name and returns its id.
func (g *Graph) NewRoot(ctx context.Context, name string) string {
	op := obslog.Begin(ctx, g.config.logger, "stof.graphstore.new_root", slog.String("name", name))
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextID()
	g.nodes[id] = &Node{ID: id, Name: name, Attrs: map[string]value.Value{}}
	g.roots = append(g.roots, id)
	g.nodeOrder = append(g.nodeOrder, id)
	g.markDirty(id)
	op.End(nil)
	return id
}

// NewChild creates a node named name under parentID and returns its id.
func (g *Graph) NewChild(ctx context.Context, parentID, name string) (string, error) {
	op := obslog.Begin(ctx, g.config.logger, "stof.graphstore.new_child", slog.String("name", name))
	g.mu.Lock()
	defer g.mu.Unlock()
	parent, ok := g.nodes[parentID]
	if !ok {
		err := stoferr.New(stoferr.Path, "graphstore", "parent node not found").WithDetail("id", parentID)
		op.End(err)
		return "", err
	}
	id := g.nextID()
	g.nodes[id] = &Node{ID: id, Name: name, Parent: parentID, Attrs: map[string]value.Value{}}
	parent.Children = append(parent.Children, id)
	g.nodeOrder = append(g.nodeOrder, id)
	g.markDirty(id)
	g.markDirty(parentID)
	op.End(nil)
	return id, nil
}

// Node returns a shallow copy of the node with the given id. The copy's
// slices/map alias the stored node's — callers must treat the result as
// read-only.
func (g *Graph) Node(id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Data returns a shallow copy of the data record with the given id.
func (g *Graph) Data(id string) (DataRecord, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	d, ok := g.data[id]
	if !ok {
		return DataRecord{}, false
	}
	return *d, true
}

// Exists reports whether a node with the given id is currently live.
func (g *Graph) Exists(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Roots returns root node ids in registration order.
func (g *Graph) Roots() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.roots...)
}

func (g *Graph) markDirty(id string) { g.dirty[id] = true }

// RemoveNode removes a node and cascades: data records whose attachment
// set becomes empty are destroyed, children are recursively removed,
// then the node unlinks from its parent (spec §3 "Lifecycle").
func (g *Graph) RemoveNode(ctx context.Context, id string) error {
	op := obslog.Begin(ctx, g.config.logger, "stof.graphstore.remove_node", slog.String("id", id))
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[id]; !ok {
		err := stoferr.New(stoferr.Path, "graphstore", "node not found").WithDetail("id", id)
		op.End(err)
		return err
	}
	g.removeNodeLocked(id)
	op.End(nil)
	return nil
}

func (g *Graph) removeNodeLocked(id string) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	for _, childID := range append([]string(nil), n.Children...) {
		g.removeNodeLocked(childID)
	}
	for _, dataID := range append([]string(nil), n.Data...) {
		g.detachLocked(dataID, id)
	}
	if n.Parent != "" {
		if parent, ok := g.nodes[n.Parent]; ok {
			parent.Children = removeString(parent.Children, id)
			g.markDirty(n.Parent)
		}
	} else {
		g.roots = removeString(g.roots, id)
	}
	delete(g.nodes, id)
	g.deadNodes = append(g.deadNodes, id)
}

func removeString(s []string, target string) []string {
	out := make([]string, 0, len(s))
	for _, v := range s {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

func containsString(s []string, target string) bool {
	for _, v := range s {
		if v == target {
			return true
		}
	}
	return false
}
