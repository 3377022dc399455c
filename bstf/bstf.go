package bstf

import (
	"sort"

	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
)

// InstructionCodec lets the vm package plug in encode/decode for
// Function.Body, which graphstore stores as an opaque `any` to avoid an
// import cycle. Export/Import work without one (function bodies round-
// trip as empty instruction streams), but a full round-trip of executable
// documents requires a real codec from the runtime.
type InstructionCodec interface {
	EncodeInstructions(instr graphstore.Instructions) ([]byte, error)
	DecodeInstructions(data []byte) (graphstore.Instructions, error)
}

// nopCodec round-trips a nil/absent instruction body as zero bytes. Used
// when the caller has no InstructionCodec (graph contains no functions,
// or the caller only cares about data/structure, not executable content).
type nopCodec struct{}

func (nopCodec) EncodeInstructions(graphstore.Instructions) ([]byte, error) { return nil, nil }
func (nopCodec) DecodeInstructions([]byte) (graphstore.Instructions, error)  { return nil, nil }

const (
	payloadField byte = iota
	payloadFunction
	payloadOpaque
)

// Export serializes g into the self-describing binary format. Pass a
// non-nil codec to round-trip function bodies exactly; nil is fine for
// graphs with no function payloads (or when only structural/data
// round-tripping matters).
func Export(g *graphstore.Graph, codec InstructionCodec) ([]byte, error) {
	if codec == nil {
		codec = nopCodec{}
	}
	snap := g.Snapshot()
	w := &writer{}
	w.writeUvarint(uint64(magic))
	w.writeByte(formatVersion)

	w.writeUvarint(uint64(len(snap.Order)))
	byID := make(map[string]graphstore.Node, len(snap.Nodes))
	for _, n := range snap.Nodes {
		byID[n.ID] = n
	}
	for _, id := range snap.Order {
		n := byID[id]
		w.writeString(n.ID)
		w.writeString(n.Name)
		w.writeString(n.Parent)
		w.writeUvarint(uint64(len(n.Children)))
		for _, c := range n.Children {
			w.writeString(c)
		}
		w.writeUvarint(uint64(len(n.Data)))
		for _, d := range n.Data {
			w.writeString(d)
		}
		w.writeUvarint(uint64(len(n.Attrs)))
		for _, k := range sortedKeys(n.Attrs) {
			w.writeString(k)
			if err := w.writeValue(n.Attrs[k]); err != nil {
				return nil, err
			}
		}
	}

	w.writeUvarint(uint64(len(snap.Data)))
	for _, d := range snap.Data {
		w.writeString(d.ID)
		w.writeUvarint(uint64(len(d.Nodes)))
		for _, n := range d.Nodes {
			w.writeString(n)
		}
		if err := writePayload(w, d.Payload, codec); err != nil {
			return nil, err
		}
	}

	w.writeUvarint(uint64(len(snap.Roots)))
	for _, r := range snap.Roots {
		w.writeString(r)
	}

	return w.Bytes(), nil
}

func writePayload(w *writer, payload graphstore.Payload, codec InstructionCodec) error {
	switch p := payload.(type) {
	case graphstore.Field:
		w.writeByte(payloadField)
		w.writeString(p.Name)
		if err := w.writeValue(p.Value); err != nil {
			return err
		}
		return writeAttrs(w, p.Attrs)
	case graphstore.Function:
		w.writeByte(payloadFunction)
		w.writeString(p.Name)
		w.writeUvarint(uint64(len(p.Params)))
		for _, param := range p.Params {
			w.writeString(param.Name)
			w.writeString(param.Type)
		}
		w.writeString(p.ReturnType)
		if p.IsAsync {
			w.writeByte(1)
		} else {
			w.writeByte(0)
		}
		body, err := codec.EncodeInstructions(p.Body)
		if err != nil {
			return err
		}
		w.writeBytes(body)
		return writeAttrs(w, p.Attrs)
	case graphstore.Opaque:
		w.writeByte(payloadOpaque)
		w.writeString(p.Kind)
		w.writeBytes(p.Bytes)
		return writeAttrs(w, p.Attrs)
	default:
		return stoferr.New(stoferr.Format, "bstf", "unknown payload kind")
	}
}

func writeAttrs(w *writer, attrs map[string]value.Value) error {
	w.writeUvarint(uint64(len(attrs)))
	for _, k := range sortedKeys(attrs) {
		w.writeString(k)
		if err := w.writeValue(attrs[k]); err != nil {
			return err
		}
	}
	return nil
}

// sortedKeys returns m's keys in sorted order so byte output is
// deterministic across encodes of the same graph (decode rebuilds the
// map either way, so round-trip equality never depended on this).
func sortedKeys(m map[string]value.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
