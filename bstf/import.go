package bstf

import (
	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/stoferr"
	"github.com/stof-engine/stof/value"
)

// Import decodes a bstf stream back into a fresh *graphstore.Graph.
// Options mirror graphstore.New's functional options (e.g. WithLogger),
// applied to the graph the decoded state is restored into.
func Import(data []byte, codec InstructionCodec, opts ...graphstore.Option) (*graphstore.Graph, error) {
	if codec == nil {
		codec = nopCodec{}
	}
	r := newReader(data)

	gotMagic, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	if uint32(gotMagic) != magic {
		return nil, stoferr.New(stoferr.Format, "bstf", "bad magic number")
	}
	version, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, stoferr.New(stoferr.Format, "bstf", "unsupported format version")
	}

	nodeCount, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	snap := graphstore.Snapshot{Order: make([]string, 0, nodeCount)}
	for i := uint64(0); i < nodeCount; i++ {
		n, err := readNode(r)
		if err != nil {
			return nil, err
		}
		snap.Nodes = append(snap.Nodes, n)
		snap.Order = append(snap.Order, n.ID)
	}

	dataCount, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < dataCount; i++ {
		d, err := readDataRecord(r, codec)
		if err != nil {
			return nil, err
		}
		snap.Data = append(snap.Data, d)
	}

	rootCount, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < rootCount; i++ {
		id, err := r.readString()
		if err != nil {
			return nil, err
		}
		snap.Roots = append(snap.Roots, id)
	}

	g := graphstore.New(opts...)
	g.RestoreSnapshot(snap)
	return g, nil
}

func readNode(r *reader) (graphstore.Node, error) {
	var n graphstore.Node
	var err error
	if n.ID, err = r.readString(); err != nil {
		return n, err
	}
	if n.Name, err = r.readString(); err != nil {
		return n, err
	}
	if n.Parent, err = r.readString(); err != nil {
		return n, err
	}
	childCount, err := r.readUvarint()
	if err != nil {
		return n, err
	}
	for i := uint64(0); i < childCount; i++ {
		c, err := r.readString()
		if err != nil {
			return n, err
		}
		n.Children = append(n.Children, c)
	}
	dataCount, err := r.readUvarint()
	if err != nil {
		return n, err
	}
	for i := uint64(0); i < dataCount; i++ {
		d, err := r.readString()
		if err != nil {
			return n, err
		}
		n.Data = append(n.Data, d)
	}
	attrs, err := readAttrs(r)
	if err != nil {
		return n, err
	}
	n.Attrs = attrs
	return n, nil
}

func readDataRecord(r *reader, codec InstructionCodec) (graphstore.DataRecord, error) {
	var d graphstore.DataRecord
	var err error
	if d.ID, err = r.readString(); err != nil {
		return d, err
	}
	nodeCount, err := r.readUvarint()
	if err != nil {
		return d, err
	}
	for i := uint64(0); i < nodeCount; i++ {
		n, err := r.readString()
		if err != nil {
			return d, err
		}
		d.Nodes = append(d.Nodes, n)
	}
	payload, err := readPayload(r, codec)
	if err != nil {
		return d, err
	}
	d.Payload = payload
	return d, nil
}

func readPayload(r *reader, codec InstructionCodec) (graphstore.Payload, error) {
	tag, err := r.readByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case payloadField:
		name, err := r.readString()
		if err != nil {
			return nil, err
		}
		val, err := r.readValue()
		if err != nil {
			return nil, err
		}
		attrs, err := readAttrs(r)
		if err != nil {
			return nil, err
		}
		return graphstore.Field{Name: name, Value: val, Attrs: attrs}, nil
	case payloadFunction:
		name, err := r.readString()
		if err != nil {
			return nil, err
		}
		paramCount, err := r.readUvarint()
		if err != nil {
			return nil, err
		}
		params := make([]graphstore.Param, paramCount)
		for i := range params {
			if params[i].Name, err = r.readString(); err != nil {
				return nil, err
			}
			if params[i].Type, err = r.readString(); err != nil {
				return nil, err
			}
		}
		returnType, err := r.readString()
		if err != nil {
			return nil, err
		}
		asyncByte, err := r.readByte()
		if err != nil {
			return nil, err
		}
		bodyBytes, err := r.readBytes()
		if err != nil {
			return nil, err
		}
		body, err := codec.DecodeInstructions(bodyBytes)
		if err != nil {
			return nil, err
		}
		attrs, err := readAttrs(r)
		if err != nil {
			return nil, err
		}
		return graphstore.Function{
			Name: name, Params: params, ReturnType: returnType,
			IsAsync: asyncByte != 0, Body: body, Attrs: attrs,
		}, nil
	case payloadOpaque:
		kind, err := r.readString()
		if err != nil {
			return nil, err
		}
		bytesOut, err := r.readBytes()
		if err != nil {
			return nil, err
		}
		attrs, err := readAttrs(r)
		if err != nil {
			return nil, err
		}
		return graphstore.Opaque{Kind: kind, Bytes: bytesOut, Attrs: attrs}, nil
	default:
		return nil, stoferr.New(stoferr.Format, "bstf", "unknown payload tag")
	}
}

func readAttrs(r *reader) (map[string]value.Value, error) {
	count, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	attrs := make(map[string]value.Value, count)
	for i := uint64(0); i < count; i++ {
		k, err := r.readString()
		if err != nil {
			return nil, err
		}
		v, err := r.readValue()
		if err != nil {
			return nil, err
		}
		attrs[k] = v
	}
	return attrs, nil
}
