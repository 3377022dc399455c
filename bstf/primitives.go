// Package bstf implements the engine's self-describing binary graph
// serialization format (spec §4.1 "Binary serialization format (bstf)",
// §6 "Binary graph format"). A dump is self-describing for every node,
// data, and payload kind and round-trips exactly (spec invariant 8),
// with one exception: a function parameter's default-value instructions
// are not written, so the parameters of an imported function carry no
// defaults.
//
// Generalized from the teacher repo's adapter/json codec: that adapter
// paired an Import/Export interface with internal/typetag to round-trip
// tagged schema values through JSON text. bstf keeps the same
// Import/Export symmetry and tag-then-payload shape but targets a binary
// wire format via encoding/binary, since bstf is the engine's own format
// rather than an interchange with an existing text codec.
package bstf

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/stof-engine/stof/stoferr"
)

const magic uint32 = 0x53544246 // "STBF"
const formatVersion uint8 = 1

type writer struct {
	buf bytes.Buffer
}

func (w *writer) writeUvarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.buf.Write(tmp[:n])
}

func (w *writer) writeByte(b byte) { w.buf.WriteByte(b) }

func (w *writer) writeBytes(b []byte) {
	w.writeUvarint(uint64(len(b)))
	w.buf.Write(b)
}

func (w *writer) writeString(s string) { w.writeBytes([]byte(s)) }

func (w *writer) writeFloat64(f float64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(f))
	w.buf.Write(tmp[:])
}

func (w *writer) writeInt64(i int64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(i))
	w.buf.Write(tmp[:])
}

func (w *writer) Bytes() []byte { return w.buf.Bytes() }

type reader struct {
	r *bytes.Reader
}

func newReader(data []byte) *reader { return &reader{r: bytes.NewReader(data)} }

func (r *reader) readUvarint() (uint64, error) {
	v, err := binary.ReadUvarint(r.r)
	if err != nil {
		return 0, wrapReadErr(err)
	}
	return v, nil
}

func (r *reader) readByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, wrapReadErr(err)
	}
	return b, nil
}

func (r *reader) readBytes() ([]byte, error) {
	n, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r.r, out); err != nil {
		return nil, wrapReadErr(err)
	}
	return out, nil
}

func (r *reader) readString() (string, error) {
	b, err := r.readBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) readFloat64() (float64, error) {
	var tmp [8]byte
	if _, err := io.ReadFull(r.r, tmp[:]); err != nil {
		return 0, wrapReadErr(err)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(tmp[:])), nil
}

func (r *reader) readInt64() (int64, error) {
	var tmp [8]byte
	if _, err := io.ReadFull(r.r, tmp[:]); err != nil {
		return 0, wrapReadErr(err)
	}
	return int64(binary.LittleEndian.Uint64(tmp[:])), nil
}

func wrapReadErr(err error) error {
	return stoferr.New(stoferr.Format, "bstf", "truncated or corrupt stream").WithDetail("cause", err.Error())
}
