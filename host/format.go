package host

import (
	"context"

	"github.com/stof-engine/stof/bstf"
	"github.com/stof-engine/stof/graphstore"
	"github.com/stof-engine/stof/stoferr"
)

// Format is a pluggable import/export codec (spec §6 "Format plug-ins"):
// each format declares the extensions/content type it recognizes and
// implements any subset of import-from-bytes/export-to-bytes. Concrete
// codecs (JSON, TOML, PDF, ...) are external collaborators (spec §1);
// this interface is only the seam they plug into. bstf (below) is the
// one format this package implements directly, since spec §4.1/§6
// mandate it as part of the core.
type Format interface {
	// Identifiers returns the file extensions (without a leading dot)
	// this format recognizes.
	Identifiers() []string
	// ContentType returns the MIME type registered for this format.
	ContentType() string
	// ExportBytes serializes g to this format's byte representation. A
	// format that only supports import returns a Format error.
	ExportBytes(g *graphstore.Graph) ([]byte, error)
	// ImportBytes decodes data into a fresh Graph. A format that only
	// supports export returns a Format error.
	ImportBytes(data []byte) (*graphstore.Graph, error)
}

// RegisterFormat installs fmt under each of its Identifiers, overriding
// any existing registration for the same extension (spec §6:
// "Host-registered formats may be overridden per document").
func (d *Document) RegisterFormat(f Format) {
	for _, id := range f.Identifiers() {
		d.formats[id] = f
	}
}

// Format looks up a registered format by extension.
func (d *Document) Format(identifier string) (Format, bool) {
	f, ok := d.formats[identifier]
	return f, ok
}

// Export serializes the document through the format registered under
// identifier ("bstf" is always available, even with no formats
// registered — see ExportBstf).
func (d *Document) Export(identifier string) ([]byte, error) {
	if identifier == "bstf" {
		return d.ExportBstf()
	}
	f, ok := d.formats[identifier]
	if !ok {
		return nil, stoferr.New(stoferr.Format, "host", "no format registered for identifier").WithDetail("identifier", identifier)
	}
	return f.ExportBytes(d.Graph)
}

// ExportBstf serializes the entire graph to the binary bstf format
// (spec §4.1, §6), using the document's configured InstructionCodec to
// round-trip function bodies.
func (d *Document) ExportBstf() ([]byte, error) {
	return bstf.Export(d.Graph, d.cfg.instrCodec)
}

// ImportBstf decodes data as bstf and absorbs it into the document's
// graph by root name (spec §4.1 "Importing a bstf either absorbs its
// roots..."). Pass a non-empty targetNodeID to instead graft the
// decoded graph's roots under that node: each root becomes (or merges
// into) the target's child of the same name.
func (d *Document) ImportBstf(data []byte, targetNodeID string) error {
	other, err := bstf.Import(data, d.cfg.instrCodec)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if targetNodeID == "" {
		return d.Graph.Absorb(ctx, other)
	}
	for _, rootID := range other.Roots() {
		rootNode, _ := other.Node(rootID)
		childID, ok := d.Graph.FindChildByName(targetNodeID, rootNode.Name)
		if !ok {
			if childID, err = d.Graph.NewChild(ctx, targetNodeID, rootNode.Name); err != nil {
				return err
			}
		}
		if err := d.Graph.Merge(ctx, childID, other, rootID); err != nil {
			return err
		}
	}
	return nil
}
