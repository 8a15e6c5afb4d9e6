package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/signalsfoundry/satnet-designer/gpss"
	"github.com/signalsfoundry/satnet-designer/model"
)

// Document is the exported form of a session: the topology plus the GPSS
// experiment configuration.
type Document struct {
	Model model.ModelConfig `json:"model" yaml:"model"`
	Nodes []model.Node      `json:"nodes" yaml:"nodes"`
	Edges []model.Edge      `json:"edges" yaml:"edges"`
	GPSS  *gpss.Config      `json:"gpss,omitempty" yaml:"gpss,omitempty"`
}

// NewDocument bundles t and cfg. Both are copied.
func NewDocument(t model.Topology, cfg *gpss.Config) Document {
	c := t.Clone()
	doc := Document{Model: c.Model, Nodes: c.Nodes, Edges: c.Edges}
	if cfg != nil {
		g := cfg.Clone()
		doc.GPSS = &g
	}
	return doc
}

// Topology returns the graph part of the document.
func (d Document) Topology() model.Topology {
	return model.Topology{Model: d.Model, Nodes: d.Nodes, Edges: d.Edges}
}

// internal JSON shapes used on import only; they accept fields written by
// older editors.
type documentJSON struct {
	Model model.ModelConfig `json:"model"`
	Nodes []model.Node      `json:"nodes"`
	Edges []edgeJSON        `json:"edges"`
	GPSS  *gpss.Config      `json:"gpss,omitempty"`
}

type edgeJSON struct {
	model.Edge
	// Latency in milliseconds marks an edge written before channels
	// carried propagation delay. Such edges store bandwidth in Mbit/s.
	Latency *float64 `json:"latency,omitempty"`
}

func (e edgeJSON) upgrade() model.Edge {
	out := e.Edge
	if e.Latency == nil || out.PropDelay != nil {
		return out
	}
	out.PropDelay = model.Float(ConvertLegacyLatency(*e.Latency))
	if out.Bandwidth != nil {
		out.Bandwidth = model.Float(ConvertLegacyBandwidth(*out.Bandwidth))
	}
	return out
}

// Export serialises doc as indented JSON.
func Export(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDocument(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDocument writes doc to w as indented JSON.
func WriteDocument(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("WriteDocument: encode failed: %w", err)
	}
	return nil
}

// Import parses a document produced by Export. Edges written by older
// editors are upgraded to current units.
func Import(data []byte) (Document, error) {
	return ReadDocument(bytes.NewReader(data))
}

// ReadDocument reads one JSON document from r.
func ReadDocument(r io.Reader) (Document, error) {
	var payload documentJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return Document{}, fmt.Errorf("ReadDocument: decode failed: %w", err)
	}
	doc := Document{
		Model: payload.Model,
		Nodes: payload.Nodes,
		GPSS:  payload.GPSS,
	}
	if payload.Edges != nil {
		doc.Edges = make([]model.Edge, len(payload.Edges))
		for i, e := range payload.Edges {
			doc.Edges[i] = e.upgrade()
		}
	}
	return doc, nil
}

// ExportTopology serialises a bare topology without GPSS configuration.
func ExportTopology(t model.Topology) ([]byte, error) {
	return json.Marshal(t)
}

// ImportTopology is the inverse of ExportTopology.
func ImportTopology(data []byte) (model.Topology, error) {
	doc, err := Import(data)
	if err != nil {
		return model.Topology{}, err
	}
	return doc.Topology(), nil
}
