package core

import (
	"fmt"
	"strings"

	"github.com/signalsfoundry/satnet-designer/gpss"
	"github.com/signalsfoundry/satnet-designer/internal/validation"
	"github.com/signalsfoundry/satnet-designer/model"
)

// ValidateModelConfig checks the global model configuration. A nil result
// means m is valid.
func ValidateModelConfig(m model.ModelConfig) validation.FieldErrors {
	fe := validation.New()
	fe.Merge("", validation.Struct("", m))

	capacity := m.Traffic.Capacity
	if capacity.Dist != "" {
		if !gpss.DataVolumeDistributions.Has(capacity.Dist) {
			fe.Addf("traffic.capacity.dist", "unknown distribution %q", capacity.Dist)
		} else {
			declared := make(map[string]struct{})
			for _, k := range gpss.DistributionKeys(capacity.Dist) {
				declared[k] = struct{}{}
				if _, ok := capacity.Params[k]; !ok {
					fe.Add("traffic.capacity.params."+k, "field is required")
				}
			}
			for k := range capacity.Params {
				if _, ok := declared[k]; !ok {
					fe.Addf("traffic.capacity.params."+k, "not a parameter of %s", capacity.Dist)
				}
			}
		}
	}
	if m.Time != nil && m.Time.Unit != "" && !gpss.TimeUnits.Has(m.Time.Unit) {
		fe.Addf("time.unit", "unknown time unit %q", m.Time.Unit)
	}
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// DefaultModelConfig returns a model configuration that passes
// ValidateModelConfig.
func DefaultModelConfig(id string) model.ModelConfig {
	return model.ModelConfig{
		Model: model.ModelID{ID: id},
		Sim:   model.SimSettings{Duration: 1000},
		Time:  &model.TimeSettings{Unit: "minutes"},
		RNG:   &model.RNGSettings{Seed: 1},
		Traffic: model.TrafficSettings{
			Capacity: model.CapacityDistribution{
				Dist:   gpss.DefaultTrafficDistribution,
				Params: map[string]float64{"rn": 1, "min": 64, "max": 1500},
			},
		},
		Packet:    model.PacketSettings{MTU: 1500},
		DataTypes: []int{1, 2},
	}
}

// ValidateTopology checks every structural invariant of t and collects the
// failures keyed by JSON path. A nil result means t is valid.
func ValidateTopology(t model.Topology) validation.FieldErrors {
	fe := validation.New()
	fe.Merge("model", ValidateModelConfig(t.Model))

	seenNodes := make(map[string]int, len(t.Nodes))
	for i := range t.Nodes {
		validateNode(fe, fmt.Sprintf("nodes[%d]", i), &t, &t.Nodes[i], seenNodes, i)
	}

	seenEdges := make(map[string]struct{}, len(t.Edges))
	pairs := make(map[[2]string]string, len(t.Edges))
	for i := range t.Edges {
		validateEdge(fe, fmt.Sprintf("edges[%d]", i), &t, &t.Edges[i], seenEdges, pairs)
	}
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func validateNode(fe validation.FieldErrors, path string, t *model.Topology, n *model.Node, seen map[string]int, i int) {
	if n.ID == "" {
		fe.Add(path+".id", "field is required")
	} else if j, dup := seen[n.ID]; dup {
		fe.Addf(path+".id", "duplicate of nodes[%d]", j)
	} else {
		seen[n.ID] = i
	}
	if !n.Type.Valid() {
		fe.Addf(path+".type", "unknown node type %q", n.Type)
		return
	}
	if err := CheckAltitude(n); err != nil {
		fe.Add(path+".data.altitude", err.Error())
	}
	if n.Data.Processing != nil {
		if !HasProcessing(n.Type) {
			fe.Addf(path+".data.processing", "%s nodes have no processing", n.Type)
		} else {
			fe.Merge(path+".data.processing", validation.Struct("", *n.Data.Processing))
		}
	}
	if g := n.Data.Generator; g != nil {
		if !HasGenerator(n.Type) {
			fe.Addf(path+".data.generator", "%s nodes have no generator", n.Type)
		} else {
			fe.Merge(path+".data.generator", validation.Struct("", *g))
			if g.CapacitySource == model.CapacityCustom && g.CustomCapacity == nil {
				fe.Add(path+".data.generator.customCapacity", "field is required")
			}
			if g.Target.NodeID != "" && t.Node(g.Target.NodeID) == nil {
				fe.Addf(path+".data.generator.target.nodeId", "unknown node %q", g.Target.NodeID)
			}
		}
	}

	idx := map[model.Direction]map[int]struct{}{model.DirIn: {}, model.DirOut: {}}
	for j := range n.Data.Interfaces {
		p := &n.Data.Interfaces[j]
		pp := fmt.Sprintf("%s.data.interfaces[%d]", path, j)
		if p.ID == "" {
			fe.Add(pp+".id", "field is required")
		}
		if p.NodeID != n.ID {
			fe.Addf(pp+".nodeId", "port belongs to %q, not %q", p.NodeID, n.ID)
		}
		used, ok := idx[p.Direction]
		if !ok {
			fe.Addf(pp+".direction", "unknown direction %q", p.Direction)
			continue
		}
		if p.Idx < 1 {
			fe.Add(pp+".idx", "must be at least 1")
		} else if _, dup := used[p.Idx]; dup {
			fe.Addf(pp+".idx", "duplicate %s index %d", p.Direction, p.Idx)
		} else {
			used[p.Idx] = struct{}{}
		}
		fe.Merge(pp, validation.Struct("", *p))
		if p.ResourceType == model.ResourceFacility && p.ResourceAmount != 1 {
			fe.Add(pp+".resourceAmount", "FACILITY ports have exactly one channel")
		}
	}
}

func validateEdge(fe validation.FieldErrors, path string, t *model.Topology, e *model.Edge, seen map[string]struct{}, pairs map[[2]string]string) {
	if e.ID == "" {
		fe.Add(path+".id", "field is required")
	} else if _, dup := seen[e.ID]; dup {
		fe.Addf(path+".id", "duplicate edge id %q", e.ID)
	} else {
		seen[e.ID] = struct{}{}
	}
	fe.Merge(path, validation.Struct("", *e))

	src := t.Node(e.From.NodeID)
	if src == nil {
		fe.Addf(path+".from.nodeId", "unknown node %q", e.From.NodeID)
	} else if p := src.Port(e.From.PortID); p == nil {
		fe.Addf(path+".from.portId", "unknown port %q", e.From.PortID)
	} else if p.Direction != model.DirOut {
		fe.Add(path+".from.portId", "source port must be an out-port")
	}

	switch e.To.Kind {
	case model.TargetTerminal:
		if e.To.Terminal == "" {
			fe.Add(path+".to.terminal", "field is required")
		}
		return
	case model.TargetNode:
	default:
		fe.Addf(path+".to.kind", "unknown target kind %q", e.To.Kind)
		return
	}
	dst := t.Node(e.To.NodeID)
	if dst == nil {
		fe.Addf(path+".to.nodeId", "unknown node %q", e.To.NodeID)
	} else if p := dst.Port(e.To.PortID); p == nil {
		fe.Addf(path+".to.portId", "unknown port %q", e.To.PortID)
	} else if p.Direction != model.DirIn {
		fe.Add(path+".to.portId", "target port must be an in-port")
	}
	if src == nil || dst == nil {
		return
	}
	if src.ID == dst.ID {
		fe.Add(path, ErrSelfLoop.Error())
	}
	if !IsConnectionAllowed(src.Type, dst.Type) {
		fe.Addf(path, "%s: %s -> %s", ErrConnectionNotAllowed, src.Type, dst.Type)
	}
	key := [2]string{e.From.PortID, e.To.PortID}
	if other, dup := pairs[key]; dup {
		fe.Addf(path, "%s: same ports as %q", ErrDuplicateEdge, other)
	} else {
		pairs[key] = e.ID
	}
}

// DocumentErrors holds the two independent validation results of a
// document. Either set may be empty while the other is not.
type DocumentErrors struct {
	Topology validation.FieldErrors `json:"topology"`
	GPSS     validation.FieldErrors `json:"gpss"`
}

// Valid reports whether both sets are empty.
func (de DocumentErrors) Valid() bool {
	return len(de.Topology) == 0 && len(de.GPSS) == 0
}

// Error implements error.
func (de DocumentErrors) Error() string {
	var parts []string
	if len(de.Topology) > 0 {
		parts = append(parts, "topology: "+de.Topology.Error())
	}
	if len(de.GPSS) > 0 {
		parts = append(parts, "gpss: "+de.GPSS.Error())
	}
	return strings.Join(parts, "; ")
}

// ValidateDocument validates the topology and the GPSS configuration of
// doc separately and never merges the results.
func ValidateDocument(doc Document) DocumentErrors {
	out := DocumentErrors{
		Topology: ValidateTopology(doc.Topology()),
	}
	if doc.GPSS == nil {
		out.GPSS = validation.FieldErrors{"gpss": "configuration is missing"}
	} else {
		out.GPSS = doc.GPSS.Validate()
	}
	return out
}
