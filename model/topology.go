package model

// ModelID names the model.
type ModelID struct {
	ID string `json:"id" yaml:"id" validate:"required"`
}

// SimSettings carries the simulated run length.
type SimSettings struct {
	Duration float64 `json:"duration" yaml:"duration" validate:"gt=0"`
}

// TimeSettings carries the model time unit.
type TimeSettings struct {
	Unit string `json:"unit" yaml:"unit"`
}

// RNGSettings carries the random number generator seed.
type RNGSettings struct {
	Seed int64 `json:"seed" yaml:"seed"`
}

// CapacityDistribution is the default distribution of request sizes.
type CapacityDistribution struct {
	Dist   string             `json:"dist" yaml:"dist" validate:"required"`
	Params map[string]float64 `json:"params" yaml:"params"`
}

// TrafficSettings groups model-wide traffic characteristics.
type TrafficSettings struct {
	Capacity CapacityDistribution `json:"capacity" yaml:"capacity"`
}

// PacketSettings carries the packet MTU in bytes.
type PacketSettings struct {
	MTU int `json:"mtu" yaml:"mtu" validate:"gte=1"`
}

// ModelConfig is the global configuration of a topology.
type ModelConfig struct {
	Model     ModelID         `json:"model" yaml:"model"`
	Sim       SimSettings     `json:"sim" yaml:"sim"`
	Time      *TimeSettings   `json:"time,omitempty" yaml:"time,omitempty"`
	RNG       *RNGSettings    `json:"rng,omitempty" yaml:"rng,omitempty"`
	Traffic   TrafficSettings `json:"traffic" yaml:"traffic"`
	Packet    PacketSettings  `json:"packet" yaml:"packet"`
	DataTypes []int           `json:"dataTypes,omitempty" yaml:"dataTypes,omitempty" validate:"omitempty,dive,gte=1"`
}

// Clone returns a deep copy.
func (m ModelConfig) Clone() ModelConfig {
	out := m
	if m.Time != nil {
		t := *m.Time
		out.Time = &t
	}
	if m.RNG != nil {
		r := *m.RNG
		out.RNG = &r
	}
	if m.Traffic.Capacity.Params != nil {
		out.Traffic.Capacity.Params = make(map[string]float64, len(m.Traffic.Capacity.Params))
		for k, v := range m.Traffic.Capacity.Params {
			out.Traffic.Capacity.Params[k] = v
		}
	}
	if m.DataTypes != nil {
		out.DataTypes = append([]int(nil), m.DataTypes...)
	}
	return out
}

// Topology is the aggregate edited by a session: the global model
// configuration plus the node and edge lists.
type Topology struct {
	Model ModelConfig `json:"model" yaml:"model"`
	Nodes []Node      `json:"nodes" yaml:"nodes"`
	Edges []Edge      `json:"edges" yaml:"edges"`
}

// Clone returns a deep copy, so that mutating the result never affects t.
func (t Topology) Clone() Topology {
	out := Topology{Model: t.Model.Clone()}
	if t.Nodes != nil {
		out.Nodes = make([]Node, len(t.Nodes))
		for i, n := range t.Nodes {
			out.Nodes[i] = n.Clone()
		}
	}
	if t.Edges != nil {
		out.Edges = make([]Edge, len(t.Edges))
		for i, e := range t.Edges {
			out.Edges[i] = e.Clone()
		}
	}
	return out
}

// Node returns a pointer to the node with the given ID, or nil.
func (t *Topology) Node(id string) *Node {
	for i := range t.Nodes {
		if t.Nodes[i].ID == id {
			return &t.Nodes[i]
		}
	}
	return nil
}

// Edge returns a pointer to the edge with the given ID, or nil.
func (t *Topology) Edge(id string) *Edge {
	for i := range t.Edges {
		if t.Edges[i].ID == id {
			return &t.Edges[i]
		}
	}
	return nil
}

// PortCount returns the total number of interfaces across all nodes.
func (t *Topology) PortCount() int {
	n := 0
	for i := range t.Nodes {
		n += len(t.Nodes[i].Data.Interfaces)
	}
	return n
}
