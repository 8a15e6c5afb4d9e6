package model

// NodeType is the closed set of node kinds a topology may contain.
type NodeType string

const (
	NodeTypeAS   NodeType = "AS"   // access / subscriber cluster
	NodeTypeSC   NodeType = "SC"   // spacecraft (LEO, MEO or GEO)
	NodeTypeHAPS NodeType = "HAPS" // high-altitude platform
	NodeTypeES   NodeType = "ES"   // earth station
	NodeTypeSSOP NodeType = "SSOP" // external network gateway
)

// NodeTypes lists every NodeType in a stable order.
var NodeTypes = []NodeType{NodeTypeAS, NodeTypeSC, NodeTypeHAPS, NodeTypeES, NodeTypeSSOP}

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeAS, NodeTypeSC, NodeTypeHAPS, NodeTypeES, NodeTypeSSOP:
		return true
	}
	return false
}

// Airborne reports whether nodes of this type carry an altitude rather
// than a free-text ground location.
func (t NodeType) Airborne() bool {
	return t == NodeTypeSC || t == NodeTypeHAPS
}

// Orbit refines NodeTypeSC. An empty Orbit is treated as LEO.
type Orbit string

const (
	OrbitLEO Orbit = "LEO"
	OrbitMEO Orbit = "MEO"
	OrbitGEO Orbit = "GEO"
)

// Position is a 2-D canvas position.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is a single vertex of the topology.
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Type     NodeType `json:"type" yaml:"type"`
	Position Position `json:"position" yaml:"position"`
	Data     NodeData `json:"data" yaml:"data"`
}

// NodeData holds everything attached to a node besides identity and
// canvas placement. Interfaces holds both directions; use InPorts and
// OutPorts for per-direction views.
type NodeData struct {
	Label    string   `json:"label" yaml:"label"`
	Lat      *float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty" yaml:"lon,omitempty"`
	Altitude *float64 `json:"altitude,omitempty" yaml:"altitude,omitempty"`
	Location string   `json:"location,omitempty" yaml:"location,omitempty"`
	Orbit    Orbit    `json:"orbit,omitempty" yaml:"orbit,omitempty"`

	Interfaces []Port           `json:"interfaces" yaml:"interfaces"`
	Processing *NodeProcessing  `json:"processing,omitempty" yaml:"processing,omitempty"`
	Generator  *GeneratorConfig `json:"generator,omitempty" yaml:"generator,omitempty"`
	Code       string           `json:"code,omitempty" yaml:"code,omitempty"`

	Meta map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// DisplayLabel returns the node label, falling back to its ID.
func (n *Node) DisplayLabel() string {
	if n.Data.Label != "" {
		return n.Data.Label
	}
	return n.ID
}

// InPorts returns the node's in-ports ordered by index.
func (n *Node) InPorts() []Port { return n.portsByDir(DirIn) }

// OutPorts returns the node's out-ports ordered by index.
func (n *Node) OutPorts() []Port { return n.portsByDir(DirOut) }

func (n *Node) portsByDir(dir Direction) []Port {
	var out []Port
	for _, p := range n.Data.Interfaces {
		if p.Direction == dir {
			out = append(out, p)
		}
	}
	// insertion sort; port lists are short and mostly ordered already
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Idx < out[j-1].Idx; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Port returns a pointer to the interface with the given ID, or nil.
func (n *Node) Port(id string) *Port {
	for i := range n.Data.Interfaces {
		if n.Data.Interfaces[i].ID == id {
			return &n.Data.Interfaces[i]
		}
	}
	return nil
}

// PortByIdx returns the interface with the given direction and index, or nil.
func (n *Node) PortByIdx(dir Direction, idx int) *Port {
	for i := range n.Data.Interfaces {
		p := &n.Data.Interfaces[i]
		if p.Direction == dir && p.Idx == idx {
			return p
		}
	}
	return nil
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	out.Data.Lat = cloneFloat(n.Data.Lat)
	out.Data.Lon = cloneFloat(n.Data.Lon)
	out.Data.Altitude = cloneFloat(n.Data.Altitude)
	if n.Data.Interfaces != nil {
		out.Data.Interfaces = make([]Port, len(n.Data.Interfaces))
		copy(out.Data.Interfaces, n.Data.Interfaces)
	}
	if n.Data.Processing != nil {
		p := n.Data.Processing.Clone()
		out.Data.Processing = &p
	}
	if n.Data.Generator != nil {
		g := *n.Data.Generator
		g.CustomCapacity = cloneFloat(n.Data.Generator.CustomCapacity)
		g.Target.InPortIdx = cloneInt(n.Data.Generator.Target.InPortIdx)
		out.Data.Generator = &g
	}
	out.Data.Meta = cloneMeta(n.Data.Meta)
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Float returns a pointer to v. It is a convenience for optional fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
