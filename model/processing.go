package model

// RoutingRule sends requests of a traffic type to an out-port index.
type RoutingRule struct {
	Type    int `json:"type" yaml:"type" validate:"gte=1"`
	OutPort int `json:"outPort" yaml:"outPort" validate:"gte=1"`
}

// NodeProcessing is the per-node service model used by SC, HAPS and ES
// nodes.
type NodeProcessing struct {
	ServiceLines int           `json:"serviceLines" yaml:"serviceLines" validate:"gte=1"`
	Queue        int           `json:"queue" yaml:"queue" validate:"gte=0"`
	Mu           float64       `json:"mu" yaml:"mu" validate:"gt=0"`
	Dist         string        `json:"dist" yaml:"dist" validate:"required"`
	RoutingTable []RoutingRule `json:"routingTable" yaml:"routingTable" validate:"min=1,dive"`
}

// Clone returns a deep copy.
func (p NodeProcessing) Clone() NodeProcessing {
	out := p
	if p.RoutingTable != nil {
		out.RoutingTable = make([]RoutingRule, len(p.RoutingTable))
		copy(out.RoutingTable, p.RoutingTable)
	}
	return out
}

// CapacitySource chooses where a generator takes request sizes from.
type CapacitySource string

const (
	// CapacityGlobal draws from the model-wide capacity distribution.
	CapacityGlobal CapacitySource = "capacity"
	// CapacityCustom uses the generator's CustomCapacity.
	CapacityCustom CapacitySource = "custom"
)

// GeneratorTarget references the in-port that generated traffic enters,
// either by port ID or by in-port index.
type GeneratorTarget struct {
	NodeID    string `json:"nodeId" yaml:"nodeId"`
	InPortID  string `json:"inPortId,omitempty" yaml:"inPortId,omitempty"`
	InPortIdx *int   `json:"inPortIdx,omitempty" yaml:"inPortIdx,omitempty"`
}

// GeneratorConfig is the synthetic traffic source attached to AS and
// SSOP nodes.
type GeneratorConfig struct {
	Lambda         float64         `json:"lambda" yaml:"lambda" validate:"gt=0"`
	TypeData       int             `json:"typeData" yaml:"typeData" validate:"gte=1"`
	CapacitySource CapacitySource  `json:"capacitySource" yaml:"capacitySource" validate:"oneof=capacity custom"`
	CustomCapacity *float64        `json:"customCapacity,omitempty" yaml:"customCapacity,omitempty" validate:"omitempty,gt=0"`
	Target         GeneratorTarget `json:"target" yaml:"target"`
}
