package model

// Direction is the direction of a port relative to its owning node.
type Direction string

const (
	DirIn  Direction = "in"
	DirOut Direction = "out"
)

// SpeedMode selects whether a port's service speed was entered as a
// rate (mu) or as a mean service time (t = 1/mu).
type SpeedMode string

const (
	SpeedModeRate SpeedMode = "rate"
	SpeedModeTime SpeedMode = "time"
)

// ResourceType is the GPSS resource used to model service on a port.
type ResourceType string

const (
	// ResourceFacility is a single-channel resource; its amount is always 1.
	ResourceFacility ResourceType = "FACILITY"
	// ResourceStorage is a multi-channel resource with amount >= 1.
	ResourceStorage ResourceType = "STORAGE"
)

// Port (a.k.a. interface) is a directional endpoint owned by one node.
//
// Idx is 1-based and unique within (NodeID, Direction). It is assigned
// once and never renumbered while the port lives.
//
// EdgeID, ConnectedNodeID and ConnectedNodeLabel are derived display
// caches; they are recomputed from the edge list after every mutation.
type Port struct {
	ID          string    `json:"id" yaml:"id"`
	NodeID      string    `json:"nodeId" yaml:"nodeId"`
	Direction   Direction `json:"direction" yaml:"direction"`
	Idx         int       `json:"idx" yaml:"idx"`
	Label       string    `json:"label" yaml:"label"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`

	QueueCapacity  int          `json:"queueCapacity" yaml:"queueCapacity" validate:"gte=0"`
	SpeedMode      SpeedMode    `json:"speedMode" yaml:"speedMode" validate:"oneof=rate time"`
	Mu             float64      `json:"mu" yaml:"mu" validate:"gt=0"`
	ServiceTime    float64      `json:"serviceTime" yaml:"serviceTime" validate:"gt=0"`
	ResourceType   ResourceType `json:"resourceType" yaml:"resourceType" validate:"oneof=FACILITY STORAGE"`
	ResourceAmount int          `json:"resourceAmount" yaml:"resourceAmount" validate:"gte=1"`
	Dist           string       `json:"dist" yaml:"dist" validate:"required"`

	AutoCleanup bool `json:"autoCleanup" yaml:"autoCleanup"`
	Persistent  bool `json:"persistent" yaml:"persistent"`
	Locked      bool `json:"locked" yaml:"locked"`

	EdgeID             string `json:"edgeId,omitempty" yaml:"edgeId,omitempty"`
	ConnectedNodeID    string `json:"connectedNodeId,omitempty" yaml:"connectedNodeId,omitempty"`
	ConnectedNodeLabel string `json:"connectedNodeLabel,omitempty" yaml:"connectedNodeLabel,omitempty"`
}
