package model

// EdgeDirection tells whether a channel carries traffic one way or both.
type EdgeDirection string

const (
	EdgeUni EdgeDirection = "uni"
	EdgeBi  EdgeDirection = "bi"
)

// MuPolicy selects how a channel's service rate is obtained.
type MuPolicy string

const (
	// MuManual uses the Mu value entered on the edge.
	MuManual MuPolicy = "manual"
	// MuPhysics derives mu from bandwidth, packet size and propagation delay.
	MuPhysics MuPolicy = "physics"
)

// TargetKind distinguishes node-bound edges from edges into a symbolic
// terminal (a GPSS block label outside the modelled graph).
type TargetKind string

const (
	TargetNode     TargetKind = "node"
	TargetTerminal TargetKind = "terminal"
)

// EdgeSource is the originating endpoint of a channel.
type EdgeSource struct {
	NodeID     string `json:"nodeId" yaml:"nodeId"`
	OutPortIdx int    `json:"outPortIdx" yaml:"outPortIdx"`
	PortID     string `json:"portId" yaml:"portId"`
}

// EdgeTarget is the receiving endpoint of a channel. For TargetTerminal
// only Terminal is set.
type EdgeTarget struct {
	Kind      TargetKind `json:"kind" yaml:"kind"`
	NodeID    string     `json:"nodeId,omitempty" yaml:"nodeId,omitempty"`
	InPortIdx int        `json:"inPortIdx,omitempty" yaml:"inPortIdx,omitempty"`
	PortID    string     `json:"portId,omitempty" yaml:"portId,omitempty"`
	Terminal  string     `json:"terminal,omitempty" yaml:"terminal,omitempty"`
}

// LinkModel is an optional stochastic description of a channel.
type LinkModel struct {
	Dist     string   `json:"dist,omitempty" yaml:"dist,omitempty"`
	Mean     *float64 `json:"mean,omitempty" yaml:"mean,omitempty" validate:"omitempty,gte=0"`
	LossProb *float64 `json:"lossProb,omitempty" yaml:"lossProb,omitempty" validate:"omitempty,gte=0,lte=1"`
	MTBF     *float64 `json:"mtbf,omitempty" yaml:"mtbf,omitempty" validate:"omitempty,gt=0"`
	MTTR     *float64 `json:"mttr,omitempty" yaml:"mttr,omitempty" validate:"omitempty,gt=0"`
}

// Edge is a directed channel between an out-port and an in-port (or a
// terminal). Distance and Label are derived from node coordinates.
type Edge struct {
	ID        string        `json:"id" yaml:"id"`
	From      EdgeSource    `json:"from" yaml:"from"`
	To        EdgeTarget    `json:"to" yaml:"to"`
	Direction EdgeDirection `json:"direction,omitempty" yaml:"direction,omitempty"`
	Label     string        `json:"label,omitempty" yaml:"label,omitempty"`
	Distance  *float64      `json:"distance,omitempty" yaml:"distance,omitempty"`

	// Bandwidth in bytes per second, PropDelay in seconds, PacketSize in bytes.
	Bandwidth  *float64 `json:"bandwidth,omitempty" yaml:"bandwidth,omitempty" validate:"omitempty,gt=0"`
	PropDelay  *float64 `json:"propDelay,omitempty" yaml:"propDelay,omitempty" validate:"omitempty,gte=0"`
	PacketSize *float64 `json:"packetSize,omitempty" yaml:"packetSize,omitempty" validate:"omitempty,gt=0"`

	MuPolicy MuPolicy   `json:"muPolicy,omitempty" yaml:"muPolicy,omitempty"`
	Mu       *float64   `json:"mu,omitempty" yaml:"mu,omitempty" validate:"omitempty,gt=0"`
	Link     *LinkModel `json:"link,omitempty" yaml:"link,omitempty"`

	Meta map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// IsTerminal reports whether the edge ends in a symbolic terminal.
func (e *Edge) IsTerminal() bool { return e.To.Kind == TargetTerminal }

// References reports whether portID is either endpoint of the edge.
func (e *Edge) References(portID string) bool {
	if portID == "" {
		return false
	}
	return e.From.PortID == portID || (!e.IsTerminal() && e.To.PortID == portID)
}

// Clone returns a deep copy of the edge.
func (e Edge) Clone() Edge {
	out := e
	out.Distance = cloneFloat(e.Distance)
	out.Bandwidth = cloneFloat(e.Bandwidth)
	out.PropDelay = cloneFloat(e.PropDelay)
	out.PacketSize = cloneFloat(e.PacketSize)
	out.Mu = cloneFloat(e.Mu)
	if e.Link != nil {
		l := LinkModel{
			Dist:     e.Link.Dist,
			Mean:     cloneFloat(e.Link.Mean),
			LossProb: cloneFloat(e.Link.LossProb),
			MTBF:     cloneFloat(e.Link.MTBF),
			MTTR:     cloneFloat(e.Link.MTTR),
		}
		out.Link = &l
	}
	out.Meta = cloneMeta(e.Meta)
	return out
}
