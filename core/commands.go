package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/signalsfoundry/satnet-designer/internal/validation"
	"github.com/signalsfoundry/satnet-designer/model"
)

// Command is a single topology mutation understood by Dispatcher.Apply.
type Command interface {
	// Name is a stable identifier used in errors, logs and metrics.
	Name() string
}

// AddNode creates a node. An empty ID is generated. When Lat and Lon are
// both set the canvas position is derived from them; otherwise the
// coordinates are derived from Position.
type AddNode struct {
	ID       string
	Type     model.NodeType
	Label    string
	Position model.Position
	Lat      *float64
	Lon      *float64
	Altitude *float64
	Location string
	Orbit    model.Orbit
	Meta     map[string]any
}

// UpdateNode changes the descriptive fields of a node. Nil fields are left
// untouched.
type UpdateNode struct {
	ID       string
	Label    *string
	Lat      *float64
	Lon      *float64
	Altitude *float64
	Location *string
	Orbit    *model.Orbit
	Meta     map[string]any
}

// MoveNode places a node at a new canvas position and updates its
// coordinates to match.
type MoveNode struct {
	ID       string
	Position model.Position
}

// RemoveNode deletes a node together with every edge touching it.
type RemoveNode struct {
	ID string
}

// Connect creates an edge from SourceNodeID to TargetNodeID. Empty port
// IDs let the allocator choose. An empty EdgeID is generated.
type Connect struct {
	EdgeID       string
	SourceNodeID string
	SourcePortID string
	TargetNodeID string
	TargetPortID string
	Channel      *ChannelParams
}

// ConnectTerminal wires an out-port of SourceNodeID into a symbolic
// terminal, a block label outside the modelled graph.
type ConnectTerminal struct {
	EdgeID       string
	SourceNodeID string
	SourcePortID string
	Terminal     string
	Channel      *ChannelParams
}

// RemoveEdge deletes an edge and reclaims its endpoint ports where
// Reclaimable allows.
type RemoveEdge struct {
	ID string
}

// ChannelParams are the editable properties of an edge. Nil fields are
// left untouched.
type ChannelParams struct {
	Direction  *model.EdgeDirection
	MuPolicy   *model.MuPolicy
	Mu         *float64
	Bandwidth  *float64
	PropDelay  *float64
	PacketSize *float64
	Link       *model.LinkModel
	Meta       map[string]any
}

// UpdateEdge changes the channel parameters of an edge.
type UpdateEdge struct {
	ID string
	ChannelParams
}

// UpdatePort changes the service parameters and flags of one port.
type UpdatePort struct {
	NodeID         string
	PortID         string
	Label          *string
	PortName       *string
	Description    *string
	QueueCapacity  *int
	SpeedMode      *model.SpeedMode
	Mu             *float64
	ServiceTime    *float64
	ResourceType   *model.ResourceType
	ResourceAmount *int
	Dist           *string
	AutoCleanup    *bool
	Persistent     *bool
	Locked         *bool
}

// SetProcessing replaces a node's processing block. The block is
// normalised before it is stored.
type SetProcessing struct {
	NodeID     string
	Processing model.NodeProcessing
}

// SetGenerator replaces a node's generator. The generator is normalised
// before it is stored.
type SetGenerator struct {
	NodeID    string
	Generator model.GeneratorConfig
}

// SetModelConfig replaces the global model configuration.
type SetModelConfig struct {
	Config model.ModelConfig
}

func (AddNode) Name() string         { return "add_node" }
func (UpdateNode) Name() string      { return "update_node" }
func (MoveNode) Name() string        { return "move_node" }
func (RemoveNode) Name() string      { return "remove_node" }
func (Connect) Name() string         { return "connect" }
func (ConnectTerminal) Name() string { return "connect_terminal" }
func (RemoveEdge) Name() string      { return "remove_edge" }
func (UpdateEdge) Name() string      { return "update_edge" }
func (UpdatePort) Name() string      { return "update_port" }
func (SetProcessing) Name() string   { return "set_processing" }
func (SetGenerator) Name() string    { return "set_generator" }
func (SetModelConfig) Name() string  { return "set_model_config" }

//
// ---------- Nodes ----------
//

func (d *Dispatcher) addNode(t *model.Topology, c AddNode) error {
	if !c.Type.Valid() {
		return fmt.Errorf("%w: unknown node type %q", ErrInvalidCommand, c.Type)
	}
	id := c.ID
	if id == "" {
		id = d.newID()
	}
	if t.Node(id) != nil {
		return fmt.Errorf("%w: %q", ErrNodeExists, id)
	}
	n := model.Node{
		ID:   id,
		Type: c.Type,
		Data: model.NodeData{
			Label:    strings.TrimSpace(c.Label),
			Location: c.Location,
			Orbit:    c.Orbit,
		},
	}
	if c.Meta != nil {
		n.Data.Meta = make(map[string]any, len(c.Meta))
		for k, v := range c.Meta {
			n.Data.Meta[k] = v
		}
	}
	if n.Data.Label == "" {
		n.Data.Label = string(c.Type)
	}
	if c.Lat != nil && c.Lon != nil {
		n.Data.Lat, n.Data.Lon = model.Float(*c.Lat), model.Float(*c.Lon)
		n.Position = PositionFromLatLon(*c.Lat, *c.Lon)
	} else {
		n.Position = c.Position
		lat, lon := LatLonFromPosition(c.Position)
		n.Data.Lat, n.Data.Lon = model.Float(lat), model.Float(lon)
	}
	if c.Altitude != nil {
		n.Data.Altitude = model.Float(*c.Altitude)
	} else if alt, ok := DefaultAltitude(c.Type, c.Orbit); ok {
		n.Data.Altitude = model.Float(alt)
	}
	if err := CheckAltitude(&n); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	if HasProcessing(c.Type) {
		p := DefaultProcessing()
		n.Data.Processing = &p
	}
	n.Data.Generator = DefaultGenerator(c.Type)
	n.Data.Code = GenerateNodeCode(c.Type, t.Nodes)
	t.Nodes = append(t.Nodes, n)
	return nil
}

func (d *Dispatcher) updateNode(t *model.Topology, c UpdateNode) error {
	n, err := nodeByID(t, c.ID)
	if err != nil {
		return err
	}
	if c.Label != nil {
		label := strings.TrimSpace(*c.Label)
		if label == "" {
			return fmt.Errorf("%w: empty label", ErrInvalidCommand)
		}
		n.Data.Label = label
	}
	if c.Location != nil {
		n.Data.Location = *c.Location
	}
	if c.Orbit != nil {
		n.Data.Orbit = *c.Orbit
		// Keep the existing altitude valid for the new orbit unless the
		// caller supplies a new one.
		if c.Altitude == nil && n.Data.Altitude != nil {
			if r, ok := AltitudeRangeFor(n.Type, n.Data.Orbit); ok {
				n.Data.Altitude = model.Float(r.Clamp(*n.Data.Altitude))
			}
		}
	}
	if c.Altitude != nil {
		n.Data.Altitude = model.Float(*c.Altitude)
	}
	if c.Lat != nil || c.Lon != nil {
		lat, lon := LatLonFromPosition(n.Position)
		if n.Data.Lat != nil {
			lat = *n.Data.Lat
		}
		if n.Data.Lon != nil {
			lon = *n.Data.Lon
		}
		if c.Lat != nil {
			lat = *c.Lat
		}
		if c.Lon != nil {
			lon = *c.Lon
		}
		if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
			return fmt.Errorf("%w: coordinates (%g, %g) out of range", ErrInvalidCommand, lat, lon)
		}
		n.Data.Lat, n.Data.Lon = model.Float(lat), model.Float(lon)
		n.Position = PositionFromLatLon(lat, lon)
	}
	if c.Meta != nil {
		if n.Data.Meta == nil {
			n.Data.Meta = make(map[string]any, len(c.Meta))
		}
		for k, v := range c.Meta {
			n.Data.Meta[k] = v
		}
	}
	if err := CheckAltitude(n); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	return nil
}

func (d *Dispatcher) moveNode(t *model.Topology, c MoveNode) error {
	n, err := nodeByID(t, c.ID)
	if err != nil {
		return err
	}
	n.Position = c.Position
	lat, lon := LatLonFromPosition(c.Position)
	n.Data.Lat, n.Data.Lon = model.Float(lat), model.Float(lon)
	return nil
}

func (d *Dispatcher) removeNode(t *model.Topology, c RemoveNode) error {
	if _, err := nodeByID(t, c.ID); err != nil {
		return err
	}
	type endpoint struct{ nodeID, portID string }
	var peers []endpoint
	kept := t.Edges[:0]
	for _, e := range t.Edges {
		touches := e.From.NodeID == c.ID || (!e.IsTerminal() && e.To.NodeID == c.ID)
		if !touches {
			kept = append(kept, e)
			continue
		}
		if e.From.NodeID != c.ID {
			peers = append(peers, endpoint{e.From.NodeID, e.From.PortID})
		}
		if !e.IsTerminal() && e.To.NodeID != c.ID {
			peers = append(peers, endpoint{e.To.NodeID, e.To.PortID})
		}
	}
	t.Edges = kept

	nodes := t.Nodes[:0]
	for _, n := range t.Nodes {
		if n.ID != c.ID {
			nodes = append(nodes, n)
		}
	}
	t.Nodes = nodes

	for _, p := range peers {
		cleanupPort(t, p.nodeID, p.portID)
	}
	// Generators injecting into the removed node lose their target.
	for i := range t.Nodes {
		g := t.Nodes[i].Data.Generator
		if g != nil && g.Target.NodeID == c.ID {
			g.Target = model.GeneratorTarget{}
		}
	}
	return nil
}

//
// ---------- Edges ----------
//

func (d *Dispatcher) connect(t *model.Topology, c Connect) error {
	src, err := nodeByID(t, c.SourceNodeID)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	dst, err := nodeByID(t, c.TargetNodeID)
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}
	if src.ID == dst.ID {
		return fmt.Errorf("%w: node %q", ErrSelfLoop, src.ID)
	}
	edgeID, err := d.edgeID(t, c.EdgeID)
	if err != nil {
		return err
	}
	srcPortID, err := d.resolveSourcePort(src, c.SourcePortID)
	if err != nil {
		return err
	}
	dstPortID, err := d.resolveTargetPort(t, dst, c.TargetPortID)
	if err != nil {
		return err
	}
	if c.TargetPortID != "" && portReferenced(t, dstPortID) {
		return fmt.Errorf("%w: in-port %q already carries an edge", ErrDuplicateEdge, dstPortID)
	}
	for i := range t.Edges {
		e := &t.Edges[i]
		if e.From.PortID == srcPortID && !e.IsTerminal() && e.To.PortID == dstPortID {
			return fmt.Errorf("%w: %q already joins these ports", ErrDuplicateEdge, e.ID)
		}
	}
	if !IsConnectionAllowed(src.Type, dst.Type) {
		return fmt.Errorf("%w: %s -> %s", ErrConnectionNotAllowed, src.Type, dst.Type)
	}

	if d.persistOnConnect {
		src.Port(srcPortID).Persistent = true
		dst.Port(dstPortID).Persistent = true
	}
	e := model.Edge{
		ID: edgeID,
		From: model.EdgeSource{
			NodeID:     src.ID,
			OutPortIdx: src.Port(srcPortID).Idx,
			PortID:     srcPortID,
		},
		To: model.EdgeTarget{
			Kind:      model.TargetNode,
			NodeID:    dst.ID,
			InPortIdx: dst.Port(dstPortID).Idx,
			PortID:    dstPortID,
		},
		Direction: model.EdgeUni,
		MuPolicy:  model.MuManual,
	}
	if c.Channel != nil {
		if err := applyChannel(&e, *c.Channel); err != nil {
			return err
		}
	}
	t.Edges = append(t.Edges, e)
	return nil
}

func (d *Dispatcher) connectTerminal(t *model.Topology, c ConnectTerminal) error {
	src, err := nodeByID(t, c.SourceNodeID)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	terminal := strings.TrimSpace(c.Terminal)
	if terminal == "" {
		return fmt.Errorf("%w: empty terminal", ErrInvalidCommand)
	}
	edgeID, err := d.edgeID(t, c.EdgeID)
	if err != nil {
		return err
	}
	srcPortID, err := d.resolveSourcePort(src, c.SourcePortID)
	if err != nil {
		return err
	}
	for i := range t.Edges {
		e := &t.Edges[i]
		if e.From.PortID == srcPortID && e.IsTerminal() && e.To.Terminal == terminal {
			return fmt.Errorf("%w: %q already joins %q to %s", ErrDuplicateEdge, e.ID, srcPortID, terminal)
		}
	}
	if d.persistOnConnect {
		src.Port(srcPortID).Persistent = true
	}
	e := model.Edge{
		ID: edgeID,
		From: model.EdgeSource{
			NodeID:     src.ID,
			OutPortIdx: src.Port(srcPortID).Idx,
			PortID:     srcPortID,
		},
		To:        model.EdgeTarget{Kind: model.TargetTerminal, Terminal: terminal},
		Direction: model.EdgeUni,
		MuPolicy:  model.MuManual,
	}
	if c.Channel != nil {
		if err := applyChannel(&e, *c.Channel); err != nil {
			return err
		}
	}
	t.Edges = append(t.Edges, e)
	return nil
}

func (d *Dispatcher) edgeID(t *model.Topology, id string) (string, error) {
	if id == "" {
		return d.newID(), nil
	}
	if t.Edge(id) != nil {
		return "", fmt.Errorf("%w: edge id %q already in use", ErrInvalidCommand, id)
	}
	return id, nil
}

func (d *Dispatcher) removeEdge(t *model.Topology, c RemoveEdge) error {
	e := t.Edge(c.ID)
	if e == nil {
		return fmt.Errorf("%w: %q", ErrEdgeNotFound, c.ID)
	}
	removed := *e
	kept := t.Edges[:0]
	for _, x := range t.Edges {
		if x.ID != c.ID {
			kept = append(kept, x)
		}
	}
	t.Edges = kept
	cleanupPort(t, removed.From.NodeID, removed.From.PortID)
	if !removed.IsTerminal() {
		cleanupPort(t, removed.To.NodeID, removed.To.PortID)
	}
	return nil
}

func (d *Dispatcher) updateEdge(t *model.Topology, c UpdateEdge) error {
	e := t.Edge(c.ID)
	if e == nil {
		return fmt.Errorf("%w: %q", ErrEdgeNotFound, c.ID)
	}
	return applyChannel(e, c.ChannelParams)
}

func applyChannel(e *model.Edge, p ChannelParams) error {
	if p.Direction != nil {
		switch *p.Direction {
		case model.EdgeUni, model.EdgeBi:
			e.Direction = *p.Direction
		default:
			return fmt.Errorf("%w: unknown edge direction %q", ErrInvalidCommand, *p.Direction)
		}
	}
	if p.MuPolicy != nil {
		switch *p.MuPolicy {
		case model.MuManual, model.MuPhysics:
			e.MuPolicy = *p.MuPolicy
		default:
			return fmt.Errorf("%w: unknown mu policy %q", ErrInvalidCommand, *p.MuPolicy)
		}
	}
	set := func(dst **float64, v *float64, name string, allowZero bool) error {
		if v == nil {
			return nil
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 || (!allowZero && *v == 0) {
			return fmt.Errorf("%w: %s %g out of range", ErrInvalidCommand, name, *v)
		}
		*dst = model.Float(*v)
		return nil
	}
	if err := set(&e.Mu, p.Mu, "mu", false); err != nil {
		return err
	}
	if err := set(&e.Bandwidth, p.Bandwidth, "bandwidth", false); err != nil {
		return err
	}
	if err := set(&e.PropDelay, p.PropDelay, "propDelay", true); err != nil {
		return err
	}
	if err := set(&e.PacketSize, p.PacketSize, "packetSize", false); err != nil {
		return err
	}
	if p.Link != nil {
		if fe := validation.Struct("link", p.Link); len(fe) > 0 {
			return fmt.Errorf("%w: %v", ErrInvalidCommand, fe)
		}
		l := model.Edge{Link: p.Link}.Clone().Link
		e.Link = l
	}
	if p.Meta != nil {
		if e.Meta == nil {
			e.Meta = make(map[string]any, len(p.Meta))
		}
		for k, v := range p.Meta {
			e.Meta[k] = v
		}
	}
	return nil
}

//
// ---------- Ports ----------
//

func (d *Dispatcher) updatePort(t *model.Topology, c UpdatePort) error {
	n, err := nodeByID(t, c.NodeID)
	if err != nil {
		return err
	}
	p := n.Port(c.PortID)
	if p == nil {
		return fmt.Errorf("%w: %q on node %q", ErrPortNotFound, c.PortID, n.ID)
	}
	next := *p
	if c.Label != nil {
		next.Label = *c.Label
	}
	if c.PortName != nil {
		next.Name = *c.PortName
	}
	if c.Description != nil {
		next.Description = *c.Description
	}
	if c.QueueCapacity != nil {
		next.QueueCapacity = *c.QueueCapacity
	}
	if c.SpeedMode != nil {
		next.SpeedMode = *c.SpeedMode
	}
	if c.Mu != nil {
		next.Mu = *c.Mu
		if c.ServiceTime == nil && *c.Mu > 0 {
			next.ServiceTime = 1 / *c.Mu
		}
	}
	if c.ServiceTime != nil {
		next.ServiceTime = *c.ServiceTime
		if c.Mu == nil && *c.ServiceTime > 0 {
			next.Mu = 1 / *c.ServiceTime
		}
	}
	if c.ResourceType != nil {
		next.ResourceType = *c.ResourceType
	}
	if c.ResourceAmount != nil {
		next.ResourceAmount = *c.ResourceAmount
	}
	if c.Dist != nil {
		next.Dist = *c.Dist
	}
	if c.AutoCleanup != nil {
		next.AutoCleanup = *c.AutoCleanup
	}
	if c.Persistent != nil {
		next.Persistent = *c.Persistent
	}
	if c.Locked != nil {
		next.Locked = *c.Locked
	}
	if next.ResourceType == model.ResourceFacility && next.ResourceAmount != 1 && c.ResourceAmount != nil {
		return fmt.Errorf("%w: FACILITY ports have exactly one channel", ErrInvalidCommand)
	}
	if fe := validation.Struct("port", next); len(fe) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidCommand, fe)
	}
	NormalizePortSpeed(&next)
	*p = next
	return nil
}

//
// ---------- Simulation config ----------
//

func (d *Dispatcher) setProcessing(t *model.Topology, c SetProcessing) error {
	n, err := nodeByID(t, c.NodeID)
	if err != nil {
		return err
	}
	if !HasProcessing(n.Type) {
		return fmt.Errorf("%w: %s nodes have no processing", ErrInvalidCommand, n.Type)
	}
	p := NormalizeProcessing(&c.Processing)
	n.Data.Processing = &p
	return nil
}

func (d *Dispatcher) setGenerator(t *model.Topology, c SetGenerator) error {
	n, err := nodeByID(t, c.NodeID)
	if err != nil {
		return err
	}
	if !HasGenerator(n.Type) {
		return fmt.Errorf("%w: %s nodes have no generator", ErrInvalidCommand, n.Type)
	}
	g := NormalizeGenerator(n.Type, &c.Generator)
	if g.Target.NodeID != "" {
		target, err := nodeByID(t, g.Target.NodeID)
		if err != nil {
			return fmt.Errorf("generator target: %w", err)
		}
		if g.Target.InPortID != "" {
			p := target.Port(g.Target.InPortID)
			if p == nil {
				return fmt.Errorf("%w: %q on node %q", ErrPortNotFound, g.Target.InPortID, target.ID)
			}
			if p.Direction != model.DirIn {
				return fmt.Errorf("%w: generator target %q is not an in-port", ErrPortDirection, p.ID)
			}
		} else if g.Target.InPortIdx != nil && target.PortByIdx(model.DirIn, *g.Target.InPortIdx) == nil {
			return fmt.Errorf("%w: in-port %d on node %q", ErrPortNotFound, *g.Target.InPortIdx, target.ID)
		}
	}
	n.Data.Generator = g
	return nil
}

func (d *Dispatcher) setModelConfig(t *model.Topology, c SetModelConfig) error {
	if fe := ValidateModelConfig(c.Config); len(fe) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidCommand, fe)
	}
	t.Model = c.Config.Clone()
	return nil
}
