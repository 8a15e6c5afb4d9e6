package core

import (
	"fmt"

	"github.com/signalsfoundry/satnet-designer/model"
)

// DefaultPortDist is the service-time distribution given to new ports.
const DefaultPortDist = "exponential"

// NextPortIdx returns the index the next automatically allocated port in
// the given direction receives: one past the highest live index. Indices
// are never compacted, so existing ports keep theirs.
func NextPortIdx(n *model.Node, dir model.Direction) int {
	maxIdx := 0
	for _, p := range n.Data.Interfaces {
		if p.Direction == dir && p.Idx > maxIdx {
			maxIdx = p.Idx
		}
	}
	return maxIdx + 1
}

// NewPort builds a port with default service parameters. It does not
// attach the port to n.
func NewPort(n *model.Node, dir model.Direction, id string) model.Port {
	idx := NextPortIdx(n, dir)
	name := "Incoming interface"
	if dir == model.DirOut {
		name = "Outgoing interface"
	}
	return model.Port{
		ID:             id,
		NodeID:         n.ID,
		Direction:      dir,
		Idx:            idx,
		Label:          fmt.Sprintf("%s-%d", dir, idx),
		Name:           fmt.Sprintf("%s %d", name, idx),
		QueueCapacity:  0,
		SpeedMode:      model.SpeedModeRate,
		Mu:             1,
		ServiceTime:    1,
		ResourceType:   model.ResourceFacility,
		ResourceAmount: 1,
		Dist:           DefaultPortDist,
	}
}

// addPort allocates a new port on n and returns its ID.
func (d *Dispatcher) addPort(n *model.Node, dir model.Direction) string {
	p := NewPort(n, dir, d.newID())
	n.Data.Interfaces = append(n.Data.Interfaces, p)
	return p.ID
}

// portReferenced reports whether any edge in t uses portID as an endpoint.
func portReferenced(t *model.Topology, portID string) bool {
	for i := range t.Edges {
		if t.Edges[i].References(portID) {
			return true
		}
	}
	return false
}

// resolveSourcePort returns the ID of the out-port on n that a new edge
// leaves from. An empty portID allocates a fresh out-port.
func (d *Dispatcher) resolveSourcePort(n *model.Node, portID string) (string, error) {
	if portID == "" {
		return d.addPort(n, model.DirOut), nil
	}
	p := n.Port(portID)
	if p == nil {
		return "", fmt.Errorf("%w: %q on node %q", ErrPortNotFound, portID, n.ID)
	}
	if p.Direction != model.DirOut {
		return "", fmt.Errorf("%w: source port %q is %q, want %q", ErrPortDirection, portID, p.Direction, model.DirOut)
	}
	return p.ID, nil
}

// resolveTargetPort returns the ID of the in-port on n that a new edge
// enters. An empty portID picks the lowest-indexed free in-port, or
// allocates a new one when every in-port is taken.
func (d *Dispatcher) resolveTargetPort(t *model.Topology, n *model.Node, portID string) (string, error) {
	if portID != "" {
		p := n.Port(portID)
		if p == nil {
			return "", fmt.Errorf("%w: %q on node %q", ErrPortNotFound, portID, n.ID)
		}
		if p.Direction != model.DirIn {
			return "", fmt.Errorf("%w: target port %q is %q, want %q", ErrPortDirection, portID, p.Direction, model.DirIn)
		}
		return p.ID, nil
	}
	for _, p := range n.InPorts() {
		if !portReferenced(t, p.ID) {
			return p.ID, nil
		}
	}
	return d.addPort(n, model.DirIn), nil
}

// Reclaimable reports whether p may be deleted once no edge references it.
// Locked ports are never reclaimed. Persistent ports are kept unless they
// opted into AutoCleanup.
func Reclaimable(p model.Port) bool {
	if p.Locked {
		return false
	}
	return !p.Persistent || p.AutoCleanup
}

// cleanupPort deletes the port portID from node nodeID when it is no longer
// referenced by any edge and Reclaimable allows it. It reports whether the
// port was removed.
func cleanupPort(t *model.Topology, nodeID, portID string) bool {
	if portID == "" {
		return false
	}
	n := t.Node(nodeID)
	if n == nil {
		return false
	}
	p := n.Port(portID)
	if p == nil || portReferenced(t, portID) || !Reclaimable(*p) {
		return false
	}
	kept := n.Data.Interfaces[:0]
	for _, q := range n.Data.Interfaces {
		if q.ID != portID {
			kept = append(kept, q)
		}
	}
	n.Data.Interfaces = kept
	return true
}
