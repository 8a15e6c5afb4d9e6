package core

import "github.com/signalsfoundry/satnet-designer/model"

// RecomputeDerived refreshes every cached field of t from the node and
// edge lists: edge port indices, distances and labels, the peer caches on
// ports, and generator target indices. It walks the whole graph on every
// call rather than patching incrementally. A nil dist disables distance
// labels.
func RecomputeDerived(t *model.Topology, dist DistanceFunc) {
	for i := range t.Edges {
		refreshEdge(t, &t.Edges[i], dist)
	}
	refreshPorts(t)
	refreshGeneratorTargets(t)
}

func refreshEdge(t *model.Topology, e *model.Edge, dist DistanceFunc) {
	src := t.Node(e.From.NodeID)
	if src != nil {
		if p := src.Port(e.From.PortID); p != nil {
			e.From.OutPortIdx = p.Idx
		}
	}
	if e.IsTerminal() {
		return
	}
	dst := t.Node(e.To.NodeID)
	if dst != nil {
		if p := dst.Port(e.To.PortID); p != nil {
			e.To.InPortIdx = p.Idx
		}
	}
	if dist == nil || src == nil || dst == nil {
		return
	}
	if km, ok := dist(src, dst); ok {
		e.Distance = model.Float(km)
		e.Label = DistanceLabel(km)
	} else {
		e.Distance = nil
	}
}

func refreshPorts(t *model.Topology) {
	labels := make(map[string]string, len(t.Nodes))
	for i := range t.Nodes {
		labels[t.Nodes[i].ID] = t.Nodes[i].DisplayLabel()
	}
	type peer struct{ edgeID, nodeID, label string }
	peers := make(map[string]peer)
	for i := range t.Edges {
		e := &t.Edges[i]
		if _, seen := peers[e.From.PortID]; !seen && e.From.PortID != "" {
			if e.IsTerminal() {
				peers[e.From.PortID] = peer{edgeID: e.ID, label: e.To.Terminal}
			} else {
				peers[e.From.PortID] = peer{edgeID: e.ID, nodeID: e.To.NodeID, label: labels[e.To.NodeID]}
			}
		}
		if e.IsTerminal() || e.To.PortID == "" {
			continue
		}
		if _, seen := peers[e.To.PortID]; !seen {
			peers[e.To.PortID] = peer{edgeID: e.ID, nodeID: e.From.NodeID, label: labels[e.From.NodeID]}
		}
	}
	for i := range t.Nodes {
		ifaces := t.Nodes[i].Data.Interfaces
		for j := range ifaces {
			p := peers[ifaces[j].ID]
			ifaces[j].EdgeID = p.edgeID
			ifaces[j].ConnectedNodeID = p.nodeID
			ifaces[j].ConnectedNodeLabel = p.label
		}
	}
}

func refreshGeneratorTargets(t *model.Topology) {
	for i := range t.Nodes {
		g := t.Nodes[i].Data.Generator
		if g == nil || g.Target.NodeID == "" || g.Target.InPortID == "" {
			continue
		}
		target := t.Node(g.Target.NodeID)
		if target == nil {
			continue
		}
		if p := target.Port(g.Target.InPortID); p != nil {
			g.Target.InPortIdx = model.Int(p.Idx)
		} else {
			g.Target.InPortID = ""
			g.Target.InPortIdx = nil
		}
	}
}
