package core

import (
	"strings"
	"testing"

	"github.com/signalsfoundry/satnet-designer/gpss"
	"github.com/signalsfoundry/satnet-designer/model"
)

func TestValidateTopologyAcceptsBuiltGraph(t *testing.T) {
	if fe := ValidateTopology(sampleTopology(t)); fe != nil {
		t.Fatalf("expected valid topology, got %v", fe)
	}
}

func TestValidateTopologyCollectsEveryProblem(t *testing.T) {
	topo := sampleTopology(t)

	sat := topo.Node("sat")
	sat.Data.Interfaces[1].Idx = sat.Data.Interfaces[0].Idx
	sat.Data.Interfaces[1].Direction = sat.Data.Interfaces[0].Direction
	sat.Data.Altitude = model.Float(5)

	as := topo.Node("as")
	as.Data.Generator.Target.NodeID = "ghost"
	as.Data.Generator.CapacitySource = model.CapacityCustom

	topo.Edges = append(topo.Edges, model.Edge{
		ID:   "bad",
		From: model.EdgeSource{NodeID: "es", PortID: "nope"},
		To:   model.EdgeTarget{Kind: model.TargetNode, NodeID: "as", PortID: "nope"},
	})
	topo.Model.Sim.Duration = -1

	fe := ValidateTopology(topo)
	want := []string{
		"model.sim.duration",
		"nodes[1].data.interfaces[1].idx",
		"nodes[1].data.altitude",
		"nodes[0].data.generator.target.nodeId",
		"nodes[0].data.generator.customCapacity",
		"edges[4].from.portId",
		"edges[4].to.portId",
		"edges[4]",
	}
	for _, k := range want {
		if _, ok := fe[k]; !ok {
			t.Errorf("expected error for %s, got %v", k, fe.Fields())
		}
	}
	if !strings.Contains(fe["edges[4]"], ErrConnectionNotAllowed.Error()) {
		t.Errorf("expected ES -> AS to be flagged, got %q", fe["edges[4]"])
	}
}

func TestValidateTopologyDuplicates(t *testing.T) {
	topo := sampleTopology(t)
	dup := topo.Edges[0]
	topo.Edges = append(topo.Edges, dup)
	topo.Nodes = append(topo.Nodes, topo.Nodes[0].Clone())

	fe := ValidateTopology(topo)
	if _, ok := fe["edges[4].id"]; !ok {
		t.Errorf("expected duplicate edge id, got %v", fe.Fields())
	}
	if !strings.Contains(fe["edges[4]"], ErrDuplicateEdge.Error()) {
		t.Errorf("expected duplicate port pair, got %q", fe["edges[4]"])
	}
	if _, ok := fe["nodes[4].id"]; !ok {
		t.Errorf("expected duplicate node id, got %v", fe.Fields())
	}
}

func TestValidateModelConfig(t *testing.T) {
	if fe := ValidateModelConfig(DefaultModelConfig("m")); fe != nil {
		t.Fatalf("default config invalid: %v", fe)
	}

	m := DefaultModelConfig("")
	m.Packet.MTU = 0
	m.Time.Unit = "fortnights"
	m.Traffic.Capacity.Params = map[string]float64{"rn": 1, "min": 1, "lambda": 3}
	fe := ValidateModelConfig(m)
	for _, k := range []string{"model.id", "packet.mtu", "time.unit", "traffic.capacity.params.max", "traffic.capacity.params.lambda"} {
		if _, ok := fe[k]; !ok {
			t.Errorf("expected error for %s, got %v", k, fe.Fields())
		}
	}

	m = DefaultModelConfig("m")
	m.Traffic.Capacity.Dist = "weibull"
	if _, ok := ValidateModelConfig(m)["traffic.capacity.dist"]; !ok {
		t.Errorf("expected unknown distribution to be flagged")
	}
}

func TestValidateDocumentKeepsResultsApart(t *testing.T) {
	topo := sampleTopology(t)

	res := ValidateDocument(NewDocument(topo, nil))
	if res.Topology != nil {
		t.Errorf("expected valid topology, got %v", res.Topology)
	}
	if _, ok := res.GPSS["gpss"]; !ok {
		t.Errorf("expected missing gpss to be reported, got %v", res.GPSS)
	}

	cfg := gpss.Default()
	cfg.ExperimentControl.Horizon = "100"
	cfg.TrafficCharacteristics.DataVolumeParameters = map[string]string{"rn": "1", "min": "64", "max": "1500"}
	res = ValidateDocument(NewDocument(topo, &cfg))
	if !res.Valid() {
		t.Fatalf("expected valid document, got %v", res)
	}

	topo.Model.Packet.MTU = 0
	cfg.ExperimentControl.Horizon = ""
	res = ValidateDocument(NewDocument(topo, &cfg))
	if _, ok := res.Topology["model.packet.mtu"]; !ok {
		t.Errorf("expected topology error, got %v", res.Topology)
	}
	if _, ok := res.GPSS["experimentControl.horizon"]; !ok {
		t.Errorf("expected gpss error, got %v", res.GPSS)
	}
	if _, mixed := res.Topology["experimentControl.horizon"]; mixed {
		t.Errorf("gpss errors leaked into topology results")
	}
	if !strings.Contains(res.Error(), "topology: ") || !strings.Contains(res.Error(), "gpss: ") {
		t.Errorf("unexpected error text %q", res.Error())
	}
}
