package core

import (
	"math"
	"reflect"
	"testing"

	"github.com/signalsfoundry/satnet-designer/model"
)

func TestProcessingXorGenerator(t *testing.T) {
	for _, typ := range model.NodeTypes {
		if HasProcessing(typ) == HasGenerator(typ) {
			t.Errorf("%s: HasProcessing=%v HasGenerator=%v, want exactly one", typ, HasProcessing(typ), HasGenerator(typ))
		}
	}
}

func TestDefaultProcessing(t *testing.T) {
	p := DefaultProcessing()
	if p.ServiceLines != 1 || p.Queue != 0 || p.Mu != 1 {
		t.Errorf("unexpected defaults %+v", p)
	}
	want := []model.RoutingRule{{Type: 1, OutPort: 1}, {Type: 2, OutPort: 2}}
	if !reflect.DeepEqual(p.RoutingTable, want) {
		t.Errorf("expected default routing %v, got %v", want, p.RoutingTable)
	}
}

func TestNormalizeProcessing(t *testing.T) {
	tests := []struct {
		name string
		in   *model.NodeProcessing
		want model.NodeProcessing
	}{
		{
			name: "nil",
			in:   nil,
			want: DefaultProcessing(),
		},
		{
			name: "clamps floors",
			in:   &model.NodeProcessing{ServiceLines: -2, Queue: -1, Mu: 0, Dist: " "},
			want: DefaultProcessing(),
		},
		{
			name: "keeps valid values",
			in: &model.NodeProcessing{
				ServiceLines: 4, Queue: 10, Mu: 2.5, Dist: "erlang",
				RoutingTable: []model.RoutingRule{{Type: 3, OutPort: 1}},
			},
			want: model.NodeProcessing{
				ServiceLines: 4, Queue: 10, Mu: 2.5, Dist: "erlang",
				RoutingTable: []model.RoutingRule{{Type: 3, OutPort: 1}},
			},
		},
		{
			name: "repairs malformed rules",
			in: &model.NodeProcessing{
				ServiceLines: 1, Mu: math.Inf(1),
				RoutingTable: []model.RoutingRule{{Type: 0, OutPort: -4}},
			},
			want: model.NodeProcessing{
				ServiceLines: 1, Mu: 1, Dist: DefaultProcessingDist,
				RoutingTable: []model.RoutingRule{{Type: 1, OutPort: 1}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeProcessing(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("NormalizeProcessing() = %+v, want %+v", got, tt.want)
			}
			again := NormalizeProcessing(&got)
			if !reflect.DeepEqual(again, got) {
				t.Errorf("not idempotent: %+v -> %+v", got, again)
			}
		})
	}
}

func TestNormalizeGenerator(t *testing.T) {
	if g := NormalizeGenerator(model.NodeTypeSC, &model.GeneratorConfig{Lambda: 3}); g != nil {
		t.Errorf("expected nil generator for SC, got %+v", g)
	}
	g := NormalizeGenerator(model.NodeTypeSSOP, &model.GeneratorConfig{
		Lambda:         -1,
		TypeData:       0,
		CapacitySource: model.CapacityCustom,
		Target:         model.GeneratorTarget{NodeID: "es", InPortIdx: model.Int(0)},
	})
	if g.Lambda != 1 || g.TypeData != 2 {
		t.Errorf("expected defaults lambda=1 typeData=2, got %+v", *g)
	}
	if g.CapacitySource != model.CapacityGlobal || g.CustomCapacity != nil {
		t.Errorf("custom source without a value must fall back to global, got %+v", *g)
	}
	if g.Target.InPortIdx != nil || g.Target.NodeID != "es" {
		t.Errorf("expected invalid index dropped and node kept, got %+v", g.Target)
	}
}

func TestGenerateNodeCode(t *testing.T) {
	nodes := []model.Node{
		{Type: model.NodeTypeSC, Data: model.NodeData{Code: "SC1"}},
		{Type: model.NodeTypeSC, Data: model.NodeData{Code: "SC3"}},
		{Type: model.NodeTypeHAPS, Data: model.NodeData{Code: "HAPS1"}},
		{Type: model.NodeTypeES, Data: model.NodeData{Code: "ESx"}},
	}
	tests := []struct {
		typ  model.NodeType
		want string
	}{
		{model.NodeTypeSC, "SC2"},
		{model.NodeTypeHAPS, "HAPS2"},
		{model.NodeTypeES, "ES1"},
		{model.NodeTypeAS, ""},
		{model.NodeTypeSSOP, ""},
	}
	for _, tt := range tests {
		if got := GenerateNodeCode(tt.typ, nodes); got != tt.want {
			t.Errorf("GenerateNodeCode(%s) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestAddNodeFillsCodeGap(t *testing.T) {
	d := newTestDispatcher()
	topo := withNodes(t, d, emptyTopology(),
		"s1", model.NodeTypeSC, "s2", model.NodeTypeSC, "s3", model.NodeTypeSC)
	topo = mustApply(t, d, topo, RemoveNode{ID: "s2"})
	topo = mustApply(t, d, topo, AddNode{ID: "s4", Type: model.NodeTypeSC})
	if got := topo.Node("s4").Data.Code; got != "SC2" {
		t.Errorf("expected SC2, got %q", got)
	}
}
