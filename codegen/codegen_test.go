package codegen

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/satnet-designer/core"
	"github.com/signalsfoundry/satnet-designer/model"
)

func newDispatcher() *core.Dispatcher {
	n := 0
	return core.NewDispatcher(core.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))
}

// chain builds AS -> SC -> ES -> SSOP -> to_internet with single-rule
// routing on the processing nodes.
func chain(t *testing.T) model.Topology {
	t.Helper()
	d := newDispatcher()
	single := model.NodeProcessing{ServiceLines: 2, Mu: 3, Dist: "exponential", RoutingTable: []model.RoutingRule{{Type: 1, OutPort: 1}}}
	topo, err := d.ApplyAll(model.Topology{Model: core.DefaultModelConfig("chain")},
		core.AddNode{ID: "as", Type: model.NodeTypeAS},
		core.AddNode{ID: "sat", Type: model.NodeTypeSC},
		core.AddNode{ID: "es", Type: model.NodeTypeES},
		core.AddNode{ID: "gw", Type: model.NodeTypeSSOP},
		core.Connect{EdgeID: "e1", SourceNodeID: "as", TargetNodeID: "sat"},
		core.Connect{EdgeID: "e2", SourceNodeID: "sat", TargetNodeID: "es"},
		core.Connect{EdgeID: "e3", SourceNodeID: "es", TargetNodeID: "gw"},
		core.ConnectTerminal{EdgeID: "e4", SourceNodeID: "gw", Terminal: "to_internet"},
		core.SetProcessing{NodeID: "sat", Processing: single},
		core.SetProcessing{NodeID: "es", Processing: single},
	)
	require.NoError(t, err)
	return topo
}

func generate(t *testing.T, topo model.Topology) (string, layout) {
	t.Helper()
	res, err := New().Generate(context.Background(), topo, Options{})
	require.NoError(t, err)
	return res.Code, newLayout(&topo)
}

func TestGenerateChain(t *testing.T) {
	code, l := generate(t, chain(t))

	assert.True(t, strings.HasPrefix(code, l.header("[Model settings 1]")+"\n\n"))
	assert.True(t, strings.HasSuffix(code, l.rule()+"\n"))

	for _, want := range []string{
		l.row("capacity", "VARIABLE", "(DUNIFORM(1,64,1500))"),

		// generator
		l.row("la_gen_as", "EQU", "1"),
		l.row("", "GENERATE", "(Exponential(1,0,1/la_gen_as))"),
		l.row("", "ASSIGN", "cap_data,(V$capacity)"),
		l.row("", "ASSIGN", "type_data,1"),
		l.row("", "SPLIT", "(P$cap_data/1500),in_int1_sat"),

		// processing node
		l.row("service_sat", "STORAGE", "2"),
		l.row("mu_sat", "EQU", "3"),
		l.row("mu_in_int1_sat", "EQU", "1"),
		l.row("in_int1_sat", "ASSIGN", "number_in_int_SC,1"),
		l.row("", "SEIZE", "service_in_int1_sat"),
		l.row("", "ADVANCE", "(Exponential(1,0,1/mu_in_int1_sat))"),
		l.row("", "TRANSFER", ",processing_sat"),
		l.row("processing_sat", "QUEUE", "queue_sat"),
		l.row("", "ENTER", "service_sat,1"),
		l.row("", "TEST NE", "P$type_data,1,route_sat_1"),
		l.row("", "SAVEVALUE", "unrouted_sat+,1"),
		l.row("route_sat_1", "TRANSFER", ",out_int1_sat"),
		l.row("out_int1_sat", "ASSIGN", "number_out_int_SC,1"),
		l.row("", "TRANSFER", ",in_int1_es"),

		// gateway and terminal
		l.row("in_int1_gw", "TERMINATE", ""),
		l.row("", "SPLIT", "(P$cap_data/1500),to_internet"),
		l.header("[Terminals]"),
		l.row("to_internet", "TERMINATE", ""),

		l.header("[Model settings 2]"),
		l.row("", "GENERATE", "1000"),
		l.row("", "TERMINATE", "1"),
		l.row("", "START", "1"),
	} {
		assert.Contains(t, code, want)
	}

	assert.NotContains(t, code, "TEST L", "unbounded queues need no overflow test")
	assert.NotContains(t, code, "[Generation info]")
	assert.Contains(t, code, "[Spacecraft with onboard processing | sat")
	assert.Contains(t, code, "[SSOP gateway | gw")
	assert.Less(t, strings.Index(code, "[Terminals]"), strings.Index(code, "[Model settings 2]"))
}

func TestGenerateBoundedQueuesAndStorage(t *testing.T) {
	topo := chain(t)
	sat := topo.Node("sat")
	in := sat.InPorts()[0]
	d := newDispatcher()
	topo, err := d.ApplyAll(topo,
		core.UpdatePort{NodeID: "sat", PortID: in.ID, QueueCapacity: ptr(5), ResourceType: ptr(model.ResourceStorage), ResourceAmount: ptr(3)},
		core.SetProcessing{NodeID: "sat", Processing: model.NodeProcessing{ServiceLines: 1, Queue: 10, Mu: 2, RoutingTable: []model.RoutingRule{{Type: 1, OutPort: 1}, {Type: 2, OutPort: 1}}}},
	)
	require.NoError(t, err)

	code, l := generate(t, topo)
	for _, want := range []string{
		l.row("q_in_int1_sat", "EQU", "5"),
		l.row("service_in_int1_sat", "STORAGE", "3"),
		l.row("", "TEST L", "Q$queue_in_int1_sat,q_in_int1_sat,loss_in_int1_sat"),
		l.row("", "ENTER", "service_in_int1_sat,1"),
		l.row("", "LEAVE", "service_in_int1_sat,1"),
		l.row("loss_in_int1_sat", "SAVEVALUE", "loss_in_int1_sat+,1"),
		l.row("q_sat", "EQU", "10"),
		l.row("processing_sat", "TEST L", "Q$queue_sat,q_sat,loss_sat"),
		l.row("loss_sat", "SAVEVALUE", "loss_sat+,1"),
		l.row("", "TEST NE", "P$type_data,2,route_sat_1"),
	} {
		assert.Contains(t, code, want)
	}
	assert.Equal(t, 1, strings.Count(code, "route_sat_1 "), "one transfer block per routed port")
}

func TestGenerateCustomCapacityAndChannelRate(t *testing.T) {
	topo := chain(t)
	d := newDispatcher()
	topo, err := d.ApplyAll(topo,
		core.SetGenerator{NodeID: "as", Generator: model.GeneratorConfig{
			Lambda:         2.5,
			TypeData:       1,
			CapacitySource: model.CapacityCustom,
			CustomCapacity: model.Float(4096),
			Target:         model.GeneratorTarget{NodeID: "sat"},
		}},
		core.UpdateEdge{ID: "e2", ChannelParams: core.ChannelParams{Mu: model.Float(7)}},
	)
	require.NoError(t, err)

	code, l := generate(t, topo)
	assert.Contains(t, code, l.row("la_gen_as", "EQU", "2.5"))
	assert.Contains(t, code, l.row("capacity_as", "VARIABLE", "4096"))
	assert.Contains(t, code, l.row("", "ASSIGN", "cap_data,(V$capacity_as)"))
	assert.Contains(t, code, l.row("mu_out_int1_sat", "EQU", "7"))
}

func TestGenerateGenerationInfo(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{t0, t0.Add(1500 * time.Millisecond)}
	var observed time.Duration

	g := New(
		WithClock(func() time.Time {
			now := times[0]
			times = times[1:]
			return now
		}),
		WithDurationObserver(func(d time.Duration) { observed = d }),
	)
	topo := chain(t)
	res, err := g.Generate(context.Background(), topo, Options{IncludeGenerationInfo: true})
	require.NoError(t, err)

	l := newLayout(&topo)
	assert.Equal(t, 1.5, res.GenTime)
	assert.Equal(t, t0.Add(1500*time.Millisecond), res.GenDate)
	assert.Equal(t, 1500*time.Millisecond, observed)
	assert.True(t, strings.HasPrefix(res.Code, l.header("[Generation info]")))
	assert.Contains(t, res.Code, "* Generated at: 2026-03-01T12:00:01Z")
	assert.Contains(t, res.Code, "* Generation time: 1.500000 s")
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T) model.Topology
		want  error
	}{
		{
			name:  "empty",
			build: func(*testing.T) model.Topology { return model.Topology{Model: core.DefaultModelConfig("x")} },
			want:  ErrEmptyTopology,
		},
		{
			name: "default routing points at a missing out-port",
			build: func(t *testing.T) model.Topology {
				topo := chain(t)
				topo.Node("sat").Data.Processing.RoutingTable = core.DefaultRouting()
				return topo
			},
			want: ErrUnroutedPort,
		},
		{
			name: "lone generator",
			build: func(t *testing.T) model.Topology {
				topo, err := newDispatcher().Apply(model.Topology{Model: core.DefaultModelConfig("x")}, core.AddNode{ID: "as", Type: model.NodeTypeAS})
				require.NoError(t, err)
				return topo
			},
			want: ErrUnconnectedPort,
		},
		{
			name: "generator target without a channel",
			build: func(t *testing.T) model.Topology {
				topo := chain(t)
				topo.Node("as").Data.Generator.Target.NodeID = "es"
				return topo
			},
			want: ErrUnconnectedPort,
		},
		{
			name: "dangling edge",
			build: func(t *testing.T) model.Topology {
				topo := chain(t)
				topo.Edge("e2").To.PortID = "gone"
				return topo
			},
			want: ErrUnconnectedPort,
		},
		{
			name: "missing processing",
			build: func(t *testing.T) model.Topology {
				topo := chain(t)
				topo.Node("es").Data.Processing = nil
				return topo
			},
			want: ErrMissingConfig,
		},
		{
			name: "missing generator",
			build: func(t *testing.T) model.Topology {
				topo := chain(t)
				topo.Node("gw").Data.Generator = nil
				return topo
			},
			want: ErrMissingConfig,
		},
		{
			name: "unknown type",
			build: func(t *testing.T) model.Topology {
				topo := chain(t)
				topo.Node("es").Type = "UFO"
				return topo
			},
			want: ErrUnknownNodeType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var observed bool
			g := New(WithDurationObserver(func(time.Duration) { observed = true }))
			_, err := g.Generate(context.Background(), tt.build(t), Options{})
			require.ErrorIs(t, err, tt.want)
			assert.False(t, observed)
		})
	}
}

func TestLayout(t *testing.T) {
	l := layout{margin: 5, width: 10}
	assert.Equal(t, "*===abc====*", l.header("abc"))
	assert.Equal(t, "*"+strings.Repeat("=", 10)+"*", l.rule())
	assert.Equal(t, "lbl   TERMINATE", l.row("lbl", "TERMINATE", ""))
	assert.Equal(t, "      EQU       1", l.row("", "EQU", "1"))
	assert.Equal(t, "*abcdefghijkl*", l.header("abcdefghijkl"))
}

func TestIdentAndDistFunc(t *testing.T) {
	assert.Equal(t, "a_b_c", ident("a-b c"))
	assert.Equal(t, "node_42", ident("node_42"))
	assert.Equal(t, "_", ident(""))
	assert.Equal(t, "Exponential", distFunc("exponential", "erlang"))
	assert.Equal(t, "Erlang", distFunc("  ", "erlang"))
	assert.Equal(t, "in_int3_a_b", baseLabel("a.b", model.DirIn, 3))
}

func TestEncode(t *testing.T) {
	out, err := Encode("* Модель", EncodingCP1251)
	require.NoError(t, err)
	assert.Equal(t, []byte{'*', ' ', 0xCC, 0xEE, 0xE4, 0xE5, 0xEB, 0xFC}, out)

	out, err = Encode("* Модель", "UTF-8")
	require.NoError(t, err)
	assert.Equal(t, "* Модель", string(out))

	_, err = Encode("☃", EncodingCP1251)
	assert.ErrorIs(t, err, ErrUnencodable)
	_, err = Encode("x", "latin1")
	assert.ErrorIs(t, err, ErrUnsupportedEncoding)
}

func ptr[T any](v T) *T { return &v }
