package main

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/satnet-designer/core"
	"github.com/signalsfoundry/satnet-designer/gpss"
	"github.com/signalsfoundry/satnet-designer/internal/logging"
	"github.com/signalsfoundry/satnet-designer/internal/session"
	"github.com/signalsfoundry/satnet-designer/model"
)

// demoDocument builds a small two-cluster constellation through the same
// command path an editor uses:
//
//	as-moscow -> sat-1 -> sat-2 -> es-1 -> gw -> to_internet
//	as-kazan  -> haps-1 ----------^
func demoDocument(ctx context.Context, cfg model.ModelConfig, log logging.Logger) (core.Document, error) {
	s := session.New(core.NewDocument(model.Topology{Model: cfg}, nil), session.WithLogger(log))

	uplink := []model.RoutingRule{{Type: 1, OutPort: 1}, {Type: 2, OutPort: 1}}
	processing := func(lines int, mu float64) model.NodeProcessing {
		return model.NodeProcessing{ServiceLines: lines, Queue: 50, Mu: mu, Dist: core.DefaultProcessingDist, RoutingTable: uplink}
	}
	physics := model.MuPhysics

	_, err := s.Apply(ctx,
		core.AddNode{ID: "as-moscow", Type: model.NodeTypeAS, Label: "Moscow subscribers", Lat: model.Float(55.75), Lon: model.Float(37.62)},
		core.AddNode{ID: "as-kazan", Type: model.NodeTypeAS, Label: "Kazan subscribers", Lat: model.Float(55.79), Lon: model.Float(49.12)},
		core.AddNode{ID: "sat-1", Type: model.NodeTypeSC, Label: "LEO plane A #1", Orbit: model.OrbitLEO, Lat: model.Float(54), Lon: model.Float(40)},
		core.AddNode{ID: "sat-2", Type: model.NodeTypeSC, Label: "LEO plane A #2", Orbit: model.OrbitLEO, Lat: model.Float(50), Lon: model.Float(45)},
		core.AddNode{ID: "haps-1", Type: model.NodeTypeHAPS, Label: "Volga HAPS", Lat: model.Float(55.5), Lon: model.Float(47)},
		core.AddNode{ID: "es-1", Type: model.NodeTypeES, Label: "Samara earth station", Lat: model.Float(53.2), Lon: model.Float(50.15)},
		core.AddNode{ID: "gw", Type: model.NodeTypeSSOP, Label: "Core gateway", Lat: model.Float(53.3), Lon: model.Float(50.3)},

		core.Connect{EdgeID: "up-moscow", SourceNodeID: "as-moscow", TargetNodeID: "sat-1"},
		core.Connect{EdgeID: "isl-1-2", SourceNodeID: "sat-1", TargetNodeID: "sat-2", Channel: &core.ChannelParams{
			MuPolicy:   &physics,
			Bandwidth:  model.Float(1.25e8),
			PropDelay:  model.Float(0.0045),
			PacketSize: model.Float(1500),
		}},
		core.Connect{EdgeID: "down-sat-2", SourceNodeID: "sat-2", TargetNodeID: "es-1"},
		core.Connect{EdgeID: "up-kazan", SourceNodeID: "as-kazan", TargetNodeID: "haps-1"},
		core.Connect{EdgeID: "down-haps-1", SourceNodeID: "haps-1", TargetNodeID: "es-1"},
		core.Connect{EdgeID: "backhaul", SourceNodeID: "es-1", TargetNodeID: "gw"},
		core.ConnectTerminal{EdgeID: "internet", SourceNodeID: "gw", Terminal: "to_internet"},

		core.SetProcessing{NodeID: "sat-1", Processing: processing(4, 20)},
		core.SetProcessing{NodeID: "sat-2", Processing: processing(4, 20)},
		core.SetProcessing{NodeID: "haps-1", Processing: processing(2, 10)},
		core.SetProcessing{NodeID: "es-1", Processing: processing(8, 50)},
		core.SetGenerator{NodeID: "as-moscow", Generator: model.GeneratorConfig{
			Lambda: 2, TypeData: 1, CapacitySource: model.CapacityGlobal,
			Target: model.GeneratorTarget{NodeID: "sat-1"},
		}},
		core.SetGenerator{NodeID: "as-kazan", Generator: model.GeneratorConfig{
			Lambda: 0.5, TypeData: 2, CapacitySource: model.CapacityCustom, CustomCapacity: model.Float(512),
			Target: model.GeneratorTarget{NodeID: "haps-1"},
		}},
	)
	if err != nil {
		return core.Document{}, fmt.Errorf("build demo: %w", err)
	}

	g := gpss.Default()
	g.ExperimentControl.Horizon = fmt.Sprint(cfg.Sim.Duration)
	g.ExperimentControl.Replications = "1"
	g.TrafficCharacteristics.MTU = fmt.Sprint(cfg.Packet.MTU)
	g.TrafficCharacteristics.DataVolumeParameters = map[string]string{"rn": "1", "min": "64", "max": "1500"}
	s.SetGPSS(ctx, g)
	return s.Document(), nil
}
