package core

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"

	"github.com/signalsfoundry/satnet-designer/model"
)

// DefaultProcessingDist is the service-time distribution used when none
// is configured.
const DefaultProcessingDist = "exponential"

// HasProcessing reports whether nodes of type t carry a NodeProcessing
// block. Exactly one of HasProcessing and HasGenerator holds for every
// valid type.
func HasProcessing(t model.NodeType) bool {
	switch t {
	case model.NodeTypeSC, model.NodeTypeHAPS, model.NodeTypeES:
		return true
	case model.NodeTypeAS, model.NodeTypeSSOP:
		return false
	}
	return false
}

// HasGenerator reports whether nodes of type t carry a GeneratorConfig.
func HasGenerator(t model.NodeType) bool {
	switch t {
	case model.NodeTypeAS, model.NodeTypeSSOP:
		return true
	case model.NodeTypeSC, model.NodeTypeHAPS, model.NodeTypeES:
		return false
	}
	return false
}

// DefaultRouting returns the two-rule routing table {1->1, 2->2}.
func DefaultRouting() []model.RoutingRule {
	return []model.RoutingRule{
		{Type: 1, OutPort: 1},
		{Type: 2, OutPort: 2},
	}
}

// DefaultProcessing returns a fresh processing block with default values.
func DefaultProcessing() model.NodeProcessing {
	return model.NodeProcessing{
		ServiceLines: 1,
		Queue:        0,
		Mu:           1,
		Dist:         DefaultProcessingDist,
		RoutingTable: DefaultRouting(),
	}
}

// atLeast returns v, or fallback when v is below floor.
func atLeast[T constraints.Integer | constraints.Float](v, floor, fallback T) T {
	if v < floor {
		return fallback
	}
	return v
}

// NormalizeRouting clamps every rule to positive type and port numbers.
// An empty table is replaced by DefaultRouting.
func NormalizeRouting(rules []model.RoutingRule) []model.RoutingRule {
	if len(rules) == 0 {
		return DefaultRouting()
	}
	out := make([]model.RoutingRule, len(rules))
	for i, r := range rules {
		out[i] = model.RoutingRule{
			Type:    max(1, r.Type),
			OutPort: max(1, r.OutPort),
		}
	}
	return out
}

// NormalizeProcessing returns a copy of p with every field brought into
// range. A nil p yields DefaultProcessing. It is idempotent.
func NormalizeProcessing(p *model.NodeProcessing) model.NodeProcessing {
	def := DefaultProcessing()
	if p == nil {
		return def
	}
	mu := p.Mu
	if math.IsNaN(mu) || math.IsInf(mu, 0) || mu <= 0 {
		mu = def.Mu
	}
	dist := strings.TrimSpace(p.Dist)
	if dist == "" {
		dist = def.Dist
	}
	return model.NodeProcessing{
		ServiceLines: atLeast(p.ServiceLines, 1, def.ServiceLines),
		Queue:        atLeast(p.Queue, 0, def.Queue),
		Mu:           mu,
		Dist:         dist,
		RoutingTable: NormalizeRouting(p.RoutingTable),
	}
}

// DefaultGenerator returns the default generator for t, or nil when t
// does not generate traffic.
func DefaultGenerator(t model.NodeType) *model.GeneratorConfig {
	var typeData int
	switch t {
	case model.NodeTypeAS:
		typeData = 1
	case model.NodeTypeSSOP:
		typeData = 2
	default:
		return nil
	}
	return &model.GeneratorConfig{
		Lambda:         1,
		TypeData:       typeData,
		CapacitySource: model.CapacityGlobal,
	}
}

// NormalizeGenerator returns a copy of g brought into range for a node of
// type t. A nil g yields DefaultGenerator(t). It returns nil when t does
// not generate traffic.
func NormalizeGenerator(t model.NodeType, g *model.GeneratorConfig) *model.GeneratorConfig {
	def := DefaultGenerator(t)
	if def == nil || g == nil {
		return def
	}
	out := *g
	if math.IsNaN(out.Lambda) || math.IsInf(out.Lambda, 0) || out.Lambda <= 0 {
		out.Lambda = def.Lambda
	}
	out.TypeData = atLeast(out.TypeData, 1, def.TypeData)
	switch out.CapacitySource {
	case model.CapacityCustom:
		if out.CustomCapacity == nil || *out.CustomCapacity <= 0 {
			out.CapacitySource = model.CapacityGlobal
			out.CustomCapacity = nil
		} else {
			out.CustomCapacity = model.Float(*out.CustomCapacity)
		}
	default:
		out.CapacitySource = model.CapacityGlobal
		out.CustomCapacity = nil
	}
	if out.Target.InPortIdx != nil {
		if *out.Target.InPortIdx < 1 {
			out.Target.InPortIdx = nil
		} else {
			out.Target.InPortIdx = model.Int(*out.Target.InPortIdx)
		}
	}
	return &out
}

// CodePrefix returns the node-code prefix for t, or "" when nodes of that
// type are not coded.
func CodePrefix(t model.NodeType) string {
	switch t {
	case model.NodeTypeSC:
		return "SC"
	case model.NodeTypeHAPS:
		return "HAPS"
	case model.NodeTypeES:
		return "ES"
	}
	return ""
}

// GenerateNodeCode returns the prefix for t followed by the smallest
// positive suffix not already used by a node code with that prefix. It
// returns "" for types without a prefix.
func GenerateNodeCode(t model.NodeType, nodes []model.Node) string {
	prefix := CodePrefix(t)
	if prefix == "" {
		return ""
	}
	used := make(map[int]struct{})
	for i := range nodes {
		code := nodes[i].Data.Code
		if !strings.HasPrefix(code, prefix) {
			continue
		}
		suffix, err := strconv.Atoi(code[len(prefix):])
		if err != nil {
			continue
		}
		used[suffix] = struct{}{}
	}
	idx := 1
	for {
		if _, ok := used[idx]; !ok {
			break
		}
		idx++
	}
	return prefix + strconv.Itoa(idx)
}
