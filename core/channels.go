package core

import (
	"math"

	"github.com/signalsfoundry/satnet-designer/model"
)

// EstimateServiceRate derives a channel service rate from its physical
// parameters: mu = 1 / (propDelay + packetSize/bandwidth). Bandwidth is in
// bytes per second, packet size in bytes and delay in seconds. A missing
// or negative delay counts as zero. ok is false when bandwidth or packet
// size is missing or not positive.
func EstimateServiceRate(bandwidth, packetSize, propDelay *float64) (float64, bool) {
	if bandwidth == nil || *bandwidth <= 0 || packetSize == nil || *packetSize <= 0 {
		return 0, false
	}
	delay := 0.0
	if propDelay != nil && *propDelay >= 0 {
		delay = *propDelay
	}
	st := delay + *packetSize / *bandwidth
	if st <= 0 || math.IsInf(st, 0) || math.IsNaN(st) {
		return 0, false
	}
	return 1 / st, true
}

// EffectiveMu returns the service rate an edge runs at under its mu
// policy. Physics policy falls back to the manual value when the physical
// parameters are incomplete.
func EffectiveMu(e *model.Edge) (float64, bool) {
	if e.MuPolicy == model.MuPhysics {
		if mu, ok := EstimateServiceRate(e.Bandwidth, e.PacketSize, e.PropDelay); ok {
			return mu, true
		}
	}
	if e.Mu != nil && *e.Mu > 0 {
		return *e.Mu, true
	}
	return 0, false
}

// ConvertLegacyBandwidth converts a bandwidth stored in Mbit/s into bytes
// per second.
func ConvertLegacyBandwidth(mbps float64) float64 {
	return mbps * 1_000_000 / 8
}

// ConvertLegacyLatency converts a latency stored in milliseconds into
// seconds.
func ConvertLegacyLatency(ms float64) float64 {
	return ms / 1_000
}

// NormalizePortSpeed keeps a port's rate and mean service time consistent
// with its speed mode, and pins FACILITY ports to a single channel.
func NormalizePortSpeed(p *model.Port) {
	switch p.SpeedMode {
	case model.SpeedModeTime:
		if p.ServiceTime > 0 && !math.IsInf(p.ServiceTime, 0) {
			p.Mu = 1 / p.ServiceTime
		} else if p.Mu > 0 {
			p.ServiceTime = 1 / p.Mu
		} else {
			p.Mu, p.ServiceTime = 1, 1
		}
	default:
		p.SpeedMode = model.SpeedModeRate
		if p.Mu > 0 && !math.IsInf(p.Mu, 0) {
			p.ServiceTime = 1 / p.Mu
		} else if p.ServiceTime > 0 {
			p.Mu = 1 / p.ServiceTime
		} else {
			p.Mu, p.ServiceTime = 1, 1
		}
	}
	if p.QueueCapacity < 0 {
		p.QueueCapacity = 0
	}
	switch p.ResourceType {
	case model.ResourceStorage:
		if p.ResourceAmount < 1 {
			p.ResourceAmount = 1
		}
	default:
		p.ResourceType = model.ResourceFacility
		p.ResourceAmount = 1
	}
	if p.Dist == "" {
		p.Dist = DefaultPortDist
	}
}
