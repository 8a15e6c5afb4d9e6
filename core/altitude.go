package core

import (
	"fmt"

	"github.com/signalsfoundry/satnet-designer/model"
)

// AltitudeRange is a closed altitude interval in kilometres.
type AltitudeRange struct {
	Min float64
	Max float64
}

// Contains reports whether alt lies within the range.
func (r AltitudeRange) Contains(alt float64) bool {
	return alt >= r.Min && alt <= r.Max
}

// Clamp returns alt limited to the range.
func (r AltitudeRange) Clamp(alt float64) float64 {
	return min(max(alt, r.Min), r.Max)
}

var (
	rangeLEO  = AltitudeRange{Min: 150, Max: 2000}
	rangeMEO  = AltitudeRange{Min: 8000, Max: 15000}
	rangeGEO  = AltitudeRange{Min: 36000, Max: 36000}
	rangeHAPS = AltitudeRange{Min: 10, Max: 50}
)

// AltitudeRangeFor returns the altitude range for a node type and orbit.
// ok is false for ground types, which carry a location instead.
func AltitudeRangeFor(t model.NodeType, orbit model.Orbit) (AltitudeRange, bool) {
	switch t {
	case model.NodeTypeSC:
		switch orbit {
		case model.OrbitMEO:
			return rangeMEO, true
		case model.OrbitGEO:
			return rangeGEO, true
		default:
			return rangeLEO, true
		}
	case model.NodeTypeHAPS:
		return rangeHAPS, true
	case model.NodeTypeAS, model.NodeTypeES, model.NodeTypeSSOP:
		return AltitudeRange{}, false
	}
	return AltitudeRange{}, false
}

// DefaultAltitude is the altitude given to new airborne nodes that do not
// specify one.
func DefaultAltitude(t model.NodeType, orbit model.Orbit) (float64, bool) {
	r, ok := AltitudeRangeFor(t, orbit)
	if !ok {
		return 0, false
	}
	return r.Min, true
}

// CheckAltitude verifies that n carries an altitude only when its type
// has a range, and that the altitude lies inside it.
func CheckAltitude(n *model.Node) error {
	if n.Type == model.NodeTypeSC && n.Data.Orbit != "" {
		switch n.Data.Orbit {
		case model.OrbitLEO, model.OrbitMEO, model.OrbitGEO:
		default:
			return fmt.Errorf("unknown orbit %q", n.Data.Orbit)
		}
	}
	if n.Type != model.NodeTypeSC && n.Data.Orbit != "" {
		return fmt.Errorf("orbit is only valid for %s nodes", model.NodeTypeSC)
	}
	r, ok := AltitudeRangeFor(n.Type, n.Data.Orbit)
	if n.Data.Altitude == nil {
		return nil
	}
	if !ok {
		return fmt.Errorf("%s nodes have no altitude", n.Type)
	}
	if !r.Contains(*n.Data.Altitude) {
		return fmt.Errorf("altitude %g km outside [%g, %g]", *n.Data.Altitude, r.Min, r.Max)
	}
	return nil
}
