package core

import (
	"fmt"
	"math"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/satnet-designer/model"
)

// EarthRadiusKm is the mean Earth radius used for great-circle fallbacks
// (kilometres).
const EarthRadiusKm = 6371.0

// CanvasScale is the number of canvas units per degree of latitude or
// longitude.
const CanvasScale = 300.0

// referenceJDay pins the Earth rotation used when placing nodes in an
// inertial frame. Distances are rotation invariant, so any fixed epoch
// works; J2000 keeps results reproducible.
const referenceJDay = 2451545.0

// Vec3 is an ECI-style vector in kilometres.
type Vec3 struct {
	X, Y, Z float64
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// PointFromLLA converts geodetic latitude/longitude in degrees and an
// altitude in kilometres into a Cartesian point.
func PointFromLLA(latDeg, lonDeg, altKm float64) Vec3 {
	ll := satellite.LatLong{
		Latitude:  latDeg * math.Pi / 180,
		Longitude: lonDeg * math.Pi / 180,
	}
	eci := satellite.LLAToECI(ll, altKm, referenceJDay)
	return Vec3{X: eci.X, Y: eci.Y, Z: eci.Z}
}

// DistanceFunc computes the distance in kilometres between two nodes.
// ok is false when either node lacks coordinates.
type DistanceFunc func(a, b *model.Node) (km float64, ok bool)

// ChordDistanceKm is the default DistanceFunc. It returns the straight-line
// distance between the two nodes, taking altitude into account for
// airborne nodes. Ground nodes sit on the reference ellipsoid.
func ChordDistanceKm(a, b *model.Node) (float64, bool) {
	pa, ok := nodePoint(a)
	if !ok {
		return 0, false
	}
	pb, ok := nodePoint(b)
	if !ok {
		return 0, false
	}
	return pa.DistanceTo(pb), true
}

// GreatCircleKm returns the haversine surface distance between two
// latitude/longitude pairs in degrees.
func GreatCircleKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func nodePoint(n *model.Node) (Vec3, bool) {
	if n == nil || n.Data.Lat == nil || n.Data.Lon == nil {
		return Vec3{}, false
	}
	alt := 0.0
	if n.Type.Airborne() && n.Data.Altitude != nil {
		alt = *n.Data.Altitude
	}
	return PointFromLLA(*n.Data.Lat, *n.Data.Lon, alt), true
}

// DistanceLabel renders a distance the way edges display it.
func DistanceLabel(km float64) string {
	return fmt.Sprintf("%d km", int64(math.Round(km)))
}

// PositionFromLatLon maps latitude [-90, 90] and longitude [-180, 180]
// to a canvas position.
func PositionFromLatLon(lat, lon float64) model.Position {
	return model.Position{
		X: (lon + 180) * CanvasScale,
		Y: (90 - lat) * CanvasScale,
	}
}

// LatLonFromPosition is the inverse of PositionFromLatLon.
func LatLonFromPosition(p model.Position) (lat, lon float64) {
	return 90 - p.Y/CanvasScale, p.X/CanvasScale - 180
}
