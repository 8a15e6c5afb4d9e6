package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/satnet-designer/model"
)

func TestPointFromLLAOnSurface(t *testing.T) {
	p := PointFromLLA(0, 0, 0)
	// go-satellite places points on a sphere of equatorial radius.
	if math.Abs(p.Norm()-6378.135) > 1 {
		t.Errorf("expected equatorial surface point near 6378 km from centre, got %f", p.Norm())
	}

	high := PointFromLLA(0, 0, 550)
	if d := high.Norm() - p.Norm(); math.Abs(d-550) > 1e-6 {
		t.Errorf("expected altitude offset of 550 km, got %f", d)
	}
}

func TestChordDistanceKm(t *testing.T) {
	ground := func(lat, lon float64) *model.Node {
		return &model.Node{Type: model.NodeTypeES, Data: model.NodeData{Lat: model.Float(lat), Lon: model.Float(lon)}}
	}

	same, ok := ChordDistanceKm(ground(10, 10), ground(10, 10))
	if !ok || same > 1e-6 {
		t.Errorf("expected zero distance for co-located nodes, got %f (%v)", same, ok)
	}

	// One degree of longitude on the equator is about 111 km; the chord is
	// marginally shorter than the arc.
	chord, _ := ChordDistanceKm(ground(0, 0), ground(0, 1))
	arc := GreatCircleKm(0, 0, 0, 1)
	if chord <= 0 || math.Abs(chord-arc) > 1.5 {
		t.Errorf("expected chord %f close to arc %f", chord, arc)
	}

	sat := &model.Node{Type: model.NodeTypeSC, Data: model.NodeData{
		Lat: model.Float(0), Lon: model.Float(0), Altitude: model.Float(550),
	}}
	up, _ := ChordDistanceKm(ground(0, 0), sat)
	if math.Abs(up-550) > 1e-6 {
		t.Errorf("expected 550 km straight up, got %f", up)
	}

	// Ground types ignore a stray altitude.
	es := ground(0, 0)
	es.Data.Altitude = model.Float(1000)
	if d, _ := ChordDistanceKm(es, ground(0, 0)); d > 1e-6 {
		t.Errorf("expected ground altitude to be ignored, got %f", d)
	}

	if _, ok := ChordDistanceKm(&model.Node{}, ground(0, 0)); ok {
		t.Errorf("expected ok=false without coordinates")
	}
}

func TestGreatCircleKm(t *testing.T) {
	// Quarter of the circumference from the equator to the pole.
	got := GreatCircleKm(0, 0, 90, 0)
	want := math.Pi * EarthRadiusKm / 2
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestCanvasRoundTrip(t *testing.T) {
	tests := []struct{ lat, lon float64 }{
		{0, 0}, {90, -180}, {-90, 180}, {55.75, 37.62}, {-33.9, 18.4},
	}
	for _, tt := range tests {
		pos := PositionFromLatLon(tt.lat, tt.lon)
		lat, lon := LatLonFromPosition(pos)
		if math.Abs(lat-tt.lat) > 1e-9 || math.Abs(lon-tt.lon) > 1e-9 {
			t.Errorf("round trip (%g, %g) -> %+v -> (%g, %g)", tt.lat, tt.lon, pos, lat, lon)
		}
	}
	if p := PositionFromLatLon(90, -180); p.X != 0 || p.Y != 0 {
		t.Errorf("expected north-west corner at origin, got %+v", p)
	}
}

func TestDistanceLabel(t *testing.T) {
	if got := DistanceLabel(1234.5); got != "1235 km" {
		t.Errorf("expected \"1235 km\", got %q", got)
	}
	if got := DistanceLabel(0.2); got != "0 km" {
		t.Errorf("expected \"0 km\", got %q", got)
	}
}

func TestVec3DistanceTo(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: 4, Y: 6, Z: 3}
	if d := a.DistanceTo(b); d != 5 {
		t.Errorf("expected 5, got %f", d)
	}
}
