// Package geodesy provides the primitive vector and bearing math used by the
// facing pipeline: point-to-segment projection, forward azimuth, haversine
// distance, and compass quantization. All angles are degrees, all coordinates
// are WGS84-style lat/lon degrees.
package geodesy

import (
	"math"

	"github.com/rotisserie/eris"
)

// EarthRadiusMeters is the mean earth radius used for haversine distances.
const EarthRadiusMeters = 6371000.0

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// compassLabels16 lists the 16-sector compass labels clockwise from north.
// The 4- and 8-sector resolutions are strided subsets of this list.
var compassLabels16 = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Normalize wraps a bearing into [0, 360).
func Normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// AngularDiff returns the absolute angular difference between two bearings,
// wrapping at 360, so the result is always in [0, 180].
func AngularDiff(a, b float64) float64 {
	d := math.Abs(Normalize(a) - Normalize(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// lonScale returns the longitude compression factor at a latitude. Clamped
// away from zero so projection stays stable near the poles.
func lonScale(lat float64) float64 {
	s := math.Cos(lat * math.Pi / 180)
	if s < 1e-6 {
		s = 1e-6
	}
	return s
}

// Bearing returns the forward azimuth from one point to another in degrees
// clockwise from true north, in [0, 360). It uses the same equirectangular
// local frame as ClosestPointOnSegment so bearings and projections agree.
func Bearing(from, to Point) float64 {
	scale := lonScale((from.Lat + to.Lat) / 2)
	dx := (to.Lon - from.Lon) * scale
	dy := to.Lat - from.Lat
	return Normalize(math.Atan2(dx, dy) * 180 / math.Pi)
}

// ClosestPointOnSegment projects p onto the segment a-b and returns the
// closest point on the segment, the clamped projection parameter t in [0, 1],
// and the distance from p to that point in equirectangular-scaled degrees.
// A zero-length segment is treated as the point a.
func ClosestPointOnSegment(p, a, b Point) (Point, float64, float64) {
	scale := lonScale((a.Lat + b.Lat) / 2)

	// Local planar frame: x is scaled longitude, y is latitude.
	ax, ay := a.Lon*scale, a.Lat
	bx, by := b.Lon*scale, b.Lat
	px, py := p.Lon*scale, p.Lat

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return a, 0, math.Hypot(px-ax, py-ay)
	}

	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	cx, cy := ax+t*dx, ay+t*dy
	closest := Point{Lat: cy, Lon: cx / scale}
	return closest, t, math.Hypot(px-cx, py-cy)
}

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(a, b Point) float64 {
	const degToRad = math.Pi / 180
	lat1, lat2 := a.Lat*degToRad, b.Lat*degToRad
	dLat := (b.Lat - a.Lat) * degToRad
	dLon := (b.Lon - a.Lon) * degToRad

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// QuantizeToCompass maps a bearing to the nearest compass label at the given
// resolution (4, 8, or 16 sectors). A bearing exactly on a sector boundary
// resolves to the lower-valued (counter-clockwise) sector.
func QuantizeToCompass(deg float64, resolution int) (string, error) {
	var stride int
	switch resolution {
	case 4:
		stride = 4
	case 8:
		stride = 2
	case 16:
		stride = 1
	default:
		return "", eris.Errorf("geodesy: unsupported compass resolution %d (want 4, 8, or 16)", resolution)
	}

	deg = Normalize(deg)
	step := 360.0 / float64(resolution)
	half := step / 2

	idx := int(math.Floor((deg + half) / step))
	if math.Mod(deg+half, step) == 0 {
		// Midpoint tie: prefer the counter-clockwise sector.
		idx--
	}
	idx = ((idx % resolution) + resolution) % resolution

	return compassLabels16[idx*stride], nil
}
