// Package roadindex provides an immutable spatial index over road segments
// supporting true nearest-segment queries. The index partitions the plane
// into a uniform grid of cells keyed by quantized lat/lon; a query expands a
// ring search outward from the query cell until no unexamined cell can hold
// a closer segment.
package roadindex

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/frontage-cli/internal/geodesy"
	"github.com/sells-group/frontage-cli/internal/model"
)

// ErrNoRoadsIndexed is returned by NearestSegment when the index was built
// from an empty road collection.
var ErrNoRoadsIndexed = eris.New("roadindex: no roads indexed")

// DefaultCellSizeDeg is the grid cell edge in degrees. 0.01 degrees is about
// 1.1 km at the equator, so suburban-density road networks put a handful of
// segments per cell.
const DefaultCellSizeDeg = 0.01

// DefaultTieBreakTolerance is the relative distance tolerance under which
// two segments count as equidistant.
const DefaultTieBreakTolerance = 1e-9

// Segment is a single two-vertex piece of a road polyline. Ordinal is the
// position in the decomposition order of the original road collection and
// breaks distance ties deterministically.
type Segment struct {
	RoadID  string
	Ordinal int
	A       geodesy.Point
	B       geodesy.Point
}

// Match is the result of a nearest-segment query. Distance is in
// equirectangular-scaled degrees, the same metric used to rank candidates.
type Match struct {
	RoadID   string
	Ordinal  int
	A        geodesy.Point
	B        geodesy.Point
	Closest  geodesy.Point
	T        float64
	Distance float64
}

// Options tunes index construction.
type Options struct {
	CellSizeDeg       float64
	TieBreakTolerance float64
}

// Index is a build-once, read-only spatial index over road segments.
// Concurrent queries require no synchronization.
type Index struct {
	segs     []Segment
	cells    map[uint64][]int
	cellSize float64
	tol      float64

	// Occupied cell bounds, for bounding the ring search.
	minLatC, maxLatC int32
	minLonC, maxLonC int32
	minScale         float64
}

func cellOf(v, size float64) int32 {
	return int32(math.Floor(v / size))
}

// cellKey packs two int32 cell indices into one map key.
func cellKey(latC, lonC int32) uint64 {
	return uint64(uint32(latC))<<32 | uint64(uint32(lonC))
}

// New builds an index from the road collection. Roads with missing geometry
// or fewer than two vertices are skipped with a warning. The returned index
// is immutable.
func New(roads []model.Road, opts Options) *Index {
	if opts.CellSizeDeg <= 0 {
		opts.CellSizeDeg = DefaultCellSizeDeg
	}
	if opts.TieBreakTolerance <= 0 {
		opts.TieBreakTolerance = DefaultTieBreakTolerance
	}

	ix := &Index{
		cells:    make(map[uint64][]int),
		cellSize: opts.CellSizeDeg,
		tol:      opts.TieBreakTolerance,
		minLatC:  math.MaxInt32,
		maxLatC:  math.MinInt32,
		minLonC:  math.MaxInt32,
		maxLonC:  math.MinInt32,
		minScale: 1,
	}

	var skipped int
	ordinal := 0
	for _, road := range roads {
		if road.Geometry == nil || road.Geometry.NumCoords() < 2 {
			skipped++
			continue
		}
		coords := road.Geometry.Coords()
		for i := 0; i < len(coords)-1; i++ {
			seg := Segment{
				RoadID:  road.ID,
				Ordinal: ordinal,
				A:       geodesy.Point{Lat: coords[i].Y(), Lon: coords[i].X()},
				B:       geodesy.Point{Lat: coords[i+1].Y(), Lon: coords[i+1].X()},
			}
			ordinal++
			ix.insert(seg)
		}
	}

	if skipped > 0 {
		zap.L().Warn("roadindex: skipped roads with degenerate geometry",
			zap.Int("skipped", skipped),
		)
	}

	return ix
}

func (ix *Index) insert(seg Segment) {
	idx := len(ix.segs)
	ix.segs = append(ix.segs, seg)

	latLo := cellOf(math.Min(seg.A.Lat, seg.B.Lat), ix.cellSize)
	latHi := cellOf(math.Max(seg.A.Lat, seg.B.Lat), ix.cellSize)
	lonLo := cellOf(math.Min(seg.A.Lon, seg.B.Lon), ix.cellSize)
	lonHi := cellOf(math.Max(seg.A.Lon, seg.B.Lon), ix.cellSize)

	for la := latLo; la <= latHi; la++ {
		for lo := lonLo; lo <= lonHi; lo++ {
			key := cellKey(la, lo)
			ix.cells[key] = append(ix.cells[key], idx)
		}
	}

	ix.minLatC = min32(ix.minLatC, latLo)
	ix.maxLatC = max32(ix.maxLatC, latHi)
	ix.minLonC = min32(ix.minLonC, lonLo)
	ix.maxLonC = max32(ix.maxLonC, lonHi)

	// Track the worst-case longitude compression across indexed latitudes so
	// ring lower bounds stay conservative.
	for _, lat := range []float64{seg.A.Lat, seg.B.Lat} {
		s := math.Cos(lat * math.Pi / 180)
		if s < 1e-6 {
			s = 1e-6
		}
		if s < ix.minScale {
			ix.minScale = s
		}
	}
}

// Empty reports whether the index holds no segments.
func (ix *Index) Empty() bool { return len(ix.segs) == 0 }

// NumSegments returns the number of indexed two-point segments.
func (ix *Index) NumSegments() int { return len(ix.segs) }

// NearestSegment returns the globally nearest segment to p. The ring search
// stops only once the best distance found is provably smaller than anything
// an unexamined ring could hold. Equidistant segments (within the tie-break
// tolerance) resolve to the lowest ordinal.
func (ix *Index) NearestSegment(p geodesy.Point) (Match, error) {
	if ix.Empty() {
		return Match{}, ErrNoRoadsIndexed
	}

	cLat := cellOf(p.Lat, ix.cellSize)
	cLon := cellOf(p.Lon, ix.cellSize)

	// Farthest occupied cell bounds the search.
	maxRing := chebyshevToBounds(cLat, cLon, ix.minLatC, ix.maxLatC, ix.minLonC, ix.maxLonC)

	best := Match{Ordinal: -1, Distance: math.Inf(1)}
	seen := make(map[int]struct{})

	for ring := int32(0); ring <= maxRing; ring++ {
		// A cell at Chebyshev distance ring is at least (ring-1) whole cells
		// away from p along some axis.
		if best.Ordinal >= 0 {
			bound := float64(ring-1) * ix.cellSize * ix.minScale
			if bound > best.Distance {
				break
			}
		}

		for la := cLat - ring; la <= cLat+ring; la++ {
			for lo := cLon - ring; lo <= cLon+ring; lo++ {
				if abs32(la-cLat) != ring && abs32(lo-cLon) != ring {
					continue // interior cell, scanned on an earlier ring
				}
				for _, idx := range ix.cells[cellKey(la, lo)] {
					if _, ok := seen[idx]; ok {
						continue
					}
					seen[idx] = struct{}{}
					ix.consider(p, idx, &best)
				}
			}
		}
	}

	return best, nil
}

// consider evaluates a candidate segment against the current best match.
func (ix *Index) consider(p geodesy.Point, idx int, best *Match) {
	seg := ix.segs[idx]
	closest, t, dist := geodesy.ClosestPointOnSegment(p, seg.A, seg.B)

	if best.Ordinal >= 0 {
		eps := ix.tol * math.Max(1, best.Distance)
		switch {
		case dist < best.Distance-eps:
			// Strictly closer.
		case dist <= best.Distance+eps && seg.Ordinal < best.Ordinal:
			// Equidistant within tolerance: first segment in original order wins.
		default:
			return
		}
	}

	*best = Match{
		RoadID:   seg.RoadID,
		Ordinal:  seg.Ordinal,
		A:        seg.A,
		B:        seg.B,
		Closest:  closest,
		T:        t,
		Distance: dist,
	}
}

// chebyshevToBounds returns the largest Chebyshev cell distance from (cLat,
// cLon) to any corner of the occupied cell bounds.
func chebyshevToBounds(cLat, cLon, minLat, maxLat, minLon, maxLon int32) int32 {
	dLat := max32(abs32(cLat-minLat), abs32(cLat-maxLat))
	dLon := max32(abs32(cLon-minLon), abs32(cLon-maxLon))
	return max32(dLat, dLon)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
