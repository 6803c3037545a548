// Package model defines the typed records flowing through the facing
// pipeline: input properties and roads, per-property facing results, and
// analysis run bookkeeping.
package model

import (
	"time"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/frontage-cli/internal/geodesy"
)

// Property is a single property point record. Immutable once loaded.
type Property struct {
	PID     string  `json:"pid"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Point returns the property coordinate.
func (p Property) Point() geodesy.Point {
	return geodesy.Point{Lat: p.Lat, Lon: p.Lon}
}

// Road is a road centerline polyline. Geometry coordinates are XY with
// X = longitude and Y = latitude, per go-geom convention.
type Road struct {
	ID       string
	Geometry *geom.LineString
}

// Status flags how a property's facing was resolved.
type Status string

const (
	// StatusOK marks a fully resolved facing.
	StatusOK Status = "ok"
	// StatusAmbiguous marks a property coincident with its road, where the
	// two-sided perpendicular choice cannot be made and the fallback
	// candidate was reported.
	StatusAmbiguous Status = "ambiguous"
	// StatusDegenerate marks a match against a zero-length segment, where
	// the bearing from the property to the segment point was reported.
	StatusDegenerate Status = "degenerate_segment"
	// StatusNoRoad marks a property with no road within the configured
	// match distance.
	StatusNoRoad Status = "no_road"
)

// FacingResult is the per-property output row. Exactly one is produced per
// input property, in input order. Never mutated after creation.
type FacingResult struct {
	PID      string  `json:"pid"`
	Address  string  `json:"address"`
	RoadID   string  `json:"road_id"`
	Distance float64 `json:"distance"`
	Bearing  float64 `json:"bearing"`
	Facing   string  `json:"facing"`
	Status   Status  `json:"status"`
}

// RunStatus is the lifecycle state of an analysis run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunParams records the inputs and knobs of an analysis run.
type RunParams struct {
	PropertiesPath    string  `json:"properties_path"`
	RoadsPath         string  `json:"roads_path"`
	CompassResolution int     `json:"compass_resolution"`
	DistanceUnits     string  `json:"distance_units"`
	MaxDistanceMeters float64 `json:"max_distance_meters"`
	Workers           int     `json:"workers"`
}

// RunSummary aggregates per-status counts for a completed run.
type RunSummary struct {
	Properties int   `json:"properties"`
	Resolved   int   `json:"resolved"`
	Ambiguous  int   `json:"ambiguous"`
	Degenerate int   `json:"degenerate"`
	NoRoad     int   `json:"no_road"`
	DurationMS int64 `json:"duration_ms"`
}

// Run is one analysis run as persisted by the store.
type Run struct {
	ID        string      `json:"id"`
	Status    RunStatus   `json:"status"`
	Params    RunParams   `json:"params"`
	Summary   *RunSummary `json:"summary,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Summarize tallies results into a RunSummary (duration left to the caller).
func Summarize(results []FacingResult) RunSummary {
	s := RunSummary{Properties: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusOK:
			s.Resolved++
		case StatusAmbiguous:
			s.Ambiguous++
		case StatusDegenerate:
			s.Degenerate++
		case StatusNoRoad:
			s.NoRoad++
		}
	}
	return s
}
