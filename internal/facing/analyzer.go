package facing

import (
	"context"
	"runtime"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/frontage-cli/internal/geodesy"
	"github.com/sells-group/frontage-cli/internal/model"
	"github.com/sells-group/frontage-cli/internal/roadindex"
)

// Distance unit identifiers for reported distances.
const (
	UnitsMeters  = "meters"
	UnitsDegrees = "degrees"
)

// Options configures an analysis run.
type Options struct {
	CompassResolution int     // 4, 8, or 16; default 8
	DistanceUnits     string  // meters or degrees; default meters
	MaxDistanceMeters float64 // 0 = unlimited
	TieBreakTolerance float64 // 0 = roadindex default
	Workers           int     // 0 = NumCPU
}

func (o *Options) applyDefaults() {
	if o.CompassResolution == 0 {
		o.CompassResolution = 8
	}
	if o.DistanceUnits == "" {
		o.DistanceUnits = UnitsMeters
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
}

// Analyze assigns a facing direction to every property. The road index is
// built once, then properties are resolved independently and in parallel;
// results are written by input position so output order always matches
// input order. An empty road collection fails the whole run; an empty
// property list yields an empty result slice. Per-property geometric edge
// cases are annotated in the result's Status, never aborting the batch.
func Analyze(ctx context.Context, properties []model.Property, roads []model.Road, opts Options) ([]model.FacingResult, error) {
	opts.applyDefaults()
	if opts.DistanceUnits != UnitsMeters && opts.DistanceUnits != UnitsDegrees {
		return nil, eris.Errorf("facing: unknown distance units %q", opts.DistanceUnits)
	}

	resolver, err := NewResolver(opts.CompassResolution)
	if err != nil {
		return nil, err
	}

	index := roadindex.New(roads, roadindex.Options{
		TieBreakTolerance: opts.TieBreakTolerance,
	})
	if index.Empty() {
		return nil, eris.Wrap(roadindex.ErrNoRoadsIndexed, "facing: analyze")
	}

	log := zap.L().With(zap.String("component", "facing.analyzer"))
	log.Info("road index built",
		zap.Int("roads", len(roads)),
		zap.Int("segments", index.NumSegments()),
		zap.Int("properties", len(properties)),
		zap.Int("workers", opts.Workers),
	)

	if len(properties) == 0 {
		return []model.FacingResult{}, nil
	}

	matcher := NewMatcher(index, opts.MaxDistanceMeters)
	results := make([]model.FacingResult, len(properties))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i, prop := range properties {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return eris.Wrap(err, "facing: analyze cancelled")
			}
			results[i] = resolveOne(matcher, resolver, prop, opts.DistanceUnits)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// resolveOne produces the FacingResult for a single property.
func resolveOne(matcher *Matcher, resolver *Resolver, prop model.Property, units string) model.FacingResult {
	match, err := matcher.Match(prop)
	if err != nil {
		// Index emptiness is checked before the loop, so the only per-row
		// failure is the distance cutoff.
		return model.FacingResult{
			PID:     prop.PID,
			Address: prop.Address,
			Status:  model.StatusNoRoad,
		}
	}

	bearing, label, status := resolver.Resolve(prop, match)

	distance := match.Distance
	if units == UnitsMeters {
		distance = geodesy.HaversineMeters(prop.Point(), match.Closest)
	}

	return model.FacingResult{
		PID:      prop.PID,
		Address:  prop.Address,
		RoadID:   match.RoadID,
		Distance: distance,
		Bearing:  bearing,
		Facing:   label,
		Status:   status,
	}
}
