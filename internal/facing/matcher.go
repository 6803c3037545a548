// Package facing matches properties to their nearest road and resolves the
// compass direction each property faces.
package facing

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/frontage-cli/internal/geodesy"
	"github.com/sells-group/frontage-cli/internal/model"
	"github.com/sells-group/frontage-cli/internal/roadindex"
)

// ErrNoRoadInRange is returned by Match when the nearest road lies beyond
// the configured maximum match distance.
var ErrNoRoadInRange = eris.New("facing: no road within match distance")

// Matcher answers nearest-road queries against an immutable index. It is a
// pure read-only view: concurrent Match calls are safe.
type Matcher struct {
	index *roadindex.Index

	// maxDistanceMeters filters matches farther than this from the property.
	// Zero means unlimited.
	maxDistanceMeters float64
}

// NewMatcher creates a Matcher over the given index.
func NewMatcher(index *roadindex.Index, maxDistanceMeters float64) *Matcher {
	return &Matcher{index: index, maxDistanceMeters: maxDistanceMeters}
}

// Match returns the nearest road segment to the property. It propagates
// roadindex.ErrNoRoadsIndexed from an empty index and returns
// ErrNoRoadInRange when the nearest segment is beyond the distance cutoff.
func (m *Matcher) Match(p model.Property) (roadindex.Match, error) {
	match, err := m.index.NearestSegment(p.Point())
	if err != nil {
		return roadindex.Match{}, err
	}

	if m.maxDistanceMeters > 0 {
		meters := geodesy.HaversineMeters(p.Point(), match.Closest)
		if meters > m.maxDistanceMeters {
			return roadindex.Match{}, ErrNoRoadInRange
		}
	}

	return match, nil
}
