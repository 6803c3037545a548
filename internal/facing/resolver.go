package facing

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/frontage-cli/internal/geodesy"
	"github.com/sells-group/frontage-cli/internal/model"
	"github.com/sells-group/frontage-cli/internal/roadindex"
)

// coincidentDistance is the scaled-degree distance below which a property is
// treated as sitting on the road itself, making the two-sided perpendicular
// choice undefined.
const coincidentDistance = 1e-12

// Resolver turns a segment match into a facing bearing and compass label.
type Resolver struct {
	resolution int
}

// NewResolver creates a Resolver quantizing to the given compass resolution
// (4, 8, or 16).
func NewResolver(resolution int) (*Resolver, error) {
	// Validate up front so Resolve never fails on configuration.
	if _, err := geodesy.QuantizeToCompass(0, resolution); err != nil {
		return nil, eris.Wrap(err, "facing: new resolver")
	}
	return &Resolver{resolution: resolution}, nil
}

// Resolve computes the facing bearing for a property and its matched
// segment. The road's local bearing has two perpendiculars; the one within
// 90 degrees of the direction from the closest road point toward the
// property is the direction the house faces. Geometric edge cases never
// fail: they produce a fallback bearing with a non-ok status.
func (r *Resolver) Resolve(p model.Property, m roadindex.Match) (float64, string, model.Status) {
	var bearing float64
	status := model.StatusOK

	switch {
	case m.A == m.B:
		// Zero-length segment: no road direction exists, fall back to the
		// bearing from the property to the segment point.
		bearing = geodesy.Bearing(p.Point(), m.Closest)
		status = model.StatusDegenerate

	case m.Distance < coincidentDistance:
		// Property sits on the road: towardProperty is undefined.
		roadBearing := geodesy.Bearing(m.A, m.B)
		bearing = geodesy.Normalize(roadBearing + 90)
		status = model.StatusAmbiguous

	default:
		roadBearing := geodesy.Bearing(m.A, m.B)
		towardProperty := geodesy.Bearing(m.Closest, p.Point())

		clockwise := geodesy.Normalize(roadBearing + 90)
		counter := geodesy.Normalize(roadBearing - 90)
		if geodesy.AngularDiff(clockwise, towardProperty) <= geodesy.AngularDiff(counter, towardProperty) {
			bearing = clockwise
		} else {
			bearing = counter
		}
	}

	// Resolution was validated at construction.
	label, _ := geodesy.QuantizeToCompass(bearing, r.resolution)
	return bearing, label, status
}
