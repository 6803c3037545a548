package ingest

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/frontage-cli/internal/model"
)

// ReadRoadsShapefile reads road centerlines from an ESRI shapefile. Each
// polyline part becomes one road polyline sharing the feature's identifier.
// idField names the attribute carrying the road identifier; when empty or
// absent, the zero-based record index is used (matching how road collections
// without identifiers are assigned sequential IDs at load time).
func ReadRoadsShapefile(path, idField string) ([]model.Road, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open roads shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	idIdx := -1
	if idField != "" {
		idIdx = fieldIndex(reader, idField)
		if idIdx < 0 {
			return nil, eris.Errorf("ingest: road id field %q not found in %s", idField, path)
		}
	}

	var roads []model.Road
	var skipped int
	record := -1
	for reader.Next() {
		record++
		_, shape := reader.Shape()

		pl, ok := shape.(*shp.PolyLine)
		if !ok || pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
			skipped++
			continue
		}

		id := strconv.Itoa(record)
		if idIdx >= 0 {
			if v := strings.TrimSpace(strings.TrimRight(reader.Attribute(idIdx), "\x00")); v != "" {
				id = v
			}
		}

		for _, ls := range polyLineParts(pl) {
			roads = append(roads, model.Road{ID: id, Geometry: ls})
		}
	}

	if skipped > 0 {
		zap.L().Warn("ingest: skipped non-polyline shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	zap.L().Info("ingest: roads loaded",
		zap.String("path", path),
		zap.Int("roads", len(roads)),
	)

	return roads, nil
}

// polyLineParts splits a shapefile PolyLine into per-part LineStrings,
// dropping parts with fewer than two vertices.
func polyLineParts(pl *shp.PolyLine) []*geom.LineString {
	var parts []*geom.LineString

	for i := int32(0); i < pl.NumParts; i++ {
		start := pl.Parts[i]
		var end int32
		if i+1 < pl.NumParts {
			end = pl.Parts[i+1]
		} else {
			end = int32(len(pl.Points))
		}
		if end-start < 2 {
			continue
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, pl.Points[j].X, pl.Points[j].Y)
		}
		parts = append(parts, geom.NewLineStringFlat(geom.XY, flat).SetSRID(4326))
	}

	return parts
}

// fieldIndex returns the index of a named field in the shapefile, or -1.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}
