// Package report serializes facing results to tabular and geographic
// formats. The CSV layout is the pipeline's output contract:
// PID,Address,RoadID,Distance,Facing,Status in input property order.
package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/frontage-cli/internal/model"
)

// csvHeader is the fixed column order of the CSV report.
var csvHeader = []string{"PID", "Address", "RoadID", "Distance", "Facing", "Status"}

// formatDistance renders a distance with the shortest exact representation,
// keeping repeated runs byte-identical.
func formatDistance(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}

// WriteCSV writes the results as a CSV report with a header row.
func WriteCSV(w io.Writer, results []model.FacingResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, r := range results {
		row := []string{r.PID, r.Address, r.RoadID, formatDistance(r.Distance), r.Facing, string(r.Status)}
		if err := cw.Write(row); err != nil {
			return eris.Wrapf(err, "report: write csv row %s", r.PID)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}

// WriteXLSX writes the results as a single-sheet XLSX workbook.
func WriteXLSX(w io.Writer, results []model.FacingResult) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("facing")
	if err != nil {
		return eris.Wrap(err, "report: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, col := range csvHeader {
		header.AddCell().Value = col
	}

	for _, r := range results {
		row := sheet.AddRow()
		row.AddCell().Value = r.PID
		row.AddCell().Value = r.Address
		row.AddCell().Value = r.RoadID
		row.AddCell().SetFloat(r.Distance)
		row.AddCell().Value = r.Facing
		row.AddCell().Value = string(r.Status)
	}

	return eris.Wrap(f.Write(w), "report: write xlsx")
}

// WriteGeoJSON writes the results as a GeoJSON FeatureCollection of property
// points carrying the facing attributes. Properties and results must be
// aligned slices, as produced by the analyzer.
func WriteGeoJSON(w io.Writer, properties []model.Property, results []model.FacingResult) error {
	if len(properties) != len(results) {
		return eris.Errorf("report: %d properties but %d results", len(properties), len(results))
	}

	fc := &geojson.FeatureCollection{}
	for i, r := range results {
		p := properties[i]
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       p.PID,
			Geometry: geom.NewPointFlat(geom.XY, []float64{p.Lon, p.Lat}),
			Properties: map[string]any{
				"address":  p.Address,
				"road_id":  r.RoadID,
				"distance": r.Distance,
				"bearing":  r.Bearing,
				"facing":   r.Facing,
				"status":   string(r.Status),
			},
		})
	}

	enc := json.NewEncoder(w)
	return eris.Wrap(enc.Encode(fc), "report: write geojson")
}
