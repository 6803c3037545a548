// Package ingest loads property and road collections from on-disk formats
// and validates them at the boundary, so the core pipeline only ever sees
// well-formed typed records.
package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/frontage-cli/internal/model"
)

// propertyColumns maps recognized header names to canonical column roles.
var propertyColumns = map[string]string{
	"pid":       "pid",
	"id":        "pid",
	"address":   "address",
	"latitude":  "lat",
	"lat":       "lat",
	"longitude": "lon",
	"lon":       "lon",
	"lng":       "lon",
}

// columnIndexes resolves a header row into column positions for the four
// property fields. PID, latitude, and longitude are required.
func columnIndexes(header []string) (map[string]int, error) {
	idx := make(map[string]int, 4)
	for i, name := range header {
		role, ok := propertyColumns[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, dup := idx[role]; !dup {
			idx[role] = i
		}
	}
	for _, required := range []string{"pid", "lat", "lon"} {
		if _, ok := idx[required]; !ok {
			return nil, eris.Errorf("ingest: property header missing %q column", required)
		}
	}
	return idx, nil
}

// rowToProperty converts one data row to a Property, validating coordinate
// ranges.
func rowToProperty(row []string, idx map[string]int) (model.Property, error) {
	field := func(role string) string {
		i, ok := idx[role]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	pid := field("pid")
	if pid == "" {
		return model.Property{}, eris.New("ingest: empty PID")
	}

	lat, err := strconv.ParseFloat(field("lat"), 64)
	if err != nil {
		return model.Property{}, eris.Wrapf(err, "ingest: property %s: parse latitude", pid)
	}
	lon, err := strconv.ParseFloat(field("lon"), 64)
	if err != nil {
		return model.Property{}, eris.Wrapf(err, "ingest: property %s: parse longitude", pid)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return model.Property{}, eris.Errorf("ingest: property %s: coordinate out of range (%v, %v)", pid, lat, lon)
	}

	return model.Property{PID: pid, Address: field("address"), Lat: lat, Lon: lon}, nil
}

// ReadPropertiesCSV reads property records from a CSV file with a header
// row. Malformed rows are skipped with a warning; the header must carry PID,
// latitude, and longitude columns.
func ReadPropertiesCSV(path string) ([]model.Property, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open properties csv %s", path)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read properties header")
	}
	idx, err := columnIndexes(header)
	if err != nil {
		return nil, err
	}

	var props []model.Property
	var skipped int
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "ingest: read properties row")
		}

		prop, rowErr := rowToProperty(row, idx)
		if rowErr != nil {
			skipped++
			zap.L().Warn("ingest: skipping malformed property row", zap.Error(rowErr))
			continue
		}
		props = append(props, prop)
	}

	logLoaded("csv", path, len(props), skipped)
	return props, nil
}

// ReadPropertiesXLSX reads property records from the first sheet of an XLSX
// workbook. The first row is the header; malformed rows are skipped with a
// warning.
func ReadPropertiesXLSX(path string) ([]model.Property, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open properties xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("ingest: %s has no sheets", path)
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("ingest: %s first sheet is empty", path)
	}

	idx, err := columnIndexes(rowStrings(sheet.Rows[0]))
	if err != nil {
		return nil, err
	}

	var props []model.Property
	var skipped int
	for _, row := range sheet.Rows[1:] {
		cells := rowStrings(row)
		if len(cells) == 0 {
			continue
		}
		prop, rowErr := rowToProperty(cells, idx)
		if rowErr != nil {
			skipped++
			zap.L().Warn("ingest: skipping malformed property row", zap.Error(rowErr))
			continue
		}
		props = append(props, prop)
	}

	logLoaded("xlsx", path, len(props), skipped)
	return props, nil
}

func rowStrings(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		out[i] = cell.Value
	}
	return out
}

func logLoaded(format, path string, loaded, skipped int) {
	zap.L().Info("ingest: properties loaded",
		zap.String("format", format),
		zap.String("path", path),
		zap.Int("loaded", loaded),
		zap.Int("skipped", skipped),
	)
}
