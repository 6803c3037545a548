package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "properties.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadPropertiesCSV(t *testing.T) {
	path := writeTempCSV(t, `PID,Address,Latitude,Longitude
GA101,"1 Example St",-33.87,151.21
GA102,"2 Example St",-33.88,151.22
`)

	props, err := ReadPropertiesCSV(path)
	require.NoError(t, err)
	require.Len(t, props, 2)

	assert.Equal(t, "GA101", props[0].PID)
	assert.Equal(t, "1 Example St", props[0].Address)
	assert.Equal(t, -33.87, props[0].Lat)
	assert.Equal(t, 151.21, props[0].Lon)
}

func TestReadPropertiesCSV_AlternateHeaders(t *testing.T) {
	path := writeTempCSV(t, `id,address,lat,lng
P1,Somewhere,10.5,20.5
`)

	props, err := ReadPropertiesCSV(path)
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, "P1", props[0].PID)
	assert.Equal(t, 20.5, props[0].Lon)
}

func TestReadPropertiesCSV_SkipsMalformedRows(t *testing.T) {
	path := writeTempCSV(t, `PID,Address,Latitude,Longitude
GA101,ok,-33.87,151.21
,missing pid,-33.87,151.21
GA103,bad lat,not-a-number,151.21
GA104,out of range,95.0,151.21
GA105,ok,-33.90,151.25
`)

	props, err := ReadPropertiesCSV(path)
	require.NoError(t, err)
	require.Len(t, props, 2)
	assert.Equal(t, "GA101", props[0].PID)
	assert.Equal(t, "GA105", props[1].PID)
}

func TestReadPropertiesCSV_MissingRequiredColumn(t *testing.T) {
	path := writeTempCSV(t, `PID,Address,Latitude
GA101,no longitude,-33.87
`)

	_, err := ReadPropertiesCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing "lon"`)
}

func TestReadPropertiesCSV_MissingFile(t *testing.T) {
	_, err := ReadPropertiesCSV(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestReadPropertiesXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "properties.xlsx")

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("properties")
	require.NoError(t, err)

	for _, row := range [][]string{
		{"PID", "Address", "Latitude", "Longitude"},
		{"X1", "10 High St", "-37.81", "144.96"},
		{"X2", "bad", "oops", "144.96"},
		{"X3", "12 High St", "-37.82", "144.97"},
	} {
		r := sheet.AddRow()
		for _, v := range row {
			r.AddCell().Value = v
		}
	}
	require.NoError(t, f.Save(path))

	props, err := ReadPropertiesXLSX(path)
	require.NoError(t, err)
	require.Len(t, props, 2)
	assert.Equal(t, "X1", props[0].PID)
	assert.Equal(t, "X3", props[1].PID)
	assert.Equal(t, -37.82, props[1].Lat)
}
