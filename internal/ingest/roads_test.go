package ingest

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolyLineParts_SinglePart(t *testing.T) {
	pl := &shp.PolyLine{
		NumParts: 1,
		Parts:    []int32{0},
		Points: []shp.Point{
			{X: 151.20, Y: -33.87},
			{X: 151.21, Y: -33.87},
			{X: 151.22, Y: -33.88},
		},
	}

	parts := polyLineParts(pl)
	require.Len(t, parts, 1)
	assert.Equal(t, 3, parts[0].NumCoords())
	assert.Equal(t, 151.20, parts[0].Coord(0).X())
	assert.Equal(t, -33.87, parts[0].Coord(0).Y())
}

func TestPolyLineParts_MultiPart(t *testing.T) {
	pl := &shp.PolyLine{
		NumParts: 2,
		Parts:    []int32{0, 2},
		Points: []shp.Point{
			{X: 0, Y: 0},
			{X: 1, Y: 0},
			{X: 5, Y: 5},
			{X: 6, Y: 5},
			{X: 7, Y: 6},
		},
	}

	parts := polyLineParts(pl)
	require.Len(t, parts, 2)
	assert.Equal(t, 2, parts[0].NumCoords())
	assert.Equal(t, 3, parts[1].NumCoords())
}

func TestPolyLineParts_DropsShortParts(t *testing.T) {
	pl := &shp.PolyLine{
		NumParts: 2,
		Parts:    []int32{0, 1}, // first part has a single vertex
		Points: []shp.Point{
			{X: 0, Y: 0},
			{X: 1, Y: 1},
			{X: 2, Y: 2},
		},
	}

	parts := polyLineParts(pl)
	require.Len(t, parts, 1)
	assert.Equal(t, 2, parts[0].NumCoords())
}

// writeRoadsShapefile writes a small two-feature polyline shapefile with a
// NAME attribute.
func writeRoadsShapefile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roads.shp")

	w, err := shp.Create(path, shp.POLYLINE)
	require.NoError(t, err)

	w.SetFields([]shp.Field{shp.StringField("NAME", 25)})

	w.Write(&shp.PolyLine{
		Box:       shp.Box{MinX: 0, MinY: 0, MaxX: 1, MaxY: 0},
		NumParts:  1,
		NumPoints: 2,
		Parts:     []int32{0},
		Points:    []shp.Point{{X: 0, Y: 0}, {X: 1, Y: 0}},
	})
	w.WriteAttribute(0, 0, "Main St")

	w.Write(&shp.PolyLine{
		Box:       shp.Box{MinX: 2, MinY: 2, MaxX: 3, MaxY: 3},
		NumParts:  1,
		NumPoints: 2,
		Parts:     []int32{0},
		Points:    []shp.Point{{X: 2, Y: 2}, {X: 3, Y: 3}},
	})
	w.WriteAttribute(1, 0, "High St")

	w.Close()
	return path
}

func TestReadRoadsShapefile_WithIDField(t *testing.T) {
	path := writeRoadsShapefile(t)

	roads, err := ReadRoadsShapefile(path, "NAME")
	require.NoError(t, err)
	require.Len(t, roads, 2)

	assert.Equal(t, "Main St", roads[0].ID)
	assert.Equal(t, "High St", roads[1].ID)
	assert.Equal(t, 2, roads[0].Geometry.NumCoords())
	assert.Equal(t, 0.0, roads[0].Geometry.Coord(0).X())
}

func TestReadRoadsShapefile_IndexFallbackID(t *testing.T) {
	path := writeRoadsShapefile(t)

	roads, err := ReadRoadsShapefile(path, "")
	require.NoError(t, err)
	require.Len(t, roads, 2)

	assert.Equal(t, "0", roads[0].ID)
	assert.Equal(t, "1", roads[1].ID)
}

func TestReadRoadsShapefile_UnknownIDField(t *testing.T) {
	path := writeRoadsShapefile(t)

	_, err := ReadRoadsShapefile(path, "ROAD_ID")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReadRoadsShapefile_MissingFile(t *testing.T) {
	_, err := ReadRoadsShapefile(filepath.Join(t.TempDir(), "nope.shp"), "")
	require.Error(t, err)
}
