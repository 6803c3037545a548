package facing

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/frontage-cli/internal/model"
	"github.com/sells-group/frontage-cli/internal/roadindex"
)

// line builds a road from (lat, lon) vertex pairs.
func line(id string, latLon ...float64) model.Road {
	flat := make([]float64, 0, len(latLon))
	for i := 0; i < len(latLon); i += 2 {
		flat = append(flat, latLon[i+1], latLon[i]) // go-geom is X=lon, Y=lat
	}
	return model.Road{ID: id, Geometry: geom.NewLineStringFlat(geom.XY, flat)}
}

func TestAnalyze_EmptyRoads(t *testing.T) {
	props := []model.Property{{PID: "P1", Lat: 0, Lon: 0}}

	_, err := Analyze(context.Background(), props, nil, Options{})
	require.ErrorIs(t, err, roadindex.ErrNoRoadsIndexed)
}

func TestAnalyze_EmptyProperties(t *testing.T) {
	roads := []model.Road{line("r1", 0, 0, 0, 1)}

	results, err := Analyze(context.Background(), nil, roads, Options{})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
}

func TestAnalyze_InvalidUnits(t *testing.T) {
	roads := []model.Road{line("r1", 0, 0, 0, 1)}
	_, err := Analyze(context.Background(), nil, roads, Options{DistanceUnits: "furlongs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown distance units")
}

func TestAnalyze_OneResultPerPropertyInInputOrder(t *testing.T) {
	roads := []model.Road{line("main", 0, 0, 0, 1)}

	var props []model.Property
	for i := 0; i < 100; i++ {
		props = append(props, model.Property{
			PID: fmt.Sprintf("P%03d", i),
			Lat: 0.0001 + float64(i)*1e-6,
			Lon: 0.5,
		})
	}

	results, err := Analyze(context.Background(), props, roads, Options{Workers: 8})
	require.NoError(t, err)
	require.Len(t, results, len(props))

	for i, r := range results {
		assert.Equal(t, props[i].PID, r.PID, "result %d out of order", i)
		assert.Equal(t, "main", r.RoadID)
		assert.Equal(t, model.StatusOK, r.Status)
		assert.Equal(t, "N", r.Facing)
	}
}

func TestAnalyze_StatusAnnotationsDoNotAbort(t *testing.T) {
	roads := []model.Road{
		line("main", 0, 0, 0, 1),
		line("dot", 2, 2, 2, 2), // zero-length
	}
	props := []model.Property{
		{PID: "ok", Lat: 0.001, Lon: 0.5},
		{PID: "on-road", Lat: 0, Lon: 0.5},
		{PID: "near-dot", Lat: 2.0001, Lon: 2},
	}

	results, err := Analyze(context.Background(), props, roads, Options{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, model.StatusOK, results[0].Status)
	assert.Equal(t, model.StatusAmbiguous, results[1].Status)
	assert.Equal(t, model.StatusDegenerate, results[2].Status)
	assert.Equal(t, "dot", results[2].RoadID)
}

func TestAnalyze_MaxDistanceProducesNoRoadRows(t *testing.T) {
	roads := []model.Road{line("main", 0, 0, 0, 1)}
	props := []model.Property{
		{PID: "near", Lat: 0.001, Lon: 0.5},
		{PID: "far", Lat: 5, Lon: 0.5},
	}

	results, err := Analyze(context.Background(), props, roads, Options{MaxDistanceMeters: 500})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, model.StatusOK, results[0].Status)
	assert.Equal(t, model.StatusNoRoad, results[1].Status)
	assert.Empty(t, results[1].RoadID)
	assert.Empty(t, results[1].Facing)
}

func TestAnalyze_DistanceUnits(t *testing.T) {
	roads := []model.Road{line("main", 0, 0, 0, 1)}
	props := []model.Property{{PID: "P1", Lat: 0.001, Lon: 0.5}}

	meters, err := Analyze(context.Background(), props, roads, Options{DistanceUnits: UnitsMeters})
	require.NoError(t, err)
	assert.InDelta(t, 111.2, meters[0].Distance, 0.5)

	degrees, err := Analyze(context.Background(), props, roads, Options{DistanceUnits: UnitsDegrees})
	require.NoError(t, err)
	assert.InDelta(t, 0.001, degrees[0].Distance, 1e-9)
}

func TestAnalyze_Idempotent(t *testing.T) {
	roads := []model.Road{
		line("a", 0, 0, 0.5, 0.5, 1, 0),
		line("b", 0.2, 0.1, 0.2, 0.9),
	}
	props := []model.Property{
		{PID: "P1", Lat: 0.25, Lon: 0.3},
		{PID: "P2", Lat: 0.21, Lon: 0.5},
		{PID: "P3", Lat: 0.7, Lon: 0.2},
	}

	first, err := Analyze(context.Background(), props, roads, Options{Workers: 4})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := Analyze(context.Background(), props, roads, Options{Workers: 4})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAnalyze_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	roads := []model.Road{line("main", 0, 0, 0, 1)}
	props := []model.Property{{PID: "P1", Lat: 0.001, Lon: 0.5}}

	_, err := Analyze(ctx, props, roads, Options{})
	require.Error(t, err)
}
