package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/frontage-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "running", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	params := model.RunParams{PropertiesPath: "props.csv", RoadsPath: "roads.shp", CompassResolution: 8}
	run, err := s.CreateRun(context.Background(), params)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.Equal(t, params, run.Params)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	params := model.RunParams{PropertiesPath: "props.csv", CompassResolution: 16}
	paramsJSON, err := json.Marshal(params)
	require.NoError(t, err)
	summary := model.RunSummary{Properties: 10, Resolved: 9, NoRoad: 1}
	summaryJSON, err := json.Marshal(summary)
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, status, params, summary, created_at, updated_at FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "status", "params", "summary", "created_at", "updated_at"}).
			AddRow("run-1", "complete", paramsJSON, summaryJSON, now, now))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, params, run.Params)
	require.NotNil(t, run.Summary)
	assert.Equal(t, summary, *run.Summary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, status, params, summary, created_at, updated_at FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRunStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs("failed", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateRunStatus(context.Background(), "missing", model.RunStatusFailed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET summary`).
		WithArgs(pgxmock.AnyArg(), "complete", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	summary := &model.RunSummary{Properties: 3, Resolved: 3}
	require.NoError(t, s.CompleteRun(context.Background(), "run-1", summary))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveResults(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	results := []model.FacingResult{
		{PID: "P1", Address: "1 Main St", RoadID: "main", Distance: 12.5, Bearing: 90, Facing: "E", Status: model.StatusOK},
		{PID: "P2", Address: "2 Main St", RoadID: "", Distance: 0, Bearing: 0, Facing: "", Status: model.StatusNoRoad},
	}
	for i, r := range results {
		mock.ExpectExec(`INSERT INTO run_results`).
			WithArgs("run-1", i, r.PID, r.Address, r.RoadID, r.Distance, r.Bearing, r.Facing, string(r.Status)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	require.NoError(t, s.SaveResults(context.Background(), "run-1", results))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetResults(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT pid, address, road_id, distance, bearing, facing, status`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"pid", "address", "road_id", "distance", "bearing", "facing", "status"}).
			AddRow("P1", "1 Main St", "main", 12.5, 90.0, "E", "ok").
			AddRow("P2", "2 Main St", "", 0.0, 0.0, "", "no_road"))

	results, err := s.GetResults(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "P1", results[0].PID)
	assert.Equal(t, model.StatusOK, results[0].Status)
	assert.Equal(t, model.StatusNoRoad, results[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_Filtered(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	paramsJSON, err := json.Marshal(model.RunParams{})
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, status, params, summary, created_at, updated_at FROM runs WHERE status = \$1`).
		WithArgs("complete", 5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "status", "params", "summary", "created_at", "updated_at"}).
			AddRow("run-2", "complete", paramsJSON, []byte(nil), now, now))

	runs, err := s.ListRuns(context.Background(), RunFilter{Status: model.RunStatusComplete, Limit: 5})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Nil(t, runs[0].Summary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestRun_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, status, params, summary, created_at, updated_at FROM runs ORDER BY`).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.LatestRun(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no runs")
	assert.NoError(t, mock.ExpectationsWereMet())
}
