package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenlabs/realm-tracker/internal/model"
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

func TestPostgresStore_CreateUpload(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO tracker.uploads`).
		WithArgs(pgxmock.AnyArg(), "671_20250810_2040utc.xlsx", "671", "processing", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	u, err := s.CreateUpload(context.Background(), "671_20250810_2040utc.xlsx", "671")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, model.UploadProcessing, u.Status)
	assert.Equal(t, "671", u.Kingdom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteUpload(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE tracker.uploads`).
		WithArgs("completed", 120, pgxmock.AnyArg(), "up-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.CompleteUpload(context.Background(), "up-1", 120, []model.RowError{{LordID: "9", Error: "boom"}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteUpload_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE tracker.uploads`).
		WithArgs("completed", 0, pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.CompleteUpload(context.Background(), "missing", 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FailUpload(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE tracker.uploads`).
		WithArgs("failed", "bad filename", "up-2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.FailUpload(context.Background(), "up-2", "bad filename")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetUpload_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, filename, kingdom, status`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	u, err := s.GetUpload(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetUpload(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	started := time.Date(2025, 8, 10, 20, 41, 0, 0, time.UTC)
	rowErrs := []byte(`[{"lord_id":"42","error":"bad row"}]`)
	errText := "partial"
	mock.ExpectQuery(`SELECT id, filename, kingdom, status`).
		WithArgs("up-3").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "filename", "kingdom", "status", "row_count", "error", "row_errors", "started_at", "completed_at",
		}).AddRow("up-3", "671_20250810_2040utc.xlsx", "671", "completed", 99, &errText, rowErrs, started, (*time.Time)(nil)))

	u, err := s.GetUpload(context.Background(), "up-3")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, model.UploadCompleted, u.Status)
	assert.Equal(t, 99, u.RowCount)
	assert.Equal(t, "partial", u.Error)
	require.Len(t, u.RowErrors, 1)
	assert.Equal(t, "42", u.RowErrors[0].LordID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListUploads_Filtered(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	started := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, filename, kingdom, status .* FROM tracker.uploads WHERE true AND status = \$1 LIMIT \$2`).
		WithArgs("failed", 10).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "filename", "kingdom", "status", "row_count", "error", "row_errors", "started_at", "completed_at",
		}).AddRow("up-4", "x.xlsx", "671", "failed", 0, (*string)(nil), []byte(nil), started, (*time.Time)(nil)))

	uploads, err := s.ListUploads(context.Background(), UploadFilter{Status: model.UploadFailed, Limit: 10})
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, model.UploadFailed, uploads[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	takenAt := time.Date(2025, 8, 10, 20, 40, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO tracker.snapshots`).
		WithArgs(pgxmock.AnyArg(), "671", takenAt, "671_20250810_2040utc.xlsx").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	snap := &model.Snapshot{Kingdom: "671", TakenAt: takenAt, Filename: "671_20250810_2040utc.xlsx"}
	err := s.CreateSnapshot(context.Background(), snap)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestSnapshots(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, kingdom, taken_at, filename FROM tracker.snapshots WHERE kingdom = \$1`).
		WithArgs("671", 2).
		WillReturnRows(pgxmock.NewRows([]string{"id", "kingdom", "taken_at", "filename"}).
			AddRow("s2", "671", now, "b.xlsx").
			AddRow("s1", "671", now.Add(-24*time.Hour), "a.xlsx"))

	snaps, err := s.LatestSnapshots(context.Background(), "671", 2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "s2", snaps[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetPlayer_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT lord_id, name, left_realm`).
		WithArgs("unknown").
		WillReturnError(pgx.ErrNoRows)

	p, err := s.GetPlayer(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SearchPlayers(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT lord_id, name, left_realm, first_seen, last_seen FROM tracker.players`).
		WithArgs("dra", 20).
		WillReturnRows(pgxmock.NewRows([]string{"lord_id", "name", "left_realm", "first_seen", "last_seen"}).
			AddRow("77", "Dragonheart", false, now, now))

	players, err := s.SearchPlayers(context.Background(), "dra", 0)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "Dragonheart", players[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_NameHistory(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, lord_id, old_name, new_name, detected_at FROM tracker.name_changes`).
		WithArgs("77").
		WillReturnRows(pgxmock.NewRows([]string{"id", "lord_id", "old_name", "new_name", "detected_at"}).
			AddRow(int64(1), "77", "OldName", "NewName", now))

	changes, err := s.NameHistory(context.Background(), "77")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "OldName", changes[0].OldName)
	assert.Equal(t, "NewName", changes[0].NewName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
