package ingest

import (
	"bytes"
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/wardenlabs/realm-tracker/internal/config"
	"github.com/wardenlabs/realm-tracker/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newMockIngestor(t *testing.T) (*Ingestor, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	in := NewIngestor(store.NewWithPool(mock), config.IngestConfig{BatchSize: 500}, nil)
	return in, mock
}

func workbookBytes(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	sh, err := f.AddSheet("Players")
	require.NoError(t, err)
	for _, r := range rows {
		row := sh.AddRow()
		for _, c := range r {
			row.AddCell().SetString(c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func statRow(lordID, name, tag string) []string {
	row := make([]string, columnCount)
	row[colLordID] = lordID
	row[colName] = name
	row[colAllianceTag] = tag
	row[colPower] = "15000000"
	return row
}

func TestIngest_FullWorkbook(t *testing.T) {
	in, mock := newMockIngestor(t)

	data := workbookBytes(t, [][]string{
		make([]string, columnCount), // header
		statRow("1001", "Alicia", "AAA"),
		statRow("1002", "Bob", "WRD"),
		statRow("1003", "Carol", ""),
		statRow("", "Ghost", "AAA"),
		statRow("1001", "Alicia", "AAA"),
	})

	mock.ExpectExec(`INSERT INTO tracker.uploads`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO tracker.snapshots`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT DISTINCT ON \(ps.lord_id\)`).
		WithArgs("671").
		WillReturnRows(pgxmock.NewRows([]string{"lord_id", "name", "alliance_tag"}).
			AddRow("1001", "Alice", "AAA").
			AddRow("1002", "Bob", "BBB"))

	// Bulk upsert of player identities via temp table.
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_tracker_players"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_tracker_players"}, playerColumns).
		WillReturnResult(3)
	mock.ExpectExec(`INSERT INTO "tracker"."players"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 3))
	mock.ExpectCommit()
	mock.ExpectRollback()

	// 1001: renamed Alice -> Alicia; 1002: moved BBB -> WRD; 1003 is new.
	mock.ExpectExec(`INSERT INTO tracker.name_changes`).
		WithArgs("1001", "Alice", "Alicia", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO tracker.alliance_changes`).
		WithArgs("1002", "BBB", "WRD", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectCopyFrom(pgx.Identifier{"tracker", "player_snapshots"}, snapshotColumns).
		WillReturnResult(3)

	mock.ExpectExec(`UPDATE tracker.uploads`).
		WithArgs("completed", 3, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	res, err := in.Ingest(context.Background(), "671_20250810_2040utc.xlsx", data)
	require.NoError(t, err)

	assert.Equal(t, 3, res.RowCount)
	assert.Equal(t, 1, res.NewPlayers)
	assert.Equal(t, 1, res.NameChanges)
	assert.Equal(t, 1, res.AllianceChanges)
	assert.Len(t, res.RowErrors, 2)
	assert.NotEmpty(t, res.SnapshotID)
	assert.Equal(t, "671", res.Kingdom)
	require.NotNil(t, res.Upload)
	assert.Equal(t, "671", res.Upload.Kingdom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngest_BadFilename(t *testing.T) {
	in, mock := newMockIngestor(t)

	_, err := in.Ingest(context.Background(), "stats.xlsx", nil)
	require.Error(t, err)
	var bad *BadWorkbookError
	assert.ErrorAs(t, err, &bad)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngest_UnreadableWorkbook(t *testing.T) {
	in, mock := newMockIngestor(t)

	mock.ExpectExec(`INSERT INTO tracker.uploads`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE tracker.uploads`).
		WithArgs("failed", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	_, err := in.Ingest(context.Background(), "671_20250810_2040utc.xlsx", []byte("not a workbook"))
	require.Error(t, err)
	var bad *BadWorkbookError
	assert.ErrorAs(t, err, &bad)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngest_EmptyWorkbook(t *testing.T) {
	in, mock := newMockIngestor(t)

	data := workbookBytes(t, [][]string{make([]string, columnCount)})

	mock.ExpectExec(`INSERT INTO tracker.uploads`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO tracker.snapshots`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT DISTINCT ON \(ps.lord_id\)`).
		WithArgs("671").
		WillReturnRows(pgxmock.NewRows([]string{"lord_id", "name", "alliance_tag"}))
	mock.ExpectExec(`UPDATE tracker.uploads`).
		WithArgs("completed", 0, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	res, err := in.Ingest(context.Background(), "671_20250810_2040utc.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, 0, res.RowCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
