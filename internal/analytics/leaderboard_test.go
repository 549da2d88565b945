package analytics

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboard(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT DISTINCT ON \(ps.lord_id\)`).
		WithArgs(50, 0).
		WillReturnRows(pgxmock.NewRows([]string{"lord_id", "name", "alliance_tag", "value", "power", "cohort"}).
			AddRow("1001", "Alice", "WRD", 50_000_000.0, 50_000_000.0, 4).
			AddRow("1002", "Bob", "WRD", 25_000_000.0, 25_000_000.0, 4).
			AddRow("1003", "Carol", "", 10_000_000.0, 10_000_000.0, 4).
			AddRow("1004", "Dave", "", 5_000_000.0, 5_000_000.0, 4))

	board, err := svc.Leaderboard(context.Background(), LeaderboardFilter{})
	require.NoError(t, err)

	assert.Equal(t, "power", board.Metric)
	assert.Equal(t, 4, board.Cohort)
	require.Len(t, board.Entries, 4)
	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.Equal(t, 100.0, board.Entries[0].Percentile)
	assert.Equal(t, 4, board.Entries[3].Rank)
	assert.Equal(t, 25.0, board.Entries[3].Percentile)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaderboard_OffsetKeepsCohortPercentile(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT DISTINCT ON \(ps.lord_id\)`).
		WithArgs(2, 2).
		WillReturnRows(pgxmock.NewRows([]string{"lord_id", "name", "alliance_tag", "value", "power", "cohort"}).
			AddRow("1003", "Carol", "", 10_000_000.0, 10_000_000.0, 4).
			AddRow("1004", "Dave", "", 5_000_000.0, 5_000_000.0, 4))

	board, err := svc.Leaderboard(context.Background(), LeaderboardFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)

	require.Len(t, board.Entries, 2)
	assert.Equal(t, 3, board.Entries[0].Rank)
	assert.Equal(t, 50.0, board.Entries[0].Percentile)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaderboard_AllianceFilter(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`WHERE alliance_tag = ANY`).
		WithArgs([]string{"WRD"}, 50, 0).
		WillReturnRows(pgxmock.NewRows([]string{"lord_id", "name", "alliance_tag", "value", "power", "cohort"}).
			AddRow("1001", "Alice", "WRD", 250_000.0, 50_000_000.0, 1))

	board, err := svc.Leaderboard(context.Background(), LeaderboardFilter{
		Metric:    "merits",
		Alliances: []string{"WRD"},
	})
	require.NoError(t, err)
	assert.Equal(t, "merits", board.Metric)
	require.Len(t, board.Entries, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaderboard_UnknownMetric(t *testing.T) {
	svc, mock := newMockService(t)

	_, err := svc.Leaderboard(context.Background(), LeaderboardFilter{Metric: "power; DROP TABLE"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownMetric)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaderboard_EmptyCohort(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT DISTINCT ON \(ps.lord_id\)`).
		WithArgs(50, 0).
		WillReturnRows(pgxmock.NewRows([]string{"lord_id", "name", "alliance_tag", "value", "power", "cohort"}))

	board, err := svc.Leaderboard(context.Background(), LeaderboardFilter{})
	require.NoError(t, err)
	assert.Empty(t, board.Entries)
	assert.Equal(t, 0, board.Cohort)
	assert.NoError(t, mock.ExpectationsWereMet())
}
