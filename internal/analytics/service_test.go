package analytics

import (
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenlabs/realm-tracker/internal/config"
)

func newMockService(t *testing.T) (*Service, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	svc := NewService(mock, config.AnalyticsConfig{
		MeritFloor: 10_000,
		KillFloor:  10_000,
		Brackets:   []int64{5_000_000, 10_000_000, 20_000_000, 50_000_000},
	}, &config.Tunables{ManagedAlliances: []string{"WRD"}})
	return svc, mock
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 2.0, ratio(10, 5))
	assert.Equal(t, 0.0, ratio(10, 0))
	assert.Equal(t, 0.0, ratio(0, 0))
}

func TestPercentile(t *testing.T) {
	// Top of a cohort of 200 scores 100, bottom scores 0.5.
	assert.Equal(t, 100.0, percentile(1, 200))
	assert.Equal(t, 0.5, percentile(200, 200))
	assert.Equal(t, 50.5, percentile(101, 200))
	assert.Equal(t, 0.0, percentile(1, 0))
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 8, 13, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 3.5, daysBetween(from, to))
}
