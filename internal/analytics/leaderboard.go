package analytics

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
)

// LeaderboardFilter selects and pages a leaderboard.
type LeaderboardFilter struct {
	Metric    string   `json:"metric"`
	Alliances []string `json:"alliances,omitempty"`
	Limit     int      `json:"limit"`
	Offset    int      `json:"offset"`
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	LordID      string  `json:"lord_id"`
	Name        string  `json:"name"`
	AllianceTag string  `json:"alliance_tag"`
	Value       float64 `json:"value"`
	Power       float64 `json:"power"`
	Percentile  float64 `json:"percentile"`
}

// Leaderboard holds one page of ranked players plus the cohort size the
// percentiles were computed against.
type Leaderboard struct {
	Metric  string             `json:"metric"`
	Cohort  int                `json:"cohort"`
	Entries []LeaderboardEntry `json:"entries"`
}

// leaderboardMetrics whitelists sortable columns. Request metrics are
// looked up here, never spliced into SQL directly.
var leaderboardMetrics = map[string]string{
	"power":         "power",
	"highest_power": "highest_power",
	"merits":        "merits",
	"units_killed":  "units_killed",
	"units_dead":    "units_dead",
	"kills_t4":      "kills_t4",
	"kills_t5":      "kills_t5",
	"victories":     "victories",
	"helps_given":   "helps_given",
	"gold_spent":    "gold_spent",
}

const defaultLeaderboardLimit = 50

// ErrUnknownMetric reports a requested metric outside the whitelist.
// Callers can map it to a client error instead of a server one.
var ErrUnknownMetric = eris.New("analytics: unknown leaderboard metric")

// Leaderboard ranks players by a metric over their latest snapshot rows.
// Percentiles cover the whole filtered cohort, not just the returned page.
func (a *Service) Leaderboard(ctx context.Context, filter LeaderboardFilter) (*Leaderboard, error) {
	metric := filter.Metric
	if metric == "" {
		metric = "power"
	}
	column, ok := leaderboardMetrics[metric]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownMetric, "metric %q", metric)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = defaultLeaderboardLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
		WITH latest AS (
			SELECT DISTINCT ON (ps.lord_id)
				ps.lord_id, ps.name, ps.alliance_tag,
				ps.%s::float8 AS value, ps.power::float8 AS power
			FROM tracker.player_snapshots ps
			JOIN tracker.snapshots s ON s.id = ps.snapshot_id
			ORDER BY ps.lord_id, s.taken_at DESC
		)
		SELECT lord_id, name, alliance_tag, value, power, COUNT(*) OVER () AS cohort
		FROM latest`, column)

	args := []any{}
	if len(filter.Alliances) > 0 {
		query += fmt.Sprintf(` WHERE alliance_tag = ANY($%d)`, len(args)+1)
		args = append(args, filter.Alliances)
	}
	query += fmt.Sprintf(` ORDER BY value DESC, lord_id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := a.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "analytics: leaderboard %s", metric)
	}
	defer rows.Close()

	board := &Leaderboard{Metric: metric, Entries: []LeaderboardEntry{}}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.LordID, &e.Name, &e.AllianceTag, &e.Value, &e.Power, &board.Cohort); err != nil {
			return nil, eris.Wrap(err, "analytics: scan leaderboard row")
		}
		e.Rank = offset + len(board.Entries) + 1
		e.Percentile = percentile(e.Rank, board.Cohort)
		board.Entries = append(board.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "analytics: iterate leaderboard")
	}
	return board, nil
}
