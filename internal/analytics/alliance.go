package analytics

import (
	"context"

	"github.com/rotisserie/eris"
)

// AllianceHealth summarizes one alliance's roster from the latest snapshot.
type AllianceHealth struct {
	Tag             string  `json:"tag"`
	Managed         bool    `json:"managed"`
	Members         int     `json:"members"`
	TotalPower      float64 `json:"total_power"`
	AvgPower        float64 `json:"avg_power"`
	TotalMerits     float64 `json:"total_merits"`
	InactiveMembers int     `json:"inactive_members"`
}

// AllianceHealth aggregates per-alliance rosters over the two latest
// snapshots. A member counts as inactive when their power did not grow
// between those snapshots. Pass no tags to cover every alliance.
func (a *Service) AllianceHealth(ctx context.Context, tags []string) ([]AllianceHealth, error) {
	query := `
		WITH snaps AS (
			SELECT id, ROW_NUMBER() OVER (ORDER BY taken_at DESC) AS rn
			FROM tracker.snapshots
			ORDER BY taken_at DESC
			LIMIT 2
		)
		SELECT cur.alliance_tag,
			COUNT(*)::int,
			COALESCE(SUM(cur.power), 0)::float8,
			COALESCE(AVG(cur.power), 0)::float8,
			COALESCE(SUM(cur.merits), 0)::float8,
			COUNT(*) FILTER (
				WHERE prev.lord_id IS NOT NULL AND cur.power <= prev.power
			)::int
		FROM tracker.player_snapshots cur
		JOIN snaps s0 ON s0.id = cur.snapshot_id AND s0.rn = 1
		LEFT JOIN snaps s1 ON s1.rn = 2
		LEFT JOIN tracker.player_snapshots prev
			ON prev.snapshot_id = s1.id AND prev.lord_id = cur.lord_id
		WHERE cur.alliance_tag <> ''`

	args := []any{}
	if len(tags) > 0 {
		query += ` AND cur.alliance_tag = ANY($1)`
		args = append(args, tags)
	}
	query += `
		GROUP BY cur.alliance_tag
		ORDER BY SUM(cur.power) DESC`

	rows, err := a.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "analytics: alliance health query")
	}
	defer rows.Close()

	var out []AllianceHealth
	for rows.Next() {
		var h AllianceHealth
		if err := rows.Scan(&h.Tag, &h.Members, &h.TotalPower, &h.AvgPower, &h.TotalMerits, &h.InactiveMembers); err != nil {
			return nil, eris.Wrap(err, "analytics: scan alliance row")
		}
		h.Managed = a.tunables.IsManaged(h.Tag)
		out = append(out, h)
	}
	return out, eris.Wrap(rows.Err(), "analytics: iterate alliance rows")
}
