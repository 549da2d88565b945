package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"
)

// Momentum labels for merit trends.
const (
	MomentumRising  = "rising"
	MomentumSteady  = "steady"
	MomentumFalling = "falling"
)

// momentumEpsilon is the dead band for the steady label, in merits per day.
const momentumEpsilon = 1.0

// MeritEntry is one player's merit trend between recent snapshots.
type MeritEntry struct {
	LordID      string  `json:"lord_id"`
	Name        string  `json:"name"`
	AllianceTag string  `json:"alliance_tag"`
	Merits      float64 `json:"merits"`

	Velocity     float64 `json:"velocity"`
	Acceleration float64 `json:"acceleration"`
	Momentum     string  `json:"momentum"`

	Efficiency           float64 `json:"efficiency"`
	EfficiencyPercentile float64 `json:"efficiency_percentile"`
}

// MeritReport ranks merit trends over the three most recent snapshots.
// Velocity is merits per day over the latest interval; acceleration is the
// change in velocity versus the interval before it. Efficiency is merits
// per million power. Players absent from the older snapshots get zero
// velocity and acceleration rather than being dropped.
func (a *Service) MeritReport(ctx context.Context, alliances []string) ([]MeritEntry, error) {
	query := `
		WITH snaps AS (
			SELECT id, taken_at, ROW_NUMBER() OVER (ORDER BY taken_at DESC) AS rn
			FROM tracker.snapshots
			ORDER BY taken_at DESC
			LIMIT 3
		)
		SELECT cur.lord_id, cur.name, cur.alliance_tag,
			cur.merits::float8, cur.power::float8, s0.taken_at,
			prev.merits::float8, s1.taken_at,
			old.merits::float8, s2.taken_at
		FROM tracker.player_snapshots cur
		JOIN snaps s0 ON s0.id = cur.snapshot_id AND s0.rn = 1
		LEFT JOIN snaps s1 ON s1.rn = 2
		LEFT JOIN tracker.player_snapshots prev
			ON prev.snapshot_id = s1.id AND prev.lord_id = cur.lord_id
		LEFT JOIN snaps s2 ON s2.rn = 3
		LEFT JOIN tracker.player_snapshots old
			ON old.snapshot_id = s2.id AND old.lord_id = cur.lord_id`

	args := []any{}
	if len(alliances) > 0 {
		query += ` WHERE cur.alliance_tag = ANY($1)`
		args = append(args, alliances)
	}

	rows, err := a.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "analytics: merit report query")
	}
	defer rows.Close()

	var entries []MeritEntry
	for rows.Next() {
		var (
			e                     MeritEntry
			power                 float64
			curAt                 time.Time
			prevMerits, oldMerits *float64
			prevAt, oldAt         *time.Time
		)
		if err := rows.Scan(
			&e.LordID, &e.Name, &e.AllianceTag,
			&e.Merits, &power, &curAt,
			&prevMerits, &prevAt,
			&oldMerits, &oldAt,
		); err != nil {
			return nil, eris.Wrap(err, "analytics: scan merit row")
		}

		if prevMerits != nil && prevAt != nil {
			e.Velocity = ratio(e.Merits-deref(prevMerits), daysBetween(*prevAt, curAt))
			if oldMerits != nil && oldAt != nil {
				prevVelocity := ratio(deref(prevMerits)-deref(oldMerits), daysBetween(*oldAt, *prevAt))
				e.Acceleration = e.Velocity - prevVelocity
			}
		}
		e.Momentum = momentum(e.Acceleration)
		e.Efficiency = ratio(e.Merits, power/1_000_000)

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "analytics: iterate merit rows")
	}

	rankEfficiency(entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Velocity > entries[j].Velocity
	})
	return entries, nil
}

func momentum(acceleration float64) string {
	switch {
	case acceleration > momentumEpsilon:
		return MomentumRising
	case acceleration < -momentumEpsilon:
		return MomentumFalling
	default:
		return MomentumSteady
	}
}

// rankEfficiency assigns each entry a percentile by merit efficiency.
func rankEfficiency(entries []MeritEntry) {
	if len(entries) == 0 {
		return
	}
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return entries[order[a]].Efficiency > entries[order[b]].Efficiency
	})
	for rank, idx := range order {
		entries[idx].EfficiencyPercentile = percentile(rank+1, len(entries))
	}
}
