package ingest

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/wardenlabs/realm-tracker/internal/config"
	"github.com/wardenlabs/realm-tracker/internal/db"
	"github.com/wardenlabs/realm-tracker/internal/metrics"
	"github.com/wardenlabs/realm-tracker/internal/model"
)

// Sweeper flags players who have left the realm: absent from the latest
// snapshot, not seen for the cutoff window, and big enough that their
// absence is a departure rather than an abandoned farm account.
type Sweeper struct {
	pool db.Pool
	cfg  config.RealmConfig
}

// NewSweeper creates a Sweeper.
func NewSweeper(pool db.Pool, cfg config.RealmConfig) *Sweeper {
	return &Sweeper{pool: pool, cfg: cfg}
}

// Sweep marks departed players for one kingdom and returns the players it
// flagged. Already-flagged players are untouched, so the sweep is safe to
// run after every ingest.
func (sw *Sweeper) Sweep(ctx context.Context, kingdom string) ([]model.Player, error) {
	rows, err := sw.pool.Query(ctx, `
		WITH latest AS (
			SELECT id, taken_at
			FROM tracker.snapshots
			WHERE kingdom = $1
			ORDER BY taken_at DESC
			LIMIT 1
		)
		UPDATE tracker.players p
		SET left_realm = true
		FROM latest l
		WHERE p.left_realm = false
		  AND NOT EXISTS (
			SELECT 1 FROM tracker.player_snapshots ps
			WHERE ps.snapshot_id = l.id AND ps.lord_id = p.lord_id
		  )
		  AND p.last_seen < l.taken_at - make_interval(days => $2)
		  AND COALESCE((
			SELECT ps.power
			FROM tracker.player_snapshots ps
			JOIN tracker.snapshots s ON s.id = ps.snapshot_id
			WHERE ps.lord_id = p.lord_id AND s.kingdom = $1
			ORDER BY s.taken_at DESC
			LIMIT 1
		  ), 0) >= $3
		RETURNING p.lord_id, p.name, p.left_realm, p.first_seen, p.last_seen`,
		kingdom, sw.cfg.InactiveCutoffDays, sw.cfg.PowerFloor,
	)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: departure sweep")
	}
	defer rows.Close()

	var departed []model.Player
	for rows.Next() {
		var p model.Player
		if err := rows.Scan(&p.LordID, &p.Name, &p.LeftRealm, &p.FirstSeen, &p.LastSeen); err != nil {
			return nil, eris.Wrap(err, "ingest: scan departed player")
		}
		departed = append(departed, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "ingest: iterate departed players")
	}

	if len(departed) > 0 {
		metrics.DeparturesFlagged.Add(float64(len(departed)))
		zap.L().Info("realm sweep flagged departures",
			zap.String("kingdom", kingdom),
			zap.Int("count", len(departed)),
		)
	}
	return departed, nil
}
