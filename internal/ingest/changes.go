package ingest

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/wardenlabs/realm-tracker/internal/db"
)

// priorState is the last known identity of a player within a kingdom,
// used to detect renames and alliance moves during ingestion.
type priorState struct {
	Name        string
	AllianceTag string
}

// loadPriorState fetches each player's name and alliance tag from the most
// recent snapshot of the kingdom. Players absent from the map are new.
func loadPriorState(ctx context.Context, pool db.Pool, kingdom string) (map[string]priorState, error) {
	rows, err := pool.Query(ctx, `
		SELECT DISTINCT ON (ps.lord_id) ps.lord_id, ps.name, ps.alliance_tag
		FROM tracker.player_snapshots ps
		JOIN tracker.snapshots s ON s.id = ps.snapshot_id
		WHERE s.kingdom = $1
		ORDER BY ps.lord_id, s.taken_at DESC`, kingdom)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: query prior state")
	}
	defer rows.Close()

	prior := make(map[string]priorState)
	for rows.Next() {
		var lordID, name, tag string
		if err := rows.Scan(&lordID, &name, &tag); err != nil {
			return nil, eris.Wrap(err, "ingest: scan prior state")
		}
		prior[lordID] = priorState{Name: name, AllianceTag: tag}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "ingest: iterate prior state")
	}
	return prior, nil
}
