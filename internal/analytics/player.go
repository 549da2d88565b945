package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/wardenlabs/realm-tracker/internal/model"
)

// PowerComposition breaks a player's power into its component shares,
// each as a percentage of total power.
type PowerComposition struct {
	Legion   float64 `json:"legion"`
	Tech     float64 `json:"tech"`
	Building float64 `json:"building"`
	Hero     float64 `json:"hero"`
}

// KillComposition breaks total kills into per-tier percentages.
type KillComposition struct {
	T1 float64 `json:"t1"`
	T2 float64 `json:"t2"`
	T3 float64 `json:"t3"`
	T4 float64 `json:"t4"`
	T5 float64 `json:"t5"`
}

// PlayerStats is the full derived view for one player, comparing their
// oldest and newest snapshots.
type PlayerStats struct {
	LordID      string    `json:"lord_id"`
	Name        string    `json:"name"`
	AllianceTag string    `json:"alliance_tag"`
	LeftRealm   bool      `json:"left_realm"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`

	Power       float64 `json:"power"`
	Merits      float64 `json:"merits"`
	UnitsKilled float64 `json:"units_killed"`
	UnitsDead   float64 `json:"units_dead"`

	GrowthPerDay       float64 `json:"growth_per_day"`
	KDRatio            float64 `json:"kd_ratio"`
	WinRate            float64 `json:"win_rate"`
	ResourceEfficiency float64 `json:"resource_efficiency"`

	PowerComposition PowerComposition `json:"power_composition"`
	KillComposition  KillComposition  `json:"kill_composition"`

	WindowDays      float64                `json:"window_days"`
	NameHistory     []model.NameChange     `json:"name_history"`
	AllianceHistory []model.AllianceChange `json:"alliance_history"`
}

// statPoint is one snapshot's numbers for a player, pulled with float casts
// so the arithmetic happens on plain float64s.
type statPoint struct {
	takenAt     time.Time
	name        string
	allianceTag string

	power, legionPower, techPower, buildingPower, heroPower float64
	merits, unitsKilled, unitsDead                          float64
	t1, t2, t3, t4, t5                                      float64
	victories, defeats                                      float64
	spent                                                   float64
}

const statPointQuery = `
	SELECT s.taken_at, ps.name, ps.alliance_tag,
		ps.power::float8, ps.legion_power::float8, ps.tech_power::float8,
		ps.building_power::float8, ps.hero_power::float8,
		ps.merits::float8, ps.units_killed::float8, ps.units_dead::float8,
		ps.kills_t1::float8, ps.kills_t2::float8, ps.kills_t3::float8,
		ps.kills_t4::float8, ps.kills_t5::float8,
		ps.victories::float8, ps.defeats::float8,
		(ps.gold_spent + ps.wood_spent + ps.ore_spent + ps.mana_spent)::float8
	FROM tracker.player_snapshots ps
	JOIN tracker.snapshots s ON s.id = ps.snapshot_id
	WHERE ps.lord_id = $1
	ORDER BY s.taken_at %s
	LIMIT 1`

// statPoint loads the oldest or newest snapshot numbers for a player.
// order is a fixed literal, never user input.
func (a *Service) statPoint(ctx context.Context, lordID, order string) (*statPoint, error) {
	var p statPoint
	err := a.pool.QueryRow(ctx, fmt.Sprintf(statPointQuery, order), lordID).Scan(
		&p.takenAt, &p.name, &p.allianceTag,
		&p.power, &p.legionPower, &p.techPower, &p.buildingPower, &p.heroPower,
		&p.merits, &p.unitsKilled, &p.unitsDead,
		&p.t1, &p.t2, &p.t3, &p.t4, &p.t5,
		&p.victories, &p.defeats,
		&p.spent,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "analytics: stat point for %s", lordID)
	}
	return &p, nil
}

// PlayerStats builds the derived view for one player. Returns (nil, nil)
// when the player has no snapshots.
func (a *Service) PlayerStats(ctx context.Context, lordID string) (*PlayerStats, error) {
	var player model.Player
	err := a.pool.QueryRow(ctx,
		`SELECT lord_id, name, left_realm, first_seen, last_seen FROM tracker.players WHERE lord_id = $1`,
		lordID,
	).Scan(&player.LordID, &player.Name, &player.LeftRealm, &player.FirstSeen, &player.LastSeen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "analytics: load player %s", lordID)
	}

	newest, err := a.statPoint(ctx, lordID, "DESC")
	if err != nil {
		return nil, err
	}
	if newest == nil {
		return nil, nil
	}
	oldest, err := a.statPoint(ctx, lordID, "ASC")
	if err != nil {
		return nil, err
	}

	stats := &PlayerStats{
		LordID:      player.LordID,
		Name:        newest.name,
		AllianceTag: newest.allianceTag,
		LeftRealm:   player.LeftRealm,
		FirstSeen:   player.FirstSeen,
		LastSeen:    player.LastSeen,

		Power:       newest.power,
		Merits:      newest.merits,
		UnitsKilled: newest.unitsKilled,
		UnitsDead:   newest.unitsDead,

		KDRatio: ratio(newest.unitsKilled, newest.unitsDead),
		WinRate: ratio(newest.victories, newest.victories+newest.defeats) * 100,
	}

	stats.PowerComposition = PowerComposition{
		Legion:   ratio(newest.legionPower, newest.power) * 100,
		Tech:     ratio(newest.techPower, newest.power) * 100,
		Building: ratio(newest.buildingPower, newest.power) * 100,
		Hero:     ratio(newest.heroPower, newest.power) * 100,
	}

	totalKills := newest.t1 + newest.t2 + newest.t3 + newest.t4 + newest.t5
	stats.KillComposition = KillComposition{
		T1: ratio(newest.t1, totalKills) * 100,
		T2: ratio(newest.t2, totalKills) * 100,
		T3: ratio(newest.t3, totalKills) * 100,
		T4: ratio(newest.t4, totalKills) * 100,
		T5: ratio(newest.t5, totalKills) * 100,
	}

	if oldest != nil {
		stats.WindowDays = daysBetween(oldest.takenAt, newest.takenAt)
		stats.GrowthPerDay = ratio(newest.power-oldest.power, stats.WindowDays)
		stats.ResourceEfficiency = ratio(newest.power-oldest.power, newest.spent-oldest.spent) * 100
	}

	if err := a.loadHistory(ctx, lordID, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (a *Service) loadHistory(ctx context.Context, lordID string, stats *PlayerStats) error {
	rows, err := a.pool.Query(ctx,
		`SELECT id, lord_id, old_name, new_name, detected_at
		 FROM tracker.name_changes WHERE lord_id = $1 ORDER BY detected_at DESC`,
		lordID,
	)
	if err != nil {
		return eris.Wrap(err, "analytics: query name history")
	}
	defer rows.Close()
	for rows.Next() {
		var nc model.NameChange
		if err := rows.Scan(&nc.ID, &nc.LordID, &nc.OldName, &nc.NewName, &nc.DetectedAt); err != nil {
			return eris.Wrap(err, "analytics: scan name change")
		}
		stats.NameHistory = append(stats.NameHistory, nc)
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "analytics: iterate name history")
	}

	allianceRows, err := a.pool.Query(ctx,
		`SELECT id, lord_id, old_tag, new_tag, detected_at
		 FROM tracker.alliance_changes WHERE lord_id = $1 ORDER BY detected_at DESC`,
		lordID,
	)
	if err != nil {
		return eris.Wrap(err, "analytics: query alliance history")
	}
	defer allianceRows.Close()
	for allianceRows.Next() {
		var ac model.AllianceChange
		if err := allianceRows.Scan(&ac.ID, &ac.LordID, &ac.OldTag, &ac.NewTag, &ac.DetectedAt); err != nil {
			return eris.Wrap(err, "analytics: scan alliance change")
		}
		stats.AllianceHistory = append(stats.AllianceHistory, ac)
	}
	return eris.Wrap(allianceRows.Err(), "analytics: iterate alliance history")
}
