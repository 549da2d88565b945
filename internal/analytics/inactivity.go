package analytics

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
)

// Severity grades how concerning a player's inactivity is.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities for sorting, worst first.
var severityRank = map[Severity]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
	SeverityNone:     0,
}

// Inactivity reasons, in priority order.
const (
	ReasonNoKillGrowth  = "kill growth below floor"
	ReasonNoMeritGrowth = "merit growth below floor"
	ReasonNoPowerGrowth = "no power growth"
)

// InactivePlayer is one flagged player with the reasons that triggered.
type InactivePlayer struct {
	LordID      string   `json:"lord_id"`
	Name        string   `json:"name"`
	AllianceTag string   `json:"alliance_tag"`
	PowerDelta  float64  `json:"power_delta"`
	MeritDelta  float64  `json:"merit_delta"`
	KillDelta   float64  `json:"kill_delta"`
	Reasons     []string `json:"reasons"`
	Severity    Severity `json:"severity"`
}

// InactivityReport compares every player present in both snapshots and
// flags those with stalled progress. Players with no triggered reasons are
// omitted.
func (a *Service) InactivityReport(ctx context.Context, fromSnapshotID, toSnapshotID string) ([]InactivePlayer, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT cur.lord_id, cur.name, cur.alliance_tag,
			(cur.power - base.power)::float8,
			(cur.merits - base.merits)::float8,
			(cur.units_killed - base.units_killed)::float8
		FROM tracker.player_snapshots base
		JOIN tracker.player_snapshots cur ON cur.lord_id = base.lord_id
		WHERE base.snapshot_id = $1 AND cur.snapshot_id = $2`,
		fromSnapshotID, toSnapshotID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "analytics: inactivity query")
	}
	defer rows.Close()

	meritFloor := float64(a.cfg.MeritFloor)
	killFloor := float64(a.cfg.KillFloor)

	var flagged []InactivePlayer
	for rows.Next() {
		var p InactivePlayer
		if err := rows.Scan(&p.LordID, &p.Name, &p.AllianceTag, &p.PowerDelta, &p.MeritDelta, &p.KillDelta); err != nil {
			return nil, eris.Wrap(err, "analytics: scan inactivity row")
		}

		grade(&p, meritFloor, killFloor)
		if p.Severity != SeverityNone {
			flagged = append(flagged, p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "analytics: iterate inactivity rows")
	}

	sort.SliceStable(flagged, func(i, j int) bool {
		if severityRank[flagged[i].Severity] != severityRank[flagged[j].Severity] {
			return severityRank[flagged[i].Severity] > severityRank[flagged[j].Severity]
		}
		return flagged[i].PowerDelta < flagged[j].PowerDelta
	})
	return flagged, nil
}

// grade applies the three inactivity reasons in priority order and sets the
// escalated severity. Each triggered reason escalates one step; all three
// escalate to critical only when power actually declined.
func grade(p *InactivePlayer, meritFloor, killFloor float64) {
	noKills := p.KillDelta < killFloor
	noMerits := p.MeritDelta < meritFloor
	noPower := p.PowerDelta <= 0

	if noKills {
		p.Reasons = append(p.Reasons, ReasonNoKillGrowth)
	}
	if noMerits {
		p.Reasons = append(p.Reasons, ReasonNoMeritGrowth)
	}
	if noPower {
		p.Reasons = append(p.Reasons, ReasonNoPowerGrowth)
	}

	switch len(p.Reasons) {
	case 0:
		p.Severity = SeverityNone
	case 1:
		p.Severity = SeverityLow
	case 2:
		p.Severity = SeverityMedium
	default:
		if p.PowerDelta < 0 {
			p.Severity = SeverityCritical
		} else {
			p.Severity = SeverityHigh
		}
	}
}
