package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/rotisserie/eris"
)

// Bracket is one power band with its population.
type Bracket struct {
	Label   string  `json:"label"`
	Min     int64   `json:"min"`
	Max     int64   `json:"max,omitempty"` // 0 means open-ended
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// DistributionPlayer is one player in the bottom decile.
type DistributionPlayer struct {
	LordID      string  `json:"lord_id"`
	Name        string  `json:"name"`
	AllianceTag string  `json:"alliance_tag"`
	Power       float64 `json:"power"`
}

// PowerDistribution is the realm-wide power histogram.
type PowerDistribution struct {
	Total        int                  `json:"total"`
	Brackets     []Bracket            `json:"brackets"`
	BottomDecile []DistributionPlayer `json:"bottom_decile"`
}

// PowerDistribution buckets every player's latest power into the
// configured brackets and lists the bottom 10% by power.
func (a *Service) PowerDistribution(ctx context.Context) (*PowerDistribution, error) {
	rows, err := a.pool.Query(ctx, `
		WITH latest AS (
			SELECT DISTINCT ON (ps.lord_id)
				ps.lord_id, ps.name, ps.alliance_tag, ps.power::float8 AS power
			FROM tracker.player_snapshots ps
			JOIN tracker.snapshots s ON s.id = ps.snapshot_id
			ORDER BY ps.lord_id, s.taken_at DESC
		)
		SELECT lord_id, name, alliance_tag, power
		FROM latest
		ORDER BY power ASC, lord_id`)
	if err != nil {
		return nil, eris.Wrap(err, "analytics: power distribution query")
	}
	defer rows.Close()

	var players []DistributionPlayer
	for rows.Next() {
		var p DistributionPlayer
		if err := rows.Scan(&p.LordID, &p.Name, &p.AllianceTag, &p.Power); err != nil {
			return nil, eris.Wrap(err, "analytics: scan distribution row")
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "analytics: iterate distribution rows")
	}

	dist := &PowerDistribution{
		Total:    len(players),
		Brackets: bucketPowers(a.brackets(), players),
	}
	if n := bottomDecileSize(len(players)); n > 0 {
		dist.BottomDecile = players[:n]
	}
	return dist, nil
}

func (a *Service) brackets() []int64 {
	if len(a.tunables.Brackets) > 0 {
		return a.tunables.Brackets
	}
	if len(a.cfg.Brackets) > 0 {
		return a.cfg.Brackets
	}
	return []int64{5_000_000, 10_000_000, 20_000_000, 50_000_000}
}

// bucketPowers counts players per bracket. Boundaries are lower-inclusive:
// a player sits in the highest bracket whose minimum they reach.
func bucketPowers(bounds []int64, players []DistributionPlayer) []Bracket {
	brackets := make([]Bracket, 0, len(bounds)+1)
	brackets = append(brackets, Bracket{
		Label: fmt.Sprintf("<%s", formatPower(bounds[0])),
		Max:   bounds[0],
	})
	for i, b := range bounds {
		br := Bracket{Label: fmt.Sprintf(">=%s", formatPower(b)), Min: b}
		if i+1 < len(bounds) {
			br.Label = fmt.Sprintf("%s-%s", formatPower(b), formatPower(bounds[i+1]))
			br.Max = bounds[i+1]
		}
		brackets = append(brackets, br)
	}

	for _, p := range players {
		idx := 0
		for i, b := range bounds {
			if p.Power >= float64(b) {
				idx = i + 1
			}
		}
		brackets[idx].Count++
	}

	total := len(players)
	for i := range brackets {
		brackets[i].Percent = ratio(float64(brackets[i].Count), float64(total)) * 100
	}
	return brackets
}

// bottomDecileSize is ceil(10%) of the cohort, at least 1 for a non-empty
// cohort.
func bottomDecileSize(total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Ceil(float64(total) * 0.10))
}

func formatPower(v int64) string {
	if v >= 1_000_000 && v%1_000_000 == 0 {
		return fmt.Sprintf("%dM", v/1_000_000)
	}
	return fmt.Sprintf("%d", v)
}
