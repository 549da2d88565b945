// Package analytics computes derived views over stored snapshots:
// leaderboards, merit trends, alliance health, power distribution and
// inactivity. Aggregation is pushed into SQL; ratio arithmetic stays in Go
// with zero denominators guarded.
package analytics

import (
	"time"

	"github.com/wardenlabs/realm-tracker/internal/config"
	"github.com/wardenlabs/realm-tracker/internal/db"
)

// Service runs read-only analytics queries.
type Service struct {
	pool     db.Pool
	cfg      config.AnalyticsConfig
	tunables *config.Tunables
}

// NewService creates a Service. tunables may be nil when no tunables file is
// configured.
func NewService(pool db.Pool, cfg config.AnalyticsConfig, tunables *config.Tunables) *Service {
	if tunables == nil {
		tunables = &config.Tunables{}
	}
	return &Service{pool: pool, cfg: cfg, tunables: tunables}
}

// ratio divides num by den, returning 0 for a zero denominator rather than
// NaN or Inf.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// daysBetween returns the span between two times in fractional days.
func daysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

// percentile maps a 1-based rank within a cohort of size k onto a 0-100
// scale where rank 1 scores 100 and the last rank scores 100/k.
func percentile(rank, k int) float64 {
	if k == 0 {
		return 0
	}
	return float64(k-(rank-1)) / float64(k) * 100
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
