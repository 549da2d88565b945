// Package ingest turns snapshot workbooks into relational rows: one
// snapshot per file, one player_snapshots row per data row, plus
// name/alliance change history and the departure sweep.
package ingest

import (
	"regexp"
	"time"

	"github.com/rotisserie/eris"
)

// filenamePattern matches the export naming convention
// {kingdomId}_{YYYYMMDD}_{HHMM}utc.xlsx. Anything else is rejected before
// any persistence happens.
var filenamePattern = regexp.MustCompile(`^(\d+)_(\d{8})_(\d{4})utc\.xlsx$`)

// FileMeta is the snapshot identity encoded in the filename.
type FileMeta struct {
	Kingdom string
	TakenAt time.Time
}

// ParseFilename extracts the kingdom id and UTC capture time from an export
// filename. 671_20250810_2040utc.xlsx → kingdom "671", 2025-08-10T20:40Z.
func ParseFilename(name string) (*FileMeta, error) {
	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return nil, eris.Errorf("ingest: filename %q does not match {kingdom}_{YYYYMMDD}_{HHMM}utc.xlsx", name)
	}

	takenAt, err := time.Parse("20060102 1504", m[2]+" "+m[3])
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: filename %q has invalid timestamp", name)
	}

	return &FileMeta{
		Kingdom: m[1],
		TakenAt: takenAt.UTC(),
	}, nil
}
