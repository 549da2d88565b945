// Package export renders analytics output as downloadable workbooks.
package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wardenlabs/realm-tracker/internal/analytics"
)

const exportLimit = 500

// Builder assembles export workbooks from analytics queries.
type Builder struct {
	analytics *analytics.Service
}

// NewBuilder creates a Builder.
func NewBuilder(svc *analytics.Service) *Builder {
	return &Builder{analytics: svc}
}

// Workbook builds an xlsx with a leaderboard sheet and an alliance summary
// sheet. The two source queries run concurrently.
func (b *Builder) Workbook(ctx context.Context) ([]byte, error) {
	var (
		board  *analytics.Leaderboard
		health []analytics.AllianceHealth
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		board, err = b.analytics.Leaderboard(gctx, analytics.LeaderboardFilter{Limit: exportLimit})
		return err
	})
	g.Go(func() error {
		var err error
		health, err = b.analytics.AllianceHealth(gctx, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	f := xlsx.NewFile()
	if err := addLeaderboardSheet(f, board); err != nil {
		return nil, err
	}
	if err := addAllianceSheet(f, health); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, eris.Wrap(err, "export: write workbook")
	}
	return buf.Bytes(), nil
}

// Filename returns the download name for an export taken now.
func Filename(now time.Time) string {
	return fmt.Sprintf("tracker_export_%s.xlsx", now.UTC().Format("20060102_1504"))
}

func addLeaderboardSheet(f *xlsx.File, board *analytics.Leaderboard) error {
	sheet, err := f.AddSheet("Leaderboard")
	if err != nil {
		return eris.Wrap(err, "export: add leaderboard sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Rank", "Lord ID", "Name", "Alliance", "Power", "Percentile"} {
		header.AddCell().SetString(h)
	}
	for _, e := range board.Entries {
		row := sheet.AddRow()
		row.AddCell().SetInt(e.Rank)
		row.AddCell().SetString(e.LordID)
		row.AddCell().SetString(e.Name)
		row.AddCell().SetString(e.AllianceTag)
		row.AddCell().SetFloat(e.Value)
		row.AddCell().SetFloat(e.Percentile)
	}
	return nil
}

func addAllianceSheet(f *xlsx.File, health []analytics.AllianceHealth) error {
	sheet, err := f.AddSheet("Alliances")
	if err != nil {
		return eris.Wrap(err, "export: add alliance sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Tag", "Managed", "Members", "Total Power", "Avg Power", "Total Merits", "Inactive"} {
		header.AddCell().SetString(h)
	}
	for _, a := range health {
		row := sheet.AddRow()
		row.AddCell().SetString(a.Tag)
		row.AddCell().SetBool(a.Managed)
		row.AddCell().SetInt(a.Members)
		row.AddCell().SetFloat(a.TotalPower)
		row.AddCell().SetFloat(a.AvgPower)
		row.AddCell().SetFloat(a.TotalMerits)
		row.AddCell().SetInt(a.InactiveMembers)
	}
	return nil
}
