package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/wardenlabs/realm-tracker/internal/db"
	"github.com/wardenlabs/realm-tracker/internal/model"
	"github.com/wardenlabs/realm-tracker/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tracker contents",
	Long:  "Displays row counts, recent snapshots and recent uploads.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		counts, err := trackerCounts(ctx, st.Pool())
		if err != nil {
			return eris.Wrap(err, "status")
		}

		p := message.NewPrinter(language.English)
		p.Printf("Players:       %d (%d departed)\n", counts.players, counts.departed)
		p.Printf("Snapshots:     %d\n", counts.snapshots)
		p.Printf("Stat rows:     %d\n", counts.statRows)
		p.Printf("Name changes:  %d\n", counts.nameChanges)
		p.Printf("Alliance moves: %d\n", counts.allianceChanges)
		fmt.Println()

		snaps, err := st.LatestSnapshots(ctx, "", 5)
		if err != nil {
			return eris.Wrap(err, "status snapshots")
		}
		if len(snaps) > 0 {
			fmt.Println("Recent snapshots:")
			formatSnapshots(os.Stdout, snaps)
			fmt.Println()
		}

		uploads, err := st.ListUploads(ctx, store.UploadFilter{Limit: 10})
		if err != nil {
			return eris.Wrap(err, "status uploads")
		}
		if len(uploads) > 0 {
			fmt.Println("Recent uploads:")
			formatUploads(os.Stdout, uploads)
		}
		return nil
	},
}

type counts struct {
	players, departed, snapshots, statRows, nameChanges, allianceChanges int64
}

func trackerCounts(ctx context.Context, pool db.Pool) (*counts, error) {
	var c counts
	err := pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM tracker.players),
			(SELECT COUNT(*) FROM tracker.players WHERE left_realm),
			(SELECT COUNT(*) FROM tracker.snapshots),
			(SELECT COUNT(*) FROM tracker.player_snapshots),
			(SELECT COUNT(*) FROM tracker.name_changes),
			(SELECT COUNT(*) FROM tracker.alliance_changes)`,
	).Scan(&c.players, &c.departed, &c.snapshots, &c.statRows, &c.nameChanges, &c.allianceChanges)
	if err != nil {
		return nil, eris.Wrap(err, "count rows")
	}
	return &c, nil
}

func formatSnapshots(out io.Writer, snaps []model.Snapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KINGDOM\tTAKEN\tFILE")
	for _, s := range snaps {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", s.Kingdom, s.TakenAt.Format("2006-01-02 15:04"), s.Filename)
	}
	_ = w.Flush()
}

func formatUploads(out io.Writer, uploads []model.Upload) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FILE\tSTATUS\tROWS\tSTARTED\tDURATION\tERROR")
	for _, u := range uploads {
		dur := "-"
		if u.CompletedAt != nil {
			dur = u.CompletedAt.Sub(u.StartedAt).Round(time.Second).String()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			u.Filename, u.Status, u.RowCount,
			u.StartedAt.Format("2006-01-02 15:04"), dur, truncate(u.Error, 60))
	}
	_ = w.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
