package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/wardenlabs/realm-tracker/internal/analytics"
	"github.com/wardenlabs/realm-tracker/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export leaderboard and alliance workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		tunables, err := loadTunables()
		if err != nil {
			return err
		}

		svc := analytics.NewService(st.Pool(), cfg.Analytics, tunables)
		data, err := export.NewBuilder(svc).Workbook(ctx)
		if err != nil {
			return eris.Wrap(err, "export")
		}

		out := exportOut
		if out == "" {
			out = export.Filename(time.Now())
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", out)
		}

		fmt.Printf("wrote %s (%d bytes)\n", out, len(data))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path (default tracker_export_<timestamp>.xlsx)")
	rootCmd.AddCommand(exportCmd)
}
