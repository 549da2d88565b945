package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wardenlabs/realm-tracker/internal/ingest"
)

var ingestNoSweep bool

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.xlsx> [more files...]",
	Short: "Ingest snapshot workbooks",
	Long:  "Processes one or more exported workbooks named {kingdom}_{YYYYMMDD}_{HHMM}utc.xlsx, recording snapshots, identity changes and departures.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		var sweeper *ingest.Sweeper
		if !ingestNoSweep {
			sweeper = ingest.NewSweeper(st.Pool(), cfg.Realm)
		}
		ingestor := ingest.NewIngestor(st, cfg.Ingest, sweeper)

		var failed int
		for _, path := range args {
			res, err := ingestor.IngestFile(ctx, path)
			if err != nil {
				zap.L().Error("workbook failed", zap.String("file", path), zap.Error(err))
				failed++
				continue
			}
			fmt.Printf("%s: %d rows, %d new players, %d renames, %d alliance moves, %d row errors, %d departures\n",
				path, res.RowCount, res.NewPlayers, res.NameChanges, res.AllianceChanges,
				len(res.RowErrors), len(res.Departed))
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d workbooks failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestNoSweep, "no-sweep", false, "skip the departure sweep after ingesting")
	rootCmd.AddCommand(ingestCmd)
}
