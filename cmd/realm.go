package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/wardenlabs/realm-tracker/internal/ingest"
)

var realmCmd = &cobra.Command{
	Use:   "realm",
	Short: "Realm maintenance",
}

var sweepKingdom string

var realmSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Flag departed players",
	Long:  "Marks players absent from the latest snapshot past the inactivity cutoff, subject to the power floor.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sweeper := ingest.NewSweeper(st.Pool(), cfg.Realm)
		departed, err := sweeper.Sweep(ctx, sweepKingdom)
		if err != nil {
			return eris.Wrap(err, "realm sweep")
		}

		if len(departed) == 0 {
			fmt.Println("no departures flagged")
			return nil
		}
		for _, p := range departed {
			fmt.Printf("%s\t%s\tlast seen %s\n", p.LordID, p.Name, p.LastSeen.Format("2006-01-02"))
		}
		fmt.Printf("%d players flagged as departed\n", len(departed))
		return nil
	},
}

func init() {
	realmSweepCmd.Flags().StringVar(&sweepKingdom, "kingdom", "", "kingdom id to sweep")
	_ = realmSweepCmd.MarkFlagRequired("kingdom")
	realmCmd.AddCommand(realmSweepCmd)
	rootCmd.AddCommand(realmCmd)
}
