package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var holdRateRun bool

// holdRateCmd lists or recomputes the hold-rate table.
var holdRateCmd = &cobra.Command{
	Use:   "holdrate",
	Short: "Show or recompute character hold rates",
	Long: `Lists the stored hold rates. With --run the job is executed once first,
exactly as the daily schedule would.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		if holdRateRun {
			fmt.Println(a.holdRate.Trigger(cmd.Context()))
		}

		next, err := a.holdRate.NextRun(time.Now())
		if err == nil && a.cfg.HoldRate.Enabled {
			a.logger.Info("Next scheduled run", zap.Time("at", next))
		}

		rates, err := a.holdRate.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range rates {
			a.logger.Info("Hold rate",
				zap.String("role_id", r.RoleID),
				zap.String("name", r.CharName),
				zap.Float64("rate", r.HoldRate),
				zap.Int("holders", r.HoldCount),
				zap.Int("players", r.TotalPlayers),
				zap.Any("chains", r.ChainDistribution.Data()),
			)
		}
		return nil
	},
}

func init() {
	holdRateCmd.Flags().BoolVar(&holdRateRun, "run", false, "Recompute before listing")
	RootCmd.AddCommand(holdRateCmd)
}
