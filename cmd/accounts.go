package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// accountsCmd groups account maintenance.
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Account maintenance",
}

var accountsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete accounts whose credential is empty or invalidated",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		if !confirmDestructiveAction("delete every account with an invalid credential") {
			a.logger.Info("Aborted")
			return nil
		}
		n, err := a.snapshots.Accounts().PruneInvalid(cmd.Context())
		if err != nil {
			return err
		}
		a.logger.Info("Accounts pruned", zap.Int64("deleted", n))
		return nil
	},
}

func init() {
	accountsPruneCmd.Flags().BoolVarP(&yesConfirm, "yes", "y", false, "Skip confirmation prompt")
	accountsCmd.AddCommand(accountsPruneCmd)
	RootCmd.AddCommand(accountsCmd)
}
