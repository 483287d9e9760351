package cmd

import (
	"fmt"

	"roleboard/feature/snapshot"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// archiveCmd manages the raw-data archive in object storage.
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage archived raw character data",
	Long: `Every synced roster is written to storage as players/<uid>/rawData.json when
storage.enabled and refresh.archive are set. These commands inspect and replay it.`,
}

// withArchive bootstraps the app and fails when no archive is configured.
func withArchive(cmd *cobra.Command, run func(a *application) error) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())
	if a.archive == nil {
		return snapshot.ErrArchiveDisabled
	}
	return run(a)
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the accounts that have an archive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(cmd, func(a *application) error {
			uids, err := a.archive.List(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.Info("Archived accounts", zap.Int("count", len(uids)), zap.Strings("uids", uids))
			return nil
		})
	},
}

var archiveImportCmd = &cobra.Command{
	Use:   "import <uid>",
	Short: "Rebuild an account's snapshots from its archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(cmd, func(a *application) error {
			res, err := a.snapshots.Import(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			a.logger.Info("Archive imported",
				zap.String("uid", res.UID),
				zap.Int("characters", res.Characters),
				zap.Strings("updated", res.Updated),
				zap.Strings("removed", res.Removed),
			)
			return nil
		})
	},
}

var archiveDeleteCmd = &cobra.Command{
	Use:   "delete <uid>",
	Short: "Delete an account's archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(cmd, func(a *application) error {
			if !confirmDestructiveAction("delete the archive of " + args[0]) {
				a.logger.Info("Aborted")
				return nil
			}
			if err := a.archive.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.logger.Info("Archive deleted", zap.String("uid", args[0]))
			return nil
		})
	},
}

func init() {
	archiveDeleteCmd.Flags().BoolVarP(&yesConfirm, "yes", "y", false, "Skip confirmation prompt")
	archiveCmd.AddCommand(archiveListCmd, archiveImportCmd, archiveDeleteCmd)
	RootCmd.AddCommand(archiveCmd)
}
