package cmd

import (
	"fmt"

	"roleboard/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCmd applies the schema and verifies every model column exists.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and verify it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		report, err := integrity.NewService(a.integrityDeps()).CheckSchema()
		if err != nil {
			return err
		}
		for table, tbl := range report.Tables {
			if tbl.Status != "ok" {
				a.logger.Warn("Table drift",
					zap.String("table", table),
					zap.Strings("missing_columns", tbl.MissingColumns),
					zap.Strings("type_mismatches", tbl.TypeMismatches),
				)
				continue
			}
			a.logger.Info("Table ready", zap.String("table", table))
		}
		for _, e := range report.Errors {
			a.logger.Error("Schema error", zap.String("error", e))
		}
		if !report.Matched {
			return fmt.Errorf("database schema does not match the models")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}
