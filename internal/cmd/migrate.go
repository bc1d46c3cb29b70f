package cmd

import (
	"log/slog"

	"github.com/fivestack-gg/fivestack/internal/config"
	"github.com/fivestack-gg/fivestack/internal/database"
	"github.com/fivestack-gg/fivestack/pkg/log"
	"github.com/spf13/cobra"
)

// migrateCmd applies the database schema without starting the app.
func migrateCmd() *cobra.Command {
	var downAll bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(_ *cobra.Command, _ []string) error {
			staticConfig, errStatic := config.ReadStatic(cfgFile)
			if errStatic != nil {
				return errStatic
			}

			action := database.MigrationAction(database.MigrateUp)
			if downAll {
				action = database.MigrateDn
			}

			dbConn := database.New(staticConfig.DatabaseDSN, false, false)
			if errMigrate := dbConn.Migrate(action); errMigrate != nil {
				slog.Error("Could not migrate schema", log.ErrAttr(errMigrate))

				return errMigrate
			}

			slog.Info("Schema migration complete")

			return nil
		},
	}

	cmd.Flags().BoolVarP(&downAll, "down", "d", false, "Fully reverts all migrations")

	return cmd
}
