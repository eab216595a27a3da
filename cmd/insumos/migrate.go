package main

import (
	"github.com/spf13/cobra"

	"github.com/tair/insumos/migrations"
	"github.com/tair/insumos/pkg/config"
	"github.com/tair/insumos/pkg/database"
	"github.com/tair/insumos/pkg/logger"
)

func newMigrateCommand(cfg *config.Config) *cobra.Command {
	var (
		down  bool
		steps int
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := database.NewPostgresConnection(cmd.Context(), databaseConfig(cfg))
			if err != nil {
				return err
			}
			defer db.Close()

			direction := database.Up
			if down {
				direction = database.Down
			}
			logger.Logger.Info().Str("direction", string(direction)).Int("steps", steps).Msg("Running migrations")
			return database.Migrate(db, migrations.FS, direction, steps)
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back instead of applying")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of migrations to apply or roll back (0 = all)")
	return cmd
}
