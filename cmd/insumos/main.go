// Command insumos runs the inventory service and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tair/insumos/pkg/config"
	"github.com/tair/insumos/pkg/database"
	"github.com/tair/insumos/pkg/logger"
)

const version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "insumos:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var cfg config.Config

	root := &cobra.Command{
		Use:           "insumos",
		Short:         "Safety equipment inventory service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = *loaded

			logger.Init(cfg.Server.ServiceName, cfg.Server.IsDevelopment())
			logger.SetLevel(cfg.Server.LogLevel)
			return nil
		},
	}

	root.AddCommand(
		newServeCommand(&cfg),
		newMigrateCommand(&cfg),
		newWorkerCommand(&cfg),
	)
	return root
}

func databaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		LockTimeout:     cfg.Postgres.LockTimeout,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	}
}
