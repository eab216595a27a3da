package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"

	"github.com/tair/insumos/pkg/logger"
)

// Direction of a migration run.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Migrate applies the SQL files of migrations to db. ErrNoChange is not an
// error.
func Migrate(db *sql.DB, migrations fs.FS, direction Direction, steps int) error {
	src, err := iofs.New(migrations, ".")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	m.Log = &migrateLogger{log: logger.Logger}

	switch {
	case steps != 0 && direction == Down:
		err = m.Steps(-steps)
	case steps != 0:
		err = m.Steps(steps)
	case direction == Down:
		err = m.Down()
	default:
		err = m.Up()
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Logger.Info().Msg("Database migration: no change needed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", direction, err)
	}

	version, dirty, verr := m.Version()
	if verr == nil {
		logger.Logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("Database migrated")
	}
	return nil
}

type migrateLogger struct {
	log zerolog.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.log.Info().Msgf("DB Migration: "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return l.log.GetLevel() <= zerolog.DebugLevel
}
