package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/internal/insumos/report"
	"github.com/tair/insumos/internal/insumos/repository"
	"github.com/tair/insumos/internal/insumos/repository/memory"
	"github.com/tair/insumos/pkg/config"
	"github.com/tair/insumos/pkg/database"
	"github.com/tair/insumos/pkg/logger"
)

// backend is the storage selected by STORAGE_DRIVER.
type backend struct {
	store  domain.Store
	source report.Source
	ping   func(ctx context.Context) error
	close  func() error
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.Storage.Driver == "memory" {
		logger.Logger.Warn().Msg("Using in-memory storage; data is lost on restart")
		store := memory.NewStore(memory.WithItemTypes(baseCatalog...))
		return &backend{
			store:  store,
			source: report.NewStoreSource(store),
			ping:   func(context.Context) error { return nil },
			close:  func() error { return nil },
		}, nil
	}

	db, err := database.NewGormConnection(ctx, databaseConfig(cfg), repository.TracingPlugin{})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	logger.Logger.Info().
		Str("host", cfg.Postgres.Host).
		Str("database", cfg.Postgres.DBName).
		Dur("lock_timeout", cfg.Postgres.LockTimeout).
		Msg("Database initialized successfully")

	return &backend{
		store:  repository.NewGormStore(db),
		source: report.NewSQLSource(sqlx.NewDb(sqlDB, "postgres")),
		ping:   sqlDB.PingContext,
		close:  sqlDB.Close,
	}, nil
}

// baseCatalog mirrors the seed migration for the in-memory driver.
var baseCatalog = []domain.ItemType{
	{Description: "Extintor de Incêndio ABC", Image: "uploads/base/extintor_abc.png", Base: true},
	{Description: "Extintor de Incêndio BC", Image: "uploads/base/extintor_bc.png", Base: true},
	{Description: "Extintor de Incêndio CO2", Image: "uploads/base/extintor_co2.png", Base: true},
	{Description: "Extintor de Incêndio Água", Image: "uploads/base/extintor_agua.png", Base: true},
	{Description: "Mangueira de Incêndio", Image: "uploads/base/mangueira.png", Base: true},
	{Description: "Luminária de Emergência", Image: "uploads/base/luminaria_emergencia.png", Base: true},
	{Description: "Detector de Fumaça", Image: "uploads/base/detector_fumaca.png", Base: true},
	{Description: "Kit de Primeiros Socorros", Image: "uploads/base/primeiros_socorros.png", Base: true},
}
