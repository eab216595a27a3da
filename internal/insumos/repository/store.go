package repository

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/tair/insumos/internal/insumos/domain"
)

// GormStore is the Postgres implementation of domain.Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying handle for health checks.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) Repositories() domain.Repositories {
	return repositoriesFor(s.db)
}

// Transaction runs fn inside a database transaction. gorm rolls back when fn
// returns an error or panics.
func (s *GormStore) Transaction(ctx context.Context, fn func(repos domain.Repositories) error) error {
	ctx, span := tracer.Start(ctx, "store.Transaction")
	defer span.End()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repositoriesFor(tx))
	})
	if err != nil {
		err = translateError(err, "record")
		if domain.KindOf(err) == domain.KindInternal || domain.KindOf(err) == domain.KindTransient {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	return err
}

func repositoriesFor(db *gorm.DB) domain.Repositories {
	return domain.Repositories{
		Companies:   NewGormCompanyRepository(db),
		Branches:    NewGormBranchRepository(db),
		ItemTypes:   NewGormItemTypeRepository(db),
		Inspections: NewGormInspectionRepository(db),
		History:     NewGormHistoryRepository(db),
		Current:     NewGormCurrentInventoryRepository(db),
	}
}
