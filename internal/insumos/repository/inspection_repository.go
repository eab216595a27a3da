package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/insumos/internal/insumos/domain"
)

type GormInspectionRepository struct {
	db *gorm.DB
}

func NewGormInspectionRepository(db *gorm.DB) *GormInspectionRepository {
	return &GormInspectionRepository{db: db}
}

func (r *GormInspectionRepository) Create(ctx context.Context, inspection *domain.Inspection) error {
	return translateError(r.db.WithContext(ctx).Create(inspection).Error, "inspection")
}

func (r *GormInspectionRepository) FindByID(ctx context.Context, id uint) (*domain.Inspection, error) {
	var inspection domain.Inspection
	if err := r.db.WithContext(ctx).First(&inspection, id).Error; err != nil {
		return nil, translateError(err, "inspection")
	}
	return &inspection, nil
}

// FindByIDForUpdate issues SELECT ... FOR UPDATE. Outside a transaction the
// lock is released as soon as the statement finishes.
func (r *GormInspectionRepository) FindByIDForUpdate(ctx context.Context, id uint) (*domain.Inspection, error) {
	var inspection domain.Inspection
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&inspection, id).Error
	if err != nil {
		return nil, translateError(err, "inspection")
	}
	return &inspection, nil
}

func (r *GormInspectionRepository) FindByBranch(ctx context.Context, branchID string) ([]domain.Inspection, error) {
	var inspections []domain.Inspection
	err := r.db.WithContext(ctx).
		Where("filial_cnpj = ?", branchID).
		Order("data_inicio DESC, id DESC").
		Find(&inspections).Error
	return inspections, translateError(err, "inspection")
}

// Finalize only touches an open inspection; a closed one yields
// ErrAlreadyFinalized.
func (r *GormInspectionRepository) Finalize(ctx context.Context, id uint, endDate domain.Date) error {
	res := r.db.WithContext(ctx).Model(&domain.Inspection{}).
		Where("id = ? AND data_fim IS NULL", id).
		Update("data_fim", endDate)
	if res.Error != nil {
		return translateError(res.Error, "inspection")
	}
	if res.RowsAffected == 0 {
		return domain.ErrAlreadyFinalized
	}
	return nil
}

func (r *GormInspectionRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Inspection{}, id)
	return rowsOrNotFound(res, "inspection")
}
