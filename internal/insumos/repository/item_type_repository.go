package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/insumos/internal/insumos/domain"
)

type GormItemTypeRepository struct {
	db *gorm.DB
}

func NewGormItemTypeRepository(db *gorm.DB) *GormItemTypeRepository {
	return &GormItemTypeRepository{db: db}
}

func (r *GormItemTypeRepository) FindByID(ctx context.Context, id uint) (*domain.ItemType, error) {
	var itemType domain.ItemType
	if err := r.db.WithContext(ctx).First(&itemType, id).Error; err != nil {
		return nil, translateError(err, "item type")
	}
	return &itemType, nil
}

func (r *GormItemTypeRepository) FindByDescription(ctx context.Context, description string) (*domain.ItemType, error) {
	var itemType domain.ItemType
	if err := r.db.WithContext(ctx).Where("descricao = ?", description).First(&itemType).Error; err != nil {
		return nil, translateError(err, "item type")
	}
	return &itemType, nil
}

// CreateIfAbsent relies on the unique index on descricao: a concurrent
// insert of the same description becomes a no-op instead of a duplicate.
func (r *GormItemTypeRepository) CreateIfAbsent(ctx context.Context, itemType *domain.ItemType) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "descricao"}},
			DoNothing: true,
		}).
		Create(itemType)
	if res.Error != nil {
		return false, translateError(res.Error, "item type")
	}
	return res.RowsAffected > 0, nil
}

func (r *GormItemTypeRepository) FindAll(ctx context.Context) ([]domain.ItemType, error) {
	var itemTypes []domain.ItemType
	err := r.db.WithContext(ctx).Order("descricao ASC").Find(&itemTypes).Error
	return itemTypes, translateError(err, "item type")
}

func (r *GormItemTypeRepository) Update(ctx context.Context, itemType *domain.ItemType) error {
	res := r.db.WithContext(ctx).Model(&domain.ItemType{}).
		Where("id = ?", itemType.ID).
		Updates(map[string]any{"descricao": itemType.Description, "imagem": itemType.Image})
	return rowsOrNotFound(res, "item type")
}

func (r *GormItemTypeRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.ItemType{}, id)
	return rowsOrNotFound(res, "item type")
}

// IsReferenced checks both ledgers.
func (r *GormItemTypeRepository) IsReferenced(ctx context.Context, id uint) (bool, error) {
	var referenced bool
	err := r.db.WithContext(ctx).Raw(
		`SELECT EXISTS (SELECT 1 FROM insumos_filial WHERE insumo_id = ?)
		     OR EXISTS (SELECT 1 FROM historico_insumos WHERE insumo_id = ?)`,
		id, id,
	).Scan(&referenced).Error
	return referenced, translateError(err, "item type")
}
