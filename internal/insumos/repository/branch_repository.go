package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tair/insumos/internal/insumos/domain"
)

type GormBranchRepository struct {
	db *gorm.DB
}

func NewGormBranchRepository(db *gorm.DB) *GormBranchRepository {
	return &GormBranchRepository{db: db}
}

func (r *GormBranchRepository) Create(ctx context.Context, branch *domain.Branch) error {
	return translateError(r.db.WithContext(ctx).Create(branch).Error, "branch")
}

func (r *GormBranchRepository) FindByID(ctx context.Context, id string) (*domain.Branch, error) {
	var branch domain.Branch
	if err := r.db.WithContext(ctx).Where("cnpj = ?", id).First(&branch).Error; err != nil {
		return nil, translateError(err, "branch")
	}
	return &branch, nil
}

func (r *GormBranchRepository) FindByCompany(ctx context.Context, companyID string) ([]domain.Branch, error) {
	var branches []domain.Branch
	err := r.db.WithContext(ctx).
		Where("empresa_cnpj = ?", companyID).
		Order("nome ASC").
		Find(&branches).Error
	return branches, translateError(err, "branch")
}

func (r *GormBranchRepository) Update(ctx context.Context, branch *domain.Branch) error {
	res := r.db.WithContext(ctx).Model(&domain.Branch{}).
		Where("cnpj = ?", branch.ID).
		Updates(map[string]any{
			"nome":              branch.Name,
			"endereco":          branch.Address,
			"email_responsavel": branch.ResponsibleEmail,
		})
	return rowsOrNotFound(res, "branch")
}

func (r *GormBranchRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("cnpj = ?", id).Delete(&domain.Branch{})
	return rowsOrNotFound(res, "branch")
}
