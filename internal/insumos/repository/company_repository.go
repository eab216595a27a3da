package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tair/insumos/internal/insumos/domain"
)

type GormCompanyRepository struct {
	db *gorm.DB
}

func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

func (r *GormCompanyRepository) Create(ctx context.Context, company *domain.Company) error {
	return translateError(r.db.WithContext(ctx).Create(company).Error, "company")
}

func (r *GormCompanyRepository) FindByID(ctx context.Context, id string) (*domain.Company, error) {
	var company domain.Company
	if err := r.db.WithContext(ctx).Where("cnpj = ?", id).First(&company).Error; err != nil {
		return nil, translateError(err, "company")
	}
	return &company, nil
}

func (r *GormCompanyRepository) FindByEmail(ctx context.Context, email string) (*domain.Company, error) {
	var company domain.Company
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&company).Error; err != nil {
		return nil, translateError(err, "company")
	}
	return &company, nil
}

func (r *GormCompanyRepository) Update(ctx context.Context, company *domain.Company) error {
	res := r.db.WithContext(ctx).Model(&domain.Company{}).
		Where("cnpj = ?", company.ID).
		Updates(map[string]any{"nome": company.Name, "email": company.Email, "senha": company.Password})
	return rowsOrNotFound(res, "company")
}
