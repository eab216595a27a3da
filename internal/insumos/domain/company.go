package domain

import (
	"context"
	"time"
)

// Company owns branches. Its ID is the company tax identifier (CNPJ).
type Company struct {
	ID        string    `json:"id" gorm:"column:cnpj;primaryKey"`
	Name      string    `json:"name" gorm:"column:nome;not null"`
	Email     string    `json:"email" gorm:"column:email;uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"column:senha;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:criado_em;autoCreateTime"`
}

// TableName specifies the table name
func (Company) TableName() string {
	return "empresas"
}

// CompanyRepository defines the contract for company data access
type CompanyRepository interface {
	Create(ctx context.Context, company *Company) error
	FindByID(ctx context.Context, id string) (*Company, error)
	FindByEmail(ctx context.Context, email string) (*Company, error)
	Update(ctx context.Context, company *Company) error
}
