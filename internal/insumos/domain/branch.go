package domain

import (
	"context"
	"time"
)

// Branch (filial) is a physical location of a company. Its ID is the
// branch tax identifier and is unique across all companies.
type Branch struct {
	ID               string    `json:"id" gorm:"column:cnpj;primaryKey"`
	CompanyID        string    `json:"company_id" gorm:"column:empresa_cnpj;not null;index"`
	Name             string    `json:"name" gorm:"column:nome;not null"`
	Address          string    `json:"address" gorm:"column:endereco"`
	ResponsibleEmail string    `json:"responsible_email" gorm:"column:email_responsavel"`
	CreatedAt        time.Time `json:"created_at" gorm:"column:criado_em;autoCreateTime"`
}

// TableName specifies the table name
func (Branch) TableName() string {
	return "filiais"
}

// BranchRepository defines the contract for branch data access
type BranchRepository interface {
	Create(ctx context.Context, branch *Branch) error
	FindByID(ctx context.Context, id string) (*Branch, error)
	FindByCompany(ctx context.Context, companyID string) ([]Branch, error)
	Update(ctx context.Context, branch *Branch) error
	Delete(ctx context.Context, id string) error
}
