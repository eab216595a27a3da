package domain

import "context"

// ItemType is a catalog entry (insumo) shared by every company. Base
// entries are seeded with the schema and are read-only.
type ItemType struct {
	ID          uint   `json:"id" gorm:"column:id;primaryKey"`
	Description string `json:"description" gorm:"column:descricao;uniqueIndex;not null"`
	Image       string `json:"image" gorm:"column:imagem"`
	Base        bool   `json:"base" gorm:"column:base;not null;default:false"`
}

// TableName specifies the table name
func (ItemType) TableName() string {
	return "insumos"
}

// ItemTypeRepository defines the contract for catalog data access
type ItemTypeRepository interface {
	FindByID(ctx context.Context, id uint) (*ItemType, error)
	FindByDescription(ctx context.Context, description string) (*ItemType, error)
	// CreateIfAbsent inserts the type unless its description exists already.
	// It reports whether a row was inserted; on false the caller re-fetches.
	CreateIfAbsent(ctx context.Context, itemType *ItemType) (bool, error)
	FindAll(ctx context.Context) ([]ItemType, error)
	Update(ctx context.Context, itemType *ItemType) error
	Delete(ctx context.Context, id uint) error
	IsReferenced(ctx context.Context, id uint) (bool, error)
}
