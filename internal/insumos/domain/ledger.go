package domain

import (
	"context"
	"time"
)

// ItemIdentity is the join key between the two ledgers. SerialNumber uses
// null-safe equality: two nil serials are the same item.
type ItemIdentity struct {
	BranchID     string
	ItemTypeID   uint
	SerialNumber *string
}

// Matches compares with null-safe serial semantics.
func (k ItemIdentity) Matches(o ItemIdentity) bool {
	return k.BranchID == o.BranchID && k.ItemTypeID == o.ItemTypeID && SerialsEqual(k.SerialNumber, o.SerialNumber)
}

// SerialsEqual is IS NOT DISTINCT FROM for serial numbers.
func SerialsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// HistoryRecord is one immutable observation of an item. InspectionID is nil
// for observations made outside any inspection.
type HistoryRecord struct {
	ID           uint      `json:"id" gorm:"column:id;primaryKey"`
	ItemTypeID   uint      `json:"item_type_id" gorm:"column:insumo_id;not null"`
	BranchID     string    `json:"branch_id" gorm:"column:filial_cnpj;not null"`
	InspectionID *uint     `json:"inspection_id" gorm:"column:vistoria_id"`
	SerialNumber *string   `json:"serial_number" gorm:"column:numero_serial"`
	ExpiryDate   Date      `json:"expiry_date" gorm:"column:validade;type:date"`
	Location     string    `json:"location" gorm:"column:local;not null"`
	Note         string    `json:"note" gorm:"column:observacao"`
	RecordedAt   time.Time `json:"recorded_at" gorm:"column:registrado_em;autoCreateTime"`
}

// TableName specifies the table name
func (HistoryRecord) TableName() string {
	return "historico_insumos"
}

// Identity returns the ledger join key of the record.
func (h *HistoryRecord) Identity() ItemIdentity {
	return ItemIdentity{BranchID: h.BranchID, ItemTypeID: h.ItemTypeID, SerialNumber: h.SerialNumber}
}

// CurrentRecord is the live state of one physical item in a branch.
type CurrentRecord struct {
	ID           uint      `json:"id" gorm:"column:id;primaryKey"`
	ItemTypeID   uint      `json:"item_type_id" gorm:"column:insumo_id;not null"`
	BranchID     string    `json:"branch_id" gorm:"column:filial_cnpj;not null"`
	SerialNumber *string   `json:"serial_number" gorm:"column:numero_serial"`
	ExpiryDate   Date      `json:"expiry_date" gorm:"column:validade;type:date"`
	Location     string    `json:"location" gorm:"column:local;not null"`
	Note         string    `json:"note" gorm:"column:observacao"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:atualizado_em;autoUpdateTime"`
}

// TableName specifies the table name
func (CurrentRecord) TableName() string {
	return "insumos_filial"
}

// Identity returns the ledger join key of the record.
func (c *CurrentRecord) Identity() ItemIdentity {
	return ItemIdentity{BranchID: c.BranchID, ItemTypeID: c.ItemTypeID, SerialNumber: c.SerialNumber}
}

// InventoryView is a current record joined with its catalog entry.
// InventoryViewSelect reads InventoryView rows. Callers append the WHERE
// clause, aliasing insumos_filial as f and insumos as i.
const InventoryViewSelect = `SELECT f.id, f.insumo_id, f.filial_cnpj, f.numero_serial, f.validade, f.local,
       COALESCE(f.observacao, '') AS observacao, f.atualizado_em,
       i.descricao, COALESCE(i.imagem, '') AS imagem
FROM insumos_filial f
JOIN insumos i ON i.id = f.insumo_id`

type InventoryView struct {
	CurrentRecord
	Description string `json:"description" gorm:"column:descricao"`
	Image       string `json:"image" gorm:"column:imagem"`
}

// HistoryView is a history record joined with its catalog entry and, when
// present, its inspection.
type HistoryView struct {
	HistoryRecord
	Description     string `json:"description" gorm:"column:descricao"`
	Image           string `json:"image" gorm:"column:imagem"`
	InspectionStart Date   `json:"inspection_start" gorm:"column:data_inicio"`
	Technician      string `json:"technician,omitempty" gorm:"column:tecnico"`
}

// HistoryRepository is the append-only ledger. There is deliberately no
// Update.
type HistoryRepository interface {
	Create(ctx context.Context, record *HistoryRecord) error
	FindByID(ctx context.Context, id uint) (*HistoryRecord, error)
	FindByInspection(ctx context.Context, inspectionID uint) ([]HistoryView, error)
	FindByIdentity(ctx context.Context, identity ItemIdentity) ([]HistoryView, error)
	ExistsInInspection(ctx context.Context, inspectionID uint, itemTypeID uint, serial *string) (bool, error)
	Delete(ctx context.Context, id uint) error
}

// CurrentInventoryRepository is the mutable live ledger.
type CurrentInventoryRepository interface {
	Create(ctx context.Context, record *CurrentRecord) error
	FindByID(ctx context.Context, id uint) (*CurrentRecord, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*CurrentRecord, error)
	// FindByIdentityForUpdate returns (nil, nil) when no row matches.
	FindByIdentityForUpdate(ctx context.Context, identity ItemIdentity) (*CurrentRecord, error)
	FindByBranch(ctx context.Context, branchID string) ([]InventoryView, error)
	Update(ctx context.Context, record *CurrentRecord) error
	Delete(ctx context.Context, id uint) error
	// DeleteMatchingInspection removes every current row whose identity
	// matches a history row of the inspection.
	DeleteMatchingInspection(ctx context.Context, inspectionID uint) (int64, error)
}
