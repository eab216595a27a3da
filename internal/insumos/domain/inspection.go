package domain

import "context"

// Inspection (vistoria) is open while EndDate is zero. Finalized is terminal.
type Inspection struct {
	ID         uint   `json:"id" gorm:"column:id;primaryKey"`
	BranchID   string `json:"branch_id" gorm:"column:filial_cnpj;not null;index"`
	StartDate  Date   `json:"start_date" gorm:"column:data_inicio;type:date;not null"`
	EndDate    Date   `json:"end_date" gorm:"column:data_fim;type:date"`
	Technician string `json:"technician" gorm:"column:tecnico;not null"`
}

// TableName specifies the table name
func (Inspection) TableName() string {
	return "vistorias"
}

// IsFinalized checks if the inspection has been closed
func (i *Inspection) IsFinalized() bool {
	return !i.EndDate.IsZero()
}

// Status is "open" or "finalized".
func (i *Inspection) Status() string {
	if i.IsFinalized() {
		return "finalized"
	}
	return "open"
}

// InspectionRepository defines the contract for inspection data access
type InspectionRepository interface {
	Create(ctx context.Context, inspection *Inspection) error
	FindByID(ctx context.Context, id uint) (*Inspection, error)
	// FindByIDForUpdate locks the row until the enclosing transaction ends.
	FindByIDForUpdate(ctx context.Context, id uint) (*Inspection, error)
	FindByBranch(ctx context.Context, branchID string) ([]Inspection, error)
	Finalize(ctx context.Context, id uint, endDate Date) error
	// Delete removes the inspection; its history rows go with it.
	Delete(ctx context.Context, id uint) error
}
