package report

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tair/insumos/internal/insumos/domain"
)

// inventoryQuery shares its select list with the repository listing, so the
// report and the listing scan the same columns.
const inventoryQuery = domain.InventoryViewSelect + `
WHERE f.filial_cnpj = ?
ORDER BY f.id`

type inventoryRow struct {
	ID           uint        `db:"id"`
	ItemTypeID   uint        `db:"insumo_id"`
	BranchID     string      `db:"filial_cnpj"`
	SerialNumber *string     `db:"numero_serial"`
	ExpiryDate   domain.Date `db:"validade"`
	Location     string      `db:"local"`
	Note         string      `db:"observacao"`
	UpdatedAt    time.Time   `db:"atualizado_em"`
	Description  string      `db:"descricao"`
	Image        string      `db:"imagem"`
}

// SQLSource reads report rows with plain SQL, bypassing the ORM.
type SQLSource struct {
	db *sqlx.DB
}

func NewSQLSource(db *sqlx.DB) *SQLSource {
	return &SQLSource{db: db}
}

func (s *SQLSource) InventoryRows(ctx context.Context, branchID string) ([]domain.InventoryView, error) {
	var rows []inventoryRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(inventoryQuery), branchID); err != nil {
		return nil, err
	}

	out := make([]domain.InventoryView, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.InventoryView{
			CurrentRecord: domain.CurrentRecord{
				ID:           r.ID,
				ItemTypeID:   r.ItemTypeID,
				BranchID:     r.BranchID,
				SerialNumber: r.SerialNumber,
				ExpiryDate:   r.ExpiryDate,
				Location:     r.Location,
				Note:         r.Note,
				UpdatedAt:    r.UpdatedAt,
			},
			Description: r.Description,
			Image:       r.Image,
		})
	}
	return out, nil
}

// StoreSource reads report rows through the storage capability. It backs
// memory runs, where there is no SQL database.
type StoreSource struct {
	store domain.Store
}

func NewStoreSource(store domain.Store) *StoreSource {
	return &StoreSource{store: store}
}

func (s *StoreSource) InventoryRows(ctx context.Context, branchID string) ([]domain.InventoryView, error) {
	return s.store.Repositories().Current.FindByBranch(ctx, branchID)
}
