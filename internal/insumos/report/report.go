// Package report assembles the classified inventory of a branch into a
// document-ready shape and renders it as CSV or PDF.
package report

import (
	"context"
	"fmt"

	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/internal/insumos/expiry"
	"github.com/tair/insumos/pkg/logger"
)

// Row is one inventory line of a report.
type Row struct {
	Description  string      `json:"descricao"`
	SerialNumber *string     `json:"numero_serial"`
	Location     string      `json:"local"`
	ExpiryDate   domain.Date `json:"validade"`
	SortStatus   expiry.Tier `json:"sortStatus"`
	Image        string      `json:"imagem"`
}

// Report is a branch snapshot as of GeneratedOn.
type Report struct {
	Branch      domain.Branch `json:"branch"`
	GeneratedOn domain.Date   `json:"generated_on"`
	Rows        []Row         `json:"rows"`
}

// Count returns how many rows fall into each tier.
func (r *Report) Count(tier expiry.Tier) int {
	n := 0
	for _, row := range r.Rows {
		if row.SortStatus == tier {
			n++
		}
	}
	return n
}

// Source reads the live inventory of a branch joined with the catalog.
type Source interface {
	InventoryRows(ctx context.Context, branchID string) ([]domain.InventoryView, error)
}

// Assembler builds reports for branches owned by the caller.
type Assembler struct {
	store  domain.Store
	source Source
	clock  domain.Clock
}

func NewAssembler(store domain.Store, source Source, clock domain.Clock) *Assembler {
	return &Assembler{store: store, source: source, clock: clock}
}

// Build returns the rows ordered exactly as the inventory listing.
func (a *Assembler) Build(ctx context.Context, companyID, branchID string) (*Report, error) {
	branch, err := domain.OwnedBranch(ctx, a.store.Repositories().Branches, branchID, companyID)
	if err != nil {
		return nil, err
	}

	views, err := a.source.InventoryRows(ctx, branchID)
	if err != nil {
		return nil, domain.Internal("failed to read report rows", fmt.Errorf("branch %s: %w", branchID, err))
	}

	today := domain.Today(a.clock)
	classified := expiry.Classify(views, today)
	rows := make([]Row, 0, len(classified))
	for _, c := range classified {
		rows = append(rows, Row{
			Description:  c.Description,
			SerialNumber: c.SerialNumber,
			Location:     c.Location,
			ExpiryDate:   c.NormalizedDate,
			SortStatus:   c.Tier,
			Image:        c.Image,
		})
	}

	logger.Info(ctx).Str("branch_id", branchID).Int("rows", len(rows)).Msg("Report assembled")
	return &Report{Branch: *branch, GeneratedOn: today, Rows: rows}, nil
}

// formatDate renders a date the way Brazilian spreadsheets expect it.
func formatDate(d domain.Date) string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

func serialText(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func statusLabel(t expiry.Tier) string {
	switch t {
	case expiry.TierWarning:
		return "A vencer"
	case expiry.TierExpired:
		return "Vencido"
	default:
		return "Em dia"
	}
}
