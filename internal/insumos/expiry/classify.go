// Package expiry classifies live inventory rows by freshness and orders them
// for listing and reporting.
package expiry

import (
	"slices"

	"github.com/tair/insumos/internal/insumos/domain"
)

// Tier is the freshness status of a row. The numeric values are part of the
// report contract (sortStatus).
type Tier int

const (
	TierOK      Tier = 1
	TierWarning Tier = 2
	TierExpired Tier = 3
)

// WarningWindowDays is how close to expiry a row turns into a warning.
const WarningWindowDays = 30

func (t Tier) String() string {
	switch t {
	case TierWarning:
		return "warning"
	case TierExpired:
		return "expired"
	default:
		return "ok"
	}
}

// ClassifiedRow is an inventory row with its tier and normalized expiry.
type ClassifiedRow struct {
	domain.InventoryView
	Tier           Tier        `json:"sort_status"`
	NormalizedDate domain.Date `json:"normalized_expiry_date"`
	DaysUntil      *int        `json:"days_until_expiry,omitempty"`
}

// TierFor computes the tier of an expiry date relative to today.
func TierFor(expiry, today domain.Date) Tier {
	if expiry.IsZero() {
		return TierOK
	}
	days := today.DaysUntil(expiry)
	switch {
	case days < 0:
		return TierExpired
	case days <= WarningWindowDays:
		return TierWarning
	default:
		return TierOK
	}
}

// Classify tags every row with its tier and returns them ordered: OK first
// (latest expiry first), then Warning and Expired (soonest expiry first).
// Rows without a date always sort after dated rows of the same tier. The
// input is not modified and the sort is stable.
func Classify(rows []domain.InventoryView, today domain.Date) []ClassifiedRow {
	out := make([]ClassifiedRow, 0, len(rows))
	for _, row := range rows {
		c := ClassifiedRow{
			InventoryView:  row,
			Tier:           TierFor(row.ExpiryDate, today),
			NormalizedDate: row.ExpiryDate,
		}
		if !row.ExpiryDate.IsZero() {
			d := today.DaysUntil(row.ExpiryDate)
			c.DaysUntil = &d
		}
		out = append(out, c)
	}
	slices.SortStableFunc(out, compare)
	return out
}

func compare(a, b ClassifiedRow) int {
	if a.Tier != b.Tier {
		return int(a.Tier) - int(b.Tier)
	}
	aNull, bNull := a.NormalizedDate.IsZero(), b.NormalizedDate.IsZero()
	switch {
	case aNull && bNull:
		return 0
	case aNull:
		return 1
	case bNull:
		return -1
	}
	if a.Tier == TierOK {
		return b.NormalizedDate.Compare(a.NormalizedDate)
	}
	return a.NormalizedDate.Compare(b.NormalizedDate)
}
