package expiry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/insumos/internal/insumos/domain"
)

func view(id uint, expiry domain.Date) domain.InventoryView {
	return domain.InventoryView{CurrentRecord: domain.CurrentRecord{ID: id, ExpiryDate: expiry}}
}

func ids(rows []ClassifiedRow) []uint {
	out := make([]uint, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestTierFor(t *testing.T) {
	today := domain.NewDate(2025, time.March, 10)

	tests := []struct {
		name   string
		expiry domain.Date
		want   Tier
	}{
		{"no date", domain.Date{}, TierOK},
		{"yesterday", today.AddDays(-1), TierExpired},
		{"today", today, TierWarning},
		{"30 days out", today.AddDays(30), TierWarning},
		{"31 days out", today.AddDays(31), TierOK},
		{"far future", domain.NewDate(2099, time.January, 1), TierOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TierFor(tt.expiry, today))
		})
	}
}

func TestClassifyOrdersByTierThenDate(t *testing.T) {
	today := domain.NewDate(2025, time.March, 10)
	rows := []domain.InventoryView{
		view(1, domain.NewDate(2024, time.January, 1)),
		view(2, domain.Date{}),
		view(3, domain.NewDate(2099, time.January, 1)),
		view(4, today.AddDays(10)),
	}

	got := Classify(rows, today)

	assert.Equal(t, []uint{3, 2, 4, 1}, ids(got))
	assert.Equal(t, []Tier{TierOK, TierOK, TierWarning, TierExpired},
		[]Tier{got[0].Tier, got[1].Tier, got[2].Tier, got[3].Tier})
}

func TestClassifyDirectionWithinTiers(t *testing.T) {
	today := domain.NewDate(2025, time.March, 10)
	rows := []domain.InventoryView{
		view(1, today.AddDays(100)),
		view(2, today.AddDays(400)),
		view(3, today.AddDays(20)),
		view(4, today.AddDays(5)),
		view(5, today.AddDays(-2)),
		view(6, today.AddDays(-40)),
	}

	got := Classify(rows, today)

	assert.Equal(t, []uint{2, 1, 4, 3, 6, 5}, ids(got))
}

func TestClassifyIsStableAndIdempotent(t *testing.T) {
	today := domain.NewDate(2025, time.March, 10)
	same := today.AddDays(60)
	rows := []domain.InventoryView{
		view(1, domain.Date{}),
		view(2, same),
		view(3, domain.Date{}),
		view(4, same),
	}

	first := Classify(rows, today)
	require.Equal(t, []uint{2, 4, 1, 3}, ids(first))

	again := make([]domain.InventoryView, len(first))
	for i, r := range first {
		again[i] = r.InventoryView
	}
	assert.Equal(t, first, Classify(again, today))
	assert.Equal(t, first, Classify(rows, today))
}

func TestClassifyDoesNotModifyInput(t *testing.T) {
	today := domain.NewDate(2025, time.March, 10)
	rows := []domain.InventoryView{view(1, today.AddDays(-1)), view(2, today.AddDays(90))}

	Classify(rows, today)

	assert.Equal(t, uint(1), rows[0].ID)
	assert.Equal(t, uint(2), rows[1].ID)
}

func TestClassifyDaysUntil(t *testing.T) {
	today := domain.NewDate(2025, time.March, 10)

	got := Classify([]domain.InventoryView{view(1, today.AddDays(3)), view(2, domain.Date{})}, today)

	require.NotNil(t, got[1].DaysUntil)
	assert.Equal(t, 3, *got[1].DaysUntil)
	assert.Nil(t, got[0].DaysUntil)
}
