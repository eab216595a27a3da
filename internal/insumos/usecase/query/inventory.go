package query

import (
	"context"

	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/internal/insumos/expiry"
	"github.com/tair/insumos/pkg/logger"
)

// ListingCache holds classified listings per branch, version and day. A
// listing is stored under the version read before it was loaded.
type ListingCache interface {
	Version(ctx context.Context, branchID string) (string, bool)
	Get(ctx context.Context, branchID, version string, day domain.Date) ([]expiry.ClassifiedRow, bool)
	Set(ctx context.Context, branchID, version string, day domain.Date, rows []expiry.ClassifiedRow)
}

// ListInventoryQuery lists the live inventory of a branch.
type ListInventoryQuery struct {
	CompanyID string
	BranchID  string
}

// ListInventoryHandler returns live rows classified against today and
// ordered for display.
type ListInventoryHandler struct {
	store domain.Store
	clock domain.Clock
	cache ListingCache
}

// NewListInventoryHandler accepts a nil cache.
func NewListInventoryHandler(store domain.Store, clock domain.Clock, cache ListingCache) *ListInventoryHandler {
	return &ListInventoryHandler{store: store, clock: clock, cache: cache}
}

func (h *ListInventoryHandler) Handle(ctx context.Context, query ListInventoryQuery) ([]expiry.ClassifiedRow, error) {
	repos := h.store.Repositories()
	if _, err := domain.OwnedBranch(ctx, repos.Branches, query.BranchID, query.CompanyID); err != nil {
		return nil, err
	}

	today := domain.Today(h.clock)
	var (
		version   string
		cacheable bool
	)
	if h.cache != nil {
		version, cacheable = h.cache.Version(ctx, query.BranchID)
	}
	if cacheable {
		if rows, ok := h.cache.Get(ctx, query.BranchID, version, today); ok {
			return rows, nil
		}
	}

	views, err := repos.Current.FindByBranch(ctx, query.BranchID)
	if err != nil {
		return nil, err
	}
	rows := expiry.Classify(views, today)

	if cacheable {
		h.cache.Set(ctx, query.BranchID, version, today, rows)
	}
	logger.Debug(ctx).Str("branch_id", query.BranchID).Int("rows", len(rows)).Msg("Inventory listed")
	return rows, nil
}

// GetItemHistoryQuery asks for every observation of the physical item behind
// a live row.
type GetItemHistoryQuery struct {
	CompanyID string
	RecordID  uint
}

// ItemHistory is a live row and its observations, newest first.
type ItemHistory struct {
	Current domain.CurrentRecord `json:"current"`
	History []domain.HistoryView `json:"history"`
}

type GetItemHistoryHandler struct {
	store domain.Store
}

func NewGetItemHistoryHandler(store domain.Store) *GetItemHistoryHandler {
	return &GetItemHistoryHandler{store: store}
}

// Handle joins the ledgers on (branch, item type, serial) with null-safe
// serial equality.
func (h *GetItemHistoryHandler) Handle(ctx context.Context, query GetItemHistoryQuery) (*ItemHistory, error) {
	repos := h.store.Repositories()
	current, err := domain.OwnedCurrentRecord(ctx, repos, query.RecordID, query.CompanyID, false)
	if err != nil {
		return nil, err
	}

	history, err := repos.History.FindByIdentity(ctx, current.Identity())
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []domain.HistoryView{}
	}
	return &ItemHistory{Current: *current, History: history}, nil
}
