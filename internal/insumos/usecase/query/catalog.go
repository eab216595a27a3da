package query

import (
	"context"

	"github.com/tair/insumos/internal/insumos/domain"
)

// ListItemTypesHandler returns the shared catalog ordered by description.
type ListItemTypesHandler struct {
	store domain.Store
}

func NewListItemTypesHandler(store domain.Store) *ListItemTypesHandler {
	return &ListItemTypesHandler{store: store}
}

func (h *ListItemTypesHandler) Handle(ctx context.Context) ([]domain.ItemType, error) {
	itemTypes, err := h.store.Repositories().ItemTypes.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if itemTypes == nil {
		itemTypes = []domain.ItemType{}
	}
	return itemTypes, nil
}

// GetItemTypeQuery represents the query to get a catalog entry by id
type GetItemTypeQuery struct {
	ID uint
}

type GetItemTypeHandler struct {
	store domain.Store
}

func NewGetItemTypeHandler(store domain.Store) *GetItemTypeHandler {
	return &GetItemTypeHandler{store: store}
}

func (h *GetItemTypeHandler) Handle(ctx context.Context, query GetItemTypeQuery) (*domain.ItemType, error) {
	if query.ID == 0 {
		return nil, domain.Validation("invalid item type id")
	}
	return h.store.Repositories().ItemTypes.FindByID(ctx, query.ID)
}
