package query

import (
	"context"

	"github.com/tair/insumos/internal/insumos/domain"
)

// GetCompanyQuery represents the query to load the authenticated company
type GetCompanyQuery struct {
	CompanyID string
}

type GetCompanyHandler struct {
	store domain.Store
}

func NewGetCompanyHandler(store domain.Store) *GetCompanyHandler {
	return &GetCompanyHandler{store: store}
}

func (h *GetCompanyHandler) Handle(ctx context.Context, query GetCompanyQuery) (*domain.Company, error) {
	return h.store.Repositories().Companies.FindByID(ctx, query.CompanyID)
}

// ListBranchesQuery lists the branches of a company, by name.
type ListBranchesQuery struct {
	CompanyID string
}

type ListBranchesHandler struct {
	store domain.Store
}

func NewListBranchesHandler(store domain.Store) *ListBranchesHandler {
	return &ListBranchesHandler{store: store}
}

func (h *ListBranchesHandler) Handle(ctx context.Context, query ListBranchesQuery) ([]domain.Branch, error) {
	branches, err := h.store.Repositories().Branches.FindByCompany(ctx, query.CompanyID)
	if err != nil {
		return nil, err
	}
	if branches == nil {
		branches = []domain.Branch{}
	}
	return branches, nil
}
