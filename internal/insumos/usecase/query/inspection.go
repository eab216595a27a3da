package query

import (
	"context"

	"github.com/tair/insumos/internal/insumos/domain"
)

// InspectionSummary is an inspection with its derived status.
type InspectionSummary struct {
	domain.Inspection
	Status string `json:"status"`
}

// InspectionDetail adds the observations recorded during the inspection.
type InspectionDetail struct {
	InspectionSummary
	Items []domain.HistoryView `json:"items"`
}

func summarize(in domain.Inspection) InspectionSummary {
	return InspectionSummary{Inspection: in, Status: in.Status()}
}

// ListInspectionsQuery lists a branch's inspections, newest first.
type ListInspectionsQuery struct {
	CompanyID string
	BranchID  string
}

type ListInspectionsHandler struct {
	store domain.Store
}

func NewListInspectionsHandler(store domain.Store) *ListInspectionsHandler {
	return &ListInspectionsHandler{store: store}
}

func (h *ListInspectionsHandler) Handle(ctx context.Context, query ListInspectionsQuery) ([]InspectionSummary, error) {
	repos := h.store.Repositories()
	if _, err := domain.OwnedBranch(ctx, repos.Branches, query.BranchID, query.CompanyID); err != nil {
		return nil, err
	}

	inspections, err := repos.Inspections.FindByBranch(ctx, query.BranchID)
	if err != nil {
		return nil, err
	}
	out := make([]InspectionSummary, 0, len(inspections))
	for _, in := range inspections {
		out = append(out, summarize(in))
	}
	return out, nil
}

// GetInspectionQuery loads one inspection with its items.
type GetInspectionQuery struct {
	CompanyID    string
	InspectionID uint
}

type GetInspectionHandler struct {
	store domain.Store
}

func NewGetInspectionHandler(store domain.Store) *GetInspectionHandler {
	return &GetInspectionHandler{store: store}
}

func (h *GetInspectionHandler) Handle(ctx context.Context, query GetInspectionQuery) (*InspectionDetail, error) {
	repos := h.store.Repositories()
	in, err := domain.OwnedInspection(ctx, repos, query.InspectionID, query.CompanyID, false)
	if err != nil {
		return nil, err
	}

	items, err := repos.History.FindByInspection(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.HistoryView{}
	}
	return &InspectionDetail{InspectionSummary: summarize(*in), Items: items}, nil
}
