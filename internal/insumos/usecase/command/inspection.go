package command

import (
	"context"

	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/pkg/logger"
)

// CreateInspectionCommand opens an inspection on a branch, starting today.
type CreateInspectionCommand struct {
	CompanyID  string
	BranchID   string
	Technician string
}

type CreateInspectionHandler struct {
	store    domain.Store
	clock    domain.Clock
	notifier *Notifier
}

func NewCreateInspectionHandler(store domain.Store, clock domain.Clock, notifier *Notifier) *CreateInspectionHandler {
	return &CreateInspectionHandler{store: store, clock: clock, notifier: notifier}
}

func (h *CreateInspectionHandler) Handle(ctx context.Context, cmd CreateInspectionCommand) (*domain.Inspection, error) {
	technician, err := required("technician", cmd.Technician)
	if err != nil {
		return nil, err
	}

	inspection := &domain.Inspection{
		BranchID:   cmd.BranchID,
		StartDate:  domain.Today(h.clock),
		Technician: technician,
	}
	err = h.store.Transaction(ctx, func(repos domain.Repositories) error {
		if _, err := domain.OwnedBranch(ctx, repos.Branches, cmd.BranchID, cmd.CompanyID); err != nil {
			return err
		}
		return repos.Inspections.Create(ctx, inspection)
	})
	if err != nil {
		return nil, err
	}

	h.notifier.Notify(ctx, domain.Event{
		Type:      domain.EventInspectionCreated,
		CompanyID: cmd.CompanyID,
		BranchID:  inspection.BranchID,
		EntityID:  inspection.ID,
		Data:      map[string]any{"technician": technician, "start_date": inspection.StartDate.String()},
	})
	return inspection, nil
}

// FinalizeInspectionCommand closes an open inspection.
type FinalizeInspectionCommand struct {
	CompanyID    string
	InspectionID uint
}

type FinalizeInspectionHandler struct {
	store    domain.Store
	clock    domain.Clock
	notifier *Notifier
}

func NewFinalizeInspectionHandler(store domain.Store, clock domain.Clock, notifier *Notifier) *FinalizeInspectionHandler {
	return &FinalizeInspectionHandler{store: store, clock: clock, notifier: notifier}
}

// Handle fails with ErrAlreadyFinalized on a second call and leaves the
// original end date untouched.
func (h *FinalizeInspectionHandler) Handle(ctx context.Context, cmd FinalizeInspectionCommand) (*domain.Inspection, error) {
	var inspection *domain.Inspection
	err := h.store.Transaction(ctx, func(repos domain.Repositories) error {
		in, err := domain.OwnedInspection(ctx, repos, cmd.InspectionID, cmd.CompanyID, true)
		if err != nil {
			return err
		}
		if in.IsFinalized() {
			return domain.ErrAlreadyFinalized
		}
		in.EndDate = domain.Today(h.clock)
		if err := repos.Inspections.Finalize(ctx, in.ID, in.EndDate); err != nil {
			return err
		}
		inspection = in
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.notifier.Notify(ctx, domain.Event{
		Type:      domain.EventInspectionFinalized,
		CompanyID: cmd.CompanyID,
		BranchID:  inspection.BranchID,
		EntityID:  inspection.ID,
		Data:      map[string]any{"end_date": inspection.EndDate.String()},
	})
	return inspection, nil
}

// DeleteInspectionCommand rolls back an open inspection: its history rows
// and every live row they produced are removed.
type DeleteInspectionCommand struct {
	CompanyID    string
	InspectionID uint
}

type DeleteInspectionHandler struct {
	store    domain.Store
	notifier *Notifier
}

func NewDeleteInspectionHandler(store domain.Store, notifier *Notifier) *DeleteInspectionHandler {
	return &DeleteInspectionHandler{store: store, notifier: notifier}
}

// Handle locks the inspection row before checking its state so a concurrent
// finalize cannot slip in between the check and the cascade.
func (h *DeleteInspectionHandler) Handle(ctx context.Context, cmd DeleteInspectionCommand) error {
	var (
		branchID string
		removed  int64
	)
	err := h.store.Transaction(ctx, func(repos domain.Repositories) error {
		in, err := domain.OwnedInspection(ctx, repos, cmd.InspectionID, cmd.CompanyID, true)
		if err != nil {
			return err
		}
		if in.IsFinalized() {
			return domain.ErrAlreadyFinalized
		}
		branchID = in.BranchID

		if removed, err = repos.Current.DeleteMatchingInspection(ctx, in.ID); err != nil {
			return err
		}
		return repos.Inspections.Delete(ctx, in.ID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx).
		Uint("inspection_id", cmd.InspectionID).
		Int64("current_rows_removed", removed).
		Msg("Inspection deleted")

	h.notifier.Notify(ctx, domain.Event{
		Type:      domain.EventInspectionDeleted,
		CompanyID: cmd.CompanyID,
		BranchID:  branchID,
		EntityID:  cmd.InspectionID,
		Data:      map[string]any{"current_rows_removed": removed},
	})
	return nil
}
