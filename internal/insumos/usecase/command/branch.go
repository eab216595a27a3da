package command

import (
	"context"
	"strings"

	"github.com/tair/insumos/internal/insumos/domain"
)

// CreateBranchCommand represents the command to create a branch
type CreateBranchCommand struct {
	CompanyID        string
	TaxID            string
	Name             string
	Address          string
	ResponsibleEmail string
}

type CreateBranchHandler struct {
	store domain.Store
}

func NewCreateBranchHandler(store domain.Store) *CreateBranchHandler {
	return &CreateBranchHandler{store: store}
}

func (h *CreateBranchHandler) Handle(ctx context.Context, cmd CreateBranchCommand) (*domain.Branch, error) {
	taxID, err := normalizeTaxID("tax_id", cmd.TaxID)
	if err != nil {
		return nil, err
	}
	name, err := required("name", cmd.Name)
	if err != nil {
		return nil, err
	}
	email, err := validateEmail("responsible_email", cmd.ResponsibleEmail, false)
	if err != nil {
		return nil, err
	}

	branch := &domain.Branch{
		ID:               taxID,
		CompanyID:        cmd.CompanyID,
		Name:             name,
		Address:          strings.TrimSpace(cmd.Address),
		ResponsibleEmail: email,
	}
	err = h.store.Transaction(ctx, func(repos domain.Repositories) error {
		if _, err := repos.Branches.FindByID(ctx, taxID); err == nil {
			return domain.Conflict(domain.ReasonDuplicateTaxID, "tax identifier already registered")
		} else if domain.KindOf(err) != domain.KindNotFound {
			return err
		}
		return repos.Branches.Create(ctx, branch)
	})
	if err != nil {
		return nil, err
	}
	return branch, nil
}

// UpdateBranchCommand replaces the descriptive fields of a branch. The tax
// identifier is immutable.
type UpdateBranchCommand struct {
	CompanyID        string
	BranchID         string
	Name             string
	Address          string
	ResponsibleEmail string
}

type UpdateBranchHandler struct {
	store domain.Store
}

func NewUpdateBranchHandler(store domain.Store) *UpdateBranchHandler {
	return &UpdateBranchHandler{store: store}
}

func (h *UpdateBranchHandler) Handle(ctx context.Context, cmd UpdateBranchCommand) (*domain.Branch, error) {
	name, err := required("name", cmd.Name)
	if err != nil {
		return nil, err
	}
	email, err := validateEmail("responsible_email", cmd.ResponsibleEmail, false)
	if err != nil {
		return nil, err
	}

	var branch *domain.Branch
	err = h.store.Transaction(ctx, func(repos domain.Repositories) error {
		b, err := domain.OwnedBranch(ctx, repos.Branches, cmd.BranchID, cmd.CompanyID)
		if err != nil {
			return err
		}
		b.Name = name
		b.Address = strings.TrimSpace(cmd.Address)
		b.ResponsibleEmail = email
		branch = b
		return repos.Branches.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return branch, nil
}

// DeleteBranchCommand removes a branch with its inspections and both ledgers.
type DeleteBranchCommand struct {
	CompanyID string
	BranchID  string
}

type DeleteBranchHandler struct {
	store    domain.Store
	notifier *Notifier
}

func NewDeleteBranchHandler(store domain.Store, notifier *Notifier) *DeleteBranchHandler {
	return &DeleteBranchHandler{store: store, notifier: notifier}
}

func (h *DeleteBranchHandler) Handle(ctx context.Context, cmd DeleteBranchCommand) error {
	err := h.store.Transaction(ctx, func(repos domain.Repositories) error {
		if _, err := domain.OwnedBranch(ctx, repos.Branches, cmd.BranchID, cmd.CompanyID); err != nil {
			return err
		}
		return repos.Branches.Delete(ctx, cmd.BranchID)
	})
	if err != nil {
		return err
	}

	h.notifier.Notify(ctx, domain.Event{
		Type:      domain.EventBranchDeleted,
		CompanyID: cmd.CompanyID,
		BranchID:  cmd.BranchID,
	})
	return nil
}
