package domain

import (
	"context"
	"errors"
)

// OwnedBranch loads a branch and checks it belongs to companyID. A missing
// branch and a foreign branch are indistinguishable to the caller.
func OwnedBranch(ctx context.Context, branches BranchRepository, branchID, companyID string) (*Branch, error) {
	branch, err := branches.FindByID(ctx, branchID)
	if err != nil {
		return nil, hideNotFound(err, "branch")
	}
	if branch.CompanyID != companyID {
		return nil, NotFound("branch")
	}
	return branch, nil
}

// OwnedInspection loads an inspection owned by companyID. With forUpdate the
// row stays locked until the enclosing transaction ends.
func OwnedInspection(ctx context.Context, repos Repositories, id uint, companyID string, forUpdate bool) (*Inspection, error) {
	var (
		inspection *Inspection
		err        error
	)
	if forUpdate {
		inspection, err = repos.Inspections.FindByIDForUpdate(ctx, id)
	} else {
		inspection, err = repos.Inspections.FindByID(ctx, id)
	}
	if err != nil {
		return nil, hideNotFound(err, "inspection")
	}
	if _, err := OwnedBranch(ctx, repos.Branches, inspection.BranchID, companyID); err != nil {
		return nil, NotFound("inspection")
	}
	return inspection, nil
}

// OwnedCurrentRecord loads a live inventory row owned by companyID.
func OwnedCurrentRecord(ctx context.Context, repos Repositories, id uint, companyID string, forUpdate bool) (*CurrentRecord, error) {
	var (
		record *CurrentRecord
		err    error
	)
	if forUpdate {
		record, err = repos.Current.FindByIDForUpdate(ctx, id)
	} else {
		record, err = repos.Current.FindByID(ctx, id)
	}
	if err != nil {
		return nil, hideNotFound(err, "inventory item")
	}
	if _, err := OwnedBranch(ctx, repos.Branches, record.BranchID, companyID); err != nil {
		return nil, NotFound("inventory item")
	}
	return record, nil
}

// OwnedHistoryRecord loads a history row owned by companyID.
func OwnedHistoryRecord(ctx context.Context, repos Repositories, id uint, companyID string) (*HistoryRecord, error) {
	record, err := repos.History.FindByID(ctx, id)
	if err != nil {
		return nil, hideNotFound(err, "history record")
	}
	if _, err := OwnedBranch(ctx, repos.Branches, record.BranchID, companyID); err != nil {
		return nil, NotFound("history record")
	}
	return record, nil
}

func hideNotFound(err error, entity string) error {
	var de *Error
	if errors.As(err, &de) && de.Kind == KindNotFound {
		return NotFound(entity)
	}
	return err
}
