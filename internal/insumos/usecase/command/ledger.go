package command

import (
	"context"
	"strings"

	"github.com/tair/insumos/internal/insumos/domain"
)

// AddInspectionItemCommand records one observation inside an open
// inspection. It writes the history ledger only.
type AddInspectionItemCommand struct {
	CompanyID    string
	InspectionID uint
	Item         ItemInput
}

type AddInspectionItemHandler struct {
	store    domain.Store
	clock    domain.Clock
	notifier *Notifier
}

func NewAddInspectionItemHandler(store domain.Store, clock domain.Clock, notifier *Notifier) *AddInspectionItemHandler {
	return &AddInspectionItemHandler{store: store, clock: clock, notifier: notifier}
}

func (h *AddInspectionItemHandler) Handle(ctx context.Context, cmd AddInspectionItemCommand) (*domain.HistoryRecord, error) {
	item, err := validateItem(cmd.Item, domain.Today(h.clock))
	if err != nil {
		return nil, err
	}

	var record *domain.HistoryRecord
	err = h.store.Transaction(ctx, func(repos domain.Repositories) error {
		inspection, err := domain.OwnedInspection(ctx, repos, cmd.InspectionID, cmd.CompanyID, true)
		if err != nil {
			return err
		}
		if inspection.IsFinalized() {
			return domain.ErrInspectionFinalized
		}

		itemType, err := ResolveOrCreate(ctx, repos, item.description)
		if err != nil {
			return err
		}

		seen, err := repos.History.ExistsInInspection(ctx, inspection.ID, itemType.ID, item.serial)
		if err != nil {
			return err
		}
		if seen {
			return domain.ErrDuplicateSerial
		}

		inspectionID := inspection.ID
		record = &domain.HistoryRecord{
			ItemTypeID:   itemType.ID,
			BranchID:     inspection.BranchID,
			InspectionID: &inspectionID,
			SerialNumber: item.serial,
			ExpiryDate:   item.expiry,
			Location:     item.location,
			Note:         item.note,
		}
		return repos.History.Create(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	h.notifier.Notify(ctx, domain.Event{
		Type:      domain.EventItemObserved,
		CompanyID: cmd.CompanyID,
		BranchID:  record.BranchID,
		EntityID:  record.ID,
		Data: map[string]any{
			"inspection_id": cmd.InspectionID,
			"item_type_id":  record.ItemTypeID,
			"serial_number": *record.SerialNumber,
		},
	})
	return record, nil
}

// AddDirectItemCommand writes live inventory outside any inspection.
type AddDirectItemCommand struct {
	CompanyID string
	BranchID  string
	Item      ItemInput
}

// AddDirectItemResult tells whether the upsert inserted or overwrote.
type AddDirectItemResult struct {
	Record  *domain.CurrentRecord `json:"record"`
	Created bool                  `json:"created"`
}

type AddDirectItemHandler struct {
	store    domain.Store
	clock    domain.Clock
	notifier *Notifier
}

func NewAddDirectItemHandler(store domain.Store, clock domain.Clock, notifier *Notifier) *AddDirectItemHandler {
	return &AddDirectItemHandler{store: store, clock: clock, notifier: notifier}
}

// Handle upserts the live row keyed by (branch, item type, serial): an
// existing row is locked and overwritten in place, otherwise one is
// inserted. A concurrent insert of the same key loses on the unique index
// with ErrDuplicateSerial.
func (h *AddDirectItemHandler) Handle(ctx context.Context, cmd AddDirectItemCommand) (*AddDirectItemResult, error) {
	item, err := validateItem(cmd.Item, domain.Today(h.clock))
	if err != nil {
		return nil, err
	}

	result := &AddDirectItemResult{}
	err = h.store.Transaction(ctx, func(repos domain.Repositories) error {
		if _, err := domain.OwnedBranch(ctx, repos.Branches, cmd.BranchID, cmd.CompanyID); err != nil {
			return err
		}

		itemType, err := ResolveOrCreate(ctx, repos, item.description)
		if err != nil {
			return err
		}

		identity := domain.ItemIdentity{BranchID: cmd.BranchID, ItemTypeID: itemType.ID, SerialNumber: item.serial}
		existing, err := repos.Current.FindByIdentityForUpdate(ctx, identity)
		if err != nil {
			return err
		}

		if existing == nil {
			record := &domain.CurrentRecord{
				ItemTypeID:   itemType.ID,
				BranchID:     cmd.BranchID,
				SerialNumber: item.serial,
				ExpiryDate:   item.expiry,
				Location:     item.location,
				Note:         item.note,
			}
			result.Record, result.Created = record, true
			return repos.Current.Create(ctx, record)
		}

		existing.ExpiryDate = item.expiry
		existing.Location = item.location
		existing.Note = item.note
		result.Record = existing
		return repos.Current.Update(ctx, existing)
	})
	if err != nil {
		return nil, err
	}

	h.notifier.Notify(ctx, domain.Event{
		Type:      domain.EventInventoryUpserted,
		CompanyID: cmd.CompanyID,
		BranchID:  cmd.BranchID,
		EntityID:  result.Record.ID,
		Data: map[string]any{
			"created":       result.Created,
			"item_type_id":  result.Record.ItemTypeID,
			"serial_number": *item.serial,
		},
	})
	return result, nil
}

// EditCurrentItemCommand overwrites expiry, location and note of a live row.
// Serial and item type are not editable.
type EditCurrentItemCommand struct {
	CompanyID  string
	RecordID   uint
	ExpiryDate string
	Location   string
	Note       string
}

type EditCurrentItemHandler struct {
	store    domain.Store
	clock    domain.Clock
	notifier *Notifier
}

func NewEditCurrentItemHandler(store domain.Store, clock domain.Clock, notifier *Notifier) *EditCurrentItemHandler {
	return &EditCurrentItemHandler{store: store, clock: clock, notifier: notifier}
}

// Handle never retries: a lock wait timeout surfaces as a Transient error.
// History is not written.
func (h *EditCurrentItemHandler) Handle(ctx context.Context, cmd EditCurrentItemCommand) (*domain.CurrentRecord, error) {
	location, err := required("location", cmd.Location)
	if err != nil {
		return nil, err
	}
	expiry, err := validateExpiry(cmd.ExpiryDate, domain.Today(h.clock))
	if err != nil {
		return nil, err
	}

	var record *domain.CurrentRecord
	err = h.store.Transaction(ctx, func(repos domain.Repositories) error {
		current, err := domain.OwnedCurrentRecord(ctx, repos, cmd.RecordID, cmd.CompanyID, true)
		if err != nil {
			return err
		}
		current.ExpiryDate = expiry
		current.Location = location
		current.Note = strings.TrimSpace(cmd.Note)
		record = current
		return repos.Current.Update(ctx, current)
	})
	if err != nil {
		return nil, err
	}

	h.notifier.Notify(ctx, domain.Event{
		Type:      domain.EventInventoryEdited,
		CompanyID: cmd.CompanyID,
		BranchID:  record.BranchID,
		EntityID:  record.ID,
	})
	return record, nil
}

// RemoveCurrentItemCommand deletes a live row; its history survives.
type RemoveCurrentItemCommand struct {
	CompanyID string
	RecordID  uint
}

type RemoveCurrentItemHandler struct {
	store    domain.Store
	notifier *Notifier
}

func NewRemoveCurrentItemHandler(store domain.Store, notifier *Notifier) *RemoveCurrentItemHandler {
	return &RemoveCurrentItemHandler{store: store, notifier: notifier}
}

func (h *RemoveCurrentItemHandler) Handle(ctx context.Context, cmd RemoveCurrentItemCommand) error {
	var branchID string
	err := h.store.Transaction(ctx, func(repos domain.Repositories) error {
		current, err := domain.OwnedCurrentRecord(ctx, repos, cmd.RecordID, cmd.CompanyID, true)
		if err != nil {
			return err
		}
		branchID = current.BranchID
		return repos.Current.Delete(ctx, current.ID)
	})
	if err != nil {
		return err
	}

	h.notifier.Notify(ctx, domain.Event{
		Type:      domain.EventInventoryRemoved,
		CompanyID: cmd.CompanyID,
		BranchID:  branchID,
		EntityID:  cmd.RecordID,
	})
	return nil
}

// RemoveHistoryRecordCommand deletes one observation. Observations of a
// finalized inspection are frozen.
type RemoveHistoryRecordCommand struct {
	CompanyID string
	HistoryID uint
}

type RemoveHistoryRecordHandler struct {
	store    domain.Store
	notifier *Notifier
}

func NewRemoveHistoryRecordHandler(store domain.Store, notifier *Notifier) *RemoveHistoryRecordHandler {
	return &RemoveHistoryRecordHandler{store: store, notifier: notifier}
}

func (h *RemoveHistoryRecordHandler) Handle(ctx context.Context, cmd RemoveHistoryRecordCommand) error {
	var branchID string
	err := h.store.Transaction(ctx, func(repos domain.Repositories) error {
		record, err := domain.OwnedHistoryRecord(ctx, repos, cmd.HistoryID, cmd.CompanyID)
		if err != nil {
			return err
		}
		if record.InspectionID != nil {
			inspection, err := repos.Inspections.FindByIDForUpdate(ctx, *record.InspectionID)
			if err != nil {
				return err
			}
			if inspection.IsFinalized() {
				return domain.ErrInspectionFinalized
			}
		}
		branchID = record.BranchID
		return repos.History.Delete(ctx, record.ID)
	})
	if err != nil {
		return err
	}

	h.notifier.Notify(ctx, domain.Event{
		Type:      domain.EventHistoryRemoved,
		CompanyID: cmd.CompanyID,
		BranchID:  branchID,
		EntityID:  cmd.HistoryID,
	})
	return nil
}
