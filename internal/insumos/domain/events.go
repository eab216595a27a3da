package domain

import (
	"context"
	"time"
)

// Event types published after a successful commit.
const (
	EventItemObserved        = "insumos.item.observed"
	EventInventoryUpserted   = "insumos.inventory.upserted"
	EventInventoryEdited     = "insumos.inventory.edited"
	EventInventoryRemoved    = "insumos.inventory.removed"
	EventHistoryRemoved      = "insumos.history.removed"
	EventInspectionCreated   = "insumos.inspection.created"
	EventInspectionFinalized = "insumos.inspection.finalized"
	EventInspectionDeleted   = "insumos.inspection.deleted"
	EventBranchDeleted       = "insumos.branch.deleted"
	EventItemTypeUpdated     = "insumos.item_type.updated"
	EventItemTypeDeleted     = "insumos.item_type.deleted"
)

// IsCatalogEvent reports whether an event changes the shared catalog and so
// every branch listing.
func IsCatalogEvent(eventType string) bool {
	return eventType == EventItemTypeUpdated || eventType == EventItemTypeDeleted
}

// Event describes a committed change.
type Event struct {
	ID         string         `json:"event_id"`
	Type       string         `json:"event_type"`
	CompanyID  string         `json:"company_id"`
	BranchID   string         `json:"branch_id"`
	EntityID   uint           `json:"entity_id"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// EventPublisher delivers events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// CacheInvalidator drops cached read models of a branch, or of every branch
// when the catalog changes.
type CacheInvalidator interface {
	InvalidateBranch(ctx context.Context, branchID string) error
	InvalidateCatalog(ctx context.Context) error
}

// NopInvalidator is used when no cache is configured.
type NopInvalidator struct{}

func (NopInvalidator) InvalidateBranch(context.Context, string) error { return nil }

func (NopInvalidator) InvalidateCatalog(context.Context) error { return nil }
