package command

import (
	"context"
	"strings"

	"github.com/tair/insumos/internal/insumos/domain"
)

// CreateItemTypeCommand registers a catalog entry. Creating a description
// that already exists returns the existing entry.
type CreateItemTypeCommand struct {
	Description string
	Image       string
}

type CreateItemTypeHandler struct {
	store domain.Store
}

func NewCreateItemTypeHandler(store domain.Store) *CreateItemTypeHandler {
	return &CreateItemTypeHandler{store: store}
}

// Handle reports whether a new entry was inserted.
func (h *CreateItemTypeHandler) Handle(ctx context.Context, cmd CreateItemTypeCommand) (*domain.ItemType, bool, error) {
	description, err := required("description", cmd.Description)
	if err != nil {
		return nil, false, err
	}

	var (
		itemType *domain.ItemType
		created  bool
	)
	err = h.store.Transaction(ctx, func(repos domain.Repositories) error {
		candidate := &domain.ItemType{Description: description, Image: strings.TrimSpace(cmd.Image)}
		ok, err := repos.ItemTypes.CreateIfAbsent(ctx, candidate)
		if err != nil {
			return err
		}
		if ok {
			itemType, created = candidate, true
			return nil
		}
		itemType, err = repos.ItemTypes.FindByDescription(ctx, description)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return itemType, created, nil
}

// UpdateItemTypeCommand renames a catalog entry and optionally replaces its
// image reference.
type UpdateItemTypeCommand struct {
	ID          uint
	Description string
	Image       *string
}

type UpdateItemTypeHandler struct {
	store    domain.Store
	notifier *Notifier
}

func NewUpdateItemTypeHandler(store domain.Store, notifier *Notifier) *UpdateItemTypeHandler {
	return &UpdateItemTypeHandler{store: store, notifier: notifier}
}

// Handle rejects edits to base entries and descriptions taken by another
// entry.
func (h *UpdateItemTypeHandler) Handle(ctx context.Context, cmd UpdateItemTypeCommand) (*domain.ItemType, error) {
	description, err := required("description", cmd.Description)
	if err != nil {
		return nil, err
	}

	var itemType *domain.ItemType
	err = h.store.Transaction(ctx, func(repos domain.Repositories) error {
		current, err := repos.ItemTypes.FindByID(ctx, cmd.ID)
		if err != nil {
			return err
		}
		if current.Base {
			return domain.ErrBaseCatalogEntry
		}
		if description != current.Description {
			other, err := repos.ItemTypes.FindByDescription(ctx, description)
			if err == nil && other.ID != current.ID {
				return domain.ErrDescriptionConflict
			}
			if err != nil && domain.KindOf(err) != domain.KindNotFound {
				return err
			}
		}
		current.Description = description
		if cmd.Image != nil {
			current.Image = strings.TrimSpace(*cmd.Image)
		}
		itemType = current
		return repos.ItemTypes.Update(ctx, current)
	})
	if err != nil {
		return nil, err
	}

	h.notifier.Notify(ctx, domain.Event{
		Type:     domain.EventItemTypeUpdated,
		EntityID: itemType.ID,
		Data:     map[string]any{"descricao": itemType.Description, "imagem": itemType.Image},
	})
	return itemType, nil
}

// DeleteItemTypeCommand removes an unreferenced, non-base catalog entry.
type DeleteItemTypeCommand struct {
	ID uint
}

type DeleteItemTypeHandler struct {
	store    domain.Store
	notifier *Notifier
}

func NewDeleteItemTypeHandler(store domain.Store, notifier *Notifier) *DeleteItemTypeHandler {
	return &DeleteItemTypeHandler{store: store, notifier: notifier}
}

func (h *DeleteItemTypeHandler) Handle(ctx context.Context, cmd DeleteItemTypeCommand) error {
	err := h.store.Transaction(ctx, func(repos domain.Repositories) error {
		current, err := repos.ItemTypes.FindByID(ctx, cmd.ID)
		if err != nil {
			return err
		}
		if current.Base {
			return domain.ErrBaseCatalogEntry
		}
		referenced, err := repos.ItemTypes.IsReferenced(ctx, cmd.ID)
		if err != nil {
			return err
		}
		if referenced {
			return domain.ErrReferenced
		}
		return repos.ItemTypes.Delete(ctx, cmd.ID)
	})
	if err != nil {
		return err
	}

	h.notifier.Notify(ctx, domain.Event{Type: domain.EventItemTypeDeleted, EntityID: cmd.ID})
	return nil
}
