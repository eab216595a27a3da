package command

import (
	"context"

	"github.com/tair/insumos/internal/insumos/domain"
)

// ResolveOrCreate returns the catalog entry with exactly this description,
// inserting it on first use. It must run on the repositories of the
// transaction that writes the ledger row depending on it. A concurrent
// insert of the same description is absorbed by the unique index and the
// winner's row is returned.
func ResolveOrCreate(ctx context.Context, repos domain.Repositories, description string) (*domain.ItemType, error) {
	existing, err := repos.ItemTypes.FindByDescription(ctx, description)
	if err == nil {
		return existing, nil
	}
	if domain.KindOf(err) != domain.KindNotFound {
		return nil, err
	}

	itemType := &domain.ItemType{Description: description}
	created, err := repos.ItemTypes.CreateIfAbsent(ctx, itemType)
	if err != nil {
		return nil, err
	}
	if created {
		return itemType, nil
	}
	return repos.ItemTypes.FindByDescription(ctx, description)
}
