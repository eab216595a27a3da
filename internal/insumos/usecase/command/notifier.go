package command

import (
	"context"

	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/pkg/logger"
)

// Notifier runs the after-commit side effects of a mutation: it drops the
// cached listings the change touches and publishes the event. Failures
// are logged; the committed write stands.
type Notifier struct {
	publisher   domain.EventPublisher
	invalidator domain.CacheInvalidator
	clock       domain.Clock
}

func NewNotifier(publisher domain.EventPublisher, invalidator domain.CacheInvalidator, clock domain.Clock) *Notifier {
	if publisher == nil {
		publisher = domain.NopPublisher{}
	}
	if invalidator == nil {
		invalidator = domain.NopInvalidator{}
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Notifier{publisher: publisher, invalidator: invalidator, clock: clock}
}

// Notify is called only after the transaction committed.
func (n *Notifier) Notify(ctx context.Context, event domain.Event) {
	switch {
	case domain.IsCatalogEvent(event.Type):
		if err := n.invalidator.InvalidateCatalog(ctx); err != nil {
			logger.Warn(ctx).Err(err).Str("event_type", event.Type).Msg("Failed to invalidate inventory cache")
		}
	case event.BranchID != "":
		if err := n.invalidator.InvalidateBranch(ctx, event.BranchID); err != nil {
			logger.Warn(ctx).Err(err).Str("branch_id", event.BranchID).Msg("Failed to invalidate inventory cache")
		}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = n.clock.Now().UTC()
	}
	if err := n.publisher.Publish(ctx, event); err != nil {
		logger.Error(ctx).Err(err).
			Str("event_type", event.Type).
			Str("branch_id", event.BranchID).
			Uint("entity_id", event.EntityID).
			Msg("Failed to publish event")
	}
}
