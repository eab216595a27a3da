package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	inventorycache "github.com/tair/insumos/internal/insumos/cache"
	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/kafka"
	"github.com/tair/insumos/pkg/cache"
	"github.com/tair/insumos/pkg/config"
	"github.com/tair/insumos/pkg/logger"
)

// ledgerEvents change what a branch listing shows. Catalog events touch
// every branch.
var ledgerEvents = []string{
	domain.EventInventoryUpserted,
	domain.EventInventoryEdited,
	domain.EventInventoryRemoved,
	domain.EventInspectionDeleted,
	domain.EventBranchDeleted,
	domain.EventItemTypeUpdated,
	domain.EventItemTypeDeleted,
}

func newWorkerCommand(cfg *config.Config) *cobra.Command {
	var groupID string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume inventory events and drop stale cached listings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd.Context(), cfg, groupID)
		},
	}
	cmd.Flags().StringVar(&groupID, "group", "insumos-cache-invalidator", "Kafka consumer group")
	return cmd
}

func runWorker(ctx context.Context, cfg *config.Config, groupID string) error {
	if !cfg.Kafka.Enabled() {
		return errors.New("KAFKA_BROKERS is required for the worker")
	}

	redisClient, err := cache.NewRedisClient(ctx, cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	if redisClient == nil {
		return errors.New("REDIS_ADDR is required for the worker")
	}
	defer redisClient.Close()

	listings := inventorycache.NewInventoryCache(redisClient, cfg.Redis.InventoryCacheTTL)

	consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, groupID, []string{cfg.Kafka.Topic})
	if err != nil {
		return err
	}
	defer consumer.Close()

	consumer.RegisterHandler(invalidateListing(listings), ledgerEvents...)
	return consumer.Run(ctx)
}

func invalidateListing(invalidator domain.CacheInvalidator) kafka.EventHandler {
	return func(ctx context.Context, event domain.Event) error {
		if domain.IsCatalogEvent(event.Type) {
			if err := invalidator.InvalidateCatalog(ctx); err != nil {
				return err
			}
			logger.Debug(ctx).Str("event_type", event.Type).Msg("Inventory listings invalidated")
			return nil
		}
		if event.BranchID == "" {
			return nil
		}
		if err := invalidator.InvalidateBranch(ctx, event.BranchID); err != nil {
			return err
		}
		logger.Debug(ctx).
			Str("event_type", event.Type).
			Str("branch_id", event.BranchID).
			Msg("Inventory listing invalidated")
		return nil
	}
}
