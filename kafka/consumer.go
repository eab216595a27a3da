package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/pkg/logger"
)

// EventHandler processes one decoded event.
type EventHandler func(ctx context.Context, event domain.Event) error

// Consumer reads domain events as part of a consumer group and dispatches
// them by event type.
type Consumer struct {
	group    sarama.ConsumerGroup
	groupID  string
	topics   []string
	mu       sync.RWMutex
	handlers map[string]EventHandler
}

// NewConsumer joins groupID on brokers.
func NewConsumer(brokers []string, groupID string, topics []string) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_6_0_0
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Str("group_id", groupID).
		Strs("topics", topics).
		Msg("Kafka consumer initialized")

	c := newConsumer(topics)
	c.group = group
	c.groupID = groupID
	return c, nil
}

func newConsumer(topics []string) *Consumer {
	return &Consumer{topics: topics, handlers: make(map[string]EventHandler)}
}

// RegisterHandler binds handler to each of eventTypes.
func (c *Consumer) RegisterHandler(handler EventHandler, eventTypes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range eventTypes {
		c.handlers[t] = handler
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	go func() {
		for err := range c.group.Errors() {
			logger.Logger.Error().Err(err).Msg("Consumer error")
		}
	}()

	logger.Logger.Info().
		Strs("topics", c.topics).
		Str("group_id", c.groupID).
		Msg("Kafka consumer started")

	handler := &groupHandler{consumer: c}
	for {
		if err := c.group.Consume(ctx, c.topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			logger.Logger.Error().Err(err).Msg("Error from consumer")
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	if c.group != nil {
		return c.group.Close()
	}
	return nil
}

type groupHandler struct {
	consumer *Consumer
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := h.consumer.handleMessage(session.Context(), message); err != nil {
			logger.Logger.Error().
				Err(err).
				Str("topic", message.Topic).
				Int64("offset", message.Offset).
				Msg("Failed to handle event")
		}
		session.MarkMessage(message, "")
	}
	return nil
}

// handleMessage decodes one message and runs its handler. Messages without
// a registered handler are skipped.
func (c *Consumer) handleMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	carrier := propagation.MapCarrier{}
	var eventType string
	for _, header := range message.Headers {
		switch key := string(header.Key); key {
		case "traceparent", "tracestate":
			carrier[key] = string(header.Value)
		case HeaderEventType:
			eventType = string(header.Value)
		}
	}
	ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)

	ctx, span := otel.Tracer("kafka-consumer").Start(ctx, "kafka.consume "+eventType,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.source", message.Topic),
			attribute.Int("messaging.kafka.partition", int(message.Partition)),
			attribute.Int64("messaging.kafka.offset", message.Offset),
		),
	)
	defer span.End()

	c.mu.RLock()
	handler, ok := c.handlers[eventType]
	c.mu.RUnlock()
	if !ok {
		return nil
	}

	var event domain.Event
	if err := json.Unmarshal(message.Value, &event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to unmarshal event")
		return fmt.Errorf("failed to unmarshal %s event: %w", eventType, err)
	}
	span.SetAttributes(attribute.String("event.id", event.ID), attribute.String("branch.id", event.BranchID))

	if err := handler(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to handle event")
		return err
	}
	return nil
}
