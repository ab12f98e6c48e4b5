package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/metrics"
	"ms-storefront/internal/models"

	"github.com/segmentio/kafka-go"
)

type SeatStatusHandler func(ctx context.Context, event models.SeatStatusChangeEvent) error

// Consumer reads seat status events published by the ticket service.
type Consumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: reader, logger: log}
}

// Run blocks until ctx is cancelled. Messages are committed after they were
// handled or found to be undecodable; handler errors leave them uncommitted.
func (c *Consumer) Run(ctx context.Context, handle SeatStatusHandler) error {
	topic := c.reader.Config().Topic
	c.logger.Info("KAFKA", fmt.Sprintf("Consumer started on %s", topic))

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				c.logger.Info("KAFKA", fmt.Sprintf("Consumer on %s stopped", topic))
				return nil
			}
			c.logger.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			continue
		}

		if err := c.process(ctx, msg, handle); err != nil {
			c.logger.Error("KAFKA", fmt.Sprintf("Failed to handle message at offset %d: %v", msg.Offset, err))
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("KAFKA", fmt.Sprintf("Failed to commit offset %d: %v", msg.Offset, err))
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message, handle SeatStatusHandler) error {
	event, err := DecodeSeatStatus(msg.Value)
	if err != nil {
		c.logger.Warn("KAFKA", fmt.Sprintf("Skipping malformed seat event at offset %d: %v", msg.Offset, err))
		metrics.KafkaMessagesConsumed.WithLabelValues(msg.Topic, "skipped").Inc()
		return nil
	}
	c.logger.LogKafka("consume", msg.Topic, fmt.Sprintf("%s %d seats -> %s", event.PresentationID, len(event.SeatIDs), event.Status))
	if err := handle(ctx, event); err != nil {
		metrics.KafkaMessagesConsumed.WithLabelValues(msg.Topic, "error").Inc()
		return err
	}
	metrics.KafkaMessagesConsumed.WithLabelValues(msg.Topic, "applied").Inc()
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// DecodeSeatStatus parses and validates a seat status event.
func DecodeSeatStatus(value []byte) (models.SeatStatusChangeEvent, error) {
	var event models.SeatStatusChangeEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return event, err
	}
	if _, err := models.NewSeatStatusChangeEvent(event.PresentationID, event.SeatIDs, event.Status); err != nil {
		return event, err
	}
	return event, nil
}
