package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-storefront/internal/logger"

	"github.com/segmentio/kafka-go"
)

// Publisher sends JSON events. The topic is chosen per message.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event interface{}) error
}

type Producer struct {
	Writer *kafka.Writer
	Logger *logger.Logger
}

func NewProducer(brokers []string, log *logger.Logger) *Producer {
	return &Producer{
		Writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
		Logger: log,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, event interface{}) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}

	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	p.Logger.LogKafka("publish", topic, key)
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// NopPublisher drops events. It stands in when Kafka is disabled.
type NopPublisher struct {
	Logger *logger.Logger
}

func (n NopPublisher) Publish(_ context.Context, topic, key string, _ interface{}) error {
	if n.Logger != nil {
		n.Logger.Debug("KAFKA", fmt.Sprintf("Kafka disabled, dropping %s event %s", topic, key))
	}
	return nil
}
