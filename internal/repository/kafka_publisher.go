package repository

import (
	"context"

	"RegimeScan/internal/domain/models"
	"RegimeScan/internal/domain/repository"
	pkgkafka "RegimeScan/pkg/kafka"
)

// KafkaPublisher implements Publisher for Kafka, keyed by symbol so all
// changes for one symbol land on the same partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, c *models.RegimeChange) error {
	return p.producer.Publish(ctx, p.topic, []byte(c.Symbol), c)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// StorePublisher implements Publisher writing straight to the change store,
// for deployments without a broker.
type StorePublisher struct {
	store repository.ChangeStore
}

// NewStorePublisher creates a direct-to-store publisher.
func NewStorePublisher(store repository.ChangeStore) repository.Publisher {
	return &StorePublisher{store: store}
}

func (p *StorePublisher) Publish(ctx context.Context, c *models.RegimeChange) error {
	return p.store.Store(ctx, c)
}

func (p *StorePublisher) Close() error { return nil }
