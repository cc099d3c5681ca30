package usecase

import (
	"context"
	"encoding/json"
	"time"

	"RegimeScan/internal/domain/models"
	domrepo "RegimeScan/internal/domain/repository"
	pkgkafka "RegimeScan/pkg/kafka"
)

// KafkaChangesHandler consumes regime change events and writes them to the
// change store.
type KafkaChangesHandler struct {
	topic   string
	store   domrepo.ChangeStore
	metrics domrepo.Metrics
}

func NewKafkaChangesHandler(topic string, store domrepo.ChangeStore, metrics domrepo.Metrics) *KafkaChangesHandler {
	return &KafkaChangesHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaChangesHandler) Topic() string { return h.topic }

func (h *KafkaChangesHandler) Handle(ctx context.Context, b []byte) error {
	var c models.RegimeChange
	if err := json.Unmarshal(b, &c); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	// E2E latency from detection to persistence (approx)
	h.metrics.RecordLatency("change_e2e_seconds", time.Since(c.DetectedAt).Seconds())

	start := time.Now()
	err := h.store.Store(ctx, &c)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaChangesHandler)(nil)
