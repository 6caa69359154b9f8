package repository

import (
	"context"
	"strconv"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/domain/repository"
	pkgkafka "CoinCast/pkg/kafka"
)

// KafkaDataset implements DatasetPublisher for Kafka. Rows are keyed by
// their unix timestamp so replays of the same hour land in the same
// partition and downstream consumers can dedupe.
type KafkaDataset struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaDataset creates a Kafka dataset publisher.
func NewKafkaDataset(producer *pkgkafka.Producer, topic string) repository.DatasetPublisher {
	return &KafkaDataset{producer: producer, topic: topic}
}

func (p *KafkaDataset) Publish(ctx context.Context, row *models.FeatureRow) error {
	return p.producer.Publish(ctx, p.topic, rowKey(row), rowValue(row))
}

func (p *KafkaDataset) PublishBatch(ctx context.Context, rows []*models.FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(rows))
	for i, r := range rows {
		msgs[i] = pkgkafka.Message{Key: rowKey(r), Value: rowValue(r)}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaDataset) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func rowKey(r *models.FeatureRow) []byte {
	return []byte(strconv.FormatInt(r.Timestamp.Unix(), 10))
}

func rowValue(r *models.FeatureRow) map[string]interface{} {
	return map[string]interface{}{
		"ts":       r.Timestamp.Unix(),
		"features": r.Values,
	}
}
