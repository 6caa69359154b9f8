package repository

import (
	"context"
	"time"

	"CoinCast/internal/domain/models"
)

// DatasetStorage persists assembled feature rows for later model training.
type DatasetStorage interface {
	Store(ctx context.Context, row *models.FeatureRow) error
	StoreBatch(ctx context.Context, rows []*models.FeatureRow) error
	Query(ctx context.Context, from, to time.Time, limit int) ([]*models.FeatureRow, error)
	Health(ctx context.Context) error
	Close() error
}

// DatasetPublisher streams assembled feature rows to a message bus for
// downstream consumers (e.g. an offline trainer).
type DatasetPublisher interface {
	Publish(ctx context.Context, row *models.FeatureRow) error
	PublishBatch(ctx context.Context, rows []*models.FeatureRow) error
	Close() error
}
