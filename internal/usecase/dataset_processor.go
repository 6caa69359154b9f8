package usecase

import (
	"context"
	"fmt"
	"time"

	"CoinCast/internal/domain/models"
	drepo "CoinCast/internal/domain/repository"
)

// DatasetProcessor routes assembled feature rows to the configured sink
// backend: a Kafka topic for streaming consumers or ClickHouse for direct
// dataset accumulation.
type DatasetProcessor struct {
	pub     drepo.DatasetPublisher
	store   drepo.DatasetStorage
	metrics drepo.Metrics
	backend string
}

// NewDatasetProcessor creates a DatasetProcessor.
func NewDatasetProcessor(
	pub drepo.DatasetPublisher,
	store drepo.DatasetStorage,
	metrics drepo.Metrics,
	backend string,
) *DatasetProcessor {
	return &DatasetProcessor{pub: pub, store: store, metrics: metrics, backend: backend}
}

// Process sinks a single feature row.
func (p *DatasetProcessor) Process(ctx context.Context, row *models.FeatureRow) error {
	if row == nil {
		return fmt.Errorf("feature row is nil")
	}

	start := time.Now()
	var err error
	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, row)
	case "clickhouse":
		err = p.store.Store(ctx, row)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("sink")
		return fmt.Errorf("sink feature row: %w", err)
	}
	p.metrics.RecordRowSunk(p.backend)
	p.metrics.RecordLatency("sink", time.Since(start).Seconds())
	return nil
}

// ProcessBatch sinks multiple feature rows in one backend call.
func (p *DatasetProcessor) ProcessBatch(ctx context.Context, rows []*models.FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, rows)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, rows)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("sink_batch")
		return fmt.Errorf("sink feature batch: %w", err)
	}
	for range rows {
		p.metrics.RecordRowSunk(p.backend)
	}
	p.metrics.RecordLatency("sink_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *DatasetProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
