package usecase

import (
	"context"
	"time"

	"CoinCast/internal/domain/models"
	drepo "CoinCast/internal/domain/repository"
	domsvc "CoinCast/internal/domain/service"
	mid "CoinCast/internal/middleware"
	"CoinCast/internal/services/features"
	applogger "CoinCast/pkg/logger"
	xutil "CoinCast/pkg/util"
)

// LiveCollector tails the exchange kline stream and, every time an hourly
// candle closes, rebuilds the feature snapshot and sinks its newest row
// through the pipeline. Forming (non-final) klines only refresh the last
// price gauge.
type LiveCollector struct {
	symbol    string
	stream    drepo.PriceStream
	snapshots *SnapshotBuilder
	proc      *DatasetProcessor
	pipe      *mid.RealtimePipeline
	metrics   drepo.Metrics
	logger    *applogger.Logger
}

// NewLiveCollector creates a LiveCollector.
func NewLiveCollector(
	symbol string,
	stream drepo.PriceStream,
	snapshots *SnapshotBuilder,
	proc *DatasetProcessor,
	pipe *mid.RealtimePipeline,
	metrics drepo.Metrics,
	logger *applogger.Logger,
) *LiveCollector {
	return &LiveCollector{
		symbol:    symbol,
		stream:    stream,
		snapshots: snapshots,
		proc:      proc,
		pipe:      pipe,
		metrics:   metrics,
		logger:    logger,
	}
}

// IsConnected reports whether the kline stream is connected.
func (c *LiveCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start connects, subscribes and begins consuming in the background.
func (c *LiveCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	candleCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, candleCh, errCh)
	return nil
}

func (c *LiveCollector) consume(ctx context.Context, candleCh <-chan *models.LiveCandle, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if ok && err != nil {
				c.metrics.RecordError("stream")
				if c.logger != nil {
					c.logger.Warn("kline stream error", applogger.Error(err))
				}
			}
			// The stream's read loop is gone either way; the old channels
			// are dead and must be replaced.
			if candleCh, errCh = c.reopen(ctx); candleCh == nil {
				return
			}
		case candle, ok := <-candleCh:
			if !ok {
				if candleCh, errCh = c.reopen(ctx); candleCh == nil {
					return
				}
				continue
			}
			if candle == nil {
				continue
			}
			c.metrics.RecordLastPrice(c.symbol, candle.Close)
			if candle.Final {
				c.onCandleClose(ctx, candle)
			}
		}
	}
}

// reopen re-establishes the stream after its read loop died and returns the
// new connection's channels. It retries with capped backoff until the context
// is cancelled, in which case it returns nil channels.
func (c *LiveCollector) reopen(ctx context.Context) (<-chan *models.LiveCandle, <-chan error) {
	wait := time.Second
	for {
		if ctx.Err() != nil {
			return nil, nil
		}
		if err := c.stream.Reconnect(ctx); err != nil {
			c.metrics.RecordError("stream_reconnect")
			if c.logger != nil {
				c.logger.Warn("kline stream reconnect failed", applogger.Error(err))
			}
			select {
			case <-ctx.Done():
				return nil, nil
			case <-time.After(wait):
			}
			if wait < 30*time.Second {
				wait *= 2
			}
			continue
		}
		return c.stream.Read(ctx)
	}
}

// onCandleClose rebuilds the feature table and sinks the row for the candle
// that just closed.
func (c *LiveCollector) onCandleClose(ctx context.Context, candle *models.LiveCandle) {
	snap, err := c.snapshots.Build(ctx)
	if err != nil {
		c.metrics.RecordError("collect_snapshot")
		if c.logger != nil {
			c.logger.Error("snapshot rebuild on candle close failed",
				applogger.Int64("open_time", candle.OpenTime.Unix()),
				applogger.Error(err),
			)
		}
		return
	}
	latest, ok := snap.Latest()
	if !ok {
		return
	}
	row := &latest
	if c.pipe != nil {
		_ = c.pipe.Process(ctx, row)
	} else {
		_ = c.proc.Process(ctx, row)
	}
}

// Processor returns the underlying DatasetProcessor for lifecycle management.
func (c *LiveCollector) Processor() *DatasetProcessor { return c.proc }

// Shutdown stops the pipeline and closes the stream.
func (c *LiveCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}

// HistoricalCollector backfills the dataset sink from REST history. One run
// fetches the requested days of hourly candles, computes the full feature
// table and sinks it in batches. The live news signal only applies to the
// trailing day; older rows carry the neutral signal because past sentiment
// is not reconstructable.
type HistoricalCollector struct {
	cfg     SnapshotConfig
	candles drepo.CandleSource
	cross   drepo.CrossAssetSource
	news    domsvc.NewsSummarizer
	proc    *DatasetProcessor
	logger  *applogger.Logger
}

// NewHistoricalCollector creates a HistoricalCollector.
func NewHistoricalCollector(
	cfg SnapshotConfig,
	candles drepo.CandleSource,
	cross drepo.CrossAssetSource,
	news domsvc.NewsSummarizer,
	proc *DatasetProcessor,
	logger *applogger.Logger,
) *HistoricalCollector {
	if cfg.CrossLeadDays <= 0 {
		cfg.CrossLeadDays = 7
	}
	return &HistoricalCollector{
		cfg:     cfg,
		candles: candles,
		cross:   cross,
		news:    news,
		proc:    proc,
		logger:  logger,
	}
}

// Collect builds and sinks the feature table for the past `days` days.
// It returns the number of rows sunk.
func (h *HistoricalCollector) Collect(ctx context.Context, days int) (int, error) {
	from, now := xutil.AlignHourRange(time.Now().UTC().AddDate(0, 0, -days), time.Now().UTC())

	series, err := h.candles.CandleRange(ctx, h.cfg.Symbol, from, now)
	if err != nil {
		return 0, err
	}
	normalized, err := features.NormalizeSeries(series)
	if err != nil {
		return 0, err
	}
	ind, err := features.ComputeIndicators(normalized)
	if err != nil {
		return 0, err
	}

	var crossClose, crossChange []float64
	daily, err := h.cross.DailyCloses(ctx, h.cfg.CrossSymbol, from.AddDate(0, 0, -h.cfg.CrossLeadDays), now)
	if err != nil || len(daily) == 0 {
		if h.logger != nil {
			h.logger.Warn("cross-asset backfill degraded to neutral", applogger.Error(err))
		}
		crossClose, crossChange = features.NeutralCrossAsset(len(normalized))
	} else {
		crossClose, crossChange = features.AlignCrossAsset(normalized, daily)
	}

	news := models.NewsSummary{TopNews: []models.NewsItem{}}
	if h.news != nil {
		if live, err := h.news.Summary(ctx); err == nil {
			news = live
		} else if h.logger != nil {
			h.logger.Warn("news backfill degraded to neutral", applogger.Error(err))
		}
	}

	sentimentFrom := now.AddDate(0, 0, -1)
	rows := features.AssembleRowsWindowed(normalized, ind, crossClose, crossChange, news, sentimentFrom)

	batch := make([]*models.FeatureRow, len(rows))
	for i := range rows {
		batch[i] = &rows[i]
	}
	if err := h.proc.ProcessBatch(ctx, batch); err != nil {
		return 0, err
	}
	if h.logger != nil {
		h.logger.Info("historical collection complete",
			applogger.Int("days", days),
			applogger.Int("candles", len(normalized)),
			applogger.Int("rows", len(batch)),
		)
	}
	return len(batch), nil
}
