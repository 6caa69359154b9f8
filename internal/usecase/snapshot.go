package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CoinCast/internal/domain/models"
	drepo "CoinCast/internal/domain/repository"
	domsvc "CoinCast/internal/domain/service"
	"CoinCast/internal/services/features"
	"CoinCast/pkg/cache"
	applogger "CoinCast/pkg/logger"
)

// Degraded-signal names reported on a snapshot.
const (
	SignalCrossAsset = "cross_asset"
	SignalNews       = "news_sentiment"
)

const newsCacheKey = "news:summary"

// SnapshotConfig tunes snapshot construction.
type SnapshotConfig struct {
	Symbol        string
	CrossSymbol   string
	CandleLimit   int
	CrossLeadDays int
	NewsCacheTTL  time.Duration
}

// SnapshotBuilder builds the request-scoped feature snapshot: one concurrent
// fetch of the three sources, one indicator pass, one join. Candle failure is
// fatal; the auxiliary sources degrade to their neutral defaults with the
// degradation recorded on the snapshot.
type SnapshotBuilder struct {
	cfg     SnapshotConfig
	candles drepo.CandleSource
	cross   drepo.CrossAssetSource
	news    domsvc.NewsSummarizer
	cache   cache.Service
	metrics drepo.Metrics
	logger  *applogger.Logger
}

// NewSnapshotBuilder creates a SnapshotBuilder.
func NewSnapshotBuilder(
	cfg SnapshotConfig,
	candles drepo.CandleSource,
	cross drepo.CrossAssetSource,
	news domsvc.NewsSummarizer,
	cacheSvc cache.Service,
	metrics drepo.Metrics,
	logger *applogger.Logger,
) *SnapshotBuilder {
	if cfg.CandleLimit <= 0 {
		cfg.CandleLimit = 200
	}
	if cfg.CrossLeadDays <= 0 {
		cfg.CrossLeadDays = 7
	}
	if cfg.NewsCacheTTL <= 0 {
		cfg.NewsCacheTTL = 10 * time.Minute
	}
	return &SnapshotBuilder{
		cfg:     cfg,
		candles: candles,
		cross:   cross,
		news:    news,
		cache:   cacheSvc,
		metrics: metrics,
		logger:  logger,
	}
}

// Build fetches the three sources concurrently and assembles the feature
// table. The returned snapshot is immutable and shared by every horizon of
// the request.
func (b *SnapshotBuilder) Build(ctx context.Context) (*models.FeatureSnapshot, error) {
	start := time.Now()

	var (
		wg sync.WaitGroup

		series    []models.Candle
		candleErr error

		daily    []models.DailyClose
		crossErr error

		news    models.NewsSummary
		newsErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		series, candleErr = b.candles.RecentCandles(ctx, b.cfg.Symbol, b.cfg.CandleLimit)
	}()
	go func() {
		defer wg.Done()
		now := time.Now().UTC()
		from := now.AddDate(0, 0, -(b.cfg.CandleLimit/24 + b.cfg.CrossLeadDays))
		daily, crossErr = b.cross.DailyCloses(ctx, b.cfg.CrossSymbol, from, now)
	}()
	go func() {
		defer wg.Done()
		news, newsErr = b.newsSummary(ctx)
	}()
	wg.Wait()

	if candleErr != nil {
		b.recordError("candles")
		return nil, fmt.Errorf("%w: %v", models.ErrCandleDataUnavailable, candleErr)
	}

	normalized, err := features.NormalizeSeries(series)
	if err != nil {
		b.recordError("candles")
		return nil, fmt.Errorf("%w: %v", models.ErrCandleDataUnavailable, err)
	}
	ind, err := features.ComputeIndicators(normalized)
	if err != nil {
		b.recordError("indicators")
		return nil, err
	}

	degraded := make(map[string]string)

	var crossClose, crossChange []float64
	if crossErr != nil || len(daily) == 0 {
		reason := "empty daily series"
		if crossErr != nil {
			reason = crossErr.Error()
		}
		degraded[SignalCrossAsset] = reason
		crossClose, crossChange = features.NeutralCrossAsset(len(normalized))
		b.recordError("cross_asset")
		if b.logger != nil {
			b.logger.Warn("cross-asset source degraded", applogger.String("reason", reason))
		}
	} else {
		crossClose, crossChange = features.AlignCrossAsset(normalized, daily)
	}

	if newsErr != nil {
		degraded[SignalNews] = newsErr.Error()
		news = models.NewsSummary{TopNews: []models.NewsItem{}}
		b.recordError("news")
		if b.logger != nil {
			b.logger.Warn("news source degraded", applogger.Error(newsErr))
		}
	}

	rows := features.AssembleRows(normalized, ind, crossClose, crossChange, news)
	if len(rows) == 0 {
		b.recordError("assemble")
		return nil, &models.InsufficientHistoryError{Have: len(normalized), Need: features.MaxWindow}
	}

	snap := &models.FeatureSnapshot{
		Rows:         rows,
		CurrentPrice: normalized[len(normalized)-1].Close,
		News:         news,
		Degraded:     degraded,
		BuiltAt:      time.Now().UTC(),
	}
	if b.metrics != nil {
		b.metrics.RecordLatency("snapshot_build", time.Since(start).Seconds())
		b.metrics.RecordLastPrice(b.cfg.Symbol, snap.CurrentPrice)
	}
	return snap, nil
}

// newsSummary serves the aggregated summary from cache when fresh, falling
// back to a live fetch. Cache failures are treated as misses, not errors.
func (b *SnapshotBuilder) newsSummary(ctx context.Context) (models.NewsSummary, error) {
	if b.cache != nil {
		var cached models.NewsSummary
		if err := b.cache.Get(ctx, newsCacheKey, &cached); err == nil {
			return cached, nil
		}
	}
	summary, err := b.news.Summary(ctx)
	if err != nil {
		return models.NewsSummary{TopNews: []models.NewsItem{}}, err
	}
	if b.cache != nil {
		if err := b.cache.Set(ctx, newsCacheKey, summary, b.cfg.NewsCacheTTL); err != nil && b.logger != nil {
			b.logger.Warn("news summary cache write failed", applogger.Error(err))
		}
	}
	return summary, nil
}

func (b *SnapshotBuilder) recordError(kind string) {
	if b.metrics != nil {
		b.metrics.RecordError(kind)
	}
}
