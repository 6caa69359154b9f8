package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/services/features"
	"CoinCast/pkg/cache"
)

var fixtureStart = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

// fixtureCandles alternates close deltas between +4 and -2 so every RSI
// window contains both gains and losses and the indicator table is dense.
func fixtureCandles(n int) []models.Candle {
	out := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		c := 50000.0 + float64(i) + 3.0*float64(i%2)
		out[i] = models.Candle{
			OpenTime: fixtureStart.Add(time.Duration(i) * time.Hour),
			Open:     c - 1, High: c + 2, Low: c - 2, Close: c,
			Volume: 10 + float64(i%5),
		}
	}
	return out
}

type fakeCandleSource struct {
	candles []models.Candle
	err     error
	calls   atomic.Int64
}

func (f *fakeCandleSource) RecentCandles(_ context.Context, _ string, limit int) ([]models.Candle, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if limit > len(f.candles) {
		limit = len(f.candles)
	}
	return f.candles[len(f.candles)-limit:], nil
}

func (f *fakeCandleSource) CandleRange(_ context.Context, _ string, from, to time.Time) ([]models.Candle, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Candle
	for _, c := range f.candles {
		if !c.OpenTime.Before(from) && !c.OpenTime.After(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCandleSource) Ticker(_ context.Context, symbol string) (*models.TickerQuote, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.TickerQuote{Symbol: symbol, Price: 50000, Change24hPct: 1.5}, nil
}

type fakeCrossSource struct {
	daily []models.DailyClose
	err   error
}

func (f *fakeCrossSource) DailyCloses(context.Context, string, time.Time, time.Time) ([]models.DailyClose, error) {
	return f.daily, f.err
}

type fakeNews struct {
	summary models.NewsSummary
	err     error
	calls   atomic.Int64
}

func (f *fakeNews) Summary(context.Context) (models.NewsSummary, error) {
	f.calls.Add(1)
	return f.summary, f.err
}

type fakeMetrics struct {
	errors      atomic.Int64
	predictions atomic.Int64
	rowsSunk    atomic.Int64
}

func (f *fakeMetrics) RecordPrediction(string, string) { f.predictions.Add(1) }
func (f *fakeMetrics) RecordClamp(string)              {}
func (f *fakeMetrics) RecordRowSunk(string)            { f.rowsSunk.Add(1) }
func (f *fakeMetrics) RecordError(string)              { f.errors.Add(1) }
func (f *fakeMetrics) RecordLastPrice(string, float64) {}
func (f *fakeMetrics) RecordLatency(string, float64)   {}

func healthyFixture() (*fakeCandleSource, *fakeCrossSource, *fakeNews) {
	candles := &fakeCandleSource{candles: fixtureCandles(200)}
	cross := &fakeCrossSource{daily: []models.DailyClose{
		{Date: fixtureStart.AddDate(0, 0, -2), Close: 17000},
		{Date: fixtureStart.AddDate(0, 0, 2), Close: 17200},
	}}
	news := &fakeNews{summary: models.NewsSummary{
		SentimentScore: 0.25, NewsCount: 6, PositiveCount: 4, NeutralCount: 2,
		TopNews: []models.NewsItem{{Title: "Bitcoin climbs", Label: "positive"}},
	}}
	return candles, cross, news
}

func newTestBuilder(c *fakeCandleSource, x *fakeCrossSource, n *fakeNews, svc cache.Service) *SnapshotBuilder {
	return NewSnapshotBuilder(SnapshotConfig{
		Symbol:      "BTCUSDT",
		CrossSymbol: "^IXIC",
		CandleLimit: 200,
	}, c, x, n, svc, &fakeMetrics{}, nil)
}

func TestSnapshotBuildHealthy(t *testing.T) {
	candles, cross, news := healthyFixture()
	b := newTestBuilder(candles, cross, news, nil)

	snap, err := b.Build(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, snap.Rows)
	assert.Empty(t, snap.Degraded)
	assert.Equal(t, candles.candles[199].Close, snap.CurrentPrice)
	assert.Equal(t, 0.25, snap.News.SentimentScore)

	last, ok := snap.Latest()
	require.True(t, ok)
	assert.Equal(t, candles.candles[199].OpenTime, last.Timestamp)
	assert.Equal(t, 0.25, last.Values[features.FieldNewsSentiment])
	assert.Equal(t, 17200.0, last.Values[features.FieldCrossClose])
}

func TestSnapshotBuildCandleFailureIsFatal(t *testing.T) {
	candles := &fakeCandleSource{err: errors.New("exchange down")}
	_, cross, news := healthyFixture()
	b := newTestBuilder(candles, cross, news, nil)

	_, err := b.Build(context.Background())
	require.ErrorIs(t, err, models.ErrCandleDataUnavailable)
	assert.ErrorContains(t, err, "exchange down")
}

func TestSnapshotBuildCrossAssetDegrades(t *testing.T) {
	candles, _, news := healthyFixture()
	cross := &fakeCrossSource{err: errors.New("quota exceeded")}
	b := newTestBuilder(candles, cross, news, nil)

	snap, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "quota exceeded", snap.Degraded[SignalCrossAsset])
	last, _ := snap.Latest()
	assert.Zero(t, last.Values[features.FieldCrossClose])
	assert.Zero(t, last.Values[features.FieldCrossChange])
	// News survived unaffected.
	assert.NotContains(t, snap.Degraded, SignalNews)
	assert.Equal(t, 0.25, last.Values[features.FieldNewsSentiment])
}

func TestSnapshotBuildNewsDegrades(t *testing.T) {
	candles, cross, _ := healthyFixture()
	news := &fakeNews{err: errors.New("all 3 news feeds unavailable")}
	b := newTestBuilder(candles, cross, news, nil)

	snap, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Contains(t, snap.Degraded, SignalNews)
	assert.Zero(t, snap.News.SentimentScore)
	assert.Zero(t, snap.News.NewsCount)
	require.NotNil(t, snap.News.TopNews)
	last, _ := snap.Latest()
	assert.Zero(t, last.Values[features.FieldNewsSentiment])
	assert.Zero(t, last.Values[features.FieldNewsCount])
}

func TestSnapshotBuildInsufficientHistory(t *testing.T) {
	candles := &fakeCandleSource{candles: fixtureCandles(50)}
	_, cross, news := healthyFixture()
	b := newTestBuilder(candles, cross, news, nil)

	_, err := b.Build(context.Background())
	var insufficient *models.InsufficientHistoryError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 50, insufficient.Have)
}

func TestSnapshotBuildCachesNewsSummary(t *testing.T) {
	candles, cross, news := healthyFixture()
	b := newTestBuilder(candles, cross, news, cache.NewMemoryCache())

	_, err := b.Build(context.Background())
	require.NoError(t, err)
	snap, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), news.calls.Load(), "second build should hit the cache")
	assert.Equal(t, 0.25, snap.News.SentimentScore)
}
