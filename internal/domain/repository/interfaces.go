package repository

import (
	"context"
	"time"

	"CoinCast/internal/domain/models"
)

// CandleSource pulls hourly OHLCV candles and the current ticker from the
// exchange. Only open/high/low/close/volume/timestamp are consumed.
type CandleSource interface {
	// RecentCandles returns the most recent `limit` hourly candles, ascending.
	RecentCandles(ctx context.Context, symbol string, limit int) ([]models.Candle, error)
	// CandleRange returns hourly candles in [from, to], ascending, paging as needed.
	CandleRange(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error)
	// Ticker returns the rolling 24h ticker.
	Ticker(ctx context.Context, symbol string) (*models.TickerQuote, error)
}

// CrossAssetSource pulls daily closes for the companion index over a range.
type CrossAssetSource interface {
	DailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]models.DailyClose, error)
}

// PriceStream is a live kline stream from the exchange websocket.
type PriceStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.LiveCandle, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Metrics records operational metrics.
type Metrics interface {
	RecordPrediction(horizon, direction string)
	RecordClamp(horizon string)
	RecordRowSunk(backend string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
