package models

import "time"

// Candle is one hourly OHLCV record for feature engineering and inference.
// OpenTime is the bar's open timestamp in UTC.
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// LiveCandle is a streamed kline update. Final marks the bar as closed;
// non-final updates only carry the current in-progress price.
type LiveCandle struct {
	Candle
	Final bool
}

// TickerQuote is the exchange's rolling 24h ticker for a symbol.
type TickerQuote struct {
	Symbol       string    `json:"symbol"`
	Price        float64   `json:"price"`
	Change24hPct float64   `json:"change_24h"`
	Timestamp    time.Time `json:"timestamp"`
}

// DailyClose is one daily close of the companion cross-asset index.
type DailyClose struct {
	Date  time.Time
	Close float64
}
