package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"CoinCast/internal/domain/models"
	drepo "CoinCast/internal/domain/repository"
	"CoinCast/internal/service/ratelimit"
	apphttp "CoinCast/pkg/http"
)

const (
	klineInterval  = "1h"
	maxKlinesPerReq = 1000

	// Binance weights REST calls; one token per request keeps us far inside
	// the public 1200 weight/min budget.
	rateKey       = "binance-rest"
	rateCapacity  = 10
	ratePerSecond = 5
)

// Client implements CandleSource against the Binance spot REST API.
type Client struct {
	baseURL string
	http    *apphttp.Client
	limiter *ratelimit.Limiter
}

// New creates a Binance CandleSource.
func New(baseURL string, httpClient *apphttp.Client, limiter *ratelimit.Limiter) drepo.CandleSource {
	return &Client{baseURL: baseURL, http: httpClient, limiter: limiter}
}

// RecentCandles returns the most recent `limit` hourly candles, ascending.
// The newest candle may still be forming; callers that require closed candles
// only should drop the final row.
func (c *Client) RecentCandles(ctx context.Context, symbol string, limit int) ([]models.Candle, error) {
	params := map[string][]string{
		"symbol":   {symbol},
		"interval": {klineInterval},
		"limit":    {strconv.Itoa(limit)},
	}
	return c.fetchKlines(ctx, params)
}

// CandleRange returns hourly candles in [from, to], ascending, paging through
// the exchange's per-request cap.
func (c *Client) CandleRange(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error) {
	var out []models.Candle
	cursor := from.UnixMilli()
	end := to.UnixMilli()

	for cursor <= end {
		params := map[string][]string{
			"symbol":    {symbol},
			"interval":  {klineInterval},
			"startTime": {strconv.FormatInt(cursor, 10)},
			"endTime":   {strconv.FormatInt(end, 10)},
			"limit":     {strconv.Itoa(maxKlinesPerReq)},
		}
		batch, err := c.fetchKlines(ctx, params)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		out = append(out, batch...)
		// advance past the last open time returned
		cursor = batch[len(batch)-1].OpenTime.UnixMilli() + 1
		if len(batch) < maxKlinesPerReq {
			break
		}
	}
	return out, nil
}

type tickerResponse struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
}

// Ticker returns the rolling 24h ticker.
func (c *Client) Ticker(ctx context.Context, symbol string) (*models.TickerQuote, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	var resp tickerResponse
	err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method:      apphttp.MethodGet,
		URL:         c.baseURL + "/api/v3/ticker/24hr",
		QueryParams: map[string][]string{"symbol": {symbol}},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("binance ticker: %w", err)
	}
	price, err := strconv.ParseFloat(resp.LastPrice, 64)
	if err != nil {
		return nil, fmt.Errorf("binance ticker price %q: %w", resp.LastPrice, err)
	}
	change, err := strconv.ParseFloat(resp.PriceChangePercent, 64)
	if err != nil {
		return nil, fmt.Errorf("binance ticker change %q: %w", resp.PriceChangePercent, err)
	}
	return &models.TickerQuote{
		Symbol:       resp.Symbol,
		Price:        price,
		Change24hPct: change,
		Timestamp:    time.Now().UTC(),
	}, nil
}

func (c *Client) fetchKlines(ctx context.Context, params map[string][]string) ([]models.Candle, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	var rows [][]json.RawMessage
	err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method:      apphttp.MethodGet,
		URL:         c.baseURL + "/api/v3/klines",
		QueryParams: params,
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("binance klines: %w", err)
	}

	out := make([]models.Candle, 0, len(rows))
	for _, row := range rows {
		candle, err := parseKline(row)
		if err != nil {
			return nil, err
		}
		out = append(out, candle)
	}
	return out, nil
}

// parseKline decodes one kline row. Binance returns a positional array:
// [openTime, open, high, low, close, volume, closeTime, ...] with prices as
// strings and times in epoch milliseconds.
func parseKline(row []json.RawMessage) (models.Candle, error) {
	if len(row) < 6 {
		return models.Candle{}, fmt.Errorf("binance kline row has %d fields, need 6", len(row))
	}
	var openMs int64
	if err := json.Unmarshal(row[0], &openMs); err != nil {
		return models.Candle{}, fmt.Errorf("binance kline open time: %w", err)
	}
	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		var s string
		if err := json.Unmarshal(row[i+1], &s); err != nil {
			return models.Candle{}, fmt.Errorf("binance kline field %d: %w", i+1, err)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("binance kline field %d %q: %w", i+1, s, err)
		}
		vals[i] = v
	}
	return models.Candle{
		OpenTime: time.UnixMilli(openMs).UTC(),
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}, nil
}

// wait blocks until the limiter grants a token or the context ends.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	for !c.limiter.Allow(rateKey, rateCapacity, ratePerSecond) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil
}
