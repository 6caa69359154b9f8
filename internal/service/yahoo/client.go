package yahoo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"CoinCast/internal/domain/models"
	drepo "CoinCast/internal/domain/repository"
	apphttp "CoinCast/pkg/http"
)

// Client implements CrossAssetSource against the Yahoo Finance chart API,
// used for the daily companion index series.
type Client struct {
	baseURL string
	http    *apphttp.Client
}

// New creates a Yahoo CrossAssetSource.
func New(baseURL string, httpClient *apphttp.Client) drepo.CrossAssetSource {
	return &Client{baseURL: baseURL, http: httpClient}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailyCloses returns the companion index's daily closes in [from, to],
// ascending. Null closes (market holidays mid-series) are skipped.
func (c *Client) DailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]models.DailyClose, error) {
	var resp chartResponse
	err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method: apphttp.MethodGet,
		URL:    c.baseURL + "/v8/finance/chart/" + symbol,
		Headers: map[string]string{
			// the chart endpoint rejects requests without a browser-ish agent
			"User-Agent": "Mozilla/5.0 (compatible; coincast/1.0)",
		},
		QueryParams: map[string][]string{
			"period1":  {strconv.FormatInt(from.Unix(), 10)},
			"period2":  {strconv.FormatInt(to.Unix(), 10)},
			"interval": {"1d"},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart: %w", err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo chart: empty result for %s", symbol)
	}

	result := resp.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	out := make([]models.DailyClose, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		out = append(out, models.DailyClose{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *closes[i],
		})
	}
	return out, nil
}
