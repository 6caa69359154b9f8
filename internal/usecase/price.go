package usecase

import (
	"context"

	"CoinCast/internal/domain/models"
	drepo "CoinCast/internal/domain/repository"
)

// PriceService serves the spot price endpoint from the exchange 24h ticker.
type PriceService struct {
	symbol  string
	candles drepo.CandleSource
}

// NewPriceService creates a PriceService.
func NewPriceService(symbol string, candles drepo.CandleSource) *PriceService {
	return &PriceService{symbol: symbol, candles: candles}
}

// Current returns the rolling 24h ticker quote.
func (s *PriceService) Current(ctx context.Context) (*models.TickerQuote, error) {
	return s.candles.Ticker(ctx, s.symbol)
}
