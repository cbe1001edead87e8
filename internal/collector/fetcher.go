package collector

import (
	"context"
	"errors"

	"SellBreakout/internal/model"
)

// ErrNoData is returned when a provider has no bars for the requested window.
var ErrNoData = errors.New("no data returned")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol string, q model.BarQuery) ([]model.OHLCV, error)
	Name() string
}
