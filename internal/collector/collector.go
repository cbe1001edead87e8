package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"SellBreakout/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price  float64
	Bars   map[string][]model.OHLCV
	Errors map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, symbol string, q model.BarQuery) ([]model.OHLCV, error) {
	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	return generateMockBars(m.Price, q), nil
}

func generateMockBars(basePrice float64, q model.BarQuery) []model.OHLCV {
	step := func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
	switch q.Interval {
	case model.IntervalWeekly:
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }
	case model.IntervalMonthly:
		step = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
	}
	end := q.End
	if end.IsZero() {
		end = time.Now()
	}
	start := q.Start
	if start.IsZero() {
		start = end.AddDate(0, 0, -100)
	}
	var bars []model.OHLCV
	i := 0
	for t := start; t.Before(end); t = step(t) {
		p := basePrice * (1 + float64(i%20-10)*0.001)
		bars = append(bars, model.OHLCV{
			Time:   t,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}

// Collector fetches one series per symbol and normalizes it for detection.
type Collector struct {
	Fetcher Fetcher
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher}
}

// Collect fetches the bars of one symbol, keeps those inside [Start, End)
// and returns them in chronological order.
func (c *Collector) Collect(ctx context.Context, symbol string, q model.BarQuery) (*model.PriceSeries, error) {
	raw, err := c.Fetcher.FetchBars(ctx, symbol, q)
	if err != nil {
		return nil, fmt.Errorf("fetch %s bars: %w", symbol, err)
	}

	bars := make([]model.OHLCV, 0, len(raw))
	for _, b := range raw {
		if !q.Start.IsZero() && b.Time.Before(q.Start) {
			continue
		}
		if !q.End.IsZero() && !b.Time.Before(q.End) {
			continue
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	return &model.PriceSeries{
		Symbol:    symbol,
		Interval:  q.Interval,
		Bars:      bars,
		FetchedAt: time.Now(),
	}, nil
}
