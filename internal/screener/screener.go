package screener

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"SellBreakout/internal/collector"
	"SellBreakout/internal/model"
	"SellBreakout/internal/strategy"
	"SellBreakout/internal/symbols"

	"github.com/shopspring/decimal"
)

const defaultWorkers = 4

// Screener reports the symbols whose latest bar is a sell-candle breakout.
// Every symbol is fetched and scanned on its own; nothing is shared between
// scans.
type Screener struct {
	Collector *collector.Collector
	Config    strategy.Config
	Suffix    string // market suffix, e.g. ".SR"
	Exchange  string // chart exchange prefix, e.g. "TADAWUL"
	Workers   int
}

// New creates a Screener.
func New(col *collector.Collector, cfg strategy.Config, suffix, exchange string, workers int) *Screener {
	return &Screener{Collector: col, Config: cfg, Suffix: suffix, Exchange: exchange, Workers: workers}
}

type outcome struct {
	hit *model.BreakoutHit
	err error
}

// Run screens every symbol of req. Failed symbols are reported, not fatal.
func (s *Screener) Run(ctx context.Context, req model.ScanRequest) *model.ScanReport {
	workers := s.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	results := make([]outcome, len(req.Symbols))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, sym := range req.Symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i].err = ctx.Err()
				return
			}
			defer func() { <-sem }()
			hit, err := s.Check(ctx, sym, req.Query)
			results[i] = outcome{hit: hit, err: err}
		}(i, sym)
	}
	wg.Wait()

	report := &model.ScanReport{
		Interval:  req.Query.Interval,
		Requested: len(req.Symbols),
		Hits:      []model.BreakoutHit{},
		ScannedAt: time.Now(),
	}
	for i, r := range results {
		switch {
		case r.err != nil:
			log.Printf("[WARN] screen %s: %v", req.Symbols[i], r.err)
			report.Failed = append(report.Failed, model.SymbolError{Symbol: req.Symbols[i], Err: r.err.Error()})
		case r.hit != nil:
			report.Hits = append(report.Hits, *r.hit)
		}
	}
	log.Printf("[INFO] screened %d symbols: %d breakouts, %d failed",
		report.Requested, len(report.Hits), len(report.Failed))
	return report
}

// Check screens a single symbol. It returns a nil hit when the latest bar is
// not a breakout.
func (s *Screener) Check(ctx context.Context, symbol string, q model.BarQuery) (*model.BreakoutHit, error) {
	series, err := s.Collector.Collect(ctx, symbol, q)
	if err != nil {
		return nil, err
	}
	if !strategy.Latest(series.Bars, s.Config) {
		return nil, nil
	}
	last, _ := series.Last()
	code := symbols.Code(symbol, s.Suffix)
	return &model.BreakoutHit{
		Code:     code,
		Symbol:   symbol,
		Close:    roundPrice(last.Close),
		Time:     last.Time,
		ChartURL: symbols.ChartURL(s.Exchange, code, q.Interval),
	}, nil
}

// roundPrice rounds to two decimals. Non-finite prices are returned as is.
func roundPrice(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return p
	}
	f, _ := decimal.NewFromFloat(p).Round(2).Float64()
	return f
}
