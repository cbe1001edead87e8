package screener

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"SellBreakout/internal/collector"
	"SellBreakout/internal/model"
	"SellBreakout/internal/strategy"
)

func bars(ohlc ...[4]float64) []model.OHLCV {
	t0 := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	out := make([]model.OHLCV, len(ohlc))
	for i, v := range ohlc {
		out[i] = model.OHLCV{Time: t0.AddDate(0, 0, i), Open: v[0], High: v[1], Low: v[2], Close: v[3]}
	}
	return out
}

func newScreener(f collector.Fetcher) *Screener {
	return New(collector.NewCollector(f), strategy.DefaultConfig(), ".SR", "TADAWUL", 2)
}

func TestRun_ReportsLatestBreakoutsInOrder(t *testing.T) {
	mock := &collector.MockFetcher{
		Bars: map[string][]model.OHLCV{
			// breakout on the last bar
			"1120.SR": bars([4]float64{10, 11, 8, 8}, [4]float64{9, 11.6, 8.2, 11.456}),
			// breakout earlier, not on the last bar
			"2380.SR": bars([4]float64{10, 11, 8, 8}, [4]float64{9, 12, 8.2, 11.5}, [4]float64{11.5, 12, 11, 11.8}),
			// no sell candle at all
			"1050.SR": bars([4]float64{10, 10, 10, 10}, [4]float64{10, 12, 10, 12}),
			"4001.SR": bars([4]float64{20, 21, 16, 16}, [4]float64{16, 22, 16, 21.5}),
		},
		Errors: map[string]error{"9999.SR": errors.New("delisted")},
	}
	s := newScreener(mock)
	report := s.Run(context.Background(), model.ScanRequest{
		Symbols: []string{"4001.SR", "1120.SR", "2380.SR", "1050.SR", "9999.SR"},
		Query:   model.BarQuery{Interval: model.IntervalDaily},
	})

	if report.Requested != 5 {
		t.Errorf("expected 5 requested, got %d", report.Requested)
	}
	if len(report.Hits) != 2 {
		t.Fatalf("expected 2 hits, got %+v", report.Hits)
	}
	if report.Hits[0].Code != "4001" || report.Hits[1].Code != "1120" {
		t.Errorf("hits not in request order: %+v", report.Hits)
	}
	if report.Hits[1].Close != 11.46 {
		t.Errorf("expected close rounded to 11.46, got %v", report.Hits[1].Close)
	}
	if !strings.Contains(report.Hits[1].ChartURL, "TADAWUL%3A1120") {
		t.Errorf("unexpected chart url %s", report.Hits[1].ChartURL)
	}
	if len(report.Failed) != 1 || report.Failed[0].Symbol != "9999.SR" {
		t.Errorf("expected 9999.SR to fail, got %+v", report.Failed)
	}
}

func TestRun_EmptyRequest(t *testing.T) {
	report := newScreener(&collector.MockFetcher{}).Run(context.Background(), model.ScanRequest{})
	if report.Requested != 0 || len(report.Hits) != 0 || report.Hits == nil {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newScreener(&collector.MockFetcher{Price: 10})
	s.Workers = 1
	report := s.Run(ctx, model.ScanRequest{Symbols: []string{"1120.SR", "2380.SR", "1050.SR"}})
	if len(report.Hits) != 0 {
		t.Errorf("expected no hits after cancellation, got %+v", report.Hits)
	}
}

func TestCheck_RespectsThreshold(t *testing.T) {
	mock := &collector.MockFetcher{Bars: map[string][]model.OHLCV{
		// ratio 0.5: a sell candle only when the threshold drops to 0.5
		"1120.SR": bars([4]float64{10, 11, 8, 8.5}, [4]float64{9, 12, 9, 11.5}),
	}}
	s := newScreener(mock)
	hit, err := s.Check(context.Background(), "1120.SR", model.BarQuery{})
	if err != nil || hit != nil {
		t.Fatalf("expected no hit at 0.55, got %+v, %v", hit, err)
	}
	s.Config.SellBodyThreshold = 0.5
	hit, err = s.Check(context.Background(), "1120.SR", model.BarQuery{})
	if err != nil || hit == nil {
		t.Fatalf("expected hit at 0.5, got %+v, %v", hit, err)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []model.BreakoutHit{
		{Code: "1120", Close: 11.5},
		{Code: "2380", Close: 9.456},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "symbol,close\n1120,11.50\n2380,9.46\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}
