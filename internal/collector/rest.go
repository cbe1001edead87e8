package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"time"

	"SellBreakout/internal/model"
)

// HTTPFetcher implements Fetcher against a generic REST bars API.
type HTTPFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPFetcher creates a new fetcher with optional proxy support.
func NewHTTPFetcher(baseURL, apiKey, proxyURL string) *HTTPFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &HTTPFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *HTTPFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars API.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// FetchBars requests bars at q.Interval. When the API cannot serve weekly or
// monthly bars, daily bars are fetched and aggregated instead.
func (f *HTTPFetcher) FetchBars(ctx context.Context, symbol string, q model.BarQuery) ([]model.OHLCV, error) {
	interval := q.Interval
	if interval == "" {
		interval = model.IntervalDaily
	}
	bars, err := f.fetchBars(ctx, f.endpoint(symbol, interval, q))
	if err == nil || interval == model.IntervalDaily {
		return bars, err
	}

	log.Printf("[WARN] %s %s bars unavailable (%v), aggregating daily bars", symbol, interval, err)
	daily, dailyErr := f.fetchBars(ctx, f.endpoint(symbol, model.IntervalDaily, q))
	if dailyErr != nil {
		return nil, fmt.Errorf("%s fetch failed: %w; daily fallback also failed: %w", interval, err, dailyErr)
	}
	if interval == model.IntervalMonthly {
		return aggregateDailyToMonthly(daily), nil
	}
	return aggregateDailyToWeekly(daily), nil
}

func (f *HTTPFetcher) endpoint(symbol, interval string, q model.BarQuery) string {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	if !q.Start.IsZero() {
		params.Set("from", fmt.Sprint(q.Start.Unix()))
	}
	if !q.End.IsZero() {
		params.Set("to", fmt.Sprint(q.End.Unix()))
	}
	return fmt.Sprintf("%s/api/v1/bars?%s", f.BaseURL, params.Encode())
}

func (f *HTTPFetcher) fetchBars(ctx context.Context, endpoint string) ([]model.OHLCV, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	var raw []restBar
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]model.OHLCV, len(raw))
	for i, rb := range raw {
		bars[i] = model.OHLCV{
			Time:   time.Unix(rb.Timestamp, 0).UTC(),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// aggregateDailyToWeekly converts daily bars into ISO-week bars.
func aggregateDailyToWeekly(daily []model.OHLCV) []model.OHLCV {
	return aggregate(daily, func(t time.Time) int {
		year, week := t.ISOWeek()
		return year*100 + week
	})
}

// aggregateDailyToMonthly converts daily bars into calendar-month bars.
func aggregateDailyToMonthly(daily []model.OHLCV) []model.OHLCV {
	return aggregate(daily, func(t time.Time) int {
		return t.Year()*100 + int(t.Month())
	})
}

// aggregate merges consecutive daily bars sharing a period key. Each output
// bar is stamped with the time of its first daily bar.
func aggregate(daily []model.OHLCV, key func(time.Time) int) []model.OHLCV {
	if len(daily) == 0 {
		return nil
	}
	var out []model.OHLCV
	cur := daily[0]
	curKey := key(cur.Time)

	for _, d := range daily[1:] {
		if k := key(d.Time); k != curKey {
			out = append(out, cur)
			cur, curKey = d, k
			continue
		}
		if d.High > cur.High {
			cur.High = d.High
		}
		if d.Low < cur.Low {
			cur.Low = d.Low
		}
		cur.Close = d.Close
		cur.Volume += d.Volume
	}
	return append(out, cur)
}
