package server

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"SellBreakout/internal/collector"
	"SellBreakout/internal/model"
	"SellBreakout/internal/screener"
	"SellBreakout/internal/strategy"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	t0 := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)
	mock := &collector.MockFetcher{
		Price: 30,
		Bars: map[string][]model.OHLCV{
			"1120.SR": {
				{Time: t0, Open: 10, High: 11, Low: 8, Close: 8},
				{Time: t0.AddDate(0, 0, 1), Open: 9, High: 9.5, Low: 8.2, Close: 11.5},
			},
			"2380.SR": {
				{Time: t0, Open: 10, High: 11, Low: 8, Close: 8},
				{Time: t0.AddDate(0, 0, 1), Open: 8, High: 10, Low: 8, Close: 9.9},
			},
		},
		Errors: map[string]error{"9999.SR": errors.New("unknown symbol")},
	}
	scr := screener.New(collector.NewCollector(mock), strategy.DefaultConfig(), ".SR", "TADAWUL", 2)
	api := &API{
		Screener: scr,
		Defaults: Defaults{Symbols: "1120 2380", Interval: model.IntervalDaily, Start: "2024-05-01"},
	}
	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func getJSON(t *testing.T, url string) (int, envelope) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, env
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	status, env := getJSON(t, srv.URL+"/health")
	if status != http.StatusOK || !env.Success {
		t.Errorf("unexpected health response %d %+v", status, env)
	}
}

func TestScan_DefaultSymbols(t *testing.T) {
	srv := newTestServer(t)
	status, env := getJSON(t, srv.URL+"/api/scan")
	if status != http.StatusOK {
		t.Fatalf("status %d: %s", status, env.Error)
	}
	var report model.ScanReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatal(err)
	}
	if report.Requested != 2 || len(report.Hits) != 1 || report.Hits[0].Code != "1120" {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestScan_ExplicitSymbolsAndFailures(t *testing.T) {
	srv := newTestServer(t)
	_, env := getJSON(t, srv.URL+"/api/scan?symbols=2380,9999")
	var report model.ScanReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatal(err)
	}
	if report.Requested != 2 || len(report.Hits) != 0 || len(report.Failed) != 1 {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestScan_BadQuery(t *testing.T) {
	srv := newTestServer(t)
	for _, q := range []string{"?interval=5m", "?start=yesterday", "?symbols=%20"} {
		status, env := getJSON(t, srv.URL+"/api/scan"+q)
		if status != http.StatusBadRequest || env.Success {
			t.Errorf("%s: expected 400, got %d %+v", q, status, env)
		}
	}
}

func TestScanCSV(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/scan.csv")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "breakouts.csv") {
		t.Errorf("unexpected disposition %q", resp.Header.Get("Content-Disposition"))
	}
	if string(body) != "symbol,close\n1120,11.50\n" {
		t.Errorf("unexpected csv %q", body)
	}
}

func TestDetect(t *testing.T) {
	srv := newTestServer(t)
	status, env := getJSON(t, srv.URL+"/api/detect/1120")
	if status != http.StatusOK {
		t.Fatalf("status %d: %s", status, env.Error)
	}
	var data struct {
		Symbol string     `json:"symbol"`
		Bars   []barTrace `json:"bars"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Symbol != "1120.SR" || len(data.Bars) != 2 {
		t.Fatalf("unexpected trace %+v", data)
	}
	if !data.Bars[0].SellCandle || data.Bars[0].TrackedHigh == nil || *data.Bars[0].TrackedHigh != 11 {
		t.Errorf("bar 0: expected tracked high 11, got %+v", data.Bars[0])
	}
	if !data.Bars[1].Breakout || data.Bars[1].TrackedHigh != nil {
		t.Errorf("bar 1: expected breakout with cleared watermark, got %+v", data.Bars[1])
	}
}

func TestDetect_Errors(t *testing.T) {
	srv := newTestServer(t)
	if status, _ := getJSON(t, srv.URL+"/api/detect/9999"); status != http.StatusBadGateway {
		t.Errorf("expected 502 for fetch failure, got %d", status)
	}
	if status, _ := getJSON(t, srv.URL+"/api/detect/1120,2380"); status != http.StatusBadRequest {
		t.Errorf("expected 400 for multiple symbols, got %d", status)
	}
	if status, _ := getJSON(t, srv.URL+"/api/detect/1120?interval=1h"); status != http.StatusBadRequest {
		t.Errorf("expected 400 for bad interval, got %d", status)
	}
}

func TestIndex(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/?run=1&symbols=1120+2380")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	page := string(body)
	for _, want := range []string{"Breakouts: 1", "<td>1120</td>", "11.50", "widgetembed", "/api/scan.csv?"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func newInfServer(t *testing.T, threshold float64) *httptest.Server {
	t.Helper()
	t0 := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)
	mock := &collector.MockFetcher{
		Bars: map[string][]model.OHLCV{
			"4321.SR": {
				{Time: t0, Open: 10, High: math.Inf(1), Low: 8, Close: 8},
				{Time: t0.AddDate(0, 0, 1), Open: 10, High: 11, Low: 8, Close: 8},
				{Time: t0.AddDate(0, 0, 2), Open: 9, High: math.Inf(1), Low: 8, Close: math.Inf(1)},
			},
		},
	}
	scr := screener.New(collector.NewCollector(mock), strategy.Config{SellBodyThreshold: threshold}, ".SR", "TADAWUL", 1)
	api := &API{Screener: scr, Defaults: Defaults{Symbols: "4321", Interval: model.IntervalDaily, Start: "2024-05-01"}}
	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)
	return srv
}

func TestScan_InfiniteCloseStillEncodes(t *testing.T) {
	srv := newInfServer(t, strategy.DefaultSellBodyThreshold)
	status, env := getJSON(t, srv.URL+"/api/scan")
	if status != http.StatusOK || !env.Success {
		t.Fatalf("status %d: %s", status, env.Error)
	}
	var report model.ScanReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatal(err)
	}
	if len(report.Hits) != 1 || report.Hits[0].Code != "4321" || report.Hits[0].Close != 0 {
		t.Errorf("expected one hit with sanitized close, got %+v", report.Hits)
	}
}

func TestDetect_InfiniteTrackedHighStillEncodes(t *testing.T) {
	// threshold 0 makes the infinite-range first bar a sell candle
	srv := newInfServer(t, 0)
	status, env := getJSON(t, srv.URL+"/api/detect/4321")
	if status != http.StatusOK {
		t.Fatalf("status %d: %s", status, env.Error)
	}
	var data struct {
		Bars []barTrace `json:"bars"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(data.Bars))
	}
	if b := data.Bars[0]; !b.SellCandle || b.TrackedHigh == nil || *b.TrackedHigh != 0 || b.High != 0 {
		t.Errorf("bar 0: expected sanitized infinite high, got %+v", b)
	}
}

func TestWriteJSON_UnencodableIs500(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, map[string]float64{"close": math.NaN()})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Errorf("expected error envelope, got %q", rec.Body.String())
	}
}
