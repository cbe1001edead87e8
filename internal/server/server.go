package server

import (
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"SellBreakout/internal/collector"
	"SellBreakout/internal/config"
	"SellBreakout/internal/model"
	"SellBreakout/internal/screener"
	"SellBreakout/internal/strategy"
	"SellBreakout/internal/symbols"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Defaults fill query parameters the client leaves out.
type Defaults struct {
	Symbols  string
	Interval string
	Start    string
	End      string
}

// API serves screening results over HTTP. All request state comes from the
// query string; nothing is kept between requests.
type API struct {
	Screener *screener.Screener
	Defaults Defaults
}

// Router builds the HTTP routes.
func (api *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CorsMiddleware)

	r.Get("/", api.HandleIndex)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, "healthy")
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/scan", api.HandleScan)
		r.Get("/scan.csv", api.HandleScanCSV)
		r.Get("/detect/{symbol}", api.HandleDetect)
	})
	return r
}

func (api *API) param(r *http.Request, key, def string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return def
}

// barQuery reads interval, start and end from the query string.
func (api *API) barQuery(r *http.Request) (model.BarQuery, error) {
	return config.ParseQuery(
		api.param(r, "interval", api.Defaults.Interval),
		api.param(r, "start", api.Defaults.Start),
		api.param(r, "end", api.Defaults.End),
	)
}

// scanRequest reads the symbol list and bar window from the query string.
func (api *API) scanRequest(r *http.Request) (model.ScanRequest, error) {
	q, err := api.barQuery(r)
	if err != nil {
		return model.ScanRequest{}, err
	}
	syms := symbols.Parse(api.param(r, "symbols", api.Defaults.Symbols), api.Screener.Suffix)
	if len(syms) == 0 {
		return model.ScanRequest{}, errors.New("no symbols given")
	}
	return model.ScanRequest{Symbols: syms, Query: q}, nil
}

// HandleScan returns the breakout report as JSON.
func (api *API) HandleScan(w http.ResponseWriter, r *http.Request) {
	req, err := api.scanRequest(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, jsonReport(api.Screener.Run(r.Context(), req)))
}

// HandleScanCSV returns the breakout hits as a CSV download.
func (api *API) HandleScanCSV(w http.ResponseWriter, r *http.Request) {
	req, err := api.scanRequest(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	report := api.Screener.Run(r.Context(), req)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", screener.CSVFileName))
	if err := screener.WriteCSV(w, report.Hits); err != nil {
		log.Printf("[ERROR] write csv: %v", err)
	}
}

// barTrace is one bar of /api/detect output. TrackedHigh is null when no
// sell-candle high is being tracked.
type barTrace struct {
	Time        time.Time `json:"time"`
	Open        float64   `json:"open"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	Close       float64   `json:"close"`
	SellCandle  bool      `json:"sell_candle"`
	Breakout    bool      `json:"breakout"`
	TrackedHigh *float64  `json:"tracked_high"`
}

// HandleDetect returns the per-bar detector trace for one symbol.
func (api *API) HandleDetect(w http.ResponseWriter, r *http.Request) {
	q, err := api.barQuery(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	syms := symbols.Parse(chi.URLParam(r, "symbol"), api.Screener.Suffix)
	if len(syms) != 1 {
		WriteError(w, http.StatusBadRequest, "exactly one symbol expected")
		return
	}

	series, err := api.Screener.Collector.Collect(r.Context(), syms[0], q)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, collector.ErrNoData) {
			status = http.StatusNotFound
		}
		WriteError(w, status, err.Error())
		return
	}

	steps := strategy.Trace(series.Bars, api.Screener.Config)
	out := make([]barTrace, len(steps))
	for i, s := range steps {
		b := series.Bars[i]
		out[i] = barTrace{
			Time: b.Time, Open: jsonSafe(b.Open), High: jsonSafe(b.High), Low: jsonSafe(b.Low), Close: jsonSafe(b.Close),
			SellCandle: s.SellCandle, Breakout: s.Breakout,
		}
		if s.Tracking {
			h := jsonSafe(s.TrackedHigh)
			out[i].TrackedHigh = &h
		}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":   series.Symbol,
		"interval": series.Interval,
		"bars":     out,
	})
}

// jsonReport returns a copy of r whose hit prices can be JSON encoded.
func jsonReport(r *model.ScanReport) *model.ScanReport {
	out := *r
	out.Hits = make([]model.BreakoutHit, len(r.Hits))
	for i, h := range r.Hits {
		h.Close = jsonSafe(h.Close)
		out.Hits[i] = h
	}
	return &out
}

// jsonSafe maps non-finite prices to 0; encoding/json rejects NaN and Inf.
func jsonSafe(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
