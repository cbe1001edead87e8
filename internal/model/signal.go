package model

import "time"

// ScanRequest is one screening run over an explicit symbol list.
type ScanRequest struct {
	Symbols []string
	Query   BarQuery
}

// BreakoutHit is a symbol whose latest bar closed above the tracked sell-candle high.
type BreakoutHit struct {
	Code     string    `json:"code"`
	Symbol   string    `json:"symbol"`
	Close    float64   `json:"close"`
	Time     time.Time `json:"time"`
	ChartURL string    `json:"chart_url,omitempty"`
}

// SymbolError records a symbol that could not be screened.
type SymbolError struct {
	Symbol string `json:"symbol"`
	Err    string `json:"error"`
}

// ScanReport is the outcome of a screening run.
type ScanReport struct {
	Interval  string        `json:"interval"`
	Requested int           `json:"requested"`
	Hits      []BreakoutHit `json:"hits"`
	Failed    []SymbolError `json:"failed,omitempty"`
	ScannedAt time.Time     `json:"scanned_at"`
}
