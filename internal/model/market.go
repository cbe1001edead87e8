package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Supported bar intervals.
const (
	IntervalDaily   = "1d"
	IntervalWeekly  = "1wk"
	IntervalMonthly = "1mo"
)

// ValidInterval reports whether iv is one of the supported intervals.
func ValidInterval(iv string) bool {
	switch iv {
	case IntervalDaily, IntervalWeekly, IntervalMonthly:
		return true
	}
	return false
}

// BarQuery selects the bars to fetch. End is exclusive; a zero End means "now".
type BarQuery struct {
	Interval string
	Start    time.Time
	End      time.Time
}

// PriceSeries holds the bars of one instrument, ascending by time.
type PriceSeries struct {
	Symbol    string
	Interval  string
	Bars      []OHLCV
	FetchedAt time.Time
}

// Last returns the most recent bar. ok is false for an empty series.
func (s *PriceSeries) Last() (bar OHLCV, ok bool) {
	if len(s.Bars) == 0 {
		return OHLCV{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}
