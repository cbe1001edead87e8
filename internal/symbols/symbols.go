package symbols

import (
	"fmt"
	"net/url"
	"strings"

	"SellBreakout/internal/model"
)

// Parse splits a whitespace or comma separated ticker list, drops duplicates
// while keeping the first occurrence, and appends suffix to bare codes.
func Parse(input, suffix string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\r' || r == '\t'
	})
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		sym := strings.ToUpper(strings.TrimSpace(f))
		if sym == "" {
			continue
		}
		if suffix != "" && !strings.HasSuffix(sym, strings.ToUpper(suffix)) {
			sym += strings.ToUpper(suffix)
		}
		if seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out
}

// Code strips the market suffix for display.
func Code(symbol, suffix string) string {
	if suffix == "" {
		return symbol
	}
	return strings.TrimSuffix(symbol, strings.ToUpper(suffix))
}

// chartInterval maps bar intervals to TradingView's interval codes.
func chartInterval(interval string) string {
	switch interval {
	case model.IntervalWeekly:
		return "W"
	case model.IntervalMonthly:
		return "M"
	default:
		return "D"
	}
}

// ChartURL returns the TradingView widget URL for a code on exchange.
func ChartURL(exchange, code, interval string) string {
	tv := code
	if exchange != "" {
		tv = exchange + ":" + code
	}
	return fmt.Sprintf("https://s.tradingview.com/widgetembed/?symbol=%s&interval=%s&theme=light",
		url.QueryEscape(tv), chartInterval(interval))
}
