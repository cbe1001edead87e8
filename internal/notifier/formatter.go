package notifier

import (
	"fmt"
	"html"
	"strings"

	"SellBreakout/internal/model"
)

var intervalLabels = map[string]string{
	model.IntervalDaily:   "daily",
	model.IntervalWeekly:  "weekly",
	model.IntervalMonthly: "monthly",
}

// FormatScanReport formats a screening run into a Telegram HTML message.
func FormatScanReport(r *model.ScanReport) string {
	var b strings.Builder

	label := intervalLabels[r.Interval]
	if label == "" {
		label = r.Interval
	}
	b.WriteString(fmt.Sprintf("📉 <b>Sell-candle breakouts</b> | %s | %s\n\n", label, r.ScannedAt.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Symbols scanned: %d\n", r.Requested))
	b.WriteString(fmt.Sprintf("Breakouts: %d\n", len(r.Hits)))
	if len(r.Failed) > 0 {
		b.WriteString(fmt.Sprintf("Failed: %d\n", len(r.Failed)))
	}

	if len(r.Hits) == 0 {
		b.WriteString("\n🔎 No new breakouts.\n")
	} else {
		b.WriteString("\n")
		for _, h := range r.Hits {
			b.WriteString(fmt.Sprintf("📊 <b>%s</b> – %.2f", html.EscapeString(h.Code), h.Close))
			if h.ChartURL != "" {
				b.WriteString(fmt.Sprintf(" | <a href=\"%s\">chart</a>", html.EscapeString(h.ChartURL)))
			}
			b.WriteString("\n")
		}
	}

	if len(r.Failed) > 0 {
		names := make([]string, len(r.Failed))
		for i, f := range r.Failed {
			names[i] = html.EscapeString(f.Symbol)
		}
		b.WriteString(fmt.Sprintf("\n⚠️ No data: %s\n", strings.Join(names, ", ")))
	}
	return b.String()
}

// FormatWatchlist lists the symbols scanned by the scheduled task.
func FormatWatchlist(symbols []string) string {
	if len(symbols) == 0 {
		return "Watchlist is empty."
	}
	return fmt.Sprintf("👀 <b>Watchlist</b> (%d)\n%s", len(symbols), html.EscapeString(strings.Join(symbols, " ")))
}

// FormatHelp lists the available bot commands.
func FormatHelp() string {
	return "Available commands:\n" +
		"• /scan – scan the watchlist\n" +
		"• /scan 1120 2380 – scan the given codes\n" +
		"• /symbols – show the watchlist"
}
