package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"SellBreakout/internal/collector"
	"SellBreakout/internal/config"
	"SellBreakout/internal/model"
	"SellBreakout/internal/screener"
	"SellBreakout/internal/strategy"
	"SellBreakout/internal/symbols"
)

func main() {
	var (
		symbolsStr string
		interval   string
		fromStr    string
		toStr      string
		threshold  float64
		suffix     string
		exchange   string
		baseURL    string
		apiKey     string
		workers    int
		outCSV     string
	)

	flag.StringVar(&symbolsStr, "symbols", "1120 2380 1050", "space or comma separated ticker codes")
	flag.StringVar(&interval, "interval", model.IntervalDaily, "bar interval (1d, 1wk, 1mo)")
	flag.StringVar(&fromStr, "from", "2020-01-01", "start date (YYYY-MM-DD)")
	flag.StringVar(&toStr, "to", "", "end date, inclusive (YYYY-MM-DD, default today)")
	flag.Float64Var(&threshold, "threshold", strategy.DefaultSellBodyThreshold, "minimum body/range ratio of a sell candle")
	flag.StringVar(&suffix, "suffix", ".SR", "market suffix appended to bare codes")
	flag.StringVar(&exchange, "exchange", "TADAWUL", "exchange prefix for chart links")
	flag.StringVar(&baseURL, "base-url", "", "optional: REST bars API instead of Yahoo Finance")
	flag.StringVar(&apiKey, "api-key", os.Getenv("DATA_API_KEY"), "bearer key for -base-url")
	flag.IntVar(&workers, "workers", 4, "symbols fetched in parallel")
	flag.StringVar(&outCSV, "csv", "", "optional: write breakouts to CSV")
	flag.Parse()

	q, err := config.ParseQuery(interval, fromStr, toStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg := strategy.Config{SellBodyThreshold: threshold}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	syms := symbols.Parse(symbolsStr, suffix)
	if len(syms) == 0 {
		fmt.Fprintln(os.Stderr, "error: -symbols is empty")
		os.Exit(1)
	}

	var fetcher collector.Fetcher = collector.NewYahooFetcher(os.Getenv("HTTPS_PROXY"))
	if baseURL != "" {
		fetcher = collector.NewHTTPFetcher(baseURL, apiKey, os.Getenv("HTTPS_PROXY"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scr := screener.New(collector.NewCollector(fetcher), cfg, suffix, exchange, workers)
	report := scr.Run(ctx, model.ScanRequest{Symbols: syms, Query: q})

	fmt.Printf("symbols: %d  breakouts: %d  failed: %d\n", report.Requested, len(report.Hits), len(report.Failed))
	if len(report.Hits) == 0 {
		fmt.Println("no new breakouts")
	}
	for _, h := range report.Hits {
		fmt.Printf("%-8s %10.2f  %s  %s\n", h.Code, h.Close, h.Time.Format("2006-01-02"), h.ChartURL)
	}
	for _, f := range report.Failed {
		fmt.Printf("failed   %s: %s\n", f.Symbol, f.Err)
	}

	if outCSV != "" {
		f, err := os.Create(outCSV)
		if err != nil {
			log.Fatalf("[FATAL] create csv: %v", err)
		}
		defer f.Close()
		if err := screener.WriteCSV(f, report.Hits); err != nil {
			log.Fatalf("[FATAL] write csv: %v", err)
		}
		fmt.Printf("wrote %d rows to %s\n", len(report.Hits), outCSV)
	}
}
