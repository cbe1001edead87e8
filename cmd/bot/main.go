package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"SellBreakout/internal/collector"
	"SellBreakout/internal/config"
	"SellBreakout/internal/notifier"
	"SellBreakout/internal/scheduler"
	"SellBreakout/internal/screener"
	"SellBreakout/internal/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] SellBreakout starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	query, err := cfg.Query()
	if err != nil {
		log.Fatalf("[FATAL] scan window: %v", err)
	}
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		log.Fatalf("[FATAL] schedule timezone: %v", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.Provider == "rest" {
		fetcher = collector.NewHTTPFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	col := collector.NewCollector(fetcher)
	scr := screener.New(col, cfg.DetectionConfig(), cfg.Market.Suffix, cfg.Market.Exchange, cfg.Scan.Workers)
	log.Printf("[INFO] sell body threshold: %.2f", scr.Config.SellBodyThreshold)

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, scr, tn, cfg.Watchlist(), query, cfg.Market.Suffix, loc)
	if err := sched.RegisterAll(cfg.Schedule.ScanCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn.Enabled() {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	} else {
		log.Println("[WARN] Telegram not configured, reports will only be logged")
	}

	api := &server.API{
		Screener: scr,
		Defaults: server.Defaults{
			Symbols:  cfg.Scan.Symbols,
			Interval: cfg.Scan.Interval,
			Start:    cfg.Scan.Start,
			End:      cfg.Scan.End,
		},
	}
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: api.Router()}
	go func() {
		log.Printf("[INFO] HTTP server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] HTTP server: %v", err)
		}
	}()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing scan now")
		go sched.RunScanNow()
	}

	log.Println("[INFO] SellBreakout is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] HTTP shutdown: %v", err)
	}
	cancel()
	log.Println("[INFO] SellBreakout stopped")
}
