package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"SellBreakout/internal/model"
	"SellBreakout/internal/notifier"
	"SellBreakout/internal/screener"
	"SellBreakout/internal/symbols"

	"github.com/robfig/cron/v3"
)

// Sender delivers formatted reports.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
	Enabled() bool
}

// Scheduler runs the watchlist scan on a cron schedule and answers bot commands.
type Scheduler struct {
	Cron      *cron.Cron
	Screener  *screener.Screener
	Notifier  Sender
	Watchlist []string
	Query     model.BarQuery
	Suffix    string
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler firing in loc.
func NewScheduler(ctx context.Context, scr *screener.Screener, n Sender, watchlist []string, q model.BarQuery, suffix string, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Screener:  scr,
		Notifier:  n,
		Watchlist: watchlist,
		Query:     q,
		Suffix:    suffix,
		Ctx:       ctx,
	}
}

// RegisterAll registers the scheduled scan.
func (s *Scheduler) RegisterAll(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunScanNow executes the watchlist scan immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	log.Printf("[INFO] running scheduled scan over %d symbols", len(s.Watchlist))
	report := s.scan(s.Watchlist)
	s.trySend(notifier.FormatScanReport(report))
}

// scan runs the screener over syms with the window ending now, so a
// scheduled run always sees the latest bar.
func (s *Scheduler) scan(syms []string) *model.ScanReport {
	q := s.Query
	q.End = time.Time{}
	return s.Screener.Run(s.Ctx, model.ScanRequest{Symbols: syms, Query: q})
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	name := fields[0]
	if i := strings.Index(name, "@"); i > 0 {
		name = name[:i] // "/scan@SomeBot" in group chats
	}

	switch name {
	case "/scan":
		syms := s.Watchlist
		if len(fields) > 1 {
			syms = symbols.Parse(strings.Join(fields[1:], " "), s.Suffix)
		}
		return notifier.FormatScanReport(s.scan(syms))
	case "/symbols", "/watchlist":
		return notifier.FormatWatchlist(s.Watchlist)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if !s.Notifier.Enabled() {
		log.Printf("[INFO] telegram disabled, report not sent:\n%s", text)
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
