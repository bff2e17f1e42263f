package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"MarketDash/internal/collector"
	"MarketDash/internal/logger"
	"MarketDash/internal/recorder"
)

// Scheduler manages the background refresh tasks.
type Scheduler struct {
	Cron         *cron.Cron
	Collector    *collector.Collector
	Recorder     recorder.Recorder
	Watchlist    []string
	TableSymbols []string
	Ctx          context.Context

	log *log.Logger
}

// NewScheduler creates a new Scheduler. An empty tableSymbols uses
// collector.DefaultTableSymbols.
func NewScheduler(ctx context.Context, col *collector.Collector, rec recorder.Recorder, watchlist, tableSymbols []string, lg *log.Logger) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if lg == nil {
		lg = logger.Nop()
	}
	if len(tableSymbols) == 0 {
		tableSymbols = collector.DefaultTableSymbols
	}
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Collector:    col,
		Recorder:     rec,
		Watchlist:    watchlist,
		TableSymbols: tableSymbols,
		Ctx:          ctx,
		log:          lg,
	}
}

// RegisterAll registers the watchlist refresh and summary table tasks.
func (s *Scheduler) RegisterAll(refreshCron, tableCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if _, err := s.Cron.AddFunc(tableCron, s.tableTask); err != nil {
		return fmt.Errorf("register table task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunRefreshNow re-fetches the watchlist immediately (for RUN_ON_START).
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

// RunTableNow rebuilds and records the summary table immediately.
func (s *Scheduler) RunTableNow() {
	s.tableTask()
}

func (s *Scheduler) refreshTask() {
	s.log.Info().Strs("symbols", s.Watchlist).Msg("running refresh task")
	for _, symbol := range s.Watchlist {
		if s.Ctx.Err() != nil {
			return
		}
		start := time.Now()
		series, err := s.Collector.Refresh(s.Ctx, symbol)
		evt := &recorder.FetchEvent{
			Kind:     "history",
			Symbol:   collector.NormalizeSymbol(symbol),
			Source:   s.Collector.Fetcher.Name(),
			Duration: time.Since(start),
		}
		if err != nil {
			evt.Err = err.Error()
			s.log.Error().Err(err).Str("symbol", symbol).Msg("refresh failed")
		} else {
			evt.Served = series.Symbol
		}
		if err := s.Recorder.RecordFetch(evt); err != nil {
			s.log.Error().Err(err).Msg("record fetch")
		}
	}
}

func (s *Scheduler) tableTask() {
	s.log.Info().Msg("running table task")
	rows, err := s.Collector.Table(s.Ctx, s.TableSymbols)
	if err != nil {
		s.log.Error().Err(err).Msg("table build failed")
		return
	}
	if err := s.Recorder.RecordTable(rows); err != nil {
		s.log.Error().Err(err).Msg("record table")
	}
}
