package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/phuslu/log"
	"github.com/prometheus/client_golang/prometheus"

	"MarketDash/internal/calculator"
	"MarketDash/internal/collector"
	"MarketDash/internal/config"
	"MarketDash/internal/dashboard"
	"MarketDash/internal/logger"
	"MarketDash/internal/metrics"
	"MarketDash/internal/recorder"
	"MarketDash/internal/report"
	"MarketDash/internal/scheduler"
)

func main() {
	cfgPath := flag.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "Path to YAML or TOML config")
	symbol := flag.String("symbol", "", "Ticker to chart (default: fallback symbol)")
	indicators := flag.String("indicators", "", "Comma-separated indicators: OBV,MACD,SO,A/D")
	std := flag.Float64("std", 0, "Bollinger band width in standard deviations")
	periods := flag.Int("periods", 0, "Rolling window length")
	hover := flag.Int("hover", -1, "Bar offset for the price levels readout (default: latest)")
	mock := flag.Bool("mock", false, "Use generated data instead of a live provider")
	daemon := flag.Bool("daemon", false, "Run the refresh scheduler until interrupted")
	history := flag.Int("history", 0, "Print the last N recorded views for -symbol and exit")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *mock {
		cfg.DataSource.Provider = "mock"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	lg := logger.New(cfg.Log.Level, cfg.Log.Format)
	lg.Info().Str("provider", cfg.DataSource.Provider).Msg("MarketDash starting")

	reg := prometheus.NewRegistry()
	m := metrics.New(cfg.Metrics.Namespace, reg)

	fetcher := newFetcher(cfg)
	col := collector.NewCollector(fetcher, collector.Options{
		Capacity:       cfg.Cache.Capacity,
		FallbackSymbol: cfg.Cache.FallbackSymbol,
		Logger:         lg,
		Metrics:        m,
	})

	rec, closeRec := newRecorder(cfg.Database.Path, lg)
	defer closeRec()

	if *history > 0 {
		sr, ok := rec.(*recorder.SQLiteRecorder)
		if !ok {
			lg.Fatal().Msg("history needs database.path")
		}
		views, err := sr.LatestViews(collector.NormalizeSymbol(*symbol), *history)
		if err != nil {
			lg.Fatal().Err(err).Msg("read history")
		}
		fmt.Print(report.FormatHistory(views))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *daemon {
		runDaemon(ctx, cancel, cfg, col, rec, reg, lg)
		return
	}

	kinds, err := dashboard.ParseIndicators(*indicators)
	if err != nil {
		lg.Fatal().Err(err).Msg("parse indicators")
	}
	req := dashboard.Request{Symbol: *symbol, Indicators: kinds}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "std":
			req.Params.Std = std
		case "periods":
			req.Params.Periods = periods
		case "hover":
			req.Hover = hover
		}
	})
	if err := req.Params.Validate(); err != nil {
		lg.Warn().Err(err).Msg("invalid parameter, using default")
	}

	svc := dashboard.NewService(col, dashboard.Options{
		Defaults: calculator.Defaults{
			Periods:          cfg.Indicators.Periods,
			Std:              cfg.Indicators.Std,
			StochasticWindow: cfg.Indicators.StochasticWindow,
		},
		Recorder: rec,
		Logger:   lg,
		Metrics:  m,
	})
	view, err := svc.Build(ctx, req)
	if err != nil {
		lg.Fatal().Err(err).Msg("build view")
	}
	fmt.Print(report.FormatView(view))

	rows, err := col.MostActive(ctx)
	if err != nil {
		lg.Error().Err(err).Msg("most active")
		return
	}
	fmt.Print("\n" + report.FormatTable(rows))
}

func runDaemon(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, col *collector.Collector, rec recorder.Recorder, reg *prometheus.Registry, lg *log.Logger) {
	sched := scheduler.NewScheduler(ctx, col, rec, cfg.Watchlist, cfg.TableSymbols, lg)
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.TableCron); err != nil {
		lg.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Metrics.Addr != "" {
		ms := metrics.NewServer(cfg.Metrics.Addr, reg, lg)
		ms.Start()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if err := ms.Stop(shutdownCtx); err != nil {
				lg.Error().Err(err).Msg("stop metrics server")
			}
		}()
	}

	if cfg.Schedule.RunOnStart {
		lg.Info().Msg("run_on_start enabled, refreshing watchlist now")
		go func() {
			sched.RunRefreshNow()
			sched.RunTableNow()
		}()
	}

	lg.Info().Msg("MarketDash is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	lg.Info().Msg("shutdown signal received, stopping...")
	cancel()
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case "mock":
		return &collector.MockFetcher{Price: 150}
	case "alpaca":
		return collector.NewAlpacaFetcher(cfg.DataSource.AlpacaKey, cfg.DataSource.AlpacaSecret,
			collector.NewYahooFetcher(cfg.DataSource.Proxy))
	default:
		return collector.NewYahooFetcher(cfg.DataSource.Proxy)
	}
}

func newRecorder(path string, lg *log.Logger) (recorder.Recorder, func()) {
	if path == "" {
		return recorder.NewNoopRecorder(), func() {}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		lg.Warn().Err(err).Msg("create database directory failed, using noop recorder")
		return recorder.NewNoopRecorder(), func() {}
	}
	sr, err := recorder.NewSQLiteRecorder(path, lg)
	if err != nil {
		lg.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder(), func() {}
	}
	return sr, func() { sr.Close() }
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
