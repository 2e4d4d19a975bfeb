package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"GreenMetrics/internal/analyzer"
	"GreenMetrics/internal/collector"
	"GreenMetrics/internal/config"
	"GreenMetrics/internal/logging"
	"GreenMetrics/internal/notifier"
	"GreenMetrics/internal/recorder"
	"GreenMetrics/internal/runstate"
	"GreenMetrics/internal/scheduler"
)

func main() {
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	cfgPath := flag.String("config", defaultPath, "path to the YAML config file")
	once := flag.Bool("once", false, "run the study once, export the results and exit")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, *once, logger); err != nil {
		logger.Fatal("greenmetrics", zap.Error(err))
	}
}

func newFetcher(cfg *config.Config, logger *zap.Logger) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case "csv":
		return collector.NewCSVFetcher(cfg.DataSource.CSVDir)
	case "mock":
		return &collector.MockFetcher{Seed: 1}
	default:
		f := collector.NewYahooFetcher(cfg.DataSource.Proxy, cfg.DataSource.Timeout, cfg.DataSource.RequestsPerSecond, logger)
		if cfg.DataSource.BaseURL != "" {
			f.BaseURL = cfg.DataSource.BaseURL
		}
		return f
	}
}

func newStudy(cfg *config.Config) (scheduler.Study, analyzer.Options, error) {
	span, err := cfg.Study.Period()
	if err != nil {
		return scheduler.Study{}, analyzer.Options{}, err
	}
	events, err := cfg.Study.MarketEvents()
	if err != nil {
		return scheduler.Study{}, analyzer.Options{}, err
	}
	opts := analyzer.Options{Metrics: cfg.Metrics, Events: events}
	if vp := cfg.Study.VolumePeriods; vp != nil {
		early, late, err := vp.Periods()
		if err != nil {
			return scheduler.Study{}, analyzer.Options{}, err
		}
		opts.Volume = &analyzer.VolumeWindows{Early: early, Late: late}
	}
	study := scheduler.Study{
		Assets:    cfg.Study.Assets,
		Symbols:   cfg.Study.Symbols(),
		Span:      span,
		HurstBand: cfg.Metrics.HurstRandomWalkBand,
		OutputDir: cfg.Output.Dir,
		XLSX:      cfg.Output.XLSX,
	}
	return study, opts, nil
}

func run(cfg *config.Config, once bool, logger *zap.Logger) error {
	logger.Info("GreenMetrics starting", zap.String("provider", cfg.DataSource.Provider), zap.Bool("once", once))

	study, opts, err := newStudy(cfg)
	if err != nil {
		return err
	}
	fetcher := newFetcher(cfg, logger)
	col := collector.NewCollector(fetcher, logger)
	an := analyzer.New(opts, logger)

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	tracker, err := runstate.NewTracker(cfg.Database.StateFile, logger)
	if err != nil {
		return err
	}
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.DataSource.Proxy, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(ctx, study, col, an, rec, tn, tracker, logger)
	if once {
		_, _, err := sched.RunStudy(ctx)
		return err
	}

	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn.Enabled() {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info("telegram polling started")
	} else {
		logger.Info("telegram not configured, notifications disabled")
	}

	logger.Info("GreenMetrics is running", zap.String("cron", cfg.Schedule.Cron))
	<-ctx.Done()
	logger.Info("shutdown signal received, stopping")
	return nil
}
