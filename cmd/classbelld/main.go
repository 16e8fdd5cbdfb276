package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/joho/godotenv"

	"classbell/internal/config"
	"classbell/internal/delivery"
	"classbell/internal/eventbus"
	"classbell/internal/feed"
	"classbell/internal/policy"
	"classbell/internal/reminder"
	"classbell/internal/storage"
	logx "classbell/pkg/logx"
)

func main() {
	// Optional .env for the telegram token and friends.
	_ = godotenv.Load()

	defCfg := os.Getenv("CLASSBELL_CONFIG")
	if defCfg == "" {
		defCfg = "./config.yaml"
	}
	var cfgPath string
	flag.StringVar(&cfgPath, "config", defCfg, "path to config file (json or yaml)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		fmt.Println("fatal: load config:", err)
		os.Exit(1)
	}
	if err := config.Validate(ctx, cfg); err != nil {
		fmt.Println("fatal: invalid config:", err)
		os.Exit(1)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	defer logSvc.Close()

	mgr.SetLogger(log.With(logx.String("comp", "config")))
	mgr.SetValidator(config.Validate)

	loc := time.Local
	if tz := strings.TrimSpace(cfg.Reminders.Timezone); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			fmt.Println("fatal: reminders.timezone:", err)
			os.Exit(1)
		}
	}

	busyTimeout, _ := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		log.Warn("storage unavailable; registry will not survive restarts", logx.Err(err))
		store = nil
	}

	sink, err := buildSink(cfg.Delivery, log)
	if err != nil {
		fmt.Println("fatal: delivery sink:", err)
		os.Exit(1)
	}
	hub := delivery.NewLocalHub(delivery.LocalConfig{
		Workers:    cfg.Delivery.Workers,
		RatePerSec: cfg.Delivery.RatePerSec,
	}, sink, log.With(logx.String("comp", "delivery")))
	hub.Start(ctx)

	reg := reminder.NewRegistry(store, hub, log.With(logx.String("comp", "registry")))
	if err := reg.Load(ctx); err != nil {
		log.Warn("failed to restore reminder registry", logx.Err(err))
	}
	reg.ExpireBefore(time.Now())

	bus := eventbus.New()
	prefs := feed.NewPrefStore()

	lead, _ := config.ParseDurationOrDefault("reminders.lead_time", cfg.Reminders.LeadTime, 5*time.Minute)
	sched, err := reminder.NewScheduler(reminder.Config{
		ProjectionDays: cfg.Reminders.ProjectionDays,
		ShallowDays:    cfg.Reminders.ShallowDays,
		LeadTime:       lead,
		SweepSpec:      cfg.Reminders.SweepSpec,
		Timezone:       cfg.Reminders.Timezone,
	}, reg, hub, policy.Policy{Courses: prefs, Metas: prefs, LeadTime: lead}, bus, log.With(logx.String("comp", "scheduler")))
	if err != nil {
		fmt.Println("fatal: scheduler:", err)
		os.Exit(1)
	}
	// Subscribe before the feeds publish their initial loads.
	sched.Start(ctx)

	refresh, _ := config.ParseDurationField("feeds.refresh", cfg.Feeds.Refresh)
	feedSvc := feed.New(feed.Config{
		DataDir: cfg.Feeds.DataDir,
		Refresh: refresh,
	}, prefs, bus, loc, log.With(logx.String("comp", "feed")))
	if err := feedSvc.Start(ctx); err != nil {
		fmt.Println("fatal: feeds:", err)
		os.Exit(1)
	}

	// Hot-reload: logging is the only section applied live; everything else
	// needs a restart and says so.
	sub := mgr.Subscribe(4)
	go func() {
		for next := range sub {
			logSvc.Apply(logx.Config{
				Level:   next.Logging.Level,
				Console: next.Logging.Console,
				File: logx.FileConfig{
					Enabled: next.Logging.File.Enabled,
					Path:    next.Logging.File.Path,
				},
			})
			log.Info("config reloaded; non-logging changes take effect on restart")
		}
	}()
	go func() { _ = mgr.Watch(ctx) }()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	go watchdogLoop(ctx)

	log.Info("classbell running", logx.String("config", cfgPath))
	<-ctx.Done()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()

	feedSvc.Stop()
	sched.Stop(shutdownCtx)
	hub.Stop(shutdownCtx)
	if store != nil {
		_ = store.Close()
	}
	log.Info("classbell stopped")
}

func buildSink(cfg config.DeliveryConfig, log logx.Logger) (delivery.Sink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "log":
		return delivery.LogSink{Log: log.With(logx.String("comp", "sink"))}, nil
	case "telegram":
		if cfg.Telegram == nil {
			return nil, fmt.Errorf("delivery.telegram section is missing")
		}
		return delivery.NewTelegramSink(delivery.TelegramConfig{
			Token:  cfg.Telegram.Token,
			ChatID: cfg.Telegram.ChatID,
		}, log.With(logx.String("comp", "sink")))
	default:
		return nil, fmt.Errorf("unknown delivery driver %q", cfg.Driver)
	}
}

// watchdogLoop pings systemd's watchdog at half the configured interval.
func watchdogLoop(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return
	}
	t := time.NewTicker(interval / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}
}
