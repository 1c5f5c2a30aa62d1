package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"

	"BetaScope/internal/collector"
	"BetaScope/internal/config"
	"BetaScope/internal/notifier"
	"BetaScope/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] BetaScope starting...")

	if err := config.LoadEnvFile(".env"); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

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

	// Init fetcher
	limiter := rate.NewLimiter(rate.Limit(cfg.Fetch.RatePerSecond), cfg.Fetch.Burst)
	fetcher := collector.NewTInvestFetcher(cfg.TInvest.BaseURL, cfg.TInvest.Token, cfg.Proxy, cfg.Fetch.Timeout, limiter)
	log.Printf("[INFO] data source: %s", fetcher.Name())

	col := collector.NewCollector(fetcher, cfg.Fetch.Timeout, cfg.Fetch.Concurrency)

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	}

	sched := scheduler.NewScheduler(ctx, col, sender, os.Stdout, scheduler.Job{
		IndexFIGI:  cfg.Index.FIGI,
		Securities: cfg.Securities,
		Months:     cfg.Window.Months,
		LagDays:    cfg.Window.LagDays,
	})

	if cfg.Schedule.ReportCron == "" {
		if _, err := sched.RunOnce(ctx); err != nil {
			log.Fatalf("[FATAL] beta report: %v", err)
		}
		return
	}

	if err := sched.Register(cfg.Schedule.ReportCron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, running report now")
		go func() {
			if _, err := sched.RunOnce(ctx); err != nil {
				log.Printf("[ERROR] beta report: %v", err)
			}
		}()
	}

	log.Printf("[INFO] BetaScope is running on %q. Press Ctrl+C to stop.", cfg.Schedule.ReportCron)
	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
}
