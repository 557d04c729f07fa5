package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"YieldGuardian/internal/audit"
	"YieldGuardian/internal/chain"
	"YieldGuardian/internal/config"
	"YieldGuardian/internal/executor"
	"YieldGuardian/internal/guardian"
	"YieldGuardian/internal/ledger"
	"YieldGuardian/internal/model"
	"YieldGuardian/internal/notifier"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] Yield Guardian starting...")

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

	// Init ledger from configuration
	mode, err := model.ParseSpendingMode(cfg.Ledger.SpendingMode)
	if err != nil {
		log.Fatalf("[FATAL] spending mode: %v", err)
	}
	sources := make([]model.YieldSource, 0, len(cfg.YieldSources))
	for _, s := range cfg.YieldSources {
		sources = append(sources, model.YieldSource{
			Name:          s.Name,
			Origin:        model.OriginSimulated,
			PrincipalUSD:  decimal.NewFromFloat(s.PrincipalUSD),
			AnnualRatePct: decimal.NewFromFloat(s.APYPercent),
			LastUpdated:   time.Now(),
		})
	}
	led, err := ledger.New(
		decimal.NewFromFloat(cfg.Ledger.PrincipalUSD),
		decimal.NewFromFloat(cfg.Ledger.InitialYieldUSD),
		mode, sources, time.Now(),
	)
	if err != nil {
		log.Fatalf("[FATAL] init ledger: %v", err)
	}

	// Init chain collaborators
	watch := cfg.WatchAddress()
	mon := chain.NewMonitor(watch, cfg.Chain.RPCURL, cfg.Chain.ExplorerAPI, cfg.Wallet.ExplorerAPIKey, cfg.Chain.Tokens, cfg.Proxy)
	defi := chain.NewAaveTracker(watch, cfg.Chain.RPCURL, cfg.Proxy, cfg.Aave.Pool, cfg.Aave.AUSDC, cfg.Aave.EstimatedAPY)
	exec := executor.New(cfg.Executor.RelayURL, cfg.Executor.APIKey, cfg.Executor.Destination, cfg.Proxy)
	if !exec.Enabled() {
		log.Println("[WARN] no transfer relay configured, /transfer is disabled")
	}

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Init audit writer
	var aw audit.Writer
	if cfg.Database.SQLitePath != "" {
		sw, err := audit.NewSQLiteWriter(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite audit writer failed, using noop: %v", err)
			aw = audit.NewNoopWriter()
		} else {
			aw = sw
			defer sw.Close()
		}
	} else {
		aw = audit.NewNoopWriter()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init guardian driver
	g := guardian.New(ctx, led, mon, defi, exec, tn, aw)
	if err := g.RegisterAll(cfg.Schedule.TickCron, cfg.Schedule.RefreshCron, cfg.Schedule.SnapshotCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}

	// Populate DeFi sources and persist a baseline snapshot before the
	// first tick.
	g.RefreshSources()
	g.WriteSnapshot()

	g.Start()
	defer g.Stop()

	// Start Telegram polling
	go tn.StartPolling(ctx, g.HandleCommand)
	log.Println("[INFO] Telegram polling started")
	log.Printf("[INFO] monitoring wallet: %s", watch)

	log.Println("[INFO] Yield Guardian is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] Yield Guardian stopped")
}
