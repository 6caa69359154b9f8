package main

import (
	"context"
	"flag"
	"log"
	"os"

	"CoinCast/internal/di"
	"CoinCast/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	collectDays := flag.Int("collect", 0, "backfill N days of history and exit")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s backend=%s symbol=%s", cfg.Environment, cfg.Backend.Type, cfg.Binance.Symbol)

	// One-shot backfill mode
	if *collectDays > 0 {
		collector, err := di.InitializeBackfill(cfg)
		if err != nil {
			log.Fatalf("backfill initialization failed: %v", err)
		}
		rows, err := collector.Collect(context.Background(), *collectDays)
		if err != nil {
			log.Fatalf("backfill failed: %v", err)
		}
		log.Printf("backfill done: %d rows sunk", rows)
		return
	}

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
